package cli

import (
	"github.com/spf13/cobra"
)

func newFreezeCommand() *cobra.Command {
	opts := &compileOptions{freeze: true}
	cmd := &cobra.Command{
		Use:   "freeze <input>",
		Short: "Compile and pin the accepted IR in sculpt.lock",
		Long: `Run a full build and bind the accepted target IR to the source module's
canonical digest in sculpt.lock. A frozen module replays byte for byte
without any generation calls until its source changes.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.input = args[0]
			return runCompile(cmd, opts)
		},
	}
	addCompileFlags(cmd, opts)
	return cmd
}
