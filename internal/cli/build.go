package cli

import (
	"github.com/spf13/cobra"
)

func newBuildCommand() *cobra.Command {
	opts := &compileOptions{}
	cmd := &cobra.Command{
		Use:   "build <input>",
		Short: "Compile a source module into its target IR",
		Long: `Compile a validated source module into the canonical IR of its target
family. The capability gate runs first, then the convergence loop fills
unspecified parts through the configured generation provider.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.input = args[0]
			return runCompile(cmd, opts)
		},
	}
	addCompileFlags(cmd, opts)
	return cmd
}

func addCompileFlags(cmd *cobra.Command, opts *compileOptions) {
	cmd.Flags().StringVar(&opts.target, "target", "", "target family or external target name")
	cmd.Flags().StringVar(&opts.provider, "provider", "", "generation provider (openai|anthropic|gemini|ollama|stub)")
	cmd.Flags().StringVar(&opts.model, "model", "", "override model (defaults to provider config)")
	cmd.Flags().BoolVar(&opts.strict, "strict", false, "fail instead of stubbing when the provider has no credential")
	cmd.Flags().StringVar(&opts.debug, "debug", "", "debug output level (compact|raw|all|json)")
	cmd.Flags().Lookup("debug").NoOptDefVal = "compact"
	cmd.Flags().StringVar(&opts.out, "out", "", "output directory (default dist/<stem>)")
}
