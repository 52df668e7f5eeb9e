package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"sculpt/pkg/buildmeta"
)

func newCleanCommand() *cobra.Command {
	all := false
	cmd := &cobra.Command{
		Use:   "clean [input]",
		Short: "Remove build outputs",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input := ""
			if len(args) == 1 {
				input = args[0]
			}
			return runClean(cmd, afero.NewOsFs(), input, all)
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "remove the whole dist directory")
	return cmd
}

func runClean(cmd *cobra.Command, fs afero.Fs, input string, all bool) error {
	out := cmd.OutOrStdout()
	if all {
		exists, err := afero.DirExists(fs, "dist")
		if err != nil {
			return err
		}
		if !exists {
			fmt.Fprintln(out, "Nothing to clean.")
			return nil
		}
		if err := fs.RemoveAll("dist"); err != nil {
			return err
		}
		fmt.Fprintln(out, "Removed dist")
		return nil
	}

	if input == "" {
		return errors.New("Provide an input file or use --all")
	}
	distDir := buildmeta.DistDirFor(input)
	exists, err := afero.DirExists(fs, distDir)
	if err != nil {
		return err
	}
	if !exists {
		fmt.Fprintf(out, "Nothing to clean for %s\n", input)
		return nil
	}
	if err := fs.RemoveAll(distDir); err != nil {
		return err
	}
	fmt.Fprintf(out, "Removed %s\n", distDir)
	return nil
}
