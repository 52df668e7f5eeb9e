package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"sculpt/pkg/target"
)

func newTargetsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "targets",
		Short: "Inspect available build targets",
	}
	cmd.AddCommand(newTargetsListCommand())
	cmd.AddCommand(newTargetsDescribeCommand())
	return cmd
}

func newTargetsListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the built-in target families",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "Available targets:")
			for _, name := range target.List() {
				fmt.Fprintf(out, "  %s\n", name)
			}
			return nil
		},
	}
}

func newTargetsDescribeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "describe <name>",
		Short: "Print a target's descriptor as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			spec, err := target.Resolve(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			data, err := json.MarshalIndent(spec.Raw, "", "  ")
			if err != nil {
				return fmt.Errorf("encode target descriptor: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		},
	}
}
