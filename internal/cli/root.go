// Package cli wires the sculpt command tree. Commands stay thin: flag
// parsing and presentation live here, compile semantics live under pkg.
package cli

import (
	"github.com/spf13/cobra"

	"sculpt/pkg/logx"
	"sculpt/pkg/version"
)

var logger = logx.NewLogger("cli")

// NewRootCommand builds the sculpt command tree.
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "sculpt",
		Short:   "SCULPT compiler - (C) 2026 byte5 GmbH",
		Version: version.Version,
		// Runtime failures are reported by main; usage help on a failed
		// build would bury the actual error.
		SilenceUsage: true,
	}
	cmd.AddCommand(newBuildCommand())
	cmd.AddCommand(newFreezeCommand())
	cmd.AddCommand(newReplayCommand())
	cmd.AddCommand(newTargetsCommand())
	cmd.AddCommand(newHistoryCommand())
	cmd.AddCommand(newAuthCommand())
	cmd.AddCommand(newCleanCommand())
	cmd.AddCommand(newVersionCommand())
	return cmd
}
