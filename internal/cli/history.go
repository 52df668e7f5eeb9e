package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"sculpt/pkg/buildmeta"
	"sculpt/pkg/config"
)

func newHistoryCommand() *cobra.Command {
	limit := 0
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent build records",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(cmd, limit)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of records to show")
	return cmd
}

func runHistory(cmd *cobra.Command, limit int) error {
	out := cmd.OutOrStdout()
	cfg := config.Load(".")
	path := cfg.HistoryDB
	if path == "" {
		path = buildmeta.DefaultHistoryPath
	}
	if _, err := os.Stat(path); err != nil {
		fmt.Fprintln(out, "No build history.")
		return nil
	}

	h, err := buildmeta.OpenHistory(path)
	if err != nil {
		return err
	}
	defer h.Close()

	entries, err := h.Recent(limit)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Fprintln(out, "No build history.")
		return nil
	}
	for _, e := range entries {
		fmt.Fprintln(out, formatHistoryEntry(e))
	}
	return nil
}

func formatHistoryEntry(e buildmeta.Entry) string {
	ts := time.UnixMilli(e.TimestampUnixMS).UTC().Format("2006-01-02 15:04:05")
	who := "-"
	if e.Provider != "" {
		who = e.Provider
		if e.Model != "" {
			who += "/" + e.Model
		}
	}
	return fmt.Sprintf("%s  %-7s %-7s %-10s %-32s %6dms  %s",
		ts, e.Action, e.Status, e.Target, who, e.TotalMillis, e.Script)
}
