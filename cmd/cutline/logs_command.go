package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"cutline/internal/history"
	"cutline/internal/logs"
)

func newLogsCommand(ctx *commandContext) *cobra.Command {
	var lines int
	var follow bool

	cmd := &cobra.Command{
		Use:   "logs <export-id>",
		Short: "Show the log of one export",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := ctx.configValue()
			path, err := logs.ExportPath(cfg.Paths.LogDir, args[0])
			if err != nil {
				return err
			}
			if _, err := os.Stat(path); err != nil && !follow {
				return fmt.Errorf("no log for export %s: %w", args[0], err)
			}

			out := cmd.OutOrStdout()
			tail, offset, err := logs.Last(path, lines)
			if err != nil {
				return err
			}
			for _, line := range tail {
				fmt.Fprintln(out, line)
			}
			if !follow {
				return nil
			}

			store, err := ctx.historyStore()
			if err != nil {
				return err
			}
			followCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			_, err = logs.Follow(followCtx, path, offset, 250*time.Millisecond,
				func(line string) { fmt.Fprintln(out, line) },
				func() bool { return exportFinished(followCtx, store, args[0]) },
			)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}

	cmd.Flags().IntVarP(&lines, "lines", "n", 50, "Number of trailing lines to show")
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Keep printing lines until the export finishes")
	return cmd
}

// exportFinished reports whether the recorded export has reached a terminal
// status. Unknown exports count as running so a follow started just before
// the export is recorded keeps waiting.
func exportFinished(ctx context.Context, store *history.Store, id string) bool {
	rec, err := store.GetExport(ctx, id)
	if err != nil {
		return false
	}
	return rec.Status.IsTerminal()
}
