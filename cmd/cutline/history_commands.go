package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"cutline/internal/api"
	"cutline/internal/history"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect past exports",
	}
	historyCmd.AddCommand(newHistoryListCommand(ctx))
	historyCmd.AddCommand(newHistoryShowCommand(ctx))
	historyCmd.AddCommand(newHistoryPruneCommand(ctx))
	return historyCmd
}

func newHistoryListCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent exports",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.historyStore()
			if err != nil {
				return err
			}
			exports, err := store.ListExports(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if jsonOut {
				records := make([]api.ExportRecord, 0, len(exports))
				for _, rec := range exports {
					records = append(records, api.FromHistory(rec))
				}
				return writeJSON(cmd, records)
			}
			out := cmd.OutOrStdout()
			if len(exports) == 0 {
				fmt.Fprintln(out, "No exports recorded")
				return nil
			}
			rows := make([][]string, 0, len(exports))
			for _, rec := range exports {
				rows = append(rows, []string{
					rec.ID,
					rec.Mode,
					string(rec.Status),
					fmt.Sprintf("%.0f%%", rec.Percent),
					rec.OutputPath,
					rec.CreatedAt.Local().Format(time.DateTime),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"ID", "Mode", "Status", "Progress", "Output", "Created"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignLeft, alignLeft},
			))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of exports to list (0 for all)")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print records as JSON")
	return cmd
}

func newHistoryShowCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one export",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.historyStore()
			if err != nil {
				return err
			}
			rec, err := store.GetExport(cmd.Context(), strings.TrimSpace(args[0]))
			if err != nil {
				return err
			}
			if jsonOut {
				return writeJSON(cmd, api.FromHistory(rec))
			}
			printExportRecord(cmd, rec)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print the record as JSON")
	return cmd
}

func printExportRecord(cmd *cobra.Command, rec *history.Export) {
	out := cmd.OutOrStdout()
	colorize := shouldColorize(out)
	for _, line := range renderSectionHeader("Export "+rec.ID, colorize) {
		fmt.Fprintln(out, line)
	}
	fmt.Fprintln(out, renderStatusLine("Status", historyKind(rec.Status), string(rec.Status), colorize))
	fmt.Fprintln(out, renderStatusLine("Mode", statusInfo, rec.Mode, colorize))
	fmt.Fprintln(out, renderStatusLine("Output", statusInfo, rec.OutputPath, colorize))
	fmt.Fprintln(out, renderStatusLine("Clips", statusInfo, fmt.Sprintf("%d", rec.ClipCount), colorize))
	if rec.Phase != "" {
		fmt.Fprintln(out, renderStatusLine("Phase", statusInfo, fmt.Sprintf("%s (%.0f%%)", rec.Phase, rec.Percent), colorize))
	}
	fmt.Fprintln(out, renderStatusLine("Expected duration", statusInfo, fmt.Sprintf("%.2fs", rec.ExpectedDuration), colorize))
	if rec.Status == history.StatusComplete {
		fmt.Fprintln(out, renderStatusLine("Output duration", statusInfo, fmt.Sprintf("%.2fs", rec.OutputDuration), colorize))
		fmt.Fprintln(out, renderStatusLine("Output size", statusInfo, formatBytes(rec.OutputBytes), colorize))
	}
	if rec.ErrorMessage != "" {
		fmt.Fprintln(out, renderStatusLine("Error", statusError, rec.ErrorMessage, colorize))
	}
	fmt.Fprintln(out, renderStatusLine("Updated", statusInfo, rec.UpdatedAt.Local().Format(time.DateTime), colorize))
}

func historyKind(status history.Status) statusKind {
	switch status {
	case history.StatusComplete:
		return statusOK
	case history.StatusFailed:
		return statusError
	case history.StatusCancelled:
		return statusWarn
	default:
		return statusInfo
	}
}

func newHistoryPruneCommand(ctx *commandContext) *cobra.Command {
	var olderThan time.Duration

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Remove finished exports older than a cutoff",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.historyStore()
			if err != nil {
				return err
			}
			removed, err := store.PruneExports(cmd.Context(), time.Now().Add(-olderThan))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d export record(s)\n", removed)
			return nil
		},
	}

	cmd.Flags().DurationVar(&olderThan, "older-than", 30*24*time.Hour, "Age of records to remove")
	return cmd
}
