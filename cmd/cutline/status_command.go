package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"cutline/internal/api"
	"cutline/internal/deps"
	"cutline/internal/export"
	"cutline/internal/preflight"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Check dependencies, directories and the latest export",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := ctx.configValue()
			statuses := preflight.CheckSystemDeps(cmd.Context(), cfg)
			checks := preflight.RunAll(cmd.Context(), cfg, "")

			store, err := ctx.historyStore()
			if err != nil {
				return err
			}
			latest := export.IdleProgress()
			if recent, err := store.ListExports(cmd.Context(), 1); err == nil && len(recent) > 0 {
				rec := recent[0]
				latest = export.Progress{
					ExportID:     rec.ID,
					Percentage:   rec.Percent,
					Phase:        export.Phase(rec.Phase),
					Message:      rec.Message,
					ErrorMessage: rec.ErrorMessage,
					UpdatedAt:    rec.UpdatedAt,
				}
			}

			if jsonOut {
				return writeJSON(cmd, api.Status{
					Dependencies:  api.FromDependencies(statuses),
					Checks:        api.FromChecks(checks),
					ActiveExports: []api.ExportProgress{},
					Latest:        api.FromProgress(latest),
					HistoryPath:   store.Path(),
				})
			}

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			sections := []struct {
				title string
				lines []string
			}{
				{"Dependencies", dependencyLines(statuses, colorize)},
				{"Directories", checkLines(checks, colorize)},
				{"Latest export", latestExportLines(latest, colorize)},
			}
			for i, section := range sections {
				if i > 0 {
					fmt.Fprintln(out)
				}
				for _, line := range renderSectionHeader(section.title, colorize) {
					fmt.Fprintln(out, line)
				}
				for _, line := range section.lines {
					fmt.Fprintln(out, line)
				}
			}
			if len(deps.Missing(statuses)) > 0 || len(preflight.Failed(checks)) > 0 {
				return fmt.Errorf("status: %d dependency and %d directory check(s) failed",
					len(deps.Missing(statuses)), len(preflight.Failed(checks)))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print status as JSON")
	return cmd
}

func dependencyLines(statuses []deps.Status, colorize bool) []string {
	lines := make([]string, 0, len(statuses)+1)
	missing := make([]string, 0)
	for _, dep := range statuses {
		if dep.Available {
			message := "Ready"
			if dep.Command != "" {
				message = fmt.Sprintf("Ready (command: %s)", dep.Command)
			}
			lines = append(lines, renderStatusLine(dep.Name, statusOK, message, colorize))
			continue
		}

		detail := strings.TrimSpace(dep.Detail)
		if detail == "" {
			detail = "not available"
		}
		kind := statusError
		if dep.Optional {
			kind = statusWarn
		} else {
			missing = append(missing, dep.Name)
		}
		lines = append(lines, renderStatusLine(dep.Name, kind, detail, colorize))
	}
	if len(missing) > 0 {
		lines = append(lines, renderStatusLine("Missing dependencies", statusWarn,
			fmt.Sprintf("%s (set [tools] in the config or install them on PATH)", strings.Join(missing, ", ")), colorize))
	}
	return lines
}

func checkLines(results []preflight.Result, colorize bool) []string {
	lines := make([]string, 0, len(results))
	for _, result := range results {
		kind := statusOK
		if !result.Passed {
			kind = statusError
		}
		lines = append(lines, renderStatusLine(result.Name, kind, result.Detail, colorize))
	}
	return lines
}

func latestExportLines(progress export.Progress, colorize bool) []string {
	if progress.Phase == export.PhaseIdle || progress.ExportID == "" {
		return []string{renderStatusLine("Export", statusInfo, "No exports recorded", colorize)}
	}
	message := fmt.Sprintf("%s %.0f%%", phaseLabel(progress.Phase), progress.Percentage)
	if progress.ErrorMessage != "" {
		message += ": " + progress.ErrorMessage
	}
	return []string{renderStatusLine(progress.ExportID, phaseKind(progress.Phase), message, colorize)}
}
