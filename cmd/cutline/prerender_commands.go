package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"cutline/internal/logging"
	"cutline/internal/prerender"
	"cutline/internal/staging"
)

func newPrerenderCommand(ctx *commandContext) *cobra.Command {
	var segmentID string
	var output string
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "prerender <clips>",
		Short: "Render a preview segment into the prerender cache",
		Long: "Render a preview segment into the prerender cache.\n\n" +
			"The clips file is a JSON or YAML list of {file_path, trim_start, trim_end, duration, speed},\n" +
			"optionally nested under a clips key.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			clips, err := loadSegmentClips(args[0])
			if err != nil {
				return err
			}
			renderer, err := ctx.renderer()
			if err != nil {
				return err
			}
			path, err := renderer.Render(cmd.Context(), segmentID, clips, output)
			if err != nil {
				return err
			}
			if jsonOut {
				return writeJSON(cmd, map[string]string{"path": path})
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}

	cmd.Flags().StringVar(&segmentID, "segment-id", "", "Segment identifier (generated when empty)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output path (defaults to the cache directory)")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print the result as JSON")
	return cmd
}

func loadSegmentClips(path string) ([]prerender.Clip, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read clips: %w", err)
	}
	var clips []prerender.Clip
	if err := yaml.Unmarshal(data, &clips); err == nil && len(clips) > 0 {
		return clips, nil
	}
	var wrapped struct {
		Clips []prerender.Clip `yaml:"clips"`
	}
	if err := yaml.Unmarshal(data, &wrapped); err != nil {
		return nil, fmt.Errorf("parse clips %s: %w", path, err)
	}
	if len(wrapped.Clips) == 0 {
		return nil, fmt.Errorf("%s: %w", path, prerender.ErrNoClips)
	}
	return wrapped.Clips, nil
}

func newCacheCommand(ctx *commandContext) *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and clear the prerender cache",
	}

	cacheCmd.AddCommand(&cobra.Command{
		Use:   "dir",
		Short: "Print the prerender cache directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			renderer, err := ctx.renderer()
			if err != nil {
				return err
			}
			dir, err := renderer.CacheDir()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), dir)
			return nil
		},
	})

	cacheCmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List indexed prerendered segments",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.historyStore()
			if err != nil {
				return err
			}
			segments, err := store.ListSegments(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(segments) == 0 {
				fmt.Fprintln(out, "No cached segments")
				return nil
			}
			rows := make([][]string, 0, len(segments))
			for _, seg := range segments {
				rows = append(rows, []string{
					seg.Path,
					strconv.Itoa(seg.ClipCount),
					fmt.Sprintf("%.2fs", seg.Duration),
					formatBytes(seg.SizeBytes),
					seg.RenderedAt.Local().Format(time.DateTime),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Path", "Clips", "Duration", "Size", "Rendered"},
				rows,
				[]columnAlignment{alignLeft, alignRight, alignRight, alignRight, alignLeft},
			))
			return nil
		},
	})

	cacheCmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Remove every cached segment",
		RunE: func(cmd *cobra.Command, args []string) error {
			renderer, err := ctx.renderer()
			if err != nil {
				return err
			}
			result, err := renderer.Clear(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d file(s), %s\n", result.Files, formatBytes(result.Bytes))
			return nil
		},
	})

	cacheCmd.AddCommand(newCachePruneCommand(ctx))
	return cacheCmd
}

func newCachePruneCommand(ctx *commandContext) *cobra.Command {
	var maxAge time.Duration

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Remove stale export and prerender workspaces",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := ctx.configValue()
			if !cmd.Flags().Changed("max-age") {
				maxAge = time.Duration(cfg.Export.StaleWorkspaceHours) * time.Hour
			}
			out := cmd.OutOrStdout()

			workspaces, err := staging.ListWorkspaces(cfg.Paths.TempDir)
			if err != nil {
				return fmt.Errorf("list workspaces: %w", err)
			}
			active := 0
			for _, ws := range workspaces {
				if ws.Active {
					active++
				}
			}

			result := staging.CleanStale(cmd.Context(), cfg.Paths.TempDir, maxAge, ctx.loggerValue())
			for _, path := range result.Removed {
				fmt.Fprintf(out, "Removed %s\n", path)
			}
			for _, failure := range result.Errors {
				logging.WarnWithContext(ctx.loggerValue(), "workspace cleanup failed", "workspace_cleanup_failed",
					logging.String("path", failure.Path),
					logging.Error(failure.Error),
				)
			}
			fmt.Fprintf(out, "%d of %d workspace(s) removed, %d active\n", len(result.Removed), len(workspaces), active)
			return nil
		},
	}

	cmd.Flags().DurationVar(&maxAge, "max-age", 0, "Remove workspaces older than this (defaults to export.stale_workspace_hours)")
	return cmd
}
