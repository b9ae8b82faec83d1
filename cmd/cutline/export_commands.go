package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"cutline/internal/export"
	"cutline/internal/render"
	"cutline/internal/timeline"
)

type exportOptions struct {
	output     string
	resolution string
	codec      string
	quality    string
	fps        float64
	noAudio    bool
	jsonOut    bool
	noProgress bool
}

func newExportCommands(ctx *commandContext) []*cobra.Command {
	return []*cobra.Command{
		newExportCommand(ctx, "export", "Export a timeline clip by clip", render.ModeSequential),
		newExportCommand(ctx, "export-fast", "Export a timeline in a single ffmpeg pass", render.ModeSinglePass),
	}
}

func newExportCommand(ctx *commandContext, use, short string, mode render.Mode) *cobra.Command {
	var opts exportOptions

	cmd := &cobra.Command{
		Use:   use + " <timeline>",
		Short: short,
		Long: short + ".\n\nThe timeline file is JSON or YAML with a clips list and an export section;\n" +
			"flags override the export section.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := timeline.LoadDocument(args[0])
			if err != nil {
				return err
			}
			settings := applyExportOverrides(cmd, doc.Export, opts)

			exporter, err := ctx.exporter()
			if err != nil {
				return err
			}

			runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			handle, err := exporter.Start(runCtx, doc.Clips, settings, mode)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			showBar := !opts.jsonOut && !opts.noProgress && isTerminal(out)
			result, err := followExport(runCtx, handle, cmd.ErrOrStderr(), showBar)
			if err != nil {
				return fmt.Errorf("export %s: %w", handle.ID, err)
			}
			if opts.jsonOut {
				return writeJSON(cmd, result)
			}
			printExportResult(cmd, result)
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.output, "output", "o", "", "Output file path")
	flags.StringVar(&opts.resolution, "resolution", "", "Output resolution (720p, 1080p, 4k, source, custom WxH)")
	flags.StringVar(&opts.codec, "codec", "", "Video codec (h264 or h265)")
	flags.StringVar(&opts.quality, "quality", "", "Quality preset (low, medium, high)")
	flags.Float64Var(&opts.fps, "fps", 0, "Target frame rate")
	flags.BoolVar(&opts.noAudio, "no-audio", false, "Drop the audio track")
	flags.BoolVar(&opts.jsonOut, "json", false, "Print the result as JSON")
	flags.BoolVar(&opts.noProgress, "no-progress", false, "Disable the progress bar")
	return cmd
}

func applyExportOverrides(cmd *cobra.Command, settings timeline.ExportConfig, opts exportOptions) timeline.ExportConfig {
	flags := cmd.Flags()
	if flags.Changed("output") {
		settings.OutputPath = strings.TrimSpace(opts.output)
	}
	if flags.Changed("resolution") {
		value := strings.TrimSpace(opts.resolution)
		if w, h, ok := parseCustomSize(value); ok {
			settings.Resolution = timeline.ResolutionCustom
			settings.CustomWidth = w
			settings.CustomHeight = h
		} else {
			settings.Resolution = timeline.ParseResolution(value)
		}
	}
	if flags.Changed("codec") {
		settings.Codec = timeline.Codec(strings.ToLower(strings.TrimSpace(opts.codec)))
	}
	if flags.Changed("quality") {
		settings.Quality = timeline.Quality(strings.ToLower(strings.TrimSpace(opts.quality)))
	}
	if flags.Changed("fps") {
		fps := opts.fps
		settings.TargetFPS = &fps
	}
	if flags.Changed("no-audio") {
		settings.IncludeAudio = !opts.noAudio
	}
	return settings
}

func parseCustomSize(value string) (int, int, bool) {
	var w, h int
	if _, err := fmt.Sscanf(strings.ToLower(value), "%dx%d", &w, &h); err != nil || w <= 0 || h <= 0 {
		return 0, 0, false
	}
	return w, h, true
}

func printExportResult(cmd *cobra.Command, result export.Result) {
	out := cmd.OutOrStdout()
	colorize := shouldColorize(out)
	for _, line := range renderSectionHeader("Export "+result.ExportID, colorize) {
		fmt.Fprintln(out, line)
	}
	fmt.Fprintln(out, renderStatusLine("Output", statusOK, result.OutputPath, colorize))
	fmt.Fprintln(out, renderStatusLine("Mode", statusInfo, string(result.Mode), colorize))
	fmt.Fprintln(out, renderStatusLine("Duration", statusInfo,
		fmt.Sprintf("%.2fs (expected %.2fs)", result.Report.Duration, result.ExpectedDuration), colorize))
	fmt.Fprintln(out, renderStatusLine("Size", statusInfo, formatBytes(result.Report.SizeBytes), colorize))
	fmt.Fprintln(out, renderStatusLine("Elapsed", statusInfo, result.Elapsed.Round(100*time.Millisecond).String(), colorize))
	for _, warning := range result.Warnings {
		fmt.Fprintln(out, renderStatusLine("Warning", statusWarn, warning, colorize))
	}
}

func formatBytes(n int64) string {
	if n < 0 {
		n = 0
	}
	return humanize.IBytes(uint64(n))
}
