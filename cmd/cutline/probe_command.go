package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"cutline/internal/media/ffprobe"
)

func newProbeCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "probe <file>...",
		Short: "Inspect media files with ffprobe",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			prober := ctx.prober()
			results := make(map[string]ffprobe.Result, len(args))
			rows := make([][]string, 0, len(args))
			for _, path := range args {
				result, err := prober.Probe(cmd.Context(), path)
				if err != nil {
					return err
				}
				results[path] = result
				rows = append(rows, probeRow(path, result))
			}
			if jsonOut {
				return writeJSON(cmd, results)
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"File", "Duration", "Video", "Resolution", "FPS", "Audio", "Size"},
				rows,
				[]columnAlignment{alignLeft, alignRight, alignLeft, alignRight, alignRight, alignLeft, alignRight},
			))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print raw probe results as JSON")
	return cmd
}

func probeRow(path string, result ffprobe.Result) []string {
	videoCodec := "-"
	if stream, ok := result.PrimaryVideo(); ok {
		videoCodec = stream.CodecName
	}
	audioCodec := "-"
	if stream, ok := result.PrimaryAudio(); ok {
		audioCodec = stream.CodecName
	}
	width, height := result.Dimensions()
	return []string{
		path,
		fmt.Sprintf("%.2fs", result.DurationSeconds()),
		videoCodec,
		fmt.Sprintf("%dx%d", width, height),
		strconv.FormatFloat(result.FrameRate(), 'f', 2, 64),
		audioCodec,
		formatBytes(result.SizeBytes()),
	}
}
