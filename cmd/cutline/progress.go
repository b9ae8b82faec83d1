package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/schollz/progressbar/v3"

	"cutline/internal/export"
)

const progressPollInterval = 250 * time.Millisecond

// followExport blocks until the export finishes. The parent context is only
// used to forward an interrupt as a cancellation of the export itself. When
// out is a terminal a progress bar tracks the export percentage.
func followExport(ctx context.Context, handle *export.Handle, out io.Writer, showBar bool) (export.Result, error) {
	var bar *progressbar.ProgressBar
	if showBar {
		bar = newExportBar(out)
	}

	ticker := time.NewTicker(progressPollInterval)
	defer ticker.Stop()

	interrupted := ctx.Done()
	for {
		select {
		case <-handle.Done():
			if bar != nil {
				renderProgress(bar, handle.Progress())
				_ = bar.Close()
				fmt.Fprintln(out)
			}
			return handle.Wait(context.Background())
		case <-interrupted:
			handle.Cancel()
			interrupted = nil
		case <-ticker.C:
			if bar != nil {
				renderProgress(bar, handle.Progress())
			}
		}
	}
}

func newExportBar(out io.Writer) *progressbar.ProgressBar {
	return progressbar.NewOptions(100,
		progressbar.OptionSetWriter(out),
		progressbar.OptionSetDescription(phaseLabel(export.PhasePreparing)),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "█",
			SaucerHead:    "█",
			SaucerPadding: "░",
			BarStart:      "▐",
			BarEnd:        "▌",
		}),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetRenderBlankState(true),
	)
}

func renderProgress(bar *progressbar.ProgressBar, progress export.Progress) {
	description := phaseLabel(progress.Phase)
	if progress.CurrentClipLabel != "" {
		description = fmt.Sprintf("%s: %s", description, progress.CurrentClipLabel)
	}
	bar.Describe(description)
	_ = bar.Set(int(progress.Percentage))
}
