package planner

import (
	"errors"
	"fmt"
	"strings"

	"cutline/internal/timeline"
	"cutline/internal/transcode"
)

// ErrInvalidGap is returned when a filler cannot be described.
var ErrInvalidGap = errors.New("invalid gap")

// GapDirective renders black video and silence for an uncovered interval.
type GapDirective struct {
	Gap         timeline.Gap
	Label       string
	VideoSource string
	AudioSource string
	VideoChain  []string
}

// SynthesizeGap describes a filler of gap.Duration seconds at target. The
// filler always carries a silent track so it joins clip segments without
// re-encoding.
func (p *Planner) SynthesizeGap(gap timeline.Gap, target Target) (GapDirective, error) {
	if gap.Duration <= 0 {
		return GapDirective{}, fmt.Errorf("%w: duration %.3f must be positive", ErrInvalidGap, gap.Duration)
	}
	if !target.Valid() {
		return GapDirective{}, fmt.Errorf("%w: target %s", ErrInvalidGap, target)
	}
	return GapDirective{
		Gap:   gap,
		Label: GapLabel(gap),
		VideoSource: fmt.Sprintf("color=c=black:s=%dx%d:r=%s:d=%s",
			target.Width, target.Height, factor(target.FPS), transcode.Seconds(gap.Duration)),
		AudioSource: p.SilenceSource(),
		VideoChain:  []string{"setsar=1", "format=" + pixelFormat},
	}, nil
}

// GapRequest renders the filler into output with the shared encode settings.
func (p *Planner) GapRequest(d GapDirective, enc transcode.Encode, output string) transcode.Request {
	return transcode.Request{
		Label: d.Label,
		Inputs: []transcode.Input{
			{Path: d.VideoSource, Format: "lavfi"},
			{Path: d.AudioSource, Format: "lavfi", Duration: d.Gap.Duration},
		},
		VideoFilter: strings.Join(d.VideoChain, ","),
		Maps:        []string{"0:v:0", "1:a:0"},
		Duration:    d.Gap.Duration,
		Encode:      enc,
		Output:      output,
	}
}

// GapLabel names a gap for progress and error messages.
func GapLabel(gap timeline.Gap) string {
	return fmt.Sprintf("gap %s-%ss", transcode.Seconds(gap.Start), transcode.Seconds(gap.End()))
}
