package planner

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"cutline/internal/config"
	"cutline/internal/timeline"
	"cutline/internal/transcode"
)

// Normalized audio format shared by every segment.
const (
	AudioChannels = 2
	audioLayout   = "stereo"
	pixelFormat   = "yuv420p"
)

// Options carries the encoder settings that come from configuration rather
// than from the export request.
type Options struct {
	Preset       string
	AudioBitrate string
	SampleRate   int
	DefaultFPS   float64
}

// OptionsFromConfig reads planner options from the export section.
func OptionsFromConfig(cfg *config.Config) Options {
	opts := Options{Preset: "medium", AudioBitrate: "192k", SampleRate: 48000, DefaultFPS: 30}
	if cfg == nil {
		return opts
	}
	if cfg.Export.Preset != "" {
		opts.Preset = cfg.Export.Preset
	}
	if cfg.Export.AudioBitrate != "" {
		opts.AudioBitrate = cfg.Export.AudioBitrate
	}
	if cfg.Export.AudioSampleRate > 0 {
		opts.SampleRate = cfg.Export.AudioSampleRate
	}
	if cfg.Export.DefaultFPS > 0 {
		opts.DefaultFPS = cfg.Export.DefaultFPS
	}
	return opts
}

// Planner derives per-clip and per-gap transcode directives.
type Planner struct {
	opts Options
}

// New constructs a Planner. Zero option fields take defaults.
func New(opts Options) *Planner {
	defaults := OptionsFromConfig(nil)
	if opts.Preset == "" {
		opts.Preset = defaults.Preset
	}
	if opts.AudioBitrate == "" {
		opts.AudioBitrate = defaults.AudioBitrate
	}
	if opts.SampleRate <= 0 {
		opts.SampleRate = defaults.SampleRate
	}
	if opts.DefaultFPS <= 0 {
		opts.DefaultFPS = defaults.DefaultFPS
	}
	return &Planner{opts: opts}
}

// DefaultFPS returns the frame rate used when an export does not request one.
func (p *Planner) DefaultFPS() float64 {
	return p.opts.DefaultFPS
}

// QualityCRF maps a quality level onto x264/x265 CRF. Lower is finer.
func QualityCRF(q timeline.Quality) int {
	switch q.Normalized() {
	case timeline.QualityLow:
		return 28
	case timeline.QualityHigh:
		return 18
	default:
		return 23
	}
}

// EncodeParams returns the encode settings for every segment of an export.
// Gap fillers and clips must share them so segments can be stream-copied.
func (p *Planner) EncodeParams(cfg timeline.ExportConfig) transcode.Encode {
	enc := transcode.Encode{
		VideoCodec:    "libx264",
		Preset:        p.opts.Preset,
		CRF:           QualityCRF(cfg.Quality),
		PixelFormat:   pixelFormat,
		AudioCodec:    "aac",
		AudioBitrate:  p.opts.AudioBitrate,
		AudioRate:     p.opts.SampleRate,
		AudioChannels: AudioChannels,
	}
	if cfg.Codec.Normalized() == timeline.CodecH265 {
		enc.VideoCodec = "libx265"
		enc.VideoTag = "hvc1"
	}
	return enc
}

// SilenceSource is the lavfi source for a silent stereo track.
func (p *Planner) SilenceSource() string {
	return fmt.Sprintf("anullsrc=r=%d:cl=%s", p.opts.SampleRate, audioLayout)
}

// ClipDirective is everything needed to render one clip.
type ClipDirective struct {
	Index            int // 1-based position in render order
	Clip             timeline.Clip
	Label            string
	Seek             float64
	SourceDuration   float64
	TimelineDuration float64
	VideoChain       []string
	AudioChain       []string
	SilentAudio      bool
	TempoSteps       []float64
}

// VideoFilter joins the video chain for -vf.
func (d ClipDirective) VideoFilter() string {
	return strings.Join(d.VideoChain, ",")
}

// AudioFilter joins the audio chain for -af.
func (d ClipDirective) AudioFilter() string {
	return strings.Join(d.AudioChain, ",")
}

// PlanClip builds the directive for the clip at 1-based index.
func (p *Planner) PlanClip(index int, clip timeline.Clip, validation timeline.Validation, cfg timeline.ExportConfig, target Target) ClipDirective {
	d := ClipDirective{
		Index:            index,
		Clip:             clip,
		Label:            ClipLabel(index, clip),
		Seek:             clip.TrimStart,
		SourceDuration:   clip.SourceDuration(),
		TimelineDuration: clip.TimelineDuration,
		SilentAudio:      !cfg.IncludeAudio || !validation.HasAudio,
	}

	d.VideoChain = append(d.VideoChain, "setpts=PTS-STARTPTS")
	if math.Abs(clip.Speed-1.0) > tempoEpsilon {
		d.VideoChain = append(d.VideoChain, fmt.Sprintf("setpts=%s*PTS", factor(1/clip.Speed)))
	}
	d.VideoChain = append(d.VideoChain, scaleChain(target)...)

	if d.SilentAudio {
		d.AudioChain = p.silentChain()
		return d
	}
	d.TempoSteps = TempoChain(clip.Speed)
	d.AudioChain = append(d.AudioChain,
		"aresample="+strconv.Itoa(p.opts.SampleRate),
		p.aformat(),
	)
	for _, step := range d.TempoSteps {
		d.AudioChain = append(d.AudioChain, "atempo="+factor(step))
	}
	d.AudioChain = append(d.AudioChain, "asetpts=PTS-STARTPTS")
	return d
}

// Request renders the clip on its own into output.
func (p *Planner) Request(d ClipDirective, enc transcode.Encode, output string) transcode.Request {
	req := transcode.Request{
		Label: d.Label,
		Inputs: []transcode.Input{{
			Path:     d.Clip.SourcePath,
			Seek:     d.Seek,
			Duration: d.SourceDuration,
		}},
		VideoFilter: d.VideoFilter(),
		Duration:    d.TimelineDuration,
		Encode:      enc,
		Output:      output,
	}
	if d.SilentAudio {
		req.Inputs = append(req.Inputs, transcode.Input{
			Path:     p.SilenceSource(),
			Format:   "lavfi",
			Duration: d.TimelineDuration,
		})
		req.Maps = []string{"0:v:0", "1:a:0"}
		return req
	}
	req.AudioFilter = d.AudioFilter()
	req.Maps = []string{"0:v:0", "0:a:0"}
	return req
}

// ClipLabel names a clip for progress and error messages.
func ClipLabel(index int, clip timeline.Clip) string {
	return fmt.Sprintf("clip %d (id %q)", index, clip.ID)
}

func (p *Planner) aformat() string {
	rate := strconv.Itoa(p.opts.SampleRate)
	return "aformat=sample_fmts=fltp:sample_rates=" + rate + ":channel_layouts=" + audioLayout
}

func (p *Planner) silentChain() []string {
	return []string{p.aformat(), "asetpts=PTS-STARTPTS"}
}

func scaleChain(target Target) []string {
	w, h := strconv.Itoa(target.Width), strconv.Itoa(target.Height)
	return []string{
		"scale=" + w + ":" + h + ":force_original_aspect_ratio=decrease",
		"pad=" + w + ":" + h + ":(ow-iw)/2:(oh-ih)/2:black",
		"setsar=1",
		"fps=" + factor(target.FPS),
		"format=" + pixelFormat,
	}
}
