package transcode

import (
	"strconv"
	"strings"
)

// Input is one ffmpeg input. Seek and Duration are applied before -i so the
// demuxer only reads the requested window.
type Input struct {
	Path     string   `json:"path"`
	Seek     float64  `json:"seek,omitempty"`
	Duration float64  `json:"duration,omitempty"`
	Format   string   `json:"format,omitempty"`
	Options  []string `json:"options,omitempty"`
}

// Encode holds output codec settings. A "copy" codec skips the encoder
// options for that stream.
type Encode struct {
	VideoCodec    string   `json:"video_codec"`
	Preset        string   `json:"preset,omitempty"`
	CRF           int      `json:"crf,omitempty"`
	PixelFormat   string   `json:"pixel_format,omitempty"`
	VideoTag      string   `json:"video_tag,omitempty"`
	AudioCodec    string   `json:"audio_codec,omitempty"`
	AudioBitrate  string   `json:"audio_bitrate,omitempty"`
	AudioRate     int      `json:"audio_rate,omitempty"`
	AudioChannels int      `json:"audio_channels,omitempty"`
	Extra         []string `json:"extra,omitempty"`
}

// StreamCopy is the encode used to join segments that already share a format.
func StreamCopy() Encode {
	return Encode{VideoCodec: "copy", AudioCodec: "copy", Extra: []string{"-movflags", "+faststart"}}
}

// Request is a single ffmpeg invocation. Label names the segment in errors and
// logs. Either VideoFilter/AudioFilter (simple chains for one input) or
// FilterGraph with Maps is used, never both.
type Request struct {
	Label       string   `json:"label"`
	Inputs      []Input  `json:"inputs"`
	VideoFilter string   `json:"video_filter,omitempty"`
	AudioFilter string   `json:"audio_filter,omitempty"`
	FilterGraph string   `json:"filter_graph,omitempty"`
	Maps        []string `json:"maps,omitempty"`
	Duration    float64  `json:"duration,omitempty"`
	Encode      Encode   `json:"encode"`
	Output      string   `json:"output"`
}

// Build returns the full argv for req, binary first.
func Build(binary string, req Request) []string {
	if strings.TrimSpace(binary) == "" {
		binary = "ffmpeg"
	}
	args := make([]string, 0, 48)
	args = append(args, binary, "-hide_banner", "-nostdin", "-y", "-loglevel", "error")

	for _, in := range req.Inputs {
		if in.Format != "" {
			args = append(args, "-f", in.Format)
		}
		args = append(args, in.Options...)
		if in.Seek > 0 {
			args = append(args, "-ss", Seconds(in.Seek))
		}
		if in.Duration > 0 {
			args = append(args, "-t", Seconds(in.Duration))
		}
		args = append(args, "-i", in.Path)
	}

	if req.FilterGraph != "" {
		args = append(args, "-filter_complex", req.FilterGraph)
	}
	if req.VideoFilter != "" {
		args = append(args, "-vf", req.VideoFilter)
	}
	if req.AudioFilter != "" {
		args = append(args, "-af", req.AudioFilter)
	}
	for _, m := range req.Maps {
		args = append(args, "-map", m)
	}
	if req.Duration > 0 {
		args = append(args, "-t", Seconds(req.Duration))
	}

	args = appendEncode(args, req.Encode)
	args = append(args, req.Output)
	return args
}

func appendEncode(args []string, enc Encode) []string {
	if enc.VideoCodec != "" {
		args = append(args, "-c:v", enc.VideoCodec)
	}
	if enc.VideoCodec != "copy" {
		if enc.Preset != "" {
			args = append(args, "-preset", enc.Preset)
		}
		if enc.CRF > 0 {
			args = append(args, "-crf", strconv.Itoa(enc.CRF))
		}
		if enc.PixelFormat != "" {
			args = append(args, "-pix_fmt", enc.PixelFormat)
		}
	}
	if enc.VideoTag != "" {
		args = append(args, "-tag:v", enc.VideoTag)
	}

	if enc.AudioCodec != "" {
		args = append(args, "-c:a", enc.AudioCodec)
	}
	if enc.AudioCodec != "copy" {
		if enc.AudioBitrate != "" {
			args = append(args, "-b:a", enc.AudioBitrate)
		}
		if enc.AudioRate > 0 {
			args = append(args, "-ar", strconv.Itoa(enc.AudioRate))
		}
		if enc.AudioChannels > 0 {
			args = append(args, "-ac", strconv.Itoa(enc.AudioChannels))
		}
	}
	return append(args, enc.Extra...)
}

// Seconds formats a timestamp with millisecond precision.
func Seconds(value float64) string {
	return strconv.FormatFloat(value, 'f', 3, 64)
}
