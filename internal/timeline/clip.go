package timeline

import (
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultSpeed is applied when a decoded clip omits speed. An explicit speed
// is kept as given so that 0 or a negative value fails validation.
const DefaultSpeed = 1.0

// Clip places a trimmed, speed-adjusted source file on the timeline.
//
// TimelineDuration is post-speed: the clip occupies TimelineDuration seconds of
// output and consumes TimelineDuration*Speed seconds of source media.
type Clip struct {
	ID               string  `json:"id" yaml:"id"`
	SourcePath       string  `json:"source_path" yaml:"source_path"`
	TimelineStart    float64 `json:"timeline_start" yaml:"timeline_start"`
	TrimStart        float64 `json:"trim_start" yaml:"trim_start"`
	TrimEnd          float64 `json:"trim_end" yaml:"trim_end"`
	TimelineDuration float64 `json:"timeline_duration" yaml:"timeline_duration"`
	Speed            float64 `json:"speed" yaml:"speed"`
	TrackIndex       *int    `json:"track_index,omitempty" yaml:"track_index,omitempty"`
}

// SourceDuration returns how many seconds of source media the clip consumes.
func (c Clip) SourceDuration() float64 {
	return c.TimelineDuration * c.Speed
}

// End returns the timeline position where the clip stops.
func (c Clip) End() float64 {
	return c.TimelineStart + c.TimelineDuration
}

// Track returns the track index, treating an unset track as 0.
func (c Clip) Track() int {
	if c.TrackIndex == nil {
		return 0
	}
	return *c.TrackIndex
}

// Label identifies the clip in progress messages and errors.
func (c Clip) Label() string {
	if id := strings.TrimSpace(c.ID); id != "" {
		return id
	}
	return c.SourcePath
}

// clipFields mirrors Clip with a pointer speed so an omitted key can be told
// apart from an explicit 0.
type clipFields struct {
	ID               string   `json:"id" yaml:"id"`
	SourcePath       string   `json:"source_path" yaml:"source_path"`
	TimelineStart    float64  `json:"timeline_start" yaml:"timeline_start"`
	TrimStart        float64  `json:"trim_start" yaml:"trim_start"`
	TrimEnd          float64  `json:"trim_end" yaml:"trim_end"`
	TimelineDuration float64  `json:"timeline_duration" yaml:"timeline_duration"`
	Speed            *float64 `json:"speed" yaml:"speed"`
	TrackIndex       *int     `json:"track_index" yaml:"track_index"`
}

func (f clipFields) clip() Clip {
	speed := DefaultSpeed
	if f.Speed != nil {
		speed = *f.Speed
	}
	return Clip{
		ID:               f.ID,
		SourcePath:       f.SourcePath,
		TimelineStart:    f.TimelineStart,
		TrimStart:        f.TrimStart,
		TrimEnd:          f.TrimEnd,
		TimelineDuration: f.TimelineDuration,
		Speed:            speed,
		TrackIndex:       f.TrackIndex,
	}
}

// UnmarshalJSON decodes a clip, defaulting an omitted speed to DefaultSpeed.
func (c *Clip) UnmarshalJSON(data []byte) error {
	var f clipFields
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*c = f.clip()
	return nil
}

// UnmarshalYAML decodes a clip, defaulting an omitted speed to DefaultSpeed.
func (c *Clip) UnmarshalYAML(node *yaml.Node) error {
	var f clipFields
	if err := node.Decode(&f); err != nil {
		return err
	}
	*c = f.clip()
	return nil
}

func (c Clip) String() string {
	return fmt.Sprintf("clip %q @%.3fs (%.3fs x%.3g)", c.Label(), c.TimelineStart, c.TimelineDuration, c.Speed)
}

// Validation holds the probed facts about one clip's source file. It is
// produced once before an export starts and never modified afterwards.
type Validation struct {
	Exists         bool    `json:"exists"`
	HasVideo       bool    `json:"has_video"`
	HasAudio       bool    `json:"has_audio"`
	NativeCodec    string  `json:"native_codec"`
	NativeWidth    int     `json:"native_width"`
	NativeHeight   int     `json:"native_height"`
	NativeFPS      float64 `json:"native_fps"`
	ProbedDuration float64 `json:"probed_duration"`
}
