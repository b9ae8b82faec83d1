package timeline

import (
	"cmp"
	"slices"
)

// DefaultGapTolerance is the smallest uncovered interval treated as a gap.
// Anything at or below it is floating-point jitter.
const DefaultGapTolerance = 0.01

// Gap is an uncovered interval before the clip at BeforeIndex.
type Gap struct {
	Start       float64 `json:"start"`
	Duration    float64 `json:"duration"`
	BeforeIndex int     `json:"before_index"`
}

// End returns the timeline position where the gap stops.
func (g Gap) End() float64 {
	return g.Start + g.Duration
}

// Normalized is a timeline in render order.
type Normalized struct {
	Clips            []Clip  `json:"clips"`
	Gaps             []Gap   `json:"gaps"`
	ExpectedDuration float64 `json:"expected_duration"`
}

// GapBefore returns the significant gap preceding the clip at index i.
func (n Normalized) GapBefore(i int) (Gap, bool) {
	for _, gap := range n.Gaps {
		if gap.BeforeIndex == i {
			return gap, true
		}
	}
	return Gap{}, false
}

// Normalize sorts clips into render order and derives gaps and the expected
// output duration using DefaultGapTolerance.
func Normalize(clips []Clip) Normalized {
	return NormalizeWithTolerance(clips, DefaultGapTolerance)
}

// NormalizeWithTolerance is Normalize with an explicit gap threshold. A
// non-positive tolerance uses DefaultGapTolerance. The input slice is not
// modified.
func NormalizeWithTolerance(clips []Clip, tolerance float64) Normalized {
	ordered := Sort(clips)
	return Normalized{
		Clips:            ordered,
		Gaps:             DetectGaps(ordered, tolerance),
		ExpectedDuration: ExpectedDuration(ordered),
	}
}

// Sort returns a copy of clips ordered by (timeline start, track, id).
func Sort(clips []Clip) []Clip {
	ordered := slices.Clone(clips)
	slices.SortStableFunc(ordered, compareClips)
	return ordered
}

func compareClips(a, b Clip) int {
	if c := cmp.Compare(a.TimelineStart, b.TimelineStart); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Track(), b.Track()); c != 0 {
		return c
	}
	return cmp.Compare(a.ID, b.ID)
}

// ExpectedDuration returns the furthest clip end on the timeline.
func ExpectedDuration(clips []Clip) float64 {
	var longest float64
	for _, clip := range clips {
		longest = max(longest, clip.End())
	}
	return longest
}

// DetectGaps walks clips in the given order and reports every uncovered
// interval longer than tolerance. Coverage is tracked as the furthest end seen
// so far, starting from timeline origin 0, so overlapping tracks never open a
// gap.
func DetectGaps(ordered []Clip, tolerance float64) []Gap {
	if tolerance <= 0 {
		tolerance = DefaultGapTolerance
	}
	var (
		gaps    []Gap
		covered float64
	)
	for i, clip := range ordered {
		if gap := clip.TimelineStart - covered; gap > tolerance {
			gaps = append(gaps, Gap{Start: covered, Duration: gap, BeforeIndex: i})
		}
		covered = max(covered, clip.End())
	}
	return gaps
}
