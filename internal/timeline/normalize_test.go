package timeline_test

import (
	"math"
	"math/rand"
	"testing"

	"cutline/internal/timeline"
)

func track(i int) *int { return &i }

func TestNormalizeOrdersByStartTrackAndID(t *testing.T) {
	clips := []timeline.Clip{
		{ID: "c", TimelineStart: 5, TimelineDuration: 1, Speed: 1, TrackIndex: track(1)},
		{ID: "b", TimelineStart: 5, TimelineDuration: 1, Speed: 1},
		{ID: "a", TimelineStart: 5, TimelineDuration: 1, Speed: 1, TrackIndex: track(1)},
		{ID: "z", TimelineStart: 0, TimelineDuration: 5, Speed: 1, TrackIndex: track(3)},
	}
	got := timeline.Normalize(clips)

	want := []string{"z", "b", "a", "c"}
	for i, id := range want {
		if got.Clips[i].ID != id {
			t.Fatalf("position %d: expected %q, got %q", i, id, got.Clips[i].ID)
		}
	}
	if clips[0].ID != "c" {
		t.Fatal("expected input slice to be left untouched")
	}
}

func TestNormalizeIsDeterministicAcrossPermutations(t *testing.T) {
	base := []timeline.Clip{
		{ID: "a", TimelineStart: 1, TimelineDuration: 2, Speed: 1},
		{ID: "b", TimelineStart: 1, TimelineDuration: 2, Speed: 1},
		{ID: "c", TimelineStart: 1, TimelineDuration: 2, Speed: 1, TrackIndex: track(2)},
		{ID: "d", TimelineStart: 0, TimelineDuration: 1, Speed: 1},
		{ID: "e", TimelineStart: 7, TimelineDuration: 1, Speed: 2},
	}
	reference := timeline.Normalize(base)
	rng := rand.New(rand.NewSource(7))
	for round := 0; round < 20; round++ {
		shuffled := append([]timeline.Clip(nil), base...)
		rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
		got := timeline.Normalize(shuffled)
		for i := range reference.Clips {
			if got.Clips[i].ID != reference.Clips[i].ID {
				t.Fatalf("round %d: order differs at %d: %q vs %q", round, i, got.Clips[i].ID, reference.Clips[i].ID)
			}
		}
	}
}

func TestNormalizeThreeClipScenario(t *testing.T) {
	clips := []timeline.Clip{
		{ID: "third", TimelineStart: 12, TimelineDuration: 5, Speed: 1},
		{ID: "first", TimelineStart: 0, TimelineDuration: 5, Speed: 1},
		{ID: "second", TimelineStart: 5, TimelineDuration: 5, Speed: 1},
	}
	got := timeline.Normalize(clips)

	if got.ExpectedDuration != 17 {
		t.Fatalf("expected duration 17, got %v", got.ExpectedDuration)
	}
	if len(got.Gaps) != 1 {
		t.Fatalf("expected one gap, got %+v", got.Gaps)
	}
	gap := got.Gaps[0]
	if gap.BeforeIndex != 2 || gap.Start != 10 || math.Abs(gap.Duration-2) > 1e-9 {
		t.Fatalf("unexpected gap: %+v", gap)
	}
	if _, ok := got.GapBefore(1); ok {
		t.Fatal("expected no gap before second clip")
	}
}

func TestDetectGapsThresholdIsExclusive(t *testing.T) {
	tests := []struct {
		name  string
		start float64
		want  int
	}{
		{name: "exactly tolerance", start: 5.0100, want: 0},
		{name: "just above tolerance", start: 5.0101, want: 1},
		{name: "touching", start: 5, want: 0},
		{name: "overlapping", start: 4, want: 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			clips := []timeline.Clip{
				{ID: "a", TimelineStart: 0, TimelineDuration: 5, Speed: 1},
				{ID: "b", TimelineStart: tc.start, TimelineDuration: 1, Speed: 1},
			}
			gaps := timeline.DetectGaps(clips, 0)
			if len(gaps) != tc.want {
				t.Fatalf("expected %d gaps, got %+v", tc.want, gaps)
			}
		})
	}
}

func TestDetectGapsMeasuresFromOrigin(t *testing.T) {
	gaps := timeline.DetectGaps([]timeline.Clip{{ID: "late", TimelineStart: 3, TimelineDuration: 1, Speed: 1}}, 0)
	if len(gaps) != 1 || gaps[0].Start != 0 || gaps[0].Duration != 3 || gaps[0].BeforeIndex != 0 {
		t.Fatalf("unexpected gaps: %+v", gaps)
	}
}

func TestDetectGapsIgnoresClipsHiddenUnderLongerOverlap(t *testing.T) {
	clips := timeline.Sort([]timeline.Clip{
		{ID: "long", TimelineStart: 0, TimelineDuration: 10, Speed: 1},
		{ID: "short", TimelineStart: 1, TimelineDuration: 1, Speed: 1, TrackIndex: track(1)},
		{ID: "after", TimelineStart: 10, TimelineDuration: 1, Speed: 1},
	})
	if gaps := timeline.DetectGaps(clips, 0); len(gaps) != 0 {
		t.Fatalf("expected no gaps, got %+v", gaps)
	}
}

func TestExpectedDurationUnsortedInput(t *testing.T) {
	clips := []timeline.Clip{
		{ID: "a", TimelineStart: 3, TimelineDuration: 1, Speed: 1},
		{ID: "b", TimelineStart: 0, TimelineDuration: 9.5, Speed: 1},
		{ID: "c", TimelineStart: 8, TimelineDuration: 1, Speed: 1},
	}
	if got := timeline.ExpectedDuration(clips); got != 9.5 {
		t.Fatalf("expected 9.5, got %v", got)
	}
	if got := timeline.ExpectedDuration(nil); got != 0 {
		t.Fatalf("expected 0 for empty timeline, got %v", got)
	}
}

func TestSourceDurationRoundTrips(t *testing.T) {
	for _, speed := range []float64{0.1, 0.25, 0.5, 1, 1.5, 3, 4, 17.3, 100} {
		clip := timeline.Clip{TimelineDuration: 7.3, Speed: speed}
		recovered := clip.SourceDuration() / speed
		if math.Abs(recovered-clip.TimelineDuration) > 1e-9 {
			t.Fatalf("speed %v: recovered %v, want %v", speed, recovered, clip.TimelineDuration)
		}
	}
}

func TestSortKeepsExplicitSpeed(t *testing.T) {
	sorted := timeline.Sort([]timeline.Clip{
		{ID: "b", TimelineStart: 1, TimelineDuration: 2, Speed: -1},
		{ID: "a", TimelineDuration: 2},
	})
	if sorted[0].ID != "a" || sorted[0].Speed != 0 || sorted[1].Speed != -1 {
		t.Fatalf("expected speeds to pass through untouched, got %+v", sorted)
	}
}
