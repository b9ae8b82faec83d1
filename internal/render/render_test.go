package render_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"cutline/internal/config"
	"cutline/internal/planner"
	"cutline/internal/render"
	"cutline/internal/testsupport"
	"cutline/internal/timeline"
)

func threeClipInput(t *testing.T, audio []bool) render.Input {
	t.Helper()
	clips := []timeline.Clip{
		{ID: "a", SourcePath: "/m/a.mp4", TimelineStart: 0, TimelineDuration: 5, Speed: 1},
		{ID: "b", SourcePath: "/m/b.mp4", TimelineStart: 5, TimelineDuration: 5, Speed: 2},
		{ID: "c", SourcePath: "/m/c's clip.mp4", TimelineStart: 12, TimelineDuration: 5, Speed: 1},
	}
	validations := make([]timeline.Validation, len(clips))
	for i := range validations {
		validations[i] = timeline.Validation{HasVideo: true, HasAudio: audio[i]}
	}
	dir := t.TempDir()
	return render.Input{
		Timeline:    timeline.Normalize(clips),
		Validations: validations,
		Config:      timeline.ExportConfig{OutputPath: "/final.mp4", IncludeAudio: true},
		Target:      planner.Target{Width: 1280, Height: 720, FPS: 30},
		WorkDir:     dir,
		Output:      filepath.Join(dir, "output.mp4"),
	}
}

func TestSequentialPlanIncludesGapFiller(t *testing.T) {
	in := threeClipInput(t, []bool{true, true, true})
	strategy := render.NewSequential(planner.New(planner.Options{}), nil)

	plan, err := strategy.Build(context.Background(), in)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	labels := make([]string, len(plan.Segments))
	for i, seg := range plan.Segments {
		labels[i] = seg.Label
	}
	want := []string{`clip 1 (id "a")`, `clip 2 (id "b")`, "gap 10.000-12.000s", `clip 3 (id "c")`}
	if !reflect.DeepEqual(labels, want) {
		t.Fatalf("unexpected segment order: %v", labels)
	}
	if !plan.Segments[2].Optional || plan.Segments[0].Optional {
		t.Fatal("expected only the gap segment to be optional")
	}
	if plan.ClipSegments() != 3 {
		t.Fatalf("expected 3 clip segments, got %d", plan.ClipSegments())
	}
	if plan.Assembly.Inputs[0].Format != "concat" || plan.Assembly.Encode.VideoCodec != "copy" {
		t.Fatalf("unexpected assembly: %+v", plan.Assembly)
	}
}

func TestSequentialPlanIsDeterministic(t *testing.T) {
	in := threeClipInput(t, []bool{true, false, true})
	strategy := render.NewSequential(planner.New(planner.Options{}), nil)

	first, err := strategy.Build(context.Background(), in)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	second, err := strategy.Build(context.Background(), in)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatal("expected identical plans for identical input")
	}
}

func TestSinglePassDropsGapsWithWarning(t *testing.T) {
	in := threeClipInput(t, []bool{true, false, true})
	strategy := render.NewSinglePass(planner.New(planner.Options{}), config.GapPolicyDrop, nil)

	plan, err := strategy.Build(context.Background(), in)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if plan.Mode != render.ModeSinglePass || len(plan.Segments) != 0 {
		t.Fatalf("unexpected plan: %+v", plan)
	}
	if len(plan.DroppedGaps) != 1 || len(plan.Warnings) != 1 || !strings.Contains(plan.Warnings[0], "dropped 1 gap") {
		t.Fatalf("expected dropped gap warning, got %+v", plan.Warnings)
	}
	// clip b has no audio, so a silent lavfi input is appended after the clips.
	if len(plan.Assembly.Inputs) != 4 || plan.Assembly.Inputs[3].Format != "lavfi" {
		t.Fatalf("unexpected inputs: %+v", plan.Assembly.Inputs)
	}
	graph := plan.Assembly.FilterGraph
	for _, fragment := range []string{"[0:v]", "[v0]", "[0:a]", "[3:a]", "[a1]", "[v0][a0][v1][a1][v2][a2]concat=n=3:v=1:a=1[outv][outa]"} {
		if !strings.Contains(graph, fragment) {
			t.Fatalf("expected %q in graph %s", fragment, graph)
		}
	}
	if !reflect.DeepEqual(plan.Assembly.Maps, []string{"[outv]", "[outa]"}) {
		t.Fatalf("unexpected maps: %v", plan.Assembly.Maps)
	}
	if plan.Assembly.Inputs[1].Seek != 0 || plan.Assembly.Inputs[1].Duration != 10 {
		t.Fatalf("expected 2x clip to read 10s of source, got %+v", plan.Assembly.Inputs[1])
	}
}

func TestSinglePassGapPolicies(t *testing.T) {
	in := threeClipInput(t, []bool{true, true, true})
	p := planner.New(planner.Options{})

	if _, err := render.NewSinglePass(p, config.GapPolicyError, nil).Build(context.Background(), in); !errors.Is(err, render.ErrGapsUnsupported) {
		t.Fatalf("expected ErrGapsUnsupported, got %v", err)
	}

	plan, err := render.NewSinglePass(p, config.GapPolicyFallback, nil).Build(context.Background(), in)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if plan.Mode != render.ModeSequential || len(plan.Segments) != 4 {
		t.Fatalf("expected sequential fallback, got %+v", plan)
	}
	if len(plan.Warnings) == 0 || !strings.Contains(plan.Warnings[0], "fell back") {
		t.Fatalf("expected fallback warning, got %v", plan.Warnings)
	}
}

func TestSelectAndParseMode(t *testing.T) {
	p := planner.New(planner.Options{})
	for _, tc := range []struct {
		input string
		want  render.Mode
	}{{"", render.ModeSequential}, {"fast", render.ModeSinglePass}, {"single-pass", render.ModeSinglePass}} {
		mode, err := render.ParseMode(tc.input)
		if err != nil || mode != tc.want {
			t.Fatalf("ParseMode(%q) = %s, %v", tc.input, mode, err)
		}
		strategy, err := render.Select(mode, p, "", nil)
		if err != nil || strategy.Name() != tc.want {
			t.Fatalf("Select(%s) = %v, %v", mode, strategy, err)
		}
	}
	if _, err := render.ParseMode("parallel"); err == nil {
		t.Fatal("expected error for unknown mode")
	}
}

func TestFormatManifestEscapesQuotes(t *testing.T) {
	got := render.FormatManifest([]string{"/w/segment_001.mp4", "/w/it's.mp4"})
	want := "file '/w/segment_001.mp4'\nfile '/w/it'\\''s.mp4'\n"
	if got != want {
		t.Fatalf("unexpected manifest:\n got %q\nwant %q", got, want)
	}
}

func TestExecuteOmitsFailedGapAndWritesManifest(t *testing.T) {
	in := threeClipInput(t, []bool{true, true, true})
	plan, err := render.NewSequential(planner.New(planner.Options{}), nil).Build(context.Background(), in)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	runner := testsupport.NewFakeRunner()
	runner.Fail["gap 10.000-12.000s"] = errors.New("lavfi unavailable")

	var started []int
	assembled := false
	warnings, err := render.Execute(context.Background(), runner, plan, render.Hooks{
		SegmentStarted: func(index, total int, _ render.Segment) { started = append(started, index) },
		Assembling:     func(render.Plan) { assembled = true },
	}, nil)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if len(started) != 4 || !assembled {
		t.Fatalf("unexpected hook calls: %v assembled=%v", started, assembled)
	}
	if len(warnings) != 1 || !strings.Contains(warnings[0], "gap 10.000-12.000s omitted") {
		t.Fatalf("unexpected warnings: %v", warnings)
	}
	manifest, err := os.ReadFile(plan.Manifest)
	if err != nil {
		t.Fatalf("read manifest: %v", err)
	}
	if lines := strings.Count(string(manifest), "\n"); lines != 3 {
		t.Fatalf("expected 3 manifest lines, got %d: %s", lines, manifest)
	}
	if _, err := os.Stat(in.Output); err != nil {
		t.Fatalf("expected assembled output: %v", err)
	}
}

func TestExecuteFailsOnClipSegment(t *testing.T) {
	in := threeClipInput(t, []bool{true, true, true})
	plan, err := render.NewSequential(planner.New(planner.Options{}), nil).Build(context.Background(), in)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	runner := testsupport.NewFakeRunner()
	boom := errors.New("encoder exploded")
	runner.Fail[`clip 2 (id "b")`] = boom

	if _, err := render.Execute(context.Background(), runner, plan, render.Hooks{}, nil); !errors.Is(err, boom) {
		t.Fatalf("expected clip failure, got %v", err)
	}
	if labels := runner.Labels(); len(labels) != 2 {
		t.Fatalf("expected execution to stop after failing clip, ran %v", labels)
	}
}

func TestExecuteStopsWhenCancelled(t *testing.T) {
	in := threeClipInput(t, []bool{true, true, true})
	plan, err := render.NewSequential(planner.New(planner.Options{}), nil).Build(context.Background(), in)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	runner := testsupport.NewFakeRunner()
	hooks := render.Hooks{SegmentStarted: func(index, _ int, _ render.Segment) {
		if index == 1 {
			cancel()
		}
	}}
	if _, err := render.Execute(ctx, runner, plan, hooks, nil); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if labels := runner.Labels(); len(labels) != 2 {
		t.Fatalf("expected execution to stop at the cancelled segment, ran %v", labels)
	}
}
