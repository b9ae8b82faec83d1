package prerender_test

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"cutline/internal/config"
	"cutline/internal/history"
	"cutline/internal/prerender"
	"cutline/internal/services"
	"cutline/internal/testsupport"
	"cutline/internal/validation"
)

func newRenderer(t *testing.T) (*prerender.Renderer, *config.Config, *testsupport.FakeRunner, *testsupport.FakeProber, *history.Store) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	runner := testsupport.NewFakeRunner()
	prober := testsupport.NewFakeProber()
	return prerender.New(cfg, runner, prober, nil, prerender.WithHistory(store)), cfg, runner, prober, store
}

func sourceClip(t *testing.T, prober *testsupport.FakeProber, name string, audio bool) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	testsupport.WriteFile(t, path, 2048)
	prober.Set(path, testsupport.MediaResult(60, 1280, 720, "30/1", audio))
	return path
}

func TestRenderSingleClipTrimsDirectly(t *testing.T) {
	r, cfg, runner, prober, store := newRenderer(t)
	src := sourceClip(t, prober, "a.mp4", true)

	out, err := r.Render(context.Background(), "seg-1", []prerender.Clip{{SourcePath: src, TrimStart: 2, Duration: 5, Speed: 2}}, "")
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if want := filepath.Join(cfg.Paths.PrerenderCacheDir, "seg-1.mp4"); out != want {
		t.Fatalf("expected output %s, got %s", want, out)
	}
	if _, err := os.Stat(out); err != nil {
		t.Fatalf("expected rendered segment: %v", err)
	}

	reqs := runner.Requests()
	if len(reqs) != 1 {
		t.Fatalf("expected one transcode, got %d", len(reqs))
	}
	req := reqs[0]
	if req.Label != "prerender seg-1" || req.FilterGraph != "" {
		t.Fatalf("expected direct trim request, got %+v", req)
	}
	if in := req.Inputs[0]; in.Seek != 2 || in.Duration != 10 {
		t.Fatalf("unexpected input window: %+v", in)
	}
	if !strings.Contains(req.VideoFilter, "setpts=0.5*PTS") || !strings.Contains(req.AudioFilter, "atempo=2") {
		t.Fatalf("expected speed filters, got vf=%q af=%q", req.VideoFilter, req.AudioFilter)
	}
	if req.Encode.Preset != "ultrafast" || req.Encode.CRF != 23 || req.Duration != 5 {
		t.Fatalf("unexpected encode settings: %+v (duration %v)", req.Encode, req.Duration)
	}

	segments, err := store.ListSegments(context.Background())
	if err != nil {
		t.Fatalf("ListSegments: %v", err)
	}
	if len(segments) != 1 || segments[0].Path != out || segments[0].Duration != 5 || segments[0].ClipCount != 1 {
		t.Fatalf("unexpected segment index: %+v", segments)
	}
}

func TestRenderMultipleClipsUsesFilterGraph(t *testing.T) {
	r, _, runner, prober, _ := newRenderer(t)
	a := sourceClip(t, prober, "a.mp4", true)
	b := sourceClip(t, prober, "b.mp4", false)
	out := filepath.Join(t.TempDir(), "nested", "segment.mp4")

	if _, err := r.Render(context.Background(), "seg-2", []prerender.Clip{
		{SourcePath: a, Duration: 3, Speed: 1},
		{SourcePath: b, TrimStart: 1, Duration: 4, Speed: 0.5},
	}, out); err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	req := runner.Requests()[0]
	for _, fragment := range []string{"[0:v]", "[v0][a0][v1][a1]concat=n=2:v=1:a=1[outv][outa]", "[2:a]"} {
		if !strings.Contains(req.FilterGraph, fragment) {
			t.Fatalf("expected %q in graph %q", fragment, req.FilterGraph)
		}
	}
	if len(req.Inputs) != 3 || req.Inputs[2].Format != "lavfi" {
		t.Fatalf("expected silence input for clip without audio, got %+v", req.Inputs)
	}
	if strings.Join(req.Maps, " ") != "[outv] [outa]" {
		t.Fatalf("unexpected maps %v", req.Maps)
	}
	if _, err := os.Stat(out); err != nil {
		t.Fatalf("expected output in nested dir: %v", err)
	}
}

func TestRenderReusesIndexedSegment(t *testing.T) {
	r, _, runner, prober, _ := newRenderer(t)
	src := sourceClip(t, prober, "a.mp4", true)
	clips := []prerender.Clip{{SourcePath: src, Duration: 2, Speed: 1}}

	first, err := r.Render(context.Background(), "seg", clips, "")
	if err != nil {
		t.Fatalf("first Render failed: %v", err)
	}
	second, err := r.Render(context.Background(), "seg", clips, "")
	if err != nil {
		t.Fatalf("second Render failed: %v", err)
	}
	if first != second || len(runner.Requests()) != 1 {
		t.Fatalf("expected cached segment reuse, got %d transcodes", len(runner.Requests()))
	}

	clips[0].Speed = 2
	if _, err := r.Render(context.Background(), "seg", clips, ""); err != nil {
		t.Fatalf("third Render failed: %v", err)
	}
	if len(runner.Requests()) != 2 {
		t.Fatalf("expected changed clips to render again, got %d transcodes", len(runner.Requests()))
	}
}

func TestRenderErrors(t *testing.T) {
	r, _, runner, prober, _ := newRenderer(t)

	if _, err := r.Render(context.Background(), "empty", nil, ""); !errors.Is(err, prerender.ErrNoClips) {
		t.Fatalf("expected ErrNoClips, got %v", err)
	}

	missing := []prerender.Clip{{SourcePath: filepath.Join(t.TempDir(), "none.mp4"), Duration: 1, Speed: 1}}
	if _, err := r.Render(context.Background(), "missing", missing, ""); !errors.Is(err, validation.ErrFileNotFound) {
		t.Fatalf("expected ErrFileNotFound, got %v", err)
	}

	src := sourceClip(t, prober, "a.mp4", true)
	runner.Fail["prerender broken"] = errors.New("ffmpeg exploded")
	_, err := r.Render(context.Background(), "broken", []prerender.Clip{{SourcePath: src, Duration: 1, Speed: 1}}, "")
	if !errors.Is(err, services.ErrExternalTool) || !strings.Contains(err.Error(), "ffmpeg exploded") {
		t.Fatalf("expected external tool error, got %v", err)
	}
}

func TestRenderRejectsUnsafeSegmentID(t *testing.T) {
	r, cfg, runner, prober, _ := newRenderer(t)
	src := sourceClip(t, prober, "a.mp4", true)
	clips := []prerender.Clip{{SourcePath: src, Duration: 1, Speed: 1}}

	for _, id := range []string{"../escape", "nested/seg", ".hidden", `..\up`} {
		_, err := r.Render(context.Background(), id, clips, "")
		if !errors.Is(err, prerender.ErrInvalidSegmentID) || !errors.Is(err, services.ErrValidation) {
			t.Fatalf("segment %q: expected invalid segment id, got %v", id, err)
		}
	}
	if len(runner.Requests()) != 0 {
		t.Fatalf("expected no transcodes, got %v", runner.Labels())
	}
	if _, err := os.Stat(filepath.Join(filepath.Dir(cfg.Paths.PrerenderCacheDir), "escape.mp4")); !os.IsNotExist(err) {
		t.Fatalf("expected nothing written outside the cache, stat err=%v", err)
	}
}

func TestRenderRejectsNonPositiveSpeed(t *testing.T) {
	r, _, runner, prober, _ := newRenderer(t)
	src := sourceClip(t, prober, "a.mp4", true)

	_, err := r.Render(context.Background(), "seg", []prerender.Clip{{SourcePath: src, Duration: 1, Speed: 0}}, "")
	if !errors.Is(err, validation.ErrInvalidSpeed) {
		t.Fatalf("expected ErrInvalidSpeed, got %v", err)
	}
	if len(runner.Requests()) != 0 {
		t.Fatalf("expected no transcodes, got %v", runner.Labels())
	}
}

func TestClipSpeedDefaultsOnlyWhenOmitted(t *testing.T) {
	tests := []struct {
		payload string
		want    float64
	}{
		{`{"file_path":"a.mp4","duration":2}`, 1},
		{`{"file_path":"a.mp4","duration":2,"speed":0}`, 0},
		{`{"file_path":"a.mp4","duration":2,"speed":-1.5}`, -1.5},
		{`{"file_path":"a.mp4","duration":2,"speed":2}`, 2},
	}
	for _, tt := range tests {
		var clip prerender.Clip
		if err := json.Unmarshal([]byte(tt.payload), &clip); err != nil {
			t.Fatalf("decode %s: %v", tt.payload, err)
		}
		if clip.Speed != tt.want || clip.SourcePath != "a.mp4" || clip.Duration != 2 {
			t.Fatalf("decode %s: got %+v, want speed %v", tt.payload, clip, tt.want)
		}
	}
}

func TestCacheDirAndClear(t *testing.T) {
	r, cfg, _, prober, store := newRenderer(t)

	dir, err := r.CacheDir()
	if err != nil {
		t.Fatalf("CacheDir failed: %v", err)
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		t.Fatalf("expected cache dir to exist: %v", err)
	}
	if dir != cfg.Paths.PrerenderCacheDir {
		t.Fatalf("expected %s, got %s", cfg.Paths.PrerenderCacheDir, dir)
	}

	src := sourceClip(t, prober, "a.mp4", true)
	if _, err := r.Render(context.Background(), "seg", []prerender.Clip{{SourcePath: src, Duration: 1, Speed: 1}}, ""); err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	result, err := r.Clear(context.Background())
	if err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if result.Files != 1 || result.Bytes != 4096 {
		t.Fatalf("unexpected clear result: %+v", result)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("expected cache dir recreated: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected empty cache dir, got %d entries", len(entries))
	}
	segments, err := store.ListSegments(context.Background())
	if err != nil || len(segments) != 0 {
		t.Fatalf("expected segment index cleared, got %+v (%v)", segments, err)
	}
}
