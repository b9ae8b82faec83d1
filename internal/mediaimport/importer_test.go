package mediaimport_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"cutline/internal/mediaimport"
	"cutline/internal/testsupport"
)

func newImporter(t *testing.T) (*mediaimport.Importer, *testsupport.FakeRunner, *testsupport.FakeProber) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	runner := testsupport.NewFakeRunner()
	prober := testsupport.NewFakeProber()
	return mediaimport.New(cfg, runner, prober, nil), runner, prober
}

func writeSource(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	testsupport.WriteFile(t, path, 3000)
	return path
}

func TestSupported(t *testing.T) {
	imp, _, _ := newImporter(t)
	tests := map[string]bool{
		"clip.mp4":  true,
		"clip.MOV":  true,
		"clip.mkv":  true,
		"clip.webm": true,
		"clip.avi":  true,
		"clip.gif":  false,
		"clip":      false,
	}
	for path, want := range tests {
		if got := imp.Supported(path); got != want {
			t.Fatalf("Supported(%q) = %v, want %v", path, got, want)
		}
	}
}

func TestImportBuildsMediaItem(t *testing.T) {
	imp, runner, prober := newImporter(t)
	src := writeSource(t, "holiday.mp4")
	prober.Set(src, testsupport.MediaResult(42, 1920, 1080, "120/1", true))

	item, err := imp.Import(context.Background(), src)
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if item.ID == "" || item.Name != "holiday.mp4" || item.FilePath != src {
		t.Fatalf("unexpected identity: %+v", item)
	}
	if item.Duration != 42 || item.Width != 1920 || item.Height != 1080 || item.FPS != 120 || item.Codec != "h264" {
		t.Fatalf("unexpected media facts: %+v", item)
	}
	if item.FileSize != 3000 || item.ImportedAt.IsZero() {
		t.Fatalf("unexpected file facts: %+v", item)
	}
	for _, p := range []string{item.ThumbnailPath, item.ProxyPath} {
		if _, err := os.Stat(p); err != nil {
			t.Fatalf("expected asset %q: %v", p, err)
		}
	}
	if !strings.HasSuffix(item.ProxyPath, item.ID+"_proxy.mp4") || !strings.HasSuffix(item.ThumbnailPath, item.ID+".jpg") {
		t.Fatalf("unexpected asset names: %s %s", item.ThumbnailPath, item.ProxyPath)
	}

	reqs := runner.Requests()
	if len(reqs) != 2 {
		t.Fatalf("expected thumbnail and proxy renders, got %v", runner.Labels())
	}
	if seek := reqs[0].Inputs[0].Seek; seek != 1 {
		t.Fatalf("expected thumbnail at 1s, got %v", seek)
	}
	if vf := reqs[1].VideoFilter; vf != "scale=-2:540,fps=30,format=yuv420p" {
		t.Fatalf("unexpected proxy filter %q", vf)
	}
}

func TestImportAssetFailuresAreNotFatal(t *testing.T) {
	imp, runner, prober := newImporter(t)
	src := writeSource(t, "short.mov")
	prober.Set(src, testsupport.MediaResult(5, 640, 360, "25/1", false))
	runner.Fail["proxy short.mov"] = errors.New("encoder missing")

	item, err := imp.Import(context.Background(), src)
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if item.ProxyPath != "" || item.ThumbnailPath == "" {
		t.Fatalf("expected thumbnail only, got %+v", item)
	}
	if seek := runner.Requests()[0].Inputs[0].Seek; seek != 0.5 {
		t.Fatalf("expected thumbnail at 10%% of duration, got %v", seek)
	}
}

func TestImportRejects(t *testing.T) {
	imp, _, prober := newImporter(t)

	if _, err := imp.Import(context.Background(), writeSource(t, "notes.txt")); !errors.Is(err, mediaimport.ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
	if err := imp.Check(context.Background(), filepath.Join(t.TempDir(), "missing.mp4")); err == nil {
		t.Fatal("expected error for missing file")
	}

	audioOnly := writeSource(t, "song.mkv")
	result := testsupport.MediaResult(10, 0, 0, "0/0", true)
	result.Streams = result.Streams[1:]
	prober.Set(audioOnly, result)
	if err := imp.Check(context.Background(), audioOnly); !errors.Is(err, mediaimport.ErrNoVideo) {
		t.Fatalf("expected ErrNoVideo, got %v", err)
	}
}

func TestImportManySkipsFailures(t *testing.T) {
	imp, _, prober := newImporter(t)
	good1 := writeSource(t, "a.mp4")
	good2 := writeSource(t, "c.mp4")
	bad := writeSource(t, "b.mp4")
	prober.Set(good1, testsupport.MediaResult(3, 1280, 720, "30/1", true))
	prober.Set(good2, testsupport.MediaResult(4, 1280, 720, "30/1", true))
	prober.FailPath(bad, errors.New("moov atom not found"))

	items, err := imp.ImportMany(context.Background(), []string{good1, bad, good2})
	if err != nil {
		t.Fatalf("ImportMany failed: %v", err)
	}
	if len(items) != 2 || items[0].FilePath != good1 || items[1].FilePath != good2 {
		t.Fatalf("unexpected items: %+v", items)
	}

	_, err = imp.ImportMany(context.Background(), []string{bad})
	if !errors.Is(err, mediaimport.ErrNothingImported) || !strings.Contains(err.Error(), "moov atom") {
		t.Fatalf("expected ErrNothingImported with cause, got %v", err)
	}
}

func TestThumbnailTimeAndProxyFilter(t *testing.T) {
	if got := mediaimport.ThumbnailTime(4); got != 0.4 {
		t.Fatalf("ThumbnailTime(4) = %v", got)
	}
	if got := mediaimport.ThumbnailTime(0); got != 0 {
		t.Fatalf("ThumbnailTime(0) = %v", got)
	}
	if got := mediaimport.ProxyFilter(360, 30, 540, 30); got != "format=yuv420p" {
		t.Fatalf("expected no scaling for small source, got %q", got)
	}
	if got := mediaimport.ProxyFilter(2160, 60, 540, 30); got != "scale=-2:540,format=yuv420p" {
		t.Fatalf("expected 60fps source kept, got %q", got)
	}
}
