package timeline_test

import (
	"os"
	"path/filepath"
	"testing"

	"cutline/internal/timeline"
)

func TestLoadDocumentYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "timeline.yaml")
	content := `clips:
  - id: intro
    source_path: /media/intro.mp4
    timeline_start: 0
    timeline_duration: 5
  - id: fast
    source_path: /media/fast.mov
    timeline_start: 5
    timeline_duration: 10
    speed: 4
    track_index: 1
export:
  output_path: /tmp/out.mp4
  resolution: 1080p
  codec: h265
  quality: high
  target_fps: 24
  include_audio: true
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	doc, err := timeline.LoadDocument(path)
	if err != nil {
		t.Fatalf("LoadDocument failed: %v", err)
	}
	if len(doc.Clips) != 2 {
		t.Fatalf("expected 2 clips, got %d", len(doc.Clips))
	}
	if doc.Clips[0].Speed != 1 {
		t.Fatalf("expected default speed 1, got %v", doc.Clips[0].Speed)
	}
	if doc.Clips[1].Track() != 1 || doc.Clips[1].SourceDuration() != 40 {
		t.Fatalf("unexpected fast clip: %+v", doc.Clips[1])
	}
	if doc.Export.Codec != timeline.CodecH265 || doc.Export.FPS(30) != 24 || !doc.Export.IncludeAudio {
		t.Fatalf("unexpected export config: %+v", doc.Export)
	}
}

func TestDecodeDocumentSniffsJSON(t *testing.T) {
	payload := []byte(`{"clips":[{"id":"a","source_path":"/a.mp4","timeline_duration":3}],"export":{"output_path":"/o.mp4"}}`)
	doc, err := timeline.DecodeDocument(payload, "")
	if err != nil {
		t.Fatalf("DecodeDocument failed: %v", err)
	}
	if doc.Clips[0].ID != "a" || doc.Export.OutputPath != "/o.mp4" {
		t.Fatalf("unexpected document: %+v", doc)
	}
	if doc.Export.FPS(30) != 30 {
		t.Fatalf("expected fallback fps, got %v", doc.Export.FPS(30))
	}
}

func TestDecodeDocumentSpeedDefaultsOnlyWhenOmitted(t *testing.T) {
	tests := []struct {
		name    string
		format  string
		payload string
		want    []float64
	}{
		{
			name:    "json",
			format:  "json",
			payload: `{"clips":[{"id":"a","timeline_duration":1},{"id":"b","timeline_duration":1,"speed":0},{"id":"c","timeline_duration":1,"speed":-2}]}`,
			want:    []float64{1, 0, -2},
		},
		{
			name:    "yaml",
			format:  "yaml",
			payload: "clips:\n  - id: a\n    timeline_duration: 1\n  - id: b\n    timeline_duration: 1\n    speed: 0\n  - id: c\n    speed: 2.5\n",
			want:    []float64{1, 0, 2.5},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			doc, err := timeline.DecodeDocument([]byte(tc.payload), tc.format)
			if err != nil {
				t.Fatalf("DecodeDocument failed: %v", err)
			}
			if len(doc.Clips) != len(tc.want) {
				t.Fatalf("expected %d clips, got %d", len(tc.want), len(doc.Clips))
			}
			for i, want := range tc.want {
				if doc.Clips[i].Speed != want {
					t.Fatalf("clip %d: expected speed %v, got %v", i, want, doc.Clips[i].Speed)
				}
			}
		})
	}
}

func TestDecodeDocumentRejectsGarbage(t *testing.T) {
	if _, err := timeline.DecodeDocument([]byte("{not json"), "json"); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestExportConfigFallbacks(t *testing.T) {
	if got := timeline.Codec("vp9").Normalized(); got != timeline.CodecH264 {
		t.Fatalf("expected h264 fallback, got %s", got)
	}
	if got := timeline.Quality("ultra").Normalized(); got != timeline.QualityMedium {
		t.Fatalf("expected medium fallback, got %s", got)
	}
	if got := timeline.ParseResolution("4K"); got != timeline.Resolution4K {
		t.Fatalf("expected 4k, got %s", got)
	}
	if w, h, ok := timeline.Resolution720p.Dimensions(); !ok || w != 1280 || h != 720 {
		t.Fatalf("unexpected 720p dimensions %dx%d", w, h)
	}
	if _, _, ok := timeline.ResolutionSource.Dimensions(); ok {
		t.Fatal("expected source resolution to have no fixed dimensions")
	}
}

func TestExportConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     timeline.ExportConfig
		wantErr bool
	}{
		{name: "ok", cfg: timeline.ExportConfig{OutputPath: "/o.mp4"}},
		{name: "missing output", cfg: timeline.ExportConfig{}, wantErr: true},
		{name: "custom without size", cfg: timeline.ExportConfig{OutputPath: "/o.mp4", Resolution: timeline.ResolutionCustom}, wantErr: true},
		{name: "custom with size", cfg: timeline.ExportConfig{OutputPath: "/o.mp4", Resolution: timeline.ResolutionCustom, CustomWidth: 640, CustomHeight: 360}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.Validate()
			if (err != nil) != tc.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}
