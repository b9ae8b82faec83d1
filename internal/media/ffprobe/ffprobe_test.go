package ffprobe

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"
)

func TestResultHelpers(t *testing.T) {
	result := Result{
		Streams: []Stream{
			{CodecType: "video", CodecName: "mjpeg", Width: 300, Height: 300, Disposition: map[string]int{"attached_pic": 1}},
			{CodecType: "video", Width: 1920, Height: 1080, AvgFrameRate: "30000/1001", RFrameRate: "30/1"},
			{CodecType: "audio", Index: 2},
			{CodecType: "audio", Index: 3, Disposition: map[string]int{"default": 1}},
		},
		Format: Format{
			Duration: "123.45",
			Size:     "1000",
			BitRate:  "32000",
		},
	}
	if result.VideoStreamCount() != 1 {
		t.Fatalf("expected cover art to be ignored, got %d video streams", result.VideoStreamCount())
	}
	if result.AudioStreamCount() != 2 || !result.HasAudio() {
		t.Fatalf("expected 2 audio streams, got %d", result.AudioStreamCount())
	}
	if w, h := result.Dimensions(); w != 1920 || h != 1080 {
		t.Fatalf("unexpected dimensions %dx%d", w, h)
	}
	if fps := result.FrameRate(); math.Abs(fps-29.97) > 0.01 {
		t.Fatalf("unexpected frame rate: %v", fps)
	}
	if audio, ok := result.PrimaryAudio(); !ok || audio.Index != 3 {
		t.Fatalf("expected default audio stream 3, got %+v", audio)
	}
	if result.DurationSeconds() != 123.45 {
		t.Fatalf("unexpected duration: %v", result.DurationSeconds())
	}
	if result.SizeBytes() != 1000 {
		t.Fatalf("unexpected size: %d", result.SizeBytes())
	}
	if result.BitRate() != 32000 {
		t.Fatalf("unexpected bitrate: %d", result.BitRate())
	}
}

func TestResultHelpersHandleInvalidNumbers(t *testing.T) {
	result := Result{
		Format: Format{
			Duration: "bad",
			Size:     "-1",
			BitRate:  "nope",
		},
	}
	if !math.IsNaN(result.DurationSeconds()) {
		t.Fatalf("expected duration NaN, got %v", result.DurationSeconds())
	}
	if result.SizeBytes() != 0 {
		t.Fatalf("expected size 0, got %d", result.SizeBytes())
	}
	if result.BitRate() != 0 {
		t.Fatalf("expected bitrate 0, got %d", result.BitRate())
	}
	if result.FrameRate() != 0 {
		t.Fatalf("expected 0 fps without video, got %v", result.FrameRate())
	}
}

func TestDurationFallsBackToStreams(t *testing.T) {
	result := Result{
		Streams: []Stream{{CodecType: "video", Duration: "4.5"}, {CodecType: "audio", Duration: "4.8"}},
		Format:  Format{Duration: "N/A"},
	}
	if got := result.DurationSeconds(); got != 4.8 {
		t.Fatalf("expected stream duration fallback 4.8, got %v", got)
	}
}

func TestParseRate(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"30/1", 30},
		{"24000/1001", 24000.0 / 1001.0},
		{"25", 25},
		{"0/0", 0},
		{"30/0", 0},
		{"", 0},
		{"abc/1", 0},
		{"-5", 0},
	}
	for _, tt := range tests {
		if got := ParseRate(tt.in); got != tt.want {
			t.Errorf("ParseRate(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestInspectRunsBinary(t *testing.T) {
	dir := t.TempDir()
	stub := filepath.Join(dir, "ffprobe")
	script := `#!/bin/sh
cat <<'JSON'
{"streams":[{"index":0,"codec_type":"video","width":1280,"height":720,"avg_frame_rate":"25/1"}],"format":{"duration":"2.0","size":"2048"}}
JSON
`
	if err := os.WriteFile(stub, []byte(script), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}

	result, err := Inspect(context.Background(), stub, "/media/clip.mp4")
	if err != nil {
		t.Fatalf("Inspect returned error: %v", err)
	}
	if result.FrameRate() != 25 || result.DurationSeconds() != 2 {
		t.Fatalf("unexpected result: fps=%v duration=%v", result.FrameRate(), result.DurationSeconds())
	}
	if len(result.RawJSON()) == 0 {
		t.Fatal("expected raw json to be retained")
	}
}

func TestInspectFailure(t *testing.T) {
	dir := t.TempDir()
	stub := filepath.Join(dir, "ffprobe")
	if err := os.WriteFile(stub, []byte("#!/bin/sh\necho 'Invalid data found when processing input' >&2\nexit 1\n"), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	if _, err := Inspect(context.Background(), stub, "/media/bad.mp4"); err == nil {
		t.Fatal("expected error from failing ffprobe")
	}
	if _, err := Inspect(context.Background(), stub, "  "); err == nil {
		t.Fatal("expected error for empty path")
	}
}
