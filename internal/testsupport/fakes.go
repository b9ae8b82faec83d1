package testsupport

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"cutline/internal/media/ffprobe"
	"cutline/internal/transcode"
)

// FakeRunner records transcode requests and writes a placeholder output file
// for each successful one instead of spawning ffmpeg.
type FakeRunner struct {
	mu       sync.Mutex
	requests []transcode.Request

	// OutputSize is the size of each written output. Zero writes 4 KiB.
	OutputSize int64
	// Fail maps request labels to the error returned for them.
	Fail map[string]error
	// Hook runs before each request; a non-nil error fails the request.
	Hook func(ctx context.Context, req transcode.Request) error
}

// NewFakeRunner returns a FakeRunner with no failures configured.
func NewFakeRunner() *FakeRunner {
	return &FakeRunner{Fail: map[string]error{}}
}

// Run implements transcode.Runner.
func (r *FakeRunner) Run(ctx context.Context, req transcode.Request) (transcode.Result, error) {
	r.mu.Lock()
	r.requests = append(r.requests, req)
	failure := r.Fail[req.Label]
	hook := r.Hook
	size := r.OutputSize
	r.mu.Unlock()

	if hook != nil {
		if err := hook(ctx, req); err != nil {
			return transcode.Result{}, err
		}
	}
	if err := ctx.Err(); err != nil {
		return transcode.Result{}, err
	}
	if failure != nil {
		return transcode.Result{}, failure
	}
	if size <= 0 {
		size = 4096
	}
	if err := os.MkdirAll(filepath.Dir(req.Output), 0o755); err != nil {
		return transcode.Result{}, err
	}
	if err := os.WriteFile(req.Output, make([]byte, size), 0o644); err != nil {
		return transcode.Result{}, err
	}
	return transcode.Result{}, nil
}

// Requests returns a copy of every request received so far.
func (r *FakeRunner) Requests() []transcode.Request {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]transcode.Request(nil), r.requests...)
}

// Labels returns the labels of every request received so far.
func (r *FakeRunner) Labels() []string {
	reqs := r.Requests()
	labels := make([]string, len(reqs))
	for i, req := range reqs {
		labels[i] = req.Label
	}
	return labels
}

// FakeProber returns canned ffprobe results by path.
type FakeProber struct {
	mu      sync.Mutex
	results map[string]ffprobe.Result
	errors  map[string]error
	calls   []string

	// Default answers paths without a canned result. Nil means an error.
	Default *ffprobe.Result
}

// NewFakeProber returns an empty FakeProber.
func NewFakeProber() *FakeProber {
	return &FakeProber{results: map[string]ffprobe.Result{}, errors: map[string]error{}}
}

// Set registers the result for path.
func (p *FakeProber) Set(path string, result ffprobe.Result) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.results[path] = result
}

// FailPath makes probing path return err.
func (p *FakeProber) FailPath(path string, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.errors[path] = err
}

// Calls returns the probed paths in call order.
func (p *FakeProber) Calls() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.calls...)
}

// Probe implements the validation and import prober interfaces.
func (p *FakeProber) Probe(ctx context.Context, path string) (ffprobe.Result, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, path)
	if err := ctx.Err(); err != nil {
		return ffprobe.Result{}, err
	}
	if err, ok := p.errors[path]; ok {
		return ffprobe.Result{}, err
	}
	if result, ok := p.results[path]; ok {
		return result, nil
	}
	if p.Default != nil {
		return *p.Default, nil
	}
	return ffprobe.Result{}, fmt.Errorf("no probe result for %s", path)
}

// MediaResult builds an ffprobe result with one h264 video stream and,
// optionally, one aac audio stream.
func MediaResult(duration float64, width, height int, frameRate string, withAudio bool) ffprobe.Result {
	durationText := strconv.FormatFloat(duration, 'f', 6, 64)
	result := ffprobe.Result{
		Streams: []ffprobe.Stream{{
			Index:        0,
			CodecName:    "h264",
			CodecType:    "video",
			Width:        width,
			Height:       height,
			PixFmt:       "yuv420p",
			RFrameRate:   frameRate,
			AvgFrameRate: frameRate,
			Duration:     durationText,
		}},
		Format: ffprobe.Format{
			Duration:   durationText,
			Size:       "1048576",
			BitRate:    "4000000",
			FormatName: "mov,mp4,m4a,3gp,3g2,mj2",
		},
	}
	if withAudio {
		result.Streams = append(result.Streams, ffprobe.Stream{
			Index:      1,
			CodecName:  "aac",
			CodecType:  "audio",
			SampleRate: "48000",
			Channels:   2,
			Duration:   durationText,
		})
	}
	result.Format.NBStreams = len(result.Streams)
	return result
}
