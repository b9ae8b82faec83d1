package prerender

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"cutline/internal/config"
	"cutline/internal/fileutil"
	"cutline/internal/history"
	"cutline/internal/logging"
	"cutline/internal/planner"
	"cutline/internal/services"
	"cutline/internal/staging"
	"cutline/internal/timeline"
	"cutline/internal/transcode"
	"cutline/internal/validation"
)

var (
	// ErrNoClips is returned when a segment has nothing to render.
	ErrNoClips = errors.New("no clips to render")
	// ErrInvalidSegmentID is returned for ids that cannot name a cache file.
	ErrInvalidSegmentID = errors.New("invalid segment id")
)

const lockRetryDelay = 100 * time.Millisecond

// Clip is one source window of a prerendered segment. Duration is the length
// the clip occupies in the segment; the source span is Duration*Speed.
type Clip struct {
	SourcePath string  `json:"file_path" yaml:"file_path"`
	TrimStart  float64 `json:"trim_start" yaml:"trim_start"`
	TrimEnd    float64 `json:"trim_end" yaml:"trim_end"`
	Duration   float64 `json:"duration" yaml:"duration"`
	Speed      float64 `json:"speed" yaml:"speed"`
}

type clipFields struct {
	SourcePath string   `json:"file_path" yaml:"file_path"`
	TrimStart  float64  `json:"trim_start" yaml:"trim_start"`
	TrimEnd    float64  `json:"trim_end" yaml:"trim_end"`
	Duration   float64  `json:"duration" yaml:"duration"`
	Speed      *float64 `json:"speed" yaml:"speed"`
}

func (f clipFields) clip() Clip {
	c := Clip{SourcePath: f.SourcePath, TrimStart: f.TrimStart, TrimEnd: f.TrimEnd, Duration: f.Duration, Speed: timeline.DefaultSpeed}
	if f.Speed != nil {
		c.Speed = *f.Speed
	}
	return c
}

// UnmarshalJSON defaults an omitted speed to timeline.DefaultSpeed.
func (c *Clip) UnmarshalJSON(data []byte) error {
	var f clipFields
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*c = f.clip()
	return nil
}

// UnmarshalYAML defaults an omitted speed to timeline.DefaultSpeed.
func (c *Clip) UnmarshalYAML(node *yaml.Node) error {
	var f clipFields
	if err := node.Decode(&f); err != nil {
		return err
	}
	*c = f.clip()
	return nil
}

// Renderer renders segments into the prerender cache.
type Renderer struct {
	cfg       *config.Config
	runner    transcode.Runner
	validator *validation.Validator
	planner   *planner.Planner
	store     *history.Store
	logger    *slog.Logger
}

// Option configures optional Renderer behavior.
type Option func(*Renderer)

// WithHistory indexes rendered segments in store.
func WithHistory(store *history.Store) Option {
	return func(r *Renderer) { r.store = store }
}

// New constructs a Renderer.
func New(cfg *config.Config, runner transcode.Runner, prober validation.Prober, logger *slog.Logger, opts ...Option) *Renderer {
	logger = logging.NewComponentLogger(logger, "prerender")
	r := &Renderer{
		cfg:       cfg,
		runner:    runner,
		validator: validation.New(cfg, prober, logger),
		planner:   planner.New(planner.OptionsFromConfig(cfg)),
		logger:    logger,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Render renders clips into output and returns the output path. An empty
// output renders into the cache directory as <segmentID>.mp4.
func (r *Renderer) Render(ctx context.Context, segmentID string, clips []Clip, output string) (string, error) {
	if len(clips) == 0 {
		return "", ErrNoClips
	}
	segmentID = strings.TrimSpace(segmentID)
	if segmentID == "" {
		segmentID = uuid.NewString()
	}
	if !fileutil.IsPlainName(segmentID) {
		return "", services.Wrap(services.ErrValidation, "prerender", "", "", fmt.Errorf("%w: %q", ErrInvalidSegmentID, segmentID))
	}
	logger := r.logger.With(logging.String(logging.FieldSegment, segmentID))

	if strings.TrimSpace(output) == "" {
		dir, err := r.CacheDir()
		if err != nil {
			return "", err
		}
		output = filepath.Join(dir, segmentID+".mp4")
	}

	timelineClips := toTimeline(segmentID, clips)
	validations, err := r.validator.ValidateAll(ctx, timelineClips)
	if err != nil {
		return "", services.Wrap(services.ErrValidation, "prerender", segmentID, "", err)
	}

	fingerprint := r.fingerprint(clips)
	if r.reusable(ctx, logger, fingerprint, output) {
		return output, nil
	}

	unlock, err := r.lockCache(ctx, false)
	if err != nil {
		return "", err
	}
	defer unlock()

	started := time.Now()
	cfg := timeline.ExportConfig{
		OutputPath:   output,
		Resolution:   timeline.ResolutionSource,
		Codec:        timeline.CodecH264,
		IncludeAudio: true,
	}
	target, err := planner.ResolveTarget(cfg, validations, r.planner.DefaultFPS())
	if err != nil {
		return "", services.Wrap(services.ErrValidation, "prerender", segmentID, "resolve target", err)
	}
	directives := make([]planner.ClipDirective, len(timelineClips))
	for i, clip := range timelineClips {
		directives[i] = r.planner.PlanClip(i+1, clip, validations[i], cfg, target)
	}
	enc := r.planner.EncodeParams(cfg)
	enc.Preset = r.cfg.Prerender.Preset
	enc.CRF = r.cfg.Prerender.CRF

	ws, err := staging.NewWorkspace(r.cfg.Paths.TempDir, staging.PrefixPrerender, "")
	if err != nil {
		return "", services.Wrap(services.ErrConfiguration, "prerender", segmentID, "create workspace", err)
	}
	defer func() {
		if cleanupErr := ws.Cleanup(); cleanupErr != nil {
			logger.Warn("failed to remove prerender workspace", logging.String("path", ws.Dir), logging.Error(cleanupErr))
		}
	}()

	staged := ws.Path("segment" + filepath.Ext(output))
	label := "prerender " + segmentID
	var req transcode.Request
	if len(directives) == 1 {
		req = r.planner.Request(directives[0], enc, staged)
		req.Label = label
	} else {
		req = r.planner.ConcatRequest(label, directives, enc, staged)
	}

	logger.Info("prerendering segment",
		logging.Int(logging.FieldClipCount, len(clips)),
		logging.String("target", target.String()),
		logging.String("output", output),
	)
	if _, err := r.runner.Run(ctx, req); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		logging.ErrorWithContext(logger, "prerender failed", "prerender_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "ffmpeg diagnostics are included in the error"),
			logging.String(logging.FieldImpact, "segment is not cached; playback uses the source clips"),
		)
		return "", services.Wrap(services.ErrExternalTool, "prerender", segmentID, "", err)
	}
	if err := os.MkdirAll(filepath.Dir(output), 0o755); err != nil {
		return "", services.Wrap(services.ErrConfiguration, "prerender", segmentID, "create output dir", err)
	}
	if err := fileutil.MoveFile(staged, output); err != nil {
		return "", services.Wrap(services.ErrTransient, "prerender", segmentID, "publish segment", err)
	}

	var duration float64
	for _, d := range directives {
		duration += d.TimelineDuration
	}
	size, _ := fileutil.FileSize(output)
	r.record(ctx, logger, history.Segment{
		Path:        output,
		Fingerprint: fingerprint,
		SizeBytes:   size,
		ClipCount:   len(clips),
		Duration:    duration,
	})
	logger.Info("segment prerendered",
		logging.String(logging.FieldEventType, "prerender_complete"),
		logging.Int64("size_bytes", size),
		logging.Duration("elapsed", time.Since(started)),
	)
	return output, nil
}

// CacheDir creates the cache directory if needed and returns its absolute path.
func (r *Renderer) CacheDir() (string, error) {
	dir := strings.TrimSpace(r.cfg.Paths.PrerenderCacheDir)
	if dir == "" {
		return "", services.Wrap(services.ErrConfiguration, "prerender", "cache dir", "prerender_cache_dir is not set", nil)
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolve cache dir: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return "", fmt.Errorf("create cache dir: %w", err)
	}
	return abs, nil
}

// ClearResult reports what Clear removed.
type ClearResult struct {
	Files int   `json:"files"`
	Bytes int64 `json:"bytes"`
}

// Clear empties the cache directory and forgets indexed segments. It waits
// for in-flight renders to finish.
func (r *Renderer) Clear(ctx context.Context) (ClearResult, error) {
	dir, err := r.CacheDir()
	if err != nil {
		return ClearResult{}, err
	}
	unlock, err := r.lockCache(ctx, true)
	if err != nil {
		return ClearResult{}, err
	}
	defer unlock()

	var result ClearResult
	if entries, err := os.ReadDir(dir); err == nil {
		result.Files = len(entries)
	}
	result.Bytes, _ = fileutil.DirSize(dir)
	if err := os.RemoveAll(dir); err != nil {
		return result, fmt.Errorf("clear cache: %w", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return result, fmt.Errorf("recreate cache dir: %w", err)
	}
	if r.store != nil {
		if _, err := r.store.ClearSegments(ctx); err != nil {
			r.logger.Warn("failed to clear segment index", logging.Error(err))
		}
	}
	r.logger.Info("prerender cache cleared",
		logging.String(logging.FieldEventType, "prerender_cache_cleared"),
		logging.Int("files", result.Files),
		logging.Int64("bytes", result.Bytes),
	)
	return result, nil
}

// lockCache takes the cache lock shared for renders and exclusive for Clear.
func (r *Renderer) lockCache(ctx context.Context, exclusive bool) (func(), error) {
	dir, err := r.CacheDir()
	if err != nil {
		return nil, err
	}
	lock := flock.New(dir + ".lock")
	var locked bool
	if exclusive {
		locked, err = lock.TryLockContext(ctx, lockRetryDelay)
	} else {
		locked, err = lock.TryRLockContext(ctx, lockRetryDelay)
	}
	if err != nil {
		return nil, fmt.Errorf("lock prerender cache: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("lock prerender cache: %w", services.ErrBusy)
	}
	return func() { _ = lock.Unlock() }, nil
}

func (r *Renderer) reusable(ctx context.Context, logger *slog.Logger, fingerprint, output string) bool {
	if r.store == nil {
		return false
	}
	seg, err := r.store.FindSegment(ctx, fingerprint)
	if err != nil || seg == nil || seg.Path != output {
		return false
	}
	size, err := fileutil.FileSize(output)
	if err != nil || size != seg.SizeBytes {
		return false
	}
	logger.Info("reusing prerendered segment",
		logging.String(logging.FieldEventType, "prerender_cache_hit"),
		logging.String("output", output),
	)
	return true
}

func (r *Renderer) record(ctx context.Context, logger *slog.Logger, seg history.Segment) {
	if r.store == nil {
		return
	}
	if err := r.store.RecordSegment(ctx, seg); err != nil {
		logger.Warn("failed to index prerendered segment", logging.Error(err))
	}
}

// fingerprint identifies a segment by its clips, their source files and the
// encode settings.
func (r *Renderer) fingerprint(clips []Clip) string {
	type source struct {
		Clip
		Size    int64 `json:"size"`
		ModTime int64 `json:"mod_time"`
	}
	sources := make([]source, len(clips))
	for i, clip := range clips {
		sources[i] = source{Clip: clip}
		if info, err := os.Stat(clip.SourcePath); err == nil {
			sources[i].Size = info.Size()
			sources[i].ModTime = info.ModTime().UnixNano()
		}
	}
	payload, _ := json.Marshal(struct {
		Sources []source `json:"sources"`
		Preset  string   `json:"preset"`
		CRF     int      `json:"crf"`
	}{sources, r.cfg.Prerender.Preset, r.cfg.Prerender.CRF})
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}

func toTimeline(segmentID string, clips []Clip) []timeline.Clip {
	out := make([]timeline.Clip, len(clips))
	var start float64
	for i, c := range clips {
		out[i] = timeline.Clip{
			ID:               segmentID + "-" + strconv.Itoa(i+1),
			SourcePath:       c.SourcePath,
			TimelineStart:    start,
			TrimStart:        c.TrimStart,
			TrimEnd:          c.TrimEnd,
			TimelineDuration: c.Duration,
			Speed:            c.Speed,
		}
		start += c.Duration
	}
	return out
}
