package validation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"strings"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"cutline/internal/config"
	"cutline/internal/logging"
	"cutline/internal/media/ffprobe"
	"cutline/internal/timeline"
)

var (
	ErrFileNotFound  = errors.New("source file not found")
	ErrProbeFailure  = errors.New("probe failed")
	ErrInvalidTrim   = errors.New("invalid trim")
	ErrInvalidSpeed  = errors.New("invalid speed")
	ErrEmptyTimeline = errors.New("timeline has no clips")
)

// Prober extracts stream metadata from a media file.
type Prober interface {
	Probe(ctx context.Context, path string) (ffprobe.Result, error)
}

// ClipError identifies which clip of a batch failed validation.
type ClipError struct {
	Index int // 1-based
	ID    string
	Err   error
}

func (e *ClipError) Error() string {
	return fmt.Sprintf("clip %d (id %q): %v", e.Index, e.ID, e.Err)
}

func (e *ClipError) Unwrap() error { return e.Err }

// Validator checks source clips before any transcoding starts and inspects
// the finished output afterwards.
type Validator struct {
	prober            Prober
	maxSpeed          float64
	concurrency       int
	minOutputBytes    int64
	durationTolerance float64
	logger            *slog.Logger
}

// New constructs a Validator from configuration.
func New(cfg *config.Config, prober Prober, logger *slog.Logger) *Validator {
	v := &Validator{
		prober:            prober,
		maxSpeed:          100,
		concurrency:       4,
		minOutputBytes:    1024,
		durationTolerance: 0.5,
		logger:            logging.NewComponentLogger(logger, "validation"),
	}
	if cfg != nil {
		if cfg.Export.MaxSpeed > 0 {
			v.maxSpeed = cfg.Export.MaxSpeed
		}
		if cfg.Export.ValidateConcurrency > 0 {
			v.concurrency = cfg.Export.ValidateConcurrency
		}
		if cfg.Export.MinOutputBytes > 0 {
			v.minOutputBytes = cfg.Export.MinOutputBytes
		}
		if cfg.Export.DurationTolerance > 0 {
			v.durationTolerance = cfg.Export.DurationTolerance
		}
	}
	return v
}

// Validate checks one clip and returns its probed facts.
func (v *Validator) Validate(ctx context.Context, clip timeline.Clip) (timeline.Validation, error) {
	var result timeline.Validation

	path := strings.TrimSpace(clip.SourcePath)
	if path == "" {
		return result, fmt.Errorf("%w: empty source path", ErrFileNotFound)
	}
	info, err := os.Stat(path)
	if err != nil {
		return result, fmt.Errorf("%w: %s", ErrFileNotFound, path)
	}
	if !info.Mode().IsRegular() {
		return result, fmt.Errorf("%w: %s is not a regular file", ErrFileNotFound, path)
	}
	result.Exists = true

	if clip.TrimStart < 0 || clip.TrimEnd < 0 {
		return result, fmt.Errorf("%w: trim_start=%.3f trim_end=%.3f must not be negative", ErrInvalidTrim, clip.TrimStart, clip.TrimEnd)
	}
	if clip.Speed <= 0 || math.IsNaN(clip.Speed) {
		return result, fmt.Errorf("%w: speed %.3f must be positive", ErrInvalidSpeed, clip.Speed)
	}
	if clip.Speed > v.maxSpeed {
		return result, fmt.Errorf("%w: speed %.3f exceeds maximum %.0f", ErrInvalidSpeed, clip.Speed, v.maxSpeed)
	}
	if clip.TimelineDuration <= 0 {
		return result, fmt.Errorf("%w: timeline duration %.3f must be positive", ErrInvalidTrim, clip.TimelineDuration)
	}

	probe, err := v.prober.Probe(ctx, path)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return result, ctxErr
		}
		return result, fmt.Errorf("%w: %s: %v", ErrProbeFailure, path, err)
	}
	video, ok := probe.PrimaryVideo()
	if !ok {
		return result, fmt.Errorf("%w: %s has no video stream", ErrProbeFailure, path)
	}
	duration := probe.DurationSeconds()
	if math.IsNaN(duration) || duration <= 0 {
		return result, fmt.Errorf("%w: %s reports no usable duration", ErrProbeFailure, path)
	}

	result.HasVideo = true
	result.HasAudio = probe.HasAudio()
	result.NativeCodec = video.CodecName
	result.NativeWidth, result.NativeHeight = probe.Dimensions()
	result.NativeFPS = probe.FrameRate()
	result.ProbedDuration = duration

	available := duration - clip.TrimStart - clip.TrimEnd
	if available <= 0 {
		return result, fmt.Errorf("%w: trims leave %.3fs of %.3fs source", ErrInvalidTrim, available, duration)
	}
	if need := clip.SourceDuration(); need > available+v.durationTolerance {
		logging.WarnWithContext(v.logger, "clip requests more source than its trim window",
			"clip_source_short",
			logging.String(logging.FieldClipID, clip.ID),
			logging.Float64("requested_seconds", need),
			logging.Float64("available_seconds", available),
			logging.String(logging.FieldErrorHint, "shorten the clip or reduce its trims"),
			logging.String(logging.FieldImpact, "clip will render shorter than its timeline slot"),
		)
	}
	return result, nil
}

// ValidateAll validates clips in order and fails on the first invalid one,
// identifying it by 1-based index and id. Files are probed concurrently but
// the reported failure is always the earliest failing clip.
func (v *Validator) ValidateAll(ctx context.Context, clips []timeline.Clip) ([]timeline.Validation, error) {
	if len(clips) == 0 {
		return nil, ErrEmptyTimeline
	}

	results := make([]timeline.Validation, len(clips))
	errs := make([]error, len(clips))
	var (
		firstFailed atomic.Int64
		mu          sync.Mutex
	)
	firstFailed.Store(int64(len(clips)))

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(v.concurrency)
	for i, clip := range clips {
		if int64(i) > firstFailed.Load() {
			break
		}
		group.Go(func() error {
			if int64(i) > firstFailed.Load() {
				return nil
			}
			result, err := v.Validate(groupCtx, clip)
			results[i] = result
			if err != nil {
				errs[i] = err
				mu.Lock()
				if int64(i) < firstFailed.Load() {
					firstFailed.Store(int64(i))
				}
				mu.Unlock()
			}
			return nil
		})
	}
	_ = group.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	for i, err := range errs {
		if err != nil {
			return nil, &ClipError{Index: i + 1, ID: clips[i].ID, Err: err}
		}
	}
	return results, nil
}
