package mediaimport

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"cutline/internal/config"
	"cutline/internal/logging"
	"cutline/internal/media/ffprobe"
	"cutline/internal/transcode"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported file format")
	ErrNoVideo           = errors.New("no video stream")
	ErrNothingImported   = errors.New("no videos imported successfully")
)

// highFrameRate is the source rate above which proxies are frame-rate capped.
const highFrameRate = 60.0

// MediaItem describes an imported source video.
type MediaItem struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	FilePath      string    `json:"file_path"`
	ProxyPath     string    `json:"proxy_path,omitempty"`
	ThumbnailPath string    `json:"thumbnail_path,omitempty"`
	Duration      float64   `json:"duration"`
	Width         int       `json:"width"`
	Height        int       `json:"height"`
	FPS           float64   `json:"fps"`
	FileSize      int64     `json:"file_size"`
	Codec         string    `json:"codec"`
	ImportedAt    time.Time `json:"imported_at"`
}

// Prober inspects a media file.
type Prober interface {
	Probe(ctx context.Context, path string) (ffprobe.Result, error)
}

// Importer imports videos into the media library.
type Importer struct {
	cfg        *config.Config
	runner     transcode.Runner
	prober     Prober
	logger     *slog.Logger
	extensions []string
}

// New constructs an Importer.
func New(cfg *config.Config, runner transcode.Runner, prober Prober, logger *slog.Logger) *Importer {
	exts := make([]string, 0, len(cfg.Import.Extensions))
	for _, ext := range cfg.Import.Extensions {
		exts = append(exts, strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), ".")))
	}
	return &Importer{
		cfg:        cfg,
		runner:     runner,
		prober:     prober,
		logger:     logging.NewComponentLogger(logger, "import"),
		extensions: exts,
	}
}

// Supported reports whether path has an importable extension.
func (i *Importer) Supported(path string) bool {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	return ext != "" && slices.Contains(i.extensions, ext)
}

// Check verifies that path is an importable video without importing it.
func (i *Importer) Check(ctx context.Context, path string) error {
	_, err := i.inspect(ctx, path)
	return err
}

// Import probes path and generates its thumbnail and proxy.
func (i *Importer) Import(ctx context.Context, path string) (MediaItem, error) {
	probe, err := i.inspect(ctx, path)
	if err != nil {
		return MediaItem{}, err
	}
	info, err := os.Stat(path)
	if err != nil {
		return MediaItem{}, fmt.Errorf("stat %s: %w", path, err)
	}

	video, _ := probe.PrimaryVideo()
	item := MediaItem{
		ID:         uuid.NewString(),
		Name:       filepath.Base(path),
		FilePath:   path,
		Duration:   probe.DurationSeconds(),
		Width:      video.Width,
		Height:     video.Height,
		FPS:        probe.FrameRate(),
		FileSize:   info.Size(),
		Codec:      video.CodecName,
		ImportedAt: time.Now().UTC(),
	}
	logger := i.logger.With(logging.String("media_id", item.ID), logging.String("path", path))

	if i.cfg.Import.Thumbnails {
		thumb, err := i.thumbnail(ctx, item)
		if err != nil {
			logging.WarnWithContext(logger, "thumbnail generation failed", "thumbnail_failed",
				logging.Error(err),
				logging.String(logging.FieldImpact, "media item has no thumbnail"),
			)
		} else {
			item.ThumbnailPath = thumb
		}
	}
	if i.cfg.Import.Proxies {
		proxy, err := i.proxy(ctx, item)
		if err != nil {
			logging.WarnWithContext(logger, "proxy generation failed", "proxy_failed",
				logging.Error(err),
				logging.String(logging.FieldImpact, "preview plays the original file"),
			)
		} else {
			item.ProxyPath = proxy
		}
	}

	logger.Info("media imported",
		logging.String(logging.FieldEventType, "media_imported"),
		logging.Float64("duration", item.Duration),
		logging.String("resolution", fmt.Sprintf("%dx%d", item.Width, item.Height)),
		logging.Bool("proxy", item.ProxyPath != ""),
	)
	return item, nil
}

// ImportMany imports paths concurrently. Failed files are logged and skipped;
// an error is returned only when nothing imported. Items keep input order.
func (i *Importer) ImportMany(ctx context.Context, paths []string) ([]MediaItem, error) {
	results := make([]*MediaItem, len(paths))
	var (
		mu       sync.Mutex
		failures []error
	)

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(max(1, i.cfg.Import.Concurrency))
	for idx, path := range paths {
		group.Go(func() error {
			item, err := i.Import(groupCtx, path)
			if err != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					return ctxErr
				}
				i.logger.Warn("failed to import", logging.String("path", path), logging.Error(err))
				mu.Lock()
				failures = append(failures, fmt.Errorf("%s: %w", path, err))
				mu.Unlock()
				return nil
			}
			results[idx] = &item
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}

	items := make([]MediaItem, 0, len(paths))
	for _, item := range results {
		if item != nil {
			items = append(items, *item)
		}
	}
	if len(items) == 0 {
		return nil, errors.Join(append([]error{ErrNothingImported}, failures...)...)
	}
	return items, nil
}

// ThumbnailTime is where the thumbnail frame is taken: 10% into the video,
// never later than one second.
func ThumbnailTime(duration float64) float64 {
	if duration <= 0 || math.IsNaN(duration) {
		return 0
	}
	return min(duration*0.1, 1.0)
}

// ProxyFilter scales the proxy to height without upscaling and caps the
// frame rate of high frame rate sources.
func ProxyFilter(height int, fps float64, proxyHeight int, maxFPS float64) string {
	var chain []string
	if proxyHeight > 0 && height > proxyHeight {
		chain = append(chain, "scale=-2:"+strconv.Itoa(proxyHeight))
	}
	if fps > highFrameRate && maxFPS > 0 {
		chain = append(chain, "fps="+strconv.FormatFloat(maxFPS, 'f', -1, 64))
	}
	chain = append(chain, "format=yuv420p")
	return strings.Join(chain, ",")
}

func (i *Importer) inspect(ctx context.Context, path string) (ffprobe.Result, error) {
	if !i.Supported(path) {
		return ffprobe.Result{}, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Base(path))
	}
	info, err := os.Stat(path)
	if err != nil {
		return ffprobe.Result{}, fmt.Errorf("file does not exist: %w", err)
	}
	if !info.Mode().IsRegular() {
		return ffprobe.Result{}, fmt.Errorf("%s is not a regular file", path)
	}
	probe, err := i.prober.Probe(ctx, path)
	if err != nil {
		return ffprobe.Result{}, fmt.Errorf("analyze video: %w", err)
	}
	if probe.VideoStreamCount() == 0 {
		return ffprobe.Result{}, fmt.Errorf("%w: %s", ErrNoVideo, filepath.Base(path))
	}
	return probe, nil
}

func (i *Importer) thumbnail(ctx context.Context, item MediaItem) (string, error) {
	output := filepath.Join(i.cfg.Paths.ThumbnailDir, item.ID+".jpg")
	return output, i.render(ctx, transcode.Request{
		Label:  "thumbnail " + item.Name,
		Inputs: []transcode.Input{{Path: item.FilePath, Seek: ThumbnailTime(item.Duration)}},
		Encode: transcode.Encode{Extra: []string{"-frames:v", "1", "-q:v", "2", "-an"}},
		Output: output,
	})
}

func (i *Importer) proxy(ctx context.Context, item MediaItem) (string, error) {
	output := filepath.Join(i.cfg.Paths.ProxyDir, item.ID+"_proxy.mp4")
	return output, i.render(ctx, transcode.Request{
		Label:       "proxy " + item.Name,
		Inputs:      []transcode.Input{{Path: item.FilePath}},
		VideoFilter: ProxyFilter(item.Height, item.FPS, i.cfg.Import.ProxyHeight, i.cfg.Import.ProxyMaxFPS),
		Encode: transcode.Encode{
			VideoCodec:   "libx264",
			Preset:       "veryfast",
			CRF:          i.cfg.Import.ProxyCRF,
			AudioCodec:   "aac",
			AudioBitrate: "128k",
			Extra:        []string{"-movflags", "+faststart"},
		},
		Output: output,
	})
}

func (i *Importer) render(ctx context.Context, req transcode.Request) error {
	if err := os.MkdirAll(filepath.Dir(req.Output), 0o755); err != nil {
		return err
	}
	if _, err := i.runner.Run(ctx, req); err != nil {
		_ = os.Remove(req.Output)
		return err
	}
	return nil
}
