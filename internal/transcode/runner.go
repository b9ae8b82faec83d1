package transcode

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"cutline/internal/logging"
)

// waitDelay bounds how long Run waits for stderr to drain after the process is killed.
const waitDelay = 5 * time.Second

// Result is the outcome of a successful invocation.
type Result struct {
	Stderr  string
	Elapsed time.Duration
}

// Runner executes transcode requests. Implementations block until the
// underlying process exits.
type Runner interface {
	Run(ctx context.Context, req Request) (Result, error)
}

// FFmpegRunner runs requests through the ffmpeg binary.
type FFmpegRunner struct {
	Binary string
	Logger *slog.Logger
}

// NewFFmpegRunner constructs a runner for binary.
func NewFFmpegRunner(binary string, logger *slog.Logger) *FFmpegRunner {
	return &FFmpegRunner{Binary: binary, Logger: logging.NewComponentLogger(logger, "transcode")}
}

// Run executes req and waits for ffmpeg to exit. Cancelling ctx kills the
// process; the returned error then wraps ctx.Err().
func (r *FFmpegRunner) Run(ctx context.Context, req Request) (Result, error) {
	if strings.TrimSpace(req.Output) == "" {
		return Result{}, fmt.Errorf("transcode %s: output path is required", req.Label)
	}
	args := Build(r.Binary, req)
	logger := r.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	logger.Debug("running ffmpeg",
		logging.String("segment", req.Label),
		logging.String("command", strings.Join(args, " ")),
	)

	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	cmd.WaitDelay = waitDelay

	started := time.Now()
	err := cmd.Run()
	result := Result{Stderr: stderr.String(), Elapsed: time.Since(started)}
	if err == nil {
		logger.Debug("ffmpeg finished",
			logging.String("segment", req.Label),
			logging.Duration("elapsed", result.Elapsed),
		)
		return result, nil
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		return result, fmt.Errorf("transcode %s: %w", req.Label, ctxErr)
	}
	exitCode := -1
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		exitCode = exitErr.ExitCode()
	}
	return result, NewError(req.Label, result.Stderr, exitCode, err)
}
