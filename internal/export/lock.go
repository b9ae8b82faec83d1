package export

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	"cutline/internal/logging"
	"cutline/internal/services"
)

// outputLock serializes exports that target the same output file, across
// goroutines and processes. The lock file is left in place on release:
// removing it would let a later export lock a fresh inode at the same path
// while an earlier holder still owns the old one.
type outputLock struct {
	path string
	lock *flock.Flock
}

func acquireOutputLock(outputPath string) (*outputLock, error) {
	abs, err := filepath.Abs(outputPath)
	if err != nil {
		return nil, fmt.Errorf("resolve output path: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}
	lockPath := abs + ".lock"
	lock := flock.New(lockPath)
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("lock output %s: %w", abs, err)
	}
	if !locked {
		return nil, fmt.Errorf("%w: %s", services.ErrBusy, abs)
	}
	return &outputLock{path: lockPath, lock: lock}, nil
}

func (l *outputLock) release(logger *slog.Logger) {
	if l == nil {
		return
	}
	if err := l.lock.Unlock(); err != nil {
		logger.Warn("failed to release output lock", logging.String("path", l.path), logging.Error(err))
	}
}
