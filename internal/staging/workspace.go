package staging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
)

// Workspace prefixes used under the temp directory.
const (
	PrefixExport    = "export"
	PrefixPrerender = "prerender"
	PrefixImport    = "import"
)

const lockName = ".active.lock"

// Workspace is a per-run scratch directory. It holds an advisory lock while
// open so stale cleanup never removes a directory that is still in use.
type Workspace struct {
	ID   string
	Dir  string
	lock *flock.Flock
}

// NewWorkspace creates <tempDir>/<prefix>-<id> and locks it. An empty id
// generates a random one.
func NewWorkspace(tempDir, prefix, id string) (*Workspace, error) {
	tempDir = strings.TrimSpace(tempDir)
	if tempDir == "" {
		return nil, fmt.Errorf("workspace: temp dir not configured")
	}
	if id == "" {
		id = uuid.NewString()
	}
	dir := filepath.Join(tempDir, prefix+"-"+id)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create workspace %s: %w", dir, err)
	}
	lock := flock.New(filepath.Join(dir, lockName))
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("lock workspace %s: %w", dir, err)
	}
	if !locked {
		return nil, fmt.Errorf("workspace %s is already in use", dir)
	}
	return &Workspace{ID: id, Dir: dir, lock: lock}, nil
}

// Path joins name onto the workspace directory.
func (w *Workspace) Path(name string) string {
	return filepath.Join(w.Dir, name)
}

// Cleanup releases the lock and removes the workspace directory.
func (w *Workspace) Cleanup() error {
	if w == nil {
		return nil
	}
	if w.lock != nil {
		_ = w.lock.Unlock()
	}
	if err := os.RemoveAll(w.Dir); err != nil {
		return fmt.Errorf("remove workspace %s: %w", w.Dir, err)
	}
	return nil
}

// inUse reports whether another process holds the workspace lock.
func inUse(dir string) bool {
	lockPath := filepath.Join(dir, lockName)
	if _, err := os.Stat(lockPath); err != nil {
		return false
	}
	probe := flock.New(lockPath)
	locked, err := probe.TryLock()
	if err != nil {
		return true
	}
	if locked {
		_ = probe.Unlock()
		return false
	}
	return true
}
