package staging

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"cutline/internal/logging"
)

func TestCleanStaleInvalidPaths(t *testing.T) {
	for _, dir := range []string{"", "   ", "/nonexistent/path/12345"} {
		result := CleanStale(context.Background(), dir, time.Hour, logging.NewNop())
		if len(result.Removed) != 0 || len(result.Errors) != 0 {
			t.Errorf("expected empty result for path %q", dir)
		}
	}
}

func makeAged(t *testing.T, path string, age time.Duration) {
	t.Helper()
	if err := os.MkdirAll(path, 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", path, err)
	}
	stamp := time.Now().Add(-age)
	if err := os.Chtimes(path, stamp, stamp); err != nil {
		t.Fatalf("chtimes %s: %v", path, err)
	}
}

func TestCleanStaleRemovesOldWorkspacesOnly(t *testing.T) {
	tmpDir := t.TempDir()

	oldExport := filepath.Join(tmpDir, "export-old")
	oldPrerender := filepath.Join(tmpDir, "prerender-old")
	recent := filepath.Join(tmpDir, "export-recent")
	unrelated := filepath.Join(tmpDir, "my-project")
	makeAged(t, oldExport, 2*time.Hour)
	makeAged(t, oldPrerender, 3*time.Hour)
	makeAged(t, recent, 0)
	makeAged(t, unrelated, 5*time.Hour)

	result := CleanStale(context.Background(), tmpDir, time.Hour, logging.NewNop())
	if len(result.Removed) != 2 {
		t.Fatalf("expected 2 removed, got %v", result.Removed)
	}
	for _, gone := range []string{oldExport, oldPrerender} {
		if _, err := os.Stat(gone); !os.IsNotExist(err) {
			t.Fatalf("expected %s removed", gone)
		}
	}
	for _, kept := range []string{recent, unrelated} {
		if _, err := os.Stat(kept); err != nil {
			t.Fatalf("expected %s to remain: %v", kept, err)
		}
	}
}

func TestCleanStaleSkipsActiveWorkspace(t *testing.T) {
	tmpDir := t.TempDir()
	ws, err := NewWorkspace(tmpDir, PrefixExport, "busy")
	if err != nil {
		t.Fatalf("NewWorkspace: %v", err)
	}
	defer ws.Cleanup()
	old := time.Now().Add(-48 * time.Hour)
	if err := os.Chtimes(ws.Dir, old, old); err != nil {
		t.Fatalf("chtimes: %v", err)
	}

	result := CleanStale(context.Background(), tmpDir, time.Hour, logging.NewNop())
	if len(result.Removed) != 0 {
		t.Fatalf("expected locked workspace to survive, removed %v", result.Removed)
	}
	if len(result.Skipped) != 1 || result.Skipped[0] != ws.Dir {
		t.Fatalf("expected workspace to be reported skipped, got %v", result.Skipped)
	}
}

func TestWorkspaceLifecycle(t *testing.T) {
	tmpDir := t.TempDir()
	ws, err := NewWorkspace(tmpDir, PrefixExport, "")
	if err != nil {
		t.Fatalf("NewWorkspace: %v", err)
	}
	if ws.ID == "" {
		t.Fatal("expected generated id")
	}
	if filepath.Dir(ws.Path("segment_000.mp4")) != ws.Dir {
		t.Fatalf("unexpected path join: %s", ws.Path("segment_000.mp4"))
	}
	if _, err := NewWorkspace(tmpDir, PrefixExport, ws.ID); err == nil {
		t.Fatal("expected second open of the same workspace to fail")
	}

	dirs, err := ListWorkspaces(tmpDir)
	if err != nil {
		t.Fatalf("ListWorkspaces: %v", err)
	}
	if len(dirs) != 1 || !dirs[0].Active {
		t.Fatalf("expected one active workspace, got %#v", dirs)
	}

	if err := ws.Cleanup(); err != nil {
		t.Fatalf("Cleanup: %v", err)
	}
	if _, err := os.Stat(ws.Dir); !os.IsNotExist(err) {
		t.Fatalf("expected workspace removed, stat err=%v", err)
	}
}

func TestIsWorkspaceName(t *testing.T) {
	cases := map[string]bool{
		"export-abc":    true,
		"prerender-1":   true,
		"import-x":      true,
		"export-":       false,
		"exports":       false,
		"random-folder": false,
	}
	for name, want := range cases {
		if got := IsWorkspaceName(name); got != want {
			t.Errorf("IsWorkspaceName(%q) = %v, want %v", name, got, want)
		}
	}
}
