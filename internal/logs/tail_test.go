package logs_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"cutline/internal/logs"
)

func TestExportPath(t *testing.T) {
	path, err := logs.ExportPath("/var/log/cutline", "c0ffee")
	if err != nil {
		t.Fatalf("ExportPath: %v", err)
	}
	if path != filepath.Join("/var/log/cutline", "exports", "c0ffee.log") {
		t.Fatalf("unexpected path %q", path)
	}
	for _, id := range []string{"", "../etc", "a/b", ".hidden"} {
		if _, err := logs.ExportPath("/logs", id); !errors.Is(err, logs.ErrInvalidID) {
			t.Fatalf("ExportPath(%q): expected ErrInvalidID, got %v", id, err)
		}
	}
}

func TestLastReturnsTrailingLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "exp.log")
	if err := os.WriteFile(path, []byte("a\nb\nc\nd\n"), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}

	lines, offset, err := logs.Last(path, 2)
	if err != nil {
		t.Fatalf("Last: %v", err)
	}
	if strings.Join(lines, ",") != "c,d" {
		t.Fatalf("unexpected lines %q", lines)
	}
	if offset != 8 {
		t.Fatalf("expected offset 8, got %d", offset)
	}

	lines, _, err = logs.Last(path, 10)
	if err != nil || strings.Join(lines, ",") != "a,b,c,d" {
		t.Fatalf("unexpected lines %q (%v)", lines, err)
	}

	lines, offset, err = logs.Last(filepath.Join(t.TempDir(), "missing.log"), 5)
	if err != nil || lines != nil || offset != 0 {
		t.Fatalf("expected empty result for missing file, got %q %d %v", lines, offset, err)
	}
}

func TestReadFromLeavesPartialLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "exp.log")
	if err := os.WriteFile(path, []byte("one\ntw"), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}
	lines, offset, err := logs.ReadFrom(path, 0)
	if err != nil {
		t.Fatalf("ReadFrom: %v", err)
	}
	if len(lines) != 1 || lines[0] != "one" || offset != 4 {
		t.Fatalf("unexpected read %q offset %d", lines, offset)
	}

	appendLine(t, path, "o\n")
	lines, offset, err = logs.ReadFrom(path, offset)
	if err != nil || len(lines) != 1 || lines[0] != "two" || offset != 8 {
		t.Fatalf("unexpected read %q offset %d (%v)", lines, offset, err)
	}

	if err := os.WriteFile(path, []byte("new\n"), 0o644); err != nil {
		t.Fatalf("truncate log: %v", err)
	}
	lines, _, err = logs.ReadFrom(path, offset)
	if err != nil || len(lines) != 1 || lines[0] != "new" {
		t.Fatalf("expected restart after truncation, got %q (%v)", lines, err)
	}
}

func TestFollowEmitsAppendedLinesUntilStopped(t *testing.T) {
	path := filepath.Join(t.TempDir(), "exp.log")
	if err := os.WriteFile(path, []byte("start\n"), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}
	_, offset, err := logs.Last(path, 1)
	if err != nil {
		t.Fatalf("Last: %v", err)
	}

	var (
		mu       sync.Mutex
		received []string
		finished bool
	)
	done := make(chan error, 1)
	go func() {
		_, err := logs.Follow(context.Background(), path, offset, 20*time.Millisecond,
			func(line string) {
				mu.Lock()
				received = append(received, line)
				mu.Unlock()
			},
			func() bool {
				mu.Lock()
				defer mu.Unlock()
				return finished
			},
		)
		done <- err
	}()

	time.Sleep(50 * time.Millisecond)
	appendLine(t, path, "later\n")
	time.Sleep(100 * time.Millisecond)
	mu.Lock()
	finished = true
	mu.Unlock()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Follow: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Follow did not stop")
	}
	mu.Lock()
	defer mu.Unlock()
	if len(received) != 1 || received[0] != "later" {
		t.Fatalf("unexpected lines %q", received)
	}
}

func TestFollowStopsOnCancel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "exp.log")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := logs.Follow(ctx, path, 0, time.Millisecond, func(string) {}, nil); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func appendLine(t *testing.T, path, text string) {
	t.Helper()
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatalf("open append: %v", err)
	}
	defer f.Close()
	if _, err := f.WriteString(text); err != nil {
		t.Fatalf("append: %v", err)
	}
}
