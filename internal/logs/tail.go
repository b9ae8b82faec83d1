package logs

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"cutline/internal/fileutil"
)

// ErrInvalidID is returned for export ids that cannot name a log file.
var ErrInvalidID = errors.New("invalid export id")

const maxLineBytes = 1024 * 1024

// ExportPath returns the log file of export id under logDir.
func ExportPath(logDir, id string) (string, error) {
	id = strings.TrimSpace(id)
	if !fileutil.IsPlainName(id) {
		return "", fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	return filepath.Join(logDir, "exports", id+".log"), nil
}

// Last returns up to n trailing lines of path and the offset just past them.
// A missing file yields no lines and offset 0.
func Last(path string, n int) ([]string, int64, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, 0, nil
		}
		return nil, 0, fmt.Errorf("open log: %w", err)
	}
	defer file.Close()

	if n <= 0 {
		end, err := file.Seek(0, io.SeekEnd)
		if err != nil {
			return nil, 0, fmt.Errorf("seek log: %w", err)
		}
		return nil, end, nil
	}

	ring := make([]string, 0, n)
	start := 0
	offset, err := scanLines(file, 0, func(line string) {
		if len(ring) < n {
			ring = append(ring, line)
			return
		}
		ring[start] = line
		start = (start + 1) % n
	})
	if err != nil {
		return nil, 0, err
	}
	lines := append(ring[start:len(ring):len(ring)], ring[:start]...)
	return lines, offset, nil
}

// ReadFrom returns the complete lines written after offset and the offset
// following the last of them. An offset beyond the end of the file, as after
// truncation, restarts from the beginning.
func ReadFrom(path string, offset int64) ([]string, int64, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, 0, nil
		}
		return nil, offset, fmt.Errorf("open log: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, offset, fmt.Errorf("stat log: %w", err)
	}
	if info.IsDir() {
		return nil, offset, fmt.Errorf("log path %q is a directory", path)
	}
	if offset < 0 || offset > info.Size() {
		offset = 0
	}
	if _, err := file.Seek(offset, io.SeekStart); err != nil {
		return nil, offset, fmt.Errorf("seek log: %w", err)
	}

	var lines []string
	next, err := scanLines(file, offset, func(line string) { lines = append(lines, line) })
	if err != nil {
		return nil, offset, err
	}
	return lines, next, nil
}

// Follow emits every line appended to path after offset, polling at interval.
// It returns when ctx ends, or when stop reports true after a poll that found
// nothing new. The returned offset is where a later call should resume.
func Follow(ctx context.Context, path string, offset int64, interval time.Duration, emit func(string), stop func() bool) (int64, error) {
	if interval <= 0 {
		interval = 250 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		lines, next, err := ReadFrom(path, offset)
		if err != nil {
			return offset, err
		}
		offset = next
		for _, line := range lines {
			emit(line)
		}
		if len(lines) == 0 && stop != nil && stop() {
			return offset, nil
		}
		select {
		case <-ctx.Done():
			return offset, ctx.Err()
		case <-ticker.C:
		}
	}
}

// scanLines feeds each newline-terminated line to fn. A trailing fragment
// without a newline is left unread so a follower picks it up once complete.
func scanLines(r io.Reader, offset int64, fn func(string)) (int64, error) {
	reader := bufio.NewReaderSize(r, 64*1024)
	for {
		chunk, err := reader.ReadString('\n')
		if err == nil {
			offset += int64(len(chunk))
			line := strings.TrimRight(chunk, "\r\n")
			if len(line) > maxLineBytes {
				line = line[:maxLineBytes]
			}
			fn(line)
			continue
		}
		if errors.Is(err, io.EOF) {
			return offset, nil
		}
		return offset, fmt.Errorf("read log: %w", err)
	}
}
