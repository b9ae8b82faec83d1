package fileutil

import (
	"os"
	"path/filepath"
	"testing"
)

func TestCopyFileVerified(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.mp4")
	dst := filepath.Join(dir, "dst.mp4")

	content := []byte("segment payload")
	if err := os.WriteFile(src, content, 0o644); err != nil {
		t.Fatal(err)
	}
	if err := CopyFileVerified(src, dst); err != nil {
		t.Fatal(err)
	}
	got, err := os.ReadFile(dst)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != string(content) {
		t.Fatalf("content mismatch: got %q, want %q", got, content)
	}
}

func TestCopyFileVerifiedMissingSource(t *testing.T) {
	dir := t.TempDir()
	if err := CopyFileVerified(filepath.Join(dir, "nope"), filepath.Join(dir, "dst")); err == nil {
		t.Fatal("expected error for missing source")
	}
}

func TestMoveFileCreatesParent(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "work", "final.mp4")
	dst := filepath.Join(dir, "exports", "nested", "final.mp4")
	if err := os.MkdirAll(filepath.Dir(src), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(src, []byte("video"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := MoveFile(src, dst); err != nil {
		t.Fatalf("MoveFile: %v", err)
	}
	if _, err := os.Stat(src); !os.IsNotExist(err) {
		t.Fatalf("expected source to be gone, stat err=%v", err)
	}
	if got, err := os.ReadFile(dst); err != nil || string(got) != "video" {
		t.Fatalf("unexpected destination content %q (%v)", got, err)
	}
}

func TestMoveFileReplacesExisting(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "new.mp4")
	dst := filepath.Join(dir, "out.mp4")
	if err := os.WriteFile(src, []byte("new"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(dst, []byte("old"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := MoveFile(src, dst); err != nil {
		t.Fatalf("MoveFile: %v", err)
	}
	if got, _ := os.ReadFile(dst); string(got) != "new" {
		t.Fatalf("expected replaced content, got %q", got)
	}
}

func TestFileSizeAndDirSize(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "a"), make([]byte, 10), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Join(dir, "sub"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "sub", "b"), make([]byte, 5), 0o644); err != nil {
		t.Fatal(err)
	}
	if size, err := FileSize(filepath.Join(dir, "a")); err != nil || size != 10 {
		t.Fatalf("FileSize = %d, %v", size, err)
	}
	if _, err := FileSize(dir); err == nil {
		t.Fatal("expected error for directory")
	}
	if total, err := DirSize(dir); err != nil || total != 15 {
		t.Fatalf("DirSize = %d, %v", total, err)
	}
	if total, err := DirSize(filepath.Join(dir, "missing")); err != nil || total != 0 {
		t.Fatalf("DirSize(missing) = %d, %v", total, err)
	}
}

func TestIsPlainName(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"seg-1", true},
		{"3f2b7c1e-0d8a-4c55-9a1e-7b1d2f4e6a90", true},
		{"", false},
		{" padded", false},
		{".hidden", false},
		{"..", false},
		{"../escape", false},
		{"nested/seg", false},
		{`win\seg`, false},
	}
	for _, tc := range tests {
		if got := IsPlainName(tc.name); got != tc.want {
			t.Fatalf("IsPlainName(%q) = %v, want %v", tc.name, got, tc.want)
		}
	}
}
