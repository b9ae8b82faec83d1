package render

import (
	"fmt"
	"os"
	"strings"
)

// ManifestName is the concat demuxer list written into the workspace.
const ManifestName = "concat_list.txt"

// FormatManifest renders a concat demuxer list, one file per line.
func FormatManifest(paths []string) string {
	var b strings.Builder
	for _, path := range paths {
		b.WriteString("file '")
		b.WriteString(strings.ReplaceAll(path, "'", `'\''`))
		b.WriteString("'\n")
	}
	return b.String()
}

// WriteManifest writes the concat list for paths to manifestPath.
func WriteManifest(manifestPath string, paths []string) error {
	if len(paths) == 0 {
		return fmt.Errorf("write manifest: no segments")
	}
	if err := os.WriteFile(manifestPath, []byte(FormatManifest(paths)), 0o644); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	return nil
}
