package deps

import (
	"bufio"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// RequiredEncoders are the encoders an export can select.
var RequiredEncoders = []string{"libx264", "libx265", "aac"}

// RequiredFilters are the filters the clip and gap planners emit.
var RequiredFilters = []string{"setpts", "scale", "pad", "fps", "atempo", "anullsrc", "color", "concat"}

// Capabilities lists the encoders and filters an ffmpeg build reports.
type Capabilities struct {
	Encoders map[string]struct{}
	Filters  map[string]struct{}
}

// MissingEncoders returns the required encoders the build lacks.
func (c Capabilities) MissingEncoders() []string {
	return missingNames(c.Encoders, RequiredEncoders)
}

// MissingFilters returns the required filters the build lacks.
func (c Capabilities) MissingFilters() []string {
	return missingNames(c.Filters, RequiredFilters)
}

// ProbeFFmpeg queries the ffmpeg binary for its encoder and filter lists.
func ProbeFFmpeg(ctx context.Context, binary string) (Capabilities, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "ffmpeg"
	}
	encoders, err := listNames(ctx, binary, "-encoders")
	if err != nil {
		return Capabilities{}, err
	}
	filters, err := listNames(ctx, binary, "-filters")
	if err != nil {
		return Capabilities{}, err
	}
	return Capabilities{Encoders: encoders, Filters: filters}, nil
}

// CheckFFmpegCapabilities reports whether the ffmpeg build can serve exports.
func CheckFFmpegCapabilities(ctx context.Context, binary string) Status {
	status := Status{
		Name:        "FFmpeg features",
		Command:     binary,
		Description: "Encoders and filters used by exports",
	}
	caps, err := ProbeFFmpeg(ctx, binary)
	if err != nil {
		status.Detail = err.Error()
		return status
	}
	var problems []string
	if missing := caps.MissingEncoders(); len(missing) > 0 {
		problems = append(problems, "missing encoders: "+strings.Join(missing, ", "))
	}
	if missing := caps.MissingFilters(); len(missing) > 0 {
		problems = append(problems, "missing filters: "+strings.Join(missing, ", "))
	}
	if len(problems) > 0 {
		status.Detail = strings.Join(problems, "; ")
		return status
	}
	status.Available = true
	return status
}

// listNames parses the tabular output of `ffmpeg -encoders` / `ffmpeg -filters`.
// Rows look like " V....D libx264   description" or " ... scale  V->V  description";
// the name is the second whitespace-separated field after the legend separator.
func listNames(ctx context.Context, binary, flag string) (map[string]struct{}, error) {
	out, err := exec.CommandContext(ctx, binary, "-hide_banner", flag).Output()
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", binary, flag, err)
	}
	names := make(map[string]struct{})
	scanner := bufio.NewScanner(strings.NewReader(string(out)))
	pastLegend := false
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !pastLegend {
			if strings.HasPrefix(line, "---") || line == "------" {
				pastLegend = true
			}
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		names[fields[1]] = struct{}{}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read %s output: %w", flag, err)
	}
	return names, nil
}

func missingNames(have map[string]struct{}, want []string) []string {
	var missing []string
	for _, name := range want {
		if _, ok := have[name]; !ok {
			missing = append(missing, name)
		}
	}
	return missing
}
