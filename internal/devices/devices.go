// Package devices lists capture devices (cameras and microphones) that a
// recording can use. Linux reads them from udev; other platforms report
// ErrUnsupported.
package devices

import (
	"cmp"
	"context"
	"errors"
	"path"
	"regexp"
	"slices"
	"strings"
)

// ErrUnsupported is returned where device enumeration is not implemented.
var ErrUnsupported = errors.New("capture device enumeration is not supported on this platform")

// Kind distinguishes video from audio capture devices.
type Kind string

const (
	KindVideo Kind = "video"
	KindAudio Kind = "audio"
)

// Device is one capture device.
type Device struct {
	Kind      Kind   `json:"kind"`
	Name      string `json:"name"`
	Path      string `json:"path"`
	Subsystem string `json:"subsystem"`
	KObj      string `json:"kobj,omitempty"`
}

// Event reports a device being added or removed.
type Event struct {
	Action string `json:"action"`
	Device Device `json:"device"`
}

// Enumerator lists and watches capture devices.
type Enumerator interface {
	List(ctx context.Context) ([]Device, error)
	Watch(ctx context.Context, fn func(Event)) error
}

// pcmCapture matches ALSA capture PCM nodes such as snd/pcmC0D0c.
var pcmCapture = regexp.MustCompile(`pcmC(\d+)D(\d+)c$`)

// FromEnv builds a Device from udev properties. It reports false for nodes
// that are not capture devices.
func FromEnv(kobj string, env map[string]string) (Device, bool) {
	devname := strings.TrimSpace(env["DEVNAME"])
	if devname == "" {
		return Device{}, false
	}
	devpath := devname
	if !strings.HasPrefix(devpath, "/") {
		devpath = "/dev/" + devpath
	}
	subsystem := env["SUBSYSTEM"]
	dev := Device{Path: devpath, Subsystem: subsystem, KObj: kobj}

	switch subsystem {
	case "video4linux":
		if caps := env["ID_V4L_CAPABILITIES"]; caps != "" && !strings.Contains(caps, ":capture:") {
			return Device{}, false
		}
		dev.Kind = KindVideo
		dev.Name = firstNonEmpty(env["ID_V4L_PRODUCT"], env["ID_MODEL"], path.Base(devpath))
	case "sound":
		m := pcmCapture.FindStringSubmatch(devname)
		if m == nil {
			return Device{}, false
		}
		dev.Kind = KindAudio
		dev.Name = firstNonEmpty(env["ID_MODEL"], "card "+m[1]+" device "+m[2])
	default:
		return Device{}, false
	}
	return dev, true
}

// Sort orders devices video first, then by path.
func Sort(devs []Device) {
	slices.SortFunc(devs, func(a, b Device) int {
		if a.Kind != b.Kind {
			if a.Kind == KindVideo {
				return -1
			}
			return 1
		}
		return cmp.Compare(a.Path, b.Path)
	})
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return strings.ReplaceAll(v, "_", " ")
		}
	}
	return ""
}
