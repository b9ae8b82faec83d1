package transcode

import (
	"fmt"
	"regexp"
	"strings"

	"cutline/internal/services"
)

// Fault is the best-effort category of an ffmpeg failure.
type Fault string

const (
	FaultCorruptedInput   Fault = "corrupted_input"
	FaultMissingFile      Fault = "missing_file"
	FaultPermissionDenied Fault = "permission_denied"
	FaultMissingCodec     Fault = "missing_codec"
	FaultInvalidArguments Fault = "invalid_arguments"
	FaultUnknown          Fault = "unknown"
)

// Pre-compiled patterns checked in order by Classify; the first match wins.
var (
	reMissingFile = regexp.MustCompile(`(?i)No such file or directory|does not exist`)

	rePermissionDenied = regexp.MustCompile(`(?i)Permission denied|Operation not permitted|Read-only file system`)

	reCorruptedInput = regexp.MustCompile(
		`(?i)Invalid data found when processing input|moov atom not found|` +
			`Error while decoding stream|corrupt(ed)? (input|packet|frame)|` +
			`Truncating packet|End of file`)

	reMissingCodec = regexp.MustCompile(
		`(?i)Unknown encoder|Encoder .* not found|Unknown decoder|Decoder .* not found|` +
			`codec not currently supported|Error while opening encoder`)

	reInvalidArguments = regexp.MustCompile(
		`(?i)Invalid argument|Unrecognized option|Option .* not found|No such filter|` +
			`Error (parsing|initializing) (the )?filter|Invalid duration|Error splitting the argument list`)
)

// Classify maps ffmpeg stderr onto a Fault.
func Classify(stderr string) Fault {
	switch {
	case reMissingFile.MatchString(stderr):
		return FaultMissingFile
	case rePermissionDenied.MatchString(stderr):
		return FaultPermissionDenied
	case reCorruptedInput.MatchString(stderr):
		return FaultCorruptedInput
	case reMissingCodec.MatchString(stderr):
		return FaultMissingCodec
	case reInvalidArguments.MatchString(stderr):
		return FaultInvalidArguments
	default:
		return FaultUnknown
	}
}

// Describe returns a short human-readable cause for the fault.
func (f Fault) Describe() string {
	switch f {
	case FaultCorruptedInput:
		return "input is corrupted or unreadable"
	case FaultMissingFile:
		return "a file could not be found"
	case FaultPermissionDenied:
		return "permission denied"
	case FaultMissingCodec:
		return "required codec is not available in ffmpeg"
	case FaultInvalidArguments:
		return "ffmpeg rejected the arguments"
	default:
		return "ffmpeg failed"
	}
}

// LastLine returns the last non-empty line of text.
func LastLine(text string) string {
	lines := strings.Split(strings.TrimSpace(text), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if line := strings.TrimSpace(lines[i]); line != "" {
			return line
		}
	}
	return ""
}

// Error is a failed transcode invocation.
type Error struct {
	Label    string
	Fault    Fault
	Detail   string
	ExitCode int
	Err      error
}

// NewError classifies stderr into an Error for the labelled request.
func NewError(label, stderr string, exitCode int, cause error) *Error {
	return &Error{
		Label:    label,
		Fault:    Classify(stderr),
		Detail:   LastLine(stderr),
		ExitCode: exitCode,
		Err:      cause,
	}
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Label, e.Fault.Describe())
	if e.Detail != "" {
		msg += ": " + e.Detail
	} else if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if e.ExitCode > 0 {
		msg += fmt.Sprintf(" (exit %d)", e.ExitCode)
	}
	return msg
}

// Unwrap exposes both the external-tool marker and the underlying cause.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{services.ErrExternalTool}
	}
	return []error{services.ErrExternalTool, e.Err}
}
