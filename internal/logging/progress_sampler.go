package logging

import "strings"

// ProgressSampler throttles export progress logs. A record is emitted when the
// phase changes or the percentage enters a new step-sized bucket; percentages
// that move backwards within a phase are never logged.
type ProgressSampler struct {
	step      float64
	phase     string
	lastStep  int
	lastValue float64
}

// NewProgressSampler returns a sampler that logs every step percent. A
// non-positive step uses 10, matching the width of the narrowest export band.
func NewProgressSampler(step float64) *ProgressSampler {
	if step <= 0 {
		step = 10
	}
	return &ProgressSampler{step: step, lastStep: -1, lastValue: -1}
}

// ShouldLog reports whether the update for phase at percent is worth a log
// line. A negative percent means unknown and only phase changes are logged.
func (s *ProgressSampler) ShouldLog(phase string, percent float64) bool {
	if s == nil {
		return true
	}
	phase = strings.TrimSpace(phase)
	if phase != "" && phase != s.phase {
		s.phase = phase
		s.lastStep = s.bucket(percent)
		s.lastValue = percent
		return true
	}
	if percent < 0 || percent < s.lastValue {
		return false
	}
	s.lastValue = percent
	if b := s.bucket(percent); b > s.lastStep {
		s.lastStep = b
		return true
	}
	return false
}

func (s *ProgressSampler) bucket(percent float64) int {
	switch {
	case percent < 0:
		return -1
	case percent >= 100:
		return int(100 / s.step)
	default:
		return int(percent / s.step)
	}
}
