package planner

import (
	"math"
	"strconv"
)

// tempoEpsilon is the smallest deviation from 1.0 worth a tempo step.
const tempoEpsilon = 0.001

// TempoChain splits speed into atempo factors that each stay within the
// filter's [0.5, 2.0] range. The product of the steps equals speed; a speed of
// 1.0 yields no steps.
func TempoChain(speed float64) []float64 {
	if speed <= 0 || math.IsNaN(speed) || math.IsInf(speed, 0) {
		return nil
	}
	var steps []float64
	remaining := speed
	for remaining > 2.0 {
		steps = append(steps, 2.0)
		remaining /= 2.0
	}
	for remaining < 0.5 {
		steps = append(steps, 0.5)
		remaining /= 0.5
	}
	if math.Abs(remaining-1.0) > tempoEpsilon {
		steps = append(steps, remaining)
	}
	return steps
}

// factor renders a filter argument with at most six decimals.
func factor(value float64) string {
	return strconv.FormatFloat(math.Round(value*1e6)/1e6, 'f', -1, 64)
}
