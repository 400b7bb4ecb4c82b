// Package analysis implements the AC transfer-function (C4) and AC noise
// (C5) analyses over a pkg/circuit.Circuit, producing pkg/solution.Solution
// results.
//
// Grounded on the teacher's pkg/analysis/ac.go ACAnalysis.Execute loop
// (mat.Clear -> Circuit.Stamp -> mat.Solve -> read solution), generalized
// from a magnitude/phase-only result map to full complex Solution objects.
package analysis

import (
	"math"

	"github.com/edp1096/circuitcore/pkg/circuiterr"
)

// SweepKind selects how Frequencies spaces its points.
type SweepKind int

const (
	// Linear spaces points evenly between start and stop.
	Linear SweepKind = iota
	// Logarithmic spaces points evenly in log10 between start and stop.
	Logarithmic
)

// Frequencies generates a sweep of steps+1 points from start to stop
// inclusive, matching original_source circuit/liso/input.py's
// parse_frequencies (`count = int(params[3]) + 1`, np.linspace/np.logspace).
// This is LISO's own LIN/LOG grammar, distinct from the teacher's
// DEC/OCT/LIN sweep generator in pkg/analysis/ac.go.
func Frequencies(kind SweepKind, start, stop float64, steps int) ([]float64, error) {
	if start <= 0 || stop <= 0 {
		return nil, &circuiterr.NumericError{Reason: "frequency sweep bounds must be positive"}
	}
	if stop < start {
		return nil, &circuiterr.NumericError{Reason: "frequency sweep stop must be >= start"}
	}
	if steps < 0 {
		return nil, &circuiterr.NumericError{Reason: "frequency sweep step count must be >= 0"}
	}

	count := steps + 1
	out := make([]float64, count)
	if count == 1 {
		out[0] = start
		return out, nil
	}

	switch kind {
	case Linear:
		step := (stop - start) / float64(count-1)
		for i := range out {
			out[i] = start + float64(i)*step
		}
	case Logarithmic:
		logStart := math.Log10(start)
		logStop := math.Log10(stop)
		step := (logStop - logStart) / float64(count-1)
		for i := range out {
			out[i] = math.Pow(10, logStart+float64(i)*step)
		}
	default:
		return nil, &circuiterr.NumericError{Reason: "unknown sweep kind"}
	}

	// Pin the endpoints exactly; accumulated log/linear step error should
	// never leave stop looking like it fell just short.
	out[0] = start
	out[count-1] = stop
	return out, nil
}
