package analysis

import (
	"fmt"
	"math"
	"math/cmplx"

	"github.com/edp1096/circuitcore/pkg/circuit"
	"github.com/edp1096/circuitcore/pkg/circuiterr"
	"github.com/edp1096/circuitcore/pkg/config"
	"github.com/edp1096/circuitcore/pkg/solution"
)

// NoiseResult is the C5 output before it is assembled into a Solution: the
// per-source projected spectra plus, if requested, the incoherent sum.
type NoiseResult struct {
	Sources *solution.Solution
	Total   *solution.Function // nil unless an incoherent sum was requested
}

// Noise runs the C5 AC noise analysis: at each frequency, solve the adjoint
// system Aᵀx = e_sink once, then project every noise source's spectral
// density through x at that source's injection row.
//
// New relative to the teacher (toy-spice has no noise analysis). The
// adjoint system reuses the ordinary Stamp path with mna.System.Transpose
// set, rather than a second stamping implementation — see pkg/mna's
// System.AddElement and pkg/circuit.Circuit.Stamp.
func Noise(c *circuit.Circuit, freqs []float64, sink Sink, cfg config.ConstantsConfig, referToInput bool, sumTotal bool) (*NoiseResult, error) {
	if _, err := c.LookupComponent("input"); err != nil {
		return nil, &circuiterr.TopologyError{Reason: "circuit has no input component"}
	}

	for _, f := range freqs {
		if f <= 0 {
			return nil, &circuiterr.NumericError{Reason: "noise analysis frequency must be > 0 (1/f divergence at f=0)"}
		}
	}

	sinkIdx, _, err := resolveSink(c, sink)
	if err != nil {
		return nil, err
	}

	sources := c.NoiseSources()
	perSource := make(map[string][]complex128, len(sources))
	for _, ns := range sources {
		perSource[ns.Label] = make([]complex128, len(freqs))
	}

	sys, err := c.NewSystem()
	if err != nil {
		return nil, err
	}
	sys.Transpose = true

	var inputMag []float64
	if referToInput {
		inputMag = make([]float64, len(freqs))
	}

	for i, f := range freqs {
		sys.Clear()
		if err := c.Stamp(sys, f); err != nil {
			return nil, fmt.Errorf("analysis: noise adjoint stamp at %g Hz: %w", f, err)
		}
		sys.AddRHS(sinkIdx, 1, 0)
		if err := sys.Solve(); err != nil {
			return nil, &circuiterr.SingularMatrix{Frequency: f, Err: err}
		}

		for _, ns := range sources {
			row := ns.Row(c)
			coeff := sys.At(row)
			density := ns.Density(cfg, f)
			perSource[ns.Label][i] = complex(cmplx.Abs(coeff)*density, 0)
		}

		if referToInput {
			h, err := forwardSolveMagnitude(c, sink, f)
			if err != nil {
				return nil, err
			}
			inputMag[i] = h
		}
	}

	sol := solution.New()
	for _, ns := range sources {
		vals := perSource[ns.Label]
		unit := "V/sqrt(Hz)"
		reportedSink := sink.Name
		if referToInput {
			unit = inputReferredUnit(c)
			reportedSink = "input"
			for i, v := range vals {
				if inputMag[i] == 0 {
					return nil, &circuiterr.NumericError{Reason: "zero transfer magnitude makes input-referral undefined"}
				}
				vals[i] = complex(real(v)/inputMag[i], 0)
			}
		}
		sol.AddFunction(solution.Function{
			Key:         solution.Key{Source: ns.Label, Sink: reportedSink},
			Frequencies: freqs,
			Values:      vals,
			Scale:       solution.ScaleMagnitude,
			Unit:        unit,
		})
	}

	result := &NoiseResult{Sources: sol}

	if sumTotal {
		total := make([]complex128, len(freqs))
		for _, f := range sol.Functions() {
			for i, v := range f.Values {
				total[i] += complex(real(v)*real(v), 0)
			}
		}
		for i := range total {
			total[i] = complex(math.Sqrt(real(total[i])), 0)
		}
		result.Total = &solution.Function{
			Key:         solution.Key{Source: "sum", Sink: sink.Name},
			Frequencies: freqs,
			Values:      total,
			Scale:       solution.ScaleMagnitude,
			Unit:        "V/sqrt(Hz)",
		}
	}

	return result, nil
}

// forwardSolveMagnitude computes |H_input->sink(f)| via a single ordinary
// (non-transposed) forward solve, used by input-referral.
func forwardSolveMagnitude(c *circuit.Circuit, sink Sink, freq float64) (float64, error) {
	sys, err := c.NewSystem()
	if err != nil {
		return 0, err
	}
	if err := c.Stamp(sys, freq); err != nil {
		return 0, err
	}
	if err := sys.Solve(); err != nil {
		return 0, &circuiterr.SingularMatrix{Frequency: freq, Err: err}
	}

	idx, _, err := resolveSink(c, sink)
	if err != nil {
		return 0, err
	}
	return cmplx.Abs(sys.At(idx)), nil
}

func inputReferredUnit(c *circuit.Circuit) string {
	in, err := c.LookupComponent("input")
	if err != nil {
		return "V/sqrt(Hz)"
	}
	input, ok := in.(*circuit.Input)
	if !ok {
		return "V/sqrt(Hz)"
	}
	if input.Kind == circuit.CurrentInput {
		return "A/sqrt(Hz)"
	}
	return "V/sqrt(Hz)"
}
