package analysis

import (
	"context"
	"math"
	"math/cmplx"

	"golang.org/x/sync/errgroup"

	"github.com/edp1096/circuitcore/pkg/circuit"
	"github.com/edp1096/circuitcore/pkg/circuiterr"
	"github.com/edp1096/circuitcore/pkg/config"
	"github.com/edp1096/circuitcore/pkg/solution"
)

// TransferParallel is Transfer with its per-frequency solves fanned out
// across a bounded worker pool instead of run sequentially. Each worker
// gets its own *mna.System (frequency points don't share solver state), and
// every result lands in a slice slot indexed by frequency position rather
// than append order, so the output is identical to Transfer's regardless of
// completion order. Per spec.md §5's determinism requirement.
//
// New relative to the teacher, whose ACAnalysis.Execute loop is strictly
// sequential. Grounded on the errgroup-bounded-fan-out idiom
// (golang.org/x/sync/errgroup, present across the retrieved pack, e.g.
// gonum's dependency graph) applied to the teacher's own per-frequency loop
// body, unchanged except for where its result is written. workers < 1 is
// treated as 1.
func TransferParallel(c *circuit.Circuit, freqs []float64, sinks []Sink, workers int) (*solution.Solution, error) {
	if _, err := c.LookupComponent("input"); err != nil {
		return nil, &circuiterr.TopologyError{Reason: "circuit has no input component"}
	}
	if workers < 1 {
		workers = 1
	}

	// Force Build() once, up front: Circuit.Build is idempotent after its
	// first call (a guarded no-op), but running it from N goroutines
	// concurrently on a never-yet-built circuit would race its internal
	// index maps.
	if _, err := c.NewSystem(); err != nil {
		return nil, err
	}

	values := make(map[Sink][]complex128, len(sinks))
	for _, sink := range sinks {
		values[sink] = make([]complex128, len(freqs))
	}

	g, ctx := errgroup.WithContext(context.Background())
	g.SetLimit(workers)

	for i, f := range freqs {
		i, f := i, f
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			sys, err := c.NewSystem()
			if err != nil {
				return err
			}
			if err := c.Stamp(sys, f); err != nil {
				return err
			}
			if err := sys.Solve(); err != nil {
				return &circuiterr.SingularMatrix{Frequency: f, Err: err}
			}

			for _, sink := range sinks {
				idx, _, err := resolveSink(c, sink)
				if err != nil {
					return err
				}
				values[sink][i] = sys.At(idx)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sol := solution.New()
	for _, sink := range sinks {
		_, unit, err := resolveSink(c, sink)
		if err != nil {
			return nil, err
		}
		sol.AddFunction(solution.Function{
			Key:         solution.Key{Source: "input", Sink: sink.Name},
			Frequencies: freqs,
			Values:      values[sink],
			Scale:       solution.ScaleMagnitude,
			Unit:        unit,
		})
	}
	return sol, nil
}

// NoiseParallel is Noise with the same per-frequency bounded fan-out
// TransferParallel applies, including input-referral's second (ordinary)
// solve per frequency.
func NoiseParallel(c *circuit.Circuit, freqs []float64, sink Sink, cfg config.ConstantsConfig, referToInput bool, sumTotal bool, workers int) (*NoiseResult, error) {
	if _, err := c.LookupComponent("input"); err != nil {
		return nil, &circuiterr.TopologyError{Reason: "circuit has no input component"}
	}
	for _, f := range freqs {
		if f <= 0 {
			return nil, &circuiterr.NumericError{Reason: "noise analysis frequency must be > 0 (1/f divergence at f=0)"}
		}
	}
	if workers < 1 {
		workers = 1
	}

	if _, err := c.NewSystem(); err != nil {
		return nil, err
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
	var inputMag []float64
	if referToInput {
		inputMag = make([]float64, len(freqs))
	}

	g, ctx := errgroup.WithContext(context.Background())
	g.SetLimit(workers)

	for i, f := range freqs {
		i, f := i, f
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			sys, err := c.NewSystem()
			if err != nil {
				return err
			}
			sys.Transpose = true
			if err := c.Stamp(sys, f); err != nil {
				return err
			}
			sys.AddRHS(sinkIdx, 1, 0)
			if err := sys.Solve(); err != nil {
				return &circuiterr.SingularMatrix{Frequency: f, Err: err}
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
					return err
				}
				inputMag[i] = h
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
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
