// Command circuitcore is a thin demo CLI over the circuitcore packages,
// analogous to the teacher's cmd/main.go and examples/rr: it reads a LISO
// script, runs the analysis the script requests, and prints the result.
// The core packages never call os.Exit; only this command maps structured
// errors to the process exit codes spec.md §6 assigns to the CLI
// collaborator (0 success, 1 user/parse error, 2 analysis/solver failure,
// 3 runner failure).
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/edp1096/circuitcore/pkg/analysis"
	"github.com/edp1096/circuitcore/pkg/circuiterr"
	"github.com/edp1096/circuitcore/pkg/config"
	"github.com/edp1096/circuitcore/pkg/liso"
	"github.com/edp1096/circuitcore/pkg/quantity"
	"github.com/edp1096/circuitcore/pkg/runner"
	"github.com/edp1096/circuitcore/pkg/solution"
)

const (
	exitOK = iota
	exitUserError
	exitAnalysisError
	exitRunnerError
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("circuitcore", flag.ContinueOnError)
	refPath := fs.String("ref", "", "path to an external LISO-compatible reference binary to cross-validate against")
	refTimeout := fs.Duration("ref-timeout", 30*time.Second, "timeout for the reference binary")
	referToInput := fs.Bool("input-referred", false, "report noise referred to the input instead of the sink")
	sumNoise := fs.Bool("sum", false, "include the incoherent noise sum alongside per-source contributions")
	workers := fs.Int("workers", 1, "number of frequency points to solve concurrently (1 = sequential)")
	if err := fs.Parse(args); err != nil {
		return exitUserError
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: circuitcore [flags] <liso-input-file>")
		return exitUserError
	}

	text, err := os.ReadFile(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "circuitcore: %v\n", err)
		return exitUserError
	}

	doc, err := liso.ParseInput(string(text))
	if err != nil {
		return report(err)
	}

	cfg := config.Default()

	var sol *solution.Solution
	switch doc.Kind {
	case liso.TransferAnalysis:
		sol, err = runTransfer(doc, *workers)
	case liso.NoiseAnalysisKind:
		sol, err = runNoise(doc, cfg, *referToInput, *sumNoise, *workers)
	default:
		err = &circuiterr.TopologyError{Reason: "script selects no analysis"}
	}
	if err != nil {
		return report(err)
	}

	printSolution(sol)

	if *refPath != "" {
		refCfg := config.LisoConfig{Path: *refPath}
		ref, err := runner.Run(context.Background(), refCfg, fs.Arg(0), *refTimeout)
		if err != nil {
			return report(err)
		}
		compare(sol, ref)
	}

	return exitOK
}

func runTransfer(doc *liso.Document, workers int) (*solution.Solution, error) {
	sinks, _, err := doc.TransferSinks()
	if err != nil {
		return nil, err
	}
	if workers > 1 {
		return analysis.TransferParallel(doc.Circuit, doc.Frequencies, sinks, workers)
	}
	return analysis.Transfer(doc.Circuit, doc.Frequencies, sinks)
}

func runNoise(doc *liso.Document, cfg config.Config, referToInput, sumNoise bool, workers int) (*solution.Solution, error) {
	sink, err := doc.NoiseSink()
	if err != nil {
		return nil, err
	}
	labels, err := doc.NoiseSourceLabels()
	if err != nil {
		return nil, err
	}
	wanted := make(map[string]bool, len(labels))
	for _, l := range labels {
		wanted[l] = true
	}

	var result *analysis.NoiseResult
	if workers > 1 {
		result, err = analysis.NoiseParallel(doc.Circuit, doc.Frequencies, sink, cfg.Constants, referToInput, sumNoise, workers)
	} else {
		result, err = analysis.Noise(doc.Circuit, doc.Frequencies, sink, cfg.Constants, referToInput, sumNoise)
	}
	if err != nil {
		return nil, err
	}

	sol := solution.New()
	for _, f := range result.Sources.Functions() {
		if wanted[f.Key.Source] {
			sol.AddFunction(f)
		}
	}
	if result.Total != nil {
		sol.AddFunction(*result.Total)
	}
	return sol, nil
}

// printSolution renders each function as one auto-scaled line per
// frequency, in the teacher's examples/rr style (fmt.Printf with
// FormatValueFactor-equivalent output via pkg/quantity.Format).
func printSolution(sol *solution.Solution) {
	for _, f := range sol.Functions() {
		fmt.Printf("%s -> %s (%s):\n", f.Key.Source, f.Key.Sink, f.Unit)
		for i, freq := range f.Frequencies {
			v := f.Values[i]
			q := quantity.Quantity{Value: real(v), Unit: f.Unit}
			fmt.Printf("  %10s Hz: re=%s im=%g\n", quantity.Quantity{Value: freq, Unit: "Hz"}.Format(), q.Format(), imag(v))
		}
	}
}

// compare prints a per-function max relative deviation between this run's
// solution and the reference binary's, using Solution.Difference.
func compare(ours, ref *solution.Solution) {
	rows := ours.Difference(ref, solution.DefaultRelTolerance, false)
	if len(rows) == 0 {
		fmt.Println("reference comparison: no deviations beyond tolerance")
		return
	}
	fmt.Println("reference comparison: deviations found in:")
	var names []string
	for _, row := range rows {
		names = append(names, fmt.Sprintf("%s (max rel err %.3g)", row.Key.String(), row.MaxRelativeErr))
	}
	fmt.Println("  " + strings.Join(names, ", "))
}

// report prints err and returns the exit code spec.md §6 assigns to its
// kind: 1 for user/parse errors, 2 for analysis/solver failures, 3 for
// runner failures.
func report(err error) int {
	fmt.Fprintf(os.Stderr, "circuitcore: %v\n", err)

	var parseErr *circuiterr.ParseError
	var dupErr *circuiterr.DuplicateName
	var notFoundErr *circuiterr.NotFound
	var configErr *circuiterr.ConfigError
	var notSupportedErr *circuiterr.NotSupported
	var runnerErr *circuiterr.RunnerError

	switch {
	case errors.As(err, &parseErr), errors.As(err, &dupErr), errors.As(err, &notFoundErr),
		errors.As(err, &configErr), errors.As(err, &notSupportedErr):
		return exitUserError
	case errors.As(err, &runnerErr):
		return exitRunnerError
	default:
		return exitAnalysisError
	}
}
