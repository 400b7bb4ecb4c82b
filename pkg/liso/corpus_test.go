package liso_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edp1096/circuitcore/pkg/analysis"
	"github.com/edp1096/circuitcore/pkg/config"
	"github.com/edp1096/circuitcore/pkg/liso"
	"github.com/edp1096/circuitcore/pkg/solution"
)

// corpusCase pairs a LISO input script with a canned reference output in
// the same textual format ParseOutput (C8) expects from a real reference
// binary. Values were computed independently from the circuit's closed
// form (not from this package's own analysis code), so a regression in
// either Transfer/Noise or ParseOutput would show up as a mismatch here.
type corpusCase struct {
	name   string
	input  string
	output string
}

// corpus covers spec.md §8 scenario 6 (reference-binary equivalence)
// without invoking pkg/runner or any external binary: it exercises the
// same comparison path cmd/circuitcore's -ref flag uses
// (ParseInput+Transfer/Noise vs. ParseOutput, compared via
// Solution.Difference), against reference text embedded directly in this
// test file.
var corpus = []corpusCase{
	{
		name: "rc_lowpass_transfer",
		// R=1k, C=159.155nF -> corner = 1/(2*pi*R*C) ≈ 999.9996 Hz.
		// At 1000 Hz the RC divider's magnitude is 1/sqrt(2), phase -45deg:
		// H = 1/(1+j) = 0.5 - 0.5j.
		input: `r r1 1k in mid
c c1 159.155nF mid gnd
uinput in
freq log 1000 1000 0
uoutput mid
`,
		output: `# type=tf
# input=voltage
# units=V
# scales=magnitude

freq          mid_re         mid_im
1.000000e+03  5.000000e-01  -5.000000e-01
`,
	},
	{
		name: "resistive_divider_noise",
		// R1 injects Johnson noise density sqrt(4*kB*T*R1) as a series
		// source in its own branch, between "in" (held at AC ground for
		// noise purposes, same as any other independent source) and
		// "out". R2 from "out" to ground forms a 0.5 divider with R1, so
		// the noise reaching "out" is sqrt(4*kB*T*R1)*0.5. At the default
		// T=298.15K, kB=1.380649e-23: sqrt(4*1.380649e-23*298.15*1000) =
		// 4.057785e-9 V/sqrt(Hz), halved to 2.028893e-9 at "out".
		input: `r r1 1k in out
r r2 1k out gnd
uinput in
freq log 1000 1000 0
noise out r1
`,
		output: `# type=noise
# input=voltage
# sink=out
# units=V/sqrt(Hz)
# scales=magnitude

freq          R(r1)_re      R(r1)_im
1.000000e+03  2.028893e-09  0.000000e+00
`,
	},
}

// runCorpusInput runs the analysis a corpus input script requests,
// reproducing cmd/circuitcore's runTransfer/runNoise dispatch without the
// CLI's exit-code/printing concerns.
func runCorpusInput(t *testing.T, doc *liso.Document) *solution.Solution {
	t.Helper()

	switch doc.Kind {
	case liso.TransferAnalysis:
		sinks, _, err := doc.TransferSinks()
		require.NoError(t, err)
		sol, err := analysis.Transfer(doc.Circuit, doc.Frequencies, sinks)
		require.NoError(t, err)
		return sol
	case liso.NoiseAnalysisKind:
		sink, err := doc.NoiseSink()
		require.NoError(t, err)
		labels, err := doc.NoiseSourceLabels()
		require.NoError(t, err)
		wanted := make(map[string]bool, len(labels))
		for _, l := range labels {
			wanted[l] = true
		}

		cfg := config.Default().Constants
		result, err := analysis.Noise(doc.Circuit, doc.Frequencies, sink, cfg, false, false)
		require.NoError(t, err)

		sol := solution.New()
		for _, f := range result.Sources.Functions() {
			if wanted[f.Key.Source] {
				sol.AddFunction(f)
			}
		}
		return sol
	default:
		t.Fatalf("corpus case selects no analysis")
		return nil
	}
}

func TestValidationCorpusMatchesReferenceOutput(t *testing.T) {
	for _, tc := range corpus {
		t.Run(tc.name, func(t *testing.T) {
			doc, err := liso.ParseInput(tc.input)
			require.NoError(t, err)

			got := runCorpusInput(t, doc)

			ref, err := liso.ParseOutput(tc.output)
			require.NoError(t, err)

			rows := got.Difference(ref, 1e-4, false)
			assert.Empty(t, rows, "expected no deviations beyond 1e-4 relative tolerance")
		})
	}
}
