package liso_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edp1096/circuitcore/pkg/analysis"
	"github.com/edp1096/circuitcore/pkg/circuit"
	"github.com/edp1096/circuitcore/pkg/circuiterr"
	"github.com/edp1096/circuitcore/pkg/liso"
)

const rcLowPass = `
r r1 1k in mid
c c1 100n mid gnd
uinput in 50
uoutput mid
freq log 1 1e6 10
`

func TestParseInputBuildsCircuitAndFrequencies(t *testing.T) {
	doc, err := liso.ParseInput(rcLowPass)
	require.NoError(t, err)

	_, err = doc.Circuit.LookupComponent("r1")
	assert.NoError(t, err)
	_, err = doc.Circuit.LookupComponent("c1")
	assert.NoError(t, err)
	_, err = doc.Circuit.LookupComponent("input")
	assert.NoError(t, err)

	assert.Equal(t, analysis.Logarithmic, doc.SweepKind)
	assert.Len(t, doc.Frequencies, 11)
	assert.Equal(t, liso.TransferAnalysis, doc.Kind)

	sinks, _, err := doc.TransferSinks()
	require.NoError(t, err)
	require.Len(t, sinks, 1)
	assert.Equal(t, "mid", sinks[0].Name)
	assert.False(t, sinks[0].Branch)
}

func TestParseInputVoltageInputDoesNotStampImpedance(t *testing.T) {
	doc, err := liso.ParseInput(rcLowPass)
	require.NoError(t, err)
	assert.InDelta(t, 50.0, doc.InputImpedance, 1e-9)

	comp, err := doc.Circuit.LookupComponent("input")
	require.NoError(t, err)
	assert.Len(t, comp.NodeNames(), 2)
}

func TestParseInputRejectsMissingFreq(t *testing.T) {
	text := `
r r1 1k in gnd
uinput in
uoutput in
`
	_, err := liso.ParseInput(text)
	assert.Error(t, err)
}

func TestParseInputRejectsMissingOutput(t *testing.T) {
	text := `
r r1 1k in gnd
uinput in
freq log 1 1k 10
`
	_, err := liso.ParseInput(text)
	assert.Error(t, err)
}

func TestParseInputRejectsUnknownStatement(t *testing.T) {
	_, err := liso.ParseInput("bogus 1 2 3\n")
	require.Error(t, err)
	var perr *circuiterr.ParseError
	assert.ErrorAs(t, err, &perr)
}

func TestParseInputRejectsWrongArity(t *testing.T) {
	_, err := liso.ParseInput("r r1 1k in\n")
	assert.Error(t, err)
}

func TestParseInputRejectsIllegalToken(t *testing.T) {
	_, err := liso.ParseInput("r r1 1k in gnd!\n")
	assert.Error(t, err)
}

func TestParseInputRejectsCombiningOutputAndNoise(t *testing.T) {
	text := `
r r1 1k in gnd
uinput in
uoutput in
noise in r1
freq log 1 1k 10
`
	_, err := liso.ParseInput(text)
	assert.Error(t, err)
}

func TestParseInputNoiseSumNotSupported(t *testing.T) {
	text := `
r r1 1k in gnd
uinput in
noise in sum
freq log 1 1k 10
`
	_, err := liso.ParseInput(text)
	require.Error(t, err)
	var ns *circuiterr.NotSupported
	assert.ErrorAs(t, err, &ns)
}

func TestParseInputOpAmpOverrides(t *testing.T) {
	text := `
op u1 op27 in gnd out a0=2e6 gbw=10e6 un=5n
r r1 1k out gnd
uinput in
uoutput out
freq log 1 1k 10
`
	doc, err := liso.ParseInput(text)
	require.NoError(t, err)

	comp, err := doc.Circuit.LookupComponent("u1")
	require.NoError(t, err)
	op, ok := comp.(*circuit.OpAmp)
	require.True(t, ok)
	assert.InDelta(t, 2e6, op.Params.A0, 1e-6)
	assert.InDelta(t, 10e6, op.Params.GBW, 1e-6)
	assert.InDelta(t, 5e-9, op.Params.VNoise, 1e-18)
}

func TestParseInputUnknownOpAmpOverride(t *testing.T) {
	text := `
op u1 opa827 in gnd out bogus=1
r r1 1k out gnd
uinput in
uoutput out
freq log 1 1k 10
`
	_, err := liso.ParseInput(text)
	assert.Error(t, err)
}

func TestNoiseSourceLabelsDefaultsToAll(t *testing.T) {
	text := `
r r1 1k in gnd
r r2 2k in gnd
uinput in
noise in
freq log 1 1k 10
`
	doc, err := liso.ParseInput(text)
	require.NoError(t, err)
	assert.Equal(t, liso.NoiseAnalysisKind, doc.Kind)

	labels, err := doc.NoiseSourceLabels()
	require.NoError(t, err)
	assert.Contains(t, labels, "R(r1)")
	assert.Contains(t, labels, "R(r2)")
}

func TestNoiseSourceLabelsExplicitOpAmpPorts(t *testing.T) {
	text := `
op u1 op27 ip im out
r r1 1k ip gnd
uinput ip
noise out u1:u u1:+ u1:-
freq log 1 1k 10
`
	doc, err := liso.ParseInput(text)
	require.NoError(t, err)

	labels, err := doc.NoiseSourceLabels()
	require.NoError(t, err)
	assert.Contains(t, labels, "V(u1)")
	assert.Contains(t, labels, "I(u1, ip)")
	assert.Contains(t, labels, "I(u1, im)")
}

func TestNoiseSinkResolvesNodeOrBranch(t *testing.T) {
	text := `
r r1 1k in out
uinput in
noise out r1
freq log 1 1k 10
`
	doc, err := liso.ParseInput(text)
	require.NoError(t, err)

	sink, err := doc.NoiseSink()
	require.NoError(t, err)
	assert.Equal(t, "out", sink.Name)
	assert.False(t, sink.Branch)
}

func TestParseInputAllOutputWildcard(t *testing.T) {
	text := `
r r1 1k in mid
r r2 1k mid gnd
uinput in
uoutput all
freq log 1 1k 10
`
	doc, err := liso.ParseInput(text)
	require.NoError(t, err)

	sinks, _, err := doc.TransferSinks()
	require.NoError(t, err)
	var names []string
	for _, s := range sinks {
		names = append(names, s.Name)
	}
	assert.Contains(t, names, "in")
	assert.Contains(t, names, "mid")
}
