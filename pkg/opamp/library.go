// Package opamp holds named op-amp parameter sets, analogous to a SPICE
// model library: a circuit can reference a model by name instead of
// spelling out every gain/noise/slew parameter inline.
//
// Grounded on original_source/circuit/components.py's OpAmp.__init__
// defaults (an OP27-like part) and on original_source/circuit/config.py's
// OpAmpLibrary lookup-by-name pattern; the teacher carries no op-amp model
// concept of its own (its op-amps, where present, are hand-parameterized).
package opamp

import "github.com/edp1096/circuitcore/pkg/circuiterr"

// Params is an op-amp model's full parameter set, per spec.md §3's data
// model. VMax, IMax and Slew describe output clipping and slew-rate limits
// that only matter for the transient/large-signal analyses this module
// excludes as a Non-goal; they round-trip through library lookup and LISO
// overrides but AC transfer/noise never reads them.
type Params struct {
	A0      float64 // open-loop DC gain
	GBW     float64 // gain-bandwidth product, Hz
	Delay   float64 // propagation delay, s
	Zeros   []float64
	Poles   []float64
	VNoise  float64 // input voltage noise density, V/sqrt(Hz)
	VCorner float64 // voltage noise 1/f corner, Hz
	INoise  float64 // input current noise density, A/sqrt(Hz)
	ICorner float64 // current noise 1/f corner, Hz
	VMax    float64 // output voltage clipping limit, V
	IMax    float64 // output current clipping limit, A
	Slew    float64 // slew rate, V/s
}

// defaultParams are the OP27-like values served by Default and as the
// library's "op27" entry.
var defaultParams = Params{
	A0:      1.5e6,
	GBW:     8e6,
	VNoise:  3.2e-9,
	VCorner: 2.7,
	INoise:  0.4e-12,
	ICorner: 140,
	VMax:    12,
	IMax:    0.06,
	Slew:    1e6,
}

// Default returns the library's fallback parameter set.
func Default() Params { return defaultParams }

// library maps a lower-cased model name to its parameter set. Entries beyond
// the default are representative rather than exhaustive; callers needing an
// exact datasheet fit should override fields on the returned Params.
var library = map[string]Params{
	"op27": defaultParams,
	"ad797": {
		A0:      1e7,
		GBW:     110e6,
		VNoise:  0.9e-9,
		VCorner: 1,
		INoise:  2e-12,
		ICorner: 100,
	},
	"lt1028": {
		A0:      2e6,
		GBW:     75e6,
		VNoise:  0.85e-9,
		VCorner: 3.5,
		INoise:  1e-12,
		ICorner: 250,
	},
	"ne5534": {
		A0:      1e5,
		GBW:     10e6,
		VNoise:  3.5e-9,
		VCorner: 100,
		INoise:  0.4e-12,
		ICorner: 1000,
	},
}

// Lookup returns the named model's parameters. Names are matched
// case-insensitively via the caller's own normalization; Lookup itself
// expects an already lower-cased key.
func Lookup(model string) (Params, error) {
	p, ok := library[model]
	if !ok {
		return Params{}, &circuiterr.NotFound{Kind: "opamp model", Name: model}
	}
	return p, nil
}
