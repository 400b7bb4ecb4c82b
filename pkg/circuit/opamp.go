package circuit

import (
	"fmt"
	"math"
	"math/cmplx"

	"github.com/edp1096/circuitcore/pkg/circuiterr"
	"github.com/edp1096/circuitcore/pkg/config"
	"github.com/edp1096/circuitcore/pkg/mna"
	"github.com/edp1096/circuitcore/pkg/opamp"
)

// OpAmp is a near-ideal op-amp: node1 is the non-inverting input, node2 the
// inverting input, node3 the output, matching original_source
// components.py's Input1/Input2/Output node ordering.
//
// The teacher has no op-amp device at all; its branch-row stamping pattern
// is adapted from pkg/device/vsource.go's voltage-source constraint row
// (AddElement(bIdx, n, coeff) plus the matching +1/-1 KCL coupling at the
// constrained node).
type OpAmp struct {
	name               string
	nPlus, nMinus, out string
	Model              string
	Params             opamp.Params
}

// NewOpAmp constructs an op-amp using the given model's library parameters.
func NewOpAmp(name, nPlus, nMinus, out, model string, params opamp.Params) *OpAmp {
	return &OpAmp{name: name, nPlus: nPlus, nMinus: nMinus, out: out, Model: model, Params: params}
}

func (o *OpAmp) Name() string        { return o.name }
func (o *OpAmp) NodeNames() []string { return []string{o.nPlus, o.nMinus, o.out} }

// gain computes the op-amp's open-loop voltage gain at freq, per
// original_source components.py's OpAmp.gain: a single dominant pole scaled
// by a0/gbw, a pure delay term, and additional zero/pole factors. An empty
// Zeros or Poles slice contributes a product of 1, matching numpy's
// np.prod(empty array) == 1 behavior (spec.md §9).
func (o *OpAmp) gain(freq float64) complex128 {
	p := o.Params
	dominant := complex(p.A0, 0) / (1 + complex(0, p.A0*freq/p.GBW))

	delayTerm := cmplx.Exp(complex(0, -2*math.Pi*p.Delay*freq))

	zeroProduct := complex(1, 0)
	for _, z := range p.Zeros {
		zeroProduct *= 1 + complex(0, freq/z)
	}

	poleProduct := complex(1, 0)
	for _, pl := range p.Poles {
		poleProduct *= 1 + complex(0, freq/pl)
	}

	return dominant * delayTerm * zeroProduct / poleProduct
}

func (o *OpAmp) Stamp(c *Circuit, sys *mna.System, freq float64) error {
	a := c.NodeIndex(o.nPlus)
	b := c.NodeIndex(o.nMinus)
	out := c.NodeIndex(o.out)
	branch := c.BranchIndex(o.name)

	gain := o.gain(freq)
	if gain == 0 {
		return &circuiterr.NumericError{Reason: fmt.Sprintf("op-amp %s has zero gain at %g Hz", o.name, freq)}
	}
	inverseGain := 1 / gain

	// Branch row enforces V+ - V- - (1/A)*Vout = 0. The voltage-follower
	// case (out tied to node2) falls out of this same formula with no
	// special-casing: the -1 and -(1/A) coefficients on node2 and out
	// simply land on the same column and add.
	sys.AddElement(branch, a, 1, 0)
	sys.AddElement(branch, b, -1, 0)
	sys.AddElement(branch, out, -real(inverseGain), -imag(inverseGain))

	// The branch current feeds the output node's KCL row with a +1
	// coefficient, exactly as the teacher's voltage source stamps its
	// controlled node.
	sys.AddElement(out, branch, 1, 0)

	return nil
}

// Noise returns the op-amp's input voltage noise (on its own branch row)
// and input current noise at each non-ground input node, per
// original_source components.py's OpAmp.__init__ noise registration.
func (o *OpAmp) Noise(c *Circuit) []NoiseSource {
	name := o.name
	params := o.Params
	sources := []NoiseSource{{
		Label: fmt.Sprintf("V(%s)", name),
		row:   func(c *Circuit) int { return c.BranchIndex(name) },
		density: func(cfg config.ConstantsConfig, freq float64) float64 {
			return params.VNoise * math.Sqrt(1+params.VCorner/freq)
		},
	}}

	if NormalizeNode(o.nPlus) != Ground {
		node := o.nPlus
		sources = append(sources, NoiseSource{
			Label: fmt.Sprintf("I(%s, %s)", name, node),
			row:   func(c *Circuit) int { return c.NodeIndex(node) },
			density: func(cfg config.ConstantsConfig, freq float64) float64 {
				return params.INoise * math.Sqrt(1+params.ICorner/freq)
			},
		})
	}
	if NormalizeNode(o.nMinus) != Ground {
		node := o.nMinus
		sources = append(sources, NoiseSource{
			Label: fmt.Sprintf("I(%s, %s)", name, node),
			row:   func(c *Circuit) int { return c.NodeIndex(node) },
			density: func(cfg config.ConstantsConfig, freq float64) float64 {
				return params.INoise * math.Sqrt(1+params.ICorner/freq)
			},
		})
	}

	return sources
}
