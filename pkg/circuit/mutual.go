package circuit

import (
	"fmt"

	"github.com/edp1096/circuitcore/pkg/circuiterr"
)

// mutualCoupling is one coefficient-of-coupling pair, referencing its two
// inductors by their stable integer handle (index into Circuit.inductors)
// rather than an object-keyed map. Grounded on spec.md §9's redesign note:
// original_source's CouplingFactorDict (components.py) keys couplings by
// inductor object identity per-inductor, which this design deliberately
// avoids in favor of one flat, circuit-level list.
type mutualCoupling struct {
	a, b int
	k    float64
}

// mutualPartner is one inductor's view of a coupling: the other inductor's
// handle and the shared coefficient.
type mutualPartner struct {
	other int
	k     float64
}

func topologyErrorf(format string, args ...interface{}) error {
	return &circuiterr.TopologyError{Reason: fmt.Sprintf(format, args...)}
}

// AddMutualInductance couples two inductors, already added to the circuit,
// with coupling factor k in [0, 1]. The pairing is inherently symmetric: a
// single stored entry serves both Stamp calls k(A,B) and k(B,A) since
// mutualInductances below returns the partner for whichever side asks.
func (c *Circuit) AddMutualInductance(nameA, nameB string, k float64) error {
	if k < 0 || k > 1 {
		return topologyErrorf("coupling factor must be between 0 and 1, got %g", k)
	}

	a, err := c.inductorHandle(nameA)
	if err != nil {
		return err
	}
	b, err := c.inductorHandle(nameB)
	if err != nil {
		return err
	}
	if a == b {
		return topologyErrorf("inductor %s cannot be mutually coupled to itself", nameA)
	}

	c.mutuals = append(c.mutuals, mutualCoupling{a: a, b: b, k: k})
	return nil
}

// mutualInductances returns, for the inductor at handle, every partner
// inductor's handle and coupling factor.
func (c *Circuit) mutualInductances(handle int) []mutualPartner {
	var out []mutualPartner
	for _, m := range c.mutuals {
		switch handle {
		case m.a:
			out = append(out, mutualPartner{other: m.b, k: m.k})
		case m.b:
			out = append(out, mutualPartner{other: m.a, k: m.k})
		}
	}
	return out
}
