package circuit

import (
	"math"

	"github.com/edp1096/circuitcore/pkg/circuiterr"
	"github.com/edp1096/circuitcore/pkg/mna"
)

// Capacitor is a two-terminal capacitance. Grounded on the teacher's
// pkg/device/capacitor.go AC branch (AddComplexElement with 0, omega*C),
// generalized with an added branch-current row for C4/C5 addressability.
type Capacitor struct {
	name        string
	n1, n2      string
	Capacitance float64
}

// NewCapacitor constructs a capacitor; capacitance must be strictly positive.
func NewCapacitor(name, n1, n2 string, capacitance float64) (*Capacitor, error) {
	if err := requirePositive("capacitance", capacitance); err != nil {
		return nil, err
	}
	return &Capacitor{name: name, n1: n1, n2: n2, Capacitance: capacitance}, nil
}

func (c *Capacitor) Name() string        { return c.name }
func (c *Capacitor) NodeNames() []string { return []string{c.n1, c.n2} }

func (cp *Capacitor) Stamp(c *Circuit, sys *mna.System, freq float64) error {
	if freq <= 0 {
		return &circuiterr.NumericError{Reason: "capacitor branch impedance undefined at zero frequency"}
	}

	a := c.NodeIndex(cp.n1)
	b := c.NodeIndex(cp.n2)
	branch := c.BranchIndex(cp.name)

	omega := 2 * math.Pi * freq
	admittance := omega * cp.Capacitance // Y = jwC

	stampAdmittance(sys, a, b, 0, admittance)
	// Z = 1/(jwC) = -j/(wC)
	stampBranch(sys, branch, a, b, 0, -1/admittance)
	return nil
}

func (cp *Capacitor) Noise(c *Circuit) []NoiseSource { return nil }
