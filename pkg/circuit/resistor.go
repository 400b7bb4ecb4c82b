package circuit

import (
	"fmt"
	"math"

	"github.com/edp1096/circuitcore/pkg/config"
	"github.com/edp1096/circuitcore/pkg/mna"
)

// Resistor is a two-terminal resistance. Grounded on the teacher's
// pkg/device/resistor.go stamp, generalized to carry its own branch-current
// row (coupled into nodal KCL) and its Johnson noise source, neither of
// which the teacher's resistor has.
type Resistor struct {
	name       string
	n1, n2     string
	Resistance float64
}

// NewResistor constructs a resistor; resistance must be strictly positive.
func NewResistor(name, n1, n2 string, resistance float64) (*Resistor, error) {
	if err := requirePositive("resistance", resistance); err != nil {
		return nil, err
	}
	return &Resistor{name: name, n1: n1, n2: n2, Resistance: resistance}, nil
}

func (r *Resistor) Name() string        { return r.name }
func (r *Resistor) NodeNames() []string { return []string{r.n1, r.n2} }

func (r *Resistor) Stamp(c *Circuit, sys *mna.System, freq float64) error {
	a := c.NodeIndex(r.n1)
	b := c.NodeIndex(r.n2)
	branch := c.BranchIndex(r.name)

	// The branch current is a genuine MNA unknown with reciprocal ±1 KCL
	// coupling (as in inductor.go), so a Johnson noise voltage injected into
	// this branch row reaches the node voltages.
	stampBranch(sys, branch, a, b, r.Resistance, 0)
	sys.AddElement(a, branch, 1, 0)
	sys.AddElement(b, branch, -1, 0)
	return nil
}

// Noise returns the resistor's Johnson (thermal) noise, labeled "R(name)"
// per original_source's JohnsonNoise.label, injected into the resistor's
// own branch row so it reads as an equivalent series voltage noise source.
func (r *Resistor) Noise(c *Circuit) []NoiseSource {
	name := r.name
	resistance := r.Resistance
	return []NoiseSource{{
		Label: fmt.Sprintf("R(%s)", name),
		row:   func(c *Circuit) int { return c.BranchIndex(name) },
		density: func(cfg config.ConstantsConfig, freq float64) float64 {
			return math.Sqrt(4 * cfg.KB * cfg.T * resistance)
		},
	}}
}
