package circuit

import (
	"math"

	"github.com/edp1096/circuitcore/pkg/circuiterr"
	"github.com/edp1096/circuitcore/pkg/mna"
)

// Inductor is a two-terminal inductance. Grounded on the teacher's
// pkg/device/inductor.go AC branch, generalized with the added
// branch-current row, and stored via a stable integer handle on Circuit
// (handle field) so mutual-coupling pairs can reference it without an
// object-keyed map (spec.md §9's redesign note against per-inductor maps).
type Inductor struct {
	name       string
	n1, n2     string
	Inductance float64

	// handle is this inductor's position in Circuit.inductors, assigned
	// when it is added. Zero until then.
	handle int
}

// NewInductor constructs an inductor; inductance must be strictly positive.
func NewInductor(name, n1, n2 string, inductance float64) (*Inductor, error) {
	if err := requirePositive("inductance", inductance); err != nil {
		return nil, err
	}
	return &Inductor{name: name, n1: n1, n2: n2, Inductance: inductance}, nil
}

func (l *Inductor) Name() string        { return l.name }
func (l *Inductor) NodeNames() []string { return []string{l.n1, l.n2} }

func (l *Inductor) Stamp(c *Circuit, sys *mna.System, freq float64) error {
	if freq <= 0 {
		return &circuiterr.NumericError{Reason: "inductor branch impedance undefined at zero frequency"}
	}

	a := c.NodeIndex(l.n1)
	b := c.NodeIndex(l.n2)
	branch := c.BranchIndex(l.name)

	omega := 2 * math.Pi * freq
	impedance := omega * l.Inductance // Z = jwL

	// Unlike the plain admittance-plus-decoupled-branch pattern capacitors
	// use, the inductor's branch current must be a genuine MNA unknown:
	// reciprocal ±1 KCL coupling (the same pattern resistor.go and
	// opamp.go/input.go use for their own branch currents), so that the
	// mutual-coupling terms stamped into this row below actually alter
	// node voltages instead of only being readable as a sink.
	stampBranch(sys, branch, a, b, 0, impedance)
	sys.AddElement(a, branch, 1, 0)
	sys.AddElement(b, branch, -1, 0)

	for _, m := range c.mutualInductances(l.handle) {
		other := c.inductors[m.other]
		otherBranch := c.BranchIndex(other.name)
		mutualZ := m.k * math.Sqrt(l.Inductance*other.Inductance) * omega
		// spec.md §4.3: insert -jwM in inductor i's branch row at inductor
		// j's current column.
		sys.AddElement(branch, otherBranch, 0, -mutualZ)
	}

	return nil
}

func (l *Inductor) Noise(c *Circuit) []NoiseSource { return nil }
