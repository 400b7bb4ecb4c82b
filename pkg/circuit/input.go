package circuit

import (
	"github.com/edp1096/circuitcore/pkg/circuiterr"
	"github.com/edp1096/circuitcore/pkg/mna"
)

// InputKind is the type of excitation an Input component applies.
type InputKind int

const (
	// VoltageInput is an ideal unit-amplitude voltage source between its
	// two nodes.
	VoltageInput InputKind = iota
	// CurrentInput is an ideal unit-amplitude current source from node1 to
	// node2.
	CurrentInput
	// NoiseInput loads the circuit with its declared impedance but applies
	// no excitation; used when computing noise referred to this port.
	NoiseInput
)

// Input is the circuit's single drive/reference port. Node order follows
// original_source components.py's Input class: nodes = [node_n, node_p],
// i.e. NodeNames()[0] is the negative/reference terminal.
//
// Grounded on the teacher's pkg/device/vsource.go / isource.go branch-index
// stamping pattern (AddElement(bIdx,n1,1), AddElement(n1,bIdx,1)), trimmed
// to a single unit AC excitation since SIN/PULSE/PWL waveforms are a
// transient-analysis concept this module doesn't implement.
type Input struct {
	name      string
	nMinus    string
	nPlus     string
	Kind      InputKind
	Impedance float64 // used only for NoiseInput
}

// NewVoltageInput creates an ideal unit-amplitude voltage input.
func NewVoltageInput(nMinus, nPlus string) *Input {
	return &Input{name: "input", nMinus: nMinus, nPlus: nPlus, Kind: VoltageInput}
}

// NewCurrentInput creates an ideal unit-amplitude current input.
func NewCurrentInput(nMinus, nPlus string) *Input {
	return &Input{name: "input", nMinus: nMinus, nPlus: nPlus, Kind: CurrentInput}
}

// NewNoiseInput creates a port loaded by impedance but unexcited, for
// input-referred noise computation.
func NewNoiseInput(nMinus, nPlus string, impedance float64) (*Input, error) {
	if err := requirePositive("impedance", impedance); err != nil {
		return nil, err
	}
	return &Input{name: "input", nMinus: nMinus, nPlus: nPlus, Kind: NoiseInput, Impedance: impedance}, nil
}

func (in *Input) Name() string        { return in.name }
func (in *Input) NodeNames() []string { return []string{in.nMinus, in.nPlus} }

func (in *Input) Stamp(c *Circuit, sys *mna.System, freq float64) error {
	n := c.NodeIndex(in.nMinus)
	p := c.NodeIndex(in.nPlus)
	branch := c.BranchIndex(in.name)

	switch in.Kind {
	case VoltageInput:
		// Branch row: Vp - Vn = 1 (unit excitation). KCL coupling at both
		// nodes, as an ideal voltage source. The excitation is left out of
		// the adjoint (Transpose) system, whose RHS is the sink's unit
		// vector alone.
		sys.AddElement(branch, p, 1, 0)
		sys.AddElement(branch, n, -1, 0)
		sys.AddElement(p, branch, 1, 0)
		sys.AddElement(n, branch, -1, 0)
		if !sys.Transpose {
			sys.AddRHS(branch, 1, 0)
		}
	case CurrentInput:
		// Branch row fixes the branch unknown itself to the unit
		// excitation; KCL coupling injects that current from n to p (a +1
		// KCL coefficient is current leaving a node, so p gets -1).
		sys.AddElement(branch, branch, 1, 0)
		sys.AddElement(p, branch, -1, 0)
		sys.AddElement(n, branch, 1, 0)
		if !sys.Transpose {
			sys.AddRHS(branch, 1, 0)
		}
	case NoiseInput:
		if freq <= 0 {
			return &circuiterr.NumericError{Reason: "input impedance undefined at zero frequency"}
		}
		stampAdmittance(sys, n, p, 1/in.Impedance, 0)
		stampBranch(sys, branch, n, p, in.Impedance, 0)
	}

	return nil
}

func (in *Input) Noise(c *Circuit) []NoiseSource { return nil }
