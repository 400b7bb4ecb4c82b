// Package circuit holds the linear circuit data model: nodes, components,
// and the noise sources they expose.
//
// Grounded on the teacher's pkg/circuit/circuit.go (node interning via a
// lower-cased name map, insertion-ordered device list, two-pass setup for
// devices that reference other devices by name) combined with
// original_source/circuit/circuit.py's named-lookup, case-insensitive
// Circuit API. Per the tagged-variant design note, Component is a small
// interface implemented by each concrete element rather than a single
// struct switching on a type tag.
package circuit

import (
	"fmt"

	"github.com/edp1096/circuitcore/pkg/mna"
)

// Ground is the distinguished node name excluded from the MNA unknowns.
// Deliberately "gnd", not the teacher's SPICE-style "0": spec.md calls this
// out explicitly as a divergence from SPICE convention.
const Ground = "gnd"

// NormalizeNode lower-cases and trims a node name for case-insensitive
// lookup, the same convention original_source's Node/Circuit classes use.
func NormalizeNode(name string) string {
	return normalizeName(name)
}

// Component is anything that contributes rows/columns to the MNA system:
// one branch-current unknown per spec.md's stamping rule, plus whatever
// nodal KCL terms its physics requires.
type Component interface {
	// Name is the component's unique, case-insensitively compared name.
	Name() string
	// NodeNames returns the component's terminal node names in the order
	// its Stamp implementation expects them.
	NodeNames() []string
	// Stamp adds this component's contribution to sys at the given
	// frequency (Hz), using c to resolve node and branch indices.
	Stamp(c *Circuit, sys *mna.System, freq float64) error
	// Noise returns the component's own noise sources, if any. Most
	// components have none; resistors and op-amps do.
	Noise(c *Circuit) []NoiseSource
}

// stampAdmittance adds a two-terminal admittance Y=real+j*imag to the
// standard 4-corner nodal KCL pattern. Ground (index 0) terms are silently
// dropped by mna.System.AddElement, so no branching is needed here for
// grounded terminals.
func stampAdmittance(sys *mna.System, a, b int, real, imag float64) {
	sys.AddElement(a, a, real, imag)
	sys.AddElement(b, b, real, imag)
	sys.AddElement(a, b, -real, -imag)
	sys.AddElement(b, a, -real, -imag)
}

// stampBranch adds a two-terminal component's own branch-current equation:
// Z*I - Va + Vb = 0, i.e. I = (Va-Vb)/Z. For capacitors and the
// noise-input impedance this exists purely to give the component's current
// an addressable MNA unknown (needed by C4/C5 sink selection), paired with
// a separate stampAdmittance call using the same component's admittance
// Y=1/Z so the branch row does not itself participate in nodal KCL. The
// inductor and the resistor are the exceptions: mutual-coupling terms
// (inductor) and Johnson noise (resistor) are injected into the branch
// row, so the branch current must be a real unknown that nodal KCL depends
// on, and inductor.go/resistor.go couple it back in directly instead of
// calling stampAdmittance.
func stampBranch(sys *mna.System, branch, a, b int, zReal, zImag float64) {
	sys.AddElement(branch, branch, zReal, zImag)
	sys.AddElement(branch, a, -1, 0)
	sys.AddElement(branch, b, 1, 0)
}

// requirePositive is a small guard shared by the passive constructors.
func requirePositive(field string, value float64) error {
	if value <= 0 {
		return fmt.Errorf("%s must be positive, got %g", field, value)
	}
	return nil
}
