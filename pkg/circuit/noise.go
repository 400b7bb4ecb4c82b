package circuit

import "github.com/edp1096/circuitcore/pkg/config"

// NoiseSource describes one noise generator attached to a component: a
// label for lookup/output, the MNA row its spectral density is injected
// into, and the density function itself.
//
// Grounded on original_source/circuit/components.py's Noise/ComponentNoise/
// NodeNoise hierarchy, flattened into a single struct since Go has no need
// for the Python class tree's polymorphism here — a closure over the owning
// component captures everything Component/NodeNoise's subclasses needed.
type NoiseSource struct {
	// Label matches original_source's label() conventions: "R(name)" for
	// Johnson noise, "V(name)" for op-amp voltage noise, "I(name, node)"
	// for op-amp current noise.
	Label string

	// row resolves the injection row once the circuit's indices are
	// assigned: a component's own branch row for Johnson/voltage noise, or
	// a specific node's KCL row for current noise.
	row func(c *Circuit) int

	// density returns the noise spectral density magnitude (V/sqrt(Hz) or
	// A/sqrt(Hz), matching whatever unit the injection row expects) at the
	// given frequency.
	density func(cfg config.ConstantsConfig, freq float64) float64
}

// Row returns the MNA row this noise source injects into.
func (n NoiseSource) Row(c *Circuit) int { return n.row(c) }

// Density returns the spectral density at freq using cfg's constants.
func (n NoiseSource) Density(cfg config.ConstantsConfig, freq float64) float64 {
	return n.density(cfg, freq)
}
