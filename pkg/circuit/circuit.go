package circuit

import (
	"fmt"
	"sort"

	"github.com/edp1096/circuitcore/pkg/circuiterr"
	"github.com/edp1096/circuitcore/pkg/mna"
	"github.com/edp1096/circuitcore/pkg/opamp"
)

// Circuit holds an insertion-ordered list of components plus the node/branch
// index assignment derived from them.
//
// Grounded on the teacher's pkg/circuit/circuit.go: a lower-cased name map
// for interning (here applied to both nodes and components) and a two-pass
// assignment of indices (AssignNodeBranchMaps: nodes first, by first
// appearance, then one index per relevant device) — generalized here so
// every component gets a branch index, not only voltage sources and
// inductors as in the teacher's conventional MNA.
type Circuit struct {
	components   []Component
	componentIdx map[string]int // lower-cased name -> position in components

	nodeOrder []string       // non-gnd node names in first-appearance order
	nodeIdx   map[string]int // lower-cased name -> 1-based unknown index

	branchIdx map[string]int // lower-cased component name -> 1-based unknown index

	inductors   []*Inductor
	inductorIdx map[string]int // lower-cased inductor name -> handle
	mutuals     []mutualCoupling

	built bool
}

// New returns an empty circuit.
func New() *Circuit {
	return &Circuit{
		componentIdx: make(map[string]int),
		nodeIdx:      make(map[string]int),
		branchIdx:    make(map[string]int),
		inductorIdx:  make(map[string]int),
	}
}

// Add appends a component to the circuit. Component names must be unique,
// case-insensitively, matching original_source Circuit.add_component's
// uniqueness expectation (via get_component lookups).
func (c *Circuit) Add(comp Component) error {
	key := normalizeName(comp.Name())
	if _, exists := c.componentIdx[key]; exists {
		return &circuiterr.DuplicateName{Kind: "component", Name: comp.Name()}
	}

	c.componentIdx[key] = len(c.components)
	c.components = append(c.components, comp)

	if l, ok := comp.(*Inductor); ok {
		l.handle = len(c.inductors)
		c.inductorIdx[key] = l.handle
		c.inductors = append(c.inductors, l)
	}

	c.built = false
	return nil
}

// AddLibraryOpAmp adds an op-amp looked up by model name from pkg/opamp,
// optionally overridden. Grounded on original_source circuit.py's
// add_library_opamp, which merges library defaults with caller overrides
// before constructing the OpAmp.
func (c *Circuit) AddLibraryOpAmp(name, nPlus, nMinus, out, model string, override func(*opamp.Params)) error {
	params, err := opamp.Lookup(normalizeName(model))
	if err != nil {
		return err
	}
	if override != nil {
		override(&params)
	}
	return c.Add(NewOpAmp(name, nPlus, nMinus, out, model, params))
}

// Remove deletes a component by name.
func (c *Circuit) Remove(name string) error {
	key := normalizeName(name)
	idx, ok := c.componentIdx[key]
	if !ok {
		return &circuiterr.NotFound{Kind: "component", Name: name}
	}

	c.components = append(c.components[:idx], c.components[idx+1:]...)
	delete(c.componentIdx, key)
	for n, i := range c.componentIdx {
		if i > idx {
			c.componentIdx[n] = i - 1
		}
	}

	c.built = false
	return nil
}

// LookupComponent finds a component by name, case-insensitively.
func (c *Circuit) LookupComponent(name string) (Component, error) {
	idx, ok := c.componentIdx[normalizeName(name)]
	if !ok {
		return nil, &circuiterr.NotFound{Kind: "component", Name: name}
	}
	return c.components[idx], nil
}

// LookupNode reports whether a node name is present in the circuit (ground
// always is) and returns its canonical (lower-cased) form.
func (c *Circuit) LookupNode(name string) (string, error) {
	key := normalizeName(name)
	if key == Ground {
		return Ground, nil
	}
	if _, ok := c.nodeIdx[key]; ok {
		return key, nil
	}
	for _, comp := range c.components {
		for _, n := range comp.NodeNames() {
			if normalizeName(n) == key {
				return key, nil
			}
		}
	}
	return "", &circuiterr.NotFound{Kind: "node", Name: name}
}

// LookupNoise finds a noise source by its label across every component.
func (c *Circuit) LookupNoise(label string) (NoiseSource, error) {
	for _, comp := range c.components {
		for _, n := range comp.Noise(c) {
			if n.Label == label {
				return n, nil
			}
		}
	}
	return NoiseSource{}, &circuiterr.NotFound{Kind: "noise", Name: label}
}

// Components returns the circuit's components in insertion order.
func (c *Circuit) Components() []Component {
	out := make([]Component, len(c.components))
	copy(out, c.components)
	return out
}

// NoiseSources returns every noise source in the circuit, in component
// insertion order, matching original_source Circuit.noise_sources.
func (c *Circuit) NoiseSources() []NoiseSource {
	var out []NoiseSource
	for _, comp := range c.components {
		out = append(out, comp.Noise(c)...)
	}
	return out
}

func (c *Circuit) inductorHandle(name string) (int, error) {
	h, ok := c.inductorIdx[normalizeName(name)]
	if !ok {
		return 0, &circuiterr.NotFound{Kind: "inductor", Name: name}
	}
	return h, nil
}

// Build assigns unknown indices: non-ground nodes first, in first-appearance
// order, then one branch index per component, in insertion order (spec.md
// §4.3: M = total component count). Build is idempotent; Stamp calls it
// automatically if needed.
func (c *Circuit) Build() error {
	if c.built {
		return nil
	}

	c.nodeOrder = c.nodeOrder[:0]
	for k := range c.nodeIdx {
		delete(c.nodeIdx, k)
	}
	for k := range c.branchIdx {
		delete(c.branchIdx, k)
	}

	if len(c.components) == 0 {
		return &circuiterr.TopologyError{Reason: "circuit has no components"}
	}

	for _, comp := range c.components {
		for _, n := range comp.NodeNames() {
			key := normalizeName(n)
			if key == Ground {
				continue
			}
			if _, ok := c.nodeIdx[key]; !ok {
				c.nodeOrder = append(c.nodeOrder, key)
				c.nodeIdx[key] = len(c.nodeOrder)
			}
		}
	}

	numNodes := len(c.nodeOrder)
	for i, comp := range c.components {
		c.branchIdx[normalizeName(comp.Name())] = numNodes + i + 1
	}

	if err := c.checkTopology(); err != nil {
		return err
	}

	c.built = true
	return nil
}

// checkTopology enforces the invariants every built circuit must satisfy:
// at least one node beyond ground, every mutual-coupling reference resolved
// (already guaranteed at AddMutualInductance time, checked again here
// defensively since components may have been removed since), no op-amp
// driving ground as its output (I3), and no two op-amps driving the same
// output node (spec.md §4.3 stamping failure case (a): ambiguous node
// voltage).
func (c *Circuit) checkTopology() error {
	if len(c.nodeOrder) == 0 {
		return &circuiterr.TopologyError{Reason: "circuit has no non-ground nodes"}
	}
	for _, m := range c.mutuals {
		for _, h := range [2]int{m.a, m.b} {
			if h >= len(c.inductors) {
				return &circuiterr.TopologyError{Reason: "mutual inductance references a removed inductor"}
			}
			idx, ok := c.componentIdx[normalizeName(c.inductors[h].name)]
			if !ok || c.components[idx] != Component(c.inductors[h]) {
				return &circuiterr.TopologyError{Reason: "mutual inductance references a removed inductor"}
			}
		}
	}

	outputOwner := make(map[string]string) // normalized output node -> owning op-amp name
	for _, comp := range c.components {
		op, ok := comp.(*OpAmp)
		if !ok {
			continue
		}
		key := NormalizeNode(op.out)
		if key == Ground {
			return &circuiterr.TopologyError{Reason: fmt.Sprintf("op-amp %s output node must not be ground", op.name)}
		}
		if owner, exists := outputOwner[key]; exists {
			return &circuiterr.TopologyError{Reason: fmt.Sprintf("op-amps %s and %s both drive output node %q", owner, op.name, op.out)}
		}
		outputOwner[key] = op.name
	}

	return nil
}

// NumUnknowns returns the total MNA system size: non-ground nodes plus one
// branch per component.
func (c *Circuit) NumUnknowns() int {
	return len(c.nodeOrder) + len(c.components)
}

// NodeIndex returns node name's 1-based unknown index, or 0 for ground.
// Callers must have Build() the circuit first.
func (c *Circuit) NodeIndex(name string) int {
	key := normalizeName(name)
	if key == Ground {
		return 0
	}
	return c.nodeIdx[key]
}

// BranchIndex returns a component's 1-based branch-current unknown index.
// Callers must have Build() the circuit first.
func (c *Circuit) BranchIndex(name string) int {
	return c.branchIdx[normalizeName(name)]
}

// Stamp builds the circuit's matrix at the given frequency into sys, which
// must already be sized to NumUnknowns(). Grounded on the teacher's
// Circuit.Stamp (a loop calling dev.Stamp for every device); the adjoint
// pass needed by AC noise analysis (C5) is obtained by calling Stamp again
// on a System with Transpose set, not by a second stamping implementation.
func (c *Circuit) Stamp(sys *mna.System, freq float64) error {
	if err := c.Build(); err != nil {
		return err
	}
	for _, comp := range c.components {
		if err := comp.Stamp(c, sys, freq); err != nil {
			return fmt.Errorf("stamping %s: %w", comp.Name(), err)
		}
	}
	return nil
}

// NewSystem allocates an mna.System sized for this circuit. Build is
// invoked first so NumUnknowns is accurate.
func (c *Circuit) NewSystem() (*mna.System, error) {
	if err := c.Build(); err != nil {
		return nil, err
	}
	return mna.New(c.NumUnknowns())
}

// SortedComponentNames returns component names in alphabetical order.
func (c *Circuit) SortedComponentNames() []string {
	names := make([]string, len(c.components))
	for i, comp := range c.components {
		names[i] = comp.Name()
	}
	sort.Strings(names)
	return names
}
