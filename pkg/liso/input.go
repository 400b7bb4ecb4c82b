package liso

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/edp1096/circuitcore/pkg/analysis"
	"github.com/edp1096/circuitcore/pkg/circuit"
	"github.com/edp1096/circuitcore/pkg/circuiterr"
	"github.com/edp1096/circuitcore/pkg/opamp"
	"github.com/edp1096/circuitcore/pkg/quantity"
)

// AnalysisKind selects which analysis a parsed document drives: uoutput/
// ioutput select Transfer, noise selects Noise. The two are mutually
// exclusive per spec.md §4.7.
type AnalysisKind int

const (
	NoAnalysis AnalysisKind = iota
	TransferAnalysis
	NoiseAnalysisKind
)

// OutputSpec is one uoutput/ioutput entry: a sink name plus its preserved
// (but computationally inert) scale tags.
type OutputSpec struct {
	Name   string
	Scales []string
}

// NoiseSourceSpec is one explicit entry in a `noise` statement's source
// list: a component name plus an optional op-amp port selector
// ("+", "-", "u") or "" for a bare resistor.
type NoiseSourceSpec struct {
	Name string
	Port string
}

// opOverrideMap maps a LISO op-amp override key to the opamp.Params field
// it sets, per spec.md §4.7's literal table.
var opOverrideMap = map[string]string{
	"a0":    "a0",
	"gbw":   "gbw",
	"delay": "delay",
	"un":    "vnoise",
	"uc":    "vcorner",
	"in":    "inoise",
	"ic":    "icorner",
	"umax":  "vmax",
	"imax":  "imax",
	"sr":    "slew",
}

// Document is the result of parsing a LISO input script: the circuit it
// built plus the analysis request the uoutput/ioutput/noise statement
// described. TransferSinks, NoiseSink and NoiseSourceLabels resolve
// "all"/"allop"/"allr" wildcards and input/output labels into the concrete
// Sink/label lists pkg/analysis needs.
type Document struct {
	Circuit     *circuit.Circuit
	Frequencies []float64
	SweepKind   analysis.SweepKind

	Kind AnalysisKind

	voltageOutputs      []OutputSpec
	currentOutputs      []OutputSpec
	outputAllNodes      bool
	outputAllOpampNodes bool
	outputAllComponents bool
	outputAllOpamps     bool

	noiseSink           string
	noiseSources        []NoiseSourceSpec
	noiseAllComponents  bool
	noiseAllOpamps      bool
	noiseAllResistors   bool

	// InputImpedance records uinput/iinput's declared source impedance for
	// display purposes only: per
	// spec.md §3 a voltage Input forbids an impedance field, and scenario 1
	// of spec.md §8 expects the −3dB corner of an RC low-pass to land
	// exactly at 1/(2πRC) with no series source resistance folded in. So,
	// matching that, the declared impedance is carried as metadata and
	// never stamped into the circuit (see DESIGN.md).
	InputImpedance float64

	hasFreq  bool
	hasInput bool
}

// ParseInput parses a complete LISO input script per spec.md §4.7's grammar.
func ParseInput(text string) (*Document, error) {
	lines, err := lex(text)
	if err != nil {
		return nil, err
	}

	doc := &Document{Circuit: circuit.New()}

	for _, ln := range lines {
		keyword, ok := reserved[strings.ToLower(ln.fields[0])]
		if !ok {
			return nil, parseErrf(ln, "unrecognized statement %q", ln.fields[0])
		}
		args := ln.fields[1:]

		var stmtErr error
		switch keyword {
		case "r":
			stmtErr = doc.parsePassive(ln, "r", args)
		case "c":
			stmtErr = doc.parsePassive(ln, "c", args)
		case "l":
			stmtErr = doc.parsePassive(ln, "l", args)
		case "op":
			stmtErr = doc.parseOpAmp(ln, args)
		case "freq":
			stmtErr = doc.parseFreq(ln, args)
		case "uinput":
			stmtErr = doc.parseVoltageInput(ln, args)
		case "iinput":
			stmtErr = doc.parseCurrentInput(ln, args)
		case "uoutput":
			stmtErr = doc.parseVoltageOutput(ln, args)
		case "ioutput":
			stmtErr = doc.parseCurrentOutput(ln, args)
		case "noise":
			stmtErr = doc.parseNoise(ln, args)
		}
		if stmtErr != nil {
			return nil, stmtErr
		}
	}

	if !doc.hasFreq {
		return nil, &circuiterr.ParseError{Err: fmt.Errorf("missing freq statement")}
	}
	if doc.Kind == NoAnalysis {
		return nil, &circuiterr.ParseError{Err: fmt.Errorf("missing uoutput/ioutput/noise statement")}
	}

	return doc, nil
}

func parseValue(ln line, text string) (float64, error) {
	q, err := quantity.Parse(text)
	if err != nil {
		return 0, parseErrf(ln, "invalid numeric value %q", text)
	}
	return q.Value, nil
}

// parsePassive handles the r/c/l statements: grounded on original_source's
// parse_passive, which is identical across all three component types
// except for which Circuit constructor it calls.
func (d *Document) parsePassive(ln line, kind string, args []string) error {
	if len(args) != 4 {
		return parseErrf(ln, "%s takes exactly 4 arguments (name value n1 n2), got %d", kind, len(args))
	}
	name, valueText, n1, n2 := args[0], args[1], args[2], args[3]

	value, err := parseValue(ln, valueText)
	if err != nil {
		return err
	}

	var comp circuit.Component
	switch kind {
	case "r":
		comp, err = circuit.NewResistor(name, n1, n2, value)
	case "c":
		comp, err = circuit.NewCapacitor(name, n1, n2, value)
	case "l":
		comp, err = circuit.NewInductor(name, n1, n2, value)
	}
	if err != nil {
		return parseErrf(ln, "%v", err)
	}
	if err := d.Circuit.Add(comp); err != nil {
		return parseErrf(ln, "%v", err)
	}
	return nil
}

// parseOpAmp handles `op name model n+ n- nout [k=v ...]`, grounded on
// original_source's parse_library_opamp/_parse_op_amp_overrides.
func (d *Document) parseOpAmp(ln line, args []string) error {
	if len(args) < 5 {
		return parseErrf(ln, "op takes at least 5 arguments (name model n+ n- nout), got %d", len(args))
	}
	name, model, nPlus, nMinus, nOut := args[0], args[1], args[2], args[3], args[4]

	overrides := make(map[string]string)
	for _, tok := range args[5:] {
		key, value, ok := strings.Cut(tok, "=")
		if !ok {
			return parseErrf(ln, "malformed op-amp override %q", tok)
		}
		field, known := opOverrideMap[key]
		if !known {
			return parseErrf(ln, "unknown op-amp parameter override %q", key)
		}
		overrides[field] = value
	}

	var applyErr error
	err := d.Circuit.AddLibraryOpAmp(name, nPlus, nMinus, nOut, model, func(p *opamp.Params) {
		for field, text := range overrides {
			v, err := parseValue(ln, text)
			if err != nil {
				applyErr = err
				return
			}
			setOpAmpField(p, field, v)
		}
	})
	if err != nil {
		return parseErrf(ln, "%v", err)
	}
	if applyErr != nil {
		return applyErr
	}
	return nil
}

// setOpAmpField assigns a parsed override value to the opamp.Params field
// named by opOverrideMap's value side.
func setOpAmpField(p *opamp.Params, field string, v float64) {
	switch field {
	case "a0":
		p.A0 = v
	case "gbw":
		p.GBW = v
	case "delay":
		p.Delay = v
	case "vnoise":
		p.VNoise = v
	case "vcorner":
		p.VCorner = v
	case "inoise":
		p.INoise = v
	case "icorner":
		p.ICorner = v
	case "vmax":
		p.VMax = v
	case "imax":
		p.IMax = v
	case "slew":
		p.Slew = v
	}
}

// parseFreq handles `freq lin|log start stop steps`.
func (d *Document) parseFreq(ln line, args []string) error {
	if d.hasFreq {
		return parseErrf(ln, "freq statement given more than once")
	}
	if len(args) != 4 {
		return parseErrf(ln, "freq takes exactly 4 arguments (lin|log start stop steps), got %d", len(args))
	}

	var kind analysis.SweepKind
	switch strings.ToLower(args[0]) {
	case "lin":
		kind = analysis.Linear
	case "log":
		kind = analysis.Logarithmic
	default:
		return parseErrf(ln, "freq sweep must be lin or log, got %q", args[0])
	}

	start, err := parseValue(ln, args[1])
	if err != nil {
		return err
	}
	stop, err := parseValue(ln, args[2])
	if err != nil {
		return err
	}
	steps, err := strconv.Atoi(args[3])
	if err != nil {
		return parseErrf(ln, "invalid step count %q", args[3])
	}

	freqs, err := analysis.Frequencies(kind, start, stop, steps)
	if err != nil {
		return parseErrf(ln, "%v", err)
	}

	d.Frequencies = freqs
	d.SweepKind = kind
	d.hasFreq = true
	return nil
}

// parseVoltageInput handles `uinput n+ [n- [Z]]`, grounded on
// original_source's parse_voltage_input.
func (d *Document) parseVoltageInput(ln line, args []string) error {
	if len(args) < 1 || len(args) > 3 {
		return parseErrf(ln, "uinput takes 1 to 3 arguments, got %d", len(args))
	}

	nPlus := args[0]
	nMinus := circuit.Ground
	impedance := 50.0

	switch len(args) {
	case 2:
		v, err := parseValue(ln, args[1])
		if err != nil {
			return err
		}
		impedance = v
	case 3:
		nMinus = args[1]
		v, err := parseValue(ln, args[2])
		if err != nil {
			return err
		}
		impedance = v
	}

	if err := d.Circuit.Add(circuit.NewVoltageInput(nMinus, nPlus)); err != nil {
		return parseErrf(ln, "%v", err)
	}
	d.InputImpedance = impedance
	d.hasInput = true
	return nil
}

// parseCurrentInput handles `iinput n+ [Z]`, grounded on original_source's
// parse_current_input.
func (d *Document) parseCurrentInput(ln line, args []string) error {
	if len(args) < 1 || len(args) > 2 {
		return parseErrf(ln, "iinput takes 1 or 2 arguments, got %d", len(args))
	}

	impedance := 50.0
	if len(args) == 2 {
		v, err := parseValue(ln, args[1])
		if err != nil {
			return err
		}
		impedance = v
	}

	if err := d.Circuit.Add(circuit.NewCurrentInput(circuit.Ground, args[0])); err != nil {
		return parseErrf(ln, "%v", err)
	}
	d.InputImpedance = impedance
	d.hasInput = true
	return nil
}

func (d *Document) parseVoltageOutput(ln line, args []string) error {
	if len(args) < 1 {
		return parseErrf(ln, "uoutput takes at least 1 argument")
	}
	if d.Kind == NoiseAnalysisKind {
		return parseErrf(ln, "uoutput cannot be combined with a noise statement")
	}
	d.Kind = TransferAnalysis

	for _, spec := range args {
		name, scales := splitSpec(spec)
		switch strings.ToLower(name) {
		case "all":
			d.outputAllNodes = true
		case "allop":
			d.outputAllOpampNodes = true
		default:
			d.voltageOutputs = append(d.voltageOutputs, OutputSpec{Name: name, Scales: scales})
		}
	}
	return nil
}

func (d *Document) parseCurrentOutput(ln line, args []string) error {
	if len(args) < 1 {
		return parseErrf(ln, "ioutput takes at least 1 argument")
	}
	if d.Kind == NoiseAnalysisKind {
		return parseErrf(ln, "ioutput cannot be combined with a noise statement")
	}
	d.Kind = TransferAnalysis

	for _, spec := range args {
		name, scales := splitSpec(spec)
		switch strings.ToLower(name) {
		case "all":
			d.outputAllComponents = true
		case "allop":
			d.outputAllOpamps = true
		default:
			d.currentOutputs = append(d.currentOutputs, OutputSpec{Name: name, Scales: scales})
		}
	}
	return nil
}

// parseNoise handles `noise sink [source ...]`, grounded on
// original_source's parse_noise_output.
func (d *Document) parseNoise(ln line, args []string) error {
	if len(args) < 1 {
		return parseErrf(ln, "noise takes at least 1 argument")
	}
	if d.Kind == TransferAnalysis {
		return parseErrf(ln, "noise cannot be combined with a uoutput/ioutput statement")
	}
	d.Kind = NoiseAnalysisKind
	d.noiseSink = args[0]

	for _, spec := range args[1:] {
		name, port, _ := strings.Cut(spec, ":")
		switch strings.ToLower(name) {
		case "all":
			d.noiseAllComponents = true
		case "allop":
			d.noiseAllOpamps = true
		case "allr":
			d.noiseAllResistors = true
		case "sum":
			return &circuiterr.NotSupported{Feature: "noise sum pseudo-source"}
		default:
			d.noiseSources = append(d.noiseSources, NoiseSourceSpec{Name: name, Port: port})
		}
	}
	return nil
}

// splitSpec splits a `node[:scale...]` output spec into its name and its
// preserved-but-inert scale tags, per spec.md §4.7.
func splitSpec(spec string) (string, []string) {
	parts := strings.Split(spec, ":")
	return parts[0], parts[1:]
}

// TransferSinks resolves this document's uoutput/ioutput statements
// (including "all"/"allop" wildcards) into concrete Sink values plus a
// parallel scale-tag map keyed by sink name, per spec.md §4.7.
func (d *Document) TransferSinks() ([]analysis.Sink, map[string][]string, error) {
	var sinks []analysis.Sink
	scales := make(map[string][]string)

	for _, o := range d.voltageOutputs {
		if _, err := d.Circuit.LookupNode(o.Name); err != nil {
			return nil, nil, err
		}
		sinks = append(sinks, analysis.Sink{Name: o.Name})
		scales[o.Name] = o.Scales
	}
	if d.outputAllNodes {
		for _, name := range d.allNodeNames() {
			if _, ok := scales[name]; ok {
				continue
			}
			sinks = append(sinks, analysis.Sink{Name: name})
		}
	}
	if d.outputAllOpampNodes {
		for _, name := range d.opampOutputNodes() {
			if _, ok := scales[name]; ok {
				continue
			}
			sinks = append(sinks, analysis.Sink{Name: name})
		}
	}

	for _, o := range d.currentOutputs {
		if _, err := d.Circuit.LookupComponent(o.Name); err != nil {
			return nil, nil, err
		}
		sinks = append(sinks, analysis.Sink{Name: o.Name, Branch: true})
		scales[o.Name] = o.Scales
	}
	if d.outputAllComponents {
		for _, comp := range d.Circuit.Components() {
			if comp.Name() == "input" {
				continue
			}
			if _, ok := scales[comp.Name()]; ok {
				continue
			}
			sinks = append(sinks, analysis.Sink{Name: comp.Name(), Branch: true})
		}
	}
	if d.outputAllOpamps {
		for _, comp := range d.Circuit.Components() {
			if _, ok := comp.(*circuit.OpAmp); ok {
				sinks = append(sinks, analysis.Sink{Name: comp.Name(), Branch: true})
			}
		}
	}

	return sinks, scales, nil
}

// NoiseSink resolves the `noise` statement's sink node/branch.
func (d *Document) NoiseSink() (analysis.Sink, error) {
	if _, err := d.Circuit.LookupComponent(d.noiseSink); err == nil {
		return analysis.Sink{Name: d.noiseSink, Branch: true}, nil
	}
	if _, err := d.Circuit.LookupNode(d.noiseSink); err != nil {
		return analysis.Sink{}, err
	}
	return analysis.Sink{Name: d.noiseSink}, nil
}

// NoiseSourceLabels resolves the `noise` statement's source list
// (including all/allop/allr wildcards and explicit name[:port] entries)
// into concrete pkg/circuit.NoiseSource labels.
func (d *Document) NoiseSourceLabels() ([]string, error) {
	if len(d.noiseSources) == 0 && !d.noiseAllComponents && !d.noiseAllOpamps && !d.noiseAllResistors {
		// No sources named: LISO's own default is every noise source in
		// the circuit, matching original_source's behaviour when
		// _source_all_components and friends are all left false but no
		// individual definitions were added either.
		d.noiseAllComponents = true
	}

	seen := make(map[string]bool)
	var labels []string
	add := func(label string) {
		if !seen[label] {
			seen[label] = true
			labels = append(labels, label)
		}
	}

	all := d.Circuit.NoiseSources()
	if d.noiseAllComponents {
		for _, ns := range all {
			add(ns.Label)
		}
	}
	if d.noiseAllResistors {
		for _, ns := range all {
			if strings.HasPrefix(ns.Label, "R(") {
				add(ns.Label)
			}
		}
	}
	if d.noiseAllOpamps {
		for _, ns := range all {
			if strings.HasPrefix(ns.Label, "V(") || strings.HasPrefix(ns.Label, "I(") {
				add(ns.Label)
			}
		}
	}

	for _, spec := range d.noiseSources {
		label, err := d.resolveNoiseSourceLabel(spec)
		if err != nil {
			return nil, err
		}
		add(label)
	}

	return labels, nil
}

func (d *Document) resolveNoiseSourceLabel(spec NoiseSourceSpec) (string, error) {
	comp, err := d.Circuit.LookupComponent(spec.Name)
	if err != nil {
		return "", err
	}

	switch strings.ToLower(spec.Port) {
	case "":
		return fmt.Sprintf("R(%s)", comp.Name()), nil
	case "u":
		return fmt.Sprintf("V(%s)", comp.Name()), nil
	case "+":
		nodes := comp.NodeNames()
		if len(nodes) < 1 {
			return "", fmt.Errorf("liso: %s has no non-inverting input node", spec.Name)
		}
		return fmt.Sprintf("I(%s, %s)", comp.Name(), nodes[0]), nil
	case "-":
		nodes := comp.NodeNames()
		if len(nodes) < 2 {
			return "", fmt.Errorf("liso: %s has no inverting input node", spec.Name)
		}
		return fmt.Sprintf("I(%s, %s)", comp.Name(), nodes[1]), nil
	default:
		return "", fmt.Errorf("liso: unrecognized op-amp noise port %q", spec.Port)
	}
}

func (d *Document) allNodeNames() []string {
	seen := make(map[string]bool)
	var names []string
	for _, comp := range d.Circuit.Components() {
		for _, n := range comp.NodeNames() {
			key := circuit.NormalizeNode(n)
			if key == circuit.Ground || seen[key] {
				continue
			}
			seen[key] = true
			names = append(names, key)
		}
	}
	return names
}

func (d *Document) opampOutputNodes() []string {
	var names []string
	for _, comp := range d.Circuit.Components() {
		if op, ok := comp.(*circuit.OpAmp); ok {
			nodes := op.NodeNames()
			names = append(names, nodes[len(nodes)-1])
		}
	}
	return names
}
