// Package quantity implements SI-prefixed numeric values with units:
// parsing, formatting and tolerance-based comparison.
//
// Grounded on the mantissa+prefix parsing idiom of the teacher's
// netlist.ParseValue (toy-spice/pkg/netlist/parser.go), generalized from
// its fixed SPICE-style unit table to the full SI prefix ladder and to
// support formatting as well as parsing.
package quantity

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// relTolerance is the relative tolerance used by Equal, per spec.
const relTolerance = 1e-12

// prefixes maps an SI prefix letter to its power-of-ten multiplier. "u" and
// "µ" both mean micro.
var prefixes = map[byte]float64{
	'y': 1e-24,
	'z': 1e-21,
	'a': 1e-18,
	'f': 1e-15,
	'p': 1e-12,
	'n': 1e-9,
	'u': 1e-6,
	'm': 1e-3,
	'k': 1e3,
	'M': 1e6,
	'G': 1e9,
	'T': 1e12,
	'P': 1e15,
}

// orderedPrefixes lists (exponent, letter) pairs sorted by exponent, used by
// Format to pick the prefix that yields a mantissa in [1, 1000).
var orderedPrefixes = []struct {
	exp    int
	letter string
}{
	{-24, "y"}, {-21, "z"}, {-18, "a"}, {-15, "f"}, {-12, "p"}, {-9, "n"},
	{-6, "u"}, {-3, "m"}, {0, ""}, {3, "k"}, {6, "M"}, {9, "G"}, {12, "T"}, {15, "P"},
}

// mantissaRE captures a real mantissa (with optional exponent), leaving the
// rest of the string (an optional single-byte SI prefix followed by an
// optional unit) for the caller to inspect.
var mantissaRE = regexp.MustCompile(`^([+-]?\d+(?:\.\d+)?(?:[eE][+-]?\d+)?)(.*)$`)

// ParseError is returned for malformed quantity text.
type ParseError struct {
	Text string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("quantity: cannot parse %q", e.Text)
}

// Quantity is a numeric value tagged with a physical unit.
type Quantity struct {
	Value float64
	Unit  string
}

// Parse accepts a real mantissa followed by an optional SI prefix and an
// optional unit string, with both immediately adjacent to the number (e.g.
// "1k", "4.7p", "50", "3.2nV/sqrt(Hz)").
func Parse(text string) (Quantity, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Quantity{}, &ParseError{Text: text}
	}

	// µ is multi-byte in UTF-8; normalize it to ASCII "u" before matching so
	// the single-byte prefix lookup below stays simple.
	normalized := strings.ReplaceAll(text, "µ", "u")

	m := mantissaRE.FindStringSubmatch(normalized)
	if m == nil {
		return Quantity{}, &ParseError{Text: text}
	}

	mantissa, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return Quantity{}, &ParseError{Text: text}
	}

	rest := m[2]
	multiplier := 1.0
	unit := rest
	if len(rest) > 0 {
		if mult, ok := prefixes[rest[0]]; ok {
			multiplier = mult
			unit = rest[1:]
		}
	}

	return Quantity{Value: mantissa * multiplier, Unit: unit}, nil
}

// MustParse is Parse but panics on error; useful for constant tables.
func MustParse(text string) Quantity {
	q, err := Parse(text)
	if err != nil {
		panic(err)
	}
	return q
}

// Format renders the quantity choosing the SI prefix that yields a mantissa
// in [1, 1000).
func (q Quantity) Format() string {
	if q.Value == 0 {
		return fmt.Sprintf("0%s", q.Unit)
	}

	abs := math.Abs(q.Value)
	exp3 := int(math.Floor(math.Log10(abs)/3)) * 3

	var letter string
	found := false
	for _, p := range orderedPrefixes {
		if p.exp == exp3 {
			letter = p.letter
			found = true
			break
		}
	}
	if !found {
		// Outside the y..P ladder: fall back to scientific notation.
		return fmt.Sprintf("%g%s", q.Value, q.Unit)
	}

	mantissa := q.Value / math.Pow10(exp3)
	return fmt.Sprintf("%g%s%s", mantissa, letter, q.Unit)
}

func (q Quantity) String() string { return q.Format() }

// Equal compares numeric value with a relative tolerance of 1e-12, ignoring
// the prefix originally used to write either value; unit strings compare
// case-sensitively.
func (q Quantity) Equal(other Quantity) bool {
	if q.Unit != other.Unit {
		return false
	}
	if q.Value == other.Value {
		return true
	}
	diff := math.Abs(q.Value - other.Value)
	scale := math.Max(math.Abs(q.Value), math.Abs(other.Value))
	return diff <= relTolerance*scale
}
