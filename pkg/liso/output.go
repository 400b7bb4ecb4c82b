package liso

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"

	"github.com/edp1096/circuitcore/pkg/circuiterr"
	"github.com/edp1096/circuitcore/pkg/solution"
)

// ParseOutput implements C8: it reads the reference binary's textual
// output and reconstructs a pkg/solution.Solution, for cross-validation
// against this module's own C4/C5 results. It never touches pkg/circuit —
// per spec.md §4.8 the output parser only reconstructs functions, it does
// not instantiate a circuit.
//
// Format (spec.md §6): a leading block of `#`-prefixed comment lines
// carrying key=value metadata, a blank line, a header row of column
// labels, then one whitespace-separated numeric row per frequency. This
// module pins down the metadata keys and column layout spec.md leaves
// unspecified: `type` (tf|noise), `input` (voltage|current), `sink`
// (noise only — tf functions carry their own sink in each column pair's
// label), `units` and `scales` (comma-separated, one entry per function,
// in column order). Each function occupies two adjacent columns,
// `<label>_re` and `<label>_im`, so the stored complex value round-trips
// exactly rather than through a lossy mag/phase or dB rendering.
func ParseOutput(text string) (*solution.Solution, error) {
	meta := make(map[string]string)
	scanner := bufio.NewScanner(strings.NewReader(text))

	var headerFields []string
	dataStarted := false
	var freqs []float64
	values := make(map[string][]complex128) // keyed by function label

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		raw := scanner.Text()
		trimmed := strings.TrimSpace(raw)

		if !dataStarted {
			if strings.HasPrefix(trimmed, "#") {
				kv := strings.TrimSpace(strings.TrimPrefix(trimmed, "#"))
				if kv == "" {
					continue
				}
				key, value, ok := strings.Cut(kv, "=")
				if ok {
					meta[strings.TrimSpace(key)] = strings.TrimSpace(value)
				}
				continue
			}
			if trimmed == "" {
				continue
			}
			headerFields = strings.Fields(trimmed)
			dataStarted = true
			continue
		}

		if trimmed == "" {
			continue
		}
		fields := strings.Fields(trimmed)
		if len(fields) != len(headerFields) {
			return nil, &circuiterr.ParseError{Line: lineNo, Text: trimmed, Err: fmt.Errorf("expected %d columns, got %d", len(headerFields), len(fields))}
		}

		freq, err := strconv.ParseFloat(fields[0], 64)
		if err != nil {
			return nil, &circuiterr.ParseError{Line: lineNo, Text: fields[0], Err: err}
		}
		freqs = append(freqs, freq)

		for i := 1; i+1 < len(fields); i += 2 {
			label := strings.TrimSuffix(headerFields[i], "_re")
			re, err := strconv.ParseFloat(fields[i], 64)
			if err != nil {
				return nil, &circuiterr.ParseError{Line: lineNo, Text: fields[i], Err: err}
			}
			im, err := strconv.ParseFloat(fields[i+1], 64)
			if err != nil {
				return nil, &circuiterr.ParseError{Line: lineNo, Text: fields[i+1], Err: err}
			}
			values[label] = append(values[label], complex(re, im))
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, &circuiterr.ParseError{Err: err}
	}
	if !dataStarted {
		return nil, &circuiterr.ParseError{Err: fmt.Errorf("no header row found")}
	}

	analysisType := meta["type"]
	sink := meta["sink"]
	units := strings.Split(meta["units"], ",")
	scales := strings.Split(meta["scales"], ",")

	sol := solution.New()
	i := 0
	for col := 1; col+1 < len(headerFields); col += 2 {
		label := strings.TrimSuffix(headerFields[col], "_re")

		key := solution.Key{Source: "input", Sink: label}
		if analysisType == "noise" {
			key = solution.Key{Source: label, Sink: sink}
		}

		var unit, scale string
		if i < len(units) {
			unit = units[i]
		}
		if i < len(scales) {
			scale = scales[i]
		}
		i++

		sol.AddFunction(solution.Function{
			Key:         key,
			Frequencies: freqs,
			Values:      values[label],
			Scale:       solution.ScaleTag(scale),
			Unit:        unit,
		})
	}

	return sol, nil
}
