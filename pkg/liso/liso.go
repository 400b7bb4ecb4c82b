// Package liso implements the LISO-compatible DSL front end: C7 parses a
// netlist/analysis script into a pkg/circuit.Circuit plus an analysis
// request, and C8 parses the reference binary's textual output back into a
// pkg/solution.Solution for cross-validation.
//
// Grounded on original_source/circuit/liso/input.py's PLY-based lexer and
// grammar, re-expressed per spec.md §9's design note as a hand-written
// recursive-descent parser over a line tokenizer, in the teacher's own
// line-oriented scanning style (pkg/netlist/parser.go's
// bufio.Scanner/strings.Fields, before that package was retired — see
// DESIGN.md).
package liso

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/edp1096/circuitcore/pkg/circuiterr"
)

// chunkRE matches one LISO CHUNK token. original_source's t_CHUNK rule is
// [a-zA-Z0-9_=.:]+, but its own noise-port grammar (parse_noise_output)
// expects "+"/"-" as standalone port selectors after a ":" — a token that
// rule can't actually produce. This lexer widens the class to include +/-
// so `noise sink opamp:+`/`opamp:-` lex at all; see DESIGN.md.
var chunkRE = regexp.MustCompile(`^[A-Za-z0-9_=.:+-]+$`)

// reserved maps a line's first chunk (lower-cased) to the instruction it
// selects. Anything else is not a recognized statement keyword.
var reserved = map[string]string{
	"r":       "r",
	"c":       "c",
	"l":       "l",
	"op":      "op",
	"freq":    "freq",
	"uinput":  "uinput",
	"iinput":  "iinput",
	"uoutput": "uoutput",
	"ioutput": "ioutput",
	"noise":   "noise",
}

// line is one tokenized, non-blank, comment-stripped source line.
type line struct {
	no     int
	fields []string
}

// lex splits text into tokenized lines: comments (# to end of line) are
// discarded, blank lines are dropped, and every remaining field must match
// chunkRE or the line fails with a ParseError naming the offending token.
func lex(text string) ([]line, error) {
	var out []line
	for i, raw := range strings.Split(text, "\n") {
		lineNo := i + 1

		content := raw
		if idx := strings.IndexByte(content, '#'); idx >= 0 {
			content = content[:idx]
		}
		content = strings.TrimSpace(content)
		if content == "" {
			continue
		}

		fields := strings.Fields(content)
		for _, f := range fields {
			if !chunkRE.MatchString(f) {
				return nil, &circuiterr.ParseError{Line: lineNo, Text: f, Err: fmt.Errorf("illegal token")}
			}
		}

		out = append(out, line{no: lineNo, fields: fields})
	}
	return out, nil
}

func parseErrf(ln line, format string, args ...interface{}) error {
	return &circuiterr.ParseError{Line: ln.no, Text: strings.Join(ln.fields, " "), Err: fmt.Errorf(format, args...)}
}
