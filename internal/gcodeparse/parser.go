// Package gcodeparse turns one line of G-code text into a structured
// Record. It is a pure function package: no state, no errors — a
// malformed line just produces an empty or partial Record (spec §4.1).
package gcodeparse

import (
	"regexp"
	"strconv"
	"strings"
)

// wordRE matches a single letter-numeric G-code word, e.g. "X-12.5" or
// "G1". Numerics that fail to parse (vanishingly rare given this
// pattern) are silently dropped.
var wordRE = regexp.MustCompile(`([A-Z])([+-]?[0-9]*\.?[0-9]+)`)

// parenRE strips non-nested parenthesized comments.
var parenRE = regexp.MustCompile(`\([^()]*\)`)

// Record is the structured result of parsing one line: a mapping from
// uppercase letter to numeric value for every letter other than G/M, plus
// ordered lists of the G and M numbers that appeared on the line.
type Record struct {
	Words  map[string]float64
	GCodes []int
	MCodes []int
}

// Empty reports whether the record carries no words and no G/M codes —
// the parser's representation of a blank or comment-only line.
func (r *Record) Empty() bool {
	return r == nil || (len(r.Words) == 0 && len(r.GCodes) == 0 && len(r.MCodes) == 0)
}

// Parse parses a single text line into a Record. Returns nil for blank
// or comment-only lines. Semicolon comments run to end-of-line;
// parenthesized comments are stripped assuming non-nested parens.
func Parse(line string) *Record {
	if idx := strings.IndexByte(line, ';'); idx >= 0 {
		line = line[:idx]
	}
	line = parenRE.ReplaceAllString(line, "")
	line = strings.ToUpper(strings.TrimSpace(line))

	if line == "" {
		return nil
	}

	rec := &Record{Words: make(map[string]float64)}

	for _, m := range wordRE.FindAllStringSubmatch(line, -1) {
		letter := m[1]
		value, err := strconv.ParseFloat(m[2], 64)
		if err != nil {
			continue
		}

		switch letter {
		case "G":
			rec.GCodes = append(rec.GCodes, int(value))
		case "M":
			rec.MCodes = append(rec.MCodes, int(value))
		default:
			// Last write wins for duplicate axis/parameter words on one line.
			rec.Words[letter] = value
		}
	}

	if rec.Empty() {
		return nil
	}
	return rec
}
