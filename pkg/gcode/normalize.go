// Stream normalization for output comparison
//
// Output lines are compared modulo the declared normalizations: trailing
// whitespace, line endings, and numeric formatting of parameter values
// ("F1800" and "F1800.0" are the same feedrate).
//
// Copyright (C) 2026 FGF Postproc Authors
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package gcode

import (
	"math"
	"strconv"
	"strings"
)

// NormalizeLine removes trailing whitespace and carriage returns.
func NormalizeLine(line string) string {
	return strings.TrimRight(line, " \t\r")
}

// SplitLines splits a stream into normalized lines. A trailing newline does
// not produce a final empty line.
func SplitLines(s string) []string {
	s = strings.TrimSuffix(strings.ReplaceAll(s, "\r\n", "\n"), "\n")
	if s == "" {
		return nil
	}
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = NormalizeLine(l)
	}
	return lines
}

// EquivalentLine reports whether two lines are the same command modulo
// whitespace and numeric formatting. Comments must match after trimming.
func EquivalentLine(a, b string) bool {
	a, b = NormalizeLine(a), NormalizeLine(b)
	if a == b {
		return true
	}

	aCode, aComment := splitComment(a)
	bCode, bComment := splitComment(b)
	if strings.TrimSpace(aComment) != strings.TrimSpace(bComment) {
		return false
	}

	aFields := strings.Fields(aCode)
	bFields := strings.Fields(bCode)
	if len(aFields) != len(bFields) {
		return false
	}
	for i := range aFields {
		if !equivalentToken(aFields[i], bFields[i]) {
			return false
		}
	}
	return true
}

// EquivalentStreams reports whether two streams are line-for-line equivalent.
func EquivalentStreams(a, b string) bool {
	aLines := SplitLines(a)
	bLines := SplitLines(b)
	if len(aLines) != len(bLines) {
		return false
	}
	for i := range aLines {
		if !EquivalentLine(aLines[i], bLines[i]) {
			return false
		}
	}
	return true
}

func splitComment(line string) (code, comment string) {
	if idx := strings.IndexByte(line, ';'); idx >= 0 {
		return strings.TrimSpace(line[:idx]), line[idx+1:]
	}
	return strings.TrimSpace(line), ""
}

func equivalentToken(a, b string) bool {
	if strings.EqualFold(a, b) {
		return true
	}
	if len(a) < 2 || len(b) < 2 || !strings.EqualFold(a[:1], b[:1]) {
		return false
	}
	av, aerr := strconv.ParseFloat(a[1:], 64)
	bv, berr := strconv.ParseFloat(b[1:], 64)
	if aerr != nil || berr != nil {
		return false
	}
	return math.Abs(av-bv) < 1e-9
}
