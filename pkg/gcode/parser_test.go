// Tests for the G-code tokenizer
//
// Copyright (C) 2026 FGF Postproc Authors
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package gcode

import (
	"strings"
	"testing"

	"fgf-postproc/pkg/procerr"
)

func parseOne(t *testing.T, line string) *Command {
	t.Helper()
	var p Parser
	cmd, err := p.ParseLine(line, 1)
	if err != nil {
		t.Fatalf("ParseLine(%q) failed: %v", line, err)
	}
	return cmd
}

func TestParseLinearMove(t *testing.T) {
	cmd := parseOne(t, "G1 X10.5 Y-3.2 E0.91468 F1800")

	if cmd.Name != "G1" {
		t.Errorf("name should be G1, got %q", cmd.Name)
	}
	checks := map[string]float64{"X": 10.5, "Y": -3.2, "E": 0.91468, "F": 1800}
	for letter, want := range checks {
		if got := cmd.Param(letter, 0); got != want {
			t.Errorf("param %s should be %v, got %v", letter, want, got)
		}
	}
}

func TestParseLeadingDotDecimals(t *testing.T) {
	cmd := parseOne(t, "G1 X1.0 E.91468")
	if got := cmd.Param("E", 0); got != 0.91468 {
		t.Errorf("E .91468 should parse as 0.91468, got %v", got)
	}

	cmd = parseOne(t, "G1 X-.5 E.1")
	if got := cmd.Param("X", 0); got != -0.5 {
		t.Errorf("X -.5 should parse as -0.5, got %v", got)
	}
}

func TestParseLowercase(t *testing.T) {
	cmd := parseOne(t, "g1 x10 e0.5")
	if cmd.Name != "G1" {
		t.Errorf("command word should be uppercased, got %q", cmd.Name)
	}
	if got := cmd.Param("X", 0); got != 10 {
		t.Errorf("lowercase x param should parse, got %v", got)
	}
}

func TestParseCommentOnly(t *testing.T) {
	cmd := parseOne(t, ";TYPE:WALL-OUTER")
	if cmd.Name != "" {
		t.Errorf("comment line should have no command, got %q", cmd.Name)
	}
	if cmd.Comment != "TYPE:WALL-OUTER" {
		t.Errorf("comment should be TYPE:WALL-OUTER, got %q", cmd.Comment)
	}
}

func TestParseInlineComment(t *testing.T) {
	cmd := parseOne(t, "G1 X5 Y5 E0.2 ; perimeter")
	if cmd.Comment != "perimeter" {
		t.Errorf("inline comment should be trimmed, got %q", cmd.Comment)
	}
	if got := cmd.Param("Y", 0); got != 5 {
		t.Errorf("params before comment should parse, got Y=%v", got)
	}
}

func TestParseBlankLine(t *testing.T) {
	cmd := parseOne(t, "   ")
	if !cmd.IsBlank() {
		t.Error("whitespace-only line should be blank")
	}
}

func TestParseOpaqueCommand(t *testing.T) {
	cmd := parseOne(t, "M104 S200")
	if cmd.Name != "M104" {
		t.Errorf("name should be M104, got %q", cmd.Name)
	}
	if cmd.Params != nil {
		t.Error("opaque commands should not carry parsed params")
	}
	if cmd.String() != "M104 S200" {
		t.Errorf("opaque command should round-trip raw, got %q", cmd.String())
	}
}

func TestParseFreeTextCommand(t *testing.T) {
	// M117 carries display text; it must never be treated as parameters.
	cmd := parseOne(t, "M117 Printing part 3 of 7...")
	if cmd.Name != "M117" {
		t.Errorf("name should be M117, got %q", cmd.Name)
	}
	if cmd.String() != "M117 Printing part 3 of 7..." {
		t.Errorf("free text should round-trip, got %q", cmd.String())
	}
}

func TestParseParenComment(t *testing.T) {
	cmd := parseOne(t, "G1 (inline note) X5 E0.1")
	if got := cmd.Param("X", 0); got != 5 {
		t.Errorf("params after paren comment should parse, got X=%v", got)
	}
}

func TestParseBareLetterIgnored(t *testing.T) {
	cmd := parseOne(t, "G92 E")
	if cmd.Has("E") {
		t.Error("bare letter should not produce a parameter value")
	}
}

func TestParseMalformedNumber(t *testing.T) {
	var p Parser
	_, err := p.ParseLine("G1 X1.2.3 E0.1", 17)
	if err == nil {
		t.Fatal("malformed numeric parameter should fail")
	}
	if !procerr.IsParse(err) {
		t.Errorf("error should be a parse error, got %v", err)
	}
	if got := procerr.LineOf(err); got != 17 {
		t.Errorf("error should carry line 17, got %d", got)
	}
}

func TestParseMalformedToken(t *testing.T) {
	var p Parser
	_, err := p.ParseLine("G1 X10 =5", 3)
	if err == nil {
		t.Fatal("junk token in a motion command should fail")
	}
}

func TestParseAllNumbersLines(t *testing.T) {
	var p Parser
	input := "G28\nG1 X0 Y0 F3000\n;layer 1\nG1 X10 E0.5\n"
	commands, err := p.ParseAll(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ParseAll failed: %v", err)
	}
	if len(commands) != 4 {
		t.Fatalf("should parse 4 lines, got %d", len(commands))
	}
	for i, cmd := range commands {
		if cmd.LineNumber != i+1 {
			t.Errorf("line %d should be numbered %d, got %d", i, i+1, cmd.LineNumber)
		}
	}
}

func TestParseAllStopsAtFirstError(t *testing.T) {
	var p Parser
	input := "G1 X0 E0.1\nG1 Xbad E0.2\nG1 X2 E0.3\n"
	_, err := p.ParseAll(strings.NewReader(input))
	if err == nil {
		t.Fatal("stream with a malformed line should fail")
	}
	if got := procerr.LineOf(err); got != 2 {
		t.Errorf("error should point at line 2, got %d", got)
	}
}

func TestParseAllWindowsLineEndings(t *testing.T) {
	var p Parser
	commands, err := p.ParseAll(strings.NewReader("G1 X1 E0.1\r\nG1 X2 E0.2\r\n"))
	if err != nil {
		t.Fatalf("ParseAll failed: %v", err)
	}
	if len(commands) != 2 {
		t.Fatalf("should parse 2 lines, got %d", len(commands))
	}
	if strings.ContainsRune(commands[0].Raw, '\r') {
		t.Error("raw line should not retain carriage return")
	}
}
