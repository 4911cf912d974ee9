// Tests for the command model and emitter
//
// Copyright (C) 2026 FGF Postproc Authors
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package gcode

import (
	"strings"
	"testing"
)

func TestUnmodifiedRoundTrip(t *testing.T) {
	lines := []string{
		"G1 X122.244 Y107.133 E.91468",
		"M204 S2000",
		";WIPE_START",
		"G1 F8640 ; reduce feedrate",
		"",
	}
	var p Parser
	for _, line := range lines {
		cmd, err := p.ParseLine(line, 1)
		if err != nil {
			t.Fatalf("ParseLine(%q) failed: %v", line, err)
		}
		if got := cmd.String(); got != line {
			t.Errorf("unmodified line should round-trip: %q -> %q", line, got)
		}
	}
}

func TestTrailingWhitespaceNormalized(t *testing.T) {
	cmd := parseOne(t, "G1 X1 E0.1   ")
	if got := cmd.String(); got != "G1 X1 E0.1" {
		t.Errorf("trailing whitespace should be dropped, got %q", got)
	}
}

func TestModifiedEmissionOrderAndFormats(t *testing.T) {
	cmd := NewMove("G1")
	cmd.SetParam("F", 825.438)
	cmd.SetParam("E", 0.123456789)
	cmd.SetParam("Y", 20.0)
	cmd.SetParam("X", 10.5)

	want := "G1 X10.500 Y20.000 E0.12346 F825.4"
	if got := cmd.String(); got != want {
		t.Errorf("emission should use canonical order and formats:\n got %q\nwant %q", got, want)
	}
}

func TestModifiedEmissionWithZ(t *testing.T) {
	cmd := NewMove("G1")
	cmd.SetParam("X", 1)
	cmd.SetParam("Y", 2)
	cmd.SetParam("Z", 0.4)
	cmd.SetParam("E", 0.05)
	cmd.SetParam("F", 1800)

	want := "G1 X1.000 Y2.000 Z0.400 E0.05000 F1800.0"
	if got := cmd.String(); got != want {
		t.Errorf("Z should emit between Y and E:\n got %q\nwant %q", got, want)
	}
}

func TestSetParamPreservesExtras(t *testing.T) {
	cmd := parseOne(t, "G1 X10 Y20 E0.5 S1 F1200")
	cmd.SetParam("F", 600)

	out := cmd.String()
	if !strings.Contains(out, "F600.0") {
		t.Errorf("modified feedrate should be emitted, got %q", out)
	}
	if !strings.Contains(out, "S1") {
		t.Errorf("non-canonical parameter should survive modification, got %q", out)
	}
}

func TestAppendCommentKeepsOriginal(t *testing.T) {
	cmd := parseOne(t, "G1 X1 Y1 E0.1 ; outer wall")
	cmd.AppendComment("RAMP_UP 45%")

	want := "G1 X1.000 Y1.000 E0.10000 ;outer wall ; RAMP_UP 45%"
	if got := cmd.String(); got != want {
		t.Errorf("comment append:\n got %q\nwant %q", got, want)
	}
}

func TestNewComment(t *testing.T) {
	cmd := NewComment("PRESSURE_SMOOTHING_END")
	if got := cmd.String(); got != ";PRESSURE_SMOOTHING_END" {
		t.Errorf("comment emission should be ;text, got %q", got)
	}
}

func TestCloneIsIndependent(t *testing.T) {
	orig := parseOne(t, "G1 X10 Y20 E0.5 F1200")
	dup := orig.Clone()
	dup.SetParam("F", 300)

	if orig.Modified() {
		t.Error("modifying a clone should not mark the original")
	}
	if got := orig.Param("F", 0); got != 1200 {
		t.Errorf("original F should stay 1200, got %v", got)
	}
	if got := dup.Param("F", 0); got != 300 {
		t.Errorf("clone F should be 300, got %v", got)
	}
}

func TestWriteStream(t *testing.T) {
	var p Parser
	commands, err := p.ParseAll(strings.NewReader("G28\nG1 X1 E0.1\n"))
	if err != nil {
		t.Fatalf("ParseAll failed: %v", err)
	}
	commands = append(commands, NewComment("done"))

	var sb strings.Builder
	if err := Write(&sb, commands); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	want := "G28\nG1 X1 E0.1\n;done\n"
	if sb.String() != want {
		t.Errorf("stream emission:\n got %q\nwant %q", sb.String(), want)
	}
}

func TestReleaseReturnsParamsToPool(t *testing.T) {
	var p Parser
	cmd, err := p.ParseLine("G1 X5 Y2 E0.5 F1200", 1)
	if err != nil {
		t.Fatalf("ParseLine failed: %v", err)
	}
	if len(cmd.Params) != 4 {
		t.Fatalf("expected 4 params, got %d", len(cmd.Params))
	}

	cmd.Release()
	if cmd.Params != nil {
		t.Error("Release should nil out the params map")
	}

	// The recycled map must come back cleared; stale letters would
	// corrupt the next line parsed onto it.
	next, err := p.ParseLine("G1 E1.0", 2)
	if err != nil {
		t.Fatalf("ParseLine failed: %v", err)
	}
	if next.Has("X") || next.Has("F") {
		t.Errorf("recycled params map leaked letters: %v", next.Params)
	}
	if got := next.Param("E", 0); got != 1.0 {
		t.Errorf("E should be 1.0, got %v", got)
	}

	// Releasing twice must be harmless.
	next.Release()
	next.Release()
}
