// Tests for the machine state fold
//
// Copyright (C) 2026 FGF Postproc Authors
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package toolpath

import (
	"math"
	"testing"

	"fgf-postproc/pkg/gcode"
)

func mustParse(t *testing.T, line string) *gcode.Command {
	t.Helper()
	var p gcode.Parser
	cmd, err := p.ParseLine(line, 1)
	if err != nil {
		t.Fatalf("ParseLine(%q) failed: %v", line, err)
	}
	return cmd
}

func TestStateDefaults(t *testing.T) {
	s := NewMachineState()
	if s.Feedrate != DefaultFeedrate {
		t.Errorf("default feedrate should be %v, got %v", DefaultFeedrate, s.Feedrate)
	}
	if s.Feature != DefaultFeature {
		t.Errorf("default feature should be %q, got %q", DefaultFeature, s.Feature)
	}
	if s.RelativeExtrusion {
		t.Error("extrusion should start absolute")
	}
}

func TestStateMotionUpdate(t *testing.T) {
	s := NewMachineState()
	s.Update(mustParse(t, "G1 X10 Y20 Z0.4 E1.5 F1800"))

	if s.X != 10 || s.Y != 20 || s.Z != 0.4 {
		t.Errorf("position should be (10, 20, 0.4), got (%v, %v, %v)", s.X, s.Y, s.Z)
	}
	if s.E != 1.5 {
		t.Errorf("absolute E should be 1.5, got %v", s.E)
	}
	if s.Feedrate != 1800 {
		t.Errorf("feedrate should be 1800, got %v", s.Feedrate)
	}
}

func TestStateRelativeExtrusionAccumulates(t *testing.T) {
	s := NewMachineState()
	s.Update(mustParse(t, "M83"))
	s.Update(mustParse(t, "G1 X1 E1.0"))
	s.Update(mustParse(t, "G1 X2 E1.0"))

	if !s.RelativeExtrusion {
		t.Error("M83 should enable relative extrusion")
	}
	if s.E != 2.0 {
		t.Errorf("relative E should accumulate to 2.0, got %v", s.E)
	}
}

func TestStateG92Reset(t *testing.T) {
	s := NewMachineState()
	s.Update(mustParse(t, "G1 X5 E10"))
	s.Update(mustParse(t, "G92 E0"))

	if s.E != 0 {
		t.Errorf("G92 E0 should reset E to 0, got %v", s.E)
	}
	if s.X != 5 {
		t.Errorf("G92 E0 should not touch X, got %v", s.X)
	}
}

func TestIsExtrusionMove(t *testing.T) {
	s := NewMachineState()

	cases := []struct {
		line string
		want bool
	}{
		{"G1 X10 E0.5", true},
		{"G1 Y10 E0.5", true},
		{"G0 X10 E0.5", false},  // rapid move is never extrusion
		{"G1 X10", false},       // travel
		{"G1 E0.5", false},      // no planar motion
		{"G1 Z0.4 E0.5", false}, // Z-only
		{"G1 F1800", false},     // feedrate only
		{"G1 X10 E0", false},    // zero delta
		{"G1 X10 E-1", false},   // retraction
	}
	for _, c := range cases {
		if got := s.IsExtrusionMove(mustParse(t, c.line)); got != c.want {
			t.Errorf("IsExtrusionMove(%q) should be %v", c.line, c.want)
		}
	}
}

func TestMakeMoveAbsolute(t *testing.T) {
	s := NewMachineState()
	s.Update(mustParse(t, "G1 X0 Y0 F1200"))
	s.Update(mustParse(t, "G1 X0 E1.0"))

	m := s.MakeMove(mustParse(t, "G1 X3 Y4 E1.5"))
	if m.Length != 5 {
		t.Errorf("length of 3-4-5 move should be 5, got %v", m.Length)
	}
	if math.Abs(m.Extrusion-0.5) > 1e-12 {
		t.Errorf("absolute delta should be 0.5, got %v", m.Extrusion)
	}
	if m.End.E != 1.5 {
		t.Errorf("end E should be 1.5, got %v", m.End.E)
	}
	if m.Feedrate != 1200 {
		t.Errorf("move should inherit modal feedrate 1200, got %v", m.Feedrate)
	}
}

func TestMakeMoveRelative(t *testing.T) {
	s := NewMachineState()
	s.Update(mustParse(t, "M83"))
	s.Update(mustParse(t, "G1 X0 Y0 E2.0"))

	m := s.MakeMove(mustParse(t, "G1 X10 E0.75 F900"))
	if m.Extrusion != 0.75 {
		t.Errorf("relative delta should be 0.75, got %v", m.Extrusion)
	}
	if m.Start.E != 2.0 {
		t.Errorf("start E should carry the accumulator, got %v", m.Start.E)
	}
	if m.End.E != 2.75 {
		t.Errorf("end E should be 2.75, got %v", m.End.E)
	}
	if m.Feedrate != 900 {
		t.Errorf("explicit F should win, got %v", m.Feedrate)
	}
}
