// Machine state fold
//
// Copyright (C) 2026 FGF Postproc Authors
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package toolpath

import (
	"fgf-postproc/pkg/gcode"
)

// DefaultFeedrate is assumed until the stream sets one (mm/min).
const DefaultFeedrate = 1200.0

// DefaultFeature labels paths seen before any TYPE: annotation.
const DefaultFeature = "unknown"

// MachineState is the sequential fold of position, extruder axis and
// accounting mode over the command stream. It is threaded explicitly through
// segmentation; it is never global and never reset between paths.
type MachineState struct {
	X, Y, Z  float64
	E        float64
	Feedrate float64

	// RelativeExtrusion is true after M83, false after M82
	RelativeExtrusion bool

	// Feature is the current feature type from TYPE: annotations
	Feature string
}

// NewMachineState returns the state assumed at stream start.
func NewMachineState() MachineState {
	return MachineState{
		Feedrate: DefaultFeedrate,
		Feature:  DefaultFeature,
	}
}

// Position returns the current position as a Point.
func (s *MachineState) Position() Point {
	return Point{X: s.X, Y: s.Y, Z: s.Z, E: s.E}
}

// Update applies a command's state effects. Commands the engine does not
// account for leave the state untouched.
func (s *MachineState) Update(cmd *gcode.Command) {
	switch cmd.Name {
	case "G0", "G1", "G2", "G3":
		if cmd.Has("X") {
			s.X = cmd.Param("X", s.X)
		}
		if cmd.Has("Y") {
			s.Y = cmd.Param("Y", s.Y)
		}
		if cmd.Has("Z") {
			s.Z = cmd.Param("Z", s.Z)
		}
		if cmd.Has("F") {
			s.Feedrate = cmd.Param("F", s.Feedrate)
		}
		if cmd.Has("E") {
			if s.RelativeExtrusion {
				s.E += cmd.Param("E", 0)
			} else {
				s.E = cmd.Param("E", s.E)
			}
		}
	case "G92":
		if cmd.Has("X") {
			s.X = cmd.Param("X", s.X)
		}
		if cmd.Has("Y") {
			s.Y = cmd.Param("Y", s.Y)
		}
		if cmd.Has("Z") {
			s.Z = cmd.Param("Z", s.Z)
		}
		if cmd.Has("E") {
			s.E = cmd.Param("E", s.E)
		}
	case "M82":
		s.RelativeExtrusion = false
	case "M83":
		s.RelativeExtrusion = true
	}
}

// IsExtrusionMove reports whether cmd is a G1 with planar motion and positive
// extrusion delta under the current accounting mode.
func (s *MachineState) IsExtrusionMove(cmd *gcode.Command) bool {
	if cmd.Name != "G1" {
		return false
	}
	if !cmd.Has("X") && !cmd.Has("Y") {
		return false
	}
	if !cmd.Has("E") {
		return false
	}
	e := cmd.Param("E", 0)
	if s.RelativeExtrusion {
		return e > 0
	}
	return e > s.E
}

// MakeMove builds the Move for an extrusion command from the current state.
// The state itself is not advanced; call Update afterwards.
func (s *MachineState) MakeMove(cmd *gcode.Command) Move {
	start := s.Position()
	end := Point{
		X: cmd.Param("X", s.X),
		Y: cmd.Param("Y", s.Y),
		Z: cmd.Param("Z", s.Z),
	}

	e := cmd.Param("E", s.E)
	var extrusion float64
	if s.RelativeExtrusion {
		end.E = s.E + e
		extrusion = e
	} else {
		end.E = e
		extrusion = e - s.E
	}

	return Move{
		Command:   cmd,
		Start:     start,
		End:       end,
		Length:    start.DistanceXY(end),
		Extrusion: extrusion,
		Feedrate:  cmd.Param("F", s.Feedrate),
	}
}
