// Package toolpath identifies continuous extrusion paths in a G-code stream.
//
// A Path is a maximal contiguous run of extrusion motions between boundary
// events: feature-type changes, wipe windows, travel moves, and extrusion
// mode switches. Extrusion amounts are normalized to per-motion deltas
// regardless of the stream's accounting mode.
//
// Copyright (C) 2026 FGF Postproc Authors
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package toolpath

import (
	"math"

	"fgf-postproc/pkg/gcode"
)

// Point is a toolhead position with its extruder axis value.
type Point struct {
	X, Y, Z float64
	E       float64
}

// DistanceXY returns the planar distance to another point. Ramp arithmetic
// runs on XY arc length; Z motion within an extrusion move does not count.
func (p Point) DistanceXY(o Point) float64 {
	dx := o.X - p.X
	dy := o.Y - p.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// Move is a single extrusion motion inside a path.
type Move struct {
	// Command is the source command
	Command *gcode.Command

	// Start and End are absolute positions; E carries the absolute
	// extruder axis value at each endpoint
	Start, End Point

	// Length is the XY arc length of the motion
	Length float64

	// Extrusion is the per-motion delta, mode-normalized
	Extrusion float64

	// Feedrate is the motion's effective feedrate in mm/min
	Feedrate float64
}

// LineNumber returns the source line of the motion.
func (m Move) LineNumber() int {
	return m.Command.LineNumber
}

// Path is a contiguous run of extrusion motions.
type Path struct {
	Moves     []Move
	Feature   string
	StartLine int
	EndLine   int

	// RelativeExtrusion records the accounting mode the path was parsed
	// under. Mode switches close paths, so it is constant per path.
	RelativeExtrusion bool
}

// TotalLength returns the path's total XY arc length in mm.
func (p *Path) TotalLength() float64 {
	total := 0.0
	for _, m := range p.Moves {
		total += m.Length
	}
	return total
}

// TotalExtrusion returns the path's total extrusion delta.
func (p *Path) TotalExtrusion() float64 {
	total := 0.0
	for _, m := range p.Moves {
		total += m.Extrusion
	}
	return total
}

// MoveCount returns the number of motions in the path.
func (p *Path) MoveCount() int {
	return len(p.Moves)
}
