// Path segmentation
//
// Copyright (C) 2026 FGF Postproc Authors
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package toolpath

import (
	"strings"

	"fgf-postproc/pkg/gcode"
)

// Wipe window markers. No path may start between WIPE_START and WIPE_END.
const (
	wipeStartMarker = "WIPE_START"
	wipeEndMarker   = "WIPE_END"
)

// Segmenter walks a command stream and groups contiguous extrusion motions
// into Paths.
type Segmenter struct {
	state MachineState
}

// NewSegmenter returns a Segmenter with fresh machine state.
func NewSegmenter() *Segmenter {
	return &Segmenter{state: NewMachineState()}
}

// State returns the machine state after the last Segment call. Useful for
// inspecting the final accounting mode in tests.
func (s *Segmenter) State() MachineState {
	return s.state
}

// Segment identifies extrusion paths in the command stream. Commands are
// never consumed: every path motion references its source command, and the
// caller re-interleaves non-path commands by line number.
func (s *Segmenter) Segment(commands []*gcode.Command) []*Path {
	s.state = NewMachineState()

	var paths []*Path
	var current *Path
	inWipe := false

	closeCurrent := func() {
		if current != nil && len(current.Moves) > 0 {
			current.EndLine = current.Moves[len(current.Moves)-1].LineNumber()
			paths = append(paths, current)
		}
		current = nil
	}

	for _, cmd := range commands {
		// Feature annotations close the running path before taking effect.
		if feature, ok := featureType(cmd); ok {
			closeCurrent()
			s.state.Feature = feature
		}

		// Wipe markers close the path and bound the no-start window. The
		// marker line itself never starts a path, but a motion carrying a
		// marker still advances machine state.
		if marker, ok := wipeMarker(cmd); ok {
			closeCurrent()
			inWipe = marker == wipeStartMarker
			s.state.Update(cmd)
			continue
		}

		switch {
		case cmd.Name == "M82" || cmd.Name == "M83" || cmd.Name == "G92":
			// Mode switches and axis resets are path boundaries even when
			// they appear mid-extrusion.
			closeCurrent()
			s.state.Update(cmd)

		case !inWipe && s.state.IsExtrusionMove(cmd):
			if current == nil {
				current = &Path{
					Feature:           s.state.Feature,
					StartLine:         cmd.LineNumber,
					RelativeExtrusion: s.state.RelativeExtrusion,
				}
			}
			current.Moves = append(current.Moves, s.state.MakeMove(cmd))
			s.state.Update(cmd)

		case cmd.Name == "G2" || cmd.Name == "G3":
			// Arc motion breaks path contiguity; its endpoint still counts.
			closeCurrent()
			s.state.Update(cmd)

		case cmd.IsMotion():
			// Travel closes the path; a feedrate-only G1 does not.
			if cmd.Has("X") || cmd.Has("Y") || cmd.Has("Z") {
				closeCurrent()
			}
			s.state.Update(cmd)

		default:
			s.state.Update(cmd)
		}
	}

	closeCurrent()
	return paths
}

// featureType extracts the feature name from a TYPE: annotation comment.
func featureType(cmd *gcode.Command) (string, bool) {
	if cmd.Comment == "" {
		return "", false
	}
	if !strings.Contains(strings.ToUpper(cmd.Comment), "TYPE:") {
		return "", false
	}
	parts := strings.Split(cmd.Comment, ":")
	return strings.TrimSpace(parts[len(parts)-1]), true
}

// wipeMarker reports which wipe marker a comment carries, if any.
func wipeMarker(cmd *gcode.Command) (string, bool) {
	if cmd.Comment == "" {
		return "", false
	}
	if strings.Contains(cmd.Comment, wipeStartMarker) {
		return wipeStartMarker, true
	}
	if strings.Contains(cmd.Comment, wipeEndMarker) {
		return wipeEndMarker, true
	}
	return "", false
}
