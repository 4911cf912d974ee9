// Volume-conserving re-segmentation
//
// Motions inside a ramp zone are split into sub-segments whose feedrates
// follow the ramp profile. Extrusion is apportioned strictly by sub-segment
// length, with the final sub-segment of each parent motion taking the exact
// remainder so the parent's extrusion is conserved to machine precision.
// Geometry is linearly interpolated along the parent motion; positions are
// never altered.
//
// Copyright (C) 2026 FGF Postproc Authors
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package smoother

import (
	"fmt"
	"math"

	"fgf-postproc/pkg/gcode"
	"fgf-postproc/pkg/ramp"
	"fgf-postproc/pkg/toolpath"
)

// Phase labels carried on synthesized sub-motions.
const (
	phaseRampUp   = "RAMP_UP"
	phaseRampDown = "RAMP_DOWN"
	phaseSteady   = "STEADY"
)

// Smoothing block markers. The validator and ramp analyzer parse these.
const (
	BlockStartMarker = "PRESSURE_SMOOTHING_START"
	BlockEndMarker   = "PRESSURE_SMOOTHING_END"
)

// arcEps guards boundary comparisons against float slivers.
const arcEps = 1e-9

// subInterval is one piece of a parent motion in path arc space.
type subInterval struct {
	from, to float64
	phase    string
}

// smoothPath rebuilds one accepted path as a bracketed smoothing block.
// The second return is the number of degenerate (zero-length) motions the
// path carried; they pass through unmodified and are counted, not raised.
func smoothPath(path *toolpath.Path, cfg Config, up, down *ramp.Profile) ([]*gcode.Command, int) {
	totalLength := path.TotalLength()
	effUp := ramp.EffectiveLength(cfg.RampUpLength, totalLength)
	effDown := ramp.EffectiveLength(cfg.RampDownLength, totalLength)

	result := make([]*gcode.Command, 0, 2*len(path.Moves)+4)
	result = append(result, gcode.NewComment(fmt.Sprintf(
		" %s: %s, length=%.2fmm", BlockStartMarker, path.Feature, totalLength)))
	result = append(result, gcode.NewComment(fmt.Sprintf(
		" Ramps: up=%.2fmm (%s), down=%.2fmm (%s)",
		effUp, up.Curve(), effDown, down.Curve())))

	rampUpEnd := effUp
	rampDownStart := totalLength - effDown

	cumulative := 0.0
	degenerate := 0
	for i := range path.Moves {
		move := &path.Moves[i]
		moveStart := cumulative
		moveEnd := cumulative + move.Length
		cumulative = moveEnd

		// Zero-length motions pass through; there is no length to
		// apportion extrusion over.
		if move.Length <= arcEps {
			degenerate++
			result = append(result, move.Command)
			continue
		}

		// A motion entirely in the steady region keeps its raw line.
		if moveStart >= rampUpEnd-arcEps && moveEnd <= rampDownStart+arcEps {
			result = append(result, move.Command)
			continue
		}

		subs := cutMove(moveStart, moveEnd, rampUpEnd, rampDownStart, cfg.Resolution)
		result = append(result, emitSubMotions(path, move, moveStart, subs,
			totalLength, effUp, effDown, up, down)...)
	}

	result = append(result, gcode.NewComment(" "+BlockEndMarker))
	return result, degenerate
}

// cutMove splits a motion's arc interval at the ramp-zone boundaries, then
// divides each ramp-side piece into equal sub-intervals no longer than the
// resolution. Steady pieces stay whole.
func cutMove(moveStart, moveEnd, rampUpEnd, rampDownStart, resolution float64) []subInterval {
	cuts := []float64{moveStart}
	if rampUpEnd > moveStart+arcEps && rampUpEnd < moveEnd-arcEps {
		cuts = append(cuts, rampUpEnd)
	}
	if rampDownStart > cuts[len(cuts)-1]+arcEps && rampDownStart < moveEnd-arcEps {
		cuts = append(cuts, rampDownStart)
	}
	cuts = append(cuts, moveEnd)

	var subs []subInterval
	for i := 0; i+1 < len(cuts); i++ {
		from, to := cuts[i], cuts[i+1]
		mid := (from + to) / 2

		var phase string
		switch {
		case mid < rampUpEnd:
			phase = phaseRampUp
		case mid > rampDownStart:
			phase = phaseRampDown
		default:
			phase = phaseSteady
		}

		if phase == phaseSteady {
			subs = append(subs, subInterval{from: from, to: to, phase: phase})
			continue
		}

		n := int(math.Ceil((to - from) / resolution))
		if n < 1 {
			n = 1
		}
		step := (to - from) / float64(n)
		for k := 0; k < n; k++ {
			subs = append(subs, subInterval{
				from:  from + float64(k)*step,
				to:    from + float64(k+1)*step,
				phase: phase,
			})
		}
		// Land the last sub-interval exactly on the cut.
		subs[len(subs)-1].to = to
	}
	return subs
}

// emitSubMotions renders a motion's sub-intervals as G1 commands. The final
// sub-motion takes the parent's exact extrusion remainder, and in absolute
// mode the running E therefore lands exactly on the parent's end value.
func emitSubMotions(path *toolpath.Path, move *toolpath.Move, moveStart float64,
	subs []subInterval, totalLength, effUp, effDown float64,
	up, down *ramp.Profile) []*gcode.Command {

	hasZ := move.Command.Has("Z")
	runningE := move.Start.E
	dispatched := 0.0

	out := make([]*gcode.Command, 0, len(subs))
	for i, sub := range subs {
		length := sub.to - sub.from

		extrusion := move.Extrusion * (length / move.Length)
		if i == len(subs)-1 {
			extrusion = move.Extrusion - dispatched
		}
		dispatched += extrusion

		factor := 1.0
		comment := phaseSteady
		mid := (sub.from + sub.to) / 2
		switch sub.phase {
		case phaseRampUp:
			factor = up.Factor(mid / effUp)
			comment = fmt.Sprintf("%s %.0f%%", phaseRampUp, factor*100)
		case phaseRampDown:
			factor = down.Factor((totalLength - mid) / effDown)
			comment = fmt.Sprintf("%s %.0f%%", phaseRampDown, factor*100)
		}

		// Fraction of the parent motion covered at this sub's endpoint.
		frac := (sub.to - moveStart) / move.Length

		cmd := gcode.NewMove("G1")
		cmd.SetParam("X", lerp(move.Start.X, move.End.X, frac))
		cmd.SetParam("Y", lerp(move.Start.Y, move.End.Y, frac))
		if hasZ {
			cmd.SetParam("Z", lerp(move.Start.Z, move.End.Z, frac))
		}
		if path.RelativeExtrusion {
			cmd.SetParam("E", extrusion)
		} else {
			runningE += extrusion
			cmd.SetParam("E", runningE)
		}
		cmd.SetParam("F", move.Feedrate*factor)
		cmd.AppendComment(comment)
		out = append(out, cmd)
	}
	return out
}

func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}
