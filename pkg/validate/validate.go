// Package validate re-checks processed G-code output against its input.
//
// The validator parses both files independently of the smoothing pipeline,
// sums positive extrusion deltas under a mode-aware fold, and compares the
// totals. Volume is considered conserved when the relative difference is
// below 0.01%. It also counts smoothing blocks and phase-tagged sub-motions
// so the orchestrator's statistics can be cross-checked.
//
// Copyright (C) 2026 FGF Postproc Authors
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package validate

import (
	"fmt"
	"io"
	"math"
	"strings"

	"fgf-postproc/pkg/gcode"
	"fgf-postproc/pkg/procerr"
	"fgf-postproc/pkg/smoother"
)

// VolumeTolerancePct is the documented acceptance threshold for volume
// conservation, as a percentage of total input extrusion.
const VolumeTolerancePct = 0.01

// FileStats summarizes one G-code file.
type FileStats struct {
	TotalLines      int
	MotionLines     int
	ExtrusionMoves  int
	TotalExtrusion  float64
	MinFeedrate     float64
	MaxFeedrate     float64
	SmoothingBlocks int
	RampUpMoves     int
	RampDownMoves   int
	SteadyMoves     int
}

// AnalyzeFile parses a file and folds its extrusion accounting. The parsed
// commands are owned here and released back to the parameter pool once the
// fold is done.
func AnalyzeFile(path string) (FileStats, error) {
	commands, err := gcode.ParseFile(path)
	if err != nil {
		return FileStats{}, procerr.Wrap(err, procerr.ErrValidateIO,
			fmt.Sprintf("cannot analyze %s", path))
	}
	stats := Analyze(commands)
	for _, cmd := range commands {
		cmd.Release()
	}
	return stats, nil
}

// Analyze folds extrusion accounting over a parsed stream.
func Analyze(commands []*gcode.Command) FileStats {
	stats := FileStats{MinFeedrate: math.Inf(1)}

	relative := false
	currentE := 0.0

	for _, cmd := range commands {
		stats.TotalLines++

		if strings.Contains(cmd.Comment, smoother.BlockStartMarker) {
			stats.SmoothingBlocks++
		}

		switch cmd.Name {
		case "M83":
			relative = true
			continue
		case "M82":
			relative = false
			continue
		case "G92":
			if cmd.Has("E") {
				currentE = cmd.Param("E", currentE)
			}
			continue
		case "G1":
		default:
			continue
		}

		stats.MotionLines++
		if cmd.Has("F") {
			f := cmd.Param("F", 0)
			stats.MinFeedrate = math.Min(stats.MinFeedrate, f)
			stats.MaxFeedrate = math.Max(stats.MaxFeedrate, f)
		}
		if cmd.Has("E") {
			e := cmd.Param("E", 0)
			if relative {
				if e > 0 {
					stats.TotalExtrusion += e
					stats.ExtrusionMoves++
				}
			} else {
				if e > currentE {
					stats.TotalExtrusion += e - currentE
					stats.ExtrusionMoves++
				}
				currentE = e
			}
		}

		switch {
		case strings.Contains(cmd.Comment, "RAMP_UP"):
			stats.RampUpMoves++
		case strings.Contains(cmd.Comment, "RAMP_DOWN"):
			stats.RampDownMoves++
		case strings.Contains(cmd.Comment, "STEADY"):
			stats.SteadyMoves++
		}
	}

	if math.IsInf(stats.MinFeedrate, 1) {
		stats.MinFeedrate = 0
	}
	return stats
}

// Result is the outcome of comparing input against output.
type Result struct {
	Input  FileStats
	Output FileStats

	VolumeDiff    float64
	VolumeDiffPct float64

	VolumeConserved  bool
	FeedratePositive bool
	SmoothingApplied bool
}

// Compare analyzes both files and validates the transformation.
func Compare(inputPath, outputPath string) (*Result, error) {
	input, err := AnalyzeFile(inputPath)
	if err != nil {
		return nil, err
	}
	output, err := AnalyzeFile(outputPath)
	if err != nil {
		return nil, err
	}
	return CompareStats(input, output), nil
}

// CompareStats validates already-folded statistics.
func CompareStats(input, output FileStats) *Result {
	r := &Result{Input: input, Output: output}

	r.VolumeDiff = math.Abs(output.TotalExtrusion - input.TotalExtrusion)
	if input.TotalExtrusion > 0 {
		r.VolumeDiffPct = r.VolumeDiff / input.TotalExtrusion * 100
	}
	r.VolumeConserved = r.VolumeDiffPct < VolumeTolerancePct
	r.FeedratePositive = output.MinFeedrate > 0 || output.MotionLines == 0
	r.SmoothingApplied = output.SmoothingBlocks > 0

	return r
}

// Err returns the validation failure, or nil when the output passed.
// Missing smoothing blocks are not an error: a stream with no qualifying
// paths legitimately produces none.
func (r *Result) Err() error {
	if !r.VolumeConserved {
		return procerr.VolumeError(fmt.Sprintf(
			"extrusion volume differs by %.5f (%.4f%%), tolerance %.2f%%",
			r.VolumeDiff, r.VolumeDiffPct, VolumeTolerancePct))
	}
	if !r.FeedratePositive {
		return procerr.New(procerr.ErrValidateVolume,
			fmt.Sprintf("output contains a non-positive feedrate (%.1f)", r.Output.MinFeedrate))
	}
	return nil
}

// Report renders the validation report.
func (r *Result) Report(w io.Writer) {
	line := strings.Repeat("=", 60)
	sep := strings.Repeat("-", 60)

	fmt.Fprintln(w, line)
	fmt.Fprintln(w, "POST-PROCESSING VALIDATION")
	fmt.Fprintln(w, line)

	writeStats := func(label string, s FileStats) {
		fmt.Fprintln(w, sep)
		fmt.Fprintf(w, "%s:\n", label)
		fmt.Fprintf(w, "  Total lines:       %d\n", s.TotalLines)
		fmt.Fprintf(w, "  Motion lines:      %d\n", s.MotionLines)
		fmt.Fprintf(w, "  Extrusion moves:   %d\n", s.ExtrusionMoves)
		fmt.Fprintf(w, "  Total extrusion:   %.5f\n", s.TotalExtrusion)
		fmt.Fprintf(w, "  Feedrate min/max:  %.1f / %.1f\n", s.MinFeedrate, s.MaxFeedrate)
	}
	writeStats("INPUT", r.Input)
	writeStats("OUTPUT", r.Output)
	fmt.Fprintf(w, "  Smoothing blocks:  %d\n", r.Output.SmoothingBlocks)
	fmt.Fprintf(w, "  RAMP_UP moves:     %d\n", r.Output.RampUpMoves)
	fmt.Fprintf(w, "  STEADY moves:      %d\n", r.Output.SteadyMoves)
	fmt.Fprintf(w, "  RAMP_DOWN moves:   %d\n", r.Output.RampDownMoves)

	fmt.Fprintln(w, line)
	fmt.Fprintln(w, "CHECKS:")
	if r.VolumeConserved {
		fmt.Fprintf(w, "  [OK] Extrusion volume conserved (diff: %.5f, %.4f%%)\n",
			r.VolumeDiff, r.VolumeDiffPct)
	} else {
		fmt.Fprintf(w, "  [!!] Extrusion volume DIFFERS (diff: %.5f, %.2f%%)\n",
			r.VolumeDiff, r.VolumeDiffPct)
	}
	if r.FeedratePositive {
		fmt.Fprintf(w, "  [OK] Minimum feedrate > 0 (%.1f)\n", r.Output.MinFeedrate)
	} else {
		fmt.Fprintf(w, "  [!!] Minimum feedrate = %.1f\n", r.Output.MinFeedrate)
	}
	if r.SmoothingApplied {
		fmt.Fprintf(w, "  [OK] Smoothing applied to %d paths\n", r.Output.SmoothingBlocks)
	} else {
		fmt.Fprintln(w, "  [--] No smoothing blocks found")
	}

	total := r.Output.RampUpMoves + r.Output.SteadyMoves + r.Output.RampDownMoves
	if total > 0 {
		fmt.Fprintf(w, "  [INFO] Phase distribution: RAMP_UP %.1f%%, STEADY %.1f%%, RAMP_DOWN %.1f%%\n",
			float64(r.Output.RampUpMoves)/float64(total)*100,
			float64(r.Output.SteadyMoves)/float64(total)*100,
			float64(r.Output.RampDownMoves)/float64(total)*100)
	}
	fmt.Fprintln(w, line)
}
