// Tests for the orchestrator
//
// Copyright (C) 2026 FGF Postproc Authors
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package smoother

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"fgf-postproc/pkg/gcode"
	"fgf-postproc/pkg/procerr"
)

func renderLines(commands []*gcode.Command) []string {
	lines := make([]string, len(commands))
	for i, cmd := range commands {
		lines[i] = cmd.String()
	}
	return lines
}

func TestPassThroughIdempotence(t *testing.T) {
	input := []string{
		"; generated by slicer",
		"M104 S210",
		"G28",
		"G0 X10 Y10 F6000",
		"G1 X20 Y10 F3000",
		"G1 Z0.3",
		"; done",
	}
	output, stats := process(t, DefaultConfig(), input...)

	if stats.PathsFound != 0 {
		t.Fatalf("stream has no extrusion paths, found %d", stats.PathsFound)
	}
	if diff := cmp.Diff(input, renderLines(output)); diff != "" {
		t.Errorf("pass-through stream changed (-want +got):\n%s", diff)
	}
	if stats.InputLines != len(input) || stats.OutputLines != len(input) {
		t.Errorf("line counts should be exact, got %+v", stats)
	}
}

func TestShortPathSkippedUnchanged(t *testing.T) {
	input := []string{
		"M83",
		"G1 X0 Y0 F1800",
		"G1 X0.5 Y0 E0.25",
		"G0 X10 Y10",
	}
	output, stats := process(t, DefaultConfig(), input...)

	if stats.PathsFound != 1 || stats.PathsSkipped != 1 || stats.PathsProcessed != 0 {
		t.Fatalf("0.5mm path should be skipped, got %+v", stats)
	}
	if diff := cmp.Diff(input, renderLines(output)); diff != "" {
		t.Errorf("skipped path must be emitted unchanged (-want +got):\n%s", diff)
	}
}

func TestModeEquivalence(t *testing.T) {
	// The same physical path under relative and absolute accounting must
	// produce identical sub-motion geometry and feedrates.
	relative, _ := process(t, DefaultConfig(),
		"M83",
		"G1 X0 Y0 F1800",
		"G1 X10 Y0 E1",
		"G1 X20 Y0 E1",
		"G1 X30 Y0 E1",
	)
	absolute, _ := process(t, DefaultConfig(),
		"M82",
		"G92 E0",
		"G1 X0 Y0 F1800",
		"G1 X10 Y0 E1",
		"G1 X20 Y0 E2",
		"G1 X30 Y0 E3",
	)

	type motion struct {
		x, y, f float64
		phase   string
	}
	collect := func(commands []*gcode.Command) []motion {
		var out []motion
		for _, cmd := range commands {
			if cmd.Name == "G1" && cmd.Has("E") {
				out = append(out, motion{
					x:     cmd.Param("X", 0),
					y:     cmd.Param("Y", 0),
					f:     cmd.Param("F", 0),
					phase: cmd.Comment,
				})
			}
		}
		return out
	}

	rel := collect(relative)
	abs := collect(absolute)
	if len(rel) == 0 || len(rel) != len(abs) {
		t.Fatalf("sub-motion counts differ: relative %d, absolute %d", len(rel), len(abs))
	}
	for i := range rel {
		if math.Abs(rel[i].x-abs[i].x) > 1e-9 || math.Abs(rel[i].y-abs[i].y) > 1e-9 {
			t.Errorf("sub %d geometry differs: rel (%.6f,%.6f) abs (%.6f,%.6f)",
				i, rel[i].x, rel[i].y, abs[i].x, abs[i].y)
		}
		if math.Abs(rel[i].f-abs[i].f) > 1e-9 {
			t.Errorf("sub %d feedrate differs: rel %.3f abs %.3f", i, rel[i].f, abs[i].f)
		}
		if rel[i].phase != abs[i].phase {
			t.Errorf("sub %d phase differs: rel %q abs %q", i, rel[i].phase, abs[i].phase)
		}
	}
}

func TestFeatureFilter(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TargetFeatures = []string{"Perimeter"}

	output, stats := process(t, cfg,
		"M83",
		";TYPE:Perimeter",
		"G1 X0 Y0 F1800",
		"G1 X20 Y0 E10",
		"G0 X0 Y10",
		";TYPE:Infill",
		"G1 X0 Y10 F3600",
		"G1 X20 Y10 E10",
	)

	if stats.PathsFound != 2 || stats.PathsProcessed != 1 || stats.PathsSkipped != 1 {
		t.Fatalf("only the perimeter path should be smoothed, got %+v", stats)
	}
	for _, cmd := range output {
		if cmd.Raw == "G1 X20 Y10 E10" && !cmd.Modified() {
			return
		}
	}
	t.Errorf("infill path should be emitted unchanged")
}

func TestNonMotionLinesSurviveReplacement(t *testing.T) {
	// A fan command in the middle of a path is not a boundary. The path's
	// motions are replaced as one block at the first motion's position;
	// the fan line is re-emitted after it, exactly once.
	output, stats := process(t, DefaultConfig(),
		"M83",
		"G1 X0 Y0 F1800",
		"G1 X10 Y0 E5",
		"M106 S255",
		"G1 X20 Y0 E5",
	)
	if stats.PathsFound != 1 || stats.PathsProcessed != 1 {
		t.Fatalf("fan command must not split the path, got %+v", stats)
	}

	fanCount, fanIdx, endIdx := 0, -1, -1
	for i, cmd := range output {
		if cmd.Raw == "M106 S255" {
			fanCount++
			fanIdx = i
		}
		if strings.Contains(cmd.Comment, BlockEndMarker) {
			endIdx = i
		}
	}
	if fanCount != 1 {
		t.Fatalf("fan command should appear exactly once, got %d", fanCount)
	}
	if endIdx < 0 || fanIdx < endIdx {
		t.Errorf("block replaces motions at the first motion's position, fan=%d end=%d", fanIdx, endIdx)
	}
}

func TestNewRejectsBadConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MinSpeedRatio = 1.5
	if _, err := New(cfg, nil); !procerr.IsConfig(err) {
		t.Errorf("min_speed_ratio=1.5 should fail with a config error, got %v", err)
	}

	cfg = DefaultConfig()
	cfg.Resolution = 0
	if _, err := New(cfg, nil); !procerr.IsConfig(err) {
		t.Errorf("resolution=0 should fail with a config error, got %v", err)
	}

	cfg = DefaultConfig()
	cfg.RampUpCurve = "bezier"
	if _, err := New(cfg, nil); !procerr.IsConfig(err) {
		t.Errorf("unknown curve should fail with a config error, got %v", err)
	}

	cfg = DefaultConfig()
	cfg.RampDownLength = -1
	if _, err := New(cfg, nil); !procerr.IsConfig(err) {
		t.Errorf("negative ramp length should fail with a config error, got %v", err)
	}
}

func TestProcessFileRoundTrip(t *testing.T) {
	dir := t.TempDir()
	inPath := filepath.Join(dir, "in.gcode")
	outPath := filepath.Join(dir, "out.gcode")

	input := strings.Join([]string{
		"; test part",
		"M83",
		"G1 X0 Y0 F1800",
		"G1 X20 Y0 E10",
		"G0 X0 Y0",
		"",
	}, "\n")
	if err := os.WriteFile(inPath, []byte(input), 0o644); err != nil {
		t.Fatal(err)
	}

	proc, err := New(DefaultConfig(), nil)
	if err != nil {
		t.Fatal(err)
	}
	stats, err := proc.ProcessFile(inPath, outPath)
	if err != nil {
		t.Fatalf("ProcessFile failed: %v", err)
	}
	if stats.PathsProcessed != 1 {
		t.Errorf("expected 1 processed path, got %+v", stats)
	}

	data, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatal(err)
	}
	text := string(data)
	if !strings.Contains(text, BlockStartMarker) || !strings.Contains(text, BlockEndMarker) {
		t.Errorf("output should carry smoothing block markers")
	}
	if !strings.Contains(text, "; test part") {
		t.Errorf("comments should round-trip verbatim")
	}
}

func TestParseErrorAbortsRun(t *testing.T) {
	dir := t.TempDir()
	inPath := filepath.Join(dir, "bad.gcode")
	outPath := filepath.Join(dir, "out.gcode")

	if err := os.WriteFile(inPath, []byte("G1 X0 Y0\nG1 Xfoo E1\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	proc, err := New(DefaultConfig(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := proc.ProcessFile(inPath, outPath); !procerr.IsParse(err) {
		t.Fatalf("malformed input should surface a parse error, got %v", err)
	}
	if _, err := os.Stat(outPath); !os.IsNotExist(err) {
		t.Errorf("no output file may be written on a fatal parse error")
	}
}
