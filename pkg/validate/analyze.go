// Ramp zone analysis of processed output
//
// Parses a processed file's smoothing markers and reports, per block, the
// configured versus actual ramp lengths and the speed-factor ranges of each
// ramp phase.
//
// Copyright (C) 2026 FGF Postproc Authors
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package validate

import (
	"fmt"
	"io"
	"math"
	"regexp"
	"strconv"
	"strings"

	"fgf-postproc/pkg/gcode"
	"fgf-postproc/pkg/procerr"
	"fgf-postproc/pkg/smoother"
)

var (
	reBlockLength = regexp.MustCompile(`length=(\d+(?:\.\d+)?)mm`)
	reRampUp      = regexp.MustCompile(`up=(\d+(?:\.\d+)?)mm`)
	reRampDown    = regexp.MustCompile(`down=(\d+(?:\.\d+)?)mm`)
	rePhasePct    = regexp.MustCompile(`(RAMP_UP|RAMP_DOWN) (\d+)%`)
)

// Block is the analysis of one smoothing block.
type Block struct {
	PathLength     float64
	ConfigRampUp   float64
	ConfigRampDown float64
	ActualRampUp   float64
	ActualRampDown float64
	Moves          int

	// Speed factors as integer percentages, per ramp phase
	UpFactorMin, UpFactorMax     int
	DownFactorMin, DownFactorMax int
}

// blockMove is one sub-motion inside a block.
type blockMove struct {
	x, y   float64
	length float64
	phase  string
	pct    int
}

// AnalyzeRamps parses the smoothing blocks of a processed file. maxBlocks
// bounds the report; 0 means all.
func AnalyzeRamps(path string, maxBlocks int) ([]Block, error) {
	commands, err := gcode.ParseFile(path)
	if err != nil {
		return nil, procerr.Wrap(err, procerr.ErrValidateIO,
			fmt.Sprintf("cannot analyze %s", path))
	}
	// Blocks carry only folded numbers; the commands can go back to the
	// parameter pool on every exit path.
	defer func() {
		for _, cmd := range commands {
			cmd.Release()
		}
	}()

	var blocks []Block
	var current *Block
	var moves []blockMove
	haveXY := false
	var lastX, lastY float64

	for _, cmd := range commands {
		switch {
		case strings.Contains(cmd.Comment, smoother.BlockStartMarker):
			current = &Block{}
			moves = nil
			haveXY = false
			if m := reBlockLength.FindStringSubmatch(cmd.Comment); m != nil {
				current.PathLength, _ = strconv.ParseFloat(m[1], 64)
			}

		case current != nil && strings.Contains(cmd.Comment, "Ramps:"):
			if m := reRampUp.FindStringSubmatch(cmd.Comment); m != nil {
				current.ConfigRampUp, _ = strconv.ParseFloat(m[1], 64)
			}
			if m := reRampDown.FindStringSubmatch(cmd.Comment); m != nil {
				current.ConfigRampDown, _ = strconv.ParseFloat(m[1], 64)
			}

		case current != nil && strings.Contains(cmd.Comment, smoother.BlockEndMarker):
			finishBlock(current, moves)
			blocks = append(blocks, *current)
			current = nil
			if maxBlocks > 0 && len(blocks) >= maxBlocks {
				return blocks, nil
			}

		case current != nil && cmd.Name == "G1":
			mv := blockMove{
				x:     cmd.Param("X", lastX),
				y:     cmd.Param("Y", lastY),
				phase: "STEADY",
			}
			if m := rePhasePct.FindStringSubmatch(cmd.Comment); m != nil {
				mv.phase = m[1]
				mv.pct, _ = strconv.Atoi(m[2])
			}
			if haveXY {
				mv.length = math.Hypot(mv.x-lastX, mv.y-lastY)
			}
			lastX, lastY = mv.x, mv.y
			haveXY = true
			moves = append(moves, mv)

		case cmd.Name == "G0" || cmd.Name == "G1":
			// Track position outside blocks so the first in-block move
			// has a valid start point.
			lastX = cmd.Param("X", lastX)
			lastY = cmd.Param("Y", lastY)
			haveXY = true
		}
	}

	return blocks, nil
}

// finishBlock folds the collected moves into ramp measurements.
func finishBlock(b *Block, moves []blockMove) {
	b.Moves = len(moves)
	b.UpFactorMin, b.DownFactorMin = 101, 101

	cumulative := 0.0
	rampDownStart := -1.0
	for _, mv := range moves {
		switch mv.phase {
		case "RAMP_UP":
			b.ActualRampUp = cumulative + mv.length
			if mv.pct < b.UpFactorMin {
				b.UpFactorMin = mv.pct
			}
			if mv.pct > b.UpFactorMax {
				b.UpFactorMax = mv.pct
			}
		case "RAMP_DOWN":
			if rampDownStart < 0 {
				rampDownStart = cumulative
			}
			if mv.pct < b.DownFactorMin {
				b.DownFactorMin = mv.pct
			}
			if mv.pct > b.DownFactorMax {
				b.DownFactorMax = mv.pct
			}
		}
		cumulative += mv.length
	}
	if rampDownStart >= 0 {
		b.ActualRampDown = b.PathLength - rampDownStart
	}
	if b.UpFactorMin > 100 {
		b.UpFactorMin = 0
	}
	if b.DownFactorMin > 100 {
		b.DownFactorMin = 0
	}
}

// ReportRamps renders the per-block ramp analysis.
func ReportRamps(w io.Writer, blocks []Block) {
	for i, b := range blocks {
		fmt.Fprintln(w, strings.Repeat("=", 60))
		fmt.Fprintf(w, "BLOCK %d: %.2fmm, %d moves\n", i+1, b.PathLength, b.Moves)
		fmt.Fprintf(w, "  RAMP-UP:   configured %.2fmm, actual %.2fmm (factors %d%%..%d%%)\n",
			b.ConfigRampUp, b.ActualRampUp, b.UpFactorMin, b.UpFactorMax)
		fmt.Fprintf(w, "  RAMP-DOWN: configured %.2fmm, actual %.2fmm (factors %d%%..%d%%)\n",
			b.ConfigRampDown, b.ActualRampDown, b.DownFactorMin, b.DownFactorMax)
	}
	if len(blocks) == 0 {
		fmt.Fprintln(w, "no smoothing blocks found")
	}
}
