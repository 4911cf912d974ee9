// Package smoother applies pressure smoothing to G-code extrusion paths.
//
// The processor sequences the whole pipeline: tokenize, segment the stream
// into extrusion paths, accept or reject each path, rebuild accepted paths
// with speed ramps via the volume-conserving re-segmenter, and re-interleave
// everything in original stream order. No line is ever reordered relative to
// its neighbors; only accepted-path motions are replaced in place.
//
// Copyright (C) 2026 FGF Postproc Authors
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package smoother

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"fgf-postproc/pkg/gcode"
	"fgf-postproc/pkg/ramp"
	"fgf-postproc/pkg/toolpath"
)

// Stats are the exact counts of one processing run. The external validator
// re-checks volume conservation and phase distribution against them.
type Stats struct {
	InputLines      int
	OutputLines     int
	PathsFound      int
	PathsProcessed  int
	PathsSkipped    int
	TotalPathLength float64
	Duration        time.Duration

	// DegenerateMoves counts zero-length motions inside accepted paths.
	// They pass through unmodified rather than aborting the run.
	DegenerateMoves int
}

// Processor runs the smoothing pipeline with a fixed configuration.
type Processor struct {
	cfg    Config
	logger *zap.Logger
}

// New builds a Processor. The config is validated here; processing never
// starts on a bad config.
func New(cfg Config, logger *zap.Logger) (*Processor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Processor{cfg: cfg, logger: logger.Named("smoother")}, nil
}

// Config returns the processor's configuration.
func (p *Processor) Config() Config {
	return p.cfg
}

// Process rewrites a command stream. The input slice is not modified;
// rejected paths and non-path commands appear unchanged in the output.
func (p *Processor) Process(commands []*gcode.Command) ([]*gcode.Command, Stats, error) {
	start := time.Now()
	stats := Stats{InputLines: len(commands)}

	paths := toolpath.NewSegmenter().Segment(commands)
	stats.PathsFound = len(paths)

	// Accepted-path motions are replaced as a block at the first motion's
	// position; the path's remaining motion lines are consumed. Non-motion
	// lines inside the path's span stay in place.
	lineToPath := make(map[int]*toolpath.Path)
	for _, path := range paths {
		if !p.accept(path) {
			stats.PathsSkipped++
			continue
		}
		for i := range path.Moves {
			lineToPath[path.Moves[i].LineNumber()] = path
		}
		stats.PathsProcessed++
		stats.TotalPathLength += path.TotalLength()
	}

	p.logger.Debug("segmented stream",
		zap.Int("paths_found", stats.PathsFound),
		zap.Int("paths_accepted", stats.PathsProcessed),
		zap.Int("paths_skipped", stats.PathsSkipped))

	output := make([]*gcode.Command, 0, len(commands))
	emitted := make(map[int]bool)
	for _, cmd := range commands {
		path, ok := lineToPath[cmd.LineNumber]
		if !ok {
			output = append(output, cmd)
			continue
		}
		if emitted[path.StartLine] {
			continue
		}
		emitted[path.StartLine] = true

		block, degenerate, err := p.smooth(path)
		if err != nil {
			return nil, stats, err
		}
		if degenerate > 0 {
			stats.DegenerateMoves += degenerate
			p.logger.Debug("zero-length motions passed through",
				zap.Int("start_line", path.StartLine),
				zap.Int("count", degenerate))
		}
		output = append(output, block...)
	}

	stats.OutputLines = len(output)
	stats.Duration = time.Since(start)
	return output, stats, nil
}

// ProcessFile rewrites a G-code file. On any error no output file is
// written; a partially corrupted output never reaches disk.
func (p *Processor) ProcessFile(inputPath, outputPath string) (Stats, error) {
	commands, err := gcode.ParseFile(inputPath)
	if err != nil {
		return Stats{}, err
	}

	output, stats, err := p.Process(commands)
	if err != nil {
		return stats, err
	}

	if err := gcode.WriteFile(outputPath, output); err != nil {
		return stats, err
	}

	p.logger.Info("processed file",
		zap.String("input", inputPath),
		zap.String("output", outputPath),
		zap.Int("paths_processed", stats.PathsProcessed),
		zap.Int("paths_skipped", stats.PathsSkipped),
		zap.Duration("elapsed", stats.Duration))
	return stats, nil
}

// accept applies the path acceptance policy: minimum length and the
// optional feature filter. Rejected paths are emitted unchanged, never
// deleted.
func (p *Processor) accept(path *toolpath.Path) bool {
	if path.TotalLength() < p.cfg.MinPathLength {
		return false
	}
	return p.cfg.matchesFeature(path.Feature)
}

// smooth rebuilds one accepted path. Profiles are rebuilt per path per
// side; they are stateless and cheap.
func (p *Processor) smooth(path *toolpath.Path) ([]*gcode.Command, int, error) {
	up, err := ramp.NewProfile(p.cfg.RampUpCurve, p.cfg.MinSpeedRatio)
	if err != nil {
		return nil, 0, fmt.Errorf("building ramp-up profile: %w", err)
	}
	down, err := ramp.NewProfile(p.cfg.RampDownCurve, p.cfg.MinSpeedRatio)
	if err != nil {
		return nil, 0, fmt.Errorf("building ramp-down profile: %w", err)
	}
	block, degenerate := smoothPath(path, p.cfg, up, down)
	return block, degenerate, nil
}
