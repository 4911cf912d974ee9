// Processor configuration
//
// Copyright (C) 2026 FGF Postproc Authors
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package smoother

import (
	"strconv"
	"strings"

	"fgf-postproc/pkg/procerr"
	"fgf-postproc/pkg/ramp"
)

// Config is the immutable processor configuration. Validate before use;
// processing never starts on an invalid config.
type Config struct {
	// RampUpLength is the requested acceleration ramp length in mm
	RampUpLength float64

	// RampDownLength is the requested deceleration ramp length in mm
	RampDownLength float64

	// RampUpCurve selects the acceleration profile shape
	RampUpCurve ramp.CurveType

	// RampDownCurve selects the deceleration profile shape
	RampDownCurve ramp.CurveType

	// MinPathLength is the shortest path that gets smoothed, in mm.
	// Shorter paths are emitted unchanged and counted as skipped.
	MinPathLength float64

	// MinSpeedRatio is the speed floor as a fraction of the original
	// feedrate, in (0, 1]
	MinSpeedRatio float64

	// Resolution is the target sub-segment length inside ramp zones, in mm
	Resolution float64

	// TargetFeatures restricts smoothing to the named feature types when
	// non-empty (case-insensitive). Other paths are skipped.
	TargetFeatures []string
}

// DefaultConfig returns the documented defaults.
func DefaultConfig() Config {
	return Config{
		RampUpLength:   5.0,
		RampDownLength: 4.0,
		RampUpCurve:    ramp.CurveSigmoid,
		RampDownCurve:  ramp.CurveExponential,
		MinPathLength:  1.0,
		MinSpeedRatio:  0.1,
		Resolution:     0.5,
	}
}

// Validate checks every config invariant and fails fast on the first
// violation.
func (c Config) Validate() error {
	if c.RampUpLength < 0 {
		return procerr.ConfigValueError("ramp_up_length", ftoa(c.RampUpLength), "non-negative")
	}
	if c.RampDownLength < 0 {
		return procerr.ConfigValueError("ramp_down_length", ftoa(c.RampDownLength), "non-negative")
	}
	if c.MinPathLength < 0 {
		return procerr.ConfigValueError("min_path_length", ftoa(c.MinPathLength), "non-negative")
	}
	if c.MinSpeedRatio <= 0 || c.MinSpeedRatio > 1 {
		return procerr.ConfigValueError("min_speed_ratio", ftoa(c.MinSpeedRatio), "in (0, 1]")
	}
	if c.Resolution <= 0 {
		return procerr.ConfigValueError("segment_resolution", ftoa(c.Resolution), "positive")
	}
	if ramp.GetCurveByName(c.RampUpCurve) == nil {
		return procerr.ConfigChoiceError("ramp_up_curve", string(c.RampUpCurve), ramp.CurveNames())
	}
	if ramp.GetCurveByName(c.RampDownCurve) == nil {
		return procerr.ConfigChoiceError("ramp_down_curve", string(c.RampDownCurve), ramp.CurveNames())
	}
	return nil
}

// matchesFeature reports whether the feature filter admits the given
// feature type. An empty filter admits everything.
func (c Config) matchesFeature(feature string) bool {
	if len(c.TargetFeatures) == 0 {
		return true
	}
	for _, f := range c.TargetFeatures {
		if strings.EqualFold(f, feature) {
			return true
		}
	}
	return false
}

func ftoa(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
