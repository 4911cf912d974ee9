// Ramp speed profile
//
// Copyright (C) 2026 FGF Postproc Authors
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package ramp

import (
	"strconv"

	"fgf-postproc/pkg/procerr"
)

// Profile maps normalized ramp position t in [0,1] to a speed fraction in
// [minSpeedRatio, 1]. t=0 is the path endpoint where speed is lowest, t=1
// where full speed is reached. Ramp-up and ramp-down use the same profile
// with mirrored position mapping.
type Profile struct {
	curve         *CurveConfig
	minSpeedRatio float64
}

// NewProfile builds a profile for the named curve. The minimum speed ratio
// must lie in (0, 1].
func NewProfile(name CurveType, minSpeedRatio float64) (*Profile, error) {
	curve := GetCurveByName(name)
	if curve == nil {
		return nil, procerr.ConfigChoiceError("curve", string(name), CurveNames())
	}
	if minSpeedRatio <= 0 || minSpeedRatio > 1 {
		return nil, procerr.ConfigValueError("min_speed_ratio",
			strconv.FormatFloat(minSpeedRatio, 'g', -1, 64), "must be in (0, 1]")
	}
	return &Profile{curve: curve, minSpeedRatio: minSpeedRatio}, nil
}

// Curve returns the profile's curve name.
func (p *Profile) Curve() CurveType {
	return p.curve.Name
}

// MinSpeedRatio returns the profile's floor fraction.
func (p *Profile) MinSpeedRatio() float64 {
	return p.minSpeedRatio
}

// Factor returns the speed fraction at normalized position t. Positions
// outside [0,1] clamp to the endpoints, and the result is clamped to
// [minSpeedRatio, 1] so float noise in a shape cannot leak past the bounds.
func (p *Profile) Factor(t float64) float64 {
	if t <= 0 {
		return p.minSpeedRatio
	}
	if t >= 1 {
		return 1.0
	}
	m := p.minSpeedRatio
	f := m + (1-m)*p.curve.Shape(t)
	if f < m {
		return m
	}
	if f > 1 {
		return 1.0
	}
	return f
}

// EffectiveLength bounds a requested ramp length so the two ramps of a path
// can never overlap: at most half the path per side.
func EffectiveLength(requested, pathLength float64) float64 {
	if requested < 0 {
		return 0
	}
	half := pathLength / 2
	if requested > half {
		return half
	}
	return requested
}
