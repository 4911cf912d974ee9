// Ramp curve definitions
//
// Copyright (C) 2026 FGF Postproc Authors
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package ramp

import "math"

// CurveType represents a ramp speed-profile shape.
type CurveType string

const (
	CurveLinear      CurveType = "linear"
	CurveExponential CurveType = "exponential"
	CurveLogarithmic CurveType = "logarithmic"
	CurveSigmoid     CurveType = "sigmoid"
	CurveQuadratic   CurveType = "quadratic"
	CurveSCurve      CurveType = "scurve"
)

// CurveConfig defines one curve family. Shape is the base form g with
// g(0)=0 and g(1)=1 exactly; the profile maps it onto [m, 1].
type CurveConfig struct {
	Name        CurveType
	Description string
	Shape       func(t float64) float64
}

// Curves is the closed list of available curve families.
var Curves = []CurveConfig{
	{Name: CurveLinear, Description: "constant acceleration", Shape: shapeLinear},
	{Name: CurveExponential, Description: "fast initial rise, flattening toward full speed", Shape: shapeExponential},
	{Name: CurveLogarithmic, Description: "concave rise, gradual toward full speed", Shape: shapeLogarithmic},
	{Name: CurveSigmoid, Description: "smooth S-shape, gentle at both ends", Shape: shapeSigmoid},
	{Name: CurveQuadratic, Description: "slow start, accelerating rise", Shape: shapeQuadratic},
	{Name: CurveSCurve, Description: "piecewise quadratic blend, minimal jerk", Shape: shapeSCurve},
}

// GetCurveByName returns the curve config for the given name, or nil.
func GetCurveByName(name CurveType) *CurveConfig {
	for i := range Curves {
		if Curves[i].Name == name {
			return &Curves[i]
		}
	}
	return nil
}

// CurveNames returns the valid curve names in table order.
func CurveNames() []string {
	names := make([]string, len(Curves))
	for i := range Curves {
		names[i] = string(Curves[i].Name)
	}
	return names
}

func shapeLinear(t float64) float64 {
	return t
}

// shapeExponential is (e^2t - 1) / (e^2 - 1). Expm1 keeps both endpoints
// exact.
func shapeExponential(t float64) float64 {
	return math.Expm1(2*t) / math.Expm1(2)
}

// shapeLogarithmic is ln(1 + t(e-1)), the inverse shape of the exponential.
func shapeLogarithmic(t float64) float64 {
	return math.Log1p(t * (math.E - 1))
}

// shapeSigmoid is the logistic with k=10 renormalized so the endpoints land
// on 0 and 1 exactly. The naive logistic does not reach either endpoint.
func shapeSigmoid(t float64) float64 {
	lo := logistic(0)
	hi := logistic(1)
	return (logistic(t) - lo) / (hi - lo)
}

func logistic(t float64) float64 {
	return 1.0 / (1.0 + math.Exp(-10*(t-0.5)))
}

func shapeQuadratic(t float64) float64 {
	return t * t
}

// shapeSCurve is the symmetric piecewise quadratic blend.
func shapeSCurve(t float64) float64 {
	if t < 0.5 {
		return 2 * t * t
	}
	u := 1 - t
	return 1 - 2*u*u
}
