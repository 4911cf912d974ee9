// Package profile loads named smoothing profiles from YAML files.
//
// A profile file maps profile names to processor settings; unset fields
// fall back to the built-in defaults. Every profile is validated at load
// time so a bad file fails before any stream processing begins.
//
// Copyright (C) 2026 FGF Postproc Authors
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package profile

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"fgf-postproc/pkg/procerr"
	"fgf-postproc/pkg/ramp"
	"fgf-postproc/pkg/smoother"
)

// Profile is the YAML shape of one named configuration. Pointer fields
// distinguish "unset, use the default" from an explicit zero.
type Profile struct {
	RampUpLength   *float64 `yaml:"ramp_up_length"`
	RampDownLength *float64 `yaml:"ramp_down_length"`
	RampUpCurve    *string  `yaml:"ramp_up_curve"`
	RampDownCurve  *string  `yaml:"ramp_down_curve"`
	MinPathLength  *float64 `yaml:"min_path_length"`
	MinSpeedRatio  *float64 `yaml:"min_speed_ratio"`
	Resolution     *float64 `yaml:"segment_resolution"`
	TargetFeatures []string `yaml:"target_features"`
}

// Config materializes the profile over the built-in defaults.
func (p Profile) Config() smoother.Config {
	cfg := smoother.DefaultConfig()
	if p.RampUpLength != nil {
		cfg.RampUpLength = *p.RampUpLength
	}
	if p.RampDownLength != nil {
		cfg.RampDownLength = *p.RampDownLength
	}
	if p.RampUpCurve != nil {
		cfg.RampUpCurve = ramp.CurveType(*p.RampUpCurve)
	}
	if p.RampDownCurve != nil {
		cfg.RampDownCurve = ramp.CurveType(*p.RampDownCurve)
	}
	if p.MinPathLength != nil {
		cfg.MinPathLength = *p.MinPathLength
	}
	if p.MinSpeedRatio != nil {
		cfg.MinSpeedRatio = *p.MinSpeedRatio
	}
	if p.Resolution != nil {
		cfg.Resolution = *p.Resolution
	}
	if len(p.TargetFeatures) > 0 {
		cfg.TargetFeatures = append([]string(nil), p.TargetFeatures...)
	}
	return cfg
}

// Set is a named collection of validated profiles.
type Set struct {
	profiles map[string]smoother.Config
}

// Load reads a profile file and validates every profile in it.
func Load(path string) (*Set, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading profiles %s: %w", path, err)
	}

	var raw map[string]Profile
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, procerr.Wrap(err, procerr.ErrConfigValue,
			fmt.Sprintf("profiles file %s is not valid YAML", path))
	}

	set := &Set{profiles: make(map[string]smoother.Config, len(raw))}
	for name, p := range raw {
		cfg := p.Config()
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("profile %q: %w", name, err)
		}
		set.profiles[name] = cfg
	}
	return set, nil
}

// Get returns the named profile's config.
func (s *Set) Get(name string) (smoother.Config, error) {
	cfg, ok := s.profiles[name]
	if !ok {
		return smoother.Config{}, procerr.ConfigChoiceError("profile", name, s.Names())
	}
	return cfg, nil
}

// Names returns the profile names in sorted order.
func (s *Set) Names() []string {
	names := make([]string, 0, len(s.profiles))
	for name := range s.profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Default returns the built-in default configuration.
func Default() smoother.Config {
	return smoother.DefaultConfig()
}
