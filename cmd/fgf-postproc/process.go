// Copyright (C) 2026 FGF Postproc Authors
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"fgf-postproc/pkg/procerr"
	"fgf-postproc/pkg/profile"
	"fgf-postproc/pkg/ramp"
	"fgf-postproc/pkg/smoother"
)

// smoothingFlags is the flag set shared by process and watch.
type smoothingFlags struct {
	rampUp       float64
	rampDown     float64
	curveUp      string
	curveDown    string
	minLength    float64
	minSpeed     float64
	resolution   float64
	features     []string
	profileName  string
	profilesFile string
}

func (f *smoothingFlags) register(cmd *cobra.Command) {
	defaults := smoother.DefaultConfig()
	cmd.Flags().Float64Var(&f.rampUp, "ramp-up", defaults.RampUpLength, "acceleration ramp length in mm")
	cmd.Flags().Float64Var(&f.rampDown, "ramp-down", defaults.RampDownLength, "deceleration ramp length in mm")
	cmd.Flags().StringVar(&f.curveUp, "curve-up", string(defaults.RampUpCurve), "acceleration curve family")
	cmd.Flags().StringVar(&f.curveDown, "curve-down", string(defaults.RampDownCurve), "deceleration curve family")
	cmd.Flags().Float64Var(&f.minLength, "min-length", defaults.MinPathLength, "shortest path that gets smoothed, in mm")
	cmd.Flags().Float64Var(&f.minSpeed, "min-speed", defaults.MinSpeedRatio, "speed floor as a fraction of the original feedrate")
	cmd.Flags().Float64Var(&f.resolution, "resolution", defaults.Resolution, "sub-segment length inside ramp zones, in mm")
	cmd.Flags().StringArrayVar(&f.features, "feature", nil, "smooth only paths of this feature type (repeatable)")
	cmd.Flags().StringVar(&f.profileName, "profile", "", "named profile from the profiles file")
	cmd.Flags().StringVar(&f.profilesFile, "profiles-file", "", "YAML profiles file")
}

// config resolves the effective configuration: profile first, then any
// flag the user set on the command line wins.
func (f *smoothingFlags) config(cmd *cobra.Command) (smoother.Config, error) {
	cfg := smoother.DefaultConfig()

	if f.profileName != "" {
		if f.profilesFile == "" {
			return cfg, procerr.ConfigOptionError("process", "profiles-file")
		}
		set, err := profile.Load(f.profilesFile)
		if err != nil {
			return cfg, err
		}
		cfg, err = set.Get(f.profileName)
		if err != nil {
			return cfg, err
		}
	}

	flags := cmd.Flags()
	if flags.Changed("ramp-up") {
		cfg.RampUpLength = f.rampUp
	}
	if flags.Changed("ramp-down") {
		cfg.RampDownLength = f.rampDown
	}
	if flags.Changed("curve-up") {
		cfg.RampUpCurve = ramp.CurveType(f.curveUp)
	}
	if flags.Changed("curve-down") {
		cfg.RampDownCurve = ramp.CurveType(f.curveDown)
	}
	if flags.Changed("min-length") {
		cfg.MinPathLength = f.minLength
	}
	if flags.Changed("min-speed") {
		cfg.MinSpeedRatio = f.minSpeed
	}
	if flags.Changed("resolution") {
		cfg.Resolution = f.resolution
	}
	if flags.Changed("feature") {
		cfg.TargetFeatures = f.features
	}

	return cfg, cfg.Validate()
}

func newProcessCmd() *cobra.Command {
	var flags smoothingFlags

	cmd := &cobra.Command{
		Use:   "process <input> <output>",
		Short: "Apply pressure smoothing to a G-code file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.config(cmd)
			if err != nil {
				return err
			}

			proc, err := smoother.New(cfg, logger)
			if err != nil {
				return err
			}

			printBanner(cfg)

			start := time.Now()
			stats, err := proc.ProcessFile(args[0], args[1])
			if err != nil {
				return err
			}

			logger.Info("file processed",
				zap.String("input", args[0]),
				zap.String("output", args[1]),
				zap.Duration("duration", time.Since(start)))
			printStats(stats)
			return nil
		},
	}

	flags.register(cmd)
	return cmd
}

func printBanner(cfg smoother.Config) {
	rule := strings.Repeat("=", 60)
	fmt.Println(rule)
	fmt.Printf("FGF G-code Post Processor v%s\n", version)
	fmt.Println(rule)
	fmt.Println()
	fmt.Println("Configuration:")
	fmt.Printf("  Ramp-up:    %gmm (%s)\n", cfg.RampUpLength, cfg.RampUpCurve)
	fmt.Printf("  Ramp-down:  %gmm (%s)\n", cfg.RampDownLength, cfg.RampDownCurve)
	fmt.Printf("  Min length: %gmm\n", cfg.MinPathLength)
	fmt.Printf("  Min speed:  %.0f%%\n", cfg.MinSpeedRatio*100)
	fmt.Printf("  Resolution: %gmm\n", cfg.Resolution)
	if len(cfg.TargetFeatures) > 0 {
		fmt.Printf("  Features:   %s\n", strings.Join(cfg.TargetFeatures, ", "))
	}
	fmt.Println()
}

func printStats(stats smoother.Stats) {
	rule := strings.Repeat("=", 60)
	fmt.Println()
	fmt.Println(rule)
	fmt.Println("Statistics:")
	fmt.Printf("  Paths found:     %d\n", stats.PathsFound)
	fmt.Printf("  Paths processed: %d\n", stats.PathsProcessed)
	fmt.Printf("  Paths skipped:   %d\n", stats.PathsSkipped)
	fmt.Printf("  Total length:    %.2fmm\n", stats.TotalPathLength)
	if stats.DegenerateMoves > 0 {
		fmt.Printf("  Degenerate moves: %d\n", stats.DegenerateMoves)
	}
	fmt.Printf("  Lines in/out:    %d/%d\n", stats.InputLines, stats.OutputLines)
	fmt.Println(rule)
}
