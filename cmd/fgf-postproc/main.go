// fgf-postproc applies pressure-smoothing feedrate ramps to FGF G-code.
//
// Copyright (C) 2026 FGF Postproc Authors
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"fgf-postproc/pkg/log"
)

const version = "1.0.0"

var (
	logLevel string
	logJSON  bool
	logger   *zap.Logger
)

func main() {
	root := &cobra.Command{
		Use:     "fgf-postproc",
		Short:   "FGF G-code pressure-smoothing post-processor",
		Version: version,
		Long: `fgf-postproc rewrites extrusion paths in FGF G-code with speed ramps
that reduce pressure transients at path starts and ends, preserving the
extruded volume exactly.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			logger, err = log.New(log.Options{Level: logLevel, JSON: logJSON})
			if err != nil {
				return err
			}
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if logger != nil {
				_ = logger.Sync()
			}
		},
	}

	root.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	root.PersistentFlags().BoolVar(&logJSON, "log-json", false, "emit logs as JSON")

	root.AddCommand(
		newProcessCmd(),
		newValidateCmd(),
		newAnalyzeCmd(),
		newCurvesCmd(),
		newWatchCmd(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
