// Logger construction for the FGF post-processor
//
// Thin wrapper over zap: commands build one logger from flags and hand
// component-scoped children to the packages that need them.
//
// Copyright (C) 2026 FGF Postproc Authors
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package log

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options configures the process-wide logger
type Options struct {
	// Level is one of debug, info, warn, error
	Level string

	// JSON selects JSON encoding instead of console output
	JSON bool

	// OutputPath writes log entries to a file instead of stderr
	OutputPath string

	// Development enables development-mode behavior (stack traces on warn)
	Development bool
}

// DefaultOptions returns the options used when no flags are given
func DefaultOptions() Options {
	return Options{Level: "info"}
}

// New builds a zap logger from options
func New(opts Options) (*zap.Logger, error) {
	var cfg zap.Config
	if opts.Development {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
	}

	if opts.Level != "" {
		level, err := zap.ParseAtomicLevel(opts.Level)
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", opts.Level, err)
		}
		cfg.Level = level
	}

	if opts.JSON {
		cfg.Encoding = "json"
	} else {
		cfg.Encoding = "console"
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	}

	if opts.OutputPath != "" {
		cfg.OutputPaths = []string{opts.OutputPath}
		cfg.ErrorOutputPaths = []string{opts.OutputPath}
	}

	return cfg.Build()
}

// Nop returns a logger that discards everything
func Nop() *zap.Logger {
	return zap.NewNop()
}
