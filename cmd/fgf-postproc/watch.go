// Copyright (C) 2026 FGF Postproc Authors
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"fgf-postproc/pkg/metrics"
	"fgf-postproc/pkg/monitor"
	"fgf-postproc/pkg/smoother"
	"fgf-postproc/pkg/watcher"
)

func newWatchCmd() *cobra.Command {
	var (
		flags       smoothingFlags
		outDir      string
		suffix      string
		workers     int
		debounce    time.Duration
		metricsAddr string
		statusAddr  string
	)

	cmd := &cobra.Command{
		Use:   "watch <dir>",
		Short: "Watch a directory and process dropped G-code files",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.config(cmd)
			if err != nil {
				return err
			}
			proc, err := smoother.New(cfg, logger)
			if err != nil {
				return err
			}

			w, err := watcher.New(watcher.Config{
				Dir:      args[0],
				OutDir:   outDir,
				Suffix:   suffix,
				Workers:  workers,
				Debounce: debounce,
			}, proc, logger)
			if err != nil {
				return err
			}

			if metricsAddr != "" {
				srv := metrics.NewServer(metricsAddr, logger)
				if err := srv.Start(); err != nil {
					return err
				}
				defer func() {
					ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer cancel()
					_ = srv.Shutdown(ctx)
				}()
			}

			if statusAddr != "" {
				status := monitor.New(statusAddr, w, logger)
				w.OnJobDone(status.NotifyJobDone)
				if err := status.Start(); err != nil {
					return err
				}
				defer func() { _ = status.Stop() }()
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if err := w.Start(ctx); err != nil {
				return err
			}
			logger.Info("watching for G-code files", zap.String("dir", args[0]))

			<-ctx.Done()
			logger.Info("shutting down")
			w.Stop()
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVar(&outDir, "out-dir", "", "output directory (default: the watched directory)")
	cmd.Flags().StringVar(&suffix, "suffix", "_smoothed", "suffix appended to output file names")
	cmd.Flags().IntVar(&workers, "workers", 2, "maximum concurrent jobs")
	cmd.Flags().DurationVar(&debounce, "debounce", 500*time.Millisecond, "quiet period before a written file is processed")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")
	cmd.Flags().StringVar(&statusAddr, "status-addr", "", "serve the websocket status API on this address")
	return cmd
}
