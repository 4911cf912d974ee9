// Package metrics exports Prometheus metrics for the watch daemon.
//
// Copyright (C) 2026 FGF Postproc Authors
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Job metrics
	JobsStarted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fgfpp_jobs_started_total",
		Help: "Total number of processing jobs started",
	})

	JobsCompleted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fgfpp_jobs_completed_total",
		Help: "Total number of processing jobs completed, by status",
	}, []string{"status"})

	JobDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "fgfpp_job_duration_seconds",
		Help:    "Time taken to process one file",
		Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60, 300},
	})

	// Pipeline metrics
	PathsProcessed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fgfpp_paths_processed_total",
		Help: "Total number of extrusion paths smoothed",
	})

	PathsSkipped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fgfpp_paths_skipped_total",
		Help: "Total number of extrusion paths below the minimum length or outside the feature filter",
	})

	LinesRead = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fgfpp_lines_read_total",
		Help: "Total input lines parsed",
	})

	LinesWritten = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fgfpp_lines_written_total",
		Help: "Total output lines emitted",
	})

	SmoothedLength = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fgfpp_smoothed_length_mm_total",
		Help: "Total arc length of smoothed paths in mm",
	})

	// LastVolumeDiff tracks the absolute extrusion difference of the most
	// recent validated job. The watch daemon re-validates every output it
	// writes and records the diff here.
	LastVolumeDiff = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "fgfpp_last_volume_diff",
		Help: "Absolute extrusion volume difference of the last validated job",
	})
)

// JobStats is the slice of run statistics the recorder consumes. It mirrors
// the processor's stats without importing it.
type JobStats struct {
	InputLines      int
	OutputLines     int
	PathsProcessed  int
	PathsSkipped    int
	TotalPathLength float64
}

// RecordVolumeDiff records the extrusion volume difference of the most
// recently validated job.
func RecordVolumeDiff(diff float64) {
	LastVolumeDiff.Set(diff)
}

// RecordJobStart counts a job submission.
func RecordJobStart() {
	JobsStarted.Inc()
}

// RecordJobResult folds one finished job into the counters.
func RecordJobResult(stats JobStats, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "failure"
	}
	JobsCompleted.WithLabelValues(status).Inc()
	JobDuration.Observe(duration.Seconds())
	if err != nil {
		return
	}
	PathsProcessed.Add(float64(stats.PathsProcessed))
	PathsSkipped.Add(float64(stats.PathsSkipped))
	LinesRead.Add(float64(stats.InputLines))
	LinesWritten.Add(float64(stats.OutputLines))
	SmoothedLength.Add(stats.TotalPathLength)
}
