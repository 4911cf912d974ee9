// Package watcher runs the smoothing pipeline as a drop-folder daemon.
//
// G-code files dropped into the watched directory are debounced (slicers and
// network copies write in bursts) and processed into the output directory by
// a bounded pool of workers. One bad file fails its own job, never the
// daemon. Job records are kept for the status server.
//
// Copyright (C) 2026 FGF Postproc Authors
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package watcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"fgf-postproc/pkg/metrics"
	"fgf-postproc/pkg/procerr"
	"fgf-postproc/pkg/smoother"
	"fgf-postproc/pkg/validate"
)

// Config configures the watch daemon.
type Config struct {
	// Dir is the watched input directory
	Dir string

	// OutDir receives processed files; defaults to Dir
	OutDir string

	// Suffix is appended to output file names before the extension
	Suffix string

	// Workers bounds concurrent jobs
	Workers int

	// Debounce is the quiet period after the last write event before a
	// file is submitted
	Debounce time.Duration
}

// JobState is the lifecycle phase of one job.
type JobState string

const (
	JobQueued  JobState = "queued"
	JobRunning JobState = "running"
	JobDone    JobState = "done"
	JobFailed  JobState = "failed"
)

// Job is the record of one file run.
type Job struct {
	ID       string
	Input    string
	Output   string
	State    JobState
	Stats    smoother.Stats
	Error    string
	Started  time.Time
	Finished time.Time
}

// Status is the daemon summary exposed to the status server.
type Status struct {
	Dir         string
	OutDir      string
	JobsTotal   int
	JobsRunning int
	JobsDone    int
	JobsFailed  int
}

// Watcher is the drop-folder daemon.
type Watcher struct {
	cfg    Config
	proc   *smoother.Processor
	logger *zap.Logger
	fs     *fsnotify.Watcher

	group *errgroup.Group

	mu      sync.Mutex
	jobs    map[string]*Job
	order   []string
	timers  map[string]*time.Timer
	onDone  func(Job)
	stopped bool

	stopCh chan struct{}
	doneCh chan struct{}
}

// New builds a watcher. The processor's config has already been validated.
func New(cfg Config, proc *smoother.Processor, logger *zap.Logger) (*Watcher, error) {
	if cfg.Dir == "" {
		return nil, procerr.ConfigValueError("watch_dir", "", "non-empty")
	}
	if cfg.OutDir == "" {
		cfg.OutDir = cfg.Dir
	}
	if cfg.Suffix == "" {
		cfg.Suffix = "_smoothed"
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 2
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = 500 * time.Millisecond
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, procerr.Wrap(err, procerr.ErrWatchIO, "creating filesystem watcher")
	}

	return &Watcher{
		cfg:    cfg,
		proc:   proc,
		logger: logger.Named("watcher"),
		fs:     fs,
		jobs:   make(map[string]*Job),
		timers: make(map[string]*time.Timer),
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}, nil
}

// OnJobDone registers a completion callback. Must be called before Start.
func (w *Watcher) OnJobDone(fn func(Job)) {
	w.onDone = fn
}

// Start begins watching. Non-blocking; the event loop runs in a goroutine
// until Stop or context cancellation.
func (w *Watcher) Start(ctx context.Context) error {
	if err := os.MkdirAll(w.cfg.OutDir, 0o755); err != nil {
		return procerr.Wrap(err, procerr.ErrWatchIO,
			fmt.Sprintf("creating output directory %s", w.cfg.OutDir))
	}
	if err := w.fs.Add(w.cfg.Dir); err != nil {
		return procerr.Wrap(err, procerr.ErrWatchIO,
			fmt.Sprintf("watching %s", w.cfg.Dir))
	}

	w.group = &errgroup.Group{}
	w.group.SetLimit(w.cfg.Workers)

	w.logger.Info("watching directory",
		zap.String("dir", w.cfg.Dir),
		zap.String("out_dir", w.cfg.OutDir),
		zap.Int("workers", w.cfg.Workers))

	go w.run(ctx)
	return nil
}

// Stop shuts the daemon down and waits for in-flight jobs.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return
	}
	w.stopped = true
	for path, timer := range w.timers {
		timer.Stop()
		delete(w.timers, path)
	}
	w.mu.Unlock()

	close(w.stopCh)
	<-w.doneCh

	if err := w.fs.Close(); err != nil {
		w.logger.Warn("closing filesystem watcher", zap.Error(err))
	}
	if w.group != nil {
		_ = w.group.Wait()
	}
	w.logger.Info("watcher stopped")
}

// Jobs returns a snapshot of all job records in submission order.
func (w *Watcher) Jobs() []Job {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]Job, 0, len(w.order))
	for _, id := range w.order {
		out = append(out, *w.jobs[id])
	}
	return out
}

// Status returns the daemon summary.
func (w *Watcher) Status() Status {
	w.mu.Lock()
	defer w.mu.Unlock()
	s := Status{Dir: w.cfg.Dir, OutDir: w.cfg.OutDir, JobsTotal: len(w.order)}
	for _, job := range w.jobs {
		switch job.State {
		case JobRunning:
			s.JobsRunning++
		case JobDone:
			s.JobsDone++
		case JobFailed:
			s.JobsFailed++
		}
	}
	return s
}

// run is the event loop.
func (w *Watcher) run(ctx context.Context) {
	defer close(w.doneCh)

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return

		case event, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			if !w.wants(event.Name) {
				continue
			}
			w.debounce(event.Name)

		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.logger.Warn("filesystem watch error", zap.Error(err))
		}
	}
}

// wants reports whether a file is a processable input. Already-processed
// outputs are excluded so an in-place output directory cannot loop.
func (w *Watcher) wants(path string) bool {
	base := filepath.Base(path)
	if !strings.EqualFold(filepath.Ext(base), ".gcode") {
		return false
	}
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return !strings.HasSuffix(stem, w.cfg.Suffix)
}

// debounce (re)arms the per-file quiet timer.
func (w *Watcher) debounce(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped {
		return
	}
	if timer, ok := w.timers[path]; ok {
		timer.Reset(w.cfg.Debounce)
		return
	}
	w.timers[path] = time.AfterFunc(w.cfg.Debounce, func() {
		w.submit(path)
	})
}

// submit creates the job record and hands it to the worker pool.
func (w *Watcher) submit(path string) {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return
	}
	delete(w.timers, path)

	job := &Job{
		ID:     uuid.NewString(),
		Input:  path,
		Output: w.outputPath(path),
		State:  JobQueued,
	}
	w.jobs[job.ID] = job
	w.order = append(w.order, job.ID)
	w.mu.Unlock()

	metrics.RecordJobStart()
	w.logger.Info("job queued",
		zap.String("job_id", job.ID),
		zap.String("input", path))

	w.group.Go(func() error {
		w.runJob(job.ID)
		// A failed file never brings the daemon down.
		return nil
	})
}

// runJob processes one file and records the outcome.
func (w *Watcher) runJob(id string) {
	w.mu.Lock()
	job := w.jobs[id]
	job.State = JobRunning
	job.Started = time.Now()
	input, output := job.Input, job.Output
	w.mu.Unlock()

	stats, err := w.proc.ProcessFile(input, output)

	w.mu.Lock()
	job.Finished = time.Now()
	job.Stats = stats
	if err != nil {
		job.State = JobFailed
		job.Error = err.Error()
	} else {
		job.State = JobDone
	}
	snapshot := *job
	onDone := w.onDone
	w.mu.Unlock()

	metrics.RecordJobResult(metrics.JobStats{
		InputLines:      stats.InputLines,
		OutputLines:     stats.OutputLines,
		PathsProcessed:  stats.PathsProcessed,
		PathsSkipped:    stats.PathsSkipped,
		TotalPathLength: stats.TotalPathLength,
	}, snapshot.Finished.Sub(snapshot.Started), err)

	if err == nil {
		w.revalidate(snapshot.ID, input, output)
	}

	if err != nil {
		w.logger.Error("job failed",
			zap.String("job_id", snapshot.ID),
			zap.String("input", input),
			zap.Error(err))
	} else {
		w.logger.Info("job done",
			zap.String("job_id", snapshot.ID),
			zap.String("output", output),
			zap.Int("paths_processed", stats.PathsProcessed),
			zap.Duration("elapsed", snapshot.Finished.Sub(snapshot.Started)))
	}

	if onDone != nil {
		onDone(snapshot)
	}
}

// revalidate re-checks volume conservation on a written output and records
// the difference on the volume gauge. A conservation failure is logged, not
// fatal: the file is already on disk and the operator decides.
func (w *Watcher) revalidate(jobID, input, output string) {
	result, err := validate.Compare(input, output)
	if err != nil {
		w.logger.Warn("output validation failed to run",
			zap.String("job_id", jobID),
			zap.Error(err))
		return
	}
	metrics.RecordVolumeDiff(result.VolumeDiff)
	if !result.VolumeConserved {
		w.logger.Warn("output does not conserve extrusion volume",
			zap.String("job_id", jobID),
			zap.String("output", output),
			zap.Float64("volume_diff", result.VolumeDiff),
			zap.Float64("volume_diff_pct", result.VolumeDiffPct))
	}
}

// outputPath maps an input file to its processed destination.
func (w *Watcher) outputPath(input string) string {
	base := filepath.Base(input)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	return filepath.Join(w.cfg.OutDir, stem+w.cfg.Suffix+ext)
}
