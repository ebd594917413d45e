// Package scheduler runs the highlights update on a recurring cadence with at
// most one run in flight.
package scheduler

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

const (
	// DefaultInterval matches the daily refresh of the highlights region.
	DefaultInterval = 24 * time.Hour
	// DefaultDebounce collapses bursts of file events from a single save.
	DefaultDebounce = 500 * time.Millisecond
)

// Trigger reasons.
const (
	ReasonStart    = "start"
	ReasonInterval = "interval"
	ReasonWatch    = "watch"
	ReasonManual   = "manual"
)

// Job performs one whole-region update.
type Job func(ctx context.Context) (err error)

// Options configures a Scheduler.
type Options struct {
	Interval   time.Duration
	WatchPath  string // snapshot file to watch; empty disables watching
	Debounce   time.Duration
	RunOnStart bool
	Logger     *zap.Logger
}

// Stats summarizes scheduler activity.
type Stats struct {
	Runs      int
	Failures  int
	Skipped   int
	LastRunID string
	LastRun   time.Time
	LastError string
}

// Scheduler triggers a Job on an interval and, optionally, when a watched file changes.
type Scheduler struct {
	job      Job
	interval time.Duration
	watch    string
	debounce time.Duration
	onStart  bool
	logger   *zap.Logger
	sem      *semaphore.Weighted
	wg       sync.WaitGroup

	mu    sync.Mutex
	stats Stats
}

// New creates a Scheduler.
func New(job Job, opts Options) (s *Scheduler, err error) {
	if job == nil {
		err = errors.New("scheduler requires a job")
		return s, err
	}

	interval := opts.Interval
	if interval == 0 {
		interval = DefaultInterval
	}
	if interval < 0 {
		err = errors.Errorf("invalid interval %s", interval)
		return s, err
	}

	debounce := opts.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	watch := opts.WatchPath
	if watch != "" {
		watch, err = filepath.Abs(watch)
		if err != nil {
			err = errors.Wrapf(err, "failed to resolve watch path: %s", opts.WatchPath)
			return s, err
		}
	}

	s = &Scheduler{
		job:      job,
		interval: interval,
		watch:    watch,
		debounce: debounce,
		onStart:  opts.RunOnStart,
		logger:   logger,
		sem:      semaphore.NewWeighted(1),
	}

	return s, err
}

// Trigger runs the job now unless a run is already in flight, in which case
// it returns ran=false without waiting.
func (s *Scheduler) Trigger(ctx context.Context, reason string) (ran bool, err error) {
	if !s.sem.TryAcquire(1) {
		s.mu.Lock()
		s.stats.Skipped++
		s.mu.Unlock()
		s.logger.Debug("Skipping run, previous run still in flight", zap.String("reason", reason))
		return ran, err
	}
	defer s.sem.Release(1)

	ran = true
	runID := uuid.NewString()
	started := time.Now()
	log := s.logger.With(zap.String("run_id", runID), zap.String("reason", reason))
	log.Info("Starting highlights update")

	err = s.job(ctx)

	s.mu.Lock()
	s.stats.Runs++
	s.stats.LastRunID = runID
	s.stats.LastRun = started
	s.stats.LastError = ""
	if err != nil {
		s.stats.Failures++
		s.stats.LastError = err.Error()
	}
	s.mu.Unlock()

	if err != nil {
		log.Error("Highlights update failed", zap.Error(err), zap.Duration("elapsed", time.Since(started)))
		err = errors.Wrapf(err, "run %s failed", runID)
		return ran, err
	}

	log.Info("Highlights update finished", zap.Duration("elapsed", time.Since(started)))
	return ran, err
}

// Stats returns a copy of the scheduler's counters.
func (s *Scheduler) Stats() (stats Stats) {
	s.mu.Lock()
	stats = s.stats
	s.mu.Unlock()
	return stats
}

// Run blocks until ctx is cancelled, triggering the job on every tick and
// on changes to the watched file. It returns once in-flight runs finish.
func (s *Scheduler) Run(ctx context.Context) (err error) {
	var watcher *fsnotify.Watcher
	var events <-chan fsnotify.Event
	var watchErrs <-chan error

	if s.watch != "" {
		watcher, err = fsnotify.NewWatcher()
		if err != nil {
			err = errors.Wrap(err, "failed to create file watcher")
			return err
		}
		defer watcher.Close()

		// Watch the directory so atomic renames of the file are seen.
		dir := filepath.Dir(s.watch)
		err = watcher.Add(dir)
		if err != nil {
			err = errors.Wrapf(err, "failed to watch directory: %s", dir)
			return err
		}
		events = watcher.Events
		watchErrs = watcher.Errors
		s.logger.Info("Watching snapshot file", zap.String("path", s.watch))
	}

	defer s.wg.Wait()

	if s.onStart {
		s.dispatch(ctx, ReasonStart)
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	var debounceTimer *time.Timer
	var debounced <-chan time.Time
	defer func() {
		if debounceTimer != nil {
			debounceTimer.Stop()
		}
	}()

	s.logger.Info("Scheduler started", zap.Duration("interval", s.interval))

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Scheduler stopping")
			return err

		case <-ticker.C:
			s.dispatch(ctx, ReasonInterval)

		case event, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			if !s.relevant(event) {
				continue
			}
			s.logger.Debug("Snapshot file changed", zap.String("op", event.Op.String()))
			if debounceTimer == nil {
				debounceTimer = time.NewTimer(s.debounce)
			} else {
				debounceTimer.Stop()
				debounceTimer.Reset(s.debounce)
			}
			debounced = debounceTimer.C

		case <-debounced:
			debounced = nil
			s.dispatch(ctx, ReasonWatch)

		case watchErr, ok := <-watchErrs:
			if !ok {
				watchErrs = nil
				continue
			}
			s.logger.Warn("File watcher error", zap.Error(watchErr))
		}
	}
}

// dispatch starts a run in the background; Trigger drops it if one is in flight.
func (s *Scheduler) dispatch(ctx context.Context, reason string) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		_, _ = s.Trigger(ctx, reason)
	}()
}

func (s *Scheduler) relevant(event fsnotify.Event) (ok bool) {
	if filepath.Clean(event.Name) != s.watch {
		return ok
	}

	ok = event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename)
	return ok
}
