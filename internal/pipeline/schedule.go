package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const watchDebounce = 500 * time.Millisecond

// Runner is what the scheduler triggers.
type Runner interface {
	Run(ctx context.Context) (Result, error)
}

// Scheduler triggers loads on a cron schedule and, optionally, whenever the
// watched workbook is written.
type Scheduler struct {
	runner    Runner
	spec      string
	watchPath string
	debounce  time.Duration
	log       *zap.Logger

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

// NewScheduler validates spec up front. watchPath may be empty.
func NewScheduler(r Runner, spec, watchPath string, log *zap.Logger) (*Scheduler, error) {
	if _, err := cron.ParseStandard(spec); err != nil {
		return nil, fmt.Errorf("invalid schedule %q: %w", spec, err)
	}
	return &Scheduler{runner: r, spec: spec, watchPath: watchPath, debounce: watchDebounce, log: log}, nil
}

func (s *Scheduler) trigger(ctx context.Context, reason string) {
	s.mu.Lock()
	if s.closed || ctx.Err() != nil {
		s.mu.Unlock()
		return
	}
	s.wg.Add(1)
	s.mu.Unlock()
	defer s.wg.Done()

	s.log.Debug("load triggered", zap.String("reason", reason))
	// other errors are logged by the loader
	if _, err := s.runner.Run(ctx); errors.Is(err, ErrBusy) {
		s.log.Info("previous load still running, skipping", zap.String("reason", reason))
	}
}

// Run blocks until ctx is done, then waits for any in-flight load.
func (s *Scheduler) Run(ctx context.Context) error {
	c := cron.New()
	if _, err := c.AddFunc(s.spec, func() { s.trigger(ctx, "schedule") }); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", s.spec, err)
	}
	c.Start()
	s.log.Info("scheduled loads", zap.String("schedule", s.spec))

	var watchErr error
	if s.watchPath != "" {
		watchErr = s.watch(ctx)
	}
	if watchErr == nil {
		<-ctx.Done()
	}

	<-c.Stop().Done()
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.wg.Wait()
	return watchErr
}

// watch blocks until ctx is done. Writes to the workbook are debounced so
// one save triggers one load.
func (s *Scheduler) watch(ctx context.Context) error {
	abs, err := filepath.Abs(s.watchPath)
	if err != nil {
		return fmt.Errorf("bad watch path %q: %w", s.watchPath, err)
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()
	// editors replace the file, so watch the directory
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watch dir %q: %w", filepath.Dir(abs), err)
	}
	s.log.Info("watching workbook", zap.String("path", abs))

	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if p, _ := filepath.Abs(event.Name); p != abs {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(s.debounce, func() { s.trigger(ctx, "file changed") })
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.log.Warn("watcher error", zap.Error(err))
		}
	}
}
