// Package scheduler polls tracked repositories in the background: one
// repository per tick is fetched and classified against its upstream.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/thiagokokada/gitsync-go/internal/git"
	"github.com/thiagokokada/gitsync-go/internal/git/backend"
)

const (
	DefaultInterval = 5 * time.Minute
	startupLimit    = 4
)

// Source is what the scheduler polls and reports to.
type Source interface {
	Repositories(ctx context.Context) ([]string, error)
	Validate(ctx context.Context, dir string) error
	Fetch(ctx context.Context, dir string) backend.Result
	Compare(ctx context.Context, dir string) (git.SyncStatus, backend.Result)
	Publish(dir string, status git.SyncStatus)
}

type Scheduler struct {
	src      Source
	interval time.Duration

	mu       sync.Mutex
	cursor   int
	busy     bool
	deferred func()

	cancel context.CancelFunc
	done   chan struct{}
}

// New returns a stopped scheduler. A non-positive interval means
// DefaultInterval.
func New(src Source, interval time.Duration) *Scheduler {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Scheduler{src: src, interval: interval}
}

func (s *Scheduler) Interval() time.Duration { return s.interval }

// Busy reports whether a fetch and classify step is in flight.
func (s *Scheduler) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.busy
}

// WhenIdle runs fn now when no step is in flight. Otherwise fn replaces any
// continuation already waiting and runs once the step completes. It reports
// whether fn was deferred.
func (s *Scheduler) WhenIdle(fn func()) bool {
	s.mu.Lock()
	if s.busy {
		s.deferred = fn
		s.mu.Unlock()
		slog.Debug("continuation deferred until poll completes")
		return true
	}
	s.mu.Unlock()
	fn()
	return false
}

// Startup classifies every repository once without fetching. Repositories are
// handled concurrently; Startup returns when all of them are done.
func (s *Scheduler) Startup(ctx context.Context) error {
	dirs, err := s.src.Repositories(ctx)
	if err != nil {
		return fmt.Errorf("list repositories: %w", err)
	}
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(startupLimit)
	for _, dir := range dirs {
		g.Go(func() error {
			s.classify(ctx, dir)
			return nil
		})
	}
	return g.Wait()
}

// Tick fetches and classifies the repository at the cursor and advances the
// cursor. It returns the polled directory, or false when nothing was polled
// because there are no repositories or another step is in flight.
func (s *Scheduler) Tick(ctx context.Context) (string, bool) {
	s.mu.Lock()
	if s.busy {
		s.mu.Unlock()
		return "", false
	}
	s.busy = true
	s.mu.Unlock()
	defer s.finish()

	dirs, err := s.src.Repositories(ctx)
	if err != nil {
		slog.Error("list repositories", slog.Any("err", err))
		return "", false
	}
	if len(dirs) == 0 {
		return "", false
	}
	s.mu.Lock()
	if s.cursor >= len(dirs) {
		s.cursor = 0
	}
	dir := dirs[s.cursor]
	s.cursor = (s.cursor + 1) % len(dirs)
	s.mu.Unlock()

	s.poll(ctx, dir)
	return dir, true
}

func (s *Scheduler) finish() {
	s.mu.Lock()
	s.busy = false
	fn := s.deferred
	s.deferred = nil
	s.mu.Unlock()
	if fn != nil {
		fn()
	}
}

func (s *Scheduler) poll(ctx context.Context, dir string) {
	log := slog.With(slog.String("dir", dir))
	if err := s.src.Validate(ctx, dir); err != nil {
		log.Warn("invalid repository", slog.Any("err", err))
		s.src.Publish(dir, git.StatusError)
		return
	}
	if res := s.src.Fetch(ctx, dir); res.Failed() {
		log.Warn("fetch failed", slog.Any("err", res.Err))
		s.src.Publish(dir, git.StatusError)
		return
	}
	status, _ := s.src.Compare(ctx, dir)
	log.Debug("repository polled", slog.String("status", status.String()))
	s.src.Publish(dir, status)
}

func (s *Scheduler) classify(ctx context.Context, dir string) {
	if err := s.src.Validate(ctx, dir); err != nil {
		slog.Warn("invalid repository", slog.String("dir", dir), slog.Any("err", err))
		s.src.Publish(dir, git.StatusError)
		return
	}
	status, _ := s.src.Compare(ctx, dir)
	s.src.Publish(dir, status)
}

// Run performs the startup pass and then polls every interval until ctx is
// done. A failed startup pass is logged and polling starts anyway. A step in
// flight when ctx ends is completed first.
func (s *Scheduler) Run(ctx context.Context) {
	if err := s.Startup(ctx); err != nil {
		slog.Error("startup classification", slog.Any("err", err))
	}
	slog.Debug("polling started", slog.Duration("interval", s.interval))
	t := time.NewTimer(s.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			s.Tick(context.WithoutCancel(ctx))
			t.Reset(s.interval)
		}
	}
}

// Start runs the scheduler in the background until Stop.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return
	}
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})
	go func(done chan struct{}) {
		defer close(done)
		s.Run(ctx)
	}(s.done)
}

// Stop ends polling and waits for an in-flight step to drain.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}
