// Package background runs detached fire-and-forget jobs off the request
// path. Failures never reach the caller; they go to a dead-letter sink.
package background

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/yungbote/storefront-layout/internal/platform/logger"
)

// DeadLetter describes one failed job.
type DeadLetter struct {
	Job       string
	SessionID string
	Err       error
	At        time.Time
}

// DeadLetterSink receives failed jobs. It must not block for long.
type DeadLetterSink func(DeadLetter)

type Hooks struct {
	// OnDone is called with the job name and its error (nil on success).
	OnDone func(job string, err error)
}

type Config struct {
	// Concurrency bounds jobs running at once; <=0 means 16.
	Concurrency int64
	// Timeout bounds each job; <=0 means 10s.
	Timeout time.Duration
}

type Runner struct {
	log     *logger.Logger
	sem     *semaphore.Weighted
	timeout time.Duration
	sink    DeadLetterSink
	hooks   Hooks
	wg      sync.WaitGroup
}

func NewRunner(log *logger.Logger, cfg Config, sink DeadLetterSink, hooks Hooks) *Runner {
	if log == nil {
		log = logger.NewNop()
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 16
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &Runner{
		log:     log.With("component", "BackgroundRunner"),
		sem:     semaphore.NewWeighted(cfg.Concurrency),
		timeout: cfg.Timeout,
		sink:    sink,
		hooks:   hooks,
	}
}

// Go starts fn detached from the caller's cancellation but keeping its
// values (trace spans, request ids). It returns immediately.
func (r *Runner) Go(parent context.Context, job, sessionID string, fn func(ctx context.Context) error) {
	base := context.WithoutCancel(parent)
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		ctx, cancel := context.WithTimeout(base, r.timeout)
		defer cancel()

		if err := r.sem.Acquire(ctx, 1); err != nil {
			r.fail(job, sessionID, fmt.Errorf("acquire slot: %w", err))
			return
		}
		defer r.sem.Release(1)

		err := r.run(ctx, fn)
		if err != nil {
			r.fail(job, sessionID, err)
			return
		}
		if r.hooks.OnDone != nil {
			r.hooks.OnDone(job, nil)
		}
	}()
}

func (r *Runner) run(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = &panicError{Val: rec}
		}
	}()
	return fn(ctx)
}

func (r *Runner) fail(job, sessionID string, err error) {
	r.log.Warn("background job failed", "job", job, "session_id", sessionID, "error", err)
	if r.hooks.OnDone != nil {
		r.hooks.OnDone(job, err)
	}
	if r.sink != nil {
		r.sink(DeadLetter{Job: job, SessionID: sessionID, Err: err, At: time.Now().UTC()})
	}
}

// Wait blocks until every started job finished or ctx is done.
func (r *Runner) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

type panicError struct{ Val any }

func (e *panicError) Error() string { return fmt.Sprintf("panic: %v", e.Val) }

// MemorySink collects dead letters in memory.
type MemorySink struct {
	mu      sync.Mutex
	letters []DeadLetter
}

func (s *MemorySink) Sink(d DeadLetter) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.letters = append(s.letters, d)
}

func (s *MemorySink) Letters() []DeadLetter {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]DeadLetter(nil), s.letters...)
}
