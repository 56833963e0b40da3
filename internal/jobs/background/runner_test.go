package background

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestRunnerDetachesFromCallerCancellation(t *testing.T) {
	r := NewRunner(nil, Config{}, nil, Hooks{})
	ctx, cancel := context.WithCancel(context.Background())

	var ran atomic.Bool
	r.Go(ctx, "job", "s1", func(ctx context.Context) error {
		time.Sleep(10 * time.Millisecond)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		ran.Store(true)
		return nil
	})
	cancel()

	if err := r.Wait(context.Background()); err != nil {
		t.Fatalf("wait: %v", err)
	}
	if !ran.Load() {
		t.Fatalf("job should survive caller cancellation")
	}
}

func TestRunnerDeadLettersErrorsAndPanics(t *testing.T) {
	sink := &MemorySink{}
	var mu sync.Mutex
	done := map[string]error{}
	r := NewRunner(nil, Config{}, sink.Sink, Hooks{OnDone: func(job string, err error) {
		mu.Lock()
		done[job] = err
		mu.Unlock()
	}})

	r.Go(context.Background(), "ok", "s1", func(context.Context) error { return nil })
	r.Go(context.Background(), "fails", "s1", func(context.Context) error { return errors.New("boom") })
	r.Go(context.Background(), "panics", "s2", func(context.Context) error { panic("kaboom") })
	if err := r.Wait(context.Background()); err != nil {
		t.Fatalf("wait: %v", err)
	}

	letters := sink.Letters()
	if len(letters) != 2 {
		t.Fatalf("dead letters: want=2 got=%d", len(letters))
	}
	byJob := map[string]DeadLetter{}
	for _, l := range letters {
		byJob[l.Job] = l
	}
	if !strings.Contains(byJob["panics"].Err.Error(), "kaboom") {
		t.Fatalf("panic letter: got=%v", byJob["panics"].Err)
	}
	if byJob["fails"].SessionID != "s1" {
		t.Fatalf("session id: want=s1 got=%s", byJob["fails"].SessionID)
	}
	if done["ok"] != nil || done["fails"] == nil {
		t.Fatalf("hooks: got=%v", done)
	}
}

func TestRunnerBoundsConcurrency(t *testing.T) {
	r := NewRunner(nil, Config{Concurrency: 2}, nil, Hooks{})
	var cur, peak int32
	for i := 0; i < 8; i++ {
		r.Go(context.Background(), "j", "s", func(context.Context) error {
			n := atomic.AddInt32(&cur, 1)
			for {
				p := atomic.LoadInt32(&peak)
				if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			atomic.AddInt32(&cur, -1)
			return nil
		})
	}
	if err := r.Wait(context.Background()); err != nil {
		t.Fatalf("wait: %v", err)
	}
	if peak > 2 {
		t.Fatalf("peak concurrency: want<=2 got=%d", peak)
	}
}

func TestRunnerTimeout(t *testing.T) {
	sink := &MemorySink{}
	r := NewRunner(nil, Config{Timeout: 5 * time.Millisecond}, sink.Sink, Hooks{})
	r.Go(context.Background(), "slow", "s", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	_ = r.Wait(context.Background())
	letters := sink.Letters()
	if len(letters) != 1 || !errors.Is(letters[0].Err, context.DeadlineExceeded) {
		t.Fatalf("timeout letter: got=%+v", letters)
	}
}
