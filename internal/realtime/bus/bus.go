package bus

import (
	"context"
	"fmt"
	"sync"

	"github.com/yungbote/storefront-layout/internal/domain/layout"
)

// Publisher hands layout updates to whatever delivers them to browsers.
// Delivery itself is not tracked.
type Publisher interface {
	Publish(ctx context.Context, sessionID string, update layout.LayoutUpdate) error
	Close() error
}

// Subscriber is implemented by buses that can also read back updates.
type Subscriber interface {
	Subscribe(ctx context.Context, sessionID string, onMsg func(layout.LayoutUpdate)) error
}

// Recorder keeps every published update in memory and fans it out to
// in-process subscribers. It backs single-instance deployments and tests.
type Recorder struct {
	mu      sync.Mutex
	updates []layout.LayoutUpdate
	subs    map[string]map[int]func(layout.LayoutUpdate)
	nextSub int
	// Err, when set, is returned from Publish and nothing is recorded.
	Err error
}

func NewRecorder() *Recorder { return &Recorder{} }

func (r *Recorder) Publish(_ context.Context, sessionID string, update layout.LayoutUpdate) error {
	r.mu.Lock()
	if r.Err != nil {
		r.mu.Unlock()
		return r.Err
	}
	update.SessionID = sessionID
	r.updates = append(r.updates, update)
	fns := make([]func(layout.LayoutUpdate), 0, len(r.subs[sessionID]))
	for _, fn := range r.subs[sessionID] {
		fns = append(fns, fn)
	}
	r.mu.Unlock()

	for _, fn := range fns {
		fn(update)
	}
	return nil
}

// Subscribe registers onMsg for the session until ctx is done. onMsg runs
// on the publisher's goroutine.
func (r *Recorder) Subscribe(ctx context.Context, sessionID string, onMsg func(layout.LayoutUpdate)) error {
	if onMsg == nil {
		return fmt.Errorf("onMsg callback required")
	}
	r.mu.Lock()
	if r.subs == nil {
		r.subs = make(map[string]map[int]func(layout.LayoutUpdate))
	}
	if r.subs[sessionID] == nil {
		r.subs[sessionID] = make(map[int]func(layout.LayoutUpdate))
	}
	id := r.nextSub
	r.nextSub++
	r.subs[sessionID][id] = onMsg
	r.mu.Unlock()

	go func() {
		<-ctx.Done()
		r.mu.Lock()
		defer r.mu.Unlock()
		delete(r.subs[sessionID], id)
		if len(r.subs[sessionID]) == 0 {
			delete(r.subs, sessionID)
		}
	}()
	return nil
}

// Subscribers reports how many subscriptions are live for a session.
func (r *Recorder) Subscribers(sessionID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.subs[sessionID])
}

// Updates returns a copy of everything published so far.
func (r *Recorder) Updates() []layout.LayoutUpdate {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]layout.LayoutUpdate(nil), r.updates...)
}

func (r *Recorder) Close() error { return nil }
