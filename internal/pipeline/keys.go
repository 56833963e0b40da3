package pipeline

import (
	"fmt"
	"time"
)

// Session fields stored under session:{id}:{field}.
const (
	FieldState        = "state"
	FieldConstraints  = "constraints"
	FieldCandidates   = "candidates"
	FieldSelected     = "selected"
	FieldLayoutHash   = "layout_hash"
	FieldLayout       = "layout"
	FieldRecentlyUsed = "recently_used"
)

// DefaultRecentlyUsedCap bounds the recently-used list. The oldest id is
// evicted first.
const DefaultRecentlyUsedCap = 20

func SessionKey(sessionID, field string) string {
	return fmt.Sprintf("session:%s:%s", sessionID, field)
}

func LockKey(sessionID string) string {
	return "agent_lock:" + sessionID
}

// TTLs holds the expiry of every key the pipeline writes.
type TTLs struct {
	Lock         time.Duration
	Session      time.Duration
	Candidates   time.Duration
	Layout       time.Duration
	RecentlyUsed time.Duration
}

func DefaultTTLs() TTLs {
	return TTLs{
		Lock:         30 * time.Second,
		Session:      30 * time.Minute,
		Candidates:   5 * time.Minute,
		Layout:       30 * time.Minute,
		RecentlyUsed: 30 * time.Minute,
	}
}

// withDefaults fills zero durations from DefaultTTLs.
func (t TTLs) withDefaults() TTLs {
	d := DefaultTTLs()
	if t.Lock <= 0 {
		t.Lock = d.Lock
	}
	if t.Session <= 0 {
		t.Session = d.Session
	}
	if t.Candidates <= 0 {
		t.Candidates = d.Candidates
	}
	if t.Layout <= 0 {
		t.Layout = d.Layout
	}
	if t.RecentlyUsed <= 0 {
		t.RecentlyUsed = d.RecentlyUsed
	}
	return t
}
