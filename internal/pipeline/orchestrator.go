package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/yungbote/storefront-layout/internal/data/kv"
	"github.com/yungbote/storefront-layout/internal/data/snapshot"
	"github.com/yungbote/storefront-layout/internal/domain/layout"
	"github.com/yungbote/storefront-layout/internal/jobs/background"
	"github.com/yungbote/storefront-layout/internal/observability"
	pkgerrors "github.com/yungbote/storefront-layout/internal/pkg/errors"
	"github.com/yungbote/storefront-layout/internal/platform/logger"
	"github.com/yungbote/storefront-layout/internal/realtime/bus"
)

type State string

const (
	StateLockWait        State = "LOCK_WAIT"
	StateStateWrite      State = "STATE_WRITE"
	StateConstraintBuild State = "CONSTRAINT_BUILD"
	StateSelect          State = "SELECT"
	StateAssemble        State = "ASSEMBLE"
	StatePublish         State = "PUBLISH"
	StateRelease         State = "RELEASE"
	StateDone            State = "DONE"
	StateSkipped         State = "SKIPPED"
)

// Background job names.
const (
	JobSnapshot     = "snapshot"
	JobVectorSearch = "vector_search"
)

// Result describes one Process call. Layout is nil unless State is DONE.
type Result struct {
	State        State                `json:"state"`
	Layout       *layout.LayoutSchema `json:"layout,omitempty"`
	Changed      bool                 `json:"changed"`
	Published    bool                 `json:"published"`
	SuggestedID  *int                 `json:"suggested_id,omitempty"`
	Degradations []Degradation        `json:"degradations,omitempty"`
}

type Deps struct {
	Log       *logger.Logger
	KV        kv.Store
	Snapshots snapshot.Store
	Publisher bus.Publisher
	Runner    *background.Runner
	Searcher  CandidateSearcher
	Selector  *Selector
	Assembler *Assembler
	Metrics   *observability.Metrics
}

type Options struct {
	TTLs            TTLs
	RecentlyUsedCap int
	RequiredSlots   []string
	// OnState, when set, is called on every state transition.
	OnState func(sessionID string, s State)
}

// Orchestrator runs the preference-to-layout pipeline with at most one run
// in flight per session.
type Orchestrator struct {
	log       *logger.Logger
	kv        kv.Store
	snapshots snapshot.Store
	publisher bus.Publisher
	runner    *background.Runner
	searcher  CandidateSearcher
	selector  *Selector
	assembler *Assembler
	metrics   *observability.Metrics

	ttl       TTLs
	recentCap int
	slots     []string
	onState   func(string, State)
}

func NewOrchestrator(deps Deps, opts Options) (*Orchestrator, error) {
	if deps.KV == nil {
		return nil, fmt.Errorf("kv store required")
	}
	if deps.Selector == nil {
		return nil, fmt.Errorf("selector required")
	}
	if deps.Searcher == nil {
		return nil, fmt.Errorf("candidate searcher required")
	}
	log := deps.Log
	if log == nil {
		log = logger.NewNop()
	}
	o := &Orchestrator{
		log:       log.With("component", "PipelineOrchestrator"),
		kv:        deps.KV,
		snapshots: deps.Snapshots,
		publisher: deps.Publisher,
		runner:    deps.Runner,
		searcher:  deps.Searcher,
		selector:  deps.Selector,
		assembler: deps.Assembler,
		metrics:   deps.Metrics,
		ttl:       opts.TTLs.withDefaults(),
		recentCap: opts.RecentlyUsedCap,
		slots:     opts.RequiredSlots,
		onState:   opts.OnState,
	}
	if o.snapshots == nil {
		o.snapshots = snapshot.Discard
	}
	if o.publisher == nil {
		o.publisher = bus.NewRecorder()
	}
	if o.runner == nil {
		o.runner = background.NewRunner(log, background.Config{}, nil, background.Hooks{OnDone: deps.Metrics.JobDone})
	}
	if o.assembler == nil {
		o.assembler = NewAssembler(log)
	}
	if o.recentCap <= 0 {
		o.recentCap = DefaultRecentlyUsedCap
	}
	if len(o.slots) == 0 {
		o.slots = layout.DefaultSlots
	}
	return o, nil
}

func (o *Orchestrator) enter(ctx context.Context, sessionID string, s State) {
	trace.SpanFromContext(ctx).AddEvent(string(s))
	if o.onState != nil {
		o.onState(sessionID, s)
	}
}

// Process runs the pipeline for one telemetry batch. Lock contention is not
// an error: the call returns StateSkipped having written nothing. Failures
// to persist session state or the assembled layout are returned after the
// lock is released.
func (o *Orchestrator) Process(ctx context.Context, sessionID string, p layout.PreferenceRecord, sctx layout.SessionContext) (Result, error) {
	if sessionID == "" {
		return Result{}, fmt.Errorf("session_id required: %w", pkgerrors.ErrInvalidArgument)
	}
	if err := p.Validate(); err != nil {
		return Result{}, err
	}
	if sctx.SessionID != sessionID || sctx.PageType == "" || sctx.DeviceType == "" {
		sctx = layout.NewSessionContext(sessionID, sctx.PageType, sctx.DeviceType, sctx.Timestamp)
	}
	if sctx.Timestamp.IsZero() {
		sctx.Timestamp = time.Now().UTC()
	}

	ctx, span := observability.Tracer().Start(ctx, "pipeline.Process", trace.WithAttributes(
		attribute.String("layout.page_type", sctx.PageType),
		attribute.String("layout.device_type", sctx.DeviceType),
	))
	defer span.End()
	start := time.Now()

	o.enter(ctx, sessionID, StateLockWait)
	token := uuid.NewString()
	acquired, err := o.kv.SetNX(ctx, LockKey(sessionID), []byte(token), o.ttl.Lock)
	if err != nil {
		o.metrics.RunFinished("error", 0)
		span.SetStatus(codes.Error, "lock")
		return Result{State: StateLockWait}, fmt.Errorf("acquire lock: %w", err)
	}
	if !acquired {
		o.log.Info("pipeline already running, skipping", "session_id", sessionID)
		o.metrics.RunFinished("skipped", 0)
		o.enter(ctx, sessionID, StateSkipped)
		return Result{State: StateSkipped}, nil
	}

	var (
		res    Result
		runErr error
	)
	func() {
		defer o.release(ctx, sessionID, token)
		res, runErr = o.run(ctx, sessionID, p, sctx)
	}()
	if runErr != nil {
		o.metrics.RunFinished("error", time.Since(start))
		span.RecordError(runErr)
		span.SetStatus(codes.Error, "pipeline")
		o.log.Error("pipeline failed", "session_id", sessionID, "state", res.State, "error", runErr)
		return res, runErr
	}

	res.State = StateDone
	o.enter(ctx, sessionID, StateDone)
	o.metrics.RunFinished("done", time.Since(start))
	span.SetAttributes(
		attribute.Bool("layout.changed", res.Changed),
		attribute.Int("layout.degradations", len(res.Degradations)),
	)
	return res, nil
}

// release deletes the lock only if this run still owns it. It runs on a
// context detached from the caller so a cancelled request still unlocks.
func (o *Orchestrator) release(ctx context.Context, sessionID, token string) {
	o.enter(ctx, sessionID, StateRelease)
	rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	defer cancel()
	ok, err := o.kv.CompareAndDelete(rctx, LockKey(sessionID), []byte(token))
	if err != nil {
		o.log.Warn("lock release failed; lock will expire", "session_id", sessionID, "error", err)
		return
	}
	if !ok {
		o.log.Warn("lock expired before release", "session_id", sessionID, "lock_ttl", o.ttl.Lock)
	}
}

func (o *Orchestrator) run(ctx context.Context, sessionID string, p layout.PreferenceRecord, sctx layout.SessionContext) (Result, error) {
	res := Result{}

	res.State = StateStateWrite
	o.enter(ctx, sessionID, StateStateWrite)
	if err := kv.SetJSON(ctx, o.kv, SessionKey(sessionID, FieldState), p, o.ttl.Session); err != nil {
		return res, fmt.Errorf("write session state: %w", err)
	}

	res.State = StateConstraintBuild
	o.enter(ctx, sessionID, StateConstraintBuild)
	recent := loadJSON(ctx, o.kv, SessionKey(sessionID, FieldRecentlyUsed), []string{})
	o.note(&res, sessionID, FieldRecentlyUsed, recent.Reason)

	constraints := BuildConstraints(p, sctx)
	constraints.Hard.ExcludedIDs = append(constraints.Hard.ExcludedIDs, recent.Value...)
	if err := kv.SetJSON(ctx, o.kv, SessionKey(sessionID, FieldConstraints), constraints, o.ttl.Session); err != nil {
		return res, fmt.Errorf("write constraints: %w", err)
	}
	o.spawnBackground(ctx, sessionID, p, sctx, constraints)

	res.State = StateSelect
	o.enter(ctx, sessionID, StateSelect)
	cached := loadJSON(ctx, o.kv, SessionKey(sessionID, FieldCandidates), CandidateSet{})
	o.note(&res, sessionID, FieldCandidates, cached.Reason)

	sel := o.selector.Select(constraints, SelectOptions{
		RecentlyUsed:   recent.Value,
		RequiredSlots:  o.slots,
		SemanticScores: cached.Value.Scores(),
	})
	for _, slot := range sel.SkippedSlots {
		o.metrics.SlotSkipped(slot)
	}

	selectedIDs := sel.SelectedIDs()
	if err := kv.SetJSON(ctx, o.kv, SessionKey(sessionID, FieldSelected), selectedIDs, o.ttl.Candidates); err != nil {
		o.note(&res, sessionID, FieldSelected, err.Error())
	}
	updated := appendRecent(recent.Value, selectedIDs, o.recentCap)
	if err := kv.SetJSON(ctx, o.kv, SessionKey(sessionID, FieldRecentlyUsed), updated, o.ttl.RecentlyUsed); err != nil {
		o.note(&res, sessionID, "recently_used_write", err.Error())
	}

	res.State = StateAssemble
	o.enter(ctx, sessionID, StateAssemble)
	prev := o.loadPreviousHash(ctx, sessionID)
	o.note(&res, sessionID, FieldLayoutHash, prev.Reason)

	schema, changed, err := o.assembler.Assemble(sessionID, sel, p, prev.Value)
	if err != nil {
		return res, fmt.Errorf("assemble layout: %w", err)
	}
	if err := kv.SetJSON(ctx, o.kv, SessionKey(sessionID, FieldLayout), schema, o.ttl.Layout); err != nil {
		return res, fmt.Errorf("cache layout: %w", err)
	}
	if err := o.kv.Set(ctx, SessionKey(sessionID, FieldLayoutHash), []byte(schema.LayoutHash), o.ttl.Layout); err != nil {
		return res, fmt.Errorf("cache layout hash: %w", err)
	}
	res.Layout = &schema
	res.Changed = changed

	res.State = StatePublish
	o.enter(ctx, sessionID, StatePublish)
	if rec, ok := o.searcher.Recommend(ctx, p); ok {
		id := rec.ModuleID
		res.SuggestedID = &id
	}
	res.Published = o.publish(ctx, sessionID, schema, changed, res.SuggestedID)

	o.log.Info("pipeline complete",
		"session_id", sessionID,
		"layout_hash", schema.LayoutHash[:8],
		"components", len(schema.Components),
		"changed", changed,
		"degradations", len(res.Degradations),
	)
	return res, nil
}

// publish hands the update to the bus when the hash changed. Errors are
// logged and counted, never returned.
func (o *Orchestrator) publish(ctx context.Context, sessionID string, schema layout.LayoutSchema, changed bool, suggestedID *int) bool {
	if !changed {
		o.metrics.Published("suppressed")
		return false
	}
	if err := o.publisher.Publish(ctx, sessionID, layout.NewLayoutUpdate(schema, suggestedID)); err != nil {
		o.log.Warn("layout publish failed", "session_id", sessionID, "error", err)
		o.metrics.Published("error")
		return false
	}
	o.metrics.Published("published")
	return true
}

func (o *Orchestrator) spawnBackground(ctx context.Context, sessionID string, p layout.PreferenceRecord, sctx layout.SessionContext, c layout.Constraints) {
	snap := snapshot.Snapshot{
		SessionID:   sessionID,
		PageType:    sctx.PageType,
		DeviceType:  sctx.DeviceType,
		Preferences: p,
		Constraints: layout.SummarizeConstraints(c),
		Timestamp:   sctx.Timestamp,
	}
	o.runner.Go(ctx, JobSnapshot, sessionID, func(ctx context.Context) error {
		return o.snapshots.Append(ctx, snap)
	})

	slots := append([]string(nil), o.slots...)
	o.runner.Go(ctx, JobVectorSearch, sessionID, func(ctx context.Context) error {
		set, err := o.searcher.SearchCandidates(ctx, p, slots)
		if err != nil {
			return fmt.Errorf("candidate search: %w", err)
		}
		for _, cands := range set.Slots {
			if len(cands) > 0 {
				o.metrics.ObserveTopScore(cands[0].Score)
			}
		}
		return kv.SetJSON(ctx, o.kv, SessionKey(sessionID, FieldCandidates), set, o.ttl.Candidates)
	})
}

func (o *Orchestrator) loadPreviousHash(ctx context.Context, sessionID string) Outcome[string] {
	raw, err := o.kv.Get(ctx, SessionKey(sessionID, FieldLayoutHash))
	if err != nil {
		return Degraded("", degradeReason(err))
	}
	return Ok(string(raw))
}

// note records a fallback. Missing keys are routine on a session's first
// run and are logged at debug; read errors at warn.
func (o *Orchestrator) note(res *Result, sessionID, step, reason string) {
	if reason == "" {
		return
	}
	res.Degradations = append(res.Degradations, Degradation{Step: step, Reason: reason})
	o.metrics.Degraded(step)
	if reason == reasonNotFound {
		o.log.Debug("using default", "session_id", sessionID, "step", step)
		return
	}
	o.log.Warn("using default after error", "session_id", sessionID, "step", step, "reason", reason)
}

// CachedLayout returns the last layout assembled for a session.
func (o *Orchestrator) CachedLayout(ctx context.Context, sessionID string) (layout.LayoutSchema, error) {
	var schema layout.LayoutSchema
	if err := kv.GetJSON(ctx, o.kv, SessionKey(sessionID, FieldLayout), &schema); err != nil {
		return layout.LayoutSchema{}, err
	}
	return schema, nil
}

// Wait blocks until background jobs started so far have finished.
func (o *Orchestrator) Wait(ctx context.Context) error {
	return o.runner.Wait(ctx)
}

const reasonNotFound = "not found"

func degradeReason(err error) string {
	if errors.Is(err, pkgerrors.ErrNotFound) {
		return reasonNotFound
	}
	return err.Error()
}

func loadJSON[T any](ctx context.Context, store kv.Store, key string, fallback T) Outcome[T] {
	var v T
	if err := kv.GetJSON(ctx, store, key, &v); err != nil {
		return Degraded(fallback, degradeReason(err))
	}
	return Ok(v)
}

// appendRecent adds ids as the newest entries and keeps the last limit.
// An id already present moves to the newest end.
func appendRecent(current, ids []string, limit int) []string {
	added := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		added[id] = struct{}{}
	}
	out := make([]string, 0, len(current)+len(ids))
	for _, id := range current {
		if _, dup := added[id]; !dup {
			out = append(out, id)
		}
	}
	out = append(out, ids...)
	if len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out
}
