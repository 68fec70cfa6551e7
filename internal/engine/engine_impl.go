package engine

import (
	"errors"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/jtolonen/stroll/internal/persistence"
	"github.com/jtolonen/stroll/pkg/api"
)

// engineImpl is a synchronous, in-process tour engine.
//
// Exactly one tour is active at a time. All mutation goes through the
// public operations; every transition produces a fresh api.TourState copy
// for each subscriber. Operations called from inside a subscriber callback
// are completed synchronously, and the resulting notifications are queued
// and drained in order instead of recursing, so nested calls are safe and
// last-writer-wins.
type engineImpl struct {
	registry *tourRegistry
	store    persistence.RecordStore
	logger   *slog.Logger

	mu sync.Mutex

	// Persisted record, kept authoritative in memory. Saving is best
	// effort; a store failure is logged and the process carries on.
	completed       map[string]struct{}
	skipped         map[string]struct{}
	lastCompletedAt *time.Time

	// Active tour. def is nil unless status is StatusRunning; tourID keeps
	// naming the last tour through its terminal state so subscribers can
	// tell whose completion they are looking at.
	tourID    string
	def       *api.TourDefinition
	status    api.Status
	stepIndex int

	subs      map[int]api.Listener
	nextSubID int

	// Notification queue. dispatching marks that a goroutine higher up the
	// stack is already draining it; nested transitions just append.
	dispatching bool
	queue       []api.TourState
}

// Config describes how to construct an engineImpl.
// Only used inside this package; external callers use the stroll package
// constructors.
type Config struct {
	Store  persistence.RecordStore
	Logger *slog.Logger
}

// NewEngine returns an Engine persisting its record through store.
func NewEngine(store persistence.RecordStore) api.Engine {
	return NewEngineWithConfig(Config{Store: store})
}

// NewEngineWithConfig creates a new Engine using the given configuration.
// The persisted record is loaded here, once; a load failure degrades to an
// empty record and a warning.
func NewEngineWithConfig(cfg Config) api.Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	store := cfg.Store
	if store == nil {
		store = persistence.NewInMemoryStore()
	}

	e := &engineImpl{
		registry:  newTourRegistry(),
		store:     store,
		logger:    logger,
		completed: make(map[string]struct{}),
		skipped:   make(map[string]struct{}),
		status:    api.StatusIdle,
		stepIndex: -1,
		subs:      make(map[int]api.Listener),
	}

	rec, err := store.Load()
	switch {
	case errors.Is(err, persistence.ErrRecordNotFound):
		// First run for this store; nothing to restore.
	case err != nil:
		logger.Warn("tour_record_load_failed, starting with empty record",
			slog.Any("error", err))
	default:
		rec = persistence.Normalize(rec)
		for _, id := range rec.Completed {
			e.completed[id] = struct{}{}
		}
		for _, id := range rec.Skipped {
			e.skipped[id] = struct{}{}
		}
		e.lastCompletedAt = rec.LastCompletedAt
	}

	return e
}

func (e *engineImpl) Register(def api.TourDefinition) error {
	if err := def.Validate(); err != nil {
		return err
	}
	return e.registry.Register(def)
}

func (e *engineImpl) Start(id string) {
	def, ok := e.registry.Get(id)
	if !ok {
		e.logger.Warn("tour_start_unknown", slog.String("tour", id))
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if _, done := e.completed[id]; done {
		e.logger.Debug("tour_start_already_completed", slog.String("tour", id))
		return
	}
	if _, done := e.skipped[id]; done {
		e.logger.Debug("tour_start_already_skipped", slog.String("tour", id))
		return
	}

	if e.def != nil {
		// One active tour at a time: the running tour is dropped without
		// persisting, same as Stop.
		e.logger.Debug("tour_replaced",
			slog.String("old", e.def.ID), slog.String("new", id))
	}

	first := e.nextVisitable(def, -1)
	if first < 0 {
		// Every step's predicate is true right now: the tour has nothing
		// to show and counts as completed without ever becoming active.
		e.tourID = id
		e.def = nil
		e.status = api.StatusCompleted
		e.stepIndex = -1
		e.markCompletedLocked(id)
		e.logger.Info("tour_completed_empty", slog.String("tour", id))
		e.publishLocked()
		return
	}

	e.tourID = id
	e.def = &def
	e.status = api.StatusRunning
	e.stepIndex = first
	e.logger.Info("tour_started",
		slog.String("tour", id), slog.Int("step_index", first))
	e.publishLocked()
}

func (e *engineImpl) Next() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.status != api.StatusRunning || e.def == nil {
		e.logger.Debug("tour_next_ignored_not_running")
		return
	}

	tourID := e.tourID
	idx := e.stepIndex
	step := e.def.Steps[idx]

	if step.OnStepComplete != nil {
		e.runStepCallback(step)
		// The callback ran user code without the lock; anything may have
		// happened, including nested engine calls. Only proceed if we are
		// still on the same step of the same tour.
		if e.status != api.StatusRunning || e.def == nil || e.tourID != tourID || e.stepIndex != idx {
			return
		}
	}

	next := e.nextVisitable(*e.def, idx)
	if next < 0 {
		id := e.tourID
		e.def = nil
		e.status = api.StatusCompleted
		e.stepIndex = -1
		e.markCompletedLocked(id)
		e.logger.Info("tour_completed", slog.String("tour", id))
		e.publishLocked()
		return
	}

	e.stepIndex = next
	e.logger.Debug("tour_advanced",
		slog.String("tour", e.tourID), slog.Int("step_index", next))
	e.publishLocked()
}

func (e *engineImpl) Previous() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.status != api.StatusRunning || e.def == nil {
		e.logger.Debug("tour_previous_ignored_not_running")
		return
	}

	prev := e.previousVisitable(*e.def, e.stepIndex)
	if prev < 0 {
		// Already at the first visible step.
		return
	}

	e.stepIndex = prev
	e.logger.Debug("tour_retreated",
		slog.String("tour", e.tourID), slog.Int("step_index", prev))
	e.publishLocked()
}

func (e *engineImpl) Skip() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.status != api.StatusRunning || e.def == nil {
		e.logger.Debug("tour_skip_ignored_not_running")
		return
	}
	if !e.def.AllowSkip {
		e.logger.Debug("tour_skip_not_allowed", slog.String("tour", e.tourID))
		return
	}

	id := e.tourID
	e.def = nil
	e.status = api.StatusSkipped
	e.stepIndex = -1
	e.markSkippedLocked(id)
	e.logger.Info("tour_skipped", slog.String("tour", id))
	e.publishLocked()
}

func (e *engineImpl) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.status != api.StatusRunning || e.def == nil {
		return
	}

	id := e.tourID
	e.def = nil
	e.status = api.StatusStopped
	e.stepIndex = -1
	// Deliberately not persisted: a closed tour is eligible to run again.
	e.logger.Info("tour_stopped", slog.String("tour", id))
	e.publishLocked()
}

func (e *engineImpl) Complete() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.status != api.StatusRunning || e.def == nil {
		e.logger.Debug("tour_complete_ignored_not_running")
		return
	}

	id := e.tourID
	e.def = nil
	e.status = api.StatusCompleted
	e.stepIndex = -1
	e.markCompletedLocked(id)
	e.logger.Info("tour_completed", slog.String("tour", id))
	e.publishLocked()
}

func (e *engineImpl) Reset(id string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	_, wasCompleted := e.completed[id]
	_, wasSkipped := e.skipped[id]
	if !wasCompleted && !wasSkipped {
		return
	}

	delete(e.completed, id)
	delete(e.skipped, id)
	e.logger.Info("tour_reset", slog.String("tour", id))
	e.persistLocked()
}

func (e *engineImpl) ResetAll() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.completed = make(map[string]struct{})
	e.skipped = make(map[string]struct{})
	e.lastCompletedAt = nil
	e.logger.Info("tour_reset_all")
	e.persistLocked()
}

func (e *engineImpl) State() api.TourState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stateLocked()
}

func (e *engineImpl) CurrentStep() (api.TourStep, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.status != api.StatusRunning || e.def == nil {
		return api.TourStep{}, false
	}
	return e.def.Steps[e.stepIndex], true
}

func (e *engineImpl) CurrentDefinition() (api.TourDefinition, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.def == nil {
		return api.TourDefinition{}, false
	}
	return *e.def, true
}

func (e *engineImpl) Definition(id string) (api.TourDefinition, bool) {
	return e.registry.Get(id)
}

func (e *engineImpl) IsCompleted(id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, ok := e.completed[id]
	return ok
}

func (e *engineImpl) IsSkipped(id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, ok := e.skipped[id]
	return ok
}

func (e *engineImpl) Subscribe(l api.Listener) func() {
	if l == nil {
		return func() {}
	}

	e.mu.Lock()
	e.nextSubID++
	id := e.nextSubID
	e.subs[id] = l
	st := e.stateLocked()
	e.mu.Unlock()

	// Immediate synchronous delivery so a freshly mounted consumer renders
	// without waiting for the next transition.
	l(st)

	return func() {
		e.mu.Lock()
		delete(e.subs, id)
		e.mu.Unlock()
	}
}

// nextVisitable returns the first index after 'after' whose skip predicate
// evaluates false, or -1 when the sequence is exhausted. Predicates are
// evaluated here and nowhere else on the forward path, so they always see
// current external state.
func (e *engineImpl) nextVisitable(def api.TourDefinition, after int) int {
	for i := after + 1; i < len(def.Steps); i++ {
		if !e.stepSkipped(def.Steps[i]) {
			return i
		}
	}
	return -1
}

// previousVisitable returns the nearest index before 'before' whose skip
// predicate evaluates false, or -1 when every earlier step is skipped.
func (e *engineImpl) previousVisitable(def api.TourDefinition, before int) int {
	for i := before - 1; i >= 0; i-- {
		if !e.stepSkipped(def.Steps[i]) {
			return i
		}
	}
	return -1
}

// stepSkipped evaluates a step's predicate. A panicking predicate counts as
// "not skipped": a broken predicate must not hide a step.
func (e *engineImpl) stepSkipped(step api.TourStep) (skipped bool) {
	if step.SkipWhen == nil {
		return false
	}
	defer func() {
		if r := recover(); r != nil {
			e.logger.Warn("tour_skip_predicate_panic",
				slog.String("step", step.ID), slog.Any("panic", r))
			skipped = false
		}
	}()
	return step.SkipWhen()
}

// runStepCallback invokes a step's OnStepComplete outside the lock, so the
// callback may call back into the engine. Callers must revalidate the
// cursor afterwards. Must be called with e.mu held.
func (e *engineImpl) runStepCallback(step api.TourStep) {
	e.mu.Unlock()
	defer e.mu.Lock()

	defer func() {
		if r := recover(); r != nil {
			e.logger.Warn("tour_step_callback_panic",
				slog.String("step", step.ID), slog.Any("panic", r))
		}
	}()
	step.OnStepComplete()
}

func (e *engineImpl) markCompletedLocked(id string) {
	e.completed[id] = struct{}{}
	delete(e.skipped, id)
	now := time.Now()
	e.lastCompletedAt = &now
	e.persistLocked()
}

func (e *engineImpl) markSkippedLocked(id string) {
	if _, done := e.completed[id]; done {
		// Completed wins; never demote.
		return
	}
	e.skipped[id] = struct{}{}
	e.persistLocked()
}

// persistLocked writes the in-memory record through the store. Failures are
// logged and swallowed: the in-memory record stays authoritative for the
// rest of the process, and the transition that triggered the save has
// already committed.
func (e *engineImpl) persistLocked() {
	rec := api.Record{
		Completed:       sortedIDs(e.completed),
		Skipped:         sortedIDs(e.skipped),
		LastCompletedAt: e.lastCompletedAt,
	}
	if err := e.store.Save(rec); err != nil {
		e.logger.Warn("tour_record_save_failed", slog.Any("error", err))
	}
}

func (e *engineImpl) stateLocked() api.TourState {
	st := api.TourState{
		TourID:      e.tourID,
		Status:      e.status,
		StepIndex:   -1,
		IsActive:    e.status == api.StatusRunning,
		IsCompleted: e.status == api.StatusCompleted,
		IsSkipped:   e.status == api.StatusSkipped,
	}
	if e.def != nil {
		st.StepIndex = e.stepIndex
		st.StepID = e.def.Steps[e.stepIndex].ID
		st.StepCount = len(e.def.Steps)
		st.ShowProgress = e.def.ShowProgress
	}
	return st
}

// publishLocked queues the current state for delivery and, unless a caller
// further up the stack is already dispatching, drains the queue. Listeners
// run without the lock; a listener invoking an engine operation therefore
// completes it synchronously, and the resulting notification lands at the
// back of this same queue rather than recursing.
func (e *engineImpl) publishLocked() {
	e.queue = append(e.queue, e.stateLocked())
	if e.dispatching {
		return
	}

	e.dispatching = true
	defer func() { e.dispatching = false }()

	for len(e.queue) > 0 {
		st := e.queue[0]
		e.queue = e.queue[1:]

		listeners := make([]api.Listener, 0, len(e.subs))
		for _, l := range e.subs {
			listeners = append(listeners, l)
		}

		e.mu.Unlock()
		for _, l := range listeners {
			l(st)
		}
		e.mu.Lock()
	}
}

func sortedIDs(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
