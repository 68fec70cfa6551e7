package engine

import (
	"io"
	"log/slog"
	"testing"

	"github.com/jtolonen/stroll/internal/persistence"
	"github.com/jtolonen/stroll/pkg/api"
)

func newTestEngine(t *testing.T, store persistence.RecordStore) api.Engine {
	t.Helper()

	if store == nil {
		store = persistence.NewInMemoryStore()
	}
	return NewEngineWithConfig(Config{
		Store:  store,
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
}

func threeStepTour(id string) api.TourDefinition {
	return api.TourDefinition{
		ID:        id,
		Title:     "Editor walkthrough",
		AllowSkip: true,
		Steps: []api.TourStep{
			{ID: "open-story", Target: "#story-list", Title: "Your stories"},
			{ID: "translate", Target: "#editor-pane", Title: "Translate here"},
			{ID: "save-vocab", Target: "#vocab-save", Title: "Save new words"},
		},
	}
}

func mustRegister(t *testing.T, eng api.Engine, def api.TourDefinition) {
	t.Helper()
	if err := eng.Register(def); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
}

func TestThreeStepTourRunsToCompletion(t *testing.T) {
	store := persistence.NewInMemoryStore()
	eng := newTestEngine(t, store)
	mustRegister(t, eng, threeStepTour("editor-intro"))

	eng.Start("editor-intro")

	st := eng.State()
	if !st.IsActive || st.StepIndex != 0 {
		t.Fatalf("after Start: expected active at index 0, got %+v", st)
	}
	if st.StepID != "open-story" || st.StepCount != 3 {
		t.Fatalf("unexpected step metadata: %+v", st)
	}

	eng.Next()
	if st := eng.State(); st.StepIndex != 1 {
		t.Fatalf("after first Next: expected index 1, got %+v", st)
	}

	eng.Next()
	if st := eng.State(); st.StepIndex != 2 {
		t.Fatalf("after second Next: expected index 2, got %+v", st)
	}

	eng.Next()
	st = eng.State()
	if st.IsActive {
		t.Fatalf("expected tour inactive after running off the end, got %+v", st)
	}
	if !st.IsCompleted || st.Status != api.StatusCompleted {
		t.Fatalf("expected completed state, got %+v", st)
	}
	if !eng.IsCompleted("editor-intro") {
		t.Fatalf("expected IsCompleted(editor-intro) == true")
	}

	rec, err := store.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(rec.Completed) != 1 || rec.Completed[0] != "editor-intro" {
		t.Fatalf("unexpected persisted record: %+v", rec)
	}
	if rec.LastCompletedAt == nil {
		t.Fatalf("expected LastCompletedAt to be set")
	}
}

func TestStartUnknownTourIsNoOp(t *testing.T) {
	eng := newTestEngine(t, nil)

	eng.Start("does-not-exist")

	if st := eng.State(); st.IsActive {
		t.Fatalf("expected engine to stay idle, got %+v", st)
	}
}

func TestStartCompletedTourIsNoOpUntilReset(t *testing.T) {
	eng := newTestEngine(t, nil)
	mustRegister(t, eng, threeStepTour("editor-intro"))

	eng.Start("editor-intro")
	eng.Complete()

	eng.Start("editor-intro")
	if st := eng.State(); st.IsActive {
		t.Fatalf("completed tour restarted: %+v", st)
	}

	eng.Reset("editor-intro")
	if eng.IsCompleted("editor-intro") {
		t.Fatalf("expected Reset to clear completion")
	}

	eng.Start("editor-intro")
	if st := eng.State(); !st.IsActive || st.StepIndex != 0 {
		t.Fatalf("expected tour to start after Reset, got %+v", st)
	}
}

func TestAllStepsSkippedCompletesWithoutActivation(t *testing.T) {
	eng := newTestEngine(t, nil)

	alwaysSkip := func() bool { return true }
	def := api.TourDefinition{
		ID: "nothing-to-show",
		Steps: []api.TourStep{
			{ID: "a", Target: "#a", SkipWhen: alwaysSkip},
			{ID: "b", Target: "#b", SkipWhen: alwaysSkip},
		},
	}
	mustRegister(t, eng, def)

	var sawActive bool
	unsub := eng.Subscribe(func(st api.TourState) {
		if st.IsActive {
			sawActive = true
		}
	})
	defer unsub()

	eng.Start("nothing-to-show")

	if sawActive {
		t.Fatalf("engine emitted an active state for an all-skipped tour")
	}
	st := eng.State()
	if !st.IsCompleted || st.IsActive {
		t.Fatalf("expected immediate completion, got %+v", st)
	}
	if !eng.IsCompleted("nothing-to-show") {
		t.Fatalf("expected tour persisted as completed")
	}
}

func TestSkipPredicateIsEvaluatedLazily(t *testing.T) {
	signedIn := false
	def := api.TourDefinition{
		ID: "signin-tour",
		Steps: []api.TourStep{
			{ID: "welcome", Target: "#welcome"},
			{ID: "profile", Target: "#profile", SkipWhen: func() bool { return !signedIn }},
		},
	}

	// Predicate stays false: step 2 is skipped and the tour ends after
	// step 1.
	eng := newTestEngine(t, nil)
	mustRegister(t, eng, def)
	eng.Start("signin-tour")
	eng.Next()
	if st := eng.State(); !st.IsCompleted {
		t.Fatalf("expected completion when second step is skipped, got %+v", st)
	}

	// Same tour, but the user signs in between Start and Next: the
	// predicate is re-evaluated and the step becomes visitable.
	signedIn = false
	eng2 := newTestEngine(t, nil)
	mustRegister(t, eng2, def)
	eng2.Start("signin-tour")
	signedIn = true
	eng2.Next()
	if st := eng2.State(); !st.IsActive || st.StepIndex != 1 {
		t.Fatalf("expected index 1 after signing in, got %+v", st)
	}
}

func TestRepeatedNextIsMonotonicAndTerminates(t *testing.T) {
	eng := newTestEngine(t, nil)
	mustRegister(t, eng, threeStepTour("editor-intro"))
	eng.Start("editor-intro")

	// A pathological renderer may call Next on every animation frame; the
	// cursor must never revisit an index and the loop must terminate.
	last := eng.State().StepIndex
	for i := 0; i < 50; i++ {
		eng.Next()
		st := eng.State()
		if st.IsActive {
			if st.StepIndex <= last {
				t.Fatalf("cursor did not advance: %d -> %d", last, st.StepIndex)
			}
			last = st.StepIndex
		}
	}

	st := eng.State()
	if st.IsActive || !st.IsCompleted {
		t.Fatalf("expected completion after repeated Next, got %+v", st)
	}
}

func TestPreviousSkipsAndNeverGoesBelowZero(t *testing.T) {
	skipMiddle := false
	def := api.TourDefinition{
		ID: "back-tour",
		Steps: []api.TourStep{
			{ID: "a", Target: "#a"},
			{ID: "b", Target: "#b", SkipWhen: func() bool { return skipMiddle }},
			{ID: "c", Target: "#c"},
		},
	}
	eng := newTestEngine(t, nil)
	mustRegister(t, eng, def)

	eng.Start("back-tour")
	eng.Next()
	eng.Next()
	if st := eng.State(); st.StepIndex != 2 {
		t.Fatalf("setup: expected index 2, got %+v", st)
	}

	// The middle step's predicate flips true before going back; Previous
	// must land on index 0.
	skipMiddle = true
	eng.Previous()
	if st := eng.State(); st.StepIndex != 0 {
		t.Fatalf("expected Previous to skip to index 0, got %+v", st)
	}

	// Already at the first visible step: no-op.
	eng.Previous()
	if st := eng.State(); st.StepIndex != 0 || !st.IsActive {
		t.Fatalf("expected Previous at index 0 to be a no-op, got %+v", st)
	}
}

func TestSkipPersistsAndBlocksRestart(t *testing.T) {
	store := persistence.NewInMemoryStore()
	eng := newTestEngine(t, store)
	mustRegister(t, eng, threeStepTour("editor-intro"))

	eng.Start("editor-intro")
	eng.Skip()

	st := eng.State()
	if st.IsActive || !st.IsSkipped || st.Status != api.StatusSkipped {
		t.Fatalf("expected skipped terminal state, got %+v", st)
	}
	if !eng.IsSkipped("editor-intro") {
		t.Fatalf("expected IsSkipped == true")
	}

	eng.Start("editor-intro")
	if st := eng.State(); st.IsActive {
		t.Fatalf("skipped tour restarted: %+v", st)
	}

	rec, err := store.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(rec.Skipped) != 1 || rec.Skipped[0] != "editor-intro" {
		t.Fatalf("unexpected persisted record: %+v", rec)
	}

	eng.Reset("editor-intro")
	eng.Start("editor-intro")
	if st := eng.State(); !st.IsActive {
		t.Fatalf("expected tour to start after Reset, got %+v", st)
	}
}

func TestSkipIsNoOpWhenNotAllowed(t *testing.T) {
	def := threeStepTour("no-skip")
	def.AllowSkip = false
	eng := newTestEngine(t, nil)
	mustRegister(t, eng, def)

	eng.Start("no-skip")
	eng.Skip()

	st := eng.State()
	if !st.IsActive || st.StepIndex != 0 {
		t.Fatalf("expected Skip to be a no-op, got %+v", st)
	}
	if eng.IsSkipped("no-skip") {
		t.Fatalf("tour must not be persisted as skipped")
	}
}

func TestStopDoesNotPersist(t *testing.T) {
	store := persistence.NewInMemoryStore()
	eng := newTestEngine(t, store)
	mustRegister(t, eng, threeStepTour("editor-intro"))

	eng.Start("editor-intro")
	eng.Next()
	eng.Stop()

	st := eng.State()
	if st.IsActive || st.Status != api.StatusStopped {
		t.Fatalf("expected stopped state, got %+v", st)
	}
	if eng.IsCompleted("editor-intro") || eng.IsSkipped("editor-intro") {
		t.Fatalf("Stop must not persist completion or skip")
	}
	if _, err := store.Load(); err != persistence.ErrRecordNotFound {
		t.Fatalf("expected no record written, got %v", err)
	}

	// The tour is eligible to run again.
	eng.Start("editor-intro")
	if st := eng.State(); !st.IsActive || st.StepIndex != 0 {
		t.Fatalf("expected restart after Stop, got %+v", st)
	}
}

func TestOpsWhileIdleAreNoOps(t *testing.T) {
	eng := newTestEngine(t, nil)
	mustRegister(t, eng, threeStepTour("editor-intro"))

	// UI callers race with state changes; none of these may panic or
	// change anything.
	eng.Next()
	eng.Previous()
	eng.Skip()
	eng.Stop()
	eng.Complete()

	st := eng.State()
	if st.IsActive || st.Status != api.StatusIdle {
		t.Fatalf("expected idle state, got %+v", st)
	}
	if _, ok := eng.CurrentStep(); ok {
		t.Fatalf("CurrentStep must report no step while idle")
	}
	if _, ok := eng.CurrentDefinition(); ok {
		t.Fatalf("CurrentDefinition must report no definition while idle")
	}
}

func TestNextAfterCompletionIsNoOp(t *testing.T) {
	eng := newTestEngine(t, nil)
	mustRegister(t, eng, threeStepTour("editor-intro"))

	eng.Start("editor-intro")
	eng.Complete()
	before := eng.State()

	eng.Next()
	after := eng.State()

	if before != after {
		t.Fatalf("Next after completion changed state: %+v -> %+v", before, after)
	}
}

func TestOnStepCompleteFiresOncePerForwardLeave(t *testing.T) {
	calls := make(map[string]int)
	def := api.TourDefinition{
		ID: "callback-tour",
		Steps: []api.TourStep{
			{ID: "a", Target: "#a", OnStepComplete: func() { calls["a"]++ }},
			{ID: "b", Target: "#b", OnStepComplete: func() { calls["b"]++ }},
			{ID: "c", Target: "#c", OnStepComplete: func() { calls["c"]++ }},
		},
	}
	eng := newTestEngine(t, nil)
	mustRegister(t, eng, def)

	eng.Start("callback-tour")
	eng.Next()     // leaves a
	eng.Previous() // back to a, no callback
	eng.Next()     // leaves a again: a second forward departure
	eng.Next()     // leaves b
	eng.Next()     // leaves c, completes

	if calls["a"] != 2 {
		t.Fatalf("expected a's callback twice (two forward departures), got %d", calls["a"])
	}
	if calls["b"] != 1 || calls["c"] != 1 {
		t.Fatalf("unexpected callback counts: %v", calls)
	}
}

func TestPanickingPredicateShowsStep(t *testing.T) {
	def := api.TourDefinition{
		ID: "panic-tour",
		Steps: []api.TourStep{
			{ID: "a", Target: "#a", SkipWhen: func() bool { panic("boom") }},
			{ID: "b", Target: "#b"},
		},
	}
	eng := newTestEngine(t, nil)
	mustRegister(t, eng, def)

	eng.Start("panic-tour")

	st := eng.State()
	if !st.IsActive || st.StepIndex != 0 {
		t.Fatalf("a broken predicate must not hide its step, got %+v", st)
	}
}

func TestResetAllClearsRecord(t *testing.T) {
	store := persistence.NewInMemoryStore()
	eng := newTestEngine(t, store)
	mustRegister(t, eng, threeStepTour("tour-a"))

	second := threeStepTour("tour-b")
	mustRegister(t, eng, second)

	eng.Start("tour-a")
	eng.Complete()
	eng.Start("tour-b")
	eng.Skip()

	eng.ResetAll()

	if eng.IsCompleted("tour-a") || eng.IsSkipped("tour-b") {
		t.Fatalf("ResetAll left persisted state behind")
	}
	rec, err := store.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(rec.Completed) != 0 || len(rec.Skipped) != 0 || rec.LastCompletedAt != nil {
		t.Fatalf("expected empty record after ResetAll, got %+v", rec)
	}
}

func TestStartingSecondTourStopsFirstWithoutPersisting(t *testing.T) {
	eng := newTestEngine(t, nil)
	mustRegister(t, eng, threeStepTour("tour-a"))
	mustRegister(t, eng, threeStepTour("tour-b"))

	eng.Start("tour-a")
	eng.Next()
	eng.Start("tour-b")

	st := eng.State()
	if !st.IsActive || st.TourID != "tour-b" || st.StepIndex != 0 {
		t.Fatalf("expected tour-b active at index 0, got %+v", st)
	}
	if eng.IsCompleted("tour-a") || eng.IsSkipped("tour-a") {
		t.Fatalf("replaced tour must not be persisted")
	}
}

func TestRegisterRejectsInvalidAndDuplicate(t *testing.T) {
	eng := newTestEngine(t, nil)

	if err := eng.Register(api.TourDefinition{}); err == nil {
		t.Fatalf("expected error for definition without id")
	}
	if err := eng.Register(api.TourDefinition{ID: "empty"}); err == nil {
		t.Fatalf("expected error for definition without steps")
	}

	def := threeStepTour("editor-intro")
	if err := eng.Register(def); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if err := eng.Register(def); err == nil {
		t.Fatalf("expected error for duplicate registration")
	}
}

func TestRecordSurvivesRestart(t *testing.T) {
	store := persistence.NewInMemoryStore()

	eng := newTestEngine(t, store)
	mustRegister(t, eng, threeStepTour("editor-intro"))
	eng.Start("editor-intro")
	eng.Complete()

	// A second engine over the same store simulates a process restart.
	eng2 := newTestEngine(t, store)
	mustRegister(t, eng2, threeStepTour("editor-intro"))

	if !eng2.IsCompleted("editor-intro") {
		t.Fatalf("expected completion to survive restart")
	}
	eng2.Start("editor-intro")
	if st := eng2.State(); st.IsActive {
		t.Fatalf("completed tour restarted after reload: %+v", st)
	}
}
