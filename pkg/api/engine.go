package api

// Engine drives a single active tour at a time.
//
// All operations are synchronous and return before any further transition
// can happen. Runtime operations (Start, Next, Previous, Skip, Stop,
// Complete, Reset, ResetAll) never return errors: per the UI contract,
// invalid or stale calls are logged no-ops, because callers race with state
// changes as a matter of course. Only configuration-time operations
// (Register) report errors.
type Engine interface {
	// Register makes a definition known to the engine by its ID.
	// It fails on invalid definitions and on duplicate IDs.
	Register(def TourDefinition) error

	// Start activates the tour with the given ID at its first visitable
	// step. It is a no-op when the ID is unknown, when the tour was already
	// completed or skipped, or when every step's skip predicate is true at
	// start time (in which case the tour is persisted as completed without
	// ever becoming active). Starting while another tour is running stops
	// the running tour first, without persisting it.
	Start(id string)

	// Next advances past the current step, firing its OnStepComplete and
	// skipping steps whose predicate is true, until a visitable step is
	// found or the sequence ends (which completes and persists the tour).
	// Each call strictly advances or completes; repeated spurious calls
	// cannot revisit an index or loop.
	Next()

	// Previous retreats to the nearest earlier step whose predicate is
	// false. It never goes below index 0 and is a no-op when no earlier
	// step is visitable.
	Previous()

	// Skip ends the tour and persists it as skipped. No-op unless a tour
	// with AllowSkip is running.
	Skip()

	// Stop deactivates the current tour without persisting anything.
	// Safe to call from any state; this is the cancellation primitive.
	Stop()

	// Complete ends the running tour and persists it as completed.
	// No-op when nothing is running.
	Complete()

	// Reset removes the ID from both the completed and skipped sets so the
	// tour can run again. Debugging and testing affordance.
	Reset(id string)

	// ResetAll clears the whole persisted record.
	ResetAll()

	// State returns a snapshot of the current runtime state.
	State() TourState

	// CurrentStep returns the step the cursor points at, if a tour is
	// running.
	CurrentStep() (TourStep, bool)

	// CurrentDefinition returns the active tour's definition, if any.
	CurrentDefinition() (TourDefinition, bool)

	// Definition returns a registered definition by ID.
	Definition(id string) (TourDefinition, bool)

	// IsCompleted reports whether the ID is in the persisted completed set.
	IsCompleted(id string) bool

	// IsSkipped reports whether the ID is in the persisted skipped set.
	IsSkipped(id string) bool

	// Subscribe registers a listener and synchronously invokes it once with
	// the current state, so a freshly mounted consumer renders correctly
	// without waiting for the next transition. Every transition then hands
	// each listener its own copy of the new state. The returned function
	// unsubscribes and is idempotent.
	Subscribe(l Listener) (unsubscribe func())
}
