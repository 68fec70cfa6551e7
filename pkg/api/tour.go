package api

import (
	"errors"
	"fmt"
	"time"
)

// Status represents the lifecycle state of the active tour.
type Status string

const (
	StatusIdle      Status = "IDLE"
	StatusRunning   Status = "RUNNING"
	StatusCompleted Status = "COMPLETED"
	StatusSkipped   Status = "SKIPPED"
	StatusStopped   Status = "STOPPED"
)

// SkipPredicate decides whether a step should be bypassed.
//
// Predicates take no arguments and are expected to read whatever external
// state they need (signed-in flags, feature toggles, ...). The engine
// evaluates them lazily, at the exact moment it is deciding whether an index
// is visitable, and never caches the result. The same index may therefore
// answer differently on forward and backward traversal; that is intended,
// since intervening steps can change the state the predicate reads.
type SkipPredicate func() bool

// StepCallback is a side-effect hook attached to a step.
type StepCallback func()

// Placement hints tell the renderer where to put the step tooltip relative
// to the resolved target element. The engine never interprets them.
const (
	PlacementTop    = "top"
	PlacementBottom = "bottom"
	PlacementLeft   = "left"
	PlacementRight  = "right"
	PlacementAuto   = "auto"
)

// TourStep is a single unit of a tour, anchored to one on-screen element.
//
// Target is an opaque locator (typically a CSS selector) resolved by the
// consuming renderer; the engine never touches it. Steps are immutable once
// the definition is registered.
type TourStep struct {
	// ID is unique within the tour.
	ID string

	// Target locates the element this step points at. Resolution is the
	// renderer's job; when it fails within the renderer's retry budget, the
	// renderer calls Engine.Next to move past the step.
	Target string

	Title string
	Body  string

	// Placement is a rendering hint (PlacementTop etc.). Optional.
	Placement string

	// ActionHint describes the interaction the step expects from the user
	// ("click the highlighted button"). Optional.
	ActionHint string

	// SkipWhen, when non-nil and returning true, makes the engine bypass
	// this step. See SkipPredicate for the evaluation contract.
	SkipWhen SkipPredicate

	// OnStepComplete is invoked exactly once when the step is left going
	// forward (Next past it, or the tour completing off its end). It is not
	// invoked on Previous, Skip, or Stop.
	OnStepComplete StepCallback
}

// TourDefinition describes a tour as a named, ordered sequence of steps.
//
// Definitions are immutable once registered. Step order is the only
// ordering; there is no branching.
type TourDefinition struct {
	// ID is the globally unique tour identifier, also used as the key in
	// the persisted record.
	ID string

	Title       string
	Description string

	Steps []TourStep

	// AutoStart marks the tour as eligible for automatic start by a route
	// binder. The engine itself never auto-starts anything.
	AutoStart bool

	// AllowSkip enables the Skip operation for this tour.
	AllowSkip bool

	// ShowProgress is a rendering hint ("step 2 of 5"). The engine carries
	// it through to the state snapshot and does nothing else with it.
	ShowProgress bool
}

// Validate checks structural invariants of a definition before registration.
func (d TourDefinition) Validate() error {
	if d.ID == "" {
		return errors.New("tour id is required")
	}
	if len(d.Steps) == 0 {
		return fmt.Errorf("tour %q must have at least one step", d.ID)
	}
	seen := make(map[string]struct{}, len(d.Steps))
	for i, s := range d.Steps {
		if s.ID == "" {
			return fmt.Errorf("tour %q: step %d has no id", d.ID, i)
		}
		if _, dup := seen[s.ID]; dup {
			return fmt.Errorf("tour %q: duplicate step id %q", d.ID, s.ID)
		}
		seen[s.ID] = struct{}{}
	}
	return nil
}

// TourState is an immutable snapshot of the engine's runtime state.
//
// It is a value type on purpose: every subscriber notification and every
// State() call hands out an independent copy, so consumers relying on
// reference identity for change detection observe every transition.
type TourState struct {
	// TourID is the id of the active (or just-ended) tour. Empty when no
	// tour has run yet.
	TourID string

	Status   Status
	IsActive bool

	// StepIndex is the index of the current step while running. It always
	// points at a step whose skip predicate evaluated false on entry. -1
	// when no step is current.
	StepIndex int

	// StepID is the id of the current step, empty when StepIndex is -1.
	StepID string

	// StepCount is the total number of steps in the active definition,
	// skipped or not. 0 when idle.
	StepCount int

	IsCompleted bool
	IsSkipped   bool

	// ShowProgress mirrors the active definition's hint so renderers do not
	// need a definition lookup per transition.
	ShowProgress bool
}

// Record is the durable completion/skip bookkeeping for all tours.
//
// It is append-only under normal operation: an id, once completed or
// skipped, leaves the record only through an explicit reset.
type Record struct {
	Completed       []string
	Skipped         []string
	LastCompletedAt *time.Time
}

// Listener receives state snapshots from the engine. See Engine.Subscribe.
type Listener func(TourState)
