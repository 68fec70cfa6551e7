package stroll

import (
	"fmt"

	"github.com/jtolonen/stroll/pkg/api"
)

// TourBuilder provides a fluent API for defining tours:
//
//	tour := stroll.New("editor-intro").
//	    Title("Welcome to the editor").
//	    AllowSkip().
//	    ShowProgress().
//	    Step(stroll.TourStep{
//	        ID:     "open-story",
//	        Target: "#story-list",
//	        Title:  "Your stories",
//	        Body:   "Pick a story to start translating.",
//	    })
//
//	if err := tour.Register(eng); err != nil {
//	    log.Fatal(err)
//	}
//
//	eng.Start(tour.ID())
type TourBuilder struct {
	def api.TourDefinition
}

// New creates a new tour builder with the given tour id.
func New(id string) *TourBuilder {
	return &TourBuilder{
		def: api.TourDefinition{
			ID:    id,
			Steps: make([]api.TourStep, 0),
		},
	}
}

// ID returns the tour id.
func (b *TourBuilder) ID() string {
	return b.def.ID
}

// Definition returns the underlying TourDefinition.
// Typically used when interacting with lower-level APIs.
func (b *TourBuilder) Definition() TourDefinition {
	return b.def
}

// Title sets the tour title.
func (b *TourBuilder) Title(title string) *TourBuilder {
	b.def.Title = title
	return b
}

// Description sets the tour description.
func (b *TourBuilder) Description(desc string) *TourBuilder {
	b.def.Description = desc
	return b
}

// AutoStart marks the tour as eligible for automatic start by a RouteBinder.
func (b *TourBuilder) AutoStart() *TourBuilder {
	b.def.AutoStart = true
	return b
}

// AllowSkip enables the Skip operation for this tour.
func (b *TourBuilder) AllowSkip() *TourBuilder {
	b.def.AllowSkip = true
	return b
}

// ShowProgress enables the progress hint in state snapshots.
func (b *TourBuilder) ShowProgress() *TourBuilder {
	b.def.ShowProgress = true
	return b
}

// Step appends a step to the tour.
func (b *TourBuilder) Step(step TourStep) *TourBuilder {
	if step.ID == "" {
		panic("stroll: step id must not be empty")
	}
	if step.Target == "" {
		panic(fmt.Sprintf("stroll: step %q has no target locator", step.ID))
	}

	b.def.Steps = append(b.def.Steps, step)
	return b
}

// StepSkipWhen appends a step guarded by a skip predicate.
func (b *TourBuilder) StepSkipWhen(step TourStep, pred SkipPredicate) *TourBuilder {
	step.SkipWhen = pred
	return b.Step(step)
}

// Register registers the built tour with the given engine.
func (b *TourBuilder) Register(eng Engine) error {
	return eng.Register(b.def)
}

// MustRegister is like Register but panics on error.
// Useful for initialization in main().
func (b *TourBuilder) MustRegister(eng Engine) {
	if err := b.Register(eng); err != nil {
		panic(err)
	}
}
