// Package api contains the core building blocks used by the stroll tour
// engine. It provides the low-level primitives for defining tours, driving
// the active tour, and observing engine behavior.
//
// Most users interact with the higher-level stroll package, which re-exports
// selected types and helpers from this package. The api package is intended
// for custom integrations or contributors extending the engine itself.
//
// # Concepts
//
// The api package centers around a small set of concepts:
//
//   - Tour definitions and steps
//   - The engine state machine
//   - Skip predicates
//   - Subscription
//
// # Tour Definitions
//
// A TourDefinition describes a tour: its id, display metadata, and an
// ordered sequence of TourStep values. There is no branching; sequence
// order is the only ordering. Definitions are immutable once registered
// with an engine.
//
// # The Engine
//
// The Engine owns the single active tour and its cursor. Start activates a
// tour at its first visitable step; Next, Previous, Skip, Stop and Complete
// drive it from there. Completion and skip are persisted through a storage
// port so a tour is shown to a given user at most once.
//
// # Skip Predicates
//
// Each step may carry a SkipPredicate, a zero-argument boolean function the
// engine evaluates lazily on every traversal decision. ExprPredicate builds
// predicates from expression strings for YAML-authored tours.
//
// # Subscription
//
// Engine.Subscribe registers a Listener that receives an independent
// TourState copy on registration and after every transition. The renderer
// is expected to be such a listener: it resolves the current step's target
// locator and, when resolution fails within its own retry budget, calls
// Next to move past the step.
package api
