// Package stroll provides a lightweight, embeddable guided-tour engine for Go.
//
// Stroll drives multi-step onboarding walkthroughs: an ordered sequence of
// steps, each anchored to an on-screen element, shown to a user at most
// once. It owns the sequencing, conditional skipping, and durable
// completion bookkeeping; it deliberately does not render anything. The
// host application subscribes to state transitions, resolves each step's
// target locator, and draws the tooltip or spotlight itself.
//
// # Core Concepts
//
// The stroll programming model is intentionally small:
//
//  1. Engine
//  2. TourBuilder
//  3. Skip predicates
//  4. RecordStore backends
//  5. RouteBinder
//
// # Engine
//
// The Engine holds the single active tour and its cursor, and exposes the
// operations a tour UI needs: Start, Next, Previous, Skip, Stop, Complete,
// plus Reset/ResetAll for development. Every transition notifies
// subscribers with an independent state snapshot, and a new subscriber is
// called immediately with the current state.
//
// All operations are synchronous and return before anything else can
// happen; the engine has no timers, goroutines, or internal waits. The
// only asynchrony in a stroll deployment is the host's own "wait for the
// target element" loop, which stays entirely on the host's side: when the
// element never shows up within the host's retry budget, the host calls
// Next to move past the step. Next is strictly monotonic per step, so even
// a host that fires duplicate advance calls merely finishes the tour
// early, never loops it.
//
// # Conditional Steps
//
// A step may carry a skip predicate, evaluated lazily every time the
// engine decides whether the step is visitable. Predicates typically read
// mutable host state ("is the user signed in"), so the same step can be
// skipped on one traversal and shown on the next. YAML-authored catalogs
// express predicates as expr-lang expressions via skip_when.
//
// # Persistence
//
// Which tours are finished or dismissed survives restarts through a small
// storage port with several backends:
//
//   - In-memory (non-durable, best for tests)
//   - JSON file (embedded durability, human readable)
//   - SQLite
//   - Redis
//
// Persistence is fail-soft by contract: a read failure degrades to an
// empty record, a write failure is logged and swallowed, and the in-memory
// state stays authoritative for the rest of the process.
//
// # RouteBinder
//
// RouteBinder is optional glue between a router and the engine: bind route
// patterns to tour ids, feed navigation events to Observe, and tours with
// AutoStart begin on first visit and close when the user navigates away.
package stroll
