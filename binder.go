package stroll

import (
	"log/slog"
	"path"
	"sync"
)

// RouteBinder maps navigation locations to tours and auto-starts them.
//
// The binder consumes only the engine's public operations; it is glue, not
// part of the state machine. A host wires its router's navigation callback
// to Observe:
//
//	binder := stroll.NewRouteBinder(eng)
//	binder.Bind("/stories", "editor-intro")
//	binder.Bind("/vocab/*", "vocab-intro")
//
//	router.OnNavigate(binder.Observe)
//
// On every Observe call the binder stops a running tour whose bound route
// no longer matches (the user navigated away; nothing is persisted), then
// starts the tour bound to the new location, provided its definition has
// AutoStart set and the tour is neither completed nor skipped. The engine
// enforces the completed/skipped check again, so a race costs nothing.
type RouteBinder struct {
	eng    Engine
	logger *slog.Logger

	mu     sync.RWMutex
	routes map[string]string // route pattern -> tour id
}

// NewRouteBinder creates a RouteBinder driving eng.
func NewRouteBinder(eng Engine) *RouteBinder {
	return NewRouteBinderWithLogger(eng, nil)
}

// NewRouteBinderWithLogger is NewRouteBinder with a custom slog.Logger.
func NewRouteBinderWithLogger(eng Engine, logger *slog.Logger) *RouteBinder {
	if logger == nil {
		logger = slog.Default()
	}
	return &RouteBinder{
		eng:    eng,
		logger: logger,
		routes: make(map[string]string),
	}
}

// Bind associates a route pattern with a tour id. Patterns use path.Match
// syntax ("/vocab/*"); a pattern without metacharacters is an exact match.
// Binding the same pattern again replaces the previous tour id.
func (b *RouteBinder) Bind(pattern, tourID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.routes[pattern] = tourID
}

// Observe tells the binder the current navigation location. It returns the
// id of the tour it started, or "" when nothing was started.
func (b *RouteBinder) Observe(route string) string {
	tourID, bound := b.match(route)

	// Navigating away from a running tour's route closes the tour without
	// persisting it, so it can run again on a later visit.
	if st := b.eng.State(); st.IsActive && st.TourID != tourID {
		b.logger.Debug("tour_route_left",
			slog.String("tour", st.TourID), slog.String("route", route))
		b.eng.Stop()
	}

	if !bound {
		return ""
	}

	def, ok := b.eng.Definition(tourID)
	if !ok {
		b.logger.Warn("tour_route_bound_to_unknown_tour",
			slog.String("tour", tourID), slog.String("route", route))
		return ""
	}
	if !def.AutoStart {
		return ""
	}
	if b.eng.IsCompleted(tourID) || b.eng.IsSkipped(tourID) {
		return ""
	}
	if st := b.eng.State(); st.IsActive && st.TourID == tourID {
		// Already running on this route.
		return ""
	}

	b.eng.Start(tourID)
	if !b.eng.State().IsActive {
		// Start can legitimately decline (e.g. every step skipped).
		return ""
	}

	b.logger.Debug("tour_route_started",
		slog.String("tour", tourID), slog.String("route", route))
	return tourID
}

func (b *RouteBinder) match(route string) (string, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if id, ok := b.routes[route]; ok {
		return id, true
	}
	for pattern, id := range b.routes {
		if matched, err := path.Match(pattern, route); err == nil && matched {
			return id, true
		}
	}
	return "", false
}
