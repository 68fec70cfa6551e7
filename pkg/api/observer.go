package api

import "log/slog"

// NewLoggingListener returns a Listener that writes one structured log line
// per state transition using log/slog. If logger is nil, slog.Default()
// is used.
//
// Listeners should be fast; the engine delivers notifications synchronously
// on the calling goroutine.
func NewLoggingListener(logger *slog.Logger) Listener {
	if logger == nil {
		logger = slog.Default()
	}
	return func(st TourState) {
		logger.Debug("tour_transition",
			slog.String("tour", st.TourID),
			slog.String("status", string(st.Status)),
			slog.Int("step_index", st.StepIndex),
			slog.String("step", st.StepID),
			slog.Bool("active", st.IsActive),
		)
	}
}

// CompositeListener fans a notification out to each non-nil listener in ls,
// in order.
func CompositeListener(ls ...Listener) Listener {
	filtered := make([]Listener, 0, len(ls))
	for _, l := range ls {
		if l != nil {
			filtered = append(filtered, l)
		}
	}
	return func(st TourState) {
		for _, l := range filtered {
			l(st)
		}
	}
}
