package stroll

import (
	"database/sql"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/jtolonen/stroll/internal/engine"
	"github.com/jtolonen/stroll/internal/persistence"
	"github.com/jtolonen/stroll/pkg/api"
)

// Re-export key types so users don't need to dig into pkg/api.

type (
	Engine         = api.Engine
	TourDefinition = api.TourDefinition
	TourStep       = api.TourStep
	TourState      = api.TourState
	Record         = api.Record
	Status         = api.Status
	SkipPredicate  = api.SkipPredicate
	StepCallback   = api.StepCallback
	Listener       = api.Listener
	EnvFunc        = api.EnvFunc
)

// Re-export common helpers.

var (
	NewLoggingListener = api.NewLoggingListener
	CompositeListener  = api.CompositeListener
	ExprPredicate      = api.ExprPredicate
)

// Re-export status values for convenience.

const (
	StatusIdle      = api.StatusIdle
	StatusRunning   = api.StatusRunning
	StatusCompleted = api.StatusCompleted
	StatusSkipped   = api.StatusSkipped
	StatusStopped   = api.StatusStopped
)

// Re-export placement hints.

const (
	PlacementTop    = api.PlacementTop
	PlacementBottom = api.PlacementBottom
	PlacementLeft   = api.PlacementLeft
	PlacementRight  = api.PlacementRight
	PlacementAuto   = api.PlacementAuto
)

// Engine constructors
// These wrap the internal/engine package so external callers never need to
// import internal packages.

// NewInMemoryEngine returns an Engine whose record lives only in memory.
// Completions do not survive the process; best for tests.
func NewInMemoryEngine() Engine {
	return engine.NewEngine(persistence.NewInMemoryStore())
}

// NewInMemoryEngineWithLogger is NewInMemoryEngine with a custom slog.Logger.
func NewInMemoryEngineWithLogger(logger *slog.Logger) Engine {
	return engine.NewEngineWithConfig(engine.Config{
		Store:  persistence.NewInMemoryStore(),
		Logger: logger,
	})
}

// NewFileEngine returns an Engine that persists the tour record as a JSON
// file at path. The file is created on the first completion or skip.
func NewFileEngine(path string) Engine {
	return engine.NewEngine(persistence.NewFileStore(path))
}

// NewFileEngineWithLogger is NewFileEngine with a custom slog.Logger.
func NewFileEngineWithLogger(path string, logger *slog.Logger) Engine {
	return engine.NewEngineWithConfig(engine.Config{
		Store:  persistence.NewFileStore(path),
		Logger: logger,
	})
}

// NewSQLiteEngine returns an Engine that persists the tour record in a
// SQLite database. The caller is responsible for importing a driver, e.g.
// "modernc.org/sqlite".
func NewSQLiteEngine(db *sql.DB) (Engine, error) {
	store, err := persistence.NewSQLiteStore(db)
	if err != nil {
		return nil, err
	}
	return engine.NewEngine(store), nil
}

// NewSQLiteEngineWithLogger is NewSQLiteEngine with a custom slog.Logger.
func NewSQLiteEngineWithLogger(db *sql.DB, logger *slog.Logger) (Engine, error) {
	store, err := persistence.NewSQLiteStore(db)
	if err != nil {
		return nil, err
	}
	return engine.NewEngineWithConfig(engine.Config{
		Store:  store,
		Logger: logger,
	}), nil
}

// NewRedisEngine returns an Engine that persists the tour record in Redis
// under the given key prefix (e.g. "stroll:user42:").
func NewRedisEngine(client *redis.Client, prefix string) Engine {
	return engine.NewEngine(persistence.NewRedisStore(client, prefix))
}

// NewRedisEngineWithLogger is NewRedisEngine with a custom slog.Logger.
func NewRedisEngineWithLogger(client *redis.Client, prefix string, logger *slog.Logger) Engine {
	return engine.NewEngineWithConfig(engine.Config{
		Store:  persistence.NewRedisStore(client, prefix),
		Logger: logger,
	})
}
