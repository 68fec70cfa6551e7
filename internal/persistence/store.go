package persistence

import (
	"errors"

	"github.com/jtolonen/stroll/pkg/api"
)

// ErrRecordNotFound is returned by Load when no record has been persisted
// yet. The engine treats it as an empty record, not a failure.
var ErrRecordNotFound = errors.New("tour record not found")

// RecordStore is the storage port for the persisted tour record.
//
// Exactly one record exists per store; it holds the completed and skipped
// tour ids for one user/profile. The engine loads it once at construction
// and saves it synchronously after every completion, skip, or reset.
//
// Implementations report I/O errors to the caller; the engine's contract is
// to log them and carry on with its in-memory record, so a store failure
// never blocks or corrupts a transition already committed in memory.
type RecordStore interface {
	Load() (api.Record, error)
	Save(rec api.Record) error
}

// Normalize de-duplicates a record and resolves ids that appear in both
// sets (completed wins). Records written by this module never contain
// duplicates, but records can come from hand-edited files or older writers,
// so Load paths run every record through here.
func Normalize(rec api.Record) api.Record {
	completed := make([]string, 0, len(rec.Completed))
	inCompleted := make(map[string]struct{}, len(rec.Completed))
	for _, id := range rec.Completed {
		if id == "" {
			continue
		}
		if _, dup := inCompleted[id]; dup {
			continue
		}
		inCompleted[id] = struct{}{}
		completed = append(completed, id)
	}

	skipped := make([]string, 0, len(rec.Skipped))
	inSkipped := make(map[string]struct{}, len(rec.Skipped))
	for _, id := range rec.Skipped {
		if id == "" {
			continue
		}
		if _, dup := inSkipped[id]; dup {
			continue
		}
		if _, both := inCompleted[id]; both {
			continue
		}
		inSkipped[id] = struct{}{}
		skipped = append(skipped, id)
	}

	return api.Record{
		Completed:       completed,
		Skipped:         skipped,
		LastCompletedAt: rec.LastCompletedAt,
	}
}
