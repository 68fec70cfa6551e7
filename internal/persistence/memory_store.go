package persistence

import (
	"sync"

	"github.com/jtolonen/stroll/pkg/api"
)

// InMemoryStore is a goroutine-safe RecordStore backed by a single in-memory
// record. Non-durable; best for tests and for hosts that handle persistence
// themselves.
type InMemoryStore struct {
	mu  sync.RWMutex
	rec api.Record
	set bool
}

// NewInMemoryStore creates a new, empty InMemoryStore.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

var _ RecordStore = (*InMemoryStore)(nil)

func (s *InMemoryStore) Load() (api.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.set {
		return api.Record{}, ErrRecordNotFound
	}
	return cloneRecord(s.rec), nil
}

func (s *InMemoryStore) Save(rec api.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.rec = cloneRecord(Normalize(rec))
	s.set = true
	return nil
}

// cloneRecord copies the slices so callers can keep mutating their record
// without aliasing the stored one.
func cloneRecord(rec api.Record) api.Record {
	out := api.Record{
		Completed: append([]string(nil), rec.Completed...),
		Skipped:   append([]string(nil), rec.Skipped...),
	}
	if rec.LastCompletedAt != nil {
		t := *rec.LastCompletedAt
		out.LastCompletedAt = &t
	}
	return out
}
