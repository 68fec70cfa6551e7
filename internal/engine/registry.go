package engine

import (
	"fmt"
	"sync"

	"github.com/jtolonen/stroll/pkg/api"
)

type tourRegistry struct {
	mu   sync.RWMutex
	byID map[string]api.TourDefinition
}

func newTourRegistry() *tourRegistry {
	return &tourRegistry{
		byID: make(map[string]api.TourDefinition),
	}
}

func (r *tourRegistry) Register(def api.TourDefinition) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byID[def.ID]; exists {
		return fmt.Errorf("tour %q already registered", def.ID)
	}

	r.byID[def.ID] = def
	return nil
}

func (r *tourRegistry) Get(id string) (api.TourDefinition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	def, ok := r.byID[id]
	return def, ok
}
