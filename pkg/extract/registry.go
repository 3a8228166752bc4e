package extract

import (
	"fmt"
	"sync"
)

// Registry maps store names to their extractors.
type Registry struct {
	mu         sync.RWMutex
	extractors map[string]Extractor
	order      []string
}

// NewRegistry returns a registry holding the given extractors.
func NewRegistry(extractors ...Extractor) (*Registry, error) {
	r := &Registry{extractors: make(map[string]Extractor)}
	for _, e := range extractors {
		if err := r.Register(e); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register adds an extractor. Store names must be unique.
func (r *Registry) Register(e Extractor) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := e.Store()
	if _, ok := r.extractors[name]; ok {
		return fmt.Errorf("extractor for store %q already registered", name)
	}
	r.extractors[name] = e
	r.order = append(r.order, name)
	return nil
}

// Get returns the extractor for store.
func (r *Registry) Get(store string) (Extractor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.extractors[store]
	return e, ok
}

// Stores returns store names in registration order.
func (r *Registry) Stores() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}
