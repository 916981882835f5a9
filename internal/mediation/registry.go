package mediation

import (
	"fmt"
	"sort"
	"sync"
)

// AdapterRegistry manages the partner adapters known to the mediation host.
type AdapterRegistry struct {
	adapters map[string]PartnerAdapter
	mu       sync.RWMutex
}

// NewAdapterRegistry creates an empty registry.
func NewAdapterRegistry() *AdapterRegistry {
	return &AdapterRegistry{
		adapters: make(map[string]PartnerAdapter),
	}
}

// Register adds adapter under its partner id.
func (r *AdapterRegistry) Register(adapter PartnerAdapter) error {
	if adapter == nil {
		return fmt.Errorf("cannot register nil adapter")
	}
	partnerID := adapter.Info().PartnerID
	if partnerID == "" {
		return fmt.Errorf("partner ID cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.adapters[partnerID]; exists {
		return fmt.Errorf("adapter for partner '%s' is already registered", partnerID)
	}

	r.adapters[partnerID] = adapter
	return nil
}

// Get returns the adapter for partnerID.
func (r *AdapterRegistry) Get(partnerID string) (PartnerAdapter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	adapter, exists := r.adapters[partnerID]
	if !exists {
		return nil, fmt.Errorf("adapter for partner '%s' not found", partnerID)
	}
	return adapter, nil
}

// Unregister removes the adapter for partnerID.
func (r *AdapterRegistry) Unregister(partnerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.adapters[partnerID]; !exists {
		return fmt.Errorf("adapter for partner '%s' not found", partnerID)
	}
	delete(r.adapters, partnerID)
	return nil
}

// Has reports whether partnerID is registered.
func (r *AdapterRegistry) Has(partnerID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, exists := r.adapters[partnerID]
	return exists
}

// Len returns the number of registered adapters.
func (r *AdapterRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.adapters)
}

// All returns the registered adapters ordered by partner id.
func (r *AdapterRegistry) All() []PartnerAdapter {
	r.mu.RLock()
	ids := make([]string, 0, len(r.adapters))
	for id := range r.adapters {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	adapters := make([]PartnerAdapter, 0, len(ids))
	for _, id := range ids {
		adapters = append(adapters, r.adapters[id])
	}
	r.mu.RUnlock()

	return adapters
}
