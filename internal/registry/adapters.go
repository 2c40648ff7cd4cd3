package registry

import (
	"fmt"
	"sync"

	"github.com/cyphera/cyphera-agent/internal/interfaces"
	"github.com/cyphera/cyphera-agent/internal/types/business"
)

// AdapterRegistry holds liquidity adapters keyed by network, in registration order.
type AdapterRegistry struct {
	mu        sync.RWMutex
	byID      map[string]interfaces.LiquidityAdapter
	byNetwork map[business.NetworkID][]interfaces.LiquidityAdapter
}

// NewAdapterRegistry creates an empty AdapterRegistry.
func NewAdapterRegistry() *AdapterRegistry {
	return &AdapterRegistry{
		byID:      make(map[string]interfaces.LiquidityAdapter),
		byNetwork: make(map[business.NetworkID][]interfaces.LiquidityAdapter),
	}
}

// Register adds an adapter under every network it declares.
func (r *AdapterRegistry) Register(adapter interfaces.LiquidityAdapter) error {
	if adapter == nil {
		return fmt.Errorf("adapter is nil")
	}
	id := adapter.ID()
	if id == "" {
		return fmt.Errorf("adapter id is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byID[id]; exists {
		return fmt.Errorf("adapter %s already registered", id)
	}
	networks := adapter.NetworkIDs()
	for _, networkID := range networks {
		if _, ok := adapter.Router(networkID); !ok {
			return fmt.Errorf("adapter %s declares network %d without a router", id, networkID)
		}
	}
	r.byID[id] = adapter
	for _, networkID := range networks {
		r.byNetwork[networkID] = append(r.byNetwork[networkID], adapter)
	}
	return nil
}

// ForNetwork returns the adapters active on a network in registration order.
func (r *AdapterRegistry) ForNetwork(networkID business.NetworkID) []interfaces.LiquidityAdapter {
	r.mu.RLock()
	defer r.mu.RUnlock()

	adapters := r.byNetwork[networkID]
	out := make([]interfaces.LiquidityAdapter, len(adapters))
	copy(out, adapters)
	return out
}

// Get returns the adapter registered under id.
func (r *AdapterRegistry) Get(id string) (interfaces.LiquidityAdapter, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	adapter, ok := r.byID[id]
	return adapter, ok
}
