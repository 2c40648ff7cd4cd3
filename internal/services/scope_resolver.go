package services

import (
	"fmt"

	"github.com/cyphera/cyphera-agent/internal/logger"
	"github.com/cyphera/cyphera-agent/internal/registry"
	"github.com/cyphera/cyphera-agent/internal/types/business"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
)

// ScopeResolver derives delegation scopes from the permission type table,
// the network token registry and the registered liquidity adapters.
// It holds no per-request state and is safe for concurrent use.
type ScopeResolver struct {
	types    map[business.PermissionType]business.PermissionTypeDefinition
	tokens   *registry.NetworkTokenRegistry
	adapters *registry.AdapterRegistry
	logger   *zap.Logger
}

// NewScopeResolver validates the permission type table and creates a resolver.
func NewScopeResolver(
	tokens *registry.NetworkTokenRegistry,
	adapters *registry.AdapterRegistry,
	types []business.PermissionTypeDefinition,
) (*ScopeResolver, error) {
	if tokens == nil || adapters == nil {
		return nil, fmt.Errorf("token registry and adapter registry are required")
	}

	table := make(map[business.PermissionType]business.PermissionTypeDefinition, len(types))
	for _, def := range types {
		if def.Type == "" {
			return nil, fmt.Errorf("permission type without a name")
		}
		if _, dup := table[def.Type]; dup {
			return nil, fmt.Errorf("duplicate permission type %s", def.Type)
		}
		if len(def.Selectors) == 0 {
			return nil, fmt.Errorf("permission type %s declares no selectors", def.Type)
		}
		table[def.Type] = def
	}

	return &ScopeResolver{
		types:    table,
		tokens:   tokens,
		adapters: adapters,
		logger:   logger.ForComponent(logger.ComponentScope),
	}, nil
}

// Definition returns an enabled permission type.
func (s *ScopeResolver) Definition(permissionType business.PermissionType) (business.PermissionTypeDefinition, error) {
	def, ok := s.types[permissionType]
	if !ok || !def.Enabled {
		return business.PermissionTypeDefinition{}, fmt.Errorf("%w: %s", business.ErrUnknownPermissionType, permissionType)
	}
	return def, nil
}

// ResolveScope joins the permission type's selectors with every registered
// token and every active adapter router on the network.
func (s *ScopeResolver) ResolveScope(permissionType business.PermissionType, networkID business.NetworkID) (business.DelegationScope, error) {
	def, err := s.Definition(permissionType)
	if err != nil {
		return business.DelegationScope{}, err
	}

	targets, err := s.tokens.TokenAddresses(networkID)
	if err != nil {
		return business.DelegationScope{}, fmt.Errorf("%w: %d", business.ErrUnsupportedNetwork, networkID)
	}
	for _, adapter := range s.adapters.ForNetwork(networkID) {
		router, ok := adapter.Router(networkID)
		if !ok || router == (common.Address{}) {
			continue
		}
		targets = append(targets, router)
	}

	return business.NewDelegationScope(targets, def.Selectors), nil
}

// ValidateScope reports whether declared is non-empty and contained in the
// scope freshly resolved for the network and permission type.
func (s *ScopeResolver) ValidateScope(declared business.DelegationScope, networkID business.NetworkID, permissionType business.PermissionType) (bool, error) {
	expected, err := s.ResolveScope(permissionType, networkID)
	if err != nil {
		return false, err
	}
	if declared.IsEmpty() {
		return false, nil
	}
	if !declared.IsSubsetOf(expected) {
		s.logger.Warn("Declared scope exceeds resolved scope",
			zap.String("permission_type", string(permissionType)),
			zap.Uint64("network_id", uint64(networkID)),
			zap.Int("declared_targets", len(declared.Targets)),
			zap.Int("declared_selectors", len(declared.Selectors)),
		)
		return false, nil
	}
	return true, nil
}
