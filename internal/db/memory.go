package db

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// MemoryStore is an in-process Store for local runs and tests.
// Lookups of unknown ids return pgx.ErrNoRows like the postgres store.
type MemoryStore struct {
	txMu   sync.Mutex
	mu     sync.RWMutex
	grants map[uuid.UUID]PermissionGrant
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{grants: make(map[uuid.UUID]PermissionGrant)}
}

var _ Store = (*MemoryStore)(nil)

// ExecTx serializes fn against other transactions.
func (s *MemoryStore) ExecTx(_ context.Context, fn func(Querier) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()
	return fn(s)
}

func (s *MemoryStore) CreateGrant(_ context.Context, arg CreateGrantParams) (PermissionGrant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	g := PermissionGrant{
		ID:                    arg.ID,
		OwnerAddress:          arg.OwnerAddress,
		DelegateAddress:       arg.DelegateAddress,
		PermissionType:        arg.PermissionType,
		NetworkID:             arg.NetworkID,
		TokenAddress:          arg.TokenAddress,
		PeriodAmount:          arg.PeriodAmount,
		PeriodDurationSeconds: arg.PeriodDurationSeconds,
		ExpiresAt:             arg.ExpiresAt,
		Adjustable:            arg.Adjustable,
		Status:                "pending",
		CreatedAt:             arg.CreatedAt,
		UpdatedAt:             arg.CreatedAt,
	}
	s.grants[g.ID] = g
	return copyGrant(g), nil
}

func (s *MemoryStore) GetGrant(_ context.Context, id uuid.UUID) (PermissionGrant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	g, ok := s.grants[id]
	if !ok {
		return PermissionGrant{}, pgx.ErrNoRows
	}
	return copyGrant(g), nil
}

func (s *MemoryStore) GetGrantForUpdate(ctx context.Context, id uuid.UUID) (PermissionGrant, error) {
	return s.GetGrant(ctx, id)
}

func (s *MemoryStore) ListGrantsByOwner(_ context.Context, ownerAddress string) ([]PermissionGrant, error) {
	return s.filter(func(g PermissionGrant) bool { return g.OwnerAddress == ownerAddress }), nil
}

func (s *MemoryStore) ListGrantsByDelegate(_ context.Context, delegateAddress string) ([]PermissionGrant, error) {
	return s.filter(func(g PermissionGrant) bool { return g.DelegateAddress == delegateAddress }), nil
}

func (s *MemoryStore) ActivateGrant(_ context.Context, arg ActivateGrantParams) (PermissionGrant, error) {
	return s.update(arg.ID, func(g *PermissionGrant) {
		g.Status = "active"
		g.AuthorizationProof = append([]byte(nil), arg.AuthorizationProof...)
		activatedAt := arg.ActivatedAt
		g.ActivatedAt = &activatedAt
		g.UpdatedAt = arg.ActivatedAt
	})
}

func (s *MemoryStore) UpdateGrantStatus(_ context.Context, arg UpdateGrantStatusParams) (PermissionGrant, error) {
	return s.update(arg.ID, func(g *PermissionGrant) {
		g.Status = arg.Status
		if arg.Status == "revoked" {
			revokedAt := arg.UpdatedAt
			g.RevokedAt = &revokedAt
		}
		g.UpdatedAt = arg.UpdatedAt
	})
}

func (s *MemoryStore) UpdateGrantPeriodAmount(_ context.Context, arg UpdateGrantPeriodAmountParams) (PermissionGrant, error) {
	return s.update(arg.ID, func(g *PermissionGrant) {
		g.PeriodAmount = arg.PeriodAmount
		g.UpdatedAt = arg.UpdatedAt
	})
}

func (s *MemoryStore) update(id uuid.UUID, mutate func(*PermissionGrant)) (PermissionGrant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.grants[id]
	if !ok {
		return PermissionGrant{}, pgx.ErrNoRows
	}
	mutate(&g)
	s.grants[id] = g
	return copyGrant(g), nil
}

func (s *MemoryStore) filter(match func(PermissionGrant) bool) []PermissionGrant {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := []PermissionGrant{}
	for _, g := range s.grants {
		if match(g) {
			items = append(items, copyGrant(g))
		}
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
	return items
}

func copyGrant(g PermissionGrant) PermissionGrant {
	if g.AuthorizationProof != nil {
		g.AuthorizationProof = append([]byte(nil), g.AuthorizationProof...)
	}
	return g
}
