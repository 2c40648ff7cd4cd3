package db

import (
	"context"

	"github.com/google/uuid"
)

type Querier interface {
	ActivateGrant(ctx context.Context, arg ActivateGrantParams) (PermissionGrant, error)
	CreateGrant(ctx context.Context, arg CreateGrantParams) (PermissionGrant, error)
	GetGrant(ctx context.Context, id uuid.UUID) (PermissionGrant, error)
	GetGrantForUpdate(ctx context.Context, id uuid.UUID) (PermissionGrant, error)
	ListGrantsByDelegate(ctx context.Context, delegateAddress string) ([]PermissionGrant, error)
	ListGrantsByOwner(ctx context.Context, ownerAddress string) ([]PermissionGrant, error)
	UpdateGrantPeriodAmount(ctx context.Context, arg UpdateGrantPeriodAmountParams) (PermissionGrant, error)
	UpdateGrantStatus(ctx context.Context, arg UpdateGrantStatusParams) (PermissionGrant, error)
}

var _ Querier = (*Queries)(nil)
