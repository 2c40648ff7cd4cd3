package business

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
)

// NetworkID identifies an EVM network by chain id.
type NetworkID uint64

// GrantStatus is the lifecycle status of a PermissionGrant.
type GrantStatus string

const (
	GrantStatusPending GrantStatus = "pending"
	GrantStatusActive  GrantStatus = "active"
	GrantStatusExpired GrantStatus = "expired"
	GrantStatusRevoked GrantStatus = "revoked"
)

// IsTerminal reports whether no further transitions are possible.
func (s GrantStatus) IsTerminal() bool {
	return s == GrantStatusExpired || s == GrantStatusRevoked
}

// AuthorizationProof is produced by the owner's signing context at grant time.
// Data is opaque to this service and forwarded verbatim to the relay; Scope is the
// delegation scope the owner signed over.
type AuthorizationProof struct {
	Data  []byte          `json:"data"`
	Scope DelegationScope `json:"scope"`
}

// PermissionGrant is a bounded, revocable permission from an owner to a delegate.
type PermissionGrant struct {
	ID             uuid.UUID
	Owner          common.Address
	Delegate       common.Address
	PermissionType PermissionType
	NetworkID      NetworkID
	Token          common.Address
	PeriodAmount   *big.Int
	PeriodDuration time.Duration
	Expiry         time.Time
	Adjustable     bool
	Status         GrantStatus
	Authorization  *AuthorizationProof
	CreatedAt      time.Time
	UpdatedAt      time.Time
	ActivatedAt    *time.Time
	RevokedAt      *time.Time
}

// IsExpired reports whether now is past the grant expiry.
func (g *PermissionGrant) IsExpired(now time.Time) bool {
	return now.After(g.Expiry)
}

// EffectiveStatus folds expiry into the stored status.
func (g *PermissionGrant) EffectiveStatus(now time.Time) GrantStatus {
	if !g.Status.IsTerminal() && g.IsExpired(now) {
		return GrantStatusExpired
	}
	return g.Status
}

// IsUsable reports whether the grant may be redeemed at now.
func (g *PermissionGrant) IsUsable(now time.Time) bool {
	return g.EffectiveStatus(now) == GrantStatusActive
}

// PeriodIndex is floor((now - createdAt) / periodDuration). Times before creation map to 0.
func (g *PermissionGrant) PeriodIndex(now time.Time) int64 {
	if g.PeriodDuration <= 0 {
		return 0
	}
	elapsed := now.Sub(g.CreatedAt)
	if elapsed < 0 {
		return 0
	}
	return int64(elapsed / g.PeriodDuration)
}

// WindowBounds returns the start and end of the given period.
func (g *PermissionGrant) WindowBounds(periodIndex int64) (time.Time, time.Time) {
	start := g.CreatedAt.Add(time.Duration(periodIndex) * g.PeriodDuration)
	return start, start.Add(g.PeriodDuration)
}
