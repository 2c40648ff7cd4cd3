package params

import (
	"math/big"
	"time"

	"github.com/cyphera/cyphera-agent/internal/types/business"
	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
)

// CreateGrantParams contains parameters for creating a pending grant
type CreateGrantParams struct {
	Owner          common.Address
	Delegate       common.Address
	PermissionType business.PermissionType
	NetworkID      business.NetworkID
	Token          common.Address
	PeriodAmount   *big.Int
	PeriodDuration time.Duration
	Expiry         time.Time
	Adjustable     bool
}

// ActivateGrantParams contains the owner's authorization proof for a pending grant
type ActivateGrantParams struct {
	GrantID uuid.UUID
	Caller  common.Address
	Proof   business.AuthorizationProof
}

// AdjustGrantParams contains parameters for renegotiating a grant's period amount
type AdjustGrantParams struct {
	GrantID         uuid.UUID
	Caller          common.Address
	NewPeriodAmount *big.Int
}

// ListGrantsParams filters grants by owner or delegate. At least one must be set.
type ListGrantsParams struct {
	Owner    *common.Address
	Delegate *common.Address
}
