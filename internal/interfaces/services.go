package interfaces

import (
	"context"
	"math/big"
	"time"

	"github.com/cyphera/cyphera-agent/internal/types/api/params"
	"github.com/cyphera/cyphera-agent/internal/types/business"
	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
)

// GrantReader loads grants with lazy expiry applied
type GrantReader interface {
	GetGrant(ctx context.Context, grantID uuid.UUID) (*business.PermissionGrant, error)
}

// GrantService handles the permission grant lifecycle
type GrantService interface {
	GrantReader
	CreateGrant(ctx context.Context, params params.CreateGrantParams) (*business.PermissionGrant, error)
	ActivateGrant(ctx context.Context, params params.ActivateGrantParams) (*business.PermissionGrant, error)
	RevokeGrant(ctx context.Context, grantID uuid.UUID, caller common.Address) (*business.PermissionGrant, error)
	AdjustGrant(ctx context.Context, params params.AdjustGrantParams) (*business.PermissionGrant, error)
	ListGrants(ctx context.Context, params params.ListGrantsParams) ([]business.PermissionGrant, error)
}

// ScopeResolver derives and checks delegation scopes
type ScopeResolver interface {
	ResolveScope(permissionType business.PermissionType, networkID business.NetworkID) (business.DelegationScope, error)
	ValidateScope(declared business.DelegationScope, networkID business.NetworkID, permissionType business.PermissionType) (bool, error)
}

// BudgetLedger enforces per-period spend limits
type BudgetLedger interface {
	Reserve(ctx context.Context, grantID uuid.UUID, amount *big.Int) (*business.ReservationToken, error)
	Commit(ctx context.Context, token *business.ReservationToken) error
	Release(ctx context.Context, token *business.ReservationToken) error
	GetRemainingBudget(ctx context.Context, grantID uuid.UUID) (*business.RemainingBudget, error)
}

// BudgetWindowStore persists budget windows. All methods are atomic per grant.
type BudgetWindowStore interface {
	// Reserve rolls the window forward to periodIndex if it is behind, then
	// adds token.Amount to consumed when it fits under limit and no
	// reservation is outstanding.
	Reserve(ctx context.Context, token business.ReservationToken, limit *big.Int) error
	// Commit clears the outstanding reservation without touching consumed.
	Commit(ctx context.Context, grantID, reservationID uuid.UUID) error
	// Release clears the outstanding reservation and refunds its amount if
	// the window has not rolled since it was made.
	Release(ctx context.Context, grantID, reservationID uuid.UUID) error
	// Snapshot returns the consumed amount for periodIndex and any outstanding reservation.
	Snapshot(ctx context.Context, grantID uuid.UUID, periodIndex int64) (*big.Int, *business.ReservationToken, error)
}

// QuoteAggregator selects the best quote across liquidity sources
type QuoteAggregator interface {
	GetBestQuote(ctx context.Context, req business.QuoteRequest, deadline time.Duration) (*business.Quote, error)
	BuildExecutionPayload(ctx context.Context, quote *business.Quote, params business.BuildParams) (*business.CallPayload, error)
}

// ExecutionCoordinator runs a redemption to a terminal outcome
type ExecutionCoordinator interface {
	Redeem(ctx context.Context, req business.ExecutionRequest) (*business.ExecutionResult, error)
}

// ActivityRecorder publishes activity records without blocking the caller
type ActivityRecorder interface {
	Record(ctx context.Context, record business.ActivityRecord)
}

// ReconciliationQueue accepts executions whose reservation could not be settled in-line
type ReconciliationQueue interface {
	Park(ctx context.Context, execution PendingExecution) error
}

// PendingExecution is a reserved execution the reconciler still has to settle
type PendingExecution struct {
	Token     business.ReservationToken `json:"token"`
	Reference string                    `json:"reference,omitempty"`
	// Outcome is the relay's terminal status when already known; empty means
	// the relay must be polled before the reservation is settled.
	Outcome business.RelayStatus `json:"outcome,omitempty"`
	// ActivityRecorded is set once the terminal activity record has been emitted.
	ActivityRecorded bool                    `json:"activity_recorded"`
	Activity         business.ActivityRecord `json:"activity"`
	ParkedAt         time.Time               `json:"parked_at"`
}

// PendingExecutionStore keeps parked executions across process restarts
type PendingExecutionStore interface {
	Save(ctx context.Context, execution PendingExecution) error
	Delete(ctx context.Context, reservationID uuid.UUID) error
	List(ctx context.Context) ([]PendingExecution, error)
}
