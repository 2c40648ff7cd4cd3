package business

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
)

// ExecutionRequest is a delegate's request to redeem a grant.
type ExecutionRequest struct {
	GrantID        uuid.UUID
	TokenIn        common.Address
	TokenOut       common.Address
	AmountIn       *big.Int
	Recipient      common.Address
	MaxSlippageBps uint32
	// Caller is the authenticated account making the request. Zero skips the delegate check.
	Caller common.Address
}

// ExecutionStatus is the terminal outcome of a redemption.
type ExecutionStatus string

const (
	ExecutionStatusSuccess ExecutionStatus = "SUCCESS"
	ExecutionStatusFailed  ExecutionStatus = "FAILED"
)

// ExecutionState is a step of a single redemption attempt.
type ExecutionState string

const (
	ExecutionStateValidating ExecutionState = "VALIDATING"
	ExecutionStateQuoting    ExecutionState = "QUOTING"
	ExecutionStateReserving  ExecutionState = "RESERVING"
	ExecutionStateBuilding   ExecutionState = "BUILDING"
	ExecutionStateSubmitting ExecutionState = "SUBMITTING"
	ExecutionStateConfirmed  ExecutionState = "CONFIRMED"
	ExecutionStateFailed     ExecutionState = "FAILED"
)

// ExecutionResult is returned from a redemption.
type ExecutionResult struct {
	ExecutionID       uuid.UUID
	GrantID           uuid.UUID
	Status            ExecutionStatus
	State             ExecutionState
	SourceUsed        string
	AmountIn          *big.Int
	AmountOut         *big.Int
	ExternalReference string
	FailureReason     string
	// ReconciliationPending is set when the relay outcome is unknown and the
	// reservation is held until the reconciler resolves it.
	ReconciliationPending bool
}

// ReservationToken identifies a tentative spend against a grant's current window.
type ReservationToken struct {
	ID          uuid.UUID `json:"id"`
	GrantID     uuid.UUID `json:"grant_id"`
	PeriodIndex int64     `json:"period_index"`
	Amount      *big.Int  `json:"amount"`
	CreatedAt   time.Time `json:"created_at"`
}

// RemainingBudget summarises a grant's current budget window.
type RemainingBudget struct {
	GrantID       uuid.UUID
	PeriodIndex   int64
	PeriodAmount  *big.Int
	Consumed      *big.Int
	Remaining     *big.Int
	WindowResetAt time.Time
	Reserved      bool
}

// RelayStatus is the relay's view of a submitted execution.
type RelayStatus string

const (
	RelayStatusPending   RelayStatus = "pending"
	RelayStatusConfirmed RelayStatus = "confirmed"
	RelayStatusFailed    RelayStatus = "failed"
)

// SubmitRequest is handed to the relay for signing and broadcast.
type SubmitRequest struct {
	// ExecutionID doubles as the relay idempotency key and as the lookup
	// reference when a submit call fails without returning one.
	ExecutionID        uuid.UUID
	GrantID            uuid.UUID
	NetworkID          NetworkID
	Owner              common.Address
	Delegate           common.Address
	Payload            CallPayload
	AuthorizationProof []byte
}

// SubmitReceipt is the relay's acknowledgement of a submission.
type SubmitReceipt struct {
	Reference string
	Status    RelayStatus
	Detail    string
}

// RelayStatusResult is a poll response from the relay.
type RelayStatusResult struct {
	Reference       string
	Status          RelayStatus
	Detail          string
	TransactionHash string
}

// ActivityRecord is emitted once per terminal redemption outcome.
type ActivityRecord struct {
	ExecutionID       uuid.UUID       `json:"execution_id"`
	GrantID           uuid.UUID       `json:"grant_id"`
	Owner             string          `json:"owner"`
	Delegate          string          `json:"delegate"`
	Status            ExecutionStatus `json:"status"`
	AmountIn          string          `json:"amount_in"`
	AmountOut         string          `json:"amount_out"`
	SourceUsed        string          `json:"source_used,omitempty"`
	FailureReason     string          `json:"failure_reason,omitempty"`
	ExternalReference string          `json:"external_reference,omitempty"`
	OccurredAt        time.Time       `json:"occurred_at"`
}
