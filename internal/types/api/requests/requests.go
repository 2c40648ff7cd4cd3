package requests

import "time"

// CreateGrantRequest is the body of POST /grants. The owner is the authenticated caller.
type CreateGrantRequest struct {
	Delegate              string    `json:"delegate" binding:"required"`
	PermissionType        string    `json:"permission_type" binding:"required"`
	NetworkID             uint64    `json:"network_id" binding:"required"`
	Token                 string    `json:"token" binding:"required"`
	PeriodAmount          string    `json:"period_amount" binding:"required"`
	PeriodDurationSeconds int64     `json:"period_duration_seconds" binding:"required"`
	Expiry                time.Time `json:"expiry" binding:"required"`
	Adjustable            bool      `json:"adjustable"`
}

// ScopeRequest is a delegation scope as signed by the owner.
type ScopeRequest struct {
	Targets   []string `json:"targets" binding:"required"`
	Selectors []string `json:"selectors" binding:"required"`
}

// ActivateGrantRequest is the body of POST /grants/:grant_id/activate.
type ActivateGrantRequest struct {
	// AuthorizationProof is the hex encoded proof produced by the owner's signing context.
	AuthorizationProof string       `json:"authorization_proof" binding:"required"`
	Scope              ScopeRequest `json:"scope" binding:"required"`
}

// AdjustGrantRequest is the body of PATCH /grants/:grant_id.
type AdjustGrantRequest struct {
	PeriodAmount string `json:"period_amount" binding:"required"`
}

// RedeemRequest is the body of POST /grants/:grant_id/redeem.
type RedeemRequest struct {
	TokenIn        string `json:"token_in" binding:"required"`
	TokenOut       string `json:"token_out" binding:"required"`
	AmountIn       string `json:"amount_in" binding:"required"`
	Recipient      string `json:"recipient,omitempty"`
	MaxSlippageBps uint32 `json:"max_slippage_bps"`
}
