package responses

import (
	"encoding/hex"
	"time"

	"github.com/cyphera/cyphera-agent/internal/helpers"
	"github.com/cyphera/cyphera-agent/internal/types/business"
)

// ErrorResponse represents a standard error response
type ErrorResponse struct {
	Error         string `json:"error"`
	CorrelationID string `json:"correlation_id,omitempty"`
}

// ListResponse wraps list endpoints
type ListResponse struct {
	Object string      `json:"object"`
	Data   interface{} `json:"data"`
}

// ScopeResponse is a delegation scope
type ScopeResponse struct {
	NetworkID      uint64   `json:"network_id,omitempty"`
	PermissionType string   `json:"permission_type,omitempty"`
	Targets        []string `json:"targets"`
	Selectors      []string `json:"selectors"`
}

// GrantResponse is the API view of a permission grant
type GrantResponse struct {
	ID                    string         `json:"id"`
	Object                string         `json:"object"`
	Owner                 string         `json:"owner"`
	Delegate              string         `json:"delegate"`
	PermissionType        string         `json:"permission_type"`
	NetworkID             uint64         `json:"network_id"`
	Token                 string         `json:"token"`
	PeriodAmount          string         `json:"period_amount"`
	PeriodDurationSeconds int64          `json:"period_duration_seconds"`
	Expiry                int64          `json:"expiry"`
	Adjustable            bool           `json:"adjustable"`
	Status                string         `json:"status"`
	Scope                 *ScopeResponse `json:"scope,omitempty"`
	AuthorizationProof    string         `json:"authorization_proof,omitempty"`
	CreatedAt             int64          `json:"created_at"`
	UpdatedAt             int64          `json:"updated_at"`
	ActivatedAt           *int64         `json:"activated_at,omitempty"`
	RevokedAt             *int64         `json:"revoked_at,omitempty"`
}

// ExecutionResponse is the outcome of a redemption
type ExecutionResponse struct {
	ExecutionID           string `json:"execution_id"`
	Object                string `json:"object"`
	GrantID               string `json:"grant_id"`
	Status                string `json:"status"`
	State                 string `json:"state"`
	SourceUsed            string `json:"source_used,omitempty"`
	AmountIn              string `json:"amount_in"`
	AmountOut             string `json:"amount_out"`
	ExternalReference     string `json:"external_reference,omitempty"`
	FailureReason         string `json:"failure_reason,omitempty"`
	ReconciliationPending bool   `json:"reconciliation_pending"`
}

// RemainingBudgetResponse reports a grant's current budget window
type RemainingBudgetResponse struct {
	GrantID                string `json:"grant_id"`
	Object                 string `json:"object"`
	PeriodIndex            int64  `json:"period_index"`
	PeriodAmount           string `json:"period_amount"`
	Consumed               string `json:"consumed"`
	Remaining              string `json:"remaining"`
	WindowResetAt          int64  `json:"window_reset_at"`
	ReservationOutstanding bool   `json:"reservation_outstanding"`
}

// TokenResponse is a registered token
type TokenResponse struct {
	Symbol   string `json:"symbol"`
	Name     string `json:"name,omitempty"`
	Address  string `json:"address"`
	Decimals uint8  `json:"decimals"`
	LogoURL  string `json:"logo_url,omitempty"`
}

// SourceResponse is a liquidity source enabled on a network
type SourceResponse struct {
	ID     string `json:"id"`
	Router string `json:"router"`
}

// NetworkResponse is a registry network with its tokens and sources
type NetworkResponse struct {
	ChainID uint64           `json:"chain_id"`
	Object  string           `json:"object"`
	Name    string           `json:"name"`
	Tokens  []TokenResponse  `json:"tokens"`
	Sources []SourceResponse `json:"sources"`
}

// HealthResponse reports service and dependency health
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

func unixPtr(t *time.Time) *int64 {
	if t == nil {
		return nil
	}
	v := t.Unix()
	return &v
}

// ToScopeResponse converts a scope
func ToScopeResponse(scope business.DelegationScope) *ScopeResponse {
	targets := make([]string, 0, len(scope.Targets))
	for _, t := range scope.Targets {
		targets = append(targets, t.Hex())
	}
	return &ScopeResponse{
		Targets:   targets,
		Selectors: append([]string{}, scope.Selectors...),
	}
}

// ToGrantResponse converts a grant
func ToGrantResponse(g *business.PermissionGrant) GrantResponse {
	resp := GrantResponse{
		ID:                    g.ID.String(),
		Object:                "permission_grant",
		Owner:                 g.Owner.Hex(),
		Delegate:              g.Delegate.Hex(),
		PermissionType:        string(g.PermissionType),
		NetworkID:             uint64(g.NetworkID),
		Token:                 g.Token.Hex(),
		PeriodAmount:          helpers.AmountString(g.PeriodAmount),
		PeriodDurationSeconds: int64(g.PeriodDuration / time.Second),
		Expiry:                g.Expiry.Unix(),
		Adjustable:            g.Adjustable,
		Status:                string(g.Status),
		CreatedAt:             g.CreatedAt.Unix(),
		UpdatedAt:             g.UpdatedAt.Unix(),
		ActivatedAt:           unixPtr(g.ActivatedAt),
		RevokedAt:             unixPtr(g.RevokedAt),
	}
	if g.Authorization != nil {
		resp.Scope = ToScopeResponse(g.Authorization.Scope)
		resp.AuthorizationProof = "0x" + hex.EncodeToString(g.Authorization.Data)
	}
	return resp
}

// ToExecutionResponse converts a redemption result
func ToExecutionResponse(r *business.ExecutionResult) ExecutionResponse {
	return ExecutionResponse{
		ExecutionID:           r.ExecutionID.String(),
		Object:                "execution",
		GrantID:               r.GrantID.String(),
		Status:                string(r.Status),
		State:                 string(r.State),
		SourceUsed:            r.SourceUsed,
		AmountIn:              helpers.AmountString(r.AmountIn),
		AmountOut:             helpers.AmountString(r.AmountOut),
		ExternalReference:     r.ExternalReference,
		FailureReason:         r.FailureReason,
		ReconciliationPending: r.ReconciliationPending,
	}
}

// ToRemainingBudgetResponse converts a budget window
func ToRemainingBudgetResponse(b *business.RemainingBudget) RemainingBudgetResponse {
	return RemainingBudgetResponse{
		GrantID:                b.GrantID.String(),
		Object:                 "budget_window",
		PeriodIndex:            b.PeriodIndex,
		PeriodAmount:           helpers.AmountString(b.PeriodAmount),
		Consumed:               helpers.AmountString(b.Consumed),
		Remaining:              helpers.AmountString(b.Remaining),
		WindowResetAt:          b.WindowResetAt.Unix(),
		ReservationOutstanding: b.Reserved,
	}
}
