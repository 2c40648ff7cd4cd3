package handlers

import (
	"errors"
	"net/http"

	"github.com/cyphera/cyphera-agent/internal/helpers"
	"github.com/cyphera/cyphera-agent/internal/types/api/requests"
	"github.com/cyphera/cyphera-agent/internal/types/api/responses"
	"github.com/cyphera/cyphera-agent/internal/types/business"
	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
)

// RedemptionHandler handles grant redemptions and budget queries
type RedemptionHandler struct {
	common *CommonServices
}

// NewRedemptionHandler creates a new instance of RedemptionHandler
func NewRedemptionHandler(common *CommonServices) *RedemptionHandler {
	return &RedemptionHandler{common: common}
}

// Redeem executes a swap against the grant's budget on behalf of the delegate
func (h *RedemptionHandler) Redeem(c *gin.Context) {
	caller, ok := requireCaller(c)
	if !ok {
		return
	}
	grantID, ok := parseGrantID(c)
	if !ok {
		return
	}

	var req requests.RedeemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		sendError(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	tokenIn, ok := parseAddress(c, "token_in", req.TokenIn)
	if !ok {
		return
	}
	tokenOut, ok := parseAddress(c, "token_out", req.TokenOut)
	if !ok {
		return
	}
	var recipient common.Address
	if req.Recipient != "" {
		if recipient, ok = parseAddress(c, "recipient", req.Recipient); !ok {
			return
		}
	}
	amountIn, err := helpers.ParsePositiveAmount(req.AmountIn)
	if err != nil {
		sendError(c, http.StatusBadRequest, "Invalid amount_in", err)
		return
	}

	result, err := h.common.coordinator.Redeem(c.Request.Context(), business.ExecutionRequest{
		GrantID:        grantID,
		TokenIn:        tokenIn,
		TokenOut:       tokenOut,
		AmountIn:       amountIn,
		Recipient:      recipient,
		MaxSlippageBps: req.MaxSlippageBps,
		Caller:         caller,
	})
	if result == nil {
		if err == nil {
			err = errors.New("redemption returned no result")
		}
		handleServiceError(c, err)
		return
	}

	status := http.StatusOK
	var execErr *business.ExecutionError
	switch {
	case result.ReconciliationPending:
		status = http.StatusAccepted
	case errors.As(err, &execErr):
		status = http.StatusBadGateway
	case err != nil:
		status = statusForError(err)
	}
	sendSuccess(c, status, responses.ToExecutionResponse(result))
}

// GetRemainingBudget reports the current window's consumed and remaining amounts
func (h *RedemptionHandler) GetRemainingBudget(c *gin.Context) {
	caller, ok := requireCaller(c)
	if !ok {
		return
	}
	grantID, ok := parseGrantID(c)
	if !ok {
		return
	}

	grant, err := h.common.grants.GetGrant(c.Request.Context(), grantID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	if !isParty(grant, caller) {
		handleServiceError(c, business.ErrGrantNotFound)
		return
	}

	budget, err := h.common.ledger.GetRemainingBudget(c.Request.Context(), grantID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	sendSuccess(c, http.StatusOK, responses.ToRemainingBudgetResponse(budget))
}
