package handlers

import (
	"net/http"
	"time"

	"github.com/cyphera/cyphera-agent/internal/helpers"
	"github.com/cyphera/cyphera-agent/internal/types/api/params"
	"github.com/cyphera/cyphera-agent/internal/types/api/requests"
	"github.com/cyphera/cyphera-agent/internal/types/api/responses"
	"github.com/cyphera/cyphera-agent/internal/types/business"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/gin-gonic/gin"
)

// GrantHandler handles permission grant operations
type GrantHandler struct {
	common *CommonServices
}

// NewGrantHandler creates a new instance of GrantHandler
func NewGrantHandler(common *CommonServices) *GrantHandler {
	return &GrantHandler{common: common}
}

// CreateGrant records a pending grant from the authenticated owner to a delegate
func (h *GrantHandler) CreateGrant(c *gin.Context) {
	owner, ok := requireCaller(c)
	if !ok {
		return
	}

	var req requests.CreateGrantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		sendError(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	delegate, ok := parseAddress(c, "delegate", req.Delegate)
	if !ok {
		return
	}
	token, ok := parseAddress(c, "token", req.Token)
	if !ok {
		return
	}
	amount, err := helpers.ParsePositiveAmount(req.PeriodAmount)
	if err != nil {
		sendError(c, http.StatusBadRequest, "Invalid period amount", err)
		return
	}

	grant, err := h.common.grants.CreateGrant(c.Request.Context(), params.CreateGrantParams{
		Owner:          owner,
		Delegate:       delegate,
		PermissionType: business.PermissionType(req.PermissionType),
		NetworkID:      business.NetworkID(req.NetworkID),
		Token:          token,
		PeriodAmount:   amount,
		PeriodDuration: time.Duration(req.PeriodDurationSeconds) * time.Second,
		Expiry:         req.Expiry,
		Adjustable:     req.Adjustable,
	})
	if err != nil {
		handleServiceError(c, err)
		return
	}

	sendSuccess(c, http.StatusCreated, responses.ToGrantResponse(grant))
}

// GetGrant returns a grant to its owner or delegate
func (h *GrantHandler) GetGrant(c *gin.Context) {
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
		// Non-parties see the same response as for a missing grant.
		handleServiceError(c, business.ErrGrantNotFound)
		return
	}

	sendSuccess(c, http.StatusOK, responses.ToGrantResponse(grant))
}

// ListGrants lists the caller's grants as owner (default) or as delegate
func (h *GrantHandler) ListGrants(c *gin.Context) {
	caller, ok := requireCaller(c)
	if !ok {
		return
	}

	var filter params.ListGrantsParams
	switch role := c.DefaultQuery("role", "owner"); role {
	case "owner":
		filter.Owner = &caller
	case "delegate":
		filter.Delegate = &caller
	default:
		sendError(c, http.StatusBadRequest, "Invalid role, expected owner or delegate", business.InvalidRequestf("role %q", role))
		return
	}

	grants, err := h.common.grants.ListGrants(c.Request.Context(), filter)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	data := make([]responses.GrantResponse, 0, len(grants))
	for i := range grants {
		data = append(data, responses.ToGrantResponse(&grants[i]))
	}
	sendList(c, data)
}

// ActivateGrant records the owner's authorization proof and the scope it covers
func (h *GrantHandler) ActivateGrant(c *gin.Context) {
	caller, ok := requireCaller(c)
	if !ok {
		return
	}
	grantID, ok := parseGrantID(c)
	if !ok {
		return
	}

	var req requests.ActivateGrantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		sendError(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	proof, err := hexutil.Decode(req.AuthorizationProof)
	if err != nil {
		sendError(c, http.StatusBadRequest, "Invalid authorization proof encoding", err)
		return
	}
	targets := make([]common.Address, 0, len(req.Scope.Targets))
	for _, raw := range req.Scope.Targets {
		target, ok := parseAddress(c, "scope target", raw)
		if !ok {
			return
		}
		targets = append(targets, target)
	}

	grant, err := h.common.grants.ActivateGrant(c.Request.Context(), params.ActivateGrantParams{
		GrantID: grantID,
		Caller:  caller,
		Proof: business.AuthorizationProof{
			Data:  proof,
			Scope: business.NewDelegationScope(targets, req.Scope.Selectors),
		},
	})
	if err != nil {
		handleServiceError(c, err)
		return
	}

	sendSuccess(c, http.StatusOK, responses.ToGrantResponse(grant))
}

// RevokeGrant revokes a permission grant
func (h *GrantHandler) RevokeGrant(c *gin.Context) {
	caller, ok := requireCaller(c)
	if !ok {
		return
	}
	grantID, ok := parseGrantID(c)
	if !ok {
		return
	}

	grant, err := h.common.grants.RevokeGrant(c.Request.Context(), grantID, caller)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	sendSuccess(c, http.StatusOK, responses.ToGrantResponse(grant))
}

// AdjustGrant renegotiates the period amount of an adjustable grant
func (h *GrantHandler) AdjustGrant(c *gin.Context) {
	caller, ok := requireCaller(c)
	if !ok {
		return
	}
	grantID, ok := parseGrantID(c)
	if !ok {
		return
	}

	var req requests.AdjustGrantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		sendError(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	amount, err := helpers.ParsePositiveAmount(req.PeriodAmount)
	if err != nil {
		sendError(c, http.StatusBadRequest, "Invalid period amount", err)
		return
	}

	grant, err := h.common.grants.AdjustGrant(c.Request.Context(), params.AdjustGrantParams{
		GrantID:         grantID,
		Caller:          caller,
		NewPeriodAmount: amount,
	})
	if err != nil {
		handleServiceError(c, err)
		return
	}

	sendSuccess(c, http.StatusOK, responses.ToGrantResponse(grant))
}

func isParty(grant *business.PermissionGrant, caller common.Address) bool {
	return grant.Owner == caller || grant.Delegate == caller
}
