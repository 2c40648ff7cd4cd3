package handlers

import (
	"net/http"
	"strconv"

	"github.com/cyphera/cyphera-agent/internal/registry"
	"github.com/cyphera/cyphera-agent/internal/types/api/responses"
	"github.com/cyphera/cyphera-agent/internal/types/business"
	"github.com/gin-gonic/gin"
)

// NetworkHandler serves the network registry and delegation scopes
type NetworkHandler struct {
	common *CommonServices
}

// NewNetworkHandler creates a new instance of NetworkHandler
func NewNetworkHandler(common *CommonServices) *NetworkHandler {
	return &NetworkHandler{common: common}
}

// ListNetworks lists networks with their registered tokens and liquidity sources
func (h *NetworkHandler) ListNetworks(c *gin.Context) {
	networks := h.common.registry.Networks()
	data := make([]responses.NetworkResponse, 0, len(networks))
	for _, n := range networks {
		data = append(data, toNetworkResponse(n))
	}
	sendList(c, data)
}

// GetNetwork returns one network
func (h *NetworkHandler) GetNetwork(c *gin.Context) {
	chainID, err := strconv.ParseUint(c.Param("chain_id"), 10, 64)
	if err != nil {
		sendError(c, http.StatusBadRequest, "Invalid chain ID format", err)
		return
	}

	network, err := h.common.registry.Network(business.NetworkID(chainID))
	if err != nil {
		sendError(c, http.StatusNotFound, "Network not found", err)
		return
	}
	sendSuccess(c, http.StatusOK, toNetworkResponse(network))
}

// GetScope returns the targets and selectors an owner must authorize for a permission type on a network
func (h *NetworkHandler) GetScope(c *gin.Context) {
	permissionType := c.Query("permission_type")
	if permissionType == "" {
		sendError(c, http.StatusBadRequest, "permission_type is required", business.InvalidRequestf("missing permission_type"))
		return
	}
	networkID, err := strconv.ParseUint(c.Query("network_id"), 10, 64)
	if err != nil {
		sendError(c, http.StatusBadRequest, "Invalid network_id", err)
		return
	}

	scope, err := h.common.scopes.ResolveScope(business.PermissionType(permissionType), business.NetworkID(networkID))
	if err != nil {
		handleServiceError(c, err)
		return
	}

	resp := responses.ToScopeResponse(scope)
	resp.NetworkID = networkID
	resp.PermissionType = permissionType
	sendSuccess(c, http.StatusOK, resp)
}

func toNetworkResponse(n *registry.Network) responses.NetworkResponse {
	tokens := make([]responses.TokenResponse, 0, len(n.Tokens))
	for _, t := range n.Tokens {
		tokens = append(tokens, responses.TokenResponse{
			Symbol:   t.Symbol,
			Name:     t.Name,
			Address:  t.Address.Hex(),
			Decimals: t.Decimals,
			LogoURL:  t.LogoURL,
		})
	}
	sources := make([]responses.SourceResponse, 0, len(n.Sources))
	for _, s := range n.Sources {
		sources = append(sources, responses.SourceResponse{ID: s.ID, Router: s.Router.Hex()})
	}
	return responses.NetworkResponse{
		ChainID: uint64(n.ID),
		Object:  "network",
		Name:    n.Name,
		Tokens:  tokens,
		Sources: sources,
	}
}
