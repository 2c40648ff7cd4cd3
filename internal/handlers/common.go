package handlers

import (
	"errors"
	"net/http"

	"github.com/cyphera/cyphera-agent/internal/interfaces"
	"github.com/cyphera/cyphera-agent/internal/logger"
	"github.com/cyphera/cyphera-agent/internal/middleware"
	"github.com/cyphera/cyphera-agent/internal/registry"
	"github.com/cyphera/cyphera-agent/internal/types/api/responses"
	"github.com/cyphera/cyphera-agent/internal/types/business"
	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CommonServices holds common dependencies used across handlers
type CommonServices struct {
	grants      interfaces.GrantService
	ledger      interfaces.BudgetLedger
	coordinator interfaces.ExecutionCoordinator
	scopes      interfaces.ScopeResolver
	registry    *registry.NetworkTokenRegistry
}

// NewCommonServices creates a new instance of CommonServices
func NewCommonServices(
	grants interfaces.GrantService,
	ledger interfaces.BudgetLedger,
	coordinator interfaces.ExecutionCoordinator,
	scopes interfaces.ScopeResolver,
	reg *registry.NetworkTokenRegistry,
) *CommonServices {
	return &CommonServices{
		grants:      grants,
		ledger:      ledger,
		coordinator: coordinator,
		scopes:      scopes,
		registry:    reg,
	}
}

// sendError is a helper function that combines logging and error response
func sendError(c *gin.Context, statusCode int, message string, err error) {
	fields := []zap.Field{
		zap.Error(err),
		zap.String("path", c.Request.URL.Path),
		zap.String("method", c.Request.Method),
	}
	log := logger.FromContext(c.Request.Context(), logger.Log)
	if statusCode >= http.StatusInternalServerError {
		log.Error(message, fields...)
	} else {
		log.Info(message, fields...)
	}
	c.JSON(statusCode, responses.ErrorResponse{
		Error:         message,
		CorrelationID: middleware.GetCorrelationID(c),
	})
}

// sendSuccess is a helper function that sends a success response
func sendSuccess(c *gin.Context, statusCode int, data interface{}) {
	c.JSON(statusCode, data)
}

// sendList is a helper function that sends a list response
func sendList(c *gin.Context, items interface{}) {
	c.JSON(http.StatusOK, responses.ListResponse{
		Object: "list",
		Data:   items,
	})
}

// statusForError maps service errors onto HTTP status codes.
func statusForError(err error) int {
	switch {
	case errors.Is(err, business.ErrGrantNotFound):
		return http.StatusNotFound
	case errors.Is(err, business.ErrForbidden),
		errors.Is(err, business.ErrScopeViolation):
		return http.StatusForbidden
	case errors.Is(err, business.ErrReservationInProgress),
		errors.Is(err, business.ErrGrantNotActive),
		errors.Is(err, business.ErrInvalidGrantTransition),
		errors.Is(err, business.ErrGrantNotAdjustable):
		return http.StatusConflict
	case errors.Is(err, business.ErrBudgetExceeded),
		errors.Is(err, business.ErrNoRouteFound):
		return http.StatusUnprocessableEntity
	case errors.Is(err, business.ErrExecutionFailed):
		return http.StatusBadGateway
	case errors.Is(err, business.ErrInvalidRequest),
		errors.Is(err, business.ErrUnknownPermissionType),
		errors.Is(err, business.ErrUnsupportedNetwork):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// handleServiceError sends the mapped status for err. Internal errors get a generic message.
func handleServiceError(c *gin.Context, err error) {
	status := statusForError(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		message = "Internal server error"
	}
	sendError(c, status, message, err)
}

// requireCaller returns the authenticated caller or sends 401.
func requireCaller(c *gin.Context) (common.Address, bool) {
	caller, ok := middleware.CallerAddress(c)
	if !ok {
		sendError(c, http.StatusUnauthorized, "Unauthorized", errors.New("no authenticated caller"))
		return common.Address{}, false
	}
	return caller, true
}

// parseGrantID reads the :grant_id path parameter.
func parseGrantID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("grant_id"))
	if err != nil {
		sendError(c, http.StatusBadRequest, "Invalid grant ID format", err)
		return uuid.Nil, false
	}
	return id, true
}

// parseAddress validates a hex address field.
func parseAddress(c *gin.Context, field, value string) (common.Address, bool) {
	if !common.IsHexAddress(value) {
		sendError(c, http.StatusBadRequest, "Invalid "+field+" address", business.InvalidRequestf("%s %q", field, value))
		return common.Address{}, false
	}
	return common.HexToAddress(value), true
}
