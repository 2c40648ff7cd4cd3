package business

import (
	"errors"
	"fmt"
)

// Authorization errors. Fatal to the current request and never retried.
var (
	ErrUnknownPermissionType = errors.New("unknown permission type")
	ErrUnsupportedNetwork    = errors.New("unsupported network")
	ErrScopeViolation        = errors.New("scope violation")
	ErrGrantNotActive        = errors.New("grant not active")
	ErrGrantNotFound         = errors.New("grant not found")
	ErrForbidden             = errors.New("caller is not allowed to act on this grant")
)

// Budget errors. Fatal to the request, transient for the grant.
var (
	ErrBudgetExceeded         = errors.New("budget exceeded")
	ErrReservationInProgress  = errors.New("reservation in progress")
	ErrReservationNotFound    = errors.New("reservation not found")
	ErrGrantNotAdjustable     = errors.New("grant period amount is not adjustable")
	ErrInvalidGrantTransition = errors.New("invalid grant status transition")
)

// Routing and execution errors.
var (
	ErrNoRouteFound    = errors.New("no route found")
	ErrExecutionFailed = errors.New("execution failed")
	ErrInvalidRequest  = errors.New("invalid request")
)

// ExecutionError carries the relay's failure detail. It matches ErrExecutionFailed under errors.Is.
type ExecutionError struct {
	Reference string
	Detail    string
	// Ambiguous is set when the relay outcome could not be determined and the
	// reservation was handed to reconciliation instead of being released.
	Ambiguous bool
	Err       error
}

func (e *ExecutionError) Error() string {
	msg := "execution failed"
	if e.Ambiguous {
		msg = "execution outcome unknown"
	}
	if e.Detail != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Detail)
	}
	if e.Reference != "" {
		msg = fmt.Sprintf("%s (reference %s)", msg, e.Reference)
	}
	return msg
}

func (e *ExecutionError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrExecutionFailed, e.Err}
	}
	return []error{ErrExecutionFailed}
}

// InvalidRequestf returns an error wrapping ErrInvalidRequest.
func InvalidRequestf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidRequest, fmt.Sprintf(format, args...))
}

// ErrRelayRejected marks a relay response that definitively did not execute.
// Any other relay error is treated as an unknown outcome.
var ErrRelayRejected = errors.New("relay rejected submission")
