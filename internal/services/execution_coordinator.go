package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cyphera/cyphera-agent/internal/constants"
	"github.com/cyphera/cyphera-agent/internal/helpers"
	"github.com/cyphera/cyphera-agent/internal/interfaces"
	"github.com/cyphera/cyphera-agent/internal/logger"
	"github.com/cyphera/cyphera-agent/internal/metrics"
	"github.com/cyphera/cyphera-agent/internal/types/business"
	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const outcomeUnknownReason = "outcome unknown; reconciliation pending"

// CoordinatorConfig tunes the quoting and relay polling steps.
type CoordinatorConfig struct {
	QuoteDeadline time.Duration
	PollInterval  time.Duration
	MaxPolls      int
}

// DefaultCoordinatorConfig returns the production defaults.
func DefaultCoordinatorConfig() CoordinatorConfig {
	return CoordinatorConfig{
		QuoteDeadline: DefaultQuoteDeadline,
		PollInterval:  3 * time.Second,
		MaxPolls:      constants.DefaultRelayPollAttempts,
	}
}

// ExecutionCoordinator drives one redemption through
// VALIDATING, QUOTING, RESERVING, BUILDING and SUBMITTING to CONFIRMED or FAILED.
type ExecutionCoordinator struct {
	grants     interfaces.GrantReader
	scopes     interfaces.ScopeResolver
	quotes     interfaces.QuoteAggregator
	ledger     interfaces.BudgetLedger
	relay      interfaces.Relay
	activity   interfaces.ActivityRecorder
	reconciler interfaces.ReconciliationQueue
	config     CoordinatorConfig
	metrics    *metrics.Metrics
	now        func() time.Time
	logger     *zap.Logger
}

// CoordinatorOption configures an ExecutionCoordinator
type CoordinatorOption func(*ExecutionCoordinator)

func WithCoordinatorConfig(config CoordinatorConfig) CoordinatorOption {
	return func(c *ExecutionCoordinator) {
		c.config = config
	}
}

func WithCoordinatorClock(now func() time.Time) CoordinatorOption {
	return func(c *ExecutionCoordinator) {
		c.now = now
	}
}

func WithCoordinatorMetrics(m *metrics.Metrics) CoordinatorOption {
	return func(c *ExecutionCoordinator) {
		c.metrics = m
	}
}

// WithReconciliationQueue sets where executions with an unknown relay outcome are parked.
func WithReconciliationQueue(q interfaces.ReconciliationQueue) CoordinatorOption {
	return func(c *ExecutionCoordinator) {
		c.reconciler = q
	}
}

// NewExecutionCoordinator creates a new execution coordinator
func NewExecutionCoordinator(
	grants interfaces.GrantReader,
	scopes interfaces.ScopeResolver,
	quotes interfaces.QuoteAggregator,
	ledger interfaces.BudgetLedger,
	relay interfaces.Relay,
	activity interfaces.ActivityRecorder,
	opts ...CoordinatorOption,
) *ExecutionCoordinator {
	c := &ExecutionCoordinator{
		grants:   grants,
		scopes:   scopes,
		quotes:   quotes,
		ledger:   ledger,
		relay:    relay,
		activity: activity,
		config:   DefaultCoordinatorConfig(),
		now:      time.Now,
		logger:   logger.ForComponent(logger.ComponentCoordinator),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.config.MaxPolls <= 0 {
		c.config.MaxPolls = constants.DefaultRelayPollAttempts
	}
	return c
}

// attempt carries the state of one redemption.
type attempt struct {
	req       business.ExecutionRequest
	result    *business.ExecutionResult
	grant     *business.PermissionGrant
	scope     business.DelegationScope
	quote     *business.Quote
	token     *business.ReservationToken
	recipient common.Address
	log       *zap.Logger
}

func (a *attempt) transition(state business.ExecutionState) {
	a.result.State = state
	a.log.Debug("Redemption state", zap.String("state", string(state)))
}

// Redeem runs a redemption to a terminal outcome. Cancelling ctx before
// SUBMITTING aborts without side effects; once submitted, the attempt runs to
// completion regardless of ctx.
func (c *ExecutionCoordinator) Redeem(ctx context.Context, req business.ExecutionRequest) (*business.ExecutionResult, error) {
	executionID := uuid.New()
	a := &attempt{
		req: req,
		result: &business.ExecutionResult{
			ExecutionID: executionID,
			GrantID:     req.GrantID,
			Status:      business.ExecutionStatusFailed,
			AmountIn:    helpers.CloneAmount(req.AmountIn),
		},
		log: logger.FromContext(ctx, c.logger).With(
			zap.String("execution_id", executionID.String()),
			zap.String("grant_id", req.GrantID.String()),
		),
	}

	result, err := c.run(ctx, a)
	c.metrics.ObserveRedemption(string(a.result.State))
	if err != nil {
		a.log.Info("Redemption failed",
			zap.String("state", string(a.result.State)),
			zap.Error(err))
	}
	return result, err
}

func (c *ExecutionCoordinator) run(ctx context.Context, a *attempt) (*business.ExecutionResult, error) {
	a.transition(business.ExecutionStateValidating)
	if err := c.validate(ctx, a); err != nil {
		return c.abort(a, err)
	}
	if err := ctx.Err(); err != nil {
		return c.abort(a, err)
	}

	a.transition(business.ExecutionStateQuoting)
	quote, err := c.quotes.GetBestQuote(ctx, business.QuoteRequest{
		NetworkID: a.grant.NetworkID,
		TokenIn:   a.req.TokenIn,
		TokenOut:  a.req.TokenOut,
		AmountIn:  a.req.AmountIn,
		Sender:    a.grant.Owner,
	}, c.config.QuoteDeadline)
	if err != nil {
		return c.abort(a, err)
	}
	if !a.scope.ContainsTarget(quote.Router) {
		return c.abort(a, fmt.Errorf("%w: router %s of %s is not authorized", business.ErrScopeViolation, quote.Router.Hex(), quote.SourceID))
	}
	a.quote = quote
	a.result.SourceUsed = quote.SourceID

	a.transition(business.ExecutionStateReserving)
	token, err := c.ledger.Reserve(ctx, a.grant.ID, quote.AmountIn)
	if err != nil {
		return c.abort(a, err)
	}
	a.token = token

	a.transition(business.ExecutionStateBuilding)
	payload, err := c.quotes.BuildExecutionPayload(ctx, quote, business.BuildParams{
		Sender:         a.grant.Owner,
		Recipient:      a.recipient,
		MaxSlippageBps: a.req.MaxSlippageBps,
	})
	if err == nil {
		err = checkPayloadScope(a.scope, payload)
	}
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		return c.failBeforeSubmit(a, err)
	}

	a.transition(business.ExecutionStateSubmitting)
	return c.submit(context.WithoutCancel(ctx), a, payload)
}

// validate loads the grant and checks it against the request and a freshly resolved scope.
func (c *ExecutionCoordinator) validate(ctx context.Context, a *attempt) error {
	req := a.req
	if req.AmountIn == nil || req.AmountIn.Sign() <= 0 {
		return business.InvalidRequestf("amount in must be positive")
	}
	if req.MaxSlippageBps > constants.MaxSlippageBps {
		return business.InvalidRequestf("max slippage %d bps exceeds %d bps", req.MaxSlippageBps, constants.MaxSlippageBps)
	}
	if req.TokenIn == req.TokenOut {
		return business.InvalidRequestf("token in and token out must differ")
	}

	grant, err := c.grants.GetGrant(ctx, req.GrantID)
	if err != nil {
		return err
	}
	a.grant = grant

	if req.Caller != (common.Address{}) && req.Caller != grant.Delegate {
		return fmt.Errorf("%w: only the delegate may redeem", business.ErrForbidden)
	}
	now := c.now()
	if !grant.IsUsable(now) {
		return fmt.Errorf("%w: grant is %s", business.ErrGrantNotActive, grant.EffectiveStatus(now))
	}
	if grant.Authorization == nil {
		return fmt.Errorf("%w: no authorization proof recorded", business.ErrGrantNotActive)
	}

	a.scope = grant.Authorization.Scope
	ok, err := c.scopes.ValidateScope(a.scope, grant.NetworkID, grant.PermissionType)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: authorized scope is not covered by the current %s scope", business.ErrScopeViolation, grant.PermissionType)
	}

	if req.TokenIn != grant.Token {
		return fmt.Errorf("%w: grant only spends %s", business.ErrScopeViolation, grant.Token.Hex())
	}
	if !a.scope.ContainsTarget(req.TokenIn) || !a.scope.ContainsTarget(req.TokenOut) {
		return fmt.Errorf("%w: token pair is not authorized", business.ErrScopeViolation)
	}

	a.recipient = req.Recipient
	if a.recipient == (common.Address{}) {
		a.recipient = grant.Owner
	}
	if a.recipient != grant.Owner {
		return fmt.Errorf("%w: proceeds must return to the owner", business.ErrScopeViolation)
	}
	return nil
}

// checkPayloadScope verifies every call targets an authorized contract with an authorized selector.
func checkPayloadScope(scope business.DelegationScope, payload *business.CallPayload) error {
	for i, call := range payload.Calls {
		if !scope.ContainsTarget(call.Target) {
			return fmt.Errorf("%w: call %d targets %s", business.ErrScopeViolation, i, call.Target.Hex())
		}
		id, ok := call.SelectorID()
		if !ok || !scope.ContainsSelectorID(id) {
			return fmt.Errorf("%w: call %d uses an unauthorized function", business.ErrScopeViolation, i)
		}
	}
	return nil
}

// abort fails the attempt before any reservation exists.
func (c *ExecutionCoordinator) abort(a *attempt, err error) (*business.ExecutionResult, error) {
	a.transition(business.ExecutionStateFailed)
	return nil, err
}

// failBeforeSubmit releases the reservation after a failure in BUILDING.
// A release that fails is handed to the reconciler so the grant is not left
// with an outstanding reservation.
func (c *ExecutionCoordinator) failBeforeSubmit(a *attempt, err error) (*business.ExecutionResult, error) {
	a.transition(business.ExecutionStateFailed)
	a.result.FailureReason = err.Error()
	c.emit(a)

	ctx := context.Background()
	if releaseErr := c.ledger.Release(ctx, a.token); releaseErr != nil {
		a.log.Error("Failed to release reservation after build failure, handing to reconciler",
			zap.String("reservation_id", a.token.ID.String()),
			zap.Error(releaseErr))
		c.park(ctx, a, a.result.ExecutionID.String(), business.RelayStatusFailed)
	}
	return nil, err
}

type relayOutcome int

const (
	outcomeUnknown relayOutcome = iota
	outcomeConfirmed
	outcomeFailed
)

func (c *ExecutionCoordinator) submit(ctx context.Context, a *attempt, payload *business.CallPayload) (*business.ExecutionResult, error) {
	reference := a.result.ExecutionID.String()
	outcome := outcomeUnknown
	var detail, txHash string

	receipt, err := c.relay.Submit(ctx, business.SubmitRequest{
		ExecutionID:        a.result.ExecutionID,
		GrantID:            a.grant.ID,
		NetworkID:          a.grant.NetworkID,
		Owner:              a.grant.Owner,
		Delegate:           a.grant.Delegate,
		Payload:            *payload,
		AuthorizationProof: a.grant.Authorization.Data,
	})
	switch {
	case err != nil && errors.Is(err, business.ErrRelayRejected):
		outcome, detail = outcomeFailed, err.Error()
	case err != nil:
		a.log.Warn("Relay submit outcome unknown, polling status", zap.Error(err))
		outcome, detail, txHash = c.awaitOutcome(ctx, a, reference)
	default:
		if receipt.Reference != "" {
			reference = receipt.Reference
		}
		detail = receipt.Detail
		switch receipt.Status {
		case business.RelayStatusConfirmed:
			outcome = outcomeConfirmed
		case business.RelayStatusFailed:
			outcome = outcomeFailed
		default:
			outcome, detail, txHash = c.awaitOutcome(ctx, a, reference)
		}
	}

	a.result.ExternalReference = reference
	if txHash != "" {
		a.result.ExternalReference = txHash
	}

	switch outcome {
	case outcomeConfirmed:
		a.transition(business.ExecutionStateConfirmed)
		a.result.Status = business.ExecutionStatusSuccess
		a.result.AmountOut = helpers.CloneAmount(a.quote.AmountOut)
		c.emit(a)
		if err := c.ledger.Commit(ctx, a.token); err != nil {
			a.log.Error("Failed to commit confirmed reservation, handing to reconciler", zap.Error(err))
			c.park(ctx, a, reference, business.RelayStatusConfirmed)
		}
		return a.result, nil

	case outcomeFailed:
		a.transition(business.ExecutionStateFailed)
		a.result.FailureReason = detail
		c.emit(a)
		if err := c.ledger.Release(ctx, a.token); err != nil {
			a.log.Error("Failed to release failed reservation, handing to reconciler", zap.Error(err))
			c.park(ctx, a, reference, business.RelayStatusFailed)
		}
		return a.result, &business.ExecutionError{Reference: reference, Detail: detail}

	default:
		a.transition(business.ExecutionStateFailed)
		a.result.FailureReason = outcomeUnknownReason
		a.result.ReconciliationPending = true
		c.park(ctx, a, reference, "")
		return a.result, &business.ExecutionError{Reference: reference, Detail: outcomeUnknownReason, Ambiguous: true}
	}
}

// awaitOutcome polls the relay until a terminal status or MaxPolls is reached.
func (c *ExecutionCoordinator) awaitOutcome(ctx context.Context, a *attempt, reference string) (relayOutcome, string, string) {
	timer := time.NewTimer(c.config.PollInterval)
	defer timer.Stop()

	for poll := 1; poll <= c.config.MaxPolls; poll++ {
		<-timer.C
		status, err := c.relay.PollStatus(ctx, reference)
		switch {
		case err != nil:
			a.log.Warn("Relay status poll failed",
				zap.String("tx_reference", reference),
				zap.Int("poll", poll),
				zap.Error(err))
		case status.Status == business.RelayStatusConfirmed:
			return outcomeConfirmed, status.Detail, status.TransactionHash
		case status.Status == business.RelayStatusFailed:
			return outcomeFailed, status.Detail, status.TransactionHash
		}
		timer.Reset(c.config.PollInterval)
	}
	return outcomeUnknown, "", ""
}

// park hands the reservation to the reconciler. The budget stays reserved
// until it settles. A known outcome means the activity record was already
// emitted and only the ledger settlement is left.
func (c *ExecutionCoordinator) park(ctx context.Context, a *attempt, reference string, outcome business.RelayStatus) {
	if c.reconciler == nil {
		a.log.Error("No reconciler configured, reservation left outstanding",
			zap.String("reservation_id", a.token.ID.String()),
			zap.String("tx_reference", reference))
		return
	}

	record := c.activityRecord(a)
	if outcome == "" {
		// Reported if the relay later confirms.
		record.AmountOut = helpers.AmountString(a.quote.AmountOut)
	}
	err := c.reconciler.Park(ctx, interfaces.PendingExecution{
		Token:            *a.token,
		Reference:        reference,
		Outcome:          outcome,
		ActivityRecorded: outcome != "",
		Activity:         record,
		ParkedAt:         c.now(),
	})
	if err != nil {
		a.log.Error("Failed to park execution for reconciliation",
			zap.String("reservation_id", a.token.ID.String()),
			zap.String("tx_reference", reference),
			zap.Error(err))
	}
}

func (c *ExecutionCoordinator) activityRecord(a *attempt) business.ActivityRecord {
	record := business.ActivityRecord{
		ExecutionID:       a.result.ExecutionID,
		GrantID:           a.result.GrantID,
		Status:            a.result.Status,
		AmountIn:          helpers.AmountString(a.result.AmountIn),
		AmountOut:         helpers.AmountString(a.result.AmountOut),
		SourceUsed:        a.result.SourceUsed,
		FailureReason:     a.result.FailureReason,
		ExternalReference: a.result.ExternalReference,
		OccurredAt:        c.now(),
	}
	if a.grant != nil {
		record.Owner = a.grant.Owner.Hex()
		record.Delegate = a.grant.Delegate.Hex()
	}
	return record
}

func (c *ExecutionCoordinator) emit(a *attempt) {
	if c.activity == nil {
		return
	}
	c.activity.Record(context.Background(), c.activityRecord(a))
}
