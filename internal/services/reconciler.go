package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cyphera/cyphera-agent/internal/interfaces"
	"github.com/cyphera/cyphera-agent/internal/logger"
	"github.com/cyphera/cyphera-agent/internal/metrics"
	"github.com/cyphera/cyphera-agent/internal/types/business"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ReconcilerConfig holds the polling and circuit breaker settings.
type ReconcilerConfig struct {
	Interval         time.Duration
	FailureThreshold int
	ResetTimeout     time.Duration
	// EscalateAfter logs an error once an execution has been polled this many times.
	EscalateAfter int
}

// DefaultReconcilerConfig returns the production defaults.
func DefaultReconcilerConfig() ReconcilerConfig {
	return ReconcilerConfig{
		Interval:         30 * time.Second,
		FailureThreshold: 3,
		ResetTimeout:     5 * time.Minute,
		EscalateAfter:    120,
	}
}

type parkedExecution struct {
	interfaces.PendingExecution
	attempts int
}

// Reconciler settles reservations the coordinator could not settle in-line:
// executions whose relay outcome was unknown when it returned, and executions
// whose commit or release failed. A reservation stays outstanding until the
// relay reports a definitive status, then it is committed or released.
type Reconciler struct {
	relay    interfaces.Relay
	ledger   interfaces.BudgetLedger
	activity interfaces.ActivityRecorder
	store    interfaces.PendingExecutionStore
	config   ReconcilerConfig
	metrics  *metrics.Metrics
	now      func() time.Time
	logger   *zap.Logger

	mu      sync.Mutex
	pending map[uuid.UUID]*parkedExecution

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// Circuit breaker around relay status polling
	breakerMu           sync.Mutex
	consecutiveFailures int
	lastFailure         time.Time
	open                bool
}

// ReconcilerOption configures a Reconciler
type ReconcilerOption func(*Reconciler)

func WithReconcilerConfig(config ReconcilerConfig) ReconcilerOption {
	return func(r *Reconciler) {
		r.config = config
	}
}

func WithReconcilerMetrics(m *metrics.Metrics) ReconcilerOption {
	return func(r *Reconciler) {
		r.metrics = m
	}
}

func WithReconcilerClock(now func() time.Time) ReconcilerOption {
	return func(r *Reconciler) {
		r.now = now
	}
}

// WithPendingExecutionStore persists parked executions so Start can resume them after a restart.
func WithPendingExecutionStore(store interfaces.PendingExecutionStore) ReconcilerOption {
	return func(r *Reconciler) {
		r.store = store
	}
}

// NewReconciler creates a new reconciler
func NewReconciler(relay interfaces.Relay, ledger interfaces.BudgetLedger, activity interfaces.ActivityRecorder, opts ...ReconcilerOption) *Reconciler {
	ctx, cancel := context.WithCancel(context.Background())
	r := &Reconciler{
		relay:    relay,
		ledger:   ledger,
		activity: activity,
		config:   DefaultReconcilerConfig(),
		now:      time.Now,
		logger:   logger.ForComponent(logger.ComponentWorker),
		pending:  make(map[uuid.UUID]*parkedExecution),
		ctx:      ctx,
		cancel:   cancel,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Start reloads persisted executions and begins the polling loop
func (r *Reconciler) Start(ctx context.Context) error {
	if r.store != nil {
		executions, err := r.store.List(ctx)
		if err != nil {
			return fmt.Errorf("failed to load parked executions: %w", err)
		}
		r.mu.Lock()
		for _, execution := range executions {
			if _, exists := r.pending[execution.Token.ID]; !exists {
				r.pending[execution.Token.ID] = &parkedExecution{PendingExecution: execution}
			}
		}
		r.mu.Unlock()
		r.metrics.SetReconciliationPending(r.Pending())
		if len(executions) > 0 {
			r.logger.Info("Resumed parked executions", zap.Int("count", len(executions)))
		}
	}

	r.logger.Info("Starting reconciler", zap.Duration("interval", r.config.Interval))
	r.wg.Add(1)
	go r.loop()
	return nil
}

// Stop gracefully shuts down the reconciler
func (r *Reconciler) Stop() {
	r.logger.Info("Stopping reconciler", zap.Int("pending", r.Pending()))
	r.cancel()
	r.wg.Wait()
	r.logger.Info("Reconciler stopped")
}

// Park queues an execution for reconciliation. Parking the same reservation twice is a no-op.
// An execution with an unknown outcome needs a relay reference to poll.
func (r *Reconciler) Park(ctx context.Context, execution interfaces.PendingExecution) error {
	if execution.Outcome == "" && execution.Reference == "" {
		return fmt.Errorf("parked execution for reservation %s has no relay reference", execution.Token.ID)
	}
	select {
	case <-r.ctx.Done():
		return fmt.Errorf("reconciler is stopped")
	default:
	}

	r.mu.Lock()
	_, exists := r.pending[execution.Token.ID]
	r.mu.Unlock()
	if exists {
		return nil
	}

	if r.store != nil {
		if err := r.store.Save(ctx, execution); err != nil {
			return fmt.Errorf("failed to persist parked execution: %w", err)
		}
	}

	r.mu.Lock()
	if _, exists := r.pending[execution.Token.ID]; !exists {
		r.pending[execution.Token.ID] = &parkedExecution{PendingExecution: execution}
	}
	count := len(r.pending)
	r.mu.Unlock()

	r.metrics.SetReconciliationPending(count)
	r.logger.Warn("Execution parked for reconciliation",
		zap.String("execution_id", execution.Activity.ExecutionID.String()),
		zap.String("grant_id", execution.Token.GrantID.String()),
		zap.String("reservation_id", execution.Token.ID.String()),
		zap.String("tx_reference", execution.Reference),
		zap.String("outcome", string(execution.Outcome)))
	return nil
}

// Pending returns the number of unresolved executions.
func (r *Reconciler) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pending)
}

func (r *Reconciler) loop() {
	defer r.wg.Done()

	ticker := time.NewTicker(r.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-r.ctx.Done():
			return
		case <-ticker.C:
			r.ReconcileOnce(r.ctx)
		}
	}
}

// ReconcileOnce makes one pass over every parked execution and returns how many were settled.
func (r *Reconciler) ReconcileOnce(ctx context.Context) int {
	r.mu.Lock()
	batch := make([]*parkedExecution, 0, len(r.pending))
	for _, p := range r.pending {
		batch = append(batch, p)
	}
	r.mu.Unlock()

	polling := r.canPoll()
	if !polling {
		r.logger.Debug("Relay circuit breaker open, settling known outcomes only")
	}

	resolved := 0
	for _, p := range batch {
		if ctx.Err() != nil {
			break
		}
		if p.Outcome == "" && !polling {
			continue
		}
		if r.reconcile(ctx, p) {
			resolved++
			r.forget(ctx, p)
		}
	}

	r.metrics.SetReconciliationPending(r.Pending())
	return resolved
}

func (r *Reconciler) forget(ctx context.Context, p *parkedExecution) {
	r.mu.Lock()
	delete(r.pending, p.Token.ID)
	r.mu.Unlock()

	if r.store == nil {
		return
	}
	if err := r.store.Delete(ctx, p.Token.ID); err != nil {
		r.logger.Error("Failed to delete settled execution, it will be settled again after a restart",
			zap.String("reservation_id", p.Token.ID.String()),
			zap.Error(err))
	}
}

// reconcile reports whether the execution reached a final state.
func (r *Reconciler) reconcile(ctx context.Context, p *parkedExecution) bool {
	log := r.logger.With(
		zap.String("execution_id", p.Activity.ExecutionID.String()),
		zap.String("reservation_id", p.Token.ID.String()),
		zap.String("tx_reference", p.Reference),
	)

	if p.Outcome == "" {
		p.attempts++
		status, err := r.relay.PollStatus(ctx, p.Reference)
		if err != nil {
			r.recordFailure()
			log.Warn("Relay status poll failed during reconciliation", zap.Int("attempt", p.attempts), zap.Error(err))
			return false
		}
		r.recordSuccess()

		switch status.Status {
		case business.RelayStatusConfirmed:
			p.Activity.Status = business.ExecutionStatusSuccess
			p.Activity.FailureReason = ""
		case business.RelayStatusFailed:
			p.Activity.Status = business.ExecutionStatusFailed
			p.Activity.FailureReason = status.Detail
			p.Activity.AmountOut = "0"
		default:
			if r.config.EscalateAfter > 0 && p.attempts%r.config.EscalateAfter == 0 {
				log.Error("Execution still unresolved, budget remains reserved",
					zap.Int("attempt", p.attempts),
					zap.Duration("parked_for", r.now().Sub(p.ParkedAt)))
			}
			return false
		}
		if status.TransactionHash != "" {
			p.Activity.ExternalReference = status.TransactionHash
		}
		p.Outcome = status.Status
	}

	var err error
	if p.Outcome == business.RelayStatusConfirmed {
		err = r.ledger.Commit(ctx, &p.Token)
	} else {
		err = r.ledger.Release(ctx, &p.Token)
	}
	switch {
	case errors.Is(err, business.ErrReservationNotFound):
		log.Warn("Reservation already settled", zap.String("outcome", string(p.Outcome)))
	case err != nil:
		log.Error("Failed to settle reconciled reservation, will retry",
			zap.String("outcome", string(p.Outcome)),
			zap.Error(err))
		return false
	}

	log.Info("Execution reconciled", zap.String("outcome", string(p.Outcome)), zap.Int("attempts", p.attempts))
	if r.activity != nil && !p.ActivityRecorded {
		p.Activity.OccurredAt = r.now()
		r.activity.Record(ctx, p.Activity)
		p.ActivityRecorded = true
	}
	return true
}

func (r *Reconciler) canPoll() bool {
	r.breakerMu.Lock()
	defer r.breakerMu.Unlock()

	if !r.open {
		return true
	}
	if r.now().Sub(r.lastFailure) > r.config.ResetTimeout {
		r.open = false
		r.consecutiveFailures = 0
		r.logger.Info("Relay circuit breaker reset")
		return true
	}
	return false
}

func (r *Reconciler) recordFailure() {
	r.breakerMu.Lock()
	defer r.breakerMu.Unlock()

	r.consecutiveFailures++
	r.lastFailure = r.now()
	if r.config.FailureThreshold > 0 && r.consecutiveFailures >= r.config.FailureThreshold && !r.open {
		r.open = true
		r.logger.Warn("Relay circuit breaker opened", zap.Int("consecutive_failures", r.consecutiveFailures))
	}
}

func (r *Reconciler) recordSuccess() {
	r.breakerMu.Lock()
	defer r.breakerMu.Unlock()
	r.consecutiveFailures = 0
}
