package services

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/cyphera/cyphera-agent/internal/interfaces"
	"github.com/cyphera/cyphera-agent/internal/logger"
	"github.com/cyphera/cyphera-agent/internal/metrics"
	"github.com/cyphera/cyphera-agent/internal/types/business"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// BudgetLedger enforces per-period spend limits for grants. The window store
// is the only place consumed amounts are mutated.
type BudgetLedger struct {
	grants  interfaces.GrantReader
	store   interfaces.BudgetWindowStore
	metrics *metrics.Metrics
	now     func() time.Time
	logger  *zap.Logger
}

// BudgetLedgerOption configures a BudgetLedger
type BudgetLedgerOption func(*BudgetLedger)

// WithLedgerClock overrides the wall clock used for window computation.
func WithLedgerClock(now func() time.Time) BudgetLedgerOption {
	return func(l *BudgetLedger) {
		l.now = now
	}
}

// WithLedgerMetrics records ledger outcomes.
func WithLedgerMetrics(m *metrics.Metrics) BudgetLedgerOption {
	return func(l *BudgetLedger) {
		l.metrics = m
	}
}

// NewBudgetLedger creates a new budget ledger
func NewBudgetLedger(grants interfaces.GrantReader, store interfaces.BudgetWindowStore, opts ...BudgetLedgerOption) *BudgetLedger {
	l := &BudgetLedger{
		grants: grants,
		store:  store,
		now:    time.Now,
		logger: logger.ForComponent(logger.ComponentLedger),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Reserve tentatively spends amount from the grant's current window.
func (l *BudgetLedger) Reserve(ctx context.Context, grantID uuid.UUID, amount *big.Int) (*business.ReservationToken, error) {
	if amount == nil || amount.Sign() <= 0 {
		return nil, business.InvalidRequestf("reservation amount must be positive")
	}

	grant, err := l.grants.GetGrant(ctx, grantID)
	if err != nil {
		return nil, err
	}

	now := l.now()
	if !grant.IsUsable(now) {
		l.metrics.ObserveReservation("reserve", "not_active")
		return nil, fmt.Errorf("%w: grant %s is %s", business.ErrGrantNotActive, grantID, grant.EffectiveStatus(now))
	}

	token := business.ReservationToken{
		ID:          uuid.New(),
		GrantID:     grantID,
		PeriodIndex: grant.PeriodIndex(now),
		Amount:      new(big.Int).Set(amount),
		CreatedAt:   now,
	}

	if err := l.store.Reserve(ctx, token, grant.PeriodAmount); err != nil {
		l.metrics.ObserveReservation("reserve", reservationOutcome(err))
		if errors.Is(err, business.ErrBudgetExceeded) || errors.Is(err, business.ErrReservationInProgress) {
			l.logger.Info("Reservation refused",
				zap.String("grant_id", grantID.String()),
				zap.String("amount", amount.String()),
				zap.Int64("period_index", token.PeriodIndex),
				zap.Error(err))
			return nil, err
		}
		l.logger.Error("Failed to reserve budget",
			zap.String("grant_id", grantID.String()),
			zap.Error(err))
		return nil, fmt.Errorf("failed to reserve budget: %w", err)
	}

	l.metrics.ObserveReservation("reserve", "ok")
	l.logger.Debug("Budget reserved",
		zap.String("grant_id", grantID.String()),
		zap.String("reservation_id", token.ID.String()),
		zap.String("amount", amount.String()),
		zap.Int64("period_index", token.PeriodIndex))
	return &token, nil
}

// Commit finalizes a reservation. The consumed total is unchanged.
func (l *BudgetLedger) Commit(ctx context.Context, token *business.ReservationToken) error {
	if token == nil {
		return business.InvalidRequestf("reservation token is required")
	}
	if err := l.store.Commit(ctx, token.GrantID, token.ID); err != nil {
		l.metrics.ObserveReservation("commit", reservationOutcome(err))
		l.logger.Error("Failed to commit reservation",
			zap.String("grant_id", token.GrantID.String()),
			zap.String("reservation_id", token.ID.String()),
			zap.Error(err))
		return fmt.Errorf("failed to commit reservation: %w", err)
	}
	l.metrics.ObserveReservation("commit", "ok")
	return nil
}

// Release rolls a reservation back, refunding its amount to the window it was taken from.
func (l *BudgetLedger) Release(ctx context.Context, token *business.ReservationToken) error {
	if token == nil {
		return business.InvalidRequestf("reservation token is required")
	}
	if err := l.store.Release(ctx, token.GrantID, token.ID); err != nil {
		l.metrics.ObserveReservation("release", reservationOutcome(err))
		l.logger.Error("Failed to release reservation",
			zap.String("grant_id", token.GrantID.String()),
			zap.String("reservation_id", token.ID.String()),
			zap.Error(err))
		return fmt.Errorf("failed to release reservation: %w", err)
	}
	l.metrics.ObserveReservation("release", "ok")
	return nil
}

// GetRemainingBudget reports the grant's current window.
func (l *BudgetLedger) GetRemainingBudget(ctx context.Context, grantID uuid.UUID) (*business.RemainingBudget, error) {
	grant, err := l.grants.GetGrant(ctx, grantID)
	if err != nil {
		return nil, err
	}

	now := l.now()
	periodIndex := grant.PeriodIndex(now)
	consumed, reservation, err := l.store.Snapshot(ctx, grantID, periodIndex)
	if err != nil {
		return nil, fmt.Errorf("failed to read budget window: %w", err)
	}

	remaining := new(big.Int).Sub(grant.PeriodAmount, consumed)
	if remaining.Sign() < 0 {
		remaining.SetInt64(0)
	}
	_, resetAt := grant.WindowBounds(periodIndex)

	return &business.RemainingBudget{
		GrantID:       grantID,
		PeriodIndex:   periodIndex,
		PeriodAmount:  new(big.Int).Set(grant.PeriodAmount),
		Consumed:      consumed,
		Remaining:     remaining,
		WindowResetAt: resetAt,
		Reserved:      reservation != nil,
	}, nil
}

func reservationOutcome(err error) string {
	switch {
	case errors.Is(err, business.ErrBudgetExceeded):
		return "budget_exceeded"
	case errors.Is(err, business.ErrReservationInProgress):
		return "in_progress"
	case errors.Is(err, business.ErrReservationNotFound):
		return "not_found"
	default:
		return "error"
	}
}
