package services

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/cyphera/cyphera-agent/internal/types/business"
	"github.com/google/uuid"
)

type budgetWindow struct {
	periodIndex int64
	consumed    *big.Int
	reservation *business.ReservationToken
}

// MemoryBudgetStore keeps budget windows in process memory.
type MemoryBudgetStore struct {
	mu      sync.Mutex
	windows map[uuid.UUID]*budgetWindow
}

// NewMemoryBudgetStore creates an empty in-memory window store
func NewMemoryBudgetStore() *MemoryBudgetStore {
	return &MemoryBudgetStore{windows: make(map[uuid.UUID]*budgetWindow)}
}

func (s *MemoryBudgetStore) Reserve(_ context.Context, token business.ReservationToken, limit *big.Int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.windows[token.GrantID]
	if !ok {
		w = &budgetWindow{periodIndex: token.PeriodIndex, consumed: new(big.Int)}
	}
	next, err := applyReserve(w, token, limit)
	if err != nil {
		return err
	}
	s.windows[token.GrantID] = next
	return nil
}

func (s *MemoryBudgetStore) Commit(_ context.Context, grantID, reservationID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.windows[grantID]
	if !ok || w.reservation == nil || w.reservation.ID != reservationID {
		return fmt.Errorf("%w: %s", business.ErrReservationNotFound, reservationID)
	}
	w.reservation = nil
	return nil
}

func (s *MemoryBudgetStore) Release(_ context.Context, grantID, reservationID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.windows[grantID]
	if !ok || w.reservation == nil || w.reservation.ID != reservationID {
		return fmt.Errorf("%w: %s", business.ErrReservationNotFound, reservationID)
	}
	applyRelease(w)
	return nil
}

func (s *MemoryBudgetStore) Snapshot(_ context.Context, grantID uuid.UUID, periodIndex int64) (*big.Int, *business.ReservationToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.windows[grantID]
	if !ok {
		return new(big.Int), nil, nil
	}
	consumed := new(big.Int)
	if w.periodIndex >= periodIndex {
		consumed.Set(w.consumed)
	}
	var reservation *business.ReservationToken
	if w.reservation != nil {
		r := *w.reservation
		r.Amount = new(big.Int).Set(w.reservation.Amount)
		reservation = &r
	}
	return consumed, reservation, nil
}

// applyReserve computes the window after reserving token against w. w is not modified.
// A window behind token.PeriodIndex is rolled forward with consumed reset to zero.
func applyReserve(w *budgetWindow, token business.ReservationToken, limit *big.Int) (*budgetWindow, error) {
	if w.reservation != nil {
		return nil, fmt.Errorf("%w: reservation %s outstanding for grant %s",
			business.ErrReservationInProgress, w.reservation.ID, token.GrantID)
	}

	periodIndex := w.periodIndex
	consumed := new(big.Int).Set(w.consumed)
	if token.PeriodIndex > periodIndex {
		periodIndex = token.PeriodIndex
		consumed.SetInt64(0)
	}

	total := new(big.Int).Add(consumed, token.Amount)
	if total.Cmp(limit) > 0 {
		return nil, fmt.Errorf("%w: consumed %s + requested %s > period amount %s",
			business.ErrBudgetExceeded, consumed, token.Amount, limit)
	}

	reservation := token
	reservation.PeriodIndex = periodIndex
	reservation.Amount = new(big.Int).Set(token.Amount)
	return &budgetWindow{
		periodIndex: periodIndex,
		consumed:    total,
		reservation: &reservation,
	}, nil
}

// applyRelease refunds the outstanding reservation if its window is still current and clears it.
func applyRelease(w *budgetWindow) {
	if w.reservation.PeriodIndex == w.periodIndex {
		w.consumed.Sub(w.consumed, w.reservation.Amount)
		if w.consumed.Sign() < 0 {
			w.consumed.SetInt64(0)
		}
	}
	w.reservation = nil
}
