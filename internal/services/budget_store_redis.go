package services

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"time"

	"github.com/cyphera/cyphera-agent/internal/types/business"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	redisBudgetKeyPrefix = "agent:budget:"
	redisMaxCASAttempts  = 16

	fieldPeriod     = "period"
	fieldConsumed   = "consumed"
	fieldResID      = "res_id"
	fieldResPeriod  = "res_period"
	fieldResAmount  = "res_amount"
	fieldResCreated = "res_created"
)

// RedisBudgetStore keeps budget windows in Redis hashes, one per grant.
// Updates use WATCH/MULTI so amounts stay arbitrary precision decimal strings.
type RedisBudgetStore struct {
	client redis.UniversalClient
}

// NewRedisBudgetStore creates a store on an existing client
func NewRedisBudgetStore(client redis.UniversalClient) *RedisBudgetStore {
	return &RedisBudgetStore{client: client}
}

// NewRedisClient creates a client for addr and verifies it responds.
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return client, nil
}

func budgetKey(grantID uuid.UUID) string {
	return redisBudgetKeyPrefix + grantID.String()
}

func (s *RedisBudgetStore) Reserve(ctx context.Context, token business.ReservationToken, limit *big.Int) error {
	key := budgetKey(token.GrantID)
	return s.update(ctx, key, func(tx *redis.Tx) (map[string]interface{}, error) {
		w, err := loadWindow(ctx, tx, token.GrantID)
		if err != nil {
			return nil, err
		}
		if w == nil {
			w = &budgetWindow{periodIndex: token.PeriodIndex, consumed: new(big.Int)}
		}
		next, err := applyReserve(w, token, limit)
		if err != nil {
			return nil, err
		}
		return encodeWindow(next), nil
	})
}

func (s *RedisBudgetStore) Commit(ctx context.Context, grantID, reservationID uuid.UUID) error {
	key := budgetKey(grantID)
	return s.update(ctx, key, func(tx *redis.Tx) (map[string]interface{}, error) {
		w, err := loadWindow(ctx, tx, grantID)
		if err != nil {
			return nil, err
		}
		if w == nil || w.reservation == nil || w.reservation.ID != reservationID {
			return nil, fmt.Errorf("%w: %s", business.ErrReservationNotFound, reservationID)
		}
		w.reservation = nil
		return encodeWindow(w), nil
	})
}

func (s *RedisBudgetStore) Release(ctx context.Context, grantID, reservationID uuid.UUID) error {
	key := budgetKey(grantID)
	return s.update(ctx, key, func(tx *redis.Tx) (map[string]interface{}, error) {
		w, err := loadWindow(ctx, tx, grantID)
		if err != nil {
			return nil, err
		}
		if w == nil || w.reservation == nil || w.reservation.ID != reservationID {
			return nil, fmt.Errorf("%w: %s", business.ErrReservationNotFound, reservationID)
		}
		applyRelease(w)
		return encodeWindow(w), nil
	})
}

func (s *RedisBudgetStore) Snapshot(ctx context.Context, grantID uuid.UUID, periodIndex int64) (*big.Int, *business.ReservationToken, error) {
	w, err := loadWindow(ctx, s.client, grantID)
	if err != nil {
		return nil, nil, err
	}
	if w == nil {
		return new(big.Int), nil, nil
	}
	consumed := new(big.Int)
	if w.periodIndex >= periodIndex {
		consumed.Set(w.consumed)
	}
	return consumed, w.reservation, nil
}

// update runs an optimistic read-modify-write on key, retrying when another writer wins.
func (s *RedisBudgetStore) update(ctx context.Context, key string, mutate func(tx *redis.Tx) (map[string]interface{}, error)) error {
	txf := func(tx *redis.Tx) error {
		fields, err := mutate(tx)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, key)
			pipe.HSet(ctx, key, fields)
			return nil
		})
		return err
	}

	for attempt := 0; attempt < redisMaxCASAttempts; attempt++ {
		err := s.client.Watch(ctx, txf, key)
		if err == nil {
			return nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return err
	}
	return fmt.Errorf("budget window %s: too much contention after %d attempts", key, redisMaxCASAttempts)
}

type hashReader interface {
	HGetAll(ctx context.Context, key string) *redis.MapStringStringCmd
}

func loadWindow(ctx context.Context, cmd hashReader, grantID uuid.UUID) (*budgetWindow, error) {
	vals, err := cmd.HGetAll(ctx, budgetKey(grantID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read budget window: %w", err)
	}
	if len(vals) == 0 {
		return nil, nil
	}
	w, err := decodeWindow(vals)
	if err != nil {
		return nil, err
	}
	if w.reservation != nil {
		w.reservation.GrantID = grantID
	}
	return w, nil
}

func encodeWindow(w *budgetWindow) map[string]interface{} {
	fields := map[string]interface{}{
		fieldPeriod:   strconv.FormatInt(w.periodIndex, 10),
		fieldConsumed: w.consumed.String(),
	}
	if w.reservation != nil {
		fields[fieldResID] = w.reservation.ID.String()
		fields[fieldResPeriod] = strconv.FormatInt(w.reservation.PeriodIndex, 10)
		fields[fieldResAmount] = w.reservation.Amount.String()
		fields[fieldResCreated] = strconv.FormatInt(w.reservation.CreatedAt.UnixNano(), 10)
	}
	return fields
}

func decodeWindow(vals map[string]string) (*budgetWindow, error) {
	periodIndex, err := strconv.ParseInt(vals[fieldPeriod], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("corrupt budget window period: %w", err)
	}
	consumed, ok := new(big.Int).SetString(vals[fieldConsumed], 10)
	if !ok {
		return nil, fmt.Errorf("corrupt budget window consumed %q", vals[fieldConsumed])
	}
	w := &budgetWindow{periodIndex: periodIndex, consumed: consumed}

	rawID, hasReservation := vals[fieldResID]
	if !hasReservation {
		return w, nil
	}
	id, err := uuid.Parse(rawID)
	if err != nil {
		return nil, fmt.Errorf("corrupt reservation id: %w", err)
	}
	resPeriod, err := strconv.ParseInt(vals[fieldResPeriod], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("corrupt reservation period: %w", err)
	}
	amount, ok := new(big.Int).SetString(vals[fieldResAmount], 10)
	if !ok {
		return nil, fmt.Errorf("corrupt reservation amount %q", vals[fieldResAmount])
	}
	created, err := strconv.ParseInt(vals[fieldResCreated], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("corrupt reservation timestamp: %w", err)
	}
	w.reservation = &business.ReservationToken{
		ID:          id,
		PeriodIndex: resPeriod,
		Amount:      amount,
		CreatedAt:   time.Unix(0, created).UTC(),
	}
	return w, nil
}
