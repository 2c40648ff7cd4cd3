package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/cyphera/cyphera-agent/internal/interfaces"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	redisPendingKeyPrefix = "agent:reconcile:"
	redisPendingIndexKey  = "agent:reconcile:pending"
)

// RedisPendingStore keeps parked executions in Redis so a restarted
// reconciler can settle reservations left outstanding by the previous process.
type RedisPendingStore struct {
	client redis.UniversalClient
}

// NewRedisPendingStore creates a store on an existing client
func NewRedisPendingStore(client redis.UniversalClient) *RedisPendingStore {
	return &RedisPendingStore{client: client}
}

func pendingKey(reservationID uuid.UUID) string {
	return redisPendingKeyPrefix + reservationID.String()
}

func (s *RedisPendingStore) Save(ctx context.Context, execution interfaces.PendingExecution) error {
	data, err := json.Marshal(execution)
	if err != nil {
		return fmt.Errorf("failed to encode parked execution: %w", err)
	}
	id := execution.Token.ID.String()
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, pendingKey(execution.Token.ID), data, 0)
		pipe.SAdd(ctx, redisPendingIndexKey, id)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save parked execution %s: %w", id, err)
	}
	return nil
}

func (s *RedisPendingStore) Delete(ctx context.Context, reservationID uuid.UUID) error {
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, pendingKey(reservationID))
		pipe.SRem(ctx, redisPendingIndexKey, reservationID.String())
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete parked execution %s: %w", reservationID, err)
	}
	return nil
}

// List returns every parked execution. Index entries without a record are skipped.
func (s *RedisPendingStore) List(ctx context.Context) ([]interfaces.PendingExecution, error) {
	ids, err := s.client.SMembers(ctx, redisPendingIndexKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list parked executions: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = redisPendingKeyPrefix + id
	}
	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load parked executions: %w", err)
	}

	executions := make([]interfaces.PendingExecution, 0, len(values))
	for i, value := range values {
		raw, ok := value.(string)
		if !ok {
			continue
		}
		var execution interfaces.PendingExecution
		if err := json.Unmarshal([]byte(raw), &execution); err != nil {
			return nil, fmt.Errorf("failed to decode parked execution %s: %w", ids[i], err)
		}
		executions = append(executions, execution)
	}
	return executions, nil
}
