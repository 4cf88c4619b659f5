/**
 * @description
 * This file implements the Redis-backed idempotency store for withdrawal
 * submissions. A receipt is recorded under its idempotency key with a TTL;
 * a replayed submission with the same key returns the recorded receipt
 * instead of reaching the payout endpoint a second time.
 */
package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/my-edutu/monetization-service/internal/domain"
	"github.com/redis/go-redis/v9"
)

// RedisIdempotencyStore records withdrawal receipts in Redis.
type RedisIdempotencyStore struct {
	client redis.UniversalClient
	prefix string
}

func NewRedisIdempotencyStore(client redis.UniversalClient, prefix string) *RedisIdempotencyStore {
	trimmedPrefix := strings.TrimSpace(prefix)
	if trimmedPrefix == "" {
		trimmedPrefix = "monetization:withdrawal_idem"
	}
	trimmedPrefix = strings.TrimSuffix(trimmedPrefix, ":")

	return &RedisIdempotencyStore{
		client: client,
		prefix: trimmedPrefix,
	}
}

func (r *RedisIdempotencyStore) key(idempotencyKey string) string {
	return fmt.Sprintf("%s:%s", r.prefix, idempotencyKey)
}

// GetReceipt returns the recorded receipt for a key, or nil when none exists.
func (r *RedisIdempotencyStore) GetReceipt(ctx context.Context, idempotencyKey string) (*domain.WithdrawalReceipt, error) {
	if r == nil || r.client == nil || strings.TrimSpace(idempotencyKey) == "" {
		return nil, nil
	}
	raw, err := r.client.Get(ctx, r.key(idempotencyKey)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	var receipt domain.WithdrawalReceipt
	if err := json.Unmarshal([]byte(raw), &receipt); err != nil {
		return nil, fmt.Errorf("failed to decode recorded receipt: %w", err)
	}
	return &receipt, nil
}

// PutReceipt records a receipt under its key for the given TTL.
func (r *RedisIdempotencyStore) PutReceipt(ctx context.Context, idempotencyKey string, receipt *domain.WithdrawalReceipt, ttl time.Duration) error {
	if r == nil || r.client == nil || strings.TrimSpace(idempotencyKey) == "" || receipt == nil {
		return nil
	}
	raw, err := json.Marshal(receipt)
	if err != nil {
		return fmt.Errorf("failed to encode receipt: %w", err)
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return r.client.Set(ctx, r.key(idempotencyKey), raw, ttl).Err()
}
