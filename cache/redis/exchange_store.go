package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/setpar/sso-bridge/cache"
)

// ExchangeStore implements cache.ExchangeStore using Redis, for deployments
// where the issuing and consuming requests may land on different replicas.
type ExchangeStore struct {
	client *redis.Client
	prefix string // Optional prefix for keys
	ttl    time.Duration
}

// NewExchangeStore creates a new [ExchangeStore] instance.
func NewExchangeStore(client *redis.Client, prefix string, ttl time.Duration) *ExchangeStore {
	return &ExchangeStore{
		client: client,
		prefix: prefix,
		ttl:    ttl,
	}
}

// redisKey returns the Redis key for a given token.
func (r *ExchangeStore) redisKey(token string) string {
	return fmt.Sprintf("%s:exchange:%s", r.prefix, cache.HashToken(token))
}

// Issue stores a fresh exchange token bound to userID with the store TTL.
func (r *ExchangeStore) Issue(ctx context.Context, userID string) (string, error) {
	token, err := cache.NewExchangeToken()
	if err != nil {
		return "", err
	}

	if err := r.client.Set(ctx, r.redisKey(token), userID, r.ttl).Err(); err != nil {
		return "", fmt.Errorf("failed to store exchange token in Redis: %w", err)
	}

	return token, nil
}

// Consume redeems a token exactly once. GETDEL keeps lookup and removal a
// single operation, so concurrent consumers cannot both win.
func (r *ExchangeStore) Consume(ctx context.Context, token string) (string, error) {
	userID, err := r.client.GetDel(ctx, r.redisKey(token)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", cache.ErrExchangeTokenNotFound
		}
		return "", fmt.Errorf("failed to consume exchange token from Redis: %w", err)
	}

	return userID, nil
}

// Close closes the underlying Redis client.
func (r *ExchangeStore) Close() error {
	return r.client.Close()
}

var _ cache.ExchangeStore = (*ExchangeStore)(nil)
