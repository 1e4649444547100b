package cache

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jellydator/ttlcache/v3"
)

// MemoryExchangeStore implements ExchangeStore using ttlcache.
type MemoryExchangeStore struct {
	cache *ttlcache.Cache[string, *ExchangeEntry]
	ttl   time.Duration
}

// NewMemoryExchangeStore creates a new in-memory exchange token store with
// automatic cleanup of expired entries.
func NewMemoryExchangeStore(ttl time.Duration) *MemoryExchangeStore {
	cache := ttlcache.New(
		ttlcache.WithTTL[string, *ExchangeEntry](ttl),
		ttlcache.WithDisableTouchOnHit[string, *ExchangeEntry](),
	)

	// Start the cleanup process
	go cache.Start()

	return &MemoryExchangeStore{
		cache: cache,
		ttl:   ttl,
	}
}

// Issue implements ExchangeStore.Issue.
func (s *MemoryExchangeStore) Issue(_ context.Context, userID string) (string, error) {
	token, err := NewExchangeToken()
	if err != nil {
		return "", err
	}

	now := time.Now().UTC()
	entry := &ExchangeEntry{
		ID:        uuid.NewString(),
		UserID:    userID,
		ExpiresAt: now.Add(s.ttl),
		CreatedAt: now,
	}
	s.cache.Set(HashToken(token), entry, s.ttl)

	return token, nil
}

// Consume implements ExchangeStore.Consume. The entry is removed before the
// user id is returned, so a token can only ever be redeemed once.
func (s *MemoryExchangeStore) Consume(_ context.Context, token string) (string, error) {
	key := HashToken(token)
	item := s.cache.Get(key)
	if item == nil {
		return "", ErrExchangeTokenNotFound
	}
	s.cache.Delete(key)

	entry := item.Value()
	if time.Now().After(entry.ExpiresAt) {
		return "", ErrExchangeTokenNotFound
	}

	return entry.UserID, nil
}

// Close stops the cleanup goroutine.
func (s *MemoryExchangeStore) Close() error {
	s.cache.Stop()

	return nil
}

var _ ExchangeStore = (*MemoryExchangeStore)(nil)
