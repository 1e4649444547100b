package cache

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"
)

// ErrExchangeTokenNotFound is returned when a token is unknown, already
// consumed, or expired.
var ErrExchangeTokenNotFound = errors.New("exchange token not found")

// ExchangeEntry is a pending exchange token bound to one local user.
type ExchangeEntry struct {
	ID        string    `redis:"id"`
	UserID    string    `redis:"userId"`
	ExpiresAt time.Time `redis:"expiresAt"`
	CreatedAt time.Time `redis:"createdAt"`
}

// ExchangeStore issues and consumes single-use, short-lived exchange tokens.
// Consume deletes the token; a second Consume with the same token fails.
//
//go:generate mockgen -source=$GOFILE -destination=../../mocks/mock_$GOPACKAGE/mock_$GOFILE -package=mock_$GOPACKAGE
type ExchangeStore interface {
	Issue(ctx context.Context, userID string) (string, error)
	Consume(ctx context.Context, token string) (string, error)
	Close() error
}

// NewExchangeToken generates a unique, unguessable exchange token value.
func NewExchangeToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate exchange token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
