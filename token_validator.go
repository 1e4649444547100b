package ssobridge

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/setpar/sso-bridge/domain"
)

// TokenStatus classifies the outcome of validating an external session token.
type TokenStatus int

const (
	TokenValid TokenStatus = iota
	// TokenMissingSecret means the shared secret is not configured; SSO
	// bridging is simply not active, which is not a caller-visible error.
	TokenMissingSecret
	TokenExpired
	TokenMalformed
	// TokenPayloadIncomplete means the token verified but its payload holds
	// neither a subject identifier nor an email.
	TokenPayloadIncomplete
)

// externalClaims is the claim set issued by the trusted external provider.
type externalClaims struct {
	UserID     string `json:"userId,omitempty"`
	Email      string `json:"email,omitempty"`
	SuperAdmin bool   `json:"isSuperAdmin,omitempty"`
	Owner      bool   `json:"isOwner,omitempty"`
	Role       string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// TokenValidator verifies externally issued session tokens against the
// shared secret and maps verification failures to an explicit status so
// downstream stages can switch on the failure kind exhaustively.
type TokenValidator struct {
	secret []byte
}

// NewTokenValidator creates a validator for the given shared secret. An
// empty secret yields a validator that reports TokenMissingSecret for every
// token.
func NewTokenValidator(secret string) *TokenValidator {
	return &TokenValidator{secret: []byte(secret)}
}

// Validate decodes and verifies raw. On TokenValid the returned payload is
// non-nil and complete; every other status returns a nil payload.
func (v *TokenValidator) Validate(raw string) (*domain.SessionPayload, TokenStatus) {
	if len(v.secret) == 0 {
		return nil, TokenMissingSecret
	}

	claims := &externalClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, TokenExpired
		}
		return nil, TokenMalformed
	}
	if !token.Valid {
		return nil, TokenMalformed
	}

	externalID := claims.UserID
	if externalID == "" {
		// Some issuers only populate the registered subject claim.
		externalID = claims.Subject
	}

	payload := &domain.SessionPayload{
		ExternalID: externalID,
		Email:      claims.Email,
		SuperAdmin: claims.SuperAdmin,
		Owner:      claims.Owner,
		Role:       claims.Role,
	}
	if !payload.Complete() {
		return nil, TokenPayloadIncomplete
	}

	return payload, TokenValid
}
