package domain

// SessionPayload holds the claims decoded from an external issuer's session
// token. It lives only for the duration of one request.
type SessionPayload struct {
	ExternalID string // Stable subject identifier at the external provider
	Email      string
	SuperAdmin bool
	Owner      bool
	Role       string // Raw role claim as issued by the provider
}

// Complete reports whether the payload carries enough identity to work with.
// A payload with neither a subject identifier nor an email is unusable.
func (p *SessionPayload) Complete() bool {
	return p.ExternalID != "" || p.Email != ""
}
