package ssobridge

import (
	"regexp"
	"strings"
)

const (
	// usernamePrefix marks every SSO-provisioned account in the user store.
	usernamePrefix = "setpar_"
	// usernameMaxLen bounds derived usernames, prefix included.
	usernameMaxLen = 32
)

var (
	primaryFilter = regexp.MustCompile(`[^a-z0-9]`)
	legacyFilter  = regexp.MustCompile(`[^a-z0-9._@-]`)
)

// DeriveUsername derives the primary local username from the external
// subject identifier: lower-cased, stripped to [a-z0-9], prefixed and
// truncated. It is a pure function; the same identifier always yields the
// same username. Returns "" when the identifier cannot back a username.
func DeriveUsername(externalID string) string {
	core := primaryFilter.ReplaceAllString(strings.ToLower(externalID), "")
	if core == "" {
		return ""
	}
	return truncateUsername(usernamePrefix + core)
}

// DeriveLegacyUsername derives the historical email-based username: the
// lower-cased email local-part, stripped to [a-z0-9._@-] and truncated,
// then prefixed and truncated again. Returns "" when nothing remains.
func DeriveLegacyUsername(email string) string {
	local, _, _ := strings.Cut(email, "@")
	local = legacyFilter.ReplaceAllString(strings.ToLower(local), "")
	local = truncateUsername(local)
	if local == "" {
		return ""
	}
	return truncateUsername(usernamePrefix + local)
}

func truncateUsername(s string) string {
	if len(s) > usernameMaxLen {
		return s[:usernameMaxLen]
	}
	return s
}
