package ssobridge

import (
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeriveUsername(t *testing.T) {
	tests := []struct {
		name       string
		externalID string
		want       string
	}{
		{name: "simple id", externalID: "U1", want: "setpar_u1"},
		{name: "mixed case and symbols", externalID: "User-42!", want: "setpar_user42"},
		{name: "uuid style id", externalID: "9F8B-11aa", want: "setpar_9f8b11aa"},
		{name: "only symbols", externalID: "---!!!", want: ""},
		{name: "empty", externalID: "", want: ""},
		{name: "long id truncated", externalID: strings.Repeat("a", 64), want: "setpar_" + strings.Repeat("a", 25)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DeriveUsername(tt.externalID))
		})
	}
}

func TestDeriveUsername_StableAndBounded(t *testing.T) {
	ids := []string{"U1", "abc-DEF-123", strings.Repeat("Z9", 40), "x"}
	valid := regexp.MustCompile(`^setpar_[a-z0-9]+$`)

	for _, id := range ids {
		first := DeriveUsername(id)
		for i := 0; i < 5; i++ {
			assert.Equal(t, first, DeriveUsername(id), "derivation must be pure")
		}
		assert.LessOrEqual(t, len(first), 32)
		assert.Regexp(t, valid, first)
	}
}

func TestDeriveLegacyUsername(t *testing.T) {
	tests := []struct {
		name  string
		email string
		want  string
	}{
		{name: "simple email", email: "Bob.Smith@x.com", want: "setpar_bob.smith"},
		{name: "local part dashes kept", email: "jane-doe@example.org", want: "setpar_jane-doe"},
		{name: "disallowed chars stripped", email: "we ird*!name@x.com", want: "setpar_weirdname"},
		{name: "no at sign", email: "plainname", want: "setpar_plainname"},
		{name: "empty local part", email: "@x.com", want: ""},
		{name: "empty", email: "", want: ""},
		{name: "long local part truncated", email: strings.Repeat("b", 64) + "@x.com", want: "setpar_" + strings.Repeat("b", 25)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DeriveLegacyUsername(tt.email))
		})
	}
}

func TestDeriveLegacyUsername_Bounded(t *testing.T) {
	got := DeriveLegacyUsername(strings.Repeat("long.name-", 10) + "@example.com")
	assert.LessOrEqual(t, len(got), 32)
	assert.True(t, strings.HasPrefix(got, "setpar_"))
}
