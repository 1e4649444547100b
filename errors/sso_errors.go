package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrNotApplicable signals that SSO bridging does not apply to the request
// (no token, or the shared secret is not configured). It is never rendered
// to the caller; the request falls through to the regular handler chain.
var ErrNotApplicable = errors.New("sso bridging not applicable")

// Stable condition codes for the bridge pipeline.
const (
	CodeTokenExpired          = "token_expired"
	CodeTokenInvalid          = "token_invalid"
	CodePayloadIncomplete     = "payload_incomplete"
	CodeUnresolvableIdentity  = "unresolvable_identity"
	CodeMultiTenancyDisabled  = "multi_tenancy_disabled"
	CodeMigrationFailed       = "migration_failed"
	CodeProvisioningFailed    = "provisioning_failed"
	CodeRoleSyncFailed        = "role_sync_failed"
	CodeSessionIssuanceFailed = "session_issuance_failed"
	CodeUnexpected            = "unexpected_error"
)

// SSOError is a classified, terminal failure of the reconciliation pipeline.
// Message is what the caller sees; Code and Status drive logging and the
// HTTP response.
type SSOError struct {
	Code    string `json:"-"`
	Message string `json:"error"`
	Status  int    `json:"-"`
}

func (e *SSOError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func NewTokenExpired() *SSOError {
	return &SSOError{Code: CodeTokenExpired, Message: "SSO token has expired", Status: http.StatusUnauthorized}
}

func NewTokenInvalid() *SSOError {
	return &SSOError{Code: CodeTokenInvalid, Message: "SSO token is malformed or has an invalid signature", Status: http.StatusUnauthorized}
}

func NewPayloadIncomplete() *SSOError {
	return &SSOError{Code: CodePayloadIncomplete, Message: "SSO token payload carries no usable identity", Status: http.StatusUnauthorized}
}

func NewUnresolvableIdentity() *SSOError {
	return &SSOError{Code: CodeUnresolvableIdentity, Message: "no local username could be derived from the SSO identity", Status: http.StatusUnauthorized}
}

func NewMultiTenancyDisabled() *SSOError {
	return &SSOError{Code: CodeMultiTenancyDisabled, Message: "multi-tenant mode is not enabled", Status: http.StatusForbidden}
}

func NewMigrationFailed() *SSOError {
	return &SSOError{Code: CodeMigrationFailed, Message: "failed to migrate legacy SSO account", Status: http.StatusInternalServerError}
}

func NewProvisioningFailed() *SSOError {
	return &SSOError{Code: CodeProvisioningFailed, Message: "failed to provision local account", Status: http.StatusInternalServerError}
}

func NewRoleSyncFailed() *SSOError {
	return &SSOError{Code: CodeRoleSyncFailed, Message: "failed to synchronize local account role", Status: http.StatusInternalServerError}
}

func NewSessionIssuanceFailed() *SSOError {
	return &SSOError{Code: CodeSessionIssuanceFailed, Message: "failed to issue session exchange token", Status: http.StatusInternalServerError}
}

func NewUnexpected() *SSOError {
	return &SSOError{Code: CodeUnexpected, Message: "unexpected error while bridging SSO session", Status: http.StatusInternalServerError}
}

// Classify returns err as an *SSOError, wrapping anything unclassified as
// Unexpected so the HTTP layer can respond exhaustively.
func Classify(err error) *SSOError {
	var ssoErr *SSOError
	if errors.As(err, &ssoErr) {
		return ssoErr
	}
	return NewUnexpected()
}
