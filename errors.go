package session

import "github.com/goliatone/go-errors"

const (
	TextCodeNoCredential       = "session_no_credential"
	TextCodeCredentialRejected = "session_credential_rejected"
	TextCodeTransientFailure   = "session_transient_failure"
	TextCodeClaimDecode        = "session_claim_decode"
	TextCodeKeyNotFound        = "session_key_not_found"
)

// ErrKeyNotFound is returned by Store implementations for missing keys.
var ErrKeyNotFound = errors.New("key not found", errors.CategoryNotFound).
	WithTextCode(TextCodeKeyNotFound).
	WithCode(errors.CodeNotFound)

// ErrNoCredential is returned when no credential is persisted. This is the
// normal signed-out case, not a failure.
var ErrNoCredential = errors.New("no credential stored", errors.CategoryNotFound).
	WithTextCode(TextCodeNoCredential).
	WithCode(errors.CodeNotFound)

// ErrCredentialRejected is returned when the authority denies the presented
// credential. It may mean full invalidity or an incomplete second factor;
// InspectToken disambiguates the two.
var ErrCredentialRejected = errors.New("credential rejected by authority", errors.CategoryAuth).
	WithTextCode(TextCodeCredentialRejected).
	WithCode(errors.CodeUnauthorized)

// ErrTransientFailure is returned for network and server faults. A transient
// failure must never destroy a potentially valid credential.
var ErrTransientFailure = errors.New("authority temporarily unavailable", errors.CategoryOperation).
	WithTextCode(TextCodeTransientFailure).
	WithCode(errors.CodeInternal)

// ErrClaimDecode is returned when a persisted credential is not JWT shaped.
// Callers treat it conservatively as full invalidity.
var ErrClaimDecode = errors.New("unable to decode credential claims", errors.CategoryValidation).
	WithTextCode(TextCodeClaimDecode).
	WithCode(errors.CodeBadRequest)

// IsUnauthorized reports whether err means the authority denied the credential.
func IsUnauthorized(err error) bool {
	return hasTextCode(err, TextCodeCredentialRejected)
}

// IsTransient reports whether err is retryable without touching the credential.
func IsTransient(err error) bool {
	return hasTextCode(err, TextCodeTransientFailure)
}

// IsNoCredential reports whether err means nothing is stored, the normal
// signed-out case.
func IsNoCredential(err error) bool {
	return hasTextCode(err, TextCodeNoCredential)
}

func hasTextCode(err error, code string) bool {
	if err == nil {
		return false
	}
	var rich *errors.Error
	if errors.As(err, &rich) {
		return rich.TextCode == code
	}
	return false
}
