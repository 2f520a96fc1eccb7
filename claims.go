package session

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-errors"
)

// TokenClaims is the decoded payload of a bearer credential. Only the fields
// the client needs to classify a rejected credential are modeled; everything
// else stays with the authority.
type TokenClaims struct {
	jwt.RegisteredClaims
	Email string `json:"email,omitempty"`
	// TwoFactorComplete mirrors the authority's claim on partial tokens. A
	// pointer keeps "claim absent" distinguishable from an explicit false.
	TwoFactorComplete *bool `json:"isTwoFactorAuthenticationComplete,omitempty"`
}

// TwoFactorPending reports whether the token was issued mid two-factor
// handshake: the claim is present and explicitly false.
func (c *TokenClaims) TwoFactorPending() bool {
	return c != nil && c.TwoFactorComplete != nil && !*c.TwoFactorComplete
}

// SubjectID returns the principal the token claims to identify.
func (c *TokenClaims) SubjectID() string {
	return c.RegisteredClaims.Subject
}

// InspectToken decodes a credential's payload WITHOUT verifying its
// signature. It is a UX heuristic only, used to tell a two-factor-pending
// credential apart from a fully invalid one after the authority has already
// rejected it. It must never feed an authorization decision; signature
// verification is the authority's responsibility exclusively.
func InspectToken(raw string) (*TokenClaims, error) {
	if raw == "" {
		return nil, ErrClaimDecode
	}

	claims := &TokenClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(raw, claims); err != nil {
		return nil, errors.Wrap(err, ErrClaimDecode.Category, ErrClaimDecode.Message).
			WithTextCode(ErrClaimDecode.TextCode)
	}

	return claims, nil
}
