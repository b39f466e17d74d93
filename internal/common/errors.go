// Package common defines shared constants and sentinel errors used across
// the stall passport server. Callers should use errors.Is to match these
// values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound       = errors.New("not found")
	ErrorAlreadyExists  = errors.New("user already exists")
	ErrorAlreadyVisited = errors.New("stall already visited")

	// Service-level errors.
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("invalid credentials")
	ErrorValidation   = errors.New("missing fields")
	ErrorForbidden    = errors.New("email not found in conference registration list")

	// Admin errors.
	ErrorInvalidAdminKey = errors.New("invalid admin key")

	// Session token errors (invalid signature, malformed, wrong algorithm).
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")

	// Visit token errors: absent, expired, or issued for another stall.
	ErrInvalidVisitToken = errors.New("invalid visit token")

	// Transport errors.
	ErrorRateLimited = errors.New("too many requests")
)
