package common

import "time"

const (
	// AuthorizationHeaderName carries "Bearer <session token>".
	AuthorizationHeaderName = "Authorization"

	// AdminKeyHeaderName carries the shared admin secret.
	AdminKeyHeaderName = "admin-key"

	// AdminKeyQueryParam is accepted instead of the header on export only,
	// so the CSV can be downloaded from a plain browser link.
	AdminKeyQueryParam = "key"

	// ExportKeyHeaderName is set on export responses that were archived to
	// object storage.
	ExportKeyHeaderName = "X-Export-Key"

	// RequestIDHeaderName is echoed back on every response.
	RequestIDHeaderName = "X-Request-ID"
)

const (
	DefaultSessionTokenValidity = 7 * 24 * time.Hour
	DefaultVisitTokenValidity   = 2 * time.Minute
	LeaderboardSize             = 10
)
