package models

import "time"

// VisitToken proves presence at a stall. It is single use and stops being
// accepted once ExpiresAt is in the past.
type VisitToken struct {
	Token     string
	StallID   int
	ExpiresAt time.Time
}

// Expired reports whether the token is no longer usable at now. A token is
// still valid at exactly ExpiresAt.
func (t *VisitToken) Expired(now time.Time) bool {
	return t.ExpiresAt.Before(now)
}
