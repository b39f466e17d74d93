package common

import (
	"crypto/rand"
	"encoding/base64"
)

// VisitTokenBytes is the entropy of a visit token before encoding.
const VisitTokenBytes = 32

// MakeRandToken returns size random bytes from crypto/rand encoded with
// base64 RawURL, safe to embed in QR codes and URLs.
func MakeRandToken(size int) (string, error) {
	b := make([]byte, size)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
