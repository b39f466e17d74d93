package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/stallpass/internal/common"
)

const maxBodyBytes = 1 << 20

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(payload)
}

// decodeJSON reads a JSON object from the request body. An empty body
// decodes as {} so required-field checks report what is missing.
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	if r.Body == nil {
		return nil
	}
	err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

// errorStatus maps service errors onto HTTP statuses and the message
// returned to the client. Unknown errors never leak their text.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, common.ErrorValidation):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, common.ErrorForbidden),
		errors.Is(err, common.ErrorInvalidAdminKey):
		return http.StatusForbidden, err.Error()
	case errors.Is(err, common.ErrorAlreadyExists),
		errors.Is(err, common.ErrorAlreadyVisited):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, common.ErrTokenExpired):
		return http.StatusUnauthorized, err.Error()
	case errors.Is(err, common.ErrInvalidToken):
		return http.StatusUnauthorized, err.Error()
	case errors.Is(err, common.ErrorUnauthorized):
		return http.StatusUnauthorized, err.Error()
	case errors.Is(err, common.ErrInvalidVisitToken):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, common.ErrorRateLimited):
		return http.StatusTooManyRequests, err.Error()
	default:
		return http.StatusInternalServerError, common.ErrorInternal.Error()
	}
}

func bearerToken(header string) string {
	if header == "" {
		return ""
	}
	parts := strings.Fields(header)
	if len(parts) != 2 {
		return ""
	}
	if strings.ToLower(parts[0]) != "bearer" {
		return ""
	}
	return parts[1]
}
