// Package httpapi is the JSON-over-HTTP transport of the stall passport
// server.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/dmitrijs2005/stallpass/internal/common"
	"github.com/dmitrijs2005/stallpass/internal/logging"
	"github.com/dmitrijs2005/stallpass/internal/server/metrics"
	"github.com/dmitrijs2005/stallpass/internal/server/services"
)

const banner = "IRIA Stall Passport Backend Running"

type Handler struct {
	users   *services.UserService
	visits  *services.VisitService
	admin   *services.AdminService
	metrics *metrics.Metrics
	logger  logging.Logger
}

type signupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	Token string `json:"token"`
	Name  string `json:"name"`
}

type visitsResponse struct {
	Visits []int `json:"visits"`
}

type generateRequest struct {
	Stall StallID `json:"stall"`
}

type generateResponse struct {
	Token string `json:"token"`
	Exp   int64  `json:"exp"`
}

type verifyRequest struct {
	Token string  `json:"token"`
	Stall StallID `json:"stall"`
}

type okResponse struct {
	OK bool `json:"ok"`
}

type leaderboardResponse struct {
	Top []leaderboardEntry `json:"top"`
}

type leaderboardEntry struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func NewHandler(users *services.UserService, visits *services.VisitService, admin *services.AdminService, mt *metrics.Metrics, logger logging.Logger) *Handler {
	return &Handler{
		users:   users,
		visits:  visits,
		admin:   admin,
		metrics: mt,
		logger:  logger.With("module", "httpapi"),
	}
}

func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", h.handleRoot)
	mux.HandleFunc("GET /api/health", h.handleHealth)

	mux.HandleFunc("POST /api/signup", h.handleSignup)
	mux.HandleFunc("POST /api/login", h.handleLogin)

	mux.Handle("GET /api/visits", h.requireSession(h.handleVisits))
	mux.Handle("POST /api/generate-visit-token", h.requireSession(h.handleGenerateVisitToken))
	mux.Handle("POST /api/verify", h.requireSession(h.handleVerify))
	mux.HandleFunc("GET /api/leaderboard", h.handleLeaderboard)

	mux.Handle("POST /api/admin/reset", h.requireAdmin(h.handleReset, false))
	mux.Handle("GET /api/admin/export", h.requireAdmin(h.handleExport, true))

	mux.Handle("GET /metrics", h.metrics.Handler())
	return mux
}

// Handler is Routes behind the standard middleware stack. limiter may be
// nil to disable rate limiting.
func (h *Handler) Handler(limiter *RateLimiter) http.Handler {
	next := MetricsMiddleware(h.metrics, h.Routes())
	if limiter != nil {
		next = limiter.Middleware(next)
	}
	next = CORS(next)
	return LoggingMiddleware(h.logger, next)
}

func (h *Handler) handleRoot(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(banner))
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}

	res, err := h.users.Signup(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	h.logger.Info(r.Context(), "user signed up")
	writeJSON(w, http.StatusOK, authResponse{Token: res.Token, Name: res.Name})
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}

	res, err := h.users.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, authResponse{Token: res.Token, Name: res.Name})
}

func (h *Handler) handleVisits(w http.ResponseWriter, r *http.Request) {
	visits, err := h.visits.ListVisits(r.Context(), emailFromContext(r.Context()))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, visitsResponse{Visits: visits})
}

func (h *Handler) handleGenerateVisitToken(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	if req.Stall <= 0 {
		writeError(w, http.StatusBadRequest, "missing stall")
		return
	}

	vt, err := h.visits.GenerateVisitToken(r.Context(), int(req.Stall))
	if err != nil {
		h.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, generateResponse{Token: vt.Token, Exp: vt.ExpiresAt.UnixMilli()})
}

func (h *Handler) handleVerify(w http.ResponseWriter, r *http.Request) {
	var req verifyRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}

	email := emailFromContext(r.Context())
	if err := h.visits.VerifyVisit(r.Context(), email, req.Token, int(req.Stall)); err != nil {
		h.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, okResponse{OK: true})
}

func (h *Handler) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	top, err := h.visits.Leaderboard(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}

	resp := leaderboardResponse{Top: make([]leaderboardEntry, 0, len(top))}
	for _, e := range top {
		resp.Top = append(resp.Top, leaderboardEntry{Name: e.Name, Count: e.Count})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleReset(w http.ResponseWriter, r *http.Request) {
	if err := h.admin.Reset(r.Context()); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, okResponse{OK: true})
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	exp, err := h.admin.Export(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", exp.Filename))
	if exp.ArchiveKey != "" {
		w.Header().Set(common.ExportKeyHeaderName, exp.ArchiveKey)
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(exp.Data)
}

// fail writes the client-facing form of err. Errors that map to 500 are
// logged with their cause.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := errorStatus(err)
	if status == http.StatusInternalServerError {
		h.logger.Error(r.Context(), "request failed", "path", r.URL.Path, "error", err)
	}
	writeError(w, status, msg)
}

type ctxKey int

const emailKey ctxKey = iota

func withEmail(ctx context.Context, email string) context.Context {
	return context.WithValue(ctx, emailKey, email)
}

func emailFromContext(ctx context.Context) string {
	email, _ := ctx.Value(emailKey).(string)
	return email
}

// requireSession resolves the bearer session token to the caller's email
// before running next.
func (h *Handler) requireSession(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get(common.AuthorizationHeaderName)
		if header == "" {
			writeError(w, http.StatusUnauthorized, "no token")
			return
		}

		email, err := h.users.Authenticate(r.Context(), bearerToken(header))
		if err != nil {
			switch {
			case errors.Is(err, common.ErrTokenExpired):
				writeError(w, http.StatusUnauthorized, err.Error())
			case errors.Is(err, common.ErrInvalidToken), errors.Is(err, common.ErrorUnauthorized):
				writeError(w, http.StatusUnauthorized, common.ErrInvalidToken.Error())
			default:
				h.fail(w, r, err)
			}
			return
		}

		next.ServeHTTP(w, r.WithContext(withEmail(r.Context(), email)))
	})
}

// requireAdmin checks the admin key header, and the key query parameter
// as well when allowQuery is set.
func (h *Handler) requireAdmin(next http.HandlerFunc, allowQuery bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Header.Get(common.AdminKeyHeaderName)
		if key == "" && allowQuery {
			key = r.URL.Query().Get(common.AdminKeyQueryParam)
		}

		if err := h.admin.CheckKey(key); err != nil {
			h.logger.Warn(r.Context(), "admin key rejected", "path", r.URL.Path, "remote", clientIP(r, false))
			h.fail(w, r, err)
			return
		}

		next.ServeHTTP(w, r)
	})
}
