// Package services contains server-side business logic. UserService
// handles signup gated by the allow-list, login, and session tokens.
package services

import (
	"context"
	"errors"
	"time"

	"github.com/dmitrijs2005/stallpass/internal/common"
	"github.com/dmitrijs2005/stallpass/internal/server/allowlist"
	"github.com/dmitrijs2005/stallpass/internal/server/auth"
	"github.com/dmitrijs2005/stallpass/internal/server/config"
	"github.com/dmitrijs2005/stallpass/internal/server/metrics"
	"github.com/dmitrijs2005/stallpass/internal/server/models"
	"github.com/dmitrijs2005/stallpass/internal/server/repositories/repomanager"
)

// AuthResult is what signup and login hand back to the client.
type AuthResult struct {
	Token string
	Name  string
}

type UserService struct {
	repomanager                  repomanager.RepositoryManager
	allowList                    *allowlist.AllowList
	jwtSecret                    []byte
	sessionTokenValidityDuration time.Duration
	passwordHashCost             int
	metrics                      *metrics.Metrics
	now                          func() time.Time
}

func NewUserService(m repomanager.RepositoryManager, allowList *allowlist.AllowList, cfg *config.Config, mt *metrics.Metrics) *UserService {
	return &UserService{
		repomanager:                  m,
		allowList:                    allowList,
		jwtSecret:                    []byte(cfg.SecretKey),
		sessionTokenValidityDuration: cfg.SessionTokenValidityDuration,
		passwordHashCost:             cfg.PasswordHashCost,
		metrics:                      mt,
		now:                          time.Now,
	}
}

// Signup registers an attendee whose normalized email is on the allow-list
// and returns a session token.
func (s *UserService) Signup(ctx context.Context, name, email, password string) (*AuthResult, error) {
	if name == "" || email == "" || password == "" {
		return nil, common.ErrorValidation
	}

	cleanEmail := allowlist.NormalizeEmail(email)
	if !s.allowList.Contains(cleanEmail) {
		return nil, common.ErrorForbidden
	}

	repo := s.repomanager.Users()

	// cheap pre-check so a duplicate does not pay for bcrypt; Create
	// re-checks under the repository lock
	if _, err := repo.GetByEmail(ctx, cleanEmail); err == nil {
		return nil, common.ErrorAlreadyExists
	} else if !errors.Is(err, common.ErrorNotFound) {
		return nil, common.ErrorInternal
	}

	hash, err := auth.HashPassword(password, s.passwordHashCost)
	if err != nil {
		return nil, common.ErrorInternal
	}

	user, err := repo.Create(ctx, &models.User{Name: name, Email: cleanEmail, PasswordHash: hash})
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return nil, err
		}
		return nil, common.ErrorInternal
	}

	token, err := s.generateSessionToken(user.Email)
	if err != nil {
		return nil, common.ErrorInternal
	}

	s.metrics.Signup()
	return &AuthResult{Token: token, Name: user.Name}, nil
}

// Login checks the password and returns a fresh session token.
//
// The email is looked up exactly as given, without the normalization
// Signup applies, so "Ann@X.com" does not find the account stored as
// "ann@x.com". Clients are expected to send the address as stored.
func (s *UserService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	user, err := s.repomanager.Users().GetByEmail(ctx, email)
	if err != nil {
		s.metrics.Login(false)
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		return nil, common.ErrorInternal
	}

	if err := auth.CheckPassword(user.PasswordHash, password); err != nil {
		s.metrics.Login(false)
		if errors.Is(err, common.ErrorUnauthorized) {
			return nil, err
		}
		return nil, common.ErrorInternal
	}

	token, err := s.generateSessionToken(user.Email)
	if err != nil {
		return nil, common.ErrorInternal
	}

	s.metrics.Login(true)
	return &AuthResult{Token: token, Name: user.Name}, nil
}

// Authenticate resolves a session token to the email of an existing user.
// Tokens that verify but name an unknown user (for instance issued before a
// restart wiped the in-memory store) are rejected as well.
func (s *UserService) Authenticate(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", common.ErrorUnauthorized
	}

	email, err := auth.GetEmailFromToken(token, s.jwtSecret, s.now())
	if err != nil {
		return "", err
	}

	if _, err := s.repomanager.Users().GetByEmail(ctx, email); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return "", common.ErrorUnauthorized
		}
		return "", common.ErrorInternal
	}

	return email, nil
}

func (s *UserService) generateSessionToken(email string) (string, error) {
	return auth.GenerateToken(email, s.jwtSecret, s.now(), s.sessionTokenValidityDuration)
}
