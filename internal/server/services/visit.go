package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/dmitrijs2005/stallpass/internal/common"
	"github.com/dmitrijs2005/stallpass/internal/logging"
	"github.com/dmitrijs2005/stallpass/internal/server/config"
	"github.com/dmitrijs2005/stallpass/internal/server/metrics"
	"github.com/dmitrijs2005/stallpass/internal/server/models"
	"github.com/dmitrijs2005/stallpass/internal/server/repositories/repomanager"
)

// VisitService issues visit tokens for stalls, redeems them for attendees
// and ranks attendees by visits.
//
// mu serializes every sequence that checks state in one repository and
// then mutates another (verify, reset), so no interleaving can consume a
// token for an already visited stall or resurrect a token across a reset.
type VisitService struct {
	mu                 sync.Mutex
	repomanager        repomanager.RepositoryManager
	visitTokenValidity time.Duration
	logger             logging.Logger
	metrics            *metrics.Metrics
	now                func() time.Time
	newToken           func() (string, error)
}

func NewVisitService(m repomanager.RepositoryManager, cfg *config.Config, logger logging.Logger, mt *metrics.Metrics) *VisitService {
	return &VisitService{
		repomanager:        m,
		visitTokenValidity: cfg.VisitTokenValidityDuration,
		logger:             logger.With("module", "visits"),
		metrics:            mt,
		now:                time.Now,
		newToken: func() (string, error) {
			return common.MakeRandToken(common.VisitTokenBytes)
		},
	}
}

// ListVisits returns the stalls email has visited, ascending.
func (s *VisitService) ListVisits(ctx context.Context, email string) ([]int, error) {
	visits, err := s.repomanager.Users().ListVisits(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		return nil, common.ErrorInternal
	}
	return visits, nil
}

// GenerateVisitToken creates a single-use token for stallID, valid for the
// configured window. Expired tokens left behind are purged on the way.
func (s *VisitService) GenerateVisitToken(ctx context.Context, stallID int) (*models.VisitToken, error) {
	if stallID <= 0 {
		return nil, common.ErrorValidation
	}

	repo := s.repomanager.VisitTokens()
	now := s.now()

	if n, err := repo.PurgeExpired(ctx, now); err == nil && n > 0 {
		s.logger.Debug(ctx, "expired visit tokens purged", "count", n)
	}

	token, err := s.newToken()
	if err != nil {
		return nil, common.ErrorInternal
	}

	vt := &models.VisitToken{Token: token, StallID: stallID, ExpiresAt: now.Add(s.visitTokenValidity)}
	if err := repo.Create(ctx, vt); err != nil {
		s.logger.Error(ctx, "error storing visit token", "error", err)
		return nil, common.ErrorInternal
	}

	s.metrics.VisitTokenIssued()
	s.logger.Info(ctx, "visit token issued", "stall", stallID)
	return vt, nil
}

// VerifyVisit redeems token at stallID for email. An unknown, expired or
// mismatched token fails with common.ErrInvalidVisitToken; a stall the user
// already has fails with common.ErrorAlreadyVisited and leaves the token
// and the user untouched.
func (s *VisitService) VerifyVisit(ctx context.Context, email, token string, stallID int) error {
	if token == "" || stallID <= 0 {
		return common.ErrorValidation
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tokens := s.repomanager.VisitTokens()
	users := s.repomanager.Users()
	now := s.now()

	if _, err := tokens.Peek(ctx, token, stallID, now); err != nil {
		s.metrics.VisitRejected("invalid_token")
		return err
	}

	visited, err := users.HasVisited(ctx, email, stallID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrorUnauthorized
		}
		return common.ErrorInternal
	}
	if visited {
		s.metrics.VisitRejected("already_visited")
		return common.ErrorAlreadyVisited
	}

	if _, err := tokens.Consume(ctx, token, stallID, now); err != nil {
		s.metrics.VisitRejected("invalid_token")
		return err
	}
	if err := users.RecordVisit(ctx, email, stallID); err != nil {
		s.logger.Error(ctx, "error recording visit", "stall", stallID, "error", err)
		return common.ErrorInternal
	}

	s.metrics.VisitRecorded()
	s.logger.Info(ctx, "visit recorded", "stall", stallID)
	return nil
}

// Leaderboard returns the top attendees by visit count.
func (s *VisitService) Leaderboard(ctx context.Context) ([]models.LeaderboardEntry, error) {
	top, err := s.repomanager.Users().TopN(ctx, common.LeaderboardSize)
	if err != nil {
		return nil, common.ErrorInternal
	}
	return top, nil
}

// ResetAll empties every user's visits and drops all pending visit tokens.
func (s *VisitService) ResetAll(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.repomanager.Users().ClearAllVisits(ctx); err != nil {
		return common.ErrorInternal
	}
	if err := s.repomanager.VisitTokens().Clear(ctx); err != nil {
		return common.ErrorInternal
	}
	return nil
}
