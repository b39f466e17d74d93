// Package visittokens stores the short-lived tokens stall staff generate
// and attendees redeem.
package visittokens

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/stallpass/internal/common"
	"github.com/dmitrijs2005/stallpass/internal/server/models"
)

type InMemoryRepository struct {
	mu     sync.Mutex
	tokens map[string]models.VisitToken
}

func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{tokens: make(map[string]models.VisitToken)}
}

func (r *InMemoryRepository) Create(ctx context.Context, token *models.VisitToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tokens[token.Token]; exists {
		return fmt.Errorf("visit token collision: %w", common.ErrorAlreadyExists)
	}
	r.tokens[token.Token] = *token
	return nil
}

func (r *InMemoryRepository) Peek(ctx context.Context, token string, stallID int, now time.Time) (*models.VisitToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.lookup(token, stallID, now)
}

func (r *InMemoryRepository) Consume(ctx context.Context, token string, stallID int, now time.Time) (*models.VisitToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, err := r.lookup(token, stallID, now)
	if err != nil {
		return nil, err
	}
	delete(r.tokens, token)
	return t, nil
}

// lookup expects r.mu to be held.
func (r *InMemoryRepository) lookup(token string, stallID int, now time.Time) (*models.VisitToken, error) {
	t, ok := r.tokens[token]
	if !ok || t.Expired(now) || t.StallID != stallID {
		return nil, common.ErrInvalidVisitToken
	}
	return &t, nil
}

func (r *InMemoryRepository) Clear(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.tokens = make(map[string]models.VisitToken)
	return nil
}

func (r *InMemoryRepository) PurgeExpired(ctx context.Context, now time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	purged := 0
	for k, t := range r.tokens {
		if t.Expired(now) {
			delete(r.tokens, k)
			purged++
		}
	}
	return purged, nil
}

// size is the number of pending tokens, expired ones included.
func (r *InMemoryRepository) size() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.tokens)
}
