package visittokens

import (
	"context"
	"time"

	"github.com/dmitrijs2005/stallpass/internal/server/models"
)

// Repository is the registry of pending, single-use visit tokens.
type Repository interface {
	Create(ctx context.Context, token *models.VisitToken) error
	// Peek validates token for stallID at now without using it up.
	// It fails with common.ErrInvalidVisitToken if the token is unknown,
	// expired or was issued for another stall.
	Peek(ctx context.Context, token string, stallID int, now time.Time) (*models.VisitToken, error)
	// Consume validates like Peek and then removes the token.
	Consume(ctx context.Context, token string, stallID int, now time.Time) (*models.VisitToken, error)
	// Clear drops every pending token.
	Clear(ctx context.Context) error
	// PurgeExpired removes tokens that expired before now and reports how many.
	PurgeExpired(ctx context.Context, now time.Time) (int, error)
}
