package users

import (
	"context"

	"github.com/dmitrijs2005/stallpass/internal/server/models"
)

// Repository is the credential store: attendees keyed by email together
// with the set of stalls each one has visited.
type Repository interface {
	// Create inserts user with an empty visit set; common.ErrorAlreadyExists
	// if the email is taken.
	Create(ctx context.Context, user *models.User) (*models.User, error)
	// GetByEmail returns a copy of the user or common.ErrorNotFound.
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	// RecordVisit adds stallID to the user's visits; common.ErrorAlreadyVisited
	// if it is already there.
	RecordVisit(ctx context.Context, email string, stallID int) error
	HasVisited(ctx context.Context, email string, stallID int) (bool, error)
	ListVisits(ctx context.Context, email string) ([]int, error)
	ClearAllVisits(ctx context.Context) error
	// TopN ranks users by visit count, descending; ties keep signup order.
	TopN(ctx context.Context, n int) ([]models.LeaderboardEntry, error)
	// List returns every user in signup order.
	List(ctx context.Context) ([]*models.User, error)
}
