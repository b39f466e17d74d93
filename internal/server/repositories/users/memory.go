package users

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/dmitrijs2005/stallpass/internal/common"
	"github.com/dmitrijs2005/stallpass/internal/server/models"
)

// InMemoryRepository keeps users in process memory. order remembers signup
// order for stable leaderboard ties and exports.
type InMemoryRepository struct {
	mu    sync.RWMutex
	users map[string]*models.User
	order []string
	now   func() time.Time
}

func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		users: make(map[string]*models.User),
		now:   time.Now,
	}
}

func (r *InMemoryRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[user.Email]; ok {
		return nil, common.ErrorAlreadyExists
	}

	stored := &models.User{
		Name:         user.Name,
		Email:        user.Email,
		PasswordHash: user.PasswordHash,
		Visits:       make(map[int]struct{}),
		CreatedAt:    r.now(),
	}
	r.users[stored.Email] = stored
	r.order = append(r.order, stored.Email)

	return stored.Clone(), nil
}

func (r *InMemoryRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[email]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return u.Clone(), nil
}

func (r *InMemoryRepository) RecordVisit(ctx context.Context, email string, stallID int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[email]
	if !ok {
		return common.ErrorNotFound
	}
	if _, visited := u.Visits[stallID]; visited {
		return common.ErrorAlreadyVisited
	}
	u.Visits[stallID] = struct{}{}
	return nil
}

func (r *InMemoryRepository) HasVisited(ctx context.Context, email string, stallID int) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[email]
	if !ok {
		return false, common.ErrorNotFound
	}
	_, visited := u.Visits[stallID]
	return visited, nil
}

func (r *InMemoryRepository) ListVisits(ctx context.Context, email string) ([]int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[email]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return u.VisitedStalls(), nil
}

func (r *InMemoryRepository) ClearAllVisits(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		u.Visits = make(map[int]struct{})
	}
	return nil
}

func (r *InMemoryRepository) TopN(ctx context.Context, n int) ([]models.LeaderboardEntry, error) {
	r.mu.RLock()
	entries := make([]models.LeaderboardEntry, 0, len(r.order))
	for _, email := range r.order {
		u := r.users[email]
		entries = append(entries, models.LeaderboardEntry{Name: u.Name, Count: u.VisitCount()})
	}
	r.mu.RUnlock()

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Count > entries[j].Count
	})

	if n < 0 {
		n = 0
	}
	if len(entries) > n {
		entries = entries[:n]
	}
	return entries, nil
}

func (r *InMemoryRepository) List(ctx context.Context) ([]*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*models.User, 0, len(r.order))
	for _, email := range r.order {
		out = append(out, r.users[email].Clone())
	}
	return out, nil
}
