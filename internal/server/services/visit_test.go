package services

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/stallpass/internal/common"
	"github.com/dmitrijs2005/stallpass/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateVisitToken(t *testing.T) {
	f := newFixture(t)

	vt, err := f.visits.GenerateVisitToken(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, 5, vt.StallID)
	assert.Equal(t, f.clock.Now().Add(2*time.Minute), vt.ExpiresAt)
	assert.Len(t, vt.Token, 43)

	other, err := f.visits.GenerateVisitToken(context.Background(), 5)
	require.NoError(t, err)
	assert.NotEqual(t, vt.Token, other.Token)
}

func TestGenerateVisitToken_InvalidStall(t *testing.T) {
	f := newFixture(t)

	for _, id := range []int{0, -3} {
		_, err := f.visits.GenerateVisitToken(context.Background(), id)
		assert.ErrorIs(t, err, common.ErrorValidation)
	}
}

func TestGenerateVisitToken_PurgesExpired(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.visits.GenerateVisitToken(ctx, 1)
	require.NoError(t, err)
	_, err = f.visits.GenerateVisitToken(ctx, 2)
	require.NoError(t, err)

	f.clock.Advance(3 * time.Minute)
	_, err = f.visits.GenerateVisitToken(ctx, 3)
	require.NoError(t, err)

	// the two stale tokens are already gone; only the fresh one remains
	n, err := f.rm.VisitTokens().PurgeExpired(ctx, f.clock.Now())
	require.NoError(t, err)
	assert.Zero(t, n)
	n, err = f.rm.VisitTokens().PurgeExpired(ctx, f.clock.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestVerifyVisit_SingleUse(t *testing.T) {
	f := newFixture(t, "ann@x.com", "bob@x.com")
	f.visits.newToken = sequentialTokens()
	f.signup(t, "Ann", "ann@x.com")
	f.signup(t, "Bob", "bob@x.com")
	ctx := context.Background()

	vt, err := f.visits.GenerateVisitToken(ctx, 3)
	require.NoError(t, err)

	require.NoError(t, f.visits.VerifyVisit(ctx, "ann@x.com", vt.Token, 3))

	visits, err := f.visits.ListVisits(ctx, "ann@x.com")
	require.NoError(t, err)
	assert.Equal(t, []int{3}, visits)

	err = f.visits.VerifyVisit(ctx, "bob@x.com", vt.Token, 3)
	assert.ErrorIs(t, err, common.ErrInvalidVisitToken)
}

func TestVerifyVisit_Rejections(t *testing.T) {
	f := newFixture(t, "ann@x.com")
	f.visits.newToken = sequentialTokens()
	f.signup(t, "Ann", "ann@x.com")
	ctx := context.Background()

	vt, err := f.visits.GenerateVisitToken(ctx, 3)
	require.NoError(t, err)

	tests := []struct {
		name    string
		token   string
		stallID int
		want    error
	}{
		{"empty token", "", 3, common.ErrorValidation},
		{"no stall", vt.Token, 0, common.ErrorValidation},
		{"unknown token", "nope", 3, common.ErrInvalidVisitToken},
		{"other stall", vt.Token, 4, common.ErrInvalidVisitToken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := f.visits.VerifyVisit(ctx, "ann@x.com", tt.token, tt.stallID)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	// none of the failures above spent the token
	require.NoError(t, f.visits.VerifyVisit(ctx, "ann@x.com", vt.Token, 3))
}

func TestVerifyVisit_Expiry(t *testing.T) {
	f := newFixture(t, "ann@x.com")
	f.signup(t, "Ann", "ann@x.com")
	ctx := context.Background()

	edge, err := f.visits.GenerateVisitToken(ctx, 1)
	require.NoError(t, err)
	late, err := f.visits.GenerateVisitToken(ctx, 2)
	require.NoError(t, err)

	f.clock.Advance(2 * time.Minute)
	assert.NoError(t, f.visits.VerifyVisit(ctx, "ann@x.com", edge.Token, 1))

	f.clock.Advance(time.Second)
	err = f.visits.VerifyVisit(ctx, "ann@x.com", late.Token, 2)
	assert.ErrorIs(t, err, common.ErrInvalidVisitToken)
}

func TestVerifyVisit_AlreadyVisitedKeepsToken(t *testing.T) {
	f := newFixture(t, "ann@x.com", "bob@x.com")
	f.signup(t, "Ann", "ann@x.com")
	f.signup(t, "Bob", "bob@x.com")
	ctx := context.Background()

	first, err := f.visits.GenerateVisitToken(ctx, 7)
	require.NoError(t, err)
	require.NoError(t, f.visits.VerifyVisit(ctx, "ann@x.com", first.Token, 7))

	second, err := f.visits.GenerateVisitToken(ctx, 7)
	require.NoError(t, err)
	err = f.visits.VerifyVisit(ctx, "ann@x.com", second.Token, 7)
	assert.ErrorIs(t, err, common.ErrorAlreadyVisited)

	visits, err := f.visits.ListVisits(ctx, "ann@x.com")
	require.NoError(t, err)
	assert.Equal(t, []int{7}, visits)

	// the rejected token is still good for someone else
	require.NoError(t, f.visits.VerifyVisit(ctx, "bob@x.com", second.Token, 7))
}

func TestVerifyVisit_UnknownUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	vt, err := f.visits.GenerateVisitToken(ctx, 1)
	require.NoError(t, err)

	err = f.visits.VerifyVisit(ctx, "ghost@x.com", vt.Token, 1)
	assert.ErrorIs(t, err, common.ErrorUnauthorized)
}

func TestVerifyVisit_ConcurrentRedeemers(t *testing.T) {
	const attendees = 20

	emails := make([]string, attendees)
	for i := range emails {
		emails[i] = fmt.Sprintf("u%d@x.com", i)
	}
	f := newFixture(t, emails...)
	for _, e := range emails {
		f.signup(t, e, e)
	}
	ctx := context.Background()

	vt, err := f.visits.GenerateVisitToken(ctx, 9)
	require.NoError(t, err)

	var wg sync.WaitGroup
	var mu sync.Mutex
	ok := 0
	for _, e := range emails {
		wg.Add(1)
		go func(email string) {
			defer wg.Done()
			if f.visits.VerifyVisit(ctx, email, vt.Token, 9) == nil {
				mu.Lock()
				ok++
				mu.Unlock()
			}
		}(e)
	}
	wg.Wait()

	assert.Equal(t, 1, ok)
}

func TestListVisits(t *testing.T) {
	f := newFixture(t, "ann@x.com")
	f.signup(t, "Ann", "ann@x.com")
	ctx := context.Background()

	visits, err := f.visits.ListVisits(ctx, "ann@x.com")
	require.NoError(t, err)
	assert.Empty(t, visits)

	for _, id := range []int{9, 2, 5} {
		vt, err := f.visits.GenerateVisitToken(ctx, id)
		require.NoError(t, err)
		require.NoError(t, f.visits.VerifyVisit(ctx, "ann@x.com", vt.Token, id))
	}

	visits, err = f.visits.ListVisits(ctx, "ann@x.com")
	require.NoError(t, err)
	assert.Equal(t, []int{2, 5, 9}, visits)

	_, err = f.visits.ListVisits(ctx, "ghost@x.com")
	assert.ErrorIs(t, err, common.ErrorUnauthorized)
}

func TestLeaderboard(t *testing.T) {
	const attendees = 12

	emails := make([]string, attendees)
	for i := range emails {
		emails[i] = fmt.Sprintf("u%02d@x.com", i)
	}
	f := newFixture(t, emails...)
	ctx := context.Background()

	for i, e := range emails {
		f.signup(t, fmt.Sprintf("User %02d", i), e)
		// user i visits i stalls
		for stall := 1; stall <= i; stall++ {
			vt, err := f.visits.GenerateVisitToken(ctx, stall)
			require.NoError(t, err)
			require.NoError(t, f.visits.VerifyVisit(ctx, e, vt.Token, stall))
		}
	}

	top, err := f.visits.Leaderboard(ctx)
	require.NoError(t, err)
	require.Len(t, top, common.LeaderboardSize)

	assert.Equal(t, "User 11", top[0].Name)
	assert.Equal(t, 11, top[0].Count)
	assert.Equal(t, "User 02", top[9].Name)
	for i := 1; i < len(top); i++ {
		assert.GreaterOrEqual(t, top[i-1].Count, top[i].Count)
	}
}

func TestLeaderboard_Empty(t *testing.T) {
	f := newFixture(t)

	top, err := f.visits.Leaderboard(context.Background())
	require.NoError(t, err)
	assert.Empty(t, top)
}

func TestResetAll(t *testing.T) {
	f := newFixture(t, "ann@x.com")
	f.signup(t, "Ann", "ann@x.com")
	ctx := context.Background()

	vt, err := f.visits.GenerateVisitToken(ctx, 1)
	require.NoError(t, err)
	require.NoError(t, f.visits.VerifyVisit(ctx, "ann@x.com", vt.Token, 1))
	pending, err := f.visits.GenerateVisitToken(ctx, 2)
	require.NoError(t, err)

	require.NoError(t, f.visits.ResetAll(ctx))

	visits, err := f.visits.ListVisits(ctx, "ann@x.com")
	require.NoError(t, err)
	assert.Empty(t, visits)

	err = f.visits.VerifyVisit(ctx, "ann@x.com", pending.Token, 2)
	assert.ErrorIs(t, err, common.ErrInvalidVisitToken)

	// accounts survive a reset
	_, err = f.users.Login(ctx, "ann@x.com", "p")
	assert.NoError(t, err)
}

func TestVerifyVisit_LogsWithoutEmail(t *testing.T) {
	f := newFixture(t, "ann@x.com")
	f.signup(t, "Ann", "ann@x.com")
	var buf bytes.Buffer
	f.visits.logger = logging.NewJSON(&buf, "debug")
	ctx := context.Background()

	vt, err := f.visits.GenerateVisitToken(ctx, 6)
	require.NoError(t, err)
	require.NoError(t, f.visits.VerifyVisit(ctx, "ann@x.com", vt.Token, 6))

	assert.Contains(t, buf.String(), "visit recorded")
	assert.NotContains(t, buf.String(), "ann@x.com")
}
