package repomanager

import (
	"context"
	"testing"

	"github.com/dmitrijs2005/stallpass/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryRepositoryManager_ReturnsSameInstances(t *testing.T) {
	m := NewInMemoryRepositoryManager()
	ctx := context.Background()

	_, err := m.Users().Create(ctx, &models.User{Name: "Ann", Email: "ann@x.com"})
	require.NoError(t, err)

	u, err := m.Users().GetByEmail(ctx, "ann@x.com")
	require.NoError(t, err)
	assert.Equal(t, "Ann", u.Name)

	assert.Same(t, m.VisitTokens(), m.VisitTokens())
}

func TestInMemoryRepositoryManager_Isolated(t *testing.T) {
	a := NewInMemoryRepositoryManager()
	b := NewInMemoryRepositoryManager()
	ctx := context.Background()

	_, err := a.Users().Create(ctx, &models.User{Name: "Ann", Email: "ann@x.com"})
	require.NoError(t, err)

	_, err = b.Users().GetByEmail(ctx, "ann@x.com")
	assert.Error(t, err)
}
