package auth

import (
	"errors"
	"testing"

	"github.com/dmitrijs2005/stallpass/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("p", bcrypt.MinCost)
	require.NoError(t, err)
	assert.NotEqual(t, "p", hash)

	assert.NoError(t, CheckPassword(hash, "p"))
	assert.True(t, errors.Is(CheckPassword(hash, "q"), common.ErrorUnauthorized))
}

func TestHashPassword_OutOfRangeCostFallsBack(t *testing.T) {
	hash, err := HashPassword("p", 99)
	require.NoError(t, err)

	cost, err := bcrypt.Cost([]byte(hash))
	require.NoError(t, err)
	assert.Equal(t, bcrypt.DefaultCost, cost)
}

func TestCheckPassword_GarbageHash(t *testing.T) {
	err := CheckPassword("not-a-hash", "p")
	require.Error(t, err)
	assert.False(t, errors.Is(err, common.ErrorUnauthorized))
}
