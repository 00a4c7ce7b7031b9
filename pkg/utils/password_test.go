package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("hunter2", bcrypt.MinCost)
	require.NoError(t, err)

	assert.NotEqual(t, "hunter2", hash)
	assert.True(t, strings.HasPrefix(hash, "$2"), "expected a bcrypt hash, got %q", hash)

	assert.True(t, CheckPassword("hunter2", hash))
	assert.False(t, CheckPassword("wrong", hash))
	assert.False(t, CheckPassword("hunter2", "not-a-hash"))
}

func TestHashPasswordUniqueSalts(t *testing.T) {
	h1, err := HashPassword("hunter2", bcrypt.MinCost)
	require.NoError(t, err)
	h2, err := HashPassword("hunter2", bcrypt.MinCost)
	require.NoError(t, err)

	assert.NotEqual(t, h1, h2)
}
