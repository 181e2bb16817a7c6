package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("s3cret!", bcrypt.MinCost)
	require.NoError(t, err)

	assert.NotEqual(t, "s3cret!", hash)
	assert.True(t, PasswordMatches(hash, "s3cret!"))
	assert.False(t, PasswordMatches(hash, "s3cret"))
	assert.False(t, PasswordMatches("not-a-hash", "s3cret!"))
	assert.False(t, PasswordMatches("s3cret!", "s3cret!"))
}

func TestHashPassword_Salted(t *testing.T) {
	first, err := HashPassword("same-password", bcrypt.MinCost)
	require.NoError(t, err)
	second, err := HashPassword("same-password", bcrypt.MinCost)
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
}
