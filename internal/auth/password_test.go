package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("correct-horse-battery")
	require.NoError(t, err)
	assert.NotEqual(t, "correct-horse-battery", hash)

	assert.NoError(t, CheckPassword(hash, "correct-horse-battery"))
	assert.ErrorIs(t, CheckPassword(hash, "wrong-password"), ErrPasswordMismatch)
}

func TestHashPasswordRejectsShort(t *testing.T) {
	_, err := HashPassword("short")
	assert.Error(t, err)
}

func TestCheckPasswordInvalidHash(t *testing.T) {
	err := CheckPassword("not-a-bcrypt-hash", "anything")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrPasswordMismatch)
}

func TestHashesAreSalted(t *testing.T) {
	h1, err := HashPassword("correct-horse-battery")
	require.NoError(t, err)
	h2, err := HashPassword("correct-horse-battery")
	require.NoError(t, err)
	assert.NotEqual(t, h1, h2)
}
