// AngelaMos | 2026
// security_test.go

package core

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashPassword_NeverPlaintext(t *testing.T) {
	hash, err := HashPassword("s3cret-password")
	require.NoError(t, err)

	assert.NotEqual(t, "s3cret-password", hash)
	assert.True(t, strings.HasPrefix(hash, "$2a$"))

	cost, err := bcrypt.Cost([]byte(hash))
	require.NoError(t, err)
	assert.Equal(t, PasswordCost, cost)
}

func TestHashPassword_SaltVariesPerCall(t *testing.T) {
	first, err := HashPassword("same-password")
	require.NoError(t, err)

	second, err := HashPassword("same-password")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestHashPassword_LimitsBytesNotRunes(t *testing.T) {
	atLimit := strings.Repeat("é", MaxPasswordBytes/2)
	_, err := HashPassword(atLimit)
	require.NoError(t, err)

	_, err = HashPassword(atLimit + "é")
	assert.ErrorIs(t, err, ErrPasswordTooLong)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestVerifyPassword(t *testing.T) {
	hash, err := HashPassword("correct horse")
	require.NoError(t, err)

	ok, err := VerifyPassword("correct horse", hash)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = VerifyPassword("battery staple", hash)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = VerifyPassword("anything", "not-a-bcrypt-hash")
	assert.Error(t, err)
}

func TestVerifyPasswordTimingSafe_MissingHash(t *testing.T) {
	ok, err := VerifyPasswordTimingSafe("dummy_password_for_timing_attack_prevention", nil)
	require.NoError(t, err)
	assert.False(t, ok)

	empty := ""
	ok, err = VerifyPasswordTimingSafe("whatever", &empty)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestVerifyPasswordTimingSafe_RealHash(t *testing.T) {
	hash, err := HashPassword("password123")
	require.NoError(t, err)

	ok, err := VerifyPasswordTimingSafe("password123", &hash)
	require.NoError(t, err)
	assert.True(t, ok)
}
