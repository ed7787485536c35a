// AngelaMos | 2026
// security_test.go

package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestPasswordHasher(t *testing.T) {
	h, err := NewPasswordHasher(bcrypt.MinCost)
	require.NoError(t, err)

	hash, err := h.Hash("P@ss1234")
	require.NoError(t, err)
	assert.NotEqual(t, "P@ss1234", hash)

	ok, err := h.Verify("P@ss1234", hash)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = h.Verify("wrong", hash)
	require.NoError(t, err)
	assert.False(t, ok)

	assert.False(t, h.NeedsRehash(hash))
}

func TestPasswordHasherRejectsBadCost(t *testing.T) {
	_, err := NewPasswordHasher(bcrypt.MaxCost + 1)
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestVerifyTimingSafe(t *testing.T) {
	h, err := NewPasswordHasher(bcrypt.MinCost)
	require.NoError(t, err)

	hash, err := h.Hash("P@ss1234")
	require.NoError(t, err)

	assert.True(t, h.VerifyTimingSafe("P@ss1234", &hash))
	assert.False(t, h.VerifyTimingSafe("P@ss1234", nil))

	empty := ""
	assert.False(t, h.VerifyTimingSafe(dummyPassword, &empty))

	garbage := "not-a-bcrypt-hash"
	assert.False(t, h.VerifyTimingSafe("P@ss1234", &garbage))
}

func TestTokenHashing(t *testing.T) {
	token, err := GenerateRefreshToken()
	require.NoError(t, err)

	other, err := GenerateRefreshToken()
	require.NoError(t, err)
	assert.NotEqual(t, token, other)

	hash := HashToken(token)
	assert.Len(t, hash, 64)
	assert.True(t, CompareTokenHash(token, hash))
	assert.False(t, CompareTokenHash(other, hash))
}
