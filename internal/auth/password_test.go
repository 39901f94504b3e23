package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestBcryptHasher_RoundTrip(t *testing.T) {
	t.Parallel()
	h := NewBcryptHasher(bcrypt.MinCost)

	for _, password := range []string{"secret123", "pässwörd", strings.Repeat("x", 60)} {
		hash, err := h.Hash(password)
		require.NoError(t, err)
		assert.NotEqual(t, password, hash)
		assert.True(t, strings.HasPrefix(hash, "$2a$04$"), "hash should encode algorithm and cost: %s", hash)
		assert.True(t, h.Verify(password, hash))
		assert.False(t, h.Verify(password+"!", hash))
		assert.False(t, h.Verify("", hash))
	}
}

func TestBcryptHasher_Salted(t *testing.T) {
	t.Parallel()
	h := NewBcryptHasher(bcrypt.MinCost)

	first, err := h.Hash("secret123")
	require.NoError(t, err)
	second, err := h.Hash("secret123")
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
}

func TestBcryptHasher_EmptyPassword(t *testing.T) {
	t.Parallel()
	_, err := NewBcryptHasher(bcrypt.MinCost).Hash("")
	require.ErrorIs(t, err, ErrEmptyPassword)
}

func TestBcryptHasher_LengthLimit(t *testing.T) {
	t.Parallel()
	h := NewBcryptHasher(bcrypt.MinCost)

	_, err := h.Hash(strings.Repeat("a", MaxPasswordBytes+1))
	require.ErrorIs(t, err, ErrPasswordTooLong)

	// 24 three-byte runes are 72 bytes
	hash, err := h.Hash(strings.Repeat("密", 24))
	require.NoError(t, err)
	assert.True(t, h.Verify(strings.Repeat("密", 24), hash))
}

func TestBcryptHasher_MalformedHashFailsClosed(t *testing.T) {
	t.Parallel()
	h := NewBcryptHasher(bcrypt.MinCost)

	for _, hash := range []string{"", "plaintext", "$2a$04$short", "$2a$99$" + strings.Repeat("a", 53)} {
		assert.False(t, h.Verify("plaintext", hash), "hash %q", hash)
	}
}

func TestNewBcryptHasher_CostBounds(t *testing.T) {
	t.Parallel()
	assert.Equal(t, bcrypt.DefaultCost, NewBcryptHasher(0).cost)
	assert.Equal(t, bcrypt.DefaultCost, NewBcryptHasher(bcrypt.MaxCost+1).cost)
	assert.Equal(t, 12, NewBcryptHasher(12).cost)
}
