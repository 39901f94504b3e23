package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T, secret string) *TokenManager {
	t.Helper()
	m, err := NewTokenManager(TokenConfig{Secret: secret, TTL: time.Hour, Issuer: "shop-api"})
	require.NoError(t, err)
	return m
}

func TestTokenManager_IssueAndVerify(t *testing.T) {
	t.Parallel()
	m := newTestManager(t, "super-secret")

	tok, expiresAt, err := m.Issue(42)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, 2*time.Second)

	id, err := m.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)
}

func TestTokenManager_Expired(t *testing.T) {
	t.Parallel()
	m := newTestManager(t, "super-secret")

	issuedAt := time.Now()
	m.now = func() time.Time { return issuedAt }
	tok, _, err := m.Issue(7)
	require.NoError(t, err)

	m.now = func() time.Time { return issuedAt.Add(59 * time.Minute) }
	_, err = m.Verify(tok)
	require.NoError(t, err)

	m.now = func() time.Time { return issuedAt.Add(time.Hour + time.Second) }
	_, err = m.Verify(tok)
	require.ErrorIs(t, err, ErrTokenExpired)
}

func TestTokenManager_WrongSecret(t *testing.T) {
	t.Parallel()
	tok, _, err := newTestManager(t, "right-secret").Issue(1)
	require.NoError(t, err)

	_, err = newTestManager(t, "wrong-secret").Verify(tok)
	require.ErrorIs(t, err, ErrTokenSignatureInvalid)
}

func TestTokenManager_Tampered(t *testing.T) {
	t.Parallel()
	m := newTestManager(t, "super-secret")
	tok, _, err := m.Issue(1)
	require.NoError(t, err)

	other, _, err := m.Issue(2)
	require.NoError(t, err)

	// payload of token 2 with signature of token 1
	parts, otherParts := strings.Split(tok, "."), strings.Split(other, ".")
	forged := strings.Join([]string{parts[0], otherParts[1], parts[2]}, ".")
	_, err = m.Verify(forged)
	require.ErrorIs(t, err, ErrTokenSignatureInvalid)
}

func TestTokenManager_Malformed(t *testing.T) {
	t.Parallel()
	m := newTestManager(t, "super-secret")

	for _, tok := range []string{"", "not.a.jwt", "abc", "a.b.c.d"} {
		_, err := m.Verify(tok)
		require.ErrorIs(t, err, ErrTokenMalformed, "token %q", tok)
	}
}

func TestTokenManager_RejectsOtherAlgorithms(t *testing.T) {
	t.Parallel()
	m := newTestManager(t, "super-secret")

	claims := jwt.RegisteredClaims{
		Issuer:    "shop-api",
		Subject:   "1",
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}
	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte("super-secret"))
	require.NoError(t, err)
	_, err = m.Verify(hs512)
	require.ErrorIs(t, err, ErrTokenSignatureInvalid)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = m.Verify(none)
	require.Error(t, err)
}

func TestTokenManager_RequiresExpiryAndSubject(t *testing.T) {
	t.Parallel()
	m := newTestManager(t, "super-secret")

	noExp, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Issuer:  "shop-api",
		Subject: "1",
	}).SignedString([]byte("super-secret"))
	require.NoError(t, err)
	_, err = m.Verify(noExp)
	require.Error(t, err)

	badSubject, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Issuer:    "shop-api",
		Subject:   "ann",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte("super-secret"))
	require.NoError(t, err)
	_, err = m.Verify(badSubject)
	require.ErrorIs(t, err, ErrTokenMalformed)
}

func TestNewTokenManager_Config(t *testing.T) {
	t.Parallel()

	_, err := NewTokenManager(TokenConfig{})
	require.ErrorIs(t, err, ErrMissingSecret)

	_, err = NewTokenManager(TokenConfig{Secret: "short", MinSecretLength: 32})
	require.ErrorIs(t, err, ErrWeakSecret)

	m, err := NewTokenManager(TokenConfig{Secret: "short"})
	require.NoError(t, err)
	assert.Equal(t, DefaultTokenTTL, m.TTL())
}

func TestOwns(t *testing.T) {
	t.Parallel()
	assert.True(t, Owns(3, 3))
	assert.False(t, Owns(3, 4))
	assert.False(t, Owns(0, 0))
}
