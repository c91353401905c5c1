package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/isdelr/calculations-api/internal/apperr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

var testSecret = []byte("test-secret-key-that-is-long-enough")

func newTestTokens() *TokenService {
	return NewTokenService(testSecret, 30*time.Minute, "calculations-api")
}

func TestBcryptHasher(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost)

	first, err := h.Hash("pw123")
	require.NoError(t, err)
	second, err := h.Hash("pw123")
	require.NoError(t, err)

	assert.NotEqual(t, first, second, "salt must differ between calls")
	assert.NotContains(t, first, "pw123")
	assert.True(t, h.Verify("pw123", first))
	assert.True(t, h.Verify("pw123", second))
	assert.False(t, h.Verify("pw124", first))
}

func TestBcryptHasher_MalformedHashFailsClosed(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost)
	for _, hash := range []string{"", "not-a-hash", "$2a$04$short", "pw123"} {
		assert.False(t, h.Verify("pw123", hash), hash)
	}
}

func TestBcryptHasher_TooLong(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost)
	_, err := h.Hash(strings.Repeat("x", 73))
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestBcryptHasher_CostFallback(t *testing.T) {
	assert.Equal(t, bcrypt.DefaultCost, NewBcryptHasher(1).cost)
	assert.Equal(t, 12, NewBcryptHasher(12).cost)
}

func TestTokenService_RoundTrip(t *testing.T) {
	svc := newTestTokens()
	before := time.Now()

	token, expiresAt, err := svc.Issue("user-a")
	require.NoError(t, err)
	assert.WithinDuration(t, before.Add(30*time.Minute), expiresAt, 2*time.Second)

	userID, err := svc.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "user-a", userID)
}

func TestTokenService_DistinctUsers(t *testing.T) {
	svc := newTestTokens()
	tokenA, _, err := svc.Issue("user-a")
	require.NoError(t, err)
	tokenB, _, err := svc.Issue("user-b")
	require.NoError(t, err)

	gotA, err := svc.Verify(tokenA)
	require.NoError(t, err)
	gotB, err := svc.Verify(tokenB)
	require.NoError(t, err)
	assert.Equal(t, "user-a", gotA)
	assert.Equal(t, "user-b", gotB)
}

func TestTokenService_IssueRequiresUser(t *testing.T) {
	_, _, err := newTestTokens().Issue("")
	assert.Error(t, err)
}

func TestTokenService_TamperedTokenFails(t *testing.T) {
	svc := newTestTokens()
	token, _, err := svc.Issue("user-a")
	require.NoError(t, err)

	for i := 0; i < len(token); i++ {
		if token[i] == '.' {
			continue
		}
		replacement := byte('A')
		if token[i] == 'A' {
			replacement = 'B'
		}
		tampered := token[:i] + string(replacement) + token[i+1:]

		_, err := svc.Verify(tampered)
		require.Error(t, err, "byte %d", i)
		assert.NotErrorIs(t, err, ErrTokenMissingClaim)
	}
}

func TestTokenService_Expired(t *testing.T) {
	past := time.Now().Add(-time.Hour)
	issuer := newTestTokens().WithClock(func() time.Time { return past })

	token, _, err := issuer.Issue("user-a")
	require.NoError(t, err)

	_, err = newTestTokens().Verify(token)
	assert.ErrorIs(t, err, ErrTokenExpired)

	// The same token is valid for a clock inside its lifetime.
	inside := newTestTokens().WithClock(func() time.Time { return past.Add(10 * time.Minute) })
	userID, err := inside.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "user-a", userID)
}

func TestTokenService_WrongKey(t *testing.T) {
	other := NewTokenService([]byte("another-secret-another-secret-!!"), 30*time.Minute, "calculations-api")
	token, _, err := other.Issue("user-a")
	require.NoError(t, err)

	_, err = newTestTokens().Verify(token)
	assert.ErrorIs(t, err, ErrTokenMalformed)
}

func TestTokenService_WrongIssuer(t *testing.T) {
	other := NewTokenService(testSecret, 30*time.Minute, "someone-else")
	token, _, err := other.Issue("user-a")
	require.NoError(t, err)

	_, err = newTestTokens().Verify(token)
	assert.ErrorIs(t, err, ErrTokenMalformed)
}

func TestTokenService_RejectsOtherAlgorithms(t *testing.T) {
	claims := jwt.RegisteredClaims{
		Subject:   "user-a",
		Issuer:    "calculations-api",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = newTestTokens().Verify(none)
	assert.ErrorIs(t, err, ErrTokenMalformed)

	hs384, err := jwt.NewWithClaims(jwt.SigningMethodHS384, claims).SignedString(testSecret)
	require.NoError(t, err)
	_, err = newTestTokens().Verify(hs384)
	assert.ErrorIs(t, err, ErrTokenMalformed)
}

func TestTokenService_MissingSubject(t *testing.T) {
	claims := jwt.RegisteredClaims{
		Issuer:    "calculations-api",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(testSecret)
	require.NoError(t, err)

	_, err = newTestTokens().Verify(token)
	assert.ErrorIs(t, err, ErrTokenMissingClaim)
}

func TestTokenService_MissingExpiry(t *testing.T) {
	claims := jwt.RegisteredClaims{Subject: "user-a", Issuer: "calculations-api"}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(testSecret)
	require.NoError(t, err)

	_, err = newTestTokens().Verify(token)
	assert.ErrorIs(t, err, ErrTokenMalformed)
}

func TestTokenService_Garbage(t *testing.T) {
	for _, s := range []string{"", "abc", "a.b.c", "Bearer x.y.z"} {
		_, err := newTestTokens().Verify(s)
		assert.ErrorIs(t, err, ErrTokenMalformed, s)
	}
}
