package auth

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jnst/store-backoffice/internal/model"
)

func testTokenConfig() TokenConfig {
	return TokenConfig{
		Key:      "test-signing-key",
		Issuer:   "store-api",
		Audience: "store-web",
		TTL:      time.Hour,
	}
}

func TestTokenService_RoundTrip(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC))
	tokens := NewTokenServiceWithClock(testTokenConfig(), clock)

	user := &model.User{ID: 42, Email: "jane@example.com", Role: model.RoleSeller}

	issued, err := tokens.CreateToken(user)
	require.NoError(t, err)
	assert.Equal(t, clock.Now().Add(time.Hour), issued.ExpiresAt)

	claims, err := tokens.ParseToken(issued.Token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.UserID())
	assert.Equal(t, "jane@example.com", claims.Email)
	assert.Equal(t, model.RoleSeller, claims.Role)
}

func TestTokenService_RejectsExpiredToken(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC))
	tokens := NewTokenServiceWithClock(testTokenConfig(), clock)

	issued, err := tokens.CreateToken(&model.User{ID: 1, Role: model.RoleSeller})
	require.NoError(t, err)

	clock.Advance(time.Hour + time.Second)

	_, err = tokens.ParseToken(issued.Token)
	require.Error(t, err)
	assert.True(t, IsInvalidToken(err))
	assert.Equal(t, model.KindUnauthorized, model.KindOf(err))
}

func TestTokenService_RejectsForeignTokens(t *testing.T) {
	clock := clockwork.NewFakeClock()
	issuer := NewTokenServiceWithClock(testTokenConfig(), clock)

	issued, err := issuer.CreateToken(&model.User{ID: 1})
	require.NoError(t, err)

	otherKey := testTokenConfig()
	otherKey.Key = "another-key"

	otherAudience := testTokenConfig()
	otherAudience.Audience = "someone-else"

	for name, cfg := range map[string]TokenConfig{"key": otherKey, "audience": otherAudience} {
		t.Run(name, func(t *testing.T) {
			_, err := NewTokenServiceWithClock(cfg, clock).ParseToken(issued.Token)
			assert.True(t, IsInvalidToken(err))
		})
	}

	_, err = issuer.ParseToken("not.a.token")
	assert.True(t, IsInvalidToken(err))
}

func TestBcryptHasher(t *testing.T) {
	hasher := NewBcryptHasher(4)

	hash, err := hasher.Hash("secret")
	require.NoError(t, err)
	assert.NotEqual(t, []byte("secret"), hash)

	ok, err := hasher.Compare(hash, "secret")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = hasher.Compare(hash, "wrong")
	require.NoError(t, err)
	assert.False(t, ok)
}
