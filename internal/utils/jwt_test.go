package utils

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndParseJWT(t *testing.T) {
	token, expires, err := GenerateJWT(7, "sess-1", "secret", time.Hour)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expires, 5*time.Second)

	claims, err := ParseJWT(token, "secret")
	require.NoError(t, err)
	assert.Equal(t, uint(7), claims.UserID)
	assert.Equal(t, "sess-1", claims.ID)
}

func TestParseJWTRejectsWrongSecret(t *testing.T) {
	token, _, err := GenerateJWT(7, "sess-1", "secret", time.Hour)
	require.NoError(t, err)

	_, err = ParseJWT(token, "other")
	assert.Error(t, err)
}

func TestParseJWTRejectsExpired(t *testing.T) {
	token, _, err := GenerateJWT(7, "sess-1", "secret", -time.Minute)
	require.NoError(t, err)

	_, err = ParseJWT(token, "secret")
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestParseJWTRejectsMissingSessionID(t *testing.T) {
	token, _, err := GenerateJWT(7, "", "secret", time.Hour)
	require.NoError(t, err)

	_, err = ParseJWT(token, "secret")
	assert.Error(t, err)
}

func TestNilCacheIsNoop(t *testing.T) {
	c := NewCache(nil, time.Minute)
	ctx := context.Background()

	assert.False(t, c.Enabled())
	assert.Equal(t, "", c.UserKey(ctx, 1, "finance"))
	assert.NoError(t, c.Set(ctx, "k", 1))
	assert.NoError(t, c.Invalidate(ctx, 1))
	var out int
	found, err := c.Get(ctx, "k", &out)
	assert.NoError(t, err)
	assert.False(t, found)
}
