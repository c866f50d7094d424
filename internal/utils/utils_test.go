package utils

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTRoundTrip(t *testing.T) {
	token, err := GenerateJWT(42, "ADMIN", "s3cret")
	require.NoError(t, err)

	claims, err := ParseJWT(token, "s3cret")
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.UserID)
	assert.Equal(t, "ADMIN", claims.Role)
	assert.Equal(t, "digicoop", claims.Issuer)

	_, err = ParseJWT(token, "other")
	assert.ErrorIs(t, err, jwt.ErrSignatureInvalid)
}

func TestJWTRejectsExpiredAndUnsignedTokens(t *testing.T) {
	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		UserID:           1,
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute))},
	})
	signed, err := expired.SignedString([]byte("s3cret"))
	require.NoError(t, err)
	_, err = ParseJWT(signed, "s3cret")
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)

	none := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{UserID: 1})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = ParseJWT(unsigned, "s3cret")
	assert.Error(t, err)
}

func TestMemoryCache(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	type page struct{ Total int }
	require.NoError(t, c.Set(ctx, WalletKey(1), page{Total: 3}, time.Minute))
	require.NoError(t, c.Set(ctx, HistoryPrefix(1)+"page:1:size:20", page{Total: 1}, time.Minute))
	require.NoError(t, c.Set(ctx, HistoryPrefix(2)+"page:1:size:20", page{Total: 2}, 0))
	require.NoError(t, c.Set(ctx, "admin:txs:page=1", page{Total: 9}, time.Minute))

	var got page
	found, err := c.Get(ctx, WalletKey(1), &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 3, got.Total)

	InvalidateMember(ctx, c, 1)
	found, _ = c.Get(ctx, WalletKey(1), &got)
	assert.False(t, found)
	found, _ = c.Get(ctx, HistoryPrefix(1)+"page:1:size:20", &got)
	assert.False(t, found)
	found, _ = c.Get(ctx, "admin:txs:page=1", &got)
	assert.False(t, found)
	found, _ = c.Get(ctx, HistoryPrefix(2)+"page:1:size:20", &got)
	assert.True(t, found, "other members keep their pages")

	require.NoError(t, c.Set(ctx, "short", page{}, time.Second))
	now = now.Add(2 * time.Second)
	found, _ = c.Get(ctx, "short", &got)
	assert.False(t, found)
	found, _ = c.Get(ctx, HistoryPrefix(2)+"page:1:size:20", &got)
	assert.True(t, found, "entries without ttl never expire")
}

func TestCacheKeys(t *testing.T) {
	assert.Equal(t, "wallet:user:7", WalletKey(7))
	assert.Equal(t, "txhistory:user:7:", HistoryPrefix(7))
}
