package token

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"gravizot/internal/model"
)

func TestSignAndVerifyAccess(t *testing.T) {
	codec := NewCodec("test-secret", 15*time.Minute)

	signed, err := codec.SignAccess("user-1", "a@x.com")
	require.NoError(t, err)
	require.NotEmpty(t, signed)

	claims, err := codec.VerifyAccess(signed)
	require.NoError(t, err)
	require.Equal(t, "user-1", claims.UserID)
	require.Equal(t, "a@x.com", claims.Email)
}

func TestVerifyAccessFailuresAreUniform(t *testing.T) {
	codec := NewCodec("test-secret", 15*time.Minute)

	expired := NewCodec("test-secret", -time.Minute)
	expiredToken, err := expired.SignAccess("user-1", "a@x.com")
	require.NoError(t, err)

	otherSecret := NewCodec("other-secret", 15*time.Minute)
	foreignToken, err := otherSecret.SignAccess("user-1", "a@x.com")
	require.NoError(t, err)

	for name, tok := range map[string]string{
		"malformed":       "not-a-jwt",
		"empty":           "",
		"expired":         expiredToken,
		"wrong signature": foreignToken,
	} {
		_, verr := codec.VerifyAccess(tok)
		require.ErrorIs(t, verr, model.ErrUnauthorized, name)
	}
}

func TestNewRefreshTokenEntropyAndHash(t *testing.T) {
	first, err := NewRefreshToken()
	require.NoError(t, err)
	second, err := NewRefreshToken()
	require.NoError(t, err)

	require.NotEqual(t, first, second)
	require.GreaterOrEqual(t, len(first), 64) // 48 bytes base64url

	require.Equal(t, HashRefreshToken(first), HashRefreshToken(first))
	require.NotEqual(t, HashRefreshToken(first), HashRefreshToken(second))
	require.Len(t, HashRefreshToken(first), 64) // hex sha256
}
