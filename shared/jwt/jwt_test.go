package jwt

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	internal_errors "github.com/wam-dev/threads/shared/errors"
)

func TestTokenRoundTrip(t *testing.T) {
	j := New("secret", time.Hour)

	token, err := j.NewToken("user_2abc")
	require.NoError(t, err)

	identity, err := j.DecodeToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user_2abc", identity)
}

func TestDecodeToken_Rejects(t *testing.T) {
	issuer := New("secret", time.Hour)

	t.Run("wrong key", func(t *testing.T) {
		token, err := issuer.NewToken("user_1")
		require.NoError(t, err)

		_, err = New("other", time.Hour).DecodeToken(token)
		assert.Equal(t, http.StatusUnauthorized, internal_errors.StatusCode(err))
	})

	t.Run("expired", func(t *testing.T) {
		token, err := New("secret", -time.Minute).NewToken("user_1")
		require.NoError(t, err)

		_, err = issuer.DecodeToken(token)
		assert.Equal(t, http.StatusUnauthorized, internal_errors.StatusCode(err))
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := issuer.DecodeToken("not-a-jwt")
		assert.Error(t, err)
	})

	t.Run("empty subject", func(t *testing.T) {
		token, err := issuer.NewToken("")
		require.NoError(t, err)

		_, err = issuer.DecodeToken(token)
		assert.Equal(t, http.StatusUnauthorized, internal_errors.StatusCode(err))
	})
}
