package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStateToken_RoundTrip(t *testing.T) {
	m := NewManager("secret", time.Minute)

	token, nonce, err := m.GenerateStateToken()
	require.NoError(t, err)
	require.NotEmpty(t, nonce)

	claims, err := m.ValidateStateToken(token, nonce)
	require.NoError(t, err)
	assert.Equal(t, nonce, claims.Nonce)
}

func TestStateToken_Rejections(t *testing.T) {
	m := NewManager("secret", time.Minute)
	token, nonce, err := m.GenerateStateToken()
	require.NoError(t, err)

	t.Run("nonce mismatch", func(t *testing.T) {
		_, err := m.ValidateStateToken(token, "other")
		assert.Error(t, err)
	})

	t.Run("missing nonce", func(t *testing.T) {
		_, err := m.ValidateStateToken(token, "")
		assert.Error(t, err)
	})

	t.Run("wrong secret", func(t *testing.T) {
		_, err := NewManager("other", time.Minute).ValidateStateToken(token, nonce)
		assert.Error(t, err)
	})

	t.Run("expired", func(t *testing.T) {
		late := NewManager("secret", time.Minute)
		late.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
		_, err := late.ValidateStateToken(token, nonce)
		assert.Error(t, err)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := m.ValidateStateToken("not-a-jwt", nonce)
		assert.Error(t, err)
	})
}
