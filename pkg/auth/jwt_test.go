package auth

import (
	"testing"
	"time"

	"github.com/asterhq/aster/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenService(t *testing.T) {
	user := &models.User{ID: 7, Login: "ramsey", Role: "admin"}

	t.Run("round trip", func(t *testing.T) {
		svc := NewTokenService("top-secret", time.Hour)

		token, err := svc.Issue(user, "session-1")
		require.NoError(t, err)
		require.NotEmpty(t, token)

		claims, err := svc.Parse(token)
		require.NoError(t, err)
		assert.Equal(t, 7, claims.UserID)
		assert.Equal(t, "ramsey", claims.Login)
		assert.Equal(t, "admin", claims.Role)
		assert.Equal(t, "session-1", claims.SessionID)
	})

	t.Run("rejects token signed with another secret", func(t *testing.T) {
		token, err := NewTokenService("secret-a", time.Hour).Issue(user, "session-1")
		require.NoError(t, err)

		_, err = NewTokenService("secret-b", time.Hour).Parse(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("rejects expired token", func(t *testing.T) {
		svc := NewTokenService("top-secret", -time.Minute)

		token, err := svc.Issue(user, "session-1")
		require.NoError(t, err)

		_, err = svc.Parse(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("rejects garbage", func(t *testing.T) {
		svc := NewTokenService("top-secret", time.Hour)

		_, err := svc.Parse("not-a-token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}
