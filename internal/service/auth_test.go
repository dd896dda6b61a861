package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"deptinbox/backend/internal/auth/jwt"
)

func newAuthService(t *testing.T) *AuthService {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("correct horse"), bcrypt.MinCost)
	require.NoError(t, err)
	tokens := jwt.NewManager("0123456789abcdef0123456789abcdef", "deptinbox", time.Hour)
	return NewAuthService("admin", string(hash), tokens, nil)
}

func TestAuthService_Login(t *testing.T) {
	svc := newAuthService(t)

	t.Run("正确凭据签发令牌", func(t *testing.T) {
		tok, err := svc.Login(" admin ", "correct horse")
		require.NoError(t, err)
		assert.Equal(t, int64(3600), tok.ExpiresIn)

		claims, err := svc.ValidateToken(tok.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, "admin", claims.Username)
	})

	t.Run("密码错误", func(t *testing.T) {
		_, err := svc.Login("admin", "wrong")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("用户名错误", func(t *testing.T) {
		_, err := svc.Login("root", "correct horse")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("未配置密码", func(t *testing.T) {
		disabled := NewAuthService("admin", "", nil, nil)
		assert.False(t, disabled.Enabled())
		_, err := disabled.Login("admin", "x")
		assert.ErrorIs(t, err, ErrAuthDisabled)
	})
}

func TestHashPassword(t *testing.T) {
	hash, err := HashPassword("s3cret")
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("s3cret")))
}
