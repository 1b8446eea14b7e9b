package authenticating

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/vfg2006/historico-admin-api/internal/config"
	"github.com/vfg2006/historico-admin-api/internal/domain"
	"github.com/vfg2006/historico-admin-api/pkg/apiErrors"
)

func newTestService(cfg config.Auth) *Service {
	if cfg.Secret == "" {
		cfg.Secret = "segredo-de-teste"
	}
	if cfg.TokenTTL == 0 {
		cfg.TokenTTL = time.Hour
	}
	return NewService(cfg).(*Service)
}

func TestLogin(t *testing.T) {
	service := newTestService(config.Auth{Password: "bayer-2024"})

	t.Run("senha incorreta", func(t *testing.T) {
		token, _, err := service.Login("bayer-2023")
		require.Error(t, err)
		assert.Empty(t, token)
		assert.True(t, IsCredentialsError(err))

		var authErr *AuthError
		require.True(t, errors.As(err, &authErr))
		assert.Equal(t, apiErrors.ErrInvalidCredentials, authErr.Code)
	})

	t.Run("senha vazia", func(t *testing.T) {
		_, _, err := service.Login("")
		assert.True(t, IsCredentialsError(err))
	})

	t.Run("senha correta", func(t *testing.T) {
		token, expiresAt, err := service.Login("bayer-2024")
		require.NoError(t, err)
		assert.NotEmpty(t, token)
		assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, 5*time.Second)

		claims, err := service.ValidateToken(token)
		require.NoError(t, err)
		assert.True(t, claims.Authenticated)
		assert.Equal(t, domain.SessionSubject, claims.Subject)
	})
}

func TestLogin_PasswordHash(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("hash-secreto"), bcrypt.MinCost)
	require.NoError(t, err)

	service := newTestService(config.Auth{Password: "ignorada", PasswordHash: string(hash)})

	_, _, err = service.Login("hash-secreto")
	require.NoError(t, err)

	_, _, err = service.Login("ignorada")
	assert.True(t, IsCredentialsError(err))
}

func TestLogin_NoPasswordConfigured(t *testing.T) {
	service := newTestService(config.Auth{})

	_, _, err := service.Login("")
	assert.True(t, IsCredentialsError(err))
}

func TestValidateToken(t *testing.T) {
	service := newTestService(config.Auth{Password: "x"})

	t.Run("ausente", func(t *testing.T) {
		_, err := service.ValidateToken("")
		assert.ErrorIs(t, err, ErrMissingToken)
		assert.True(t, IsTokenError(err))
	})

	t.Run("lixo", func(t *testing.T) {
		_, err := service.ValidateToken("nao.e.jwt")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("outro segredo", func(t *testing.T) {
		other := newTestService(config.Auth{Password: "x", Secret: "outro"})
		token, _, err := other.Login("x")
		require.NoError(t, err)

		_, err = service.ValidateToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("expirado", func(t *testing.T) {
		past := newTestService(config.Auth{Password: "x"})
		past.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
		token, _, err := past.Login("x")
		require.NoError(t, err)

		_, err = service.ValidateToken(token)
		assert.ErrorIs(t, err, ErrExpiredToken)
	})

	t.Run("algoritmo none", func(t *testing.T) {
		claims := &domain.Claims{
			Authenticated: true,
			RegisteredClaims: jwt.RegisteredClaims{
				Subject:   domain.SessionSubject,
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
		}
		token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		_, err = service.ValidateToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}
