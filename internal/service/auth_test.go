package service_test

import (
	"testing"
	"time"

	"mitanda/config"
	"mitanda/internal/auth"
	"mitanda/internal/domain"
	"mitanda/internal/repository"
	"mitanda/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func authConfig() *config.Config {
	cfg := &config.Config{}
	cfg.JWT.AccessSecret = "access-secret"
	cfg.JWT.RefreshSecret = "refresh-secret"
	cfg.JWT.AccessExpiry = 15 * time.Minute
	cfg.JWT.RefreshExpiry = 24 * time.Hour
	cfg.JWT.Issuer = "mitanda-test"
	return cfg
}

func newAuth(db *gorm.DB, cfg *config.Config) *service.AuthService {
	return service.NewAuthService(cfg, repository.NewUserRepository(db))
}

func TestAuthService(t *testing.T) {
	t.Run("register issues tokens and assigns the customer role", func(t *testing.T) {
		db := newTestDB(t)
		cfg := authConfig()
		svc := newAuth(db, cfg)

		u, access, refresh, err := svc.Register("María", "maria@test.mx", "secreto123", "5512345678")
		require.NoError(t, err)
		assert.Equal(t, domain.RoleCliente, u.Role)
		assert.NotEmpty(t, access)
		assert.NotEmpty(t, refresh)

		claims, err := auth.ParseAccessToken(&cfg.JWT, access)
		require.NoError(t, err)
		assert.Equal(t, u.ID, claims.UserID)
		assert.Equal(t, domain.RoleCliente, claims.Role)
	})

	t.Run("duplicate email is rejected", func(t *testing.T) {
		db := newTestDB(t)
		svc := newAuth(db, authConfig())

		_, _, _, err := svc.Register("A", "dup@test.mx", "secreto123", "")
		require.NoError(t, err)
		_, _, _, err = svc.Register("B", "dup@test.mx", "secreto123", "")
		assert.ErrorIs(t, err, service.ErrEmailExists)
	})

	t.Run("login verifies the password", func(t *testing.T) {
		db := newTestDB(t)
		svc := newAuth(db, authConfig())
		_, _, _, err := svc.Register("María", "maria@test.mx", "secreto123", "")
		require.NoError(t, err)

		u, access, _, err := svc.Login("maria@test.mx", "secreto123")
		require.NoError(t, err)
		assert.Equal(t, "maria@test.mx", u.Email)
		assert.NotEmpty(t, access)

		_, _, _, err = svc.Login("maria@test.mx", "otra")
		assert.ErrorIs(t, err, service.ErrInvalidCreds)

		_, _, _, err = svc.Login("nadie@test.mx", "secreto123")
		assert.ErrorIs(t, err, service.ErrInvalidCreds)
	})

	t.Run("refresh rotates the token pair", func(t *testing.T) {
		db := newTestDB(t)
		cfg := authConfig()
		svc := newAuth(db, cfg)
		u, _, refresh, err := svc.Register("Luis", "luis@test.mx", "secreto123", "")
		require.NoError(t, err)

		access2, refresh2, err := svc.Refresh(refresh)
		require.NoError(t, err)
		assert.NotEmpty(t, refresh2)

		claims, err := auth.ParseAccessToken(&cfg.JWT, access2)
		require.NoError(t, err)
		assert.Equal(t, u.ID, claims.UserID)
	})

	t.Run("refresh rejects garbage tokens", func(t *testing.T) {
		db := newTestDB(t)
		svc := newAuth(db, authConfig())
		_, _, err := svc.Refresh("no-es-un-token")
		assert.ErrorIs(t, err, auth.ErrInvalidToken)
	})
}
