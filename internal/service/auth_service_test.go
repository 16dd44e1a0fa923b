package service

import (
	"coachdesk/internal/domain"
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuthFixture() (AuthService, *fakeUserRepo) {
	userRepo := newFakeUserRepo()
	return NewAuthService(userRepo, "test-secret", time.Hour), userRepo
}

func registerInput() RegisterInput {
	return RegisterInput{
		Email:     "bo@example.com",
		Password:  "hunter2hunter2",
		Role:      domain.RoleUser,
		FirstName: "Bo",
		LastName:  "Client",
		Username:  "bo",
		Age:       28,
	}
}

func TestRegister(t *testing.T) {
	svc, _ := newAuthFixture()
	ctx := context.Background()

	user, err := svc.Register(ctx, registerInput())
	require.NoError(t, err)
	assert.Equal(t, "bo@example.com", user.Email)
	assert.Equal(t, domain.RoleUser, user.Role)
	assert.Empty(t, user.PasswordHash, "hash never leaves the service")

	t.Run("duplicate email rejected", func(t *testing.T) {
		dup := registerInput()
		dup.Username = "bo2"
		_, err := svc.Register(ctx, dup)
		assert.ErrorIs(t, err, ErrUserAlreadyExists)
	})

	t.Run("duplicate username rejected", func(t *testing.T) {
		dup := registerInput()
		dup.Email = "other@example.com"
		_, err := svc.Register(ctx, dup)
		assert.ErrorIs(t, err, ErrUserAlreadyExists)
	})
}

func TestLogin(t *testing.T) {
	svc, _ := newAuthFixture()
	ctx := context.Background()

	registered, err := svc.Register(ctx, registerInput())
	require.NoError(t, err)

	t.Run("valid credentials", func(t *testing.T) {
		token, user, err := svc.Login(ctx, "bo@example.com", "hunter2hunter2")
		require.NoError(t, err)
		assert.Equal(t, registered.ID, user.ID)
		assert.Empty(t, user.PasswordHash)

		// The token carries the user's ID and role.
		claims := jwt.MapClaims{}
		_, err = jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
			return []byte("test-secret"), nil
		})
		require.NoError(t, err)
		assert.Equal(t, registered.ID.Hex(), claims["uid"])
		assert.Equal(t, string(domain.RoleUser), claims["role"])
	})

	t.Run("wrong password", func(t *testing.T) {
		_, _, err := svc.Login(ctx, "bo@example.com", "wrong-password")
		assert.ErrorIs(t, err, ErrAuthenticationFailed)
	})

	t.Run("unknown email", func(t *testing.T) {
		_, _, err := svc.Login(ctx, "nobody@example.com", "hunter2hunter2")
		assert.ErrorIs(t, err, ErrAuthenticationFailed)
	})
}
