package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simplysydnee/icanswimbeta-sub004/internal/models"
	appErrors "github.com/simplysydnee/icanswimbeta-sub004/pkg/errors"
)

type roleResolverMock struct {
	roles map[string][]models.UserRole
	err   error
}

func (m *roleResolverMock) Roles(_ context.Context, userID string) ([]models.UserRole, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.roles[userID], nil
}

func signToken(t *testing.T, secret, issuer, userID string, expiresAt time.Time, method jwt.SigningMethod) string {
	t.Helper()
	claims := models.JWTClaims{
		UserID: userID,
		Email:  userID + "@example.com",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	signed, err := jwt.NewWithClaims(method, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func TestIdentityValidateToken(t *testing.T) {
	svc := NewIdentityService(&roleResolverMock{}, IdentityConfig{Secret: "secret", Issuer: "swim-auth"}, nil)
	future := time.Now().Add(time.Hour)

	claims, err := svc.ValidateToken(signToken(t, "secret", "swim-auth", "user-1", future, jwt.SigningMethodHS256))
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "user-1@example.com", claims.Email)

	cases := map[string]string{
		"wrong secret": signToken(t, "other", "swim-auth", "user-1", future, jwt.SigningMethodHS256),
		"wrong issuer": signToken(t, "secret", "elsewhere", "user-1", future, jwt.SigningMethodHS256),
		"expired":      signToken(t, "secret", "swim-auth", "user-1", time.Now().Add(-time.Minute), jwt.SigningMethodHS256),
		"missing user": signToken(t, "secret", "swim-auth", "", future, jwt.SigningMethodHS256),
		"wrong method": signToken(t, "secret", "swim-auth", "user-1", future, jwt.SigningMethodHS512),
		"not a jwt":    "garbage",
	}
	for name, token := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.ValidateToken(token)
			requireCode(t, err, appErrors.ErrUnauthorized.Code)
		})
	}
}

func TestIdentityResolveActor(t *testing.T) {
	roles := &roleResolverMock{roles: map[string][]models.UserRole{
		"user-1": {models.RoleParent, "superuser", models.RoleInstructor},
	}}
	svc := NewIdentityService(roles, IdentityConfig{Secret: "secret"}, nil)

	actor, err := svc.ResolveActor(context.Background(), &models.JWTClaims{UserID: "user-1", Email: "a@b.c"})
	require.NoError(t, err)
	assert.Equal(t, "user-1", actor.ID)
	assert.Equal(t, []models.UserRole{models.RoleParent, models.RoleInstructor}, actor.Roles)
	assert.True(t, actor.IsStaff())

	actor, err = svc.ResolveActor(context.Background(), &models.JWTClaims{UserID: "nobody"})
	require.NoError(t, err)
	assert.Empty(t, actor.Roles)
	assert.False(t, actor.HasRole(models.RoleParent))

	roles.err = errors.New("db down")
	_, err = svc.ResolveActor(context.Background(), &models.JWTClaims{UserID: "user-1"})
	requireCode(t, err, appErrors.ErrInternal.Code)
}
