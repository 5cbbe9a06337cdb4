package service

import (
	"context"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/simplysydnee/icanswimbeta-sub004/internal/models"
	appErrors "github.com/simplysydnee/icanswimbeta-sub004/pkg/errors"
)

// RoleResolver returns the roles held by a user.
type RoleResolver interface {
	Roles(ctx context.Context, userID string) ([]models.UserRole, error)
}

// IdentityConfig holds the verification settings for access tokens.
type IdentityConfig struct {
	Secret string
	Issuer string
}

// IdentityService verifies tokens issued by the identity provider and resolves roles.
type IdentityService struct {
	roles  RoleResolver
	config IdentityConfig
	logger *zap.Logger
}

// NewIdentityService constructs IdentityService.
func NewIdentityService(roles RoleResolver, config IdentityConfig, logger *zap.Logger) *IdentityService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IdentityService{roles: roles, config: config, logger: logger}
}

// ValidateToken parses and validates an access token returning the claims.
func (s *IdentityService) ValidateToken(tokenString string) (*models.JWTClaims, error) {
	options := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if s.config.Issuer != "" {
		options = append(options, jwt.WithIssuer(s.config.Issuer))
	}
	token, err := jwt.ParseWithClaims(tokenString, &models.JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.Secret), nil
	}, options...)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid token")
	}

	claims, ok := token.Claims.(*models.JWTClaims)
	if !ok || !token.Valid || claims.UserID == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token claims")
	}
	return claims, nil
}

// ResolveActor loads the roles for the token subject.
func (s *IdentityService) ResolveActor(ctx context.Context, claims *models.JWTClaims) (*models.Actor, error) {
	roles, err := s.roles.Roles(ctx, claims.UserID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve roles")
	}
	valid := make([]models.UserRole, 0, len(roles))
	for _, role := range roles {
		if role.Valid() {
			valid = append(valid, role)
			continue
		}
		s.logger.Warn("ignoring unknown role", zap.String("user_id", claims.UserID), zap.String("role", string(role)))
	}
	return &models.Actor{ID: claims.UserID, Email: claims.Email, Roles: valid}, nil
}
