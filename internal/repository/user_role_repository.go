package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/simplysydnee/icanswimbeta-sub004/internal/models"
)

// UserRoleRepository reads role membership granted by the identity provider.
type UserRoleRepository struct {
	db *sqlx.DB
}

// NewUserRoleRepository constructs the repository.
func NewUserRoleRepository(db *sqlx.DB) *UserRoleRepository {
	return &UserRoleRepository{db: db}
}

// Roles returns the roles held by a user. Unknown users hold none.
func (r *UserRoleRepository) Roles(ctx context.Context, userID string) ([]models.UserRole, error) {
	const query = `SELECT role FROM user_roles WHERE user_id = $1 ORDER BY role`
	var roles []models.UserRole
	if err := r.db.SelectContext(ctx, &roles, query, userID); err != nil {
		return nil, fmt.Errorf("list user roles: %w", err)
	}
	return roles, nil
}
