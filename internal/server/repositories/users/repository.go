// Package users provides the PostgreSQL-backed credential store.
package users

import (
	"context"

	"github.com/maoji/memos-service/internal/server/models"
)

// Repository is the persistence contract for user records.
type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByExternalID(ctx context.Context, externalID string) (*models.User, error)
	Update(ctx context.Context, user *models.User) (*models.User, error)
}
