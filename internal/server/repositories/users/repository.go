package users

import (
	"context"
	"database/sql"

	"github.com/nprofyr/bwg-auth/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByUserName(ctx context.Context, userName string) (*models.User, error)
	ListUserNames(ctx context.Context) ([]string, error)
	UpdateProfile(ctx context.Context, id int64, userName string, email sql.NullString) (*models.User, error)
	Delete(ctx context.Context, userName string) error
}
