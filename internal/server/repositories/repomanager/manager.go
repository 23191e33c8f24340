package repomanager

import (
	"context"
	"database/sql"

	"github.com/nprofyr/bwg-auth/internal/dbx"
	"github.com/nprofyr/bwg-auth/internal/server/repositories/users"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
}
