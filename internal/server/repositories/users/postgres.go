// Package users provides a PostgreSQL-backed repository for account records.
package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/nprofyr/bwg-auth/internal/common"
	"github.com/nprofyr/bwg-auth/internal/dbx"
	"github.com/nprofyr/bwg-auth/internal/server/models"
)

// PostgresRepository implements Repository over dbx.DBTX
// (satisfied by *sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// isUniqueViolation reports whether err is a PostgreSQL unique constraint
// violation. The constraint, not an application-level check, is what
// guarantees exactly one winner for concurrent registrations.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}

// Create inserts a new user row. A username/email collision surfaces as
// common.ErrorConflict with no partial write.
func (r *PostgresRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {

	query :=
		`INSERT INTO users (username, email, password_hash)
		 VALUES ($1, $2, $3)
		 RETURNING id, created_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		user.UserName, user.Email, user.PasswordHash).Scan(&user.ID, &user.CreatedAt)

	if err != nil {
		if isUniqueViolation(err) {
			return nil, common.ErrorConflict
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

func (r *PostgresRepository) GetByUserName(ctx context.Context, userName string) (*models.User, error) {
	query :=
		`SELECT id, username, email, password_hash, created_at FROM users
		 WHERE username = $1
		 `

	user := &models.User{}
	err := r.db.QueryRowContext(ctx, query, userName).
		Scan(&user.ID, &user.UserName, &user.Email, &user.PasswordHash, &user.CreatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

// ListUserNames returns every username. Emails and hashes stay out of the
// public listing.
func (r *PostgresRepository) ListUserNames(ctx context.Context) ([]string, error) {
	query :=
		`SELECT username FROM users
		 ORDER BY id
		 `

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	names := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return names, nil
}

// UpdateProfile rewrites username/email for the row identified by its
// immutable id. Keying on id means a concurrent rename of the same account
// cannot race on the old username. Run it inside dbx.WithTx.
func (r *PostgresRepository) UpdateProfile(ctx context.Context, id int64, userName string, email sql.NullString) (*models.User, error) {
	query :=
		`UPDATE users SET username = $2, email = $3
		 WHERE id = $1
		 RETURNING id, username, email, password_hash, created_at
		 `

	user := &models.User{}
	err := r.db.QueryRowContext(ctx, query, id, userName, email).
		Scan(&user.ID, &user.UserName, &user.Email, &user.PasswordHash, &user.CreatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		if isUniqueViolation(err) {
			return nil, common.ErrorConflict
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

// Delete removes a user by username. Administrative capability, not exposed
// on the HTTP surface.
func (r *PostgresRepository) Delete(ctx context.Context, userName string) error {
	query :=
		`DELETE FROM users
		 WHERE username = $1
		 `

	if _, err := r.db.ExecContext(ctx, query, userName); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
