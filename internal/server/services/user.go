// Package services contains server-side business logic. This file implements
// UserService, which handles registration, credential verification, and
// issuing/refreshing JWTs.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/nprofyr/bwg-auth/internal/common"
	"github.com/nprofyr/bwg-auth/internal/dbx"
	"github.com/nprofyr/bwg-auth/internal/server/auth"
	"github.com/nprofyr/bwg-auth/internal/server/config"
	"github.com/nprofyr/bwg-auth/internal/server/models"
	"github.com/nprofyr/bwg-auth/internal/server/repositories/repomanager"
)

// TokenPair bundles a short-lived access token and a long-lived refresh token.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// UserService provides the account/session operations:
//   - Register: create users
//   - Login: verify credentials and mint token pairs
//   - Refresh: mint a new access token from a refresh token
//   - UpdateProfile: rename/re-email a user transactionally and rotate tokens
type UserService struct {
	db                           *sql.DB
	repomanager                  repomanager.RepositoryManager
	jwtSecret                    []byte
	accessTokenValidityDuration  time.Duration
	refreshTokenValidityDuration time.Duration
}

// NewUserService constructs a UserService using repositories and server config.
func NewUserService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config) *UserService {
	return &UserService{
		db:                           db,
		repomanager:                  m,
		jwtSecret:                    []byte(cfg.SecretKey),
		accessTokenValidityDuration:  cfg.AccessTokenValidityDuration,
		refreshTokenValidityDuration: cfg.RefreshTokenValidityDuration,
	}
}

// Register creates a new user with the given username and password.
// A taken username yields common.ErrorConflict.
func (s *UserService) Register(ctx context.Context, userName string, password string) (*models.User, error) {
	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, common.ErrorInternal
	}

	repo := s.repomanager.Users(s.db)
	u, err := repo.Create(ctx, &models.User{UserName: userName, PasswordHash: hash})
	if err != nil {
		if errors.Is(err, common.ErrorConflict) {
			return nil, common.ErrorConflict
		}
		return nil, fmt.Errorf("error creating user: %w", err)
	}
	return u, nil
}

// Login verifies the provided password against the stored digest and, on
// success, returns the user with a new TokenPair. Unknown usernames and
// wrong passwords both yield common.ErrorUnauthorized so the two cases are
// indistinguishable to the caller.
func (s *UserService) Login(ctx context.Context, userName string, password string) (*models.User, *TokenPair, error) {
	repo := s.repomanager.Users(s.db)
	user, err := repo.GetByUserName(ctx, userName)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, nil, common.ErrorUnauthorized
		}
		return nil, nil, common.ErrorInternal
	}
	if !auth.VerifyPassword(password, user.PasswordHash) {
		return nil, nil, common.ErrorUnauthorized
	}

	pair, err := s.generateTokenPair(user.UserName)
	if err != nil {
		return nil, nil, err
	}
	return user, pair, nil
}

// Refresh validates a refresh token and mints a new access token bound to
// the same username claim. The refresh token itself is not rotated; it
// stays valid until natural expiry. Any validation failure yields
// common.ErrRefreshTokenExpired so the client knows to re-login.
func (s *UserService) Refresh(ctx context.Context, refreshToken string) (string, error) {
	claims, err := auth.ParseToken(refreshToken, auth.TokenKindRefresh, s.jwtSecret)
	if err != nil {
		return "", common.ErrRefreshTokenExpired
	}

	accessToken, err := auth.GenerateToken(claims.UserName, auth.TokenKindAccess, s.jwtSecret, s.accessTokenValidityDuration)
	if err != nil {
		return "", common.ErrorInternal
	}
	return accessToken, nil
}

// UpdateProfile rewrites the caller's username/email inside a transaction
// and, on commit, rotates both tokens for the new username. The caller was
// already resolved by the auth gate; the write is keyed by the immutable id
// so the rename cannot race with its own lookup. A unique violation yields
// common.ErrorConflict; any other persistence failure rolls back and
// surfaces as an internal error.
func (s *UserService) UpdateProfile(ctx context.Context, user *models.User, newUserName string, email *string) (*models.User, *TokenPair, error) {
	var newEmail sql.NullString
	if email != nil {
		newEmail = sql.NullString{String: *email, Valid: true}
	}

	var updated *models.User
	if err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repoTx := s.repomanager.Users(tx)
		var updErr error
		updated, updErr = repoTx.UpdateProfile(ctx, user.ID, newUserName, newEmail)
		return updErr
	}); err != nil {
		if errors.Is(err, common.ErrorConflict) {
			return nil, nil, common.ErrorConflict
		}
		return nil, nil, fmt.Errorf("error updating user: %w", err)
	}

	// tokens for the new username are minted only after the rename committed
	pair, err := s.generateTokenPair(updated.UserName)
	if err != nil {
		return nil, nil, err
	}
	return updated, pair, nil
}

// GetByUserName returns the user for the given username. Used by the auth
// gate to re-resolve the token's subject against the current records.
func (s *UserService) GetByUserName(ctx context.Context, userName string) (*models.User, error) {
	repo := s.repomanager.Users(s.db)
	return repo.GetByUserName(ctx, userName)
}

// ListUsers returns every username. Public, unauthenticated read.
func (s *UserService) ListUsers(ctx context.Context) ([]string, error) {
	repo := s.repomanager.Users(s.db)
	names, err := repo.ListUserNames(ctx)
	if err != nil {
		return nil, fmt.Errorf("error listing users: %w", err)
	}
	return names, nil
}

// Delete removes an account. Administrative capability; not routed.
func (s *UserService) Delete(ctx context.Context, userName string) error {
	repo := s.repomanager.Users(s.db)
	return repo.Delete(ctx, userName)
}

// --- helpers below ---

func (s *UserService) generateTokenPair(userName string) (*TokenPair, error) {
	access, err := auth.GenerateToken(userName, auth.TokenKindAccess, s.jwtSecret, s.accessTokenValidityDuration)
	if err != nil {
		return nil, common.ErrorInternal
	}
	refresh, err := auth.GenerateToken(userName, auth.TokenKindRefresh, s.jwtSecret, s.refreshTokenValidityDuration)
	if err != nil {
		return nil, common.ErrorInternal
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}
