package models

import (
	"database/sql"
	"time"
)

// User is the persisted account record. PasswordHash never leaves the
// repository/service layers.
type User struct {
	ID           int64
	UserName     string
	Email        sql.NullString
	PasswordHash string
	CreatedAt    time.Time
}

// EmailOrNil returns the email as a *string suitable for JSON payloads,
// nil when the user has no email on record.
func (u *User) EmailOrNil() *string {
	if !u.Email.Valid {
		return nil
	}
	e := u.Email.String
	return &e
}
