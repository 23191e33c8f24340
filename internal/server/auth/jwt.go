// Package auth implements token issuing/validation and password hashing for
// the account service.
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/nprofyr/bwg-auth/internal/common"
)

// TokenKind labels what a token may be used for. Access and refresh tokens
// share the same claim structure otherwise, so the kind claim is what stops
// a refresh token from passing the auth gate (and vice versa).
type TokenKind string

const (
	TokenKindAccess  TokenKind = "access"
	TokenKindRefresh TokenKind = "refresh"
)

// Claims carries the registered claims plus the username the token was
// issued for and the token kind.
type Claims struct {
	jwt.RegisteredClaims
	UserName string    `json:"userName"`
	Kind     TokenKind `json:"kind"`
}

// GenerateToken signs an HS256 token for userName that expires after
// validityDuration.
func GenerateToken(userName string, kind TokenKind, secretKey []byte, validityDuration time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(validityDuration)),
		},
		UserName: userName,
		Kind:     kind,
	})

	tokenString, err := token.SignedString(secretKey)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// ParseToken verifies signature, expiry, and token kind, returning the
// decoded claims. Failures map onto the common sentinel errors:
// common.ErrTokenExpired for expired tokens, common.ErrInvalidToken for
// everything else (bad signature, malformed input, wrong kind, empty
// username claim).
func ParseToken(tokenString string, kind TokenKind, secretKey []byte) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, common.ErrInvalidToken
		}
		return secretKey, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, common.ErrTokenExpired
		}
		return nil, common.ErrInvalidToken
	}

	if !token.Valid || claims.Kind != kind || claims.UserName == "" {
		return nil, common.ErrInvalidToken
	}

	return claims, nil
}
