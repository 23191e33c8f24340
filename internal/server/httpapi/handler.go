package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nprofyr/bwg-auth/internal/common"
	"github.com/nprofyr/bwg-auth/internal/server/models"
)

// credentialsRequest is the body of both /users/logup and /users/login.
type credentialsRequest struct {
	UserName string `json:"user_name" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// updateRequest is the body of POST /users/me. A nil email clears the field.
type updateRequest struct {
	UserName string  `json:"user_name" binding:"required"`
	Email    *string `json:"email"`
}

// userPayload is the public projection of a user record. The password hash
// never appears in a response.
type userPayload struct {
	UserName string  `json:"user_name"`
	Email    *string `json:"email"`
}

func toUserPayload(u *models.User) userPayload {
	return userPayload{UserName: u.UserName, Email: u.EmailOrNil()}
}

// registration handles POST /users/logup.
func (s *HTTPServer) registration(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "invalid request body"})
		return
	}

	ctx := c.Request.Context()
	user, err := s.users.Register(ctx, req.UserName, req.Password)
	if err != nil {
		if errors.Is(err, common.ErrorConflict) {
			c.JSON(http.StatusBadRequest, gin.H{"detail": "user with this name is already registered"})
			return
		}
		s.logger.Error(ctx, "registration failed", "error", err.Error())
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "internal error"})
		return
	}

	s.logger.Info(ctx, "user registered", "username", user.UserName)
	c.JSON(http.StatusOK, toUserPayload(user))
}

// authorization handles POST /users/login. On success the refresh token is
// set as an HTTP-only cookie and the access token is mirrored into the
// Authorization response header.
func (s *HTTPServer) authorization(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "invalid request body"})
		return
	}

	ctx := c.Request.Context()
	user, pair, err := s.users.Login(ctx, req.UserName, req.Password)
	if err != nil {
		if errors.Is(err, common.ErrorUnauthorized) {
			s.logger.Warn(ctx, "login failed", "username", req.UserName)
			c.JSON(http.StatusBadRequest, gin.H{"detail": "incorrect username or password"})
			return
		}
		s.logger.Error(ctx, "login failed", "error", err.Error())
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "internal error"})
		return
	}

	s.setRefreshCookie(c, pair.RefreshToken)
	c.Header("Authorization", pair.AccessToken)

	s.logger.Info(ctx, "user logged in", "username", user.UserName)
	c.JSON(http.StatusOK, gin.H{
		"user":         toUserPayload(user),
		"accessToken":  pair.AccessToken,
		"refreshToken": pair.RefreshToken,
	})
}

// refresh handles POST /users/refresh. A missing or invalid refresh cookie
// yields 408 so clients can distinguish "re-login required" from a plain
// unauthorized response.
func (s *HTTPServer) refresh(c *gin.Context) {
	ctx := c.Request.Context()

	refreshToken, err := c.Cookie(refreshCookieName)
	if err != nil {
		c.JSON(http.StatusRequestTimeout, gin.H{"detail": "invalid refresh token"})
		return
	}

	accessToken, err := s.users.Refresh(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, common.ErrRefreshTokenExpired) {
			c.JSON(http.StatusRequestTimeout, gin.H{"detail": "invalid refresh token"})
			return
		}
		s.logger.Error(ctx, "refresh failed", "error", err.Error())
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "internal error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"accessToken": accessToken})
}

// logout handles POST /users/logout. Stateless: only the cookie is cleared;
// already-issued access tokens stay valid until natural expiry.
func (s *HTTPServer) logout(c *gin.Context) {
	s.clearRefreshCookie(c)
	c.Status(http.StatusOK)
}

// listUsers handles GET /users/. Public: usernames only.
func (s *HTTPServer) listUsers(c *gin.Context) {
	ctx := c.Request.Context()

	names, err := s.users.ListUsers(ctx)
	if err != nil {
		s.logger.Error(ctx, "listing users failed", "error", err.Error())
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "internal error"})
		return
	}

	payload := make([]gin.H, 0, len(names))
	for _, name := range names {
		payload = append(payload, gin.H{"user_name": name})
	}
	c.JSON(http.StatusOK, payload)
}

// getCurrentUser handles GET /users/me for the user the auth gate resolved.
func (s *HTTPServer) getCurrentUser(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"detail": "user is not authorized"})
		return
	}
	c.JSON(http.StatusOK, toUserPayload(user))
}

// updateCurrentUser handles POST /users/me: transactional rename, then both
// tokens are rotated for the new username and the refresh cookie is reset.
func (s *HTTPServer) updateCurrentUser(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"detail": "user is not authorized"})
		return
	}

	var req updateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "invalid request body"})
		return
	}

	ctx := c.Request.Context()
	updated, pair, err := s.users.UpdateProfile(ctx, user, req.UserName, req.Email)
	if err != nil {
		if errors.Is(err, common.ErrorConflict) {
			c.JSON(http.StatusBadRequest, gin.H{"detail": "user with this name is already registered"})
			return
		}
		s.logger.Error(ctx, "profile update failed", "username", user.UserName, "error", err.Error())
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "error updating user"})
		return
	}

	s.setRefreshCookie(c, pair.RefreshToken)
	c.Header("Authorization", pair.AccessToken)

	s.logger.Info(ctx, "profile updated", "username", updated.UserName)
	c.JSON(http.StatusOK, gin.H{
		"user":        toUserPayload(updated),
		"accessToken": pair.AccessToken,
	})
}
