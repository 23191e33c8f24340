package httpapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/nprofyr/bwg-auth/internal/server/auth"
	"github.com/nprofyr/bwg-auth/internal/server/models"
)

const currentUserKey = "currentUser"

// authRequired gates private routes. It reads the raw access token from the
// Authorization header (a "Bearer " prefix is tolerated), validates it, and
// re-resolves the username claim against the current user records. Failure
// at any step rejects the request with 401 before the route handler runs.
func (s *HTTPServer) authRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "user is not authorized"})
			return
		}

		// clients send the token raw; some proxies re-add the scheme
		tokenString := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))

		claims, err := auth.ParseToken(tokenString, auth.TokenKindAccess, s.jwtSecret)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "user is not authorized"})
			return
		}

		user, err := s.users.GetByUserName(c.Request.Context(), claims.UserName)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "user is not authorized"})
			return
		}

		c.Set(currentUserKey, user)
		c.Next()
	}
}

// currentUser returns the user the auth gate attached to the context.
func currentUser(c *gin.Context) (*models.User, bool) {
	v, ok := c.Get(currentUserKey)
	if !ok {
		return nil, false
	}
	user, ok := v.(*models.User)
	return user, ok
}

// requestLogger assigns every request an id and logs method, path, status,
// and duration once the handler chain finishes.
func (s *HTTPServer) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := uuid.NewString()
		c.Writer.Header().Set("X-Request-ID", requestID)

		log := s.logger.With("request_id", requestID)
		start := time.Now()

		c.Next()

		log.Info(c.Request.Context(), "request handled",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start).String(),
		)
	}
}

// cors allows the configured browser origins to send credentialed requests.
func (s *HTTPServer) cors() gin.HandlerFunc {
	allowed := make(map[string]struct{}, len(s.corsOrigins))
	for _, o := range s.corsOrigins {
		allowed[o] = struct{}{}
	}

	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if _, ok := allowed[origin]; ok {
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Access-Control-Allow-Credentials", "true")
			c.Header("Access-Control-Allow-Methods", "POST, GET, PUT, DELETE")
			c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")
			c.Header("Access-Control-Expose-Headers", "Authorization")
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
