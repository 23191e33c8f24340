// Package httpapi exposes the account service over HTTP/JSON.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nprofyr/bwg-auth/internal/logging"
	"github.com/nprofyr/bwg-auth/internal/server/config"
	"github.com/nprofyr/bwg-auth/internal/server/services"
)

// refreshCookieName is the cookie the browser keeps the refresh token in.
const refreshCookieName = "refreshToken"

type HTTPServer struct {
	address             string
	logger              logging.Logger
	users               *services.UserService
	jwtSecret           []byte
	refreshCookieMaxAge int
	corsOrigins         []string
	registry            *prometheus.Registry
}

func NewHTTPServer(cfg *config.Config, l logging.Logger, us *services.UserService) *HTTPServer {
	registry := prometheus.NewRegistry()
	RegisterMetrics(registry)

	return &HTTPServer{
		address:             cfg.EndpointAddr,
		logger:              l.With("module", "http_server"),
		users:               us,
		jwtSecret:           []byte(cfg.SecretKey),
		refreshCookieMaxAge: int(cfg.RefreshTokenValidityDuration.Seconds()),
		corsOrigins:         cfg.CORSAllowedOrigins,
		registry:            registry,
	}
}

// Router builds the gin engine with all middleware and routes registered.
func (s *HTTPServer) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(s.requestLogger())
	r.Use(s.cors())
	r.Use(metricsMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})))

	public := r.Group("/users")
	{
		public.POST("/logup", s.registration)
		public.POST("/login", s.authorization)
		public.POST("/refresh", s.refresh)
		public.POST("/logout", s.logout)
		public.GET("/", s.listUsers)
	}

	private := r.Group("/users")
	private.Use(s.authRequired())
	{
		private.GET("/me", s.getCurrentUser)
		private.POST("/me", s.updateCurrentUser)
	}

	return r
}

// Run starts the HTTP server and blocks until ctx is cancelled or the
// listener fails. Shutdown drains in-flight requests.
func (s *HTTPServer) Run(ctx context.Context) error {

	srv := &http.Server{
		Addr:    s.address,
		Handler: s.Router(),
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(ctx, "shutdown error", "error", err.Error())
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}

// setRefreshCookie installs the refresh token as an HTTP-only cookie. The
// max-age is exactly the configured refresh TTL.
func (s *HTTPServer) setRefreshCookie(c *gin.Context, token string) {
	c.SetCookie(refreshCookieName, token, s.refreshCookieMaxAge, "/", "", false, true)
}

// clearRefreshCookie expires the refresh cookie on the client.
func (s *HTTPServer) clearRefreshCookie(c *gin.Context) {
	c.SetCookie(refreshCookieName, "", -1, "/", "", false, true)
}
