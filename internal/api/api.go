// Package api serves the HTTP API of the Logicsweep server.
package api

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gin-contrib/gzip"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"

	"github.com/jon4hz/logicsweep/internal/api/auth"
	"github.com/jon4hz/logicsweep/internal/api/handler"
	"github.com/jon4hz/logicsweep/internal/config"
	"github.com/jon4hz/logicsweep/internal/database"
	"github.com/jon4hz/logicsweep/internal/engine"
	"github.com/jon4hz/logicsweep/internal/static"
)

const shutdownTimeout = 5 * time.Second

// Server is the Logicsweep HTTP server.
type Server struct {
	cfg          *config.Config
	ginEngine    *gin.Engine
	engine       *engine.Engine
	db           database.DB
	authProvider auth.AuthProvider
	httpServer   *http.Server
}

// New creates a new API server.
func New(ctx context.Context, cfg *config.Config, e *engine.Engine, db database.DB, debug bool) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	if debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	authProvider, err := auth.NewProvider(ctx, cfg, db)
	if err != nil {
		return nil, fmt.Errorf("failed to create auth provider: %w", err)
	}

	s := &Server{
		cfg:          cfg,
		ginEngine:    gin.New(),
		engine:       e,
		db:           db,
		authProvider: authProvider,
	}
	s.setupRoutes()

	return s, nil
}

func (s *Server) setupSession() {
	store := cookie.NewStore([]byte(s.cfg.SessionKey))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   s.cfg.SessionMaxAge,
		HttpOnly: true,
		Secure:   false, // Set to true in production
		SameSite: http.SameSiteLaxMode,
	})
	s.ginEngine.Use(sessions.Sessions("logicsweep_session", store))
}

func (s *Server) setupRoutes() {
	s.ginEngine.Use(gin.Recovery())
	s.ginEngine.Use(gzip.Gzip(gzip.DefaultCompression))
	s.setupSession()

	h := handler.New(s.engine, s.db, s.cfg)
	admin := handler.NewAdmin(h)
	webpushHandler := handler.NewWebPushHandler(s.engine.GetWebPushClient())

	s.ginEngine.StaticFS("/static", http.FS(static.Assets()))
	s.ginEngine.GET("/", func(c *gin.Context) {
		// http.FileServer would redirect /index.html to /, so serve the bytes directly
		data, err := fs.ReadFile(static.Assets(), "index.html")
		if err != nil {
			c.String(http.StatusInternalServerError, "dashboard unavailable")
			return
		}
		c.Data(http.StatusOK, "text/html; charset=utf-8", data)
	})

	s.ginEngine.GET("/health", h.Health)
	s.ginEngine.GET("/auth/oidc/login", s.authProvider.Login)
	s.ginEngine.GET("/auth/oidc/callback", s.authProvider.Callback)
	s.ginEngine.GET("/logout", h.Logout)

	// API routes
	api := s.ginEngine.Group("/api")
	api.Use(s.authProvider.RequireAuth())

	api.GET("/me", h.Me)

	api.GET("/scans", h.ListScanRuns)
	api.GET("/scans/active", h.ActiveScan)
	api.GET("/scans/:id", h.GetScanRun)
	api.GET("/scans/:id/findings", h.GetScanRunFindings)
	api.GET("/scans/:id/sarif", h.GetScanRunSarif)
	api.POST("/scans/trigger", h.TriggerScan)
	api.GET("/stats", h.GetScanStats)
	api.GET("/jobs", admin.ListJobs)

	api.GET("/findings", h.ListFindings)
	api.GET("/findings/:id", h.GetFinding)
	api.PUT("/findings/:id/state", h.UpdateFindingState)

	api.GET("/settings", h.GetUserSettings)
	api.PUT("/settings/email", h.UpdateEmailSettings)

	// WebPush routes
	api.GET("/webpush/key", webpushHandler.GetVAPIDKey)
	api.GET("/webpush/subscriptions", webpushHandler.GetSubscriptions)
	api.POST("/webpush/subscribe", webpushHandler.Subscribe)
	api.DELETE("/webpush/subscribe", webpushHandler.Unsubscribe)
	api.POST("/webpush/test", webpushHandler.TestNotification)

	// Admin routes
	adminGroup := api.Group("/admin")
	adminGroup.Use(s.authProvider.RequireAdmin())

	adminGroup.GET("/status", admin.Status)
	adminGroup.GET("/cache", admin.CacheStats)
	adminGroup.GET("/jobs", admin.ListJobs)
	adminGroup.POST("/jobs/:id/run", admin.RunJob)
	adminGroup.POST("/jobs/:id/enable", admin.EnableJob)
	adminGroup.POST("/jobs/:id/disable", admin.DisableJob)
	adminGroup.GET("/history", admin.GetHistory)
	adminGroup.GET("/users", admin.ListUsers)
	adminGroup.PUT("/users/:id/permissions", admin.UpdateUserPermissions)
}

// Run starts the HTTP server and blocks until the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:    s.cfg.Listen,
		Handler: s.ginEngine,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		log.Info("Shutting down API server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	}
}
