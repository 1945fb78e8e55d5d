package auth

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"

	"github.com/jon4hz/logicsweep/internal/api/models"
	"github.com/jon4hz/logicsweep/internal/config"
	"github.com/jon4hz/logicsweep/internal/database"
	"github.com/jon4hz/logicsweep/internal/gravatar"
)

// AuthProvider defines the interface for authentication providers.
type AuthProvider interface {
	// Login handles the login process for the provider
	Login(c *gin.Context)

	// Callback handles the authentication callback (if applicable)
	Callback(c *gin.Context)

	// RequireAuth returns middleware that requires authentication
	RequireAuth() gin.HandlerFunc

	// RequireAdmin returns middleware that requires admin privileges
	RequireAdmin() gin.HandlerFunc
}

// MultiProvider wraps OIDC session authentication with optional API key access
// for CI integrations.
type MultiProvider struct {
	oidcProvider *OIDCProvider
	apiKey       string
	gravatarCfg  *config.GravatarConfig
}

// NewProvider creates the auth provider for the server. OIDC takes precedence
// when enabled, an API key alone yields headless access, and with neither
// configured authentication is disabled entirely.
func NewProvider(ctx context.Context, cfg *config.Config, db database.DB) (AuthProvider, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	oidcEnabled := cfg.Auth != nil && cfg.Auth.OIDC != nil && cfg.Auth.OIDC.Enabled
	if !oidcEnabled {
		if cfg.APIKey != "" {
			return NewAPIKeyProvider(cfg.APIKey), nil
		}
		return NewNoOpProvider(), nil
	}

	oidcProvider, err := NewOIDCProvider(ctx, cfg.Auth.OIDC, db)
	if err != nil {
		return nil, fmt.Errorf("failed to create OIDC provider: %w", err)
	}

	return &MultiProvider{
		oidcProvider: oidcProvider,
		apiKey:       cfg.APIKey,
		gravatarCfg:  cfg.Gravatar,
	}, nil
}

// Login delegates to the OIDC provider.
func (mp *MultiProvider) Login(c *gin.Context) {
	mp.oidcProvider.Login(c)
}

// Callback delegates to the OIDC provider.
func (mp *MultiProvider) Callback(c *gin.Context) {
	mp.oidcProvider.Callback(c)
}

// RequireAuth returns middleware that accepts either a valid API key header
// or an authenticated session.
func (mp *MultiProvider) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if mp.apiKey != "" && c.GetHeader("X-API-Key") != "" {
			if c.GetHeader("X-API-Key") != mp.apiKey {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid API key"})
				c.Abort()
				return
			}
			setAPIKeyUser(c)
			c.Next()
			return
		}

		session := sessions.Default(c)
		userID := session.Get("user_id")
		if userID == nil {
			c.Redirect(http.StatusFound, "/auth/oidc/login")
			c.Abort()
			return
		}

		// create user model from session data
		user := &models.User{
			ID:              getSessionUint(session, "user_db_id"),
			Sub:             userID.(string),
			Email:           getSessionString(session, "user_email"),
			Name:            getSessionString(session, "user_name"),
			Username:        getSessionString(session, "user_username"),
			IsAdmin:         getSessionBool(session, "user_is_admin"),
			CanTriggerScans: getSessionBool(session, "user_can_trigger"),
		}

		// Generate Gravatar URL if enabled and email is available
		if mp.gravatarCfg != nil && user.Email != "" {
			user.GravatarURL = gravatar.GenerateURL(user.Email, mp.gravatarCfg)
		}

		c.Set("user_id", userID)
		c.Set("user", user)
		c.Next()
	}
}

// RequireAdmin returns middleware that checks for admin privileges.
func (mp *MultiProvider) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := c.MustGet("user").(*models.User)
		if !ok || !user.IsAdmin {
			c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			c.Abort()
			return
		}
		c.Next()
	}
}

func setAPIKeyUser(c *gin.Context) {
	c.Set("user_id", "api_key")
	c.Set("user", &models.User{
		Name:            "api_key",
		Username:        "api_key",
		IsAdmin:         true,
		CanTriggerScans: true,
	})
}

// Helper functions to safely get session values.
func getSessionString(session sessions.Session, key string) string {
	if val := session.Get(key); val != nil {
		if str, ok := val.(string); ok {
			return str
		}
	}
	return ""
}

func getSessionBool(session sessions.Session, key string) bool {
	if val := session.Get(key); val != nil {
		if b, ok := val.(bool); ok {
			return b
		}
	}
	return false
}

func getSessionUint(session sessions.Session, key string) uint {
	if val := session.Get(key); val != nil {
		if u, ok := val.(uint); ok {
			return u
		}
	}
	return 0
}
