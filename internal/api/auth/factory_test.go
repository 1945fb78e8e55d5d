package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"

	"github.com/jon4hz/logicsweep/internal/api/models"
	"github.com/jon4hz/logicsweep/internal/config"
)

type FactoryTestSuite struct {
	suite.Suite
	router *gin.Engine
}

func (s *FactoryTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	s.router = gin.New()

	// Setup session middleware for tests
	store := cookie.NewStore([]byte("test-secret"))
	s.router.Use(sessions.Sessions("mysession", store))
}

func (s *FactoryTestSuite) TestNewProvider_NilConfig() {
	provider, err := NewProvider(context.Background(), nil, nil)
	assert.Nil(s.T(), provider)
	assert.Error(s.T(), err)
	assert.Contains(s.T(), err.Error(), "config is required")
}

func (s *FactoryTestSuite) TestNewProvider_NothingEnabled() {
	cfg := &config.Config{
		Auth: &config.AuthConfig{
			OIDC: &config.OIDCConfig{Enabled: false},
		},
	}

	provider, err := NewProvider(context.Background(), cfg, nil)
	assert.NoError(s.T(), err)
	assert.IsType(s.T(), &NoOpProvider{}, provider)
}

func (s *FactoryTestSuite) TestNewProvider_APIKeyOnly() {
	cfg := &config.Config{
		APIKey: "super-secret",
	}

	provider, err := NewProvider(context.Background(), cfg, nil)
	assert.NoError(s.T(), err)
	assert.IsType(s.T(), &APIKeyProvider{}, provider)
}

func (s *FactoryTestSuite) TestNewProvider_InvalidOIDCIssuer() {
	cfg := &config.Config{
		Auth: &config.AuthConfig{
			OIDC: &config.OIDCConfig{
				Enabled:      true,
				Issuer:       "http://127.0.0.1:1/nothing-here",
				ClientID:     "client-id",
				ClientSecret: "client-secret",
				RedirectURL:  "http://localhost:3009/auth/oidc/callback",
			},
		},
	}

	provider, err := NewProvider(context.Background(), cfg, nil)
	assert.Nil(s.T(), provider)
	assert.Error(s.T(), err)
	assert.Contains(s.T(), err.Error(), "failed to create OIDC provider")
}

func (s *FactoryTestSuite) TestMultiProvider_RequireAuth_NoSession() {
	mp := &MultiProvider{}
	s.router.GET("/protected", mp.RequireAuth(), func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	s.router.ServeHTTP(w, req)

	assert.Equal(s.T(), http.StatusFound, w.Code)
	assert.Equal(s.T(), "/auth/oidc/login", w.Header().Get("Location"))
}

func (s *FactoryTestSuite) TestMultiProvider_RequireAuth_APIKey() {
	mp := &MultiProvider{apiKey: "super-secret"}

	var gotUser *models.User
	s.router.GET("/protected", mp.RequireAuth(), func(c *gin.Context) {
		gotUser = c.MustGet("user").(*models.User)
		c.String(http.StatusOK, "ok")
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("X-API-Key", "super-secret")
	s.router.ServeHTTP(w, req)

	assert.Equal(s.T(), http.StatusOK, w.Code)
	assert.NotNil(s.T(), gotUser)
	assert.True(s.T(), gotUser.IsAdmin)
	assert.True(s.T(), gotUser.CanTriggerScans)
}

func (s *FactoryTestSuite) TestMultiProvider_RequireAuth_WrongAPIKey() {
	mp := &MultiProvider{apiKey: "super-secret"}
	s.router.GET("/protected", mp.RequireAuth(), func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("X-API-Key", "wrong")
	s.router.ServeHTTP(w, req)

	assert.Equal(s.T(), http.StatusUnauthorized, w.Code)
}

func TestFactoryTestSuite(t *testing.T) {
	suite.Run(t, new(FactoryTestSuite))
}
