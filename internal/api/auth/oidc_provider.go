package auth

import (
	"context"
	"net/http"
	"slices"

	"github.com/charmbracelet/log"
	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"github.com/jon4hz/logicsweep/internal/config"
	"github.com/jon4hz/logicsweep/internal/database"
)

// OIDCProvider authenticates users against an OpenID Connect issuer.
type OIDCProvider struct {
	provider *oidc.Provider
	verifier *oidc.IDTokenVerifier
	config   *oauth2.Config
	cfg      *config.OIDCConfig
	db       database.DB
}

// NewOIDCProvider creates a new OIDC authentication provider.
func NewOIDCProvider(ctx context.Context, cfg *config.OIDCConfig, db database.DB) (*OIDCProvider, error) {
	p := OIDCProvider{
		cfg: cfg,
		db:  db,
	}
	var err error
	p.provider, err = oidc.NewProvider(ctx, cfg.Issuer)
	if err != nil {
		return nil, err
	}

	p.config = &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  cfg.RedirectURL,
		Endpoint:     p.provider.Endpoint(),
		Scopes:       []string{oidc.ScopeOpenID, "profile", "email", "groups"},
	}

	p.verifier = p.provider.Verifier(&oidc.Config{ClientID: cfg.ClientID})
	return &p, nil
}

// Login starts the OAuth 2.0 authorization code flow.
func (p *OIDCProvider) Login(c *gin.Context) {
	state := uuid.New().String()

	session := sessions.Default(c)
	session.Set("oauth_state", state)

	opts := []oauth2.AuthCodeOption{}
	if p.cfg.UsePKCE {
		verifier := oauth2.GenerateVerifier()
		session.Set("pkce_verifier", verifier)
		opts = append(opts, oauth2.S256ChallengeOption(verifier))
	}

	if err := session.Save(); err != nil {
		c.AbortWithError(http.StatusInternalServerError, err) //nolint:errcheck
		return
	}

	c.Redirect(http.StatusFound, p.config.AuthCodeURL(state, opts...))
}

// Callback completes the OAuth 2.0 flow and establishes the session.
func (p *OIDCProvider) Callback(c *gin.Context) {
	ctx := c.Request.Context()
	session := sessions.Default(c)

	if state := getSessionString(session, "oauth_state"); state == "" || state != c.Query("state") {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid oauth state"})
		return
	}

	opts := []oauth2.AuthCodeOption{}
	if p.cfg.UsePKCE {
		opts = append(opts, oauth2.VerifierOption(getSessionString(session, "pkce_verifier")))
	}

	oauth2Token, err := p.config.Exchange(ctx, c.Query("code"), opts...)
	if err != nil {
		c.AbortWithError(http.StatusUnauthorized, err) //nolint:errcheck
		return
	}

	rawIDToken, ok := oauth2Token.Extra("id_token").(string)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "no id_token in token response"})
		return
	}

	idToken, err := p.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		c.AbortWithError(http.StatusUnauthorized, err) //nolint:errcheck
		return
	}

	var claims struct {
		Email             string   `json:"email"`
		Name              string   `json:"name"`
		PreferredUsername string   `json:"preferred_username"`
		Sub               string   `json:"sub"`
		Groups            []string `json:"groups"`
	}
	if err := idToken.Claims(&claims); err != nil {
		c.AbortWithError(http.StatusInternalServerError, err) //nolint:errcheck
		return
	}

	isAdmin := slices.Contains(claims.Groups, p.cfg.AdminGroup) && p.cfg.AdminGroup != ""
	canTrigger := isAdmin
	if p.cfg.TriggerGroup != "" && slices.Contains(claims.Groups, p.cfg.TriggerGroup) {
		canTrigger = true
	}

	// Save user ID in session
	session.Set("user_id", claims.Sub)
	session.Set("user_email", claims.Email)
	session.Set("user_name", claims.Name)
	session.Set("user_username", claims.PreferredUsername)
	session.Set("user_is_admin", isAdmin)
	session.Set("user_can_trigger", canTrigger)
	session.Delete("oauth_state")
	session.Delete("pkce_verifier")

	if p.db != nil {
		user, err := p.db.GetOrCreateUser(ctx, claims.PreferredUsername)
		if err != nil {
			log.Error("failed to get or create user", "username", claims.PreferredUsername, "error", err)
		} else {
			session.Set("user_db_id", user.ID)
			// the trigger group overrides the stored permission on every login
			if p.cfg.TriggerGroup != "" && user.UserPermissions.CanTriggerScans != canTrigger {
				if err := p.db.UpdateUserCanTriggerScans(ctx, user.ID, canTrigger); err != nil {
					log.Error("failed to update trigger permission", "username", claims.PreferredUsername, "error", err)
				}
			}
		}
	}

	if err := session.Save(); err != nil {
		c.AbortWithError(http.StatusInternalServerError, err) //nolint:errcheck
		return
	}
	c.Redirect(http.StatusFound, "/")
}

// RequireAuth returns middleware that requires an authenticated session.
func (p *OIDCProvider) RequireAuth() gin.HandlerFunc {
	mp := &MultiProvider{oidcProvider: p}
	return mp.RequireAuth()
}

// RequireAdmin returns middleware that checks for admin privileges.
func (p *OIDCProvider) RequireAdmin() gin.HandlerFunc {
	mp := &MultiProvider{oidcProvider: p}
	return mp.RequireAdmin()
}
