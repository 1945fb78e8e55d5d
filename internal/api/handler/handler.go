package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"

	"github.com/jon4hz/logicsweep/internal/api/models"
	"github.com/jon4hz/logicsweep/internal/config"
	"github.com/jon4hz/logicsweep/internal/database"
	"github.com/jon4hz/logicsweep/internal/engine"
)

// Handler serves the user-facing API endpoints.
type Handler struct {
	engine *engine.Engine
	db     database.DB
	config *config.Config
}

// New creates a new API handler.
func New(eng *engine.Engine, db database.DB, cfg *config.Config) *Handler {
	return &Handler{
		engine: eng,
		db:     db,
		config: cfg,
	}
}

// Health reports server liveness.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Me returns the authenticated user.
func (h *Handler) Me(c *gin.Context) {
	user := c.MustGet("user").(*models.User)
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    user,
	})
}

// Logout clears the session.
func (h *Handler) Logout(c *gin.Context) {
	session := sessions.Default(c)
	session.Clear()
	if err := session.Save(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   "Failed to clear session",
		})
		return
	}
	c.Redirect(http.StatusFound, "/")
}

// parseUintParam parses a string parameter into a uint.
func parseUintParam(val string) (uint, error) {
	id, err := strconv.ParseUint(val, 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}
