package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jon4hz/logicsweep/internal/api/models"
)

// UpdateEmailSettingsRequest is the request body for notification email updates.
type UpdateEmailSettingsRequest struct {
	Enabled bool   `json:"enabled"`
	Email   string `json:"email"`
}

// GetUserSettings returns the settings of the authenticated user.
func (h *Handler) GetUserSettings(c *gin.Context) {
	user := c.MustGet("user").(*models.User)
	if user.ID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "No user account associated with this session",
		})
		return
	}

	settings, err := h.db.GetUserSettings(c.Request.Context(), user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   "Failed to get user settings",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"email": gin.H{
				"enabled": settings.EmailSettings.Enabled,
				"email":   settings.EmailSettings.Email,
			},
		},
	})
}

// UpdateEmailSettings sets the notification email for the authenticated user.
func (h *Handler) UpdateEmailSettings(c *gin.Context) {
	user := c.MustGet("user").(*models.User)
	if user.ID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "No user account associated with this session",
		})
		return
	}

	var req UpdateEmailSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "Invalid request body",
		})
		return
	}

	if req.Enabled && req.Email == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "Email address is required",
		})
		return
	}

	if err := h.db.UpdateUserEmailSettings(c.Request.Context(), user.ID, req.Enabled, req.Email); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   "Failed to update email settings",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Email settings updated successfully",
	})
}
