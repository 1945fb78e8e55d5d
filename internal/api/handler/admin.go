package handler

import (
	"net/http"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/gin-gonic/gin"
	"github.com/shirou/gopsutil/v3/disk"

	"github.com/jon4hz/logicsweep/internal/api/models"
	"github.com/jon4hz/logicsweep/internal/database"
)

// AdminHandler serves the admin-only API endpoints.
type AdminHandler struct {
	*Handler
}

// NewAdmin creates a new admin API handler.
func NewAdmin(h *Handler) *AdminHandler {
	return &AdminHandler{Handler: h}
}

// Status returns an overview of the server: scan statistics, scheduler jobs,
// cache stats and disk usage of the data directory.
func (h *AdminHandler) Status(c *gin.Context) {
	stats, err := h.db.GetScanStats(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   "Failed to get scan stats",
		})
		return
	}

	jobs := models.ToJobItems(h.engine.GetScheduler().GetJobs())
	cacheStats := h.engine.GetCacheStats()

	dataDir := "."
	if h.config.Database != nil && h.config.Database.Path != "" {
		dataDir = filepath.Dir(h.config.Database.Path)
	}

	var diskInfo *models.DiskInfo
	if usage, err := disk.UsageWithContext(c.Request.Context(), dataDir); err == nil {
		diskInfo = &models.DiskInfo{
			Path:        dataDir,
			Total:       humanize.IBytes(usage.Total),
			Free:        humanize.IBytes(usage.Free),
			UsedPercent: usage.UsedPercent,
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"stats": stats,
			"jobs":  jobs,
			"cache": cacheStats,
			"disk":  diskInfo,
		},
	})
}

// ListJobs returns all scheduler jobs.
func (h *AdminHandler) ListJobs(c *gin.Context) {
	jobs := models.ToJobItems(h.engine.GetScheduler().GetJobs())
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    jobs,
	})
}

// CacheStats returns statistics for the scan caches.
func (h *AdminHandler) CacheStats(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    h.engine.GetCacheStats(),
	})
}

// RunJob triggers a scheduler job immediately.
func (h *AdminHandler) RunJob(c *gin.Context) {
	jobID := c.Param("id")
	if err := h.engine.GetScheduler().RunJobNow(jobID); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Job triggered successfully",
	})
}

// EnableJob enables a scheduler job.
func (h *AdminHandler) EnableJob(c *gin.Context) {
	jobID := c.Param("id")
	if err := h.engine.GetScheduler().EnableJob(jobID); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Job enabled",
	})
}

// DisableJob disables a scheduler job.
func (h *AdminHandler) DisableJob(c *gin.Context) {
	jobID := c.Param("id")
	if err := h.engine.GetScheduler().DisableJob(jobID); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Job disabled",
	})
}

// GetHistory returns paginated history events.
func (h *AdminHandler) GetHistory(c *gin.Context) {
	page, pageSize := paginationParams(c)
	sortOrder := database.SortOrder(c.DefaultQuery("sortOrder", string(database.SortOrderDesc)))

	events, total, err := h.db.GetHistoryEvents(c.Request.Context(), page, pageSize, sortOrder)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   "Failed to get history",
		})
		return
	}

	response := models.HistoryResponse{
		Items:      models.ToHistoryEventItems(events),
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages(total, pageSize),
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    response,
	})
}

// ListUsers returns all user accounts.
func (h *AdminHandler) ListUsers(c *gin.Context) {
	users, err := h.db.GetAllUsers(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   "Failed to get users",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    models.ToUserItems(users),
	})
}

// UpdateUserPermissionsRequest is the request body for permission updates.
type UpdateUserPermissionsRequest struct {
	CanTriggerScans bool `json:"canTriggerScans"`
}

// UpdateUserPermissions sets the trigger permission for a user.
func (h *AdminHandler) UpdateUserPermissions(c *gin.Context) {
	userID, err := parseUintParam(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "Invalid user ID",
		})
		return
	}

	var req UpdateUserPermissionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "Invalid request body",
		})
		return
	}

	if err := h.db.UpdateUserCanTriggerScans(c.Request.Context(), userID, req.CanTriggerScans); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   "Failed to update user permissions",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "User permissions updated successfully",
	})
}
