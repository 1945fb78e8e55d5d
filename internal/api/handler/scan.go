package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/ccoveille/go-safecast"
	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/jon4hz/logicsweep/internal/api/models"
	"github.com/jon4hz/logicsweep/internal/rule"
	"github.com/jon4hz/logicsweep/pkg/sarif"
)

// paginationParams reads the page and pageSize query parameters, falling back
// to sane defaults on missing or out-of-range values.
func paginationParams(c *gin.Context) (int, int) {
	page := 1
	pageSize := 50

	if pageStr := c.Query("page"); pageStr != "" {
		if p, err := parseUintParam(pageStr); err == nil && p > 0 {
			if v, err := safecast.ToInt(p); err == nil {
				page = v
			}
		}
	}

	if pageSizeStr := c.Query("pageSize"); pageSizeStr != "" {
		if ps, err := parseUintParam(pageSizeStr); err == nil && ps > 0 && ps <= 100 {
			if v, err := safecast.ToInt(ps); err == nil {
				pageSize = v
			}
		}
	}

	return page, pageSize
}

func totalPages(total int64, pageSize int) int {
	pages := int(total) / pageSize
	if int(total)%pageSize != 0 {
		pages++
	}
	return pages
}

// ListScanRuns returns paginated scan runs, newest first.
func (h *Handler) ListScanRuns(c *gin.Context) {
	page, pageSize := paginationParams(c)

	runs, total, err := h.db.GetScanRunHistory(c.Request.Context(), page, pageSize)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   "Failed to get scan runs",
		})
		return
	}

	response := models.ScanHistoryResponse{
		Items:      models.ToScanRunItems(runs),
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

// GetScanRun returns a single scan run with its findings.
func (h *Handler) GetScanRun(c *gin.Context) {
	runID, err := parseUintParam(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "Invalid scan run ID",
		})
		return
	}

	run, err := h.db.GetScanRun(c.Request.Context(), runID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"success": false,
				"error":   "Scan run not found",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   "Failed to get scan run",
		})
		return
	}

	findings, err := h.db.GetFindingsForRun(c.Request.Context(), run.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   "Failed to get findings for scan run",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"run":      models.ToScanRunItem(*run),
			"findings": models.ToFindingItems(findings),
		},
	})
}

// GetScanRunFindings returns the findings of a single scan run.
func (h *Handler) GetScanRunFindings(c *gin.Context) {
	runID, err := parseUintParam(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "Invalid scan run ID",
		})
		return
	}

	findings, err := h.db.GetFindingsForRun(c.Request.Context(), runID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   "Failed to get findings for scan run",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    models.ToFindingItems(findings),
	})
}

// GetScanRunSarif exports the findings of a scan run as a SARIF report.
func (h *Handler) GetScanRunSarif(c *gin.Context) {
	runID, err := parseUintParam(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "Invalid scan run ID",
		})
		return
	}

	run, err := h.db.GetScanRun(c.Request.Context(), runID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"success": false,
				"error":   "Scan run not found",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   "Failed to get scan run",
		})
		return
	}

	findings, err := h.db.GetFindingsForRun(c.Request.Context(), run.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   "Failed to get findings for scan run",
		})
		return
	}

	ruleFindings := make([]rule.Finding, 0, len(findings))
	for _, f := range findings {
		ruleFindings = append(ruleFindings, rule.Finding{
			RuleID:     f.RuleID,
			Severity:   rule.Severity(f.Severity),
			Confidence: rule.Confidence(f.Confidence),
			Message:    f.Message,
			CWE:        f.CWE,
			FilePath:   f.FilePath,
			Line:       f.Line,
			Language:   f.Language,
			Endpoint:   f.Endpoint,
			AIAnalyzed: f.AIAnalyzed,
			Reasoning:  f.Reasoning,
		})
	}

	c.Header("Content-Type", "application/sarif+json")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", run.RunID+".sarif"))
	c.Status(http.StatusOK)
	if err := sarif.Write(c.Writer, ruleFindings); err != nil {
		log.Error("failed to write sarif report", "run", run.RunID, "error", err)
	}
}

// ActiveScan returns the currently running scan, if any.
func (h *Handler) ActiveScan(c *gin.Context) {
	run, err := h.db.GetActiveScanRun(c.Request.Context())
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusOK, gin.H{
				"success": true,
				"data":    nil,
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   "Failed to get active scan",
		})
		return
	}

	item := models.ToScanRunItem(*run)
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    item,
	})
}

// TriggerScan starts a scan run if the user holds the trigger permission.
func (h *Handler) TriggerScan(c *gin.Context) {
	user := c.MustGet("user").(*models.User)
	if !user.IsAdmin && !user.CanTriggerScans {
		c.JSON(http.StatusForbidden, gin.H{
			"success": false,
			"error":   "You are not allowed to trigger scans",
		})
		return
	}

	if _, err := h.db.GetActiveScanRun(c.Request.Context()); err == nil {
		c.JSON(http.StatusConflict, gin.H{
			"success": false,
			"error":   "A scan is already running",
		})
		return
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   "Failed to check for active scans",
		})
		return
	}

	if err := h.engine.TriggerScan(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Scan triggered successfully",
	})
}

// GetScanStats returns aggregate scan statistics.
func (h *Handler) GetScanStats(c *gin.Context) {
	stats, err := h.db.GetScanStats(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   "Failed to get scan stats",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    stats,
	})
}
