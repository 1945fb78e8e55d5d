package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/jon4hz/logicsweep/internal/api/models"
	"github.com/jon4hz/logicsweep/internal/database"
)

// UpdateFindingStateRequest is the request body for finding state transitions.
type UpdateFindingStateRequest struct {
	State string `json:"state" binding:"required"`
}

// ListFindings returns paginated findings, optionally filtered by target,
// rule, severity and state.
func (h *Handler) ListFindings(c *gin.Context) {
	page, pageSize := paginationParams(c)

	filter := database.FindingFilter{
		Target:   c.Query("target"),
		RuleID:   c.Query("ruleId"),
		Severity: c.Query("severity"),
		State:    database.FindingState(c.Query("state")),
	}

	findings, total, err := h.db.GetFindings(c.Request.Context(), filter, page, pageSize)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   "Failed to get findings",
		})
		return
	}

	response := models.FindingsResponse{
		Items:      models.ToFindingItems(findings),
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

// GetFinding returns a single finding with its state history.
func (h *Handler) GetFinding(c *gin.Context) {
	findingID, err := parseUintParam(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "Invalid finding ID",
		})
		return
	}

	finding, err := h.db.GetFindingByID(c.Request.Context(), findingID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"success": false,
				"error":   "Finding not found",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   "Failed to get finding",
		})
		return
	}

	events, err := h.db.GetHistoryEventsByFindingID(c.Request.Context(), finding.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   "Failed to get finding history",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"finding": models.ToFindingItem(*finding),
			"history": models.ToHistoryEventItems(events),
		},
	})
}

// UpdateFindingState transitions a finding between open, resolved and dismissed.
func (h *Handler) UpdateFindingState(c *gin.Context) {
	user := c.MustGet("user").(*models.User)

	findingID, err := parseUintParam(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "Invalid finding ID",
		})
		return
	}

	var req UpdateFindingStateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "Invalid request body",
		})
		return
	}

	state := database.FindingState(req.State)
	eventType, ok := stateEventType(state)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "Invalid finding state",
		})
		return
	}

	if err := h.db.UpdateFindingState(c.Request.Context(), findingID, state); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"success": false,
				"error":   "Finding not found",
			})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   err.Error(),
		})
		return
	}

	event := database.HistoryEvent{
		FindingID: &findingID,
		EventType: eventType,
		EventTime: time.Now(),
	}
	if user.ID > 0 {
		userID := user.ID
		event.UserID = &userID
	}
	if err := h.db.CreateHistoryEvent(c.Request.Context(), event); err != nil {
		log.Error("failed to record finding state change", "finding", findingID, "error", err)
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Finding state updated successfully",
	})
}

func stateEventType(state database.FindingState) (database.HistoryEventType, bool) {
	switch state {
	case database.FindingStateOpen:
		return database.HistoryEventFindingReopened, true
	case database.FindingStateResolved:
		return database.HistoryEventFindingResolved, true
	case database.FindingStateDismissed:
		return database.HistoryEventFindingDismissed, true
	}
	return "", false
}
