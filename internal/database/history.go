package database

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
	"gorm.io/gorm"
)

// HistoryEventType represents the type of history event.
type HistoryEventType string

const (
	// HistoryEventScanStarted indicates a scan run was started.
	HistoryEventScanStarted HistoryEventType = "scan_started"
	// HistoryEventScanCompleted indicates a scan run finished successfully.
	HistoryEventScanCompleted HistoryEventType = "scan_completed"
	// HistoryEventScanFailed indicates a scan run failed.
	HistoryEventScanFailed HistoryEventType = "scan_failed"
	// HistoryEventFindingOpened indicates a new finding was recorded.
	HistoryEventFindingOpened HistoryEventType = "finding_opened"
	// HistoryEventFindingResolved indicates a finding was marked resolved.
	HistoryEventFindingResolved HistoryEventType = "finding_resolved"
	// HistoryEventFindingDismissed indicates a finding was dismissed as a false positive.
	HistoryEventFindingDismissed HistoryEventType = "finding_dismissed"
	// HistoryEventFindingReopened indicates a resolved or dismissed finding was reopened.
	HistoryEventFindingReopened HistoryEventType = "finding_reopened"
)

// HistoryEvent represents an audit event for a scan run or a finding.
type HistoryEvent struct {
	gorm.Model
	// Scan run the event belongs to (optional for finding triage events)
	ScanRunID *uint `gorm:"index"`
	// Finding the event refers to (optional for run-level events)
	FindingID *uint `gorm:"index"`
	// Event type
	EventType HistoryEventType `gorm:"not null;index"`
	// User who triggered the event (optional, can be null for system events)
	UserID *uint `gorm:"index"`
	User   *User
	// Timestamp when the event occurred
	EventTime time.Time `gorm:"not null;index"`
}

// CreateHistoryEvent creates a new history event.
func (c *Client) CreateHistoryEvent(ctx context.Context, event HistoryEvent) error {
	if event.EventTime.IsZero() {
		event.EventTime = time.Now()
	}

	result := c.db.WithContext(ctx).Create(&event)
	if result.Error != nil {
		log.Error("failed to create history event", "error", result.Error)
		return result.Error
	}
	return nil
}

// GetHistoryEvents retrieves paginated history events.
func (c *Client) GetHistoryEvents(ctx context.Context, page, pageSize int, sortOrder SortOrder) ([]HistoryEvent, int64, error) {
	var events []HistoryEvent
	var total int64

	if err := c.db.WithContext(ctx).
		Model(&HistoryEvent{}).
		Count(&total).Error; err != nil {
		log.Error("failed to count history events", "error", err)
		return nil, 0, err
	}

	if sortOrder != SortOrderAsc && sortOrder != SortOrderDesc {
		sortOrder = SortOrderDesc
	}

	if page < 1 {
		page = 1
	}
	offset := (page - 1) * pageSize

	result := c.db.WithContext(ctx).
		Preload("User").
		Order("event_time " + string(sortOrder)).
		Limit(pageSize).
		Offset(offset).
		Find(&events)
	if result.Error != nil && result.Error != gorm.ErrRecordNotFound {
		log.Error("failed to get history events", "error", result.Error)
		return nil, 0, result.Error
	}

	return events, total, nil
}

// GetHistoryEventsByFindingID retrieves all events for a single finding.
func (c *Client) GetHistoryEventsByFindingID(ctx context.Context, findingID uint) ([]HistoryEvent, error) {
	var events []HistoryEvent
	result := c.db.WithContext(ctx).
		Preload("User").
		Where("finding_id = ?", findingID).
		Order("event_time DESC").
		Find(&events)
	if result.Error != nil {
		log.Error("failed to get history events by finding", "error", result.Error)
		return nil, result.Error
	}
	return events, nil
}
