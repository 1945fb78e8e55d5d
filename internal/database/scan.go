package database

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ScanRunStatus represents the status of a scan run.
type ScanRunStatus string

const (
	ScanRunStatusRunning   ScanRunStatus = "running"
	ScanRunStatusCompleted ScanRunStatus = "completed"
	ScanRunStatusFailed    ScanRunStatus = "failed"
	ScanRunStatusCancelled ScanRunStatus = "cancelled"
)

// ScanRunStep represents the current phase of a scan run.
type ScanRunStep string

const (
	ScanRunStepStarting    ScanRunStep = "starting"
	ScanRunStepDiscovering ScanRunStep = "discovering_endpoints"
	ScanRunStepRules       ScanRunStep = "running_rules"
	ScanRunStepAIAnalysis  ScanRunStep = "ai_analysis"
	ScanRunStepPersisting  ScanRunStep = "persisting_findings"
	ScanRunStepCompleted   ScanRunStep = "completed"
)

// ScanRun represents a single execution of a scan over one target.
type ScanRun struct {
	gorm.Model
	RunID         string `gorm:"uniqueIndex;not null"`
	Target        string `gorm:"not null;index"`
	Status        ScanRunStatus
	Step          ScanRunStep
	StartedAt     time.Time `gorm:"not null;index"`
	CompletedAt   *time.Time
	EndpointCount int
	FindingCount  int
	ErrorMessage  *string
	Findings      []Finding `gorm:"constraint:OnDelete:CASCADE;"`
}

// ScanStats provides aggregate statistics over scan runs.
type ScanStats struct {
	TotalRuns      int64
	SuccessfulRuns int64
	FailedRuns     int64
	TotalFindings  int64
	OpenFindings   int64
	LastSuccessful *time.Time
}

// StartScanRun creates a new scan run record in running state.
func (c *Client) StartScanRun(ctx context.Context, target string) (*ScanRun, error) {
	run := ScanRun{
		RunID:     uuid.NewString(),
		Target:    target,
		Status:    ScanRunStatusRunning,
		Step:      ScanRunStepStarting,
		StartedAt: time.Now(),
	}
	if err := c.db.WithContext(ctx).Create(&run).Error; err != nil {
		log.Error("failed to create scan run", "error", err)
		return nil, err
	}
	return &run, nil
}

// UpdateScanRunStep updates the current step of a scan run.
func (c *Client) UpdateScanRunStep(ctx context.Context, runID uint, step ScanRunStep) error {
	result := c.db.WithContext(ctx).Model(&ScanRun{}).Where("id = ?", runID).Update("step", step)
	if result.Error != nil {
		log.Error("failed to update scan run step", "error", result.Error)
		return result.Error
	}
	return nil
}

// CompleteScanRun marks a scan run as finished with the given status and counts.
func (c *Client) CompleteScanRun(ctx context.Context, runID uint, status ScanRunStatus, endpointCount, findingCount int, errorMessage *string) error {
	now := time.Now()
	updates := map[string]any{
		"status":         status,
		"step":           ScanRunStepCompleted,
		"completed_at":   &now,
		"endpoint_count": endpointCount,
		"finding_count":  findingCount,
		"error_message":  errorMessage,
	}
	result := c.db.WithContext(ctx).Model(&ScanRun{}).Where("id = ?", runID).Updates(updates)
	if result.Error != nil {
		log.Error("failed to complete scan run", "error", result.Error)
		return result.Error
	}
	return nil
}

// GetScanRun retrieves a scan run with its findings.
func (c *Client) GetScanRun(ctx context.Context, runID uint) (*ScanRun, error) {
	var run ScanRun
	if err := c.db.WithContext(ctx).Preload("Findings").First(&run, runID).Error; err != nil {
		if err != gorm.ErrRecordNotFound {
			log.Error("failed to get scan run", "error", err)
		}
		return nil, err
	}
	return &run, nil
}

// GetActiveScanRun returns the currently running scan run, if any.
func (c *Client) GetActiveScanRun(ctx context.Context) (*ScanRun, error) {
	var run ScanRun
	err := c.db.WithContext(ctx).
		Where("status = ?", ScanRunStatusRunning).
		Order("started_at DESC").
		First(&run).Error
	if err != nil {
		if err != gorm.ErrRecordNotFound {
			log.Error("failed to get active scan run", "error", err)
		}
		return nil, err
	}
	return &run, nil
}

// GetScanRunHistory retrieves paginated scan runs, newest first.
func (c *Client) GetScanRunHistory(ctx context.Context, page, pageSize int) ([]ScanRun, int64, error) {
	var runs []ScanRun
	var total int64

	if err := c.db.WithContext(ctx).Model(&ScanRun{}).Count(&total).Error; err != nil {
		log.Error("failed to count scan runs", "error", err)
		return nil, 0, err
	}

	if page < 1 {
		page = 1
	}
	offset := (page - 1) * pageSize

	result := c.db.WithContext(ctx).
		Order("started_at DESC").
		Limit(pageSize).
		Offset(offset).
		Find(&runs)
	if result.Error != nil && result.Error != gorm.ErrRecordNotFound {
		log.Error("failed to get scan run history", "error", result.Error)
		return nil, 0, result.Error
	}

	return runs, total, nil
}

// GetScanStats returns aggregate statistics over all scan runs.
func (c *Client) GetScanStats(ctx context.Context) (*ScanStats, error) {
	var stats ScanStats

	tx := c.db.WithContext(ctx)
	if err := tx.Model(&ScanRun{}).Count(&stats.TotalRuns).Error; err != nil {
		return nil, err
	}
	if err := tx.Model(&ScanRun{}).Where("status = ?", ScanRunStatusCompleted).Count(&stats.SuccessfulRuns).Error; err != nil {
		return nil, err
	}
	if err := tx.Model(&ScanRun{}).Where("status = ?", ScanRunStatusFailed).Count(&stats.FailedRuns).Error; err != nil {
		return nil, err
	}
	if err := tx.Model(&Finding{}).Count(&stats.TotalFindings).Error; err != nil {
		return nil, err
	}
	if err := tx.Model(&Finding{}).Where("state = ?", FindingStateOpen).Count(&stats.OpenFindings).Error; err != nil {
		return nil, err
	}

	var last ScanRun
	err := tx.Where("status = ?", ScanRunStatusCompleted).Order("completed_at DESC").First(&last).Error
	if err == nil {
		stats.LastSuccessful = last.CompletedAt
	} else if err != gorm.ErrRecordNotFound {
		return nil, err
	}

	return &stats, nil
}
