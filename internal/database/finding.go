package database

import (
	"context"
	"errors"

	"github.com/charmbracelet/log"
	"gorm.io/gorm"
)

// FindingState represents the triage state of a finding.
type FindingState string

const (
	FindingStateOpen      FindingState = "open"
	FindingStateResolved  FindingState = "resolved"
	FindingStateDismissed FindingState = "dismissed"
)

// Finding represents a persisted vulnerability finding.
type Finding struct {
	gorm.Model
	ScanRunID  uint   `gorm:"not null;index"`
	RuleID     string `gorm:"not null;index"`
	Severity   string `gorm:"not null;index"`
	Confidence string
	Message    string
	CWE        string
	FilePath   string
	Line       int
	Language   string
	Endpoint   string
	AIAnalyzed bool
	Reasoning  string
	State      FindingState `gorm:"not null;index;default:open"`
}

// FindingFilter narrows the results of GetFindings.
type FindingFilter struct {
	Target   string
	RuleID   string
	Severity string
	State    FindingState
}

// CreateFindings persists a batch of findings for a scan run.
func (c *Client) CreateFindings(ctx context.Context, runID uint, findings []Finding) error {
	if len(findings) == 0 {
		return nil
	}
	for i := range findings {
		findings[i].ScanRunID = runID
		if findings[i].State == "" {
			findings[i].State = FindingStateOpen
		}
	}
	if err := c.db.WithContext(ctx).Create(&findings).Error; err != nil {
		log.Error("failed to create findings", "error", err)
		return err
	}
	return nil
}

// GetFindingByID retrieves a single finding.
func (c *Client) GetFindingByID(ctx context.Context, id uint) (*Finding, error) {
	var finding Finding
	if err := c.db.WithContext(ctx).First(&finding, id).Error; err != nil {
		if err != gorm.ErrRecordNotFound {
			log.Error("failed to get finding by ID", "error", err)
		}
		return nil, err
	}
	return &finding, nil
}

// GetFindingsForRun retrieves all findings for a single scan run.
func (c *Client) GetFindingsForRun(ctx context.Context, runID uint) ([]Finding, error) {
	var findings []Finding
	if err := c.db.WithContext(ctx).Where("scan_run_id = ?", runID).Order("severity, rule_id").Find(&findings).Error; err != nil {
		log.Error("failed to get findings for run", "error", err)
		return nil, err
	}
	return findings, nil
}

// GetFindings retrieves paginated findings matching the filter.
func (c *Client) GetFindings(ctx context.Context, filter FindingFilter, page, pageSize int) ([]Finding, int64, error) {
	tx := c.db.WithContext(ctx).Model(&Finding{})

	if filter.Target != "" {
		tx = tx.Joins("JOIN scan_runs ON scan_runs.id = findings.scan_run_id").
			Where("scan_runs.target = ?", filter.Target)
	}
	if filter.RuleID != "" {
		tx = tx.Where("findings.rule_id = ?", filter.RuleID)
	}
	if filter.Severity != "" {
		tx = tx.Where("findings.severity = ?", filter.Severity)
	}
	if filter.State != "" {
		tx = tx.Where("findings.state = ?", filter.State)
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		log.Error("failed to count findings", "error", err)
		return nil, 0, err
	}

	if page < 1 {
		page = 1
	}
	offset := (page - 1) * pageSize

	var findings []Finding
	result := tx.Order("findings.created_at DESC").Limit(pageSize).Offset(offset).Find(&findings)
	if result.Error != nil && result.Error != gorm.ErrRecordNotFound {
		log.Error("failed to get findings", "error", result.Error)
		return nil, 0, result.Error
	}

	return findings, total, nil
}

// UpdateFindingState transitions a finding to a new triage state.
func (c *Client) UpdateFindingState(ctx context.Context, id uint, state FindingState) error {
	switch state {
	case FindingStateOpen, FindingStateResolved, FindingStateDismissed:
	default:
		return errors.New("invalid finding state")
	}

	result := c.db.WithContext(ctx).Model(&Finding{}).Where("id = ?", id).Update("state", state)
	if result.Error != nil {
		log.Error("failed to update finding state", "error", result.Error)
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
