package database

import "context"

// DB defines the interface for database operations.
type DB interface {
	// Scan run management
	StartScanRun(ctx context.Context, target string) (*ScanRun, error)
	UpdateScanRunStep(ctx context.Context, runID uint, step ScanRunStep) error
	CompleteScanRun(ctx context.Context, runID uint, status ScanRunStatus, endpointCount, findingCount int, errorMessage *string) error
	GetScanRun(ctx context.Context, runID uint) (*ScanRun, error)
	GetActiveScanRun(ctx context.Context) (*ScanRun, error)
	GetScanRunHistory(ctx context.Context, page, pageSize int) ([]ScanRun, int64, error)
	GetScanStats(ctx context.Context) (*ScanStats, error)

	// Findings
	CreateFindings(ctx context.Context, runID uint, findings []Finding) error
	GetFindingByID(ctx context.Context, id uint) (*Finding, error)
	GetFindingsForRun(ctx context.Context, runID uint) ([]Finding, error)
	GetFindings(ctx context.Context, filter FindingFilter, page, pageSize int) ([]Finding, int64, error)
	UpdateFindingState(ctx context.Context, id uint, state FindingState) error

	// Users
	CreateUser(ctx context.Context, username string) (*User, error)
	GetUserByID(ctx context.Context, id uint) (*User, error)
	GetUserByUsername(ctx context.Context, username string) (*User, error)
	GetOrCreateUser(ctx context.Context, username string) (*User, error)
	GetAllUsers(ctx context.Context) ([]User, error)
	UpdateUserCanTriggerScans(ctx context.Context, userID uint, canTrigger bool) error
	GetUserSettings(ctx context.Context, userID uint) (*UserSettings, error)
	UpdateUserEmailSettings(ctx context.Context, userID uint, enabled bool, email string) error

	// History
	CreateHistoryEvent(ctx context.Context, event HistoryEvent) error
	GetHistoryEvents(ctx context.Context, page, pageSize int, sortOrder SortOrder) ([]HistoryEvent, int64, error)
	GetHistoryEventsByFindingID(ctx context.Context, findingID uint) ([]HistoryEvent, error)

	// Utility
	Close() error
}
