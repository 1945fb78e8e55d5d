package models

import "time"

// User represents a user in the system, including their authentication details and admin status.
type User struct {
	ID              uint   `json:"id"`
	Sub             string `json:"sub"`
	Email           string `json:"email"`
	Name            string `json:"name"`
	Username        string `json:"username"`
	IsAdmin         bool   `json:"isAdmin"`
	CanTriggerScans bool   `json:"canTriggerScans"`
	GravatarURL     string `json:"gravatarUrl"` // URL to the user's Gravatar image, empty if not available
}

// ScanRunItem represents a scan run for API responses.
type ScanRunItem struct {
	ID            uint       `json:"id"`
	RunID         string     `json:"runId"`
	Target        string     `json:"target"`
	Status        string     `json:"status"`
	Step          string     `json:"step"`
	StartedAt     time.Time  `json:"startedAt"`
	StartedAgo    string     `json:"startedAgo"`
	CompletedAt   *time.Time `json:"completedAt,omitempty"`
	Duration      string     `json:"duration,omitempty"`
	EndpointCount int        `json:"endpointCount"`
	FindingCount  int        `json:"findingCount"`
	ErrorMessage  string     `json:"errorMessage,omitempty"`
}

// FindingItem represents a finding for API responses.
type FindingItem struct {
	ID          uint      `json:"id"`
	ScanRunID   uint      `json:"scanRunId"`
	RuleID      string    `json:"ruleId"`
	Severity    string    `json:"severity"`
	Confidence  string    `json:"confidence"`
	Message     string    `json:"message"`
	CWE         string    `json:"cwe"`
	FilePath    string    `json:"filePath"`
	Line        int       `json:"line"`
	Language    string    `json:"language"`
	Endpoint    string    `json:"endpoint"`
	AIAnalyzed  bool      `json:"aiAnalyzed"`
	Reasoning   string    `json:"reasoning,omitempty"`
	State       string    `json:"state"`
	DetectedAt  time.Time `json:"detectedAt"`
	DetectedAgo string    `json:"detectedAgo"`
}

// HistoryEventItem represents a history event for API responses.
type HistoryEventItem struct {
	ID        uint      `json:"id"`
	EventType string    `json:"eventType"`
	EventTime time.Time `json:"eventTime"`
	EventAgo  string    `json:"eventAgo"`
	ScanRunID *uint     `json:"scanRunId,omitempty"`
	FindingID *uint     `json:"findingId,omitempty"`
	Username  string    `json:"username,omitempty"`
}

// JobItem represents a scheduler job for API responses.
type JobItem struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Description  string `json:"description"`
	Status       string `json:"status"`
	Schedule     string `json:"schedule"`
	Enabled      bool   `json:"enabled"`
	LastRun      string `json:"lastRun,omitempty"`
	NextRun      string `json:"nextRun,omitempty"`
	LastDuration string `json:"lastDuration,omitempty"`
	RunCount     int    `json:"runCount"`
	ErrorCount   int    `json:"errorCount"`
	LastError    string `json:"lastError,omitempty"`
}

// UserItem represents a user account for the admin user list.
type UserItem struct {
	ID              uint      `json:"id"`
	Username        string    `json:"username"`
	CanTriggerScans bool      `json:"canTriggerScans"`
	EmailEnabled    bool      `json:"emailEnabled"`
	Email           string    `json:"email,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
}

// ScanHistoryResponse is the paginated response for scan run listings.
type ScanHistoryResponse struct {
	Items      []ScanRunItem `json:"items"`
	Total      int64         `json:"total"`
	Page       int           `json:"page"`
	PageSize   int           `json:"pageSize"`
	TotalPages int           `json:"totalPages"`
}

// FindingsResponse is the paginated response for finding listings.
type FindingsResponse struct {
	Items      []FindingItem `json:"items"`
	Total      int64         `json:"total"`
	Page       int           `json:"page"`
	PageSize   int           `json:"pageSize"`
	TotalPages int           `json:"totalPages"`
}

// HistoryResponse is the paginated response for history event listings.
type HistoryResponse struct {
	Items      []HistoryEventItem `json:"items"`
	Total      int64              `json:"total"`
	Page       int                `json:"page"`
	PageSize   int                `json:"pageSize"`
	TotalPages int                `json:"totalPages"`
}

// DiskInfo describes the disk usage of the data directory.
type DiskInfo struct {
	Path        string  `json:"path"`
	Total       string  `json:"total"`
	Free        string  `json:"free"`
	UsedPercent float64 `json:"usedPercent"`
}
