// Package mock provides an in-memory implementation of database.DB for testing.
package mock

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jon4hz/logicsweep/internal/database"
	"gorm.io/gorm"
)

var _ database.DB = (*MockDB)(nil)

// MockDB is a mock implementation of database.DB for testing.
type MockDB struct {
	mu sync.RWMutex

	// Scan run storage
	scanRuns  map[uint]*database.ScanRun
	nextRunID uint

	// Finding storage
	findings      map[uint]*database.Finding
	nextFindingID uint

	// User storage
	users      map[uint]*database.User
	nextUserID uint

	// History storage
	historyEvents []database.HistoryEvent

	// Error simulation
	StartScanRunError       error
	CompleteScanRunError    error
	GetScanRunError         error
	GetActiveScanRunError   error
	CreateFindingsError     error
	GetFindingsError        error
	UpdateFindingStateError error
	CreateUserError         error
	GetUserByUsernameError  error
	CreateHistoryEventError error
}

// NewMockDB creates a new MockDB instance.
func NewMockDB() *MockDB {
	return &MockDB{
		scanRuns:      make(map[uint]*database.ScanRun),
		nextRunID:     1,
		findings:      make(map[uint]*database.Finding),
		nextFindingID: 1,
		users:         make(map[uint]*database.User),
		nextUserID:    1,
	}
}

// Reset clears all data and errors from the mock database.
func (m *MockDB) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.scanRuns = make(map[uint]*database.ScanRun)
	m.nextRunID = 1
	m.findings = make(map[uint]*database.Finding)
	m.nextFindingID = 1
	m.users = make(map[uint]*database.User)
	m.nextUserID = 1
	m.historyEvents = nil

	m.StartScanRunError = nil
	m.CompleteScanRunError = nil
	m.GetScanRunError = nil
	m.GetActiveScanRunError = nil
	m.CreateFindingsError = nil
	m.GetFindingsError = nil
	m.UpdateFindingStateError = nil
	m.CreateUserError = nil
	m.GetUserByUsernameError = nil
	m.CreateHistoryEventError = nil
}

func (m *MockDB) StartScanRun(_ context.Context, target string) (*database.ScanRun, error) {
	if m.StartScanRunError != nil {
		return nil, m.StartScanRunError
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	run := &database.ScanRun{
		Model:     gorm.Model{ID: m.nextRunID, CreatedAt: time.Now(), UpdatedAt: time.Now()},
		RunID:     uuid.NewString(),
		Target:    target,
		Status:    database.ScanRunStatusRunning,
		Step:      database.ScanRunStepStarting,
		StartedAt: time.Now(),
	}
	m.scanRuns[m.nextRunID] = run
	m.nextRunID++
	return run, nil
}

func (m *MockDB) UpdateScanRunStep(_ context.Context, runID uint, step database.ScanRunStep) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	run, ok := m.scanRuns[runID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	run.Step = step
	return nil
}

func (m *MockDB) CompleteScanRun(_ context.Context, runID uint, status database.ScanRunStatus, endpointCount, findingCount int, errorMessage *string) error {
	if m.CompleteScanRunError != nil {
		return m.CompleteScanRunError
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	run, ok := m.scanRuns[runID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	now := time.Now()
	run.Status = status
	run.Step = database.ScanRunStepCompleted
	run.CompletedAt = &now
	run.EndpointCount = endpointCount
	run.FindingCount = findingCount
	run.ErrorMessage = errorMessage
	return nil
}

func (m *MockDB) GetScanRun(_ context.Context, runID uint) (*database.ScanRun, error) {
	if m.GetScanRunError != nil {
		return nil, m.GetScanRunError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	run, ok := m.scanRuns[runID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return run, nil
}

func (m *MockDB) GetActiveScanRun(_ context.Context) (*database.ScanRun, error) {
	if m.GetActiveScanRunError != nil {
		return nil, m.GetActiveScanRunError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, run := range m.scanRuns {
		if run.Status == database.ScanRunStatusRunning {
			return run, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *MockDB) GetScanRunHistory(_ context.Context, page, pageSize int) ([]database.ScanRun, int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	runs := make([]database.ScanRun, 0, len(m.scanRuns))
	for _, run := range m.scanRuns {
		runs = append(runs, *run)
	}
	return runs, int64(len(runs)), nil
}

func (m *MockDB) GetScanStats(_ context.Context) (*database.ScanStats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := &database.ScanStats{}
	for _, run := range m.scanRuns {
		stats.TotalRuns++
		switch run.Status {
		case database.ScanRunStatusCompleted:
			stats.SuccessfulRuns++
		case database.ScanRunStatusFailed:
			stats.FailedRuns++
		}
	}
	for _, f := range m.findings {
		stats.TotalFindings++
		if f.State == database.FindingStateOpen {
			stats.OpenFindings++
		}
	}
	return stats, nil
}

func (m *MockDB) CreateFindings(_ context.Context, runID uint, findings []database.Finding) error {
	if m.CreateFindingsError != nil {
		return m.CreateFindingsError
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range findings {
		findings[i].ID = m.nextFindingID
		findings[i].ScanRunID = runID
		if findings[i].State == "" {
			findings[i].State = database.FindingStateOpen
		}
		f := findings[i]
		m.findings[m.nextFindingID] = &f
		m.nextFindingID++
	}
	return nil
}

func (m *MockDB) GetFindingByID(_ context.Context, id uint) (*database.Finding, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	finding, ok := m.findings[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return finding, nil
}

func (m *MockDB) GetFindingsForRun(_ context.Context, runID uint) ([]database.Finding, error) {
	if m.GetFindingsError != nil {
		return nil, m.GetFindingsError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []database.Finding
	for _, f := range m.findings {
		if f.ScanRunID == runID {
			result = append(result, *f)
		}
	}
	return result, nil
}

func (m *MockDB) GetFindings(_ context.Context, filter database.FindingFilter, page, pageSize int) ([]database.Finding, int64, error) {
	if m.GetFindingsError != nil {
		return nil, 0, m.GetFindingsError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []database.Finding
	for _, f := range m.findings {
		if filter.RuleID != "" && f.RuleID != filter.RuleID {
			continue
		}
		if filter.Severity != "" && f.Severity != filter.Severity {
			continue
		}
		if filter.State != "" && f.State != filter.State {
			continue
		}
		if filter.Target != "" {
			run, ok := m.scanRuns[f.ScanRunID]
			if !ok || run.Target != filter.Target {
				continue
			}
		}
		result = append(result, *f)
	}
	return result, int64(len(result)), nil
}

func (m *MockDB) UpdateFindingState(_ context.Context, id uint, state database.FindingState) error {
	if m.UpdateFindingStateError != nil {
		return m.UpdateFindingStateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	finding, ok := m.findings[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	finding.State = state
	return nil
}

func (m *MockDB) CreateUser(_ context.Context, username string) (*database.User, error) {
	if m.CreateUserError != nil {
		return nil, m.CreateUserError
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	user := &database.User{
		Model:    gorm.Model{ID: m.nextUserID, CreatedAt: time.Now(), UpdatedAt: time.Now()},
		Username: username,
	}
	m.users[m.nextUserID] = user
	m.nextUserID++
	return user, nil
}

func (m *MockDB) GetUserByID(_ context.Context, id uint) (*database.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	user, ok := m.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return user, nil
}

func (m *MockDB) GetUserByUsername(_ context.Context, username string) (*database.User, error) {
	if m.GetUserByUsernameError != nil {
		return nil, m.GetUserByUsernameError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, user := range m.users {
		if user.Username == username {
			return user, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *MockDB) GetOrCreateUser(ctx context.Context, username string) (*database.User, error) {
	user, err := m.GetUserByUsername(ctx, username)
	if err == nil {
		return user, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}
	return m.CreateUser(ctx, username)
}

func (m *MockDB) GetAllUsers(_ context.Context) ([]database.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	users := make([]database.User, 0, len(m.users))
	for _, user := range m.users {
		users = append(users, *user)
	}
	return users, nil
}

func (m *MockDB) UpdateUserCanTriggerScans(_ context.Context, userID uint, canTrigger bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	user, ok := m.users[userID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	user.UserPermissions.UserID = userID
	user.UserPermissions.CanTriggerScans = canTrigger
	return nil
}

func (m *MockDB) GetUserSettings(_ context.Context, userID uint) (*database.UserSettings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	user, ok := m.users[userID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	user.UserSettings.UserID = userID
	return &user.UserSettings, nil
}

func (m *MockDB) UpdateUserEmailSettings(_ context.Context, userID uint, enabled bool, email string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	user, ok := m.users[userID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	user.UserSettings.EmailSettings.Enabled = enabled
	user.UserSettings.EmailSettings.Email = email
	return nil
}

func (m *MockDB) CreateHistoryEvent(_ context.Context, event database.HistoryEvent) error {
	if m.CreateHistoryEventError != nil {
		return m.CreateHistoryEventError
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if event.EventTime.IsZero() {
		event.EventTime = time.Now()
	}
	m.historyEvents = append(m.historyEvents, event)
	return nil
}

func (m *MockDB) GetHistoryEvents(_ context.Context, page, pageSize int, sortOrder database.SortOrder) ([]database.HistoryEvent, int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	events := make([]database.HistoryEvent, len(m.historyEvents))
	copy(events, m.historyEvents)
	return events, int64(len(events)), nil
}

func (m *MockDB) GetHistoryEventsByFindingID(_ context.Context, findingID uint) ([]database.HistoryEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []database.HistoryEvent
	for _, event := range m.historyEvents {
		if event.FindingID != nil && *event.FindingID == findingID {
			result = append(result, event)
		}
	}
	return result, nil
}

// HistoryEvents returns a copy of all recorded history events.
func (m *MockDB) HistoryEvents() []database.HistoryEvent {
	m.mu.RLock()
	defer m.mu.RUnlock()

	events := make([]database.HistoryEvent, len(m.historyEvents))
	copy(events, m.historyEvents)
	return events
}

func (m *MockDB) Close() error {
	return nil
}
