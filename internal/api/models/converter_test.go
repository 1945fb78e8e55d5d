package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"

	"github.com/jon4hz/logicsweep/internal/database"
	"github.com/jon4hz/logicsweep/internal/scheduler"
)

func TestToScanRunItem(t *testing.T) {
	started := time.Now().Add(-10 * time.Minute)
	completed := started.Add(42 * time.Second)
	errMsg := "target path does not exist"

	run := database.ScanRun{
		Model:         gorm.Model{ID: 7},
		RunID:         "run-7",
		Target:        "api",
		Status:        database.ScanRunStatusFailed,
		Step:          database.ScanRunStepCompleted,
		StartedAt:     started,
		CompletedAt:   &completed,
		EndpointCount: 3,
		FindingCount:  0,
		ErrorMessage:  &errMsg,
	}

	item := ToScanRunItem(run)
	assert.Equal(t, uint(7), item.ID)
	assert.Equal(t, "run-7", item.RunID)
	assert.Equal(t, "failed", item.Status)
	assert.Equal(t, "42s", item.Duration)
	assert.Equal(t, errMsg, item.ErrorMessage)
	assert.NotEmpty(t, item.StartedAgo)
}

func TestToScanRunItem_Running(t *testing.T) {
	run := database.ScanRun{
		Model:     gorm.Model{ID: 1},
		Status:    database.ScanRunStatusRunning,
		StartedAt: time.Now(),
	}

	item := ToScanRunItem(run)
	assert.Empty(t, item.Duration)
	assert.Nil(t, item.CompletedAt)
	assert.Empty(t, item.ErrorMessage)
}

func TestToFindingItem(t *testing.T) {
	finding := database.Finding{
		Model:      gorm.Model{ID: 3, CreatedAt: time.Now().Add(-time.Hour)},
		ScanRunID:  7,
		RuleID:     "LOGIC-001",
		Severity:   "high",
		Confidence: "low",
		Message:    "Endpoint exposes user-scoped data without ownership validation",
		CWE:        "CWE-639",
		FilePath:   "app.py",
		Line:       12,
		Language:   "python",
		Endpoint:   "GET /api/users/<id>",
		State:      database.FindingStateOpen,
	}

	item := ToFindingItem(finding)
	assert.Equal(t, "LOGIC-001", item.RuleID)
	assert.Equal(t, "open", item.State)
	assert.Equal(t, "app.py", item.FilePath)
	assert.NotEmpty(t, item.DetectedAgo)
}

func TestToHistoryEventItem(t *testing.T) {
	findingID := uint(3)
	event := database.HistoryEvent{
		Model:     gorm.Model{ID: 1},
		EventType: database.HistoryEventFindingResolved,
		EventTime: time.Now().Add(-time.Minute),
		FindingID: &findingID,
		User:      &database.User{Username: "alice"},
	}

	item := ToHistoryEventItem(event)
	assert.Equal(t, "finding_resolved", item.EventType)
	assert.Equal(t, "alice", item.Username)
	assert.Equal(t, &findingID, item.FindingID)
}

func TestToJobItems_Sorted(t *testing.T) {
	jobs := map[string]scheduler.JobInfo{
		"scan":                {ID: "scan", Name: "Scan", LastRun: time.Now().Add(-time.Hour), LastDuration: 1500 * time.Millisecond},
		"clear_verdict_cache": {ID: "clear_verdict_cache", Name: "Clear verdict cache"},
	}

	items := ToJobItems(jobs)
	assert.Len(t, items, 2)
	assert.Equal(t, "clear_verdict_cache", items[0].ID)
	assert.Equal(t, "scan", items[1].ID)
	assert.Equal(t, "1.5s", items[1].LastDuration)
	assert.Empty(t, items[0].LastRun)
	assert.NotEmpty(t, items[1].LastRun)
}
