package models

import (
	"slices"
	"strings"
	"time"

	"github.com/mergestat/timediff"
	"github.com/samber/lo"

	"github.com/jon4hz/logicsweep/internal/database"
	"github.com/jon4hz/logicsweep/internal/scheduler"
)

// ToScanRunItem converts a database.ScanRun for API responses.
func ToScanRunItem(r database.ScanRun) ScanRunItem {
	item := ScanRunItem{
		ID:            r.ID,
		RunID:         r.RunID,
		Target:        r.Target,
		Status:        string(r.Status),
		Step:          string(r.Step),
		StartedAt:     r.StartedAt,
		StartedAgo:    timediff.TimeDiff(r.StartedAt),
		CompletedAt:   r.CompletedAt,
		EndpointCount: r.EndpointCount,
		FindingCount:  r.FindingCount,
	}
	if r.CompletedAt != nil {
		item.Duration = r.CompletedAt.Sub(r.StartedAt).Round(time.Millisecond).String()
	}
	if r.ErrorMessage != nil {
		item.ErrorMessage = *r.ErrorMessage
	}
	return item
}

// ToScanRunItems converts a slice of database.ScanRun.
func ToScanRunItems(runs []database.ScanRun) []ScanRunItem {
	return lo.Map(runs, func(r database.ScanRun, _ int) ScanRunItem {
		return ToScanRunItem(r)
	})
}

// ToFindingItem converts a database.Finding for API responses.
func ToFindingItem(f database.Finding) FindingItem {
	return FindingItem{
		ID:          f.ID,
		ScanRunID:   f.ScanRunID,
		RuleID:      f.RuleID,
		Severity:    f.Severity,
		Confidence:  f.Confidence,
		Message:     f.Message,
		CWE:         f.CWE,
		FilePath:    f.FilePath,
		Line:        f.Line,
		Language:    f.Language,
		Endpoint:    f.Endpoint,
		AIAnalyzed:  f.AIAnalyzed,
		Reasoning:   f.Reasoning,
		State:       string(f.State),
		DetectedAt:  f.CreatedAt,
		DetectedAgo: timediff.TimeDiff(f.CreatedAt),
	}
}

// ToFindingItems converts a slice of database.Finding.
func ToFindingItems(findings []database.Finding) []FindingItem {
	return lo.Map(findings, func(f database.Finding, _ int) FindingItem {
		return ToFindingItem(f)
	})
}

// ToHistoryEventItem converts a database.HistoryEvent for API responses.
func ToHistoryEventItem(e database.HistoryEvent) HistoryEventItem {
	item := HistoryEventItem{
		ID:        e.ID,
		EventType: string(e.EventType),
		EventTime: e.EventTime,
		EventAgo:  timediff.TimeDiff(e.EventTime),
		ScanRunID: e.ScanRunID,
		FindingID: e.FindingID,
	}
	if e.User != nil {
		item.Username = e.User.Username
	}
	return item
}

// ToHistoryEventItems converts a slice of database.HistoryEvent.
func ToHistoryEventItems(events []database.HistoryEvent) []HistoryEventItem {
	return lo.Map(events, func(e database.HistoryEvent, _ int) HistoryEventItem {
		return ToHistoryEventItem(e)
	})
}

// ToJobItem converts a scheduler.JobInfo for API responses.
func ToJobItem(j scheduler.JobInfo) JobItem {
	item := JobItem{
		ID:          j.ID,
		Name:        j.Name,
		Description: j.Description,
		Status:      string(j.Status),
		Schedule:    j.Schedule,
		Enabled:     j.Enabled,
		RunCount:    j.RunCount,
		ErrorCount:  j.ErrorCount,
		LastError:   j.LastError,
	}
	if !j.LastRun.IsZero() {
		item.LastRun = timediff.TimeDiff(j.LastRun)
	}
	if !j.NextRun.IsZero() {
		item.NextRun = timediff.TimeDiff(j.NextRun)
	}
	if j.LastDuration > 0 {
		item.LastDuration = j.LastDuration.Round(time.Millisecond).String()
	}
	return item
}

// ToJobItems converts the scheduler job registry, sorted by job ID.
func ToJobItems(jobs map[string]scheduler.JobInfo) []JobItem {
	items := lo.Map(lo.Values(jobs), func(j scheduler.JobInfo, _ int) JobItem {
		return ToJobItem(j)
	})
	slices.SortFunc(items, func(a, b JobItem) int {
		return strings.Compare(a.ID, b.ID)
	})
	return items
}

// ToUserItem converts a database.User for the admin user list.
func ToUserItem(u database.User) UserItem {
	item := UserItem{
		ID:              u.ID,
		Username:        u.Username,
		CanTriggerScans: u.UserPermissions.CanTriggerScans,
		CreatedAt:       u.CreatedAt,
	}
	if u.UserSettings.EmailSettings.Enabled {
		item.EmailEnabled = true
		item.Email = u.UserSettings.EmailSettings.Email
	}
	return item
}

// ToUserItems converts a slice of database.User.
func ToUserItems(users []database.User) []UserItem {
	return lo.Map(users, func(u database.User, _ int) UserItem {
		return ToUserItem(u)
	})
}
