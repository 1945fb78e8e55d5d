package engine

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/jon4hz/logicsweep/internal/config"
	"github.com/jon4hz/logicsweep/internal/database"
	"github.com/jon4hz/logicsweep/internal/database/mock"
	"github.com/jon4hz/logicsweep/internal/rule"
	"github.com/jon4hz/logicsweep/internal/scanner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const vulnerableApp = `from flask import Flask, request, jsonify

app = Flask(__name__)

@app.route("/api/invoices/<int:id>", methods=["GET"])
def fetch_invoice(id):
    invoice = Invoice.query.get(id)
    return jsonify(invoice.to_dict())

@app.post("/api/invoices/<int:id>")
def update_invoice(id):
    data = request.get_json()
    invoice = Invoice.query.get(id)
    for key, value in data.items():
        setattr(invoice, key, value)
    db.session.commit()
    return jsonify(invoice.to_dict())
`

type stubAnalyzer struct {
	findings []rule.Finding
	err      error
	calls    int
}

func (s *stubAnalyzer) Analyze(_ context.Context, _ []scanner.Endpoint) ([]rule.Finding, error) {
	s.calls++
	return s.findings, s.err
}

func newTestEngine(t *testing.T, db database.DB) *Engine {
	t.Helper()

	cfg := &config.Config{
		ScanSchedule: "0 */6 * * *",
		Gate:         &config.GateConfig{FailSeverity: "high"},
	}

	engine, err := New(context.Background(), cfg, db)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = engine.Close()
	})
	return engine
}

func writeTarget(t *testing.T) *config.TargetConfig {
	t.Helper()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "app.py"), []byte(vulnerableApp), 0o644))

	return &config.TargetConfig{
		Name: "billing",
		Path: dir,
	}
}

func TestScanTarget(t *testing.T) {
	db := mock.NewMockDB()
	engine := newTestEngine(t, db)
	target := writeTarget(t)

	result, err := engine.ScanTarget(context.Background(), target)
	require.NoError(t, err)

	assert.Equal(t, "billing", result.Target)
	assert.Len(t, result.Endpoints, 2)

	ruleIDs := make(map[string]int)
	for _, finding := range result.Findings {
		ruleIDs[finding.RuleID]++
	}
	// both endpoints carry the ID parameter without ownership checks
	assert.Equal(t, 2, ruleIDs["LOGIC-001"])
	// the POST handler has no auth middleware
	assert.Equal(t, 1, ruleIDs["LOGIC-002"])
	// the POST handler binds the whole request body
	assert.Equal(t, 1, ruleIDs["LOGIC-003"])

	// high severity findings fail the gate
	assert.False(t, result.GatePassed)
	require.NotEmpty(t, result.Violations)
	assert.Equal(t, "severity-gate", result.Violations[0].Policy)

	// run persisted as completed with findings attached
	run, err := db.GetScanRun(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, database.ScanRunStatusCompleted, run.Status)
	assert.Equal(t, 2, run.EndpointCount)
	assert.Equal(t, len(result.Findings), run.FindingCount)

	persisted, err := db.GetFindingsForRun(context.Background(), run.ID)
	require.NoError(t, err)
	assert.Len(t, persisted, len(result.Findings))
	for _, finding := range persisted {
		assert.Equal(t, database.FindingStateOpen, finding.State)
	}

	// start, one opened event per finding, completion
	events := db.HistoryEvents()
	require.Len(t, events, len(result.Findings)+2)
	assert.Equal(t, database.HistoryEventScanStarted, events[0].EventType)
	for _, event := range events[1 : len(events)-1] {
		assert.Equal(t, database.HistoryEventFindingOpened, event.EventType)
		require.NotNil(t, event.FindingID)
	}
	assert.Equal(t, database.HistoryEventScanCompleted, events[len(events)-1].EventType)
}

func TestScanTarget_AIAnalysis(t *testing.T) {
	db := mock.NewMockDB()
	engine := newTestEngine(t, db)
	target := writeTarget(t)

	analyzer := &stubAnalyzer{
		findings: []rule.Finding{
			{
				RuleID:     "LOGIC-004",
				Severity:   rule.SeverityHigh,
				Confidence: rule.ConfidenceMedium,
				Message:    "race condition on invoice update",
				Endpoint:   "POST /api/invoices/<int:id>",
				AIAnalyzed: true,
			},
		},
	}
	engine.analyzer = analyzer

	result, err := engine.ScanTarget(context.Background(), target)
	require.NoError(t, err)
	assert.Equal(t, 1, analyzer.calls)

	var aiFindings int
	for _, finding := range result.Findings {
		if finding.AIAnalyzed {
			aiFindings++
		}
	}
	assert.Equal(t, 1, aiFindings)

	// second scan of the unchanged target serves verdicts from cache
	_, err = engine.ScanTarget(context.Background(), target)
	require.NoError(t, err)
	assert.Equal(t, 1, analyzer.calls)
}

func TestScanTarget_AIFailureDegrades(t *testing.T) {
	db := mock.NewMockDB()
	engine := newTestEngine(t, db)
	target := writeTarget(t)

	engine.analyzer = &stubAnalyzer{err: errors.New("quota exceeded")}

	result, err := engine.ScanTarget(context.Background(), target)
	require.NoError(t, err)

	// rule findings survive an AI failure
	require.NotEmpty(t, result.Findings)
	for _, finding := range result.Findings {
		assert.False(t, finding.AIAnalyzed)
	}

	// the run completes but carries the AI error
	assert.Contains(t, result.AIError, "quota exceeded")

	run, err := db.GetScanRun(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, database.ScanRunStatusCompleted, run.Status)
	require.NotNil(t, run.ErrorMessage)
	assert.Contains(t, *run.ErrorMessage, "quota exceeded")
}

func TestRunScanJob_SkipsWhenDiskLow(t *testing.T) {
	db := mock.NewMockDB()
	target := writeTarget(t)

	cfg := &config.Config{
		ScanSchedule: "0 */6 * * *",
		Targets:      []*config.TargetConfig{target},
		Database:     &config.DatabaseConfig{Path: filepath.Join(t.TempDir(), "logicsweep.db")},
		Gate:         &config.GateConfig{FailSeverity: "high", MinDiskFreePercent: 101},
	}

	engine, err := New(context.Background(), cfg, db)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = engine.Close()
	})

	require.NoError(t, engine.runScanJob(context.Background()))

	// no runs started while the data volume is below the threshold
	runs, total, err := db.GetScanRunHistory(context.Background(), 1, 10)
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, runs)
}

func TestScanTarget_DiscoverError(t *testing.T) {
	db := mock.NewMockDB()
	engine := newTestEngine(t, db)

	target := &config.TargetConfig{
		Name: "missing",
		Path: filepath.Join(t.TempDir(), "does-not-exist"),
	}

	_, err := engine.ScanTarget(context.Background(), target)
	require.Error(t, err)

	run, getErr := db.GetScanRun(context.Background(), 1)
	require.NoError(t, getErr)
	assert.Equal(t, database.ScanRunStatusFailed, run.Status)
	require.NotNil(t, run.ErrorMessage)

	events := db.HistoryEvents()
	require.Len(t, events, 2)
	assert.Equal(t, database.HistoryEventScanStarted, events[0].EventType)
	assert.Equal(t, database.HistoryEventScanFailed, events[1].EventType)
}

func TestScanTarget_StartRunError(t *testing.T) {
	db := mock.NewMockDB()
	db.StartScanRunError = errors.New("db locked")
	engine := newTestEngine(t, db)
	target := writeTarget(t)

	_, err := engine.ScanTarget(context.Background(), target)
	require.ErrorContains(t, err, "db locked")
}
