package engine

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/jon4hz/logicsweep/internal/config"
	"github.com/jon4hz/logicsweep/internal/database"
	"github.com/jon4hz/logicsweep/internal/notify/email"
	"github.com/jon4hz/logicsweep/internal/policy"
	"github.com/jon4hz/logicsweep/internal/rule"
	"github.com/jon4hz/logicsweep/internal/scanner"
	"golang.org/x/sync/errgroup"
)

// ScanResult is the outcome of scanning a single target.
type ScanResult struct {
	Target     string             `json:"target"`
	StartedAt  time.Time          `json:"startedAt"`
	Duration   time.Duration      `json:"duration"`
	Endpoints  []scanner.Endpoint `json:"endpoints"`
	Findings   []rule.Finding     `json:"findings"`
	Violations []policy.Violation `json:"violations"`
	GatePassed bool               `json:"gatePassed"`
	// AIError is set when the LLM pass failed and the scan degraded to
	// rule findings only.
	AIError string `json:"aiError,omitempty"`
}

// runScanJob scans all configured targets concurrently. The job is skipped
// when the volume holding the database is nearly full, since runs and
// findings could not be persisted reliably.
func (e *Engine) runScanJob(ctx context.Context) error {
	if e.cfg.Gate != nil {
		dataDir := "."
		if e.cfg.Database != nil && e.cfg.Database.Path != "" {
			dataDir = filepath.Dir(e.cfg.Database.Path)
		}
		low, err := policy.FreeBelow(ctx, dataDir, e.cfg.Gate.MinDiskFreePercent)
		if err != nil {
			log.Warn("Failed to check disk usage, running scan anyway", "path", dataDir, "error", err)
		} else if low {
			log.Warn("Skipping scheduled scan, disk nearly full", "path", dataDir, "minFreePercent", e.cfg.Gate.MinDiskFreePercent)
			return nil
		}
	}

	log.Info("Starting scheduled scan job", "targets", len(e.cfg.Targets))

	g, gctx := errgroup.WithContext(ctx)
	for _, target := range e.cfg.Targets {
		g.Go(func() error {
			_, err := e.ScanTarget(gctx, target)
			return err
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	log.Info("Scheduled scan job completed")
	return nil
}

// ScanTarget runs a full scan of one target: endpoint discovery, deterministic
// rules, the optional AI pass, the gate, persistence and notifications.
func (e *Engine) ScanTarget(ctx context.Context, target *config.TargetConfig) (*ScanResult, error) {
	start := time.Now()

	run, err := e.db.StartScanRun(ctx, target.Name)
	if err != nil {
		return nil, err
	}
	e.recordEvent(ctx, run.ID, database.HistoryEventScanStarted)

	result, scanErr := e.scan(ctx, run, target)
	if scanErr != nil {
		errMsg := scanErr.Error()
		status := database.ScanRunStatusFailed
		if ctx.Err() != nil {
			status = database.ScanRunStatusCancelled
		}
		if err := e.db.CompleteScanRun(ctx, run.ID, status, 0, 0, &errMsg); err != nil {
			log.Error("Failed to mark scan run as failed", "target", target.Name, "error", err)
		}
		e.recordEvent(ctx, run.ID, database.HistoryEventScanFailed)
		if e.ntfy != nil {
			if err := e.ntfy.SendScanFailed(ctx, target.Name, scanErr); err != nil {
				log.Error("Failed to send scan failure notification", "error", err)
			}
		}
		return nil, scanErr
	}

	result.StartedAt = run.StartedAt
	result.Duration = time.Since(start)

	// a failed LLM pass does not fail the run, but the run carries its error
	var runErr *string
	if result.AIError != "" {
		runErr = &result.AIError
	}
	if err := e.db.CompleteScanRun(ctx, run.ID, database.ScanRunStatusCompleted, len(result.Endpoints), len(result.Findings), runErr); err != nil {
		log.Error("Failed to complete scan run", "target", target.Name, "error", err)
	}
	e.recordEvent(ctx, run.ID, database.HistoryEventScanCompleted)

	e.notify(ctx, result)

	log.Info("Scan completed",
		"target", target.Name,
		"endpoints", len(result.Endpoints),
		"findings", len(result.Findings),
		"gatePassed", result.GatePassed,
		"duration", result.Duration,
	)
	return result, nil
}

func (e *Engine) scan(ctx context.Context, run *database.ScanRun, target *config.TargetConfig) (*ScanResult, error) {
	e.step(ctx, run.ID, database.ScanRunStepDiscovering)

	endpoints, err := scanner.New(target).Discover(ctx)
	if err != nil {
		return nil, err
	}
	log.Info("Discovered endpoints", "target", target.Name, "endpoints", len(endpoints))

	if err := e.cache.EndpointsCache.Set(ctx, target.Name, endpoints); err != nil {
		log.Warn("Failed to cache endpoints", "target", target.Name, "error", err)
	}

	e.step(ctx, run.ID, database.ScanRunStepRules)
	findings, err := e.runner.CheckAll(ctx, target, endpoints)
	if err != nil {
		return nil, err
	}

	var aiError string
	if e.analyzer != nil {
		e.step(ctx, run.ID, database.ScanRunStepAIAnalysis)
		aiFindings, aiErr := e.runAIAnalysis(ctx, target, endpoints)
		if aiErr != nil {
			aiError = fmt.Sprintf("AI analysis failed: %v", aiErr)
		}
		findings = append(findings, aiFindings...)
	}

	report := policy.Report{
		Target:     target.Name,
		TargetPath: target.Path,
		Endpoints:  len(endpoints),
		Findings:   findings,
	}
	violations, err := e.policy.EvaluateAll(ctx, report)
	if err != nil {
		return nil, err
	}

	e.step(ctx, run.ID, database.ScanRunStepPersisting)
	records := make([]database.Finding, len(findings))
	for i, finding := range findings {
		records[i] = database.Finding{
			RuleID:     finding.RuleID,
			Severity:   string(finding.Severity),
			Confidence: string(finding.Confidence),
			Message:    finding.Message,
			CWE:        finding.CWE,
			FilePath:   finding.FilePath,
			Line:       finding.Line,
			Language:   finding.Language,
			Endpoint:   finding.Endpoint,
			AIAnalyzed: finding.AIAnalyzed,
			Reasoning:  finding.Reasoning,
		}
	}
	if err := e.db.CreateFindings(ctx, run.ID, records); err != nil {
		return nil, err
	}
	for i := range records {
		e.recordFindingEvent(ctx, run.ID, records[i].ID, database.HistoryEventFindingOpened)
	}

	return &ScanResult{
		Target:     target.Name,
		Endpoints:  endpoints,
		Findings:   findings,
		Violations: violations,
		GatePassed: len(violations) == 0,
		AIError:    aiError,
	}, nil
}

// runAIAnalysis runs the LLM pass, serving cached verdicts for unchanged
// endpoint sets. An AI failure degrades to rule-only results instead of
// failing the scan; the returned error is recorded on the run.
func (e *Engine) runAIAnalysis(ctx context.Context, target *config.TargetConfig, endpoints []scanner.Endpoint) ([]rule.Finding, error) {
	if len(endpoints) == 0 {
		return nil, nil
	}

	key := target.Name + "-" + endpointsDigest(endpoints)
	if cached, err := e.cache.VerdictsCache.Get(ctx, key); err == nil {
		log.Debug("Using cached AI verdicts", "target", target.Name)
		return cached, nil
	}

	findings, err := e.analyzer.Analyze(ctx, endpoints)
	if err != nil {
		log.Error("AI analysis failed, continuing with rule findings only", "target", target.Name, "error", err)
		return nil, err
	}

	if err := e.cache.VerdictsCache.Set(ctx, key, findings); err != nil {
		log.Warn("Failed to cache AI verdicts", "target", target.Name, "error", err)
	}
	return findings, nil
}

func (e *Engine) notify(ctx context.Context, result *ScanResult) {
	if e.email != nil {
		items := make([]email.FindingItem, len(result.Findings))
		for i, finding := range result.Findings {
			items[i] = email.FindingItem{
				RuleID:   finding.RuleID,
				Severity: string(finding.Severity),
				Endpoint: finding.Endpoint,
				Message:  finding.Message,
			}
		}
		violations := make([]string, len(result.Violations))
		for i, violation := range result.Violations {
			violations[i] = violation.Message
		}
		report := email.ScanReport{
			Target:        result.Target,
			StartedAt:     result.StartedAt,
			Duration:      result.Duration,
			EndpointCount: len(result.Endpoints),
			Findings:      items,
			GatePassed:    result.GatePassed,
			Violations:    violations,
			ServerURL:     e.cfg.ServerURL,
		}
		if err := e.email.SendScanReport(report); err != nil {
			log.Error("Failed to send scan report email", "error", err)
		}
	}

	if e.ntfy != nil {
		if err := e.ntfy.SendScanSummary(ctx, result.Target, len(result.Endpoints), result.Findings, result.GatePassed); err != nil {
			log.Error("Failed to send ntfy scan summary", "error", err)
		}
	}

	if e.webpush != nil {
		if err := e.webpush.SendScanCompleteNotification(ctx, result.Target, len(result.Findings), result.GatePassed); err != nil {
			log.Debug("Failed to send webpush notification", "error", err)
		}
	}
}

func (e *Engine) step(ctx context.Context, runID uint, step database.ScanRunStep) {
	if err := e.db.UpdateScanRunStep(ctx, runID, step); err != nil {
		log.Warn("Failed to update scan run step", "step", step, "error", err)
	}
}

func (e *Engine) recordEvent(ctx context.Context, runID uint, eventType database.HistoryEventType) {
	event := database.HistoryEvent{
		ScanRunID: &runID,
		EventType: eventType,
		EventTime: time.Now(),
	}
	if err := e.db.CreateHistoryEvent(ctx, event); err != nil {
		log.Warn("Failed to record history event", "eventType", eventType, "error", err)
	}
}

func (e *Engine) recordFindingEvent(ctx context.Context, runID, findingID uint, eventType database.HistoryEventType) {
	event := database.HistoryEvent{
		ScanRunID: &runID,
		FindingID: &findingID,
		EventType: eventType,
		EventTime: time.Now(),
	}
	if err := e.db.CreateHistoryEvent(ctx, event); err != nil {
		log.Warn("Failed to record history event", "eventType", eventType, "finding", findingID, "error", err)
	}
}

// endpointsDigest returns a stable digest of the endpoint set, used as the AI
// verdict cache key.
func endpointsDigest(endpoints []scanner.Endpoint) string {
	data, _ := json.Marshal(endpoints)
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:8])
}
