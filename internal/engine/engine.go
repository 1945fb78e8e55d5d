// Package engine wires the scanner, rules, AI pass, gate and notifications
// into scheduled scan runs.
package engine

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/go-co-op/gocron/v2"
	"github.com/jon4hz/logicsweep/internal/ai"
	"github.com/jon4hz/logicsweep/internal/cache"
	"github.com/jon4hz/logicsweep/internal/config"
	"github.com/jon4hz/logicsweep/internal/database"
	"github.com/jon4hz/logicsweep/internal/notify/email"
	"github.com/jon4hz/logicsweep/internal/notify/ntfy"
	"github.com/jon4hz/logicsweep/internal/notify/webpush"
	"github.com/jon4hz/logicsweep/internal/policy"
	"github.com/jon4hz/logicsweep/internal/rule"
	"github.com/jon4hz/logicsweep/internal/rule/authzrule"
	"github.com/jon4hz/logicsweep/internal/rule/idorrule"
	"github.com/jon4hz/logicsweep/internal/rule/massassignrule"
	"github.com/jon4hz/logicsweep/internal/scanner"
	"github.com/jon4hz/logicsweep/internal/scheduler"
)

// Analyzer runs the AI analysis pass over discovered endpoints.
type Analyzer interface {
	Analyze(ctx context.Context, endpoints []scanner.Endpoint) ([]rule.Finding, error)
}

// Engine is the main engine for Logicsweep. It runs scheduled scans over all
// configured targets and serves results to the API layer.
type Engine struct {
	cfg       *config.Config
	db        database.DB
	runner    *rule.Runner
	analyzer  Analyzer
	policy    *policy.Engine
	email     *email.NotificationService
	ntfy      *ntfy.Client
	webpush   *webpush.Client
	scheduler *scheduler.Scheduler
	cache     *cache.ScanCache
}

// New creates a new Engine instance.
func New(ctx context.Context, cfg *config.Config, db database.DB) (*Engine, error) {
	sched, err := scheduler.New()
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	runner := rule.NewRunner(
		idorrule.New(),
		authzrule.New(),
		massassignrule.New(),
	)

	var analyzer Analyzer
	if cfg.AI != nil && cfg.AI.Enabled {
		analyzer, err = ai.New(ctx, cfg.AI)
		if err != nil {
			return nil, fmt.Errorf("failed to create AI analyzer: %w", err)
		}
	} else {
		log.Info("AI analysis is disabled, running deterministic rules only")
	}

	policyEngine := policy.NewEngine()
	if cfg.Gate != nil {
		policyEngine.SetPolicies(
			policy.NewSeverityGate(cfg.Gate),
			policy.NewFindingBudget(cfg.Gate),
			policy.NewDiskFree(cfg.Gate),
		)
	}

	var emailService *email.NotificationService
	if cfg.Email != nil {
		emailService = email.New(cfg.Email)
	}

	var ntfyClient *ntfy.Client
	if cfg.Ntfy != nil && cfg.Ntfy.Enabled {
		ntfyClient = ntfy.NewClient(cfg.Ntfy)
	}

	var webpushClient *webpush.Client
	if cfg.WebPush != nil && cfg.WebPush.Enabled {
		webpushClient = webpush.NewClient(cfg.WebPush)
	}

	engine := &Engine{
		cfg:       cfg,
		db:        db,
		runner:    runner,
		analyzer:  analyzer,
		policy:    policyEngine,
		email:     emailService,
		ntfy:      ntfyClient,
		webpush:   webpushClient,
		scheduler: sched,
		cache:     cache.NewScanCache(cfg.Cache),
	}

	if err := engine.setupJobs(); err != nil {
		return nil, fmt.Errorf("failed to setup jobs: %w", err)
	}

	return engine, nil
}

// GetScheduler returns the scheduler instance for API access.
func (e *Engine) GetScheduler() *scheduler.Scheduler {
	return e.scheduler
}

// GetCacheStats returns statistics for the scan caches.
func (e *Engine) GetCacheStats() []*cache.Stats {
	return e.cache.GetStats()
}

// GetWebPushClient returns the webpush client, or nil when webpush is disabled.
func (e *Engine) GetWebPushClient() *webpush.Client {
	return e.webpush
}

// TriggerScan manually starts the scan job.
func (e *Engine) TriggerScan() error {
	return e.scheduler.RunJobNow("scan")
}

// Run starts the engine and all its background jobs.
func (e *Engine) Run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	e.scheduler.Start()

	<-ctx.Done()
	return nil
}

// Close stops the engine and cleans up resources.
func (e *Engine) Close() error {
	return e.scheduler.Stop()
}

// setupJobs configures all scheduled jobs.
func (e *Engine) setupJobs() error {
	scanJobDef := gocron.CronJob(e.cfg.ScanSchedule, false)
	if err := e.scheduler.AddSingletonJob(
		"scan",
		"Endpoint Scan",
		"Scans all configured targets for business logic vulnerabilities",
		e.cfg.ScanSchedule,
		scanJobDef,
		e.runScanJob,
		e.cfg.ScanOnStartup,
	); err != nil {
		return fmt.Errorf("failed to add scan job: %w", err)
	}

	// Clear the AI verdict cache once a week so stale analysis doesn't linger
	clearCacheJobDef := gocron.CronJob("0 0 * * 0", false)
	if err := e.scheduler.AddSingletonJob(
		"clear_verdict_cache",
		"Clear AI Verdict Cache",
		"Clears cached AI verdicts to force fresh analysis",
		"0 0 * * 0",
		clearCacheJobDef,
		func(ctx context.Context) error {
			return e.cache.VerdictsCache.Clear(ctx)
		},
		false,
	); err != nil {
		return fmt.Errorf("failed to add clear cache job: %w", err)
	}

	log.Info("Scheduled jobs configured successfully")
	return nil
}
