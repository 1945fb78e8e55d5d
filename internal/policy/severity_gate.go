package policy

import (
	"context"
	"fmt"

	"github.com/jon4hz/logicsweep/internal/config"
	"github.com/jon4hz/logicsweep/internal/rule"
)

// SeverityGate fails the gate when any finding reaches the configured severity.
type SeverityGate struct {
	failSeverity string
}

var _ Policy = (*SeverityGate)(nil)

// NewSeverityGate creates a new SeverityGate from the gate configuration.
func NewSeverityGate(cfg *config.GateConfig) *SeverityGate {
	return &SeverityGate{
		failSeverity: cfg.FailSeverity,
	}
}

func (p *SeverityGate) Name() string { return "severity-gate" }

func (p *SeverityGate) Evaluate(_ context.Context, report Report) (*Violation, error) {
	if p.failSeverity == "" {
		return nil, nil
	}
	threshold := config.SeverityRank(p.failSeverity)

	var worst rule.Finding
	var count int
	for _, finding := range report.Findings {
		if config.SeverityRank(string(finding.Severity)) >= threshold {
			count++
			if worst.RuleID == "" || finding.Severity.Rank() > worst.Severity.Rank() {
				worst = finding
			}
		}
	}
	if count == 0 {
		return nil, nil
	}

	return &Violation{
		Policy: p.Name(),
		Message: fmt.Sprintf("%d finding(s) at or above %s severity (worst: %s %s on %s)",
			count, p.failSeverity, worst.Severity, worst.RuleID, worst.Endpoint),
	}, nil
}

// FindingBudget fails the gate when the total finding count exceeds the budget.
type FindingBudget struct {
	maxFindings int
}

var _ Policy = (*FindingBudget)(nil)

// NewFindingBudget creates a new FindingBudget from the gate configuration.
func NewFindingBudget(cfg *config.GateConfig) *FindingBudget {
	return &FindingBudget{
		maxFindings: cfg.MaxFindings,
	}
}

func (p *FindingBudget) Name() string { return "finding-budget" }

func (p *FindingBudget) Evaluate(_ context.Context, report Report) (*Violation, error) {
	if p.maxFindings <= 0 {
		return nil, nil
	}
	if len(report.Findings) <= p.maxFindings {
		return nil, nil
	}

	return &Violation{
		Policy:  p.Name(),
		Message: fmt.Sprintf("%d findings exceed the allowed maximum of %d", len(report.Findings), p.maxFindings),
	}, nil
}
