package rule

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/jon4hz/logicsweep/internal/config"
	"github.com/jon4hz/logicsweep/internal/scanner"
)

// Ruler defines the interface for endpoint detection rules.
type Ruler interface {
	fmt.Stringer
	// ID returns the stable rule identifier (e.g. "LOGIC-001").
	ID() string
	// Check inspects the endpoints and returns any findings.
	Check(context.Context, []scanner.Endpoint) ([]Finding, error)
}

// Runner applies all provided rules sequentially to discovered endpoints.
type Runner struct {
	rules []Ruler
}

// NewRunner creates a new Runner instance with the given rules.
func NewRunner(rules ...Ruler) *Runner {
	return &Runner{
		rules: rules,
	}
}

// Rules returns the configured rules.
func (r *Runner) Rules() []Ruler {
	return r.rules
}

// CheckAll applies all rules sequentially to the provided endpoints, honoring
// the target's rule configuration (disabled rules, minimum severity).
func (r *Runner) CheckAll(ctx context.Context, target *config.TargetConfig, endpoints []scanner.Endpoint) ([]Finding, error) {
	var findings []Finding

	for _, rl := range r.rules {
		if target != nil && target.RuleDisabled(rl.ID()) {
			log.Debug("Rule disabled for target.", "rule", rl.String(), "target", target.Name)
			continue
		}

		log.Info("Applying rule to endpoints.", "rule", rl.String(), "endpoints", len(endpoints))
		found, err := rl.Check(ctx, endpoints)
		if err != nil {
			log.Error("Failed to apply rule.", "rule", rl.String(), "error", err)
			return nil, err
		}
		log.Info("Rule applied successfully.", "rule", rl.String(), "findings", len(found))
		findings = append(findings, found...)
	}

	if target != nil && target.Rules.MinSeverity != "" {
		minRank := config.SeverityRank(target.Rules.MinSeverity)
		kept := findings[:0]
		for _, f := range findings {
			if f.Severity.Rank() >= minRank {
				kept = append(kept, f)
			}
		}
		findings = kept
	}

	return findings, nil
}
