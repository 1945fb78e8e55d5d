// Package policy implements the gate evaluated after each scan run.
package policy

import (
	"context"

	"github.com/jon4hz/logicsweep/internal/rule"
)

// Report is the scan outcome a policy evaluates.
type Report struct {
	Target     string
	TargetPath string
	Endpoints  int
	Findings   []rule.Finding
}

// Violation describes why a policy failed the gate.
type Violation struct {
	Policy  string `json:"policy"`
	Message string `json:"message"`
}

// Policy is the interface for all gate policies.
type Policy interface {
	Name() string
	Evaluate(context.Context, Report) (*Violation, error)
}

// Engine evaluates all registered policies against a scan report.
type Engine struct {
	policies []Policy
}

// NewEngine creates a new policy engine.
func NewEngine() *Engine {
	return &Engine{
		policies: []Policy{},
	}
}

// SetPolicies sets the policies for the engine, replacing any existing ones.
func (e *Engine) SetPolicies(policies ...Policy) {
	e.policies = policies
}

// EvaluateAll runs every policy and collects violations. The gate passes only
// when no policy reports a violation.
func (e *Engine) EvaluateAll(ctx context.Context, report Report) ([]Violation, error) {
	var violations []Violation
	for _, policy := range e.policies {
		violation, err := policy.Evaluate(ctx, report)
		if err != nil {
			return nil, err
		}
		if violation != nil {
			violations = append(violations, *violation)
		}
	}
	return violations, nil
}
