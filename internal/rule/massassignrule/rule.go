// Package massassignrule flags write endpoints that bind the whole request
// body onto a model without field filtering (CWE-915).
package massassignrule

import (
	"context"
	"fmt"
	"strings"

	"github.com/jon4hz/logicsweep/internal/rule"
	"github.com/jon4hz/logicsweep/internal/scanner"
)

const ruleID = "LOGIC-003"

// Rule implements the rule.Ruler interface.
type Rule struct{}

var _ rule.Ruler = (*Rule)(nil)

// New creates a new mass-assignment Rule instance.
func New() *Rule {
	return &Rule{}
}

// String returns the name of the rule.
func (r *Rule) String() string { return "Mass Assignment Rule" }

// ID returns the rule identifier.
func (r *Rule) ID() string { return ruleID }

// Check flags write endpoints that bind the request body without field filtering.
func (r *Rule) Check(ctx context.Context, endpoints []scanner.Endpoint) ([]rule.Finding, error) {
	var findings []rule.Finding

	for _, ep := range endpoints {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		if ep.Method != "POST" && ep.Method != "PUT" && ep.Method != "PATCH" {
			continue
		}
		if !BindsWholeBody(ep.Code, ep.Language) {
			continue
		}

		findings = append(findings, rule.Finding{
			RuleID:     ruleID,
			Severity:   rule.SeverityMedium,
			Confidence: rule.ConfidenceLow,
			Message:    fmt.Sprintf("Potential mass assignment: %s %s binds request body to model without field filtering", ep.Method, ep.Path),
			CWE:        "CWE-915",
			FilePath:   ep.FilePath,
			Line:       ep.Line,
			Language:   ep.Language,
			Endpoint:   ep.Route(),
		})
	}

	return findings, nil
}

// BindsWholeBody detects request body binding without explicit field selection.
func BindsWholeBody(code, lang string) bool {
	switch lang {
	case "go":
		return strings.Contains(code, "json.NewDecoder") && !strings.Contains(code, "AllowedFields")
	case "python":
		return (strings.Contains(code, "request.get_json()") || strings.Contains(code, "request.json")) &&
			!strings.Contains(code, "schema") && !strings.Contains(code, "validate")
	case "javascript", "typescript":
		return strings.Contains(code, "req.body") &&
			!strings.Contains(code, "pick(") && !strings.Contains(code, "allowedFields") &&
			!strings.Contains(code, "schema") && !strings.Contains(code, "validate")
	}
	return false
}
