// Package authzrule flags sensitive endpoints that have no detectable auth
// middleware (CWE-862).
package authzrule

import (
	"context"
	"fmt"
	"strings"

	"github.com/jon4hz/logicsweep/internal/rule"
	"github.com/jon4hz/logicsweep/internal/scanner"
)

const ruleID = "LOGIC-002"

// Rule implements the rule.Ruler interface.
type Rule struct{}

var _ rule.Ruler = (*Rule)(nil)

// New creates a new missing-authorization Rule instance.
func New() *Rule {
	return &Rule{}
}

// String returns the name of the rule.
func (r *Rule) String() string { return "Missing Authorization Rule" }

// ID returns the rule identifier.
func (r *Rule) ID() string { return ruleID }

// Check flags sensitive routes whose handlers carry no auth middleware.
func (r *Rule) Check(ctx context.Context, endpoints []scanner.Endpoint) ([]rule.Finding, error) {
	var findings []rule.Finding

	for _, ep := range endpoints {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		if ep.HasAuth || !IsSensitiveRoute(ep.Path, ep.Method) {
			continue
		}

		findings = append(findings, rule.Finding{
			RuleID:     ruleID,
			Severity:   rule.SeverityHigh,
			Confidence: rule.ConfidenceMedium,
			Message:    fmt.Sprintf("Missing authorization: %s %s handler '%s' has no auth middleware", ep.Method, ep.Path, ep.Handler),
			CWE:        "CWE-862",
			FilePath:   ep.FilePath,
			Line:       ep.Line,
			Language:   ep.Language,
			Endpoint:   ep.Route(),
		})
	}

	return findings, nil
}

// IsSensitiveRoute detects routes that typically require authorization.
func IsSensitiveRoute(path, method string) bool {
	// Write operations are sensitive.
	if method == "POST" || method == "PUT" || method == "DELETE" || method == "PATCH" {
		return true
	}

	sensitivePaths := []string{
		"/admin", "/user", "/account", "/profile",
		"/settings", "/dashboard", "/api/v",
	}
	lower := strings.ToLower(path)
	for _, s := range sensitivePaths {
		if strings.Contains(lower, s) {
			return true
		}
	}
	return false
}
