// Package idorrule flags endpoints that read an ID parameter from the route
// without any visible ownership verification in the handler (CWE-639).
package idorrule

import (
	"context"
	"fmt"
	"strings"

	"github.com/jon4hz/logicsweep/internal/rule"
	"github.com/jon4hz/logicsweep/internal/scanner"
)

const ruleID = "LOGIC-001"

// Rule implements the rule.Ruler interface.
type Rule struct{}

var _ rule.Ruler = (*Rule)(nil)

// New creates a new IDOR Rule instance.
func New() *Rule {
	return &Rule{}
}

// String returns the name of the rule.
func (r *Rule) String() string { return "IDOR Rule" }

// ID returns the rule identifier.
func (r *Rule) ID() string { return ruleID }

// Check flags endpoints with an ID path parameter and no ownership check.
func (r *Rule) Check(ctx context.Context, endpoints []scanner.Endpoint) ([]rule.Finding, error) {
	var findings []rule.Finding

	for _, ep := range endpoints {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		if !HasIDParam(ep.Path) || HasOwnershipCheck(ep.Code) {
			continue
		}

		findings = append(findings, rule.Finding{
			RuleID:     ruleID,
			Severity:   rule.SeverityHigh,
			Confidence: rule.ConfidenceLow,
			Message:    fmt.Sprintf("Potential IDOR: %s %s uses ID parameter without ownership verification", ep.Method, ep.Path),
			CWE:        "CWE-639",
			FilePath:   ep.FilePath,
			Line:       ep.Line,
			Language:   ep.Language,
			Endpoint:   ep.Route(),
		})
	}

	return findings, nil
}

// HasIDParam checks if a route path contains an ID parameter.
func HasIDParam(path string) bool {
	idPatterns := []string{
		":id", "{id}", "<id>", "<int:id>",
		":user_id", "{user_id}", "<user_id>",
		":userId", "{userId}",
	}
	lower := strings.ToLower(path)
	for _, p := range idPatterns {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}

// HasOwnershipCheck looks for patterns indicating the handler verifies resource ownership.
func HasOwnershipCheck(code string) bool {
	lower := strings.ToLower(code)
	ownerPatterns := []string{
		"user_id ==", "userid ==", "owner_id", "ownerid",
		"currentuser", "current_user", "req.user",
		"getuser(", "get_user(", "authorize",
		"forbidden", "403", "unauthorized",
	}
	for _, p := range ownerPatterns {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}
