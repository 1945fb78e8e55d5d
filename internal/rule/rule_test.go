package rule

import (
	"context"
	"errors"
	"testing"

	"github.com/jon4hz/logicsweep/internal/config"
	"github.com/jon4hz/logicsweep/internal/scanner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRule struct {
	id       string
	findings []Finding
	err      error
}

func (s *stubRule) String() string { return s.id }
func (s *stubRule) ID() string     { return s.id }
func (s *stubRule) Check(_ context.Context, _ []scanner.Endpoint) ([]Finding, error) {
	return s.findings, s.err
}

func TestRunner_CheckAll(t *testing.T) {
	r := NewRunner(
		&stubRule{id: "LOGIC-001", findings: []Finding{{RuleID: "LOGIC-001", Severity: SeverityHigh}}},
		&stubRule{id: "LOGIC-003", findings: []Finding{{RuleID: "LOGIC-003", Severity: SeverityMedium}}},
	)

	findings, err := r.CheckAll(context.Background(), nil, nil)
	require.NoError(t, err)
	require.Len(t, findings, 2)
	assert.Equal(t, "LOGIC-001", findings[0].RuleID)
	assert.Equal(t, "LOGIC-003", findings[1].RuleID)
}

func TestRunner_CheckAll_DisabledRule(t *testing.T) {
	r := NewRunner(
		&stubRule{id: "LOGIC-001", findings: []Finding{{RuleID: "LOGIC-001", Severity: SeverityHigh}}},
		&stubRule{id: "LOGIC-002", findings: []Finding{{RuleID: "LOGIC-002", Severity: SeverityHigh}}},
	)

	target := &config.TargetConfig{
		Name:  "test",
		Rules: config.RulesConfig{Disabled: []string{"logic-001"}},
	}

	findings, err := r.CheckAll(context.Background(), target, nil)
	require.NoError(t, err)
	require.Len(t, findings, 1)
	assert.Equal(t, "LOGIC-002", findings[0].RuleID)
}

func TestRunner_CheckAll_MinSeverity(t *testing.T) {
	r := NewRunner(
		&stubRule{id: "LOGIC-001", findings: []Finding{
			{RuleID: "LOGIC-001", Severity: SeverityHigh},
			{RuleID: "LOGIC-001", Severity: SeverityLow},
		}},
	)

	target := &config.TargetConfig{
		Name:  "test",
		Rules: config.RulesConfig{MinSeverity: "medium"},
	}

	findings, err := r.CheckAll(context.Background(), target, nil)
	require.NoError(t, err)
	require.Len(t, findings, 1)
	assert.Equal(t, SeverityHigh, findings[0].Severity)
}

func TestRunner_CheckAll_RuleError(t *testing.T) {
	wantErr := errors.New("boom")
	r := NewRunner(&stubRule{id: "LOGIC-001", err: wantErr})

	_, err := r.CheckAll(context.Background(), nil, nil)
	assert.ErrorIs(t, err, wantErr)
}

func TestParseSeverity(t *testing.T) {
	tests := []struct {
		input string
		want  Severity
	}{
		{"critical", SeverityCritical},
		{"high", SeverityHigh},
		{"medium", SeverityMedium},
		{"low", SeverityLow},
		{"info", SeverityInfo},
		{"unknown", Severity("")},
	}

	for _, tt := range tests {
		if got := ParseSeverity(tt.input); got != tt.want {
			t.Errorf("ParseSeverity(%q): got %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestSeverityRank(t *testing.T) {
	if SeverityCritical.Rank() <= SeverityHigh.Rank() {
		t.Error("critical should rank above high")
	}
	if SeverityInfo.Rank() <= Severity("bogus").Rank() {
		t.Error("info should rank above unknown severities")
	}
}
