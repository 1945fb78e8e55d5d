package policy

import (
	"context"
	"testing"

	"github.com/jon4hz/logicsweep/internal/config"
	"github.com/jon4hz/logicsweep/internal/rule"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeverityGate(t *testing.T) {
	tests := []struct {
		name         string
		failSeverity string
		findings     []rule.Finding
		wantFail     bool
	}{
		{
			name:         "no findings",
			failSeverity: "high",
			wantFail:     false,
		},
		{
			name:         "below threshold",
			failSeverity: "high",
			findings: []rule.Finding{
				{RuleID: "LOGIC-003", Severity: rule.SeverityMedium},
			},
			wantFail: false,
		},
		{
			name:         "at threshold",
			failSeverity: "high",
			findings: []rule.Finding{
				{RuleID: "LOGIC-001", Severity: rule.SeverityHigh, Endpoint: "GET /api/users/<id>"},
			},
			wantFail: true,
		},
		{
			name:         "above threshold",
			failSeverity: "high",
			findings: []rule.Finding{
				{RuleID: "LOGIC-005", Severity: rule.SeverityCritical},
			},
			wantFail: true,
		},
		{
			name:         "disabled gate",
			failSeverity: "",
			findings: []rule.Finding{
				{RuleID: "LOGIC-001", Severity: rule.SeverityCritical},
			},
			wantFail: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gate := NewSeverityGate(&config.GateConfig{FailSeverity: tt.failSeverity})
			violation, err := gate.Evaluate(context.Background(), Report{Findings: tt.findings})
			require.NoError(t, err)
			if tt.wantFail {
				require.NotNil(t, violation)
				assert.Equal(t, "severity-gate", violation.Policy)
			} else {
				assert.Nil(t, violation)
			}
		})
	}
}

func TestFindingBudget(t *testing.T) {
	budget := NewFindingBudget(&config.GateConfig{MaxFindings: 2})

	violation, err := budget.Evaluate(context.Background(), Report{
		Findings: []rule.Finding{{RuleID: "a"}, {RuleID: "b"}},
	})
	require.NoError(t, err)
	assert.Nil(t, violation)

	violation, err = budget.Evaluate(context.Background(), Report{
		Findings: []rule.Finding{{RuleID: "a"}, {RuleID: "b"}, {RuleID: "c"}},
	})
	require.NoError(t, err)
	require.NotNil(t, violation)
	assert.Contains(t, violation.Message, "exceed")
}

func TestFindingBudget_Disabled(t *testing.T) {
	budget := NewFindingBudget(&config.GateConfig{})

	violation, err := budget.Evaluate(context.Background(), Report{
		Findings: make([]rule.Finding, 100),
	})
	require.NoError(t, err)
	assert.Nil(t, violation)
}

func TestDiskFree_Disabled(t *testing.T) {
	policy := NewDiskFree(&config.GateConfig{})

	violation, err := policy.Evaluate(context.Background(), Report{TargetPath: t.TempDir()})
	require.NoError(t, err)
	assert.Nil(t, violation)
}

func TestFreeBelow(t *testing.T) {
	// disabled threshold never reports low disk
	low, err := FreeBelow(context.Background(), t.TempDir(), 0)
	require.NoError(t, err)
	assert.False(t, low)

	// an unsatisfiable threshold always reports low disk
	low, err = FreeBelow(context.Background(), t.TempDir(), 101)
	require.NoError(t, err)
	assert.True(t, low)
}

func TestEngine_EvaluateAll(t *testing.T) {
	engine := NewEngine()
	engine.SetPolicies(
		NewSeverityGate(&config.GateConfig{FailSeverity: "high"}),
		NewFindingBudget(&config.GateConfig{MaxFindings: 1}),
	)

	violations, err := engine.EvaluateAll(context.Background(), Report{
		Findings: []rule.Finding{
			{RuleID: "LOGIC-001", Severity: rule.SeverityHigh},
			{RuleID: "LOGIC-003", Severity: rule.SeverityMedium},
		},
	})
	require.NoError(t, err)
	assert.Len(t, violations, 2)
}

func TestEngine_EvaluateAll_Empty(t *testing.T) {
	engine := NewEngine()

	violations, err := engine.EvaluateAll(context.Background(), Report{})
	require.NoError(t, err)
	assert.Empty(t, violations)
}
