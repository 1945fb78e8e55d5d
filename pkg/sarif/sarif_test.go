package sarif

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/jon4hz/logicsweep/internal/rule"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevel(t *testing.T) {
	assert.Equal(t, "error", Level(rule.SeverityCritical))
	assert.Equal(t, "error", Level(rule.SeverityHigh))
	assert.Equal(t, "warning", Level(rule.SeverityMedium))
	assert.Equal(t, "note", Level(rule.SeverityLow))
	assert.Equal(t, "note", Level(rule.SeverityInfo))
}

func TestFromFindings(t *testing.T) {
	findings := []rule.Finding{
		{
			RuleID:   "LOGIC-001",
			Severity: rule.SeverityHigh,
			Message:  "IDOR on GET /api/users/<id>",
			CWE:      "CWE-639",
			FilePath: "app.py",
			Line:     10,
		},
		{
			RuleID:   "LOGIC-001",
			Severity: rule.SeverityHigh,
			Message:  "IDOR on GET /api/invoices/<id>",
			CWE:      "CWE-639",
			FilePath: "billing.py",
			Line:     4,
		},
		{
			RuleID:   "LOGIC-003",
			Severity: rule.SeverityMedium,
			Message:  "mass assignment",
			CWE:      "CWE-915",
		},
	}

	doc := FromFindings(findings)
	require.Len(t, doc.Runs, 1)

	run := doc.Runs[0]
	assert.Equal(t, "logicsweep", run.Tool.Driver.Name)

	// duplicate rule IDs collapse into one descriptor
	require.Len(t, run.Tool.Driver.Rules, 2)
	assert.Equal(t, "LOGIC-001", run.Tool.Driver.Rules[0].ID)
	assert.Equal(t, "CWE-639", run.Tool.Driver.Rules[0].Properties.CWE)

	require.Len(t, run.Results, 3)
	assert.Equal(t, "error", run.Results[0].Level)
	require.Len(t, run.Results[0].Locations, 1)
	assert.Equal(t, "app.py", run.Results[0].Locations[0].PhysicalLocation.ArtifactLocation.URI)
	assert.Equal(t, 10, run.Results[0].Locations[0].PhysicalLocation.Region.StartLine)

	// finding without file path has no location
	assert.Empty(t, run.Results[2].Locations)
}

func TestFromFindings_Empty(t *testing.T) {
	doc := FromFindings(nil)
	require.Len(t, doc.Runs, 1)
	assert.Empty(t, doc.Runs[0].Results)
}

func TestWrite(t *testing.T) {
	var buf bytes.Buffer
	err := Write(&buf, []rule.Finding{
		{RuleID: "LOGIC-002", Severity: rule.SeverityHigh, Message: "missing auth", FilePath: "main.go", Line: 20},
	})
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "2.1.0", decoded["version"])
	assert.Contains(t, decoded, "$schema")
}
