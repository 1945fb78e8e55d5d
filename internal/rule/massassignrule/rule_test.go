package massassignrule

import (
	"context"
	"testing"

	"github.com/jon4hz/logicsweep/internal/scanner"
)

func TestBindsWholeBody(t *testing.T) {
	tests := []struct {
		code string
		lang string
		want bool
	}{
		{"json.NewDecoder(r.Body).Decode(&user)", "go", true},
		{"json.NewDecoder(r.Body).Decode(&user) // AllowedFields", "go", false},
		{"data = request.get_json()", "python", true},
		{"data = schema.load(request.get_json())", "python", false},
		{"const data = req.body", "javascript", true},
		{"const data = pick(req.body, allowedFields)", "javascript", false},
		{"whatever", "ruby", false},
	}

	for i, tt := range tests {
		got := BindsWholeBody(tt.code, tt.lang)
		if got != tt.want {
			t.Errorf("BindsWholeBody[%d] (%s): got %v, want %v", i, tt.lang, got, tt.want)
		}
	}
}

func TestRule_Check(t *testing.T) {
	endpoints := []scanner.Endpoint{
		{
			Method:   "PUT",
			Path:     "/api/users/:id",
			Handler:  "updateUser",
			HasAuth:  true,
			Language: "go",
			Code:     "json.NewDecoder(r.Body).Decode(&user)\ndb.Save(user)",
		},
		{
			Method:   "GET",
			Path:     "/api/users/:id",
			Handler:  "getUser",
			Language: "go",
			Code:     "json.NewDecoder(r.Body).Decode(&user)",
		},
	}

	findings, err := New().Check(context.Background(), endpoints)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(findings) != 1 {
		t.Fatalf("expected 1 finding, got %d", len(findings))
	}
	if findings[0].CWE != "CWE-915" {
		t.Errorf("expected CWE-915, got %s", findings[0].CWE)
	}
	if findings[0].RuleID != "LOGIC-003" {
		t.Errorf("expected LOGIC-003, got %s", findings[0].RuleID)
	}
}
