package authzrule

import (
	"context"
	"testing"

	"github.com/jon4hz/logicsweep/internal/scanner"
)

func TestIsSensitiveRoute(t *testing.T) {
	tests := []struct {
		path   string
		method string
		want   bool
	}{
		{"/api/users/:id", "GET", true},
		{"/api/admin/settings", "GET", true},
		{"/api/v1/items", "POST", true},
		{"/health", "GET", false},
		{"/api/items", "DELETE", true},
		{"/dashboard", "GET", true},
	}

	for _, tt := range tests {
		got := IsSensitiveRoute(tt.path, tt.method)
		if got != tt.want {
			t.Errorf("IsSensitiveRoute(%q, %q): got %v, want %v", tt.path, tt.method, got, tt.want)
		}
	}
}

func TestRule_Check(t *testing.T) {
	endpoints := []scanner.Endpoint{
		{Method: "POST", Path: "/api/admin/users", Handler: "createUser", HasAuth: false, Language: "go"},
		{Method: "GET", Path: "/api/items", Handler: "listItems", HasAuth: true, Language: "go"},
		{Method: "GET", Path: "/health", Handler: "health", HasAuth: false, Language: "go"},
	}

	findings, err := New().Check(context.Background(), endpoints)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(findings) != 1 {
		t.Fatalf("expected 1 finding, got %d", len(findings))
	}
	if findings[0].CWE != "CWE-862" {
		t.Errorf("expected CWE-862, got %s", findings[0].CWE)
	}
	if findings[0].Endpoint != "POST /api/admin/users" {
		t.Errorf("unexpected endpoint: %s", findings[0].Endpoint)
	}
}

func TestRule_Check_AuthProtected(t *testing.T) {
	endpoints := []scanner.Endpoint{
		{Method: "POST", Path: "/api/items", Handler: "createItem", HasAuth: true, Language: "go"},
	}

	findings, err := New().Check(context.Background(), endpoints)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(findings) != 0 {
		t.Errorf("should not report missing auth when HasAuth is true, got %d findings", len(findings))
	}
}
