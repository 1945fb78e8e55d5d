package scanner

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/jon4hz/logicsweep/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectLanguage(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"main.go", "go"},
		{"main_test.go", ""},
		{"app.py", "python"},
		{"server.js", "javascript"},
		{"server.ts", "typescript"},
		{"types.d.ts", ""},
		{"README.md", ""},
		{"Makefile", ""},
	}

	for _, tt := range tests {
		if got := DetectLanguage(tt.path); got != tt.want {
			t.Errorf("DetectLanguage(%q): got %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestExtractEndpoints_Flask(t *testing.T) {
	content, err := os.ReadFile(filepath.Join("testdata", "vulnerable_flask.py"))
	require.NoError(t, err)

	endpoints := ExtractEndpoints(string(content), "vulnerable_flask.py", "python")
	require.Len(t, endpoints, 3)

	assert.Equal(t, "GET", endpoints[0].Method)
	assert.Equal(t, "/api/users/<int:id>", endpoints[0].Path)
	assert.Equal(t, "get_user", endpoints[0].Handler)

	assert.Equal(t, "POST", endpoints[1].Method)
	assert.Equal(t, "/api/admin/settings", endpoints[1].Path)
	assert.Equal(t, "update_settings", endpoints[1].Handler)
	assert.Contains(t, endpoints[1].Code, "request.get_json()")

	assert.Equal(t, "POST", endpoints[2].Method)
	assert.Equal(t, "/api/users/<int:id>/profile", endpoints[2].Path)
	assert.Equal(t, "update_profile", endpoints[2].Handler)
	assert.Contains(t, endpoints[2].Code, "setattr(user, key, value)")
}

func TestExtractEndpoints_Go(t *testing.T) {
	content, err := os.ReadFile(filepath.Join("testdata", "vulnerable_go.go"))
	require.NoError(t, err)

	endpoints := ExtractEndpoints(string(content), "vulnerable_go.go", "go")
	require.Len(t, endpoints, 3)

	paths := make([]string, 0, len(endpoints))
	for _, ep := range endpoints {
		paths = append(paths, ep.Path)
		assert.Equal(t, "ANY", ep.Method)
		assert.Equal(t, "go", ep.Language)
		// The fixture has no auth middleware at all.
		assert.False(t, ep.HasAuth, "endpoint %s should have no auth", ep.Path)
	}
	assert.Contains(t, paths, "/api/users/{id}")
	assert.Contains(t, paths, "/api/admin/users")
	assert.Contains(t, paths, "/api/users/{id}/update")
}

func TestExtractEndpoints_GoHandlerBody(t *testing.T) {
	content, err := os.ReadFile(filepath.Join("testdata", "vulnerable_go.go"))
	require.NoError(t, err)

	endpoints := ExtractEndpoints(string(content), "vulnerable_go.go", "go")
	require.Len(t, endpoints, 3)

	var getUser *Endpoint
	for i := range endpoints {
		if endpoints[i].Handler == "getUser" {
			getUser = &endpoints[i]
		}
	}
	require.NotNil(t, getUser, "expected getUser endpoint")
	assert.Contains(t, getUser.Code, "db.FindUser(id)")
	assert.NotContains(t, getUser.Code, "func listUsers", "body extraction should stop at the closing brace")
}

func TestExtractEndpoints_Express(t *testing.T) {
	content, err := os.ReadFile(filepath.Join("testdata", "vulnerable_express.js"))
	require.NoError(t, err)

	endpoints := ExtractEndpoints(string(content), "vulnerable_express.js", "javascript")
	require.Len(t, endpoints, 2)

	assert.Equal(t, "GET", endpoints[0].Method)
	assert.Equal(t, "/api/invoices/:id", endpoints[0].Path)
	assert.Equal(t, "POST", endpoints[1].Method)
	assert.Equal(t, "/api/account", endpoints[1].Path)
}

func TestExtractEndpoints_GinRoutes(t *testing.T) {
	src := `package main

func setup() {
	r.GET("/api/items/:id", getItem)
	api.POST("/api/items", h.CreateItem)
}
`
	endpoints := ExtractEndpoints(src, "routes.go", "go")
	require.Len(t, endpoints, 2)
	assert.Equal(t, "GET", endpoints[0].Method)
	assert.Equal(t, "getItem", endpoints[0].Handler)
	assert.Equal(t, "POST", endpoints[1].Method)
	assert.Equal(t, "CreateItem", endpoints[1].Handler)
}

func TestDiscover(t *testing.T) {
	dir := t.TempDir()

	flask, err := os.ReadFile(filepath.Join("testdata", "vulnerable_flask.py"))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "app.py"), flask, 0o644))

	// Files in skipped directories must not be scanned.
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "node_modules"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "node_modules", "dep.js"), []byte(`app.get("/x", h)`), 0o644))

	s := New(&config.TargetConfig{Name: "test", Path: dir})
	endpoints, err := s.Discover(context.Background())
	require.NoError(t, err)
	require.Len(t, endpoints, 3)
	assert.Equal(t, "app.py", endpoints[0].FilePath)
}

func TestDiscover_LanguageFilter(t *testing.T) {
	dir := t.TempDir()

	flask, err := os.ReadFile(filepath.Join("testdata", "vulnerable_flask.py"))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "app.py"), flask, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "server.js"), []byte(`app.get("/x", handleX)`), 0o644))

	s := New(&config.TargetConfig{Name: "test", Path: dir, Languages: []string{"javascript"}})
	endpoints, err := s.Discover(context.Background())
	require.NoError(t, err)
	require.Len(t, endpoints, 1)
	assert.Equal(t, "javascript", endpoints[0].Language)
}

func TestDiscover_ExcludeDirs(t *testing.T) {
	dir := t.TempDir()

	require.NoError(t, os.MkdirAll(filepath.Join(dir, "generated"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "generated", "routes.js"), []byte(`app.get("/x", handleX)`), 0o644))

	s := New(&config.TargetConfig{Name: "test", Path: dir, ExcludeDirs: []string{"generated"}})
	endpoints, err := s.Discover(context.Background())
	require.NoError(t, err)
	assert.Empty(t, endpoints)
}

func TestDiscover_Cancelled(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "app.py"), []byte("print('hi')"), 0o644))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := New(&config.TargetConfig{Name: "test", Path: dir})
	_, err := s.Discover(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
