package scanner

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/jon4hz/logicsweep/internal/config"
)

// defaultSkippedDirs contains directory names that are always skipped during the walk.
var defaultSkippedDirs = map[string]bool{
	".git":         true,
	"vendor":       true,
	"node_modules": true,
	"__pycache__":  true,
	".venv":        true,
}

// Scanner discovers HTTP route handlers in a source tree.
type Scanner struct {
	target *config.TargetConfig
}

// New creates a new Scanner for the given target.
func New(target *config.TargetConfig) *Scanner {
	return &Scanner{target: target}
}

// Discover walks the target's source tree and returns all discovered endpoints.
// File paths in the result are relative to the target root.
func (s *Scanner) Discover(ctx context.Context) ([]Endpoint, error) {
	root := s.target.Path
	var endpoints []Endpoint

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			log.Debug("Skipping unreadable path", "path", path, "error", err)
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() {
			if s.skipDir(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}

		lang := DetectLanguage(path)
		if lang == "" || !s.target.ScansLanguage(lang) {
			return nil
		}

		content, err := os.ReadFile(path)
		if err != nil {
			log.Debug("Skipping unreadable file", "path", path, "error", err)
			return nil
		}

		relPath, err := filepath.Rel(root, path)
		if err != nil || relPath == "" {
			relPath = path
		}

		found := ExtractEndpoints(string(content), relPath, lang)
		endpoints = append(endpoints, found...)
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Debug("Endpoint discovery finished", "target", s.target.Name, "endpoints", len(endpoints))
	return endpoints, nil
}

func (s *Scanner) skipDir(name string) bool {
	if defaultSkippedDirs[name] {
		return true
	}
	for _, d := range s.target.ExcludeDirs {
		if d == name {
			return true
		}
	}
	return false
}

// DetectLanguage returns the language for a file, or empty string if unsupported.
// Test files and type declaration files are skipped.
func DetectLanguage(path string) string {
	switch filepath.Ext(path) {
	case ".go":
		if strings.HasSuffix(path, "_test.go") {
			return ""
		}
		return "go"
	case ".py":
		return "python"
	case ".js":
		return "javascript"
	case ".ts":
		if strings.HasSuffix(path, ".d.ts") {
			return ""
		}
		return "typescript"
	}
	return ""
}

// ExtractEndpoints extracts HTTP route definitions from source code.
func ExtractEndpoints(content, filePath, lang string) []Endpoint {
	switch lang {
	case "go":
		return extractGoEndpoints(content, filePath)
	case "python":
		return extractPythonEndpoints(content, filePath)
	case "javascript", "typescript":
		return extractJSEndpoints(content, filePath, lang)
	}
	return nil
}
