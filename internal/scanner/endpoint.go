package scanner

import "fmt"

// Endpoint represents a discovered HTTP route handler.
type Endpoint struct {
	// Method is the HTTP method (GET, POST, ...) or "ANY" when the framework doesn't restrict it.
	Method string `json:"method"`
	// Path is the route path as declared in the source.
	Path string `json:"path"`
	// Handler is the handler function name, or "anonymous".
	Handler string `json:"handler"`
	// FilePath is the source file, relative to the target root.
	FilePath string `json:"filePath"`
	// Line is the 1-based line of the route declaration.
	Line int `json:"line"`
	// Language is the source language ("go", "python", "javascript", "typescript").
	Language string `json:"language"`
	// Code is the extracted handler body, capped at around 200 lines.
	Code string `json:"code"`
	// HasAuth indicates whether auth middleware was detected for the route.
	HasAuth bool `json:"hasAuth"`
}

// Route returns the "METHOD /path" form used in findings and reports.
func (e Endpoint) Route() string {
	return fmt.Sprintf("%s %s", e.Method, e.Path)
}
