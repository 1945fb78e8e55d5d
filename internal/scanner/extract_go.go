package scanner

import (
	"regexp"
	"strings"
)

var (
	// net/http: http.HandleFunc("/path", handler)
	goHTTPHandleFunc = regexp.MustCompile(`(?:http|mux|r)\.HandleFunc\(\s*"([^"]+)"\s*,\s*(\w+)`)
	// net/http: http.Handle("/path", handler)
	goHTTPHandle = regexp.MustCompile(`(?:http|mux|r)\.Handle\(\s*"([^"]+)"\s*,\s*(\w+)`)
	// gin: r.GET("/path", handler), r.POST(...), etc.
	goGinRoute = regexp.MustCompile(`(?:r|g|router|group|api)\.(?i)(GET|POST|PUT|DELETE|PATCH)\(\s*"([^"]+)"\s*,\s*(?:\w+\.)*(\w+)`)
	// echo: e.GET("/path", handler)
	goEchoRoute = regexp.MustCompile(`(?:e|echo|g|group|api)\.(?i)(GET|POST|PUT|DELETE|PATCH)\(\s*"([^"]+)"\s*,\s*(?:\w+\.)*(\w+)`)
	// fiber: app.Get("/path", handler)
	goFiberRoute = regexp.MustCompile(`(?:app|f|router|group|api)\.(?i)(Get|Post|Put|Delete|Patch)\(\s*"([^"]+)"\s*,\s*(?:\w+\.)*(\w+)`)
	// Auth middleware patterns.
	goAuthMiddleware = regexp.MustCompile(`(?i)(auth|jwt|session|token|middleware\.Auth|requireAuth|Authenticated)`)
)

func extractGoEndpoints(content, filePath string) []Endpoint {
	lines := strings.Split(content, "\n")
	var endpoints []Endpoint

	hasFileAuth := goAuthMiddleware.MatchString(content)

	for lineNum, line := range lines {
		lineNo := lineNum + 1

		var method, path, handler string
		if m := goGinRoute.FindStringSubmatch(line); m != nil {
			method, path, handler = strings.ToUpper(m[1]), m[2], m[3]
		} else if m := goEchoRoute.FindStringSubmatch(line); m != nil {
			method, path, handler = strings.ToUpper(m[1]), m[2], m[3]
		} else if m := goFiberRoute.FindStringSubmatch(line); m != nil {
			method, path, handler = strings.ToUpper(m[1]), m[2], m[3]
		} else if m := goHTTPHandleFunc.FindStringSubmatch(line); m != nil {
			method, path, handler = "ANY", m[1], m[2]
		} else if m := goHTTPHandle.FindStringSubmatch(line); m != nil {
			method, path, handler = "ANY", m[1], m[2]
		} else {
			continue
		}

		endpoints = append(endpoints, Endpoint{
			Method:   method,
			Path:     path,
			Handler:  handler,
			FilePath: filePath,
			Line:     lineNo,
			Language: "go",
			Code:     extractGoHandlerCode(lines, lineNum, handler),
			HasAuth:  hasFileAuth || hasLocalGoAuth(lines, lineNum),
		})
	}

	return endpoints
}

// extractGoHandlerCode finds the handler function body, falling back to
// context around the route registration.
func extractGoHandlerCode(lines []string, routeLine int, handlerName string) string {
	funcPattern := regexp.MustCompile(`func\s+` + regexp.QuoteMeta(handlerName) + `\s*\(`)
	for i, line := range lines {
		if funcPattern.MatchString(line) {
			return extractGoFuncBody(lines, i)
		}
	}
	return extractContext(lines, routeLine, 10)
}

// extractGoFuncBody collects a function body by brace matching, capped at 200 lines.
func extractGoFuncBody(lines []string, startLine int) string {
	var sb strings.Builder
	braceDepth := 0
	started := false
	maxLines := 200

	for i := startLine; i < len(lines) && maxLines > 0; i++ {
		sb.WriteString(lines[i])
		sb.WriteByte('\n')
		maxLines--

		braceDepth += strings.Count(lines[i], "{") - strings.Count(lines[i], "}")
		if strings.Contains(lines[i], "{") {
			started = true
		}
		if started && braceDepth <= 0 {
			break
		}
	}
	return sb.String()
}

// hasLocalGoAuth checks a few lines around the route for auth middleware references.
func hasLocalGoAuth(lines []string, lineNum int) bool {
	from := max(lineNum-5, 0)
	to := min(lineNum+3, len(lines))
	for i := from; i < to; i++ {
		if goAuthMiddleware.MatchString(lines[i]) {
			return true
		}
	}
	return false
}

// extractContext returns the lines around centerLine within the given radius.
func extractContext(lines []string, centerLine, radius int) string {
	from := max(centerLine-radius, 0)
	to := min(centerLine+radius, len(lines))

	var sb strings.Builder
	for i := from; i < to; i++ {
		sb.WriteString(lines[i])
		sb.WriteByte('\n')
	}
	return sb.String()
}
