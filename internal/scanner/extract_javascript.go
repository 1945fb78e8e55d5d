package scanner

import (
	"regexp"
	"strings"
)

var (
	// Express: app.get("/path", handler), router.post("/path", handler)
	jsExpressRoute = regexp.MustCompile(`(?:app|router)\.(get|post|put|delete|patch)\(\s*["']([^"']+)["']`)
	// Next.js API routes: export default function handler or export async function GET
	jsNextAPIRoute = regexp.MustCompile(`export\s+(?:default\s+)?(?:async\s+)?function\s+(\w+)`)
	// Auth middleware patterns.
	jsAuthPattern = regexp.MustCompile(`(?i)(auth|jwt|session|passport|authenticate|isAuthenticated|requireAuth|middleware.*auth)`)
)

func extractJSEndpoints(content, filePath, lang string) []Endpoint {
	lines := strings.Split(content, "\n")
	var endpoints []Endpoint

	hasFileAuth := jsAuthPattern.MatchString(content)

	for lineNum, line := range lines {
		if m := jsExpressRoute.FindStringSubmatch(line); m != nil {
			endpoints = append(endpoints, Endpoint{
				Method:   strings.ToUpper(m[1]),
				Path:     m[2],
				Handler:  jsHandlerName(line),
				FilePath: filePath,
				Line:     lineNum + 1,
				Language: lang,
				Code:     extractContext(lines, lineNum, 30),
				HasAuth:  hasFileAuth || hasLocalJSAuth(lines, lineNum),
			})
		}
	}

	// Detect Next.js API routes from the file path.
	if isNextAPIRoute(filePath) {
		for lineNum, line := range lines {
			if m := jsNextAPIRoute.FindStringSubmatch(line); m != nil {
				handler := m[1]
				method := "ANY"
				upper := strings.ToUpper(handler)
				switch upper {
				case "GET", "POST", "PUT", "DELETE", "PATCH":
					method = upper
				}
				endpoints = append(endpoints, Endpoint{
					Method:   method,
					Path:     filePath,
					Handler:  handler,
					FilePath: filePath,
					Line:     lineNum + 1,
					Language: lang,
					Code:     extractContext(lines, lineNum, 30),
					HasAuth:  hasFileAuth,
				})
			}
		}
	}

	return endpoints
}

func isNextAPIRoute(path string) bool {
	return strings.Contains(path, "/api/") && (strings.HasSuffix(path, "/route.ts") ||
		strings.HasSuffix(path, "/route.js") ||
		strings.Contains(path, "pages/api/"))
}

// jsHandlerName extracts the handler function name from an Express route line.
func jsHandlerName(line string) string {
	parts := strings.Split(line, ",")
	if len(parts) >= 2 {
		handler := strings.TrimSpace(parts[len(parts)-1])
		handler = strings.TrimRight(handler, ");")
		handler = strings.TrimSpace(handler)
		if isJSIdentifier(handler) {
			return handler
		}
	}
	return "anonymous"
}

func isJSIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, c := range s {
		if i == 0 {
			if !((c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c == '_' || c == '$') {
				return false
			}
		} else {
			if !((c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c == '_' || c == '$') {
				return false
			}
		}
	}
	return true
}

// hasLocalJSAuth checks the route line itself and the preceding middleware chain.
func hasLocalJSAuth(lines []string, lineNum int) bool {
	from := max(lineNum-3, 0)
	to := min(lineNum+1, len(lines))
	for i := from; i < to; i++ {
		if jsAuthPattern.MatchString(lines[i]) {
			return true
		}
	}
	return false
}
