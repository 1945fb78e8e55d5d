package scanner

import (
	"regexp"
	"strings"
)

var (
	// Flask: @app.route("/path", methods=["GET"])
	pyFlaskRoute = regexp.MustCompile(`@(?:app|blueprint|bp)\.route\(\s*["']([^"']+)["'](?:\s*,\s*methods=\[([^\]]+)\])?`)
	// Flask shorthand: @app.get("/path")
	pyFlaskMethod = regexp.MustCompile(`@(?:app|blueprint|bp)\.(get|post|put|delete|patch)\(\s*["']([^"']+)["']`)
	// Django: path("route", view)
	pyDjangoPath = regexp.MustCompile(`path\(\s*["']([^"']+)["']\s*,\s*(\w+)`)
	// FastAPI: @app.get("/path")
	pyFastAPIRoute = regexp.MustCompile(`@(?:app|router)\.(get|post|put|delete|patch)\(\s*["']([^"']+)["']`)
	// Python function def following a decorator.
	pyFuncDef = regexp.MustCompile(`^\s*(?:async\s+)?def\s+(\w+)`)
	// Auth patterns.
	pyAuthPattern = regexp.MustCompile(`(?i)(login_required|auth|permission|jwt|token|@require|authenticate|IsAuthenticated)`)
)

func extractPythonEndpoints(content, filePath string) []Endpoint {
	lines := strings.Split(content, "\n")
	var endpoints []Endpoint

	for lineNum, line := range lines {
		lineNo := lineNum + 1

		var method, path, handler string
		isRoute := false

		if m := pyFastAPIRoute.FindStringSubmatch(line); m != nil {
			method = strings.ToUpper(m[1])
			path = m[2]
			isRoute = true
		} else if m := pyFlaskMethod.FindStringSubmatch(line); m != nil {
			method = strings.ToUpper(m[1])
			path = m[2]
			isRoute = true
		} else if m := pyFlaskRoute.FindStringSubmatch(line); m != nil {
			path = m[1]
			method = pyMethodsFromList(m[2])
			isRoute = true
		} else if m := pyDjangoPath.FindStringSubmatch(line); m != nil {
			path = m[1]
			handler = m[2]
			method = "ANY"
			isRoute = true
		}

		if !isRoute {
			continue
		}

		// Look for the function def after the decorator.
		if handler == "" {
			for j := lineNum + 1; j < len(lines) && j < lineNum+5; j++ {
				if m := pyFuncDef.FindStringSubmatch(lines[j]); m != nil {
					handler = m[1]
					break
				}
			}
		}

		hasAuth := pyAuthPattern.MatchString(content) || hasLocalPyAuth(lines, lineNum)

		endpoints = append(endpoints, Endpoint{
			Method:   method,
			Path:     path,
			Handler:  handler,
			FilePath: filePath,
			Line:     lineNo,
			Language: "python",
			Code:     extractPyHandlerCode(lines, lineNum),
			HasAuth:  hasAuth,
		})
	}

	return endpoints
}

func pyMethodsFromList(methodStr string) string {
	if methodStr == "" {
		return "ANY"
	}
	methodStr = strings.ReplaceAll(methodStr, "'", "")
	methodStr = strings.ReplaceAll(methodStr, "\"", "")
	return strings.TrimSpace(methodStr)
}

// extractPyHandlerCode extracts the indented function body following the decorator.
func extractPyHandlerCode(lines []string, routeLine int) string {
	funcStart := -1
	for i := routeLine; i < len(lines) && i < routeLine+5; i++ {
		if pyFuncDef.MatchString(lines[i]) {
			funcStart = i
			break
		}
	}
	if funcStart == -1 {
		return extractContext(lines, routeLine, 10)
	}

	var sb strings.Builder
	sb.WriteString(lines[funcStart])
	sb.WriteByte('\n')

	indent := len(lines[funcStart]) - len(strings.TrimLeft(lines[funcStart], " \t"))
	maxLines := 200

	for i := funcStart + 1; i < len(lines) && maxLines > 0; i++ {
		trimmed := strings.TrimSpace(lines[i])
		if trimmed == "" || trimmed[0] == '#' {
			sb.WriteString(lines[i])
			sb.WriteByte('\n')
			maxLines--
			continue
		}
		lineIndent := len(lines[i]) - len(strings.TrimLeft(lines[i], " \t"))
		if lineIndent <= indent {
			break
		}
		sb.WriteString(lines[i])
		sb.WriteByte('\n')
		maxLines--
	}
	return sb.String()
}

// hasLocalPyAuth checks the decorators above the route for auth patterns.
func hasLocalPyAuth(lines []string, lineNum int) bool {
	for i := lineNum - 1; i >= 0 && i >= lineNum-5; i-- {
		if pyAuthPattern.MatchString(lines[i]) {
			return true
		}
	}
	return false
}
