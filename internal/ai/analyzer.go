// Package ai implements the LLM analysis pass over discovered endpoints.
package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/jon4hz/logicsweep/internal/config"
	"github.com/jon4hz/logicsweep/internal/rule"
	"github.com/jon4hz/logicsweep/internal/scanner"
	"google.golang.org/genai"
)

const systemPrompt = `You are a security expert specializing in business logic vulnerabilities. You analyze HTTP route handlers and detect:

1. IDOR (Insecure Direct Object Reference) — accessing resources without ownership verification
2. Missing Authorization — endpoints without authentication/authorization checks
3. Mass Assignment — binding request bodies to models without field filtering
4. Race Conditions — non-atomic read-modify-write patterns on shared state
5. Privilege Escalation — ability to modify own roles/permissions
6. Broken Access Control — horizontal/vertical access control bypass

For each vulnerability found, provide:
- "rule_id": string (LOGIC-001 through LOGIC-006)
- "severity": string (critical, high, medium, low)
- "message": string (clear description of the vulnerability)
- "cwe": string (e.g., "CWE-639")
- "endpoint": string (HTTP method + path)
- "reasoning": string (why this is a vulnerability)

Respond ONLY with a JSON array. Empty array if no issues found. Do not include text outside the JSON.`

// maxCodeBytes caps the handler code sent per endpoint.
const maxCodeBytes = 2000

// Analyzer sends endpoint summaries to Gemini for business logic analysis.
type Analyzer struct {
	client       *genai.Client
	model        string
	temperature  float32
	maxEndpoints int
}

// New creates a new Analyzer from the AI configuration.
func New(ctx context.Context, cfg *config.AIConfig) (*Analyzer, error) {
	if cfg == nil || cfg.APIKey == "" {
		return nil, fmt.Errorf("ai api key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	model := cfg.Model
	if model == "" {
		model = "gemini-2.5-flash"
	}

	return &Analyzer{
		client:       client,
		model:        model,
		temperature:  cfg.Temperature,
		maxEndpoints: cfg.MaxEndpoints,
	}, nil
}

// Analyze sends the endpoints to the LLM and returns any findings.
func (a *Analyzer) Analyze(ctx context.Context, endpoints []scanner.Endpoint) ([]rule.Finding, error) {
	if len(endpoints) == 0 {
		return nil, nil
	}
	if a.maxEndpoints > 0 && len(endpoints) > a.maxEndpoints {
		log.Warn("Truncating endpoints for AI analysis", "endpoints", len(endpoints), "max", a.maxEndpoints)
		endpoints = endpoints[:a.maxEndpoints]
	}

	prompt := BuildPrompt(endpoints)

	resp, err := a.client.Models.GenerateContent(ctx, a.model, genai.Text(prompt), &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(systemPrompt, genai.RoleUser),
		Temperature:       genai.Ptr(a.temperature),
		ResponseMIMEType:  "application/json",
	})
	if err != nil {
		return nil, fmt.Errorf("llm call failed: %w", err)
	}

	verdicts, err := ParseResponse(resp.Text())
	if err != nil {
		return nil, fmt.Errorf("failed to parse llm response: %w", err)
	}

	return ConvertVerdicts(verdicts), nil
}

// endpointSummary is the per-endpoint payload sent to the LLM.
type endpointSummary struct {
	Method  string `json:"method"`
	Path    string `json:"path"`
	Handler string `json:"handler"`
	File    string `json:"file"`
	HasAuth bool   `json:"has_auth"`
	Code    string `json:"code"`
}

// BuildPrompt creates the user message with endpoint details.
func BuildPrompt(endpoints []scanner.Endpoint) string {
	summaries := make([]endpointSummary, len(endpoints))
	for i, ep := range endpoints {
		code := ep.Code
		if len(code) > maxCodeBytes {
			code = code[:maxCodeBytes] + "\n... (truncated)"
		}
		summaries[i] = endpointSummary{
			Method:  ep.Method,
			Path:    ep.Path,
			Handler: ep.Handler,
			File:    ep.FilePath,
			HasAuth: ep.HasAuth,
			Code:    code,
		}
	}

	data, _ := json.MarshalIndent(summaries, "", "  ")

	var sb strings.Builder
	fmt.Fprintf(&sb, "Analyze %d HTTP endpoints for business logic vulnerabilities.\n\n", len(endpoints))
	sb.WriteString("## Endpoints\n\n")
	sb.Write(data)
	return sb.String()
}

// Verdict represents a single LLM-detected business logic flaw.
type Verdict struct {
	RuleID    string `json:"rule_id"`
	Severity  string `json:"severity"`
	Message   string `json:"message"`
	CWE       string `json:"cwe"`
	Endpoint  string `json:"endpoint"`
	Reasoning string `json:"reasoning"`
}

// ParseResponse extracts verdicts from the LLM response, stripping markdown fences.
func ParseResponse(content string) ([]Verdict, error) {
	content = strings.TrimSpace(content)

	if strings.HasPrefix(content, "```") {
		lines := strings.Split(content, "\n")
		if len(lines) >= 2 {
			lines = lines[1:]
		}
		if len(lines) > 0 && strings.HasPrefix(strings.TrimSpace(lines[len(lines)-1]), "```") {
			lines = lines[:len(lines)-1]
		}
		content = strings.Join(lines, "\n")
	}

	var verdicts []Verdict
	if err := json.Unmarshal([]byte(content), &verdicts); err != nil {
		return nil, fmt.Errorf("invalid JSON in LLM response: %w", err)
	}
	return verdicts, nil
}

// ConvertVerdicts converts LLM verdicts to findings. Unknown severities default to high.
func ConvertVerdicts(verdicts []Verdict) []rule.Finding {
	var result []rule.Finding
	for _, v := range verdicts {
		sev := rule.ParseSeverity(strings.ToLower(v.Severity))
		if sev == "" {
			sev = rule.SeverityHigh
		}

		result = append(result, rule.Finding{
			RuleID:     v.RuleID,
			Severity:   sev,
			Confidence: rule.ConfidenceMedium,
			Message:    v.Message,
			CWE:        v.CWE,
			Endpoint:   v.Endpoint,
			AIAnalyzed: true,
			Reasoning:  v.Reasoning,
		})
	}
	return result
}
