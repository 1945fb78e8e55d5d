package rule

// Severity of a finding.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
	SeverityInfo     Severity = "info"
)

// Confidence of a finding.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// Finding represents a single business logic finding on an endpoint.
type Finding struct {
	RuleID     string     `json:"ruleId"`
	Severity   Severity   `json:"severity"`
	Confidence Confidence `json:"confidence"`
	Message    string     `json:"message"`
	CWE        string     `json:"cwe"`
	FilePath   string     `json:"filePath"`
	Line       int        `json:"line"`
	Language   string     `json:"language"`
	Endpoint   string     `json:"endpoint"`
	// AIAnalyzed is true when the finding came from the LLM pass.
	AIAnalyzed bool `json:"aiAnalyzed,omitempty"`
	// Reasoning is the LLM's explanation, empty for deterministic findings.
	Reasoning string `json:"reasoning,omitempty"`
}

// ParseSeverity converts a severity string to a Severity, or empty string if unknown.
func ParseSeverity(s string) Severity {
	switch Severity(s) {
	case SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow, SeverityInfo:
		return Severity(s)
	}
	return ""
}

// Rank returns a comparable rank for the severity, higher is more severe.
func (s Severity) Rank() int {
	switch s {
	case SeverityCritical:
		return 5
	case SeverityHigh:
		return 4
	case SeverityMedium:
		return 3
	case SeverityLow:
		return 2
	case SeverityInfo:
		return 1
	}
	return 0
}
