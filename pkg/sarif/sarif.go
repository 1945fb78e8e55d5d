// Package sarif renders findings as a SARIF 2.1.0 log for code scanning uploads.
package sarif

import (
	"encoding/json"
	"io"

	"github.com/jon4hz/logicsweep/internal/rule"
)

const (
	schemaURI = "https://raw.githubusercontent.com/oasis-tcs/sarif-spec/master/Schemata/sarif-schema-2.1.0.json"
	version   = "2.1.0"
	toolName  = "logicsweep"
	toolURI   = "https://github.com/jon4hz/logicsweep"
)

// Log is the top-level SARIF document.
type Log struct {
	Schema  string `json:"$schema"`
	Version string `json:"version"`
	Runs    []Run  `json:"runs"`
}

// Run describes a single scanner invocation.
type Run struct {
	Tool    Tool     `json:"tool"`
	Results []Result `json:"results"`
}

// Tool identifies the scanner.
type Tool struct {
	Driver Driver `json:"driver"`
}

// Driver carries the tool metadata and rule catalog.
type Driver struct {
	Name           string           `json:"name"`
	InformationURI string           `json:"informationUri"`
	Rules          []RuleDescriptor `json:"rules"`
}

// RuleDescriptor describes one detection rule.
type RuleDescriptor struct {
	ID               string  `json:"id"`
	ShortDescription Message `json:"shortDescription"`
	Properties       struct {
		CWE string `json:"cwe,omitempty"`
	} `json:"properties"`
}

// Result is one finding.
type Result struct {
	RuleID    string     `json:"ruleId"`
	Level     string     `json:"level"`
	Message   Message    `json:"message"`
	Locations []Location `json:"locations,omitempty"`
}

// Message wraps SARIF text content.
type Message struct {
	Text string `json:"text"`
}

// Location points at the source of a finding.
type Location struct {
	PhysicalLocation PhysicalLocation `json:"physicalLocation"`
}

// PhysicalLocation is a file/region pair.
type PhysicalLocation struct {
	ArtifactLocation ArtifactLocation `json:"artifactLocation"`
	Region           *Region          `json:"region,omitempty"`
}

// ArtifactLocation references a file by relative URI.
type ArtifactLocation struct {
	URI string `json:"uri"`
}

// Region is a line range within a file.
type Region struct {
	StartLine int `json:"startLine"`
}

// Level maps a finding severity to a SARIF level.
func Level(severity rule.Severity) string {
	switch severity {
	case rule.SeverityCritical, rule.SeverityHigh:
		return "error"
	case rule.SeverityMedium:
		return "warning"
	default:
		return "note"
	}
}

// FromFindings builds a SARIF log from findings.
func FromFindings(findings []rule.Finding) *Log {
	seenRules := make(map[string]bool)
	var rules []RuleDescriptor
	results := make([]Result, 0, len(findings))

	for _, finding := range findings {
		if !seenRules[finding.RuleID] {
			seenRules[finding.RuleID] = true
			descriptor := RuleDescriptor{
				ID:               finding.RuleID,
				ShortDescription: Message{Text: finding.Message},
			}
			descriptor.Properties.CWE = finding.CWE
			rules = append(rules, descriptor)
		}

		result := Result{
			RuleID:  finding.RuleID,
			Level:   Level(finding.Severity),
			Message: Message{Text: finding.Message},
		}
		if finding.FilePath != "" {
			location := Location{
				PhysicalLocation: PhysicalLocation{
					ArtifactLocation: ArtifactLocation{URI: finding.FilePath},
				},
			}
			if finding.Line > 0 {
				location.PhysicalLocation.Region = &Region{StartLine: finding.Line}
			}
			result.Locations = []Location{location}
		}
		results = append(results, result)
	}

	return &Log{
		Schema:  schemaURI,
		Version: version,
		Runs: []Run{
			{
				Tool: Tool{
					Driver: Driver{
						Name:           toolName,
						InformationURI: toolURI,
						Rules:          rules,
					},
				},
				Results: results,
			},
		},
	}
}

// Write encodes the findings as an indented SARIF log.
func Write(w io.Writer, findings []rule.Finding) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(FromFindings(findings))
}
