// Package ntfy publishes scan notifications to a ntfy topic.
package ntfy

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/jon4hz/logicsweep/internal/config"
	"github.com/jon4hz/logicsweep/internal/rule"
)

// Client represents a ntfy notification client.
type Client struct {
	serverURL  string
	topic      string
	username   string
	password   string
	token      string
	httpClient *http.Client
}

// Message represents a ntfy message.
type Message struct {
	Topic    string   `json:"topic"`
	Title    string   `json:"title"`
	Message  string   `json:"message"`
	Priority int      `json:"priority,omitempty"`
	Tags     []string `json:"tags,omitempty"`
	Actions  []Action `json:"actions,omitempty"`
}

// Action represents a ntfy action button.
type Action struct {
	Action string `json:"action"`
	Label  string `json:"label"`
	URL    string `json:"url,omitempty"`
	Method string `json:"method,omitempty"`
}

// NewClient creates a new ntfy client.
func NewClient(cfg *config.NtfyConfig) *Client {
	if cfg.ServerURL != "" {
		if _, err := url.Parse(cfg.ServerURL); err != nil {
			log.Errorf("Invalid ntfy server URL: %v", err)
		}
	}

	return &Client{
		serverURL: cfg.ServerURL,
		topic:     cfg.Topic,
		username:  cfg.Username,
		password:  cfg.Password,
		token:     cfg.Token,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// SendMessage sends a message to ntfy.
func (c *Client) SendMessage(ctx context.Context, msg Message) error {
	if c.topic != "" {
		msg.Topic = c.topic
	}

	jsonData, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.serverURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Markdown", "yes")

	// Authentication: Token takes precedence over username/password
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	} else if c.username != "" && c.password != "" {
		req.SetBasicAuth(c.username, c.password)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode >= 400 {
		var errorMsg strings.Builder
		if resp.Body != nil {
			buf := make([]byte, 256)
			if n, _ := resp.Body.Read(buf); n > 0 {
				errorMsg.WriteString(": ")
				errorMsg.Write(buf[:n])
			}
		}
		return fmt.Errorf("ntfy server returned status %d%s", resp.StatusCode, errorMsg.String())
	}

	log.Debug("Sent ntfy notification", "topic", msg.Topic, "title", msg.Title)
	return nil
}

// SendScanSummary sends a summary of a finished scan run.
func (c *Client) SendScanSummary(ctx context.Context, target string, endpointCount int, findings []rule.Finding, gatePassed bool) error {
	bySeverity := make(map[rule.Severity]int)
	for _, finding := range findings {
		bySeverity[finding.Severity]++
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("**Target:** %s\n", target))
	b.WriteString(fmt.Sprintf("**Endpoints scanned:** %d\n", endpointCount))
	b.WriteString(fmt.Sprintf("**Findings:** %d\n\n", len(findings)))

	for _, severity := range []rule.Severity{rule.SeverityCritical, rule.SeverityHigh, rule.SeverityMedium, rule.SeverityLow, rule.SeverityInfo} {
		if count := bySeverity[severity]; count > 0 {
			b.WriteString(fmt.Sprintf("  **%s:** %d\n", severity, count))
		}
	}

	title := "Scan completed"
	priority := 3
	tags := []string{"information", "logicsweep", "scan"}
	if !gatePassed {
		title = "Scan gate FAILED"
		priority = 4
		tags = []string{"warning", "logicsweep", "gate-failed"}
		b.WriteString("\nThe severity gate failed. Review the findings in the dashboard.")
	}

	msg := Message{
		Title:    title,
		Message:  b.String(),
		Priority: priority,
		Tags:     tags,
	}

	return c.SendMessage(ctx, msg)
}

// SendScanFailed sends a notification about a failed scan run.
func (c *Client) SendScanFailed(ctx context.Context, target string, scanErr error) error {
	msg := Message{
		Title:    "Scan failed",
		Message:  fmt.Sprintf("**Target:** %s\n**Error:** %v", target, scanErr),
		Priority: 4,
		Tags:     []string{"rotating_light", "logicsweep", "scan-failed"},
	}

	return c.SendMessage(ctx, msg)
}
