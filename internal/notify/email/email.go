// Package email sends scan report emails over SMTP.
package email

import (
	"bytes"
	"crypto/tls"
	"embed"
	"fmt"
	"html/template"
	"time"

	"github.com/charmbracelet/log"
	"github.com/jon4hz/logicsweep/internal/config"
	mail "github.com/xhit/go-simple-mail/v2"
)

// NotificationService handles scan report emails.
type NotificationService struct {
	config *config.EmailConfig
}

// FindingItem represents a single finding listed in the report email.
type FindingItem struct {
	RuleID   string
	Severity string
	Endpoint string
	Message  string
}

// ScanReport contains the data for a scan report email.
type ScanReport struct {
	Target        string
	StartedAt     time.Time
	Duration      time.Duration
	EndpointCount int
	Findings      []FindingItem
	GatePassed    bool
	Violations    []string
	ServerURL     string
}

// New creates a new email notification service.
func New(cfg *config.EmailConfig) *NotificationService {
	return &NotificationService{
		config: cfg,
	}
}

// SendScanReport emails the scan report to all configured recipients.
func (n *NotificationService) SendScanReport(report ScanReport) error {
	if !n.config.Enabled {
		log.Debug("Email notifications are disabled, skipping scan report")
		return nil
	}

	if len(n.config.Recipients) == 0 {
		log.Warn("No email recipients configured, skipping scan report")
		return nil
	}

	subject := fmt.Sprintf("[Logicsweep] Scan report for %s - %d finding(s)", report.Target, len(report.Findings))
	if !report.GatePassed {
		subject = fmt.Sprintf("[Logicsweep] GATE FAILED: %s - %d finding(s)", report.Target, len(report.Findings))
	}

	body, err := n.generateEmailBody(report)
	if err != nil {
		return fmt.Errorf("failed to generate email body: %w", err)
	}

	for _, recipient := range n.config.Recipients {
		if err := n.sendEmail(recipient, subject, body); err != nil {
			return err
		}
	}
	return nil
}

//go:embed templates/*.html
var templatesFS embed.FS

// generateEmailBody creates the HTML email body.
func (n *NotificationService) generateEmailBody(report ScanReport) (string, error) {
	t, err := template.New("").ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "report.html", report); err != nil {
		return "", err
	}

	return buf.String(), nil
}

// sendEmail sends an email using go-simple-mail library.
func (n *NotificationService) sendEmail(to, subject, body string) error {
	server := mail.NewSMTPClient()
	server.Host = n.config.SMTPHost
	server.Port = n.config.SMTPPort
	server.Username = n.config.Username
	server.Password = n.config.Password

	// Configure encryption
	if n.config.UseSSL {
		server.Encryption = mail.EncryptionSSLTLS
	} else if n.config.UseTLS {
		server.Encryption = mail.EncryptionSTARTTLS
	} else {
		server.Encryption = mail.EncryptionNone
	}

	if n.config.InsecureSkipVerify {
		server.TLSConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec
	}

	server.KeepAlive = false
	server.ConnectTimeout = 10 * time.Second
	server.SendTimeout = 10 * time.Second

	smtpClient, err := server.Connect()
	if err != nil {
		return fmt.Errorf("failed to connect to SMTP server: %w", err)
	}
	defer func() {
		if closeErr := smtpClient.Close(); closeErr != nil {
			log.Warn("Failed to close SMTP client", "error", closeErr)
		}
	}()

	email := mail.NewMSG()

	fromName := n.config.FromName
	if fromName == "" {
		fromName = "Logicsweep"
	}
	email.SetFrom(fmt.Sprintf("%s <%s>", fromName, n.config.FromEmail))

	email.AddTo(to)
	email.SetSubject(subject)
	email.SetBody(mail.TextHTML, body)

	if err := email.Send(smtpClient); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	log.Info("Scan report email sent", "to", to, "subject", subject)
	return nil
}
