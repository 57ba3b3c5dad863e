package email

import (
	"crypto/tls"
	"fmt"
	"html"
	"net/smtp"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
)

// EmailService defines the interface for email operations
type EmailService interface {
	SendSessionChangeAlert(alert SessionChangeAlert) error
}

// SMTPConfig holds configuration for SMTP server
type SMTPConfig struct {
	Host      string
	Port      int
	Username  string
	Password  string
	FromName  string
	FromEmail string
	UseTLS    bool
	DryRun    bool
	OrgName   string
}

// SessionChangeAlert tells a caregiver that one date of a session changed
type SessionChangeAlert struct {
	ToEmail        string
	CaregiverName  string
	ChildName      string
	SessionName    string
	SessionVenue   string
	SessionAddress string
	SessionTime    string
	UpdateTitle    string
	UpdateMessage  string
	AffectedDate   string

	// Filled for signup confirmations only
	FirstSessionDate string
	WhatToBring      string
	CalendarURL      string
	ContactEmail     string
}

// EmailServiceImpl implements EmailService
type EmailServiceImpl struct {
	config SMTPConfig
	logger zerolog.Logger
}

// NewEmailService creates a new EmailService
func NewEmailService(config SMTPConfig, logger zerolog.Logger) EmailService {
	return &EmailServiceImpl{
		config: config,
		logger: logger,
	}
}

// SendSessionChangeAlert sends a cancellation or reinstatement notice
func (s *EmailServiceImpl) SendSessionChangeAlert(alert SessionChangeAlert) error {
	subject := fmt.Sprintf("%s: %s", alert.UpdateTitle, alert.SessionName)

	if s.config.DryRun || s.config.Username == "" || s.config.Password == "" {
		s.logger.Warn().
			Str("toEmail", alert.ToEmail).
			Str("subject", subject).
			Str("affectedDate", alert.AffectedDate).
			Msg("SMTP not configured or dry-run enabled - session change alert not sent")
		return nil
	}

	return s.sendHTMLEmail(alert.ToEmail, subject, renderSessionChangeAlert(alert, s.config.OrgName))
}

func renderSessionChangeAlert(alert SessionChangeAlert, orgName string) string {
	var details strings.Builder
	row := func(label, value string) {
		if value == "" {
			return
		}
		fmt.Fprintf(&details, "<tr><td style=\"padding: 4px 12px 4px 0; color: #666;\">%s</td><td>%s</td></tr>", label, html.EscapeString(value))
	}
	row("Session", alert.SessionName)
	row("Date", alert.AffectedDate)
	row("Usual time", alert.SessionTime)
	row("Venue", alert.SessionVenue)
	row("Address", alert.SessionAddress)
	row("First session", alert.FirstSessionDate)
	row("What to bring", alert.WhatToBring)
	row("Calendar", alert.CalendarURL)
	row("Questions", alert.ContactEmail)

	return fmt.Sprintf(`<html>
<body>
	<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
		<h2 style="color: #333;">%s</h2>
		<p>Kia ora %s,</p>
		<p>There is an update about %s's session.</p>
		<p><strong>%s</strong></p>
		<table>%s</table>
		<p>Ngā mihi,<br>%s</p>
	</div>
</body>
</html>`,
		html.EscapeString(alert.UpdateTitle),
		html.EscapeString(alert.CaregiverName),
		html.EscapeString(alert.ChildName),
		html.EscapeString(alert.UpdateMessage),
		details.String(),
		html.EscapeString(orgName),
	)
}

func (s *EmailServiceImpl) buildMessage(toEmail, subject, htmlBody string) []byte {
	headers := [][2]string{
		{"From", fmt.Sprintf("%s <%s>", s.config.FromName, s.config.FromEmail)},
		{"To", toEmail},
		{"Subject", subject},
		{"MIME-Version", "1.0"},
		{"Content-Type", "text/html; charset=UTF-8"},
	}

	var message strings.Builder
	for _, h := range headers {
		fmt.Fprintf(&message, "%s: %s\r\n", h[0], h[1])
	}
	message.WriteString("\r\n")
	message.WriteString(htmlBody)
	return []byte(message.String())
}

// sendHTMLEmail sends an HTML email
func (s *EmailServiceImpl) sendHTMLEmail(toEmail, subject, htmlBody string) error {
	auth := smtp.PlainAuth("", s.config.Username, s.config.Password, s.config.Host)
	message := s.buildMessage(toEmail, subject, htmlBody)
	serverAddress := s.config.Host + ":" + strconv.Itoa(s.config.Port)

	if !s.config.UseTLS {
		if err := smtp.SendMail(serverAddress, auth, s.config.FromEmail, []string{toEmail}, message); err != nil {
			s.logger.Error().Err(err).Str("server", serverAddress).Msg("Failed to send email")
			return fmt.Errorf("failed to send email: %w", err)
		}
		return nil
	}

	conn, err := tls.Dial("tcp", serverAddress, &tls.Config{ServerName: s.config.Host})
	if err != nil {
		s.logger.Error().Err(err).Str("server", serverAddress).Msg("Failed to connect to SMTP server")
		return fmt.Errorf("failed to connect to SMTP server: %w", err)
	}
	defer conn.Close()

	client, err := smtp.NewClient(conn, s.config.Host)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to create SMTP client")
		return fmt.Errorf("failed to create SMTP client: %w", err)
	}
	defer client.Quit()

	if err = client.Auth(auth); err != nil {
		s.logger.Error().Err(err).Msg("SMTP authentication failed")
		return fmt.Errorf("SMTP authentication failed: %w", err)
	}
	if err = client.Mail(s.config.FromEmail); err != nil {
		return fmt.Errorf("failed to set sender: %w", err)
	}
	if err = client.Rcpt(toEmail); err != nil {
		return fmt.Errorf("failed to set recipient: %w", err)
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("failed to get data writer: %w", err)
	}
	if _, err = w.Write(message); err != nil {
		return fmt.Errorf("failed to write email message: %w", err)
	}
	if err = w.Close(); err != nil {
		return fmt.Errorf("failed to close data writer: %w", err)
	}
	return nil
}
