package notification

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"strings"

	"github.com/resend/resend-go/v2"
	log "github.com/sirupsen/logrus"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

const defaultLocale = "zh"

var subjects = map[string]map[string]string{
	"inactivity_warning": {
		"zh": "PixelDesk 工位回收提醒",
		"en": "PixelDesk: your workstation will be reclaimed soon",
	},
	"reclamation": {
		"zh": "PixelDesk 工位已回收",
		"en": "PixelDesk: your workstation has been released",
	},
}

// WarningMessage fills the inactivity warning template
type WarningMessage struct {
	To            string
	Name          string
	Locale        string
	WorkstationID string
	InactiveDays  int
}

// ReclamationMessage fills the reclamation notice template
type ReclamationMessage struct {
	To            string
	Name          string
	Locale        string
	WorkstationID string
	Refund        int64
	Reason        string
}

// Mailer sends user-facing notification emails
type Mailer interface {
	SendInactivityWarning(ctx context.Context, msg WarningMessage) error
	SendReclamationNotice(ctx context.Context, msg ReclamationMessage) error
}

// NewMailer returns a Resend-backed mailer, or a logging no-op when apiKey is empty
func NewMailer(apiKey, from string) Mailer {
	if strings.TrimSpace(apiKey) == "" {
		log.Warn("RESEND_API_KEY is not configured, emails will only be logged")
		return NoopMailer{}
	}
	return &ResendMailer{client: resend.NewClient(apiKey), from: from}
}

// normalizeLocale maps a user locale to a template locale, defaulting to zh
func normalizeLocale(locale string) string {
	locale = strings.ToLower(strings.TrimSpace(locale))
	if strings.HasPrefix(locale, "en") {
		return "en"
	}
	return defaultLocale
}

// render returns the subject and HTML body for a template kind
func render(kind, locale string, data any) (string, string, error) {
	locale = normalizeLocale(locale)

	var body bytes.Buffer
	if err := templates.ExecuteTemplate(&body, fmt.Sprintf("%s.%s.html", kind, locale), data); err != nil {
		return "", "", fmt.Errorf("failed to render %s email: %w", kind, err)
	}
	return subjects[kind][locale], body.String(), nil
}

// ResendMailer delivers email through the Resend API
type ResendMailer struct {
	client *resend.Client
	from   string
}

func (m *ResendMailer) SendInactivityWarning(ctx context.Context, msg WarningMessage) error {
	subject, html, err := render("inactivity_warning", msg.Locale, msg)
	if err != nil {
		return err
	}
	return m.send(ctx, msg.To, subject, html)
}

func (m *ResendMailer) SendReclamationNotice(ctx context.Context, msg ReclamationMessage) error {
	subject, html, err := render("reclamation", msg.Locale, msg)
	if err != nil {
		return err
	}
	return m.send(ctx, msg.To, subject, html)
}

func (m *ResendMailer) send(ctx context.Context, to, subject, html string) error {
	if to == "" {
		return fmt.Errorf("recipient address is empty")
	}

	sent, err := m.client.Emails.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    m.from,
		To:      []string{to},
		Subject: subject,
		Html:    html,
	})
	if err != nil {
		return fmt.Errorf("failed to send email to %s: %w", to, err)
	}

	log.WithFields(log.Fields{
		"to":      to,
		"subject": subject,
		"emailID": sent.Id,
	}).Info("Email sent")
	return nil
}

// NoopMailer logs instead of sending
type NoopMailer struct{}

func (NoopMailer) SendInactivityWarning(_ context.Context, msg WarningMessage) error {
	log.WithFields(log.Fields{
		"to":            msg.To,
		"workstationID": msg.WorkstationID,
		"inactiveDays":  msg.InactiveDays,
	}).Info("Skipping inactivity warning email (no API key)")
	return nil
}

func (NoopMailer) SendReclamationNotice(_ context.Context, msg ReclamationMessage) error {
	log.WithFields(log.Fields{
		"to":            msg.To,
		"workstationID": msg.WorkstationID,
		"refund":        msg.Refund,
	}).Info("Skipping reclamation email (no API key)")
	return nil
}
