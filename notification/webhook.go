package notification

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"

	"pixeldesk/events"
)

// webhookExecutor is the part of *discordgo.Session the notifier uses
type webhookExecutor interface {
	WebhookExecute(webhookID, token string, wait bool, data *discordgo.WebhookParams, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// OpsWebhook posts sweep summaries to a Discord channel webhook
type OpsWebhook struct {
	session   webhookExecutor
	webhookID string
	token     string
}

// NewOpsWebhook parses a Discord webhook URL of the form
// https://discord.com/api/webhooks/{id}/{token}
func NewOpsWebhook(webhookURL string) (*OpsWebhook, error) {
	id, token, err := parseWebhookURL(webhookURL)
	if err != nil {
		return nil, err
	}

	session, err := discordgo.New("")
	if err != nil {
		return nil, fmt.Errorf("failed to create discord session: %w", err)
	}

	return &OpsWebhook{session: session, webhookID: id, token: token}, nil
}

func parseWebhookURL(raw string) (string, string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", "", fmt.Errorf("invalid webhook URL: %w", err)
	}

	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	for i := 0; i+2 < len(parts); i++ {
		if parts[i] == "webhooks" && parts[i+1] != "" && parts[i+2] != "" {
			return parts[i+1], parts[i+2], nil
		}
	}
	return "", "", fmt.Errorf("invalid webhook URL: missing id or token")
}

// PostSweepSummary sends a one-line summary of a finished sweep
func (w *OpsWebhook) PostSweepSummary(e events.SweepCompletedEvent) error {
	_, err := w.session.WebhookExecute(w.webhookID, w.token, false, &discordgo.WebhookParams{
		Username: "PixelDesk",
		Content:  formatSweepSummary(e),
	})
	if err != nil {
		return fmt.Errorf("failed to post sweep summary: %w", err)
	}

	log.WithField("runID", e.RunID).Debug("Posted sweep summary to webhook")
	return nil
}

func formatSweepSummary(e events.SweepCompletedEvent) string {
	summary := fmt.Sprintf("🧹 Sweep #%d (%s): scanned %d, warned %d, reclaimed %d, refunded %d pts in %s",
		e.RunID, e.Trigger, e.Scanned, e.Warned, e.Reclaimed, e.RefundedPoints, e.Duration.Round(1e6))
	if e.Failed > 0 {
		summary += fmt.Sprintf(" ⚠️ %d failed", e.Failed)
	}
	return summary
}
