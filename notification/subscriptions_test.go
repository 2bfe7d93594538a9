package notification

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pixeldesk/events"
	"pixeldesk/models"
)

type recordingMailer struct {
	mu           sync.Mutex
	warnings     []WarningMessage
	reclamations []ReclamationMessage
	err          error
}

func (m *recordingMailer) SendInactivityWarning(_ context.Context, msg WarningMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.warnings = append(m.warnings, msg)
	return m.err
}

func (m *recordingMailer) SendReclamationNotice(_ context.Context, msg ReclamationMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reclamations = append(m.reclamations, msg)
	return m.err
}

type recordingWebhook struct {
	mu       sync.Mutex
	webhook  string
	token    string
	contents []string
}

func (w *recordingWebhook) WebhookExecute(webhookID, token string, wait bool, data *discordgo.WebhookParams, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.webhook, w.token = webhookID, token
	w.contents = append(w.contents, data.Content)
	return &discordgo.Message{}, nil
}

func TestRegisterSubscriptions_SendsEmails(t *testing.T) {
	bus := events.NewBus()
	mailer := &recordingMailer{}
	RegisterSubscriptions(bus, mailer, nil)

	ctx := context.Background()
	bus.Emit(ctx, events.InactivityWarningEvent{UserID: "u1", Email: "u1@example.com", Name: "U1", Locale: "en", WorkstationID: "ws-1", InactiveDays: 5})
	bus.Emit(ctx, events.BindingReclaimedEvent{UserID: "u2", Email: "u2@example.com", Name: "U2", WorkstationID: "ws-2", Refund: 7, Reason: events.ReclaimReasonInactive})
	bus.Emit(ctx, events.SweepCompletedEvent{RunID: 1, Reclaimed: 1})
	bus.Wait()

	require.Len(t, mailer.warnings, 1)
	assert.Equal(t, "u1@example.com", mailer.warnings[0].To)
	assert.Equal(t, 5, mailer.warnings[0].InactiveDays)

	require.Len(t, mailer.reclamations, 1)
	assert.Equal(t, int64(7), mailer.reclamations[0].Refund)
	assert.Equal(t, "inactive", mailer.reclamations[0].Reason)
}

func TestRegisterSubscriptions_MailFailureIsContained(t *testing.T) {
	bus := events.NewBus()
	mailer := &recordingMailer{err: errors.New("resend down")}
	RegisterSubscriptions(bus, mailer, nil)

	assert.NotPanics(t, func() {
		bus.Emit(context.Background(), events.InactivityWarningEvent{UserID: "u1"})
		bus.Wait()
	})
	assert.Len(t, mailer.warnings, 1)
}

func TestRegisterSubscriptions_PostsSweepSummary(t *testing.T) {
	bus := events.NewBus()
	executor := &recordingWebhook{}
	webhook := &OpsWebhook{session: executor, webhookID: "123", token: "abc"}
	RegisterSubscriptions(bus, NoopMailer{}, webhook)

	bus.Emit(context.Background(), events.SweepCompletedEvent{RunID: 9, Trigger: models.SweepTriggerCron})
	bus.Emit(context.Background(), events.SweepCompletedEvent{
		RunID: 10, Trigger: models.SweepTriggerCron, Scanned: 40, Warned: 2, Reclaimed: 3, RefundedPoints: 14, Failed: 1, Duration: 1500 * time.Millisecond,
	})
	bus.Wait()

	require.Len(t, executor.contents, 1)
	assert.Equal(t, "123", executor.webhook)
	assert.Equal(t, "abc", executor.token)
	assert.Equal(t, "🧹 Sweep #10 (cron): scanned 40, warned 2, reclaimed 3, refunded 14 pts in 1.5s ⚠️ 1 failed", executor.contents[0])
}

func TestParseWebhookURL(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		id      string
		token   string
		wantErr bool
	}{
		{name: "discord.com", raw: "https://discord.com/api/webhooks/123/tok-en", id: "123", token: "tok-en"},
		{name: "versioned api", raw: "https://discord.com/api/v10/webhooks/456/xyz/", id: "456", token: "xyz"},
		{name: "missing token", raw: "https://discord.com/api/webhooks/123", wantErr: true},
		{name: "not a webhook", raw: "https://example.com/hooks/1/2", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, token, err := parseWebhookURL(tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.id, id)
			assert.Equal(t, tt.token, token)
		})
	}
}
