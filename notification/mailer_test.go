package notification

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeLocale(t *testing.T) {
	assert.Equal(t, "en", normalizeLocale("en"))
	assert.Equal(t, "en", normalizeLocale("en-US"))
	assert.Equal(t, "en", normalizeLocale(" EN "))
	assert.Equal(t, "zh", normalizeLocale("zh-CN"))
	assert.Equal(t, "zh", normalizeLocale(""))
	assert.Equal(t, "zh", normalizeLocale("fr"))
}

func TestRender_InactivityWarning(t *testing.T) {
	msg := WarningMessage{To: "a@example.com", Name: "Alice", Locale: "en", WorkstationID: "ws-7", InactiveDays: 5}

	subject, html, err := render("inactivity_warning", msg.Locale, msg)

	require.NoError(t, err)
	assert.Equal(t, "PixelDesk: your workstation will be reclaimed soon", subject)
	assert.Contains(t, html, "Alice, your desk is about to be reclaimed")
	assert.Contains(t, html, "for 5 days")
	assert.Contains(t, html, "ws-7")
}

func TestRender_ReclamationDefaultsToChinese(t *testing.T) {
	msg := ReclamationMessage{Name: "小明", WorkstationID: "ws-1", Refund: 7, Reason: "inactive"}

	subject, html, err := render("reclamation", "", msg)

	require.NoError(t, err)
	assert.Equal(t, "PixelDesk 工位已回收", subject)
	assert.Contains(t, html, "由于长时间未登录")
	assert.Contains(t, html, "<strong>7</strong> 积分已退还")
}

func TestRender_ReclamationWithoutRefund(t *testing.T) {
	msg := ReclamationMessage{Name: "Bob", WorkstationID: "ws-2", Refund: 0, Reason: "expired"}

	_, html, err := render("reclamation", "en", msg)

	require.NoError(t, err)
	assert.Contains(t, html, "has expired")
	assert.NotContains(t, html, "refunded")
}

func TestRender_EscapesUserInput(t *testing.T) {
	msg := WarningMessage{Name: "<script>x</script>", Locale: "en", InactiveDays: 6}

	_, html, err := render("inactivity_warning", msg.Locale, msg)

	require.NoError(t, err)
	assert.NotContains(t, html, "<script>")
}

func TestNewMailer_WithoutKeyIsNoop(t *testing.T) {
	mailer := NewMailer("", "PixelDesk <noreply@pixeldesk.app>")

	require.IsType(t, NoopMailer{}, mailer)
	assert.NoError(t, mailer.SendInactivityWarning(context.Background(), WarningMessage{To: "a@example.com"}))
	assert.NoError(t, mailer.SendReclamationNotice(context.Background(), ReclamationMessage{To: "a@example.com"}))
}

func TestNewMailer_WithKeyUsesResend(t *testing.T) {
	mailer := NewMailer("re_test", "PixelDesk <noreply@pixeldesk.app>")

	resendMailer, ok := mailer.(*ResendMailer)
	require.True(t, ok)
	assert.Equal(t, "PixelDesk <noreply@pixeldesk.app>", resendMailer.from)
	assert.ErrorContains(t, resendMailer.send(context.Background(), "", "s", "b"), "recipient address is empty")
}
