package mail

import (
	"context"
	"strings"
	"testing"

	"github.com/abisalde/marketplace-service/internal/configs"
	"github.com/stretchr/testify/assert"
)

func TestBuildMessage(t *testing.T) {
	msg := string(buildMessage("from@example.com", "to@example.com", "Your code", "text/plain", "123456"))

	assert.True(t, strings.HasPrefix(msg, "From: from@example.com\r\nTo: to@example.com\r\nSubject: Your code\r\n"))
	assert.Contains(t, msg, "Content-Type: text/plain; charset=\"utf-8\"")
	assert.True(t, strings.HasSuffix(msg, "\r\n\r\n123456"))
}

func TestDeliverHonoursCancelledContext(t *testing.T) {
	svc := NewSMTPMailService("127.0.0.1", "1", "", "", "from@example.com")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := svc.SendPlainTextEmail(ctx, "to@example.com", "s", "b")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewMailerService(t *testing.T) {
	cfg := &configs.Config{}
	cfg.Mail.Provider = "resend"
	cfg.Mail.EmailAPIKey = "re_test"
	assert.IsType(t, &ResendMailService{}, NewMailerService(cfg))

	cfg.Mail.Provider = "smtp"
	assert.IsType(t, &SMTPMailService{}, NewMailerService(cfg))
}
