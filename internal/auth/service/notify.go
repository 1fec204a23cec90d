package service

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"

	"github.com/abisalde/marketplace-service/internal/metrics"
	"github.com/abisalde/marketplace-service/internal/model"
	"github.com/abisalde/marketplace-service/pkg/logger"
	"github.com/abisalde/marketplace-service/pkg/mail"
	"github.com/abisalde/marketplace-service/pkg/sms"
	"go.uber.org/zap"
)

//go:embed templates/otp_email.html
var templates embed.FS

var otpEmail = template.Must(template.ParseFS(templates, "templates/otp_email.html"))

const otpSubject = "OTP Verification"

// Notifier delivers an OTP code to an email address or phone number.
type Notifier interface {
	SendOTP(ctx context.Context, kind model.ContactKind, address, code string) error
}

type otpNotifier struct {
	mailer        mail.Mailer
	sms           sms.Sender
	expiryMinutes int
}

func NewNotifier(mailer mail.Mailer, sender sms.Sender, expiryMinutes int) Notifier {
	return &otpNotifier{mailer: mailer, sms: sender, expiryMinutes: expiryMinutes}
}

func (n *otpNotifier) SendOTP(ctx context.Context, kind model.ContactKind, address, code string) error {
	if kind == model.ContactPhone {
		return n.sms.SendSMS(ctx, address, fmt.Sprintf("Your OTP code is %s", code))
	}

	var body bytes.Buffer
	data := struct {
		Code    string
		Minutes int
	}{Code: code, Minutes: n.expiryMinutes}
	if err := otpEmail.Execute(&body, data); err != nil {
		return fmt.Errorf("rendering OTP email: %w", err)
	}
	return n.mailer.SendHTMLEmail(ctx, address, otpSubject, body.String())
}

// dispatchOTP hands the code to the notifier without waiting for delivery.
// Failures are logged and counted, never retried.
func (s *AuthService) dispatchOTP(ctx context.Context, kind model.ContactKind, address, code string) {
	metrics.RecordOTPIssued(string(kind))
	ctx = context.WithoutCancel(ctx)
	log := logger.FromContext(ctx)

	s.async(func() {
		if err := s.notifier.SendOTP(ctx, kind, address, code); err != nil {
			metrics.RecordOTPDeliveryFailure(string(kind))
			log.Error("failed to deliver OTP", zap.String("channel", string(kind)), zap.Error(err))
		}
	})
}
