package mail

import (
	"context"
	"fmt"

	"github.com/resend/resend-go/v2"
)

type ResendMailService struct {
	client      *resend.Client
	senderEmail string
}

func NewResendMailService(apiKey, senderEmail string) *ResendMailService {
	return &ResendMailService{
		client:      resend.NewClient(apiKey),
		senderEmail: senderEmail,
	}
}

func (s *ResendMailService) SendPlainTextEmail(ctx context.Context, recipientEmail, subject, body string) error {
	return s.send(ctx, &resend.SendEmailRequest{
		From:    s.senderEmail,
		To:      []string{recipientEmail},
		Subject: subject,
		Text:    body,
	})
}

func (s *ResendMailService) SendHTMLEmail(ctx context.Context, recipientEmail, subject, htmlBody string) error {
	return s.send(ctx, &resend.SendEmailRequest{
		From:    s.senderEmail,
		To:      []string{recipientEmail},
		Subject: subject,
		Html:    htmlBody,
	})
}

func (s *ResendMailService) send(ctx context.Context, req *resend.SendEmailRequest) error {
	if _, err := s.client.Emails.SendWithContext(ctx, req); err != nil {
		return fmt.Errorf("resend: %w", err)
	}
	return nil
}

var _ Mailer = (*ResendMailService)(nil)
