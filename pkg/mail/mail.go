package mail

import (
	"context"
	"fmt"
	"net"
	"net/smtp"
	"strings"
)

type Mailer interface {
	SendPlainTextEmail(ctx context.Context, recipientEmail, subject, body string) error
	SendHTMLEmail(ctx context.Context, recipientEmail, subject, htmlBody string) error
}

// SMTPMailService delivers through a plain SMTP relay such as mailpit in development.
type SMTPMailService struct {
	smtpHost     string
	smtpPort     string
	smtpUsername string
	smtpPassword string
	senderEmail  string
}

func NewSMTPMailService(host, port, username, password, from string) *SMTPMailService {
	return &SMTPMailService{
		smtpHost:     host,
		smtpPort:     port,
		smtpUsername: username,
		smtpPassword: password,
		senderEmail:  from,
	}
}

func (s *SMTPMailService) SendPlainTextEmail(ctx context.Context, recipientEmail, subject, body string) error {
	return s.deliver(ctx, recipientEmail, buildMessage(s.senderEmail, recipientEmail, subject, "text/plain", body))
}

func (s *SMTPMailService) SendHTMLEmail(ctx context.Context, recipientEmail, subject, htmlBody string) error {
	return s.deliver(ctx, recipientEmail, buildMessage(s.senderEmail, recipientEmail, subject, "text/html", htmlBody))
}

// deliver sends msg, giving up when ctx is done. The SMTP exchange itself
// cannot be interrupted, so it finishes in the background.
func (s *SMTPMailService) deliver(ctx context.Context, recipientEmail string, msg []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var auth smtp.Auth
	if s.smtpUsername != "" {
		auth = smtp.PlainAuth("", s.smtpUsername, s.smtpPassword, s.smtpHost)
	}

	errChan := make(chan error, 1)
	go func() {
		errChan <- smtp.SendMail(net.JoinHostPort(s.smtpHost, s.smtpPort), auth, s.senderEmail, []string{recipientEmail}, msg)
	}()

	select {
	case err := <-errChan:
		if err != nil {
			return fmt.Errorf("failed to send email: %w", err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("email sending canceled: %w", ctx.Err())
	}
}

func buildMessage(from, to, subject, contentType, body string) []byte {
	headers := []string{
		"From: " + from,
		"To: " + to,
		"Subject: " + subject,
		"MIME-Version: 1.0",
		fmt.Sprintf("Content-Type: %s; charset=\"utf-8\"", contentType),
		"",
		body,
	}
	return []byte(strings.Join(headers, "\r\n"))
}

var _ Mailer = (*SMTPMailService)(nil)
