package mail

import (
	"github.com/abisalde/marketplace-service/internal/configs"
	"github.com/abisalde/marketplace-service/pkg/logger"
	"go.uber.org/zap"
)

func NewMailerService(cfg *configs.Config) Mailer {
	switch cfg.Mail.Provider {
	case "resend":
		logger.L().Info("initializing Resend mail service", zap.String("env", cfg.App.Env))
		return NewResendMailService(cfg.Mail.EmailAPIKey, cfg.Mail.SenderEmail)
	default:
		logger.L().Info("initializing SMTP mail service", zap.String("env", cfg.App.Env))
		return NewSMTPMailService(
			cfg.Mail.SMTPHost,
			cfg.Mail.SMTPPort,
			cfg.Mail.SMTPUsername,
			cfg.Mail.SMTPPassword,
			cfg.Mail.SenderEmail,
		)
	}
}
