package factory

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/azuresphere7/DWQ-Legal-Backend/internal/config"
	"github.com/azuresphere7/DWQ-Legal-Backend/internal/notify"
)

func NewMailer(cfg *config.Config, log zerolog.Logger) (notify.Mailer, error) {
	switch cfg.MailDriver {
	case "log":
		return notify.NewLogMailer(log), nil
	case "smtp":
		if cfg.SMTPHost == "" {
			return nil, fmt.Errorf("%s_SMTP_HOST is required when MAIL_DRIVER=smtp", config.EnvPrefix)
		}
		return notify.NewSMTPMailer(notify.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.MailFrom,
		}), nil
	}
	return nil, fmt.Errorf("unknown MAIL_DRIVER: %s", cfg.MailDriver)
}
