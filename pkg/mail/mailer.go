// Package mail sends the password-recovery message over SMTP.
package mail

import (
	"fmt"

	"github.com/Gobusters/ectologger"
	"gopkg.in/gomail.v2"
)

// Config holds SMTP settings.
type Config struct {
	Host     string
	Port     int
	From     string
	Password string
	Subject  string
	Body     string
}

// Mailer sends outbound mail.
type Mailer struct {
	config Config
	logger ectologger.Logger
}

func NewMailer(config Config, logger ectologger.Logger) *Mailer {
	return &Mailer{config: config, logger: logger}
}

// SendRecoveryCode mails the recovery code to the address. The configured
// body is a template with one %s slot for the code.
func (m *Mailer) SendRecoveryCode(to, code string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.config.From)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", m.config.Subject)
	msg.SetBody("text/plain", fmt.Sprintf(m.config.Body, code))

	dialer := gomail.NewDialer(m.config.Host, m.config.Port, m.config.From, m.config.Password)

	if err := dialer.DialAndSend(msg); err != nil {
		m.logger.WithError(err).Error("failed to send recovery mail")
		return fmt.Errorf("failed to send recovery mail: %w", err)
	}

	m.logger.WithFields(map[string]any{"to": to}).Info("sent recovery mail")
	return nil
}
