// Package mailer delivers HTML notification emails over SMTP.
package mailer

import (
	"github.com/Basil-Gomaa/AZTrackonomy/pkg/config"
	"github.com/Basil-Gomaa/AZTrackonomy/pkg/logger"
	"gopkg.in/gomail.v2"
)

type Message struct {
	To      string
	Subject string
	HTML    string
}

// Mailer is the delivery boundary. Send returns nil only when the transport
// accepted the message; callers own retry bookkeeping.
type Mailer interface {
	Send(msg Message) error
}

type SMTPMailer struct {
	dialer *gomail.Dialer
	from   string
}

func NewSMTP(cfg config.SMTPConfig) *SMTPMailer {
	return &SMTPMailer{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Password),
		from:   cfg.From,
	}
}

func (m *SMTPMailer) Send(msg Message) error {
	mail := gomail.NewMessage()
	mail.SetHeader("From", m.from)
	mail.SetHeader("To", msg.To)
	mail.SetHeader("Subject", msg.Subject)
	mail.SetBody("text/html", msg.HTML)

	if err := m.dialer.DialAndSend(mail); err != nil {
		logger.Error("failed to send email", "to", msg.To, "subject", msg.Subject, "error", err)
		return err
	}
	logger.Info("email sent", "to", msg.To, "subject", msg.Subject)
	return nil
}
