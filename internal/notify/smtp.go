package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"gopkg.in/gomail.v2"
)

// SMTPConfig holds the SMTP relay settings.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string

	// From is the sender address, e.g. "RunPool <hello@runpool.app>".
	From string
}

// SMTPSender sends messages through an SMTP relay.
type SMTPSender struct {
	from    string
	deliver func(*gomail.Message) error
}

// NewSMTPSender creates a sender dialing the relay for every message.
func NewSMTPSender(cfg SMTPConfig) (*SMTPSender, error) {
	if cfg.Host == "" || cfg.From == "" {
		return nil, errors.New("smtp host and from address are required")
	}
	dialer := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	return &SMTPSender{from: cfg.From, deliver: func(m *gomail.Message) error {
		return dialer.DialAndSend(m)
	}}, nil
}

// Send renders msg and hands it to the relay. gomail cannot be cancelled,
// so a cancelled ctx abandons the wait but not the delivery.
func (s *SMTPSender) Send(ctx context.Context, msg Message) (string, error) {
	id := newMessageID()

	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	if msg.ToName != "" {
		m.SetAddressHeader("To", msg.To, msg.ToName)
	} else {
		m.SetHeader("To", msg.To)
	}
	m.SetHeader("Subject", msg.Subject)
	m.SetHeader("Message-ID", id)
	m.SetBody("text/plain", msg.Text)
	if msg.HTML != "" {
		m.AddAlternative("text/html", msg.HTML)
	}

	done := make(chan error, 1)
	go func() { done <- s.deliver(m) }()

	select {
	case err := <-done:
		if err != nil {
			slog.Warn("SMTP delivery failed", "to", msg.To, "error", err)
			return "", fmt.Errorf("%w: %v", ErrSendFailure, err)
		}
		return id, nil
	case <-ctx.Done():
		return "", errors.Join(ErrSendFailure, ctx.Err())
	}
}
