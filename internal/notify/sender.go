// Package notify delivers campaign e-mails.
package notify

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
)

// ErrSendFailure is returned when the transport did not accept a message.
var ErrSendFailure = errors.New("message was not accepted")

// Message is one outbound e-mail.
type Message struct {
	To     string
	ToName string

	Subject string

	// Text is the plain-text body. HTML, when set, is sent as an
	// alternative part.
	Text string
	HTML string
}

// Sender delivers messages. Send returns the provider message id once the
// transport accepted the message.
type Sender interface {
	Send(ctx context.Context, msg Message) (string, error)
}

// LogSender logs messages instead of sending them. Used in development.
type LogSender struct{}

// Send logs the message and returns a generated id.
func (LogSender) Send(ctx context.Context, msg Message) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", errors.Join(ErrSendFailure, err)
	}
	id := newMessageID()
	slog.Info("E-mail (not sent)", "to", msg.To, "subject", msg.Subject, "message_id", id)
	slog.Debug("E-mail body", "message_id", id, "text", msg.Text)
	return id, nil
}

func newMessageID() string {
	return "<" + uuid.NewString() + "@runpool>"
}
