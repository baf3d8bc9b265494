package mail

import (
	"context"

	"go.uber.org/zap"

	"github.com/noah-isme/tutoring-api/pkg/config"
)

// Message is a single outbound plain-text email.
type Message struct {
	To      []string
	Subject string
	Body    string
}

// Mailer delivers messages. Delivery is best effort: callers treat a
// returned error as a warning, never as a reason to roll back.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// New selects a mail backend from configuration.
func New(cfg config.MailConfig, logger *zap.Logger) Mailer {
	if logger == nil {
		logger = zap.NewNop()
	}
	switch cfg.Backend {
	case "sendgrid":
		return NewSendgridMailer(cfg, logger)
	default:
		return NewConsoleMailer(cfg, logger)
	}
}
