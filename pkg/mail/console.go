package mail

import (
	"context"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/noah-isme/tutoring-api/pkg/config"
)

// ConsoleMailer writes messages to the log instead of delivering them.
// Used in development and in tests; it records everything it "sent".
type ConsoleMailer struct {
	subjPrefix string
	logger     *zap.Logger

	mu   sync.Mutex
	sent []Message
}

var _ Mailer = (*ConsoleMailer)(nil)

// NewConsoleMailer builds a console backed mailer.
func NewConsoleMailer(cfg config.MailConfig, logger *zap.Logger) *ConsoleMailer {
	return &ConsoleMailer{
		subjPrefix: "[" + cfg.ServiceName + "] ",
		logger:     logger,
	}
}

// Send logs the message and records it.
func (m *ConsoleMailer) Send(_ context.Context, msg Message) error {
	if len(msg.To) == 0 || msg.Body == "" {
		return nil
	}

	m.logger.Info("outbound email",
		zap.String("to", strings.Join(msg.To, ", ")),
		zap.String("subject", m.subjPrefix+msg.Subject),
		zap.String("body", msg.Body),
	)

	m.mu.Lock()
	m.sent = append(m.sent, msg)
	m.mu.Unlock()
	return nil
}

// Sent returns a copy of every message recorded so far.
func (m *ConsoleMailer) Sent() []Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Message, len(m.sent))
	copy(out, m.sent)
	return out
}
