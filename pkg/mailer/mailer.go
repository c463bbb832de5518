package mailer

import (
	"context"

	"go.uber.org/zap"
)

// Message is a rendered transactional email.
type Message struct {
	To      string
	ToName  string
	Subject string
	HTML    string
	Text    string
}

// LogMailer writes messages to the log instead of sending them. It backs local
// development when no provider key is configured.
type LogMailer struct {
	logger *zap.Logger
}

// NewLogMailer builds a LogMailer.
func NewLogMailer(logger *zap.Logger) *LogMailer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogMailer{logger: logger}
}

// Send logs msg.
func (m *LogMailer) Send(_ context.Context, msg Message) error {
	m.logger.Info("email suppressed", zap.String("to", msg.To), zap.String("subject", msg.Subject))
	return nil
}
