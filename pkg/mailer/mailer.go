package mailer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/fortuneatelier/fortune-backend/pkg/config"
	"github.com/fortuneatelier/fortune-backend/pkg/logger"
)

// Message is one outbound email with text and HTML bodies.
type Message struct {
	To      string
	Subject string
	Text    string
	HTML    string
}

func (m Message) validate() error {
	if strings.TrimSpace(m.To) == "" {
		return errors.New("mailer: recipient is required")
	}
	if strings.TrimSpace(m.Subject) == "" {
		return errors.New("mailer: subject is required")
	}
	return nil
}

// Sender delivers messages through one transport.
type Sender interface {
	Name() string
	Send(ctx context.Context, msg Message) error
}

// Sender identity shared by every transport.
type identity struct {
	name    string
	address string
}

// New selects the transport named by configuration. The brand name is used
// as the sender display name.
func New(cfg config.MailConfig, brand string, logg *logger.Logger) (Sender, error) {
	from := identity{name: brand, address: cfg.From}
	switch strings.ToLower(strings.TrimSpace(cfg.Transport)) {
	case config.MailTransportSMTP:
		return NewSMTPSender(cfg, from)
	case config.MailTransportSendgrid:
		return NewSendgridSender(cfg.SendgridAPIKey, "", from)
	case config.MailTransportLog, "":
		return NewLogSender(logg), nil
	default:
		return nil, fmt.Errorf("mailer: unsupported transport %q", cfg.Transport)
	}
}

// LogSender writes messages to the structured log instead of sending them.
type LogSender struct {
	logg *logger.Logger
}

func NewLogSender(logg *logger.Logger) *LogSender {
	if logg == nil {
		logg = logger.Nop()
	}
	return &LogSender{logg: logg}
}

func (s *LogSender) Name() string { return config.MailTransportLog }

func (s *LogSender) Send(ctx context.Context, msg Message) error {
	if err := msg.validate(); err != nil {
		return err
	}
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"to":         msg.To,
		"subject":    msg.Subject,
		"text_bytes": len(msg.Text),
		"html_bytes": len(msg.HTML),
	}), "mailer.logged")
	return nil
}
