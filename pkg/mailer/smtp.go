package mailer

import (
	"context"
	"errors"
	"fmt"

	gomail "github.com/wneessen/go-mail"

	"github.com/fortuneatelier/fortune-backend/pkg/config"
)

// SMTPSender relays messages through an SMTP server with opportunistic TLS.
type SMTPSender struct {
	from   identity
	client *gomail.Client
}

func NewSMTPSender(cfg config.MailConfig, from identity) (*SMTPSender, error) {
	if cfg.SMTPHost == "" {
		return nil, errors.New("mailer: smtp host is required")
	}
	opts := []gomail.Option{
		gomail.WithPort(cfg.SMTPPort),
		gomail.WithTLSPortPolicy(gomail.TLSOpportunistic),
	}
	if cfg.SMTPUser != "" && cfg.SMTPPass != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(cfg.SMTPUser),
			gomail.WithPassword(cfg.SMTPPass),
		)
	}
	client, err := gomail.NewClient(cfg.SMTPHost, opts...)
	if err != nil {
		return nil, fmt.Errorf("mailer: smtp client: %w", err)
	}
	return &SMTPSender{from: from, client: client}, nil
}

func (s *SMTPSender) Name() string { return config.MailTransportSMTP }

func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	m, err := buildMsg(s.from, msg)
	if err != nil {
		return err
	}
	if err := s.client.DialAndSendWithContext(ctx, m); err != nil {
		return fmt.Errorf("mailer: smtp send: %w", err)
	}
	return nil
}

func buildMsg(from identity, msg Message) (*gomail.Msg, error) {
	if err := msg.validate(); err != nil {
		return nil, err
	}
	m := gomail.NewMsg()
	if err := m.FromFormat(from.name, from.address); err != nil {
		return nil, fmt.Errorf("mailer: from address: %w", err)
	}
	if err := m.To(msg.To); err != nil {
		return nil, fmt.Errorf("mailer: recipient: %w", err)
	}
	m.Subject(msg.Subject)
	m.SetBodyString(gomail.TypeTextPlain, msg.Text)
	if msg.HTML != "" {
		m.AddAlternativeString(gomail.TypeTextHTML, msg.HTML)
	}
	return m, nil
}
