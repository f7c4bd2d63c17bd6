package mailer

import (
	"context"
	"errors"
	"fmt"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/fortuneatelier/fortune-backend/pkg/config"
)

const (
	sendgridHost     = "https://api.sendgrid.com"
	sendgridEndpoint = "/v3/mail/send"
)

// SendgridSender posts messages to the SendGrid v3 mail API.
type SendgridSender struct {
	apiKey string
	host   string
	from   identity
}

// NewSendgridSender uses the public API host when host is empty.
func NewSendgridSender(apiKey, host string, from identity) (*SendgridSender, error) {
	if apiKey == "" {
		return nil, errors.New("mailer: sendgrid api key is required")
	}
	if host == "" {
		host = sendgridHost
	}
	return &SendgridSender{apiKey: apiKey, host: host, from: from}, nil
}

func (s *SendgridSender) Name() string { return config.MailTransportSendgrid }

func (s *SendgridSender) Send(ctx context.Context, msg Message) error {
	if err := msg.validate(); err != nil {
		return err
	}
	email := sgmail.NewSingleEmail(
		sgmail.NewEmail(s.from.name, s.from.address),
		msg.Subject,
		sgmail.NewEmail("", msg.To),
		msg.Text,
		msg.HTML,
	)

	req := sendgrid.GetRequest(s.apiKey, sendgridEndpoint, s.host)
	req.Method = rest.Post
	req.Body = sgmail.GetRequestBody(email)

	resp, err := sendgrid.MakeRequestWithContext(ctx, req)
	if err != nil {
		return fmt.Errorf("mailer: sendgrid send: %w", err)
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("mailer: sendgrid returned %d: %s", resp.StatusCode, resp.Body)
	}
	return nil
}
