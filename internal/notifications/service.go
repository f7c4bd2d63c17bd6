package notifications

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	htmltemplate "html/template"
	texttemplate "text/template"
	"time"

	"github.com/fortuneatelier/fortune-backend/pkg/config"
	"github.com/fortuneatelier/fortune-backend/pkg/db/models"
	pkgerrors "github.com/fortuneatelier/fortune-backend/pkg/errors"
	"github.com/fortuneatelier/fortune-backend/pkg/mailer"
)

const disclaimer = "This service offers general readings for entertainment. " +
	"It does not provide medical, legal, or investment advice."

//go:embed templates/*.tmpl
var templateFS embed.FS

var (
	htmlBody = htmltemplate.Must(htmltemplate.ParseFS(templateFS, "templates/report_ready.html.tmpl"))
	textBody = texttemplate.Must(texttemplate.ParseFS(templateFS, "templates/report_ready.txt.tmpl"))
)

type receiptData struct {
	Brand       string
	OrderID     string
	Name        string
	Birthdate   string
	DownloadURL string
	TermsURL    string
	PrivacyURL  string
	Disclaimer  string
	Year        int
}

// Service emails customers when their report is ready.
type Service struct {
	sender mailer.Sender
	app    config.AppConfig
	now    func() time.Time
}

func NewService(sender mailer.Sender, app config.AppConfig) (*Service, error) {
	if sender == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "mail sender required")
	}
	return &Service{sender: sender, app: app, now: time.Now}, nil
}

// NotifyReportReady sends the receipt email with the download link.
func (s *Service) NotifyReportReady(ctx context.Context, order *models.Order, downloadURL string) error {
	if order == nil || order.Email == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "order email required")
	}
	msg, err := s.reportReadyMessage(order, downloadURL)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "render receipt email")
	}
	if err := s.sender.Send(ctx, msg); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "send receipt email")
	}
	return nil
}

func (s *Service) reportReadyMessage(order *models.Order, downloadURL string) (mailer.Message, error) {
	data := receiptData{
		Brand:       s.app.BrandName,
		OrderID:     order.ID,
		Name:        order.Name,
		Birthdate:   order.Birthdate,
		DownloadURL: downloadURL,
		TermsURL:    s.app.AbsoluteURL("/terms"),
		PrivacyURL:  s.app.AbsoluteURL("/privacy"),
		Disclaimer:  disclaimer,
		Year:        s.now().Year(),
	}

	var html, text bytes.Buffer
	if err := htmlBody.Execute(&html, data); err != nil {
		return mailer.Message{}, err
	}
	if err := textBody.Execute(&text, data); err != nil {
		return mailer.Message{}, err
	}
	return mailer.Message{
		To:      order.Email,
		Subject: fmt.Sprintf("[%s] Your fortune report is ready (order %s)", s.app.BrandName, order.ID),
		Text:    text.String(),
		HTML:    html.String(),
	}, nil
}
