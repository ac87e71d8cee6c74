package email

import (
	"context"
	"strings"

	"danskegas-backend/internal/domain"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

const ProviderSendGrid = "sendgrid"

// sendGridClient is the subset of *sendgrid.Client used here.
type sendGridClient interface {
	SendWithContext(ctx context.Context, email *mail.SGMailV3) (*rest.Response, error)
}

type SendGridSender struct {
	client sendGridClient
}

var _ Sender = (*SendGridSender)(nil)

func NewSendGridSender(apiKey string) *SendGridSender {
	return &SendGridSender{client: sendgrid.NewSendClient(apiKey)}
}

func (s *SendGridSender) Provider() string {
	return ProviderSendGrid
}

func (s *SendGridSender) Send(ctx context.Context, doc *domain.EmailDocument) (string, error) {
	resp, err := s.client.SendWithContext(ctx, buildSendGridMessage(doc))
	if err != nil {
		return "", &DispatchError{Provider: ProviderSendGrid, Err: err}
	}
	if resp.StatusCode >= 300 {
		return "", &DispatchError{Provider: ProviderSendGrid, StatusCode: resp.StatusCode, Body: resp.Body}
	}

	if ids := headerValues(resp.Headers, "X-Message-Id"); len(ids) > 0 {
		return ids[0], nil
	}
	return "", nil
}

func buildSendGridMessage(doc *domain.EmailDocument) *mail.SGMailV3 {
	from := mail.NewEmail(doc.FromName, doc.From)
	to := mail.NewEmail("", doc.To)
	m := mail.NewSingleEmail(from, doc.Subject, to, doc.TextBody, doc.HTMLBody)
	if doc.ReplyTo != "" {
		m.SetReplyTo(mail.NewEmail("", doc.ReplyTo))
	}

	for _, att := range doc.Attachments {
		a := mail.NewAttachment()
		a.SetContent(att.Content)
		a.SetType(att.ContentType)
		a.SetFilename(att.Filename)
		a.SetDisposition("attachment")
		m.AddAttachment(a)
	}
	return m
}

// headerValues looks up key case-insensitively; rest.Response keeps the
// header map as received.
func headerValues(h map[string][]string, key string) []string {
	if v, ok := h[key]; ok {
		return v
	}
	for k, v := range h {
		if strings.EqualFold(k, key) {
			return v
		}
	}
	return nil
}
