package email

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"time"

	"danskegas-backend/internal/domain"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/jhillyerd/enmime"
)

const ProviderSES = "ses"

// SESService is the subset of *ses.Client used here.
type SESService interface {
	SendRawEmail(ctx context.Context, params *ses.SendRawEmailInput, optFns ...func(*ses.Options)) (*ses.SendRawEmailOutput, error)
}

// SESSender sends a raw MIME message through Amazon SES so attachments
// travel unchanged.
type SESSender struct {
	client SESService
	now    func() time.Time
}

var _ Sender = (*SESSender)(nil)

// NewSESSender loads AWS credentials from the default chain.
func NewSESSender(ctx context.Context, region string) (*SESSender, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return NewSESSenderWithClient(ses.NewFromConfig(cfg)), nil
}

func NewSESSenderWithClient(client SESService) *SESSender {
	return &SESSender{client: client, now: time.Now}
}

func (s *SESSender) Provider() string {
	return ProviderSES
}

func (s *SESSender) Send(ctx context.Context, doc *domain.EmailDocument) (string, error) {
	raw, err := BuildMIME(doc, s.now())
	if err != nil {
		return "", &DispatchError{Provider: ProviderSES, Err: err}
	}

	out, err := s.client.SendRawEmail(ctx, &ses.SendRawEmailInput{
		Source:       aws.String(doc.From),
		Destinations: []string{doc.To},
		RawMessage:   &types.RawMessage{Data: raw},
	})
	if err != nil {
		return "", &DispatchError{Provider: ProviderSES, Err: err}
	}
	return aws.ToString(out.MessageId), nil
}

// BuildMIME encodes doc as an RFC 5322 message with text and HTML
// alternatives and any attachments.
func BuildMIME(doc *domain.EmailDocument, date time.Time) ([]byte, error) {
	b := enmime.Builder().
		From(doc.FromName, doc.From).
		To("", doc.To).
		Subject(doc.Subject).
		Date(date).
		Text([]byte(doc.TextBody)).
		HTML([]byte(doc.HTMLBody))
	if doc.ReplyTo != "" {
		b = b.ReplyTo("", doc.ReplyTo)
	}

	for _, att := range doc.Attachments {
		content, err := base64.StdEncoding.DecodeString(att.Content)
		if err != nil {
			return nil, fmt.Errorf("decode attachment %q: %w", att.Filename, err)
		}
		b = b.AddAttachment(content, att.ContentType, att.Filename)
	}

	part, err := b.Build()
	if err != nil {
		return nil, fmt.Errorf("build MIME message: %w", err)
	}

	var buf bytes.Buffer
	if err := part.Encode(&buf); err != nil {
		return nil, fmt.Errorf("encode MIME message: %w", err)
	}
	return buf.Bytes(), nil
}
