package email

import (
	"context"
	"fmt"

	"danskegas-backend/config"
)

// NewSender selects the provider named by EMAIL_PROVIDER.
func NewSender(ctx context.Context, cfg *config.Config) (Sender, error) {
	switch cfg.EmailProvider {
	case config.EmailProviderSendGrid:
		return NewSendGridSender(cfg.SendGridAPIKey), nil
	case config.EmailProviderSES:
		return NewSESSender(ctx, cfg.AWSRegion)
	default:
		return nil, fmt.Errorf("unknown EMAIL_PROVIDER %q", cfg.EmailProvider)
	}
}

// AddressingFrom returns the fixed envelope configured for contact emails.
func AddressingFrom(cfg *config.Config) Addressing {
	return Addressing{
		FromName:    cfg.EmailFromName,
		FromAddress: cfg.EmailFromAddress,
		To:          cfg.ContactEmailTo,
	}
}
