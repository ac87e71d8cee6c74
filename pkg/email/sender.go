package email

import (
	"context"
	"fmt"

	"danskegas-backend/internal/domain"
)

// Sender delivers one EmailDocument through a transactional email provider.
// Send makes exactly one provider call and never retries.
type Sender interface {
	Send(ctx context.Context, doc *domain.EmailDocument) (messageID string, err error)
	Provider() string
}

// DispatchError is a failed provider call. Body is kept for server logs only.
type DispatchError struct {
	Provider   string
	StatusCode int
	Body       string
	Err        error
}

func (e *DispatchError) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("%s: send failed: %v", e.Provider, e.Err)
	case e.StatusCode != 0:
		return fmt.Sprintf("%s: send failed with status %d: %s", e.Provider, e.StatusCode, e.Body)
	default:
		return fmt.Sprintf("%s: send failed", e.Provider)
	}
}

func (e *DispatchError) Unwrap() error {
	return e.Err
}
