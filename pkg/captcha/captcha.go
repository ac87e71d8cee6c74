// Package captcha verifies reCAPTCHA tokens submitted with the contact form.
package captcha

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrVerificationFailed means the provider answered and rejected the token.
	ErrVerificationFailed = errors.New("captcha: verification failed")
	// ErrServiceUnavailable means no usable answer was obtained from the provider.
	ErrServiceUnavailable = errors.New("captcha: verification service unavailable")
)

// Result is the provider's verdict for one token.
type Result struct {
	Success     bool     `json:"success"`
	ChallengeTS string   `json:"challenge_ts,omitempty"`
	Hostname    string   `json:"hostname,omitempty"`
	Score       float64  `json:"score,omitempty"`
	Action      string   `json:"action,omitempty"`
	ErrorCodes  []string `json:"error-codes,omitempty"`
}

// Verifier checks a client token. Implementations return ErrVerificationFailed
// or ErrServiceUnavailable (possibly wrapped) on failure.
type Verifier interface {
	Verify(ctx context.Context, token, remoteIP string) (*Result, error)
}

// VerificationError carries the provider's error codes.
type VerificationError struct {
	Codes []string
}

func (e *VerificationError) Error() string {
	if len(e.Codes) == 0 {
		return ErrVerificationFailed.Error()
	}
	return fmt.Sprintf("%s: %s", ErrVerificationFailed, strings.Join(e.Codes, ", "))
}

func (e *VerificationError) Unwrap() error {
	return ErrVerificationFailed
}

// DisabledVerifier accepts every token. Selected only by CAPTCHA_ENABLED=false.
type DisabledVerifier struct{}

var _ Verifier = DisabledVerifier{}

func (DisabledVerifier) Verify(ctx context.Context, token, remoteIP string) (*Result, error) {
	return &Result{Success: true}, nil
}
