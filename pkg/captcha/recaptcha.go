package captcha

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const DefaultVerifyURL = "https://www.google.com/recaptcha/api/siteverify"

// RecaptchaVerifier calls Google's siteverify endpoint.
type RecaptchaVerifier struct {
	secret   string
	endpoint string
	client   *http.Client
}

var _ Verifier = (*RecaptchaVerifier)(nil)

// NewRecaptchaVerifier builds a verifier whose calls are bounded by timeout.
// An empty endpoint selects DefaultVerifyURL.
func NewRecaptchaVerifier(secret, endpoint string, timeout time.Duration) *RecaptchaVerifier {
	if endpoint == "" {
		endpoint = DefaultVerifyURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &RecaptchaVerifier{
		secret:   secret,
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
	}
}

func (v *RecaptchaVerifier) Verify(ctx context.Context, token, remoteIP string) (*Result, error) {
	form := url.Values{
		"secret":   {v.secret},
		"response": {token},
	}
	if remoteIP != "" {
		form.Set("remoteip", remoteIP)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrServiceUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := v.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrServiceUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %w", ErrServiceUnavailable, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: status %d: %s", ErrServiceUnavailable, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var result Result
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("%w: decode response: %w", ErrServiceUnavailable, err)
	}
	if !result.Success {
		return &result, &VerificationError{Codes: result.ErrorCodes}
	}
	return &result, nil
}
