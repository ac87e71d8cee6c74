package formclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"sync"
	"time"

	"danskegas-backend/internal/domain"
	"danskegas-backend/pkg/security"
	"danskegas-backend/pkg/validation"

	"github.com/xeipuuv/gojsonschema"
	"go.uber.org/zap"
)

// State is the controller's position in one submission attempt.
type State string

const (
	StateIdle            State = "idle"
	StateValidating      State = "validating"
	StateInvalid         State = "invalid"
	StateAwaitingCaptcha State = "awaiting_captcha"
	StateSubmitting      State = "submitting"
	StateSucceeded       State = "succeeded"
	StateFailed          State = "failed"
)

// Notices shown to the user.
const (
	MsgSucceeded       = "Email sent successfully. We will contact you soon."
	MsgCaptchaFailed   = "reCAPTCHA verification failed. Please try again."
	MsgRequestFailed   = "Failed to send email. Please try again later."
	MsgUnexpectedReply = "Unexpected server response. Please try again."
	MsgRejected        = "Failed to send email. Please try again."
	MsgUnexpectedError = "An unexpected error occurred. Please try again."
)

const maxResponseBodySize = 1 << 20

// ErrInProgress is returned when Submit is called while an attempt is running.
var ErrInProgress = errors.New("submission already in progress")

// Attachment is a file picked by the user.
type Attachment struct {
	Name        string
	ContentType string
	Data        []byte
}

// Form holds what the user typed. It is cleared after a successful send.
type Form struct {
	FullName   string
	Phone      string
	Email      string
	Department string
	Comment    string
	Attachment *Attachment
}

// Reset clears every field and the attachment.
func (f *Form) Reset() {
	*f = Form{}
}

// CaptchaWidget produces a challenge token. It must be reset after every
// attempt that used it so the next attempt gets a fresh token.
type CaptchaWidget interface {
	Execute(ctx context.Context) (string, error)
	Reset()
}

// Notifier surfaces the result of an attempt to the user.
type Notifier interface {
	Success(msg string)
	Error(msg string)
}

// Outcome describes how one attempt ended.
type Outcome struct {
	State       State
	Message     string
	FieldErrors map[string]string
	MessageID   string
}

// Controller drives a contact form through validate, CAPTCHA, POST and feedback.
type Controller struct {
	endpoint  string
	client    *http.Client
	captcha   CaptchaWidget
	notifier  Notifier
	validator *validation.FormValidator
	log       *zap.Logger
	onState   func(State)

	mu    sync.Mutex
	state State
}

type Option func(*Controller)

func WithHTTPClient(client *http.Client) Option {
	return func(c *Controller) { c.client = client }
}

// WithCaptcha enables the CAPTCHA step. Without it submissions carry no token.
func WithCaptcha(w CaptchaWidget) Option {
	return func(c *Controller) { c.captcha = w }
}

func WithNotifier(n Notifier) Option {
	return func(c *Controller) { c.notifier = n }
}

func WithLogger(l *zap.Logger) Option {
	return func(c *Controller) { c.log = l }
}

// WithStateHook is called on every state transition.
func WithStateHook(fn func(State)) Option {
	return func(c *Controller) { c.onState = fn }
}

// New returns a controller posting to endpoint, e.g.
// https://danskegas.com/api/send-email.
func New(endpoint string, opts ...Option) *Controller {
	c := &Controller{
		endpoint:  endpoint,
		client:    &http.Client{Timeout: 30 * time.Second},
		notifier:  nopNotifier{},
		validator: validation.NewFormValidator(),
		log:       zap.NewNop(),
		state:     StateIdle,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State returns the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Submit runs one attempt. Invalid input never reaches the network.
func (c *Controller) Submit(ctx context.Context, form *Form) (Outcome, error) {
	c.mu.Lock()
	switch c.state {
	case StateValidating, StateAwaitingCaptcha, StateSubmitting:
		c.mu.Unlock()
		return Outcome{}, ErrInProgress
	}
	c.state = StateValidating
	c.mu.Unlock()
	c.notify(StateValidating)

	if fieldErrs := c.validate(form); len(fieldErrs) > 0 {
		c.transition(StateInvalid)
		return Outcome{State: StateInvalid, FieldErrors: fieldErrs}, nil
	}

	var token string
	if c.captcha != nil {
		defer c.captcha.Reset()
		c.transition(StateAwaitingCaptcha)
		t, err := c.captcha.Execute(ctx)
		if err == nil && t == "" {
			err = errors.New("empty captcha token")
		}
		if err != nil {
			c.log.Warn("captcha challenge failed", zap.Error(err))
			return c.fail(MsgCaptchaFailed), nil
		}
		token = t
	}

	c.transition(StateSubmitting)
	reply, err := c.post(ctx, form, token)
	if err != nil {
		c.log.Warn("submission failed", zap.Error(err))
		return c.fail(failureMessage(err)), nil
	}

	form.Reset()
	c.notifier.Success(MsgSucceeded)
	c.transition(StateSucceeded)
	out := Outcome{State: StateSucceeded, Message: MsgSucceeded}
	if id, ok := reply.Data.(string); ok {
		out.MessageID = id
	}
	return out, nil
}

func (c *Controller) validate(form *Form) map[string]string {
	errs := c.validator.Validate(validation.ContactForm{
		FullName:   form.FullName,
		Phone:      form.Phone,
		Email:      form.Email,
		Department: form.Department,
		Comment:    form.Comment,
	})

	if att := form.Attachment; att != nil {
		if err := security.ValidateAttachment(att.Name, int64(len(att.Data)), att.ContentType); err != nil {
			errs[domain.FieldAttachment] = err.Error()
		}
	}
	return errs
}

func (c *Controller) fail(msg string) Outcome {
	c.notifier.Error(msg)
	c.transition(StateFailed)
	return Outcome{State: StateFailed, Message: msg}
}

func (c *Controller) transition(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
	c.notify(s)
}

func (c *Controller) notify(s State) {
	if c.onState != nil {
		c.onState(s)
	}
}

// reply is the server's JSON envelope.
type reply struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data"`
}

// replyError carries the message a failed attempt should show.
type replyError struct {
	userMessage string
	cause       string
}

func (e *replyError) Error() string { return e.cause }

func failureMessage(err error) string {
	var rErr *replyError
	if errors.As(err, &rErr) {
		return rErr.userMessage
	}
	return MsgUnexpectedError
}

func (c *Controller) post(ctx context.Context, form *Form, token string) (*reply, error) {
	body, contentType, err := encodeForm(form, token)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBodySize))
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := MsgRequestFailed
		if r, err := decodeReply(raw); err == nil && r.Message != "" {
			msg = r.Message
		}
		return nil, &replyError{userMessage: msg, cause: fmt.Sprintf("status %d", resp.StatusCode)}
	}

	r, err := decodeReply(raw)
	if err != nil {
		return nil, &replyError{userMessage: MsgUnexpectedReply, cause: err.Error()}
	}
	if !r.Success {
		msg := r.Message
		if msg == "" {
			msg = MsgRejected
		}
		return nil, &replyError{userMessage: msg, cause: "success=false"}
	}
	return r, nil
}

func encodeForm(form *Form, token string) (io.Reader, string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	n := validation.Normalize(validation.ContactForm{
		FullName:   form.FullName,
		Phone:      form.Phone,
		Email:      form.Email,
		Department: form.Department,
		Comment:    form.Comment,
	})
	fields := []struct{ name, value string }{
		{domain.FieldFullName, n.FullName},
		{domain.FieldPhone, n.Phone},
		{domain.FieldEmail, n.Email},
		{domain.FieldDepartment, n.Department},
		{domain.FieldContents, n.Comment},
	}
	for _, f := range fields {
		if err := mw.WriteField(f.name, f.value); err != nil {
			return nil, "", err
		}
	}
	if token != "" {
		if err := mw.WriteField(domain.FieldRecaptchaToken, token); err != nil {
			return nil, "", err
		}
	}

	if att := form.Attachment; att != nil {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
			domain.FieldAttachment, escapeQuotes(att.Name)))
		h.Set("Content-Type", att.ContentType)
		w, err := mw.CreatePart(h)
		if err != nil {
			return nil, "", err
		}
		if _, err := w.Write(att.Data); err != nil {
			return nil, "", err
		}
	}

	if err := mw.Close(); err != nil {
		return nil, "", err
	}
	return &buf, mw.FormDataContentType(), nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}

const replySchema = `{
	"type": "object",
	"required": ["success", "message"],
	"properties": {
		"success": {"type": "boolean"},
		"message": {"type": "string"}
	}
}`

var replySchemaLoader = gojsonschema.NewStringLoader(replySchema)

// decodeReply checks raw against the envelope schema before decoding it.
func decodeReply(raw []byte) (*reply, error) {
	result, err := gojsonschema.Validate(replySchemaLoader, gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return nil, fmt.Errorf("malformed response: %w", err)
	}
	if !result.Valid() {
		errs := make([]string, len(result.Errors()))
		for i, desc := range result.Errors() {
			errs[i] = desc.String()
		}
		return nil, fmt.Errorf("response does not match envelope: %v", errs)
	}

	var r reply
	if err := json.Unmarshal(raw, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

type nopNotifier struct{}

func (nopNotifier) Success(string) {}
func (nopNotifier) Error(string)   {}

// StaticToken is a CaptchaWidget for callers that obtained a token elsewhere.
type StaticToken string

func (t StaticToken) Execute(context.Context) (string, error) {
	return string(t), nil
}

func (StaticToken) Reset() {}
