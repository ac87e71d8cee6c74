package domain

import "context"

// Multipart field names of POST /api/send-email.
const (
	FieldFullName       = "fullName"
	FieldPhone          = "phone"
	FieldEmail          = "email"
	FieldDepartment     = "department"
	FieldContents       = "contents"
	FieldRecaptchaToken = "recaptchaToken"
	FieldAttachment     = "attachment"
)

// Departments a submission can be routed to. Order matches the form's select.
var Departments = []string{
	"LPG Department",
	"Heating Oil Department",
	"Traditional Fuels Department (Diesel & Gasoline)",
	"Racing Fuels Department",
	"Solid Fuels Department",
	"Electricity Department",
	"Technical Gases Department",
	"Chemicals Department",
	"Aviation Lubricants Department",
	"BIO Fuels Department",
}

// IsDepartment reports whether name is one of Departments (exact match).
func IsDepartment(name string) bool {
	for _, d := range Departments {
		if d == name {
			return true
		}
	}
	return false
}

// FileRef is an uploaded attachment held in memory for one request.
type FileRef struct {
	Name     string
	Size     int64
	MIMEType string // as declared by the client
	Content  []byte
}

// SubmissionInput is one contact/career form submit attempt.
type SubmissionInput struct {
	FullName     string
	Phone        string
	Email        string
	Department   string
	Comment      string
	Attachment   *FileRef
	CaptchaToken string
	RemoteIP     string
}

// HasAttachment treats zero-byte parts as no attachment.
func (in *SubmissionInput) HasAttachment() bool {
	return in.Attachment != nil && in.Attachment.Size > 0
}

type SubmissionResult struct {
	Success        bool   `json:"success"`
	Message        string `json:"message"`
	EmailMessageID string `json:"emailMessageId,omitempty"`
}

// EmailAttachment carries file content base64-encoded for transport.
type EmailAttachment struct {
	Filename    string
	ContentType string
	Content     string
}

// EmailDocument is a rendered submission ready for an email provider.
type EmailDocument struct {
	FromName    string
	From        string
	To          string
	ReplyTo     string
	Subject     string
	HTMLBody    string
	TextBody    string
	Attachments []EmailAttachment
}

// ContactUsecase defines the interface for contact form operations
type ContactUsecase interface {
	// Submit validates, verifies and dispatches one submission. Errors are
	// *apperror.AppError values carrying the HTTP status.
	Submit(ctx context.Context, in *SubmissionInput) (*SubmissionResult, error)
}
