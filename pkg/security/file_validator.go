package security

import (
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// MaxAttachmentSize is the largest accepted attachment, in bytes (2 MiB).
const MaxAttachmentSize int64 = 2 * 1024 * 1024

// Rejection reasons, also used as metric labels.
const (
	ReasonTooLarge        = "too_large"
	ReasonDeniedExtension = "denied_extension"
	ReasonDeniedMIME      = "denied_mime"
	ReasonNotAllowed      = "not_allowed"
	ReasonContentMismatch = "content_mismatch"
	ReasonMalware         = "malware"
)

// User-facing messages. The client and server show the same text.
const (
	MsgTooLarge        = "File size must be less than 2 MB"
	MsgDenied          = "Unsupported file type. Please use PDF, images, or documents."
	MsgNotAllowed      = "File type not supported. Please use common document formats."
	MsgContentMismatch = "File content does not match an allowed document type."
	MsgMalware         = "The attachment was rejected by the security scan."
)

// AttachmentError is returned when an attachment fails validation.
type AttachmentError struct {
	Reason  string
	Message string
}

func (e *AttachmentError) Error() string {
	return e.Message
}

// Allowed declared MIME types (strict whitelist)
var allowedMIMETypes = map[string]bool{
	"application/pdf": true,
	"image/jpeg":      true,
	"image/jpg":       true,
	"image/png":       true,
	"image/gif":       true,
	"text/plain":      true,
	// Office
	"application/msword":       true,
	"application/vnd.ms-excel": true,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": true,
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet":       true,
}

var deniedExtensions = map[string]bool{
	".exe": true,
	".bat": true,
	".scr": true,
	".js":  true,
	".vbs": true,
	".dll": true,
	".com": true,
}

var deniedMIMETypes = map[string]bool{
	"application/x-executable":      true,
	"application/x-msdownload":      true,
	"application/x-shockwave-flash": true,
	"video/x-msvideo":               true,
	"audio/mpeg":                    true,
}

// Sniffed types that are never accepted, whatever the declared type says.
var executableSignatures = []string{
	"application/vnd.microsoft.portable-executable",
	"application/x-msdownload",
	"application/x-dosexec",
	"application/x-executable",
	"application/x-elf",
	"application/x-sharedlib",
	"application/x-mach-binary",
	"application/x-shockwave-flash",
	"application/x-java-applet",
}

// Sniffed families accepted as attachment content.
var allowedSniffedTypes = []string{
	"application/pdf",
	"image/jpeg",
	"image/png",
	"image/gif",
	"text/plain",
	"application/msword",
	"application/vnd.ms-excel",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
}

// Sniffed text subtypes that may render or execute. Everything else that
// descends from text/plain is accepted for a text/plain declaration.
var markupSignatures = []string{
	"text/html",
	"image/svg+xml",
	"text/xml",
	"application/javascript",
	"text/x-php",
	"text/x-python",
	"text/x-perl",
	"text/x-lua",
	"text/x-tcl",
}

// Office formats whose content sniffs as a generic container.
var containerTypes = map[string]string{
	"application/msword":       "application/x-ole-storage",
	"application/vnd.ms-excel": "application/x-ole-storage",
	// OOXML
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": "application/zip",
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet":       "application/zip",
}

// ValidateAttachment checks size, extension and declared MIME type, in that
// order. It is pure and used by both the form client and the server.
func ValidateAttachment(filename string, size int64, declaredMIME string) error {
	if size > MaxAttachmentSize {
		return &AttachmentError{Reason: ReasonTooLarge, Message: MsgTooLarge}
	}

	ext := strings.ToLower(filepath.Ext(filename))
	if deniedExtensions[ext] {
		return &AttachmentError{Reason: ReasonDeniedExtension, Message: MsgDenied}
	}

	mt := normalizeMIME(declaredMIME)
	if deniedMIMETypes[mt] {
		return &AttachmentError{Reason: ReasonDeniedMIME, Message: MsgDenied}
	}
	if !allowedMIMETypes[mt] {
		return &AttachmentError{Reason: ReasonNotAllowed, Message: MsgNotAllowed}
	}
	return nil
}

// VerifyAttachmentContent sniffs data and rejects executables and anything
// whose detected type is outside the allow-list. The sniffed type wins over
// the declared one.
func VerifyAttachmentContent(declaredMIME string, data []byte) error {
	detected := mimetype.Detect(data)

	for m := detected; m != nil; m = m.Parent() {
		for _, sig := range executableSignatures {
			if m.Is(sig) {
				return &AttachmentError{Reason: ReasonContentMismatch, Message: MsgContentMismatch}
			}
		}
	}

	if IsAllowedContent(detected) {
		return nil
	}
	if normalizeMIME(declaredMIME) == "text/plain" && isPlainText(detected) {
		return nil
	}
	if container, ok := containerTypes[normalizeMIME(declaredMIME)]; ok && detected.Is(container) {
		return nil
	}
	return &AttachmentError{Reason: ReasonContentMismatch, Message: MsgContentMismatch}
}

// AttachmentContentType labels data for upload. Plain text subtypes such as
// CSV or JSON are reported as text/plain so the declared type stays on the
// allow-list.
func AttachmentContentType(data []byte) string {
	detected := mimetype.Detect(data)
	if !IsAllowedContent(detected) && isPlainText(detected) {
		return "text/plain"
	}
	return normalizeMIME(detected.String())
}

// isPlainText reports whether m descends from text/plain without passing
// through a markup or script type.
func isPlainText(m *mimetype.MIME) bool {
	for ; m != nil; m = m.Parent() {
		for _, sig := range markupSignatures {
			if m.Is(sig) {
				return false
			}
		}
		if m.Is("text/plain") {
			return true
		}
	}
	return false
}

// IsAllowedContent reports whether m is an allowed family. Parents are not
// consulted: HTML and SVG descend from text/plain.
func IsAllowedContent(m *mimetype.MIME) bool {
	for _, allowed := range allowedSniffedTypes {
		if m.Is(allowed) {
			return true
		}
	}
	return false
}

func normalizeMIME(v string) string {
	if i := strings.IndexByte(v, ';'); i >= 0 {
		v = v[:i]
	}
	return strings.ToLower(strings.TrimSpace(v))
}
