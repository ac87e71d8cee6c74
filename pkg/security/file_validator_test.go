package security

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var allowedDeclared = []string{
	"application/pdf",
	"image/jpeg",
	"image/jpg",
	"image/png",
	"image/gif",
	"text/plain",
	"application/msword",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	"application/vnd.ms-excel",
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
}

func requireReason(t *testing.T, err error, reason, msg string) {
	t.Helper()
	var attErr *AttachmentError
	require.ErrorAs(t, err, &attErr)
	assert.Equal(t, reason, attErr.Reason)
	assert.Equal(t, msg, attErr.Message)
}

func TestValidateAttachment_AcceptsAllowList(t *testing.T) {
	for _, mt := range allowedDeclared {
		assert.NoError(t, ValidateAttachment("cv.bin", 1024, mt), mt)
		assert.NoError(t, ValidateAttachment("cv", MaxAttachmentSize, mt), mt)
	}
	assert.NoError(t, ValidateAttachment("cv.pdf", 10, "application/pdf; charset=binary"))
	assert.NoError(t, ValidateAttachment("cv.pdf", 10, "Application/PDF"))
}

func TestValidateAttachment_SizeCheckedFirst(t *testing.T) {
	for _, mt := range append(allowedDeclared, "application/x-msdownload", "") {
		err := ValidateAttachment("big.exe", MaxAttachmentSize+1, mt)
		requireReason(t, err, ReasonTooLarge, "File size must be less than 2 MB")
	}

	// 3 MB PDF
	err := ValidateAttachment("report.pdf", 3*1000*1000, "application/pdf")
	requireReason(t, err, ReasonTooLarge, MsgTooLarge)
}

func TestValidateAttachment_DeniedExtensions(t *testing.T) {
	for _, name := range []string{"a.exe", "b.BAT", "c.scr", "d.js", "e.vbs", "f.dll", "g.com", "cv.pdf.exe"} {
		err := ValidateAttachment(name, 100, "application/pdf")
		requireReason(t, err, ReasonDeniedExtension, "Unsupported file type. Please use PDF, images, or documents.")
	}
}

func TestValidateAttachment_DeniedMIME(t *testing.T) {
	for _, mt := range []string{
		"application/x-executable",
		"application/x-msdownload",
		"application/x-shockwave-flash",
		"video/x-msvideo",
		"audio/mpeg",
	} {
		err := ValidateAttachment("file.pdf", 100, mt)
		requireReason(t, err, ReasonDeniedMIME, MsgDenied)
	}
}

func TestValidateAttachment_NotAllowListed(t *testing.T) {
	for _, mt := range []string{"", "application/octet-stream", "application/zip", "text/html", "image/webp"} {
		err := ValidateAttachment("file.dat", 100, mt)
		requireReason(t, err, ReasonNotAllowed, "File type not supported. Please use common document formats.")
	}
}

func TestValidateAttachment_Idempotent(t *testing.T) {
	cases := []struct {
		name string
		size int64
		mt   string
	}{
		{"ok.pdf", 10, "application/pdf"},
		{"bad.exe", 10, "application/pdf"},
		{"big.png", MaxAttachmentSize * 2, "image/png"},
	}
	for _, c := range cases {
		first := ValidateAttachment(c.name, c.size, c.mt)
		second := ValidateAttachment(c.name, c.size, c.mt)
		assert.Equal(t, first, second)
	}
}

// A Windows executable renamed to .pdf with a spoofed MIME type passes the
// declared checks and is caught by content sniffing.
func TestSpoofedExecutable(t *testing.T) {
	exe := append([]byte("MZ\x90\x00\x03\x00\x00\x00\x04\x00\x00\x00\xff\xff\x00\x00"), make([]byte, 64)...)

	assert.NoError(t, ValidateAttachment("invoice.pdf", int64(len(exe)), "application/pdf"))

	err := VerifyAttachmentContent("application/pdf", exe)
	requireReason(t, err, ReasonContentMismatch, MsgContentMismatch)

	// the original name is still caught by extension alone
	err = ValidateAttachment("invoice.exe", int64(len(exe)), "application/pdf")
	requireReason(t, err, ReasonDeniedExtension, MsgDenied)
}

func TestVerifyAttachmentContent(t *testing.T) {
	tests := []struct {
		name     string
		declared string
		data     []byte
		ok       bool
	}{
		{"pdf", "application/pdf", []byte("%PDF-1.4\n1 0 obj\n<<>>\nendobj\n"), true},
		{"png", "image/png", []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01"), true},
		{"jpeg", "image/jpg", []byte("\xff\xd8\xff\xe0\x00\x10JFIF\x00"), true},
		{"gif", "image/gif", []byte("GIF89a\x01\x00\x01\x00"), true},
		{"text", "text/plain", []byte("Hello,\nplease find my details below.\n"), true},
		{"pdf declared as text", "text/plain", []byte("%PDF-1.7\n"), true},
		{"csv notes", "text/plain", []byte("item,qty\nvalve,2\nhose,1\n"), true},
		{"tsv notes", "text/plain", []byte("item\tqty\nvalve\t2\nhose\t1\n"), true},
		{"json notes", "text/plain", []byte(`{"name":"Jane","qty":2}`), true},
		{"csv declared as pdf", "application/pdf", []byte("item,qty\nvalve,2\nhose,1\n"), false},
		{"html", "text/plain", []byte("<!DOCTYPE html><html><body><script>x()</script></body></html>"), false},
		{"svg", "text/plain", []byte(`<svg xmlns="http://www.w3.org/2000/svg" onload="x()"></svg>`), false},
		{"xml", "text/plain", []byte(`<?xml version="1.0"?><note>hi</note>`), false},
		{"php", "text/plain", []byte("<?php echo 1; ?>"), false},
		{"zip declared as docx", "application/vnd.openxmlformats-officedocument.wordprocessingml.document", []byte("PK\x03\x04\x14\x00\x00\x00\x08\x00"), true},
		{"zip declared as pdf", "application/pdf", []byte("PK\x03\x04\x14\x00\x00\x00\x08\x00"), false},
		{"elf", "application/pdf", []byte("\x7fELF\x02\x01\x01\x00\x00\x00\x00\x00\x00\x00\x00\x00\x02\x00"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := VerifyAttachmentContent(tt.declared, tt.data)
			if tt.ok {
				assert.NoError(t, err)
				return
			}
			requireReason(t, err, ReasonContentMismatch, MsgContentMismatch)
		})
	}
}

func TestAttachmentContentType(t *testing.T) {
	assert.Equal(t, "text/plain", AttachmentContentType([]byte("item,qty\nvalve,2\nhose,1\n")))
	assert.Equal(t, "text/plain", AttachmentContentType([]byte(`{"name":"Jane"}`)))
	assert.Equal(t, "application/pdf", AttachmentContentType([]byte("%PDF-1.4\n")))
	assert.Equal(t, "text/plain", AttachmentContentType([]byte("plain words")))
	assert.Equal(t, "text/html", AttachmentContentType([]byte("<!DOCTYPE html><html></html>")))
}
