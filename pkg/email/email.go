package email

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"html/template"
	"strings"
	texttemplate "text/template"

	"danskegas-backend/internal/domain"
)

const (
	Subject = "New Contact Form Submission"

	// Rendered when the message is blank; the field itself is still required.
	emptyMessagePlaceholder = "No additional details provided"
	companyFooter           = "DanskeGas ・ Wawelska 45/58 ・ 02-034 Warszawa, Poland"
)

// Addressing is the fixed envelope every submission is sent with.
type Addressing struct {
	FromName    string
	FromAddress string
	To          string
}

// contactEmailData holds the data for contact form emails
type contactEmailData struct {
	FullName      string
	Phone         string
	Email         string
	Department    string
	Message       string
	HasAttachment bool
	Footer        string
}

// contactEmailTemplate is the HTML template for contact form emails
const contactEmailTemplate = `<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>New Contact Form Submission</title>
</head>
<body style="background-color:#f9f9f9;color:#333;font-family:'Helvetica Neue',Helvetica,Arial,sans-serif;">
    <div style="max-width:600px;margin:0 auto;padding:40px;background-color:#ffffff;border-radius:8px;">
        <p style="font-size:24px;font-weight:bold;text-align:center;color:#d80a00;">New Contact Form Submission</p>
        <div style="padding:15px 20px;background-color:#f7f7f7;border-radius:6px;margin-bottom:15px;">
            <p style="font-size:18px;font-weight:600;color:#d80a00;">Contact Details:</p>
            <p style="font-size:16px;line-height:1.6;margin:0;">
                <strong>Full Name:</strong> {{.FullName}}<br>
                <strong>Phone:</strong> {{.Phone}}<br>
                <strong>Email:</strong> {{.Email}}<br>
                <strong>Department:</strong> {{.Department}}
            </p>
        </div>
        <div style="padding:15px 20px;background-color:#f7f7f7;border-radius:6px;margin-bottom:15px;">
            <p style="font-size:18px;font-weight:600;color:#d80a00;">Message:</p>
            <p style="font-size:16px;line-height:1.6;background-color:#fff;padding:15px;border-left:4px solid #d80a00;white-space:pre-wrap;">{{.Message}}</p>
        </div>
        {{- if .HasAttachment}}
        <div style="padding:15px 20px;background-color:#f7f7f7;border-radius:6px;margin-bottom:15px;">
            <p style="font-size:16px;margin:0;">An attachment was included with this submission.</p>
        </div>
        {{- end}}
        <p style="font-size:12px;color:#666;text-align:center;margin-top:30px;">{{.Footer}}</p>
    </div>
</body>
</html>`

const contactTextTemplate = `New Contact Form Submission

Contact Details:
Full Name: {{.FullName}}
Phone: {{.Phone}}
Email: {{.Email}}
Department: {{.Department}}

Message:
{{.Message}}
{{if .HasAttachment}}
An attachment was included with this submission.
{{end}}
--
{{.Footer}}
`

var (
	htmlTmpl = template.Must(template.New("contact").Parse(contactEmailTemplate))
	textTmpl = texttemplate.Must(texttemplate.New("contact-text").Parse(contactTextTemplate))
)

// Assemble renders a submission into an EmailDocument. It performs no I/O.
// Field values are expected to have passed validation already.
func Assemble(in *domain.SubmissionInput, addr Addressing) (*domain.EmailDocument, error) {
	data := contactEmailData{
		FullName:      strings.TrimSpace(in.FullName),
		Phone:         strings.TrimSpace(in.Phone),
		Email:         strings.TrimSpace(in.Email),
		Department:    strings.TrimSpace(in.Department),
		Message:       strings.TrimSpace(in.Comment),
		HasAttachment: in.HasAttachment(),
		Footer:        companyFooter,
	}
	if data.Message == "" {
		data.Message = emptyMessagePlaceholder
	}

	var html, text bytes.Buffer
	if err := htmlTmpl.Execute(&html, data); err != nil {
		return nil, fmt.Errorf("failed to execute email template: %w", err)
	}
	if err := textTmpl.Execute(&text, data); err != nil {
		return nil, fmt.Errorf("failed to execute text template: %w", err)
	}

	doc := &domain.EmailDocument{
		FromName: addr.FromName,
		From:     addr.FromAddress,
		To:       addr.To,
		ReplyTo:  data.Email,
		Subject:  Subject,
		HTMLBody: html.String(),
		TextBody: text.String(),
	}

	if data.HasAttachment {
		att := in.Attachment
		contentType := att.MIMEType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		doc.Attachments = append(doc.Attachments, domain.EmailAttachment{
			Filename:    att.Name,
			ContentType: contentType,
			Content:     base64.StdEncoding.EncodeToString(att.Content),
		})
	}

	return doc, nil
}
