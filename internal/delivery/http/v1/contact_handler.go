package v1

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"danskegas-backend/internal/delivery/http/middleware"
	"danskegas-backend/internal/delivery/http/response"
	"danskegas-backend/internal/domain"
	"danskegas-backend/pkg/apperror"
	"danskegas-backend/pkg/security"

	"github.com/gin-gonic/gin"
)

// multipartMemory is how much of a form is held in memory before parts spill
// to temporary files.
const multipartMemory = 4 << 20

type ContactHandler struct {
	contactUC       domain.ContactUsecase
	maxRequestBytes int64
}

// NewContactHandler registers the contact routes (public, no auth required)
func NewContactHandler(public *gin.RouterGroup, contactUC domain.ContactUsecase, maxRequestBytes int64) {
	handler := &ContactHandler{
		contactUC:       contactUC,
		maxRequestBytes: maxRequestBytes,
	}

	public.POST("/send-email", handler.SendEmail)
}

// SendEmail godoc
// @Summary      Submit Contact Form
// @Description  Relays a contact or career form submission to the company mailbox. Public endpoint.
// @Tags         contact
// @Accept       multipart/form-data
// @Produce      json
// @Param        fullName        formData  string  true   "Full name"
// @Param        phone           formData  string  true   "Phone number"
// @Param        email           formData  string  true   "Email address"
// @Param        department      formData  string  true   "Department"
// @Param        contents        formData  string  true   "Message"
// @Param        recaptchaToken  formData  string  false  "reCAPTCHA token"
// @Param        attachment      formData  file    false  "Attachment, at most 2 MB"
// @Success      200  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Failure      500  {object}  response.Response
// @Router       /send-email [post]
func (h *ContactHandler) SendEmail(c *gin.Context) {
	if h.maxRequestBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxRequestBytes)
	}

	if err := c.Request.ParseMultipartForm(multipartMemory); err != nil {
		_ = c.Error(apperror.Unexpected(middleware.GenericErrorMessage, fmt.Errorf("parse multipart form: %w", err)))
		return
	}
	defer func() {
		_ = c.Request.MultipartForm.RemoveAll()
	}()

	in := &domain.SubmissionInput{
		FullName:     c.PostForm(domain.FieldFullName),
		Phone:        c.PostForm(domain.FieldPhone),
		Email:        c.PostForm(domain.FieldEmail),
		Department:   c.PostForm(domain.FieldDepartment),
		Comment:      c.PostForm(domain.FieldContents),
		CaptchaToken: c.PostForm(domain.FieldRecaptchaToken),
		RemoteIP:     c.ClientIP(),
	}

	att, err := readAttachment(c)
	if err != nil {
		_ = c.Error(apperror.Unexpected(middleware.GenericErrorMessage, err))
		return
	}
	in.Attachment = att

	res, err := h.contactUC.Submit(c.Request.Context(), in)
	if err != nil {
		_ = c.Error(err)
		return
	}

	response.Success(c, http.StatusOK, res.Message, res.EmailMessageID)
}

// readAttachment returns the optional attachment part. Content is only read
// when the part is within the size limit; larger parts are rejected later
// from their size alone.
func readAttachment(c *gin.Context) (*domain.FileRef, error) {
	fh, err := c.FormFile(domain.FieldAttachment)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read attachment header: %w", err)
	}

	ref := &domain.FileRef{
		Name:     fh.Filename,
		Size:     fh.Size,
		MIMEType: fh.Header.Get("Content-Type"),
	}
	if fh.Size == 0 || fh.Size > security.MaxAttachmentSize {
		return ref, nil
	}

	ref.Content, err = readPart(fh)
	if err != nil {
		return nil, err
	}
	return ref, nil
}

func readPart(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open attachment: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, security.MaxAttachmentSize+1))
	if err != nil {
		return nil, fmt.Errorf("read attachment: %w", err)
	}
	return data, nil
}
