package usecase

import (
	"context"
	"errors"
	"slices"
	"strings"
	"time"

	"danskegas-backend/internal/domain"
	"danskegas-backend/internal/metrics"
	"danskegas-backend/pkg/apperror"
	"danskegas-backend/pkg/captcha"
	"danskegas-backend/pkg/email"
	"danskegas-backend/pkg/logger"
	"danskegas-backend/pkg/security"
	"danskegas-backend/pkg/security/antivirus"
	"danskegas-backend/pkg/validation"

	"go.uber.org/zap"
)

// Messages returned to the client.
const (
	MsgSent               = "Email sent successfully"
	MsgMissingFields      = "All required fields must be provided"
	MsgTokenRequired      = "reCAPTCHA token is required"
	MsgCaptchaConfig      = "reCAPTCHA configuration error. Please contact support."
	MsgCaptchaRejected    = "reCAPTCHA validation failed"
	MsgCaptchaUnavailable = "reCAPTCHA verification failed. Please try again."
	MsgSendFailed         = "Failed to send email. Please try again later."
	MsgUnexpected         = "Failed to send email"
)

const defaultCallTimeout = 10 * time.Second

// ContactOptions configures the contact usecase.
type ContactOptions struct {
	// CaptchaEnabled turns on the token and secret checks. When false the
	// verifier is expected to be captcha.DisabledVerifier.
	CaptchaEnabled bool
	// CaptchaSecretConfigured is false when the secret is empty or a sample value.
	CaptchaSecretConfigured bool
	Addressing              email.Addressing
	CaptchaTimeout          time.Duration
	EmailTimeout            time.Duration
	ScanTimeout             time.Duration
}

type contactUsecase struct {
	sender   email.Sender
	verifier captcha.Verifier
	scanner  antivirus.Scanner
	opts     ContactOptions
	secLog   *security.SecurityLogger
}

// NewContactUsecase creates a new contact usecase
func NewContactUsecase(sender email.Sender, verifier captcha.Verifier, scanner antivirus.Scanner, opts ContactOptions) domain.ContactUsecase {
	if scanner == nil {
		scanner = antivirus.NewNoOpScanner()
	}
	if opts.CaptchaTimeout <= 0 {
		opts.CaptchaTimeout = defaultCallTimeout
	}
	if opts.EmailTimeout <= 0 {
		opts.EmailTimeout = defaultCallTimeout
	}
	if opts.ScanTimeout <= 0 {
		opts.ScanTimeout = defaultCallTimeout
	}
	return &contactUsecase{
		sender:   sender,
		verifier: verifier,
		scanner:  scanner,
		opts:     opts,
		secLog:   security.DefaultLogger(),
	}
}

// Submit runs the checks in order and stops at the first failure. Nothing
// leaves the process until every check has passed.
func (uc *contactUsecase) Submit(ctx context.Context, in *domain.SubmissionInput) (*domain.SubmissionResult, error) {
	log := logger.Log.With(zap.String("request_id", domain.RequestIDFrom(ctx)))

	// Outbound calls finish even if the client goes away
	ctx = context.WithoutCancel(ctx)

	if missing := missingFields(in); len(missing) > 0 {
		uc.secLog.LogValidationFailed(ctx, in.RemoteIP, missing)
		metrics.RecordContactSubmission(metrics.OutcomeInvalid)
		return nil, apperror.Validation(MsgMissingFields)
	}

	if err := uc.verifyCaptcha(ctx, log, in); err != nil {
		return nil, err
	}

	if err := uc.checkAttachment(ctx, log, in); err != nil {
		return nil, err
	}

	doc, err := email.Assemble(in, uc.opts.Addressing)
	if err != nil {
		log.Error("failed to assemble email", zap.Error(err))
		metrics.RecordContactSubmission(metrics.OutcomeError)
		return nil, apperror.Unexpected(MsgUnexpected, err)
	}

	sendCtx, cancel := context.WithTimeout(ctx, uc.opts.EmailTimeout)
	defer cancel()

	start := time.Now()
	messageID, err := uc.sender.Send(sendCtx, doc)
	metrics.RecordEmailDispatch(uc.sender.Provider(), time.Since(start), err)
	if err != nil {
		log.Error("email dispatch failed",
			zap.String("provider", uc.sender.Provider()),
			zap.Error(err),
		)
		metrics.RecordContactSubmission(metrics.OutcomeError)
		return nil, apperror.Dispatch(MsgSendFailed, err)
	}

	log.Info("contact email sent",
		zap.String("provider", uc.sender.Provider()),
		zap.String("message_id", messageID),
		zap.String("department", in.Department),
		zap.Bool("attachment", in.HasAttachment()),
	)
	metrics.RecordContactSubmission(metrics.OutcomeSent)

	return &domain.SubmissionResult{
		Success:        true,
		Message:        MsgSent,
		EmailMessageID: messageID,
	}, nil
}

func (uc *contactUsecase) verifyCaptcha(ctx context.Context, log *zap.Logger, in *domain.SubmissionInput) error {
	if !uc.opts.CaptchaEnabled {
		metrics.RecordCaptchaVerification("disabled")
		return nil
	}

	if strings.TrimSpace(in.CaptchaToken) == "" {
		metrics.RecordContactSubmission(metrics.OutcomeInvalid)
		return apperror.Validation(MsgTokenRequired)
	}

	// Fail closed: never call the provider with an unusable secret
	if !uc.opts.CaptchaSecretConfigured {
		uc.secLog.LogConfigurationError(ctx, "captcha", "RECAPTCHA_SECRET_KEY unset or placeholder")
		metrics.RecordContactSubmission(metrics.OutcomeError)
		return apperror.Configuration(MsgCaptchaConfig, errors.New("recaptcha secret not configured"))
	}

	verifyCtx, cancel := context.WithTimeout(ctx, uc.opts.CaptchaTimeout)
	defer cancel()

	_, err := uc.verifier.Verify(verifyCtx, in.CaptchaToken, in.RemoteIP)
	switch {
	case err == nil:
		metrics.RecordCaptchaVerification("verified")
		return nil
	case errors.Is(err, captcha.ErrVerificationFailed):
		var verr *captcha.VerificationError
		var codes []string
		if errors.As(err, &verr) {
			codes = verr.Codes
		}
		uc.secLog.LogCaptchaFailed(ctx, in.RemoteIP, codes)
		metrics.RecordCaptchaVerification("failed")
		metrics.RecordContactSubmission(metrics.OutcomeCaptchaFailed)
		return apperror.VerificationFailed(MsgCaptchaRejected, err)
	default:
		log.Error("captcha verification unavailable", zap.Error(err))
		uc.secLog.LogCaptchaUnavailable(ctx, in.RemoteIP, err)
		metrics.RecordCaptchaVerification("unavailable")
		metrics.RecordContactSubmission(metrics.OutcomeError)
		return apperror.VerificationUnavailable(MsgCaptchaUnavailable, err)
	}
}

func (uc *contactUsecase) checkAttachment(ctx context.Context, log *zap.Logger, in *domain.SubmissionInput) error {
	if !in.HasAttachment() {
		return nil
	}
	att := in.Attachment

	err := security.ValidateAttachment(att.Name, att.Size, att.MIMEType)
	if err == nil {
		err = security.VerifyAttachmentContent(att.MIMEType, att.Content)
	}
	if err != nil {
		var attErr *security.AttachmentError
		if !errors.As(err, &attErr) {
			metrics.RecordContactSubmission(metrics.OutcomeError)
			return apperror.Unexpected(MsgUnexpected, err)
		}
		uc.secLog.LogAttachmentRejected(ctx, in.Email, in.RemoteIP, att.Name, att.MIMEType, attErr.Reason)
		metrics.RecordAttachmentRejection(attErr.Reason)
		metrics.RecordContactSubmission(metrics.OutcomeInvalid)
		return apperror.Validation(attErr.Message)
	}

	scanCtx, cancel := context.WithTimeout(ctx, uc.opts.ScanTimeout)
	defer cancel()

	res := uc.scanner.Scan(scanCtx, att.Name, att.Content)
	switch {
	case res.Error != nil:
		log.Error("attachment scan failed", zap.String("scanner", res.ScannerName), zap.Error(res.Error))
		metrics.RecordContactSubmission(metrics.OutcomeError)
		return apperror.Unexpected(MsgUnexpected, res.Error)
	case res.Infected:
		uc.secLog.LogMalwareDetected(ctx, in.Email, in.RemoteIP, res.ThreatName, res.ScannerName)
		metrics.RecordAttachmentRejection(security.ReasonMalware)
		metrics.RecordContactSubmission(metrics.OutcomeInvalid)
		return apperror.Validation(security.MsgMalware)
	}
	return nil
}

func missingFields(in *domain.SubmissionInput) []string {
	if validation.RequiredFieldsPresent(in.FullName, in.Phone, in.Email, in.Department, in.Comment) {
		return nil
	}
	var missing []string
	for name, v := range map[string]string{
		domain.FieldFullName:   in.FullName,
		domain.FieldPhone:      in.Phone,
		domain.FieldEmail:      in.Email,
		domain.FieldDepartment: in.Department,
		domain.FieldContents:   in.Comment,
	} {
		if strings.TrimSpace(v) == "" {
			missing = append(missing, name)
		}
	}
	slices.Sort(missing)
	return missing
}
