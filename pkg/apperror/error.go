package apperror

import (
	"errors"
	"net/http"
)

// Kind classifies an AppError for logging and metrics. The HTTP status is
// carried separately in Code.
type Kind string

const (
	KindValidation    Kind = "validation"
	KindConfiguration Kind = "configuration"
	KindVerification  Kind = "verification"
	KindDispatch      Kind = "dispatch"
	KindUnexpected    Kind = "unexpected"
)

type AppError struct {
	Code    int    `json:"code"`
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func New(code int, kind Kind, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Kind:    kind,
		Message: message,
		Err:     err,
	}
}

// Validation is a user-correctable input problem. Never wraps a cause.
func Validation(message string) *AppError {
	return New(http.StatusBadRequest, KindValidation, message, nil)
}

func Configuration(message string, err error) *AppError {
	return New(http.StatusInternalServerError, KindConfiguration, message, err)
}

// VerificationFailed means the CAPTCHA provider answered and rejected the token.
func VerificationFailed(message string, err error) *AppError {
	return New(http.StatusBadRequest, KindVerification, message, err)
}

// VerificationUnavailable means the CAPTCHA provider could not give an answer.
func VerificationUnavailable(message string, err error) *AppError {
	return New(http.StatusInternalServerError, KindVerification, message, err)
}

func Dispatch(message string, err error) *AppError {
	return New(http.StatusInternalServerError, KindDispatch, message, err)
}

func Unexpected(message string, err error) *AppError {
	return New(http.StatusInternalServerError, KindUnexpected, message, err)
}

// KindOf returns the Kind of the first AppError in err's chain, or
// KindUnexpected when there is none.
func KindOf(err error) Kind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindUnexpected
}
