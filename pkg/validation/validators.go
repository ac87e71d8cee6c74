package validation

import (
	"reflect"
	"regexp"
	"strings"

	"danskegas-backend/internal/domain"

	"github.com/go-playground/validator/v10"
)

// Regex patterns
var (
	// Characters the phone input accepts; anything else is stripped on entry
	phoneStripRegex = regexp.MustCompile(`[^0-9+\-\s()]`)
	phoneRegex      = regexp.MustCompile(`^[0-9+\-\s()]*[0-9][0-9+\-\s()]*$`)
	spaceRunRegex   = regexp.MustCompile(`\s+`)
)

// ContactForm is the user-editable part of a submission.
type ContactForm struct {
	FullName   string `json:"fullName" validate:"required"`
	Phone      string `json:"phone" validate:"required,valid_phone"`
	Email      string `json:"email" validate:"required,email"`
	Department string `json:"department" validate:"required,valid_department"`
	Comment    string `json:"comment" validate:"required"`
}

// FormValidator holds a validator.Validate with the contact rules registered.
// Safe for concurrent use.
type FormValidator struct {
	validate *validator.Validate
}

func NewFormValidator() *FormValidator {
	v := validator.New()
	RegisterValidators(v)
	// Report fields by their wire name
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &FormValidator{validate: v}
}

// RegisterValidators registers custom validators to the validator instance
func RegisterValidators(v *validator.Validate) {
	_ = v.RegisterValidation("valid_phone", ValidPhone)
	_ = v.RegisterValidation("valid_department", ValidDepartment)
}

// Validate normalizes the form and checks every rule. The returned map is
// keyed by field name and holds one message per failing field; it is empty
// when the form is valid.
func (fv *FormValidator) Validate(form ContactForm) map[string]string {
	form = Normalize(form)
	errs := map[string]string{}
	if err := fv.validate.Struct(form); err != nil {
		for field, msg := range FieldMessages(err) {
			errs[field] = msg
		}
	}
	return errs
}

// Normalize trims every field and sanitizes the phone number.
func Normalize(form ContactForm) ContactForm {
	return ContactForm{
		FullName:   strings.TrimSpace(form.FullName),
		Phone:      SanitizePhone(form.Phone),
		Email:      strings.TrimSpace(form.Email),
		Department: strings.TrimSpace(form.Department),
		Comment:    strings.TrimSpace(form.Comment),
	}
}

// SanitizePhone drops characters a phone field never accepts and collapses
// whitespace runs.
func SanitizePhone(phone string) string {
	phone = phoneStripRegex.ReplaceAllString(phone, "")
	return strings.TrimSpace(spaceRunRegex.ReplaceAllString(phone, " "))
}

// RequiredFieldsPresent is the server's presence-only re-check. Format is
// not inspected.
func RequiredFieldsPresent(fullName, phone, email, department, comment string) bool {
	for _, v := range []string{fullName, phone, email, department, comment} {
		if strings.TrimSpace(v) == "" {
			return false
		}
	}
	return true
}

// ValidPhone validates a phone number structure
func ValidPhone(fl validator.FieldLevel) bool {
	val := fl.Field().String()
	if val == "" {
		return true
	}
	return phoneRegex.MatchString(val)
}

// ValidDepartment accepts only the fixed department names.
func ValidDepartment(fl validator.FieldLevel) bool {
	val := fl.Field().String()
	if val == "" {
		return true // required reports it
	}
	return domain.IsDepartment(val)
}
