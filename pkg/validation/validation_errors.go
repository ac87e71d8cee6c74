package validation

import (
	"errors"

	"github.com/go-playground/validator/v10"
)

// fieldMessages maps field name and failed tag to the message shown under the input.
var fieldMessages = map[string]map[string]string{
	"fullName": {
		"required": "Full name is required",
	},
	"phone": {
		"required":    "Phone is required",
		"valid_phone": "Invalid phone number",
	},
	"email": {
		"required": "Invalid email address",
		"email":    "Invalid email address",
	},
	"department": {
		"required":         "Please select a department",
		"valid_department": "Please select a department",
	},
	"comment": {
		"required": "Comment is required",
	},
}

// FieldMessages converts validator.ValidationErrors to one user-facing
// message per field. Any other error is reported under the "form" key.
func FieldMessages(err error) map[string]string {
	out := map[string]string{}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		out["form"] = err.Error()
		return out
	}

	for _, e := range validationErrors {
		if _, seen := out[e.Field()]; seen {
			continue
		}
		out[e.Field()] = formatSingleError(e)
	}
	return out
}

// formatSingleError formats a single validation error to a user-friendly message
func formatSingleError(e validator.FieldError) string {
	if byTag, ok := fieldMessages[e.Field()]; ok {
		if msg, ok := byTag[e.Tag()]; ok {
			return msg
		}
	}
	switch e.Tag() {
	case "required":
		return e.Field() + " is required"
	case "email":
		return "Invalid email address"
	default:
		return e.Field() + " is invalid"
	}
}
