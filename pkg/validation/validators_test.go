package validation

import (
	"testing"

	"danskegas-backend/internal/domain"

	"github.com/stretchr/testify/assert"
)

func validForm() ContactForm {
	return ContactForm{
		FullName:   "Jane Doe",
		Phone:      "+48 22 490 80 00",
		Email:      "jane@example.com",
		Department: "LPG Department",
		Comment:    "Please call me back",
	}
}

func TestFormValidator_ValidForm(t *testing.T) {
	fv := NewFormValidator()
	assert.Empty(t, fv.Validate(validForm()))
}

func TestFormValidator_AllDepartmentsAccepted(t *testing.T) {
	fv := NewFormValidator()
	for _, dep := range domain.Departments {
		form := validForm()
		form.Department = dep
		assert.Empty(t, fv.Validate(form), dep)
	}
}

func TestFormValidator_FieldErrors(t *testing.T) {
	fv := NewFormValidator()

	tests := []struct {
		name   string
		mutate func(*ContactForm)
		field  string
		msg    string
	}{
		{"missing name", func(f *ContactForm) { f.FullName = "  " }, "fullName", "Full name is required"},
		{"missing phone", func(f *ContactForm) { f.Phone = "" }, "phone", "Phone is required"},
		{"phone without digits", func(f *ContactForm) { f.Phone = "+() -" }, "phone", "Invalid phone number"},
		{"phone of letters only", func(f *ContactForm) { f.Phone = "call me" }, "phone", "Phone is required"},
		{"invalid email", func(f *ContactForm) { f.Email = "not-an-email" }, "email", "Invalid email address"},
		{"missing email", func(f *ContactForm) { f.Email = "" }, "email", "Invalid email address"},
		{"unknown department", func(f *ContactForm) { f.Department = "Sales" }, "department", "Please select a department"},
		{"missing department", func(f *ContactForm) { f.Department = "" }, "department", "Please select a department"},
		{"missing comment", func(f *ContactForm) { f.Comment = "\n\t" }, "comment", "Comment is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			form := validForm()
			tt.mutate(&form)
			errs := fv.Validate(form)
			assert.Len(t, errs, 1)
			assert.Equal(t, tt.msg, errs[tt.field])
		})
	}
}

func TestFormValidator_ReportsEveryField(t *testing.T) {
	fv := NewFormValidator()

	errs := fv.Validate(ContactForm{})

	assert.Equal(t, map[string]string{
		"fullName":   "Full name is required",
		"phone":      "Phone is required",
		"email":      "Invalid email address",
		"department": "Please select a department",
		"comment":    "Comment is required",
	}, errs)
}

func TestFormValidator_Idempotent(t *testing.T) {
	fv := NewFormValidator()
	forms := []ContactForm{validForm(), {}, {FullName: "x", Email: "bad"}}

	for _, form := range forms {
		first := fv.Validate(form)
		second := fv.Validate(form)
		assert.Equal(t, first, second)
	}
}

func TestSanitizePhone(t *testing.T) {
	assert.Equal(t, "+48 22 490 80 00", SanitizePhone("  +48 22  490\t80 00 "))
	assert.Equal(t, "(22) 490-80-00", SanitizePhone("(22) 490-80-00 ext"))
	assert.Equal(t, "", SanitizePhone("abc"))
}

func TestRequiredFieldsPresent(t *testing.T) {
	fields := [5]string{"Jane", "123", "jane@example.com", "LPG Department", "hi"}
	assert.True(t, RequiredFieldsPresent(fields[0], fields[1], fields[2], fields[3], fields[4]))

	// every combination with at least one field blanked
	for mask := 1; mask < 1<<5; mask++ {
		f := fields
		for i := 0; i < 5; i++ {
			if mask&(1<<i) != 0 {
				f[i] = " "
			}
		}
		assert.False(t, RequiredFieldsPresent(f[0], f[1], f[2], f[3], f[4]), "mask %05b", mask)
	}
}
