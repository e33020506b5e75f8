package auth

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// RegistrationForm is the submitted sign-up form.
type RegistrationForm struct {
	Username string `form:"username" validate:"required,alphanum,max=150"`
	Email    string `form:"email" validate:"required,email"`
	Password string `form:"password" validate:"required,min=6"`
}

// Normalize trims the username and email. The password is kept verbatim.
func (f *RegistrationForm) Normalize() {
	f.Username = strings.TrimSpace(f.Username)
	f.Email = strings.TrimSpace(f.Email)
}

// FormErrors maps a form field to the message shown next to it.
type FormErrors map[string]string

func (e FormErrors) Any() bool { return len(e) > 0 }

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

var messages = map[string]map[string]string{
	"username": {
		"required": "Username is required",
		"alphanum": "Username should only contain alphanumeric characters",
		"max":      "Username must be at most 150 characters",
	},
	"email": {
		"required": "Email is required",
		"email":    "Email is invalid",
	},
	"password": {
		"required": "Password is required",
		"min":      "Password too short",
	},
}

func messageFor(field, tag string) string {
	if m, ok := messages[field][tag]; ok {
		return m
	}
	return "Invalid " + field
}

// Validate checks the shape of every field. Uniqueness is checked by the
// account service.
func (f RegistrationForm) Validate() FormErrors {
	errs := FormErrors{}
	err := validate.Struct(f)
	if err == nil {
		return errs
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		errs["form"] = err.Error()
		return errs
	}
	for _, fe := range verrs {
		if _, seen := errs[fe.Field()]; !seen {
			errs[fe.Field()] = messageFor(fe.Field(), fe.Tag())
		}
	}
	return errs
}

// CheckUsername validates a single username value. It returns "" when the
// value is well formed.
func CheckUsername(username string) string {
	return checkVar("username", username, "required,alphanum,max=150")
}

// CheckEmail validates a single email value.
func CheckEmail(email string) string {
	return checkVar("email", email, "required,email")
}

func checkVar(field, value, tag string) string {
	err := validate.Var(value, tag)
	if err == nil {
		return ""
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return messageFor(field, verrs[0].Tag())
	}
	return "Invalid " + field
}
