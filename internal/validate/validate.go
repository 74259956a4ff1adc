// Package validate performs client-side pre-submit validation, so obviously
// bad input never reaches the network. The first violated rule's message is
// surfaced, matching the single-inline-message UI convention.
package validate

import (
	"errors"

	"github.com/go-playground/validator/v10"
)

var v = validator.New(validator.WithRequiredStructEnabled())

// Signup is the account-creation form.
type Signup struct {
	Name                 string `validate:"required,min=3"`
	Email                string `validate:"required,email"`
	Password             string `validate:"required,min=6"`
	PasswordConfirmation string `validate:"eqfield=Password"`
	Role                 string `validate:"oneof=DOCTOR PATIENT"`
}

// NewSubmission is the symptom-report form.
type NewSubmission struct {
	Title    string `validate:"required,max=255"`
	Symptoms string `validate:"required,max=1023"`
}

var signupMessages = map[string]string{
	"Name.required":                "Name is required",
	"Name.min":                     "This name is too short",
	"Email.required":               "Email is required",
	"Email.email":                  "Invalid email address",
	"Password.required":            "Password is required",
	"Password.min":                 "This password is too short",
	"PasswordConfirmation.eqfield": "Passwords don't match",
	"Role.oneof":                   "Role must be DOCTOR or PATIENT",
}

var submissionMessages = map[string]string{
	"Title.required":    "Title is required",
	"Title.max":         "Title is too long",
	"Symptoms.required": "Symptoms are required",
	"Symptoms.max":      "Symptoms are too long",
}

// SignupForm validates the signup input, returning the first rule violation
// as a display-ready error.
func SignupForm(f Signup) error {
	return firstMessage(v.Struct(f), signupMessages)
}

// NewSubmissionForm validates the symptom-report input.
func NewSubmissionForm(f NewSubmission) error {
	return firstMessage(v.Struct(f), submissionMessages)
}

func firstMessage(err error, messages map[string]string) error {
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		if msg, ok := messages[fe.Field()+"."+fe.Tag()]; ok {
			return errors.New(msg)
		}
		return errors.New("Invalid " + fe.Field())
	}
	return err
}
