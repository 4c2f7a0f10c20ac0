// internal/app/system/authutil/credentials.go
// Package authutil validates sign-up and sign-in input and handles password
// hashing for the identity layer.
package authutil

import (
	"regexp"

	"github.com/dalemusser/stratareel/internal/app/system/normalize"
	"github.com/dalemusser/stratareel/internal/domain/models"
)

var emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// IsValidEmail reports whether s looks like an address (something@host.tld).
func IsValidEmail(s string) bool {
	return emailRe.MatchString(s)
}

// Registration is the sign-up request body.
type Registration struct {
	Email           string `json:"email"`
	Username        string `json:"username"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

// Normalize trims the email and username and lowercases the email.
func (r *Registration) Normalize() {
	r.Email = normalize.Email(r.Email)
	r.Username = normalize.Name(r.Username)
}

// Validate returns a *models.ValidationError describing the first problem
// found, or nil. Call Normalize first.
func (r Registration) Validate() error {
	if r.Email == "" || r.Username == "" || r.Password == "" || r.ConfirmPassword == "" {
		ve := &models.ValidationError{Message: "All fields are required."}
		for field, v := range map[string]string{
			"email":           r.Email,
			"username":        r.Username,
			"password":        r.Password,
			"confirmPassword": r.ConfirmPassword,
		} {
			if v == "" {
				ve.Errors = append(ve.Errors, models.FieldError{Field: field, Message: "This field is required."})
			}
		}
		return ve
	}
	if !IsValidEmail(r.Email) {
		return models.NewValidationError("email", "Invalid email format.")
	}
	if r.Password != r.ConfirmPassword {
		return models.NewValidationError("confirmPassword", "Passwords do not match.")
	}
	if err := ValidatePassword(r.Password); err != nil {
		return models.NewValidationError("password", err.Error())
	}
	return nil
}

// SignIn is the login request body.
type SignIn struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate requires both fields. It does not check the email format so an
// unknown address fails the same way as a wrong password.
func (s *SignIn) Validate() error {
	s.Email = normalize.Email(s.Email)
	if s.Email == "" || s.Password == "" {
		return &models.ValidationError{Message: "Both fields are required."}
	}
	return nil
}
