package domain

import (
	"errors"
	"strings"
)

// ErrMissingField is returned by Validate when a required field is blank.
var ErrMissingField = errors.New("required field missing")

// AuthResponse is returned by login, register and the OAuth callback.
type AuthResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type,omitempty"`
	ExpiresIn   int    `json:"expires_in,omitempty"`
	User        User   `json:"user"`
}

// Credentials is the login payload.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate checks that both identifier and secret are present.
// Format checks belong to the backend.
func (c Credentials) Validate() error {
	if strings.TrimSpace(c.Email) == "" {
		return fmtMissing("email")
	}
	if c.Password == "" {
		return fmtMissing("password")
	}
	return nil
}

// Registration is the account-creation payload.
type Registration struct {
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	JobTitle string `json:"job_title,omitempty"`
	Company  string `json:"company,omitempty"`
}

// Validate checks the required registration fields.
func (r Registration) Validate() error {
	if strings.TrimSpace(r.FullName) == "" {
		return fmtMissing("full_name")
	}
	return Credentials{Email: r.Email, Password: r.Password}.Validate()
}

// Credentials returns the identifier/secret pair of the registration.
func (r Registration) Credentials() Credentials {
	return Credentials{Email: r.Email, Password: r.Password}
}

// PasswordReset is the payload of /api/auth/reset-password.
type PasswordReset struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

// OAuthLogin is the response of the provider login endpoints.
type OAuthLogin struct {
	AuthURL string `json:"auth_url"`
}

// Message is the generic {"message": "..."} acknowledgement body.
type Message struct {
	Message string `json:"message"`
}

type missingFieldError struct {
	field string
}

func (e *missingFieldError) Error() string { return e.field + " is required" }

func (e *missingFieldError) Unwrap() error { return ErrMissingField }

func fmtMissing(field string) error {
	return &missingFieldError{field: field}
}
