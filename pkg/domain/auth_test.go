package domain

import (
	"errors"
	"testing"
)

func TestCredentialsValidate(t *testing.T) {
	tests := []struct {
		name  string
		creds Credentials
		want  bool
	}{
		{"both set", Credentials{Email: "a@b.com", Password: "x"}, true},
		{"missing email", Credentials{Password: "x"}, false},
		{"blank email", Credentials{Email: "   ", Password: "x"}, false},
		{"missing password", Credentials{Email: "a@b.com"}, false},
		{"format is not checked", Credentials{Email: "not-an-email", Password: "x"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.creds.Validate()
			if (err == nil) != tt.want {
				t.Fatalf("Validate() = %v, want ok=%v", err, tt.want)
			}
			if err != nil && !errors.Is(err, ErrMissingField) {
				t.Errorf("Validate() error = %v, want ErrMissingField", err)
			}
		})
	}
}

func TestRegistrationValidate(t *testing.T) {
	r := Registration{Email: "a@b.com", Password: "secret123"}
	if err := r.Validate(); err == nil || err.Error() != "full_name is required" {
		t.Errorf("Validate() = %v, want full_name is required", err)
	}
	r.FullName = "Ada Lovelace"
	if err := r.Validate(); err != nil {
		t.Errorf("Validate() = %v, want nil", err)
	}
	if got := r.Credentials(); got.Email != "a@b.com" || got.Password != "secret123" {
		t.Errorf("Credentials() = %+v", got)
	}
}

func TestUserDisplayName(t *testing.T) {
	var nilUser *User
	if got := nilUser.DisplayName(); got != "" {
		t.Errorf("nil DisplayName() = %q, want empty", got)
	}
	u := &User{Email: "a@b.com"}
	if got := u.DisplayName(); got != "a@b.com" {
		t.Errorf("DisplayName() = %q, want email fallback", got)
	}
	u.Profile.FullName = "Ada"
	if got := u.DisplayName(); got != "Ada" {
		t.Errorf("DisplayName() = %q, want Ada", got)
	}
}
