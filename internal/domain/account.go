package domain

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

type Account struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password,omitempty"`
	// PasswordRef points to a secret-store entry, resolved before dispatch.
	PasswordRef string `json:"password_ref,omitempty"`
	Proxy       *Proxy `json:"proxy,omitempty" validate:"omitempty"`
}

type Proxy struct {
	URL      string `json:"url" validate:"required"`
	Port     int    `json:"port" validate:"gte=0,lte=65535"`
	Username string `json:"username,omitempty"`
	Password string `json:"password,omitempty"`
}

func (a Account) Validate() error {
	if err := validate.Struct(a); err != nil {
		return fmt.Errorf("account %q: %w", a.Email, err)
	}
	if strings.TrimSpace(a.Password) == "" && strings.TrimSpace(a.PasswordRef) == "" {
		return fmt.Errorf("account %q: password or password_ref is required", a.Email)
	}

	return nil
}

// HasCredentials reports whether the password has been resolved.
func (a Account) HasCredentials() bool {
	return a.Password != ""
}

// MaskedEmail keeps the first rune of the local part for log and list output.
func (a Account) MaskedEmail() string {
	local, host, ok := strings.Cut(a.Email, "@")
	if !ok || local == "" {
		return a.Email
	}

	runes := []rune(local)
	return string(runes[0]) + strings.Repeat("*", len(runes)-1) + "@" + host
}

func (p *Proxy) Address() string {
	if p == nil || strings.TrimSpace(p.URL) == "" {
		return ""
	}
	if p.Port == 0 {
		return p.URL
	}

	return fmt.Sprintf("%s:%d", p.URL, p.Port)
}
