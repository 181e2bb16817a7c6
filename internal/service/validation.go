package service

import (
	"net/mail"
	"strings"
	"unicode/utf8"

	"github.com/spec-kit/delivery-platform/internal/domain"
)

const (
	passwordMinLen = 6
	passwordMaxLen = 20
	fullNameMinLen = 2
	fullNameMaxLen = 20
)

// fieldErrors accumulates per-field validation messages.
type fieldErrors map[string]any

func (f fieldErrors) add(field, msg string) {
	if _, exists := f[field]; !exists {
		f[field] = msg
	}
}

func (f fieldErrors) empty() bool { return len(f) == 0 }

// normalizeEmail lowercases and trims so that uniqueness is case-insensitive.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validateEmail(errs fieldErrors, email string) {
	if email == "" {
		errs.add("email", "required")
		return
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || addr.Name != "" {
		errs.add("email", "must be a valid email address")
	}
}

func validatePassword(errs fieldErrors, password string) {
	if n := utf8.RuneCountInString(password); n < passwordMinLen || n > passwordMaxLen {
		errs.add("password", "must be between 6 and 20 characters")
	}
}

func validateFullName(errs fieldErrors, name string) {
	if n := utf8.RuneCountInString(strings.TrimSpace(name)); n < fullNameMinLen || n > fullNameMaxLen {
		errs.add("full_name", "must be between 2 and 20 characters")
	}
}

func cleanAddresses(addresses []domain.Address) []domain.Address {
	if addresses == nil {
		return nil
	}
	out := make([]domain.Address, 0, len(addresses))
	for _, a := range addresses {
		out = append(out, domain.Address{
			Street:  strings.TrimSpace(a.Street),
			City:    strings.TrimSpace(a.City),
			Zip:     strings.TrimSpace(a.Zip),
			State:   strings.TrimSpace(a.State),
			Country: strings.TrimSpace(a.Country),
		})
	}
	return out
}
