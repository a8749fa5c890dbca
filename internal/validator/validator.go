package validator

import (
	"errors"
	"log/slog"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/badoux/checkmail"
)

const (
	maxEmailLength = 254
	maxNameLength  = 100
	minPassword    = 8
)

var (
	ErrInvalidEmail       = errors.New("invalid email")
	ErrInvalidDisplayName = errors.New("display name must be 1-100 characters")
	ErrInvalidPassword    = errors.New("password must be at least 8 characters")
	ErrInvalidCurrency    = errors.New("unsupported currency")
	ErrInvalidColor       = errors.New("color must be a #rrggbb hex value")
	ErrInvalidName        = errors.New("name must be 1-100 characters")
)

var colorRegex = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

var supportedCurrencies = map[string]struct{}{
	"USD": {}, "EUR": {}, "GBP": {}, "JPY": {}, "COP": {},
}

const DefaultCurrency = "COP"

// ValidateEmail checks the address format and, when checkHost is set, that
// its domain resolves to a mail server. Host lookup timeouts are tolerated.
func ValidateEmail(email string, checkHost bool) error {
	if len(email) > maxEmailLength {
		return ErrInvalidEmail
	}
	if err := checkmail.ValidateFormat(email); err != nil {
		return ErrInvalidEmail
	}
	if !checkHost {
		return nil
	}
	if err := checkmail.ValidateHost(email); err != nil {
		if strings.Contains(err.Error(), "timeout") {
			slog.Warn("email host check timed out", "email", email)
			return nil
		}
		return ErrInvalidEmail
	}
	return nil
}

func ValidateDisplayName(name string) error {
	if !validLength(name) {
		return ErrInvalidDisplayName
	}
	return nil
}

func ValidatePassword(password string) error {
	if len(password) < minPassword {
		return ErrInvalidPassword
	}
	return nil
}

// NormalizeCurrency upper-cases code and falls back to DefaultCurrency when empty.
func NormalizeCurrency(code string) (string, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return DefaultCurrency, nil
	}
	if _, ok := supportedCurrencies[code]; !ok {
		return "", ErrInvalidCurrency
	}
	return code, nil
}

func ValidateColor(color string) error {
	if !colorRegex.MatchString(color) {
		return ErrInvalidColor
	}
	return nil
}

func ValidateName(name string) error {
	if !validLength(name) {
		return ErrInvalidName
	}
	return nil
}

func validLength(value string) bool {
	trimmed := strings.TrimSpace(value)
	n := utf8.RuneCountInString(trimmed)
	return n >= 1 && n <= maxNameLength
}
