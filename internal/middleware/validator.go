package middleware

import (
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/text/language"
)

// ErrInvalidInput wraps every validation failure so handlers can map it to 400.
var ErrInvalidInput = errors.New("invalid input")

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

var tenantPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{1,64}$`)

// ValidateTenantID validates tenant ID format
func ValidateTenantID(tenant string) error {
	if tenant == "" {
		return invalid("tenant ID cannot be empty")
	}
	if !tenantPattern.MatchString(tenant) {
		return invalid("invalid tenant ID format (alphanumeric, dash, underscore only, max 64 chars)")
	}
	return nil
}

// ValidateCheckID accepts the UUIDs the service generates.
func ValidateCheckID(id string) error {
	if id == "" {
		return invalid("check ID cannot be empty")
	}
	if _, err := uuid.Parse(id); err != nil {
		return invalid("invalid check ID format")
	}
	return nil
}

// ValidateLocale normalizes a BCP 47 tag for EPUBCheck's --locale.
// Empty stays empty, meaning the JVM default.
func ValidateLocale(locale string) (string, error) {
	locale = strings.TrimSpace(locale)
	if locale == "" {
		return "", nil
	}
	tag, err := language.Parse(locale)
	if err != nil {
		return "", invalid("invalid locale %q", locale)
	}
	return tag.String(), nil
}

// ValidateUpload checks the uploaded package name and size.
func ValidateUpload(name string, size, maxBytes int64) error {
	if !strings.EqualFold(filepath.Ext(name), ".epub") {
		return invalid("only .epub files are accepted")
	}
	if size <= 0 {
		return invalid("empty upload")
	}
	if maxBytes > 0 && size > maxBytes {
		return invalid("upload exceeds %d MB", maxBytes>>20)
	}
	return nil
}

// SanitizeString removes dangerous characters from strings
func SanitizeString(input string) string {
	input = strings.ReplaceAll(input, "\x00", "")

	var result strings.Builder
	for _, r := range input {
		if r >= 32 || r == '\t' || r == '\n' {
			result.WriteRune(r)
		}
	}
	return strings.TrimSpace(result.String())
}

// ValidateLimit validates pagination limit
func ValidateLimit(limit int) int {
	if limit <= 0 {
		return 20 // default
	}
	if limit > 100 {
		return 100 // max limit
	}
	return limit
}

// ValidateDays validates days parameter
func ValidateDays(days int) int {
	if days <= 0 {
		return 7 // default
	}
	if days > 365 {
		return 365 // max 1 year
	}
	return days
}
