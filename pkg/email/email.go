// Package email holds helpers for presenting users that only have an email address.
package email

import (
	"strings"
	"unicode"

	"github.com/asaskevich/govalidator"
)

// Normalize trims and lowercases an address.
func Normalize(address string) string {
	return strings.ToLower(strings.TrimSpace(address))
}

// IsValid reports whether address is a syntactically valid email.
func IsValid(address string) bool {
	return govalidator.IsEmail(address)
}

// DeriveNameFromEmail splits the local part on common separators into a first and last
// name, so "samwise.gamgee@shire.me" becomes ("Samwise", "Gamgee").
func DeriveNameFromEmail(address string) (string, string) {
	localPart := address
	if at := strings.IndexByte(address, '@'); at > 0 {
		localPart = address[:at]
	}

	parts := strings.FieldsFunc(localPart, func(r rune) bool {
		return r == '.' || r == '_' || r == '-' || r == '+'
	})
	if len(parts) == 0 {
		return "", ""
	}

	first := capitalize(parts[0])
	last := ""
	if len(parts) > 1 {
		last = capitalize(parts[len(parts)-1])
	}
	return first, last
}

// DisplayName joins first and last names, falling back to a name derived from the address.
func DisplayName(first, last, address string) string {
	full := strings.TrimSpace(strings.TrimSpace(first) + " " + strings.TrimSpace(last))
	if full != "" {
		return full
	}
	first, last = DeriveNameFromEmail(address)
	return strings.TrimSpace(first + " " + last)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	runes := []rune(s)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
