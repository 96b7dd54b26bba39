package utils

import (
	"regexp"
	"strings"
	"unicode"
)

var htmlTagPattern = regexp.MustCompile(`<[^>]*>`)

// SanitizeString trims whitespace and drops control characters.
func SanitizeString(input string) string {
	return removeControlChars(strings.TrimSpace(input))
}

// SanitizeEmail sanitizes email input
func SanitizeEmail(email string) string {
	// Convert to lowercase and trim
	email = strings.ToLower(strings.TrimSpace(email))

	email = stripHTML(email)

	return removeControlChars(email)
}

// stripHTML removes HTML tags from string
func stripHTML(input string) string {
	return htmlTagPattern.ReplaceAllString(input, "")
}

// removeControlChars removes control characters from string
func removeControlChars(input string) string {
	var result strings.Builder
	for _, r := range input {
		if unicode.IsPrint(r) || unicode.IsSpace(r) {
			result.WriteRune(r)
		}
	}
	return result.String()
}

func StringPtr(s string) *string {
	return &s
}
