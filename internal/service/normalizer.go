package service

import (
	"regexp"
	"strings"
)

var (
	whitespaceRegex = regexp.MustCompile(`\s+`)
	nonSlugRegex    = regexp.MustCompile(`[^a-z0-9-]+`)
	dashRunRegex    = regexp.MustCompile(`-{2,}`)
)

// normalizeEmail lowercases and trims the provided email.
func normalizeEmail(email string) string {
	return strings.TrimSpace(strings.ToLower(email))
}

// sanitizeString collapses whitespace and trims the result.
func sanitizeString(value string) string {
	value = whitespaceRegex.ReplaceAllString(value, " ")
	return strings.TrimSpace(value)
}

// slugify turns a title or free-form slug into lowercase dash separated form.
func slugify(value string) string {
	value = strings.ToLower(sanitizeString(value))
	value = strings.ReplaceAll(value, " ", "-")
	value = nonSlugRegex.ReplaceAllString(value, "")
	value = dashRunRegex.ReplaceAllString(value, "-")
	return strings.Trim(value, "-")
}

// maskDocumentNumber keeps the last four characters of an identity document number.
func maskDocumentNumber(number string) string {
	number = strings.ReplaceAll(sanitizeString(number), " ", "")
	if len(number) <= 4 {
		return number
	}
	return strings.Repeat("*", len(number)-4) + number[len(number)-4:]
}
