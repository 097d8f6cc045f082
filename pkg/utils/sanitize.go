package utils

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	htmlTagPattern = regexp.MustCompile(`<[^>]*>`)
	emailPattern   = regexp.MustCompile(`^[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}$`)
)

// SanitizeEmail lowercases, trims and strips markup from an email address.
func SanitizeEmail(email string) string {
	email = strings.ToLower(strings.TrimSpace(email))
	email = stripHTML(email)
	return removeControlChars(email)
}

func IsValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}

// SanitizeText trims input and drops control characters except line breaks and tabs.
func SanitizeText(input string) string {
	trimmed := strings.TrimSpace(input)

	var result strings.Builder
	for _, r := range trimmed {
		if unicode.IsPrint(r) || r == '\n' || r == '\t' || r == '\r' {
			result.WriteRune(r)
		}
	}

	return result.String()
}

// CleanList trims every entry and drops the blank ones, keeping order.
func CleanList(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s := SanitizeText(item); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Truncate shortens s to at most n runes, marking the cut with "...".
func Truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n]) + "..."
}

func stripHTML(input string) string {
	return htmlTagPattern.ReplaceAllString(input, "")
}

func removeControlChars(input string) string {
	var result strings.Builder
	for _, r := range input {
		if unicode.IsPrint(r) || unicode.IsSpace(r) {
			result.WriteRune(r)
		}
	}
	return result.String()
}
