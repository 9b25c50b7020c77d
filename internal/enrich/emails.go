package enrich

import (
	"regexp"
	"strings"
)

var emailPattern = regexp.MustCompile(`(?i)([a-zA-Z0-9._-]+@[a-zA-Z0-9._-]+\.[a-zA-Z0-9_-]+)`)

// ScanEmails returns the distinct email-shaped strings in text, in order of appearance.
// Duplicates are compared case-insensitively.
func ScanEmails(text string) []string {
	matches := emailPattern.FindAllString(text, -1)
	seen := make(map[string]bool, len(matches))
	emails := make([]string, 0, len(matches))
	for _, m := range matches {
		key := strings.ToLower(m)
		if seen[key] {
			continue
		}
		seen[key] = true
		emails = append(emails, m)
	}
	return emails
}

// EmailPrefix renders the marker prepended to website content so the oracle sees
// addresses that might otherwise be truncated away.
func EmailPrefix(emails []string) string {
	return "[EXTRACTED_EMAILS: " + strings.Join(emails, ", ") + "]\n\n"
}
