package crawler

import "regexp"

// emailRegex matches local-part@domain.tld. The top-level label must be at
// least two letters. Matches are kept exactly as they appear in the text.
var emailRegex = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)

// ExtractEmails returns the set of email-like tokens found in text.
// It never fails; text without matches yields an empty set.
func ExtractEmails(text string) map[string]struct{} {
	emails := make(map[string]struct{})
	for _, match := range emailRegex.FindAllString(text, -1) {
		emails[match] = struct{}{}
	}
	return emails
}
