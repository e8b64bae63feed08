package chat

import (
	"regexp"
	"strings"
)

// dangerousPatterns flags markup and script injection. This is a deny-list filter, not a
// sanitizer: input is accepted or rejected, never rewritten.
var dangerousPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)<script`),
	regexp.MustCompile(`(?i)javascript:`),
	regexp.MustCompile(`(?i)on\w+\s*=`),
	regexp.MustCompile(`(?i)<iframe`),
	regexp.MustCompile(`(?i)<object`),
	regexp.MustCompile(`(?i)<embed`),
	regexp.MustCompile(`(?i)eval\(`),
	regexp.MustCompile(`(?i)setTimeout\(`),
	regexp.MustCompile(`(?i)setInterval\(`),
	regexp.MustCompile(`(?i)Function\(`),
}

// ------------------------------------------------------------------------------------------------------
// IsSafe reports whether a query may be forwarded to the language model.
func IsSafe(query string) bool {
	if strings.TrimSpace(query) == "" {
		return false
	}

	for _, pattern := range dangerousPatterns {
		if pattern.MatchString(query) {
			return false
		}
	}

	return true
}
