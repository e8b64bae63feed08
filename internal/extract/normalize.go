package extract

import (
	"regexp"
	"strings"
)

// typoFixes are recurring misspellings seen in model output.
var typoFixes = strings.NewReplacer(
	"huruah", "huruf",
	"ijesonkurang", "JSON kurang",
)

var (
	bareKeyPattern = regexp.MustCompile(`(\w+):`)
	// The trailing terminator is captured and written back since RE2 has no look-ahead.
	bareValuePattern = regexp.MustCompile(`:\s*([^",{\[\n]+)([,}\n])`)

	fencedBlockPattern = regexp.MustCompile("(?is)```(?:json)?\\s*(.*?)\\s*```")
	fenceMarkerPattern = regexp.MustCompile("(?i)```json\\s*|\\s*```")
)

// ------------------------------------------------------------------------------------------------------
// Normalize applies the literal typo table. It never changes text structure.
func Normalize(text string) string {
	return typoFixes.Replace(text)
}

// ------------------------------------------------------------------------------------------------------
// RepairQuotes coerces near-JSON into JSON by quoting bare keys and bare scalar values.
// It is a best-effort rewrite: nested or escaped content and values containing colons
// can come out wrong, in which case parsing fails and the caller falls back to text.
func RepairQuotes(text string) string {
	repaired := bareKeyPattern.ReplaceAllString(text, `"${1}":`)
	return bareValuePattern.ReplaceAllString(repaired, `: "${1}"${2}`)
}

// ------------------------------------------------------------------------------------------------------
// Candidate returns the text that should be parsed as a structured record. A fenced block
// wins; otherwise the whole trimmed text must be brace-delimited.
func Candidate(text string) (string, bool) {
	if m := fencedBlockPattern.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1]), true
	}

	trimmed := strings.TrimSpace(text)
	if strings.HasPrefix(trimmed, "{") && strings.HasSuffix(trimmed, "}") {
		return trimmed, true
	}

	return "", false
}

// ------------------------------------------------------------------------------------------------------
// StripFences removes fenced-block markers and keeps their content visible.
func StripFences(text string) string {
	return strings.TrimSpace(fenceMarkerPattern.ReplaceAllString(text, ""))
}
