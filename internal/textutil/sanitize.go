package textutil

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

var (
	droppedFileNameChars  = regexp.MustCompile(`[:?]+`)
	replacedFileNameChars = regexp.MustCompile(`[\\/"*<>|]+`)
)

// SanitizeFileName makes a rendered name safe for use as a single path
// segment. Colons and question marks are removed outright; runs of
// backslash, slash, quote, asterisk, angle brackets, and pipe collapse to a
// single underscore. The result is NFC-normalized after the removals and then
// trimmed. Applying it twice yields the same string.
func SanitizeFileName(name string) string {
	name = droppedFileNameChars.ReplaceAllString(name, "")
	name = replacedFileNameChars.ReplaceAllString(name, "_")
	return strings.TrimSpace(norm.NFC.String(name))
}

// CollapseWhitespace replaces every run of whitespace with a single space and trims the ends.
func CollapseWhitespace(value string) string {
	return strings.Join(strings.Fields(value), " ")
}

// TruncateRunes returns at most limit runes of value.
func TruncateRunes(value string, limit int) string {
	if limit <= 0 {
		return ""
	}
	count := 0
	for idx := range value {
		if count == limit {
			return value[:idx]
		}
		count++
	}
	return value
}
