package textutil

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var foldTransformer = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// FoldASCII strips combining marks so accented characters decay to their base
// letters. Input that cannot be transformed is returned unchanged.
func FoldASCII(value string) string {
	out, _, err := transform.String(foldTransformer, value)
	if err != nil {
		return value
	}
	return out
}

// SanitizeLabel converts a volume label into a filename stem. Letters, digits,
// dashes, and dots are kept; everything else collapses into single
// underscores. Leading and trailing separator characters are trimmed. The
// result may be empty when the input carries no usable characters.
func SanitizeLabel(value string) string {
	value = strings.TrimSpace(FoldASCII(value))
	if value == "" {
		return ""
	}
	var b strings.Builder
	b.Grow(len(value))
	pendingSep := false
	for _, r := range value {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
			pendingSep = false
		case r == '-' || r == '.':
			b.WriteRune(r)
			pendingSep = false
		default:
			if !pendingSep {
				b.WriteByte('_')
				pendingSep = true
			}
		}
	}
	return strings.Trim(b.String(), "._-")
}

// DisplayTitle turns a label or volume identifier into a human-friendly title,
// replacing separators with spaces and title-casing the words.
func DisplayTitle(label string) string {
	cleaned := strings.Builder{}
	prevSpace := false
	for _, r := range label {
		switch {
		case unicode.IsLetter(r) || unicode.IsNumber(r):
			cleaned.WriteRune(r)
			prevSpace = false
		case unicode.IsSpace(r) || r == '-' || r == '_' || r == '.':
			if !prevSpace {
				cleaned.WriteRune(' ')
				prevSpace = true
			}
		}
	}
	title := strings.TrimSpace(cleaned.String())
	if title == "" {
		return "Unknown Disc"
	}
	return cases.Title(language.Und).String(title)
}
