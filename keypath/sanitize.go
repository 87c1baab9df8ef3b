package keypath

import (
	"path"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Letters that do not decompose into base + combining mark under NFD.
var foldReplacer = strings.NewReplacer(
	"ł", "l", "Ł", "l",
	"ß", "ss",
	"æ", "ae", "Æ", "ae",
	"ø", "o", "Ø", "o",
	"đ", "d", "Đ", "d",
	"œ", "oe", "Œ", "oe",
)

func fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, foldReplacer.Replace(s))
	if err != nil {
		out = s
	}
	return strings.ToLower(out)
}

// clean keeps [a-z0-9] and collapses every other run into one separator.
// With keepMarks, '.' and '_' survive as separators instead of becoming '-'.
func clean(s string, keepMarks bool) string {
	var b strings.Builder
	sep := true
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			sep = false
		case sep:
		case keepMarks && (r == '.' || r == '_' || r == '-'):
			b.WriteRune(r)
			sep = true
		default:
			b.WriteByte('-')
			sep = true
		}
	}
	return strings.TrimRight(b.String(), "-_.")
}

// SanitizeFilename folds diacritics, lower-cases and strips everything a key
// or URL segment should not carry. The extension is kept.
func SanitizeFilename(raw string) string {
	s := fold(strings.TrimSpace(raw))
	ext := path.Ext(s)
	base := clean(strings.TrimSuffix(s, ext), true)
	ext = clean(strings.TrimPrefix(ext, "."), false)

	if base == "" {
		base = "file"
	}
	if ext == "" {
		return base
	}
	return base + "." + ext
}

// Slugify is SanitizeFilename without extension handling: dots become dashes.
func Slugify(name string) string {
	return clean(fold(strings.TrimSpace(name)), false)
}
