package replyparser

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// foldDiacritics strips combining marks via NFKD decomposition, the Go
// equivalent of unicodedata.normalize("NFKD", value) followed by dropping
// characters where unicodedata.combining(character) is nonzero.
var diacriticFolder = transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

func foldDiacritics(value string) string {
	folded, _, err := transform.String(diacriticFolder, value)
	if err != nil {
		return value
	}
	return folded
}

// normalizeKey mirrors scheduler_parser.py's _normalize_key: strip markdown
// decoration and leading bullet markers, fold diacritics, lowercase, and
// collapse separators to a single underscore.
func normalizeKey(raw string) string {
	key := strings.TrimSpace(raw)
	key = strings.Trim(key, "`*_")
	key = strings.TrimSpace(key)
	for _, marker := range []string{"- ", "* ", "• "} {
		if strings.HasPrefix(key, marker) {
			key = strings.TrimPrefix(key, marker)
			break
		}
	}
	key = strings.ToLower(foldDiacritics(key))
	replacer := strings.NewReplacer("-", "_", "/", "_", " ", "_")
	key = replacer.Replace(key)
	for strings.Contains(key, "__") {
		key = strings.ReplaceAll(key, "__", "_")
	}
	return strings.Trim(key, "_")
}
