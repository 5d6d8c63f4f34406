// Package langguard detects obvious English residue in narrative pt-BR LLM
// output, ported from original_source's ptbr_language_guard.py. It is a
// heuristic keyword scan, not a language detector.
package langguard

import (
	"regexp"
	"sort"
	"strings"
)

var forbiddenEnglishTerms = regexp.MustCompile(`(?i)\b(` +
	`accept|accepted|deny|denied|support|reason|because|therefore|however|` +
	`patient|summary|recommendation|recommended|required|insufficient|` +
	`unknown|none|dinai|die` +
	`)\b`)

// CollectForbiddenTerms returns the sorted, deduplicated, lowercased set of
// forbidden English tokens found across texts.
func CollectForbiddenTerms(texts ...string) []string {
	found := make(map[string]struct{})
	for _, text := range texts {
		for _, m := range forbiddenEnglishTerms.FindAllString(text, -1) {
			found[strings.ToLower(m)] = struct{}{}
		}
	}
	out := make([]string, 0, len(found))
	for term := range found {
		out = append(out, term)
	}
	sort.Strings(out)
	return out
}
