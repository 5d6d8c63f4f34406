// Package recordnumber extracts the agency registration code ("Código")
// from a cleaned clinical report and strips repeated watermark occurrences
// of it from the body text (spec §4.5).
//
// The two regular expressions are ported from original_source's
// patient_registration_code.py: a "Código:" label pattern (accent-
// insensitive) and a "Relatório de Ocorrências … <digits>" header-then-
// digits flow pattern with a bounded lookahead window.
package recordnumber

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// codeLabelPattern matches "Código:" / "Codigo:" (with or without the
// accent, case-insensitive) followed by a run of 5+ digits.
var codeLabelPattern = regexp.MustCompile(`(?i)c[oó]digo\s*:?\s*(\d{5,})`)

// reportHeaderFlowPattern matches the "RELATÓRIO DE OCORRÊNCIAS" header
// followed, within up to 120 characters, by a run of 5+ digits.
var reportHeaderFlowPattern = regexp.MustCompile(`(?is)relat[oó]rio\s+de\s+ocorr[eê]ncias.{0,120}?(\d{5,})`)

// watermarkLinePattern matches a line made up only of whitespace-separated
// runs of 5+ digits (four or more runs, or three when trailing whitespace
// follows the last; the runs need not be the same token)
// — the repeated watermark stamp some report exports leave on every page.
var watermarkLinePattern = regexp.MustCompile(`(?m)^[ \t]*(?:(\d{5,})[ \t]+){3,}(\d{5,})?[ \t]*$`)

// Result is the outcome of Extract.
type Result struct {
	RecordNumber string
	CleanedText  string
	// Placeholder is true when no explicit pattern matched and
	// RecordNumber is a synthesized epoch-millis fallback (Open Question 1
	// in DESIGN.md: the placeholder is accepted but flagged downstream).
	Placeholder bool
}

type match struct {
	start int
	token string
}

// Extract finds the registration code in text (in document order, first
// match wins across both patterns) and returns the code alongside the text
// with all occurrences of that code — and the watermark lines built from
// it — stripped out. Extract is a pure function: identical input always
// yields an identical Result (the "Record-number stability" law).
func Extract(text string, now func() time.Time) Result {
	candidates := collectCandidates(text)

	var token string
	placeholder := false
	if len(candidates) == 0 {
		token = strconv.FormatInt(now().UnixMilli(), 10)
		placeholder = true
	} else {
		token = candidates[0].token
	}

	cleaned := stripToken(text, token)
	cleaned = normalizeWhitespace(cleaned)

	return Result{
		RecordNumber: token,
		CleanedText:  cleaned,
		Placeholder:  placeholder,
	}
}

func collectCandidates(text string) []match {
	var out []match

	if loc := codeLabelPattern.FindStringSubmatchIndex(text); loc != nil {
		out = append(out, match{start: loc[0], token: text[loc[2]:loc[3]]})
	}
	if loc := reportHeaderFlowPattern.FindStringSubmatchIndex(text); loc != nil {
		out = append(out, match{start: loc[0], token: text[loc[2]:loc[3]]})
	}

	// First occurrence in document position wins.
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j].start < out[j-1].start; j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}

// stripToken removes every occurrence of token, repeated watermark lines
// built from it, and subsequent isolated residual occurrences of token.
func stripToken(text, token string) string {
	if token == "" {
		return text
	}

	// Watermark lines: 4+ consecutive repeats of the token (or any 5+
	// digit run) on a line by itself.
	cleaned := watermarkLinePattern.ReplaceAllString(text, "")

	// Remaining isolated occurrences of the exact selected token.
	tokenPattern := regexp.MustCompile(`\b` + regexp.QuoteMeta(token) + `\b`)
	cleaned = tokenPattern.ReplaceAllString(cleaned, "")

	return cleaned
}

// normalizeWhitespace collapses runs of horizontal whitespace while
// preserving paragraph breaks (blank lines).
func normalizeWhitespace(text string) string {
	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		trimmed := strings.Join(strings.Fields(line), " ")
		out = append(out, trimmed)
	}

	joined := strings.Join(out, "\n")
	// Collapse 3+ consecutive blank lines down to one, preserving the
	// paragraph-separator intent without leaving huge gaps where
	// watermark lines were stripped out entirely.
	blankRunPattern := regexp.MustCompile(`\n{3,}`)
	joined = blankRunPattern.ReplaceAllString(joined, "\n\n")

	return strings.TrimSpace(joined)
}
