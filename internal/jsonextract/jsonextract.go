// Package jsonextract robustly decodes a JSON object out of raw LLM text,
// ported from original_source's llm_json_parser.py: try a direct decode,
// then a fenced code block, then the first embedded JSON object found
// anywhere in the text.
package jsonextract

import (
	"bytes"
	"encoding/json"
	"errors"
	"regexp"
	"strings"
)

// ErrNoJSONObject is returned when no JSON object can be found in text.
var ErrNoJSONObject = errors.New("no valid JSON object found in LLM response")

var fencedPattern = regexp.MustCompile(`(?is)` + "```" + `(?:json)?\s*(\{[\s\S]*\})\s*` + "```")

// DecodeObject decodes the first valid JSON object from raw model text.
func DecodeObject(raw string) (map[string]any, error) {
	if obj, ok := decodeObject(strings.TrimSpace(raw)); ok {
		return obj, nil
	}

	if fenced := extractFenced(raw); fenced != "" {
		if obj, ok := decodeObject(fenced); ok {
			return obj, nil
		}
	}

	if obj, ok := extractFirstEmbedded(raw); ok {
		return obj, nil
	}

	return nil, ErrNoJSONObject
}

func decodeObject(text string) (map[string]any, bool) {
	if text == "" {
		return nil, false
	}
	var decoded map[string]any
	if err := json.Unmarshal([]byte(text), &decoded); err != nil {
		return nil, false
	}
	return decoded, true
}

func extractFenced(raw string) string {
	m := fencedPattern.FindStringSubmatch(raw)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[1])
}

// extractFirstEmbedded scans for the first '{' and attempts a streaming
// decode from that position, advancing to the next '{' on failure, mirroring
// json.JSONDecoder().raw_decode's scan-forward behavior.
func extractFirstEmbedded(raw string) (map[string]any, bool) {
	data := []byte(raw)
	for i := 0; i < len(data); i++ {
		if data[i] != '{' {
			continue
		}
		dec := json.NewDecoder(bytes.NewReader(data[i:]))
		var decoded map[string]any
		if err := dec.Decode(&decoded); err == nil {
			return decoded, true
		}
	}
	return nil, false
}
