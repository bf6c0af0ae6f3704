package design

import (
	"strings"

	"github.com/goccy/go-json"

	"github.com/matzehuels/sketchlift/pkg/errors"
)

// Decode parses raw generator output into an untyped JSON value.
//
// Generative sources wrap documents in markdown code fences or prepend
// prose more often than not, so Decode trims everything outside the
// outermost JSON object before unmarshalling. The result is the input to
// [normalize.Document] and [Validate], not a typed tree.
func Decode(data []byte) (map[string]any, error) {
	text := extractJSON(string(data))
	if text == "" {
		return nil, errors.New(errors.ErrCodeInvalidDocument, "no JSON object found in input")
	}

	var doc map[string]any
	if err := json.Unmarshal([]byte(text), &doc); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidDocument, err, "malformed JSON document")
	}
	return doc, nil
}

// extractJSON strips markdown fences and surrounding prose, returning the
// outermost {...} region of s, or "" when none exists.
func extractJSON(s string) string {
	s = strings.TrimSpace(s)

	// Prefer the fenced block when one exists.
	if idx := strings.Index(s, "```"); idx >= 0 {
		rest := s[idx+3:]
		rest = strings.TrimPrefix(rest, "json")
		if end := strings.Index(rest, "```"); end >= 0 {
			s = rest[:end]
		} else {
			s = rest
		}
	}

	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end < start {
		return ""
	}
	return s[start : end+1]
}

// Marshal renders a validated document back to canonical JSON. The output
// uses only canonical keys, so feeding it through Decode and Validate
// again yields an equivalent document.
func Marshal(s *Spec) ([]byte, error) {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "marshal document")
	}
	return data, nil
}
