package llm

import (
	"encoding/json"
	"strings"
)

// ExtractJSON finds the first balanced {...} object in a model response and
// returns it when it is valid JSON. Surrounding prose and markdown code
// fences are ignored. Braces inside JSON strings do not count toward
// balance.
func ExtractJSON(raw string) (json.RawMessage, error) {
	var lastErr error
	reason := "no JSON object in response"

	// A prose brace can precede the real object, so every opening brace
	// is a candidate start
	for start := strings.IndexByte(raw, '{'); start >= 0; {
		if end := matchBrace(raw, start); end >= 0 {
			candidate := []byte(raw[start : end+1])
			var probe any
			err := json.Unmarshal(candidate, &probe)
			if err == nil {
				if _, ok := probe.(map[string]any); ok {
					return json.RawMessage(candidate), nil
				}
			}
			reason, lastErr = "invalid JSON object", err
		} else if lastErr == nil {
			reason = "no balanced JSON object"
		}

		next := strings.IndexByte(raw[start+1:], '{')
		if next < 0 {
			break
		}
		start += next + 1
	}

	return nil, &ParseError{Raw: raw, Reason: reason, Err: lastErr}
}

// DecodeJSON extracts the JSON object from raw and unmarshals it into v
func DecodeJSON(raw string, v any) error {
	data, err := ExtractJSON(raw)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return &ParseError{Raw: raw, Reason: "unexpected JSON shape", Err: err}
	}
	return nil
}

// matchBrace returns the index of the brace closing the one at start, or -1
func matchBrace(s string, start int) int {
	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}
