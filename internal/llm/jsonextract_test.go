package llm

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected string
	}{
		{"bare object", `{"a": 1}`, `{"a": 1}`},
		{"code fence", "```json\n{\"verdict\": \"mixed\"}\n```", `{"verdict": "mixed"}`},
		{"surrounding prose", `Here is my answer: {"a": {"b": [1, 2]}} Hope that helps.`, `{"a": {"b": [1, 2]}}`},
		{"braces inside strings", `{"argument": "they said \"}{\" twice"}`, `{"argument": "they said \"}{\" twice"}`},
		{"prose brace before object", `Consider {this} first. {"ok": true}`, `{"ok": true}`},
		{"unbalanced prose brace before object", `a { b {"ok": true}`, `{"ok": true}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractJSON(tt.raw)
			require.NoError(t, err)
			assert.JSONEq(t, tt.expected, string(got))
		})
	}
}

func TestExtractJSON_Errors(t *testing.T) {
	for _, raw := range []string{
		"",
		"no json here",
		`{"unterminated": `,
		`{not: valid}`,
		`[1, 2, 3]`,
	} {
		_, err := ExtractJSON(raw)
		var perr *ParseError
		if assert.True(t, errors.As(err, &perr), "input %q", raw) {
			assert.Equal(t, raw, perr.Raw)
		}
	}
}

func TestDecodeJSON(t *testing.T) {
	var out struct {
		Argument  string `json:"argument"`
		Citations []int  `json:"citations"`
	}
	require.NoError(t, DecodeJSON("```\n{\"argument\": \"x\", \"citations\": [2]}\n```", &out))
	assert.Equal(t, "x", out.Argument)
	assert.Equal(t, []int{2}, out.Citations)

	err := DecodeJSON(`{"argument": 5}`, &out)
	var perr *ParseError
	assert.ErrorAs(t, err, &perr)
}
