package util

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProxyFunc(t *testing.T) {
	proxy := NewProxyFunc("http://proxy.internal:3128", "http://secure.internal:3129", "localhost,.corp")

	tests := []struct {
		target   string
		expected string
	}{
		{"http://api.example.com/v1", "http://proxy.internal:3128"},
		{"https://api.anthropic.com/v1/messages", "http://secure.internal:3129"},
		{"http://ollama.corp:11434/api/generate", ""},
	}

	for _, tt := range tests {
		req, err := http.NewRequest(http.MethodGet, tt.target, nil)
		require.NoError(t, err)

		got, err := proxy(req)
		require.NoError(t, err)
		if tt.expected == "" {
			assert.Nil(t, got, tt.target)
			continue
		}
		require.NotNil(t, got, tt.target)
		assert.Equal(t, tt.expected, got.String())
	}
}

func TestNewProxyFunc_HTTPProxyCoversHTTPS(t *testing.T) {
	proxy := NewProxyFunc("http://proxy.internal:3128", "", "")
	req, err := http.NewRequest(http.MethodPost, "https://generativelanguage.googleapis.com/", nil)
	require.NoError(t, err)

	got, err := proxy(req)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "proxy.internal:3128", got.Host)
}
