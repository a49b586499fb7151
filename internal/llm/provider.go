package llm

import (
	"context"
)

// Provider defines the interface for AI completion providers
type Provider interface {
	// Name returns the provider name
	Name() string

	// Complete sends one prompt with a system prompt and returns the raw
	// response text. Failures are returned as *ProviderError.
	Complete(ctx context.Context, prompt, systemPrompt string) (string, error)

	// IsAvailable checks if the provider is properly configured and accessible
	IsAvailable(ctx context.Context) bool
}

// Config holds LLM provider configuration
type Config struct {
	// Provider name: "openai", "anthropic", "ollama", "gemini", ""
	Provider string

	// Model name (provider-specific)
	Model string

	// APIKey for OpenAI/Anthropic/Gemini
	APIKey string

	// BaseURL for custom endpoints (e.g., Ollama)
	BaseURL string

	// Timeout for API requests
	Timeout int // seconds

	// MaxTokens for response generation
	MaxTokens int

	// Temperature for sampling; low values keep structured output stable
	Temperature float64

	// Proxy settings
	HTTPProxy  string
	HTTPSProxy string
	NoProxy    string
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Provider:    "", // Disabled by default
		Timeout:     60,
		MaxTokens:   1500,
		Temperature: 0.3,
	}
}

func (c Config) maxTokens() int {
	if c.MaxTokens > 0 {
		return c.MaxTokens
	}
	return DefaultConfig().MaxTokens
}

func (c Config) temperature() float64 {
	if c.Temperature > 0 {
		return c.Temperature
	}
	return DefaultConfig().Temperature
}
