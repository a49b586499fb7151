package llm

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/ppiankov/erosion/internal/model"
	"go.uber.org/zap"
)

// NewProvider creates a provider based on configuration.
// An empty provider name returns nil (AI disabled).
func NewProvider(ctx context.Context, config Config, logger *zap.Logger) (Provider, error) {
	switch strings.ToLower(config.Provider) {
	case "openai":
		return NewOpenAIProvider(config, logger)

	case "anthropic", "claude":
		return NewAnthropicProvider(config, logger)

	case "ollama":
		return NewOllamaProvider(config, logger)

	case "gemini", "google":
		return NewGeminiProvider(ctx, config, logger)

	case "":
		return nil, nil

	default:
		return nil, fmt.Errorf("unknown LLM provider: %s (supported: openai, anthropic, ollama, gemini)", config.Provider)
	}
}

// ConfigFromModel converts one configured provider to llm.Config,
// filling credentials from the environment when the file leaves them empty
func ConfigFromModel(pc model.LLMProviderConfig) Config {
	config := DefaultConfig()
	config.Provider = pc.Name
	config.Model = pc.Model
	config.APIKey = pc.APIKey
	config.BaseURL = pc.BaseURL
	config.HTTPProxy = pc.HTTPProxy
	config.HTTPSProxy = pc.HTTPSProxy
	if pc.Timeout > 0 {
		config.Timeout = pc.Timeout
	}
	if pc.MaxTokens > 0 {
		config.MaxTokens = pc.MaxTokens
	}
	return applyEnv(config)
}

// LoadConfigFromEnv builds a provider config from environment variables only
func LoadConfigFromEnv(provider string) Config {
	config := DefaultConfig()
	config.Provider = provider
	return applyEnv(config)
}

func applyEnv(config Config) Config {
	switch strings.ToLower(config.Provider) {
	case "openai":
		if config.APIKey == "" {
			config.APIKey = os.Getenv("OPENAI_API_KEY")
		}
	case "anthropic", "claude":
		if config.APIKey == "" {
			config.APIKey = os.Getenv("ANTHROPIC_API_KEY")
		}
	case "gemini", "google":
		if config.APIKey == "" {
			config.APIKey = os.Getenv("GEMINI_API_KEY")
		}
	case "ollama":
		if config.BaseURL == "" {
			config.BaseURL = os.Getenv("OLLAMA_BASE_URL")
		}
		if config.Model == "" {
			config.Model = os.Getenv("OLLAMA_MODEL")
		}
	}
	return config
}
