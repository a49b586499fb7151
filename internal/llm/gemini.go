package llm

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/ppiankov/erosion/internal/util"
	"go.uber.org/zap"
	"google.golang.org/genai"
)

const defaultGeminiModel = "gemini-2.5-flash"

// GeminiProvider implements the Provider interface for Google Gemini models
type GeminiProvider struct {
	client *genai.Client
	config Config
	logger *zap.Logger
}

// NewGeminiProvider creates a new Gemini provider
func NewGeminiProvider(ctx context.Context, config Config, logger *zap.Logger) (*GeminiProvider, error) {
	if config.APIKey == "" {
		return nil, errors.New("gemini API key is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	clientConfig := &genai.ClientConfig{
		APIKey:  config.APIKey,
		Backend: genai.BackendGeminiAPI,
		HTTPClient: &http.Client{
			Transport: &http.Transport{
				Proxy: util.NewProxyFunc(config.HTTPProxy, config.HTTPSProxy, config.NoProxy),
			},
		},
	}
	if config.BaseURL != "" {
		clientConfig.HTTPOptions = genai.HTTPOptions{BaseURL: config.BaseURL}
	}

	client, err := genai.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, newProviderError("gemini", err)
	}

	return &GeminiProvider{
		client: client,
		config: config,
		logger: logger.With(zap.String("provider", "gemini")),
	}, nil
}

// Name returns the provider name
func (p *GeminiProvider) Name() string {
	return "gemini"
}

// IsAvailable fetches the configured model's metadata
func (p *GeminiProvider) IsAvailable(ctx context.Context) bool {
	if _, err := p.client.Models.Get(ctx, p.model(), nil); err != nil {
		p.logger.Warn("availability check failed", zap.Error(err))
		return false
	}
	return true
}

// Complete generates a completion using the Gemini generateContent API
func (p *GeminiProvider) Complete(ctx context.Context, prompt, systemPrompt string) (string, error) {
	timeout := time.Duration(p.config.Timeout) * time.Second
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	genConfig := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(float32(p.config.temperature())),
		MaxOutputTokens: int32(p.config.maxTokens()),
	}
	if systemPrompt != "" {
		genConfig.SystemInstruction = genai.NewContentFromText(systemPrompt, genai.RoleUser)
	}

	resp, err := p.client.Models.GenerateContent(ctx, p.model(), genai.Text(prompt), genConfig)
	if err != nil {
		return "", newProviderError(p.Name(), err)
	}

	out := strings.TrimSpace(resp.Text())
	if out == "" {
		return "", newProviderError(p.Name(), errors.New("empty completion"))
	}

	p.logger.Debug("completion", zap.String("model", p.model()))
	return out, nil
}

func (p *GeminiProvider) model() string {
	if p.config.Model != "" {
		return p.config.Model
	}
	return defaultGeminiModel
}
