package llm

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Provider names the wire protocol of the enrichment endpoint.
type Provider string

const (
	ProviderOpenAI    Provider = "openai"
	ProviderAnthropic Provider = "anthropic"
)

const (
	DefaultOpenAIEndpoint    = "https://api.openai.com/v1"
	DefaultAnthropicEndpoint = "https://api.anthropic.com/v1"
)

// Config holds configuration for creating an LLM client.
type Config struct {
	Provider Provider
	Endpoint string // Base URL; empty uses the provider default
	Model    string
	APIKey   string // Optional for local OpenAI-compatible endpoints
	Timeout  time.Duration
}

// ParseProvider maps a config string to a Provider. Empty means openai.
func ParseProvider(s string) (Provider, error) {
	switch Provider(strings.ToLower(strings.TrimSpace(s))) {
	case "", ProviderOpenAI:
		return ProviderOpenAI, nil
	case ProviderAnthropic:
		return ProviderAnthropic, nil
	default:
		return "", fmt.Errorf("unknown llm provider %q", s)
	}
}

// NewClientFromConfig builds the client for the configured provider.
// It returns (nil, nil) when neither an API key nor a custom endpoint is set: enrichment is
// then unavailable and callers fall back to static data.
func NewClientFromConfig(cfg *Config, logger *zap.Logger) (LLMClient, error) {
	if cfg == nil || (cfg.APIKey == "" && cfg.Endpoint == "") {
		return nil, nil
	}

	switch cfg.Provider {
	case ProviderAnthropic:
		client, err := NewAnthropicClient(cfg, logger)
		if err != nil {
			return nil, fmt.Errorf("create anthropic client: %w", err)
		}
		return client, nil
	case ProviderOpenAI, "":
		client, err := NewClient(cfg, logger)
		if err != nil {
			return nil, fmt.Errorf("create client: %w", err)
		}
		return client, nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}
