// Package llm provides the completion clients used to classify raw input.
package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"
)

// Supported providers.
const (
	ProviderOpenAI = "openai"
	ProviderClaude = "claude"
	ProviderGemini = "gemini"
	ProviderLocal  = "local"
	ProviderCustom = "custom"
)

// Providers lists every supported provider name.
var Providers = []string{ProviderOpenAI, ProviderClaude, ProviderGemini, ProviderLocal, ProviderCustom}

// Defaults per provider.
const (
	DefaultOpenAIModel = "gpt-3.5-turbo"
	DefaultClaudeModel = "claude-3-sonnet-20240229"
	DefaultGeminiModel = "models/gemini-1.0-pro"
	DefaultLocalModel  = "llama3"
	DefaultOpenAIURL   = "https://api.openai.com/v1"
	DefaultGeminiURL   = "https://generativelanguage.googleapis.com/v1beta"
	DefaultLocalURL    = "http://localhost:11434/v1"
	DefaultMaxTokens   = 1000
	DefaultTemperature = 0.7
	DefaultTimeoutSecs = 60
)

// ErrEmptyResponse is returned when a provider answers without any text.
var ErrEmptyResponse = errors.New("llm: empty response")

// Completer sends a prompt to a model and returns the raw text answer.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Config selects and parameterises a provider.
type Config struct {
	Provider    string
	Model       string
	APIKey      string
	BaseURL     string
	MaxTokens   int
	Temperature float32
	Timeout     int // seconds
}

func (c Config) withDefaults() Config {
	if c.MaxTokens <= 0 {
		c.MaxTokens = DefaultMaxTokens
	}
	if c.Temperature <= 0 {
		c.Temperature = DefaultTemperature
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeoutSecs
	}
	c.BaseURL = strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	return c
}

// New creates the Completer for cfg.Provider.
func New(cfg Config) (Completer, error) {
	cfg = cfg.withDefaults()
	switch cfg.Provider {
	case ProviderOpenAI:
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("llm: %s: api key is required", cfg.Provider)
		}
		return newOpenAI(cfg, DefaultOpenAIModel, DefaultOpenAIURL), nil
	case ProviderLocal:
		return newOpenAI(cfg, DefaultLocalModel, DefaultLocalURL), nil
	case ProviderCustom:
		if cfg.BaseURL == "" || cfg.Model == "" {
			return nil, fmt.Errorf("llm: custom: base_url and model are required")
		}
		return newOpenAI(cfg, "", ""), nil
	case ProviderClaude:
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("llm: %s: api key is required", cfg.Provider)
		}
		return newClaude(cfg), nil
	case ProviderGemini:
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("llm: %s: api key is required", cfg.Provider)
		}
		return newGemini(cfg), nil
	default:
		return nil, fmt.Errorf("llm: unknown provider %q", cfg.Provider)
	}
}

func newHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			DialContext: (&net.Dialer{
				Timeout:   30 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			MaxIdleConns:          10,
			IdleConnTimeout:       90 * time.Second,
			TLSHandshakeTimeout:   10 * time.Second,
			ExpectContinueTimeout: 1 * time.Second,
		},
	}
}
