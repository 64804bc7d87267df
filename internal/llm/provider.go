package llm

import (
	"context"
	"time"
)

// Provider defines the interface for inference oracles
type Provider interface {
	// Name returns the provider name
	Name() string

	// Complete sends one prompt and returns the raw completion text
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)

	// IsAvailable checks if the provider is properly configured and accessible
	IsAvailable(ctx context.Context) bool
}

// CompletionRequest is a single-turn prompt
type CompletionRequest struct {
	// System sets the assistant's role; empty uses the provider default
	System string

	// Prompt is the user message
	Prompt string

	// Model overrides the configured model (provider-specific)
	Model string

	// MaxTokens limits the response length
	MaxTokens int

	// Temperature is kept low for JSON answers
	Temperature float64

	// JSON asks the provider for a JSON-only answer when it supports it
	JSON bool
}

// CompletionResponse is the oracle's answer
type CompletionResponse struct {
	Text         string
	Model        string
	InputTokens  int
	OutputTokens int
}

// Config holds LLM provider configuration
type Config struct {
	// Provider name: "openai", "anthropic", "ollama", ""
	Provider string

	// Model name (provider-specific)
	Model string

	// APIKey for OpenAI/Anthropic
	APIKey string

	// BaseURL for custom endpoints (e.g., Ollama)
	BaseURL string

	// Timeout bounds a whole request
	Timeout time.Duration

	// ReadTimeout bounds reading the response body once headers arrived
	ReadTimeout time.Duration

	// MaxTokens for response generation
	MaxTokens int

	// Proxy settings
	HTTPProxy  string
	HTTPSProxy string
	NoProxy    string
}

// DefaultSystemPrompt frames every oracle call
const DefaultSystemPrompt = "You are a meticulous security-incident analyst. Answer only with the JSON object requested, no prose."

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Provider:    "", // Disabled by default
		Timeout:     20 * time.Second,
		ReadTimeout: 15 * time.Second,
		MaxTokens:   4000,
	}
}

// ProviderFunc adapts a function to the Provider interface
type ProviderFunc func(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)

// Name returns "func"
func (f ProviderFunc) Name() string { return "func" }

// Complete calls f
func (f ProviderFunc) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	return f(ctx, req)
}

// IsAvailable always returns true
func (f ProviderFunc) IsAvailable(ctx context.Context) bool { return true }

// TextResponse is a convenience for ProviderFunc implementations
func TextResponse(text string) *CompletionResponse {
	return &CompletionResponse{Text: text, OutputTokens: (len(text) + 3) / 4}
}

func resolveModel(req CompletionRequest, cfg Config, fallback string) string {
	if req.Model != "" {
		return req.Model
	}
	if cfg.Model != "" {
		return cfg.Model
	}
	return fallback
}

func resolveMaxTokens(req CompletionRequest, cfg Config) int {
	if req.MaxTokens > 0 {
		return req.MaxTokens
	}
	if cfg.MaxTokens > 0 {
		return cfg.MaxTokens
	}
	return 4000
}

func resolveSystem(req CompletionRequest) string {
	if req.System != "" {
		return req.System
	}
	return DefaultSystemPrompt
}
