// Package llm holds the text-generation clients used for quiz generation and
// the quiz assistant.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrNoChoices is returned when the model answers without any content.
var ErrNoChoices = errors.New("LLM returned no content")

// Provider is a text-generation backend.
type Provider interface {
	// Generate sends a single user prompt and returns the raw reply.
	Generate(ctx context.Context, prompt string) (string, error)
	// Chat sends a system instruction plus one user message.
	Chat(ctx context.Context, system, message string) (string, error)
	// Ping checks that the backend is reachable.
	Ping(ctx context.Context) error
	Close() error
}

var (
	_ Provider = (*Client)(nil)
	_ Provider = (*GeminiClient)(nil)
)

// Config selects and configures a provider.
type Config struct {
	Provider string // "openai" (default) or "gemini"
	BaseURL  string // OpenAI-compatible base URL, ignored for gemini
	APIKey   string
	Model    string
}

// Default model names used when Config.Model is empty.
const (
	DefaultOpenAIModel = "llama3.2"
	DefaultGeminiModel = "gemini-2.5-pro"
)

// Open creates the provider named in cfg.
func Open(ctx context.Context, cfg Config) (Provider, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "", "openai":
		modelName := cfg.Model
		if modelName == "" {
			modelName = DefaultOpenAIModel
		}
		return New(cfg.BaseURL, cfg.APIKey, modelName), nil
	case "gemini":
		modelName := cfg.Model
		if modelName == "" {
			modelName = DefaultGeminiModel
		}
		return NewGemini(ctx, cfg.APIKey, modelName)
	default:
		return nil, fmt.Errorf("unknown LLM provider %q", cfg.Provider)
	}
}
