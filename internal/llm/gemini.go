package llm

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// GeminiClient talks to Google's Gemini API.
type GeminiClient struct {
	client *genai.Client
	model  string
}

// NewGemini creates a Gemini client for the given model.
func NewGemini(ctx context.Context, apiKey, modelName string) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &GeminiClient{client: client, model: modelName}, nil
}

// Generate sends prompt as a single text part.
func (g *GeminiClient) Generate(ctx context.Context, prompt string) (string, error) {
	m := g.client.GenerativeModel(g.model)
	m.SetTemperature(0.7)
	return g.send(ctx, m, prompt)
}

// Chat sends message with system as the model's system instruction.
func (g *GeminiClient) Chat(ctx context.Context, system, message string) (string, error) {
	m := g.client.GenerativeModel(g.model)
	m.SetTemperature(0.5)
	m.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(system)}}
	return g.send(ctx, m, message)
}

func (g *GeminiClient) send(ctx context.Context, m *genai.GenerativeModel, text string) (string, error) {
	resp, err := m.GenerateContent(ctx, genai.Text(text))
	if err != nil {
		return "", fmt.Errorf("gemini API call: %w", err)
	}
	raw := responseText(resp)
	if raw == "" {
		return "", ErrNoChoices
	}
	slog.Debug("LLM response", "model", g.model, "raw", raw)
	return raw, nil
}

// Ping fetches the configured model's metadata.
func (g *GeminiClient) Ping(ctx context.Context) error {
	if _, err := g.client.GenerativeModel(g.model).Info(ctx); err != nil {
		return fmt.Errorf("gemini model info: %w", err)
	}
	return nil
}

func (g *GeminiClient) Close() error {
	return g.client.Close()
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	c := resp.Candidates[0]
	if c == nil || c.Content == nil {
		return ""
	}
	var sb strings.Builder
	for _, part := range c.Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			sb.WriteString(string(txt))
		}
	}
	return sb.String()
}
