// Package insights generates short narrative commentary for finished
// statements using an LLM provider.
package insights

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// Provider produces commentary text for a prompt.
type Provider interface {
	Generate(ctx context.Context, systemPrompt, prompt string) (string, error)
}

// GeminiProvider calls the Gemini API through the official GenAI SDK.
type GeminiProvider struct {
	APIKey string
	Model  string
}

var _ Provider = (*GeminiProvider)(nil)

const defaultModel = "gemini-2.0-flash"

// Generate sends a generateContent request and returns the text.
func (p *GeminiProvider) Generate(ctx context.Context, systemPrompt, prompt string) (string, error) {
	if p.APIKey == "" {
		return "", fmt.Errorf("insights: gemini api key not configured")
	}
	model := p.Model
	if model == "" {
		model = defaultModel
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  p.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return "", fmt.Errorf("insights: create client: %w", err)
	}

	config := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(0.2)),
	}
	if systemPrompt != "" {
		config.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: systemPrompt}},
		}
	}

	result, err := client.Models.GenerateContent(ctx, model, genai.Text(prompt), config)
	if err != nil {
		return "", fmt.Errorf("insights: generate: %w", err)
	}
	return result.Text(), nil
}
