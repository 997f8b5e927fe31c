package outline

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/genai"
)

// GeminiClient implements LLMClient using Google's genai SDK.
type GeminiClient struct {
	Model  string
	APIKey string
}

func newGeminiClient(s Settings) *GeminiClient {
	return &GeminiClient{Model: s.Model, APIKey: s.APIKey}
}

func (g *GeminiClient) Complete(ctx context.Context, prompt Prompt) (string, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: g.APIKey,
	})
	if err != nil {
		return "", fmt.Errorf("create genai client: %w", err)
	}
	defer client.Close()

	resp, err := client.Models.GenerateContent(ctx, g.Model,
		genai.Text(prompt.User),
		&genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(prompt.System, genai.RoleUser),
			Temperature:       genai.Ptr[float32](0.2),
			ResponseMIMEType:  "application/json",
		},
	)
	if err != nil {
		return "", err
	}
	text := resp.Text()
	if text == "" {
		return "", errors.New("gemini: empty response")
	}
	return text, nil
}
