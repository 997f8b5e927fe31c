package outline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const anthropicVersion = "2023-06-01"

// AnthropicClient implements LLMClient against the Anthropic messages API
// with a plain HTTP client.
type AnthropicClient struct {
	Model   string
	APIKey  string
	BaseURL string
}

func newAnthropicClient(s Settings) *AnthropicClient {
	return &AnthropicClient{Model: s.Model, APIKey: s.APIKey, BaseURL: s.BaseURL}
}

func (a *AnthropicClient) endpoint() string {
	if a.BaseURL != "" {
		return strings.TrimSuffix(a.BaseURL, "/") + "/v1/messages"
	}
	return "https://api.anthropic.com/v1/messages"
}

func (a *AnthropicClient) Complete(ctx context.Context, prompt Prompt) (string, error) {
	reqBody := map[string]interface{}{
		"model":       a.Model,
		"max_tokens":  4096,
		"temperature": 0.2,
		"system":      prompt.System,
		"messages": []map[string]interface{}{
			{"role": "user", "content": prompt.User},
		},
	}
	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.endpoint(), bytes.NewBuffer(jsonBody))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", a.APIKey)
	req.Header.Set("anthropic-version", anthropicVersion)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("anthropic API error (%d): %s", resp.StatusCode, string(respBody))
	}

	var result struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text,omitempty"`
		} `json:"content"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}

	var sb strings.Builder
	for _, block := range result.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("anthropic: no text content in response")
	}
	return sb.String(), nil
}
