package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultGrokURL = "https://api.x.ai/v1/chat/completions"

// GrokProvider calls the xAI Grok chat-completions API. Same choices shape
// as Azure, but bearer auth and an explicit model field.
type GrokProvider struct {
	url    string
	apiKey string
	model  string
	client *http.Client
}

func NewGrokProvider(apiKey string) *GrokProvider {
	return &GrokProvider{
		url:    defaultGrokURL,
		apiKey: apiKey,
		model:  "grok-beta",
		client: &http.Client{Timeout: 60 * time.Second},
	}
}

func (p *GrokProvider) Name() string { return "grok" }

type grokChatRequest struct {
	Model       string        `json:"model"`
	Messages    []ChatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

func (p *GrokProvider) Generate(ctx context.Context, systemPrompt string, history []ChatMessage, maxTokens int) (string, error) {
	messages := append([]ChatMessage{{Role: "system", Content: systemPrompt}}, history...)

	bodyBytes, err := json.Marshal(grokChatRequest{
		Model:       p.model,
		Messages:    messages,
		Temperature: 0.7,
		MaxTokens:   maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("marshalling grok request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("creating grok request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+p.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("grok request: %v: %w", err, ErrGenerationFailed)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return "", fmt.Errorf("grok status %d: %s: %w", resp.StatusCode, respBody, ErrGenerationFailed)
	}

	var result choicesResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decoding grok response: %v: %w", err, ErrGenerationFailed)
	}
	if len(result.Choices) == 0 || result.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("grok returned no choices: %w", ErrGenerationFailed)
	}
	return result.Choices[0].Message.Content, nil
}
