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

// AzureProvider calls an Azure OpenAI chat-completions deployment.
// Response shape: {"choices":[{"message":{"content":"..."}}]}.
type AzureProvider struct {
	endpoint string // full deployment URL including api-version query
	apiKey   string
	client   *http.Client
}

func NewAzureProvider(endpoint, apiKey string) *AzureProvider {
	return &AzureProvider{
		endpoint: endpoint,
		apiKey:   apiKey,
		client:   &http.Client{Timeout: 60 * time.Second},
	}
}

func (p *AzureProvider) Name() string { return "azure" }

type azureChatRequest struct {
	Messages            []ChatMessage `json:"messages"`
	MaxCompletionTokens int           `json:"max_completion_tokens"`
	Stream              bool          `json:"stream"`
}

type choicesResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (p *AzureProvider) Generate(ctx context.Context, systemPrompt string, history []ChatMessage, maxTokens int) (string, error) {
	messages := append([]ChatMessage{{Role: "system", Content: systemPrompt}}, history...)

	bodyBytes, err := json.Marshal(azureChatRequest{
		Messages:            messages,
		MaxCompletionTokens: maxTokens,
		Stream:              false,
	})
	if err != nil {
		return "", fmt.Errorf("marshalling azure request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("creating azure request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("api-key", p.apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("azure request: %v: %w", err, ErrGenerationFailed)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return "", fmt.Errorf("azure status %d: %s: %w", resp.StatusCode, respBody, ErrGenerationFailed)
	}

	var result choicesResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decoding azure response: %v: %w", err, ErrGenerationFailed)
	}
	if len(result.Choices) == 0 || result.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("azure returned no choices: %w", ErrGenerationFailed)
	}
	return result.Choices[0].Message.Content, nil
}
