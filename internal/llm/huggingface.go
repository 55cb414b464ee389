package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const defaultHFModelURL = "https://api-inference.huggingface.co/models/google/gemma-2b"

// HuggingFaceProvider calls the HF inference API. Unlike the chat vendors it
// takes a single flattened prompt and answers with the array shape
// [{"generated_text":"..."}], often echoing the prompt back — the echo is
// stripped before returning.
type HuggingFaceProvider struct {
	url    string
	token  string
	client *http.Client
}

func NewHuggingFaceProvider(token string) *HuggingFaceProvider {
	return &HuggingFaceProvider{
		url:    defaultHFModelURL,
		token:  token,
		client: &http.Client{Timeout: 60 * time.Second},
	}
}

func (p *HuggingFaceProvider) Name() string { return "huggingface" }

type hfRequest struct {
	Inputs     string `json:"inputs"`
	Parameters struct {
		MaxLength   int     `json:"max_length"`
		Temperature float64 `json:"temperature"`
		DoSample    bool    `json:"do_sample"`
	} `json:"parameters"`
}

func (p *HuggingFaceProvider) Generate(ctx context.Context, systemPrompt string, history []ChatMessage, maxTokens int) (string, error) {
	prompt := flattenPrompt(systemPrompt, history)

	reqBody := hfRequest{Inputs: prompt}
	reqBody.Parameters.MaxLength = maxTokens
	reqBody.Parameters.Temperature = 0.7
	reqBody.Parameters.DoSample = true

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshalling huggingface request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("creating huggingface request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+p.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("huggingface request: %v: %w", err, ErrGenerationFailed)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return "", fmt.Errorf("huggingface status %d: %s: %w", resp.StatusCode, respBody, ErrGenerationFailed)
	}

	var result []struct {
		GeneratedText string `json:"generated_text"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decoding huggingface response: %v: %w", err, ErrGenerationFailed)
	}
	if len(result) == 0 {
		return "", fmt.Errorf("huggingface returned no generations: %w", ErrGenerationFailed)
	}

	// The model echoes the prompt before its answer.
	reply := strings.TrimSpace(strings.TrimPrefix(result[0].GeneratedText, prompt))
	if reply == "" {
		return "", fmt.Errorf("huggingface returned empty generation: %w", ErrGenerationFailed)
	}
	return reply, nil
}

// flattenPrompt folds the system prompt and history into one text prompt for
// completion-style models.
func flattenPrompt(systemPrompt string, history []ChatMessage) string {
	var sb strings.Builder
	sb.WriteString(systemPrompt)
	sb.WriteString("\n\n")
	for _, msg := range history {
		switch msg.Role {
		case "user":
			sb.WriteString("Farmer: ")
		default:
			sb.WriteString("Assistant: ")
		}
		sb.WriteString(msg.Content)
		sb.WriteString("\n")
	}
	sb.WriteString("Assistant:")
	return sb.String()
}
