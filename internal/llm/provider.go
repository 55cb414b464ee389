// Package llm contains the text-generation provider adapters.
//
// Every vendor speaks a slightly different dialect of "messages in, reply
// out"; each adapter normalizes its vendor's response shape at the boundary
// so the conversation engine only ever sees a plain reply string.
package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/krishisakhi/krishisakhi/internal/config"
)

// ErrGenerationFailed marks any provider failure: transport error, non-2xx
// status or a malformed payload. The conversation engine swallows it into a
// localized apology; callers that need to distinguish can errors.Is on it.
var ErrGenerationFailed = errors.New("text generation failed")

// ChatMessage is a single turn in provider wire format.
type ChatMessage struct {
	Role    string `json:"role"` // "user" or "assistant"
	Content string `json:"content"`
}

// Provider generates an assistant reply from a system prompt and a trailing
// window of conversation history. The last history entry is the user turn
// being answered.
type Provider interface {
	Name() string
	Generate(ctx context.Context, systemPrompt string, history []ChatMessage, maxTokens int) (string, error)
}

// NewProvider builds the provider selected by config.
func NewProvider(cfg config.Config) (Provider, error) {
	switch cfg.LLMProvider {
	case "azure":
		if cfg.AzureAPIKey == "" || cfg.AzureEndpoint == "" {
			return nil, fmt.Errorf("azure provider requires AZURE_OPENAI_ENDPOINT and AZURE_OPENAI_API_KEY")
		}
		return NewAzureProvider(cfg.AzureEndpoint, cfg.AzureAPIKey), nil
	case "grok":
		if cfg.GrokAPIKey == "" {
			return nil, fmt.Errorf("grok provider requires XAI_API_KEY")
		}
		return NewGrokProvider(cfg.GrokAPIKey), nil
	case "huggingface":
		if cfg.HuggingFaceToken == "" {
			return nil, fmt.Errorf("huggingface provider requires HF_TOKEN")
		}
		return NewHuggingFaceProvider(cfg.HuggingFaceToken), nil
	case "gemini":
		if cfg.GeminiAPIKey == "" {
			return nil, fmt.Errorf("gemini provider requires GEMINI_API_KEY")
		}
		return NewGeminiProvider(cfg.GeminiAPIKey)
	default:
		return nil, fmt.Errorf("unknown LLM provider %q", cfg.LLMProvider)
	}
}
