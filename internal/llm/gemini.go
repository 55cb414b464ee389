package llm

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const geminiModelName = "gemini-1.5-flash-latest"

// GeminiProvider uses the Google GenAI SDK rather than raw HTTP.
type GeminiProvider struct {
	client *genai.Client
}

func NewGeminiProvider(apiKey string) (*GeminiProvider, error) {
	client, err := genai.NewClient(context.Background(), option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return &GeminiProvider{client: client}, nil
}

func (p *GeminiProvider) Name() string { return "gemini" }

func (p *GeminiProvider) Close() {
	if p.client != nil {
		if err := p.client.Close(); err != nil {
			log.Printf("Error closing GenAI client: %v", err)
		}
	}
}

func (p *GeminiProvider) Generate(ctx context.Context, systemPrompt string, history []ChatMessage, maxTokens int) (string, error) {
	if len(history) == 0 {
		return "", fmt.Errorf("empty history for generation: %w", ErrGenerationFailed)
	}

	model := p.client.GenerativeModel(geminiModelName)
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(systemPrompt)},
	}
	tokens := int32(maxTokens)
	model.GenerationConfig = genai.GenerationConfig{MaxOutputTokens: &tokens}

	// Gemini names the assistant role "model"; the final user turn is sent
	// as the message itself.
	session := model.StartChat()
	for _, msg := range history[:len(history)-1] {
		role := "model"
		if msg.Role == "user" {
			role = "user"
		}
		session.History = append(session.History, &genai.Content{
			Role:  role,
			Parts: []genai.Part{genai.Text(msg.Content)},
		})
	}

	last := history[len(history)-1]
	resp, err := session.SendMessage(ctx, genai.Text(last.Content))
	if err != nil {
		return "", fmt.Errorf("gemini SendMessage: %v: %w", err, ErrGenerationFailed)
	}

	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("gemini returned no candidates: %w", ErrGenerationFailed)
	}

	var responseText strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			responseText.WriteString(string(txt))
		} else {
			log.Printf("Gemini response part was not text: %T", part)
		}
	}
	if responseText.Len() == 0 {
		return "", fmt.Errorf("gemini returned non-text response: %w", ErrGenerationFailed)
	}
	return responseText.String(), nil
}
