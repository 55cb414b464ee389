package core

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/krishisakhi/krishisakhi/internal/llm"
	"github.com/krishisakhi/krishisakhi/internal/metrics"
	"github.com/krishisakhi/krishisakhi/internal/store"
)

// ConversationService owns the per-conversation message history and the
// exchange with the text-generation provider. Histories are strictly
// append-ordered; every Send grows a conversation by exactly two messages
// (user + assistant), whether generation succeeds or not.
type ConversationService struct {
	store         store.ConversationStore
	provider      llm.Provider
	metrics       *metrics.Metrics
	historyWindow int
	maxTokens     int
}

func NewConversationService(s store.ConversationStore, provider llm.Provider, m *metrics.Metrics, historyWindow, maxTokens int) *ConversationService {
	return &ConversationService{
		store:         s,
		provider:      provider,
		metrics:       m,
		historyWindow: historyWindow,
		maxTokens:     maxTokens,
	}
}

// SendResult carries one completed exchange. Degraded is set when the
// assistant text is the apology fallback: user-initiated call sites may show
// a transient error indicator, background ones ignore it.
type SendResult struct {
	ConversationID string         `json:"conversation_id"`
	UserMessage    *store.Message `json:"user_message"`
	Assistant      *store.Message `json:"assistant_message"`
	Degraded       bool           `json:"degraded,omitempty"`
}

// Send appends the user turn, runs generation over the trailing history
// window, and appends the assistant turn. Pass an empty conversationID to
// create the conversation lazily; the assigned ID comes back in the result.
// Provider failures never propagate — the assistant turn becomes the fixed
// localized apology instead.
func (s *ConversationService) Send(ctx context.Context, conversationID string, userID int64, content, pageContext, language string) (*SendResult, error) {
	if strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("message content cannot be empty")
	}

	conv, isNew, err := s.getOrCreateConversation(conversationID, userID, content)
	if err != nil {
		return nil, err
	}

	userMsg := store.Message{
		ConversationID: conv.ID,
		Sender:         store.SenderUser,
		Content:        content,
		PageContext:    pageContext,
	}
	if err := s.store.AppendMessage(&userMsg); err != nil {
		return nil, fmt.Errorf("failed to store user message: %w", err)
	}

	reply, degraded := s.generate(ctx, conv.ID, pageContext, language)

	assistantMsg := store.Message{
		ConversationID: conv.ID,
		Sender:         store.SenderAssistant,
		Content:        reply,
		PageContext:    pageContext,
	}
	if err := s.store.AppendMessage(&assistantMsg); err != nil {
		return nil, fmt.Errorf("failed to store assistant message: %w", err)
	}

	if isNew && !degraded {
		go s.generateAndSaveTitle(conv.ID, userID, content)
	}

	return &SendResult{
		ConversationID: conv.ID,
		UserMessage:    &userMsg,
		Assistant:      &assistantMsg,
		Degraded:       degraded,
	}, nil
}

func (s *ConversationService) getOrCreateConversation(conversationID string, userID int64, firstContent string) (*store.Conversation, bool, error) {
	if conversationID != "" {
		conv, err := s.store.GetConversation(conversationID, userID)
		if err != nil {
			return nil, false, fmt.Errorf("failed to verify conversation: %w", err)
		}
		if conv == nil {
			return nil, false, ErrConversationNotFound
		}
		return conv, false, nil
	}

	// Lazy creation on first message; a provisional title from the message
	// text until the generated one lands.
	title := firstContent
	if len(title) > 50 {
		title = title[:50] + "..."
	}
	conv, err := s.store.CreateConversation(userID, &title)
	if err != nil {
		return nil, false, fmt.Errorf("failed to create conversation: %w", err)
	}
	return conv, true, nil
}

// generate runs the provider over the trailing window and returns the reply
// text plus whether it degraded to the apology.
func (s *ConversationService) generate(ctx context.Context, conversationID, pageContext, language string) (string, bool) {
	history, err := s.store.GetLastNMessages(conversationID, s.historyWindow)
	if err != nil {
		log.Printf("Error loading history for conversation %s: %v", conversationID, err)
		return ApologyMessage(language), true
	}

	window := make([]llm.ChatMessage, 0, len(history))
	for _, msg := range history {
		role := "assistant"
		if msg.IsUser() {
			role = "user"
		}
		window = append(window, llm.ChatMessage{Role: role, Content: msg.Content})
	}

	systemPrompt := BuildSystemPrompt(pageContext, language)

	s.metrics.GenerationRequests.WithLabelValues(s.provider.Name()).Inc()
	reply, err := s.provider.Generate(ctx, systemPrompt, window, s.maxTokens)
	if err != nil {
		s.metrics.GenerationFailures.WithLabelValues(s.provider.Name()).Inc()
		log.Printf("Error generating reply for conversation %s: %v", conversationID, err)
		return ApologyMessage(language), true
	}
	return reply, false
}

// ErrConversationNotFound is returned when the conversation does not exist
// or is owned by another user.
var ErrConversationNotFound = fmt.Errorf("conversation not found")

// Conversations lists the user's conversations, newest first.
func (s *ConversationService) Conversations(userID int64) ([]store.Conversation, error) {
	return s.store.ListConversations(userID)
}

// ConversationDetails returns a conversation with up to 100 messages.
func (s *ConversationService) ConversationDetails(conversationID string, userID int64) (*store.Conversation, []store.Message, error) {
	conv, err := s.store.GetConversation(conversationID, userID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get conversation: %w", err)
	}
	if conv == nil {
		return nil, nil, nil // Not found
	}

	messages, err := s.store.GetMessages(conversationID, 100, 0)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get messages: %w", err)
	}
	return conv, messages, nil
}

const titlePrompt = "Generate a very concise title (3-5 words maximum) for a conversation that starts with or is about: %q. Just return the title itself, nothing else."

func (s *ConversationService) generateAndSaveTitle(conversationID string, userID int64, basisContent string) {
	title, err := s.provider.Generate(context.Background(),
		"You are a helpful assistant that generates concise titles for chat conversations.",
		[]llm.ChatMessage{{Role: "user", Content: fmt.Sprintf(titlePrompt, basisContent)}},
		20)
	if err != nil {
		log.Printf("Failed to generate title for conversation %s: %v", conversationID, err)
		return
	}
	title = strings.Trim(title, "\"'\n\r\t .")

	if err := s.store.UpdateConversationTitle(conversationID, userID, title); err != nil {
		log.Printf("Failed to save generated title %q for conversation %s: %v", title, conversationID, err)
	}
}
