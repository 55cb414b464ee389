package core

import (
	"context"
	"sync"
	"testing"

	"github.com/krishisakhi/krishisakhi/internal/llm"
	"github.com/krishisakhi/krishisakhi/internal/metrics"
	"github.com/krishisakhi/krishisakhi/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Shared across the package's tests: promauto registers on the default
// registry, which tolerates only one registration per instrument.
var testMetrics = metrics.New()

// fakeProvider returns a fixed reply or error and records the history
// windows it was called with.
type fakeProvider struct {
	mu      sync.Mutex
	reply   string
	err     error
	windows [][]llm.ChatMessage
	prompts []string
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) Generate(_ context.Context, systemPrompt string, history []llm.ChatMessage, _ int) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	window := make([]llm.ChatMessage, len(history))
	copy(window, history)
	f.windows = append(f.windows, window)
	f.prompts = append(f.prompts, systemPrompt)
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

func (f *fakeProvider) lastWindow() []llm.ChatMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.windows) == 0 {
		return nil
	}
	return f.windows[len(f.windows)-1]
}

func (f *fakeProvider) lastPrompt() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.prompts) == 0 {
		return ""
	}
	return f.prompts[len(f.prompts)-1]
}

func newTestService(provider llm.Provider) (*ConversationService, *store.MemoryStore) {
	s := store.NewMemoryStore()
	return NewConversationService(s, provider, testMetrics, 10, 500), s
}

func TestSendAppendsUserAndAssistantTurns(t *testing.T) {
	provider := &fakeProvider{reply: "Apply NPK fertilizer after the rain."}
	svc, memStore := newTestService(provider)

	conv, err := memStore.CreateConversation(1, nil)
	require.NoError(t, err)

	result, err := svc.Send(context.Background(), conv.ID, 1, "What fertilizer for my rice?", "fertilizer", LangEnglish)
	require.NoError(t, err)

	assert.Equal(t, conv.ID, result.ConversationID)
	assert.False(t, result.Degraded)
	assert.Equal(t, store.SenderUser, result.UserMessage.Sender)
	assert.Equal(t, "What fertilizer for my rice?", result.UserMessage.Content)
	assert.Equal(t, store.SenderAssistant, result.Assistant.Sender)
	assert.Equal(t, "Apply NPK fertilizer after the rain.", result.Assistant.Content)

	messages, err := memStore.GetMessages(conv.ID, 100, 0)
	require.NoError(t, err)
	assert.Len(t, messages, 2)
}

func TestSendProviderFailureDegradesToApology(t *testing.T) {
	provider := &fakeProvider{err: llm.ErrGenerationFailed}
	svc, memStore := newTestService(provider)

	conv, err := memStore.CreateConversation(1, nil)
	require.NoError(t, err)

	result, err := svc.Send(context.Background(), conv.ID, 1, "hello", "", LangMalayalam)
	require.NoError(t, err)

	assert.True(t, result.Degraded)
	assert.Equal(t, ApologyMessage(LangMalayalam), result.Assistant.Content)

	// History still grows by exactly two turns.
	messages, err := memStore.GetMessages(conv.ID, 100, 0)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, store.SenderUser, messages[0].Sender)
	assert.Equal(t, store.SenderAssistant, messages[1].Sender)
}

func TestSendHistoryWindowIsBounded(t *testing.T) {
	provider := &fakeProvider{reply: "ok"}
	svc, memStore := newTestService(provider)

	conv, err := memStore.CreateConversation(1, nil)
	require.NoError(t, err)

	// 12 exchanges = 24 stored messages, far past the window of 10.
	for i := 0; i < 12; i++ {
		_, err := svc.Send(context.Background(), conv.ID, 1, "turn", "", LangEnglish)
		require.NoError(t, err)
	}

	window := provider.lastWindow()
	assert.Len(t, window, 10)
	// The window ends with the user turn being answered.
	assert.Equal(t, "user", window[len(window)-1].Role)

	messages, err := memStore.GetMessages(conv.ID, 1000, 0)
	require.NoError(t, err)
	assert.Len(t, messages, 24)
}

func TestSendCreatesConversationLazily(t *testing.T) {
	provider := &fakeProvider{reply: "Welcome!"}
	svc, memStore := newTestService(provider)

	result, err := svc.Send(context.Background(), "", 1, "How do I start a farm diary?", "farm-diary", LangEnglish)
	require.NoError(t, err)
	require.NotEmpty(t, result.ConversationID)

	conv, err := memStore.GetConversation(result.ConversationID, 1)
	require.NoError(t, err)
	require.NotNil(t, conv)
	// Provisional title from the first message, until the async generated
	// title lands (which may already have happened).
	require.NotNil(t, conv.Title)
	assert.NotEmpty(t, *conv.Title)
}

func TestSendRejectsEmptyContent(t *testing.T) {
	provider := &fakeProvider{reply: "ok"}
	svc, _ := newTestService(provider)

	_, err := svc.Send(context.Background(), "", 1, "   ", "", LangEnglish)
	assert.Error(t, err)
}

func TestSendUnknownConversation(t *testing.T) {
	provider := &fakeProvider{reply: "ok"}
	svc, _ := newTestService(provider)

	_, err := svc.Send(context.Background(), "missing-id", 1, "hello", "", LangEnglish)
	assert.ErrorIs(t, err, ErrConversationNotFound)
}

func TestSendOtherUsersConversationIsNotFound(t *testing.T) {
	provider := &fakeProvider{reply: "ok"}
	svc, memStore := newTestService(provider)

	conv, err := memStore.CreateConversation(1, nil)
	require.NoError(t, err)

	_, err = svc.Send(context.Background(), conv.ID, 2, "hello", "", LangEnglish)
	assert.ErrorIs(t, err, ErrConversationNotFound)
}

func TestSendBuildsContextualSystemPrompt(t *testing.T) {
	provider := &fakeProvider{reply: "ok"}
	svc, memStore := newTestService(provider)

	conv, err := memStore.CreateConversation(1, nil)
	require.NoError(t, err)

	_, err = svc.Send(context.Background(), conv.ID, 1, "advice please", "weather", LangMalayalam)
	require.NoError(t, err)

	prompt := provider.lastPrompt()
	assert.Contains(t, prompt, "weather-related farming advice")
	assert.Contains(t, prompt, "Reply in Malayalam")
}

func TestSendUnknownPageContextFallsBackToPersona(t *testing.T) {
	provider := &fakeProvider{reply: "ok"}
	svc, memStore := newTestService(provider)

	conv, err := memStore.CreateConversation(1, nil)
	require.NoError(t, err)

	_, err = svc.Send(context.Background(), conv.ID, 1, "advice please", "no-such-page", LangEnglish)
	require.NoError(t, err)

	assert.Equal(t, personaPrompt, provider.lastPrompt())
}
