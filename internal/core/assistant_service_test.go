package core

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/krishisakhi/krishisakhi/internal/capture"
	"github.com/krishisakhi/krishisakhi/internal/llm"
	"github.com/krishisakhi/krishisakhi/internal/nav"
	"github.com/krishisakhi/krishisakhi/internal/speech"
	"github.com/krishisakhi/krishisakhi/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pipelineFixture wires the full voice pipeline against stub vendor servers.
type pipelineFixture struct {
	assistant *AssistantService
	capture   *capture.Manager
	player    *speech.Player
	store     *store.MemoryStore
}

func newPipelineFixture(t *testing.T, sttHandler, ttsHandler http.HandlerFunc, provider llm.Provider) *pipelineFixture {
	t.Helper()

	stt := httptest.NewServer(sttHandler)
	t.Cleanup(stt.Close)
	tts := httptest.NewServer(ttsHandler)
	t.Cleanup(tts.Close)

	memStore := store.NewMemoryStore()
	conversation := NewConversationService(memStore, provider, testMetrics, 10, 500)
	captureMgr := capture.NewManager()
	player := speech.NewPlayer()

	assistant := NewAssistantService(
		captureMgr,
		speech.NewTranscriber(stt.URL, "token"),
		conversation,
		speech.NewSynthesizer(tts.URL, "key", "voice"),
		player,
		nav.NewRouter(),
		testMetrics,
	)
	return &pipelineFixture{assistant: assistant, capture: captureMgr, player: player, store: memStore}
}

func sttReturning(text string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"text": "` + text + `", "confidence": 0.9}`))
	}
}

func ttsReturning(audio string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(audio))
	}
}

func TestProcessVoiceFullExchange(t *testing.T) {
	provider := &fakeProvider{reply: "Water your rice field in the morning."}
	f := newPipelineFixture(t, sttReturning("when should I water my rice"), ttsReturning("mp3"), provider)

	session, err := f.assistant.StartRecording(1)
	require.NoError(t, err)
	require.NoError(t, f.assistant.AppendChunk(session.ID, []byte("audio")))

	result, err := f.assistant.ProcessVoice(context.Background(), 1, session.ID, "", "weather", LangEnglish)
	require.NoError(t, err)

	assert.Equal(t, "when should I water my rice", result.Transcript)
	assert.Equal(t, 0.9, result.Confidence)
	assert.NotEmpty(t, result.ConversationID)
	assert.Equal(t, "Water your rice field in the morning.", result.Reply)
	assert.False(t, result.Degraded)
	assert.NotEmpty(t, result.AudioContent)
	assert.NotEmpty(t, result.ClipID)

	// The reply clip holds the playback slot and the device is released.
	assert.True(t, f.player.Playing())
	assert.False(t, f.capture.Active(1))

	// The exchange landed in the conversation history.
	messages, err := f.store.GetMessages(result.ConversationID, 100, 0)
	require.NoError(t, err)
	assert.Len(t, messages, 2)
}

func TestProcessVoiceSilence(t *testing.T) {
	provider := &fakeProvider{reply: "unused"}
	f := newPipelineFixture(t, sttReturning("  "), ttsReturning("mp3"), provider)

	session, err := f.assistant.StartRecording(1)
	require.NoError(t, err)
	require.NoError(t, f.assistant.AppendChunk(session.ID, []byte("audio")))

	_, err = f.assistant.ProcessVoice(context.Background(), 1, session.ID, "", "", LangEnglish)
	assert.ErrorIs(t, err, speech.ErrNoSpeechDetected)

	// Silence never reaches the conversation engine.
	assert.Empty(t, provider.windows)
}

func TestProcessVoiceEmptyRecording(t *testing.T) {
	provider := &fakeProvider{reply: "unused"}
	f := newPipelineFixture(t, sttReturning("hello"), ttsReturning("mp3"), provider)

	session, err := f.assistant.StartRecording(1)
	require.NoError(t, err)

	// No chunks appended.
	_, err = f.assistant.ProcessVoice(context.Background(), 1, session.ID, "", "", LangEnglish)
	assert.ErrorIs(t, err, ErrNoAudio)
}

func TestProcessVoiceSynthesisFailureKeepsReply(t *testing.T) {
	provider := &fakeProvider{reply: "A textual answer."}
	ttsDown := func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}
	f := newPipelineFixture(t, sttReturning("a question"), ttsDown, provider)

	session, err := f.assistant.StartRecording(1)
	require.NoError(t, err)
	require.NoError(t, f.assistant.AppendChunk(session.ID, []byte("audio")))

	result, err := f.assistant.ProcessVoice(context.Background(), 1, session.ID, "", "", LangEnglish)
	require.NoError(t, err)

	assert.Equal(t, "A textual answer.", result.Reply)
	assert.Empty(t, result.AudioContent)
	assert.Empty(t, result.ClipID)
	assert.False(t, f.player.Playing())
}

func TestProcessNavigationMatch(t *testing.T) {
	provider := &fakeProvider{reply: "unused"}
	f := newPipelineFixture(t, sttReturning("open the farm diary please"), ttsReturning("mp3"), provider)

	session, err := f.assistant.StartRecording(1)
	require.NoError(t, err)
	require.NoError(t, f.assistant.AppendChunk(session.ID, []byte("audio")))

	result, err := f.assistant.ProcessNavigation(context.Background(), session.ID, LangEnglish)
	require.NoError(t, err)

	assert.True(t, result.Matched)
	assert.Equal(t, "/farm-diary", result.Route)
	// Navigation never touches the conversation engine.
	assert.Empty(t, provider.windows)
}

func TestProcessNavigationNoMatchIsNotAnError(t *testing.T) {
	provider := &fakeProvider{reply: "unused"}
	f := newPipelineFixture(t, sttReturning("tell me a story"), ttsReturning("mp3"), provider)

	session, err := f.assistant.StartRecording(1)
	require.NoError(t, err)
	require.NoError(t, f.assistant.AppendChunk(session.ID, []byte("audio")))

	result, err := f.assistant.ProcessNavigation(context.Background(), session.ID, LangEnglish)
	require.NoError(t, err)

	assert.False(t, result.Matched)
	assert.Empty(t, result.Route)
	assert.Equal(t, "tell me a story", result.Transcript)
}

func TestSpeakClaimsPlaybackSlot(t *testing.T) {
	provider := &fakeProvider{reply: "unused"}
	f := newPipelineFixture(t, sttReturning("x"), ttsReturning("mp3"), provider)

	clip, audioContent, err := f.assistant.Speak(context.Background(), "വായിക്കുക", "")
	require.NoError(t, err)
	assert.NotEmpty(t, clip.ID)
	assert.NotEmpty(t, audioContent)
	assert.True(t, f.assistant.Playing())

	// A stale completion is ignored; the real one releases the slot.
	f.assistant.CompletePlayback("stale-id")
	assert.True(t, f.assistant.Playing())
	f.assistant.CompletePlayback(clip.ID)
	assert.False(t, f.assistant.Playing())
}
