package api

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/krishisakhi/krishisakhi/internal/capture"
	"github.com/krishisakhi/krishisakhi/internal/core"
	"github.com/krishisakhi/krishisakhi/internal/speech"
)

// StartRecordingHandler acquires the capture device and opens a session.
func (h *APIHandler) StartRecordingHandler(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)

	session, err := h.assistant.StartRecording(uid)
	if err != nil {
		if errors.Is(err, capture.ErrDeviceUnavailable) {
			http.Error(w, "A recording is already in progress", http.StatusConflict)
			return
		}
		log.Printf("Error starting recording for user %d: %v", uid, err)
		http.Error(w, "Failed to start recording", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]string{"session_id": session.ID})
}

type AppendChunkRequest struct {
	SessionID string `json:"session_id"`
	Chunk     string `json:"chunk"` // base64 encoded audio
}

// AppendChunkHandler buffers one audio chunk on an open session.
func (h *APIHandler) AppendChunkHandler(w http.ResponseWriter, r *http.Request) {
	var req AppendChunkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	chunk, err := base64.StdEncoding.DecodeString(req.Chunk)
	if err != nil {
		http.Error(w, "Chunk must be base64 encoded", http.StatusBadRequest)
		return
	}

	if err := h.assistant.AppendChunk(req.SessionID, chunk); err != nil {
		switch {
		case errors.Is(err, capture.ErrSessionNotFound):
			http.Error(w, "Recording session not found", http.StatusNotFound)
		case errors.Is(err, capture.ErrSessionNotRecording):
			http.Error(w, "Recording session is no longer active", http.StatusConflict)
		default:
			log.Printf("Error appending chunk to session %s: %v", req.SessionID, err)
			http.Error(w, "Failed to append chunk", http.StatusInternalServerError)
		}
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type ProcessVoiceRequest struct {
	SessionID      string `json:"session_id"`
	ConversationID string `json:"conversation_id,omitempty"`
	PageContext    string `json:"page_context,omitempty"`
	Language       string `json:"language,omitempty"`
}

// ProcessVoiceHandler finalizes the recording and runs the full voice
// exchange. Silence and transcription failures come back as structured
// errors so the client can show the right localized notice.
func (h *APIHandler) ProcessVoiceHandler(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)

	var req ProcessVoiceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	result, err := h.assistant.ProcessVoice(r.Context(), uid, req.SessionID, req.ConversationID, req.PageContext, req.Language)
	if err != nil {
		h.writeVoiceError(w, req.Language, err)
		return
	}
	json.NewEncoder(w).Encode(result)
}

type ProcessNavigationRequest struct {
	SessionID string `json:"session_id"`
	Language  string `json:"language,omitempty"`
}

// ProcessNavigationHandler finalizes the recording and matches the
// transcript against the voice command table. An unmatched transcript is a
// 200 with matched=false, not an error.
func (h *APIHandler) ProcessNavigationHandler(w http.ResponseWriter, r *http.Request) {
	var req ProcessNavigationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	result, err := h.assistant.ProcessNavigation(r.Context(), req.SessionID, req.Language)
	if err != nil {
		h.writeVoiceError(w, req.Language, err)
		return
	}
	json.NewEncoder(w).Encode(result)
}

// writeVoiceError maps pipeline errors onto status codes and the localized
// user-facing notices.
func (h *APIHandler) writeVoiceError(w http.ResponseWriter, language string, err error) {
	switch {
	case errors.Is(err, core.ErrNoAudio), errors.Is(err, speech.ErrNoSpeechDetected):
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		json.NewEncoder(w).Encode(map[string]string{
			"error":   "no_speech",
			"message": core.NoSpeechMessage(language),
		})
	case errors.Is(err, speech.ErrTranscriptionFailed):
		log.Printf("Transcription failed: %v", err)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadGateway)
		json.NewEncoder(w).Encode(map[string]string{
			"error":   "transcription_failed",
			"message": core.ApologyMessage(language),
		})
	case errors.Is(err, core.ErrConversationNotFound):
		http.Error(w, "Conversation not found", http.StatusNotFound)
	default:
		log.Printf("Voice pipeline error: %v", err)
		http.Error(w, "Failed to process voice input", http.StatusInternalServerError)
	}
}

type TranscribeRequest struct {
	Audio    string `json:"audio"` // base64 encoded audio
	Language string `json:"language,omitempty"`
}

// TranscribeHandler runs speech-to-text over one uploaded blob, outside any
// recording session.
func (h *APIHandler) TranscribeHandler(w http.ResponseWriter, r *http.Request) {
	var req TranscribeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	audio, err := base64.StdEncoding.DecodeString(req.Audio)
	if err != nil || len(audio) == 0 {
		http.Error(w, "Audio must be non-empty base64", http.StatusBadRequest)
		return
	}

	transcription, err := h.assistant.Transcribe(r.Context(), audio, req.Language)
	if err != nil {
		h.writeVoiceError(w, req.Language, err)
		return
	}
	json.NewEncoder(w).Encode(transcription)
}

type SpeakRequest struct {
	Text    string `json:"text"`
	VoiceID string `json:"voice_id,omitempty"`
}

// SpeakHandler synthesizes arbitrary text and claims the playback slot.
func (h *APIHandler) SpeakHandler(w http.ResponseWriter, r *http.Request) {
	var req SpeakRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.Text == "" {
		http.Error(w, "Text cannot be empty", http.StatusBadRequest)
		return
	}

	clip, audioContent, err := h.assistant.Speak(r.Context(), req.Text, req.VoiceID)
	if err != nil {
		log.Printf("Error synthesizing speech: %v", err)
		http.Error(w, "Failed to synthesize speech", http.StatusBadGateway)
		return
	}

	json.NewEncoder(w).Encode(map[string]string{
		"clip_id":       clip.ID,
		"content_type":  clip.ContentType,
		"audio_content": audioContent,
	})
}

// StopPlaybackHandler releases the playback slot unconditionally.
func (h *APIHandler) StopPlaybackHandler(w http.ResponseWriter, r *http.Request) {
	h.assistant.StopPlayback()
	w.WriteHeader(http.StatusNoContent)
}

type CompletePlaybackRequest struct {
	ClipID string `json:"clip_id"`
}

// CompletePlaybackHandler marks a clip finished. Completions for displaced
// clips are ignored.
func (h *APIHandler) CompletePlaybackHandler(w http.ResponseWriter, r *http.Request) {
	var req CompletePlaybackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	h.assistant.CompletePlayback(req.ClipID)
	w.WriteHeader(http.StatusNoContent)
}

// PlaybackStatusHandler reports whether a clip holds the playback slot.
func (h *APIHandler) PlaybackStatusHandler(w http.ResponseWriter, r *http.Request) {
	json.NewEncoder(w).Encode(map[string]bool{"playing": h.assistant.Playing()})
}
