package core

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/krishisakhi/krishisakhi/internal/capture"
	"github.com/krishisakhi/krishisakhi/internal/metrics"
	"github.com/krishisakhi/krishisakhi/internal/nav"
	"github.com/krishisakhi/krishisakhi/internal/speech"
)

// AssistantService orchestrates the voice pipeline: finalize the recording,
// transcribe, run the conversation exchange, synthesize the reply and claim
// the playback slot. Navigation mode short-circuits after transcription and
// never touches the conversation engine.
//
// There is no retry anywhere in the chain; each vendor call gets one bounded
// attempt and failures follow the taxonomy: transcription errors surface to
// the caller, synthesis errors are logged and swallowed.
type AssistantService struct {
	capture      *capture.Manager
	transcriber  *speech.Transcriber
	conversation *ConversationService
	synthesizer  *speech.Synthesizer
	player       *speech.Player
	router       *nav.Router
	metrics      *metrics.Metrics

	// pipelineTimeout bounds the transcribe→generate→synthesize chain so a
	// hung vendor cannot hold the caller indefinitely.
	pipelineTimeout time.Duration
}

func NewAssistantService(cap *capture.Manager, t *speech.Transcriber, c *ConversationService, syn *speech.Synthesizer, p *speech.Player, r *nav.Router, m *metrics.Metrics) *AssistantService {
	return &AssistantService{
		capture:         cap,
		transcriber:     t,
		conversation:    c,
		synthesizer:     syn,
		player:          p,
		router:          r,
		metrics:         m,
		pipelineTimeout: 90 * time.Second,
	}
}

// ErrNoAudio is returned when a stopped session produced no audio blob.
var ErrNoAudio = errors.New("recording produced no audio")

// StartRecording acquires the capture device for the user.
func (s *AssistantService) StartRecording(userID int64) (*capture.Session, error) {
	session, err := s.capture.Start(userID)
	if err != nil {
		return nil, err
	}
	s.metrics.RecordingsStarted.Inc()
	return session, nil
}

// AppendChunk buffers one encoded audio chunk.
func (s *AssistantService) AppendChunk(sessionID string, chunk []byte) error {
	return s.capture.Append(sessionID, chunk)
}

// VoiceResult is the outcome of one full voice exchange.
type VoiceResult struct {
	Transcript     string  `json:"transcript"`
	Confidence     float64 `json:"confidence"`
	ConversationID string  `json:"conversation_id"`
	Reply          string  `json:"reply"`
	AudioContent   string  `json:"audio_content,omitempty"` // base64 MP3, empty when synthesis failed
	ClipID         string  `json:"clip_id,omitempty"`
	Degraded       bool    `json:"degraded,omitempty"`
}

// ProcessVoice runs record→transcribe→generate→synthesize for a finished
// recording session. Transcription failures (including silence) propagate;
// generation failures degrade to the apology; synthesis failures only cost
// the audio.
func (s *AssistantService) ProcessVoice(ctx context.Context, userID int64, sessionID, conversationID, pageContext, language string) (*VoiceResult, error) {
	start := time.Now()
	defer func() { s.metrics.PipelineDuration.Observe(time.Since(start).Seconds()) }()

	ctx, cancel := context.WithTimeout(ctx, s.pipelineTimeout)
	defer cancel()

	transcription, err := s.finalizeAndTranscribe(ctx, sessionID, language)
	if err != nil {
		return nil, err
	}

	sendRes, err := s.conversation.Send(ctx, conversationID, userID, transcription.Text, pageContext, language)
	if err != nil {
		return nil, err
	}

	result := &VoiceResult{
		Transcript:     transcription.Text,
		Confidence:     transcription.Confidence,
		ConversationID: sendRes.ConversationID,
		Reply:          sendRes.Assistant.Content,
		Degraded:       sendRes.Degraded,
	}

	// Voice feedback is supplementary: log and move on when it fails.
	s.metrics.SynthesisRequests.Inc()
	audio, err := s.synthesizer.Synthesize(ctx, result.Reply, "")
	if err != nil {
		s.metrics.SynthesisFailures.Inc()
		log.Printf("Synthesis failed for session %s: %v", sessionID, err)
		return result, nil
	}

	clip := s.player.Play(audio, "audio/mpeg")
	result.AudioContent = speech.EncodeAudio(audio)
	result.ClipID = clip.ID
	return result, nil
}

// NavigationResult is the outcome of a navigation-mode recording.
type NavigationResult struct {
	Transcript string `json:"transcript"`
	Route      string `json:"route,omitempty"`
	Matched    bool   `json:"matched"`
}

// ProcessNavigation transcribes a finished recording and matches it against
// the voice command table. No match is non-fatal: the caller takes no
// action.
func (s *AssistantService) ProcessNavigation(ctx context.Context, sessionID, language string) (*NavigationResult, error) {
	ctx, cancel := context.WithTimeout(ctx, s.pipelineTimeout)
	defer cancel()

	transcription, err := s.finalizeAndTranscribe(ctx, sessionID, language)
	if err != nil {
		return nil, err
	}

	result := &NavigationResult{Transcript: transcription.Text}
	route, err := s.router.Interpret(transcription.Text, language)
	if err != nil {
		s.metrics.VoiceCommandsUnmatched.Inc()
		log.Printf("No matching voice command for transcript %q", transcription.Text)
		return result, nil
	}

	s.metrics.VoiceCommandsMatched.Inc()
	result.Route = route
	result.Matched = true
	return result, nil
}

func (s *AssistantService) finalizeAndTranscribe(ctx context.Context, sessionID, language string) (*speech.Transcription, error) {
	blob, err := s.capture.Stop(sessionID)
	if err != nil {
		return nil, err
	}
	if blob == nil {
		return nil, ErrNoAudio
	}
	s.metrics.RecordingsFinalized.Inc()

	s.metrics.TranscriptionRequests.Inc()
	transcription, err := s.transcriber.Transcribe(ctx, blob, languageHint(language))
	if err != nil {
		if errors.Is(err, speech.ErrNoSpeechDetected) {
			s.metrics.NoSpeechDetected.Inc()
		} else {
			s.metrics.TranscriptionFailures.Inc()
		}
		return nil, err
	}
	return transcription, nil
}

// Transcribe runs speech-to-text over a raw audio blob outside any recording
// session.
func (s *AssistantService) Transcribe(ctx context.Context, audio []byte, language string) (*speech.Transcription, error) {
	s.metrics.TranscriptionRequests.Inc()
	transcription, err := s.transcriber.Transcribe(ctx, audio, languageHint(language))
	if err != nil {
		if errors.Is(err, speech.ErrNoSpeechDetected) {
			s.metrics.NoSpeechDetected.Inc()
		} else {
			s.metrics.TranscriptionFailures.Inc()
		}
		return nil, err
	}
	return transcription, nil
}

// languageHint maps app languages to STT language codes.
func languageHint(language string) string {
	if language == LangMalayalam {
		return "ml"
	}
	return "en"
}

// Speak synthesizes text and claims the playback slot, displacing any
// current clip.
func (s *AssistantService) Speak(ctx context.Context, text, voiceID string) (*speech.Clip, string, error) {
	s.metrics.SynthesisRequests.Inc()
	audio, err := s.synthesizer.Synthesize(ctx, text, voiceID)
	if err != nil {
		s.metrics.SynthesisFailures.Inc()
		return nil, "", fmt.Errorf("speak: %w", err)
	}
	clip := s.player.Play(audio, "audio/mpeg")
	return clip, speech.EncodeAudio(audio), nil
}

// StopPlayback releases the playback slot.
func (s *AssistantService) StopPlayback() {
	s.player.Stop()
}

// CompletePlayback marks a clip finished; stale completions are ignored.
func (s *AssistantService) CompletePlayback(clipID string) {
	s.player.Complete(clipID)
}

// Playing reports whether the playback slot is held.
func (s *AssistantService) Playing() bool {
	return s.player.Playing()
}
