package speech

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ErrSynthesisFailed marks any text-to-speech failure. Voice feedback is
// supplementary, so callers log it and carry on.
var ErrSynthesisFailed = errors.New("speech synthesis failed")

// Synthesizer submits text to an ElevenLabs-style endpoint and returns the
// synthesized audio bytes (MP3).
type Synthesizer struct {
	baseURL        string
	apiKey         string
	defaultVoiceID string
	client         *http.Client
}

func NewSynthesizer(baseURL, apiKey, defaultVoiceID string) *Synthesizer {
	return &Synthesizer{
		baseURL:        baseURL,
		apiKey:         apiKey,
		defaultVoiceID: defaultVoiceID,
		client:         &http.Client{Timeout: 30 * time.Second},
	}
}

type synthesizeRequest struct {
	Text          string `json:"text"`
	ModelID       string `json:"model_id"`
	VoiceSettings struct {
		Stability       float64 `json:"stability"`
		SimilarityBoost float64 `json:"similarity_boost"`
	} `json:"voice_settings"`
}

// Synthesize converts text into audio with the given voice. An empty voiceID
// selects the default voice.
func (s *Synthesizer) Synthesize(ctx context.Context, text, voiceID string) ([]byte, error) {
	if text == "" {
		return nil, fmt.Errorf("empty text: %w", ErrSynthesisFailed)
	}
	if voiceID == "" {
		voiceID = s.defaultVoiceID
	}

	reqBody := synthesizeRequest{Text: text, ModelID: "eleven_multilingual_v2"}
	reqBody.VoiceSettings.Stability = 0.5
	reqBody.VoiceSettings.SimilarityBoost = 0.75

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshalling synthesis request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/"+voiceID, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("creating synthesis request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "audio/mpeg")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("synthesis request: %v: %w", err, ErrSynthesisFailed)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, fmt.Errorf("synthesis status %d: %s: %w", resp.StatusCode, respBody, ErrSynthesisFailed)
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading synthesis audio: %v: %w", err, ErrSynthesisFailed)
	}
	if len(audio) == 0 {
		return nil, fmt.Errorf("empty synthesis audio: %w", ErrSynthesisFailed)
	}
	return audio, nil
}

// EncodeAudio base64-encodes audio bytes for JSON transport.
func EncodeAudio(audio []byte) string {
	return base64.StdEncoding.EncodeToString(audio)
}
