// Package speech holds the speech-to-text and text-to-speech clients plus
// the single-slot playback state shared by voice sessions.
package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"
)

var (
	// ErrTranscriptionFailed marks a transport error or non-2xx status from
	// the speech-to-text service.
	ErrTranscriptionFailed = errors.New("transcription failed")

	// ErrNoSpeechDetected means the service answered successfully but found
	// no words in the audio. Distinct from ErrTranscriptionFailed so the UI
	// can tell "service unreachable" from "silence recorded".
	ErrNoSpeechDetected = errors.New("no speech detected")
)

// Transcription is the recognized text for one audio blob.
type Transcription struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
}

// Transcriber submits audio blobs to a Whisper-style inference endpoint.
// One attempt per call; errors propagate to the caller for user-facing
// messaging.
type Transcriber struct {
	url    string
	token  string
	client *http.Client
}

func NewTranscriber(url, token string) *Transcriber {
	return &Transcriber{
		url:    url,
		token:  token,
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

// Transcribe uploads the audio blob and returns recognized text. The
// language hint is passed through when the service supports it.
func (t *Transcriber) Transcribe(ctx context.Context, audio []byte, languageHint string) (*Transcription, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile("file", "audio.webm")
	if err != nil {
		return nil, fmt.Errorf("creating form file: %w", err)
	}
	if _, err := io.Copy(part, bytes.NewReader(audio)); err != nil {
		return nil, fmt.Errorf("writing audio: %w", err)
	}
	if languageHint != "" {
		_ = writer.WriteField("language", languageHint)
	}
	writer.Close()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.url, body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+t.token)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("transcription request: %v: %w", err, ErrTranscriptionFailed)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, fmt.Errorf("transcription status %d: %s: %w", resp.StatusCode, respBody, ErrTranscriptionFailed)
	}

	var result struct {
		Text       string  `json:"text"`
		Confidence float64 `json:"confidence"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decoding transcription: %v: %w", err, ErrTranscriptionFailed)
	}

	text := strings.TrimSpace(result.Text)
	if text == "" {
		return nil, ErrNoSpeechDetected
	}
	return &Transcription{Text: text, Confidence: result.Confidence}, nil
}
