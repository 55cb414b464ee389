package speech

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTranscribe(t *testing.T) {
	var gotAuth, gotLanguage string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, r.ParseMultipartForm(1<<20))
		gotLanguage = r.FormValue("language")

		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		assert.Equal(t, "audio.webm", header.Filename)

		w.Write([]byte(`{"text": "  എന്റെ നെല്ലിന് എന്ത് വളം നൽകണം  ", "confidence": 0.92}`))
	}))
	defer server.Close()

	tr := NewTranscriber(server.URL, "test-token")
	result, err := tr.Transcribe(context.Background(), []byte("fake-audio"), "ml")
	require.NoError(t, err)

	assert.Equal(t, "Bearer test-token", gotAuth)
	assert.Equal(t, "ml", gotLanguage)
	assert.Equal(t, "എന്റെ നെല്ലിന് എന്ത് വളം നൽകണം", result.Text)
	assert.Equal(t, 0.92, result.Confidence)
}

func TestTranscribeNoSpeech(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"text": "   "}`))
	}))
	defer server.Close()

	tr := NewTranscriber(server.URL, "test-token")
	_, err := tr.Transcribe(context.Background(), []byte("silence"), "en")
	assert.ErrorIs(t, err, ErrNoSpeechDetected)
	assert.NotErrorIs(t, err, ErrTranscriptionFailed)
}

func TestTranscribeServiceError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model loading", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	tr := NewTranscriber(server.URL, "test-token")
	_, err := tr.Transcribe(context.Background(), []byte("fake-audio"), "en")
	assert.ErrorIs(t, err, ErrTranscriptionFailed)
}

func TestTranscribeUnreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // refuse connections

	tr := NewTranscriber(server.URL, "test-token")
	_, err := tr.Transcribe(context.Background(), []byte("fake-audio"), "en")
	assert.ErrorIs(t, err, ErrTranscriptionFailed)
}
