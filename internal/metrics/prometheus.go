// Package metrics registers the Prometheus instruments for the voice
// pipeline and the HTTP API.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds every instrument the service exports.
type Metrics struct {
	// Voice pipeline
	RecordingsStarted      prometheus.Counter
	RecordingsFinalized    prometheus.Counter
	TranscriptionRequests  prometheus.Counter
	TranscriptionFailures  prometheus.Counter
	NoSpeechDetected       prometheus.Counter
	GenerationRequests     *prometheus.CounterVec
	GenerationFailures     *prometheus.CounterVec
	SynthesisRequests      prometheus.Counter
	SynthesisFailures      prometheus.Counter
	PipelineDuration       prometheus.Histogram
	VoiceCommandsMatched   prometheus.Counter
	VoiceCommandsUnmatched prometheus.Counter

	// HTTP API
	HTTPRequests *prometheus.CounterVec
}

// New creates and registers all instruments on the default registry.
func New() *Metrics {
	return &Metrics{
		RecordingsStarted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "krishisakhi_recordings_started_total",
			Help: "Recording sessions started",
		}),
		RecordingsFinalized: promauto.NewCounter(prometheus.CounterOpts{
			Name: "krishisakhi_recordings_finalized_total",
			Help: "Recording sessions finalized into audio blobs",
		}),
		TranscriptionRequests: promauto.NewCounter(prometheus.CounterOpts{
			Name: "krishisakhi_transcription_requests_total",
			Help: "Speech-to-text requests issued",
		}),
		TranscriptionFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "krishisakhi_transcription_failures_total",
			Help: "Speech-to-text requests that failed",
		}),
		NoSpeechDetected: promauto.NewCounter(prometheus.CounterOpts{
			Name: "krishisakhi_no_speech_detected_total",
			Help: "Transcriptions that found no speech in the audio",
		}),
		GenerationRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "krishisakhi_generation_requests_total",
			Help: "Text-generation requests by provider",
		}, []string{"provider"}),
		GenerationFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "krishisakhi_generation_failures_total",
			Help: "Text-generation failures by provider (swallowed into apologies)",
		}, []string{"provider"}),
		SynthesisRequests: promauto.NewCounter(prometheus.CounterOpts{
			Name: "krishisakhi_synthesis_requests_total",
			Help: "Text-to-speech requests issued",
		}),
		SynthesisFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "krishisakhi_synthesis_failures_total",
			Help: "Text-to-speech requests that failed (logged only)",
		}),
		PipelineDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "krishisakhi_voice_pipeline_duration_seconds",
			Help:    "End-to-end voice pipeline duration",
			Buckets: prometheus.DefBuckets,
		}),
		VoiceCommandsMatched: promauto.NewCounter(prometheus.CounterOpts{
			Name: "krishisakhi_voice_commands_matched_total",
			Help: "Transcripts that matched a navigation command",
		}),
		VoiceCommandsUnmatched: promauto.NewCounter(prometheus.CounterOpts{
			Name: "krishisakhi_voice_commands_unmatched_total",
			Help: "Transcripts with no matching navigation command",
		}),
		HTTPRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "krishisakhi_http_requests_total",
			Help: "HTTP requests by route and status class",
		}, []string{"route", "status"}),
	}
}
