package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/krishisakhi/krishisakhi/internal/metrics"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func NewRouter(apiHandler *APIHandler, m *metrics.Metrics) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.StripSlashes)
	r.Use(countRequests(m))

	r.Get("/api/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Post("/api/signup", apiHandler.SignupHandler)
	r.Post("/api/login", apiHandler.LoginHandler)

	r.Group(func(r chi.Router) {
		r.Use(apiHandler.JWTAuthMiddleware)

		// Conversations
		r.Post("/api/chats", apiHandler.SendMessageHandler)
		r.Get("/api/chats", apiHandler.ListConversationsHandler)
		r.Get("/api/chats/{conversationID}", apiHandler.GetConversationHandler)

		// Voice sessions
		r.Post("/api/voice/sessions", apiHandler.StartRecordingHandler)
		r.Post("/api/voice/chunks", apiHandler.AppendChunkHandler)
		r.Post("/api/voice/process", apiHandler.ProcessVoiceHandler)
		r.Post("/api/voice/navigate", apiHandler.ProcessNavigationHandler)

		// Speech and playback
		r.Post("/api/speech/transcribe", apiHandler.TranscribeHandler)
		r.Post("/api/speech/speak", apiHandler.SpeakHandler)
		r.Get("/api/speech/playback", apiHandler.PlaybackStatusHandler)
		r.Post("/api/speech/playback/stop", apiHandler.StopPlaybackHandler)
		r.Post("/api/speech/playback/complete", apiHandler.CompletePlaybackHandler)

		// Weather and crop planning
		r.Get("/api/weather", apiHandler.WeatherHandler)
		r.Post("/api/crops/recommend", apiHandler.RecommendCropsHandler)

		// Farm diary
		r.Post("/api/diary/entries", apiHandler.AddDiaryEntryHandler)
		r.Get("/api/diary/entries", apiHandler.ListDiaryEntriesHandler)
		r.Get("/api/diary/reminders", apiHandler.ListRemindersHandler)
		r.Post("/api/diary/reminders/{reminderID}/complete", apiHandler.CompleteReminderHandler)
		r.Get("/api/farm/progress", apiHandler.FarmProgressHandler)

		// Farmer groups
		r.Get("/api/groups", apiHandler.ListFarmerGroupsHandler)
		r.Post("/api/groups/{groupID}/join", apiHandler.JoinFarmerGroupHandler)
		r.Post("/api/groups/{groupID}/leave", apiHandler.LeaveFarmerGroupHandler)
	})

	return r
}

// countRequests increments the per-route request counter after the handler
// ran, using the chi route pattern so IDs don't explode the label space.
func countRequests(m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			route := chi.RouteContext(r.Context()).RoutePattern()
			if route == "" {
				route = "unmatched"
			}
			m.HTTPRequests.WithLabelValues(route, strconv.Itoa(ww.Status())).Inc()
		})
	}
}
