package app

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	httpserver "github.com/fairyhunter13/ai-interview-coach/internal/adapter/httpserver"
	"github.com/fairyhunter13/ai-interview-coach/internal/adapter/observability"
	"github.com/fairyhunter13/ai-interview-coach/internal/config"
)

// ParseOrigins splits a comma-separated origin list into a slice, trimming spaces.
// If the input is empty, returns ["*"].
func ParseOrigins(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" || s == "*" {
		return []string{"*"}
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}

func requestTimeout(cfg config.Config) time.Duration {
	if cfg.RequestTimeout > 0 {
		return cfg.RequestTimeout
	}
	return 75 * time.Second
}

// ipLimiter throttles mutating routes per client IP.
func ipLimiter(cfg config.Config) func(http.Handler) http.Handler {
	perMin := cfg.RateLimitPerMin
	if perMin <= 0 {
		perMin = 30
	}
	return httprate.Limit(perMin, time.Minute,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(httpserver.RateLimitExceeded),
	)
}

// BuildRouter constructs the HTTP handler with all middlewares and routes.
func BuildRouter(cfg config.Config, srv *httpserver.Server, auth *httpserver.Authenticator) http.Handler {
	r := chi.NewRouter()
	r.Use(httpserver.Recoverer())
	r.Use(httpserver.RequestID())
	r.Use(httpserver.TraceMiddleware)
	r.Use(httpserver.AccessLog())
	r.Use(observability.HTTPMetricsMiddleware)

	// Credentials are allowed so the browser sends the jwt cookie; a
	// wildcard origin cannot be combined with them.
	origins := ParseOrigins(cfg.CORSAllowOrigins)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"X-Request-Id", "Retry-After"},
		AllowCredentials: !(len(origins) == 1 && origins[0] == "*"),
		MaxAge:           300,
	}))

	limit := ipLimiter(cfg)
	r.Group(func(api chi.Router) {
		api.Use(httpserver.TimeoutMiddleware(requestTimeout(cfg)))

		// Public quiz endpoints.
		api.Get("/v1/daily-questions", srv.TodayQuestionsHandler())
		api.Get("/v1/daily-questions/subject/{subject}", srv.SubjectQuestionsHandler())
		api.With(limit).Post("/v1/daily-questions", srv.GenerateQuestionsHandler())

		api.Group(func(pr chi.Router) {
			pr.Use(auth.Middleware)

			pr.Route("/v1/interview", func(ir chi.Router) {
				ir.With(limit).Post("/sessions", srv.StartInterviewHandler())
				ir.With(limit).Patch("/sessions/{id}", srv.RespondHandler())
				ir.Get("/sessions/{id}", srv.GetInterviewHandler())
				ir.Delete("/sessions/{id}", srv.DeleteInterviewHandler())
				ir.Get("/sessions/{id}/conversation", srv.ConversationHandler())
				ir.With(limit).Patch("/sessions/{id}/end", srv.EndInterviewHandler())
				ir.Get("/sessions/{id}/feedback", srv.FeedbackHandler())
				ir.Patch("/sessions/{id}/feedback", srv.UpdateFeedbackHandler())
				ir.Get("/history", srv.InterviewHistoryHandler())
				ir.Get("/recent", srv.RecentInterviewsHandler())
				ir.Get("/stats", srv.InterviewStatsHandler())
				ir.With(limit).Post("/voice-to-text", srv.VoiceToTextHandler())
				ir.With(limit).Post("/text-to-speech", srv.TextToSpeechHandler())
			})

			pr.With(limit).Post("/v1/daily-questions/submit", srv.SubmitQuizHandler())
			pr.Get("/v1/daily-questions/history", srv.QuizHistoryHandler())
			pr.Get("/v1/daily-questions/stats", srv.QuizStatsHandler())

			pr.Route("/v1/user", func(ur chi.Router) {
				ur.Get("/streak", srv.GetStreakHandler())
				ur.Patch("/streak", srv.UpdateStreakHandler())
				ur.Get("/resume", srv.GetResumeHandler())
				ur.Delete("/resume", srv.DeleteResumeHandler())
			})

			pr.Route("/v1/assistant", func(ar chi.Router) {
				ar.With(limit).Post("/chat", srv.AssistantChatHandler())
				ar.Get("/history", srv.AssistantHistoryHandler())
				ar.Get("/session/{id}", srv.AssistantSessionHandler())
				ar.Delete("/session/{id}", srv.DeleteAssistantSessionHandler())
				ar.With(limit).Post("/resume", srv.ResumeReviewHandler())
				ar.Get("/resume", srv.LatestResumeHandler())
			})
		})
	})

	// Health and metrics
	r.Get("/healthz", srv.HealthzHandler())
	r.Get("/readyz", srv.ReadyzHandler())
	r.Handle("/metrics", promhttp.Handler())

	return httpserver.SecurityHeaders(r)
}
