package observability

import (
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"route", "method", "status"},
	)
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"route", "method"},
	)

	AIRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ai_requests_total",
			Help: "Total number of AI requests by provider, operation and outcome",
		},
		[]string{"provider", "operation", "status"},
	)
	AIRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ai_request_duration_seconds",
			Help:    "AI request duration in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 20, 40},
		},
		[]string{"provider", "operation"},
	)
	AICircuitState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "ai_circuit_state",
			Help: "Circuit breaker state per model (0 closed, 1 open, 2 half-open)",
		},
		[]string{"model"},
	)

	// Completion parsing outcomes
	LLMRecordsExtractedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "llm_records_extracted_total",
			Help: "JSON records extracted from completions by operation and phase",
		},
		[]string{"operation", "phase"},
	)
	LLMExtractionEmptyTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "llm_extraction_empty_total",
			Help: "Completions that yielded no JSON record",
		},
		[]string{"operation"},
	)

	InterviewsStartedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "interviews_started_total",
			Help: "Total number of interviews started",
		},
		[]string{"domain"},
	)
	InterviewsCompletedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "interviews_completed_total",
			Help: "Total number of interviews ended",
		},
		[]string{"domain"},
	)
	InterviewScoreHistogram = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "interview_overall_score",
			Help:    "Distribution of interview overall_score ([0,100])",
			Buckets: []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100},
		},
	)
	ExternalRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "external_requests_total",
			Help: "Calls to non-AI dependencies such as Tika",
		},
		[]string{"service", "operation", "status"},
	)
	ExternalRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "external_request_duration_seconds",
			Help:    "Duration of calls to non-AI dependencies",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		},
		[]string{"service", "operation"},
	)
	QuizSubmissionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quiz_submissions_total",
			Help: "Graded daily quiz submissions",
		},
		[]string{"subject", "grade"},
	)
	RateLimitDeniedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "user_rate_limit_denied_total",
			Help: "Requests denied by the per-user LLM limiter",
		},
		[]string{"family"},
	)
)

var initOnce sync.Once

// InitMetrics registers all collectors with the default registry once per process.
func InitMetrics() {
	initOnce.Do(func() {
		prometheus.MustRegister(
			HTTPRequestsTotal,
			HTTPRequestDuration,
			AIRequestsTotal,
			AIRequestDuration,
			AICircuitState,
			LLMRecordsExtractedTotal,
			LLMExtractionEmptyTotal,
			InterviewsStartedTotal,
			InterviewsCompletedTotal,
			InterviewScoreHistogram,
			ExternalRequestsTotal,
			ExternalRequestDuration,
			QuizSubmissionsTotal,
			RateLimitDeniedTotal,
		)
	})
}

// HTTPMetricsMiddleware records Prometheus metrics for each request.
func HTTPMetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		dur := time.Since(start).Seconds()
		// Route pattern may be unavailable outside chi router; guard nil
		var route string
		if rc := chi.RouteContext(r.Context()); rc != nil {
			route = rc.RoutePattern()
		}
		if route == "" {
			route = r.URL.Path
		}
		HTTPRequestsTotal.WithLabelValues(route, r.Method, http.StatusText(ww.Status())).Inc()
		HTTPRequestDuration.WithLabelValues(route, r.Method).Observe(dur)
	})
}

// ObserveAIRequest records one provider call.
func ObserveAIRequest(provider, operation, status string, d time.Duration) {
	AIRequestsTotal.WithLabelValues(provider, operation, status).Inc()
	AIRequestDuration.WithLabelValues(provider, operation).Observe(d.Seconds())
}

// ObserveExternalRequest records one call to a non-AI dependency.
func ObserveExternalRequest(service, operation, status string, d time.Duration) {
	ExternalRequestsTotal.WithLabelValues(service, operation, status).Inc()
	ExternalRequestDuration.WithLabelValues(service, operation).Observe(d.Seconds())
}

// SetCircuitState publishes the breaker state for a model.
func SetCircuitState(model string, state int) {
	AICircuitState.WithLabelValues(model).Set(float64(state))
}

// RecordExtraction counts records parsed from a completion.
func RecordExtraction(operation, phase string, n int) {
	if n == 0 {
		LLMExtractionEmptyTotal.WithLabelValues(operation).Inc()
		return
	}
	LLMRecordsExtractedTotal.WithLabelValues(operation, phase).Add(float64(n))
}

func InterviewStarted(domain string) {
	InterviewsStartedTotal.WithLabelValues(domain).Inc()
}

// InterviewCompleted counts an ended interview and its score when known.
func InterviewCompleted(domain string, score *float64) {
	InterviewsCompletedTotal.WithLabelValues(domain).Inc()
	if score != nil && *score >= 0 && *score <= 100 {
		InterviewScoreHistogram.Observe(*score)
	}
}

func RateLimitDenied(family string) {
	RateLimitDeniedTotal.WithLabelValues(family).Inc()
}

func QuizSubmitted(subject, grade string) {
	QuizSubmissionsTotal.WithLabelValues(subject, grade).Inc()
}
