package observability

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestHTTPMetricsMiddleware_Basic(t *testing.T) {
	rec := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/x", nil)
	mw := HTTPMetricsMiddleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNoContent) }))
	before := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("/x", http.MethodGet, "No Content"))
	mw.ServeHTTP(rec, r)
	assert.Equal(t, http.StatusNoContent, rec.Result().StatusCode)
	assert.InDelta(t, before+1, testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("/x", http.MethodGet, "No Content")), 1e-9)
}

func TestInitMetrics_Idempotent(t *testing.T) {
	assert.NotPanics(t, func() {
		InitMetrics()
		InitMetrics()
	})
}

func TestRecordExtraction(t *testing.T) {
	emptyBefore := testutil.ToFloat64(LLMExtractionEmptyTotal.WithLabelValues("feedback_test"))
	RecordExtraction("feedback_test", "none", 0)
	assert.InDelta(t, emptyBefore+1, testutil.ToFloat64(LLMExtractionEmptyTotal.WithLabelValues("feedback_test")), 1e-9)

	before := testutil.ToFloat64(LLMRecordsExtractedTotal.WithLabelValues("questions_test", "scan"))
	RecordExtraction("questions_test", "scan", 3)
	assert.InDelta(t, before+3, testutil.ToFloat64(LLMRecordsExtractedTotal.WithLabelValues("questions_test", "scan")), 1e-9)
}

func TestDomainMetricHelpers(t *testing.T) {
	score := 72.0
	out := 140.0
	assert.NotPanics(t, func() {
		ObserveAIRequest("groq", "chat", "success", 150*time.Millisecond)
		SetCircuitState("m", 1)
		InterviewStarted("hr")
		InterviewCompleted("hr", &score)
		InterviewCompleted("hr", &out)
		InterviewCompleted("hr", nil)
		RateLimitDenied("interview")
		QuizSubmitted("OS", "A+")
	})
	assert.InDelta(t, 1, testutil.ToFloat64(AICircuitState.WithLabelValues("m")), 1e-9)
	assert.GreaterOrEqual(t, testutil.ToFloat64(QuizSubmissionsTotal.WithLabelValues("OS", "A+")), 1.0)
}
