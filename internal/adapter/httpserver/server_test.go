package httpserver_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/fairyhunter13/ai-interview-coach/internal/adapter/ai/stub"
	httpserver "github.com/fairyhunter13/ai-interview-coach/internal/adapter/httpserver"
	"github.com/fairyhunter13/ai-interview-coach/internal/adapter/repo/memory"
	"github.com/fairyhunter13/ai-interview-coach/internal/config"
	"github.com/fairyhunter13/ai-interview-coach/internal/domain"
	"github.com/fairyhunter13/ai-interview-coach/internal/usecase"
)

const testSecret = "test-secret"

var ana = domain.User{ID: "u-ana", Name: "Ana"}

type harness struct {
	handler    http.Handler
	users      *memory.Users
	interviews *memory.Interviews
	questions  *memory.Questions
}

type denyLimiter struct{ retry time.Duration }

func (l denyLimiter) Allow(context.Context, string, string) (bool, time.Duration, error) {
	return false, l.retry, nil
}

// newHarness wires the real use cases over in-memory repositories and the
// stub model. lim may be nil.
func newHarness(t *testing.T, lim domain.RateLimiter) *harness {
	t.Helper()
	catalog, err := config.LoadCatalog("")
	require.NoError(t, err)

	h := &harness{
		users:      memory.NewUsers(ana, domain.User{ID: "u-bob", Name: "Bob"}),
		interviews: memory.NewInterviews(),
		questions:  memory.NewQuestions(),
	}
	ai := stub.New()
	docs := usecase.NewDocumentReader(nil, 1<<20)
	history := usecase.DefaultHistoryPolicy()
	cfg := config.Config{
		MaxUploadMB:   1,
		MaxAudioMB:    1,
		DailySubjects: []string{"Data Structures"},
	}
	srv := httpserver.NewServer(cfg, httpserver.Services{
		Interviews: usecase.NewInterviewService(h.interviews, ai, lim, history),
		Assistant:  usecase.NewAssistantService(memory.NewChats(), ai, lim, catalog, history),
		Questions:  usecase.NewQuestionService(h.questions, ai),
		Quiz:       usecase.NewQuizService(h.questions, memory.NewQuizzes(), h.users),
		Resumes:    usecase.NewResumeService(memory.NewResumes(), h.users, ai, lim, docs),
		Audio:      usecase.NewAudioService(ai, lim, 1<<20, "Aaliyah-PlayAI"),
		Documents:  docs,
	}, nil, nil, nil)
	auth := httpserver.NewAuthenticator(testSecret, "jwt", h.users)

	r := chi.NewRouter()
	r.Use(httpserver.RequestID())
	r.Get("/v1/daily-questions", srv.TodayQuestionsHandler())
	r.Get("/v1/daily-questions/subject/{subject}", srv.SubjectQuestionsHandler())
	r.Post("/v1/daily-questions", srv.GenerateQuestionsHandler())
	r.Group(func(pr chi.Router) {
		pr.Use(auth.Middleware)
		pr.Post("/v1/interview/sessions", srv.StartInterviewHandler())
		pr.Patch("/v1/interview/sessions/{id}", srv.RespondHandler())
		pr.Get("/v1/interview/sessions/{id}", srv.GetInterviewHandler())
		pr.Delete("/v1/interview/sessions/{id}", srv.DeleteInterviewHandler())
		pr.Get("/v1/interview/sessions/{id}/conversation", srv.ConversationHandler())
		pr.Patch("/v1/interview/sessions/{id}/end", srv.EndInterviewHandler())
		pr.Get("/v1/interview/sessions/{id}/feedback", srv.FeedbackHandler())
		pr.Patch("/v1/interview/sessions/{id}/feedback", srv.UpdateFeedbackHandler())
		pr.Get("/v1/interview/history", srv.InterviewHistoryHandler())
		pr.Get("/v1/interview/recent", srv.RecentInterviewsHandler())
		pr.Get("/v1/interview/stats", srv.InterviewStatsHandler())
		pr.Post("/v1/interview/voice-to-text", srv.VoiceToTextHandler())
		pr.Post("/v1/interview/text-to-speech", srv.TextToSpeechHandler())
		pr.Post("/v1/assistant/chat", srv.AssistantChatHandler())
		pr.Get("/v1/assistant/history", srv.AssistantHistoryHandler())
		pr.Get("/v1/assistant/session/{id}", srv.AssistantSessionHandler())
		pr.Delete("/v1/assistant/session/{id}", srv.DeleteAssistantSessionHandler())
		pr.Post("/v1/assistant/resume", srv.ResumeReviewHandler())
		pr.Get("/v1/assistant/resume", srv.LatestResumeHandler())
		pr.Post("/v1/daily-questions/submit", srv.SubmitQuizHandler())
		pr.Get("/v1/daily-questions/history", srv.QuizHistoryHandler())
		pr.Get("/v1/daily-questions/stats", srv.QuizStatsHandler())
		pr.Get("/v1/user/streak", srv.GetStreakHandler())
		pr.Patch("/v1/user/streak", srv.UpdateStreakHandler())
		pr.Get("/v1/user/resume", srv.GetResumeHandler())
		pr.Delete("/v1/user/resume", srv.DeleteResumeHandler())
	})
	h.handler = r
	return h
}

func signToken(t *testing.T, userID string, exp time.Time) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"userId": userID,
		"exp":    exp.Unix(),
	})
	s, err := tok.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return s
}

// do sends a request as userID. An empty userID sends no token.
func (h *harness) do(t *testing.T, method, path, userID string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if userID != "" {
		req.Header.Set("Authorization", "Bearer "+signToken(t, userID, time.Now().Add(time.Hour)))
	}
	rec := httptest.NewRecorder()
	h.handler.ServeHTTP(rec, req)
	return rec
}

func (h *harness) doJSON(t *testing.T, method, path, userID, body string) *httptest.ResponseRecorder {
	t.Helper()
	return h.do(t, method, path, userID, strings.NewReader(body), "application/json")
}

// multipartBody builds a form with one file field and optional text fields.
func multipartBody(t *testing.T, field, filename string, data []byte, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if field != "" {
		fw, err := mw.CreateFormFile(field, filename)
		require.NoError(t, err)
		_, err = fw.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

type envelope struct {
	Error struct {
		Code    string          `json:"code"`
		Message string          `json:"message"`
		Details json.RawMessage `json:"details"`
	} `json:"error"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return env
}

func decodeMap(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &m), rec.Body.String())
	return m
}
