package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/fairyhunter13/ai-interview-coach/internal/config"
	"github.com/fairyhunter13/ai-interview-coach/internal/domain"
	"github.com/fairyhunter13/ai-interview-coach/internal/usecase"
)

// Services groups the use cases served over HTTP.
type Services struct {
	Interviews *usecase.InterviewService
	Assistant  *usecase.AssistantService
	Questions  *usecase.QuestionService
	Quiz       *usecase.QuizService
	Resumes    *usecase.ResumeService
	Audio      *usecase.AudioService
	Documents  *usecase.DocumentReader
}

// Server aggregates handlers dependencies.
type Server struct {
	Cfg config.Config
	Services
	DBCheck    func(ctx context.Context) error
	RedisCheck func(ctx context.Context) error
	TikaCheck  func(ctx context.Context) error
}

// NewServer constructs an HTTP server with all handlers and checks wired.
func NewServer(cfg config.Config, svc Services, dbCheck, redisCheck, tikaCheck func(context.Context) error) *Server {
	return &Server{Cfg: cfg, Services: svc, DBCheck: dbCheck, RedisCheck: redisCheck, TikaCheck: tikaCheck}
}

const maxJSONBody = 1 << 20

var errPayloadTooLarge = errors.New("payload too large")

// decodeJSON reads a capped JSON body into v and validates it.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			writeTooLarge(w, maxJSONBody>>20)
			return false
		}
		writeError(w, r, fmt.Errorf("%w: invalid json", domain.ErrInvalidArgument), nil)
		return false
	}
	if err := getValidator().Struct(v); err != nil {
		writeError(w, r, fmt.Errorf("%w: validation failed", domain.ErrInvalidArgument), validationDetails(err))
		return false
	}
	return true
}

func isMultipart(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data")
}

// readFormFile parses a multipart body and returns one file field. A missing
// optional field returns empty values and no error.
func readFormFile(w http.ResponseWriter, r *http.Request, field string, maxBytes int64, required bool) (string, []byte, error) {
	if !isMultipart(r) {
		return "", nil, fmt.Errorf("%w: content-type must be multipart/form-data", domain.ErrInvalidArgument)
	}
	// Leave room for the other form fields and part headers.
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes+64<<10)
	if err := r.ParseMultipartForm(maxBytes); err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			return "", nil, errPayloadTooLarge
		}
		return "", nil, fmt.Errorf("%w: %v", domain.ErrInvalidArgument, err)
	}
	f, h, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) && !required {
		return "", nil, nil
	}
	if err != nil {
		return "", nil, fmt.Errorf("%w: %s file required", domain.ErrInvalidArgument, field)
	}
	defer func() { _ = f.Close() }()
	data, err := io.ReadAll(io.LimitReader(f, maxBytes+1))
	if err != nil {
		return "", nil, fmt.Errorf("%w: %s read: %v", domain.ErrInvalidArgument, field, err)
	}
	if int64(len(data)) > maxBytes {
		return "", nil, errPayloadTooLarge
	}
	return h.Filename, data, nil
}

func writeTooLarge(w http.ResponseWriter, maxMB int64) {
	writeJSON(w, http.StatusRequestEntityTooLarge, errorEnvelope{Error: apiError{
		Code:    "INVALID_ARGUMENT",
		Message: "payload too large",
		Details: map[string]any{"max_mb": maxMB},
	}})
}

func writeUploadError(w http.ResponseWriter, r *http.Request, err error, maxMB int64) {
	if errors.Is(err, errPayloadTooLarge) {
		writeTooLarge(w, maxMB)
		return
	}
	writeError(w, r, err, nil)
}

// currentUser returns the caller set by the auth middleware.
func currentUser(w http.ResponseWriter, r *http.Request) (domain.User, bool) {
	u, ok := UserFrom(r.Context())
	if !ok {
		writeError(w, r, errAuthRequired, nil)
	}
	return u, ok
}

func megabytes(mb int64) int64 { return mb << 20 }

// ReadyzHandler returns a readiness handler that probes DB, Redis and Tika.
func (s *Server) ReadyzHandler() http.HandlerFunc {
	type check struct {
		Name    string `json:"name"`
		OK      bool   `json:"ok"`
		Details string `json:"details,omitempty"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		probes := []struct {
			name string
			fn   func(context.Context) error
		}{
			{"db", s.DBCheck},
			{"redis", s.RedisCheck},
			{"tika", s.TikaCheck},
		}
		checks := make([]check, 0, len(probes))
		ok := true
		for _, p := range probes {
			if p.fn == nil {
				continue
			}
			if err := p.fn(ctx); err != nil {
				ok = false
				checks = append(checks, check{Name: p.name, OK: false, Details: err.Error()})
				continue
			}
			checks = append(checks, check{Name: p.name, OK: true})
		}
		st := http.StatusOK
		if !ok {
			st = http.StatusServiceUnavailable
		}
		writeJSON(w, st, map[string]any{"checks": checks})
	}
}

// HealthzHandler reports liveness.
func (s *Server) HealthzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
