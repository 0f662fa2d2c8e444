package httpserver

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/fairyhunter13/ai-interview-coach/internal/domain"
)

type generateRequest struct {
	Subjects []string `json:"subjects" validate:"omitempty,max=20,dive,required,max=80"`
}

// GenerateQuestionsHandler generates today's quiz. An empty body uses the
// configured subjects.
func (s *Server) GenerateQuestionsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req generateRequest
		if r.ContentLength != 0 && !decodeJSON(w, r, &req) {
			return
		}
		subjects := req.Subjects
		if len(subjects) == 0 {
			subjects = s.Cfg.DailySubjects
		}
		res, err := s.Questions.Generate(r.Context(), subjects)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{
			"date":      res.Date,
			"generated": res.Generated,
			"inserted":  res.Inserted,
			"questions": questionViews(res.Questions),
		})
	}
}

// TodayQuestionsHandler returns today's quiz, optionally for ?subject=.
func (s *Server) TodayQuestionsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		subject := SanitizeString(r.URL.Query().Get("subject"))
		if subject != "" {
			if vr := ValidateSubject(subject); !vr.Valid {
				writeError(w, r, fmt.Errorf("%w: invalid subject", domain.ErrInvalidArgument), vr.Errors)
				return
			}
		}
		qs, err := s.Questions.Today(r.Context(), subject)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"questions": questionViews(qs)})
	}
}

// SubjectQuestionsHandler returns the newest questions for a subject.
func (s *Server) SubjectQuestionsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		subject := SanitizeString(chi.URLParam(r, "subject"))
		if vr := ValidateSubject(subject); !vr.Valid {
			writeError(w, r, fmt.Errorf("%w: invalid subject", domain.ErrInvalidArgument), vr.Errors)
			return
		}
		limit := 0
		if v := r.URL.Query().Get("limit"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 1 || n > maxPageLimit {
				writeError(w, r, fmt.Errorf("%w: limit must be between 1 and %d", domain.ErrInvalidArgument, maxPageLimit), nil)
				return
			}
			limit = n
		}
		qs, err := s.Questions.BySubject(r.Context(), subject, limit)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"subject": subject, "questions": questionViews(qs)})
	}
}
