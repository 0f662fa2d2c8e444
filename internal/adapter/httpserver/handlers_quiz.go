package httpserver

import (
	"fmt"
	"net/http"

	"github.com/fairyhunter13/ai-interview-coach/internal/domain"
	"github.com/fairyhunter13/ai-interview-coach/internal/usecase"
)

type quizAnswerRequest struct {
	QuestionID     string `json:"question_id" validate:"required,max=64"`
	SelectedOption *int   `json:"selected_option" validate:"required,min=0,max=3"`
}

type submitQuizRequest struct {
	Subject          string              `json:"subject" validate:"required,max=80"`
	Answers          []quizAnswerRequest `json:"answers" validate:"required,min=1,max=50,dive"`
	TimeTakenSeconds int                 `json:"time_taken_seconds" validate:"min=0,max=86400"`
}

// SubmitQuizHandler grades a daily quiz submission.
func (s *Server) SubmitQuizHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := currentUser(w, r)
		if !ok {
			return
		}
		var req submitQuizRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		subject := SanitizeString(req.Subject)
		if vr := ValidateSubject(subject); !vr.Valid {
			writeError(w, r, fmt.Errorf("%w: invalid subject", domain.ErrInvalidArgument), vr.Errors)
			return
		}
		answers := make([]domain.QuizAnswer, 0, len(req.Answers))
		for _, a := range req.Answers {
			answers = append(answers, domain.QuizAnswer{QuestionID: a.QuestionID, SelectedOption: *a.SelectedOption})
		}
		res, err := s.Quiz.Submit(r.Context(), user, usecase.SubmitQuizInput{
			Subject:          subject,
			Answers:          answers,
			TimeTakenSeconds: req.TimeTakenSeconds,
		})
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"attempt": newQuizAttemptView(res.Attempt),
			"streak":  res.Streak,
		})
	}
}

// QuizHistoryHandler lists the caller's graded attempts, optionally for ?subject=.
func (s *Server) QuizHistoryHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := currentUser(w, r)
		if !ok {
			return
		}
		subject := SanitizeString(r.URL.Query().Get("subject"))
		if subject != "" {
			if vr := ValidateSubject(subject); !vr.Valid {
				writeError(w, r, fmt.Errorf("%w: invalid subject", domain.ErrInvalidArgument), vr.Errors)
				return
			}
		}
		limit, _, vr := ValidatePagination(r.URL.Query().Get("limit"), "")
		if !vr.Valid {
			writeError(w, r, fmt.Errorf("%w: invalid pagination", domain.ErrInvalidArgument), vr.Errors)
			return
		}
		list, err := s.Quiz.History(r.Context(), user, subject, limit)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"attempts": quizAttemptViews(list)})
	}
}

// QuizStatsHandler aggregates the caller's quiz history.
func (s *Server) QuizStatsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := currentUser(w, r)
		if !ok {
			return
		}
		st, err := s.Quiz.Stats(r.Context(), user)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		writeJSON(w, http.StatusOK, st)
	}
}

// GetStreakHandler returns the caller's activity streak.
func (s *Server) GetStreakHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := currentUser(w, r)
		if !ok {
			return
		}
		st, err := s.Quiz.Streak(r.Context(), user)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		writeJSON(w, http.StatusOK, st)
	}
}

// UpdateStreakHandler records activity for the caller now.
func (s *Server) UpdateStreakHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := currentUser(w, r)
		if !ok {
			return
		}
		st, err := s.Quiz.RecordActivity(r.Context(), user)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		writeJSON(w, http.StatusOK, st)
	}
}

// GetResumeHandler returns the resume text stored on the caller.
func (s *Server) GetResumeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := currentUser(w, r)
		if !ok {
			return
		}
		text, err := s.Resumes.StoredText(r.Context(), user)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"resume_text": text})
	}
}

// DeleteResumeHandler forgets the caller's stored resume text.
func (s *Server) DeleteResumeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := currentUser(w, r)
		if !ok {
			return
		}
		if err := s.Resumes.ClearText(r.Context(), user); err != nil {
			writeError(w, r, err, nil)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
