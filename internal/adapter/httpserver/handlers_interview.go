package httpserver

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/fairyhunter13/ai-interview-coach/internal/domain"
	"github.com/fairyhunter13/ai-interview-coach/internal/usecase"
)

type startRequest struct {
	Domain       string `json:"domain" validate:"omitempty,max=40"`
	Difficulty   string `json:"difficulty" validate:"omitempty,max=20"`
	UserResponse string `json:"user_response" validate:"required,max=5000"`
}

type respondRequest struct {
	UserResponse string `json:"user_response" validate:"required,max=5000"`
	Domain       string `json:"domain" validate:"omitempty,max=40"`
	Difficulty   string `json:"difficulty" validate:"omitempty,max=20"`
}

// StartInterviewHandler opens a session. A multipart body may carry a resume
// in the "file" field.
func (s *Server) StartInterviewHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := currentUser(w, r)
		if !ok {
			return
		}
		var req startRequest
		var resume string
		if isMultipart(r) {
			name, data, err := readFormFile(w, r, "file", megabytes(s.Cfg.MaxUploadMB), false)
			if err != nil {
				writeUploadError(w, r, err, s.Cfg.MaxUploadMB)
				return
			}
			req = startRequest{
				Domain:       r.FormValue("domain"),
				Difficulty:   r.FormValue("difficulty"),
				UserResponse: r.FormValue("user_response"),
			}
			if err := getValidator().Struct(req); err != nil {
				writeError(w, r, fmt.Errorf("%w: validation failed", domain.ErrInvalidArgument), validationDetails(err))
				return
			}
			if data != nil {
				if resume, err = s.Documents.Text(r.Context(), name, data); err != nil {
					writeError(w, r, err, map[string]string{"field": "file"})
					return
				}
			}
		} else if !decodeJSON(w, r, &req) {
			return
		}
		res, err := s.Interviews.Start(r.Context(), user, usecase.StartInterviewInput{
			Domain:       req.Domain,
			Difficulty:   req.Difficulty,
			UserResponse: req.UserResponse,
			ResumeText:   resume,
		})
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		writeJSON(w, http.StatusCreated, res)
	}
}

// RespondHandler records an answer and returns the next question.
func (s *Server) RespondHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := currentUser(w, r)
		if !ok {
			return
		}
		var req respondRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		res, err := s.Interviews.Respond(r.Context(), user, usecase.RespondInput{
			SessionID:  chi.URLParam(r, "id"),
			Answer:     req.UserResponse,
			Domain:     req.Domain,
			Difficulty: req.Difficulty,
		})
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		status := http.StatusOK
		if res.Started {
			status = http.StatusCreated
		}
		writeJSON(w, status, res)
	}
}

// GetInterviewHandler returns one session.
func (s *Server) GetInterviewHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := currentUser(w, r)
		if !ok {
			return
		}
		sess, err := s.Interviews.Get(r.Context(), user, chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		writeJSON(w, http.StatusOK, BuildSessionEnvelope(sess))
	}
}

// ConversationHandler returns the turns of a session.
func (s *Server) ConversationHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := currentUser(w, r)
		if !ok {
			return
		}
		id := chi.URLParam(r, "id")
		turns, err := s.Interviews.Conversation(r.Context(), user, id)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		if turns == nil {
			turns = []domain.InterviewTurn{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"session_id": id, "conversation": turns})
	}
}

// EndInterviewHandler closes a session and returns it with feedback.
func (s *Server) EndInterviewHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := currentUser(w, r)
		if !ok {
			return
		}
		sess, err := s.Interviews.End(r.Context(), user, chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		writeJSON(w, http.StatusOK, BuildSessionEnvelope(sess))
	}
}

// DeleteInterviewHandler removes a session.
func (s *Server) DeleteInterviewHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := currentUser(w, r)
		if !ok {
			return
		}
		if err := s.Interviews.Delete(r.Context(), user, chi.URLParam(r, "id")); err != nil {
			writeError(w, r, err, nil)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// FeedbackHandler returns the session feedback, generating it on first read.
func (s *Server) FeedbackHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := currentUser(w, r)
		if !ok {
			return
		}
		fb, err := s.Interviews.Feedback(r.Context(), user, chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		writeJSON(w, http.StatusOK, fb)
	}
}

// UpdateFeedbackHandler replaces the stored feedback.
func (s *Server) UpdateFeedbackHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := currentUser(w, r)
		if !ok {
			return
		}
		var fb domain.InterviewFeedback
		if !decodeJSON(w, r, &fb) {
			return
		}
		out, err := s.Interviews.UpdateFeedback(r.Context(), user, chi.URLParam(r, "id"), fb)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// InterviewHistoryHandler pages through the caller's sessions.
func (s *Server) InterviewHistoryHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := currentUser(w, r)
		if !ok {
			return
		}
		q := r.URL.Query()
		limit, offset, vr := ValidatePagination(q.Get("limit"), q.Get("offset"))
		if !vr.Valid {
			writeError(w, r, fmt.Errorf("%w: invalid pagination", domain.ErrInvalidArgument), vr.Errors)
			return
		}
		list, err := s.Interviews.List(r.Context(), user, limit, offset)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"sessions": sessionSummaries(list), "limit": limit, "offset": offset})
	}
}

// RecentInterviewsHandler returns the latest sessions.
func (s *Server) RecentInterviewsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := currentUser(w, r)
		if !ok {
			return
		}
		list, err := s.Interviews.Recent(r.Context(), user)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"sessions": sessionSummaries(list)})
	}
}

// InterviewStatsHandler aggregates the caller's sessions.
func (s *Server) InterviewStatsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := currentUser(w, r)
		if !ok {
			return
		}
		st, err := s.Interviews.Stats(r.Context(), user)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		writeJSON(w, http.StatusOK, st)
	}
}

type speakRequest struct {
	Text  string `json:"text" validate:"required,max=20000"`
	Voice string `json:"voice" validate:"omitempty,max=60"`
}

// VoiceToTextHandler transcribes a multipart "audio" upload.
func (s *Server) VoiceToTextHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := currentUser(w, r)
		if !ok {
			return
		}
		name, data, err := readFormFile(w, r, "audio", megabytes(s.Cfg.MaxAudioMB), true)
		if err != nil {
			writeUploadError(w, r, err, s.Cfg.MaxAudioMB)
			return
		}
		text, err := s.Audio.Transcribe(r.Context(), user, name, data)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"text": text})
	}
}

// TextToSpeechHandler returns synthesised audio for the given text.
func (s *Server) TextToSpeechHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := currentUser(w, r)
		if !ok {
			return
		}
		var req speakRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		sp, err := s.Audio.Speak(r.Context(), user, req.Text, strings.TrimSpace(req.Voice))
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		w.Header().Set("Content-Type", sp.ContentType)
		w.Header().Set("Content-Disposition", `inline; filename="speech.wav"`)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(sp.Audio)
	}
}
