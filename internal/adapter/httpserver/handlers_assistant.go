package httpserver

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/fairyhunter13/ai-interview-coach/internal/usecase"
)

type chatRequest struct {
	Query     string `json:"query" validate:"required,max=4000"`
	Subject   string `json:"subject" validate:"omitempty,max=80"`
	SessionID string `json:"session_id" validate:"omitempty,max=64"`
}

// AssistantChatHandler answers a study question.
func (s *Server) AssistantChatHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := currentUser(w, r)
		if !ok {
			return
		}
		var req chatRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		res, err := s.Assistant.Chat(r.Context(), user, usecase.ChatInput{
			Query:     req.Query,
			Subject:   SanitizeString(req.Subject),
			SessionID: strings.TrimSpace(req.SessionID),
		})
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

// AssistantHistoryHandler lists the caller's conversations.
func (s *Server) AssistantHistoryHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := currentUser(w, r)
		if !ok {
			return
		}
		list, err := s.Assistant.History(r.Context(), user)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"sessions": chatViews(list)})
	}
}

// AssistantSessionHandler returns one conversation.
func (s *Server) AssistantSessionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := currentUser(w, r)
		if !ok {
			return
		}
		sess, err := s.Assistant.Session(r.Context(), user, chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		writeJSON(w, http.StatusOK, newChatView(sess))
	}
}

// DeleteAssistantSessionHandler removes one conversation.
func (s *Server) DeleteAssistantSessionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := currentUser(w, r)
		if !ok {
			return
		}
		if err := s.Assistant.Delete(r.Context(), user, chi.URLParam(r, "id")); err != nil {
			writeError(w, r, err, nil)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// ResumeReviewHandler reviews a multipart "file" resume upload.
func (s *Server) ResumeReviewHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := currentUser(w, r)
		if !ok {
			return
		}
		name, data, err := readFormFile(w, r, "file", megabytes(s.Cfg.MaxUploadMB), true)
		if err != nil {
			writeUploadError(w, r, err, s.Cfg.MaxUploadMB)
			return
		}
		rv, err := s.Resumes.ReviewUpload(r.Context(), user, name, data)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		writeJSON(w, http.StatusCreated, newReviewView(rv))
	}
}

// LatestResumeHandler returns the caller's last review.
func (s *Server) LatestResumeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := currentUser(w, r)
		if !ok {
			return
		}
		rv, err := s.Resumes.Latest(r.Context(), user)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		writeJSON(w, http.StatusOK, newReviewView(rv))
	}
}
