package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"
)

// errorResponse is the failure body for every API endpoint. The
// mobile client treats any non-200 response as a generic error, so
// details exist for operators, not end users.
type errorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details"`
}

func (s *Server) listEmailsFromSender(w http.ResponseWriter, r *http.Request) {
	// chi hands back the raw path segment when the request URI carries
	// escapes, so the address must be unescaped before searching.
	sender, err := url.PathUnescape(chi.URLParam(r, "sender"))
	if err != nil {
		s.writeError(w, r, "Failed to fetch emails", err)
		return
	}

	emails, err := s.mail.MessagesFromSender(r.Context(), sender)
	if err != nil {
		s.writeError(w, r, "Failed to fetch emails", err)
		return
	}

	s.writeJSON(w, r, emails)
}

func (s *Server) listEmails(w http.ResponseWriter, r *http.Request) {
	emails, err := s.mail.AllMessages(r.Context())
	if err != nil {
		s.writeError(w, r, "Failed to fetch emails", err)
		return
	}

	s.writeJSON(w, r, emails)
}

func (s *Server) getEmail(w http.ResponseWriter, r *http.Request) {
	uid, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 32)
	if err != nil {
		s.writeError(w, r, "Failed to fetch email", err)
		return
	}

	email, err := s.mail.MessageByUID(r.Context(), uint32(uid))
	if err != nil {
		s.writeError(w, r, "Failed to fetch email", err)
		return
	}

	s.writeJSON(w, r, email)
}

func (s *Server) writeJSON(w http.ResponseWriter, r *http.Request, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.ErrorContext(r.Context(), "response encoding failed", slog.Any("error", err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, message string, err error) {
	s.logger.ErrorContext(r.Context(), message, slog.Any("error", err))

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusInternalServerError)
	_ = json.NewEncoder(w).Encode(errorResponse{
		Error:   message,
		Details: err.Error(),
	})
}
