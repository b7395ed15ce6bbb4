package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	apperrors "github.com/assistantlabs/go-assistant-server/internal/errors"
	"github.com/assistantlabs/go-assistant-server/google"
	"github.com/assistantlabs/go-assistant-server/token"
)

const defaultEmailPageSize = 10

// EmailListHandler proxies the inbox listing. Runs through the auto-refresh
// wrapper so an expired token costs one transparent refresh, not an error.
func (s *Server) EmailListHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session := sessionFromContext(r.Context())

		maxResults := defaultEmailPageSize
		if v := r.URL.Query().Get("maxResults"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 100 {
				maxResults = n
			}
		}

		messages, updated, err := token.WithAutoRefresh(r.Context(), s.tokens, session.Token,
			func(ctx context.Context, accessToken string) ([]*google.Message, error) {
				return s.google.ListMessages(ctx, accessToken, maxResults)
			})
		s.saveIfChanged(w, r, session, updated)
		if err != nil {
			writeError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]interface{}{"emails": messages})
	}
}

type sendEmailRequest struct {
	To      string `json:"to" validate:"required,email"`
	Subject string `json:"subject" validate:"required"`
	Body    string `json:"body" validate:"required"`
}

func (s *Server) EmailSendHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session := sessionFromContext(r.Context())

		var req sendEmailRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, apperrors.Wrapf(apperrors.ErrInvalidRequest, "decode: %v", err))
			return
		}
		if err := s.validate.Struct(req); err != nil {
			writeError(w, apperrors.Wrapf(apperrors.ErrInvalidRequest, "%v", err))
			return
		}

		messageID, updated, err := token.WithAutoRefresh(r.Context(), s.tokens, session.Token,
			func(ctx context.Context, accessToken string) (string, error) {
				return s.google.SendMessage(ctx, accessToken, req.To, req.Subject, req.Body)
			})
		s.saveIfChanged(w, r, session, updated)
		if err != nil {
			writeError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "messageId": messageID})
	}
}
