package server

import (
	"encoding/json"
	"net/http"

	apperrors "github.com/assistantlabs/go-assistant-server/internal/errors"
)

type assistantRequest struct {
	Action  string `json:"action" validate:"required,oneof=summarize draftReply parseEvent"`
	Content string `json:"content" validate:"required"`
}

// AssistantHandler routes one piece of content through the generative-text
// collaborator. The action picks the prompt template.
func (s *Server) AssistantHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req assistantRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, apperrors.Wrapf(apperrors.ErrInvalidRequest, "decode: %v", err))
			return
		}
		if err := s.validate.Struct(req); err != nil {
			writeError(w, apperrors.Wrapf(apperrors.ErrInvalidRequest, "%v", err))
			return
		}

		switch req.Action {
		case "summarize":
			summary, err := s.gemini.Summarize(r.Context(), req.Content)
			if err != nil {
				writeError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, map[string]interface{}{"summary": summary})

		case "draftReply":
			reply, err := s.gemini.DraftReply(r.Context(), req.Content)
			if err != nil {
				writeError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, map[string]interface{}{"reply": reply})

		case "parseEvent":
			event, err := s.gemini.ParseEvent(r.Context(), req.Content)
			if err != nil {
				writeError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, map[string]interface{}{"event": event})
		}
	}
}
