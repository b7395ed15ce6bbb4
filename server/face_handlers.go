package server

import (
	"encoding/json"
	"net/http"
	"time"

	apperrors "github.com/assistantlabs/go-assistant-server/internal/errors"
	"github.com/assistantlabs/go-assistant-server/internal/utils"
)

type faceSummary struct {
	Label           string     `json:"label"`
	Notes           string     `json:"notes,omitempty"`
	LastInteraction *time.Time `json:"lastInteraction,omitempty"`
}

// FacesListHandler returns the enrolled set without embeddings; the vectors
// are write-only from the API's point of view.
func (s *Server) FacesListHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		records, err := s.faces.Enrolled()
		if err != nil {
			writeError(w, err)
			return
		}

		faces := make([]faceSummary, 0, len(records))
		for _, record := range records {
			summary := faceSummary{
				Label: record.Label,
				Notes: record.Notes,
			}
			if !record.LastInteraction.IsZero() {
				summary.LastInteraction = utils.Ptr(record.LastInteraction)
			}
			faces = append(faces, summary)
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"faces": faces})
	}
}

type enrollRequest struct {
	Label     string    `json:"label" validate:"required"`
	Embedding []float64 `json:"embedding"`
	Notes     string    `json:"notes"`
}

// FaceEnrollHandler stores the embedding computed by the browser-side
// model. An absent embedding means the capture found no face.
func (s *Server) FaceEnrollHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req enrollRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, apperrors.Wrapf(apperrors.ErrInvalidRequest, "decode: %v", err))
			return
		}
		if err := s.validate.Struct(req); err != nil {
			writeError(w, apperrors.Wrapf(apperrors.ErrInvalidRequest, "%v", err))
			return
		}

		if err := s.faces.Enroll(req.Label, req.Embedding, req.Notes); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"enrolled": req.Label})
	}
}

func (s *Server) FaceDeleteHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		label := r.PathValue("label")
		if label == "" {
			writeError(w, apperrors.Wrapf(apperrors.ErrInvalidRequest, "missing label"))
			return
		}

		if err := s.faces.Remove(label); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"removed": label})
	}
}

type recognizeRequest struct {
	Embedding []float64 `json:"embedding" validate:"required,min=1"`
}

func (s *Server) FaceRecognizeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req recognizeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, apperrors.Wrapf(apperrors.ErrInvalidRequest, "decode: %v", err))
			return
		}
		if err := s.validate.Struct(req); err != nil {
			writeError(w, apperrors.Wrapf(apperrors.ErrInvalidRequest, "%v", err))
			return
		}

		match, err := s.faces.Match(req.Embedding)
		if err != nil {
			writeError(w, err)
			return
		}

		resp := map[string]interface{}{
			"label":    match.Label,
			"distance": match.Distance,
			"known":    match.Known(),
		}
		if match.Known() {
			if notes, err := s.faces.Notes(match.Label); err == nil && notes != "" {
				resp["notes"] = notes
			}
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

type interactionRequest struct {
	Text string `json:"text" validate:"required"`
}

func (s *Server) FaceInteractionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		label := r.PathValue("label")
		if label == "" {
			writeError(w, apperrors.Wrapf(apperrors.ErrInvalidRequest, "missing label"))
			return
		}

		var req interactionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, apperrors.Wrapf(apperrors.ErrInvalidRequest, "decode: %v", err))
			return
		}
		if err := s.validate.Struct(req); err != nil {
			writeError(w, apperrors.Wrapf(apperrors.ErrInvalidRequest, "%v", err))
			return
		}

		ok, err := s.faces.RecordInteraction(label, req.Text)
		if err != nil {
			writeError(w, err)
			return
		}
		if !ok {
			writeError(w, apperrors.Wrapf(apperrors.ErrNotFound, "label %q not enrolled", label))
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"recorded": true})
	}
}
