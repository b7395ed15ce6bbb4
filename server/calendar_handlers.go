package server

import (
	"context"
	"encoding/json"
	"net/http"

	apperrors "github.com/assistantlabs/go-assistant-server/internal/errors"
	"github.com/assistantlabs/go-assistant-server/google"
	"github.com/assistantlabs/go-assistant-server/token"
)

func (s *Server) CalendarListHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session := sessionFromContext(r.Context())

		timeMin := r.URL.Query().Get("timeMin")
		timeMax := r.URL.Query().Get("timeMax")
		if timeMin == "" || timeMax == "" {
			writeError(w, apperrors.Wrapf(apperrors.ErrInvalidRequest, "missing required timeMin or timeMax parameters"))
			return
		}

		events, updated, err := token.WithAutoRefresh(r.Context(), s.tokens, session.Token,
			func(ctx context.Context, accessToken string) ([]*google.Event, error) {
				return s.google.ListEvents(ctx, accessToken, timeMin, timeMax)
			})
		s.saveIfChanged(w, r, session, updated)
		if err != nil {
			writeError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]interface{}{"events": events})
	}
}

type createEventRequest struct {
	Summary     string             `json:"summary" validate:"required"`
	Description string             `json:"description"`
	Start       eventTimeRequest   `json:"start" validate:"required"`
	End         eventTimeRequest   `json:"end" validate:"required"`
	Attendees   []attendeeRequest  `json:"attendees" validate:"omitempty,dive"`
}

type eventTimeRequest struct {
	DateTime string `json:"dateTime" validate:"required"`
	TimeZone string `json:"timeZone"`
}

type attendeeRequest struct {
	Email string `json:"email" validate:"required,email"`
}

func (req createEventRequest) toEvent() *google.Event {
	event := &google.Event{
		Summary:     req.Summary,
		Description: req.Description,
		Start:       google.EventTime{DateTime: req.Start.DateTime, TimeZone: req.Start.TimeZone},
		End:         google.EventTime{DateTime: req.End.DateTime, TimeZone: req.End.TimeZone},
	}
	if event.Start.TimeZone == "" {
		event.Start.TimeZone = "UTC"
	}
	if event.End.TimeZone == "" {
		event.End.TimeZone = "UTC"
	}
	for _, attendee := range req.Attendees {
		event.Attendees = append(event.Attendees, google.Attendee{Email: attendee.Email})
	}
	return event
}

func (s *Server) CalendarCreateHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session := sessionFromContext(r.Context())

		var req createEventRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, apperrors.Wrapf(apperrors.ErrInvalidRequest, "decode: %v", err))
			return
		}
		if err := s.validate.Struct(req); err != nil {
			writeError(w, apperrors.Wrapf(apperrors.ErrInvalidRequest, "%v", err))
			return
		}

		created, updated, err := token.WithAutoRefresh(r.Context(), s.tokens, session.Token,
			func(ctx context.Context, accessToken string) (*google.Event, error) {
				return s.google.CreateEvent(ctx, accessToken, req.toEvent())
			})
		s.saveIfChanged(w, r, session, updated)
		if err != nil {
			writeError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]interface{}{"event": created})
	}
}
