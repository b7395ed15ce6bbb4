package server

import (
	"context"
	"encoding/json"
	"net/http"

	gorillasessions "github.com/gorilla/sessions"
	"github.com/pkg/errors"

	apperrors "github.com/assistantlabs/go-assistant-server/internal/errors"
	"github.com/assistantlabs/go-assistant-server/token"
)

const (
	sessionName     = "assistant_session"
	sessionDataKey  = "data"
	stateCookieName = "oauth_state"
)

// Session is what survives between requests for one signed-in user: who
// they are and the token record the lifecycle manager operates on. It lives
// only as long as the cookie; sign-out destroys it.
type Session struct {
	User    UserInfo     `json:"user"`
	Token   token.Record `json:"token"`
	IDToken string       `json:"idToken,omitempty"`
}

type UserInfo struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}

// SessionStore keeps the session as a JSON blob inside an authenticated
// cookie. The cookie is the only persistence; there is no server-side
// session table.
type SessionStore struct {
	store *gorillasessions.CookieStore
}

func NewSessionStore(secret string) *SessionStore {
	store := gorillasessions.NewCookieStore([]byte(secret))
	store.Options = &gorillasessions.Options{
		Path:     "/",
		MaxAge:   86400 * 7,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	return &SessionStore{store: store}
}

func (s *SessionStore) Get(r *http.Request) (*Session, error) {
	cookieSession, err := s.store.Get(r, sessionName)
	if err != nil {
		return nil, apperrors.ErrSessionNotFound
	}

	raw, ok := cookieSession.Values[sessionDataKey].(string)
	if !ok || raw == "" {
		return nil, apperrors.ErrSessionNotFound
	}

	var session Session
	if err := json.Unmarshal([]byte(raw), &session); err != nil {
		return nil, errors.Wrap(apperrors.ErrSessionNotFound, err.Error())
	}
	return &session, nil
}

func (s *SessionStore) Save(w http.ResponseWriter, r *http.Request, session *Session) error {
	raw, err := json.Marshal(session)
	if err != nil {
		return errors.Wrap(err, "SessionStore.Save Marshal")
	}

	cookieSession, _ := s.store.Get(r, sessionName)
	cookieSession.Values[sessionDataKey] = string(raw)
	if err := cookieSession.Save(r, w); err != nil {
		return errors.Wrap(err, "SessionStore.Save Save")
	}
	return nil
}

func (s *SessionStore) Clear(w http.ResponseWriter, r *http.Request) error {
	cookieSession, _ := s.store.Get(r, sessionName)
	cookieSession.Options.MaxAge = -1
	cookieSession.Values = map[interface{}]interface{}{}
	if err := cookieSession.Save(r, w); err != nil {
		return errors.Wrap(err, "SessionStore.Clear Save")
	}
	return nil
}

type contextKey string

const sessionContextKey contextKey = "session"

// RequireSession rejects requests without a signed-in session and puts the
// session on the request context for the handler.
func (s *Server) RequireSession(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, err := s.sessions.Get(r)
		if err != nil || session.Token.AccessToken == "" {
			writeError(w, apperrors.ErrSessionNotFound)
			return
		}
		next(w, r.WithContext(context.WithValue(r.Context(), sessionContextKey, session)))
	}
}

func sessionFromContext(ctx context.Context) *Session {
	session, _ := ctx.Value(sessionContextKey).(*Session)
	return session
}

// saveIfChanged writes the session back when the token record was updated
// by a refresh, so the next request starts from the new token.
func (s *Server) saveIfChanged(w http.ResponseWriter, r *http.Request, session *Session, updated token.Record) {
	if session.Token == updated {
		return
	}
	session.Token = updated
	if err := s.sessions.Save(w, r, session); err != nil {
		s.log.Error().Err(err).Msg("failed to persist refreshed token to session")
	}
}
