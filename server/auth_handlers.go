package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/oauth2"

	apperrors "github.com/assistantlabs/go-assistant-server/internal/errors"
	"github.com/assistantlabs/go-assistant-server/token"
)

// LoginHandler starts the Google consent flow. Offline access plus a forced
// approval prompt, otherwise Google only issues a refresh token on the very
// first consent.
func (s *Server) LoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		state := uuid.New().String()
		http.SetCookie(w, &http.Cookie{
			Name:     stateCookieName,
			Value:    state,
			Path:     "/",
			MaxAge:   600,
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})

		authURL := s.oauthCfg.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
		http.Redirect(w, r, authURL, http.StatusFound)
	}
}

// CallbackHandler exchanges the authorization code, verifies the ID token
// and creates the session holding the token record.
func (s *Server) CallbackHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if errParam := r.URL.Query().Get("error"); errParam != "" {
			s.log.Warn().Str("error", errParam).Msg("consent denied")
			http.Redirect(w, r, "/?error="+errParam, http.StatusFound)
			return
		}

		stateCookie, err := r.Cookie(stateCookieName)
		if err != nil || stateCookie.Value == "" || stateCookie.Value != r.URL.Query().Get("state") {
			writeError(w, apperrors.Wrapf(apperrors.ErrInvalidRequest, "state mismatch"))
			return
		}

		code := r.URL.Query().Get("code")
		if code == "" {
			writeError(w, apperrors.Wrapf(apperrors.ErrInvalidRequest, "missing code"))
			return
		}

		tok, err := s.oauthCfg.Exchange(r.Context(), code)
		if err != nil {
			s.log.Error().Err(err).Msg("code exchange failed")
			writeError(w, apperrors.Wrapf(apperrors.ErrBadResponse, "code exchange"))
			return
		}

		session := &Session{
			Token: token.Record{
				AccessToken:  tok.AccessToken,
				RefreshToken: tok.RefreshToken,
				ExpiresAt:    tok.Expiry.UnixMilli(),
			},
		}

		if rawIDToken, ok := tok.Extra("id_token").(string); ok && rawIDToken != "" {
			verifier, err := s.idTokenVerifier(r.Context())
			if err != nil {
				writeError(w, apperrors.Wrapf(apperrors.ErrBadResponse, "oidc discovery: %v", err))
				return
			}
			idToken, err := verifier.Verify(r.Context(), rawIDToken)
			if err != nil {
				s.log.Error().Err(err).Msg("id token verification failed")
				writeError(w, apperrors.Wrapf(apperrors.ErrBadResponse, "id token verification"))
				return
			}

			var claims struct {
				Name  string `json:"name"`
				Email string `json:"email"`
			}
			if err := idToken.Claims(&claims); err == nil {
				session.User = UserInfo{Name: claims.Name, Email: claims.Email}
			}
			session.IDToken = rawIDToken
		}

		if err := s.sessions.Save(w, r, session); err != nil {
			s.log.Error().Err(err).Msg("failed to save session")
			writeError(w, apperrors.ErrInternal)
			return
		}

		s.log.Info().Str("email", session.User.Email).Msg("signed in")
		http.Redirect(w, r, "/", http.StatusFound)
	}
}

func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.sessions.Clear(w, r); err != nil {
			s.log.Error().Err(err).Msg("failed to clear session")
		}
		http.Redirect(w, r, "/", http.StatusFound)
	}
}

// RefreshHandler forces a refresh regardless of the recorded expiry, mainly
// for the UI's "reconnect" button.
func (s *Server) RefreshHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session := sessionFromContext(r.Context())

		updated, err := s.tokens.ForceRefresh(r.Context(), session.Token)
		s.saveIfChanged(w, r, session, updated)
		if err != nil {
			writeError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]interface{}{
			"refreshed":          true,
			"accessTokenExpires": updated.ExpiresAt,
		})
	}
}

// VerifyHandler is the diagnostic endpoint: it reports what the server can
// see of the session, token and cookies without touching any Google API.
func (s *Server) VerifyHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		now := time.Now()

		snapshot := map[string]interface{}{
			"status": "Auth Verification",
			"environment": map[string]interface{}{
				"clientId":      s.oauthCfg.ClientID != "",
				"clientSecret":  s.oauthCfg.ClientSecret != "",
				"sessionSecret": s.config.GetSessionSecret() != "",
				"env":           s.env,
			},
			"request": map[string]interface{}{
				"host": r.Host,
			},
		}

		cookieNames := []string{}
		hasSessionCookie := false
		for _, cookie := range r.Cookies() {
			cookieNames = append(cookieNames, cookie.Name)
			if cookie.Name == sessionName {
				hasSessionCookie = true
			}
		}
		snapshot["cookies"] = map[string]interface{}{
			"count":            len(cookieNames),
			"names":            cookieNames,
			"hasSessionCookie": hasSessionCookie,
		}

		session, err := s.sessions.Get(r)
		if err != nil {
			snapshot["session"] = map[string]interface{}{"exists": false}
			writeJSON(w, http.StatusOK, snapshot)
			return
		}

		tokenInfo := map[string]interface{}{
			"hasAccessToken":  session.Token.AccessToken != "",
			"hasRefreshToken": session.Token.RefreshToken != "",
			"isExpired":       session.Token.Expired(now),
			"isUsable":        session.Token.Usable(now),
			"lastError":       session.Token.LastError,
		}
		if session.Token.ExpiresAt != 0 {
			tokenInfo["expiresAt"] = time.UnixMilli(session.Token.ExpiresAt).UTC().Format(time.RFC3339)
		}
		if exp := idTokenExpiry(session.IDToken); !exp.IsZero() {
			tokenInfo["idTokenExpiresAt"] = exp.UTC().Format(time.RFC3339)
		}

		snapshot["session"] = map[string]interface{}{
			"exists": true,
			"user":   session.User,
		}
		snapshot["token"] = tokenInfo

		writeJSON(w, http.StatusOK, snapshot)
	}
}

// idTokenExpiry decodes the ID token without verifying it. This is debug
// output only; nothing trusts these claims.
func idTokenExpiry(rawIDToken string) time.Time {
	if strings.TrimSpace(rawIDToken) == "" {
		return time.Time{}
	}
	parsed, _, err := jwt.NewParser().ParseUnverified(rawIDToken, jwt.MapClaims{})
	if err != nil {
		return time.Time{}
	}
	exp, err := parsed.Claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}
	}
	return exp.Time
}
