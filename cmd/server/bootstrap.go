package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
	googleoauth "golang.org/x/oauth2/google"

	"github.com/assistantlabs/go-assistant-server/face"
	"github.com/assistantlabs/go-assistant-server/face/filerepo"
	"github.com/assistantlabs/go-assistant-server/gemini"
	googleapi "github.com/assistantlabs/go-assistant-server/google"
	"github.com/assistantlabs/go-assistant-server/internal/config"
	"github.com/assistantlabs/go-assistant-server/server"
	"github.com/assistantlabs/go-assistant-server/token"
)

// buildServer wires the composition root: config in, a ready http.Handler
// out. Everything the handlers collaborate with is constructed here and
// injected, never reached for as a global.
func buildServer(c config.Config) (*server.Server, error) {
	logger := newLogger(c)

	if c.GetGoogleClientID() == "" || c.GetGoogleClientSecret() == "" {
		return nil, fmt.Errorf("GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET must be set")
	}
	if c.GetSessionSecret() == "" {
		return nil, fmt.Errorf("SESSION_SECRET must be set")
	}

	oauthCfg := &oauth2.Config{
		ClientID:     c.GetGoogleClientID(),
		ClientSecret: c.GetGoogleClientSecret(),
		RedirectURL:  c.GetBaseURL() + server.RouteAuthCallback,
		Scopes:       c.GetGoogleScopes(),
		Endpoint:     googleoauth.Endpoint,
	}
	if tokenURL := c.GetGoogleTokenURL(); tokenURL != "" {
		oauthCfg.Endpoint.TokenURL = tokenURL
	}

	faceRepo, err := filerepo.New(c.GetDataFolder())
	if err != nil {
		return nil, fmt.Errorf("face store: %w", err)
	}

	deps := server.Deps{
		Tokens: token.New(oauthCfg, token.WithLogger(logger.With().Str("component", "token").Logger())),
		OAuth:  oauthCfg,
		Google: googleapi.NewClient(
			googleapi.WithBaseURLs(c.GetGmailBaseURL(), c.GetCalendarBaseURL()),
			googleapi.WithLogger(logger.With().Str("component", "google").Logger()),
		),
		Gemini: gemini.NewClient(c.GetGeminiAPIKey(),
			gemini.WithBaseURL(c.GetGeminiBaseURL()),
			gemini.WithModel(c.GetGeminiModel()),
			gemini.WithCacheTTL(c.GetGeminiCacheTTL()),
			gemini.WithLogger(logger.With().Str("component", "gemini").Logger()),
		),
		Faces:    face.NewEngine(faceRepo, face.WithThreshold(c.GetFaceMatchThreshold())),
		Sessions: server.NewSessionStore(c.GetSessionSecret()),
	}

	return server.New(c, deps, logger)
}

func newLogger(c config.Config) zerolog.Logger {
	if c.GetEnv() == "DEV" {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stderr).With().Timestamp().Logger()
}
