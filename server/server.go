package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"
	"sync"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"golang.org/x/oauth2"

	"github.com/assistantlabs/go-assistant-server/face"
	"github.com/assistantlabs/go-assistant-server/gemini"
	"github.com/assistantlabs/go-assistant-server/google"
	"github.com/assistantlabs/go-assistant-server/internal/config"
	"github.com/assistantlabs/go-assistant-server/token"
)

const googleIssuerURL = "https://accounts.google.com"

// Deps are the collaborators the handlers delegate to. Injected so tests
// can point them at doubles.
type Deps struct {
	Tokens   *token.Manager
	OAuth    *oauth2.Config
	Google   *google.Client
	Gemini   *gemini.Client
	Faces    *face.Engine
	Sessions *SessionStore
}

type Server struct {
	env      string // Environment (e.g., "DEV", "PROD")
	mux      *http.ServeMux
	routes   []string
	config   config.Config
	tokens   *token.Manager
	oauthCfg *oauth2.Config
	google   *google.Client
	gemini   *gemini.Client
	faces    *face.Engine
	sessions *SessionStore
	validate *validator.Validate
	log      zerolog.Logger

	// The OIDC provider is discovered on first use: discovery needs the
	// network and the server must construct cleanly without it.
	oidcOnce     sync.Once
	oidcVerifier *oidc.IDTokenVerifier
	oidcErr      error
}

func New(config config.Config, deps Deps, log zerolog.Logger) (*Server, error) {
	if deps.Tokens == nil || deps.OAuth == nil || deps.Sessions == nil {
		return nil, fmt.Errorf("[Server New] token manager, oauth config and session store are required")
	}

	s := &Server{
		mux:      http.NewServeMux(),
		config:   config,
		tokens:   deps.Tokens,
		oauthCfg: deps.OAuth,
		google:   deps.Google,
		gemini:   deps.Gemini,
		faces:    deps.Faces,
		sessions: deps.Sessions,
		validate: validator.New(),
		log:      log,
	}
	s.env = config.GetEnv()

	s.initRoutes()
	s.logRoutes()

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	s.mux.Handle(pattern, handler)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

// idTokenVerifier discovers Google's OIDC configuration once and returns
// the verifier for our client id.
func (s *Server) idTokenVerifier(ctx context.Context) (*oidc.IDTokenVerifier, error) {
	s.oidcOnce.Do(func() {
		provider, err := oidc.NewProvider(ctx, googleIssuerURL)
		if err != nil {
			s.oidcErr = fmt.Errorf("[Server idTokenVerifier] provider discovery: %w", err)
			return
		}
		s.oidcVerifier = provider.Verifier(&oidc.Config{ClientID: s.oauthCfg.ClientID})
	})
	return s.oidcVerifier, s.oidcErr
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return // Skip logging in non-development environments
	}
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)

		if len(parts) > 1 {
			logRoute(parts[0], parts[1])
		} else {
			logRoute("", parts[0])
		}
	}
}

func logRoute(method, path string) {
	var displayMethod string
	paddedMethod := fmt.Sprintf(" %-7s", method)
	if color, ok := methodColors[method]; ok {
		displayMethod = color + paddedMethod + ResetColor
	} else {
		displayMethod = Gray + paddedMethod + ResetColor
	}
	log.Printf("[%-19s] %s\n", displayMethod, path)
}
