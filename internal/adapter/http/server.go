package adapthttp

import (
	"context"
	"fmt"
	"net/http"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/gorilla/websocket"
	"golang.org/x/oauth2"

	"weightquest/internal/app"
	"weightquest/internal/domain"
	"weightquest/internal/metrics"
)

// LocalUserID owns every record when authentication is disabled.
const LocalUserID int64 = 1

// OIDCConfig holds the single sign-on provider settings.
type OIDCConfig struct {
	Enabled      bool
	Provider     *oidc.Provider
	OAuth2Config oauth2.Config
}

// NewOIDCConfig discovers the provider at issuer.
func NewOIDCConfig(ctx context.Context, issuer, clientID, clientSecret, redirectURL string) (OIDCConfig, error) {
	provider, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return OIDCConfig{}, fmt.Errorf("oidc discovery: %w", err)
	}
	return OIDCConfig{
		Enabled:  true,
		Provider: provider,
		OAuth2Config: oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Endpoint:     provider.Endpoint(),
			Scopes:       []string{oidc.ScopeOpenID, "profile", "email"},
		},
	}, nil
}

// Server is the driving HTTP adapter that routes requests to application
// services.
type Server struct {
	progress *app.ProgressService
	charts   *app.ChartsService
	authSvc  *app.AuthService
	webDir   string

	oidcConfig  OIDCConfig
	disableAuth bool
	devMode     bool

	metrics        *metrics.Manager
	metricsHandler http.Handler

	upgrader websocket.Upgrader
}

// New creates a Server wired to the given application services.
func New(ps *app.ProgressService, cs *app.ChartsService, as *app.AuthService, webDir string) *Server {
	return &Server{
		progress: ps,
		charts:   cs,
		authSvc:  as,
		webDir:   webDir,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
		},
	}
}

// WithoutAuth serves every request as the local user.
func (s *Server) WithoutAuth() *Server {
	s.disableAuth = true
	return s
}

// WithOIDC enables single sign-on.
func (s *Server) WithOIDC(cfg OIDCConfig) *Server {
	s.oidcConfig = cfg
	return s
}

// WithDevTools exposes the seed and adjust endpoints.
func (s *Server) WithDevTools() *Server {
	s.devMode = true
	return s
}

// WithMetrics records request metrics in m. A non-nil handler is served at
// /metrics.
func (s *Server) WithMetrics(m *metrics.Manager, handler http.Handler) *Server {
	s.metrics = m
	s.metricsHandler = handler
	return s
}

// Handler returns the root http.Handler for the application.
func (s *Server) Handler() http.Handler {
	protected := http.NewServeMux()
	protected.HandleFunc("/progress", s.handleProgress)
	protected.HandleFunc("/progress/goal", s.handleGoal)
	protected.HandleFunc("/progress/weight", s.handleWeight)
	protected.HandleFunc("/progress/level-up/confirm", s.handleConfirmLevelUp)
	protected.HandleFunc("/progress/reset", s.handleReset)
	protected.HandleFunc("/progress/chart", s.handleChart)
	protected.HandleFunc("/progress/stream", s.handleStream)
	if s.devMode {
		protected.HandleFunc("/dev/seed", s.handleDevSeed)
		protected.HandleFunc("/dev/adjust", s.handleDevAdjust)
	}

	api := http.NewServeMux()
	api.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	})
	api.HandleFunc("/config", s.handleConfig)
	api.HandleFunc("/auth/login", s.handleLogin)
	api.HandleFunc("/auth/logout", s.handleLogout)
	api.HandleFunc("/auth/setup", s.handleSetupUser)
	api.HandleFunc("/auth/sso/login", s.handleSSOLogin)
	api.HandleFunc("/auth/sso/callback", s.handleSSOCallback)
	api.Handle("/", s.authMiddleware(protected))

	root := http.NewServeMux()
	root.Handle("/api/", http.StripPrefix("/api", api))
	if s.metricsHandler != nil {
		root.Handle("/metrics", s.metricsHandler)
	}
	root.Handle("/", spaFromDisk(s.webDir))

	return s.recoverMiddleware(s.loggingMiddleware(s.metricsMiddleware(withNoCache(root))))
}

func (s *Server) userID(r *http.Request) int64 {
	if u := userFromContext(r); u != nil {
		return u.ID
	}
	return LocalUserID
}

func userFromContext(r *http.Request) *domain.User {
	u, _ := r.Context().Value(userContextKey).(*domain.User)
	return u
}
