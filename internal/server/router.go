package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"

	"github.com/pggate/pggate/internal/config"
)

// HTTPServer wraps MCP HTTP routing state.
type HTTPServer struct {
	cfg       config.Config
	version   string
	commit    string
	build     string
	contract  []byte
	registry  *ToolRegistry
	policy    ToolAuthorizer
	authn     SessionAuthenticator
	caller    ToolCaller
	readiness func() error
	logger    zerolog.Logger
}

// NewHTTPServer creates an HTTP transport server with health and MCP routes.
// readiness is probed by /readiness; nil means always ready.
func NewHTTPServer(
	cfg config.Config,
	version, commit, buildDate string,
	contract []byte,
	registry *ToolRegistry,
	policy ToolAuthorizer,
	authn SessionAuthenticator,
	caller ToolCaller,
	readiness func() error,
	logger zerolog.Logger,
) *HTTPServer {
	return &HTTPServer{
		cfg:       cfg,
		version:   version,
		commit:    commit,
		build:     buildDate,
		contract:  contract,
		registry:  registry,
		policy:    policy,
		authn:     authn,
		caller:    caller,
		readiness: readiness,
		logger:    logger,
	}
}

// Router builds the MCP HTTP router.
func (s *HTTPServer) Router() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(hlog.NewHandler(s.logger))
	r.Use(requestLogger())
	r.Use(middleware.Recoverer)

	registerHealthRoutes(r, s.version, s.commit, s.build, s.readiness)
	registerMCPHTTPRoutes(r, s.registry, s.policy, s.authn, s.caller, s.version, s.logger)

	r.Get("/api/tools.yaml", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/yaml")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(s.contract)
	})

	return r
}

func requestLogger() func(http.Handler) http.Handler {
	return hlog.AccessHandler(func(r *http.Request, status, size int, duration time.Duration) {
		hlog.FromRequest(r).Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("request_id", middleware.GetReqID(r.Context())).
			Int("status", status).
			Int("size", size).
			Dur("duration", duration).
			Msg("http request")
	})
}
