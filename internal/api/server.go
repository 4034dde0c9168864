package api

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/switzea/portal/internal/config"
	"github.com/switzea/portal/internal/middleware"
	"github.com/switzea/portal/internal/navigation"
	"github.com/switzea/portal/internal/portal"
	pkgapi "github.com/switzea/portal/pkg/api"
)

// SessionIssuer turns an ID token from client-side sign-in into a session cookie.
type SessionIssuer interface {
	ExchangeIDToken(ctx context.Context, idToken string, expiresIn time.Duration) (string, error)
}

// Deps are the collaborators of a Server.
type Deps struct {
	Config  *config.Config
	Logger  *zap.Logger
	Wrapper *portal.Wrapper
	// Sessions backs POST /sessionLogin. Without it the route answers 501.
	Sessions   SessionIssuer
	Navigation *navigation.Navigation
	// Metrics serves GET /metrics. Defaults to the Prometheus default registry.
	Metrics http.Handler
}

const (
	limiterSweepInterval = 5 * time.Minute
	limiterIdleTimeout   = 10 * time.Minute
)

// Server is the portal HTTP service.
type Server struct {
	cfg      *config.Config
	logger   *zap.Logger
	wrapper  *portal.Wrapper
	sessions SessionIssuer
	nav      *navigation.Navigation
	metrics  http.Handler
	limiter  *middleware.RateLimiter

	engine *gin.Engine

	mu  sync.Mutex
	srv *http.Server
}

var _ pkgapi.API = (*Server)(nil)

// NewServer builds the gin engine with the global middleware and every route.
func NewServer(d Deps) (*Server, error) {
	if d.Config == nil {
		return nil, errors.New("api: config is required")
	}
	if d.Wrapper == nil {
		return nil, errors.New("api: portal wrapper is required")
	}
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.Navigation == nil {
		d.Navigation = navigation.New(navigation.DefaultMenu())
	}
	if d.Metrics == nil {
		d.Metrics = promhttp.Handler()
	}

	s := &Server{
		cfg:      d.Config,
		logger:   d.Logger,
		wrapper:  d.Wrapper,
		sessions: d.Sessions,
		nav:      d.Navigation,
		metrics:  d.Metrics,
		limiter:  middleware.NewRateLimiter(d.Config.RateLimitRPS, d.Config.RateLimitBurst),
		engine:   gin.New(),
	}

	s.engine.Use(middleware.RequestLogger(s.logger))
	s.engine.Use(middleware.RecoveryMiddleware(s.logger))
	if s.cfg.ClientURL != "" {
		s.engine.Use(middleware.CORSMiddleware(s.cfg))
		s.logger.Info("CORS Middleware enabled", zap.String("clientURL", s.cfg.ClientURL))
	} else {
		s.logger.Warn("CORS Middleware SKIPPED: CLIENT_URL is not configured")
	}
	s.engine.Use(middleware.Credentials(s.cfg.SessionCookieName))

	s.RegisterRoutes(s.engine)
	return s, nil
}

// Handler returns the HTTP handler of the server.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves on addr until Shutdown is called.
func (s *Server) Run(addr string) error {
	s.mu.Lock()
	s.srv = &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	srv := s.srv
	s.mu.Unlock()

	ctx, stopSweep := context.WithCancel(context.Background())
	defer stopSweep()
	go s.limiter.Start(ctx, limiterSweepInterval, limiterIdleTimeout)

	s.logger.Info("Starting HTTP server", zap.String("address", addr), zap.String("ginMode", gin.Mode()))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting connections and waits for active requests.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	srv := s.srv
	s.mu.Unlock()
	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}
