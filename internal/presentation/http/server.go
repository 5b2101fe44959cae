package http

import (
	"context"
	stdhttp "net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"
	"github.com/getsentry/sentry-go"
	"github.com/redis/go-redis/v9"
	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"

	"folio/app/internal/domain/account"
	"folio/app/internal/domain/ai"
	"folio/app/internal/domain/portfolio"
	"folio/app/internal/platform/metrics"
)

const bearerScheme = "bearer"

// AccountService is the account surface used by the transport layer.
type AccountService interface {
	Register(ctx context.Context, email, username, password, displayName string) (*account.User, error)
	Login(ctx context.Context, email, password string) (string, *account.User, error)
	Authenticate(token string) (account.Identity, error)
	Profile(ctx context.Context, identity account.Identity) (*account.User, error)
}

// AIGateway is the AI assistance surface used by the transport layer.
type AIGateway interface {
	Enhance(ctx context.Context, req ai.EnhancementRequest) (string, error)
	GenerateBio(ctx context.Context, req ai.BioRequest) (string, error)
	RecommendSkills(ctx context.Context, req ai.SkillRecommendationRequest) ([]string, error)
	Remaining(ctx context.Context) (ai.Quota, error)
}

// DatabasePinger reports database reachability for health checks. *sql.DB satisfies it.
type DatabasePinger interface {
	PingContext(ctx context.Context) error
}

// RedisPinger reports redis reachability for health checks.
type RedisPinger interface {
	Ping(ctx context.Context) *redis.StatusCmd
}

// Options configures the HTTP server wiring.
type Options struct {
	Portfolios  portfolio.Service
	Accounts    AccountService
	Gateway     AIGateway
	Database    DatabasePinger
	Redis       RedisPinger
	Metrics     *metrics.Recorder
	Logger      *logrus.Logger
	SentryHub   *sentry.Hub
	RateLimiter RateLimiterSettings
}

// RateLimiterSettings configures the per-IP request limiter.
type RateLimiterSettings struct {
	RequestsPerSecond float64
	Burst             int
	ClientTTL         time.Duration
}

// Server wires the HTTP transport layer via Huma.
type Server struct {
	api         huma.API
	mux         *stdhttp.ServeMux
	portfolios  portfolio.Service
	accounts    AccountService
	gateway     AIGateway
	database    DatabasePinger
	redis       RedisPinger
	metrics     *metrics.Recorder
	logger      *logrus.Logger
	sentry      *sentry.Hub
	rateLimiter *RateLimiter
	pages       *pageRenderer
}

// NewServer constructs the HTTP server.
func NewServer(opts Options) (*Server, error) {
	if opts.Portfolios == nil {
		return nil, eris.New("portfolio service is required")
	}
	if opts.Accounts == nil {
		return nil, eris.New("account service is required")
	}
	if opts.Gateway == nil {
		return nil, eris.New("ai gateway is required")
	}

	settings := opts.RateLimiter
	if settings.Burst <= 0 {
		return nil, eris.New("rate limiter burst must be greater than zero")
	}
	if settings.RequestsPerSecond <= 0 {
		return nil, eris.New("rate limiter requests per second must be greater than zero")
	}
	if settings.ClientTTL <= 0 {
		return nil, eris.New("rate limiter client TTL must be greater than zero")
	}

	mux := stdhttp.NewServeMux()
	config := huma.DefaultConfig("Folio", "1.0.0")
	config.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		bearerScheme: {
			Type:         "http",
			Scheme:       "bearer",
			BearerFormat: "JWT",
		},
	}

	srv := &Server{
		api:         humago.New(mux, config),
		mux:         mux,
		portfolios:  opts.Portfolios,
		accounts:    opts.Accounts,
		gateway:     opts.Gateway,
		database:    opts.Database,
		redis:       opts.Redis,
		metrics:     opts.Metrics,
		logger:      opts.Logger,
		sentry:      opts.SentryHub,
		rateLimiter: NewRateLimiter(settings.Burst, settings.RequestsPerSecond, settings.ClientTTL),
		pages:       newPageRenderer(),
	}

	srv.registerMiddlewares()
	srv.registerRoutes()

	return srv, nil
}

// Handler exposes the underlying HTTP handler for wiring into the application.
func (s *Server) Handler() stdhttp.Handler {
	return s.mux
}

// API exposes the underlying Huma API instance.
func (s *Server) API() huma.API {
	return s.api
}

// Close releases background resources held by the server.
func (s *Server) Close() {
	s.rateLimiter.Close()
}

func (s *Server) registerMiddlewares() {
	s.api.UseMiddleware(
		s.sentryMiddleware(),
		s.recoveryMiddleware(),
		s.requestIDMiddleware(),
		s.rateLimitMiddleware(),
		s.authMiddleware(),
		s.loggingMiddleware(),
	)
}

func (s *Server) registerRoutes() {
	s.registerStaticRoute()

	s.registerAuthRoutes()
	s.registerPortfolioRoutes()
	s.registerSlugRoutes()
	s.registerAIRoutes()
	s.registerPublicPageRoute()
	s.registerHealthRoute()
	s.registerMetricsRoute()
}

func (s *Server) ServeHTTP(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	s.mux.ServeHTTP(w, r)
}

// bearerAuth marks an operation as requiring a bearer token in the OpenAPI document.
var bearerAuth = []map[string][]string{{bearerScheme: {}}}
