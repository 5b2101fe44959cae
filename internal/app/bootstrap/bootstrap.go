package bootstrap

import (
	"context"
	"crypto/rand"
	"strings"

	"github.com/getsentry/sentry-go"
	"github.com/redis/go-redis/v9"
	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	dataaccount "folio/app/internal/data/account"
	"folio/app/internal/data/database"
	"folio/app/internal/data/migrations"
	dataportfolio "folio/app/internal/data/portfolio"
	"folio/app/internal/data/usage"
	"folio/app/internal/domain/account"
	"folio/app/internal/domain/ai"
	"folio/app/internal/domain/portfolio"
	"folio/app/internal/infrastructure/llm/openai"
	"folio/app/internal/platform/config"
	"folio/app/internal/platform/metrics"
	presentationhttp "folio/app/internal/presentation/http"
)

const generatedSecretLength = 32

type Dependencies struct {
	Config    config.Config
	Logger    *logrus.Logger
	SentryHub *sentry.Hub
}

type Result struct {
	Portfolios portfolio.Service
	Accounts   *account.Service
	Gateway    *ai.Gateway
	HTTPServer *presentationhttp.Server
	Database   *gorm.DB
	Redis      *redis.Client
	Cleanup    func() error
}

// Build composes the Folio application layers and returns the constructed components.
func Build(ctx context.Context, deps Dependencies) (Result, error) {
	cfg := deps.Config

	db, err := database.Open(database.Options{
		Driver: cfg.DBDriver,
		Path:   cfg.DBPath,
		DSN:    cfg.DatabaseURL,
	})
	if err != nil {
		return Result{}, eris.Wrap(err, "opening database")
	}

	var redisClient *redis.Client

	closeAll := func() error {
		var firstErr error
		if redisClient != nil {
			if err := redisClient.Close(); err != nil {
				firstErr = eris.Wrap(err, "closing redis")
			}
		}
		if err := database.Close(db); err != nil && firstErr == nil {
			firstErr = err
		}
		return firstErr
	}

	closeOnError := func(wrapper error) (Result, error) {
		if closeErr := closeAll(); closeErr != nil && deps.Logger != nil {
			deps.Logger.WithError(closeErr).Error("closing resources after bootstrap failure")
		}
		return Result{}, wrapper
	}

	if err := migrations.Migrate(ctx, db, deps.Logger); err != nil {
		return closeOnError(eris.Wrap(err, "running migrations"))
	}

	recorder := metrics.New()

	accountRepo, err := dataaccount.NewRepository(db, deps.Logger)
	if err != nil {
		return closeOnError(eris.Wrap(err, "creating account repository"))
	}

	portfolioRepo, err := dataportfolio.NewRepository(db, deps.Logger)
	if err != nil {
		return closeOnError(eris.Wrap(err, "creating portfolio repository"))
	}

	usageRepo, err := usage.NewRepository(db, deps.Logger)
	if err != nil {
		return closeOnError(eris.Wrap(err, "creating usage repository"))
	}

	var window *usage.WindowCounter
	if strings.TrimSpace(cfg.RedisURL) != "" {
		redisClient, err = usage.OpenRedis(ctx, cfg.RedisURL)
		if err != nil {
			return closeOnError(eris.Wrap(err, "connecting to redis"))
		}

		window, err = usage.NewWindowCounter(redisClient, ai.RateLimitWindow)
		if err != nil {
			return closeOnError(eris.Wrap(err, "creating usage window"))
		}
	}

	ledger, err := usage.NewLedger(usageRepo, window, deps.Logger)
	if err != nil {
		return closeOnError(eris.Wrap(err, "creating usage ledger"))
	}

	client, err := openai.NewClient(openai.ClientOptions{
		APIKey:  cfg.LLMAPIKey,
		BaseURL: cfg.LLMEndpoint,
		Timeout: cfg.LLMTimeout,
		Logger:  deps.Logger,
	})
	if err != nil {
		return closeOnError(eris.Wrap(err, "creating llm client"))
	}

	generator, err := openai.NewTextGenerator(client)
	if err != nil {
		return closeOnError(eris.Wrap(err, "initialising llm generator"))
	}

	gateway, err := ai.NewGateway(ai.GatewayOptions{
		Generator:   generator,
		Usage:       ledger,
		Model:       cfg.LLMModel,
		HourlyLimit: cfg.AIHourlyLimit,
		Logger:      deps.Logger,
		Hub:         deps.SentryHub,
		Metrics:     recorder,
	})
	if err != nil {
		return closeOnError(eris.Wrap(err, "creating ai gateway"))
	}

	secret, err := tokenSecret(cfg, deps.Logger)
	if err != nil {
		return closeOnError(err)
	}

	accounts, err := account.NewService(account.ServiceOptions{
		Repository: accountRepo,
		Secret:     secret,
		TokenTTL:   cfg.TokenTTL,
		Logger:     deps.Logger,
		Hub:        deps.SentryHub,
	})
	if err != nil {
		return closeOnError(eris.Wrap(err, "creating account service"))
	}

	allocator, err := portfolio.NewSlugAllocator(portfolioRepo, recorder)
	if err != nil {
		return closeOnError(eris.Wrap(err, "creating slug allocator"))
	}

	portfolios, err := portfolio.NewService(portfolioRepo, allocator, deps.Logger, deps.SentryHub)
	if err != nil {
		return closeOnError(eris.Wrap(err, "creating portfolio service"))
	}

	sqlDB, err := database.SQLDB(db)
	if err != nil {
		return closeOnError(err)
	}

	opts := presentationhttp.Options{
		Portfolios: portfolios,
		Accounts:   accounts,
		Gateway:    gateway,
		Database:   sqlDB,
		Metrics:    recorder,
		Logger:     deps.Logger,
		SentryHub:  deps.SentryHub,
		RateLimiter: presentationhttp.RateLimiterSettings{
			Burst:             cfg.RateLimit.Burst,
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			ClientTTL:         cfg.RateLimit.ClientTTL,
		},
	}
	if redisClient != nil {
		opts.Redis = redisClient
	}

	httpServer, err := presentationhttp.NewServer(opts)
	if err != nil {
		return closeOnError(eris.Wrap(err, "initialising http server"))
	}

	cleanup := func() error {
		httpServer.Close()
		return closeAll()
	}

	return Result{
		Portfolios: portfolios,
		Accounts:   accounts,
		Gateway:    gateway,
		HTTPServer: httpServer,
		Database:   db,
		Redis:      redisClient,
		Cleanup:    cleanup,
	}, nil
}

// tokenSecret returns the configured signing secret. Outside development an empty
// secret is an error; in development a random one is generated per process.
func tokenSecret(cfg config.Config, logger *logrus.Logger) ([]byte, error) {
	if cfg.JWTSecret != "" {
		return []byte(cfg.JWTSecret), nil
	}

	if cfg.Environment != "development" {
		return nil, eris.New("JWT_SECRET is required outside development")
	}

	secret := make([]byte, generatedSecretLength)
	if _, err := rand.Read(secret); err != nil {
		return nil, eris.Wrap(err, "generating token secret")
	}

	if logger != nil {
		logger.Warn("JWT_SECRET is not set; tokens will not survive a restart")
	}

	return secret, nil
}
