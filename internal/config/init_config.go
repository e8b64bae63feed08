package config

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"mpp-chat-portal/internal/api"
	"mpp-chat-portal/internal/api/handlers"
	"mpp-chat-portal/internal/auth"
	"mpp-chat-portal/internal/llm"
	"mpp-chat-portal/internal/logging"
	"mpp-chat-portal/internal/ratelimit"
	"mpp-chat-portal/internal/repository"
	"mpp-chat-portal/internal/service"
	"mpp-chat-portal/internal/storage"
	"mpp-chat-portal/internal/suggest"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// ------------------------------------------------------------------------------------------------------
func (c *Config) NewLogger() (*zap.Logger, error) {
	if err := logging.Init(c.LogLevel); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return logging.Logger, nil
}

// ------------------------------------------------------------------------------------------------------
func (c *Config) NewLLMFactory(ctx context.Context) (llm.SessionFactory, error) {
	spec, err := llm.LoadPromptSpec(c.PromptFile)
	if err != nil {
		return nil, err
	}

	switch c.LLMProvider {
	case ProviderGroq:
		return llm.NewGroqFactory(c.GroqAPIKey, c.GroqBaseURL, c.GroqModel, spec), nil
	default:
		return llm.NewGeminiFactory(ctx, c.GeminiAPIKey, c.GeminiModel, spec)
	}
}

// ------------------------------------------------------------------------------------------------------
func (c *Config) NewRateLimiter() *ratelimit.Limiter {
	return ratelimit.New(
		ratelimit.WithLimit(c.RateLimitPerMinute),
		ratelimit.WithWindow(time.Minute),
		ratelimit.WithMinInterval(c.RateLimitInterval),
	)
}

// ------------------------------------------------------------------------------------------------------
// NewTranscriptStore prefers Redis and falls back to process memory. The token cache is nil
// without Redis.
func (c *Config) NewTranscriptStore(ctx context.Context, logger *zap.Logger) (storage.TranscriptStore, storage.TokenCache, func()) {
	redisStore, err := storage.NewRedisStore(ctx, c.RedisAddr, c.RedisPassword, c.TranscriptTTL)
	if err != nil {
		logger.Warn("Failed to connect to Redis, keeping transcripts in memory",
			zap.Error(err),
		)
		return storage.NewMemoryStore(), nil, func() {}
	}

	logger.Info("Connected to Redis", zap.String("addr", c.RedisAddr))
	return redisStore, redisStore, func() {
		if err := redisStore.Close(); err != nil {
			logger.Warn("Failed to close Redis", zap.Error(err))
		}
	}
}

// ------------------------------------------------------------------------------------------------------
func (c *Config) NewTokenCounter(cache storage.TokenCache, logger *zap.Logger) (storage.TokenCounter, error) {
	return storage.NewTokenCounter(cache, c.TokenCacheTTL, logger)
}

// ------------------------------------------------------------------------------------------------------
// NewDatabase connects and migrates. It returns a nil pool when no DATABASE_URL is configured.
func (c *Config) NewDatabase(ctx context.Context, logger *zap.Logger) (*pgxpool.Pool, error) {
	if c.DatabaseURL == "" {
		logger.Warn("DATABASE_URL not set, admin backend and chat logs are disabled")
		return nil, nil
	}

	pool, err := repository.Connect(ctx, c.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if err := repository.Migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}

	logger.Info("Connected to Postgres")
	return pool, nil
}

// ------------------------------------------------------------------------------------------------------
func (c *Config) NewTokenIssuer() *auth.TokenIssuer {
	return auth.NewTokenIssuer(c.JWTSecret, c.SessionDuration)
}

// ------------------------------------------------------------------------------------------------------
// NewChatService wires the chat pipeline. The returned cleanup releases the transcript store.
func (c *Config) NewChatService(ctx context.Context, pool *pgxpool.Pool, metrics *api.Metrics, logger *zap.Logger) (service.ChatService, func(), error) {
	factory, err := c.NewLLMFactory(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create LLM client: %w", err)
	}

	store, cache, cleanup := c.NewTranscriptStore(ctx, logger)

	counter, err := c.NewTokenCounter(cache, logger)
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	opts := []service.ChatOption{
		service.WithObserver(metrics),
		service.WithMaxQueryTokens(c.MaxQueryTokens),
		service.WithIdleTimeout(c.IdleTimeout),
	}
	if pool != nil {
		opts = append(opts,
			service.WithChatLog(repository.NewChatLogRepository(pool)),
			service.WithCatalog(repository.NewAgencyRepository(pool)),
		)
	}

	chatService := service.NewChatService(factory, c.NewRateLimiter(), store, counter, suggest.Default(), logger, opts...)

	return chatService, cleanup, nil
}

// ------------------------------------------------------------------------------------------------------
// NewAdminService returns nil without a database. When ADMIN_USERNAME and ADMIN_PASSWORD are
// set, that account is created if no user exists yet.
func (c *Config) NewAdminService(ctx context.Context, pool *pgxpool.Pool, issuer *auth.TokenIssuer, logger *zap.Logger) (service.AdminService, error) {
	if pool == nil {
		return nil, nil
	}

	adminService := service.NewAdminService(
		repository.NewAgencyRepository(pool),
		repository.NewServiceRepository(pool),
		repository.NewProfileRepository(pool),
		repository.NewUserRepository(pool),
		repository.NewChatLogRepository(pool),
		issuer,
		logger,
	)

	if c.AdminUsername != "" && c.AdminPassword != "" {
		if err := adminService.EnsureAdmin(ctx, c.AdminUsername, c.AdminPassword); err != nil {
			return nil, fmt.Errorf("failed to bootstrap admin user: %w", err)
		}
	}

	return adminService, nil
}

// ------------------------------------------------------------------------------------------------------
func (c *Config) NewHandler(chatService service.ChatService, adminService service.AdminService, metrics *api.Metrics, logger *zap.Logger) *handlers.Handler {
	return handlers.NewHandler(chatService, adminService, metrics, logger)
}

// ------------------------------------------------------------------------------------------------------
func (c *Config) NewRouter(handler *handlers.Handler, metrics *api.Metrics, gatherer prometheus.Gatherer, issuer *auth.TokenIssuer, logger *zap.Logger) http.Handler {
	return api.NewRouter(handler, api.RouterConfig{
		Metrics:        metrics,
		Gatherer:       gatherer,
		Issuer:         issuer,
		AllowedOrigins: c.AllowedOrigins,
	}, logger)
}

// ------------------------------------------------------------------------------------------------------
func (c *Config) NewHTTPServer(router http.Handler) *http.Server {
	return &http.Server{
		Addr:              ":" + c.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}
