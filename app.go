package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-assist/pkg/audit"
	"github.com/ekaya-inc/ekaya-assist/pkg/auth"
	"github.com/ekaya-inc/ekaya-assist/pkg/config"
	"github.com/ekaya-inc/ekaya-assist/pkg/database"
	"github.com/ekaya-inc/ekaya-assist/pkg/datastore"
	"github.com/ekaya-inc/ekaya-assist/pkg/engine"
	"github.com/ekaya-inc/ekaya-assist/pkg/handlers"
	"github.com/ekaya-inc/ekaya-assist/pkg/history"
	"github.com/ekaya-inc/ekaya-assist/pkg/llm"
	mcpserver "github.com/ekaya-inc/ekaya-assist/pkg/mcp"
	mcpauth "github.com/ekaya-inc/ekaya-assist/pkg/mcp/auth"
	"github.com/ekaya-inc/ekaya-assist/pkg/mcp/tools"
	"github.com/ekaya-inc/ekaya-assist/pkg/metrics"
	"github.com/ekaya-inc/ekaya-assist/pkg/middleware"
	"github.com/ekaya-inc/ekaya-assist/pkg/retry"
	"github.com/ekaya-inc/ekaya-assist/pkg/schema"
	"github.com/ekaya-inc/ekaya-assist/pkg/services"
	sqlutil "github.com/ekaya-inc/ekaya-assist/pkg/sql"
)

// app holds the wired components shared by the serve and ask commands.
type app struct {
	cfg       *config.Config
	logger    *zap.Logger
	registry  *prometheus.Registry
	metrics   *metrics.Metrics
	catalog   *schema.KnowledgeBase
	store     datastore.Store
	assistant services.AssistantService
	checks    map[string]handlers.Pinger
	closers   []func()
}

// redisPinger adapts a go-redis client to handlers.Pinger.
type redisPinger struct{ client *redis.Client }

func (p redisPinger) Ping(ctx context.Context) error { return p.client.Ping(ctx).Err() }

// newApp connects the data store and history backend and builds the answer chain.
func newApp(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*app, error) {
	a := &app{
		cfg:      cfg,
		logger:   logger,
		registry: prometheus.NewRegistry(),
		checks:   make(map[string]handlers.Pinger),
	}
	a.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	a.metrics = metrics.New(a.registry)

	ok := false
	defer func() {
		if !ok {
			a.Close()
		}
	}()

	catalog, err := schema.NewDefault()
	if err != nil {
		return nil, fmt.Errorf("failed to load schema catalog: %w", err)
	}
	a.catalog = catalog

	loc, err := cfg.Locale.Location()
	if err != nil {
		return nil, err
	}

	store, err := datastore.Open(ctx, datastore.Config{Driver: cfg.Datastore.Driver, DSN: cfg.Datastore.DSN}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open datastore: %w", err)
	}
	a.store = store
	a.checks["datastore"] = store
	a.closers = append(a.closers, func() {
		if err := store.Close(); err != nil {
			logger.Warn("Failed to close datastore", zap.Error(err))
		}
	})

	auditor := audit.NewSecurityAuditor(logger)
	validator := sqlutil.NewValidator(catalog, logger, sqlutil.WithTenantWarningHook(a.metrics.ObserveTenantScopeWarning))

	provider, err := llm.NewProvider(ctx, llm.ProviderConfig{
		Provider: cfg.AI.Provider,
		Model:    cfg.AI.Model,
		BaseURL:  cfg.AI.BaseURL,
		APIKey:   cfg.AI.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create reasoning provider: %w", err)
	}
	retryCfg := retry.DefaultConfig()
	retryCfg.MaxRetries = cfg.AI.MaxRetries
	reasoner := llm.NewReasoner(provider, logger,
		llm.WithRetry(retryCfg),
		llm.WithCircuitBreaker(llm.NewCircuitBreaker(llm.CircuitBreakerConfig{
			Threshold:  cfg.AI.BreakerThreshold,
			ResetAfter: cfg.AI.BreakerReset,
		})),
		llm.WithMaxTokens(cfg.AI.MaxTokens),
		llm.WithTimeout(cfg.AI.Timeout),
		llm.WithCallObserver(a.metrics.ObserveReasoningCall),
	)

	remote := services.NewRemoteAnswerer(services.RemoteAnswererConfig{
		Generator:           reasoner,
		Schema:              catalog,
		Validator:           validator,
		Store:               store,
		Metrics:             a.metrics,
		Auditor:             auditor,
		GenerateTemperature: cfg.AI.GenerateTemperature,
		NarrateTemperature:  cfg.AI.NarrateTemperature,
	}, logger)
	local := services.NewLocalAnswerer(engine.New(store.Dialect(), loc, logger), validator, store, a.metrics, logger,
		services.WithSecurityAuditor(auditor))

	opts := []services.AssistantOption{services.WithMetrics(a.metrics)}
	historyStore, err := a.openHistory(ctx)
	if err != nil {
		return nil, err
	}
	if historyStore != nil {
		opts = append(opts, services.WithHistory(historyStore, cfg.History.FetchLimit))
	}

	a.assistant = services.NewAssistantService([]services.Answerer{remote, local}, logger, opts...)

	logger.Info("Assistant ready",
		zap.Bool("remote_reasoning", reasoner.Configured()),
		zap.String("provider", cfg.AI.Provider),
		zap.String("datastore", string(store.Dialect())),
		zap.String("history", cfg.History.Backend))

	ok = true
	return a, nil
}

func (a *app) openHistory(ctx context.Context) (history.Store, error) {
	cfg := a.cfg
	switch cfg.History.Backend {
	case config.HistoryNone:
		return nil, nil
	case config.HistoryRedis:
		client, err := database.NewRedisClient(ctx, database.RedisConfig{
			Host:     config.ResolveHostForDocker(cfg.Redis.Host),
			Port:     cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		a.checks["redis"] = redisPinger{client: client}
		a.closers = append(a.closers, func() { _ = client.Close() })
		return history.NewRedisStore(client, cfg.History.TTL, cfg.History.MaxPerThread), nil
	case config.HistoryPostgres:
		url := cfg.Database.ConnectionString()
		if err := database.OpenAndMigrate(url, a.logger); err != nil {
			return nil, err
		}
		db, err := database.NewConnection(ctx, &database.Config{URL: url, MaxConnections: cfg.Database.MaxConnections})
		if err != nil {
			return nil, fmt.Errorf("failed to connect to history database: %w", err)
		}
		a.checks["history_db"] = db.Pool
		a.closers = append(a.closers, db.Close)
		return history.NewPostgresStore(db.Pool), nil
	default:
		return history.NewMemoryStore(cfg.History.MaxPerThread), nil
	}
}

// routes builds the HTTP handler tree.
func (a *app) routes(ctx context.Context) (http.Handler, error) {
	cfg := a.cfg
	logger := a.logger

	jwksClient, err := auth.NewJWKSClient(ctx, &auth.JWKSConfig{
		EnableVerification: cfg.Auth.EnableVerification,
		JWKSEndpoints:      cfg.Auth.JWKSEndpoints,
		Audience:           cfg.Auth.Audience,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize JWKS client: %w", err)
	}
	a.closers = append(a.closers, jwksClient.Close)

	authService := auth.NewAuthService(jwksClient, logger)
	authMiddleware := auth.NewMiddleware(authService, logger)
	authWrap := authMiddleware.OptionalAuth
	mcpAuthWrap := authMiddleware.OptionalAuth
	if cfg.Auth.EnableVerification {
		authWrap = authMiddleware.RequireAuth
		mcpAuthWrap = mcpauth.NewMiddleware(authService, logger).RequireAuth
	}

	limiter := middleware.NewTenantRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)

	mux := http.NewServeMux()
	handlers.NewHealthHandler(cfg, a.checks, logger).RegisterRoutes(mux)
	handlers.NewChatHandler(a.assistant, limiter, a.metrics, logger).RegisterRoutes(mux, authWrap)
	handlers.NewSchemaHandler(a.catalog, logger).RegisterRoutes(mux, authWrap)
	mux.Handle("GET /metrics", promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{}))

	toolChecks := make(map[string]tools.Pinger, len(a.checks))
	for name, p := range a.checks {
		toolChecks[name] = p
	}
	toolAudit := mcpserver.NewAuditLogger(logger)
	mcpSrv := mcpserver.NewServer("ekaya-assist", cfg.Version, toolAudit.Hooks(), logger)
	tools.RegisterAskTool(mcpSrv.MCP(), &tools.AskToolDeps{
		Assistant: a.assistant,
		Limiter:   limiter,
		Metrics:   a.metrics,
		Logger:    logger,
	})
	tools.RegisterSchemaTool(mcpSrv.MCP(), a.catalog)
	tools.RegisterHealthTool(mcpSrv.MCP(), cfg.Version, toolChecks)
	mux.Handle("/mcp", middleware.MCPRequestLogger(logger)(mcpAuthWrap(mcpSrv.NewStreamableHTTPServer())))

	return middleware.RequestLogger(logger)(mux), nil
}

// Close releases connections in reverse order of acquisition.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
