package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"LeadScanner/internal/config"
	"LeadScanner/internal/enricher"
	"LeadScanner/internal/extractor"
	"LeadScanner/internal/httpapi"
	"LeadScanner/internal/infrastructure/cache"
	"LeadScanner/internal/infrastructure/llm"
	"LeadScanner/internal/infrastructure/search"
	"LeadScanner/internal/infrastructure/sources"
	"LeadScanner/internal/infrastructure/storage"
	"LeadScanner/internal/infrastructure/telegram"
	"LeadScanner/internal/logging"
	"LeadScanner/internal/metrics"
	"LeadScanner/internal/ports"
	"LeadScanner/internal/resolver"
	"LeadScanner/internal/scanner"
	"LeadScanner/internal/usecase"
)

const shutdownTimeout = 10 * time.Second

// Application wires configs to use cases and owns the external connections.
type Application struct {
	cfg      config.Config
	logger   *slog.Logger
	pipeline *usecase.Pipeline
	leads    ports.LeadReader
	registry *prometheus.Registry

	db    *sql.DB
	redis *redis.Client
}

// New builds the application. Optional adapters (Postgres, Redis, ChatGPT,
// Telegram) stay disabled when their settings are empty.
func New(cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level, cfg.Logging.Format)
	}

	a := &Application{cfg: cfg, logger: baseLogger, registry: prometheus.NewRegistry()}
	a.registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	recorder := metrics.New(a.registry)

	engine := search.NewClient(cfg.Search.Endpoint, nil, cfg.Search.Interval)

	registry := scanner.NewRegistry()
	registry.Register(sources.NewFeedScanner(nil, baseLogger.With("component", "scanner.feed")))
	registry.Register(sources.NewListingScanner(nil, baseLogger.With("component", "scanner.listing")))
	registry.Register(sources.NewNewsSearchScanner(nil, baseLogger.With("component", "scanner.news_search")))
	registry.Register(sources.NewWebSearchScanner(engine, baseLogger.With("component", "scanner.web_search")))

	source := sources.NewStrategySource(registry, cfg.Sites, baseLogger.With("component", "source"))

	var resolutionCache ports.ResolutionCache
	if cfg.Redis.Addr != "" {
		a.redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		resolutionCache = cache.NewRedisCache(a.redis, cfg.Redis.TTL, cfg.Redis.Prefix, baseLogger.With("component", "cache"))
	}

	res := resolver.New(engine, resolutionCache, baseLogger.With("component", "resolver"))
	contentEnricher := enricher.New(res, nil, enricher.Config{ResolveTimeout: cfg.Pipeline.ResolveTimeout}, baseLogger.With("component", "enricher"))

	deps := usecase.PipelineDeps{
		Profile:  extractor.NewStaticProfile(cfg.Knowledge),
		Source:   source,
		Enricher: contentEnricher,
		Observer: recorder,
		Logger:   baseLogger.With("component", "pipeline"),
	}

	if cfg.ChatGPT.APIKey != "" {
		deps.Generator = llm.NewChatGPTClient(cfg.ChatGPT, nil)
	} else {
		baseLogger.Warn("chatgpt api key is empty, every run uses the heuristic extractor")
	}

	if cfg.Database.DSN != "" {
		db, err := sql.Open("postgres", cfg.Database.DSN)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("open database: %w", err)
		}
		a.db = db
		repo := storage.NewPostgresRepository(db)
		deps.Repository = repo
		a.leads = repo
	}

	if cfg.Telegram.BotToken != "" && cfg.Telegram.ChatID != "" {
		deps.Notifier = telegram.NewNotifier(cfg.Telegram, nil)
	}

	a.pipeline = usecase.NewPipeline(deps)
	return a, nil
}

// Run performs one discovery with the configured defaults merged with overrides.
func (a *Application) Run(ctx context.Context, req usecase.Request) (usecase.Result, error) {
	return a.pipeline.Run(ctx, req)
}

// DefaultRequest returns the run parameters from configuration.
func (a *Application) DefaultRequest() usecase.Request {
	return a.cfg.PipelineRequest()
}

// Serve exposes the pipeline over HTTP until ctx is cancelled.
func (a *Application) Serve(ctx context.Context) error {
	handler := httpapi.NewHandler(a.pipeline, a.DefaultRequest(), a.leads, a.logger.With("component", "http"))
	server := httpapi.NewServer(handler, promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{}))

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("http server listening", "addr", a.cfg.HTTP.Addr)
		errCh <- server.Start(a.cfg.HTTP.Addr)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	a.logger.Info("http server shutting down")
	return server.Shutdown(shutdownCtx)
}

// Close releases database and cache connections.
func (a *Application) Close() {
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Warn("close database", "error", err)
		}
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Warn("close redis", "error", err)
		}
	}
}
