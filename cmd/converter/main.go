package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm/logger"

	"github.com/pysugar/code-converter/internal/config"
	"github.com/pysugar/code-converter/internal/converter"
	"github.com/pysugar/code-converter/internal/history"
	"github.com/pysugar/code-converter/internal/logging"
	"github.com/pysugar/code-converter/internal/observability"
	"github.com/pysugar/code-converter/internal/proxy"
	"github.com/pysugar/code-converter/internal/ratelimit"
	"github.com/pysugar/code-converter/internal/upstream/openaicompat"
	"github.com/pysugar/code-converter/internal/version"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.Fatalf("Invalid LOG_LEVEL: %v", err)
	}
	logging.SetLevel(level)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := history.Open(ctx, cfg.DatabaseURL, gormLogLevel(level))
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	log.Printf("✅ Database connection established")

	metrics := observability.NewMetrics(cfg.MetricsNamespace)
	recorder := history.NewRecorder(store, cfg.HistoryQueueSize,
		history.WithSync(cfg.PersistSync),
		history.WithMetrics(metrics),
	)

	limiter := ratelimit.New(cfg.MaxRequestsPerMin, cfg.RateLimitWindow,
		ratelimit.WithMaxClients(cfg.RateLimitMaxClients),
	)
	limiter.StartJanitor(ctx, cfg.RateLimitSweepEvery)

	var (
		stats      ratelimit.StatsStore
		asyncStats *ratelimit.AsyncStats
		rdb        *redis.Client
	)
	if cfg.RateLimitStatsRedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.RateLimitStatsRedisAddr,
			Password: cfg.RateLimitStatsRedisPassword,
			DB:       cfg.RateLimitStatsRedisDB,
			// Stats are disposable; fail fast rather than retry.
			DialTimeout:           time.Second,
			ReadTimeout:           200 * time.Millisecond,
			WriteTimeout:          200 * time.Millisecond,
			MaxRetries:            -1,
			ContextTimeoutEnabled: true,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			log.Printf("⚠️ Redis stats at %s unreachable, decisions will be dropped until it is: %v", cfg.RateLimitStatsRedisAddr, err)
		}
		cancel()
		asyncStats = ratelimit.NewAsyncStats(
			ratelimit.NewRedisStatsStore(rdb, ratelimit.WithStatsPrefix(cfg.RateLimitStatsPrefix)),
			1024,
			250*time.Millisecond,
		)
		stats = asyncStats
	}

	provider := openaicompat.NewProvider(openaicompat.Config{
		APIKey:  cfg.OpenAIAPIKey,
		BaseURL: cfg.OpenAIBaseURL,
		Timeout: cfg.OpenAITimeout,
	})
	if !provider.IsEnabled() {
		log.Printf("⚠️ OPENAI_API_KEY is not set; conversions will fail until it is configured")
	}
	svc := converter.NewService(provider, converter.Options{
		Model:       cfg.OpenAIModel,
		Temperature: cfg.OpenAITemperature,
		MaxTokens:   cfg.OpenAIMaxTokens,
		Metrics:     metrics,
	})

	router := proxy.NewRouter(proxy.Deps{
		Service:        svc,
		Store:          store,
		Recorder:       recorder,
		Limiter:        limiter,
		Stats:          stats,
		Metrics:        metrics,
		CORSOrigin:     cfg.CORSOrigin,
		TrustProxy:     cfg.TrustProxy,
		LogRequests:    cfg.LogRequests,
		MaxCodeLength:  cfg.MaxCodeLength,
		RequestTimeout: cfg.RequestTimeout,
		Started:        time.Now(),
		Version:        version.Version,
	})

	server := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("🚀 Converter %s listening on http://%s", version.String(), cfg.Addr())
		log.Printf("🔗 Health: http://%s/api/health", cfg.Addr())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	<-ctx.Done()
	log.Printf("🔄 Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("⚠️ HTTP shutdown: %v", err)
	}
	if err := recorder.Close(shutdownCtx); err != nil {
		log.Printf("⚠️ History queue not fully drained: %v", err)
	}
	if err := store.Close(); err != nil {
		log.Printf("⚠️ Closing database: %v", err)
	}
	if asyncStats != nil {
		if err := asyncStats.Close(shutdownCtx); err != nil {
			log.Printf("⚠️ Rate limit stats not fully drained: %v", err)
		}
		if n := asyncStats.Dropped(); n > 0 {
			log.Printf("⚠️ %d rate limit stats events were dropped", n)
		}
	}
	if rdb != nil {
		if err := rdb.Close(); err != nil {
			log.Printf("⚠️ Closing redis: %v", err)
		}
	}
	log.Printf("✅ Server stopped")
}

func gormLogLevel(l logging.Level) logger.LogLevel {
	switch l {
	case logging.LevelDebug:
		return logger.Info
	case logging.LevelInfo, logging.LevelWarn:
		return logger.Warn
	case logging.LevelError:
		return logger.Error
	default:
		return logger.Silent
	}
}
