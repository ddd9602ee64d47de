package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"coinpulse/internal/bot"
	"coinpulse/internal/cache"
	"coinpulse/internal/config"
	"coinpulse/internal/db"
	"coinpulse/internal/domain"
	"coinpulse/internal/handler"
	"coinpulse/internal/health"
	"coinpulse/internal/job"
	"coinpulse/internal/market"
	"coinpulse/internal/metrics"
	"coinpulse/internal/provider"
	"coinpulse/internal/repository"
	"coinpulse/internal/stream"
	"coinpulse/internal/upstream"
	"coinpulse/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	_ "coinpulse/docs"
)

var (
	loadEnvFunc      = godotenv.Load
	loadConfigFunc   = config.Load
	initPostgresFunc = db.InitPostgres
	initRedisFunc    = cache.InitRedis
	initTracerFunc   = tracing.InitTracer
	newUpstreamFunc  = upstream.NewClient
	newHandlerFunc   = handler.New
	newRouterFunc    = gin.Default
	// startBackgroundFunc runs a long-lived worker until ctx is cancelled.
	startBackgroundFunc    = func(ctx context.Context, name string, run func(context.Context)) { go run(ctx) }
	startBotFunc           = func(b *bot.Bot, token string) { b.Start(token) }
	setupSignalNotify      = signal.Notify
	waitForSignalFunc      = func(quit <-chan os.Signal) { <-quit }
	startHTTPServerFunc    = func(srv *http.Server) error { return srv.ListenAndServe() }
	shutdownHTTPServerFunc = func(srv *http.Server, ctx context.Context) error { return srv.Shutdown(ctx) }
)

// @title           Coinpulse API
// @version         1.0
// @description     Crypto market indicators, exchange tickers and upstream API health.

// @host      localhost:8080
// @BasePath  /
func main() {
	loadEnvFunc()

	cfg := loadConfigFunc()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := initPostgresFunc(ctx, cfg.DatabaseURL); err != nil {
		log.Printf("postgres unavailable, snapshot history disabled: %v", err)
	}
	defer db.Close()

	var redisClient cache.RedisClient
	if cfg.CacheBackend == config.CacheBackendRedis {
		if err := initRedisFunc(ctx, cfg.RedisURL); err != nil {
			log.Printf("redis unavailable, falling back to in-memory cache: %v", err)
		} else if cache.Client != nil {
			redisClient = cache.Client
		}
	}

	tp, tracer, err := initTracerFunc(ctx)
	if err != nil {
		log.Fatalf("failed to initialize tracer: %v", err)
	}
	defer func() {
		if err := tp.Shutdown(ctx); err != nil {
			log.Printf("error shutting down tracer provider: %v", err)
		}
	}()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	client := newUpstreamFunc()
	binance := provider.NewBinanceProvider(tracer, client)
	bitget := provider.NewBitgetProvider(tracer, client)
	coingecko := provider.NewCoinGeckoProvider(tracer, client)
	coinglass := provider.NewCoinGlassProvider(tracer, client, cfg.CoinGlassAPIKey)

	svc := market.NewService(tracer, market.Sources{
		FearGreed: provider.NewFearGreedProvider(tracer, client),
		Dominance: coingecko,
		Tickers: map[string]market.TickerSource{
			domain.ExchangeBinance: binance,
			domain.ExchangeBitget:  bitget,
		},
		Funding: map[string]market.FundingSource{
			domain.ExchangeBinance: binance,
			domain.ExchangeBitget:  bitget,
		},
		Klines:      binance,
		Futures:     binance,
		Aggregate:   coinglass,
		IndexPrices: coingecko,
	}, market.Options{
		TTL:      time.Duration(cfg.CacheTTLSecs) * time.Second,
		Coalesce: cfg.CoalesceFetches,
		Redis:    redisClient,
		Metrics:  m,
	})

	policy, err := market.ParsePolicy(cfg.AggregatorPolicy)
	if err != nil {
		log.Printf("Warning: %v, using %s", err, market.PolicyPartial)
		policy = market.PolicyPartial
	}
	aggregator := market.NewAggregator(tracer, svc, policy, m)

	checker := health.NewChecker(tracer, nil, time.Duration(cfg.HealthTimeoutSecs)*time.Second, health.DefaultEndpoints)
	monitor := health.NewMonitor(tracer, health.DefaultProbes(checker, cfg.CoinGlassAPIKey), cfg.HealthPollSecs, m)
	startBackgroundFunc(ctx, "health-monitor", monitor.Start)

	// Snapshot history needs Postgres; without it the poller only keeps caches warm.
	var store job.SnapshotStore
	var repo *repository.IndicatorRepository
	if db.Pool != nil {
		repo = repository.NewIndicatorRepository(db.Pool, tracer)
		if err := repo.RunMigrations(ctx); err != nil {
			log.Fatalf("failed to run migrations: %v", err)
		}
		store = repo
	}
	poller := job.NewSnapshotPoller(tracer, aggregator, svc, store, cfg.TrackedSymbols, cfg.SnapshotPollSecs)
	startBackgroundFunc(ctx, "snapshot-poller", poller.Start)

	if cfg.StreamEnabled {
		tickers := stream.NewBitgetTickers(cfg.TrackedSymbols, svc.TickerStore(), m)
		startBackgroundFunc(ctx, "bitget-stream", tickers.Start)
	}

	startBotFunc(bot.New(tracer, svc, monitor, cfg.TrackedSymbols), cfg.TelegramBotToken)

	h := newHandlerFunc(tracer, svc, aggregator, monitor, checker)
	if repo != nil {
		h.SetHistory(repo)
	}
	h.SetMetricsHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	h.SetAdminKey(cfg.AdminAPIKey)

	r := newRouterFunc()
	r.Use(otelgin.Middleware(tracing.DefaultServiceName))

	h.RegisterRoutes(r)
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	go func() {
		if err := startHTTPServerFunc(srv); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()
	log.Printf("HTTP server listening on %s", cfg.HTTPAddr)

	quit := make(chan os.Signal, 1)
	setupSignalNotify(quit, syscall.SIGINT, syscall.SIGTERM)
	waitForSignalFunc(quit)
	log.Println("Shutting down server...")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := shutdownHTTPServerFunc(srv, shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exiting")
}
