// Package main provides the analysis HTTP service: wallet analysis on
// demand behind the cooldown gate, result retrieval, health and metrics.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"oof-moments/internal/analyzer"
	"oof-moments/internal/chains"
	"oof-moments/internal/config"
	"oof-moments/internal/evm"
	"oof-moments/internal/gate"
	"oof-moments/internal/logger"
	"oof-moments/internal/observability"
	"oof-moments/internal/pricing"
	"oof-moments/internal/solana"
	"oof-moments/internal/storage"
	chstore "oof-moments/internal/storage/clickhouse"
	"oof-moments/internal/storage/memory"
	"oof-moments/internal/storage/migrations"
	pgstore "oof-moments/internal/storage/postgres"
	redisstore "oof-moments/internal/storage/redis"
)

// allStores holds the storage implementations the service wires together.
type allStores struct {
	rateLimitStore storage.RateLimitStore
	resultStore    storage.AnalysisResultStore
	momentStore    storage.MomentStore
	archiveStore   storage.PositionArchiveStore
}

func main() {
	// Load .env file if exists.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	// Flags override environment configuration.
	listenAddr := flag.String("listen-addr", cfg.ListenAddr, "HTTP listen address")
	metricsAddr := flag.String("metrics-addr", cfg.MetricsAddr, "Prometheus metrics HTTP address")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage instead of PostgreSQL/ClickHouse/Redis")
	baseFromBlock := flag.Int64("base-from-block", 0, "Earliest Base block to scan for transfers")
	avalancheFromBlock := flag.Int64("avalanche-from-block", 0, "Earliest Avalanche block to scan for transfers")
	flag.Parse()

	if err := logger.Init(cfg.LogLevel, cfg.Env); err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if cfg.PriceAPIBaseURL == "" {
		logger.Fatalw("OOF_PRICE_API_BASE_URL is required")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	sources := buildSources(cfg, *baseFromBlock, *avalancheFromBlock)
	if len(sources) == 0 {
		logger.Fatalw("no chain RPC endpoints configured")
	}

	stores, cleanup, err := createStores(ctx, cfg, *useMemory)
	if err != nil {
		logger.Fatalw("failed to create stores", "error", err)
	}
	defer cleanup()

	oracle, closeOracle, err := buildOracle(ctx, cfg)
	if err != nil {
		logger.Fatalw("failed to create price oracle", "error", err)
	}
	defer closeOracle()

	g := gate.NewGate(stores.rateLimitStore, gate.WithCooldown(cfg.AnalysisCooldown))

	an, err := analyzer.New(analyzer.Options{
		Sources:      sources,
		Oracle:       oracle,
		Gate:         g,
		ChainTimeout: cfg.ChainTimeout,
		Results:      stores.resultStore,
		Moments:      stores.momentStore,
		Archive:      stores.archiveStore,
	})
	if err != nil {
		logger.Fatalw("failed to create analyzer", "error", err)
	}

	srv := &server{
		analyzer:        an,
		resultStore:     stores.resultStore,
		momentStore:     stores.momentStore,
		analysisTimeout: cfg.AnalysisTimeout,
	}

	// Metrics endpoint on its own listener.
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", observability.Handler())
		if err := http.ListenAndServe(*metricsAddr, mux); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Errorw("metrics server failed", "error", err)
		}
	}()

	httpServer := &http.Server{
		Addr:    *listenAddr,
		Handler: srv.routes(),
	}

	go func() {
		<-ctx.Done()
		logger.Infow("shutting down")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Errorw("http shutdown failed", "error", err)
		}
	}()

	logger.Infow("analysis service listening", "addr", *listenAddr, "chains", len(sources))
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatalw("http server failed", "error", err)
	}
	logger.Infow("shutdown complete")
}

// buildSources creates one chain source per configured RPC endpoint.
func buildSources(cfg *config.Config, baseFromBlock, avalancheFromBlock int64) []chains.Source {
	var sources []chains.Source
	if cfg.SolanaRPCEndpoint != "" {
		rpc := solana.NewHTTPClient(cfg.SolanaRPCEndpoint)
		sources = append(sources, chains.NewSolanaSource(rpc))
	}
	if cfg.BaseRPCEndpoint != "" {
		client := evm.NewClient(cfg.BaseRPCEndpoint)
		sources = append(sources, chains.NewBaseSource(client, baseFromBlock))
	}
	if cfg.AvalancheRPCEndpoint != "" {
		client := evm.NewClient(cfg.AvalancheRPCEndpoint)
		sources = append(sources, chains.NewAvalancheSource(client, avalancheFromBlock))
	}
	return sources
}

// buildOracle creates the REST oracle, optionally fronted by the WebSocket
// price feed cache.
func buildOracle(ctx context.Context, cfg *config.Config) (pricing.Oracle, func(), error) {
	rest := pricing.NewHTTPOracle(cfg.PriceAPIBaseURL, pricing.WithAPIKey(cfg.PriceAPIKey))
	if cfg.PriceWSEndpoint == "" {
		return rest, func() {}, nil
	}

	feed, err := pricing.NewFeedCache(ctx, rest, cfg.PriceWSEndpoint, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("connect price feed: %w", err)
	}
	return feed, func() { feed.Close() }, nil
}

// createStores creates all required stores, running migrations for the
// database-backed ones.
func createStores(ctx context.Context, cfg *config.Config, useMemory bool) (*allStores, func(), error) {
	if useMemory {
		stores := &allStores{
			rateLimitStore: memory.NewRateLimitStore(),
			resultStore:    memory.NewAnalysisResultStore(),
			momentStore:    memory.NewMomentStore(),
			archiveStore:   memory.NewPositionArchiveStore(),
		}
		return stores, func() {}, nil
	}

	if cfg.PostgresDSN == "" {
		return nil, nil, fmt.Errorf("OOF_POSTGRES_DSN is required (use --use-memory for in-memory storage)")
	}

	pool, err := pgstore.NewPool(ctx, cfg.PostgresDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("run postgres migrations: %w", err)
	}

	stores := &allStores{
		rateLimitStore: pgstore.NewRateLimitStore(pool),
		resultStore:    pgstore.NewAnalysisResultStore(pool),
		momentStore:    pgstore.NewMomentStore(pool),
	}
	cleanups := []func(){pool.Close}

	// Redis, when configured, takes over cooldown records so they expire
	// on their own.
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := client.Ping(ctx).Err(); err != nil {
			runCleanups(cleanups)
			return nil, nil, fmt.Errorf("connect to redis: %w", err)
		}
		stores.rateLimitStore = redisstore.NewRateLimitStore(client, cfg.AnalysisCooldown)
		cleanups = append(cleanups, func() { client.Close() })
	}

	// ClickHouse, when configured, receives the per-run position archive.
	if cfg.ClickhouseDSN != "" {
		conn, err := migrations.RunClickhouseMigrations(ctx, cfg.ClickhouseDSN)
		if err != nil {
			runCleanups(cleanups)
			return nil, nil, fmt.Errorf("run clickhouse migrations: %w", err)
		}
		stores.archiveStore = chstore.NewPositionArchiveStore(conn)
		cleanups = append(cleanups, func() { conn.Close() })
	}

	return stores, func() { runCleanups(cleanups) }, nil
}

func runCleanups(cleanups []func()) {
	for i := len(cleanups) - 1; i >= 0; i-- {
		cleanups[i]()
	}
}
