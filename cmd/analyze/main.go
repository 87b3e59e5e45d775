// Package main provides a one-shot CLI: analyze a single wallet and print
// the result as JSON. Runs without persistence, with a fresh in-memory
// cooldown gate, so it works as a quick inspection tool against live RPC.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"oof-moments/internal/analyzer"
	"oof-moments/internal/chains"
	"oof-moments/internal/config"
	"oof-moments/internal/evm"
	"oof-moments/internal/gate"
	"oof-moments/internal/logger"
	"oof-moments/internal/pricing"
	"oof-moments/internal/solana"
	"oof-moments/internal/storage/memory"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	wallet := flag.String("wallet", "", "Wallet address to analyze (required)")
	chainFilter := flag.String("chains", "", "Comma-separated chains to analyze (default: all configured)")
	timeout := flag.Duration("timeout", 0, "Overall analysis timeout (default: OOF_ANALYSIS_TIMEOUT)")
	baseFromBlock := flag.Int64("base-from-block", 0, "Earliest Base block to scan for transfers")
	avalancheFromBlock := flag.Int64("avalanche-from-block", 0, "Earliest Avalanche block to scan for transfers")
	flag.Parse()

	if err := logger.Init(cfg.LogLevel, cfg.Env); err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if *wallet == "" {
		logger.Fatalw("--wallet is required")
	}
	if cfg.PriceAPIBaseURL == "" {
		logger.Fatalw("OOF_PRICE_API_BASE_URL is required")
	}

	sources := buildSources(cfg, *baseFromBlock, *avalancheFromBlock)
	sources = filterSources(sources, *chainFilter)
	if len(sources) == 0 {
		logger.Fatalw("no chain RPC endpoints configured")
	}

	oracle := pricing.NewHTTPOracle(cfg.PriceAPIBaseURL, pricing.WithAPIKey(cfg.PriceAPIKey))
	g := gate.NewGate(memory.NewRateLimitStore(), gate.WithCooldown(cfg.AnalysisCooldown))

	an, err := analyzer.New(analyzer.Options{
		Sources:      sources,
		Oracle:       oracle,
		Gate:         g,
		ChainTimeout: cfg.ChainTimeout,
	})
	if err != nil {
		logger.Fatalw("failed to create analyzer", "error", err)
	}

	runTimeout := cfg.AnalysisTimeout
	if *timeout > 0 {
		runTimeout = *timeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()

	result, err := an.AnalyzeWallet(ctx, *wallet)
	if err != nil {
		var rateLimited *gate.RateLimitedError
		if errors.As(err, &rateLimited) {
			logger.Fatalw("wallet is rate limited", "nextAllowedTime", rateLimited.NextAllowedTime)
		}
		logger.Fatalw("analysis failed", "error", err)
	}

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		logger.Fatalw("failed to encode result", "error", err)
	}
	fmt.Println(string(out))
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

// filterSources keeps only the chains named in the comma-separated filter.
// An empty filter keeps everything.
func filterSources(sources []chains.Source, filter string) []chains.Source {
	if filter == "" {
		return sources
	}
	wanted := make(map[string]bool)
	for _, name := range strings.Split(filter, ",") {
		wanted[strings.ToLower(strings.TrimSpace(name))] = true
	}
	var kept []chains.Source
	for _, s := range sources {
		if wanted[string(s.Chain())] {
			kept = append(kept, s)
		}
	}
	return kept
}
