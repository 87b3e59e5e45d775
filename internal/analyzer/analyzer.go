// Package analyzer orchestrates a full wallet analysis run: gate check,
// parallel per-chain fetch and accounting, candidate selection, scoring
// and optional persistence.
package analyzer

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"oof-moments/internal/chains"
	"oof-moments/internal/classify"
	"oof-moments/internal/domain"
	"oof-moments/internal/gate"
	"oof-moments/internal/logger"
	"oof-moments/internal/moments"
	"oof-moments/internal/normalize"
	"oof-moments/internal/observability"
	"oof-moments/internal/position"
	"oof-moments/internal/pricing"
	"oof-moments/internal/storage"
)

// DefaultChainTimeout bounds each per-chain unit of work.
const DefaultChainTimeout = 45 * time.Second

// Options configures an Analyzer. Sources, Oracle and Gate are required;
// nil stores disable persistence, leaving the analyzer usable as a pure
// library.
type Options struct {
	Sources []chains.Source
	Oracle  pricing.Oracle
	Gate    *gate.Gate

	Thresholds   classify.Thresholds
	ChainTimeout time.Duration

	Results storage.AnalysisResultStore
	Moments storage.MomentStore
	Archive storage.PositionArchiveStore

	Now func() time.Time
}

// Analyzer runs wallet analyses.
type Analyzer struct {
	sources      []chains.Source
	oracle       pricing.Oracle
	gate         *gate.Gate
	thresholds   classify.Thresholds
	chainTimeout time.Duration
	results      storage.AnalysisResultStore
	moments      storage.MomentStore
	archive      storage.PositionArchiveStore
	now          func() time.Time
}

// New creates an Analyzer from options, applying defaults.
func New(opts Options) (*Analyzer, error) {
	if len(opts.Sources) == 0 {
		return nil, errors.New("at least one chain source is required")
	}
	if opts.Oracle == nil {
		return nil, errors.New("oracle is required")
	}
	if opts.Gate == nil {
		return nil, errors.New("gate is required")
	}

	a := &Analyzer{
		sources:      opts.Sources,
		oracle:       opts.Oracle,
		gate:         opts.Gate,
		thresholds:   opts.Thresholds,
		chainTimeout: opts.ChainTimeout,
		results:      opts.Results,
		moments:      opts.Moments,
		archive:      opts.Archive,
		now:          opts.Now,
	}
	if a.thresholds == (classify.Thresholds{}) {
		a.thresholds = classify.DefaultThresholds()
	}
	if a.chainTimeout <= 0 {
		a.chainTimeout = DefaultChainTimeout
	}
	if a.now == nil {
		a.now = time.Now
	}
	return a, nil
}

// chainOutcome is the settled result of one per-chain unit of work.
type chainOutcome struct {
	chain    domain.Chain
	analyses []*domain.TokenPositionAnalysis
	err      error
}

// AnalyzeWallet runs a full analysis for one wallet. It returns
// *gate.RateLimitedError, before any chain work starts, when the wallet is
// cooling down. Chain failures are absorbed: the result covers every chain
// that succeeded, and only when all chains fail is the result marked
// incomplete. The cooldown is recorded when the run concludes, whether or
// not it was complete.
func (a *Analyzer) AnalyzeWallet(ctx context.Context, walletAddress string) (*domain.AnalysisResult, error) {
	if walletAddress == "" {
		return nil, errors.New("wallet address is required")
	}

	decision, err := a.gate.IsAnalysisAllowed(ctx, walletAddress)
	if err != nil {
		return nil, fmt.Errorf("gate check: %w", err)
	}
	if !decision.Allowed {
		observability.RecordRateLimited()
		return nil, &gate.RateLimitedError{
			WalletAddress:   walletAddress,
			NextAllowedTime: decision.NextAllowedTime,
		}
	}

	started := a.now()
	outcomes := a.fanOut(ctx, walletAddress)

	var (
		analyses  []*domain.TokenPositionAnalysis
		succeeded []domain.Chain
		failures  []string
	)
	for _, chain := range domain.AllChains() {
		outcome, ok := outcomes[chain]
		if !ok {
			continue // chain not configured
		}
		if outcome.err != nil {
			logger.Warnw("chain analysis failed",
				"wallet", walletAddress, "chain", chain, "error", outcome.err)
			observability.RecordChainFetch(string(chain), "error")
			failures = append(failures, fmt.Sprintf("%s: %v", chain, outcome.err))
			continue
		}
		observability.RecordChainFetch(string(chain), "ok")
		succeeded = append(succeeded, chain)
		analyses = append(analyses, outcome.analyses...)
	}

	result := &domain.AnalysisResult{
		RunID:         uuid.NewString(),
		WalletAddress: walletAddress,
		AnalyzedAt:    a.now().Unix(),
	}

	if len(succeeded) == 0 {
		result.AnalysisComplete = false
		result.ErrorMessage = "all chains failed: " + strings.Join(failures, "; ")
		observability.RecordRun("failed")
	} else {
		sort.Slice(analyses, func(i, j int) bool {
			if analyses[i].Chain != analyses[j].Chain {
				return analyses[i].Chain < analyses[j].Chain
			}
			return analyses[i].TokenAddress < analyses[j].TokenAddress
		})

		result.ChainsAnalyzed = succeeded
		result.AllPositionAnalyses = analyses
		result.Candidates = moments.SelectCandidates(walletAddress, analyses)
		result.OverallScore = moments.OverallScore(result.Candidates)
		result.AnalysisComplete = true

		observability.RecordRun("complete")
		observability.DefaultMetrics.PositionsAnalyzed.Add(float64(len(analyses)))
		observability.DefaultMetrics.LastSuccessfulAnalysis.SetToCurrentTime()
		for _, c := range result.Candidates {
			observability.RecordCandidate(string(c.Category), string(c.Rarity))
		}
	}
	observability.DefaultMetrics.AnalysisDuration.Observe(a.now().Sub(started).Seconds())

	a.persist(ctx, result)

	// The cooldown starts when the run concludes, even a failed one.
	if err := a.gate.RecordRun(ctx, walletAddress); err != nil {
		logger.Errorw("failed to record analysis run",
			"wallet", walletAddress, "error", err)
	}

	return result, nil
}

// fanOut runs one unit of work per configured chain concurrently and
// joins. Each unit carries its own timeout and panic recovery so no chain
// can take down its siblings.
func (a *Analyzer) fanOut(ctx context.Context, walletAddress string) map[domain.Chain]chainOutcome {
	results := make(chan chainOutcome, len(a.sources))

	var wg sync.WaitGroup
	for _, source := range a.sources {
		wg.Add(1)
		go func(source chains.Source) {
			defer wg.Done()

			chainCtx, cancel := context.WithTimeout(ctx, a.chainTimeout)
			defer cancel()

			outcome := chainOutcome{chain: source.Chain()}
			func() {
				defer func() {
					if r := recover(); r != nil {
						outcome.err = fmt.Errorf("panic: %v", r)
					}
				}()
				outcome.analyses, outcome.err = a.analyzeChain(chainCtx, source, walletAddress)
			}()
			results <- outcome
		}(source)
	}
	wg.Wait()
	close(results)

	outcomes := make(map[domain.Chain]chainOutcome, len(a.sources))
	for outcome := range results {
		outcomes[outcome.chain] = outcome
	}
	return outcomes
}

// analyzeChain fetches, normalizes and accounts one chain's activity. The
// returned error means the whole chain is unavailable; per-token oracle or
// holding misses degrade to zero values instead.
func (a *Analyzer) analyzeChain(ctx context.Context, source chains.Source, walletAddress string) ([]*domain.TokenPositionAnalysis, error) {
	chain := source.Chain()
	started := a.now()
	defer func() {
		observability.DefaultMetrics.ChainFetchDuration.
			WithLabelValues(string(chain)).Observe(a.now().Sub(started).Seconds())
	}()

	events, err := source.FetchTransactions(ctx, walletAddress)
	if err != nil {
		return nil, fmt.Errorf("fetch transactions: %w", err)
	}

	txs := normalize.Normalize(events)
	observability.DefaultMetrics.TransactionsNormalized.
		WithLabelValues(string(chain)).Add(float64(len(txs)))

	byToken := make(map[string][]*domain.TokenTransaction)
	for i := range txs {
		tx := &txs[i]
		byToken[tx.TokenAddress] = append(byToken[tx.TokenAddress], tx)
	}

	tokens := make([]string, 0, len(byToken))
	for token := range byToken {
		tokens = append(tokens, token)
	}
	sort.Strings(tokens)

	var analyses []*domain.TokenPositionAnalysis
	for _, token := range tokens {
		tokenTxs := byToken[token]
		if len(tokenTxs) < position.MinTransactions {
			continue // insufficient signal
		}

		analysis := a.analyzeToken(ctx, source, chain, walletAddress, token, tokenTxs)
		if analysis != nil {
			analyses = append(analyses, analysis)
		}
	}
	return analyses, nil
}

// analyzeToken folds one token's transactions into a classified analysis.
func (a *Analyzer) analyzeToken(ctx context.Context, source chains.Source, chain domain.Chain, walletAddress, token string, txs []*domain.TokenTransaction) *domain.TokenPositionAnalysis {
	holding, err := source.CurrentHolding(ctx, walletAddress, token)
	if err != nil {
		logger.Warnw("holding lookup failed, assuming zero",
			"chain", chain, "token", token, "error", err)
		holding = 0
	}

	prices := position.PriceInfo{}
	lookupStart := a.now()
	if prices.Current, err = a.oracle.CurrentPrice(ctx, chain, token); err != nil {
		logger.Warnw("current price lookup failed, assuming zero",
			"chain", chain, "token", token, "error", err)
		observability.DefaultMetrics.OracleLookupErrors.Inc()
		prices.Current = 0
	}
	observability.DefaultMetrics.OracleLookupDuration.
		WithLabelValues("current_price").Observe(a.now().Sub(lookupStart).Seconds())
	if prices.Peak, err = a.oracle.PeakPrice(ctx, chain, token); err != nil {
		logger.Warnw("peak price lookup failed, assuming zero",
			"chain", chain, "token", token, "error", err)
		observability.DefaultMetrics.OracleLookupErrors.Inc()
		prices.Peak = 0
	}

	meta := position.TokenMeta{}
	if md, err := a.oracle.TokenMetadata(ctx, chain, token); err == nil {
		meta.Symbol = md.Symbol
		meta.Name = md.Name
	}

	analysis := position.Analyze(txs, holding, prices, meta)
	if analysis == nil {
		return nil
	}
	a.thresholds.Apply(analysis)
	return analysis
}

// persist writes the result to whichever stores are configured. Storage
// failures are logged and swallowed: the in-memory result is already the
// caller's answer.
func (a *Analyzer) persist(ctx context.Context, result *domain.AnalysisResult) {
	if a.results != nil {
		if err := a.results.Insert(ctx, result); err != nil {
			logger.Errorw("failed to persist analysis result",
				"runId", result.RunID, "error", err)
		}
	}

	if a.moments != nil {
		for _, m := range result.Candidates {
			err := a.moments.Insert(ctx, result.WalletAddress, m)
			if err != nil && !errors.Is(err, storage.ErrDuplicateKey) {
				logger.Errorw("failed to persist moment",
					"momentId", m.MomentID, "error", err)
			}
		}
	}

	if a.archive != nil && len(result.AllPositionAnalyses) > 0 {
		err := a.archive.InsertBulk(ctx, result.RunID, result.WalletAddress,
			result.AnalyzedAt, result.AllPositionAnalyses)
		if err != nil {
			logger.Errorw("failed to archive position analyses",
				"runId", result.RunID, "error", err)
		}
	}
}
