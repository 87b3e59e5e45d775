package analyzer

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"oof-moments/internal/chains"
	chainstub "oof-moments/internal/chains/stub"
	"oof-moments/internal/domain"
	"oof-moments/internal/gate"
	pricingstub "oof-moments/internal/pricing/stub"
	"oof-moments/internal/storage"
	"oof-moments/internal/storage/memory"
)

const (
	testWallet = "WalletAddr111"
	tknMint    = "TknMint111"
	usdcMint   = "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"
)

type testStores struct {
	rateLimit *memory.RateLimitStore
	results   *memory.AnalysisResultStore
	moments   *memory.MomentStore
	archive   *memory.PositionArchiveStore
}

func newTestStores() *testStores {
	return &testStores{
		rateLimit: memory.NewRateLimitStore(),
		results:   memory.NewAnalysisResultStore(),
		moments:   memory.NewMomentStore(),
		archive:   memory.NewPositionArchiveStore(),
	}
}

func newTestAnalyzer(t *testing.T, stores *testStores, oracle *pricingstub.StubOracle, sources ...chains.Source) *Analyzer {
	t.Helper()
	a, err := New(Options{
		Sources: sources,
		Oracle:  oracle,
		Gate:    gate.NewGate(stores.rateLimit),
		Results: stores.results,
		Moments: stores.moments,
		Archive: stores.archive,
	})
	if err != nil {
		t.Fatalf("create analyzer: %v", err)
	}
	return a
}

// tradedSolanaSource returns a stub source where the wallet bought 1000 TKN
// for 50 USDC, then sold them all back for 20 USDC, and still holds 500
// more from elsewhere.
func tradedSolanaSource() *chainstub.StubSource {
	src := chainstub.NewStubSource(domain.ChainSolana)
	src.AddEvents(testWallet,
		chains.SolanaRawEvent{
			Signature: "sig-buy",
			BlockTime: 1700000100,
			Legs: []chains.TokenLeg{
				{TokenAddress: usdcMint, Delta: -50},
				{TokenAddress: tknMint, Delta: 1000},
			},
		},
		chains.SolanaRawEvent{
			Signature: "sig-sell",
			BlockTime: 1700000200,
			Legs: []chains.TokenLeg{
				{TokenAddress: usdcMint, Delta: 20},
				{TokenAddress: tknMint, Delta: -1000},
			},
		},
	)
	src.SetHolding(testWallet, tknMint, 500)
	return src
}

func TestAnalyzeWallet_FullRun(t *testing.T) {
	stores := newTestStores()
	oracle := pricingstub.NewStubOracle()
	oracle.SetPrices(domain.ChainSolana, tknMint, 0.2, 1.0)
	oracle.SetMetadata(domain.ChainSolana, tknMint, "TKN", "Test Token")

	a := newTestAnalyzer(t, stores, oracle, tradedSolanaSource())

	result, err := a.AnalyzeWallet(context.Background(), testWallet)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}

	if !result.AnalysisComplete {
		t.Fatalf("expected complete analysis: %+v", result)
	}
	if result.RunID == "" {
		t.Error("expected a run ID")
	}
	if len(result.ChainsAnalyzed) != 1 || result.ChainsAnalyzed[0] != domain.ChainSolana {
		t.Errorf("chainsAnalyzed = %v", result.ChainsAnalyzed)
	}
	// Both TKN and the USDC quote legs have two transactions each.
	if len(result.AllPositionAnalyses) != 2 {
		t.Fatalf("expected 2 positions, got %d", len(result.AllPositionAnalyses))
	}

	// TKN: bought at $0.05, sold at $0.02, peak $1.00, still holding 500
	// at $0.20.
	var tkn *domain.TokenPositionAnalysis
	for _, p := range result.AllPositionAnalyses {
		if p.TokenAddress == tknMint {
			tkn = p
		}
	}
	if tkn == nil {
		t.Fatal("TKN position missing")
	}
	if tkn.Symbol != "TKN" || tkn.Name != "Test Token" {
		t.Errorf("metadata not applied: %+v", tkn)
	}
	if math.Abs(tkn.RealizedPnL-(-30)) > 1e-9 {
		t.Errorf("realizedPnL = %f, want -30", tkn.RealizedPnL)
	}
	if math.Abs(tkn.MissedOpportunityMultiplier-50) > 1e-9 {
		t.Errorf("multiplier = %f, want 50", tkn.MissedOpportunityMultiplier)
	}
	if !tkn.IsGain || !tkn.IsPaperHands || tkn.IsDust {
		t.Errorf("flags = gain:%v dust:%v paper:%v", tkn.IsGain, tkn.IsDust, tkn.IsPaperHands)
	}

	// max_gains and lost_opportunities go to TKN, dusts to the leftover
	// USDC position.
	if gain := result.Candidate(domain.CategoryMaxGains); gain == nil || gain.Analysis.TokenAddress != tknMint {
		t.Errorf("max_gains candidate = %+v", gain)
	}
	if lost := result.Candidate(domain.CategoryLostOpportunities); lost == nil || lost.Rarity != domain.RarityLegendary {
		t.Errorf("lost_opportunities candidate = %+v", lost)
	}
	if dust := result.Candidate(domain.CategoryDusts); dust == nil || dust.Analysis.TokenAddress != usdcMint {
		t.Errorf("dusts candidate = %+v", dust)
	}
	if result.OverallScore <= 0 {
		t.Errorf("overallScore = %f", result.OverallScore)
	}

	// Persistence side effects.
	stored, err := stores.results.GetLatestByWallet(context.Background(), testWallet)
	if err != nil {
		t.Fatalf("stored result: %v", err)
	}
	if stored.RunID != result.RunID {
		t.Errorf("stored run %s, want %s", stored.RunID, result.RunID)
	}
	moments, err := stores.moments.GetByWallet(context.Background(), testWallet)
	if err != nil {
		t.Fatalf("stored moments: %v", err)
	}
	if len(moments) != len(result.Candidates) {
		t.Errorf("stored %d moments, want %d", len(moments), len(result.Candidates))
	}
	archived, err := stores.archive.GetByWallet(context.Background(), testWallet)
	if err != nil {
		t.Fatalf("archive: %v", err)
	}
	if len(archived) != 2 {
		t.Errorf("archived %d positions, want 2", len(archived))
	}
}

func TestAnalyzeWallet_PartialChainFailure(t *testing.T) {
	stores := newTestStores()
	oracle := pricingstub.NewStubOracle()

	base := chainstub.NewStubSource(domain.ChainBase)
	base.Fail(errors.New("rpc timeout"))

	a := newTestAnalyzer(t, stores, oracle, tradedSolanaSource(), base)

	result, err := a.AnalyzeWallet(context.Background(), testWallet)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}

	if !result.AnalysisComplete {
		t.Error("one healthy chain must keep the run complete")
	}
	if result.ErrorMessage != "" {
		t.Errorf("unexpected error message %q", result.ErrorMessage)
	}
	if len(result.ChainsAnalyzed) != 1 || result.ChainsAnalyzed[0] != domain.ChainSolana {
		t.Errorf("chainsAnalyzed = %v", result.ChainsAnalyzed)
	}
}

func TestAnalyzeWallet_AllChainsFailed(t *testing.T) {
	stores := newTestStores()
	oracle := pricingstub.NewStubOracle()

	solanaSrc := chainstub.NewStubSource(domain.ChainSolana)
	solanaSrc.Fail(errors.New("rpc down"))
	base := chainstub.NewStubSource(domain.ChainBase)
	base.Fail(errors.New("rpc down"))

	a := newTestAnalyzer(t, stores, oracle, solanaSrc, base)

	result, err := a.AnalyzeWallet(context.Background(), testWallet)
	if err != nil {
		t.Fatalf("all-chains failure is not a call error: %v", err)
	}

	if result.AnalysisComplete {
		t.Error("expected incomplete analysis")
	}
	if result.ErrorMessage == "" {
		t.Error("expected an error message")
	}
	if len(result.Candidates) != 0 {
		t.Errorf("expected no candidates, got %d", len(result.Candidates))
	}

	// Even a failed run starts the cooldown.
	_, err = a.AnalyzeWallet(context.Background(), testWallet)
	var rateLimited *gate.RateLimitedError
	if !errors.As(err, &rateLimited) {
		t.Fatalf("expected rate limit after failed run, got %v", err)
	}
}

func TestAnalyzeWallet_RateLimited(t *testing.T) {
	stores := newTestStores()
	oracle := pricingstub.NewStubOracle()
	a := newTestAnalyzer(t, stores, oracle, tradedSolanaSource())

	if _, err := a.AnalyzeWallet(context.Background(), testWallet); err != nil {
		t.Fatalf("first run: %v", err)
	}

	_, err := a.AnalyzeWallet(context.Background(), testWallet)
	var rateLimited *gate.RateLimitedError
	if !errors.As(err, &rateLimited) {
		t.Fatalf("expected *gate.RateLimitedError, got %v", err)
	}
	if rateLimited.WalletAddress != testWallet {
		t.Errorf("wallet = %s", rateLimited.WalletAddress)
	}
	if rateLimited.NextAllowedTime.Before(time.Now()) {
		t.Errorf("nextAllowedTime %v is in the past", rateLimited.NextAllowedTime)
	}

	// A different wallet is unaffected.
	if _, err := a.AnalyzeWallet(context.Background(), "OtherWallet222"); err != nil {
		t.Errorf("other wallet blocked: %v", err)
	}
}

func TestAnalyzeWallet_MinTransactionsFilter(t *testing.T) {
	stores := newTestStores()
	oracle := pricingstub.NewStubOracle()

	src := chainstub.NewStubSource(domain.ChainSolana)
	src.AddEvents(testWallet, chains.SolanaRawEvent{
		Signature: "sig-1",
		BlockTime: 1700000100,
		Legs:      []chains.TokenLeg{{TokenAddress: tknMint, Delta: 10}},
	})

	a := newTestAnalyzer(t, stores, oracle, src)

	result, err := a.AnalyzeWallet(context.Background(), testWallet)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if !result.AnalysisComplete {
		t.Error("expected complete analysis")
	}
	if len(result.AllPositionAnalyses) != 0 {
		t.Errorf("single-transaction token must be filtered, got %d positions", len(result.AllPositionAnalyses))
	}
}

func TestAnalyzeWallet_NoActivity(t *testing.T) {
	stores := newTestStores()
	oracle := pricingstub.NewStubOracle()
	a := newTestAnalyzer(t, stores, oracle, chainstub.NewStubSource(domain.ChainSolana))

	result, err := a.AnalyzeWallet(context.Background(), testWallet)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	// Fewer than 3 candidates is a valid, non-error outcome.
	if !result.AnalysisComplete {
		t.Error("expected complete analysis for an idle wallet")
	}
	if len(result.Candidates) != 0 {
		t.Errorf("expected no candidates, got %d", len(result.Candidates))
	}
	if result.OverallScore != 0 {
		t.Errorf("overallScore = %f, want 0", result.OverallScore)
	}
}

func TestAnalyzeWallet_OracleOutageDegrades(t *testing.T) {
	stores := newTestStores()
	oracle := pricingstub.NewStubOracle()
	oracle.Fail(errors.New("oracle down"))

	a := newTestAnalyzer(t, stores, oracle, tradedSolanaSource())

	result, err := a.AnalyzeWallet(context.Background(), testWallet)
	if err != nil {
		t.Fatalf("oracle outage must not fail the run: %v", err)
	}
	if !result.AnalysisComplete {
		t.Error("expected complete analysis")
	}

	for _, p := range result.AllPositionAnalyses {
		if p.TokenAddress == tknMint && p.CurrentPrice != 0 {
			t.Errorf("expected zero-price degradation, got %f", p.CurrentPrice)
		}
	}
}

func TestAnalyzeWallet_EmptyWallet(t *testing.T) {
	stores := newTestStores()
	a := newTestAnalyzer(t, stores, pricingstub.NewStubOracle(), chainstub.NewStubSource(domain.ChainSolana))

	if _, err := a.AnalyzeWallet(context.Background(), ""); err == nil {
		t.Error("expected error for empty wallet address")
	}
}

func TestNew_Validation(t *testing.T) {
	stores := newTestStores()
	g := gate.NewGate(stores.rateLimit)
	oracle := pricingstub.NewStubOracle()
	src := chainstub.NewStubSource(domain.ChainSolana)

	if _, err := New(Options{Oracle: oracle, Gate: g}); err == nil {
		t.Error("expected error without sources")
	}
	if _, err := New(Options{Sources: []chains.Source{src}, Gate: g}); err == nil {
		t.Error("expected error without oracle")
	}
	if _, err := New(Options{Sources: []chains.Source{src}, Oracle: oracle}); err == nil {
		t.Error("expected error without gate")
	}
}

// Interface assertion: memory stores satisfy the analyzer's needs.
var (
	_ storage.AnalysisResultStore  = (*memory.AnalysisResultStore)(nil)
	_ storage.MomentStore          = (*memory.MomentStore)(nil)
	_ storage.PositionArchiveStore = (*memory.PositionArchiveStore)(nil)
)
