package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"oof-moments/internal/domain"
	"oof-moments/internal/storage"
)

func TestRateLimitStore_RoundTrip(t *testing.T) {
	store := NewRateLimitStore()
	ctx := context.Background()

	_, err := store.GetLastAnalysisTime(ctx, "wallet1")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	at := time.Unix(1700000000, 0)
	if err := store.SetLastAnalysisTime(ctx, "wallet1", at); err != nil {
		t.Fatalf("set: %v", err)
	}

	got, err := store.GetLastAnalysisTime(ctx, "wallet1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !got.Equal(at) {
		t.Errorf("got %v, want %v", got, at)
	}

	// Overwrite moves the record forward.
	later := at.Add(time.Hour)
	if err := store.SetLastAnalysisTime(ctx, "wallet1", later); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	got, _ = store.GetLastAnalysisTime(ctx, "wallet1")
	if !got.Equal(later) {
		t.Errorf("got %v, want %v", got, later)
	}
}

func TestRateLimitStore_InvalidInput(t *testing.T) {
	store := NewRateLimitStore()
	ctx := context.Background()

	if err := store.SetLastAnalysisTime(ctx, "", time.Now()); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}

func testResult(runID, wallet string) *domain.AnalysisResult {
	return &domain.AnalysisResult{
		RunID:            runID,
		WalletAddress:    wallet,
		ChainsAnalyzed:   []domain.Chain{domain.ChainSolana},
		AnalysisComplete: true,
		AnalyzedAt:       1700000000,
		AllPositionAnalyses: []*domain.TokenPositionAnalysis{
			{TokenAddress: "Mint1", Chain: domain.ChainSolana, RealizedPnL: 10},
		},
		Candidates: []*domain.MomentCandidate{
			{MomentID: runID + "-m", Category: domain.CategoryMaxGains, OofScore: 10,
				Rarity: domain.RarityRare, Analysis: &domain.TokenPositionAnalysis{TokenAddress: "Mint1"}},
		},
		OverallScore: 10,
	}
}

func TestAnalysisResultStore_InsertAndGetLatest(t *testing.T) {
	store := NewAnalysisResultStore()
	ctx := context.Background()

	if _, err := store.GetLatestByWallet(ctx, "wallet1"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if err := store.Insert(ctx, testResult("run1", "wallet1")); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := store.Insert(ctx, testResult("run2", "wallet1")); err != nil {
		t.Fatalf("second insert: %v", err)
	}

	got, err := store.GetLatestByWallet(ctx, "wallet1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.RunID != "run2" {
		t.Errorf("latest run = %s, want run2", got.RunID)
	}
}

func TestAnalysisResultStore_DuplicateRunID(t *testing.T) {
	store := NewAnalysisResultStore()
	ctx := context.Background()

	if err := store.Insert(ctx, testResult("run1", "wallet1")); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := store.Insert(ctx, testResult("run1", "wallet2")); !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("expected ErrDuplicateKey, got %v", err)
	}
}

func TestAnalysisResultStore_ReturnsCopies(t *testing.T) {
	store := NewAnalysisResultStore()
	ctx := context.Background()

	original := testResult("run1", "wallet1")
	if err := store.Insert(ctx, original); err != nil {
		t.Fatalf("insert: %v", err)
	}

	// Mutating the inserted value and a fetched value must not leak into
	// the store.
	original.OverallScore = 999
	first, _ := store.GetLatestByWallet(ctx, "wallet1")
	first.AllPositionAnalyses[0].RealizedPnL = -1

	second, _ := store.GetLatestByWallet(ctx, "wallet1")
	if second.OverallScore != 10 {
		t.Errorf("insert aliasing: overallScore = %f", second.OverallScore)
	}
	if second.AllPositionAnalyses[0].RealizedPnL != 10 {
		t.Errorf("read aliasing: realizedPnL = %f", second.AllPositionAnalyses[0].RealizedPnL)
	}
}

func TestMomentStore_InsertAndGetOrdering(t *testing.T) {
	store := NewMomentStore()
	ctx := context.Background()

	moments := []*domain.MomentCandidate{
		{MomentID: "id-b", Category: domain.CategoryLostOpportunities},
		{MomentID: "id-a", Category: domain.CategoryDusts},
		{MomentID: "id-c", Category: domain.CategoryDusts},
	}
	for _, m := range moments {
		if err := store.Insert(ctx, "wallet1", m); err != nil {
			t.Fatalf("insert %s: %v", m.MomentID, err)
		}
	}

	got, err := store.GetByWallet(ctx, "wallet1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 moments, got %d", len(got))
	}
	// category ASC, moment_id ASC: dusts/id-a, dusts/id-c, lost/id-b.
	if got[0].MomentID != "id-a" || got[1].MomentID != "id-c" || got[2].MomentID != "id-b" {
		t.Errorf("wrong order: %s %s %s", got[0].MomentID, got[1].MomentID, got[2].MomentID)
	}
}

func TestMomentStore_DuplicateMomentID(t *testing.T) {
	store := NewMomentStore()
	ctx := context.Background()

	m := &domain.MomentCandidate{MomentID: "id-1", Category: domain.CategoryMaxGains}
	if err := store.Insert(ctx, "wallet1", m); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := store.Insert(ctx, "wallet1", m); !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("expected ErrDuplicateKey, got %v", err)
	}
}

func TestPositionArchiveStore_InsertBulkAndGet(t *testing.T) {
	store := NewPositionArchiveStore()
	ctx := context.Background()

	analyses := []*domain.TokenPositionAnalysis{
		{TokenAddress: "MintB", Chain: domain.ChainSolana},
		{TokenAddress: "MintA", Chain: domain.ChainSolana},
	}
	if err := store.InsertBulk(ctx, "run1", "wallet1", 1700000000, analyses); err != nil {
		t.Fatalf("insert bulk: %v", err)
	}
	if err := store.InsertBulk(ctx, "run2", "wallet1", 1700086400, []*domain.TokenPositionAnalysis{
		{TokenAddress: "MintC", Chain: domain.ChainBase},
	}); err != nil {
		t.Fatalf("second insert bulk: %v", err)
	}

	got, err := store.GetByWallet(ctx, "wallet1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(got))
	}
	// analyzed_at ASC, token_address ASC.
	if got[0].TokenAddress != "MintA" || got[1].TokenAddress != "MintB" || got[2].TokenAddress != "MintC" {
		t.Errorf("wrong order: %s %s %s", got[0].TokenAddress, got[1].TokenAddress, got[2].TokenAddress)
	}
}

func TestStores_ConcurrentAccess(t *testing.T) {
	store := NewRateLimitStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_ = store.SetLastAnalysisTime(ctx, "wallet1", time.Unix(int64(n), 0))
			_, _ = store.GetLastAnalysisTime(ctx, "wallet1")
		}(i)
	}
	wg.Wait()

	if _, err := store.GetLastAnalysisTime(ctx, "wallet1"); err != nil {
		t.Fatalf("get after concurrent writes: %v", err)
	}
}
