package postgres_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"oof-moments/internal/domain"
	"oof-moments/internal/storage"
	"oof-moments/internal/storage/postgres"
)

func sampleMoment(momentID string, category domain.MomentCategory) *domain.MomentCandidate {
	analysis := &domain.TokenPositionAnalysis{
		TokenAddress:     "TokenMint111",
		Symbol:           "TKN",
		Chain:            domain.ChainSolana,
		TotalBought:      100,
		TotalSold:        100,
		AverageBuyPrice:  1,
		AverageSellPrice: 2,
		RealizedPnL:      100,
		TransactionCount: 4,
	}
	return &domain.MomentCandidate{
		MomentID: momentID,
		Category: category,
		Analysis: analysis,
		OofScore: 250,
		Rarity:   domain.RarityRare,
		NarrativeSeed: domain.NarrativeSeed{
			Category:         category,
			Symbol:           "TKN",
			Chain:            domain.ChainSolana,
			TokenAddress:     "TokenMint111",
			TotalPnL:         100,
			TransactionCount: 4,
		},
	}
}

func TestMomentStore_InsertAndGetByWallet(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := postgres.NewMomentStore(pool)
	ctx := context.Background()

	moment := sampleMoment("moment-001", domain.CategoryMaxGains)
	require.NoError(t, store.Insert(ctx, "wallet1", moment))

	got, err := store.GetByWallet(ctx, "wallet1")
	require.NoError(t, err)
	require.Len(t, got, 1)

	assert.Equal(t, moment.MomentID, got[0].MomentID)
	assert.Equal(t, moment.Category, got[0].Category)
	assert.Equal(t, moment.OofScore, got[0].OofScore)
	assert.Equal(t, moment.Rarity, got[0].Rarity)
	assert.Equal(t, *moment.Analysis, *got[0].Analysis)
	assert.Equal(t, moment.NarrativeSeed, got[0].NarrativeSeed)
}

func TestMomentStore_OrderedByCategoryThenID(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := postgres.NewMomentStore(pool)
	ctx := context.Background()

	// Insert out of order; reads come back category ASC, moment_id ASC.
	require.NoError(t, store.Insert(ctx, "wallet1", sampleMoment("m-b", domain.CategoryMaxGains)))
	require.NoError(t, store.Insert(ctx, "wallet1", sampleMoment("m-c", domain.CategoryDusts)))
	require.NoError(t, store.Insert(ctx, "wallet1", sampleMoment("m-a", domain.CategoryMaxGains)))

	got, err := store.GetByWallet(ctx, "wallet1")
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.Equal(t, "m-c", got[0].MomentID) // dusts sorts before max_gains
	assert.Equal(t, "m-a", got[1].MomentID)
	assert.Equal(t, "m-b", got[2].MomentID)
}

func TestMomentStore_InsertDuplicate(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := postgres.NewMomentStore(pool)
	ctx := context.Background()

	moment := sampleMoment("moment-dup", domain.CategoryDusts)
	require.NoError(t, store.Insert(ctx, "wallet1", moment))

	err := store.Insert(ctx, "wallet1", moment)
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)
}

func TestMomentStore_WalletIsolation(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := postgres.NewMomentStore(pool)
	ctx := context.Background()

	require.NoError(t, store.Insert(ctx, "wallet1", sampleMoment("m-1", domain.CategoryMaxGains)))
	require.NoError(t, store.Insert(ctx, "wallet2", sampleMoment("m-2", domain.CategoryMaxGains)))

	got, err := store.GetByWallet(ctx, "wallet1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "m-1", got[0].MomentID)
}

func TestMomentStore_EmptyWallet(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := postgres.NewMomentStore(pool)
	ctx := context.Background()

	got, err := store.GetByWallet(ctx, "no-moments-wallet")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestMomentStore_InvalidInput(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := postgres.NewMomentStore(pool)
	ctx := context.Background()

	assert.ErrorIs(t, store.Insert(ctx, "", sampleMoment("m", domain.CategoryDusts)), storage.ErrInvalidInput)
	assert.ErrorIs(t, store.Insert(ctx, "wallet1", nil), storage.ErrInvalidInput)
	assert.ErrorIs(t, store.Insert(ctx, "wallet1", &domain.MomentCandidate{}), storage.ErrInvalidInput)
}
