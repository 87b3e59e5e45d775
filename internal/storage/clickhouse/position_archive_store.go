package clickhouse

import (
	"context"
	"fmt"

	"oof-moments/internal/domain"
	"oof-moments/internal/storage"
)

// PositionArchiveStore implements storage.PositionArchiveStore using
// ClickHouse. The archive is append-only analytics data; rows are never
// updated or deleted.
type PositionArchiveStore struct {
	conn *Conn
}

// NewPositionArchiveStore creates a new PositionArchiveStore.
func NewPositionArchiveStore(conn *Conn) *PositionArchiveStore {
	return &PositionArchiveStore{conn: conn}
}

// Compile-time interface check.
var _ storage.PositionArchiveStore = (*PositionArchiveStore)(nil)

// InsertBulk appends all position analyses of one run using a batch insert.
func (s *PositionArchiveStore) InsertBulk(ctx context.Context, runID, walletAddress string, analyzedAt int64, analyses []*domain.TokenPositionAnalysis) error {
	if runID == "" || walletAddress == "" {
		return storage.ErrInvalidInput
	}
	if len(analyses) == 0 {
		return nil
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO position_archive (
			run_id, wallet_address, analyzed_at, chain, token_address, symbol, name,
			total_bought, total_sold, current_holding,
			average_buy_price, average_sell_price,
			realized_pnl, unrealized_pnl, peak_price, current_price,
			transaction_count, is_dust, is_gain, is_paper_hands,
			missed_opportunity_multiplier
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare archive batch: %w", err)
	}

	for _, a := range analyses {
		err := batch.Append(
			runID,
			walletAddress,
			analyzedAt,
			string(a.Chain),
			a.TokenAddress,
			a.Symbol,
			a.Name,
			a.TotalBought,
			a.TotalSold,
			a.CurrentHolding,
			a.AverageBuyPrice,
			a.AverageSellPrice,
			a.RealizedPnL,
			a.UnrealizedPnL,
			a.PeakPrice,
			a.CurrentPrice,
			uint32(a.TransactionCount),
			a.IsDust,
			a.IsGain,
			a.IsPaperHands,
			a.MissedOpportunityMultiplier,
		)
		if err != nil {
			return fmt.Errorf("append archive row: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send archive batch: %w", err)
	}
	return nil
}

// GetByWallet retrieves archived analyses for a wallet, ordered by
// analyzed_at ASC, token_address ASC.
func (s *PositionArchiveStore) GetByWallet(ctx context.Context, walletAddress string) ([]*domain.TokenPositionAnalysis, error) {
	query := `
		SELECT chain, token_address, symbol, name,
		       total_bought, total_sold, current_holding,
		       average_buy_price, average_sell_price,
		       realized_pnl, unrealized_pnl, peak_price, current_price,
		       transaction_count, is_dust, is_gain, is_paper_hands,
		       missed_opportunity_multiplier
		FROM position_archive
		WHERE wallet_address = ?
		ORDER BY analyzed_at ASC, token_address ASC
	`

	rows, err := s.conn.Query(ctx, query, walletAddress)
	if err != nil {
		return nil, fmt.Errorf("query position archive: %w", err)
	}
	defer rows.Close()

	var result []*domain.TokenPositionAnalysis
	for rows.Next() {
		var (
			a       domain.TokenPositionAnalysis
			chain   string
			txCount uint32
		)
		err := rows.Scan(
			&chain,
			&a.TokenAddress,
			&a.Symbol,
			&a.Name,
			&a.TotalBought,
			&a.TotalSold,
			&a.CurrentHolding,
			&a.AverageBuyPrice,
			&a.AverageSellPrice,
			&a.RealizedPnL,
			&a.UnrealizedPnL,
			&a.PeakPrice,
			&a.CurrentPrice,
			&txCount,
			&a.IsDust,
			&a.IsGain,
			&a.IsPaperHands,
			&a.MissedOpportunityMultiplier,
		)
		if err != nil {
			return nil, fmt.Errorf("scan archive row: %w", err)
		}
		a.Chain = domain.Chain(chain)
		a.TransactionCount = int(txCount)
		result = append(result, &a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate archive rows: %w", err)
	}
	return result, nil
}
