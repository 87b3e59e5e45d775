package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"oof-moments/internal/domain"
	"oof-moments/internal/storage"
)

// AnalysisResultStore implements storage.AnalysisResultStore using PostgreSQL.
// Nested position analyses and candidates are stored as JSONB; scalar fields
// are broken out into columns for querying.
type AnalysisResultStore struct {
	pool *Pool
}

// NewAnalysisResultStore creates a new AnalysisResultStore.
func NewAnalysisResultStore(pool *Pool) *AnalysisResultStore {
	return &AnalysisResultStore{pool: pool}
}

// Compile-time interface check.
var _ storage.AnalysisResultStore = (*AnalysisResultStore)(nil)

// Insert adds a new result. Returns ErrDuplicateKey if run_id exists.
func (s *AnalysisResultStore) Insert(ctx context.Context, r *domain.AnalysisResult) error {
	if r == nil || r.RunID == "" || r.WalletAddress == "" {
		return storage.ErrInvalidInput
	}

	chains := make([]string, len(r.ChainsAnalyzed))
	for i, c := range r.ChainsAnalyzed {
		chains[i] = string(c)
	}

	positions, err := json.Marshal(r.AllPositionAnalyses)
	if err != nil {
		return fmt.Errorf("marshal position analyses: %w", err)
	}

	candidates, err := json.Marshal(r.Candidates)
	if err != nil {
		return fmt.Errorf("marshal candidates: %w", err)
	}

	query := `
		INSERT INTO analysis_results (
			run_id, wallet_address, chains_analyzed, positions, candidates,
			overall_score, analysis_complete, error_message, analyzed_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err = s.pool.Exec(ctx, query,
		r.RunID,
		r.WalletAddress,
		chains,
		positions,
		candidates,
		r.OverallScore,
		r.AnalysisComplete,
		r.ErrorMessage,
		r.AnalyzedAt,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert analysis result: %w", err)
	}
	return nil
}

// GetLatestByWallet retrieves the most recent result for a wallet.
func (s *AnalysisResultStore) GetLatestByWallet(ctx context.Context, walletAddress string) (*domain.AnalysisResult, error) {
	query := `
		SELECT run_id, wallet_address, chains_analyzed, positions, candidates,
		       overall_score, analysis_complete, error_message, analyzed_at
		FROM analysis_results
		WHERE wallet_address = $1
		ORDER BY analyzed_at DESC, run_id DESC
		LIMIT 1
	`

	var (
		r          domain.AnalysisResult
		chains     []string
		positions  []byte
		candidates []byte
	)

	row := s.pool.QueryRow(ctx, query, walletAddress)
	err := row.Scan(
		&r.RunID,
		&r.WalletAddress,
		&chains,
		&positions,
		&candidates,
		&r.OverallScore,
		&r.AnalysisComplete,
		&r.ErrorMessage,
		&r.AnalyzedAt,
	)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get latest result: %w", err)
	}

	r.ChainsAnalyzed = make([]domain.Chain, len(chains))
	for i, c := range chains {
		r.ChainsAnalyzed[i] = domain.Chain(c)
	}

	if err := json.Unmarshal(positions, &r.AllPositionAnalyses); err != nil {
		return nil, fmt.Errorf("unmarshal position analyses: %w", err)
	}
	if err := json.Unmarshal(candidates, &r.Candidates); err != nil {
		return nil, fmt.Errorf("unmarshal candidates: %w", err)
	}

	return &r, nil
}
