package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"oof-moments/internal/domain"
	"oof-moments/internal/storage"
)

// MomentStore implements storage.MomentStore using PostgreSQL.
type MomentStore struct {
	pool *Pool
}

// NewMomentStore creates a new MomentStore.
func NewMomentStore(pool *Pool) *MomentStore {
	return &MomentStore{pool: pool}
}

// Compile-time interface check.
var _ storage.MomentStore = (*MomentStore)(nil)

// Insert adds a new moment. Returns ErrDuplicateKey if moment_id exists.
func (s *MomentStore) Insert(ctx context.Context, walletAddress string, m *domain.MomentCandidate) error {
	if walletAddress == "" || m == nil || m.MomentID == "" {
		return storage.ErrInvalidInput
	}

	analysis, err := json.Marshal(m.Analysis)
	if err != nil {
		return fmt.Errorf("marshal analysis: %w", err)
	}

	seed, err := json.Marshal(m.NarrativeSeed)
	if err != nil {
		return fmt.Errorf("marshal narrative seed: %w", err)
	}

	query := `
		INSERT INTO wallet_moments (
			moment_id, wallet_address, category, token_address, chain,
			oof_score, rarity, analysis, narrative_seed
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err = s.pool.Exec(ctx, query,
		m.MomentID,
		walletAddress,
		string(m.Category),
		m.Analysis.TokenAddress,
		string(m.Analysis.Chain),
		m.OofScore,
		string(m.Rarity),
		analysis,
		seed,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert moment: %w", err)
	}
	return nil
}

// GetByWallet retrieves all moments for a wallet, ordered by category ASC,
// moment_id ASC.
func (s *MomentStore) GetByWallet(ctx context.Context, walletAddress string) ([]*domain.MomentCandidate, error) {
	query := `
		SELECT moment_id, category, oof_score, rarity, analysis, narrative_seed
		FROM wallet_moments
		WHERE wallet_address = $1
		ORDER BY category ASC, moment_id ASC
	`

	rows, err := s.pool.Query(ctx, query, walletAddress)
	if err != nil {
		return nil, fmt.Errorf("get moments by wallet: %w", err)
	}
	defer rows.Close()

	var result []*domain.MomentCandidate
	for rows.Next() {
		var (
			m        domain.MomentCandidate
			category string
			rarity   string
			analysis []byte
			seed     []byte
		)
		if err := rows.Scan(&m.MomentID, &category, &m.OofScore, &rarity, &analysis, &seed); err != nil {
			return nil, fmt.Errorf("scan moment: %w", err)
		}
		m.Category = domain.MomentCategory(category)
		m.Rarity = domain.Rarity(rarity)
		if err := json.Unmarshal(analysis, &m.Analysis); err != nil {
			return nil, fmt.Errorf("unmarshal analysis: %w", err)
		}
		if err := json.Unmarshal(seed, &m.NarrativeSeed); err != nil {
			return nil, fmt.Errorf("unmarshal narrative seed: %w", err)
		}
		result = append(result, &m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate moments: %w", err)
	}
	return result, nil
}
