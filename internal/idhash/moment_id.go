// Package idhash computes deterministic identifiers so that reruns over
// identical inputs produce identical keys for idempotent persistence.
package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"oof-moments/internal/domain"
)

// ComputeMomentID computes a deterministic moment_id using SHA256.
// Formula: SHA256(wallet|category|chain|token_address)
// Returns hex-encoded hash (64 characters).
func ComputeMomentID(
	walletAddress string,
	category domain.MomentCategory,
	chain domain.Chain,
	tokenAddress string,
) string {
	data := fmt.Sprintf("%s|%s|%s|%s",
		walletAddress,
		string(category),
		string(chain),
		tokenAddress,
	)

	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}
