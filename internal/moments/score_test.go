package moments

import (
	"testing"

	"oof-moments/internal/domain"
)

func TestScore_MaxGains(t *testing.T) {
	a := &domain.TokenPositionAnalysis{RealizedPnL: 30000, UnrealizedPnL: 20000}

	score, rarity := Score(domain.CategoryMaxGains, a)
	if score != 500 {
		t.Errorf("expected score 500, got %f", score)
	}
	if rarity != domain.RarityEpic {
		t.Errorf("expected epic, got %s", rarity)
	}
}

func TestScore_Dusts(t *testing.T) {
	a := &domain.TokenPositionAnalysis{TransactionCount: 7}

	score, rarity := Score(domain.CategoryDusts, a)
	if score != 70 {
		t.Errorf("expected score 70, got %f", score)
	}
	if rarity != domain.RarityRare {
		t.Errorf("expected rare, got %s", rarity)
	}
}

func TestScore_LostOpportunities(t *testing.T) {
	a := &domain.TokenPositionAnalysis{MissedOpportunityMultiplier: 50}

	score, rarity := Score(domain.CategoryLostOpportunities, a)
	if score != 1000 {
		t.Errorf("expected clamped score 1000, got %f", score)
	}
	if rarity != domain.RarityLegendary {
		t.Errorf("expected legendary, got %s", rarity)
	}
}

func TestScore_ClampsNegativeToZero(t *testing.T) {
	a := &domain.TokenPositionAnalysis{RealizedPnL: -50000}

	score, rarity := Score(domain.CategoryMaxGains, a)
	if score != 0 {
		t.Errorf("expected score clamped to 0, got %f", score)
	}
	if rarity != domain.RarityRare {
		t.Errorf("expected rare at score 0, got %s", rarity)
	}
}

func TestRarityBoundaries(t *testing.T) {
	tests := []struct {
		score float64
		want  domain.Rarity
	}{
		{400.0, domain.RarityRare},    // exactly at epic threshold stays rare
		{400.0001, domain.RarityEpic}, // just above crosses
		{750.0, domain.RarityEpic},    // exactly at legendary threshold stays epic
		{750.0001, domain.RarityLegendary},
		{0, domain.RarityRare},
		{1000, domain.RarityLegendary},
	}
	for _, tt := range tests {
		if got := rarityFor(tt.score); got != tt.want {
			t.Errorf("rarityFor(%f) = %s, want %s", tt.score, got, tt.want)
		}
	}
}

func TestOverallScore_MeanOfPresentOnly(t *testing.T) {
	candidates := []*domain.MomentCandidate{
		{Category: domain.CategoryMaxGains, OofScore: 600},
		{Category: domain.CategoryDusts, OofScore: 200},
	}

	// Two candidates: mean over 2, not over 3 categories.
	if got := OverallScore(candidates); got != 400 {
		t.Errorf("expected overall 400, got %f", got)
	}
}

func TestOverallScore_Empty(t *testing.T) {
	if got := OverallScore(nil); got != 0 {
		t.Errorf("expected 0 without candidates, got %f", got)
	}
}
