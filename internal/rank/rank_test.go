package rank

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/comps-finder/internal/model"
)

func strPtr(s string) *string { return &s }

func scored(name string, score float64, evidence int) model.ScoredCandidate {
	urls := make([]string, evidence)
	for i := range urls {
		urls[i] = "https://example.com/src"
	}
	return model.ScoredCandidate{
		CandidateRecord: model.CandidateRecord{Name: name, EvidenceURLs: urls},
		ValidationScore: score,
	}
}

func TestSelect_SortsByScoreDescending(t *testing.T) {
	pool := []model.ScoredCandidate{
		scored("Low", 0.4, 1),
		scored("High", 0.9, 1),
		scored("Mid", 0.6, 1),
	}

	got := Select(pool, 10)

	require.Len(t, got, 3)
	assert.Equal(t, "High", got[0].Name)
	assert.Equal(t, "Mid", got[1].Name)
	assert.Equal(t, "Low", got[2].Name)
}

func TestSelect_EvidenceCountBreaksTies(t *testing.T) {
	pool := []model.ScoredCandidate{
		scored("OneSource", 0.5, 1),
		scored("ThreeSources", 0.5, 3),
	}

	got := Select(pool, 10)

	require.Len(t, got, 2)
	assert.Equal(t, "ThreeSources", got[0].Name)
}

func TestSelect_CompletenessBreaksRemainingTies(t *testing.T) {
	complete := scored("Complete", 0.5, 2)
	complete.Exchange = strPtr("NYSE")
	complete.Ticker = strPtr("CMP")
	complete.SICIndustry = strPtr("Management Consulting")

	pool := []model.ScoredCandidate{
		scored("Sparse", 0.5, 2),
		complete,
	}

	got := Select(pool, 10)

	require.Len(t, got, 2)
	assert.Equal(t, "Complete", got[0].Name)
}

func TestSelect_StableForFullTies(t *testing.T) {
	pool := []model.ScoredCandidate{
		scored("First", 0.5, 1),
		scored("Second", 0.5, 1),
	}

	got := Select(pool, 10)

	require.Len(t, got, 2)
	assert.Equal(t, "First", got[0].Name)
	assert.Equal(t, "Second", got[1].Name)
}

func TestSelect_DedupeKeepsHigherScore(t *testing.T) {
	a := scored("Acme Corp", 0.5, 1)
	b := scored("ACME CORP", 0.8, 1)

	got := Select([]model.ScoredCandidate{a, b}, 10)

	require.Len(t, got, 1)
	assert.InDelta(t, 0.8, got[0].ValidationScore, 1e-9)
}

func TestSelect_DedupeByNameAndTicker(t *testing.T) {
	a := scored("Acme", 0.5, 1)
	a.Ticker = strPtr("ACM")
	b := scored("Acme", 0.6, 1)
	b.Ticker = strPtr("ACX")

	// Different tickers are different identities.
	got := Select([]model.ScoredCandidate{a, b}, 10)
	assert.Len(t, got, 2)
}

func TestSelect_DedupeTieKeepsFirst(t *testing.T) {
	a := scored("Acme", 0.5, 1)
	a.URL = "https://acme.example"
	b := scored("acme", 0.5, 3)
	b.URL = "https://acme.example"

	got := Select([]model.ScoredCandidate{a, b}, 10)

	require.Len(t, got, 1)
	assert.Len(t, got[0].EvidenceURLs, 1)
}

func TestSelect_Truncates(t *testing.T) {
	pool := []model.ScoredCandidate{
		scored("A", 0.9, 1),
		scored("B", 0.8, 1),
		scored("C", 0.7, 1),
	}

	got := Select(pool, 2)

	require.Len(t, got, 2)
	assert.Equal(t, "A", got[0].Name)
	assert.Equal(t, "B", got[1].Name)
}

func TestSelect_NeverPads(t *testing.T) {
	got := Select([]model.ScoredCandidate{scored("Only", 0.5, 1)}, 10)
	assert.Len(t, got, 1)

	assert.Empty(t, Select(nil, 10))
}
