package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/comps-finder/internal/model"
)

func TestBuildProvenanceEmitsOneEntryPerPopulatedField(t *testing.T) {
	exchange := "NYSE"
	ticker := "ACM"
	sic := "Management Consulting Services"

	comparables := []model.ScoredCandidate{{
		CandidateRecord: model.CandidateRecord{
			Name:             "Acme",
			URL:              "https://acme.example",
			Exchange:         &exchange,
			Ticker:           &ticker,
			BusinessActivity: "strategy consulting",
			CustomerSegment:  "retail chains",
			SICIndustry:      &sic,
			EvidenceURLs:     []string{"https://acme.example/about", "https://en.wikipedia.org/wiki/Acme"},
		},
	}}

	entries := BuildProvenance(comparables)
	require.Len(t, entries, 7)

	byField := make(map[string]model.ProvenanceEntry, len(entries))
	for _, e := range entries {
		assert.Equal(t, "Acme", e.CandidateName)
		// Source is always the first evidence URL.
		assert.Equal(t, "https://acme.example/about", e.SourceURL)
		assert.False(t, e.Timestamp.IsZero())
		byField[e.Field] = e
	}

	assert.Equal(t, "Acme", byField["name"].Value)
	assert.Equal(t, "NYSE", byField["exchange"].Value)
	assert.Equal(t, "ACM", byField["ticker"].Value)
	assert.Equal(t, "strategy consulting", byField["business_activity"].Value)
	assert.Equal(t, "retail chains", byField["customer_segment"].Value)
	assert.Equal(t, "Management Consulting Services", byField["sic_industry"].Value)
}

func TestBuildProvenanceSkipsEmptyFields(t *testing.T) {
	comparables := []model.ScoredCandidate{{
		CandidateRecord: model.CandidateRecord{
			Name:             "Globex",
			BusinessActivity: "managed services",
			EvidenceURLs:     []string{"https://globex.example"},
		},
	}}

	entries := BuildProvenance(comparables)
	require.Len(t, entries, 2)
	for _, e := range entries {
		assert.NotEmpty(t, e.Value)
	}
}

func TestBuildProvenanceNoEvidenceMeansEmptySource(t *testing.T) {
	comparables := []model.ScoredCandidate{{
		CandidateRecord: model.CandidateRecord{Name: "Initech"},
	}}

	entries := BuildProvenance(comparables)
	require.Len(t, entries, 1)
	assert.Equal(t, "name", entries[0].Field)
	assert.Empty(t, entries[0].SourceURL)
}

func TestBuildProvenanceEmptyInput(t *testing.T) {
	assert.Empty(t, BuildProvenance(nil))
}
