package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func strPtr(s string) *string { return &s }

func TestIdentityKey(t *testing.T) {
	tests := []struct {
		name   string
		record CandidateRecord
		want   string
	}{
		{
			"ticker preferred over url",
			CandidateRecord{Name: "Acme Corp", Ticker: strPtr("ACM"), URL: "https://acme.example"},
			"acme corp|acm",
		},
		{
			"url fallback",
			CandidateRecord{Name: "Acme Corp", URL: "https://ACME.example"},
			"acme corp|https://acme.example",
		},
		{
			"empty ticker falls back to url",
			CandidateRecord{Name: "Acme", Ticker: strPtr(""), URL: "https://acme.example"},
			"acme|https://acme.example",
		},
		{
			"name trimmed and lowered",
			CandidateRecord{Name: "  ACME Corp  "},
			"acme corp|",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.record.IdentityKey())
		})
	}
}

func TestIdentityKeyMatchesAcrossCase(t *testing.T) {
	a := CandidateRecord{Name: "Acme Corp", Ticker: strPtr("ACM")}
	b := CandidateRecord{Name: "ACME CORP", Ticker: strPtr("acm")}
	assert.Equal(t, a.IdentityKey(), b.IdentityKey())
}

func TestPubliclyListed(t *testing.T) {
	assert.True(t, CandidateRecord{Exchange: strPtr("NYSE"), Ticker: strPtr("ACM")}.PubliclyListed())
	assert.False(t, CandidateRecord{Exchange: strPtr("NYSE")}.PubliclyListed())
	assert.False(t, CandidateRecord{Ticker: strPtr("ACM")}.PubliclyListed())
	assert.False(t, CandidateRecord{Exchange: strPtr(""), Ticker: strPtr("ACM")}.PubliclyListed())
	assert.False(t, CandidateRecord{}.PubliclyListed())
}

func TestCompletenessCount(t *testing.T) {
	full := ScoredCandidate{CandidateRecord: CandidateRecord{
		SICIndustry: strPtr("Management Consulting Services"),
		Exchange:    strPtr("NYSE"),
		Ticker:      strPtr("ACM"),
	}}
	assert.Equal(t, 3, full.CompletenessCount())

	partial := ScoredCandidate{CandidateRecord: CandidateRecord{Ticker: strPtr("ACM")}}
	assert.Equal(t, 1, partial.CompletenessCount())

	empty := ScoredCandidate{CandidateRecord: CandidateRecord{SICIndustry: strPtr("")}}
	assert.Equal(t, 0, empty.CompletenessCount())
}
