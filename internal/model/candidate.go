package model

import "strings"

// Candidate is a raw discovery result: a company identity before extraction.
type Candidate struct {
	Name string `json:"name"`
	URL  string `json:"url,omitempty"`
}

// CandidateRecord holds the structured fields extracted for a candidate.
// Nullable fields stay nil when the source text does not resolve them; a nil
// field is a valid terminal state, not an extraction error. ServiceTerms and
// SegmentTerms are the key phrases the extraction derived from the two text
// fields; when empty, consumers derive terms lexically from the texts.
type CandidateRecord struct {
	Name             string   `json:"name"`
	URL              string   `json:"url,omitempty"`
	Exchange         *string  `json:"exchange,omitempty"`
	Ticker           *string  `json:"ticker,omitempty"`
	BusinessActivity string   `json:"business_activity"`
	ServiceTerms     []string `json:"service_terms,omitempty"`
	CustomerSegment  string   `json:"customer_segment"`
	SegmentTerms     []string `json:"segment_terms,omitempty"`
	SICIndustry      *string  `json:"sic_industry,omitempty"`
	EvidenceURLs     []string `json:"evidence_urls"`
}

// PubliclyListed reports whether both exchange and ticker resolved.
func (r CandidateRecord) PubliclyListed() bool {
	return r.Exchange != nil && *r.Exchange != "" && r.Ticker != nil && *r.Ticker != ""
}

// IdentityKey returns the normalized dedupe key: lowercased name plus ticker
// when present, falling back to the lowercased URL.
func (r CandidateRecord) IdentityKey() string {
	name := strings.ToLower(strings.TrimSpace(r.Name))
	if r.Ticker != nil && *r.Ticker != "" {
		return name + "|" + strings.ToLower(*r.Ticker)
	}
	return name + "|" + strings.ToLower(r.URL)
}

// SimilarityResult holds the two per-dimension similarity scores, each in
// [0, 1]. Always recomputed from a (TargetProfile, CandidateRecord) pair,
// never persisted on its own.
type SimilarityResult struct {
	Service float64 `json:"service_similarity"`
	Segment float64 `json:"segment_similarity"`
}

// ValidationVerdict records the outcome of the automated checks.
type ValidationVerdict struct {
	ServiceOverlap bool `json:"service_overlap"`
	SegmentOverlap bool `json:"segment_overlap"`
	PublicListing  bool `json:"public_listing"`
	NegativeFilter bool `json:"negative_filter"`
	AutomatedPass  bool `json:"automated_pass"`
}

// Plausibility is the tri-state outcome of the LLM cross-check. Unresolved
// (check failed or timed out) is a neutral signal, never collapsed into
// implausible.
type Plausibility string

const (
	PlausibilityPlausible   Plausibility = "plausible"
	PlausibilityImplausible Plausibility = "implausible"
	PlausibilityUnresolved  Plausibility = "unresolved"
)

// FailureType classifies why a cross-check judged a candidate implausible.
type FailureType string

const (
	FailureDifferentProducts FailureType = "different_products"
	FailureDifferentSegments FailureType = "different_segments"
	FailureInsufficientInfo  FailureType = "insufficient_info"
	FailureOther             FailureType = "other"
)

// PlausibilityCheck is the full cross-check result.
type PlausibilityCheck struct {
	Verdict     Plausibility `json:"verdict"`
	Reason      string       `json:"reason,omitempty"`
	FailureType *FailureType `json:"failure_type,omitempty"`
}

// ScoredCandidate is the unit ranked and emitted: a candidate record plus
// its similarity scores, validation score, verdict and cross-check state.
type ScoredCandidate struct {
	CandidateRecord
	Similarity      SimilarityResult  `json:"similarity"`
	ValidationScore float64           `json:"validation_score"`
	Verdict         ValidationVerdict `json:"validation_verdict"`
	Plausibility    Plausibility      `json:"is_plausible"`
}

// CompletenessCount returns how many of {sic_industry, exchange, ticker}
// resolved, the tertiary ranking key.
func (s ScoredCandidate) CompletenessCount() int {
	n := 0
	if s.SICIndustry != nil && *s.SICIndustry != "" {
		n++
	}
	if s.Exchange != nil && *s.Exchange != "" {
		n++
	}
	if s.Ticker != nil && *s.Ticker != "" {
		n++
	}
	return n
}
