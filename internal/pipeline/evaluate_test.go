package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/comps-finder/internal/model"
)

func newTestPipeline(ex *stubExtractor, f *stubFetcher) (*Pipeline, *memStore) {
	st := newMemStore()
	return New(testConfig(), st, ex, f, testSeeds("Acme")), st
}

func passingVerdict() model.ValidationVerdict {
	return model.ValidationVerdict{
		ServiceOverlap: true,
		SegmentOverlap: true,
		NegativeFilter: true,
		AutomatedPass:  true,
	}
}

func failingVerdict() model.ValidationVerdict {
	return model.ValidationVerdict{NegativeFilter: true}
}

func TestAdmitFailsafeSkipsCrossCheck(t *testing.T) {
	ex := &stubExtractor{}
	p, _ := newTestPipeline(ex, &stubFetcher{})

	record := &model.CandidateRecord{Name: "Acme"}

	// Failing automated checks would normally trigger the cross-check, but
	// the failsafe score admits outright.
	admitted, plausibility, reason, _ := p.admit(context.Background(), testProfile(), record, 0.75, failingVerdict())

	assert.True(t, admitted)
	assert.Empty(t, plausibility)
	assert.Empty(t, reason)
	assert.Equal(t, 0, ex.plausibilityCalls)
}

func TestAdmitBelowThresholdSkipsCrossCheck(t *testing.T) {
	ex := &stubExtractor{}
	p, _ := newTestPipeline(ex, &stubFetcher{})

	record := &model.CandidateRecord{Name: "Acme"}

	admitted, plausibility, reason, _ := p.admit(context.Background(), testProfile(), record, 0.2, failingVerdict())

	assert.False(t, admitted)
	assert.Empty(t, plausibility)
	assert.Equal(t, "score 0.200 below threshold 0.350", reason)
	assert.Equal(t, 0, ex.plausibilityCalls)
}

func TestAdmitAutomatedPassSkipsCrossCheck(t *testing.T) {
	ex := &stubExtractor{}
	p, _ := newTestPipeline(ex, &stubFetcher{})

	record := &model.CandidateRecord{Name: "Acme"}

	admitted, plausibility, reason, _ := p.admit(context.Background(), testProfile(), record, 0.5, passingVerdict())

	assert.True(t, admitted)
	assert.Empty(t, plausibility)
	assert.Empty(t, reason)
	assert.Equal(t, 0, ex.plausibilityCalls)
}

func TestAdmitPlausibleCrossCheckAdmits(t *testing.T) {
	ex := &stubExtractor{
		plausibilityFn: func(model.CandidateRecord) (*model.PlausibilityCheck, error) {
			return &model.PlausibilityCheck{Verdict: model.PlausibilityPlausible}, nil
		},
	}
	p, _ := newTestPipeline(ex, &stubFetcher{})

	record := &model.CandidateRecord{Name: "Acme"}

	admitted, plausibility, reason, _ := p.admit(context.Background(), testProfile(), record, 0.5, failingVerdict())

	assert.True(t, admitted)
	assert.Equal(t, model.PlausibilityPlausible, plausibility)
	assert.Empty(t, reason)
	assert.Equal(t, 1, ex.plausibilityCalls)
}

func TestAdmitImplausibleCrossCheckRejects(t *testing.T) {
	ex := &stubExtractor{
		plausibilityFn: func(model.CandidateRecord) (*model.PlausibilityCheck, error) {
			return &model.PlausibilityCheck{
				Verdict: model.PlausibilityImplausible,
				Reason:  "sells hardware, not services",
			}, nil
		},
	}
	p, _ := newTestPipeline(ex, &stubFetcher{})

	record := &model.CandidateRecord{Name: "Acme"}

	admitted, plausibility, reason, _ := p.admit(context.Background(), testProfile(), record, 0.5, failingVerdict())

	assert.False(t, admitted)
	assert.Equal(t, model.PlausibilityImplausible, plausibility)
	assert.Equal(t, "automated checks failed and cross-check implausible: sells hardware, not services", reason)
}

func TestAdmitCrossCheckErrorIsUnresolved(t *testing.T) {
	ex := &stubExtractor{
		plausibilityFn: func(model.CandidateRecord) (*model.PlausibilityCheck, error) {
			return nil, errors.New("api timeout")
		},
	}
	p, _ := newTestPipeline(ex, &stubFetcher{})

	record := &model.CandidateRecord{Name: "Acme"}

	// The automated checks already failed, so an unresolved cross-check
	// leaves the candidate rejected.
	admitted, plausibility, reason, _ := p.admit(context.Background(), testProfile(), record, 0.5, failingVerdict())

	assert.False(t, admitted)
	assert.Equal(t, model.PlausibilityUnresolved, plausibility)
	assert.Equal(t, "automated checks failed and plausibility unresolved", reason)
}

func TestEvaluateCandidateExtractionFailureDrops(t *testing.T) {
	ex := &stubExtractor{
		extractFn: func(string, []model.Snippet) (*model.CandidateRecord, error) {
			return nil, errors.New("bad json")
		},
	}
	p, _ := newTestPipeline(ex, &stubFetcher{})

	ev := p.evaluateCandidate(context.Background(), testProfile(), model.Candidate{Name: "Acme"})

	require.NotNil(t, ev.drop)
	assert.Nil(t, ev.scored)
	assert.Equal(t, model.DropStageExtraction, ev.drop.Stage)
	assert.Equal(t, "Acme", ev.drop.CandidateName)
	assert.Contains(t, ev.drop.Reason, "bad json")
}

func TestEvaluateCandidateNoEvidenceDrops(t *testing.T) {
	ex := &stubExtractor{
		extractFn: func(name string, _ []model.Snippet) (*model.CandidateRecord, error) {
			return &model.CandidateRecord{
				Name:             name,
				BusinessActivity: "strategy consulting",
				CustomerSegment:  "retail chains",
			}, nil
		},
	}
	p, _ := newTestPipeline(ex, &stubFetcher{})

	// A perfect score cannot save a record nothing corroborates.
	ev := p.evaluateCandidate(context.Background(), testProfile(), model.Candidate{Name: "Acme"})

	require.NotNil(t, ev.drop)
	assert.Nil(t, ev.scored)
	assert.Equal(t, model.DropStageEvidence, ev.drop.Stage)
	assert.Equal(t, 0, ex.plausibilityCalls)
}

func TestEvaluateCandidateAdmitsOnIdenticalTexts(t *testing.T) {
	ex := &stubExtractor{
		extractFn: func(name string, snippets []model.Snippet) (*model.CandidateRecord, error) {
			return &model.CandidateRecord{
				Name:             name,
				URL:              snippets[0].SourceURL,
				BusinessActivity: "strategy consulting",
				CustomerSegment:  "retail chains",
				EvidenceURLs:     []string{snippets[0].SourceURL},
			}, nil
		},
	}
	p, _ := newTestPipeline(ex, &stubFetcher{})

	cand := model.Candidate{Name: "Acme", URL: "https://acme.example"}
	ev := p.evaluateCandidate(context.Background(), testProfile(), cand)

	require.NotNil(t, ev.scored)
	assert.Nil(t, ev.drop)
	assert.Equal(t, "Acme", ev.scored.Name)
	assert.InDelta(t, 1.0, ev.scored.ValidationScore, 1e-9)
	assert.InDelta(t, 1.0, ev.scored.Similarity.Service, 1e-9)
	assert.InDelta(t, 1.0, ev.scored.Similarity.Segment, 1e-9)
	// Failsafe admission: the cross-check never ran.
	assert.Empty(t, ev.scored.Plausibility)
	assert.Equal(t, 0, ex.plausibilityCalls)
}

func TestEvaluateCandidateRejectionCarriesScore(t *testing.T) {
	ex := &stubExtractor{
		extractFn: func(name string, snippets []model.Snippet) (*model.CandidateRecord, error) {
			return &model.CandidateRecord{
				Name:             name,
				BusinessActivity: "quantum widget fabrication",
				CustomerSegment:  "maritime shipping lines",
				EvidenceURLs:     []string{"https://acme.example/about"},
			}, nil
		},
	}
	p, _ := newTestPipeline(ex, &stubFetcher{})

	ev := p.evaluateCandidate(context.Background(), testProfile(), model.Candidate{Name: "Acme"})

	require.NotNil(t, ev.drop)
	assert.Equal(t, model.DropStageAdmission, ev.drop.Stage)
	assert.Contains(t, ev.drop.Reason, "below threshold")
	assert.Equal(t, 0, ex.plausibilityCalls)
}
