package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/comps-finder/internal/model"
)

func echoExtractor() *stubExtractor {
	return &stubExtractor{
		normalizeFn: func(target model.TargetInput) (*model.TargetProfile, error) {
			return testProfile(), nil
		},
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
}

func testTargetInput() model.TargetInput {
	return model.TargetInput{
		Name:                "Target Co",
		BusinessDescription: "Strategy consulting for retail chains.",
	}
}

func TestRunHappyPath(t *testing.T) {
	ex := echoExtractor()
	st := newMemStore()
	p := New(testConfig(), st, ex, &stubFetcher{}, testSeeds("Acme", "Globex"))

	run, err := p.Run(context.Background(), testTargetInput())
	require.NoError(t, err)
	require.NotNil(t, run)

	assert.Equal(t, model.RunStatusComplete, run.Status)
	require.NotNil(t, run.Result)
	require.Len(t, run.Result.Comparables, 2)
	assert.Equal(t, 2, run.Result.Evaluated)
	assert.Empty(t, run.Result.Drops)
	assert.Greater(t, run.Result.TotalTokens, int64(0))

	for _, c := range run.Result.Comparables {
		assert.InDelta(t, 1.0, c.ValidationScore, 1e-9)
		assert.NotEmpty(t, c.EvidenceURLs)
	}

	// Provenance covers every populated field of every comparable.
	require.NotEmpty(t, run.Result.Provenance)
	fields := make(map[string]bool)
	for _, e := range run.Result.Provenance {
		fields[e.Field] = true
		assert.NotEmpty(t, e.SourceURL)
	}
	assert.True(t, fields["name"])
	assert.True(t, fields["business_activity"])
	assert.True(t, fields["customer_segment"])

	// Artifacts were persisted alongside the run record.
	stored := st.runs[run.ID]
	require.NotNil(t, stored)
	assert.Equal(t, model.RunStatusComplete, stored.Status)
	assert.Len(t, st.comparables[run.ID], 2)
	assert.NotEmpty(t, st.provenance[run.ID])

	assert.Equal(t, 0, ex.plausibilityCalls)
}

func TestRunRecordsDropsForFailedCandidates(t *testing.T) {
	ex := echoExtractor()
	base := ex.extractFn
	ex.extractFn = func(name string, snippets []model.Snippet) (*model.CandidateRecord, error) {
		if name == "Globex" {
			return nil, errors.New("malformed response")
		}
		return base(name, snippets)
	}
	st := newMemStore()
	p := New(testConfig(), st, ex, &stubFetcher{}, testSeeds("Acme", "Globex"))

	run, err := p.Run(context.Background(), testTargetInput())
	require.NoError(t, err)

	require.NotNil(t, run.Result)
	require.Len(t, run.Result.Comparables, 1)
	assert.Equal(t, "Acme", run.Result.Comparables[0].Name)

	require.Len(t, run.Result.Drops, 1)
	assert.Equal(t, "Globex", run.Result.Drops[0].CandidateName)
	assert.Equal(t, model.DropStageExtraction, run.Result.Drops[0].Stage)
	assert.Len(t, st.drops[run.ID], 1)
}

func TestRunNormalizeFailureFailsRun(t *testing.T) {
	ex := echoExtractor()
	ex.normalizeFn = func(model.TargetInput) (*model.TargetProfile, error) {
		return nil, errors.New("api down")
	}
	st := newMemStore()
	p := New(testConfig(), st, ex, &stubFetcher{}, testSeeds("Acme"))

	run, err := p.Run(context.Background(), testTargetInput())
	require.Error(t, err)
	require.NotNil(t, run)

	assert.Equal(t, model.RunStatusFailed, run.Status)
	stored := st.runs[run.ID]
	assert.Equal(t, model.RunStatusFailed, stored.Status)
	require.NotNil(t, stored.Result)
	assert.Contains(t, stored.Result.Error, "api down")
}

func TestRunEmptyDiscoveryCompletesWithNoComparables(t *testing.T) {
	ex := echoExtractor()
	st := newMemStore()
	p := New(testConfig(), st, ex, &stubFetcher{}, testSeeds())

	run, err := p.Run(context.Background(), testTargetInput())
	require.NoError(t, err)

	assert.Equal(t, model.RunStatusComplete, run.Status)
	require.NotNil(t, run.Result)
	assert.Empty(t, run.Result.Comparables)
	assert.Zero(t, run.Result.Evaluated)
}

func TestRunCancelledContextFailsRun(t *testing.T) {
	ex := echoExtractor()
	st := newMemStore()
	p := New(testConfig(), st, ex, &stubFetcher{}, testSeeds("Acme"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	run, err := p.Run(ctx, testTargetInput())
	require.Error(t, err)
	assert.Equal(t, model.RunStatusFailed, run.Status)
}

func TestRunInvalidConfigRejectedBeforeRunCreation(t *testing.T) {
	cfg := testConfig()
	cfg.Pipeline.MinScore = 1.5
	st := newMemStore()
	p := New(cfg, st, echoExtractor(), &stubFetcher{}, testSeeds("Acme"))

	run, err := p.Run(context.Background(), testTargetInput())
	require.Error(t, err)
	assert.Nil(t, run)
	assert.Empty(t, st.runs)
}

func TestRunIsDeterministic(t *testing.T) {
	runOnce := func() *model.RunResult {
		st := newMemStore()
		p := New(testConfig(), st, echoExtractor(), &stubFetcher{}, testSeeds("Acme", "Globex", "Initech"))
		run, err := p.Run(context.Background(), testTargetInput())
		require.NoError(t, err)
		require.NotNil(t, run.Result)
		return run.Result
	}

	first := runOnce()
	second := runOnce()

	require.Len(t, second.Comparables, len(first.Comparables))
	for i := range first.Comparables {
		assert.Equal(t, first.Comparables[i].Name, second.Comparables[i].Name)
		assert.InDelta(t, first.Comparables[i].ValidationScore, second.Comparables[i].ValidationScore, 1e-9)
	}

	require.Len(t, second.Provenance, len(first.Provenance))
	for i := range first.Provenance {
		assert.Equal(t, first.Provenance[i].Field, second.Provenance[i].Field)
		assert.Equal(t, first.Provenance[i].Value, second.Provenance[i].Value)
	}
}
