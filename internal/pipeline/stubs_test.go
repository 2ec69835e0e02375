package pipeline

import (
	"context"
	"sync"

	"github.com/sells-group/comps-finder/internal/config"
	"github.com/sells-group/comps-finder/internal/discovery"
	"github.com/sells-group/comps-finder/internal/model"
	"github.com/sells-group/comps-finder/internal/store"
	"github.com/sells-group/comps-finder/pkg/anthropic"
)

// --- Extractor stub ---

type stubExtractor struct {
	normalizeFn    func(target model.TargetInput) (*model.TargetProfile, error)
	extractFn      func(name string, snippets []model.Snippet) (*model.CandidateRecord, error)
	plausibilityFn func(candidate model.CandidateRecord) (*model.PlausibilityCheck, error)

	plausibilityCalls int
}

func (s *stubExtractor) NormalizeTarget(_ context.Context, target model.TargetInput) (*model.TargetProfile, anthropic.TokenUsage, error) {
	p, err := s.normalizeFn(target)
	return p, anthropic.TokenUsage{InputTokens: 10, OutputTokens: 5}, err
}

func (s *stubExtractor) ExtractCandidate(_ context.Context, name string, snippets []model.Snippet) (*model.CandidateRecord, anthropic.TokenUsage, error) {
	r, err := s.extractFn(name, snippets)
	return r, anthropic.TokenUsage{InputTokens: 10, OutputTokens: 5}, err
}

func (s *stubExtractor) CheckPlausibility(_ context.Context, _ model.TargetProfile, candidate model.CandidateRecord) (*model.PlausibilityCheck, anthropic.TokenUsage, error) {
	s.plausibilityCalls++
	if s.plausibilityFn == nil {
		return &model.PlausibilityCheck{Verdict: model.PlausibilityPlausible}, anthropic.TokenUsage{}, nil
	}
	c, err := s.plausibilityFn(candidate)
	return c, anthropic.TokenUsage{InputTokens: 5, OutputTokens: 2}, err
}

// --- Fetcher stub ---

type stubFetcher struct {
	snippets map[string][]model.Snippet
}

func (s *stubFetcher) FetchCandidate(_ context.Context, candidate model.Candidate) []model.Snippet {
	if sn, ok := s.snippets[candidate.Name]; ok {
		return sn
	}
	return []model.Snippet{{Text: "Company: " + candidate.Name + ".", SourceURL: candidate.URL}}
}

// --- In-memory store ---

type memStore struct {
	mu          sync.Mutex
	runs        map[string]*model.Run
	comparables map[string][]model.ScoredCandidate
	provenance  map[string][]model.ProvenanceEntry
	drops       map[string][]model.DropRecord
	nextID      int
}

func newMemStore() *memStore {
	return &memStore{
		runs:        make(map[string]*model.Run),
		comparables: make(map[string][]model.ScoredCandidate),
		provenance:  make(map[string][]model.ProvenanceEntry),
		drops:       make(map[string][]model.DropRecord),
	}
}

func (m *memStore) CreateRun(_ context.Context, target model.TargetInput) (*model.Run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	run := &model.Run{
		ID:     string(rune('a' + m.nextID)),
		Target: target,
		Status: model.RunStatusQueued,
	}
	m.runs[run.ID] = run
	return run, nil
}

func (m *memStore) UpdateRunStatus(_ context.Context, runID string, status model.RunStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs[runID].Status = status
	return nil
}

func (m *memStore) CompleteRun(_ context.Context, runID string, result *model.RunResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs[runID].Status = model.RunStatusComplete
	m.runs[runID].Result = result
	return nil
}

func (m *memStore) FailRun(_ context.Context, runID string, runErr string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs[runID].Status = model.RunStatusFailed
	m.runs[runID].Result = &model.RunResult{Error: runErr}
	return nil
}

func (m *memStore) GetRun(_ context.Context, runID string) (*model.Run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.runs[runID], nil
}

func (m *memStore) ListRuns(_ context.Context, _ store.RunFilter) ([]model.Run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Run
	for _, r := range m.runs {
		out = append(out, *r)
	}
	return out, nil
}

func (m *memStore) SaveComparables(_ context.Context, runID string, comparables []model.ScoredCandidate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.comparables[runID] = comparables
	return nil
}

func (m *memStore) SaveProvenance(_ context.Context, runID string, entries []model.ProvenanceEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.provenance[runID] = entries
	return nil
}

func (m *memStore) SaveDrops(_ context.Context, runID string, drops []model.DropRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.drops[runID] = drops
	return nil
}

func (m *memStore) Migrate(_ context.Context) error { return nil }
func (m *memStore) Close() error                    { return nil }

// --- Shared fixtures ---

func testConfig() *config.Config {
	return &config.Config{
		Pipeline: config.PipelineConfig{
			MinScore:      0.35,
			MaxFinal:      10,
			MaxCandidates: 40,
		},
		Anthropic: config.AnthropicConfig{Model: "claude-sonnet-4-5-20250929"},
	}
}

func testSeeds(names ...string) *discovery.SeedList {
	seeds := &discovery.SeedList{}
	for _, n := range names {
		seeds.Consulting = append(seeds.Consulting, discovery.Seed{
			Name: n,
			URL:  "https://" + n + ".example",
		})
	}
	return seeds
}

func testProfile() *model.TargetProfile {
	return &model.TargetProfile{
		Name:             "Target Co",
		ProductsServices: []string{"strategy consulting"},
		CustomerSegments: []string{"retail chains"},
	}
}
