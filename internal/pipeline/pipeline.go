// Package pipeline orchestrates a comparable-company run: normalize the
// target, discover candidates, evaluate each one, rank and persist.
package pipeline

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/comps-finder/internal/config"
	"github.com/sells-group/comps-finder/internal/discovery"
	"github.com/sells-group/comps-finder/internal/fetch"
	"github.com/sells-group/comps-finder/internal/model"
	"github.com/sells-group/comps-finder/internal/rank"
	"github.com/sells-group/comps-finder/internal/store"
	"github.com/sells-group/comps-finder/pkg/anthropic"
)

// Extractor is the LLM collaborator surface the pipeline depends on.
type Extractor interface {
	NormalizeTarget(ctx context.Context, target model.TargetInput) (*model.TargetProfile, anthropic.TokenUsage, error)
	ExtractCandidate(ctx context.Context, name string, snippets []model.Snippet) (*model.CandidateRecord, anthropic.TokenUsage, error)
	CheckPlausibility(ctx context.Context, target model.TargetProfile, candidate model.CandidateRecord) (*model.PlausibilityCheck, anthropic.TokenUsage, error)
}

// Pipeline runs the full comparable-finding workflow.
type Pipeline struct {
	cfg       *config.Config
	store     store.Store
	extractor Extractor
	fetcher   fetch.Fetcher
	seeds     *discovery.SeedList
}

// New creates a Pipeline with all dependencies.
func New(cfg *config.Config, st store.Store, ex Extractor, f fetch.Fetcher, seeds *discovery.SeedList) *Pipeline {
	return &Pipeline{
		cfg:       cfg,
		store:     st,
		extractor: ex,
		fetcher:   f,
		seeds:     seeds,
	}
}

// Run executes the pipeline for one target and returns the completed run.
// Per-candidate failures are dropped and logged; only configuration and
// target-normalization errors fail the run.
func (p *Pipeline) Run(ctx context.Context, target model.TargetInput) (*model.Run, error) {
	if err := p.cfg.Pipeline.Validate(); err != nil {
		return nil, err
	}

	log := zap.L().With(zap.String("target", target.Name))
	log.Info("pipeline: starting run")

	run, err := p.store.CreateRun(ctx, target)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: create run")
	}

	setStatus := func(status model.RunStatus) {
		if statusErr := p.store.UpdateRunStatus(ctx, run.ID, status); statusErr != nil {
			log.Warn("pipeline: failed to update status", zap.Error(statusErr))
		}
	}

	var totalUsage anthropic.TokenUsage

	// Step 1: normalize the target profile. Fatal on failure.
	setStatus(model.RunStatusNormalizing)
	profile, usage, err := p.extractor.NormalizeTarget(ctx, target)
	totalUsage.Add(usage)
	if err != nil {
		err = eris.Wrap(err, "pipeline: normalize target")
		p.failRun(ctx, run, err)
		return run, err
	}
	log.Info("pipeline: target normalized",
		zap.Int("products_services", len(profile.ProductsServices)),
		zap.Int("customer_segments", len(profile.CustomerSegments)),
	)

	// Step 2: discover candidates.
	setStatus(model.RunStatusDiscovering)
	queries := discovery.BuildQueries(*profile)
	log.Info("pipeline: built search queries", zap.Int("queries", len(queries)))

	candidates := discovery.Discover(*profile, p.seeds, p.cfg.Pipeline.MaxCandidates)
	if len(candidates) == 0 {
		log.Warn("pipeline: no candidates discovered")
		result := &model.RunResult{TotalTokens: totalUsage.Total(), TotalCost: totalUsage.EstimateCost(p.cfg.Anthropic.Model)}
		p.completeRun(ctx, run, result)
		return run, nil
	}

	// Step 3: evaluate each candidate sequentially. LLM calls are
	// rate-limited, so there is nothing to gain from parallelism here.
	setStatus(model.RunStatusEvaluating)
	log.Info("pipeline: evaluating candidates", zap.Int("count", len(candidates)))

	var pool []model.ScoredCandidate
	var drops []model.DropRecord

	for i, cand := range candidates {
		if ctx.Err() != nil {
			err := eris.Wrap(ctx.Err(), "pipeline: evaluation cancelled")
			p.failRun(ctx, run, err)
			return run, err
		}

		log.Info("pipeline: evaluating candidate",
			zap.Int("index", i+1),
			zap.Int("total", len(candidates)),
			zap.String("candidate", cand.Name),
		)

		ev := p.evaluateCandidate(ctx, profile, cand)
		totalUsage.Add(ev.usage)
		if ev.drop != nil {
			drops = append(drops, *ev.drop)
			continue
		}
		pool = append(pool, *ev.scored)
		log.Info("pipeline: candidate admitted",
			zap.String("candidate", ev.scored.Name),
			zap.Float64("score", ev.scored.ValidationScore),
		)
	}

	// Step 4: rank, deduplicate, truncate.
	setStatus(model.RunStatusRanking)
	final := rank.Select(pool, p.cfg.Pipeline.MaxFinal)
	if len(final) == 0 {
		log.Warn("pipeline: no candidates cleared the admission policy; consider lowering min_score",
			zap.Float64("min_score", p.cfg.Pipeline.MinScore),
			zap.Int("evaluated", len(candidates)),
		)
	}

	result := &model.RunResult{
		Comparables: final,
		Provenance:  BuildProvenance(final),
		Drops:       drops,
		Evaluated:   len(candidates),
		TotalTokens: totalUsage.Total(),
		TotalCost:   totalUsage.EstimateCost(p.cfg.Anthropic.Model),
	}

	p.persistArtifacts(ctx, run.ID, result)
	p.completeRun(ctx, run, result)

	totalUsage.LogCost(p.cfg.Anthropic.Model, "run")
	log.Info("pipeline: run complete",
		zap.String("run_id", run.ID),
		zap.Int("comparables", len(final)),
		zap.Int("dropped", len(drops)),
		zap.Int64("tokens", totalUsage.Total()),
	)
	return run, nil
}

func (p *Pipeline) persistArtifacts(ctx context.Context, runID string, result *model.RunResult) {
	if err := p.store.SaveComparables(ctx, runID, result.Comparables); err != nil {
		zap.L().Warn("pipeline: failed to save comparables", zap.Error(err))
	}
	if err := p.store.SaveProvenance(ctx, runID, result.Provenance); err != nil {
		zap.L().Warn("pipeline: failed to save provenance", zap.Error(err))
	}
	if err := p.store.SaveDrops(ctx, runID, result.Drops); err != nil {
		zap.L().Warn("pipeline: failed to save drops", zap.Error(err))
	}
}

func (p *Pipeline) completeRun(ctx context.Context, run *model.Run, result *model.RunResult) {
	run.Status = model.RunStatusComplete
	run.Result = result
	if err := p.store.CompleteRun(ctx, run.ID, result); err != nil {
		zap.L().Warn("pipeline: failed to complete run", zap.Error(err))
	}
}

func (p *Pipeline) failRun(ctx context.Context, run *model.Run, runErr error) {
	run.Status = model.RunStatusFailed
	if err := p.store.FailRun(ctx, run.ID, runErr.Error()); err != nil {
		zap.L().Warn("pipeline: failed to record run failure", zap.Error(err))
	}
}
