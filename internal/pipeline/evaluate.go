package pipeline

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/sells-group/comps-finder/internal/exchange"
	"github.com/sells-group/comps-finder/internal/model"
	"github.com/sells-group/comps-finder/internal/validate"
	"github.com/sells-group/comps-finder/pkg/anthropic"
)

// failsafeScore admits a candidate outright, regardless of the automated
// checks and the plausibility cross-check.
const failsafeScore = 0.7

// evaluation is the outcome of processing one candidate: either a scored
// candidate for the ranking pool or a drop record, never both.
type evaluation struct {
	scored *model.ScoredCandidate
	drop   *model.DropRecord
	usage  anthropic.TokenUsage
}

// evaluateCandidate fetches, extracts, scores, and applies the admission
// policy to a single candidate. All failures resolve to a drop record; they
// never propagate to the caller.
func (p *Pipeline) evaluateCandidate(ctx context.Context, profile *model.TargetProfile, cand model.Candidate) evaluation {
	log := zap.L().With(zap.String("candidate", cand.Name))
	var usage anthropic.TokenUsage

	snippets := p.fetcher.FetchCandidate(ctx, cand)

	record, exUsage, err := p.extractor.ExtractCandidate(ctx, cand.Name, snippets)
	usage.Add(exUsage)
	if err != nil {
		log.Warn("pipeline: extraction failed", zap.Error(err))
		return evaluation{
			drop:  dropRecord(cand.Name, model.DropStageExtraction, "extraction failed: "+err.Error(), 0),
			usage: usage,
		}
	}

	// Regex backfill for listing fields the extraction left null.
	exchange.Backfill(record, snippets)

	// A record nothing corroborates can never be emitted, so there is no
	// point scoring it.
	if len(record.EvidenceURLs) == 0 {
		log.Debug("pipeline: no evidence urls")
		return evaluation{
			drop:  dropRecord(cand.Name, model.DropStageEvidence, "no corroborating evidence urls", 0),
			usage: usage,
		}
	}

	sim := validate.Similarity(*profile, *record)
	score := validate.Score(sim)
	verdict := validate.Check(*profile, *record)

	admitted, plausibility, reason, checkUsage := p.admit(ctx, profile, record, score, verdict)
	usage.Add(checkUsage)
	if !admitted {
		log.Debug("pipeline: candidate rejected",
			zap.Float64("score", score),
			zap.Bool("automated_pass", verdict.AutomatedPass),
			zap.String("plausibility", string(plausibility)),
			zap.String("reason", reason),
		)
		return evaluation{
			drop:  dropRecord(cand.Name, model.DropStageAdmission, reason, score),
			usage: usage,
		}
	}

	return evaluation{
		scored: &model.ScoredCandidate{
			CandidateRecord: *record,
			Similarity:      sim,
			ValidationScore: score,
			Verdict:         verdict,
			Plausibility:    plausibility,
		},
		usage: usage,
	}
}

// admit applies the admission policy:
//  1. score >= 0.7 admits outright (failsafe override),
//  2. otherwise score >= min_score AND (automated checks pass OR the LLM
//     cross-check finds the pairing plausible).
//
// The cross-check is lazy: it runs only when its answer could change the
// outcome, i.e. score in [min_score, 0.7) with failing automated checks. A
// failed cross-check is unresolved, not implausible, and an unresolved
// candidate stands or falls on the automated checks alone.
func (p *Pipeline) admit(ctx context.Context, profile *model.TargetProfile, record *model.CandidateRecord, score float64, verdict model.ValidationVerdict) (bool, model.Plausibility, string, anthropic.TokenUsage) {
	var usage anthropic.TokenUsage

	if score >= failsafeScore {
		return true, "", "", usage
	}
	if score < p.cfg.Pipeline.MinScore {
		return false, "", fmt.Sprintf("score %.3f below threshold %.3f", score, p.cfg.Pipeline.MinScore), usage
	}
	if verdict.AutomatedPass {
		return true, "", "", usage
	}

	check, checkUsage, err := p.extractor.CheckPlausibility(ctx, *profile, *record)
	usage.Add(checkUsage)
	if err != nil {
		zap.L().Warn("pipeline: plausibility check unresolved",
			zap.String("candidate", record.Name),
			zap.Error(err),
		)
		return false, model.PlausibilityUnresolved, "automated checks failed and plausibility unresolved", usage
	}

	switch check.Verdict {
	case model.PlausibilityPlausible:
		return true, model.PlausibilityPlausible, "", usage
	default:
		reason := "automated checks failed and cross-check implausible"
		if check.Reason != "" {
			reason += ": " + check.Reason
		}
		return false, model.PlausibilityImplausible, reason, usage
	}
}

func dropRecord(name string, stage model.DropStage, reason string, score float64) *model.DropRecord {
	return &model.DropRecord{
		CandidateName: name,
		Stage:         stage,
		Reason:        reason,
		Score:         score,
	}
}
