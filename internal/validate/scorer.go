package validate

import (
	"github.com/sells-group/comps-finder/internal/model"
	"github.com/sells-group/comps-finder/internal/similarity"
)

// Validation score weights. These are a fixed design constant, not a
// configuration point: every score in the system derives from exactly this
// combination.
const (
	serviceWeight = 0.6
	segmentWeight = 0.4
)

// Similarity computes the per-dimension similarity scores for a candidate
// against the target. Each dimension blends Jaccard over the key-term sets
// with TF-IDF over the corresponding texts; no candidate's score depends on
// any other candidate's data.
func Similarity(target model.TargetProfile, candidate model.CandidateRecord) model.SimilarityResult {
	return model.SimilarityResult{
		Service: similarity.Compare(
			targetServiceTerms(target), candidateServiceTerms(candidate),
			target.ServiceText(), candidate.BusinessActivity,
		),
		Segment: similarity.Compare(
			targetSegmentTerms(target), candidateSegmentTerms(candidate),
			target.SegmentText(), candidate.CustomerSegment,
		),
	}
}

// Score combines the two similarity components into the validation score.
// Clamping is defensive; in-range inputs never leave [0, 1].
func Score(sim model.SimilarityResult) float64 {
	return similarity.Clamp(serviceWeight*sim.Service + segmentWeight*sim.Segment)
}
