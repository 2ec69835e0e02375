// Package validate applies the automated validation rules and the fixed
// weighted scoring that decide whether a candidate is a plausible
// comparable. All functions are pure over their inputs.
package validate

import (
	"strings"

	"github.com/sells-group/comps-finder/internal/model"
	"github.com/sells-group/comps-finder/internal/similarity"
)

// minServiceOverlap is the enforced automated gate for the service
// dimension: one shared phrase term.
const minServiceOverlap = 1

// minSegmentOverlap is the enforced gate for the segment dimension.
const minSegmentOverlap = 1

// unrelatedKeywords flag pure-hardware/pure-manufacturing businesses for the
// negative filter.
var unrelatedKeywords = []string{
	"manufacturing", "hardware vendor", "pure manufacturer",
	"equipment supplier", "physical product",
}

// serviceEscapeKeywords exempt a candidate from the negative filter when its
// text shows any consulting/service character.
var serviceEscapeKeywords = []string{
	"consulting", "services", "advisory", "managed services", "software",
}

// Check evaluates the automated validation rules for a candidate against
// the target profile. Each rule is independently evaluable; public_listing
// is advisory and never contributes to the overall automated pass.
func Check(target model.TargetProfile, candidate model.CandidateRecord) model.ValidationVerdict {
	v := model.ValidationVerdict{
		ServiceOverlap: serviceOverlap(target, candidate),
		SegmentOverlap: segmentOverlap(target, candidate),
		PublicListing:  candidate.PubliclyListed(),
	}
	v.NegativeFilter = negativeFilter(candidate, v.ServiceOverlap)
	v.AutomatedPass = v.ServiceOverlap && v.SegmentOverlap && v.NegativeFilter
	return v
}

// serviceOverlap passes when the target's service key phrases share at least
// minServiceOverlap terms with the candidate's service terms.
func serviceOverlap(target model.TargetProfile, candidate model.CandidateRecord) bool {
	return similarity.Intersect(targetServiceTerms(target), candidateServiceTerms(candidate)) >= minServiceOverlap
}

// segmentOverlap passes when the target's segment key phrases share at
// least minSegmentOverlap terms with the candidate's segment terms.
func segmentOverlap(target model.TargetProfile, candidate model.CandidateRecord) bool {
	return similarity.Intersect(targetSegmentTerms(target), candidateSegmentTerms(candidate)) >= minSegmentOverlap
}

// Term-set derivation shared by the overlap checks and the scorer. The
// candidate's extracted key-phrase lists are preferred; when extraction
// returned none, terms come from the free-text fields instead.

func targetServiceTerms(t model.TargetProfile) map[string]struct{} {
	return similarity.ExtractPhraseTerms(t.ProductsServices)
}

func targetSegmentTerms(t model.TargetProfile) map[string]struct{} {
	return similarity.ExtractPhraseTerms(t.CustomerSegments)
}

func candidateServiceTerms(c model.CandidateRecord) map[string]struct{} {
	if len(c.ServiceTerms) > 0 {
		return similarity.ExtractPhraseTerms(c.ServiceTerms)
	}
	return similarity.ExtractTerms(c.BusinessActivity)
}

func candidateSegmentTerms(c model.CandidateRecord) map[string]struct{} {
	if len(c.SegmentTerms) > 0 {
		return similarity.ExtractPhraseTerms(c.SegmentTerms)
	}
	return similarity.ExtractTerms(c.CustomerSegment)
}

// negativeFilter vetoes candidates that read as pure hardware or
// manufacturing plays with no service character. A candidate that already
// passed the service overlap cannot be failed here on industry-mismatch
// grounds alone.
func negativeFilter(candidate model.CandidateRecord, serviceOverlapPassed bool) bool {
	if serviceOverlapPassed {
		return true
	}

	text := strings.ToLower(candidate.BusinessActivity + " " + candidate.CustomerSegment)
	unrelated := 0
	for _, kw := range unrelatedKeywords {
		if strings.Contains(text, kw) {
			unrelated++
		}
	}
	if unrelated < 2 {
		return true
	}

	for _, kw := range serviceEscapeKeywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}
