package pipeline

import (
	"time"

	"github.com/sells-group/comps-finder/internal/model"
)

// BuildProvenance constructs the field-level provenance log for the final
// comparables: one entry per resolved field per candidate, sourced to the
// candidate's first evidence URL. Entries are keyed by candidate name so
// the log is ordering-agnostic.
func BuildProvenance(comparables []model.ScoredCandidate) []model.ProvenanceEntry {
	now := time.Now().UTC()

	var entries []model.ProvenanceEntry
	for _, c := range comparables {
		source := ""
		if len(c.EvidenceURLs) > 0 {
			source = c.EvidenceURLs[0]
		}

		fields := []struct {
			name  string
			value string
		}{
			{"name", c.Name},
			{"url", c.URL},
			{"exchange", strDeref(c.Exchange)},
			{"ticker", strDeref(c.Ticker)},
			{"business_activity", c.BusinessActivity},
			{"customer_segment", c.CustomerSegment},
			{"sic_industry", strDeref(c.SICIndustry)},
		}

		for _, f := range fields {
			if f.value == "" {
				continue
			}
			entries = append(entries, model.ProvenanceEntry{
				CandidateName: c.Name,
				Field:         f.name,
				Value:         f.value,
				SourceURL:     source,
				Timestamp:     now,
			})
		}
	}
	return entries
}

func strDeref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
