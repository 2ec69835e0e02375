// Package rank deduplicates, orders, and truncates the admitted candidate
// pool into the final comparables list.
package rank

import (
	"sort"
	"strings"

	"github.com/sells-group/comps-finder/internal/model"
)

// Select deduplicates the pool by normalized company identity, sorts it by
// the ranking key, and truncates to maxFinal. A pool smaller than maxFinal
// is returned whole; the result is never padded.
//
// Sort key, descending, each level breaking ties for the previous:
//  1. validation score
//  2. evidence URL count
//  3. field completeness among {sic_industry, exchange, ticker}
//
// Remaining ties keep stable input order so processing order never leaks
// into the ranking.
func Select(pool []model.ScoredCandidate, maxFinal int) []model.ScoredCandidate {
	deduped := dedupe(pool)

	sort.SliceStable(deduped, func(i, j int) bool {
		a, b := deduped[i], deduped[j]
		if a.ValidationScore != b.ValidationScore {
			return a.ValidationScore > b.ValidationScore
		}
		if len(a.EvidenceURLs) != len(b.EvidenceURLs) {
			return len(a.EvidenceURLs) > len(b.EvidenceURLs)
		}
		return a.CompletenessCount() > b.CompletenessCount()
	})

	if len(deduped) > maxFinal {
		deduped = deduped[:maxFinal]
	}
	return deduped
}

// dedupe collapses candidates sharing an identity key, keeping the one with
// the higher validation score. First occurrence wins ties so input order
// stays stable.
func dedupe(pool []model.ScoredCandidate) []model.ScoredCandidate {
	byKey := make(map[string]int, len(pool))
	out := make([]model.ScoredCandidate, 0, len(pool))

	for _, c := range pool {
		key := identityKey(c)
		if idx, ok := byKey[key]; ok {
			if c.ValidationScore > out[idx].ValidationScore {
				out[idx] = c
			}
			continue
		}
		byKey[key] = len(out)
		out = append(out, c)
	}
	return out
}

func identityKey(c model.ScoredCandidate) string {
	return strings.ToLower(c.IdentityKey())
}
