// Package discovery supplies the ordered list of raw candidate companies to
// evaluate. It builds search queries from the normalized target profile and
// selects candidates from curated seed lists keyed by industry signals.
package discovery

import (
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/comps-finder/internal/model"
)

// Query limits mirror the original discovery behavior: combined
// product/segment queries first, then industry keywords, then
// "companies like" variants.
const (
	maxProductQueries = 5
	maxSegmentQueries = 3
	maxKeywordQueries = 5
	maxLikeQueries    = 3
	maxQueries        = 15
)

var healthcareKeywords = []string{"healthcare", "health", "hospital", "medical", "revenue"}
var educationKeywords = []string{"education", "university", "research", "academic", "educational"}

// BuildQueries builds web search query strings from the normalized profile.
// Queries are not executed against a live search engine; they drive the
// keyword matching that selects seed pools.
func BuildQueries(profile model.TargetProfile) []string {
	var queries []string

	products := capSlice(profile.ProductsServices, maxProductQueries)
	segments := capSlice(profile.CustomerSegments, maxSegmentQueries)

	for _, product := range products {
		for _, segment := range segments {
			queries = append(queries, firstWords(product, 4)+" "+firstWords(segment, 3)+" public company")
		}
	}
	for _, kw := range capSlice(profile.Keywords, maxKeywordQueries) {
		queries = append(queries, kw+" consulting services public company stock")
	}
	for _, product := range capSlice(profile.ProductsServices, maxLikeQueries) {
		queries = append(queries, "companies like "+firstWords(product, 4)+" public trading")
	}

	if len(queries) > maxQueries {
		queries = queries[:maxQueries]
	}
	return queries
}

// Discover selects up to maxCandidates candidates from the seed lists,
// choosing vertical pools by keyword signals present in the queries.
// Output order is deterministic for a given profile and seed list; the
// pipeline makes no assumption about it beyond the cap.
func Discover(profile model.TargetProfile, seeds *SeedList, maxCandidates int) []model.Candidate {
	log := zap.L().With(zap.String("phase", "discovery"))

	queries := BuildQueries(profile)
	combined := strings.ToLower(strings.Join(queries, " "))

	pool := make([]Seed, 0, len(seeds.Consulting)+len(seeds.Healthcare)+len(seeds.Education))
	pool = append(pool, seeds.Consulting...)
	if containsAny(combined, healthcareKeywords) {
		pool = append(pool, seeds.Healthcare...)
	}
	if containsAny(combined, educationKeywords) {
		pool = append(pool, seeds.Education...)
	}

	seen := make(map[string]struct{}, len(pool))
	candidates := make([]model.Candidate, 0, maxCandidates)
	for _, s := range pool {
		key := strings.ToLower(s.Name)
		if _, ok := seen[key]; ok {
			continue
		}
		if len(candidates) >= maxCandidates {
			break
		}
		seen[key] = struct{}{}
		candidates = append(candidates, model.Candidate{Name: s.Name, URL: s.URL})
	}

	log.Info("candidates discovered",
		zap.Int("queries", len(queries)),
		zap.Int("candidates", len(candidates)),
	)
	return candidates
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}

func capSlice(s []string, n int) []string {
	if len(s) > n {
		return s[:n]
	}
	return s
}

func firstWords(s string, n int) string {
	words := strings.Fields(s)
	if len(words) > n {
		words = words[:n]
	}
	return strings.Join(words, " ")
}
