// Package fetch gathers raw text snippets for candidate companies from
// their websites and Wikipedia. Plain HTTP with tag stripping; no
// JavaScript execution.
package fetch

import (
	"context"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/comps-finder/internal/config"
	"github.com/sells-group/comps-finder/internal/model"
)

const (
	// maxPageBytes limits the HTML downloaded per page.
	maxPageBytes = 512 * 1024

	// maxSnippetChars is the truncation limit per snippet.
	maxSnippetChars = 4000

	// minPageChars is the minimum stripped-text length worth keeping.
	minPageChars = 200
)

// entitySuffixes are trimmed from company names when deriving Wikipedia
// article titles.
var entitySuffixes = []string{" Inc", " Incorporated", " Corporation", " Corp", " LLC", " Ltd"}

var multiSpace = regexp.MustCompile(`\s{2,}`)

// Fetcher retrieves source snippets for a candidate company.
type Fetcher interface {
	FetchCandidate(ctx context.Context, candidate model.Candidate) []model.Snippet
}

// HTTPFetcher implements Fetcher over net/http with a shared rate limiter.
type HTTPFetcher struct {
	client    *http.Client
	userAgent string
	limiter   *rate.Limiter
	wikiBase  string
}

// New creates an HTTPFetcher from config.
func New(cfg config.FetchConfig) *HTTPFetcher {
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	if timeout <= 0 {
		timeout = 8 * time.Second
	}
	ua := cfg.UserAgent
	if ua == "" {
		ua = "comps-finder/1.0"
	}
	return &HTTPFetcher{
		client:    &http.Client{Timeout: timeout},
		userAgent: ua,
		limiter:   rate.NewLimiter(2, 2),
		wikiBase:  "https://en.wikipedia.org/wiki/",
	}
}

// FetchCandidate gathers snippets from the candidate's own site and its
// Wikipedia article. Fetch failures are logged and skipped; a candidate
// with no retrievable text gets a minimal name-only snippet so extraction
// can still run.
func (f *HTTPFetcher) FetchCandidate(ctx context.Context, candidate model.Candidate) []model.Snippet {
	log := zap.L().With(zap.String("candidate", candidate.Name))
	var snippets []model.Snippet

	if candidate.URL != "" {
		text, err := f.fetchPage(ctx, candidate.URL)
		if err != nil {
			log.Debug("site fetch failed", zap.String("url", candidate.URL), zap.Error(err))
		} else if len(text) >= minPageChars {
			for _, s := range relevantParagraphs(text) {
				snippets = append(snippets, model.Snippet{Text: s, SourceURL: candidate.URL})
			}
		}
	}

	if wikiText, wikiURL, err := f.fetchWikipedia(ctx, candidate.Name); err != nil {
		log.Debug("wikipedia fetch failed", zap.Error(err))
	} else if wikiText != "" {
		snippets = append(snippets, model.Snippet{Text: truncate(wikiText, maxSnippetChars), SourceURL: wikiURL})
	}

	if len(snippets) == 0 {
		snippet := model.Snippet{Text: "Company: " + candidate.Name + "."}
		if candidate.URL != "" {
			snippet.SourceURL = candidate.URL
		}
		snippets = append(snippets, snippet)
	}
	return snippets
}

// fetchWikipedia tries the direct article for the name, then retries with
// common entity suffixes stripped.
func (f *HTTPFetcher) fetchWikipedia(ctx context.Context, name string) (string, string, error) {
	tryNames := []string{name}
	for _, suffix := range entitySuffixes {
		if strings.HasSuffix(name, suffix) {
			tryNames = append(tryNames, strings.TrimSuffix(name, suffix))
			break
		}
	}

	var lastErr error
	for _, n := range tryNames {
		wikiURL := f.wikiBase + strings.ReplaceAll(n, " ", "_")
		text, err := f.fetchPage(ctx, wikiURL)
		if err != nil {
			lastErr = err
			continue
		}
		if cleaned := cleanText(text); len(cleaned) >= minPageChars {
			return cleaned, wikiURL, nil
		}
	}
	if lastErr == nil {
		lastErr = eris.New("fetch: no substantial wikipedia content")
	}
	return "", "", lastErr
}

// fetchPage downloads a page and returns its tag-stripped text.
func (f *HTTPFetcher) fetchPage(ctx context.Context, pageURL string) (string, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", eris.Wrap(err, "fetch: create request")
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return "", eris.Wrap(err, "fetch: get page")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode >= 400 {
		return "", eris.Errorf("fetch: %s returned %d", pageURL, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return "", eris.Wrap(err, "fetch: read body")
	}

	return stripHTMLTags(string(body)), nil
}

// relevantParagraphs keeps substantial paragraphs mentioning company
// overview, product, or customer language, falling back to the first few
// substantial paragraphs.
func relevantParagraphs(text string) []string {
	sectionKeywords := []string{
		"about us", "overview", "who we are", "mission",
		"products", "services", "solutions", "offerings", "what we do",
		"customers", "clients", "industries", "sectors", "markets", "verticals",
	}

	var paragraphs []string
	for _, p := range strings.Split(text, "\n") {
		p = cleanText(p)
		if len(p) > 50 {
			paragraphs = append(paragraphs, p)
		}
	}

	var matched []string
	for _, p := range paragraphs {
		lower := strings.ToLower(p)
		for _, kw := range sectionKeywords {
			if strings.Contains(lower, kw) && len(p) > 100 {
				matched = append(matched, truncate(p, 2000))
				break
			}
		}
	}

	if len(matched) == 0 {
		n := len(paragraphs)
		if n > 5 {
			n = 5
		}
		for _, p := range paragraphs[:n] {
			matched = append(matched, truncate(p, 2000))
		}
	}
	return matched
}

// stripHTMLTags removes HTML tags from a string, producing plain text.
func stripHTMLTags(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	inTag := false
	for _, r := range s {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
			b.WriteRune(' ')
		case !inTag:
			b.WriteRune(r)
		}
	}
	return b.String()
}

func cleanText(s string) string {
	return strings.TrimSpace(multiSpace.ReplaceAllString(s, " "))
}

func truncate(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	return s
}
