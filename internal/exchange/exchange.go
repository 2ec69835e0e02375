// Package exchange detects public stock listings (exchange and ticker)
// from candidate source text.
package exchange

import (
	"regexp"
	"strings"

	"github.com/sells-group/comps-finder/internal/model"
)

// tickerWithExchange matches "TICKER: NYSE" style references. The ticker
// group is case-sensitive so lowercase prose words never match.
var tickerWithExchange = regexp.MustCompile(`\b([A-Z]{1,5})\s*[:\-]?\s*(?i:NYSE|NASDAQ|AMEX|OTC)\b`)

// exchangePrefixed matches "NYSE: TICKER" style references per exchange.
var exchangePrefixed = []*regexp.Regexp{
	regexp.MustCompile(`(?i:NYSE)[:\s]+([A-Z]{1,5})\b`),
	regexp.MustCompile(`(?i:New York Stock Exchange)[:\s]+([A-Z]{1,5})\b`),
	regexp.MustCompile(`(?i:NASDAQ)[:\s]+([A-Z]{1,5})\b`),
	regexp.MustCompile(`(?i:AMEX)[:\s]+([A-Z]{1,5})\b`),
	regexp.MustCompile(`(?i:American Stock Exchange)[:\s]+([A-Z]{1,5})\b`),
	regexp.MustCompile(`(?i:OTC)[:\s]+([A-Z]{1,5})\b`),
	regexp.MustCompile(`(?i:OTC Markets)[:\s]+([A-Z]{1,5})\b`),
}

// ExtractExchange returns the exchange named in text, or "".
func ExtractExchange(text string) string {
	upper := strings.ToUpper(text)
	switch {
	case strings.Contains(upper, "NYSE") || strings.Contains(upper, "NEW YORK STOCK EXCHANGE"):
		return "NYSE"
	case strings.Contains(upper, "NASDAQ"):
		return "NASDAQ"
	case strings.Contains(upper, "AMEX") || strings.Contains(upper, "AMERICAN STOCK EXCHANGE"):
		return "AMEX"
	case strings.Contains(upper, "OTC"):
		return "OTC"
	}
	return ""
}

// ExtractTicker returns the ticker symbol found in text, or "".
func ExtractTicker(text string) string {
	if m := tickerWithExchange.FindStringSubmatch(text); m != nil {
		return strings.ToUpper(m[1])
	}
	for _, re := range exchangePrefixed {
		if m := re.FindStringSubmatch(text); m != nil {
			return strings.ToUpper(m[1])
		}
	}
	return ""
}

// Backfill fills missing exchange and ticker fields on a candidate record
// from the snippets its extraction was based on. Fields the extraction step
// resolved are left alone; a decoded empty string counts as unresolved.
func Backfill(record *model.CandidateRecord, snippets []model.Snippet) {
	if record == nil || record.PubliclyListed() {
		return
	}

	var parts []string
	for _, s := range snippets {
		parts = append(parts, s.Text)
	}
	combined := strings.Join(parts, " ")

	if record.Exchange == nil || *record.Exchange == "" {
		if ex := ExtractExchange(combined); ex != "" {
			record.Exchange = &ex
		}
	}
	if record.Ticker == nil || *record.Ticker == "" {
		if t := ExtractTicker(combined); t != "" {
			record.Ticker = &t
		}
	}
}
