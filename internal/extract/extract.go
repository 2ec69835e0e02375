// Package extract implements the LLM boundary of the pipeline: target
// profile normalization, structured field extraction from candidate
// snippets, and the plausibility cross-check. Every call goes through a
// shared token-bucket rate limiter and transient-error retry.
package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/comps-finder/internal/config"
	"github.com/sells-group/comps-finder/internal/model"
	"github.com/sells-group/comps-finder/internal/resilience"
	"github.com/sells-group/comps-finder/pkg/anthropic"
)

// maxSnippets caps how many snippets are sent per extraction.
const maxSnippets = 5

// maxEvidenceURLs caps the evidence URLs attached to a record.
const maxEvidenceURLs = 3

// maxResponseTokens bounds every completion in this package.
const maxResponseTokens = 1024

// Extractor performs the LLM calls of the pipeline. The rate limiter is
// shared across all calls and has explicit lifecycle: created once per run,
// passed in as a collaborator.
type Extractor struct {
	ai      anthropic.Client
	model   string
	limiter *rate.Limiter
	retry   resilience.RetryConfig
	timeout time.Duration
}

// New creates an Extractor from config. The rate limiter admits
// RequestsPerMin calls per minute with a burst of one, which keeps calls
// strictly spaced for free-tier API limits.
func New(ai anthropic.Client, cfg config.AnthropicConfig) *Extractor {
	retryCfg := resilience.DefaultRetryConfig()
	if cfg.MaxRetries > 0 {
		retryCfg.MaxAttempts = cfg.MaxRetries
	}
	retryCfg.InitialBackoff = 5 * time.Second
	retryCfg.OnRetry = resilience.RetryLogger("anthropic", "create_message")

	rpm := cfg.RequestsPerMin
	if rpm <= 0 {
		rpm = 3
	}
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	return &Extractor{
		ai:      ai,
		model:   cfg.Model,
		limiter: rate.NewLimiter(rate.Limit(rpm/60.0), 1),
		retry:   retryCfg,
		timeout: timeout,
	}
}

const normalizeSystem = "You are a precise data extraction assistant. Always output valid JSON only."

const normalizePrompt = `You are an investment analyst helping to identify comparable companies.

Given the following company information, extract and normalize the profile:

Company Name: %s
Business Description: %s
Primary Industry: %s
URL: %s

Your task:
1. Extract 5-12 key products/services as concise bullet points
2. Extract 5-10 key customer segments/verticals as concise bullet points
3. Identify canonical SIC industry name(s) if derivable
4. Generate 10-15 search keywords for finding comparable companies

Output ONLY valid JSON in this exact format:
{
    "target_products_services": ["bullet 1", "bullet 2"],
    "target_customer_segments": ["segment 1", "segment 2"],
    "canonical_sic_names": ["SIC name 1"],
    "keywords": ["keyword 1", "keyword 2"]
}

Be specific and avoid generic terms. Focus on distinctive offerings and customer types.`

// NormalizeTarget builds the normalized target profile from the raw input.
func (e *Extractor) NormalizeTarget(ctx context.Context, target model.TargetInput) (*model.TargetProfile, anthropic.TokenUsage, error) {
	prompt := fmt.Sprintf(normalizePrompt,
		target.Name,
		target.BusinessDescription,
		orUnspecified(target.PrimaryIndustry),
		orUnspecified(target.URL),
	)

	text, usage, err := e.complete(ctx, normalizeSystem, prompt, 0.3)
	if err != nil {
		return nil, usage, eris.Wrap(err, "extract: normalize target")
	}

	var profile model.TargetProfile
	if err := decodeJSONBlock(text, &profile); err != nil {
		return nil, usage, eris.Wrap(err, "extract: parse normalized target")
	}
	profile.Name = target.Name
	return &profile, usage, nil
}

const extractSystem = "You are a precise data extraction assistant. Extract only facts present in the provided text. Output valid JSON only."

const extractPrompt = `You are extracting company information from provided text snippets.

Company Name: %s

Text Snippets (from company website, Wikipedia, SEC filings, etc.):
%s

Source URLs:
%s

Extract the following fields. If a field cannot be determined from the snippets, use null:
- name: Company name
- url: Company website URL (if found in snippets or use first source URL)
- exchange: Stock exchange (NYSE, NASDAQ, AMEX, OTC, etc.)
- ticker: Stock ticker symbol
- business_activity: Tight summary of main products/services (2-3 sentences)
- service_terms: 2-5 short key phrases naming the products/services
- customer_segment: Who they sell to, industries/sectors (1-2 sentences)
- segment_terms: 2-5 short key phrases naming the customer segments
- sic_industry: SIC industry name(s) if derivable, else null
- evidence_urls: List of the 3 most relevant source URLs

IMPORTANT:
- Only use information present in the snippets
- Do not invent or infer facts not supported by the text
- If exchange/ticker is unclear, use null
- Be precise and factual

Output ONLY valid JSON in this exact format:
{
    "name": "Company Name",
    "url": "https://...",
    "exchange": "NYSE" or null,
    "ticker": "SYMBOL" or null,
    "business_activity": "Description...",
    "service_terms": ["phrase 1", "phrase 2"],
    "customer_segment": "Description...",
    "segment_terms": ["phrase 1", "phrase 2"],
    "sic_industry": "SIC Name" or null,
    "evidence_urls": ["url1", "url2", "url3"]
}`

// ExtractCandidate extracts structured fields for a candidate from its
// snippets. Fields the source text does not resolve come back nil; snippets
// never resolve into fabricated values.
func (e *Extractor) ExtractCandidate(ctx context.Context, name string, snippets []model.Snippet) (*model.CandidateRecord, anthropic.TokenUsage, error) {
	if len(snippets) > maxSnippets {
		snippets = snippets[:maxSnippets]
	}

	texts := make([]string, 0, len(snippets))
	urls := make([]string, 0, len(snippets))
	for _, s := range snippets {
		texts = append(texts, s.Text)
		if s.SourceURL != "" && len(urls) < maxEvidenceURLs {
			urls = append(urls, s.SourceURL)
		}
	}

	prompt := fmt.Sprintf(extractPrompt,
		name,
		strings.Join(texts, "\n\n---\n\n"),
		strings.Join(urls, ", "),
	)

	text, usage, err := e.complete(ctx, extractSystem, prompt, 0.2)
	if err != nil {
		return nil, usage, eris.Wrapf(err, "extract: candidate %s", name)
	}

	var record model.CandidateRecord
	if err := decodeJSONBlock(text, &record); err != nil {
		return nil, usage, eris.Wrapf(err, "extract: parse candidate %s", name)
	}

	if record.Name == "" {
		record.Name = name
	}
	if len(record.EvidenceURLs) == 0 {
		record.EvidenceURLs = urls
	}
	if record.URL == "" && len(urls) > 0 {
		record.URL = urls[0]
	}
	return &record, usage, nil
}

const plausibilitySystem = "You are a validation assistant. Output valid JSON only."

const plausibilityPrompt = `You are validating if a candidate company is a plausible comparable.

TARGET COMPANY:
Products/Services:
%s

Customer Segments:
%s

CANDIDATE COMPANY:
Name: %s
Business Activity: %s
Customer Segment: %s
SIC Industry: %s

Determine if this candidate is a plausible comparable based on:
1. Product/Service similarity - do they offer similar solutions?
2. Customer segment similarity - do they serve similar customers/industries?
3. Industry overlap - are they in related industries?

Output ONLY valid JSON:
{
    "is_plausible": true or false,
    "reason": "Brief explanation (1-2 sentences)",
    "failure_type": "different_products" or "different_segments" or "insufficient_info" or null
}

failure_type should be:
- "different_products" if products/services are too different
- "different_segments" if customer segments don't overlap
- "insufficient_info" if we can't determine from available data
- null if is_plausible is true`

type plausibilityResponse struct {
	IsPlausible bool    `json:"is_plausible"`
	Reason      string  `json:"reason"`
	FailureType *string `json:"failure_type"`
}

// CheckPlausibility runs the LLM cross-check. The returned error indicates
// transport failure; callers record that as unresolved, never implausible.
func (e *Extractor) CheckPlausibility(ctx context.Context, target model.TargetProfile, candidate model.CandidateRecord) (*model.PlausibilityCheck, anthropic.TokenUsage, error) {
	prompt := fmt.Sprintf(plausibilityPrompt,
		bulletList(target.ProductsServices),
		bulletList(target.CustomerSegments),
		candidate.Name,
		candidate.BusinessActivity,
		candidate.CustomerSegment,
		orUnspecified(deref(candidate.SICIndustry)),
	)

	text, usage, err := e.complete(ctx, plausibilitySystem, prompt, 0.3)
	if err != nil {
		return nil, usage, eris.Wrapf(err, "extract: plausibility %s", candidate.Name)
	}

	var resp plausibilityResponse
	if err := decodeJSONBlock(text, &resp); err != nil {
		return nil, usage, eris.Wrapf(err, "extract: parse plausibility %s", candidate.Name)
	}

	check := &model.PlausibilityCheck{
		Verdict: model.PlausibilityImplausible,
		Reason:  resp.Reason,
	}
	if resp.IsPlausible {
		check.Verdict = model.PlausibilityPlausible
	} else if resp.FailureType != nil {
		ft := parseFailureType(*resp.FailureType)
		check.FailureType = &ft
	}
	return check, usage, nil
}

// complete sends a single rate-limited, retried completion and returns the
// response text.
func (e *Extractor) complete(ctx context.Context, system, prompt string, temperature float64) (string, anthropic.TokenUsage, error) {
	var usage anthropic.TokenUsage

	resp, err := resilience.DoVal(ctx, e.retry, func(ctx context.Context) (*anthropic.MessageResponse, error) {
		if waitErr := e.limiter.Wait(ctx); waitErr != nil {
			return nil, waitErr
		}

		callCtx, cancel := context.WithTimeout(ctx, e.timeout)
		defer cancel()

		r, callErr := e.ai.CreateMessage(callCtx, anthropic.MessageRequest{
			Model:       e.model,
			MaxTokens:   maxResponseTokens,
			System:      system,
			Messages:    []anthropic.Message{{Role: "user", Content: prompt}},
			Temperature: &temperature,
		})
		if callErr != nil {
			return nil, callErr
		}
		usage.Add(r.Usage)
		return r, nil
	})
	if err != nil {
		return "", usage, err
	}

	text := resp.Text()
	if text == "" {
		return "", usage, eris.New("extract: empty response")
	}
	return text, usage, nil
}

// decodeJSONBlock locates the JSON object in a response (models sometimes
// add surrounding text) and unmarshals it.
func decodeJSONBlock(text string, v any) error {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return eris.Errorf("no JSON object in response: %.100s", text)
	}
	if err := json.Unmarshal([]byte(text[start:end+1]), v); err != nil {
		return eris.Wrap(err, "unmarshal response JSON")
	}
	return nil
}

func parseFailureType(s string) model.FailureType {
	switch model.FailureType(s) {
	case model.FailureDifferentProducts, model.FailureDifferentSegments, model.FailureInsufficientInfo:
		return model.FailureType(s)
	default:
		zap.L().Debug("unknown failure type", zap.String("failure_type", s))
		return model.FailureOther
	}
}

func bulletList(items []string) string {
	var b strings.Builder
	for _, it := range items {
		b.WriteString("- ")
		b.WriteString(it)
		b.WriteString("\n")
	}
	return b.String()
}

func orUnspecified(s string) string {
	if s == "" {
		return "Not specified"
	}
	return s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
