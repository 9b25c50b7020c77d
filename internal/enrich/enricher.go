// Package enrich augments lead records with oracle-inferred attributes.
package enrich

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/time/rate"

	"github.com/jonathan/mapleads/internal/fetch"
	"github.com/jonathan/mapleads/internal/llm"
	"github.com/jonathan/mapleads/internal/prompts"
	"github.com/jonathan/mapleads/internal/schemas"
	"github.com/jonathan/mapleads/internal/types"
)

// Placeholders for missing lead inputs.
const (
	UnknownBusiness = "Unknown Business"
	UnknownCategory = "Unknown Category"
	NoWebsite       = "No Website"
	NoContent       = "No content available"
)

// Oracle produces a JSON analysis for a prompt. llm.Client satisfies it.
type Oracle interface {
	GenerateJSON(ctx context.Context, prompt string, tier llm.ModelTier) (string, error)
}

// ContentFetcher returns the stripped text of a website. *fetch.Fetcher satisfies it.
type ContentFetcher interface {
	FetchRendered(ctx context.Context, url string, limit int, renderFallback bool) (string, error)
}

// Options tunes enrichment.
type Options struct {
	// FetchTimeout bounds the website fetch of a single record.
	FetchTimeout time.Duration
	// ContentLimit caps the website text sent to the oracle, in runes.
	ContentLimit int
	// Concurrency bounds in-flight records in EnrichMany.
	Concurrency int
	// RateLimit caps oracle calls per second across all records. Zero disables it.
	RateLimit float64
	// OracleTimeout bounds a single oracle call. Zero leaves it to the transport.
	OracleTimeout      time.Duration
	UseBrowserFallback bool
	Tier               llm.ModelTier
}

// DefaultOptions returns the enrichment defaults.
func DefaultOptions() Options {
	return Options{
		FetchTimeout: fetch.DefaultTimeout,
		ContentLimit: fetch.DefaultContentLimit,
		Concurrency:  8,
		Tier:         llm.TierStandard,
	}
}

// Input is the oracle-facing view of a lead.
type Input struct {
	BusinessName string `json:"businessName"`
	Category     string `json:"category"`
	WebsiteURL   string `json:"websiteUrl"`
	// WebsiteText, when set, is used instead of fetching WebsiteURL.
	WebsiteText string `json:"websiteText,omitempty"`
}

// InputFromRecord builds the oracle input for an extracted record.
func InputFromRecord(r types.LeadRecord) Input {
	return Input{
		BusinessName: r.Title,
		Category:     r.Industry,
		WebsiteURL:   r.CompanyURL,
	}
}

func (in Input) normalized() Input {
	in.BusinessName = orDefault(in.BusinessName, UnknownBusiness)
	if in.BusinessName == "Unknown" {
		in.BusinessName = UnknownBusiness
	}
	in.Category = orDefault(in.Category, UnknownCategory)
	in.WebsiteURL = orDefault(in.WebsiteURL, NoWebsite)
	in.WebsiteText = strings.TrimSpace(in.WebsiteText)
	return in
}

func (in Input) hasWebsite() bool {
	return in.WebsiteURL != NoWebsite && fetch.IsFetchable(in.WebsiteURL)
}

// Enricher runs the fetch-and-analyze sequence for leads.
type Enricher struct {
	oracle  Oracle
	fetcher ContentFetcher
	opts    Options
	limiter *rate.Limiter
	logger  *slog.Logger

	preamble string
	template string
}

// New creates an enricher. A nil fetcher disables website fetching.
func New(oracle Oracle, fetcher ContentFetcher, opts Options, logger *slog.Logger) *Enricher {
	def := DefaultOptions()
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = def.FetchTimeout
	}
	if opts.ContentLimit <= 0 {
		opts.ContentLimit = def.ContentLimit
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = def.Concurrency
	}
	if opts.Tier == "" {
		opts.Tier = def.Tier
	}
	if logger == nil {
		logger = slog.Default()
	}

	e := &Enricher{
		oracle:   oracle,
		fetcher:  fetcher,
		opts:     opts,
		logger:   logger.With("component", "enrich"),
		preamble: prompts.MustGet(prompts.EnrichmentFile, prompts.KeyAnalystPreamble),
		template: prompts.MustGet(prompts.EnrichmentFile, prompts.KeyLeadInput),
	}
	if opts.RateLimit > 0 {
		e.limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), 1)
	}
	return e
}

// Options returns the effective options.
func (e *Enricher) Options() Options {
	return e.opts
}

// Enrich analyzes one record. It never fails: any error becomes a fallback result.
func (e *Enricher) Enrich(ctx context.Context, record types.LeadRecord) types.EnrichmentResult {
	return e.EnrichInput(ctx, InputFromRecord(record))
}

// EnrichInput analyzes one lead. It never fails: any error becomes a fallback result.
func (e *Enricher) EnrichInput(ctx context.Context, in Input) (res types.EnrichmentResult) {
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("enrichment panicked: %v", r)
			e.logger.Error("enrichment panicked", "business", in.BusinessName, "error", err)
			res = types.FallbackResult(err)
		}
	}()

	in = in.normalized()

	content := in.WebsiteText
	if content == "" && in.hasWebsite() {
		content = e.fetchContent(ctx, in.WebsiteURL)
	}
	content = truncateRunes(content, e.opts.ContentLimit)
	if emails := ScanEmails(content); len(emails) > 0 {
		content = EmailPrefix(emails) + content
	}
	if content == "" {
		content = NoContent
	}

	prompt := e.BuildPrompt(in, content)

	raw, err := e.callOracle(ctx, prompt)
	if err != nil {
		e.logger.Warn("oracle call failed, using fallback", "business", in.BusinessName, "error", err)
		return types.FallbackResult(err)
	}

	res, err = ParseResult(raw)
	if err != nil {
		e.logger.Warn("oracle returned unusable output, using fallback", "business", in.BusinessName, "error", err)
		return types.FallbackResult(err)
	}
	return res
}

// BuildPrompt renders the oracle instruction for a normalized lead and its prepared content.
func (e *Enricher) BuildPrompt(in Input, content string) string {
	input := prompts.Format(e.template, map[string]string{
		"BusinessName": in.BusinessName,
		"Category":     in.Category,
		"Website":      in.WebsiteURL,
		"WebsiteText":  content,
	})
	return llm.BuildExtractionPrompt(llm.LeadAnalysisSchema(e.preamble), input)
}

func (e *Enricher) fetchContent(ctx context.Context, url string) string {
	if e.fetcher == nil {
		return ""
	}
	fetchCtx, cancel := context.WithTimeout(ctx, e.opts.FetchTimeout)
	defer cancel()

	text, err := e.fetcher.FetchRendered(fetchCtx, url, e.opts.ContentLimit, e.opts.UseBrowserFallback)
	if err != nil {
		e.logger.Warn("website fetch failed, continuing without content", "url", url, "error", err)
		return ""
	}
	return text
}

func (e *Enricher) callOracle(ctx context.Context, prompt string) (string, error) {
	if e.oracle == nil {
		return "", errors.New("no oracle configured")
	}
	if e.limiter != nil {
		if err := e.limiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("rate limiter: %w", err)
		}
	}
	if e.opts.OracleTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.opts.OracleTimeout)
		defer cancel()
	}
	return e.oracle.GenerateJSON(ctx, prompt, e.opts.Tier)
}

// ParseResult decodes oracle output into a result. Code fences are stripped and the
// JSON must satisfy the enrichment result schema.
func ParseResult(raw string) (types.EnrichmentResult, error) {
	cleaned := llm.CleanJSONBlock(raw)
	if cleaned == "" {
		return types.EnrichmentResult{}, errors.New("empty oracle response")
	}
	if err := schemas.ValidateEnrichment(cleaned); err != nil {
		return types.EnrichmentResult{}, err
	}

	var res types.EnrichmentResult
	if err := json.Unmarshal([]byte(cleaned), &res); err != nil {
		return types.EnrichmentResult{}, fmt.Errorf("failed to decode oracle response: %w", err)
	}
	res.SEOHealth = types.ClampSEOHealth(res.SEOHealth)
	res.Email = nonBlank(res.Email)
	res.ContactPerson = nonBlank(res.ContactPerson)
	return res, nil
}

func nonBlank(s *string) *string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}

func orDefault(s, def string) string {
	if s = strings.TrimSpace(s); s == "" {
		return def
	}
	return s
}

func truncateRunes(s string, limit int) string {
	if limit <= 0 || utf8.RuneCountInString(s) <= limit {
		return s
	}
	return string([]rune(s)[:limit])
}
