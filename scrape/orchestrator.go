// Package scrape drives listing scrapes end to end: admission control,
// fetch, extraction, optional enrichment, and running statistics.
package scrape

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/marketscout/go-scout/config"
	"github.com/marketscout/go-scout/enrich"
	"github.com/marketscout/go-scout/extract"
	"github.com/marketscout/go-scout/fetch"
	"github.com/marketscout/go-scout/models"
	"github.com/marketscout/go-scout/ratelimit"
	"github.com/marketscout/go-scout/sources"
)

const enrichSummaryLimit = 2000

// Orchestrator sequences rate limiting, fetching, extraction, and
// enrichment for one or many scrape requests.
type Orchestrator struct {
	cfg       *config.Config
	catalog   *sources.Catalog
	limiter   *ratelimit.Limiter
	fetcher   fetch.Fetcher
	extractor *extract.Extractor
	enricher  enrich.Enricher
	stats     *statsTracker
	Metrics   *Metrics
}

// NewOrchestrator wires the orchestrator's collaborators. A nil enricher
// disables enrichment regardless of request options.
func NewOrchestrator(cfg *config.Config, catalog *sources.Catalog, limiter *ratelimit.Limiter, fetcher fetch.Fetcher, extractor *extract.Extractor, enricher enrich.Enricher) *Orchestrator {
	return &Orchestrator{
		cfg:       cfg,
		catalog:   catalog,
		limiter:   limiter,
		fetcher:   fetcher,
		extractor: extractor,
		enricher:  enricher,
		stats:     newStatsTracker(),
		Metrics:   NewMetrics(),
	}
}

// ScrapeOne executes a single scrape request end to end. Failures are
// returned inside the result envelope, never panicked or swallowed.
func (o *Orchestrator) ScrapeOne(ctx context.Context, req *models.ScrapeRequest) *models.ScrapeResult {
	start := time.Now()
	result := &models.ScrapeResult{RequestID: uuid.NewString()}

	fail := func(source string, err error) *models.ScrapeResult {
		kind := errorKindLabel(err)
		result.Err = err
		result.ErrorKind = kind
		result.Duration = time.Since(start)
		o.stats.recordFailure(source, kind, result.Duration)
		o.Metrics.IncError(kind)
		slog.Error("scrape failed",
			slog.String("request_id", result.RequestID),
			slog.String("url", req.URL),
			slog.String("kind", kind),
			slog.Any("error", err),
		)
		return result
	}

	parsed, err := url.Parse(req.URL)
	if err != nil || parsed.Host == "" {
		if err == nil {
			err = fmt.Errorf("missing host")
		}
		return fail("", ErrInvalidURL{URL: req.URL, Err: err})
	}

	profile, ok := o.resolveProfile(req)
	if !ok {
		return fail("", ErrUnsupportedDomain{Host: parsed.Host})
	}
	o.Metrics.IncRequest(profile.Name)

	if !req.Options.SkipRateLimit {
		if outcome := o.limiter.Check(profile.Name, profile.HourlyQuota); !outcome.Allowed {
			o.Metrics.IncRateLimitWait()
		}
		if err := o.limiter.Wait(ctx, profile.Name, profile.HourlyQuota); err != nil {
			var tooLong ratelimit.ErrWaitTooLong
			if errors.As(err, &tooLong) {
				return fail(profile.Name, ErrRateLimited{Source: profile.Name, Wait: tooLong.Wait})
			}
			return fail(profile.Name, err)
		}
	}

	page, err := o.fetchWithRetry(ctx, req, profile)
	if err != nil {
		return fail(profile.Name, ErrFetchFailed{URL: req.URL, Err: err})
	}

	product := o.extractor.Extract(page.HTML, page.Markdown, req.URL, profile, page.Metadata)
	product.ID = uuid.NewString()
	product.SourceName = profile.Name
	product.Status = models.StatusSuccess
	product.ScrapedAt = time.Now()

	if req.Options.EnrichContent && o.enricher != nil {
		o.enrichProduct(ctx, product)
	}

	o.limiter.Record(profile.Name)
	result.Product = product
	result.Duration = time.Since(start)
	result.Remaining = o.limiter.Check(profile.Name, profile.HourlyQuota).Remaining
	o.stats.recordSuccess(profile.Name, result.Duration)
	o.Metrics.IncProducts()
	o.Metrics.ObserveDuration(result.Duration)

	slog.Debug("scrape complete",
		slog.String("request_id", result.RequestID),
		slog.String("source", profile.Name),
		slog.String("title", product.Title),
		slog.Duration("duration", result.Duration),
	)
	return result
}

// ScrapeMany runs requests in chunks of the configured concurrency.
// Results preserve input order and per-item failures never abort siblings.
func (o *Orchestrator) ScrapeMany(ctx context.Context, reqs []*models.ScrapeRequest) []*models.ScrapeResult {
	results := make([]*models.ScrapeResult, len(reqs))
	if len(reqs) == 0 {
		return results
	}

	chunkSize := o.cfg.Concurrency
	if chunkSize <= 0 {
		chunkSize = 3
	}

	for offset := 0; offset < len(reqs); offset += chunkSize {
		end := offset + chunkSize
		if end > len(reqs) {
			end = len(reqs)
		}

		done := make(chan struct{})
		for i := offset; i < end; i++ {
			go func(idx int) {
				defer func() { done <- struct{}{} }()
				results[idx] = o.ScrapeOne(ctx, reqs[idx])
			}(i)
		}
		for i := offset; i < end; i++ {
			<-done
		}

		if end < len(reqs) && o.cfg.ChunkDelay > 0 {
			timer := time.NewTimer(o.cfg.ChunkDelay)
			select {
			case <-ctx.Done():
				timer.Stop()
				for i := end; i < len(reqs); i++ {
					results[i] = &models.ScrapeResult{
						RequestID: uuid.NewString(),
						Err:       ctx.Err(),
						ErrorKind: KindOther,
					}
				}
				return results
			case <-timer.C:
			}
		}
	}
	return results
}

// Stats returns a snapshot of the running counters.
func (o *Orchestrator) Stats() Stats {
	return o.stats.snapshot()
}

// ResetStats clears the running counters.
func (o *Orchestrator) ResetStats() {
	o.stats.reset()
}

func (o *Orchestrator) resolveProfile(req *models.ScrapeRequest) (*sources.Profile, bool) {
	if req.SourceID != "" {
		if profile, ok := o.catalog.ByName(req.SourceID); ok {
			return profile, true
		}
	}
	return o.catalog.Resolve(req.URL)
}

func (o *Orchestrator) fetchWithRetry(ctx context.Context, req *models.ScrapeRequest, profile *sources.Profile) (*fetch.Page, error) {
	opts := o.fetchOptions(req, profile)

	retries := req.Options.MaxRetries
	if retries == 0 {
		retries = o.cfg.MaxRetries
	}

	var lastErr error
	for attempt := 0; attempt <= retries; attempt++ {
		if attempt > 0 {
			timer := time.NewTimer(o.retryBackoff(attempt))
			select {
			case <-ctx.Done():
				timer.Stop()
				return nil, ctx.Err()
			case <-timer.C:
			}
		}

		page, err := o.fetcher.Fetch(ctx, req.URL, opts)
		if err == nil {
			return page, nil
		}
		lastErr = err
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			break
		}
		slog.Debug("fetch attempt failed",
			slog.String("url", req.URL),
			slog.Int("attempt", attempt+1),
			slog.Any("error", err),
		)
	}
	return nil, lastErr
}

func (o *Orchestrator) fetchOptions(req *models.ScrapeRequest, profile *sources.Profile) fetch.Options {
	timeout := req.Options.Timeout
	if timeout <= 0 {
		timeout = o.cfg.FetchTimeout
	}
	return fetch.Options{
		Formats:     req.Options.Formats,
		Headers:     profile.Fetch.Headers,
		Timeout:     timeout,
		WaitFor:     time.Duration(profile.Fetch.WaitMs) * time.Millisecond,
		ExcludeTags: profile.Fetch.ExcludeTags,
	}
}

// retryBackoff mirrors the fetch retry schedule: capped exponential growth
// with a little jitter. Distinct from rate-limit waiting.
func (o *Orchestrator) retryBackoff(attempt int) time.Duration {
	base := o.cfg.RetryBackoff
	if base <= 0 {
		base = 100 * time.Millisecond
	}
	delay := base * time.Duration(1<<(attempt-1))
	if max := o.cfg.RetryBackoffMax; max > 0 && delay > max {
		delay = max
	}
	return delay + time.Duration(rand.Int63n(int64(50*time.Millisecond)))
}

// enrichProduct merges advisory enrichment into product metadata only.
// Identity and pricing fields are never touched, and failures are logged
// and dropped so the scrape itself still succeeds.
func (o *Orchestrator) enrichProduct(ctx context.Context, product *models.StructuredProduct) {
	summary := product.Title + "\n" + product.Description
	if len(product.Content) > 0 {
		content := product.Content
		if len(content) > enrichSummaryLimit {
			content = content[:enrichSummaryLimit]
		}
		summary += "\n" + content
	}

	enrichment, err := o.enricher.Enrich(ctx, summary)
	if err != nil {
		wrapped := ErrEnrichmentFailed{Err: err}
		o.Metrics.IncError(errorKindLabel(wrapped))
		slog.Warn("enrichment skipped", slog.String("product_id", product.ID), slog.Any("error", err))
		return
	}
	if enrichment == nil {
		return
	}

	if enrichment.Category != "" {
		product.Metadata.Category = enrichment.Category
	}
	if len(enrichment.Tags) > 0 {
		product.Metadata.Tags = mergeTags(product.Metadata.Tags, enrichment.Tags)
	}
	if enrichment.TargetAudience != "" || len(enrichment.SellingPoints) > 0 || len(enrichment.Advantages) > 0 {
		product.Metadata.AIInsights = &models.AIInsights{
			TargetAudience: enrichment.TargetAudience,
			SellingPoints:  enrichment.SellingPoints,
			Advantages:     enrichment.Advantages,
		}
	}
}

func mergeTags(existing, extra []string) []string {
	seen := make(map[string]struct{}, len(existing))
	out := make([]string, 0, len(existing)+len(extra))
	for _, tag := range existing {
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	for _, tag := range extra {
		if _, dup := seen[tag]; dup {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}
