package scrape

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/marketscout/go-scout/config"
	"github.com/marketscout/go-scout/enrich"
	"github.com/marketscout/go-scout/extract"
	"github.com/marketscout/go-scout/fetch"
	"github.com/marketscout/go-scout/models"
	"github.com/marketscout/go-scout/ratelimit"
	"github.com/marketscout/go-scout/sources"
)

const testCatalogYAML = `sources:
  - name: gumroad
    domain: gumroad.com
    categories: [digital-products]
    hourly_quota: 100
    selectors:
      title: h1
      price: .price
  - name: tinyshop
    domain: tinyshop.io
    categories: [templates]
    hourly_quota: 1
    selectors:
      title: h1
`

type stubFetcher struct {
	html    string
	err     error
	calls   int
	failFor map[string]error
}

func (f *stubFetcher) Fetch(_ context.Context, rawURL string, _ fetch.Options) (*fetch.Page, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if err, ok := f.failFor[rawURL]; ok {
		return nil, err
	}
	return &fetch.Page{HTML: f.html, Markdown: "# Stub Product\n\n$9.99"}, nil
}

type stubEnricher struct {
	enrichment *models.Enrichment
	err        error
}

func (e *stubEnricher) Enrich(context.Context, string) (*models.Enrichment, error) {
	return e.enrichment, e.err
}

func newTestOrchestrator(t *testing.T, fetcher fetch.Fetcher, enricher enrich.Enricher) *Orchestrator {
	t.Helper()

	catalog, err := sources.Load([]byte(testCatalogYAML))
	if err != nil {
		t.Fatalf("load test catalog: %v", err)
	}
	cfg := config.DefaultConfig()
	cfg.ChunkDelay = 0
	cfg.MaxRetries = 0
	limiter := ratelimit.New()
	t.Cleanup(limiter.Stop)

	return NewOrchestrator(cfg, catalog, limiter, fetcher, extract.New(nil), enricher)
}

func TestScrapeOneSuccess(t *testing.T) {
	fetcher := &stubFetcher{html: "<h1>Stub Product</h1><span class='price'>$9.99</span>"}
	o := newTestOrchestrator(t, fetcher, nil)

	result := o.ScrapeOne(context.Background(), &models.ScrapeRequest{
		URL: "https://gumroad.com/l/stub-product",
	})

	if !result.OK() {
		t.Fatalf("scrape failed: %v", result.Err)
	}
	if result.Product.ID == "" {
		t.Fatalf("product should carry a generated id")
	}
	if result.Product.SourceName != "gumroad" {
		t.Fatalf("source name = %q, want gumroad", result.Product.SourceName)
	}
	if result.Product.Status != models.StatusSuccess {
		t.Fatalf("status = %q, want success", result.Product.Status)
	}
	if result.Product.Title != "Stub Product" {
		t.Fatalf("title = %q", result.Product.Title)
	}
	if result.Remaining != 99 {
		t.Fatalf("remaining = %d, want 99", result.Remaining)
	}
}

func TestScrapeOneInvalidURL(t *testing.T) {
	o := newTestOrchestrator(t, &stubFetcher{}, nil)

	result := o.ScrapeOne(context.Background(), &models.ScrapeRequest{URL: "not a url"})
	if result.OK() {
		t.Fatalf("expected failure for malformed url")
	}
	if result.ErrorKind != KindInvalidURL {
		t.Fatalf("error kind = %q, want %q", result.ErrorKind, KindInvalidURL)
	}
}

func TestScrapeOneUnsupportedDomain(t *testing.T) {
	o := newTestOrchestrator(t, &stubFetcher{}, nil)

	result := o.ScrapeOne(context.Background(), &models.ScrapeRequest{URL: "https://unknown-shop.example.com/p/1"})
	if result.ErrorKind != KindUnsupportedDomain {
		t.Fatalf("error kind = %q, want %q", result.ErrorKind, KindUnsupportedDomain)
	}
	var unsupported ErrUnsupportedDomain
	if !errors.As(result.Err, &unsupported) {
		t.Fatalf("error = %T, want ErrUnsupportedDomain", result.Err)
	}
}

func TestScrapeOneRateLimitedFailsFast(t *testing.T) {
	fetcher := &stubFetcher{html: "<h1>Item</h1>"}
	o := newTestOrchestrator(t, fetcher, nil)

	first := o.ScrapeOne(context.Background(), &models.ScrapeRequest{URL: "https://tinyshop.io/p/1"})
	if !first.OK() {
		t.Fatalf("first scrape should pass: %v", first.Err)
	}

	second := o.ScrapeOne(context.Background(), &models.ScrapeRequest{URL: "https://tinyshop.io/p/2"})
	if second.OK() {
		t.Fatalf("second scrape should hit the quota of 1")
	}
	var rateLimited ErrRateLimited
	if !errors.As(second.Err, &rateLimited) {
		t.Fatalf("error = %T, want ErrRateLimited", second.Err)
	}
	if rateLimited.Wait <= 0 {
		t.Fatalf("rate limit error should carry a positive wait, got %v", rateLimited.Wait)
	}
}

func TestScrapeOneFetchFailure(t *testing.T) {
	fetcher := &stubFetcher{err: fmt.Errorf("connection refused")}
	o := newTestOrchestrator(t, fetcher, nil)

	result := o.ScrapeOne(context.Background(), &models.ScrapeRequest{URL: "https://gumroad.com/l/x"})
	if result.ErrorKind != KindFetchFailed {
		t.Fatalf("error kind = %q, want %q", result.ErrorKind, KindFetchFailed)
	}

	stats := o.Stats()
	if stats.Failures != 1 {
		t.Fatalf("failures = %d, want 1", stats.Failures)
	}
	if stats.ErrorsByKind[KindFetchFailed] != 1 {
		t.Fatalf("errors by kind = %v", stats.ErrorsByKind)
	}
}

func TestScrapeManyPreservesOrderAndIsolatesFailures(t *testing.T) {
	fetcher := &stubFetcher{html: "<h1>Item</h1>"}
	o := newTestOrchestrator(t, fetcher, nil)

	reqs := []*models.ScrapeRequest{
		{URL: "https://gumroad.com/l/a"},
		{URL: "https://gumroad.com/l/b"},
		{URL: "not a url"},
		{URL: "https://gumroad.com/l/c"},
	}
	results := o.ScrapeMany(context.Background(), reqs)

	if len(results) != len(reqs) {
		t.Fatalf("results = %d, want %d", len(results), len(reqs))
	}
	failures := 0
	for i, result := range results {
		if result == nil {
			t.Fatalf("result %d is nil", i)
		}
		if !result.OK() {
			if i != 2 {
				t.Fatalf("unexpected failure at index %d: %v", i, result.Err)
			}
			failures++
		}
	}
	if failures != 1 {
		t.Fatalf("failures = %d, want exactly 1", failures)
	}
}

func TestEnrichmentFailureIsNonFatal(t *testing.T) {
	fetcher := &stubFetcher{html: "<h1>Item</h1>"}
	enricher := &stubEnricher{err: fmt.Errorf("sidecar down")}
	o := newTestOrchestrator(t, fetcher, enricher)

	result := o.ScrapeOne(context.Background(), &models.ScrapeRequest{
		URL:     "https://gumroad.com/l/a",
		Options: models.ScrapeOptions{EnrichContent: true},
	})
	if !result.OK() {
		t.Fatalf("scrape should succeed despite enrichment failure: %v", result.Err)
	}
}

func TestEnrichmentMergesMetadataOnly(t *testing.T) {
	fetcher := &stubFetcher{html: "<h1>Item</h1><span class='price'>$19.99</span>"}
	enricher := &stubEnricher{enrichment: &models.Enrichment{
		Category:       "software",
		Tags:           []string{"productivity"},
		TargetAudience: "freelancers",
	}}
	o := newTestOrchestrator(t, fetcher, enricher)

	result := o.ScrapeOne(context.Background(), &models.ScrapeRequest{
		URL:     "https://gumroad.com/l/a",
		Options: models.ScrapeOptions{EnrichContent: true},
	})
	if !result.OK() {
		t.Fatalf("scrape failed: %v", result.Err)
	}

	product := result.Product
	if product.Metadata.Category != "software" {
		t.Fatalf("category = %q, want software", product.Metadata.Category)
	}
	if product.Metadata.AIInsights == nil || product.Metadata.AIInsights.TargetAudience != "freelancers" {
		t.Fatalf("ai insights not merged: %+v", product.Metadata.AIInsights)
	}
	if product.Pricing.Amount != 19.99 {
		t.Fatalf("enrichment must not alter pricing, got %+v", product.Pricing)
	}
}

func TestStatsReset(t *testing.T) {
	fetcher := &stubFetcher{html: "<h1>Item</h1>"}
	o := newTestOrchestrator(t, fetcher, nil)

	o.ScrapeOne(context.Background(), &models.ScrapeRequest{URL: "https://gumroad.com/l/a"})
	if o.Stats().TotalRequests != 1 {
		t.Fatalf("total requests = %d, want 1", o.Stats().TotalRequests)
	}

	o.ResetStats()
	stats := o.Stats()
	if stats.TotalRequests != 0 || stats.Successes != 0 || len(stats.BySource) != 0 {
		t.Fatalf("stats not reset: %+v", stats)
	}
}
