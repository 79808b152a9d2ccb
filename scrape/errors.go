package scrape

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidURL indicates the request URL could not be parsed.
type ErrInvalidURL struct {
	URL string
	Err error
}

func (e ErrInvalidURL) Error() string {
	return fmt.Sprintf("invalid url %q: %v", e.URL, e.Err)
}

func (e ErrInvalidURL) Unwrap() error {
	return e.Err
}

// ErrUnsupportedDomain indicates no source profile matches the URL host.
type ErrUnsupportedDomain struct {
	Host string
}

func (e ErrUnsupportedDomain) Error() string {
	return fmt.Sprintf("unsupported domain %q: no source profile matches", e.Host)
}

// ErrRateLimited indicates the source quota is exhausted and the wait is
// too long to sit out. Wait is the retry hint surfaced to callers.
type ErrRateLimited struct {
	Source string
	Wait   time.Duration
}

func (e ErrRateLimited) Error() string {
	minutes := int(e.Wait.Minutes()) + 1
	return fmt.Sprintf("rate limit exceeded for %s: retry in about %d minute(s)", e.Source, minutes)
}

// ErrFetchFailed wraps a failure from the fetch collaborator.
type ErrFetchFailed struct {
	URL string
	Err error
}

func (e ErrFetchFailed) Error() string {
	return fmt.Sprintf("fetch failed for %s: %v", e.URL, e.Err)
}

func (e ErrFetchFailed) Unwrap() error {
	return e.Err
}

// ErrExtractionFailed wraps an extraction failure. Extraction degrades
// rather than failing, so this should be rare.
type ErrExtractionFailed struct {
	URL string
	Err error
}

func (e ErrExtractionFailed) Error() string {
	return fmt.Sprintf("extraction failed for %s: %v", e.URL, e.Err)
}

func (e ErrExtractionFailed) Unwrap() error {
	return e.Err
}

// ErrEnrichmentFailed wraps an enrichment failure. Always non-fatal: the
// orchestrator logs it and keeps the scrape result.
type ErrEnrichmentFailed struct {
	Err error
}

func (e ErrEnrichmentFailed) Error() string {
	return fmt.Sprintf("enrichment failed: %v", e.Err)
}

func (e ErrEnrichmentFailed) Unwrap() error {
	return e.Err
}

// Error kind labels used in statistics and metrics.
const (
	KindInvalidURL        = "invalid_url"
	KindUnsupportedDomain = "unsupported_domain"
	KindRateLimited       = "rate_limited"
	KindFetchFailed       = "fetch_failed"
	KindExtractionFailed  = "extraction_failed"
	KindEnrichmentFailed  = "enrichment_failed"
	KindOther             = "other"
)

func errorKindLabel(err error) string {
	if err == nil {
		return ""
	}
	var invalidURL ErrInvalidURL
	if errors.As(err, &invalidURL) {
		return KindInvalidURL
	}
	var unsupported ErrUnsupportedDomain
	if errors.As(err, &unsupported) {
		return KindUnsupportedDomain
	}
	var rateLimited ErrRateLimited
	if errors.As(err, &rateLimited) {
		return KindRateLimited
	}
	var fetchFailed ErrFetchFailed
	if errors.As(err, &fetchFailed) {
		return KindFetchFailed
	}
	var extraction ErrExtractionFailed
	if errors.As(err, &extraction) {
		return KindExtractionFailed
	}
	var enrichment ErrEnrichmentFailed
	if errors.As(err, &enrichment) {
		return KindEnrichmentFailed
	}
	return KindOther
}
