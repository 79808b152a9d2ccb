package models

import "time"

// OutputFormat names a content representation a caller can request from
// the fetch collaborator.
type OutputFormat string

// Output formats.
const (
	FormatHTML     OutputFormat = "html"
	FormatMarkdown OutputFormat = "markdown"
)

// Priority orders scrape requests when a caller queues many of them.
type Priority string

// Priority tiers.
const (
	PriorityLow    Priority = "low"
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
)

// ScrapeOptions tunes a single scrape request.
type ScrapeOptions struct {
	Timeout       time.Duration  `json:"timeout,omitempty"`
	MaxRetries    int            `json:"max_retries,omitempty"`
	Formats       []OutputFormat `json:"formats,omitempty"`
	SkipRateLimit bool           `json:"skip_rate_limit,omitempty"`
	EnrichContent bool           `json:"enrich_content,omitempty"`
}

// ScrapeRequest asks the orchestrator to scrape one listing page.
// A request is consumed once; callers build a fresh one per scrape.
type ScrapeRequest struct {
	URL      string        `json:"url"`
	SourceID string        `json:"source_id,omitempty"`
	Options  ScrapeOptions `json:"options"`
	Priority Priority      `json:"priority,omitempty"`
	UserID   string        `json:"user_id,omitempty"`
}

// ScrapeResult is the envelope returned for one scrape request.
type ScrapeResult struct {
	RequestID string             `json:"request_id"`
	Product   *StructuredProduct `json:"product,omitempty"`
	Err       error              `json:"-"`
	ErrorKind string             `json:"error_kind,omitempty"`
	Duration  time.Duration      `json:"duration"`
	Remaining int                `json:"remaining_quota"`
}

// OK reports whether the scrape produced a usable product.
func (r *ScrapeResult) OK() bool {
	return r != nil && r.Err == nil && r.Product != nil
}
