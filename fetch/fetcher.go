// Package fetch defines the page-fetch collaborator consumed by the
// orchestrator, plus a default single-page implementation.
package fetch

import (
	"context"
	"time"

	"github.com/marketscout/go-scout/models"
)

// DefaultTimeout bounds a fetch when the request does not override it.
const DefaultTimeout = 30 * time.Second

// Options tunes one fetch. Headers and tag exclusions typically come from
// the source profile; the rest from the scrape request.
type Options struct {
	Formats     []models.OutputFormat
	Headers     map[string]string
	Timeout     time.Duration
	WaitFor     time.Duration
	ExcludeTags []string
}

// WantsFormat reports whether the caller asked for the given representation.
// An empty format list means everything.
func (o Options) WantsFormat(f models.OutputFormat) bool {
	if len(o.Formats) == 0 {
		return true
	}
	for _, have := range o.Formats {
		if have == f {
			return true
		}
	}
	return false
}

// Page is the raw content returned for one URL.
type Page struct {
	HTML     string
	Markdown string
	Metadata *models.PageMetadata
}

// Fetcher retrieves a single page. Implementations must respect ctx and the
// per-request timeout; retries are the orchestrator's concern, not theirs.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string, opts Options) (*Page, error)
}
