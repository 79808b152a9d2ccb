// Package enrich wraps the optional text-enrichment sidecar. Enrichment is
// advisory: callers merge what comes back and carry on when it fails.
package enrich

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/marketscout/go-scout/models"
)

// ErrUnavailable indicates the enrichment service is unreachable.
var ErrUnavailable = errors.New("enrichment service unavailable")

const defaultTimeout = 15 * time.Second

// Enricher refines extracted product text into structured hints.
type Enricher interface {
	Enrich(ctx context.Context, text string) (*models.Enrichment, error)
}

// HTTPEnricher talks to a text-in/JSON-out sidecar over HTTP.
type HTTPEnricher struct {
	baseURL string
	client  *http.Client
}

// NewHTTPEnricher builds a client for the sidecar at baseURL.
func NewHTTPEnricher(baseURL string) *HTTPEnricher {
	return &HTTPEnricher{
		baseURL: baseURL,
		client:  &http.Client{Timeout: defaultTimeout},
	}
}

type enrichRequest struct {
	Text string `json:"text"`
}

// Enrich sends product text to POST /enrich and decodes the response.
func (e *HTTPEnricher) Enrich(ctx context.Context, text string) (*models.Enrichment, error) {
	body, err := json.Marshal(enrichRequest{Text: text})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/enrich", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("enrichment service returned %d", resp.StatusCode)
	}

	var result models.Enrichment
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &result, nil
}

// Health probes GET /health on the sidecar.
func (e *HTTPEnricher) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.baseURL+"/health", http.NoBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unhealthy status: %d", resp.StatusCode)
	}
	return nil
}

// Noop is an Enricher that returns nothing, for disabled runs and tests.
type Noop struct{}

// Enrich implements Enricher.
func (Noop) Enrich(context.Context, string) (*models.Enrichment, error) {
	return nil, nil
}
