package enrich

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestEnrichDecodesResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/enrich" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		var req enrichRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Text == "" {
			t.Fatalf("expected request text")
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"category":"template","tags":["notion","planner"],"target_audience":"creators"}`))
	}))
	defer server.Close()

	result, err := NewHTTPEnricher(server.URL).Enrich(context.Background(), "A Notion planner template")
	if err != nil {
		t.Fatalf("enrich: %v", err)
	}
	if result.Category != "template" {
		t.Fatalf("category = %q, want template", result.Category)
	}
	if len(result.Tags) != 2 {
		t.Fatalf("tags = %v, want 2 entries", result.Tags)
	}
	if result.TargetAudience != "creators" {
		t.Fatalf("target audience = %q", result.TargetAudience)
	}
}

func TestEnrichSurfacesServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	if _, err := NewHTTPEnricher(server.URL).Enrich(context.Background(), "text"); err == nil {
		t.Fatalf("expected error for 500 response")
	}
}

func TestNoopReturnsNothing(t *testing.T) {
	result, err := Noop{}.Enrich(context.Background(), "anything")
	if err != nil {
		t.Fatalf("noop enrich: %v", err)
	}
	if result != nil {
		t.Fatalf("noop should return nil enrichment")
	}
}
