package fetch

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"

	"github.com/marketscout/go-scout/models"
)

const samplePage = `<!DOCTYPE html>
<html lang="en">
<head>
<title>Notion Planner Template</title>
<meta name="description" content="A weekly planner template.">
<meta property="og:image" content="https://cdn.example.com/planner.png">
</head>
<body>
<nav>site nav</nav>
<h1>Notion Planner Template</h1>
<p>Plan your week with a single board.</p>
</body>
</html>`

func newMockedFetcher(t *testing.T) (*CollyFetcher, *httpmock.MockTransport) {
	t.Helper()
	transport := httpmock.NewMockTransport()
	return NewCollyFetcher("go-scout-test"), transport
}

func TestFetchReturnsHTMLAndMetadata(t *testing.T) {
	fetcher, transport := newMockedFetcher(t)
	fetcher.WithTransport(transport)
	transport.RegisterResponder("GET", "http://example.test/product",
		htmlResponder(samplePage))

	page, err := fetcher.Fetch(context.Background(), "http://example.test/product", Options{
		Formats: []models.OutputFormat{models.FormatHTML, models.FormatMarkdown},
	})
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}

	if page.HTML == "" {
		t.Fatalf("expected HTML content")
	}
	if page.Markdown == "" {
		t.Fatalf("expected markdown content")
	}
	if page.Metadata == nil {
		t.Fatalf("expected page metadata")
	}
	if page.Metadata.Title != "Notion Planner Template" {
		t.Fatalf("metadata title = %q", page.Metadata.Title)
	}
	if page.Metadata.Language != "en" {
		t.Fatalf("metadata language = %q", page.Metadata.Language)
	}
}

func TestFetchExcludesTagsFromMarkdown(t *testing.T) {
	fetcher, transport := newMockedFetcher(t)
	fetcher.WithTransport(transport)
	transport.RegisterResponder("GET", "http://example.test/product",
		htmlResponder(samplePage))

	page, err := fetcher.Fetch(context.Background(), "http://example.test/product", Options{
		Formats:     []models.OutputFormat{models.FormatMarkdown},
		ExcludeTags: []string{"nav"},
	})
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}

	if page.HTML != "" {
		t.Fatalf("html should be empty when only markdown is requested")
	}
	if strings.Contains(page.Markdown, "site nav") {
		t.Fatalf("markdown should not contain excluded nav content")
	}
}

func TestFetchPropagatesHTTPErrors(t *testing.T) {
	fetcher, transport := newMockedFetcher(t)
	fetcher.WithTransport(transport)
	transport.RegisterResponder("GET", "http://example.test/missing",
		httpmock.NewStringResponder(http.StatusNotFound, "not found"))

	_, err := fetcher.Fetch(context.Background(), "http://example.test/missing", Options{})
	if err == nil {
		t.Fatalf("expected error for 404 response")
	}
}

func TestFetchHonorsCancelledContext(t *testing.T) {
	fetcher, transport := newMockedFetcher(t)
	fetcher.WithTransport(transport)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := fetcher.Fetch(ctx, "http://example.test/product", Options{WaitFor: time.Second})
	if err != context.Canceled {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func htmlResponder(body string) httpmock.Responder {
	resp := httpmock.NewStringResponse(http.StatusOK, body)
	resp.Header.Set("Content-Type", "text/html")
	return httpmock.ResponderFromResponse(resp)
}
