package fetch

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"

	"github.com/marketscout/go-scout/models"
)

// CollyFetcher fetches one page per call with a fresh collector, so
// per-request headers and timeouts never leak between fetches.
type CollyFetcher struct {
	userAgent string
	transport http.RoundTripper
}

// NewCollyFetcher builds the default fetcher.
func NewCollyFetcher(userAgent string) *CollyFetcher {
	return &CollyFetcher{
		userAgent: userAgent,
		transport: &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			DialContext: (&net.Dialer{
				Timeout:   DefaultTimeout,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			MaxIdleConns:        100,
			IdleConnTimeout:     90 * time.Second,
			TLSHandshakeTimeout: 10 * time.Second,
		},
	}
}

// WithTransport swaps the HTTP transport, used by tests to install mocks.
func (f *CollyFetcher) WithTransport(rt http.RoundTripper) *CollyFetcher {
	f.transport = rt
	return f
}

// Fetch implements Fetcher.
func (f *CollyFetcher) Fetch(ctx context.Context, rawURL string, opts Options) (*Page, error) {
	if opts.WaitFor > 0 {
		timer := time.NewTimer(opts.WaitFor)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	collector := colly.NewCollector(colly.UserAgent(f.userAgent))
	collector.IgnoreRobotsTxt = true

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	collector.SetRequestTimeout(timeout)
	if f.transport != nil {
		collector.WithTransport(f.transport)
	}

	var (
		body     []byte
		status   int
		fetchErr error
	)
	collector.OnRequest(func(r *colly.Request) {
		for key, value := range opts.Headers {
			r.Headers.Set(key, value)
		}
	})
	collector.OnResponse(func(r *colly.Response) {
		body = r.Body
		status = r.StatusCode
	})
	collector.OnError(func(r *colly.Response, err error) {
		if r != nil {
			status = r.StatusCode
		}
		fetchErr = err
	})

	if err := collector.Visit(rawURL); err != nil {
		return nil, fmt.Errorf("visit %s: %w", rawURL, err)
	}
	collector.Wait()

	if fetchErr != nil {
		return nil, fmt.Errorf("fetch %s (status %d): %w", rawURL, status, fetchErr)
	}

	return f.buildPage(string(body), opts)
}

func (f *CollyFetcher) buildPage(html string, opts Options) (*Page, error) {
	page := &Page{Metadata: parseMetadata(html)}
	if opts.WantsFormat(models.FormatHTML) {
		page.HTML = html
	}
	if opts.WantsFormat(models.FormatMarkdown) {
		page.Markdown = toMarkdown(html, opts.ExcludeTags)
	}
	return page, nil
}

// toMarkdown converts HTML to markdown, dropping excluded tags. Conversion
// failures degrade to an empty markdown body rather than failing the fetch.
func toMarkdown(html string, excludeTags []string) string {
	converter := md.NewConverter("", true, nil)
	converter.Remove("script", "style")
	if len(excludeTags) > 0 {
		converter.Remove(excludeTags...)
	}
	markdown, err := converter.ConvertString(html)
	if err != nil {
		return ""
	}
	return markdown
}

func parseMetadata(html string) *models.PageMetadata {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}

	meta := &models.PageMetadata{
		Title: strings.TrimSpace(doc.Find("title").First().Text()),
	}
	if desc, ok := doc.Find(`meta[name="description"]`).Attr("content"); ok {
		meta.Description = strings.TrimSpace(desc)
	}
	if image, ok := doc.Find(`meta[property="og:image"]`).Attr("content"); ok {
		meta.OGImage = strings.TrimSpace(image)
	}
	if lang, ok := doc.Find("html").Attr("lang"); ok {
		meta.Language = strings.TrimSpace(lang)
	}
	if meta.Title == "" && meta.Description == "" && meta.OGImage == "" && meta.Language == "" {
		return nil
	}
	return meta
}
