// Package extract turns raw page content into structured product drafts.
// Extraction is total: any input, including empty or malformed markup,
// yields a usable draft, degrading field by field instead of failing.
package extract

import (
	"log/slog"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/marketscout/go-scout/models"
	"github.com/marketscout/go-scout/selector"
	"github.com/marketscout/go-scout/sources"
)

const (
	maxFeatures       = 20
	maxImages         = 10
	minFeatureLen     = 3
	maxFeatureLen     = 200
	minProseLen       = 50
	maxProseParagraph = 3

	defaultTitle       = "Untitled Product"
	defaultDescription = "No description available"
)

var (
	titleFallbacks       = "h1, .product-title, .title, .product-name"
	descriptionFallbacks = ".description, .product-description, .summary"
	listItemPattern      = regexp.MustCompile(`^(?:[-*+]|\d+\.)\s+`)
	decimalPattern       = regexp.MustCompile(`\d+(?:\.\d+)?`)
)

// Extractor builds product drafts from page content. It performs no I/O.
type Extractor struct {
	engine selector.Engine
}

// New builds an extractor. A nil engine falls back to the goquery default.
func New(engine selector.Engine) *Extractor {
	if engine == nil {
		engine = selector.NewGoqueryEngine()
	}
	return &Extractor{engine: engine}
}

// Extract produces a product draft from raw page content. The id, source
// name, status, and timestamps are the orchestrator's concern; only the
// content-derived fields are filled here.
func (e *Extractor) Extract(html, markdown, pageURL string, profile *sources.Profile, meta *models.PageMetadata) (product *models.StructuredProduct) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("extraction recovered", slog.Any("panic", r), slog.String("url", pageURL))
			product = e.minimalDefaults(markdown, pageURL, meta)
		}
	}()

	combined := markdown + " " + html

	product = &models.StructuredProduct{
		SourceURL:   pageURL,
		Title:       e.title(html, markdown, profile, meta),
		Description: e.description(html, markdown, profile),
		Pricing:     e.pricing(html, markdown, combined, profile),
		Features:    e.features(html, markdown, profile),
		Images:      e.images(html, pageURL, profile),
		Content:     markdown,
		Metadata: models.Metadata{
			Category: classifyCategory(combined, profileCategories(profile)),
			Tags:     extractTags(markdown + " " + titleText(meta)),
			Language: metaLanguage(meta),
			SEOData:  seoData(meta),
		},
	}
	product.Seller = e.seller(html, profile)
	product.Reviews = e.reviews(html, profile)
	return product
}

func (e *Extractor) title(html, markdown string, profile *sources.Profile, meta *models.PageMetadata) string {
	if sel, ok := profileSelector(profile, sources.SelTitle); ok {
		if text, found := e.engine.FindFirst(html, sel); found {
			return text
		}
	}
	if meta != nil && strings.TrimSpace(meta.Title) != "" {
		return strings.TrimSpace(meta.Title)
	}
	if text, found := e.engine.FindFirst(html, titleFallbacks); found {
		return text
	}
	if heading := firstMarkdownHeading(markdown); heading != "" {
		return heading
	}
	return defaultTitle
}

func (e *Extractor) description(html, markdown string, profile *sources.Profile) string {
	if sel, ok := profileSelector(profile, sources.SelDescription); ok {
		if text, found := e.engine.FindFirst(html, sel); found {
			return text
		}
	}
	if prose := proseParagraphs(markdown); prose != "" {
		return prose
	}
	if text, found := e.engine.FindFirst(html, descriptionFallbacks); found {
		return text
	}
	return defaultDescription
}

func (e *Extractor) pricing(html, markdown, combined string, profile *sources.Profile) models.Pricing {
	if sel, ok := profileSelector(profile, sources.SelPrice); ok {
		if text, found := e.engine.FindFirst(html, sel); found {
			return ParsePrice(text)
		}
	}
	if pricing, found := scanPrice(markdown); found {
		return pricing
	}
	if pricing, found := scanPrice(combined); found {
		return pricing
	}
	return models.Pricing{Type: models.PricingFree}
}

func (e *Extractor) features(html, markdown string, profile *sources.Profile) []string {
	var items []string
	if sel, ok := profileSelector(profile, sources.SelFeatures); ok {
		items = e.engine.FindAll(html, sel)
	}
	if len(items) == 0 {
		items = markdownListItems(markdown)
	}
	if len(items) == 0 {
		items = e.engine.FindAll(html, "li")
	}

	out := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if len(item) < minFeatureLen || len(item) > maxFeatureLen {
			continue
		}
		out = append(out, item)
		if len(out) == maxFeatures {
			break
		}
	}
	return out
}

func (e *Extractor) images(html, pageURL string, profile *sources.Profile) []string {
	var raw []string
	if sel, ok := profileSelector(profile, sources.SelImages); ok {
		raw = e.engine.FindAttrs(html, sel, "src")
	}
	if len(raw) == 0 {
		for _, src := range e.engine.FindAttrs(html, "img", "src") {
			lower := strings.ToLower(src)
			if strings.Contains(lower, "icon") || strings.Contains(lower, "logo") {
				continue
			}
			raw = append(raw, src)
		}
	}

	base, baseErr := url.Parse(pageURL)
	seen := make(map[string]struct{})
	out := make([]string, 0, len(raw))
	for _, src := range raw {
		resolved := src
		if baseErr == nil {
			if ref, err := url.Parse(src); err == nil {
				resolved = base.ResolveReference(ref).String()
			}
		}
		if _, dup := seen[resolved]; dup {
			continue
		}
		seen[resolved] = struct{}{}
		out = append(out, resolved)
		if len(out) == maxImages {
			break
		}
	}
	return out
}

func (e *Extractor) seller(html string, profile *sources.Profile) *models.Seller {
	sel, ok := profileSelector(profile, sources.SelSeller)
	if !ok {
		return nil
	}
	name, found := e.engine.FindFirst(html, sel)
	if !found {
		return nil
	}
	return &models.Seller{Name: name}
}

func (e *Extractor) reviews(html string, profile *sources.Profile) *models.Reviews {
	ratingSel, hasRating := profileSelector(profile, sources.SelRating)
	reviewsSel, hasReviews := profileSelector(profile, sources.SelReviews)
	if !hasRating && !hasReviews {
		return nil
	}

	reviews := &models.Reviews{}
	populated := false
	if hasRating {
		if text, found := e.engine.FindFirst(html, ratingSel); found {
			if match := decimalPattern.FindString(text); match != "" {
				reviews.Rating = parseFloat(match)
				populated = true
			}
		}
	}
	if hasReviews {
		if count := len(e.engine.FindAll(html, reviewsSel)); count > 0 {
			reviews.Count = count
			populated = true
		}
	}
	if !populated {
		return nil
	}
	return reviews
}

// minimalDefaults builds the degraded draft used when extraction panics.
func (e *Extractor) minimalDefaults(markdown, pageURL string, meta *models.PageMetadata) *models.StructuredProduct {
	title := titleText(meta)
	if title == "" {
		title = firstMarkdownHeading(markdown)
	}
	if title == "" {
		title = defaultTitle
	}
	description := proseParagraphs(markdown)
	if description == "" {
		description = defaultDescription
	}
	return &models.StructuredProduct{
		SourceURL:   pageURL,
		Title:       title,
		Description: description,
		Pricing:     models.Pricing{Type: models.PricingFree},
		Features:    []string{},
		Images:      []string{},
		Content:     markdown,
		Metadata: models.Metadata{
			Category: "digital-product",
			Tags:     []string{},
			SEOData:  seoData(meta),
		},
	}
}

func profileSelector(profile *sources.Profile, key string) (string, bool) {
	if profile == nil {
		return "", false
	}
	return profile.Selector(key)
}

func profileCategories(profile *sources.Profile) []string {
	if profile == nil {
		return nil
	}
	return profile.Categories
}

func titleText(meta *models.PageMetadata) string {
	if meta == nil {
		return ""
	}
	return strings.TrimSpace(meta.Title)
}

func metaLanguage(meta *models.PageMetadata) string {
	if meta == nil {
		return ""
	}
	return meta.Language
}

func seoData(meta *models.PageMetadata) *models.SEOData {
	if meta == nil {
		return nil
	}
	if meta.Title == "" && meta.Description == "" && meta.OGImage == "" {
		return nil
	}
	return &models.SEOData{
		MetaTitle:       meta.Title,
		MetaDescription: meta.Description,
		OGImage:         meta.OGImage,
	}
}

func firstMarkdownHeading(markdown string) string {
	for _, line := range strings.Split(markdown, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "#") {
			return strings.TrimSpace(strings.TrimLeft(trimmed, "# "))
		}
	}
	return ""
}

// proseParagraphs joins the first few paragraphs that read like body copy:
// long enough, not headings or list items, and free of currency symbols.
func proseParagraphs(markdown string) string {
	var picked []string
	for _, paragraph := range strings.Split(markdown, "\n\n") {
		trimmed := strings.TrimSpace(paragraph)
		if len(trimmed) < minProseLen {
			continue
		}
		if strings.HasPrefix(trimmed, "#") || listItemPattern.MatchString(trimmed) {
			continue
		}
		if strings.ContainsAny(trimmed, "$€£¥") {
			continue
		}
		picked = append(picked, trimmed)
		if len(picked) == maxProseParagraph {
			break
		}
	}
	return strings.Join(picked, " ")
}

func markdownListItems(markdown string) []string {
	var items []string
	for _, line := range strings.Split(markdown, "\n") {
		trimmed := strings.TrimSpace(line)
		if !listItemPattern.MatchString(trimmed) {
			continue
		}
		items = append(items, strings.TrimSpace(listItemPattern.ReplaceAllString(trimmed, "")))
	}
	return items
}

func parseFloat(s string) float64 {
	value, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return value
}
