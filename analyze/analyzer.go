// Package analyze turns pools of scraped product records into ranked,
// explained market-intelligence reports.
package analyze

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/marketscout/go-scout/models"
)

const (
	defaultMaxResults = 10
	cacheSize         = 512
	topFeatureCount   = 5
	marketLeaderCount = 5
)

// Scraper is the slice of the orchestrator the analyzer depends on.
type Scraper interface {
	ScrapeOne(ctx context.Context, req *models.ScrapeRequest) *models.ScrapeResult
	ScrapeMany(ctx context.Context, reqs []*models.ScrapeRequest) []*models.ScrapeResult
}

// Config selects sweeps and filters for one analysis run.
type Config struct {
	Categories       []string
	PriceMin         float64
	PriceMax         float64 // zero means unbounded
	MinTrendingScore float64
	MaxResults       int
	Trending         bool
	SaaS             bool
	AdIntel          bool
	CustomURLs       []string
	Enrich           bool
}

// defaultSweeps maps each categorical sweep to its discovery URLs. The
// tables are data, not behavior: tests and callers may override them.
func defaultSweeps() map[string][]string {
	return map[string][]string{
		"trending": {
			"https://gumroad.com/discover",
			"https://www.producthunt.com/topics/digital-products",
			"https://www.etsy.com/c/digital-downloads",
		},
		"saas": {
			"https://www.producthunt.com/topics/saas",
			"https://appsumo.com/browse/",
		},
		"adintel": {
			"https://www.etsy.com/trending-items",
			"https://creativemarket.com/popular",
		},
	}
}

// Analyzer builds market reports from scrape sweeps. The product cache
// only backs Monitor diffs; clearing it never affects Analyze.
type Analyzer struct {
	scraper    Scraper
	strategies Strategies
	sweeps     map[string][]string
	cache      *lru.Cache[string, *models.WinningProduct]
}

// New wires an analyzer. Zero-value strategy fields fall back to defaults.
func New(scraper Scraper, strategies Strategies) (*Analyzer, error) {
	cache, err := lru.New[string, *models.WinningProduct](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("build product cache: %w", err)
	}

	defaults := DefaultStrategies()
	if strategies.Competitors == nil {
		strategies.Competitors = defaults.Competitors
	}
	if strategies.Opportunities == nil {
		strategies.Opportunities = defaults.Opportunities
	}
	if strategies.Risks == nil {
		strategies.Risks = defaults.Risks
	}
	if strategies.Recommendations == nil {
		strategies.Recommendations = defaults.Recommendations
	}
	if strategies.Insights == nil {
		strategies.Insights = defaults.Insights
	}

	return &Analyzer{
		scraper:    scraper,
		strategies: strategies,
		sweeps:     defaultSweeps(),
		cache:      cache,
	}, nil
}

// SetSweepURLs replaces the discovery URLs for one sweep.
func (a *Analyzer) SetSweepURLs(sweep string, urls []string) {
	a.sweeps[sweep] = urls
}

// Analyze runs the enabled sweeps and aggregates the surviving records
// into a ranked report. Partial sweep failures degrade the report rather
// than failing it; the count actually analyzed is reported.
func (a *Analyzer) Analyze(ctx context.Context, cfg Config) (*models.MarketAnalysis, error) {
	urls := a.sweepURLs(cfg)
	if len(urls) == 0 {
		return nil, fmt.Errorf("no sweeps enabled and no custom urls given")
	}

	reqs := make([]*models.ScrapeRequest, len(urls))
	for i, u := range urls {
		reqs[i] = &models.ScrapeRequest{
			URL:     u,
			Options: models.ScrapeOptions{EnrichContent: cfg.Enrich},
		}
	}

	results := a.scraper.ScrapeMany(ctx, reqs)
	var records []*models.StructuredProduct
	for _, result := range results {
		if result.OK() {
			records = append(records, result.Product)
		} else if result != nil {
			slog.Debug("sweep url skipped", slog.String("kind", result.ErrorKind), slog.Any("error", result.Err))
		}
	}

	filtered := filterRecords(records, cfg)
	winners := a.buildWinners(filtered, cfg)

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = defaultMaxResults
	}
	if len(winners) > maxResults {
		winners = winners[:maxResults]
	}

	analysis := &models.MarketAnalysis{
		TotalAnalyzed:   len(records),
		WinningProducts: winners,
		Trends:          buildTrends(filtered),
		Landscape:       buildLandscape(filtered),
		GeneratedAt:     time.Now(),
	}
	analysis.Insights = a.strategies.Insights(analysis)
	return analysis, nil
}

// DeepDive compares one product against explicit competitor URLs.
func (a *Analyzer) DeepDive(ctx context.Context, nameOrCategory string, competitorURLs []string) (*models.DeepDive, error) {
	product, err := a.findOrDerive(ctx, nameOrCategory)
	if err != nil {
		return nil, err
	}

	var competitorPrices []float64
	var competitorCount int
	for _, u := range competitorURLs {
		result := a.scraper.ScrapeOne(ctx, &models.ScrapeRequest{URL: u})
		if !result.OK() {
			slog.Debug("competitor scrape skipped", slog.String("url", u), slog.Any("error", result.Err))
			continue
		}
		competitorCount++
		if amount := result.Product.Pricing.Amount; amount > 0 {
			competitorPrices = append(competitorPrices, amount)
		}
	}

	dive := &models.DeepDive{
		Product:        product,
		MarketPosition: classifyPosition(product.Pricing.Amount, competitorPrices),
	}

	if product.Metrics.TrendingScore > 80 {
		dive.Advantages = append(dive.Advantages, "high market traction")
	}
	if dive.MarketPosition == models.PositionCostLeader {
		dive.Advantages = append(dive.Advantages, "price advantage over tracked competitors")
	}
	if len(dive.Advantages) == 0 {
		dive.Advantages = append(dive.Advantages, "no standout advantage under current rules")
	}

	if competitorCount > 5 {
		dive.Threats = append(dive.Threats, "high competition: more than five active competitors")
	}
	if dive.MarketPosition == models.PositionPremiumPlayer {
		dive.Threats = append(dive.Threats, "exposed to undercutting by cheaper alternatives")
	}

	switch dive.MarketPosition {
	case models.PositionCostLeader:
		dive.Recommendations = append(dive.Recommendations, "defend the price point; compete on volume")
	case models.PositionPremiumPlayer:
		dive.Recommendations = append(dive.Recommendations, "justify the premium with differentiated features")
	default:
		dive.Recommendations = append(dive.Recommendations, "differentiate beyond price to escape the middle")
	}
	return dive, nil
}

// Monitor refreshes previously cached products and reports what changed.
// Ids not present in the cache are skipped, never errors.
func (a *Analyzer) Monitor(ctx context.Context, productIDs []string) []*models.ProductUpdate {
	var updates []*models.ProductUpdate
	for _, id := range productIDs {
		cached, ok := a.cache.Get(id)
		if !ok {
			continue
		}
		if len(cached.Sources) == 0 {
			continue
		}

		result := a.scraper.ScrapeOne(ctx, &models.ScrapeRequest{URL: cached.Sources[0].URL})
		if !result.OK() {
			slog.Debug("monitor rescrape failed", slog.String("product_id", id), slog.Any("error", result.Err))
			continue
		}

		refreshed := a.buildWinner(result.Product, []models.ProductSource{{
			Platform: result.Product.SourceName,
			URL:      result.Product.SourceURL,
		}})
		refreshed.ID = cached.ID

		update := &models.ProductUpdate{
			ProductID: id,
			Product:   refreshed,
			Alerts:    diffAlerts(cached, refreshed),
			CheckedAt: time.Now(),
		}
		a.cache.Add(id, refreshed)
		updates = append(updates, update)
	}
	return updates
}

// CachedProduct exposes the monitor cache for callers and tests.
func (a *Analyzer) CachedProduct(id string) (*models.WinningProduct, bool) {
	return a.cache.Get(id)
}

func (a *Analyzer) sweepURLs(cfg Config) []string {
	var urls []string
	if cfg.Trending {
		urls = append(urls, a.sweeps["trending"]...)
	}
	if cfg.SaaS {
		urls = append(urls, a.sweeps["saas"]...)
	}
	if cfg.AdIntel {
		urls = append(urls, a.sweeps["adintel"]...)
	}
	urls = append(urls, cfg.CustomURLs...)
	return urls
}

func filterRecords(records []*models.StructuredProduct, cfg Config) []*models.StructuredProduct {
	var out []*models.StructuredProduct
	for _, r := range records {
		amount := r.Pricing.Amount
		if cfg.PriceMin > 0 && amount < cfg.PriceMin {
			continue
		}
		if cfg.PriceMax > 0 && amount > cfg.PriceMax {
			continue
		}
		if len(cfg.Categories) > 0 && !containsFold(cfg.Categories, r.Metadata.Category) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// buildWinners groups records that look like the same logical product,
// scores them, applies the minimum-score floor, and ranks the survivors.
func (a *Analyzer) buildWinners(records []*models.StructuredProduct, cfg Config) []*models.WinningProduct {
	type group struct {
		record  *models.StructuredProduct
		sources []models.ProductSource
	}

	var order []string
	groups := make(map[string]*group)
	for _, r := range records {
		key := strings.ToLower(strings.TrimSpace(r.Title))
		g, ok := groups[key]
		if !ok {
			g = &group{record: r}
			groups[key] = g
			order = append(order, key)
		}
		g.sources = append(g.sources, models.ProductSource{
			Platform: r.SourceName,
			URL:      r.SourceURL,
		})
	}

	var winners []*models.WinningProduct
	for _, key := range order {
		g := groups[key]
		winner := a.buildWinner(g.record, g.sources)
		if winner.Metrics.TrendingScore < cfg.MinTrendingScore {
			continue
		}
		a.cache.Add(winner.ID, winner)
		winners = append(winners, winner)
	}

	// Stable sort keeps discovery order across equal scores, which makes
	// ranked output deterministic.
	sort.SliceStable(winners, func(i, j int) bool {
		return winners[i].Metrics.TrendingScore > winners[j].Metrics.TrendingScore
	})
	return winners
}

func (a *Analyzer) buildWinner(record *models.StructuredProduct, srcs []models.ProductSource) *models.WinningProduct {
	score := trendingScore(record)
	metrics := deriveMetrics(record, score)

	risks := a.strategies.Risks(record, metrics)
	if len(srcs) <= 1 {
		risks = append(risks, "platform dependency: visible on a single marketplace only")
	}

	return &models.WinningProduct{
		ID:              uuid.NewString(),
		Name:            record.Title,
		Category:        record.Metadata.Category,
		Description:     record.Description,
		Pricing:         record.Pricing,
		Metrics:         metrics,
		Sources:         srcs,
		Competitors:     a.strategies.Competitors(record, metrics),
		Opportunities:   a.strategies.Opportunities(record, metrics),
		Risks:           risks,
		Recommendations: a.strategies.Recommendations(record, metrics),
		LastAnalyzed:    time.Now(),
	}
}

func (a *Analyzer) findOrDerive(ctx context.Context, nameOrCategory string) (*models.WinningProduct, error) {
	needle := strings.ToLower(nameOrCategory)
	for _, key := range a.cache.Keys() {
		if product, ok := a.cache.Get(key); ok {
			if strings.Contains(strings.ToLower(product.Name), needle) ||
				strings.EqualFold(product.Category, nameOrCategory) {
				return product, nil
			}
		}
	}

	analysis, err := a.Analyze(ctx, Config{Trending: true})
	if err != nil {
		return nil, err
	}
	for _, product := range analysis.WinningProducts {
		if strings.Contains(strings.ToLower(product.Name), needle) ||
			strings.EqualFold(product.Category, nameOrCategory) {
			return product, nil
		}
	}
	return nil, fmt.Errorf("no product matching %q", nameOrCategory)
}

func buildTrends(records []*models.StructuredProduct) []models.MarketTrend {
	type bucket struct {
		count      int
		priceTotal float64
		priced     int
		features   map[string]int
	}

	var order []string
	buckets := make(map[string]*bucket)
	for _, r := range records {
		category := r.Metadata.Category
		b, ok := buckets[category]
		if !ok {
			b = &bucket{features: make(map[string]int)}
			buckets[category] = b
			order = append(order, category)
		}
		b.count++
		if r.Pricing.Amount > 0 {
			b.priceTotal += r.Pricing.Amount
			b.priced++
		}
		for _, f := range r.Features {
			b.features[strings.ToLower(f)]++
		}
	}

	trends := make([]models.MarketTrend, 0, len(buckets))
	for _, category := range order {
		b := buckets[category]
		trend := models.MarketTrend{
			Category:     category,
			ProductCount: b.count,
			TopFeatures:  topByCount(b.features, topFeatureCount),
		}
		if b.priced > 0 {
			trend.AveragePrice = b.priceTotal / float64(b.priced)
		}
		trends = append(trends, trend)
	}
	return trends
}

func buildLandscape(records []*models.StructuredProduct) models.CompetitorLandscape {
	counts := make(map[string]int)
	for _, r := range records {
		counts[r.SourceName]++
	}

	ranked := topByCount(counts, len(counts))
	landscape := models.CompetitorLandscape{TotalSources: len(counts)}
	for i, source := range ranked {
		if i < marketLeaderCount {
			landscape.MarketLeaders = append(landscape.MarketLeaders, source)
		} else {
			landscape.EmergingPlayers = append(landscape.EmergingPlayers, source)
		}
	}
	return landscape
}

func classifyPosition(price float64, competitorPrices []float64) models.MarketPosition {
	if len(competitorPrices) == 0 || price <= 0 {
		return models.PositionMarketFollower
	}
	var total float64
	for _, p := range competitorPrices {
		total += p
	}
	average := total / float64(len(competitorPrices))

	switch {
	case price < average*0.8:
		return models.PositionCostLeader
	case price > average*1.2:
		return models.PositionPremiumPlayer
	default:
		return models.PositionMarketFollower
	}
}

func diffAlerts(before, after *models.WinningProduct) []models.Alert {
	var alerts []models.Alert

	if before.Pricing.Amount != after.Pricing.Amount {
		severity := models.LevelMedium
		if before.Pricing.Amount > 0 {
			change := math.Abs(after.Pricing.Amount-before.Pricing.Amount) / before.Pricing.Amount
			if change > 0.2 {
				severity = models.LevelHigh
			}
		}
		alerts = append(alerts, models.Alert{
			Kind:     models.AlertPriceChange,
			Message:  fmt.Sprintf("price moved from %.2f to %.2f", before.Pricing.Amount, after.Pricing.Amount),
			Severity: severity,
		})
	}

	if delta := after.Metrics.TrendingScore - before.Metrics.TrendingScore; math.Abs(delta) >= 10 {
		severity := models.LevelMedium
		if delta < 0 {
			severity = models.LevelHigh
		}
		alerts = append(alerts, models.Alert{
			Kind:     models.AlertTrendShift,
			Message:  fmt.Sprintf("trending score shifted by %+.0f", delta),
			Severity: severity,
		})
	}

	known := make(map[string]struct{}, len(before.Opportunities))
	for _, o := range before.Opportunities {
		known[o] = struct{}{}
	}
	for _, o := range after.Opportunities {
		if _, seen := known[o]; !seen {
			alerts = append(alerts, models.Alert{
				Kind:     models.AlertNewOpportunity,
				Message:  o,
				Severity: models.LevelLow,
			})
		}
	}
	return alerts
}

func topByCount(counts map[string]int, n int) []string {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if counts[keys[i]] != counts[keys[j]] {
			return counts[keys[i]] > counts[keys[j]]
		}
		return keys[i] < keys[j]
	})
	if len(keys) > n {
		keys = keys[:n]
	}
	return keys
}

func containsFold(haystack []string, needle string) bool {
	for _, h := range haystack {
		if strings.EqualFold(h, needle) {
			return true
		}
	}
	return false
}
