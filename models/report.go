package models

import "time"

// Level is a coarse low/medium/high-style grading used by analysis metrics.
type Level string

// Grading values shared by the analysis metrics.
const (
	LevelLow    Level = "low"
	LevelMedium Level = "medium"
	LevelHigh   Level = "high"
	LevelEasy   Level = "easy"
	LevelHard   Level = "hard"
)

// ProductMetrics holds the scored signals attached to a winning product.
type ProductMetrics struct {
	TrendingScore    float64 `json:"trending_score"`
	CompetitionLevel Level   `json:"competition_level"`
	MarketDemand     Level   `json:"market_demand"`
	Profitability    Level   `json:"profitability"`
	Difficulty       Level   `json:"difficulty"`
}

// ProductSource records where a winning product was observed.
type ProductSource struct {
	Platform     string `json:"platform"`
	URL          string `json:"url"`
	AdFrequency  int    `json:"ad_frequency,omitempty"`
	SearchVolume int    `json:"search_volume,omitempty"`
}

// WinningProduct is a scored, explained view over matched product records.
type WinningProduct struct {
	ID              string          `json:"id"`
	Name            string          `json:"name"`
	Category        string          `json:"category"`
	Description     string          `json:"description"`
	Pricing         Pricing         `json:"pricing"`
	Metrics         ProductMetrics  `json:"metrics"`
	Sources         []ProductSource `json:"sources"`
	Competitors     []string        `json:"competitors"`
	Opportunities   []string        `json:"opportunities"`
	Risks           []string        `json:"risks"`
	Recommendations []string        `json:"recommendations"`
	LastAnalyzed    time.Time       `json:"last_analyzed"`
}

// MarketTrend summarises one category across an analysis run.
type MarketTrend struct {
	Category     string   `json:"category"`
	ProductCount int      `json:"product_count"`
	AveragePrice float64  `json:"average_price"`
	TopFeatures  []string `json:"top_features"`
}

// CompetitorLandscape splits observed sources into leaders and emerging players.
type CompetitorLandscape struct {
	TotalSources    int      `json:"total_sources"`
	MarketLeaders   []string `json:"market_leaders"`
	EmergingPlayers []string `json:"emerging_players"`
}

// MarketAnalysis is the top-level report produced by one analyzer run.
type MarketAnalysis struct {
	TotalAnalyzed   int                 `json:"total_analyzed"`
	WinningProducts []*WinningProduct   `json:"winning_products"`
	Trends          []MarketTrend       `json:"trends"`
	Landscape       CompetitorLandscape `json:"landscape"`
	Insights        []string            `json:"insights"`
	GeneratedAt     time.Time           `json:"generated_at"`
}

// MarketPosition classifies a product against its competitors on price.
type MarketPosition string

// Market position values.
const (
	PositionCostLeader     MarketPosition = "cost-leader"
	PositionPremiumPlayer  MarketPosition = "premium-player"
	PositionMarketFollower MarketPosition = "market-follower"
)

// DeepDive is the result of a focused competitive comparison.
type DeepDive struct {
	Product         *WinningProduct `json:"product"`
	MarketPosition  MarketPosition  `json:"market_position"`
	Advantages      []string        `json:"advantages"`
	Threats         []string        `json:"threats"`
	Recommendations []string        `json:"recommendations"`
}

// AlertKind names a change detected while monitoring a cached product.
type AlertKind string

// Alert kinds emitted by monitoring.
const (
	AlertPriceChange    AlertKind = "price_change"
	AlertTrendShift     AlertKind = "trend_shift"
	AlertNewOpportunity AlertKind = "new_opportunity"
)

// Alert describes one detected change for a monitored product.
type Alert struct {
	Kind     AlertKind `json:"kind"`
	Message  string    `json:"message"`
	Severity Level     `json:"severity"`
}

// ProductUpdate pairs a refreshed winning product with its change alerts.
type ProductUpdate struct {
	ProductID string          `json:"product_id"`
	Product   *WinningProduct `json:"product"`
	Alerts    []Alert         `json:"alerts"`
	CheckedAt time.Time       `json:"checked_at"`
}

// Enrichment is the structured output of the optional enrichment collaborator.
type Enrichment struct {
	Category       string   `json:"category,omitempty"`
	Tags           []string `json:"tags,omitempty"`
	TargetAudience string   `json:"target_audience,omitempty"`
	SellingPoints  []string `json:"selling_points,omitempty"`
	Advantages     []string `json:"advantages,omitempty"`
}
