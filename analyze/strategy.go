package analyze

import (
	"fmt"
	"sort"
	"strings"

	"github.com/marketscout/go-scout/models"
)

// Strategies are the pluggable rule sets behind the explanatory parts of a
// report. The defaults are fixed heuristics, kept swappable on purpose:
// they are extension points, not settled business rules.
type Strategies struct {
	Competitors     func(p *models.StructuredProduct, m models.ProductMetrics) []string
	Opportunities   func(p *models.StructuredProduct, m models.ProductMetrics) []string
	Risks           func(p *models.StructuredProduct, m models.ProductMetrics) []string
	Recommendations func(p *models.StructuredProduct, m models.ProductMetrics) []string
	Insights        func(analysis *models.MarketAnalysis) []string
}

// DefaultStrategies returns the built-in heuristics.
func DefaultStrategies() Strategies {
	return Strategies{
		Competitors:     defaultCompetitors,
		Opportunities:   defaultOpportunities,
		Risks:           defaultRisks,
		Recommendations: defaultRecommendations,
		Insights:        defaultInsights,
	}
}

func defaultCompetitors(p *models.StructuredProduct, _ models.ProductMetrics) []string {
	// Placeholder heuristic: name likely competitor archetypes per category
	// until a discovery collaborator is wired in.
	switch p.Metadata.Category {
	case "template":
		return []string{"established template marketplaces", "free community templates"}
	case "course":
		return []string{"platform-native course catalogs", "free video tutorials"}
	case "software":
		return []string{"incumbent SaaS vendors", "open-source alternatives"}
	default:
		return []string{"similar listings on the same platform"}
	}
}

func defaultOpportunities(p *models.StructuredProduct, m models.ProductMetrics) []string {
	var out []string
	if p.Pricing.Amount > 0 && p.Pricing.Amount < 20 {
		out = append(out, "room to move upmarket with a premium tier")
	}
	if p.Pricing.Amount > 100 {
		out = append(out, "a lower-priced entry tier could widen the funnel")
	}
	if len(p.Features) < 5 {
		out = append(out, "feature gap: competitors with richer feature lists rank higher")
	}
	if p.Pricing.Type == models.PricingOneTime && m.MarketDemand == models.LevelHigh {
		out = append(out, "recurring pricing is underused in this category")
	}
	if len(out) == 0 {
		out = append(out, "well-positioned; watch for category saturation")
	}
	return out
}

func defaultRisks(p *models.StructuredProduct, m models.ProductMetrics) []string {
	var out []string
	if m.CompetitionLevel == models.LevelHigh {
		out = append(out, "category saturation: many sellers compete on the same signal")
	}
	if p.Pricing.Type == models.PricingFree {
		out = append(out, "no observed price point; monetization unproven")
	}
	if len(out) == 0 {
		out = append(out, "no material risks detected by current rules")
	}
	return out
}

func defaultRecommendations(p *models.StructuredProduct, m models.ProductMetrics) []string {
	var out []string
	if m.TrendingScore >= 70 {
		out = append(out, "prioritize: strong composite signal, move before the window closes")
	} else if m.TrendingScore >= 40 {
		out = append(out, "validate demand with a small launch before committing")
	} else {
		out = append(out, "deprioritize unless a differentiator is identified")
	}
	if m.Profitability == models.LevelHigh && m.Difficulty == models.LevelEasy {
		out = append(out, "favorable effort-to-margin ratio for a fast follow")
	}
	if m.MarketDemand == models.LevelHigh && m.CompetitionLevel == models.LevelLow {
		out = append(out, "demand outstrips competition; accelerate")
	}
	return out
}

func defaultInsights(analysis *models.MarketAnalysis) []string {
	var out []string

	if len(analysis.Trends) > 0 {
		trends := make([]models.MarketTrend, len(analysis.Trends))
		copy(trends, analysis.Trends)
		sort.Slice(trends, func(i, j int) bool {
			return trends[i].ProductCount > trends[j].ProductCount
		})
		top := trends
		if len(top) > 3 {
			top = top[:3]
		}
		names := make([]string, len(top))
		for i, trend := range top {
			names[i] = trend.Category
		}
		out = append(out, fmt.Sprintf("top categories by volume: %s", strings.Join(names, ", ")))

		var total float64
		var priced int
		for _, trend := range analysis.Trends {
			if trend.AveragePrice > 0 {
				total += trend.AveragePrice * float64(trend.ProductCount)
				priced += trend.ProductCount
			}
		}
		if priced > 0 {
			out = append(out, fmt.Sprintf("average observed price across categories: $%.2f", total/float64(priced)))
		}
	}

	// Illustrative statements pending a computed replacement.
	out = append(out,
		"common feature gaps: localization, integrations, lifetime pricing",
		"bundling complementary products remains an underexploited opportunity",
	)
	return out
}
