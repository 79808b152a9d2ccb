package analyze

import "github.com/marketscout/go-scout/models"

// sourceCredibility is a fixed per-source bonus reflecting how reliable a
// platform's listings have historically been as a demand signal.
var sourceCredibility = map[string]float64{
	"producthunt":     20,
	"gumroad":         15,
	"appsumo":         15,
	"udemy":           12,
	"creative-market": 10,
	"envato":          10,
	"etsy-digital":    8,
}

// hotCategories earn a popularity bonus during scoring.
var hotCategories = map[string]struct{}{
	"template": {},
	"course":   {},
	"software": {},
}

// highDemandCategories drive the market-demand metric.
var highDemandCategories = map[string]struct{}{
	"template": {},
	"course":   {},
	"software": {},
	"ebook":    {},
}

// complexCategories drive the difficulty metric.
var complexCategories = map[string]struct{}{
	"software": {},
	"course":   {},
	"video":    {},
}

const (
	featurePoints    = 2.0
	featureBonusCap  = 15.0
	imagePoints      = 3.0
	imageBonusCap    = 15.0
	descriptionBonus = 10.0
	hotCategoryBonus = 10.0
)

// trendingScore combines source credibility, price fit, content richness,
// and category popularity into a 0-100 signal.
func trendingScore(p *models.StructuredProduct) float64 {
	score := sourceCredibility[p.SourceName]

	switch amount := p.Pricing.Amount; {
	case amount >= 20 && amount <= 100:
		score += 25
	case amount >= 10 && amount <= 200:
		score += 15
	case amount >= 5 && amount <= 500:
		score += 8
	}

	featureBonus := float64(len(p.Features)) * featurePoints
	if featureBonus > featureBonusCap {
		featureBonus = featureBonusCap
	}
	score += featureBonus

	if len(p.Description) >= 100 {
		score += descriptionBonus
	}

	imageBonus := float64(len(p.Images)) * imagePoints
	if imageBonus > imageBonusCap {
		imageBonus = imageBonusCap
	}
	score += imageBonus

	if _, hot := hotCategories[p.Metadata.Category]; hot {
		score += hotCategoryBonus
	}

	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	return score
}

// deriveMetrics expands a trending score into the secondary gradings.
func deriveMetrics(p *models.StructuredProduct, score float64) models.ProductMetrics {
	m := models.ProductMetrics{TrendingScore: score}

	switch {
	case score >= 70:
		m.CompetitionLevel = models.LevelHigh
	case score >= 40:
		m.CompetitionLevel = models.LevelMedium
	default:
		m.CompetitionLevel = models.LevelLow
	}

	if _, demand := highDemandCategories[p.Metadata.Category]; demand {
		m.MarketDemand = models.LevelHigh
	} else if len(p.Features) > 5 {
		m.MarketDemand = models.LevelMedium
	} else {
		m.MarketDemand = models.LevelLow
	}

	switch amount := p.Pricing.Amount; {
	case amount >= 50:
		m.Profitability = models.LevelHigh
	case amount >= 20:
		m.Profitability = models.LevelMedium
	default:
		m.Profitability = models.LevelLow
	}

	if _, hard := complexCategories[p.Metadata.Category]; hard {
		m.Difficulty = models.LevelHard
	} else if len(p.Features) > 10 {
		m.Difficulty = models.LevelMedium
	} else {
		m.Difficulty = models.LevelEasy
	}

	return m
}
