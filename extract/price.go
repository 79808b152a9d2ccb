package extract

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/marketscout/go-scout/models"
)

var (
	numberPattern       = regexp.MustCompile(`\d+(?:[.,]\d{1,2})?`)
	dollarAmountPattern = regexp.MustCompile(`\$\s?\d+(?:\.\d{1,2})?`)
)

// currency symbols checked in order; dollar last so it acts as the fallback.
var currencySymbols = []struct {
	symbol string
	code   string
}{
	{"€", "EUR"},
	{"£", "GBP"},
	{"¥", "JPY"},
	{"$", "USD"},
}

// ParsePrice turns raw price text into a structured pricing record.
// Unparseable text yields the free default, matching the extraction
// contract that pricing is never absent.
func ParsePrice(text string) models.Pricing {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return models.Pricing{Type: models.PricingFree}
	}

	lower := strings.ToLower(trimmed)
	if strings.Contains(lower, "free") {
		return models.Pricing{Type: models.PricingFree, Amount: 0}
	}

	match := numberPattern.FindString(trimmed)
	if match == "" {
		return models.Pricing{Type: models.PricingFree}
	}
	amount, err := strconv.ParseFloat(strings.ReplaceAll(match, ",", "."), 64)
	if err != nil {
		return models.Pricing{Type: models.PricingFree}
	}

	currency := "USD"
	for _, c := range currencySymbols {
		if strings.Contains(trimmed, c.symbol) {
			currency = c.code
			break
		}
	}

	pricing := models.Pricing{Amount: amount, Currency: currency}
	switch {
	case strings.Contains(lower, "month"):
		pricing.Type = models.PricingSubscription
		pricing.Interval = models.IntervalMonthly
	case strings.Contains(lower, "year"):
		pricing.Type = models.PricingSubscription
		pricing.Interval = models.IntervalYearly
	default:
		pricing.Type = models.PricingOneTime
	}
	return pricing
}

// scanPrice finds the first dollar-amount pattern in free text.
func scanPrice(text string) (models.Pricing, bool) {
	match := dollarAmountPattern.FindString(text)
	if match == "" {
		return models.Pricing{}, false
	}
	return ParsePrice(match), true
}
