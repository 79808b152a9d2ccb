// Package models defines the data structures shared across the scraping
// and analysis packages.
package models

import "time"

// PricingType classifies how a product is sold.
type PricingType string

// Pricing type values.
const (
	PricingFree         PricingType = "free"
	PricingOneTime      PricingType = "one-time"
	PricingSubscription PricingType = "subscription"
	PricingVariable     PricingType = "variable"
)

// BillingInterval is the recurrence of a subscription price.
type BillingInterval string

// Billing interval values.
const (
	IntervalMonthly BillingInterval = "monthly"
	IntervalYearly  BillingInterval = "yearly"
	IntervalOneTime BillingInterval = "one-time"
)

// ScrapeStatus describes the outcome recorded on a product.
type ScrapeStatus string

// Scrape status values.
const (
	StatusSuccess ScrapeStatus = "success"
	StatusPartial ScrapeStatus = "partial"
	StatusFailed  ScrapeStatus = "failed"
)

// Pricing holds the parsed price information for a product.
type Pricing struct {
	Type       PricingType     `json:"type"`
	Amount     float64         `json:"amount,omitempty"`
	Currency   string          `json:"currency,omitempty"`
	Interval   BillingInterval `json:"interval,omitempty"`
	PriceRange string          `json:"price_range,omitempty"`
}

// SEOData carries page-level metadata captured verbatim from the fetch.
type SEOData struct {
	MetaTitle       string `json:"meta_title,omitempty"`
	MetaDescription string `json:"meta_description,omitempty"`
	OGImage         string `json:"og_image,omitempty"`
}

// AIInsights holds optional enrichment output merged into a product.
type AIInsights struct {
	TargetAudience string   `json:"target_audience,omitempty"`
	SellingPoints  []string `json:"selling_points,omitempty"`
	Advantages     []string `json:"advantages,omitempty"`
}

// Metadata groups classification and discovery data for a product.
type Metadata struct {
	Category   string      `json:"category"`
	Tags       []string    `json:"tags"`
	Language   string      `json:"language,omitempty"`
	SEOData    *SEOData    `json:"seo_data,omitempty"`
	AIInsights *AIInsights `json:"ai_insights,omitempty"`
}

// Seller identifies the vendor behind a listing, when the source exposes one.
type Seller struct {
	Name   string  `json:"name"`
	URL    string  `json:"url,omitempty"`
	Rating float64 `json:"rating,omitempty"`
}

// Reviews summarises review signals scraped from a listing page.
type Reviews struct {
	Count  int     `json:"count"`
	Rating float64 `json:"rating,omitempty"`
}

// PageMetadata is the metadata block a fetch collaborator may return
// alongside raw page content.
type PageMetadata struct {
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	OGImage     string `json:"og_image,omitempty"`
	Language    string `json:"language,omitempty"`
}

// StructuredProduct is the canonical record extracted from one listing page.
type StructuredProduct struct {
	ID          string       `csv:"id" json:"id"`
	SourceURL   string       `csv:"source_url" json:"source_url"`
	SourceName  string       `csv:"source_name" json:"source_name"`
	Title       string       `csv:"title" json:"title"`
	Description string       `csv:"description" json:"description"`
	Pricing     Pricing      `csv:"-" json:"pricing"`
	Features    []string     `csv:"-" json:"features"`
	Images      []string     `csv:"-" json:"images"`
	Content     string       `csv:"-" json:"content,omitempty"`
	Metadata    Metadata     `csv:"-" json:"metadata"`
	Seller      *Seller      `csv:"-" json:"seller,omitempty"`
	Reviews     *Reviews     `csv:"-" json:"reviews,omitempty"`
	ScrapedAt   time.Time    `csv:"scraped_at" json:"scraped_at"`
	Status      ScrapeStatus `csv:"status" json:"status"`
	Error       string       `csv:"-" json:"error,omitempty"`
}
