// Package sources holds the static catalog of supported listing origins.
// Adding a source is a data change in catalog.yaml, not a code change.
package sources

import (
	_ "embed"
	"fmt"
	"net/url"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var catalogYAML []byte

// Selector keys a profile may define.
const (
	SelTitle       = "title"
	SelPrice       = "price"
	SelDescription = "description"
	SelImages      = "images"
	SelSeller      = "seller"
	SelFeatures    = "features"
	SelReviews     = "reviews"
	SelRating      = "rating"
)

// FetchOptions are per-source overrides applied to every fetch against
// that origin. Data-driven, so new sources never grow hidden code branches.
type FetchOptions struct {
	Headers     map[string]string `yaml:"headers"`
	WaitMs      int               `yaml:"wait_ms"`
	ExcludeTags []string          `yaml:"exclude_tags"`
}

// Profile is the static configuration for one listing origin.
type Profile struct {
	Name        string            `yaml:"name"`
	Domain      string            `yaml:"domain"`
	Categories  []string          `yaml:"categories"`
	HourlyQuota int               `yaml:"hourly_quota"`
	Selectors   map[string]string `yaml:"selectors"`
	Fetch       FetchOptions      `yaml:"fetch"`
}

// Selector returns the configured selector for key, if any.
func (p *Profile) Selector(key string) (string, bool) {
	sel, ok := p.Selectors[key]
	return sel, ok && sel != ""
}

// Validate checks that a profile is usable.
func (p *Profile) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("source name is required")
	}
	if p.Domain == "" {
		return fmt.Errorf("source %q: domain is required", p.Name)
	}
	if p.HourlyQuota <= 0 {
		return fmt.Errorf("source %q: hourly quota must be positive", p.Name)
	}
	return nil
}

// Catalog is a load-once lookup table of source profiles.
type Catalog struct {
	byName   map[string]*Profile
	profiles []*Profile
}

type catalogFile struct {
	Sources []*Profile `yaml:"sources"`
}

// Load parses and validates a catalog from raw YAML.
func Load(data []byte) (*Catalog, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse source catalog: %w", err)
	}
	if len(file.Sources) == 0 {
		return nil, fmt.Errorf("source catalog is empty")
	}

	c := &Catalog{byName: make(map[string]*Profile, len(file.Sources))}
	for _, p := range file.Sources {
		if err := p.Validate(); err != nil {
			return nil, fmt.Errorf("invalid source catalog: %w", err)
		}
		if _, exists := c.byName[p.Name]; exists {
			return nil, fmt.Errorf("duplicate source %q", p.Name)
		}
		c.byName[p.Name] = p
		c.profiles = append(c.profiles, p)
	}
	return c, nil
}

// Default loads the embedded catalog. It panics only on a broken embed,
// which is a build defect rather than a runtime condition.
func Default() *Catalog {
	c, err := Load(catalogYAML)
	if err != nil {
		panic(fmt.Sprintf("sources: embedded catalog: %v", err))
	}
	return c
}

// ByName looks a profile up by its logical name.
func (c *Catalog) ByName(name string) (*Profile, bool) {
	p, ok := c.byName[name]
	return p, ok
}

// Resolve matches a raw URL's host against known domains. The match is a
// substring test in either direction so subdomains and bare domains both hit.
func (c *Catalog) Resolve(rawURL string) (*Profile, bool) {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" {
		return nil, false
	}
	host := strings.ToLower(parsed.Host)
	for _, p := range c.profiles {
		domain := strings.ToLower(p.Domain)
		if strings.Contains(host, domain) || strings.Contains(domain, host) {
			return p, true
		}
	}
	return nil, false
}

// Profiles returns the catalog entries in declaration order.
func (c *Catalog) Profiles() []*Profile {
	out := make([]*Profile, len(c.profiles))
	copy(out, c.profiles)
	return out
}
