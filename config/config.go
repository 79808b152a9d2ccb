// Package config holds runtime configuration for the scout pipeline.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds orchestrator and output configuration.
type Config struct {
	Concurrency     int           // concurrent scrapes per batch chunk
	ChunkDelay      time.Duration // politeness pause between batch chunks
	FetchTimeout    time.Duration
	MaxRetries      int
	RetryBackoff    time.Duration
	RetryBackoffMax time.Duration
	UserAgent       string
	EnrichURL       string // enrichment sidecar base URL; empty disables enrichment
	OutputFile      string
	OutputFormat    string // csv, json, or dual
	MetricsAddr     string
	Verbose         bool
}

// DefaultConfig returns conservative defaults for polite scraping.
func DefaultConfig() *Config {
	return &Config{
		Concurrency:     3,
		ChunkDelay:      2 * time.Second,
		FetchTimeout:    30 * time.Second,
		MaxRetries:      2,
		RetryBackoff:    200 * time.Millisecond,
		RetryBackoffMax: 2 * time.Second,
		UserAgent:       "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/117.0.0.0 Safari/537.36",
		OutputFile:      "output/products.json",
		OutputFormat:    "json",
	}
}

// Validate ensures all configuration values are coherent.
func (c *Config) Validate() error {
	if c.Concurrency <= 0 {
		return fmt.Errorf("concurrency must be positive")
	}
	if c.ChunkDelay < 0 {
		return fmt.Errorf("chunk delay cannot be negative")
	}
	if c.FetchTimeout <= 0 {
		return fmt.Errorf("fetch timeout must be positive")
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("max retries cannot be negative")
	}
	if c.RetryBackoff < 0 {
		return fmt.Errorf("retry backoff cannot be negative")
	}
	if c.RetryBackoffMax < 0 {
		return fmt.Errorf("retry backoff max cannot be negative")
	}
	if c.RetryBackoffMax > 0 && c.RetryBackoff > c.RetryBackoffMax {
		return fmt.Errorf("retry backoff (%s) cannot exceed retry backoff max (%s)", c.RetryBackoff, c.RetryBackoffMax)
	}
	if c.UserAgent == "" {
		return fmt.Errorf("user agent cannot be empty")
	}
	if c.OutputFile == "" {
		return fmt.Errorf("output file cannot be empty")
	}
	if c.OutputFormat != "csv" && c.OutputFormat != "json" && c.OutputFormat != "dual" {
		return fmt.Errorf("output format must be csv, json, or dual")
	}
	return nil
}

// EnvInt reads an integer environment variable, reporting whether it was set.
func EnvInt(name string) (int, bool, error) {
	raw, ok := os.LookupEnv(name)
	if !ok || raw == "" {
		return 0, false, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false, fmt.Errorf("parse %s: %w", name, err)
	}
	return value, true, nil
}

// EnvString reads a string environment variable, reporting whether it was set.
func EnvString(name string) (string, bool) {
	raw, ok := os.LookupEnv(name)
	if !ok || raw == "" {
		return "", false
	}
	return raw, true
}
