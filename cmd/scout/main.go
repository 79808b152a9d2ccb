package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/marketscout/go-scout/analyze"
	"github.com/marketscout/go-scout/config"
	"github.com/marketscout/go-scout/enrich"
	"github.com/marketscout/go-scout/extract"
	"github.com/marketscout/go-scout/fetch"
	"github.com/marketscout/go-scout/models"
	"github.com/marketscout/go-scout/pipeline"
	"github.com/marketscout/go-scout/ratelimit"
	"github.com/marketscout/go-scout/scrape"
	"github.com/marketscout/go-scout/sources"
)

func main() {
	defaultCfg := config.DefaultConfig()
	concurrencyDefault := defaultCfg.Concurrency
	if value, ok, err := config.EnvInt("SCOUT_CONCURRENCY"); err != nil {
		fmt.Fprintf(os.Stderr, "invalid SCOUT_CONCURRENCY: %v\n", err)
		os.Exit(1)
	} else if ok {
		concurrencyDefault = value
	}
	outputDefault := defaultCfg.OutputFile
	if value, ok := config.EnvString("SCOUT_OUTPUT"); ok {
		outputDefault = value
	}
	metricsDefault := defaultCfg.MetricsAddr
	if value, ok := config.EnvString("SCOUT_METRICS_ADDR"); ok {
		metricsDefault = value
	}
	enrichDefault := defaultCfg.EnrichURL
	if value, ok := config.EnvString("SCOUT_ENRICH_URL"); ok {
		enrichDefault = value
	}

	concurrency := flag.Int("concurrency", concurrencyDefault, "Number of concurrent scrapes per batch chunk")
	chunkDelayMs := flag.Int("chunk-delay", int(defaultCfg.ChunkDelay/time.Millisecond), "Pause between batch chunks (milliseconds)")
	fetchTimeoutS := flag.Int("fetch-timeout", int(defaultCfg.FetchTimeout/time.Second), "Per-fetch timeout (seconds)")
	maxRetries := flag.Int("max-retries", defaultCfg.MaxRetries, "Maximum retry attempts per URL")
	retryBackoffMs := flag.Int("retry-backoff", int(defaultCfg.RetryBackoff/time.Millisecond), "Initial retry backoff (milliseconds)")
	retryBackoffMaxMs := flag.Int("retry-backoff-max", int(defaultCfg.RetryBackoffMax/time.Millisecond), "Maximum retry backoff (milliseconds)")
	outputFile := flag.String("output", outputDefault, "Product output file path")
	outputFormat := flag.String("format", defaultCfg.OutputFormat, "Output format: csv, json, or dual")
	reportFile := flag.String("report", "output/report.json", "Market analysis report path")
	metricsAddr := flag.String("metrics-addr", metricsDefault, "Prometheus metrics listen address (e.g. :9090)")
	enrichURL := flag.String("enrich-url", enrichDefault, "Enrichment sidecar base URL (empty disables enrichment)")
	verbose := flag.Bool("v", false, "Enable verbose logging")

	trending := flag.Bool("trending", true, "Sweep trending product sources")
	saas := flag.Bool("saas", false, "Sweep SaaS product sources")
	adIntel := flag.Bool("ad-intel", false, "Sweep ad intelligence sources")
	customURLs := flag.String("urls", "", "Comma-separated product URLs to scrape directly")
	categories := flag.String("categories", "", "Comma-separated categories to keep")
	priceMin := flag.Float64("price-min", 0, "Minimum product price")
	priceMax := flag.Float64("price-max", 0, "Maximum product price (0 = unbounded)")
	minScore := flag.Float64("min-score", 0, "Minimum trending score to report")
	maxResults := flag.Int("max-results", 10, "Maximum winning products to report")

	flag.Parse()

	logger, level := newLogger(*verbose)
	slog.SetDefault(logger)
	slog.SetLogLoggerLevel(level.Level())

	cfg := config.DefaultConfig()
	cfg.Concurrency = *concurrency
	cfg.ChunkDelay = time.Duration(*chunkDelayMs) * time.Millisecond
	cfg.FetchTimeout = time.Duration(*fetchTimeoutS) * time.Second
	cfg.MaxRetries = *maxRetries
	cfg.RetryBackoff = time.Duration(*retryBackoffMs) * time.Millisecond
	cfg.RetryBackoffMax = time.Duration(*retryBackoffMaxMs) * time.Millisecond
	cfg.OutputFile = *outputFile
	cfg.OutputFormat = strings.ToLower(*outputFormat)
	cfg.MetricsAddr = *metricsAddr
	cfg.EnrichURL = *enrichURL
	cfg.Verbose = *verbose
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", slog.Any("error", err))
		os.Exit(1)
	}

	catalog := sources.Default()
	limiter := ratelimit.New()
	defer limiter.Stop()

	var enricher enrich.Enricher = enrich.Noop{}
	if cfg.EnrichURL != "" {
		enricher = enrich.NewHTTPEnricher(cfg.EnrichURL)
	}

	orchestrator := scrape.NewOrchestrator(
		cfg,
		catalog,
		limiter,
		fetch.NewCollyFetcher(cfg.UserAgent),
		extract.New(nil),
		enricher,
	)

	writer, err := pipeline.NewWriter(cfg.OutputFormat, cfg.OutputFile)
	if err != nil {
		slog.Error("creating writer", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := writer.Close(); err != nil {
			slog.Error("close writer", slog.Any("error", err))
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		slog.Info("shutdown signal received, waiting for in-flight work to finish")
	}()

	var metricsServer *http.Server
	if cfg.MetricsAddr != "" && orchestrator.Metrics != nil {
		metricsServer = &http.Server{
			Addr:    cfg.MetricsAddr,
			Handler: promhttp.HandlerFor(orchestrator.Metrics.Registry, promhttp.HandlerOpts{}),
		}
		go func() {
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("metrics server failed", slog.Any("error", err))
			}
		}()
		slog.Info("metrics server enabled", slog.String("addr", cfg.MetricsAddr))
	}

	sink := pipeline.NewPipeline(writer)
	sink.Start(cfg.Concurrency)
	if cfg.Verbose {
		sink.StartMetricsReporting(10 * time.Second)
	}

	analyzer, err := analyze.New(&persistingScraper{inner: orchestrator, sink: sink}, analyze.Strategies{})
	if err != nil {
		slog.Error("initialising analyzer", slog.Any("error", err))
		os.Exit(1)
	}

	analysisCfg := analyze.Config{
		Categories:       splitList(*categories),
		PriceMin:         *priceMin,
		PriceMax:         *priceMax,
		MinTrendingScore: *minScore,
		MaxResults:       *maxResults,
		Trending:         *trending,
		SaaS:             *saas,
		AdIntel:          *adIntel,
		CustomURLs:       splitList(*customURLs),
		Enrich:           cfg.EnrichURL != "",
	}

	slog.Info("starting market analysis",
		slog.Int("workers", cfg.Concurrency),
		slog.Bool("trending", analysisCfg.Trending),
		slog.Bool("saas", analysisCfg.SaaS),
		slog.Bool("ad_intel", analysisCfg.AdIntel),
		slog.Int("custom_urls", len(analysisCfg.CustomURLs)),
	)

	startTime := time.Now()
	analysis, err := analyzer.Analyze(ctx, analysisCfg)
	if err != nil {
		slog.Error("analysis failed", slog.Any("error", err))
		os.Exit(1)
	}

	if err := sink.Close(); err != nil {
		slog.Error("pipeline shutdown failed", slog.Any("error", err))
		os.Exit(1)
	}

	if err := writer.Validate(); err != nil {
		slog.Warn("output validation", slog.Any("error", err))
	}

	if err := writeReport(*reportFile, analysis); err != nil {
		slog.Error("writing report", slog.Any("error", err))
		os.Exit(1)
	}

	if metricsServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			slog.Error("metrics server shutdown failed", slog.Any("error", err))
		}
		cancel()
	}

	printSummary(analysis, orchestrator.Stats(), sink.GetMetrics(), time.Since(startTime), cfg.OutputFile, *reportFile)
}

// persistingScraper forwards to the orchestrator and tees every successful
// product into the persistence pipeline.
type persistingScraper struct {
	inner *scrape.Orchestrator
	sink  *pipeline.Pipeline
}

func (ps *persistingScraper) ScrapeOne(ctx context.Context, req *models.ScrapeRequest) *models.ScrapeResult {
	result := ps.inner.ScrapeOne(ctx, req)
	ps.persist(result)
	return result
}

func (ps *persistingScraper) ScrapeMany(ctx context.Context, reqs []*models.ScrapeRequest) []*models.ScrapeResult {
	results := ps.inner.ScrapeMany(ctx, reqs)
	for _, result := range results {
		ps.persist(result)
	}
	return results
}

func (ps *persistingScraper) persist(result *models.ScrapeResult) {
	if result == nil || !result.OK() {
		return
	}
	if err := ps.sink.Process([]*models.StructuredProduct{result.Product}); err != nil {
		slog.Warn("persist product", slog.Any("error", err))
	}
}

func writeReport(path string, analysis *models.MarketAnalysis) error {
	data, err := json.MarshalIndent(analysis, "", "  ")
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create report directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

func printSummary(analysis *models.MarketAnalysis, stats scrape.Stats, sinkMetrics map[string]interface{}, duration time.Duration, outputFile, reportFile string) {
	separator := "--------------------------------------------------"
	fmt.Println("\n" + separator)
	fmt.Println("Market analysis complete")

	fmt.Printf("  Products analyzed:  %d\n", analysis.TotalAnalyzed)
	fmt.Printf("  Winning products:   %d\n", len(analysis.WinningProducts))
	fmt.Printf("  Trends:             %d\n", len(analysis.Trends))
	successRate := 0.0
	if stats.TotalRequests > 0 {
		successRate = float64(stats.Successes) / float64(stats.TotalRequests) * 100
	}
	fmt.Printf("  Scrape requests:    %d\n", stats.TotalRequests)
	fmt.Printf("  Success rate:       %.2f%%\n", successRate)
	fmt.Printf("  Rate limit hits:    %d\n", stats.RateLimitHits)
	if len(stats.ErrorsByKind) > 0 {
		fmt.Printf("  Error kinds:        %v\n", stats.ErrorsByKind)
	}
	if persisted, ok := sinkMetrics["processed_products"].(int64); ok {
		fmt.Printf("  Products persisted: %d\n", persisted)
	}
	if valErrors, ok := sinkMetrics["validation_errors"].(map[string]int); ok && len(valErrors) > 0 {
		fmt.Printf("  Validation:         %v\n", valErrors)
	}
	fmt.Printf("  Duration:           %v\n", duration)
	fmt.Printf("  Output file:        %s\n", outputFile)
	fmt.Printf("  Report file:        %s\n", reportFile)
	fmt.Println(separator)
}

func splitList(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func newLogger(verbose bool) (*slog.Logger, *slog.LevelVar) {
	level := &slog.LevelVar{}
	if verbose {
		level.Set(slog.LevelDebug)
	} else {
		level.Set(slog.LevelInfo)
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if isTerminal(os.Stdout) {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	return slog.New(handler), level
}

func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}
