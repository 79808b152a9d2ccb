package scrape

import (
	"sync"
	"time"
)

// SourceStats aggregates per-source counters.
type SourceStats struct {
	Requests       int           `json:"requests"`
	Successes      int           `json:"successes"`
	Failures       int           `json:"failures"`
	AverageLatency time.Duration `json:"average_latency"`
}

// Stats is a snapshot of the orchestrator's running counters.
type Stats struct {
	TotalRequests  int                    `json:"total_requests"`
	Successes      int                    `json:"successes"`
	Failures       int                    `json:"failures"`
	AverageLatency time.Duration          `json:"average_latency"`
	RateLimitHits  int                    `json:"rate_limit_hits"`
	ErrorsByKind   map[string]int         `json:"errors_by_kind"`
	BySource       map[string]SourceStats `json:"by_source"`
}

// statsTracker owns the mutable counters behind the Stats snapshot.
type statsTracker struct {
	mu            sync.Mutex
	total         int
	successes     int
	failures      int
	totalLatency  time.Duration
	rateLimitHits int
	errorsByKind  map[string]int
	bySource      map[string]*sourceCounters
}

type sourceCounters struct {
	requests     int
	successes    int
	failures     int
	totalLatency time.Duration
}

func newStatsTracker() *statsTracker {
	return &statsTracker{
		errorsByKind: make(map[string]int),
		bySource:     make(map[string]*sourceCounters),
	}
}

func (s *statsTracker) recordSuccess(source string, latency time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.total++
	s.successes++
	s.totalLatency += latency

	c := s.sourceLocked(source)
	c.requests++
	c.successes++
	c.totalLatency += latency
}

func (s *statsTracker) recordFailure(source string, kind string, latency time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.total++
	s.failures++
	s.totalLatency += latency
	s.errorsByKind[kind]++
	if kind == KindRateLimited {
		s.rateLimitHits++
	}

	if source != "" {
		c := s.sourceLocked(source)
		c.requests++
		c.failures++
		c.totalLatency += latency
	}
}

func (s *statsTracker) sourceLocked(source string) *sourceCounters {
	c, ok := s.bySource[source]
	if !ok {
		c = &sourceCounters{}
		s.bySource[source] = c
	}
	return c
}

func (s *statsTracker) snapshot() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := Stats{
		TotalRequests: s.total,
		Successes:     s.successes,
		Failures:      s.failures,
		RateLimitHits: s.rateLimitHits,
		ErrorsByKind:  make(map[string]int, len(s.errorsByKind)),
		BySource:      make(map[string]SourceStats, len(s.bySource)),
	}
	if s.total > 0 {
		out.AverageLatency = s.totalLatency / time.Duration(s.total)
	}
	for kind, count := range s.errorsByKind {
		out.ErrorsByKind[kind] = count
	}
	for source, c := range s.bySource {
		stats := SourceStats{
			Requests:  c.requests,
			Successes: c.successes,
			Failures:  c.failures,
		}
		if c.requests > 0 {
			stats.AverageLatency = c.totalLatency / time.Duration(c.requests)
		}
		out.BySource[source] = stats
	}
	return out
}

func (s *statsTracker) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.total = 0
	s.successes = 0
	s.failures = 0
	s.totalLatency = 0
	s.rateLimitHits = 0
	s.errorsByKind = make(map[string]int)
	s.bySource = make(map[string]*sourceCounters)
}
