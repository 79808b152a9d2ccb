package config

import (
	"strings"
	"testing"
	"time"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name: "negative concurrency",
			mutate: func(cfg *Config) {
				cfg.Concurrency = -1
			},
			wantErr: "concurrency",
		},
		{
			name: "negative chunk delay",
			mutate: func(cfg *Config) {
				cfg.ChunkDelay = -1 * time.Second
			},
			wantErr: "chunk delay",
		},
		{
			name: "zero fetch timeout",
			mutate: func(cfg *Config) {
				cfg.FetchTimeout = 0
			},
			wantErr: "fetch timeout",
		},
		{
			name: "backoff exceeds max",
			mutate: func(cfg *Config) {
				cfg.RetryBackoff = 5 * time.Second
				cfg.RetryBackoffMax = 1 * time.Second
			},
			wantErr: "retry backoff",
		},
		{
			name: "empty user agent",
			mutate: func(cfg *Config) {
				cfg.UserAgent = ""
			},
			wantErr: "user agent",
		},
		{
			name: "unknown output format",
			mutate: func(cfg *Config) {
				cfg.OutputFormat = "xml"
			},
			wantErr: "output format",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestDefaultConfigValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate, got %v", err)
	}
}

func TestEnvInt(t *testing.T) {
	t.Setenv("SCOUT_TEST_INT", "7")
	value, ok, err := EnvInt("SCOUT_TEST_INT")
	if err != nil || !ok || value != 7 {
		t.Fatalf("EnvInt = (%d, %v, %v), want (7, true, nil)", value, ok, err)
	}

	t.Setenv("SCOUT_TEST_INT", "not-a-number")
	if _, _, err := EnvInt("SCOUT_TEST_INT"); err == nil {
		t.Fatalf("expected parse error")
	}

	if _, ok, err := EnvInt("SCOUT_TEST_INT_UNSET"); ok || err != nil {
		t.Fatalf("unset variable should report not present")
	}
}

func TestEnvString(t *testing.T) {
	t.Setenv("SCOUT_TEST_STR", "output/custom.json")
	value, ok := EnvString("SCOUT_TEST_STR")
	if !ok || value != "output/custom.json" {
		t.Fatalf("EnvString = (%q, %v)", value, ok)
	}

	if _, ok := EnvString("SCOUT_TEST_STR_UNSET"); ok {
		t.Fatalf("unset variable should report not present")
	}
}
