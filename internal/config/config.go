package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// FilterConfig holds the admission rules applied to discovered URLs
type FilterConfig struct {
	Domain    string   `json:"domain" yaml:"domain"`
	Subdomain string   `json:"subdomain" yaml:"subdomain"`
	Patterns  []string `json:"patterns" yaml:"patterns"`
}

// RankingConfig holds the edge scoring and PageRank parameters
type RankingConfig struct {
	Alpha         *float64 `json:"alpha" yaml:"alpha"`
	TopN          int      `json:"top_n" yaml:"top_n"`
	Damping       float64  `json:"damping" yaml:"damping"`
	MaxIterations int      `json:"max_iterations" yaml:"max_iterations"`
	Tolerance     float64  `json:"tolerance" yaml:"tolerance"`
}

// ServerConfig holds the HTTP API settings
type ServerConfig struct {
	Addr string `json:"addr" yaml:"addr"`
}

// Config holds all runtime configuration parameters
type Config struct {
	Seeds                []string          `json:"seeds" yaml:"seeds"`
	MaxDepth             int               `json:"max_depth" yaml:"max_depth"`
	Retries              int               `json:"retries" yaml:"retries"`
	RequestTimeoutMs     int               `json:"request_timeout_ms" yaml:"request_timeout_ms"`
	InitialConcurrency   int               `json:"initial_concurrency" yaml:"initial_concurrency"`
	MaxConcurrency       int               `json:"max_concurrency" yaml:"max_concurrency"`
	ConcurrencyStep      int               `json:"concurrency_step" yaml:"concurrency_step"`
	CooldownMs           int               `json:"cooldown_ms" yaml:"cooldown_ms"`
	RequestsPerSecond    float64           `json:"requests_per_second" yaml:"requests_per_second"`
	MaxBodyBytes         int               `json:"max_body_bytes" yaml:"max_body_bytes"`
	UserAgent            string            `json:"user_agent" yaml:"user_agent"`
	Headers              map[string]string `json:"headers" yaml:"headers"`
	Filter               FilterConfig      `json:"filter" yaml:"filter"`
	MaxSubdomainsPerRoot int               `json:"max_subdomains_per_root" yaml:"max_subdomains_per_root"`
	Extractors           []string          `json:"extractors" yaml:"extractors"`
	ParallelSeeds        bool              `json:"parallel_seeds" yaml:"parallel_seeds"`
	Ranking              RankingConfig     `json:"ranking" yaml:"ranking"`
	DBPath               string            `json:"db_path" yaml:"db_path"`
	MetricsPath          string            `json:"metrics_path" yaml:"metrics_path"`
	Server               ServerConfig      `json:"server" yaml:"server"`
	LogLevel             string            `json:"log_level" yaml:"log_level"`
}

// LoadConfig reads, completes and validates configuration from a JSON or YAML file
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}

	var cfg Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config YAML: %w", err)
		}
	default:
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config JSON: %w", err)
		}
	}

	// Apply defaults for missing values, then let the environment override
	ApplyDefaults(&cfg)
	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Default returns a configuration with every default applied
func Default() *Config {
	var cfg Config
	ApplyDefaults(&cfg)
	return &cfg
}

// FromEnv builds a configuration from defaults and WEAVER_* variables only
func FromEnv() (*Config, error) {
	cfg := Default()
	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// ApplyDefaults sets default values for unspecified fields
func ApplyDefaults(cfg *Config) {
	if cfg.MaxDepth == 0 {
		cfg.MaxDepth = 2
	}
	if cfg.Retries == 0 {
		cfg.Retries = 3
	}
	if cfg.RequestTimeoutMs == 0 {
		cfg.RequestTimeoutMs = 5000
	}
	if cfg.InitialConcurrency == 0 {
		cfg.InitialConcurrency = 5
	}
	if cfg.MaxConcurrency == 0 {
		cfg.MaxConcurrency = 4 * runtime.NumCPU()
	}
	if cfg.ConcurrencyStep == 0 {
		cfg.ConcurrencyStep = 5
	}
	if cfg.CooldownMs == 0 {
		cfg.CooldownMs = 2000
	}
	if cfg.MaxBodyBytes == 0 {
		cfg.MaxBodyBytes = 10 * 1024 * 1024
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "graph-weaver/1.0 (+https://github.com/alvmarrod/graph-weaver)"
	}
	if len(cfg.Extractors) == 0 {
		cfg.Extractors = []string{"email"}
	}
	if cfg.Ranking.Alpha == nil {
		alpha := 0.5
		cfg.Ranking.Alpha = &alpha
	}
	if cfg.Ranking.TopN == 0 {
		cfg.Ranking.TopN = 5
	}
	if cfg.Ranking.Damping == 0 {
		cfg.Ranking.Damping = 0.85
	}
	if cfg.Ranking.MaxIterations == 0 {
		cfg.Ranking.MaxIterations = 100
	}
	if cfg.Ranking.Tolerance == 0 {
		cfg.Ranking.Tolerance = 1e-6
	}
	if cfg.DBPath == "" {
		cfg.DBPath = "graph.db"
	}
	if cfg.MetricsPath == "" {
		cfg.MetricsPath = "metrics.json"
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
}

// applyEnv lets WEAVER_* variables override file values
func applyEnv(cfg *Config) {
	if v := os.Getenv("WEAVER_SEEDS"); v != "" {
		cfg.Seeds = SplitList(v)
	}
	if v := os.Getenv("WEAVER_DB_PATH"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("WEAVER_METRICS_PATH"); v != "" {
		cfg.MetricsPath = v
	}
	if v := os.Getenv("WEAVER_SERVER_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("WEAVER_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v, err := strconv.Atoi(os.Getenv("WEAVER_MAX_DEPTH")); err == nil {
		cfg.MaxDepth = v
	}
	if v, err := strconv.ParseFloat(os.Getenv("WEAVER_ALPHA"), 64); err == nil {
		cfg.Ranking.Alpha = &v
	}
}

// SplitList splits a comma separated list, dropping blanks and whitespace
func SplitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Validate checks that values are sensible
func (cfg *Config) Validate() error {
	if cfg.MaxDepth < 0 {
		return ErrInvalidDepth
	}
	if cfg.Retries < 0 {
		return ErrInvalidRetries
	}
	if cfg.RequestTimeoutMs < 1 {
		return ErrInvalidTimeout
	}
	if cfg.InitialConcurrency < 1 || cfg.MaxConcurrency < 1 {
		return ErrInvalidConcurrency
	}
	if cfg.CooldownMs < 0 {
		return ErrInvalidCooldown
	}
	if cfg.Ranking.Alpha == nil || *cfg.Ranking.Alpha < 0 || *cfg.Ranking.Alpha > 1 {
		return ErrInvalidAlpha
	}
	if cfg.Ranking.Damping <= 0 || cfg.Ranking.Damping >= 1 {
		return ErrInvalidDamping
	}
	for _, p := range cfg.Filter.Patterns {
		if strings.TrimSpace(p) == "" {
			return fmt.Errorf("%w: empty pattern", ErrInvalidPattern)
		}
	}
	return nil
}

// RequestTimeout returns the per-request timeout as a duration
func (cfg *Config) RequestTimeout() time.Duration {
	return time.Duration(cfg.RequestTimeoutMs) * time.Millisecond
}

// Cooldown returns the pause applied after an HTTP 429
func (cfg *Config) Cooldown() time.Duration {
	return time.Duration(cfg.CooldownMs) * time.Millisecond
}

// Alpha returns the TF-IDF / domain prior blend factor
func (cfg *Config) Alpha() float64 {
	if cfg.Ranking.Alpha == nil {
		return 0.5
	}
	return *cfg.Ranking.Alpha
}
