// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New(ctx) to build a Config with defaults.
// - Layers are applied defaults -> .env -> YAML file -> environment.
// - Validation errors wrap ErrInvalidConfig.
package config

import (
	"context"
	"fmt"
	"runtime"
	"strings"

	"github.com/SquizAI/humanGLue-brain-sub005/internal/domain/model"
)

// Store drivers.
const (
	StoreMemory = "memory"
	StoreSQLite = "sqlite"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// QueueSize bounds the in-memory assessment job queue.
	QueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of report-building workers.
	WorkerCount int `koanf:"worker_count"`

	// DedupeSize bounds the Idempotency-Key cache.
	DedupeSize int `koanf:"dedupe_size"`

	// MaxLeaderboardLimit caps GET /leaderboard?limit.
	MaxLeaderboardLimit int `koanf:"max_leaderboard_limit"`

	// DimensionSet is core5 or category8.
	DimensionSet string `koanf:"dimension_set"`

	// Weights maps dimension keys to weights. Empty selects the defaults of
	// DimensionSet.
	Weights map[string]float64 `koanf:"weights"`

	// ExpectedEvidence is the item count at which confidence reaches 1.
	ExpectedEvidence int `koanf:"expected_evidence"`

	// ExpectedEvidenceByDimension overrides ExpectedEvidence per dimension key.
	ExpectedEvidenceByDimension map[string]int `koanf:"expected_evidence_by_dimension"`

	// StrongScore is the dimension score from which catalog next steps stop.
	StrongScore float64 `koanf:"strong_score"`

	// GapHighThreshold and GapMediumThreshold split gaps into priorities.
	GapHighThreshold   float64 `koanf:"gap_high_threshold"`
	GapMediumThreshold float64 `koanf:"gap_medium_threshold"`

	// PerceptionScale is the upper bound of self-rated perception scores.
	PerceptionScale float64 `koanf:"perception_scale"`

	// ThemeSentimentThreshold and ThemeFrequencyThreshold decide when a
	// theme becomes an immediate recommendation.
	ThemeSentimentThreshold float64 `koanf:"theme_sentiment_threshold"`
	ThemeFrequencyThreshold int     `koanf:"theme_frequency_threshold"`

	// ThemeMaxQuotes caps representative quotes per theme.
	ThemeMaxQuotes int `koanf:"theme_max_quotes"`

	// BuildParallelism bounds concurrent dimension scoring per build.
	BuildParallelism int `koanf:"build_parallelism"`

	// StoreDriver selects the report repository: memory or sqlite.
	StoreDriver string `koanf:"store_driver"`

	// StorePath is the SQLite database file.
	StorePath string `koanf:"store_path"`

	// SourceURL is the upstream extraction service base URL. Empty disables sync.
	SourceURL string `koanf:"source_url"`

	// SourceTimeoutMS bounds each upstream request.
	SourceTimeoutMS int `koanf:"source_timeout_ms"`

	// SourceRetries is the number of retries after a failed upstream request.
	SourceRetries int `koanf:"source_retries"`

	// Benchmarks seeds the benchmark registry.
	Benchmarks []model.Distribution `koanf:"benchmarks"`

	// Levels replaces the default maturity table when non-empty.
	Levels []model.MaturityLevel `koanf:"levels"`

	// MetricsEnabled turns Prometheus recording on or off.
	MetricsEnabled bool `koanf:"metrics_enabled"`

	// MetricsInstance, when set, labels every series with instance=<value>.
	MetricsInstance string `koanf:"metrics_instance"`

	// MetricsBucketsMS overrides the latency histogram buckets.
	MetricsBucketsMS []float64 `koanf:"metrics_buckets_ms"`
}

// New creates a Config with defaults. Context is accepted first to satisfy
// the project-wide convention.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:                "info",
		LogFormat:               "text",
		Addr:                    ":9080",
		QueueSize:               1_000,
		WorkerCount:             runtime.NumCPU(),
		DedupeSize:              50_000,
		MaxLeaderboardLimit:     100,
		DimensionSet:            string(model.SetCore5),
		ExpectedEvidence:        5,
		StrongScore:             70,
		GapHighThreshold:        3,
		GapMediumThreshold:      2,
		PerceptionScale:         10,
		ThemeSentimentThreshold: -0.2,
		ThemeFrequencyThreshold: 1,
		ThemeMaxQuotes:          3,
		BuildParallelism:        4,
		StoreDriver:             StoreMemory,
		StorePath:               "maturity.db",
		SourceTimeoutMS:         5_000,
		SourceRetries:           2,
		MetricsEnabled:          true,
	}
}

// Validate checks field ranges and cross-field rules.
func (c *Config) Validate() error {
	var problems []string
	if c.Addr == "" {
		problems = append(problems, "addr must not be empty")
	}
	if c.QueueSize <= 0 {
		problems = append(problems, "queue_size must be positive")
	}
	if c.WorkerCount <= 0 {
		problems = append(problems, "worker_count must be positive")
	}
	if c.MaxLeaderboardLimit <= 0 {
		problems = append(problems, "max_leaderboard_limit must be positive")
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		problems = append(problems, fmt.Sprintf("log_format %q must be text or json", c.LogFormat))
	}
	if _, err := model.ParseDimensionSet(c.DimensionSet); err != nil {
		problems = append(problems, err.Error())
	}
	if _, err := model.ParseWeights(c.Weights); err != nil {
		problems = append(problems, err.Error())
	}
	for k := range c.ExpectedEvidenceByDimension {
		if _, err := model.ParseDimension(k); err != nil {
			problems = append(problems, err.Error())
		}
	}
	if c.PerceptionScale <= 0 {
		problems = append(problems, "perception_scale must be positive")
	}
	if c.GapMediumThreshold <= 0 || c.GapHighThreshold <= c.GapMediumThreshold {
		problems = append(problems, "gap thresholds must satisfy 0 < medium < high")
	}
	if c.ThemeSentimentThreshold < -1 || c.ThemeSentimentThreshold > 1 {
		problems = append(problems, "theme_sentiment_threshold must lie in [-1,1]")
	}
	switch c.StoreDriver {
	case StoreMemory:
	case StoreSQLite:
		if c.StorePath == "" {
			problems = append(problems, "store_path is required for sqlite")
		}
	default:
		problems = append(problems, fmt.Sprintf("store_driver %q must be memory or sqlite", c.StoreDriver))
	}
	for i := 1; i < len(c.MetricsBucketsMS); i++ {
		if c.MetricsBucketsMS[i] <= c.MetricsBucketsMS[i-1] {
			problems = append(problems, "metrics_buckets_ms must be strictly increasing")
			break
		}
	}
	if c.SourceRetries < 0 {
		problems = append(problems, "source_retries must not be negative")
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(problems, "; "))
	}
	return nil
}

// DimensionWeights returns the typed weights, falling back to the defaults
// of the configured dimension set.
func (c *Config) DimensionWeights() (model.DimensionSet, map[model.DimensionID]float64, error) {
	set, err := model.ParseDimensionSet(c.DimensionSet)
	if err != nil {
		return "", nil, err
	}
	if len(c.Weights) == 0 {
		return set, set.DefaultWeights(), nil
	}
	weights, err := model.ParseWeights(c.Weights)
	if err != nil {
		return "", nil, err
	}
	return set, weights, nil
}

// ExpectedEvidenceOverrides returns the typed per-dimension overrides.
func (c *Config) ExpectedEvidenceOverrides() (map[model.DimensionID]int, error) {
	out := make(map[model.DimensionID]int, len(c.ExpectedEvidenceByDimension))
	for k, n := range c.ExpectedEvidenceByDimension {
		d, err := model.ParseDimension(k)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
		}
		out[d] = n
	}
	return out, nil
}
