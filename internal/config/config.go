package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Environment string `envconfig:"ENVIRONMENT" default:"local"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`

	DatabaseURL string `envconfig:"DATABASE_URL" required:"true"`
	DBMinConns  int32  `envconfig:"DS_DB_MIN_CONNS" default:"1"`
	DBMaxConns  int32  `envconfig:"DS_DB_MAX_CONNS" default:"8"`

	// Duplicate detection
	ScorerStrategy       string        `envconfig:"DS_SCORER_STRATEGY" default:"tiered"`
	EntityStrategy       string        `envconfig:"DS_ENTITY_STRATEGY" default:"vocabulary"`
	ComparisonWindowDays int           `envconfig:"DS_COMPARISON_WINDOW_DAYS" default:"30"`
	CompareBatchSize     int           `envconfig:"DS_COMPARE_BATCH_SIZE" default:"50"`
	CompareParallelism   int           `envconfig:"DS_COMPARE_PARALLELISM" default:"4"`
	BatchDelay           time.Duration `envconfig:"DS_BATCH_DELAY" default:"500ms"`

	// Resolution safety
	ConfirmationToken  string        `envconfig:"DS_CONFIRMATION_TOKEN" default:""`
	// MaxDeletionsPerRun caps live deletions per run. 0 disables them.
	MaxDeletionsPerRun int           `envconfig:"DS_MAX_DELETIONS_PER_RUN" default:"10"`
	MinApplyTier       string        `envconfig:"DS_MIN_APPLY_TIER" default:"medium-high"`
	DeleteDelay        time.Duration `envconfig:"DS_DELETE_DELAY" default:"250ms"`
	DeleteTimeout      time.Duration `envconfig:"DS_DELETE_TIMEOUT" default:"10s"`

	// Semantic comparison fallback
	SemanticEnabled  bool          `envconfig:"DS_SEMANTIC_ENABLED" default:"false"`
	OpenAIAPIKey     string        `envconfig:"OPENAI_API_KEY" default:""`
	SemanticModel    string        `envconfig:"DS_SEMANTIC_MODEL" default:"gpt-4o-mini"`
	SemanticTimeout  time.Duration `envconfig:"DS_SEMANTIC_TIMEOUT" default:"30s"`
	SemanticBandLow  float64       `envconfig:"DS_SEMANTIC_BAND_LOW" default:"0.6"`
	SemanticBandHigh float64       `envconfig:"DS_SEMANTIC_BAND_HIGH" default:"0.8"`

	// API trigger surface
	APITokenHash string `envconfig:"DS_API_TOKEN_HASH" default:""`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.DatabaseURL) == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.DBMinConns < 0 {
		return fmt.Errorf("DS_DB_MIN_CONNS must be >= 0")
	}
	if c.DBMaxConns < 1 {
		return fmt.Errorf("DS_DB_MAX_CONNS must be >= 1")
	}
	if c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("DS_DB_MIN_CONNS (%d) cannot exceed DS_DB_MAX_CONNS (%d)", c.DBMinConns, c.DBMaxConns)
	}

	switch strings.TrimSpace(strings.ToLower(c.ScorerStrategy)) {
	case "tiered", "overlap":
	default:
		return fmt.Errorf("DS_SCORER_STRATEGY must be one of: tiered, overlap")
	}
	switch strings.TrimSpace(strings.ToLower(c.EntityStrategy)) {
	case "vocabulary", "heuristic":
	default:
		return fmt.Errorf("DS_ENTITY_STRATEGY must be one of: vocabulary, heuristic")
	}
	switch strings.TrimSpace(strings.ToLower(c.MinApplyTier)) {
	case "high", "medium-high", "medium":
	default:
		return fmt.Errorf("DS_MIN_APPLY_TIER must be one of: high, medium-high, medium")
	}

	if c.ComparisonWindowDays < 1 {
		return fmt.Errorf("DS_COMPARISON_WINDOW_DAYS must be >= 1")
	}
	if c.CompareBatchSize < 2 {
		return fmt.Errorf("DS_COMPARE_BATCH_SIZE must be >= 2")
	}
	if c.CompareParallelism < 1 {
		return fmt.Errorf("DS_COMPARE_PARALLELISM must be >= 1")
	}
	if c.MaxDeletionsPerRun < 0 {
		return fmt.Errorf("DS_MAX_DELETIONS_PER_RUN must be >= 0")
	}
	if c.BatchDelay < 0 || c.DeleteDelay < 0 {
		return fmt.Errorf("pacing delays must not be negative")
	}
	if c.DeleteTimeout < time.Second {
		return fmt.Errorf("DS_DELETE_TIMEOUT must be >= 1s")
	}

	if c.SemanticBandLow < 0 || c.SemanticBandHigh > 1 || c.SemanticBandLow >= c.SemanticBandHigh {
		return fmt.Errorf("semantic band must satisfy 0 <= DS_SEMANTIC_BAND_LOW < DS_SEMANTIC_BAND_HIGH <= 1")
	}
	if c.SemanticEnabled && strings.TrimSpace(c.OpenAIAPIKey) == "" {
		return fmt.Errorf("OPENAI_API_KEY is required when DS_SEMANTIC_ENABLED=true")
	}
	if c.SemanticEnabled && c.SemanticTimeout < time.Second {
		return fmt.Errorf("DS_SEMANTIC_TIMEOUT must be >= 1s")
	}

	return nil
}
