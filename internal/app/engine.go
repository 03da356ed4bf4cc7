package app

import (
	"strings"

	"github.com/rs/zerolog"

	"horse.fit/dealsweep/internal/config"
	"horse.fit/dealsweep/internal/db"
	"horse.fit/dealsweep/internal/dedup"
	"horse.fit/dealsweep/internal/langdetect"
	"horse.fit/dealsweep/internal/semantic"
)

// buildOrchestrator wires the cleanup engine from loaded configuration.
func buildOrchestrator(cfg *config.Config, pool *db.Pool, logger zerolog.Logger) (*dedup.Orchestrator, *db.ArticleStore, error) {
	store, err := db.NewArticleStore(pool)
	if err != nil {
		return nil, nil, err
	}

	opts := dedup.Options{
		Scorer:    dedup.NewScorer(cfg.ScorerStrategy),
		Extractor: dedup.NewExtractor(dedup.EntityStrategy(strings.TrimSpace(strings.ToLower(cfg.EntityStrategy)))),
		DetectLanguage: func(text string) string {
			return langdetect.DetectISO6391(text)
		},

		ComparisonWindowDays: cfg.ComparisonWindowDays,
		BatchSize:            cfg.CompareBatchSize,
		Parallelism:          cfg.CompareParallelism,
		BatchDelay:           cfg.BatchDelay,
		DeleteDelay:          cfg.DeleteDelay,
		DeleteTimeout:        cfg.DeleteTimeout,
		SemanticTimeout:      cfg.SemanticTimeout,
		SemanticBandLow:      cfg.SemanticBandLow,
		SemanticBandHigh:     cfg.SemanticBandHigh,

		ConfirmationToken: cfg.ConfirmationToken,
		MaxDeletions:      cfg.MaxDeletionsPerRun,
		MinApplyTier:      dedup.Tier(strings.TrimSpace(strings.ToLower(cfg.MinApplyTier))),
	}

	if cfg.SemanticEnabled {
		comparer, err := semantic.NewComparer(cfg.OpenAIAPIKey, cfg.SemanticModel, logger)
		if err != nil {
			return nil, nil, err
		}
		opts.Comparer = comparer
	}

	orchestrator, err := dedup.NewOrchestrator(store, &dedup.RunGuard{}, logger, opts)
	if err != nil {
		return nil, nil, err
	}
	return orchestrator, store, nil
}
