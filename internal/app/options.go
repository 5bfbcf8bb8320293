package service

import (
	"fmt"
	"time"

	"github.com/SquizAI/humanGLue-brain-sub005/internal/adapters/source"
	"github.com/SquizAI/humanGLue-brain-sub005/internal/config"
	"github.com/SquizAI/humanGLue-brain-sub005/internal/domain/gap"
	"github.com/SquizAI/humanGLue-brain-sub005/internal/domain/model"
	"github.com/SquizAI/humanGLue-brain-sub005/internal/domain/recommend"
	"github.com/SquizAI/humanGLue-brain-sub005/internal/domain/report"
	"github.com/SquizAI/humanGLue-brain-sub005/internal/domain/scoring"
	"github.com/SquizAI/humanGLue-brain-sub005/internal/domain/theme"
)

// OptionsFromConfig translates loaded configuration into service options.
func OptionsFromConfig(cfg *config.Config) ([]Option, error) {
	bopts, err := BuilderOptions(cfg)
	if err != nil {
		return nil, err
	}
	opts := []Option{
		WithWorkerCount(cfg.WorkerCount),
		WithQueueSize(cfg.QueueSize),
		WithDedupeSize(cfg.DedupeSize),
		WithStore(cfg.StoreDriver, cfg.StorePath),
		WithBuilderOptions(bopts...),
		WithBenchmarks(cfg.Benchmarks...),
	}
	if cfg.SourceURL != "" {
		src, err := source.New(cfg.SourceURL,
			source.WithTimeout(time.Duration(cfg.SourceTimeoutMS)*time.Millisecond),
			source.WithRetries(cfg.SourceRetries),
		)
		if err != nil {
			return nil, err
		}
		opts = append(opts, WithSource(src))
	}
	return opts, nil
}

// BuilderOptions translates the scoring part of cfg into builder options.
func BuilderOptions(cfg *config.Config) ([]report.Option, error) {
	set, weights, err := cfg.DimensionWeights()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", model.ErrConfiguration, err)
	}
	expected, err := cfg.ExpectedEvidenceOverrides()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", model.ErrConfiguration, err)
	}
	analyzer, err := gap.NewAnalyzer(
		gap.WithThresholds(gap.Thresholds{High: cfg.GapHighThreshold, Medium: cfg.GapMediumThreshold}),
		gap.WithPerceptionScale(cfg.PerceptionScale),
	)
	if err != nil {
		return nil, err
	}

	scorer := scoring.NewEvidenceScorer(
		scoring.WithExpectedEvidence(cfg.ExpectedEvidence),
		scoring.WithExpectedEvidenceFor(expected),
		scoring.WithStrongThreshold(cfg.StrongScore),
	)
	opts := []report.Option{
		report.WithDimensionSet(set),
		report.WithWeights(weights),
		report.WithScorer(InstrumentScorer(scorer)),
		report.WithGapAnalyzer(analyzer),
		report.WithThemeAggregator(theme.NewAggregator(theme.WithMaxQuotes(cfg.ThemeMaxQuotes))),
		report.WithSynthesizer(recommend.NewSynthesizer(
			recommend.WithThemeThresholds(cfg.ThemeSentimentThreshold, cfg.ThemeFrequencyThreshold),
		)),
		report.WithParallelism(cfg.BuildParallelism),
	}
	if len(cfg.Levels) > 0 {
		opts = append(opts, report.WithLevels(cfg.Levels))
	}
	return opts, nil
}
