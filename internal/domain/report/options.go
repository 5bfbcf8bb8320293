package report

import (
	"time"

	"github.com/SquizAI/humanGLue-brain-sub005/internal/domain/gap"
	"github.com/SquizAI/humanGLue-brain-sub005/internal/domain/model"
	"github.com/SquizAI/humanGLue-brain-sub005/internal/domain/recommend"
	"github.com/SquizAI/humanGLue-brain-sub005/internal/domain/scoring"
	"github.com/SquizAI/humanGLue-brain-sub005/internal/domain/theme"
)

// Option applies a configuration option to the Builder.
type Option func(*Builder)

// WithDimensionSet selects the dimension family. Weights default to the
// family's default weights unless WithWeights is also given.
func WithDimensionSet(set model.DimensionSet) Option {
	return func(b *Builder) {
		b.set = set
	}
}

// WithWeights sets per-dimension weights.
func WithWeights(weights map[model.DimensionID]float64) Option {
	return func(b *Builder) {
		b.weights = make(map[model.DimensionID]float64, len(weights))
		for d, w := range weights {
			b.weights[d] = w
		}
	}
}

// WithLevels replaces the maturity table.
func WithLevels(levels []model.MaturityLevel) Option {
	return func(b *Builder) {
		b.levels = levels
	}
}

// WithScorer sets the dimension scorer.
func WithScorer(s scoring.Scorer) Option {
	return func(b *Builder) {
		if s != nil {
			b.scorer = s
		}
	}
}

// WithGapAnalyzer sets the gap analyzer.
func WithGapAnalyzer(a *gap.Analyzer) Option {
	return func(b *Builder) {
		if a != nil {
			b.gaps = a
		}
	}
}

// WithThemeAggregator sets the theme aggregator.
func WithThemeAggregator(a *theme.Aggregator) Option {
	return func(b *Builder) {
		if a != nil {
			b.themes = a
		}
	}
}

// WithSynthesizer sets the recommendation synthesizer.
func WithSynthesizer(s *recommend.Synthesizer) Option {
	return func(b *Builder) {
		if s != nil {
			b.recs = s
		}
	}
}

// WithClock sets the time source used for completedAt.
func WithClock(now func() time.Time) Option {
	return func(b *Builder) {
		if now != nil {
			b.now = now
		}
	}
}

// WithParallelism bounds concurrent dimension scoring.
func WithParallelism(n int) Option {
	return func(b *Builder) {
		if n > 0 {
			b.parallelism = n
		}
	}
}
