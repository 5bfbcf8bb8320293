// Package report orchestrates scoring, classification, benchmarking, gap
// analysis, theme aggregation and recommendations into one immutable
// assessment report.
package report

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"

	"github.com/SquizAI/humanGLue-brain-sub005/internal/domain/benchmark"
	"github.com/SquizAI/humanGLue-brain-sub005/internal/domain/evidence"
	"github.com/SquizAI/humanGLue-brain-sub005/internal/domain/gap"
	"github.com/SquizAI/humanGLue-brain-sub005/internal/domain/maturity"
	"github.com/SquizAI/humanGLue-brain-sub005/internal/domain/model"
	"github.com/SquizAI/humanGLue-brain-sub005/internal/domain/recommend"
	"github.com/SquizAI/humanGLue-brain-sub005/internal/domain/scoring"
	"github.com/SquizAI/humanGLue-brain-sub005/internal/domain/theme"
)

const defaultParallelism = 4

// reportNamespace seeds the name-based report ids.
var reportNamespace = uuid.MustParse("6f1c2a7e-3b9d-4c41-9e0a-8d2f4b7c1e53")

// Input is everything one build consumes.
type Input struct {
	Subject   model.Subject
	Evidence  evidence.Set
	Perceived map[model.DimensionID]float64
	Quotes    []model.Quote
	// Benchmark is optional; nil records a missing_benchmark warning.
	Benchmark *model.Distribution
}

// Builder assembles reports. It is safe for concurrent use.
type Builder struct {
	set         model.DimensionSet
	weights     map[model.DimensionID]float64
	levels      []model.MaturityLevel
	classifier  *maturity.Classifier
	scorer      scoring.Scorer
	gaps        *gap.Analyzer
	themes      *theme.Aggregator
	recs        *recommend.Synthesizer
	now         func() time.Time
	parallelism int
}

// NewBuilder validates the configuration and returns a builder. Any
// configuration problem is reported as model.ErrConfiguration before a
// single dimension is scored.
func NewBuilder(opts ...Option) (*Builder, error) {
	b := &Builder{
		set:         model.SetCore5,
		scorer:      scoring.NewEvidenceScorer(),
		themes:      theme.NewAggregator(),
		recs:        recommend.NewSynthesizer(),
		now:         time.Now,
		parallelism: defaultParallelism,
	}
	for _, opt := range opts {
		opt(b)
	}

	if !b.set.Valid() {
		return nil, fmt.Errorf("%w: unknown dimension set %q", model.ErrConfiguration, b.set)
	}
	if b.weights == nil {
		b.weights = b.set.DefaultWeights()
	}
	if err := ValidateWeights(b.set, b.weights); err != nil {
		return nil, err
	}
	classifier, err := maturity.NewClassifier(b.levels)
	if err != nil {
		return nil, err
	}
	b.classifier = classifier
	if b.gaps == nil {
		if b.gaps, err = gap.NewAnalyzer(); err != nil {
			return nil, err
		}
	}
	return b, nil
}

// ValidateWeights checks that weights cover exactly the dimensions of set,
// each lies in (0,1] and together they sum to 1.
func ValidateWeights(set model.DimensionSet, weights map[model.DimensionID]float64) error {
	dims := set.Dimensions()
	if len(weights) != len(dims) {
		return fmt.Errorf("%w: %d weights for %d dimensions of %s", model.ErrConfiguration, len(weights), len(dims), set)
	}
	values := make([]float64, 0, len(dims))
	for _, d := range dims {
		w, ok := weights[d]
		if !ok {
			return fmt.Errorf("%w: missing weight for %s", model.ErrConfiguration, d)
		}
		if math.IsNaN(w) || w <= 0 || w > 1 {
			return fmt.Errorf("%w: weight %v for %s outside (0,1]", model.ErrConfiguration, w, d)
		}
		values = append(values, w)
	}
	if sum := floats.Sum(values); math.Abs(sum-1) > maturity.Epsilon {
		return fmt.Errorf("%w: weights sum to %v, want 1", model.ErrConfiguration, sum)
	}
	return nil
}

// DimensionSet returns the family this builder scores.
func (b *Builder) DimensionSet() model.DimensionSet {
	return b.set
}

// Weights returns a copy of the configured dimension weights.
func (b *Builder) Weights() map[model.DimensionID]float64 {
	out := make(map[model.DimensionID]float64, len(b.weights))
	for d, w := range b.weights {
		out[d] = w
	}
	return out
}

// PerceptionScale returns the upper bound accepted for perceived scores.
func (b *Builder) PerceptionScale() float64 {
	return b.gaps.Scale()
}

// Classifier returns the validated maturity classifier.
func (b *Builder) Classifier() *maturity.Classifier {
	return b.classifier
}

// Build produces a report for in. Evidence or perceptions that belong to
// another dimension family fail the build with model.ErrConfiguration.
func (b *Builder) Build(ctx context.Context, in Input) (*model.Report, error) {
	if in.Subject.ID == "" {
		return nil, fmt.Errorf("%w: subject id required", model.ErrInvalidEvidence)
	}
	for d := range in.Evidence {
		if d.Set() != b.set {
			return nil, fmt.Errorf("%w: evidence for %s does not belong to %s", model.ErrConfiguration, d, b.set)
		}
	}
	for d := range in.Perceived {
		if d.Set() != b.set {
			return nil, fmt.Errorf("%w: perception for %s does not belong to %s", model.ErrConfiguration, d, b.set)
		}
	}

	dims := b.set.Dimensions()
	scores := make([]model.DimensionScore, len(dims))
	dimWarnings := make([][]model.Warning, len(dims))
	var themes []model.Theme

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.parallelism + 1)
	g.Go(func() error {
		var err error
		themes, err = b.themes.Aggregate(gctx, in.Quotes)
		return err
	})
	for i, d := range dims {
		g.Go(func() error {
			res, err := b.scorer.Score(gctx, scoring.Input{
				Dimension: d,
				Items:     in.Evidence[d],
				Weight:    b.weights[d],
			})
			if err != nil {
				return fmt.Errorf("score %s: %w", d, err)
			}
			scores[i] = res.Score
			dimWarnings[i] = res.Warnings
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	warnings := []model.Warning{}
	for _, ws := range dimWarnings {
		warnings = append(warnings, ws...)
	}

	aggregate, err := maturity.Aggregate(scores)
	if err != nil {
		return nil, err
	}
	level, err := b.classifier.Classify(aggregate)
	if err != nil {
		return nil, err
	}
	next := b.classifier.Next(level.Level)

	peer, err := benchmark.Compare(aggregate, in.Benchmark)
	if err != nil {
		return nil, err
	}
	if in.Benchmark == nil {
		warnings = append(warnings, model.Warning{
			Kind:    model.WarningMissingBenchmark,
			Message: fmt.Sprintf("no benchmark for industry %q size band %q", in.Subject.Industry, in.Subject.SizeBand),
		})
	}

	analysis, err := b.gaps.Analyze(gap.Input{
		Dimensions: scores,
		Perceived:  in.Perceived,
		Aggregate:  aggregate,
		Current:    level,
		Next:       next,
	})
	if err != nil {
		return nil, err
	}

	rep := &model.Report{
		Subject:           in.Subject,
		DimensionSet:      b.set,
		OverallScore:      aggregate / 10,
		OverallPercentage: aggregate,
		MaturityLevel:     level,
		NextLevel:         next,
		Dimensions:        scores,
		GapAnalysis:       analysis,
		PeerComparison:    peer,
		Themes:            themes,
		Recommendations:   b.recs.Synthesize(analysis, level, themes),
		Warnings:          warnings,
		CompletedAt:       b.now().UTC(),
	}
	if rep.Themes == nil {
		rep.Themes = []model.Theme{}
	}
	if rep.ID, err = contentID(rep); err != nil {
		return nil, err
	}
	return rep, nil
}

// contentID derives a stable id from the report body. The id and the
// completion time are left out so rebuilding the same input yields the same id.
func contentID(rep *model.Report) (string, error) {
	c := *rep
	c.ID = ""
	c.CompletedAt = time.Time{}
	body, err := json.Marshal(&c)
	if err != nil {
		return "", fmt.Errorf("encode report: %w", err)
	}
	return uuid.NewSHA1(reportNamespace, body).String(), nil
}
