// Package scoring turns the evidence of one dimension into a DimensionScore.
package scoring

import (
	"context"
	"fmt"
	"math"

	"github.com/SquizAI/humanGLue-brain-sub005/internal/domain/evidence"
	"github.com/SquizAI/humanGLue-brain-sub005/internal/domain/model"
)

// Default scoring configuration constants.
const (
	defaultExpectedEvidence = 5
	defaultStrongThreshold  = 70
	maxScoreValue           = 100

	// InsufficientEvidence is the gap text recorded for a dimension with no items.
	InsufficientEvidence = "insufficient evidence"
)

// Option applies a configuration option to the EvidenceScorer.
type Option func(*EvidenceScorer)

// WithExpectedEvidence sets the item count at which confidence reaches 1
// for every dimension without an explicit override.
func WithExpectedEvidence(n int) Option {
	return func(s *EvidenceScorer) {
		if n > 0 {
			s.defaultExpected = n
		}
	}
}

// WithExpectedEvidenceFor overrides the expected item count per dimension.
func WithExpectedEvidenceFor(expected map[model.DimensionID]int) Option {
	return func(s *EvidenceScorer) {
		for d, n := range expected {
			if n > 0 {
				s.expected[d] = n
			}
		}
	}
}

// WithStrongThreshold sets the score at or above which no catalog next
// steps are suggested.
func WithStrongThreshold(threshold float64) Option {
	return func(s *EvidenceScorer) {
		if threshold > 0 && threshold <= maxScoreValue {
			s.strongThreshold = threshold
		}
	}
}

// Input is the evidence of one dimension together with its weight.
type Input struct {
	Dimension model.DimensionID
	Items     []model.EvidenceItem
	Weight    float64
}

// Result contains the computed score and any non-fatal warnings.
type Result struct {
	Score    model.DimensionScore
	Warnings []model.Warning
}

// Scorer computes a dimension score from its evidence.
type Scorer interface {
	// Score computes a score, honoring ctx for cancellation.
	Score(ctx context.Context, in Input) (Result, error)
}

// EvidenceScorer implements Scorer as a pure function of its input.
type EvidenceScorer struct {
	defaultExpected int
	expected        map[model.DimensionID]int
	strongThreshold float64
}

// NewEvidenceScorer creates a scorer with configuration options.
func NewEvidenceScorer(opts ...Option) *EvidenceScorer {
	s := &EvidenceScorer{
		defaultExpected: defaultExpectedEvidence,
		expected:        make(map[model.DimensionID]int),
		strongThreshold: defaultStrongThreshold,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ExpectedEvidence returns the item count at which confidence saturates for d.
func (s *EvidenceScorer) ExpectedEvidence(d model.DimensionID) int {
	if n, ok := s.expected[d]; ok {
		return n
	}
	return s.defaultExpected
}

// Score computes the DimensionScore for in.
func (s *EvidenceScorer) Score(ctx context.Context, in Input) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, fmt.Errorf("context cancelled: %w", err)
	}
	if !in.Dimension.Valid() {
		return Result{}, fmt.Errorf("%w: dimension %d", model.ErrConfiguration, in.Dimension)
	}
	if math.IsNaN(in.Weight) || in.Weight <= 0 || in.Weight > 1 {
		return Result{}, fmt.Errorf("%w: weight %v for %s outside (0,1]", model.ErrConfiguration, in.Weight, in.Dimension)
	}

	info := in.Dimension.Info()
	out := model.DimensionScore{
		Dimension:             in.Dimension,
		Name:                  info.Name,
		Weight:                in.Weight,
		Gaps:                  []string{},
		NextSteps:             []string{},
		SupportingEvidence:    []string{},
		ContradictingEvidence: []string{},
	}

	if len(in.Items) == 0 {
		out.Gaps = append(out.Gaps, InsufficientEvidence)
		out.NextSteps = append(out.NextSteps, info.NextSteps...)
		d := in.Dimension
		return Result{
			Score: out,
			Warnings: []model.Warning{{
				Kind:      model.WarningInsufficientEvidence,
				Dimension: &d,
				Message:   fmt.Sprintf("no evidence for %s", info.Name),
			}},
		}, nil
	}

	items := append([]model.EvidenceItem(nil), in.Items...)
	evidence.SortItems(items)

	var supporting, contradicting float64
	for i, item := range items {
		if item.Dimension != in.Dimension {
			return Result{}, fmt.Errorf("%w: item %d belongs to %s, not %s",
				model.ErrInvalidEvidence, i, item.Dimension, in.Dimension)
		}
		if err := item.Validate(); err != nil {
			return Result{}, fmt.Errorf("item %d: %w", i, err)
		}
		switch item.Polarity {
		case model.PolaritySupporting:
			supporting += item.Weight
			out.SupportingEvidence = append(out.SupportingEvidence, item.Statement)
		case model.PolarityContradicting:
			contradicting += item.Weight
			out.ContradictingEvidence = append(out.ContradictingEvidence, item.Statement)
			out.Gaps = append(out.Gaps, item.Statement)
		}
	}

	out.Score = clamp(maxScoreValue*(supporting-contradicting), 0, maxScoreValue)
	out.WeightedScore = out.Score * in.Weight
	out.EvidenceCount = len(items)
	out.Confidence = math.Min(1, float64(out.EvidenceCount)/float64(s.ExpectedEvidence(in.Dimension)))
	if out.Score < s.strongThreshold {
		out.NextSteps = append(out.NextSteps, info.NextSteps...)
	}

	return Result{Score: out}, nil
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
