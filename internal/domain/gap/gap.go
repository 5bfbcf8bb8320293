// Package gap compares self-declared perception scores with evidence scores
// and measures the distance to the next maturity level.
package gap

import (
	"fmt"
	"math"
	"sort"

	"github.com/SquizAI/humanGLue-brain-sub005/internal/domain/model"
)

// Default analyzer configuration constants.
const (
	DefaultHighThreshold   = 3.0
	DefaultMediumThreshold = 2.0
	DefaultPerceptionScale = 10.0
)

// Thresholds splits gap magnitudes into priorities: gap >= High is high,
// Medium <= gap < High is medium, anything smaller is low.
type Thresholds struct {
	High   float64 `koanf:"high"`
	Medium float64 `koanf:"medium"`
}

// DefaultThresholds returns the standard 3/2 split.
func DefaultThresholds() Thresholds {
	return Thresholds{High: DefaultHighThreshold, Medium: DefaultMediumThreshold}
}

// Validate rejects thresholds that cannot order priorities.
func (t Thresholds) Validate() error {
	if t.Medium <= 0 || t.High <= t.Medium {
		return fmt.Errorf("%w: gap thresholds high=%v medium=%v", model.ErrConfiguration, t.High, t.Medium)
	}
	return nil
}

// Priority classifies a gap magnitude.
func (t Thresholds) Priority(gap float64) model.Priority {
	switch {
	case gap >= t.High:
		return model.PriorityHigh
	case gap >= t.Medium:
		return model.PriorityMedium
	default:
		return model.PriorityLow
	}
}

// Option applies a configuration option to the Analyzer.
type Option func(*Analyzer)

// WithThresholds overrides the priority thresholds.
func WithThresholds(t Thresholds) Option {
	return func(a *Analyzer) {
		a.thresholds = t
	}
}

// WithPerceptionScale sets the upper bound of the self-rating scale.
func WithPerceptionScale(scale float64) Option {
	return func(a *Analyzer) {
		if scale > 0 {
			a.scale = scale
		}
	}
}

// Analyzer produces a GapAnalysis.
type Analyzer struct {
	thresholds Thresholds
	scale      float64
}

// NewAnalyzer creates an analyzer and validates its thresholds.
func NewAnalyzer(opts ...Option) (*Analyzer, error) {
	a := &Analyzer{thresholds: DefaultThresholds(), scale: DefaultPerceptionScale}
	for _, opt := range opts {
		opt(a)
	}
	if err := a.thresholds.Validate(); err != nil {
		return nil, err
	}
	return a, nil
}

// Scale returns the perception scale upper bound.
func (a *Analyzer) Scale() float64 {
	return a.scale
}

// Input carries everything the analyzer consumes.
type Input struct {
	Dimensions []model.DimensionScore
	// Perceived maps dimensions to self-ratings on [0, scale]. Dimensions
	// without a perceived score produce no record.
	Perceived map[model.DimensionID]float64
	Aggregate float64
	Current   model.MaturityLevel
	Next      *model.MaturityLevel
}

// Analyze builds the gap records and level progress.
func (a *Analyzer) Analyze(in Input) (model.GapAnalysis, error) {
	for d, p := range in.Perceived {
		if math.IsNaN(p) || p < 0 || p > a.scale {
			return model.GapAnalysis{}, fmt.Errorf("%w: perceived %s = %v outside [0,%v]", model.ErrInvalidScoreRange, d, p, a.scale)
		}
	}

	out := model.GapAnalysis{
		Records:        []model.GapRecord{},
		AggregateScore: in.Aggregate,
		CurrentLevel:   in.Current,
		NextLevel:      in.Next,
	}

	for _, ds := range in.Dimensions {
		perceived, ok := in.Perceived[ds.Dimension]
		if !ok {
			continue
		}
		if math.IsNaN(ds.Score) || ds.Score < 0 || ds.Score > 100 {
			return model.GapAnalysis{}, fmt.Errorf("%w: evidence %s = %v outside [0,100]", model.ErrInvalidScoreRange, ds.Dimension, ds.Score)
		}
		evidenceScore := ds.Score * a.scale / 100
		g := math.Abs(perceived - evidenceScore)
		rec := model.GapRecord{
			Dimension:             ds.Dimension,
			PerceivedScore:        perceived,
			EvidenceScore:         evidenceScore,
			Gap:                   g,
			Priority:              a.thresholds.Priority(g),
			SupportingEvidence:    append([]string{}, ds.SupportingEvidence...),
			ContradictingEvidence: append([]string{}, ds.ContradictingEvidence...),
		}
		out.Records = append(out.Records, rec)
		switch rec.Priority {
		case model.PriorityHigh:
			out.HighCount++
		case model.PriorityMedium:
			out.MediumCount++
		default:
			out.LowCount++
		}
	}

	sort.SliceStable(out.Records, func(i, j int) bool {
		ri, rj := out.Records[i], out.Records[j]
		if ri.Gap != rj.Gap {
			return ri.Gap > rj.Gap
		}
		return ri.Dimension < rj.Dimension
	})

	out.PointsToNextLevel, out.PercentageToNextLevel = Progress(in.Aggregate, in.Current, in.Next)
	return out, nil
}

// Progress returns the points still needed to reach next and how far the
// aggregate has travelled through the current band, in percent.
func Progress(aggregate float64, current model.MaturityLevel, next *model.MaturityLevel) (points, percentage float64) {
	if next != nil {
		points = math.Max(0, next.MinScore-aggregate)
	}
	width := current.MaxScore - current.MinScore
	if width <= 0 {
		return points, 100
	}
	percentage = math.Max(0, math.Min(100, 100*(aggregate-current.MinScore)/width))
	return points, percentage
}
