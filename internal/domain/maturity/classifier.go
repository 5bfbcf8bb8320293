// Package maturity maps an aggregate score to a band of the maturity table.
package maturity

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/SquizAI/humanGLue-brain-sub005/internal/domain/model"
)

const (
	minAggregate = 0
	maxAggregate = 100
	// maxBandGap is the widest allowed hole between consecutive bands.
	maxBandGap = 1
	// Epsilon is the tolerance for weight sums and aggregate consistency.
	Epsilon = 1e-6
)

// Classifier holds a validated level table.
type Classifier struct {
	levels []model.MaturityLevel
}

// NewClassifier validates levels and returns a classifier over a copy of them.
// An empty table selects DefaultLevels.
func NewClassifier(levels []model.MaturityLevel) (*Classifier, error) {
	if len(levels) == 0 {
		levels = defaultLevels[:]
	}
	if err := Validate(levels); err != nil {
		return nil, err
	}
	return &Classifier{levels: cloneLevels(levels)}, nil
}

// Validate checks that levels are ordered, contiguous and cover [0,100].
func Validate(levels []model.MaturityLevel) error {
	if len(levels) == 0 {
		return fmt.Errorf("%w: empty maturity table", model.ErrConfiguration)
	}
	if levels[0].MinScore != minAggregate {
		return fmt.Errorf("%w: first level starts at %v, want 0", model.ErrConfiguration, levels[0].MinScore)
	}
	if last := levels[len(levels)-1]; last.MaxScore != maxAggregate {
		return fmt.Errorf("%w: last level ends at %v, want 100", model.ErrConfiguration, last.MaxScore)
	}
	for i, l := range levels {
		if l.Name == "" {
			return fmt.Errorf("%w: level %d has no name", model.ErrConfiguration, i)
		}
		if math.IsNaN(l.MinScore) || math.IsNaN(l.MaxScore) || l.MaxScore < l.MinScore {
			return fmt.Errorf("%w: level %q has band [%v,%v]", model.ErrConfiguration, l.Name, l.MinScore, l.MaxScore)
		}
		if i == 0 {
			continue
		}
		prev := levels[i-1]
		if l.Level <= prev.Level {
			return fmt.Errorf("%w: level ids not increasing at %q", model.ErrConfiguration, l.Name)
		}
		if l.MinScore <= prev.MinScore || l.MinScore < prev.MaxScore {
			return fmt.Errorf("%w: level %q overlaps %q", model.ErrConfiguration, l.Name, prev.Name)
		}
		if l.MinScore-prev.MaxScore > maxBandGap {
			return fmt.Errorf("%w: gap between %q and %q", model.ErrConfiguration, prev.Name, l.Name)
		}
	}
	return nil
}

// Levels returns a copy of the table.
func (c *Classifier) Levels() []model.MaturityLevel {
	return cloneLevels(c.levels)
}

// Lowest returns the first band.
func (c *Classifier) Lowest() model.MaturityLevel {
	return cloneLevel(c.levels[0])
}

// Classify returns the band that contains score. A score on a boundary
// shared by two bands, or inside the hole between two bands, resolves to
// the lower band.
func (c *Classifier) Classify(score float64) (model.MaturityLevel, error) {
	if math.IsNaN(score) || score < minAggregate || score > maxAggregate {
		return model.MaturityLevel{}, fmt.Errorf("%w: aggregate %v outside [0,100]", model.ErrInvalidScoreRange, score)
	}
	last := len(c.levels) - 1
	for i, l := range c.levels {
		if i == last || score <= l.MaxScore || score < c.levels[i+1].MinScore {
			return cloneLevel(l), nil
		}
	}
	return cloneLevel(c.levels[last]), nil
}

// Next returns the band after level, or nil at the top of the table.
func (c *Classifier) Next(level model.LevelID) *model.MaturityLevel {
	for i, l := range c.levels {
		if l.Level == level && i+1 < len(c.levels) {
			next := cloneLevel(c.levels[i+1])
			return &next
		}
	}
	return nil
}

// Aggregate sums the weighted dimension scores and checks the sum against
// Σ score × weight.
func Aggregate(scores []model.DimensionScore) (float64, error) {
	if len(scores) == 0 {
		return 0, nil
	}
	weighted := make([]float64, len(scores))
	raw := make([]float64, len(scores))
	weights := make([]float64, len(scores))
	for i, s := range scores {
		weighted[i] = s.WeightedScore
		raw[i] = s.Score
		weights[i] = s.Weight
	}
	sum := floats.Sum(weighted)
	if math.Abs(sum-floats.Dot(raw, weights)) > Epsilon {
		return 0, fmt.Errorf("%w: weighted scores do not match score x weight", model.ErrConfiguration)
	}
	if sum < minAggregate && sum > -Epsilon {
		sum = minAggregate
	}
	if sum > maxAggregate && sum < maxAggregate+Epsilon {
		sum = maxAggregate
	}
	return sum, nil
}
