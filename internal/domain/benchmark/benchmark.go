// Package benchmark positions an aggregate score against an industry
// distribution.
package benchmark

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"

	"github.com/montanaflynn/stats"

	"github.com/SquizAI/humanGLue-brain-sub005/internal/domain/model"
)

// Rank labels.
const (
	RankTopDecile    = "Top decile"
	RankAboveAverage = "Above average"
	RankBelowAverage = "Below average"
)

// Compare interpolates the percentile of aggregate within dist. A nil
// distribution yields a nil comparison.
func Compare(aggregate float64, dist *model.Distribution) (*model.PeerComparison, error) {
	if dist == nil {
		return nil, nil
	}
	if math.IsNaN(aggregate) || aggregate < 0 || aggregate > 100 {
		return nil, fmt.Errorf("%w: aggregate %v outside [0,100]", model.ErrInvalidScoreRange, aggregate)
	}
	anchors, err := normalize(dist.Percentiles)
	if err != nil {
		return nil, err
	}

	pct := interpolate(anchors, aggregate)
	return &model.PeerComparison{
		IndustryAverage: mean(dist),
		Percentile:      pct,
		Rank:            rankFor(pct),
	}, nil
}

// Validate checks a distribution before it is registered.
func Validate(dist model.Distribution) error {
	if strings.TrimSpace(dist.Industry) == "" {
		return fmt.Errorf("%w: benchmark without industry", model.ErrConfiguration)
	}
	if m := dist.Mean; m != nil && (math.IsNaN(*m) || *m < 0 || *m > 100) {
		return fmt.Errorf("%w: benchmark mean %v outside [0,100]", model.ErrInvalidScoreRange, *m)
	}
	_, err := normalize(dist.Percentiles)
	return err
}

// normalize sorts anchors by score and adds the implied (0,0) and (100,100).
// Percentiles must not decrease as scores increase.
func normalize(in []model.PercentileAnchor) ([]model.PercentileAnchor, error) {
	anchors := make([]model.PercentileAnchor, 0, len(in)+2)
	for _, a := range in {
		if math.IsNaN(a.Score) || math.IsNaN(a.Percentile) ||
			a.Score < 0 || a.Score > 100 || a.Percentile < 0 || a.Percentile > 100 {
			return nil, fmt.Errorf("%w: percentile anchor (%v,%v)", model.ErrInvalidScoreRange, a.Percentile, a.Score)
		}
		anchors = append(anchors, a)
	}
	sort.SliceStable(anchors, func(i, j int) bool { return anchors[i].Score < anchors[j].Score })

	if len(anchors) == 0 || anchors[0].Score > 0 {
		anchors = append([]model.PercentileAnchor{{Percentile: 0, Score: 0}}, anchors...)
	}
	if anchors[len(anchors)-1].Score < 100 {
		anchors = append(anchors, model.PercentileAnchor{Percentile: 100, Score: 100})
	}
	for i := 1; i < len(anchors); i++ {
		if anchors[i].Percentile < anchors[i-1].Percentile {
			return nil, fmt.Errorf("%w: percentiles decrease at score %v", model.ErrConfiguration, anchors[i].Score)
		}
	}
	return anchors, nil
}

func interpolate(anchors []model.PercentileAnchor, score float64) float64 {
	for i := 1; i < len(anchors); i++ {
		lo, hi := anchors[i-1], anchors[i]
		if score > hi.Score {
			continue
		}
		if hi.Score == lo.Score {
			return hi.Percentile
		}
		t := (score - lo.Score) / (hi.Score - lo.Score)
		return lo.Percentile + t*(hi.Percentile-lo.Percentile)
	}
	return anchors[len(anchors)-1].Percentile
}

// mean returns the declared mean, falling back to the mean of the anchor
// scores when the distribution leaves it unset. A declared 0 is kept.
func mean(dist *model.Distribution) float64 {
	if dist.Mean != nil {
		return *dist.Mean
	}
	if len(dist.Percentiles) == 0 {
		return 0
	}
	scores := make(stats.Float64Data, 0, len(dist.Percentiles))
	for _, a := range dist.Percentiles {
		scores = append(scores, a.Score)
	}
	m, err := stats.Mean(scores)
	if err != nil {
		return 0
	}
	return m
}

func rankFor(percentile float64) string {
	switch {
	case percentile >= 90:
		return RankTopDecile
	case percentile >= 50:
		return RankAboveAverage
	default:
		return RankBelowAverage
	}
}

// Registry holds distributions keyed by (industry, sizeBand), case-insensitive.
type Registry struct {
	mu    sync.RWMutex
	dists map[string]model.Distribution
}

// NewRegistry creates a registry seeded with dists.
func NewRegistry(dists ...model.Distribution) (*Registry, error) {
	r := &Registry{dists: make(map[string]model.Distribution)}
	for _, d := range dists {
		if err := r.Put(d); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func key(industry, sizeBand string) string {
	return strings.ToLower(strings.TrimSpace(industry)) + "|" + strings.ToLower(strings.TrimSpace(sizeBand))
}

// Put validates and stores dist, replacing any previous entry.
func (r *Registry) Put(dist model.Distribution) error {
	if err := Validate(dist); err != nil {
		return err
	}
	dist.Percentiles = append([]model.PercentileAnchor(nil), dist.Percentiles...)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.dists[key(dist.Industry, dist.SizeBand)] = dist
	return nil
}

// Lookup returns a copy of the distribution for (industry, sizeBand). An
// exact match wins; otherwise an industry-wide entry with empty size band
// is used. Returns nil when neither exists.
func (r *Registry) Lookup(industry, sizeBand string) *model.Distribution {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.dists[key(industry, sizeBand)]
	if !ok {
		d, ok = r.dists[key(industry, "")]
	}
	if !ok {
		return nil
	}
	d.Percentiles = append([]model.PercentileAnchor(nil), d.Percentiles...)
	return &d
}

// Len returns the number of registered distributions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.dists)
}
