// Package theme clusters interview quotes into named recurring themes.
package theme

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/montanaflynn/stats"

	"github.com/SquizAI/humanGLue-brain-sub005/internal/domain/model"
)

const defaultMaxQuotes = 3

// Option applies a configuration option to the Aggregator.
type Option func(*Aggregator)

// WithMaxQuotes caps the representative quotes kept per theme.
func WithMaxQuotes(n int) Option {
	return func(a *Aggregator) {
		if n > 0 {
			a.maxQuotes = n
		}
	}
}

// Aggregator groups quotes by normalized theme label.
type Aggregator struct {
	maxQuotes int
}

// NewAggregator creates an aggregator with configuration options.
func NewAggregator(opts ...Option) *Aggregator {
	a := &Aggregator{maxQuotes: defaultMaxQuotes}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

type bucket struct {
	variants     map[string]int
	sentiments   stats.Float64Data
	quotes       []model.Quote
	interviewees map[string]struct{}
}

// Normalize trims a label and collapses inner whitespace.
func Normalize(label string) string {
	return strings.Join(strings.Fields(label), " ")
}

// Aggregate builds themes from quotes. Quotes without a theme label are
// skipped; a sentiment outside [-1,1] fails the whole batch.
func (a *Aggregator) Aggregate(ctx context.Context, quotes []model.Quote) ([]model.Theme, error) {
	buckets := make(map[string]*bucket)
	for i, q := range quotes {
		if i%256 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, fmt.Errorf("context cancelled: %w", err)
			}
		}
		if math.IsNaN(q.Sentiment) || q.Sentiment < -1 || q.Sentiment > 1 {
			return nil, fmt.Errorf("%w: quote %d sentiment %v outside [-1,1]", model.ErrInvalidScoreRange, i, q.Sentiment)
		}
		label := Normalize(q.Theme)
		if label == "" {
			continue
		}
		k := strings.ToLower(label)
		b, ok := buckets[k]
		if !ok {
			b = &bucket{variants: make(map[string]int), interviewees: make(map[string]struct{})}
			buckets[k] = b
		}
		b.variants[label]++
		b.sentiments = append(b.sentiments, q.Sentiment)
		b.quotes = append(b.quotes, q)
		b.interviewees[q.IntervieweeID] = struct{}{}
	}

	themes := make([]model.Theme, 0, len(buckets))
	for _, b := range buckets {
		sort.Float64s(b.sentiments)
		sentiment, err := stats.Mean(b.sentiments)
		if err != nil {
			continue
		}
		themes = append(themes, model.Theme{
			Name:           displayName(b.variants),
			Frequency:      len(b.interviewees),
			Sentiment:      sentiment,
			Quotes:         a.representative(b.quotes),
			IntervieweeIDs: sortedIDs(b.interviewees),
		})
	}

	sort.Slice(themes, func(i, j int) bool {
		ti, tj := themes[i], themes[j]
		if ti.Frequency != tj.Frequency {
			return ti.Frequency > tj.Frequency
		}
		si, sj := math.Abs(ti.Sentiment), math.Abs(tj.Sentiment)
		if si != sj {
			return si > sj
		}
		return ti.Name < tj.Name
	})
	return themes, nil
}

// displayName picks the most used spelling, breaking ties lexicographically.
func displayName(variants map[string]int) string {
	best, bestN := "", 0
	for v, n := range variants {
		if n > bestN || (n == bestN && v < best) {
			best, bestN = v, n
		}
	}
	return best
}

func (a *Aggregator) representative(quotes []model.Quote) []string {
	ordered := append([]model.Quote(nil), quotes...)
	sort.SliceStable(ordered, func(i, j int) bool {
		si, sj := math.Abs(ordered[i].Sentiment), math.Abs(ordered[j].Sentiment)
		if si != sj {
			return si > sj
		}
		return ordered[i].Quote < ordered[j].Quote
	})

	out := make([]string, 0, a.maxQuotes)
	seen := make(map[string]struct{}, len(ordered))
	for _, q := range ordered {
		text := strings.TrimSpace(q.Quote)
		if text == "" {
			continue
		}
		if _, dup := seen[text]; dup {
			continue
		}
		seen[text] = struct{}{}
		out = append(out, text)
		if len(out) == a.maxQuotes {
			break
		}
	}
	return out
}

// sortedIDs lists interviewees; the anonymous respondent appears as "".
func sortedIDs(ids map[string]struct{}) []string {
	out := make([]string, 0, len(ids))
	for id := range ids {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
