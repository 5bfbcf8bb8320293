// Package recommend turns gaps, themes and the current maturity level into
// time-boxed action items using a fixed rule table.
package recommend

import (
	"fmt"

	"github.com/SquizAI/humanGLue-brain-sub005/internal/domain/model"
)

// Default synthesizer configuration constants.
const (
	DefaultThemeSentiment = -0.2
	DefaultThemeFrequency = 1
)

// Option applies a configuration option to the Synthesizer.
type Option func(*Synthesizer)

// WithThemeThresholds sets when a theme is escalated: its sentiment must be
// below sentiment and its frequency above frequency.
func WithThemeThresholds(sentiment float64, frequency int) Option {
	return func(s *Synthesizer) {
		if sentiment >= -1 && sentiment <= 1 {
			s.themeSentiment = sentiment
		}
		if frequency >= 0 {
			s.themeFrequency = frequency
		}
	}
}

// WithPlaybooks replaces the per-level playbook table.
func WithPlaybooks(playbooks map[model.LevelID][]string) Option {
	return func(s *Synthesizer) {
		s.playbooks = make(map[model.LevelID][]string, len(playbooks))
		for id, items := range playbooks {
			s.playbooks[id] = append([]string(nil), items...)
		}
	}
}

// Synthesizer applies the recommendation rule table.
type Synthesizer struct {
	themeSentiment float64
	themeFrequency int
	playbooks      map[model.LevelID][]string
}

// NewSynthesizer creates a synthesizer with configuration options.
func NewSynthesizer(opts ...Option) *Synthesizer {
	s := &Synthesizer{
		themeSentiment: DefaultThemeSentiment,
		themeFrequency: DefaultThemeFrequency,
		playbooks:      DefaultPlaybooks(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Elevated reports whether th qualifies for an immediate recommendation.
func (s *Synthesizer) Elevated(th model.Theme) bool {
	return th.Sentiment < s.themeSentiment && th.Frequency > s.themeFrequency
}

// Synthesize produces one recommendation per gap record, one per elevated
// theme and every playbook item for level.
func (s *Synthesizer) Synthesize(analysis model.GapAnalysis, level model.MaturityLevel, themes []model.Theme) model.Recommendations {
	out := model.Recommendations{
		Immediate: []model.Recommendation{},
		ShortTerm: []model.Recommendation{},
		LongTerm:  []model.Recommendation{},
	}

	for _, rec := range analysis.Records {
		d := rec.Dimension
		r := model.Recommendation{
			RelatedDimension: &d,
			Priority:         rec.Priority,
			Source:           model.SourceGap,
		}
		name := d.Name()
		switch rec.Priority {
		case model.PriorityHigh:
			r.Horizon = model.HorizonImmediate
			r.Text = fmt.Sprintf("Close the %s perception gap: self-assessed %.1f versus evidence %.1f. %s",
				name, rec.PerceivedScore, rec.EvidenceScore, firstStep(d))
			out.Immediate = append(out.Immediate, r)
		case model.PriorityMedium:
			r.Horizon = model.HorizonShortTerm
			r.Text = fmt.Sprintf("Validate %s with additional evidence; the %.1f-point gap suggests misaligned expectations. %s",
				name, rec.Gap, firstStep(d))
			out.ShortTerm = append(out.ShortTerm, r)
		default:
			r.Horizon = model.HorizonLongTerm
			r.Text = fmt.Sprintf("Sustain %s; perception and evidence are aligned within %.1f points.", name, rec.Gap)
			out.LongTerm = append(out.LongTerm, r)
		}
	}

	for _, th := range themes {
		if !s.Elevated(th) {
			continue
		}
		out.Immediate = append(out.Immediate, model.Recommendation{
			Text: fmt.Sprintf("Address the recurring concern %q raised by %d interviewees (sentiment %.2f).",
				th.Name, th.Frequency, th.Sentiment),
			Horizon:      model.HorizonImmediate,
			RelatedTheme: th.Name,
			Priority:     model.PriorityHigh,
			Source:       model.SourceTheme,
		})
	}

	for _, item := range s.playbooks[level.Level] {
		out.LongTerm = append(out.LongTerm, model.Recommendation{
			Text:     item,
			Horizon:  model.HorizonLongTerm,
			Priority: model.PriorityLow,
			Source:   model.SourcePlaybook,
		})
	}

	return out
}

func firstStep(d model.DimensionID) string {
	steps := d.Info().NextSteps
	if len(steps) == 0 {
		return ""
	}
	return steps[0] + "."
}
