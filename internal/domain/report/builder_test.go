package report_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/SquizAI/humanGLue-brain-sub005/internal/domain/evidence"
	"github.com/SquizAI/humanGLue-brain-sub005/internal/domain/model"
	"github.com/SquizAI/humanGLue-brain-sub005/internal/domain/report"
	"github.com/SquizAI/humanGLue-brain-sub005/internal/domain/scoring"
	. "github.com/smartystreets/goconvey/convey"
)

var fixedClock = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }

// fixedScorer returns the same score for every dimension.
type fixedScorer struct{ score float64 }

func (f fixedScorer) Score(_ context.Context, in scoring.Input) (scoring.Result, error) {
	return scoring.Result{Score: model.DimensionScore{
		Dimension:     in.Dimension,
		Name:          in.Dimension.Name(),
		Score:         f.score,
		Weight:        in.Weight,
		WeightedScore: f.score * in.Weight,
		Confidence:    1,
		EvidenceCount: 5,
	}}, nil
}

func subject() model.Subject {
	return model.Subject{ID: "acme", Name: "Acme", Kind: model.SubjectOrganization, Industry: "Retail", SizeBand: "250-999"}
}

func retail() *model.Distribution {
	return &model.Distribution{Industry: "Retail", SizeBand: "250-999", Mean: model.MeanOf(42), Percentiles: []model.PercentileAnchor{
		{Percentile: 50, Score: 40}, {Percentile: 90, Score: 70},
	}}
}

func TestBuilderConfiguration(t *testing.T) {
	Convey("Given builder options", t, func() {
		Convey("When weights do not sum to one", func() {
			w := model.SetCore5.DefaultWeights()
			w[model.DimensionVelocity] = 0.2
			_, err := report.NewBuilder(report.WithWeights(w))
			So(errors.Is(err, model.ErrConfiguration), ShouldBeTrue)
		})

		Convey("When a weight is missing", func() {
			w := model.SetCore5.DefaultWeights()
			delete(w, model.DimensionVelocity)
			w[model.DimensionIndividual] = 0.4
			_, err := report.NewBuilder(report.WithWeights(w))
			So(errors.Is(err, model.ErrConfiguration), ShouldBeTrue)
		})

		Convey("When weights mix dimension families", func() {
			w := model.SetCore5.DefaultWeights()
			delete(w, model.DimensionVelocity)
			w[model.DimensionAIGovernance] = 0.15
			_, err := report.NewBuilder(report.WithWeights(w))
			So(errors.Is(err, model.ErrConfiguration), ShouldBeTrue)
		})

		Convey("When the level table is malformed", func() {
			_, err := report.NewBuilder(report.WithLevels([]model.MaturityLevel{{Name: "only", MinScore: 0, MaxScore: 50}}))
			So(errors.Is(err, model.ErrConfiguration), ShouldBeTrue)
		})

		Convey("When the dimension set is unknown", func() {
			_, err := report.NewBuilder(report.WithDimensionSet("core7"))
			So(errors.Is(err, model.ErrConfiguration), ShouldBeTrue)
		})

		Convey("When the category8 family is selected", func() {
			b, err := report.NewBuilder(report.WithDimensionSet(model.SetCategory8))
			So(err, ShouldBeNil)
			So(b.DimensionSet(), ShouldEqual, model.SetCategory8)
		})
	})
}

func TestBuilderScenarios(t *testing.T) {
	ctx := context.Background()

	Convey("Scenario A: core5 weights with no evidence", t, func() {
		b, err := report.NewBuilder(report.WithClock(fixedClock))
		So(err, ShouldBeNil)

		rep, err := b.Build(ctx, report.Input{Subject: subject(), Benchmark: retail()})
		So(err, ShouldBeNil)

		Convey("Then the report should sit in the lowest band", func() {
			So(rep.OverallPercentage, ShouldEqual, 0)
			So(rep.OverallScore, ShouldEqual, 0)
			So(rep.MaturityLevel.Name, ShouldEqual, "Unaware")
			So(rep.NextLevel.Name, ShouldEqual, "Aware")
			So(len(rep.Dimensions), ShouldEqual, 5)
		})

		Convey("Then peer comparison should still be computed", func() {
			So(rep.PeerComparison, ShouldNotBeNil)
			So(rep.PeerComparison.Percentile, ShouldEqual, 0)
			So(rep.PeerComparison.IndustryAverage, ShouldEqual, 42)
		})

		Convey("Then every dimension should warn about missing evidence", func() {
			So(len(rep.Warnings), ShouldEqual, 5)
			for _, d := range rep.Dimensions {
				So(d.Gaps, ShouldResemble, []string{scoring.InsufficientEvidence})
				So(d.Confidence, ShouldEqual, 0)
			}
		})

		Convey("Then only playbook recommendations should be produced", func() {
			So(rep.Recommendations.Count(model.SourcePlaybook), ShouldEqual, 0)
			So(len(rep.Recommendations.LongTerm), ShouldBeGreaterThan, 0)
		})
	})

	Convey("Scenario B: perception far above evidence", t, func() {
		b, err := report.NewBuilder(report.WithClock(fixedClock))
		So(err, ShouldBeNil)
		set, err := evidence.FromItems([]model.EvidenceItem{{
			Dimension: model.DimensionLeadership, Statement: "Roadmap approved", Polarity: model.PolaritySupporting, SourceID: "board-minutes", Weight: 0.3,
		}})
		So(err, ShouldBeNil)

		rep, err := b.Build(ctx, report.Input{
			Subject:   subject(),
			Evidence:  set,
			Perceived: map[model.DimensionID]float64{model.DimensionLeadership: 8},
		})
		So(err, ShouldBeNil)

		Convey("Then the gap should be high priority", func() {
			So(len(rep.GapAnalysis.Records), ShouldEqual, 1)
			rec := rep.GapAnalysis.Records[0]
			So(rec.EvidenceScore, ShouldAlmostEqual, 3, 1e-9)
			So(rec.Gap, ShouldAlmostEqual, 5, 1e-9)
			So(rec.Priority, ShouldEqual, model.PriorityHigh)
		})

		Convey("Then exactly one immediate recommendation should reference leadership", func() {
			So(len(rep.Recommendations.Immediate), ShouldEqual, 1)
			So(*rep.Recommendations.Immediate[0].RelatedDimension, ShouldEqual, model.DimensionLeadership)
		})

		Convey("Then a missing benchmark should be a warning, not an error", func() {
			So(rep.PeerComparison, ShouldBeNil)
			So(rep.Warnings[len(rep.Warnings)-1].Kind, ShouldEqual, model.WarningMissingBenchmark)
		})
	})

	Convey("Scenario C: aggregate of 55", t, func() {
		b, err := report.NewBuilder(report.WithClock(fixedClock), report.WithScorer(fixedScorer{score: 55}))
		So(err, ShouldBeNil)

		rep, err := b.Build(ctx, report.Input{Subject: subject()})
		So(err, ShouldBeNil)

		Convey("Then the level should be Scaling with six points to go", func() {
			So(rep.OverallPercentage, ShouldAlmostEqual, 55, 1e-9)
			So(rep.OverallScore, ShouldAlmostEqual, 5.5, 1e-9)
			So(rep.MaturityLevel.Name, ShouldEqual, "Scaling")
			So(rep.GapAnalysis.PointsToNextLevel, ShouldAlmostEqual, 6, 1e-9)
			So(rep.GapAnalysis.PercentageToNextLevel, ShouldAlmostEqual, 100.0*4/9, 1e-9)
		})
	})
}

func TestBuilderInvariants(t *testing.T) {
	ctx := context.Background()

	Convey("Given a builder and mixed input", t, func() {
		b, err := report.NewBuilder(report.WithClock(fixedClock))
		So(err, ShouldBeNil)

		items := []model.EvidenceItem{
			{Dimension: model.DimensionIndividual, Statement: "Daily copilot use", Polarity: model.PolaritySupporting, SourceID: "survey", Weight: 0.6},
			{Dimension: model.DimensionCultural, Statement: "Fear of replacement", Polarity: model.PolarityContradicting, SourceID: "interview-3", Weight: 0.2},
			{Dimension: model.DimensionCultural, Statement: "Hackathon attendance", Polarity: model.PolaritySupporting, SourceID: "hr", Weight: 0.7},
			{Dimension: model.DimensionVelocity, Statement: "Two-week pilots", Polarity: model.PolaritySupporting, SourceID: "pmo", Weight: 0.4},
		}
		quotes := []model.Quote{
			{Quote: "I worry about my job", Sentiment: -0.7, Theme: "Job security", IntervieweeID: "a"},
			{Quote: "Nobody explains the plan", Sentiment: -0.5, Theme: "job security", IntervieweeID: "b"},
			{Quote: "Tools are great", Sentiment: 0.8, Theme: "Tooling", IntervieweeID: "c"},
		}
		perceived := map[model.DimensionID]float64{model.DimensionIndividual: 9, model.DimensionCultural: 7}

		build := func(items []model.EvidenceItem, quotes []model.Quote) *model.Report {
			set, err := evidence.FromItems(items)
			So(err, ShouldBeNil)
			rep, err := b.Build(ctx, report.Input{Subject: subject(), Evidence: set, Perceived: perceived, Quotes: quotes, Benchmark: retail()})
			So(err, ShouldBeNil)
			return rep
		}

		Convey("Then weighted scores should sum to the aggregate", func() {
			rep := build(items, quotes)
			sum := 0.0
			for _, d := range rep.Dimensions {
				So(d.Score, ShouldBeBetweenOrEqual, 0, 100)
				So(d.WeightedScore, ShouldAlmostEqual, d.Score*d.Weight, 1e-9)
				sum += d.WeightedScore
			}
			So(rep.OverallPercentage, ShouldAlmostEqual, sum, 1e-9)
			So(rep.OverallPercentage, ShouldBeGreaterThanOrEqualTo, rep.MaturityLevel.MinScore)
		})

		Convey("Then the recommendation count invariant should hold", func() {
			rep := build(items, quotes)
			So(rep.Recommendations.Count(model.SourcePlaybook), ShouldEqual, len(rep.GapAnalysis.Records)+1)
			So(rep.Themes[0].Name, ShouldEqual, "Job security")
		})

		Convey("Then two builds of the same input should be byte-identical", func() {
			first, err := json.Marshal(build(items, quotes))
			So(err, ShouldBeNil)

			reversedItems := []model.EvidenceItem{items[3], items[2], items[1], items[0]}
			reversedQuotes := []model.Quote{quotes[2], quotes[1], quotes[0]}
			second, err := json.Marshal(build(reversedItems, reversedQuotes))
			So(err, ShouldBeNil)

			So(string(second), ShouldEqual, string(first))
		})

		Convey("Then builds at different times share an id", func() {
			early := build(items, quotes)
			later, err := report.NewBuilder(report.WithClock(func() time.Time { return fixedClock().Add(72 * time.Hour) }))
			So(err, ShouldBeNil)
			set, err := evidence.FromItems(items)
			So(err, ShouldBeNil)
			rep, err := later.Build(ctx, report.Input{Subject: subject(), Evidence: set, Perceived: perceived, Quotes: quotes, Benchmark: retail()})
			So(err, ShouldBeNil)

			So(rep.CompletedAt.Equal(early.CompletedAt), ShouldBeFalse)
			So(rep.ID, ShouldEqual, early.ID)
		})

		Convey("When evidence belongs to another dimension family", func() {
			set, _ := evidence.FromItems([]model.EvidenceItem{{
				Dimension: model.DimensionAIGovernance, Statement: "x", Polarity: model.PolaritySupporting, SourceID: "s", Weight: 0.5,
			}})
			_, err := b.Build(ctx, report.Input{Subject: subject(), Evidence: set})
			So(errors.Is(err, model.ErrConfiguration), ShouldBeTrue)
		})

		Convey("When a perceived score is out of range", func() {
			_, err := b.Build(ctx, report.Input{Subject: subject(), Perceived: map[model.DimensionID]float64{model.DimensionVelocity: 12}})
			So(errors.Is(err, model.ErrInvalidScoreRange), ShouldBeTrue)
		})

		Convey("When a quote sentiment is out of range", func() {
			_, err := b.Build(ctx, report.Input{Subject: subject(), Quotes: []model.Quote{{Quote: "x", Sentiment: -3, Theme: "t"}}})
			So(errors.Is(err, model.ErrInvalidScoreRange), ShouldBeTrue)
		})

		Convey("When the subject has no id", func() {
			_, err := b.Build(ctx, report.Input{})
			So(errors.Is(err, model.ErrInvalidEvidence), ShouldBeTrue)
		})

		Convey("When the context is cancelled", func() {
			cctx, cancel := context.WithCancel(ctx)
			cancel()
			_, err := b.Build(cctx, report.Input{Subject: subject()})
			So(errors.Is(err, context.Canceled), ShouldBeTrue)
		})
	})
}
