package theme_test

import (
	"context"
	"errors"
	"testing"

	"github.com/SquizAI/humanGLue-brain-sub005/internal/domain/model"
	"github.com/SquizAI/humanGLue-brain-sub005/internal/domain/theme"
	. "github.com/smartystreets/goconvey/convey"
)

func q(text string, sentiment float64, label, who string) model.Quote {
	return model.Quote{Quote: text, Sentiment: sentiment, Theme: label, IntervieweeID: who}
}

func TestAggregate(t *testing.T) {
	ctx := context.Background()

	Convey("Given quotes from several interviewees", t, func() {
		a := theme.NewAggregator()
		quotes := []model.Quote{
			q("We have no idea who owns AI", -0.8, "Unclear  ownership", "alice"),
			q("Nobody owns it", -0.6, "unclear ownership", "bob"),
			q("Ownership is murky", -0.4, " Unclear ownership ", "alice"),
			q("Nobody owns it", -0.6, "Unclear ownership", "carol"),
			q("Copilot saves me hours", 0.9, "Tool enthusiasm", "dave"),
			q("", 0.1, "   ", "erin"),
		}

		Convey("When aggregating", func() {
			themes, err := a.Aggregate(ctx, quotes)

			Convey("Then label variants should merge case-insensitively", func() {
				So(err, ShouldBeNil)
				So(len(themes), ShouldEqual, 2)
				So(themes[0].Name, ShouldEqual, "Unclear ownership")
				So(themes[0].Frequency, ShouldEqual, 3)
				So(themes[0].IntervieweeIDs, ShouldResemble, []string{"alice", "bob", "carol"})
				So(themes[0].Sentiment, ShouldAlmostEqual, -0.6, 1e-9)
			})

			Convey("Then representative quotes should be distinct and strongest first", func() {
				So(themes[0].Quotes, ShouldResemble, []string{
					"We have no idea who owns AI",
					"Nobody owns it",
					"Ownership is murky",
				})
			})

			Convey("Then less frequent themes should follow", func() {
				So(themes[1].Name, ShouldEqual, "Tool enthusiasm")
				So(themes[1].Frequency, ShouldEqual, 1)
			})
		})

		Convey("When the quote order is shuffled", func() {
			first, err1 := a.Aggregate(ctx, quotes)
			reversed := make([]model.Quote, len(quotes))
			for i := range quotes {
				reversed[len(quotes)-1-i] = quotes[i]
			}
			second, err2 := a.Aggregate(ctx, reversed)

			Convey("Then the result should be identical", func() {
				So(err1, ShouldBeNil)
				So(err2, ShouldBeNil)
				So(second, ShouldResemble, first)
			})
		})
	})

	Convey("Given quotes without interviewee ids", t, func() {
		themes, err := theme.NewAggregator(theme.WithMaxQuotes(1)).Aggregate(ctx, []model.Quote{
			q("a", 0.2, "Data quality", ""),
			q("b", -0.5, "Data quality", ""),
		})

		Convey("Then they should count as one anonymous respondent", func() {
			So(err, ShouldBeNil)
			So(themes[0].Frequency, ShouldEqual, 1)
			So(themes[0].Quotes, ShouldResemble, []string{"b"})
		})
	})

	Convey("Given themes with equal frequency", t, func() {
		themes, err := theme.NewAggregator().Aggregate(ctx, []model.Quote{
			q("x", 0.1, "Beta", "a"),
			q("y", 0.1, "Alpha", "a"),
			q("z", -0.7, "Gamma", "a"),
		})

		Convey("Then stronger sentiment and then name should order them", func() {
			So(err, ShouldBeNil)
			So(themes[0].Name, ShouldEqual, "Gamma")
			So(themes[1].Name, ShouldEqual, "Alpha")
			So(themes[2].Name, ShouldEqual, "Beta")
		})
	})

	Convey("Given a sentiment outside [-1,1]", t, func() {
		_, err := theme.NewAggregator().Aggregate(ctx, []model.Quote{q("x", 1.5, "T", "a")})
		So(errors.Is(err, model.ErrInvalidScoreRange), ShouldBeTrue)
	})

	Convey("Given no quotes", t, func() {
		themes, err := theme.NewAggregator().Aggregate(ctx, nil)
		So(err, ShouldBeNil)
		So(themes, ShouldBeEmpty)
	})

	Convey("Given label normalization", t, func() {
		So(theme.Normalize("  Change \t fatigue \n"), ShouldEqual, "Change fatigue")
	})
}
