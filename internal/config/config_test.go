package config_test

import (
	"context"
	"errors"
	"testing"

	"github.com/SquizAI/humanGLue-brain-sub005/internal/config"
	"github.com/SquizAI/humanGLue-brain-sub005/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with defaults", t, func() {
		cfg := config.New(context.Background())

		convey.Convey("Then it should validate", func() {
			convey.So(cfg.Validate(), convey.ShouldBeNil)
			convey.So(cfg.PerceptionScale, convey.ShouldEqual, 10)
			convey.So(cfg.GapHighThreshold, convey.ShouldEqual, 3)
			convey.So(cfg.GapMediumThreshold, convey.ShouldEqual, 2)
		})

		convey.Convey("Then default weights should come from the dimension set", func() {
			set, weights, err := cfg.DimensionWeights()
			convey.So(err, convey.ShouldBeNil)
			convey.So(set, convey.ShouldEqual, model.SetCore5)
			convey.So(weights[model.DimensionIndividual], convey.ShouldEqual, 0.25)
		})
	})
}

func TestConfig_Validate(t *testing.T) {
	convey.Convey("Given configs with invalid fields", t, func() {
		cases := map[string]func(*config.Config){
			"empty addr":          func(c *config.Config) { c.Addr = "" },
			"zero workers":        func(c *config.Config) { c.WorkerCount = 0 },
			"bad log format":      func(c *config.Config) { c.LogFormat = "xml" },
			"unknown set":         func(c *config.Config) { c.DimensionSet = "core7" },
			"unknown weight key":  func(c *config.Config) { c.Weights = map[string]float64{"vibes": 1} },
			"inverted thresholds": func(c *config.Config) { c.GapHighThreshold = 1 },
			"sqlite without path": func(c *config.Config) { c.StoreDriver = config.StoreSQLite; c.StorePath = "" },
			"negative retries":    func(c *config.Config) { c.SourceRetries = -1 },
		"unsorted buckets":    func(c *config.Config) { c.MetricsBucketsMS = []float64{10, 5} },
		}

		for name, mutate := range cases {
			convey.Convey("Then "+name+" should be rejected", func() {
				cfg := config.New(context.Background())
				mutate(cfg)
				convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		}
	})

	convey.Convey("Given per-dimension evidence overrides", t, func() {
		cfg := config.New(context.Background())
		cfg.ExpectedEvidenceByDimension = map[string]int{"Leadership": 8}

		convey.Convey("Then they should parse into typed ids", func() {
			out, err := cfg.ExpectedEvidenceOverrides()
			convey.So(err, convey.ShouldBeNil)
			convey.So(out[model.DimensionLeadership], convey.ShouldEqual, 8)
		})
	})
}
