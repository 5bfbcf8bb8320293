package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	app "github.com/SquizAI/humanGLue-brain-sub005/internal/app"
	"github.com/SquizAI/humanGLue-brain-sub005/internal/config"
	"github.com/SquizAI/humanGLue-brain-sub005/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func TestMainConfiguration(t *testing.T) {
	convey.Convey("Given the main application", t, func() {
		convey.Convey("When configuration comes from the environment", func() {
			t.Setenv("MATURITY_ADDR", ":8080")
			t.Setenv("MATURITY_QUEUE_SIZE", "1000")
			t.Setenv("MATURITY_WORKER_COUNT", "4")

			cfg, err := config.Load(context.Background())

			convey.Convey("Then it should be loadable", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.QueueSize, convey.ShouldEqual, 1000)
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 4)
			})

			convey.Convey("Then service options should be derivable", func() {
				opts, err := app.OptionsFromConfig(cfg)
				convey.So(err, convey.ShouldBeNil)
				convey.So(app.New(opts...), convey.ShouldNotBeNil)
			})
		})

		convey.Convey("When configuration is invalid", func() {
			t.Setenv("MATURITY_WORKER_COUNT", "0")

			cfg, err := config.Load(context.Background())

			convey.Convey("Then loading should fail", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})
	})
}

func TestMainRouter(t *testing.T) {
	convey.Convey("Given a router over a started service", t, func() {
		ctx := context.Background()
		svc := app.New(app.WithWorkerCount(1), app.WithQueueSize(8))
		convey.So(svc.Start(ctx), convey.ShouldBeNil)
		defer func() { _ = svc.Stop(ctx) }()

		h := newRouter(ctx, svc, 50)
		get := func(path string) *httptest.ResponseRecorder {
			w := httptest.NewRecorder()
			h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, http.NoBody))
			return w
		}

		convey.Convey("Then docs and operational routes should answer", func() {
			convey.So(get("/openapi.yaml").Code, convey.ShouldEqual, http.StatusOK)
			convey.So(get("/api-docs").Code, convey.ShouldEqual, http.StatusOK)
			convey.So(get("/healthz").Code, convey.ShouldEqual, http.StatusOK)
			convey.So(get("/stats").Code, convey.ShouldEqual, http.StatusOK)
		})

		convey.Convey("Then an assessment should build end to end", func() {
			w := httptest.NewRecorder()
			h.ServeHTTP(w, httptest.NewRequest(http.MethodPut, "/organizations/acme", strings.NewReader(`{"name":"Acme"}`)))
			convey.So(w.Code, convey.ShouldEqual, http.StatusOK)

			w = httptest.NewRecorder()
			h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/organizations/acme/assessments?sync=true", http.NoBody))
			convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
			convey.So(get("/rank/acme").Code, convey.ShouldEqual, http.StatusOK)
		})

		convey.Convey("Then the metrics updaters should run without panicking", func() {
			tick, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
			defer cancel()
			convey.So(func() {
				startSystemMetricsUpdater(tick)
				startServiceMetricsUpdater(tick, svc)
				updateSystemMetrics()
				updateServiceMetrics(svc)
			}, convey.ShouldNotPanic)
		})
	})
}
