package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/SquizAI/humanGLue-brain-sub005/internal/adapters/http/api"
	service "github.com/SquizAI/humanGLue-brain-sub005/internal/app"
	"github.com/SquizAI/humanGLue-brain-sub005/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

const acmeDocument = `{
  "subject": {"id": "acme", "name": "Acme", "industry": "Retail", "sizeBand": "250-999"},
  "evidence": [
    {"dimension": "leadership", "statement": "CEO sponsors AI", "polarity": "supporting", "sourceId": "int-1", "weight": 0.4},
    {"dimension": "cultural", "statement": "Staff fear automation", "polarity": "contradicting", "sourceId": "int-2", "weight": 0.2}
  ],
  "quotes": [{"quote": "We worry about jobs", "sentiment": -0.6, "theme": "Job security", "intervieweeId": "p1"}],
  "perceptions": {"leadership": 9}
}`

const benchmarkConfig = `
benchmarks:
  - industry: Retail
    size_band: "250-999"
    mean: 41
    percentiles:
      - {percentile: 50, score: 40}
      - {percentile: 90, score: 72}
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func execute(args ...string) (string, error) {
	root := newRootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestBuildCommand(t *testing.T) {
	convey.Convey("Given a build document and a config with a matching benchmark", t, func() {
		dir := t.TempDir()
		doc := writeFile(t, dir, "acme.json", acmeDocument)
		cfg := writeFile(t, dir, "maturity.yaml", benchmarkConfig)

		convey.Convey("When building to stdout as JSON", func() {
			out, err := execute("build", "--config", cfg, doc)

			convey.Convey("Then the report uses the configured benchmark", func() {
				convey.So(err, convey.ShouldBeNil)
				var rep model.Report
				convey.So(json.Unmarshal([]byte(out), &rep), convey.ShouldBeNil)
				convey.So(rep.Subject.ID, convey.ShouldEqual, "acme")
				convey.So(rep.PeerComparison, convey.ShouldNotBeNil)
				convey.So(len(rep.GapAnalysis.Records), convey.ShouldEqual, 1)
			})
		})

		convey.Convey("When building markdown into a directory", func() {
			outDir := filepath.Join(dir, "reports")
			_, err := execute("build", "--config", cfg, "--format", "md", "--out", outDir, doc)

			convey.Convey("Then the report file is named after the subject", func() {
				convey.So(err, convey.ShouldBeNil)
				body, err := os.ReadFile(filepath.Join(outDir, "acme.md"))
				convey.So(err, convey.ShouldBeNil)
				convey.So(string(body), convey.ShouldContainSubstring, "# AI Maturity Assessment: Acme")
			})
		})

		convey.Convey("When several documents are built without --out", func() {
			_, err := execute("build", "--config", cfg, doc, doc)
			convey.So(err, convey.ShouldNotBeNil)
			convey.So(err.Error(), convey.ShouldContainSubstring, "--out")
		})

		convey.Convey("When the format is unknown", func() {
			_, err := execute("build", "--config", cfg, "--format", "pdf", doc)
			convey.So(err, convey.ShouldNotBeNil)
		})

		convey.Convey("When the document is malformed", func() {
			bad := writeFile(t, dir, "bad.json", `{"subject":{"id":"x"},"nope":true}`)
			_, err := execute("build", "--config", cfg, bad)
			convey.So(err, convey.ShouldNotBeNil)
			convey.So(err.Error(), convey.ShouldContainSubstring, "bad.json")
		})
	})
}

func TestRemoteCommands(t *testing.T) {
	convey.Convey("Given a running assessment API", t, func() {
		ctx := context.Background()
		svc := service.New(service.WithWorkerCount(1), service.WithQueueSize(8))
		convey.So(svc.Start(ctx), convey.ShouldBeNil)
		defer func() { _ = svc.Stop(ctx) }()
		srv := httptest.NewServer(api.NewServer(svc, svc, 100).Handler(ctx))
		defer srv.Close()

		doc := writeFile(t, t.TempDir(), "acme.json", acmeDocument)

		convey.Convey("When a document is submitted and exported", func() {
			out, err := execute("submit", "--url", srv.URL, doc)
			convey.So(err, convey.ShouldBeNil)
			convey.So(out, convey.ShouldContainSubstring, "acme")

			exported, err := execute("export", "--url", srv.URL, "--format", "markdown", "acme")

			convey.Convey("Then the stored report is returned", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(exported, convey.ShouldContainSubstring, "# AI Maturity Assessment: Acme")
			})
		})

		convey.Convey("When results are requested as JSON", func() {
			out, err := execute("submit", "--url", srv.URL, "--json", doc)
			convey.So(err, convey.ShouldBeNil)
			convey.So(strings.TrimSpace(out), convey.ShouldStartWith, "[")
		})

		convey.Convey("When exporting an unknown subject", func() {
			_, err := execute("export", "--url", srv.URL, "ghost")
			convey.So(err, convey.ShouldNotBeNil)
		})
	})
}
