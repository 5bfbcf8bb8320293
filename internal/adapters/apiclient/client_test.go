package apiclient_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SquizAI/humanGLue-brain-sub005/internal/adapters/apiclient"
	"github.com/SquizAI/humanGLue-brain-sub005/internal/adapters/http/api"
	service "github.com/SquizAI/humanGLue-brain-sub005/internal/app"
	"github.com/SquizAI/humanGLue-brain-sub005/internal/domain/model"
	"github.com/SquizAI/humanGLue-brain-sub005/internal/domain/report"
	"github.com/SquizAI/humanGLue-brain-sub005/internal/render"
	"github.com/SquizAI/humanGLue-brain-sub005/pkg/logger"
)

func init() {
	_ = logger.Init()
}

func newClient(t *testing.T) *apiclient.Client {
	t.Helper()
	svc := service.New(service.WithWorkerCount(2), service.WithQueueSize(16))
	require.NoError(t, svc.Start(context.Background()))
	t.Cleanup(func() { _ = svc.Stop(context.Background()) })

	srv := httptest.NewServer(api.NewServer(svc, svc, 100).Handler(context.Background()))
	t.Cleanup(srv.Close)

	c, err := apiclient.New(srv.URL+"/", apiclient.WithPollInterval(5*time.Millisecond))
	require.NoError(t, err)
	return c
}

func document(id string, perceived float64) report.Document {
	return report.Document{
		Subject: model.Subject{ID: id, Name: id, Industry: "Retail", SizeBand: "250-999"},
		Evidence: []model.EvidenceItem{
			{Dimension: model.DimensionLeadership, Statement: "CEO sponsors AI", Polarity: model.PolaritySupporting, SourceID: "int-1", Weight: 0.4},
			{Dimension: model.DimensionCultural, Statement: "Teams fear automation", Polarity: model.PolarityContradicting, SourceID: "int-2", Weight: 0.2},
		},
		Quotes: []model.Quote{
			{Quote: "We worry about jobs", Sentiment: -0.6, Theme: "Job security", IntervieweeID: "p1"},
		},
		Perceptions: map[model.DimensionID]float64{model.DimensionLeadership: perceived},
		Benchmark: &model.Distribution{Industry: "Retail", SizeBand: "250-999", Mean: model.MeanOf(41), Percentiles: []model.PercentileAnchor{
			{Percentile: 50, Score: 40}, {Percentile: 90, Score: 72},
		}},
	}
}

func TestClient_New(t *testing.T) {
	for _, bad := range []string{"", "ftp://x", "http://"} {
		_, err := apiclient.New(bad)
		assert.Error(t, err, bad)
	}
}

func TestClient_Submit(t *testing.T) {
	c := newClient(t)
	ctx := context.Background()

	res, err := c.Submit(ctx, document("acme", 9))
	require.NoError(t, err)
	assert.Equal(t, 2, res.Evidence.Accepted)
	assert.Equal(t, 1, res.Quotes)
	assert.NotEmpty(t, res.JobID)
	assert.NotEmpty(t, res.ReportID)

	md, err := c.Report(ctx, "acme", render.FormatMarkdown)
	require.NoError(t, err)
	assert.Contains(t, string(md), "## Perception gaps")
	assert.Contains(t, string(md), "## Peer comparison")

	// The same batch carries the same Idempotency-Key and is not reprocessed.
	again, err := c.AddEvidence(ctx, "acme", document("acme", 9).Evidence)
	require.NoError(t, err)
	assert.Equal(t, 0, again.Accepted)
}

func TestClient_SubmitAll(t *testing.T) {
	c := newClient(t)
	docs := []report.Document{document("org-1", 6), document("org-2", 7), document("org-3", 8)}

	results, err := c.SubmitAll(context.Background(), docs, 2)
	require.NoError(t, err)
	require.Len(t, results, 3)
	for i, r := range results {
		assert.Equal(t, docs[i].Subject.ID, r.SubjectID)
		assert.Empty(t, r.Error)
		assert.NotEmpty(t, r.ReportID)
	}
}

func TestClient_Errors(t *testing.T) {
	c := newClient(t)
	ctx := context.Background()

	_, err := c.Report(ctx, "ghost", render.FormatJSON)
	var apiErr *apiclient.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
	assert.Equal(t, "not_found", apiErr.Code)

	bad := document("acme", 42)
	results, err := c.SubmitAll(ctx, []report.Document{bad}, 1)
	require.Error(t, err)
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "invalid_score_range", apiErr.Code)
	assert.NotEmpty(t, results[0].Error)
	assert.False(t, apiErr.Backpressure())
}
