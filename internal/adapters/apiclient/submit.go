package apiclient

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/SquizAI/humanGLue-brain-sub005/internal/domain/evidence"
	"github.com/SquizAI/humanGLue-brain-sub005/internal/domain/report"
	"github.com/SquizAI/humanGLue-brain-sub005/pkg/logger"
)

// Result summarizes the submission of one build document.
type Result struct {
	SubjectID string             `json:"subjectId"`
	Evidence  evidence.AddResult `json:"evidence"`
	Quotes    int                `json:"quotes"`
	JobID     string             `json:"jobId"`
	ReportID  string             `json:"reportId"`
	Error     string             `json:"error,omitempty"`
}

// Submit pushes one document through the intake endpoints, queues its
// build and waits for the job to finish.
func (c *Client) Submit(ctx context.Context, doc report.Document) (Result, error) {
	res := Result{SubjectID: doc.Subject.ID}
	if _, err := c.PutProfile(ctx, doc.Subject); err != nil {
		return res, fmt.Errorf("profile %s: %w", doc.Subject.ID, err)
	}
	if doc.Benchmark != nil {
		if err := c.PutBenchmark(ctx, *doc.Benchmark); err != nil {
			return res, fmt.Errorf("benchmark %s/%s: %w", doc.Benchmark.Industry, doc.Benchmark.SizeBand, err)
		}
	}

	var err error
	if len(doc.Evidence) > 0 {
		if res.Evidence, err = c.AddEvidence(ctx, doc.Subject.ID, doc.Evidence); err != nil {
			return res, fmt.Errorf("evidence %s: %w", doc.Subject.ID, err)
		}
	}
	if len(doc.Quotes) > 0 {
		if res.Quotes, err = c.AddQuotes(ctx, doc.Subject.ID, doc.Quotes); err != nil {
			return res, fmt.Errorf("quotes %s: %w", doc.Subject.ID, err)
		}
	}
	if len(doc.Perceptions) > 0 {
		if err := c.SetPerceptions(ctx, doc.Subject.ID, doc.Perceptions); err != nil {
			return res, fmt.Errorf("perceptions %s: %w", doc.Subject.ID, err)
		}
	}

	if res.JobID, err = c.RequestAssessment(ctx, doc.Subject.ID); err != nil {
		return res, fmt.Errorf("assessment %s: %w", doc.Subject.ID, err)
	}
	st, err := c.WaitJob(ctx, res.JobID)
	if err != nil {
		return res, fmt.Errorf("job %s: %w", res.JobID, err)
	}
	res.ReportID = st.ReportID
	return res, nil
}

// SubmitAll submits docs with at most workers concurrent submissions.
// Every document is attempted; per-document failures are recorded in the
// results and the first one is returned.
func (c *Client) SubmitAll(ctx context.Context, docs []report.Document, workers int) ([]Result, error) {
	if workers <= 0 {
		workers = 1
	}
	results := make([]Result, len(docs))

	var (
		mu       sync.Mutex
		firstErr error
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, doc := range docs {
		g.Go(func() error {
			res, err := c.Submit(gctx, doc)
			if err != nil {
				res.Error = err.Error()
				c.logger.Warn(gctx, "submission failed", logger.String("subject_id", doc.Subject.ID), logger.Error(err))
				mu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
			}
			results[i] = res
			return nil
		})
	}
	_ = g.Wait()
	return results, firstErr
}
