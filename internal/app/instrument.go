package service

import (
	"context"
	"time"

	"github.com/SquizAI/humanGLue-brain-sub005/internal/domain/model"
	"github.com/SquizAI/humanGLue-brain-sub005/internal/domain/scoring"
	"github.com/SquizAI/humanGLue-brain-sub005/pkg/metrics"
)

// instrumentedScorer records per-dimension metrics around another Scorer.
type instrumentedScorer struct {
	next scoring.Scorer
}

// InstrumentScorer wraps s so each dimension score is timed and
// insufficient evidence is counted.
func InstrumentScorer(s scoring.Scorer) scoring.Scorer {
	if s == nil {
		return nil
	}
	if _, ok := s.(instrumentedScorer); ok {
		return s
	}
	return instrumentedScorer{next: s}
}

func (i instrumentedScorer) Score(ctx context.Context, in scoring.Input) (scoring.Result, error) {
	start := time.Now()
	res, err := i.next.Score(ctx, in)
	metrics.RecordDimensionScored(in.Dimension.String(), float64(time.Since(start).Microseconds())/1000)
	if err != nil {
		return res, err
	}
	for _, w := range res.Warnings {
		if w.Kind == model.WarningInsufficientEvidence {
			metrics.RecordInsufficientEvidence(in.Dimension.String())
		}
	}
	return res, nil
}
