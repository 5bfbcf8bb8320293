// Package worker builds assessment reports for queued jobs.
package worker

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/SquizAI/humanGLue-brain-sub005/internal/adapters/mq/queue"
	"github.com/SquizAI/humanGLue-brain-sub005/internal/domain/model"
	"github.com/SquizAI/humanGLue-brain-sub005/pkg/logger"
	"github.com/SquizAI/humanGLue-brain-sub005/pkg/metrics"
)

const poolShutdownTimeout = 30 * time.Second

// Builder produces the report of a subject from its current intake.
type Builder interface {
	BuildFor(ctx context.Context, subjectID string) (*model.Report, error)
}

// Saver persists built reports.
type Saver interface {
	Save(ctx context.Context, rep *model.Report) error
}

// Queue defines how workers receive jobs.
type Queue interface {
	Dequeue(ctx context.Context) <-chan queue.Job
}

// Worker processes jobs until its queue drains or ctx ends.
type Worker interface {
	Run(ctx context.Context)
	Shutdown(ctx context.Context) error
}

type noopTracker struct{}

func (noopTracker) Running(string)       {}
func (noopTracker) Done(string, string)  {}
func (noopTracker) Failed(string, error) {}

// InMemoryWorker implements Worker.
type InMemoryWorker struct {
	queue   Queue
	builder Builder
	saver   Saver
	tracker Tracker
	name    string
	active  *atomic.Int64

	shutdown     chan struct{}
	shutdownOnce sync.Once
	done         chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a worker with configuration options.
func NewInMemoryWorker(q Queue, builder Builder, saver Saver, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:    q,
		builder:  builder,
		saver:    saver,
		tracker:  noopTracker{},
		name:     "worker",
		active:   new(atomic.Int64),
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logger.Get().Named("worker"),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.logger = w.logger.With(logger.String("worker", w.name))
	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	jobs := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case j, ok := <-jobs:
			if !ok {
				return
			}
			if err := w.process(ctx, j); err != nil {
				w.logger.Error(ctx, "assessment job failed",
					logger.String("job_id", j.ID),
					logger.String("subject_id", j.SubjectID),
					logger.Error(err),
				)
			}
		}
	}
}

// Shutdown stops the worker after its current job.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	w.shutdownOnce.Do(func() { close(w.shutdown) })
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

func (w *InMemoryWorker) process(ctx context.Context, j queue.Job) error {
	start := time.Now()
	w.active.Add(1)
	defer func() {
		w.active.Add(-1)
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Milliseconds()))
	}()

	w.tracker.Running(j.ID)

	rep, err := w.builder.BuildFor(ctx, j.SubjectID)
	if err != nil {
		w.fail(j, "build_failed", err)
		metrics.RecordReportFailed(failureReason(err))
		return fmt.Errorf("build report for %s: %w", j.SubjectID, err)
	}
	if err := w.saver.Save(ctx, rep); err != nil {
		w.fail(j, "save_failed", err)
		return fmt.Errorf("save report %s: %w", rep.ID, err)
	}

	w.tracker.Done(j.ID, rep.ID)
	w.logger.Debug(ctx, "assessment job done",
		logger.String("job_id", j.ID),
		logger.String("report_id", rep.ID),
		logger.String("level", rep.MaturityLevel.Name),
	)
	return nil
}

func (w *InMemoryWorker) fail(j queue.Job, kind string, err error) {
	w.tracker.Failed(j.ID, err)
	metrics.RecordWorkerError()
	metrics.RecordErrorByComponent("worker", kind)
}

// failureReason maps build errors onto the reports_failed label set.
func failureReason(err error) string {
	switch {
	case errors.Is(err, model.ErrConfiguration):
		return "configuration"
	case errors.Is(err, model.ErrInvalidScoreRange):
		return "invalid_score_range"
	case errors.Is(err, model.ErrInvalidEvidence):
		return "invalid_evidence"
	case errors.Is(err, model.ErrNotFound):
		return "not_found"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	default:
		return "internal"
	}
}

// Pool manages multiple workers sharing one queue.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue
	active  *atomic.Int64

	cancel   context.CancelFunc
	shutdown chan struct{}
	wg       sync.WaitGroup

	logger logger.Logger
}

// NewPool creates workerCount workers. Options apply to every worker.
func NewPool(workerCount int, q Queue, builder Builder, saver Saver, opts ...Option) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU()
	}
	p := &Pool{
		workers:  make([]*InMemoryWorker, workerCount),
		queue:    q,
		active:   new(atomic.Int64),
		shutdown: make(chan struct{}),
		logger:   logger.Get().Named("worker-pool"),
	}
	for i := range p.workers {
		wopts := append([]Option{}, opts...)
		wopts = append(wopts, WithName("worker-"+strconv.Itoa(i)))
		w := NewInMemoryWorker(q, builder, saver, wopts...)
		w.active = p.active
		p.workers[i] = w
	}

	metrics.UpdateWorkerCount(workerCount)
	metrics.UpdateWorkerActiveCount(0)
	metrics.UpdateWorkerIdleCount(workerCount)
	return p
}

// Size returns the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Active returns the number of workers currently building a report.
func (p *Pool) Active() int { return int(p.active.Load()) }

// Start runs every worker until ctx ends or Shutdown is called.
func (p *Pool) Start(ctx context.Context) {
	runCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	for _, w := range p.workers {
		p.wg.Add(1)
		go func(w *InMemoryWorker) {
			defer p.wg.Done()
			w.Run(runCtx)
		}(w)
	}
	go p.startMetricsUpdater(runCtx)
}

func (p *Pool) startMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-p.shutdown:
			return
		case <-ticker.C:
			active := p.Active()
			metrics.UpdateWorkerActiveCount(active)
			metrics.UpdateWorkerIdleCount(len(p.workers) - active)
		}
	}
}

// Shutdown closes the queue and lets workers drain pending jobs. Workers
// still running when ctx (or the pool timeout) expires are cancelled.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}
	close(p.shutdown)

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	var err error
	select {
	case <-done:
	case <-shutdownCtx.Done():
		p.logger.Warn(ctx, "worker pool shutdown timed out")
		err = fmt.Errorf("worker pool shutdown: %w", shutdownCtx.Err())
	}
	if p.cancel != nil {
		p.cancel()
	}
	return err
}
