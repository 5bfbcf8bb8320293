// Package service provides the assessment service behind the HTTP API, the
// CLI and the MCP tool: intake, report building, job dispatch and ranking.
package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/SquizAI/humanGLue-brain-sub005/internal/adapters/mq/queue"
	"github.com/SquizAI/humanGLue-brain-sub005/internal/adapters/mq/worker"
	"github.com/SquizAI/humanGLue-brain-sub005/internal/adapters/repository"
	"github.com/SquizAI/humanGLue-brain-sub005/internal/adapters/source"
	"github.com/SquizAI/humanGLue-brain-sub005/internal/domain/benchmark"
	"github.com/SquizAI/humanGLue-brain-sub005/internal/domain/dedupe"
	"github.com/SquizAI/humanGLue-brain-sub005/internal/domain/evidence"
	"github.com/SquizAI/humanGLue-brain-sub005/internal/domain/model"
	"github.com/SquizAI/humanGLue-brain-sub005/internal/domain/report"
	"github.com/SquizAI/humanGLue-brain-sub005/internal/domain/scoring"
	"github.com/SquizAI/humanGLue-brain-sub005/pkg/logger"
	"github.com/SquizAI/humanGLue-brain-sub005/pkg/metrics"
)

// Source is the upstream extraction/storage service.
type Source interface {
	Evidence(ctx context.Context, orgID string) ([]model.EvidenceItem, error)
	Quotes(ctx context.Context, orgID string) ([]model.Quote, error)
	Benchmark(ctx context.Context, industry, sizeBand string) (*model.Distribution, error)
}

// SyncResult summarizes one pull from the upstream source.
type SyncResult struct {
	Evidence  evidence.AddResult `json:"evidence"`
	Quotes    int                `json:"quotes"`
	Benchmark bool               `json:"benchmark"`
}

// subjectIntake holds everything collected for one subject besides evidence.
type subjectIntake struct {
	profile     *model.Subject
	quotes      []model.Quote
	quoteIDs    dedupe.Deduper
	perceptions map[model.DimensionID]float64
}

// Service implements the API dependencies for the assessment system.
type Service struct {
	mu sync.RWMutex

	// Intake
	intakeMu   sync.RWMutex
	intake     map[string]*subjectIntake
	evidence   *evidence.Store
	benchmarks *benchmark.Registry

	// Core components
	builder     *report.Builder
	store       repository.Store
	idempotency dedupe.Deduper
	jobQueue    queue.Queue
	workerPool  *worker.Pool
	jobs        *worker.StatusBoard
	source      Source

	// Configuration
	workerCount  int
	queueSize    int
	dedupeSize   int
	storeDriver  string
	storePath    string
	builderOpts  []report.Option
	seedBench    []model.Distribution
	injectedRepo repository.Store

	// State
	started bool
	cancel  context.CancelFunc

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of report-building workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum number of pending assessment jobs.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize bounds the Idempotency-Key cache.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithStore selects the repository driver and its path.
func WithStore(driver, path string) Option {
	return func(s *Service) {
		s.storeDriver = driver
		s.storePath = path
	}
}

// WithRepository injects a ready repository. It is closed by Stop.
func WithRepository(r repository.Store) Option {
	return func(s *Service) {
		s.injectedRepo = r
	}
}

// WithBuilderOptions configures the report builder.
func WithBuilderOptions(opts ...report.Option) Option {
	return func(s *Service) {
		s.builderOpts = append(s.builderOpts, opts...)
	}
}

// WithBenchmarks seeds the benchmark registry.
func WithBenchmarks(dists ...model.Distribution) Option {
	return func(s *Service) {
		s.seedBench = append(s.seedBench, dists...)
	}
}

// WithSource enables Sync against an upstream service.
func WithSource(src Source) Option {
	return func(s *Service) {
		s.source = src
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		intake:      make(map[string]*subjectIntake),
		evidence:    evidence.NewStore(),
		workerCount: runtime.NumCPU(),
		queueSize:   1_000,
		dedupeSize:  50_000,
		storeDriver: repository.DriverMemory,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start validates the builder configuration and starts the components.
// Configuration problems surface here as model.ErrConfiguration.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	s.logger.Info(ctx, "starting assessment service...")

	bopts := append([]report.Option{report.WithScorer(InstrumentScorer(scoring.NewEvidenceScorer()))}, s.builderOpts...)
	builder, err := report.NewBuilder(bopts...)
	if err != nil {
		return fmt.Errorf("report builder: %w", err)
	}
	registry, err := benchmark.NewRegistry(s.seedBench...)
	if err != nil {
		return fmt.Errorf("benchmarks: %w", err)
	}

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	store := s.injectedRepo
	if store == nil {
		if store, err = repository.Open(runCtx, s.storeDriver, s.storePath); err != nil {
			cancel()
			return fmt.Errorf("repository: %w", err)
		}
	}

	s.builder = builder
	s.benchmarks = registry
	s.store = store
	s.cancel = cancel
	s.idempotency = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	s.jobs = worker.NewStatusBoard(0)
	s.jobQueue = queue.NewInMemoryQueue(queue.WithCapacity(s.queueSize))
	s.workerPool = worker.NewPool(s.workerCount, s.jobQueue, drainBuilder{s: s}, s.store, worker.WithTracker(s.jobs))
	s.workerPool.Start(runCtx)

	s.started = true
	s.logger.Info(ctx, "assessment service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Int("dedupeSize", s.dedupeSize),
		logger.String("dimensionSet", string(builder.DimensionSet())),
		logger.String("store", s.storeDriver),
		logger.Int("benchmarks", registry.Len()),
	)
	return nil
}

// Stop drains pending jobs and closes the repository. New requests are
// refused with ErrNotStarted while queued jobs finish.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return nil
	}
	pool, cancel, store := s.workerPool, s.cancel, s.store
	s.started = false
	s.mu.Unlock()

	s.logger.Info(ctx, "stopping assessment service...")
	var errs []error
	if err := pool.Shutdown(ctx); err != nil {
		errs = append(errs, err)
	}
	cancel()
	if err := store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close repository: %w", err))
	}
	s.logger.Info(ctx, "assessment service stopped")
	return errors.Join(errs...)
}

// running returns the started components or ErrNotStarted.
func (s *Service) running() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return ErrNotStarted
	}
	return nil
}

// SeenAndRecord atomically checks an idempotency key and records it if new.
func (s *Service) SeenAndRecord(ctx context.Context, key string) bool {
	if s.idempotency == nil {
		return false
	}
	return s.idempotency.SeenAndRecord(ctx, key)
}

// Unrecord forgets an idempotency key so a failed request can be retried.
func (s *Service) Unrecord(ctx context.Context, key string) {
	if s.idempotency != nil {
		s.idempotency.Unrecord(ctx, key)
	}
}

func (s *Service) subject(id string) *subjectIntake {
	in, ok := s.intake[id]
	if !ok {
		in = &subjectIntake{quoteIDs: dedupe.NewInMemoryDeduper()}
		s.intake[id] = in
		metrics.UpdateSubjectsTotal(len(s.intake))
	}
	return in
}

// PutProfile creates or replaces a subject profile.
func (s *Service) PutProfile(ctx context.Context, subj model.Subject) (model.Subject, error) {
	subj.ID = strings.TrimSpace(subj.ID)
	if subj.ID == "" {
		return model.Subject{}, fmt.Errorf("%w: empty subject id", model.ErrInvalidEvidence)
	}
	switch subj.Kind {
	case "":
		subj.Kind = model.SubjectOrganization
	case model.SubjectOrganization, model.SubjectIndividual:
	default:
		return model.Subject{}, fmt.Errorf("%w: unknown subject kind %q", model.ErrInvalidEvidence, subj.Kind)
	}

	s.intakeMu.Lock()
	defer s.intakeMu.Unlock()
	p := subj
	s.subject(subj.ID).profile = &p
	return subj, nil
}

// Profile returns the stored profile of a subject.
func (s *Service) Profile(ctx context.Context, id string) (model.Subject, error) {
	s.intakeMu.RLock()
	defer s.intakeMu.RUnlock()
	in, ok := s.intake[id]
	if !ok || in.profile == nil {
		return model.Subject{}, fmt.Errorf("profile %q: %w", id, model.ErrNotFound)
	}
	return *in.profile, nil
}

// AddEvidence stores an evidence batch. Items from another dimension family
// are rejected as invalid evidence.
func (s *Service) AddEvidence(ctx context.Context, subjectID string, items []model.EvidenceItem) (evidence.AddResult, error) {
	if err := s.running(); err != nil {
		return evidence.AddResult{}, err
	}
	set := s.builder.DimensionSet()
	for i, item := range items {
		if item.Dimension.Valid() && item.Dimension.Set() != set {
			return evidence.AddResult{}, fmt.Errorf("item %d: %w: dimension %s is not part of %s",
				i, model.ErrInvalidEvidence, item.Dimension, set)
		}
	}
	res, err := s.evidence.Add(ctx, subjectID, items...)
	if err != nil {
		return evidence.AddResult{}, err
	}
	s.intakeMu.Lock()
	s.subject(subjectID)
	s.intakeMu.Unlock()

	metrics.RecordEvidenceIngested(res.Accepted, res.Duplicates)
	return res, nil
}

// AddQuotes stores interview quotes. Repeated quotes are ignored; the
// number of newly stored quotes is returned.
func (s *Service) AddQuotes(ctx context.Context, subjectID string, quotes []model.Quote) (int, error) {
	if strings.TrimSpace(subjectID) == "" {
		return 0, fmt.Errorf("%w: empty subject id", model.ErrInvalidEvidence)
	}
	if err := validateQuotes(quotes); err != nil {
		return 0, err
	}

	s.intakeMu.Lock()
	defer s.intakeMu.Unlock()
	in := s.subject(subjectID)
	added := 0
	for _, q := range quotes {
		key := q.IntervieweeID + "|" + themeKey(q) + "|" + strings.TrimSpace(q.Quote)
		if in.quoteIDs.SeenAndRecord(ctx, key) {
			continue
		}
		in.quotes = append(in.quotes, q)
		added++
	}
	metrics.RecordQuotesIngested(added)
	return added, nil
}

func validateQuotes(quotes []model.Quote) error {
	for i, q := range quotes {
		if math.IsNaN(q.Sentiment) || q.Sentiment < -1 || q.Sentiment > 1 {
			return fmt.Errorf("quote %d: %w: sentiment %v outside [-1,1]", i, model.ErrInvalidScoreRange, q.Sentiment)
		}
		if strings.TrimSpace(q.Quote) == "" {
			return fmt.Errorf("quote %d: %w: empty quote", i, model.ErrInvalidEvidence)
		}
	}
	return nil
}

func themeKey(q model.Quote) string {
	return strings.ToLower(strings.Join(strings.Fields(q.Theme), " "))
}

// SetPerceptions replaces the self-rated scores of a subject.
func (s *Service) SetPerceptions(ctx context.Context, subjectID string, perceived map[model.DimensionID]float64) error {
	if err := s.running(); err != nil {
		return err
	}
	if strings.TrimSpace(subjectID) == "" {
		return fmt.Errorf("%w: empty subject id", model.ErrInvalidEvidence)
	}
	scale := s.builder.PerceptionScale()
	set := s.builder.DimensionSet()
	cp := make(map[model.DimensionID]float64, len(perceived))
	for d, v := range perceived {
		if d.Set() != set {
			return fmt.Errorf("%w: dimension %s is not part of %s", model.ErrInvalidEvidence, d, set)
		}
		if math.IsNaN(v) || v < 0 || v > scale {
			return fmt.Errorf("%w: perceived %s = %v outside [0,%v]", model.ErrInvalidScoreRange, d, v, scale)
		}
		cp[d] = v
	}

	s.intakeMu.Lock()
	defer s.intakeMu.Unlock()
	s.subject(subjectID).perceptions = cp
	return nil
}

// PutBenchmark validates and stores a distribution.
func (s *Service) PutBenchmark(ctx context.Context, dist model.Distribution) error {
	if err := s.running(); err != nil {
		return err
	}
	return s.benchmarks.Put(dist)
}

// Benchmark returns the distribution used for industry and sizeBand.
func (s *Service) Benchmark(ctx context.Context, industry, sizeBand string) (*model.Distribution, error) {
	if err := s.running(); err != nil {
		return nil, err
	}
	d := s.benchmarks.Lookup(industry, sizeBand)
	if d == nil {
		return nil, fmt.Errorf("benchmark %s/%s: %w", industry, sizeBand, model.ErrNotFound)
	}
	return d, nil
}

// Sync pulls evidence, quotes and the matching benchmark from upstream.
// Everything is fetched and checked before anything is stored, so a bad
// upstream payload leaves the intake untouched.
func (s *Service) Sync(ctx context.Context, subjectID string) (SyncResult, error) {
	if err := s.running(); err != nil {
		return SyncResult{}, err
	}
	if s.source == nil {
		return SyncResult{}, ErrSourceDisabled
	}

	var res SyncResult
	items, err := s.source.Evidence(ctx, subjectID)
	if err != nil {
		return res, err
	}
	quotes, err := s.source.Quotes(ctx, subjectID)
	if err != nil {
		return res, err
	}
	if err := validateQuotes(quotes); err != nil {
		return res, fmt.Errorf("%w: quotes: %v", source.ErrUpstream, err)
	}
	set := s.builder.DimensionSet()
	for i, item := range items {
		if err := item.Validate(); err != nil {
			return res, fmt.Errorf("%w: evidence item %d: %v", source.ErrUpstream, i, err)
		}
		if item.Dimension.Set() != set {
			return res, fmt.Errorf("%w: evidence item %d: dimension %s is not part of %s", source.ErrUpstream, i, item.Dimension, set)
		}
	}

	var dist *model.Distribution
	if p, err := s.Profile(ctx, subjectID); err == nil && p.Industry != "" {
		if dist, err = s.source.Benchmark(ctx, p.Industry, p.SizeBand); err != nil {
			return res, err
		}
		if dist != nil {
			if dist.Industry == "" {
				dist.Industry = p.Industry
			}
			if dist.SizeBand == "" {
				dist.SizeBand = p.SizeBand
			}
			if err := benchmark.Validate(*dist); err != nil {
				return res, fmt.Errorf("%w: benchmark: %v", source.ErrUpstream, err)
			}
		}
	}

	if res.Evidence, err = s.AddEvidence(ctx, subjectID, items); err != nil {
		return res, err
	}
	if res.Quotes, err = s.AddQuotes(ctx, subjectID, quotes); err != nil {
		return res, err
	}
	if dist != nil {
		if err := s.benchmarks.Put(*dist); err != nil {
			return res, err
		}
		res.Benchmark = true
	}
	s.logger.Info(ctx, "synced subject from upstream",
		logger.String("subject_id", subjectID),
		logger.Int("evidence_accepted", res.Evidence.Accepted),
		logger.Int("evidence_duplicates", res.Evidence.Duplicates),
		logger.Int("quotes", res.Quotes),
		logger.Bool("benchmark", res.Benchmark),
	)
	return res, nil
}

// Input gathers the current intake of a subject into a builder input.
// Subjects with no intake at all are unknown.
func (s *Service) Input(ctx context.Context, subjectID string) (report.Input, error) {
	if err := s.running(); err != nil {
		return report.Input{}, err
	}
	return s.input(ctx, subjectID)
}

func (s *Service) input(ctx context.Context, subjectID string) (report.Input, error) {
	s.intakeMu.RLock()
	in, ok := s.intake[subjectID]
	var (
		subj      = model.Subject{ID: subjectID, Kind: model.SubjectOrganization}
		quotes    []model.Quote
		perceived map[model.DimensionID]float64
	)
	if ok {
		if in.profile != nil {
			subj = *in.profile
		}
		quotes = append(quotes, in.quotes...)
		if in.perceptions != nil {
			perceived = make(map[model.DimensionID]float64, len(in.perceptions))
			for d, v := range in.perceptions {
				perceived[d] = v
			}
		}
	}
	s.intakeMu.RUnlock()

	if !ok {
		return report.Input{}, fmt.Errorf("subject %q: %w", subjectID, model.ErrNotFound)
	}
	return report.Input{
		Subject:   subj,
		Evidence:  s.evidence.Snapshot(ctx, subjectID),
		Perceived: perceived,
		Quotes:    quotes,
		Benchmark: s.benchmarks.Lookup(subj.Industry, subj.SizeBand),
	}, nil
}

// BuildFor builds (but does not store) the report of a subject.
func (s *Service) BuildFor(ctx context.Context, subjectID string) (*model.Report, error) {
	if err := s.running(); err != nil {
		return nil, err
	}
	return s.build(ctx, subjectID)
}

// drainBuilder is the worker.Builder of the pool. It skips the started
// check so queued jobs still build while Stop drains the queue.
type drainBuilder struct{ s *Service }

func (b drainBuilder) BuildFor(ctx context.Context, subjectID string) (*model.Report, error) {
	return b.s.build(ctx, subjectID)
}

func (s *Service) build(ctx context.Context, subjectID string) (*model.Report, error) {
	in, err := s.input(ctx, subjectID)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	rep, err := s.builder.Build(ctx, in)
	if err != nil {
		return nil, err
	}
	metrics.RecordReportBuilt(rep.MaturityLevel.Name, float64(time.Since(start).Microseconds())/1000)
	if rep.PeerComparison == nil {
		metrics.RecordBenchmarkMiss()
	}
	return rep, nil
}

// Assess builds and stores a report synchronously.
func (s *Service) Assess(ctx context.Context, subjectID string) (*model.Report, error) {
	rep, err := s.BuildFor(ctx, subjectID)
	if err != nil {
		return nil, err
	}
	if err := s.store.Save(ctx, rep); err != nil {
		return nil, err
	}
	return rep, nil
}

// RequestAssessment queues an asynchronous build. A full queue returns
// ErrBackpressure.
func (s *Service) RequestAssessment(ctx context.Context, subjectID string) (worker.JobStatus, error) {
	if err := s.running(); err != nil {
		return worker.JobStatus{}, err
	}
	s.intakeMu.RLock()
	_, known := s.intake[subjectID]
	s.intakeMu.RUnlock()
	if !known {
		return worker.JobStatus{}, fmt.Errorf("subject %q: %w", subjectID, model.ErrNotFound)
	}

	job := queue.Job{ID: uuid.NewString(), SubjectID: subjectID, EnqueuedAt: time.Now().UTC()}
	s.jobs.Queued(job)
	if err := s.jobQueue.Enqueue(ctx, job); err != nil {
		s.jobs.Forget(job.ID)
		if errors.Is(err, queue.ErrFull) {
			return worker.JobStatus{}, fmt.Errorf("%w: %w", ErrBackpressure, err)
		}
		return worker.JobStatus{}, err
	}
	st, _ := s.jobs.Get(job.ID)
	return st, nil
}

// Job returns the status of an assessment job.
func (s *Service) Job(ctx context.Context, jobID string) (worker.JobStatus, error) {
	if err := s.running(); err != nil {
		return worker.JobStatus{}, err
	}
	st, ok := s.jobs.Get(jobID)
	if !ok {
		return worker.JobStatus{}, fmt.Errorf("job %q: %w", jobID, model.ErrNotFound)
	}
	return st, nil
}

// Report returns the latest stored report of a subject.
func (s *Service) Report(ctx context.Context, subjectID string) (*model.Report, error) {
	if err := s.running(); err != nil {
		return nil, err
	}
	return s.store.Latest(ctx, subjectID)
}

// TopN returns the top N subjects by latest aggregate.
func (s *Service) TopN(ctx context.Context, n int) ([]repository.Entry, error) {
	if err := s.running(); err != nil {
		return nil, err
	}
	return s.store.TopN(ctx, n)
}

// Rank returns the cohort rank of a subject.
func (s *Service) Rank(ctx context.Context, subjectID string) (repository.Entry, error) {
	if err := s.running(); err != nil {
		return repository.Entry{}, err
	}
	return s.store.Rank(ctx, subjectID)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]any{
		"started":     s.started,
		"workerCount": s.workerCount,
		"queueSize":   s.queueSize,
		"dedupeSize":  s.dedupeSize,
		"storeDriver": s.storeDriver,
	}
	s.intakeMu.RLock()
	stats["subjects"] = len(s.intake)
	s.intakeMu.RUnlock()

	if s.started {
		queueLen := s.jobQueue.Len(ctx)
		stats["queueLength"] = queueLen
		stats["activeWorkers"] = s.workerPool.Active()
		stats["reports"] = s.store.Count(ctx)
		stats["benchmarks"] = s.benchmarks.Len()
		stats["idempotencyKeys"] = s.idempotency.Size()
		stats["dimensionSet"] = string(s.builder.DimensionSet())
		jobs := make(map[string]int)
		for state, n := range s.jobs.Counts() {
			jobs[string(state)] = n
		}
		stats["jobs"] = jobs

		metrics.UpdateQueueSize(queueLen)
		metrics.UpdateWorkerCount(s.workerCount)
	}
	return stats
}
