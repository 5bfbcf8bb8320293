// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/SquizAI/humanGLue-brain-sub005/internal/adapters/mq/worker"
	"github.com/SquizAI/humanGLue-brain-sub005/internal/adapters/repository"
	service "github.com/SquizAI/humanGLue-brain-sub005/internal/app"
	"github.com/SquizAI/humanGLue-brain-sub005/internal/domain/evidence"
	"github.com/SquizAI/humanGLue-brain-sub005/internal/domain/model"
	"github.com/SquizAI/humanGLue-brain-sub005/pkg/logger"
)

// maxBodyBytes caps intake request bodies.
const maxBodyBytes = 4 << 20

// Idempotency records Idempotency-Key headers.
type Idempotency interface {
	SeenAndRecord(ctx context.Context, key string) bool
	Unrecord(ctx context.Context, key string)
}

// Dependencies required by HTTP handlers. *service.Service satisfies it.
type Dependencies interface {
	Idempotency

	PutProfile(ctx context.Context, subj model.Subject) (model.Subject, error)
	Profile(ctx context.Context, id string) (model.Subject, error)
	AddEvidence(ctx context.Context, subjectID string, items []model.EvidenceItem) (evidence.AddResult, error)
	AddQuotes(ctx context.Context, subjectID string, quotes []model.Quote) (int, error)
	SetPerceptions(ctx context.Context, subjectID string, perceived map[model.DimensionID]float64) error
	Sync(ctx context.Context, subjectID string) (service.SyncResult, error)

	Assess(ctx context.Context, subjectID string) (*model.Report, error)
	RequestAssessment(ctx context.Context, subjectID string) (worker.JobStatus, error)
	Job(ctx context.Context, jobID string) (worker.JobStatus, error)
	Report(ctx context.Context, subjectID string) (*model.Report, error)

	PutBenchmark(ctx context.Context, dist model.Distribution) error

	TopN(ctx context.Context, n int) ([]Entry, error)
	Rank(ctx context.Context, subjectID string) (Entry, error)
}

// Entry mirrors the read shape returned by leaderboard queries.
type Entry = repository.Entry

// Server wires HTTP routes for the business API.
type Server struct {
	deps   Dependencies
	logger logger.Logger

	opsHandler          *OpsHandler
	organizationHandler *OrganizationHandler
	assessmentHandler   *AssessmentHandler
	benchmarkHandler    *BenchmarkHandler
	leaderboardHandler  *LeaderboardHandler
	rankHandler         *RankHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, maxLimit int) *Server {
	log := logger.Get().Named("api")
	return &Server{
		deps:                deps,
		logger:              log,
		opsHandler:          NewOpsHandler(statsProvider),
		organizationHandler: NewOrganizationHandler(deps, log),
		assessmentHandler:   NewAssessmentHandler(deps, log),
		benchmarkHandler:    NewBenchmarkHandler(deps, log),
		leaderboardHandler:  NewLeaderboardHandler(deps, maxLimit, log),
		rankHandler:         NewRankHandler(deps, log),
	}
}

// Register attaches all HTTP routes to r.
func (s *Server) Register(_ context.Context, r chi.Router) {
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", MetricsMiddleware(s.opsHandler.HandleHealth, "healthz"))
	r.Get("/stats", MetricsMiddleware(s.opsHandler.HandleStats, "stats"))

	r.Route("/organizations/{id}", func(r chi.Router) {
		o := s.organizationHandler
		r.Put("/", MetricsMiddleware(o.HandlePutProfile, "profile"))
		r.Get("/", MetricsMiddleware(o.HandleGetProfile, "profile"))
		r.Put("/perceptions", MetricsMiddleware(o.HandlePutPerceptions, "perceptions"))

		r.Group(func(r chi.Router) {
			r.Use(IdempotencyMiddleware(s.deps))
			r.Post("/evidence", MetricsMiddleware(o.HandlePostEvidence, "evidence"))
			r.Post("/quotes", MetricsMiddleware(o.HandlePostQuotes, "quotes"))
			r.Post("/sync", MetricsMiddleware(o.HandleSync, "sync"))
			r.Post("/assessments", MetricsMiddleware(s.assessmentHandler.HandlePostAssessment, "assessments"))
		})

		r.Get("/report", MetricsMiddleware(s.assessmentHandler.HandleGetReport, "report"))
	})

	r.Get("/jobs/{id}", MetricsMiddleware(s.assessmentHandler.HandleGetJob, "jobs"))
	r.Put("/benchmarks/{industry}/{sizeBand}", MetricsMiddleware(s.benchmarkHandler.HandlePutBenchmark, "benchmarks"))
	r.Get("/leaderboard", MetricsMiddleware(s.leaderboardHandler.HandleGetLeaderboard, "leaderboard"))
	r.Get("/rank/{id}", MetricsMiddleware(s.rankHandler.HandleGetRank, "rank"))
}

// Handler returns a chi router with every API route registered.
func (s *Server) Handler(ctx context.Context) http.Handler {
	r := chi.NewRouter()
	s.Register(ctx, r)
	return r
}

type ackResponse struct {
	Status    string `json:"status"`
	Duplicate bool   `json:"duplicate"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeServiceError maps err through errorCode. Server-side failures are
// logged; their message is replaced by the status text.
func writeServiceError(ctx context.Context, log logger.Logger, w http.ResponseWriter, op string, err error) {
	status, code := errorCode(err)
	if status >= http.StatusInternalServerError && code != "configuration_error" {
		log.Error(ctx, "request failed", logger.String("op", op), logger.Error(err))
		writeError(w, status, code, nil)
		return
	}
	writeError(w, status, code, err)
}

// decodeJSON reads a bounded JSON body into v. Unknown fields are rejected.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if err == io.EOF {
			return fmt.Errorf("%w: empty body", ErrBadRequest)
		}
		return fmt.Errorf("%w: %w", ErrBadRequest, err)
	}
	return nil
}
