package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/SquizAI/humanGLue-brain-sub005/internal/domain/model"
	"github.com/SquizAI/humanGLue-brain-sub005/pkg/metrics"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS reports (
	id           TEXT PRIMARY KEY,
	subject_id   TEXT NOT NULL,
	score_fp     INTEGER NOT NULL,
	level        TEXT NOT NULL,
	completed_at INTEGER NOT NULL,
	body         BLOB NOT NULL
);
CREATE INDEX IF NOT EXISTS reports_subject ON reports(subject_id, completed_at);
CREATE TABLE IF NOT EXISTS latest (
	subject_id   TEXT PRIMARY KEY,
	report_id    TEXT NOT NULL REFERENCES reports(id),
	score_fp     INTEGER NOT NULL,
	level        TEXT NOT NULL,
	completed_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS latest_rank ON latest(score_fp DESC, subject_id ASC);
`

var sqlitePragmas = []string{
	"PRAGMA journal_mode = WAL",
	"PRAGMA busy_timeout = 5000",
	"PRAGMA synchronous = NORMAL",
	"PRAGMA foreign_keys = ON",
}

type latestRow struct {
	SubjectID   string `db:"subject_id"`
	ReportID    string `db:"report_id"`
	ScoreFP     int64  `db:"score_fp"`
	Level       string `db:"level"`
	CompletedAt int64  `db:"completed_at"`
}

func (r latestRow) entry() Entry {
	return Entry{
		SubjectID:   r.SubjectID,
		Score:       scoreFP(r.ScoreFP).float(),
		Level:       r.Level,
		ReportID:    r.ReportID,
		CompletedAt: time.Unix(0, r.CompletedAt).UTC(),
	}
}

// SQLiteStore persists every saved report and ranks subjects by their
// latest one.
type SQLiteStore struct {
	db *sqlx.DB

	opts     options
	wg       sync.WaitGroup
	stopChan chan struct{}
	stopOnce sync.Once
}

// NewSQLiteStore opens (and migrates) the database at path.
func NewSQLiteStore(ctx context.Context, path string, opts ...Option) (*SQLiteStore, error) {
	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("repository: open %s: %w", path, err)
	}
	// One writer keeps SQLite from returning SQLITE_BUSY under WAL.
	db.SetMaxOpenConns(1)

	for _, p := range sqlitePragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("repository: pragma %q: %w", p, err)
		}
	}
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("repository: migrate: %w", err)
	}

	s := &SQLiteStore{db: db, opts: defaultOptions(), stopChan: make(chan struct{})}
	for _, opt := range opts {
		opt(&s.opts)
	}
	startMetricsUpdater(ctx, &s.wg, s.stopChan, s.opts.metricsUpdateInterval, func() int {
		return s.Count(ctx)
	})
	return s, nil
}

// Save implements Store.Save.
func (s *SQLiteStore) Save(ctx context.Context, rep *model.Report) error {
	start := time.Now()
	defer func() {
		metrics.RecordRepositoryUpdateLatency(float64(time.Since(start).Milliseconds()))
	}()

	if rep == nil || rep.Subject.ID == "" {
		return fmt.Errorf("save report: %w", model.ErrInvalidEvidence)
	}
	body, err := json.Marshal(rep)
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	score := int64(toFixedPoint(rep.OverallPercentage))
	completed := rep.CompletedAt.UnixNano()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO reports (id, subject_id, score_fp, level, completed_at, body)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET completed_at = excluded.completed_at, body = excluded.body`,
		rep.ID, rep.Subject.ID, score, rep.MaturityLevel.Name, completed, body,
	); err != nil {
		return fmt.Errorf("insert report: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO latest (subject_id, report_id, score_fp, level, completed_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(subject_id) DO UPDATE SET
			report_id = excluded.report_id,
			score_fp = excluded.score_fp,
			level = excluded.level,
			completed_at = excluded.completed_at`,
		rep.Subject.ID, rep.ID, score, rep.MaturityLevel.Name, completed,
	); err != nil {
		return fmt.Errorf("upsert latest: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	metrics.UpdateRepositoryRecordsTotal(s.Count(ctx))
	return nil
}

// Latest implements Store.Latest.
func (s *SQLiteStore) Latest(ctx context.Context, subjectID string) (*model.Report, error) {
	start := time.Now()
	defer func() {
		metrics.RecordRepositoryQueryLatency(float64(time.Since(start).Milliseconds()))
	}()

	var body []byte
	err := s.db.GetContext(ctx, &body, `
		SELECT r.body FROM latest l JOIN reports r ON r.id = l.report_id
		WHERE l.subject_id = ?`, subjectID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound(subjectID)
	}
	if err != nil {
		return nil, fmt.Errorf("select latest: %w", err)
	}
	var rep model.Report
	if err := json.Unmarshal(body, &rep); err != nil {
		return nil, fmt.Errorf("decode report: %w", err)
	}
	return &rep, nil
}

// Rank implements Store.Rank.
func (s *SQLiteStore) Rank(ctx context.Context, subjectID string) (Entry, error) {
	start := time.Now()
	defer func() {
		metrics.RecordRepositoryQueryLatency(float64(time.Since(start).Milliseconds()))
	}()

	var row latestRow
	err := s.db.GetContext(ctx, &row, `
		SELECT subject_id, report_id, score_fp, level, completed_at
		FROM latest WHERE subject_id = ?`, subjectID)
	if errors.Is(err, sql.ErrNoRows) {
		metrics.RecordErrorByComponent("repository", "not_found")
		return Entry{}, notFound(subjectID)
	}
	if err != nil {
		return Entry{}, fmt.Errorf("select rank: %w", err)
	}
	var above int
	if err := s.db.GetContext(ctx, &above, `SELECT COUNT(*) FROM latest WHERE score_fp > ?`, row.ScoreFP); err != nil {
		return Entry{}, fmt.Errorf("count above: %w", err)
	}
	e := row.entry()
	e.Rank = above + 1
	return e, nil
}

// TopN implements Store.TopN.
func (s *SQLiteStore) TopN(ctx context.Context, n int) ([]Entry, error) {
	start := time.Now()
	defer func() {
		metrics.RecordRepositoryQueryLatency(float64(time.Since(start).Milliseconds()))
	}()

	if n < 1 {
		metrics.RecordErrorByComponent("repository", "invalid_limit")
		return nil, ErrInvalidLimit
	}
	var rows []latestRow
	if err := s.db.SelectContext(ctx, &rows, `
		SELECT subject_id, report_id, score_fp, level, completed_at
		FROM latest ORDER BY score_fp DESC, subject_id ASC LIMIT ?`, n); err != nil {
		return nil, fmt.Errorf("select top: %w", err)
	}
	out := make([]Entry, len(rows))
	for i, r := range rows {
		out[i] = r.entry()
	}
	assignRanks(out, 1)
	return out, nil
}

// Count implements Store.Count. Query failures count as zero.
func (s *SQLiteStore) Count(ctx context.Context) int {
	var n int
	if err := s.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM latest`); err != nil {
		metrics.RecordErrorByComponent("repository", "count_failed")
		return 0
	}
	return n
}

// History returns the ids of every saved report of a subject, oldest first.
func (s *SQLiteStore) History(ctx context.Context, subjectID string) ([]string, error) {
	var ids []string
	if err := s.db.SelectContext(ctx, &ids, `
		SELECT id FROM reports WHERE subject_id = ? ORDER BY completed_at, id`, subjectID); err != nil {
		return nil, fmt.Errorf("select history: %w", err)
	}
	return ids, nil
}

// Close stops the metrics updater and closes the database.
func (s *SQLiteStore) Close() error {
	s.stopOnce.Do(func() { close(s.stopChan) })
	s.wg.Wait()
	return s.db.Close()
}
