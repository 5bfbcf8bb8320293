// Package repository persists assessment reports and ranks subjects by
// their latest maturity aggregate.
package repository

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/SquizAI/humanGLue-brain-sub005/internal/domain/model"
)

// Drivers accepted by Open.
const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
)

// Entry represents a leaderboard row.
type Entry struct {
	Rank        int       `json:"rank"`
	SubjectID   string    `json:"subjectId"`
	Score       float64   `json:"score"`
	Level       string    `json:"level"`
	ReportID    string    `json:"reportId"`
	CompletedAt time.Time `json:"completedAt"`
}

// Store provides read/write access to reports and the cohort ranking.
type Store interface {
	// Save records rep as the latest report of its subject. A later save for
	// the same subject replaces its ranking entry.
	Save(ctx context.Context, rep *model.Report) error

	// Latest returns the most recently saved report of a subject.
	Latest(ctx context.Context, subjectID string) (*model.Report, error)

	// Rank returns the cohort position of a subject.
	Rank(ctx context.Context, subjectID string) (Entry, error)

	// TopN returns the top-N entries ordered by score desc, subject id asc.
	TopN(ctx context.Context, n int) ([]Entry, error)

	// Count returns the number of ranked subjects.
	Count(ctx context.Context) int

	Close() error
}

// Open returns the Store for driver. path is ignored by the memory driver.
func Open(ctx context.Context, driver, path string, opts ...Option) (Store, error) {
	switch driver {
	case DriverMemory, "":
		return NewMemoryStore(ctx, opts...), nil
	case DriverSQLite:
		return NewSQLiteStore(ctx, path, opts...)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, driver)
	}
}

// scoreScale fixes aggregates to nine decimals so equal scores compare
// equal in both drivers.
const scoreScale = 1_000_000_000

type scoreFP int64

func toFixedPoint(x float64) scoreFP {
	if math.IsNaN(x) {
		return 0
	}
	return scoreFP(math.Round(x * scoreScale))
}

func (s scoreFP) float() float64 {
	return float64(s) / scoreScale
}

func notFound(subjectID string) error {
	return fmt.Errorf("subject %q: %w", subjectID, model.ErrNotFound)
}

// assignRanks gives tied scores the same rank and skips the positions they
// occupy (1, 1, 3). entries must already be in leaderboard order.
func assignRanks(entries []Entry, first int) {
	for i := range entries {
		if i > 0 && entries[i].Score == entries[i-1].Score {
			entries[i].Rank = entries[i-1].Rank
			continue
		}
		entries[i].Rank = first + i
	}
}
