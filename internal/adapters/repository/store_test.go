package repository

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/SquizAI/humanGLue-brain-sub005/internal/domain/model"
)

func newReport(subject string, pct float64, level string) *model.Report {
	return &model.Report{
		ID:                fmt.Sprintf("rep-%s-%v", subject, pct),
		Subject:           model.Subject{ID: subject, Kind: model.SubjectOrganization},
		DimensionSet:      model.SetCore5,
		OverallScore:      pct / 10,
		OverallPercentage: pct,
		MaturityLevel:     model.MaturityLevel{Name: level},
		Themes:            []model.Theme{},
		CompletedAt:       time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

// forEachDriver runs fn against a fresh store of every driver.
func forEachDriver(t *testing.T, fn func(t *testing.T, s Store)) {
	t.Helper()
	drivers := map[string]func(t *testing.T) Store{
		DriverMemory: func(t *testing.T) Store {
			return NewMemoryStore(context.Background())
		},
		DriverSQLite: func(t *testing.T) Store {
			s, err := NewSQLiteStore(context.Background(), filepath.Join(t.TempDir(), "reports.db"))
			if err != nil {
				t.Fatalf("open sqlite: %v", err)
			}
			return s
		},
	}
	for name, open := range drivers {
		t.Run(name, func(t *testing.T) {
			s := open(t)
			t.Cleanup(func() { _ = s.Close() })
			fn(t, s)
		})
	}
}

func TestStore_BasicOperations(t *testing.T) {
	forEachDriver(t, func(t *testing.T, s Store) {
		ctx := context.Background()

		if n := s.Count(ctx); n != 0 {
			t.Fatalf("expected empty store, got %d", n)
		}
		if err := s.Save(ctx, newReport("acme", 55, "Scaling")); err != nil {
			t.Fatalf("save: %v", err)
		}
		if n := s.Count(ctx); n != 1 {
			t.Fatalf("expected count 1, got %d", n)
		}

		rep, err := s.Latest(ctx, "acme")
		if err != nil {
			t.Fatalf("latest: %v", err)
		}
		if rep.OverallPercentage != 55 || rep.MaturityLevel.Name != "Scaling" {
			t.Errorf("unexpected report: %+v", rep)
		}

		entry, err := s.Rank(ctx, "acme")
		if err != nil {
			t.Fatalf("rank: %v", err)
		}
		if entry.Rank != 1 || entry.Score != 55 || entry.Level != "Scaling" {
			t.Errorf("unexpected entry: %+v", entry)
		}
		if !entry.CompletedAt.Equal(rep.CompletedAt) {
			t.Errorf("completedAt mismatch: %v vs %v", entry.CompletedAt, rep.CompletedAt)
		}
	})
}

func TestStore_LatestReplacesRanking(t *testing.T) {
	forEachDriver(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		mustSave(t, s, newReport("acme", 80, "Optimizing"))
		mustSave(t, s, newReport("globex", 60, "Scaling"))
		mustSave(t, s, newReport("acme", 30, "Exploring"))

		if n := s.Count(ctx); n != 2 {
			t.Fatalf("expected 2 subjects, got %d", n)
		}
		top, err := s.TopN(ctx, 10)
		if err != nil {
			t.Fatalf("topN: %v", err)
		}
		if top[0].SubjectID != "globex" || top[1].SubjectID != "acme" {
			t.Errorf("unexpected order: %+v", top)
		}
		if top[1].Score != 30 || top[1].Level != "Exploring" {
			t.Errorf("acme entry not replaced: %+v", top[1])
		}
	})
}

func TestStore_TiesShareRank(t *testing.T) {
	forEachDriver(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		mustSave(t, s, newReport("b", 50, "Piloting"))
		mustSave(t, s, newReport("a", 50, "Piloting"))
		mustSave(t, s, newReport("c", 40, "Experimenting"))

		top, err := s.TopN(ctx, 3)
		if err != nil {
			t.Fatalf("topN: %v", err)
		}
		want := []struct {
			id   string
			rank int
		}{{"a", 1}, {"b", 1}, {"c", 3}}
		for i, w := range want {
			if top[i].SubjectID != w.id || top[i].Rank != w.rank {
				t.Errorf("position %d: got %s/%d, want %s/%d", i, top[i].SubjectID, top[i].Rank, w.id, w.rank)
			}
		}

		e, err := s.Rank(ctx, "b")
		if err != nil || e.Rank != 1 {
			t.Errorf("rank of b: %+v, %v", e, err)
		}
		e, err = s.Rank(ctx, "c")
		if err != nil || e.Rank != 3 {
			t.Errorf("rank of c: %+v, %v", e, err)
		}
	})
}

func TestStore_Errors(t *testing.T) {
	forEachDriver(t, func(t *testing.T, s Store) {
		ctx := context.Background()

		if _, err := s.Rank(ctx, "ghost"); !errors.Is(err, model.ErrNotFound) {
			t.Errorf("rank: expected ErrNotFound, got %v", err)
		}
		if _, err := s.Latest(ctx, "ghost"); !errors.Is(err, model.ErrNotFound) {
			t.Errorf("latest: expected ErrNotFound, got %v", err)
		}
		if _, err := s.TopN(ctx, 0); !errors.Is(err, ErrInvalidLimit) {
			t.Errorf("topN: expected ErrInvalidLimit, got %v", err)
		}
		if err := s.Save(ctx, &model.Report{}); !errors.Is(err, model.ErrInvalidEvidence) {
			t.Errorf("save: expected ErrInvalidEvidence, got %v", err)
		}
	})
}

func TestStore_RandomizedOrderMatchesSort(t *testing.T) {
	forEachDriver(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		rng := rand.New(rand.NewSource(11))

		latest := make(map[string]float64)
		for i := 0; i < 300; i++ {
			id := fmt.Sprintf("org-%03d", rng.Intn(80))
			// Coarse scores force plenty of ties.
			score := float64(rng.Intn(21)) * 5
			mustSave(t, s, newReport(id, score, "L"))
			latest[id] = score
		}

		type pair struct {
			id    string
			score float64
		}
		want := make([]pair, 0, len(latest))
		for id, sc := range latest {
			want = append(want, pair{id, sc})
		}
		sort.Slice(want, func(i, j int) bool {
			if want[i].score != want[j].score {
				return want[i].score > want[j].score
			}
			return want[i].id < want[j].id
		})

		top, err := s.TopN(ctx, len(want)+5)
		if err != nil {
			t.Fatalf("topN: %v", err)
		}
		if len(top) != len(want) {
			t.Fatalf("expected %d entries, got %d", len(want), len(top))
		}
		for i := range want {
			if top[i].SubjectID != want[i].id || top[i].Score != want[i].score {
				t.Fatalf("position %d: got %s/%v, want %s/%v", i, top[i].SubjectID, top[i].Score, want[i].id, want[i].score)
			}
			e, err := s.Rank(ctx, want[i].id)
			if err != nil {
				t.Fatalf("rank %s: %v", want[i].id, err)
			}
			if e.Rank != top[i].Rank {
				t.Fatalf("rank of %s: %d, leaderboard says %d", want[i].id, e.Rank, top[i].Rank)
			}
		}
	})
}

func TestSQLiteStore_HistoryKeepsEveryReport(t *testing.T) {
	ctx := context.Background()
	s, err := NewSQLiteStore(ctx, filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer s.Close()

	first := newReport("acme", 20, "Aware")
	second := newReport("acme", 45, "Piloting")
	second.CompletedAt = first.CompletedAt.Add(time.Hour)
	mustSave(t, s, first)
	mustSave(t, s, second)

	ids, err := s.History(ctx, "acme")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(ids) != 2 || ids[0] != first.ID || ids[1] != second.ID {
		t.Errorf("unexpected history: %v", ids)
	}
}

func TestOpen(t *testing.T) {
	ctx := context.Background()
	s, err := Open(ctx, DriverMemory, "")
	if err != nil {
		t.Fatalf("memory: %v", err)
	}
	_ = s.Close()

	if _, err := Open(ctx, "postgres", ""); !errors.Is(err, ErrUnknownDriver) {
		t.Errorf("expected ErrUnknownDriver, got %v", err)
	}
}

func mustSave(t *testing.T, s Store, rep *model.Report) {
	t.Helper()
	if err := s.Save(context.Background(), rep); err != nil {
		t.Fatalf("save %s: %v", rep.Subject.ID, err)
	}
}
