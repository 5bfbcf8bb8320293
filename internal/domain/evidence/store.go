// Package evidence holds typed, de-duplicated evidence items per subject
// and dimension. It is the only owner of evidence; everything derived from
// it is recomputed from a Snapshot.
package evidence

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/SquizAI/humanGLue-brain-sub005/internal/domain/dedupe"
	"github.com/SquizAI/humanGLue-brain-sub005/internal/domain/model"
)

// Set is an immutable-by-convention view of a subject's evidence grouped by
// dimension. Slices are sorted by (sourceId, statement).
type Set map[model.DimensionID][]model.EvidenceItem

// Count returns the total number of items in the set.
func (s Set) Count() int {
	n := 0
	for _, items := range s {
		n += len(items)
	}
	return n
}

// AddResult reports how a batch was absorbed.
type AddResult struct {
	Accepted   int `json:"accepted"`
	Duplicates int `json:"duplicates"`
}

type subjectEvidence struct {
	ids   dedupe.Deduper
	items map[model.DimensionID][]model.EvidenceItem
}

// Store is a concurrency-safe evidence store.
type Store struct {
	mu       sync.RWMutex
	subjects map[string]*subjectEvidence
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{subjects: make(map[string]*subjectEvidence)}
}

// Add validates and appends items for subjectID. The batch is rejected as a
// whole if any item is malformed. Items whose identity is already present
// are counted as duplicates and skipped.
func (s *Store) Add(ctx context.Context, subjectID string, items ...model.EvidenceItem) (AddResult, error) {
	if subjectID == "" {
		return AddResult{}, fmt.Errorf("%w: empty subject id", model.ErrInvalidEvidence)
	}
	for i, item := range items {
		if err := item.Validate(); err != nil {
			return AddResult{}, fmt.Errorf("item %d: %w", i, err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	se, ok := s.subjects[subjectID]
	if !ok {
		se = &subjectEvidence{
			ids:   dedupe.NewInMemoryDeduper(),
			items: make(map[model.DimensionID][]model.EvidenceItem),
		}
		s.subjects[subjectID] = se
	}

	var res AddResult
	for _, item := range items {
		if se.ids.SeenAndRecord(ctx, item.Identity()) {
			res.Duplicates++
			continue
		}
		se.items[item.Dimension] = append(se.items[item.Dimension], item)
		res.Accepted++
	}
	return res, nil
}

// Replace discards the subject's evidence and loads items in its place.
func (s *Store) Replace(ctx context.Context, subjectID string, items ...model.EvidenceItem) (AddResult, error) {
	for i, item := range items {
		if err := item.Validate(); err != nil {
			return AddResult{}, fmt.Errorf("item %d: %w", i, err)
		}
	}
	s.Clear(ctx, subjectID)
	return s.Add(ctx, subjectID, items...)
}

// Clear drops every item held for subjectID.
func (s *Store) Clear(_ context.Context, subjectID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.subjects, subjectID)
}

// ForDimension returns a sorted copy of the subject's items for d.
func (s *Store) ForDimension(_ context.Context, subjectID string, d model.DimensionID) []model.EvidenceItem {
	s.mu.RLock()
	defer s.mu.RUnlock()

	se, ok := s.subjects[subjectID]
	if !ok {
		return nil
	}
	return sortedCopy(se.items[d])
}

// Snapshot returns a deep copy of the subject's evidence.
func (s *Store) Snapshot(_ context.Context, subjectID string) Set {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(Set)
	se, ok := s.subjects[subjectID]
	if !ok {
		return out
	}
	for d, items := range se.items {
		out[d] = sortedCopy(items)
	}
	return out
}

// Count returns the number of items held for subjectID.
func (s *Store) Count(_ context.Context, subjectID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	se, ok := s.subjects[subjectID]
	if !ok {
		return 0
	}
	n := 0
	for _, items := range se.items {
		n += len(items)
	}
	return n
}

// Subjects returns the number of subjects with evidence.
func (s *Store) Subjects() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.subjects)
}

func sortedCopy(items []model.EvidenceItem) []model.EvidenceItem {
	out := append([]model.EvidenceItem(nil), items...)
	SortItems(out)
	return out
}

// SortItems orders items by (sourceId, statement, polarity) so that scoring
// output does not depend on arrival order.
func SortItems(items []model.EvidenceItem) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if a.SourceID != b.SourceID {
			return a.SourceID < b.SourceID
		}
		if a.Statement != b.Statement {
			return a.Statement < b.Statement
		}
		return a.Polarity < b.Polarity
	})
}

// FromItems groups loose items into a Set, dropping duplicates by identity.
// It is used by callers that build a report without a Store.
func FromItems(items []model.EvidenceItem) (Set, error) {
	seen := make(map[string]struct{}, len(items))
	out := make(Set)
	for i, item := range items {
		if err := item.Validate(); err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		id := item.Identity()
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out[item.Dimension] = append(out[item.Dimension], item)
	}
	for d := range out {
		SortItems(out[d])
	}
	return out, nil
}
