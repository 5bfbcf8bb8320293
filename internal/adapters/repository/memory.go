package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/SquizAI/humanGLue-brain-sub005/internal/domain/model"
	"github.com/SquizAI/humanGLue-brain-sub005/pkg/metrics"
)

// Treap-based ranking index.
//
// Ordering: score DESC, then subject id ASC. "less" means ranks earlier, so
// an in-order walk yields the leaderboard from best to worst. Subtree sizes
// give O(log n) rank queries.

type node struct {
	id    string
	score scoreFP
	prio  uint64
	left  *node
	right *node
	size  int
}

func nsize(n *node) int {
	if n == nil {
		return 0
	}
	return n.size
}

func fix(n *node) {
	if n != nil {
		n.size = 1 + nsize(n.left) + nsize(n.right)
	}
}

func less(aScore scoreFP, aID string, bScore scoreFP, bID string) bool {
	if aScore != bScore {
		return aScore > bScore
	}
	return aID < bID
}

func rotateRight(y *node) *node {
	x := y.left
	y.left, x.right = x.right, y
	fix(y)
	fix(x)
	return x
}

func rotateLeft(x *node) *node {
	y := x.right
	x.right, y.left = y.left, x
	fix(x)
	fix(y)
	return y
}

func insert(n *node, id string, score scoreFP, prio uint64) *node {
	if n == nil {
		return &node{id: id, score: score, prio: prio, size: 1}
	}
	if less(score, id, n.score, n.id) {
		n.left = insert(n.left, id, score, prio)
		if n.left.prio > n.prio {
			n = rotateRight(n)
		}
	} else {
		n.right = insert(n.right, id, score, prio)
		if n.right.prio > n.prio {
			n = rotateLeft(n)
		}
	}
	fix(n)
	return n
}

func remove(n *node, id string, score scoreFP) *node {
	if n == nil {
		return nil
	}
	switch {
	case n.id == id && n.score == score:
		if n.left == nil {
			return n.right
		}
		if n.right == nil {
			return n.left
		}
		if n.left.prio > n.right.prio {
			n = rotateRight(n)
			n.right = remove(n.right, id, score)
		} else {
			n = rotateLeft(n)
			n.left = remove(n.left, id, score)
		}
	case less(score, id, n.score, n.id):
		n.left = remove(n.left, id, score)
	default:
		n.right = remove(n.right, id, score)
	}
	fix(n)
	return n
}

// countAbove returns the number of nodes with a strictly higher score.
func countAbove(n *node, score scoreFP) int {
	count := 0
	for n != nil {
		if n.score > score {
			count += nsize(n.left) + 1
			n = n.right
		} else {
			n = n.left
		}
	}
	return count
}

// collectTopN appends up to limit nodes in rank order.
func collectTopN(n *node, limit int, out *[]*node) {
	if n == nil || len(*out) >= limit {
		return
	}
	collectTopN(n.left, limit, out)
	if len(*out) < limit {
		*out = append(*out, n)
	}
	collectTopN(n.right, limit, out)
}

type record struct {
	score       scoreFP
	level       string
	reportID    string
	completedAt time.Time
	body        []byte
}

func (r record) entry(subjectID string) Entry {
	return Entry{
		SubjectID:   subjectID,
		Score:       r.score.float(),
		Level:       r.level,
		ReportID:    r.reportID,
		CompletedAt: r.completedAt,
	}
}

// MemoryStore keeps the latest report per subject in process memory.
// Reports are held as JSON so callers never share state with the store.
type MemoryStore struct {
	mu   sync.RWMutex
	root *node
	byID map[string]record
	rng  *rand.Rand

	opts     options
	wg       sync.WaitGroup
	stopChan chan struct{}
	stopOnce sync.Once
}

// NewMemoryStore constructs a memory store and starts its metrics updater.
func NewMemoryStore(ctx context.Context, opts ...Option) *MemoryStore {
	s := &MemoryStore{
		byID:     make(map[string]record),
		rng:      rand.New(rand.NewPCG(1, 2)),
		opts:     defaultOptions(),
		stopChan: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(&s.opts)
	}
	startMetricsUpdater(ctx, &s.wg, s.stopChan, s.opts.metricsUpdateInterval, func() int {
		return s.Count(ctx)
	})
	return s
}

// Save implements Store.Save in O(log n) expected time.
func (s *MemoryStore) Save(ctx context.Context, rep *model.Report) error {
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
	rec := record{
		score:       toFixedPoint(rep.OverallPercentage),
		level:       rep.MaturityLevel.Name,
		reportID:    rep.ID,
		completedAt: rep.CompletedAt,
		body:        body,
	}

	s.mu.Lock()
	if old, ok := s.byID[rep.Subject.ID]; ok {
		s.root = remove(s.root, rep.Subject.ID, old.score)
	}
	s.byID[rep.Subject.ID] = rec
	s.root = insert(s.root, rep.Subject.ID, rec.score, s.rng.Uint64())
	count := len(s.byID)
	s.mu.Unlock()

	metrics.UpdateRepositoryRecordsTotal(count)
	return nil
}

// Latest implements Store.Latest.
func (s *MemoryStore) Latest(ctx context.Context, subjectID string) (*model.Report, error) {
	s.mu.RLock()
	rec, ok := s.byID[subjectID]
	s.mu.RUnlock()
	if !ok {
		return nil, notFound(subjectID)
	}
	var rep model.Report
	if err := json.Unmarshal(rec.body, &rep); err != nil {
		return nil, fmt.Errorf("decode report: %w", err)
	}
	return &rep, nil
}

// Rank implements Store.Rank in O(log n).
func (s *MemoryStore) Rank(ctx context.Context, subjectID string) (Entry, error) {
	start := time.Now()
	defer func() {
		metrics.RecordRepositoryQueryLatency(float64(time.Since(start).Milliseconds()))
	}()

	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.byID[subjectID]
	if !ok {
		metrics.RecordErrorByComponent("repository", "not_found")
		return Entry{}, notFound(subjectID)
	}
	e := rec.entry(subjectID)
	e.Rank = countAbove(s.root, rec.score) + 1
	return e, nil
}

// TopN implements Store.TopN.
func (s *MemoryStore) TopN(ctx context.Context, n int) ([]Entry, error) {
	start := time.Now()
	defer func() {
		metrics.RecordRepositoryQueryLatency(float64(time.Since(start).Milliseconds()))
	}()

	if n < 1 {
		metrics.RecordErrorByComponent("repository", "invalid_limit")
		return nil, ErrInvalidLimit
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	nodes := make([]*node, 0, min(n, len(s.byID)))
	collectTopN(s.root, n, &nodes)
	out := make([]Entry, len(nodes))
	for i, nd := range nodes {
		out[i] = s.byID[nd.id].entry(nd.id)
	}
	assignRanks(out, 1)
	return out, nil
}

// Count implements Store.Count.
func (s *MemoryStore) Count(ctx context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}

// Close stops the metrics updater.
func (s *MemoryStore) Close() error {
	s.stopOnce.Do(func() { close(s.stopChan) })
	s.wg.Wait()
	return nil
}

// startMetricsUpdater publishes the record count until ctx ends or stop closes.
func startMetricsUpdater(ctx context.Context, wg *sync.WaitGroup, stop <-chan struct{}, interval time.Duration, count func() int) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-stop:
				return
			case <-ticker.C:
				metrics.UpdateRepositoryRecordsTotal(count())
			}
		}
	}()
}
