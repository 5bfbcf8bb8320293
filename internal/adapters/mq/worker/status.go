package worker

import (
	"sync"
	"time"

	"github.com/SquizAI/humanGLue-brain-sub005/internal/adapters/mq/queue"
)

// JobState is the lifecycle position of an assessment job.
type JobState string

// Job states.
const (
	JobQueued  JobState = "queued"
	JobRunning JobState = "running"
	JobDone    JobState = "done"
	JobFailed  JobState = "failed"
)

// JobStatus is the externally visible state of one job.
type JobStatus struct {
	ID         string    `json:"id"`
	SubjectID  string    `json:"subjectId"`
	State      JobState  `json:"state"`
	ReportID   string    `json:"reportId,omitempty"`
	Error      string    `json:"error,omitempty"`
	EnqueuedAt time.Time `json:"enqueuedAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// Tracker receives job transitions from workers.
type Tracker interface {
	Running(jobID string)
	Done(jobID, reportID string)
	Failed(jobID string, err error)
}

const defaultStatusLimit = 10_000

// StatusBoard keeps job statuses in memory. When full, the oldest finished
// job is forgotten first.
type StatusBoard struct {
	mu    sync.RWMutex
	jobs  map[string]*JobStatus
	order []string
	limit int
	now   func() time.Time
}

// NewStatusBoard returns a board holding up to limit jobs (default 10000).
func NewStatusBoard(limit int) *StatusBoard {
	if limit <= 0 {
		limit = defaultStatusLimit
	}
	return &StatusBoard{jobs: make(map[string]*JobStatus), limit: limit, now: time.Now}
}

// Queued registers a freshly enqueued job.
func (b *StatusBoard) Queued(j queue.Job) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.jobs[j.ID]; !ok {
		b.order = append(b.order, j.ID)
	}
	b.jobs[j.ID] = &JobStatus{
		ID:         j.ID,
		SubjectID:  j.SubjectID,
		State:      JobQueued,
		EnqueuedAt: j.EnqueuedAt,
		UpdatedAt:  b.now(),
	}
	b.evict()
}

// Forget drops a job, used when enqueueing fails after registration.
func (b *StatusBoard) Forget(jobID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.jobs, jobID)
	for i, id := range b.order {
		if id == jobID {
			b.order = append(b.order[:i], b.order[i+1:]...)
			break
		}
	}
}

// Running implements Tracker.
func (b *StatusBoard) Running(jobID string) {
	b.update(jobID, func(s *JobStatus) { s.State = JobRunning })
}

// Done implements Tracker.
func (b *StatusBoard) Done(jobID, reportID string) {
	b.update(jobID, func(s *JobStatus) {
		s.State = JobDone
		s.ReportID = reportID
	})
}

// Failed implements Tracker.
func (b *StatusBoard) Failed(jobID string, err error) {
	b.update(jobID, func(s *JobStatus) {
		s.State = JobFailed
		if err != nil {
			s.Error = err.Error()
		}
	})
}

// Get returns a copy of a job status.
func (b *StatusBoard) Get(jobID string) (JobStatus, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	s, ok := b.jobs[jobID]
	if !ok {
		return JobStatus{}, false
	}
	return *s, true
}

// Counts returns the number of jobs per state.
func (b *StatusBoard) Counts() map[JobState]int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := map[JobState]int{JobQueued: 0, JobRunning: 0, JobDone: 0, JobFailed: 0}
	for _, s := range b.jobs {
		out[s.State]++
	}
	return out
}

func (b *StatusBoard) update(jobID string, fn func(*JobStatus)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	s, ok := b.jobs[jobID]
	if !ok {
		return
	}
	fn(s)
	s.UpdatedAt = b.now()
}

// evict assumes the lock is held. Unfinished jobs are never dropped.
func (b *StatusBoard) evict() {
	for i := 0; len(b.jobs) > b.limit && i < len(b.order); {
		id := b.order[i]
		s, ok := b.jobs[id]
		if ok && (s.State == JobQueued || s.State == JobRunning) {
			i++
			continue
		}
		delete(b.jobs, id)
		b.order = append(b.order[:i], b.order[i+1:]...)
	}
}
