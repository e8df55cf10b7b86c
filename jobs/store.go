package jobs

import (
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Blessan-Alex/MalRag/core"
)

const (
	// CreatedMessage is the message of a freshly created job.
	CreatedMessage = "File uploaded, waiting for processing..."
	// CompletedMessage is the default message when a job completes.
	CompletedMessage = "File processed and ready for chat."
)

// Observer is notified with a copy of a job after each applied mutation.
// Observers for a single store are called one at a time, in mutation
// order, and must not block.
type Observer func(job core.Job)

// Store is a thread-safe registry of jobs keyed by ID.
//
// Mutators hold notifyMu for their whole duration and take mu only around
// the map access. Lock order is always notifyMu then mu.
type Store struct {
	mu        sync.RWMutex
	jobs      map[string]*core.Job
	notifyMu  sync.Mutex
	observers []Observer
	now       func() time.Time
	logger    *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithObserver registers fn to receive job updates.
func WithObserver(fn Observer) Option {
	return func(s *Store) {
		s.observers = append(s.observers, fn)
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// WithClock overrides the time source used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// NewStore creates an empty job store.
func NewStore(opts ...Option) *Store {
	s := &Store{
		jobs:   make(map[string]*core.Job),
		now:    time.Now,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "jobs")
	return s
}

// Observe registers fn after construction. It is used by components that
// are built after the store, such as the websocket hub.
func (s *Store) Observe(fn Observer) {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()
	s.observers = append(s.observers, fn)
}

// Create registers a new queued job for filename and returns its ID.
func (s *Store) Create(filename string) string {
	now := s.now()
	job := &core.Job{
		ID:        uuid.New().String(),
		Filename:  filename,
		Status:    core.JobStatusQueued,
		Step:      core.JobStepUploaded,
		Progress:  0,
		Message:   CreatedMessage,
		CreatedAt: now,
		UpdatedAt: now,
	}

	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	s.jobs[job.ID] = job
	snapshot := *job
	s.mu.Unlock()
	s.notify(snapshot)

	s.logger.Debug("job created", "job", job.ID, "filename", filename)
	return job.ID
}

// Update applies changes to the job with the given ID. It returns false
// when the job is unknown or already terminal; in both cases nothing
// changes.
func (s *Store) Update(id string, changes ...Change) bool {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	job, ok := s.jobs[id]
	if !ok || job.Status.Terminal() {
		s.mu.Unlock()
		if !ok {
			s.logger.Debug("update for unknown job ignored", "job", id)
		}
		return false
	}

	var patch patch
	for _, c := range changes {
		c(&patch)
	}
	patch.apply(job)
	job.UpdatedAt = s.now()

	snapshot := *job
	s.mu.Unlock()
	s.notify(snapshot)
	return true
}

// MarkFailed moves a job to failed with reason as its message. Progress is
// reset to 0 and the step is left where the failure happened. Unknown or
// terminal jobs are left untouched.
func (s *Store) MarkFailed(id, reason string) bool {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	job, ok := s.jobs[id]
	if !ok || job.Status.Terminal() {
		s.mu.Unlock()
		return false
	}

	job.Status = core.JobStatusFailed
	job.Progress = 0
	job.Message = reason
	job.UpdatedAt = s.now()

	snapshot := *job
	s.mu.Unlock()
	s.notify(snapshot)

	s.logger.Info("job failed", "job", id, "reason", reason)
	return true
}

// Get returns a copy of the job, or core.ErrJobNotFound.
func (s *Store) Get(id string) (*core.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, ok := s.jobs[id]
	if !ok {
		return nil, core.ErrJobNotFound
	}
	snapshot := *job
	return &snapshot, nil
}

// List returns copies of all jobs, newest first.
func (s *Store) List() []core.Job {
	s.mu.RLock()
	out := make([]core.Job, 0, len(s.jobs))
	for _, job := range s.jobs {
		out = append(out, *job)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

// Counts returns the number of jobs per status.
func (s *Store) Counts() map[core.JobStatus]int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[core.JobStatus]int, 4)
	for _, job := range s.jobs {
		counts[job.Status]++
	}
	return counts
}

// notify must be called with notifyMu held and mu released, so observers
// may read the store.
func (s *Store) notify(job core.Job) {
	for _, fn := range s.observers {
		fn(job)
	}
}
