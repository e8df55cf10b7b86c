// Package progress renders ingestion job progress on a terminal.
package progress

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/Blessan-Alex/MalRag/core"
)

// Reporter follows a fixed number of jobs through the store and prints a
// single status line that is rewritten in place.
// Its Observe method is a jobs.Observer.
type Reporter struct {
	writer    io.Writer
	total     int
	finished  map[string]core.Job
	startTime time.Time
	started   bool
	done      chan struct{}
	closed    bool
	mu        sync.Mutex
}

// NewReporter creates a reporter expecting total jobs.
// writer is typically os.Stderr.
func NewReporter(writer io.Writer, total int) *Reporter {
	return &Reporter{
		writer:   writer,
		total:    total,
		finished: make(map[string]core.Job),
		done:     make(chan struct{}),
	}
}

// Start begins tracking progress.
func (r *Reporter) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.startTime = time.Now()
	r.started = true
	if r.total <= 0 {
		r.close()
	}
}

// Observe records a job snapshot. Snapshots received before Start are ignored.
func (r *Reporter) Observe(job core.Job) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.started {
		return
	}

	if job.Status.Terminal() {
		r.finished[job.ID] = job
	}
	r.report(job)

	if len(r.finished) >= r.total {
		r.close()
	}
}

// Done is closed once every expected job has reached a terminal status.
func (r *Reporter) Done() <-chan struct{} {
	return r.done
}

// Failed returns the jobs that ended in failure.
func (r *Reporter) Failed() []core.Job {
	r.mu.Lock()
	defer r.mu.Unlock()

	var failed []core.Job
	for _, job := range r.finished {
		if job.Status == core.JobStatusFailed {
			failed = append(failed, job)
		}
	}
	return failed
}

// Finish prints a summary line.
func (r *Reporter) Finish() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.started {
		return
	}

	failed := 0
	for _, job := range r.finished {
		if job.Status == core.JobStatusFailed {
			failed++
		}
	}
	fmt.Fprintf(r.writer, "\nIngested %d/%d files (%d failed) in %s\n",
		len(r.finished)-failed, r.total, failed, time.Since(r.startTime).Round(time.Millisecond))
}

// Elapsed returns the time elapsed since Start was called.
func (r *Reporter) Elapsed() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.started {
		return 0
	}

	return time.Since(r.startTime)
}

// report prints the latest job state. Must be called with lock held.
func (r *Reporter) report(job core.Job) {
	fmt.Fprintf(r.writer, "\r[%d/%d] %s: %s (%d%%)\033[K",
		len(r.finished), r.total, job.Filename, job.Message, job.Progress)
}

// close must be called with lock held.
func (r *Reporter) close() {
	if !r.closed {
		r.closed = true
		close(r.done)
	}
}
