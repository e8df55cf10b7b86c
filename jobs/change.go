package jobs

import "github.com/Blessan-Alex/MalRag/core"

// Change is one field of a partial job update.
type Change func(*patch)

type patch struct {
	status   *core.JobStatus
	step     *core.JobStep
	progress *int
	message  *string
}

// WithStatus sets the job status.
func WithStatus(status core.JobStatus) Change {
	return func(p *patch) { p.status = &status }
}

// WithStep sets the job step.
func WithStep(step core.JobStep) Change {
	return func(p *patch) { p.step = &step }
}

// WithProgress sets the job progress. Values are clamped to 0-100 and a
// value lower than the current progress is ignored.
func WithProgress(progress int) Change {
	return func(p *patch) { p.progress = &progress }
}

// WithMessage sets the job message.
func WithMessage(message string) Change {
	return func(p *patch) { p.message = &message }
}

// apply writes the patch to job and restores the lifecycle rules.
func (p *patch) apply(job *core.Job) {
	if p.status != nil {
		job.Status = *p.status
	}
	if p.step != nil {
		job.Step = *p.step
	}
	if p.progress != nil {
		progress := min(max(*p.progress, 0), 100)
		if progress > job.Progress {
			job.Progress = progress
		}
	}
	if p.message != nil {
		job.Message = *p.message
	}

	switch job.Status {
	case core.JobStatusCompleted:
		job.Step = core.JobStepReady
		job.Progress = 100
	case core.JobStatusFailed:
		job.Progress = 0
	}
}
