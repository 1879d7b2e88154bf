package proxy

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	"montage/internal/faults"
	"montage/internal/fileutil"
	"montage/internal/logging"
	"montage/internal/transcode"
)

// State is the queue's lifecycle position.
type State int

const (
	StateIdle State = iota
	StateRunning
	StatePaused
	StateCancelled
	StateCompleted
)

func (s State) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StatePaused:
		return "paused"
	case StateCancelled:
		return "cancelled"
	case StateCompleted:
		return "completed"
	default:
		return "idle"
	}
}

// Hooks receive queue lifecycle notifications. All callbacks are invoked
// outside the queue's lock and may call back into the queue. Nil callbacks
// are skipped.
type Hooks struct {
	Started   func()
	Paused    func()
	Cancelled func()
	Completed func()
	JobDone   func(*Job)
	JobFailed func(*Job, error)
}

// Queue runs proxy jobs sequentially against a transcode engine. One worker
// goroutine owns the active encode; control methods adjust state and signal
// the worker through the engine handle.
type Queue struct {
	engine transcode.Engine
	logger *logging.Logger
	hooks  Hooks

	mu     sync.Mutex
	state  State
	jobs   []*Job
	idx    int
	active transcode.Handle
	cancel context.CancelFunc
	done   chan struct{}
}

// NewQueue constructs an idle queue.
func NewQueue(engine transcode.Engine, logger *logging.Logger, hooks Hooks) *Queue {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Queue{engine: engine, logger: logger, hooks: hooks, state: StateIdle}
}

// Start begins working through jobs. Starting a paused queue resumes the
// active encode instead of building a new job list; starting a running queue
// is an error. An empty job list completes immediately.
func (q *Queue) Start(ctx context.Context, jobs []*Job) error {
	q.mu.Lock()
	switch q.state {
	case StateRunning:
		q.mu.Unlock()
		return faults.Wrap(faults.ErrState, "queue", "start", "already running", nil)
	case StatePaused:
		active := q.active
		q.state = StateRunning
		q.mu.Unlock()
		if active != nil {
			if err := active.Resume(); err != nil {
				return faults.Wrap(faults.ErrTranscode, "queue", "start", "resume encode", err)
			}
		}
		q.emit(q.hooks.Started)
		return nil
	}

	if len(jobs) == 0 {
		q.state = StateCompleted
		q.mu.Unlock()
		q.emit(q.hooks.Completed)
		return nil
	}

	runCtx, cancel := context.WithCancel(ctx)
	q.jobs = jobs
	q.idx = 0
	q.state = StateRunning
	q.cancel = cancel
	q.done = make(chan struct{})
	q.mu.Unlock()

	q.logger.Info("proxy queue started", logging.Int("jobs", len(jobs)))
	q.emit(q.hooks.Started)
	go q.run(runCtx)
	return nil
}

// Append adds a job to a running queue. It fails when the queue is not
// actively working, since an idle queue takes its jobs from Start.
func (q *Queue) Append(job *Job) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.state != StateRunning && q.state != StatePaused {
		return faults.Wrap(faults.ErrState, "queue", "append", "queue is not running", nil)
	}
	q.jobs = append(q.jobs, job)
	return nil
}

// Pause suspends the active encode. It fails when nothing is encoding.
func (q *Queue) Pause() error {
	q.mu.Lock()
	if q.state != StateRunning || q.active == nil {
		q.mu.Unlock()
		return faults.Wrap(faults.ErrState, "queue", "pause", "nothing to pause", nil)
	}
	active := q.active
	q.state = StatePaused
	q.mu.Unlock()

	if err := active.Pause(); err != nil {
		q.mu.Lock()
		q.state = StateRunning
		q.mu.Unlock()
		return faults.Wrap(faults.ErrTranscode, "queue", "pause", "pause encode", err)
	}
	q.emit(q.hooks.Paused)
	return nil
}

// Cancel tears the queue down, discarding the active partial output. It is a
// no-op on an idle or completed queue and emits the cancellation notification
// exactly once.
func (q *Queue) Cancel() error {
	q.mu.Lock()
	if q.state == StateIdle || q.state == StateCompleted || q.state == StateCancelled {
		q.mu.Unlock()
		return nil
	}
	q.state = StateCancelled
	active := q.active
	cancel := q.cancel
	done := q.done
	q.mu.Unlock()

	if active != nil {
		_ = active.Close()
	}
	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
	q.emit(q.hooks.Cancelled)
	return nil
}

// State returns the queue's current lifecycle position.
func (q *Queue) State() State {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.state
}

// Jobs returns a snapshot of the job list with current progress.
func (q *Queue) Jobs() []Job {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]Job, len(q.jobs))
	for i, job := range q.jobs {
		out[i] = *job
	}
	return out
}

// Wait blocks until the worker goroutine exits. It returns immediately when
// no run was started.
func (q *Queue) Wait() {
	q.mu.Lock()
	done := q.done
	q.mu.Unlock()
	if done != nil {
		<-done
	}
}

func (q *Queue) run(ctx context.Context) {
	q.mu.Lock()
	done := q.done
	q.mu.Unlock()
	defer close(done)

	for {
		q.mu.Lock()
		if q.state == StateCancelled {
			q.mu.Unlock()
			return
		}
		if q.idx >= len(q.jobs) {
			q.state = StateCompleted
			q.active = nil
			q.mu.Unlock()
			q.logger.Info("proxy queue completed")
			q.emit(q.hooks.Completed)
			return
		}
		job := q.jobs[q.idx]
		q.mu.Unlock()

		err := q.runJob(ctx, job)

		q.mu.Lock()
		cancelled := q.state == StateCancelled
		q.idx++
		q.mu.Unlock()
		if cancelled {
			return
		}
		if err != nil {
			q.logger.Error("proxy job failed",
				logging.String(logging.FieldJobID, job.ID),
				logging.String(logging.FieldAssetID, job.SourceID),
				logging.Error(err))
			q.emitJobFailed(job, err)
			continue
		}
		q.logger.Info("proxy job finished",
			logging.String(logging.FieldJobID, job.ID),
			logging.String(logging.FieldAssetID, job.SourceID))
		q.emitJobDone(job)
	}
}

func (q *Queue) runJob(ctx context.Context, job *Job) error {
	working, err := WorkingPath(job.OutputID)
	if err != nil {
		return faults.Wrap(faults.ErrTranscode, "queue", "encode", "derive working path", err)
	}
	if err := os.MkdirAll(filepath.Dir(working), 0o755); err != nil {
		return faults.Wrap(faults.ErrTranscode, "queue", "encode", "create output directory", err)
	}

	handle, err := q.engine.Start(ctx, job.SourceID, fileutil.URIFromPath(working), job.Profile)
	if err != nil {
		return faults.Wrap(faults.ErrTranscode, "queue", "encode", "start engine", err)
	}
	q.setActive(handle)
	defer func() {
		q.setActive(nil)
		_ = handle.Close()
	}()

	for event := range handle.Events() {
		switch event.Type {
		case transcode.EventProgress:
			q.setPercent(job, event.Percent)
		case transcode.EventEOS:
			final, err := fileutil.PathFromURI(job.OutputID)
			if err != nil {
				return faults.Wrap(faults.ErrTranscode, "queue", "encode", "derive output path", err)
			}
			if err := os.Rename(working, final); err != nil {
				return faults.Wrap(faults.ErrTranscode, "queue", "encode", "publish output", err)
			}
			q.setPercent(job, 100)
			return nil
		case transcode.EventError:
			_ = os.Remove(working)
			return faults.Wrap(faults.ErrTranscode, "queue", "encode", job.SourceID, event.Err)
		}
	}
	// The handle was torn down before a terminal event arrived.
	_ = os.Remove(working)
	return faults.Wrap(faults.ErrTranscode, "queue", "encode", "encode interrupted", nil)
}

func (q *Queue) setActive(h transcode.Handle) {
	q.mu.Lock()
	q.active = h
	q.mu.Unlock()
}

func (q *Queue) setPercent(job *Job, percent float64) {
	q.mu.Lock()
	job.Percent = percent
	q.mu.Unlock()
}

func (q *Queue) emit(fn func()) {
	if fn != nil {
		fn()
	}
}

func (q *Queue) emitJobDone(job *Job) {
	if q.hooks.JobDone != nil {
		q.hooks.JobDone(job)
	}
}

func (q *Queue) emitJobFailed(job *Job, err error) {
	if q.hooks.JobFailed != nil {
		q.hooks.JobFailed(job, err)
	}
}
