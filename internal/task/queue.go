package task

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/panelworks/panelgen-api/internal/domain"
)

// Common errors returned by the Queue
var (
	ErrQueueClosed    = errors.New("job queue is closed")
	ErrQueueFull      = errors.New("job queue is full")
	ErrJobNotFound    = errors.New("job not found")
	ErrJobTerminal    = errors.New("job already in a terminal state")
	ErrUnknownJobType = errors.New("no handler registered for job type")
)

// Handler executes one job and returns its JSON result. The context is
// cancelled only when the queue shuts down; cancelling a running job
// never touches it, so a handler always runs to completion.
type Handler func(ctx context.Context, job *domain.JobRecord) (json.RawMessage, error)

// QueueConfig holds configuration for the job queue.
type QueueConfig struct {
	// QueueSize determines the buffer size of the FIFO queue. Enqueue
	// fails with ErrQueueFull once the buffer is exhausted.
	QueueSize int
}

// DefaultQueueConfig returns a QueueConfig with reasonable defaults.
func DefaultQueueConfig() QueueConfig {
	return QueueConfig{QueueSize: 100}
}

// Queue is the in-process, single-worker job queue. Jobs are processed
// strictly in enqueue order; records are held in memory only and do not
// survive a restart.
type Queue struct {
	mu       sync.Mutex
	jobs     map[uuid.UUID]*domain.JobRecord
	handlers map[domain.JobType]Handler
	closed   bool

	pending    chan uuid.UUID
	ctx        context.Context
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
	logger     *slog.Logger
}

// NewQueue creates a job queue. Register handlers before calling Start.
func NewQueue(config QueueConfig, logger *slog.Logger) *Queue {
	if config.QueueSize <= 0 {
		config.QueueSize = DefaultQueueConfig().QueueSize
	}
	if logger == nil {
		logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Queue{
		jobs:       make(map[uuid.UUID]*domain.JobRecord),
		handlers:   make(map[domain.JobType]Handler),
		pending:    make(chan uuid.UUID, config.QueueSize),
		ctx:        ctx,
		cancelFunc: cancel,
		logger:     logger.With(slog.String("component", "job_queue")),
	}
}

// Register binds a handler to a job type. Enqueue rejects job types with
// no registered handler.
func (q *Queue) Register(jobType domain.JobType, handler Handler) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.handlers[jobType] = handler
}

// Start launches the single worker goroutine.
func (q *Queue) Start() {
	q.wg.Add(1)
	go q.worker()
}

// Stop shuts the queue down: no further submissions are accepted, the
// running job's context is cancelled, and Stop blocks until the worker
// exits. Queued jobs that never ran stay queued in the table.
func (q *Queue) Stop() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()

	q.cancelFunc()
	q.wg.Wait()
}

// Enqueue creates a queued job and appends it to the FIFO queue. When
// requestID is non-empty and a job with the same request ID already
// exists, that existing record is returned instead of a duplicate job.
func (q *Queue) Enqueue(jobType domain.JobType, payload json.RawMessage, requestID string) (*domain.JobRecord, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil, ErrQueueClosed
	}
	if _, ok := q.handlers[jobType]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownJobType, jobType)
	}

	if requestID != "" {
		for _, existing := range q.jobs {
			if existing.RequestID == requestID {
				return existing.Clone(), nil
			}
		}
	}

	job := domain.NewJobRecord(jobType, payload, requestID)

	select {
	case q.pending <- job.ID:
	default:
		return nil, fmt.Errorf("%w: queue capacity %d reached", ErrQueueFull, cap(q.pending))
	}

	q.jobs[job.ID] = job
	q.logger.Debug("job enqueued",
		slog.String("job_id", job.ID.String()),
		slog.String("job_type", string(job.Type)),
		slog.Int("queue_len", len(q.pending)))

	return job.Clone(), nil
}

// Get returns a snapshot of the job record.
func (q *Queue) Get(id uuid.UUID) (*domain.JobRecord, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	job, ok := q.jobs[id]
	if !ok {
		return nil, ErrJobNotFound
	}
	return job.Clone(), nil
}

// List returns snapshots of all job records ordered by creation time.
func (q *Queue) List() []*domain.JobRecord {
	q.mu.Lock()
	defer q.mu.Unlock()

	records := make([]*domain.JobRecord, 0, len(q.jobs))
	for _, job := range q.jobs {
		records = append(records, job.Clone())
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].CreatedAt.Before(records[j].CreatedAt)
	})
	return records
}

// Cancel requests cancellation of a job. A queued job moves to cancelled
// immediately and is skipped when the worker reaches it. For a running
// job the request is only recorded: no preemption is attempted, the job
// runs to completion and still finishes succeeded or failed. Terminal
// jobs return ErrJobTerminal.
func (q *Queue) Cancel(id uuid.UUID) (*domain.JobRecord, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	job, ok := q.jobs[id]
	if !ok {
		return nil, ErrJobNotFound
	}

	switch job.Status {
	case domain.JobStatusQueued:
		job.Status = domain.JobStatusCancelled
		job.CancelRequested = true
		job.UpdatedAt = time.Now().UTC()
	case domain.JobStatusRunning:
		job.CancelRequested = true
		job.UpdatedAt = time.Now().UTC()
	default:
		return nil, fmt.Errorf("%w: %s", ErrJobTerminal, job.Status)
	}

	return job.Clone(), nil
}

// SetProgress updates the free-form progress note of a running job.
// Handlers call it between pipeline stages.
func (q *Queue) SetProgress(id uuid.UUID, progress string) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if job, ok := q.jobs[id]; ok && job.Status == domain.JobStatusRunning {
		job.Progress = progress
		job.UpdatedAt = time.Now().UTC()
	}
}

// worker drains the FIFO queue one job at a time.
func (q *Queue) worker() {
	defer q.wg.Done()

	q.logger.Debug("starting worker")
	for {
		select {
		case <-q.ctx.Done():
			q.logger.Debug("stopping worker")
			return
		case id := <-q.pending:
			q.processJob(id)
		}
	}
}

// processJob transitions one job through running to a terminal state.
func (q *Queue) processJob(id uuid.UUID) {
	q.mu.Lock()
	job, ok := q.jobs[id]
	if !ok || job.Status != domain.JobStatusQueued {
		// Cancelled while queued, or already handled.
		q.mu.Unlock()
		return
	}

	job.Status = domain.JobStatusRunning
	job.UpdatedAt = time.Now().UTC()
	handler := q.handlers[job.Type]
	snapshot := job.Clone()
	q.mu.Unlock()

	logger := q.logger.With(
		slog.String("job_id", job.ID.String()),
		slog.String("job_type", string(job.Type)))
	logger.Info("processing job")

	result, err := handler(q.ctx, snapshot)

	q.mu.Lock()
	defer q.mu.Unlock()
	job.UpdatedAt = time.Now().UTC()

	// A job that started running finishes succeeded or failed, even when
	// cancellation was requested mid-run.
	if err != nil {
		job.Status = domain.JobStatusFailed
		job.Error = err.Error()
		logger.Error("job execution failed", slog.String("error", err.Error()))
		return
	}
	job.Status = domain.JobStatusSucceeded
	job.Result = result
	logger.Info("job completed successfully")
}
