package domain

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// JobStatus represents the current state of an asynchronous job.
type JobStatus string

// Possible job status values. The last three are terminal.
const (
	JobStatusQueued    JobStatus = "queued"
	JobStatusRunning   JobStatus = "running"
	JobStatusSucceeded JobStatus = "succeeded"
	JobStatusFailed    JobStatus = "failed"
	JobStatusCancelled JobStatus = "cancelled"
)

// JobType identifies which pipeline entry point a job runs.
type JobType string

// Job type constants, one per asynchronously runnable operation.
const (
	JobTypePlanning JobType = "pipeline_planning"
	JobTypeRender   JobType = "pipeline_render"
	JobTypeFull     JobType = "pipeline_full"
	JobTypeQC       JobType = "pipeline_qc"
	JobTypeDialogue JobType = "pipeline_dialogue"
)

// Common validation errors for JobRecord
var (
	ErrEmptyJobID       = errors.New("job ID cannot be empty")
	ErrInvalidJobStatus = errors.New("invalid job status")
)

// JobRecord tracks one asynchronous pipeline invocation for the life of
// the process. It is created on enqueue and mutated only by the queue's
// single worker, except CancelRequested which cancellation callers set.
type JobRecord struct {
	ID              uuid.UUID       `json:"id"`
	Type            JobType         `json:"type"`
	Status          JobStatus       `json:"status"`
	Payload         json.RawMessage `json:"payload,omitempty"`
	RequestID       string          `json:"request_id,omitempty"`
	Result          json.RawMessage `json:"result,omitempty"`
	Error           string          `json:"error,omitempty"`
	Progress        string          `json:"progress,omitempty"`
	CancelRequested bool            `json:"cancel_requested"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// NewJobRecord creates a queued JobRecord for the given type and payload.
func NewJobRecord(jobType JobType, payload json.RawMessage, requestID string) *JobRecord {
	now := time.Now().UTC()
	return &JobRecord{
		ID:        uuid.New(),
		Type:      jobType,
		Status:    JobStatusQueued,
		Payload:   payload,
		RequestID: requestID,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// IsTerminal reports whether the status is one of the terminal states.
func (s JobStatus) IsTerminal() bool {
	switch s {
	case JobStatusSucceeded, JobStatusFailed, JobStatusCancelled:
		return true
	default:
		return false
	}
}

// Clone returns a snapshot copy of the record so readers never share
// memory with the worker's mutable row.
func (j *JobRecord) Clone() *JobRecord {
	cp := *j
	if j.Payload != nil {
		cp.Payload = append(json.RawMessage(nil), j.Payload...)
	}
	if j.Result != nil {
		cp.Result = append(json.RawMessage(nil), j.Result...)
	}
	return &cp
}
