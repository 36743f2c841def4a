// Package task provides the in-process job queue behind the asynchronous
// pipeline endpoints. A single worker drains a FIFO queue so at most one
// pipeline invocation runs at a time; job state lives in a mutex-guarded
// in-memory table for the life of the process.
package task
