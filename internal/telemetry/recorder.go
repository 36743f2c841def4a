// Package telemetry provides the observation sink the engine emits
// counters and latency samples to. The external metrics collaborator
// scrapes the recorder; the engine itself only ever writes to it.
package telemetry

import (
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"
)

// Labels are the dimensions attached to an observation, e.g.
// {"type": "panel_plan"} or {"operation": "generate_text"}.
type Labels map[string]string

// Recorder receives observations from the engine.
// Version: 1.0
type Recorder interface {
	// IncrCounter adds delta to the named counter with the given labels.
	IncrCounter(name string, labels Labels, delta int64)

	// ObserveLatency records one latency sample for the named operation.
	ObserveLatency(name string, labels Labels, d time.Duration)
}

// NopRecorder discards all observations. Useful as a default when no
// telemetry collaborator is wired.
type NopRecorder struct{}

// IncrCounter implements Recorder.
func (NopRecorder) IncrCounter(string, Labels, int64) {}

// ObserveLatency implements Recorder.
func (NopRecorder) ObserveLatency(string, Labels, time.Duration) {}

// MemoryRecorder is a mutex-guarded in-memory Recorder. It backs tests
// and the process-local snapshot endpoint external collaborators read.
type MemoryRecorder struct {
	mu        sync.Mutex
	counters  map[string]int64
	latencies map[string][]time.Duration
	logger    *slog.Logger
}

// NewMemoryRecorder creates an empty MemoryRecorder.
// If logger is nil, a default logger will be used.
func NewMemoryRecorder(logger *slog.Logger) *MemoryRecorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &MemoryRecorder{
		counters:  make(map[string]int64),
		latencies: make(map[string][]time.Duration),
		logger:    logger.With(slog.String("component", "telemetry")),
	}
}

// IncrCounter implements Recorder.
func (r *MemoryRecorder) IncrCounter(name string, labels Labels, delta int64) {
	key := seriesKey(name, labels)
	r.mu.Lock()
	r.counters[key] += delta
	r.mu.Unlock()

	r.logger.Debug("counter observation",
		slog.String("series", key),
		slog.Int64("delta", delta))
}

// ObserveLatency implements Recorder.
func (r *MemoryRecorder) ObserveLatency(name string, labels Labels, d time.Duration) {
	key := seriesKey(name, labels)
	r.mu.Lock()
	r.latencies[key] = append(r.latencies[key], d)
	r.mu.Unlock()
}

// CounterValue returns the current value of the series, or 0 if absent.
func (r *MemoryRecorder) CounterValue(name string, labels Labels) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.counters[seriesKey(name, labels)]
}

// LatencyCount returns how many samples the series has recorded.
func (r *MemoryRecorder) LatencyCount(name string, labels Labels) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.latencies[seriesKey(name, labels)])
}

// Snapshot returns a copy of all counter series.
func (r *MemoryRecorder) Snapshot() map[string]int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]int64, len(r.counters))
	for k, v := range r.counters {
		out[k] = v
	}
	return out
}

// seriesKey builds a stable series identifier from the name and sorted labels.
func seriesKey(name string, labels Labels) string {
	if len(labels) == 0 {
		return name
	}
	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(name)
	for _, k := range keys {
		b.WriteByte('{')
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(labels[k])
		b.WriteByte('}')
	}
	return b.String()
}
