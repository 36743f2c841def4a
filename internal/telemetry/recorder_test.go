package telemetry

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMemoryRecorder_Counters(t *testing.T) {
	r := NewMemoryRecorder(nil)

	r.IncrCounter("model_calls", Labels{"operation": "generate_text"}, 1)
	r.IncrCounter("model_calls", Labels{"operation": "generate_text"}, 2)
	r.IncrCounter("model_calls", Labels{"operation": "generate_image"}, 1)

	assert.Equal(t, int64(3), r.CounterValue("model_calls", Labels{"operation": "generate_text"}))
	assert.Equal(t, int64(1), r.CounterValue("model_calls", Labels{"operation": "generate_image"}))
	assert.Equal(t, int64(0), r.CounterValue("model_calls", Labels{"operation": "missing"}))
}

func TestMemoryRecorder_Latencies(t *testing.T) {
	r := NewMemoryRecorder(nil)

	r.ObserveLatency("model_call_duration", Labels{"operation": "generate_text"}, 120*time.Millisecond)
	r.ObserveLatency("model_call_duration", Labels{"operation": "generate_text"}, 80*time.Millisecond)

	assert.Equal(t, 2, r.LatencyCount("model_call_duration", Labels{"operation": "generate_text"}))
	assert.Equal(t, 0, r.LatencyCount("model_call_duration", Labels{"operation": "generate_image"}))
}

func TestMemoryRecorder_ConcurrentAccess(t *testing.T) {
	r := NewMemoryRecorder(nil)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.IncrCounter("artifacts_created", Labels{"type": "panel_plan"}, 1)
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(20), r.CounterValue("artifacts_created", Labels{"type": "panel_plan"}))
}

func TestNopRecorder_DoesNothing(t *testing.T) {
	var r Recorder = NopRecorder{}

	// Must not panic.
	r.IncrCounter("anything", nil, 1)
	r.ObserveLatency("anything", nil, time.Second)
}
