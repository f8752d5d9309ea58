package health

import (
	"log"
	"sync"
	"time"
)

const (
	// sampleCapacity bounds the duration ring buffer.
	sampleCapacity = 10
	// degradedAverage is the rolling-average threshold for the slow warning.
	degradedAverage = 60 * time.Second
	// missEscalation is how many consecutive misses are tolerated before
	// the escalation signal fires.
	missEscalation = 3
)

// Monitor tracks the monitoring engine's own execution health. It is the
// only state shared across scheduler timers, so every access goes through
// the mutex.
type Monitor struct {
	mu                sync.Mutex
	samples           [sampleCapacity]time.Duration
	next              int
	count             int
	lastExecution     time.Time
	consecutiveMisses int
}

// Snapshot is a point-in-time read of the monitor state, safe to hand to a
// health endpoint.
type Snapshot struct {
	LastExecution     time.Time `json:"lastExecution"`
	ConsecutiveMisses int       `json:"consecutiveMisses"`
	AverageDurationMs int64     `json:"averageDurationMs"`
	SampleCount       int       `json:"sampleCount"`
}

func NewMonitor() *Monitor {
	return &Monitor{}
}

// RecordExecution records a completed run that started at start. It resets
// the miss counter and warns when the rolling average degrades. The warning
// is advisory only.
func (m *Monitor) RecordExecution(start time.Time) {
	elapsed := time.Since(start)

	m.mu.Lock()
	m.samples[m.next] = elapsed
	m.next = (m.next + 1) % sampleCapacity
	if m.count < sampleCapacity {
		m.count++
	}
	m.lastExecution = time.Now()
	m.consecutiveMisses = 0
	avg := m.average()
	m.mu.Unlock()

	if avg > degradedAverage {
		log.Printf("health: system checks degraded, rolling average %v over last %d runs", avg, sampleCapacity)
	}
}

// RecordMiss counts a scheduled run that failed or never completed. Past
// the tolerance it escalates on every further miss; like the degradation
// warning, it never blocks anything.
func (m *Monitor) RecordMiss() {
	m.mu.Lock()
	m.consecutiveMisses++
	misses := m.consecutiveMisses
	m.mu.Unlock()

	if misses > missEscalation {
		log.Printf("health: %d consecutive missed runs, scheduler may be stalled or overloaded", misses)
	}
}

// GetSnapshot returns the current health state.
func (m *Monitor) GetSnapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	return Snapshot{
		LastExecution:     m.lastExecution,
		ConsecutiveMisses: m.consecutiveMisses,
		AverageDurationMs: m.average().Milliseconds(),
		SampleCount:       m.count,
	}
}

// average computes the rolling mean over buffered samples. Caller holds mu.
func (m *Monitor) average() time.Duration {
	if m.count == 0 {
		return 0
	}
	var total time.Duration
	for i := 0; i < m.count; i++ {
		total += m.samples[i]
	}
	return total / time.Duration(m.count)
}
