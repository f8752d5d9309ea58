package health

import (
	"bytes"
	"log"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func captureLogOutput(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	log.SetOutput(&buf)
	t.Cleanup(func() { log.SetOutput(os.Stderr) })
	return &buf
}

func TestRecordExecutionTracksState(t *testing.T) {
	m := NewMonitor()

	m.RecordExecution(time.Now().Add(-200 * time.Millisecond))

	snap := m.GetSnapshot()
	assert.Equal(t, 1, snap.SampleCount)
	assert.Equal(t, 0, snap.ConsecutiveMisses)
	assert.False(t, snap.LastExecution.IsZero())
	assert.GreaterOrEqual(t, snap.AverageDurationMs, int64(200))
	assert.Less(t, snap.AverageDurationMs, int64(1000))
}

func TestRingBufferEvictsOldestFirst(t *testing.T) {
	m := NewMonitor()

	// One slow sample followed by ten fast ones; the slow sample must be
	// the one evicted.
	m.RecordExecution(time.Now().Add(-2 * time.Second))
	for i := 0; i < 10; i++ {
		m.RecordExecution(time.Now())
	}

	snap := m.GetSnapshot()
	assert.Equal(t, 10, snap.SampleCount)
	assert.Less(t, snap.AverageDurationMs, int64(100),
		"slow sample should have been evicted from the window")
}

func TestSampleCountNeverExceedsCapacity(t *testing.T) {
	m := NewMonitor()

	for i := 0; i < 25; i++ {
		m.RecordExecution(time.Now())
	}

	assert.Equal(t, 10, m.GetSnapshot().SampleCount)
}

func TestDegradedAverageLogsWarning(t *testing.T) {
	m := NewMonitor()
	buf := captureLogOutput(t)

	m.RecordExecution(time.Now().Add(-2 * time.Minute))

	assert.Contains(t, buf.String(), "system checks degraded")
}

func TestHealthyAverageStaysQuiet(t *testing.T) {
	m := NewMonitor()
	buf := captureLogOutput(t)

	for i := 0; i < 10; i++ {
		m.RecordExecution(time.Now())
	}

	assert.NotContains(t, buf.String(), "degraded")
}

func TestEscalationFiresPerMissPastTolerance(t *testing.T) {
	m := NewMonitor()
	buf := captureLogOutput(t)

	for i := 0; i < 3; i++ {
		m.RecordMiss()
	}
	assert.NotContains(t, buf.String(), "consecutive missed runs",
		"misses within tolerance must not escalate")

	m.RecordMiss()
	assert.Equal(t, 1, strings.Count(buf.String(), "consecutive missed runs"))

	m.RecordMiss()
	assert.Equal(t, 2, strings.Count(buf.String(), "consecutive missed runs"),
		"each miss past the tolerance escalates again")
}

func TestConsecutiveMissesAccumulateAndReset(t *testing.T) {
	m := NewMonitor()

	for i := 0; i < 4; i++ {
		m.RecordMiss()
	}
	assert.Equal(t, 4, m.GetSnapshot().ConsecutiveMisses)

	m.RecordExecution(time.Now())
	assert.Equal(t, 0, m.GetSnapshot().ConsecutiveMisses)
}

func TestConcurrentAccess(t *testing.T) {
	m := NewMonitor()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(3)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				m.RecordExecution(time.Now())
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				m.RecordMiss()
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				_ = m.GetSnapshot()
			}
		}()
	}
	wg.Wait()

	snap := m.GetSnapshot()
	assert.Equal(t, 10, snap.SampleCount)
}
