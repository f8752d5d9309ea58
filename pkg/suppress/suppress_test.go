package suppress

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSuppressor(t *testing.T, window time.Duration) (*Suppressor, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	s := NewWithClient(client, window)
	t.Cleanup(func() { s.Close() })

	return s, mr
}

func TestAllowOpensWindow(t *testing.T) {
	s, _ := newTestSuppressor(t, time.Minute)

	assert.True(t, s.Allow("gps_loss", "vehicle-1"))
	assert.False(t, s.Allow("gps_loss", "vehicle-1"), "second raise inside window should be suppressed")
}

func TestWindowsAreIndependentPerPair(t *testing.T) {
	s, _ := newTestSuppressor(t, time.Minute)

	require.True(t, s.Allow("gps_loss", "vehicle-1"))

	assert.True(t, s.Allow("gps_loss", "vehicle-2"), "different entity has its own window")
	assert.True(t, s.Allow("document_expiry", "vehicle-1"), "different type has its own window")
}

func TestWindowLapses(t *testing.T) {
	s, mr := newTestSuppressor(t, time.Minute)

	require.True(t, s.Allow("gps_loss", "vehicle-1"))
	require.False(t, s.Allow("gps_loss", "vehicle-1"))

	mr.FastForward(2 * time.Minute)

	assert.True(t, s.Allow("gps_loss", "vehicle-1"), "window should lapse after TTL")
}

func TestClearReopensImmediately(t *testing.T) {
	s, _ := newTestSuppressor(t, time.Minute)

	require.True(t, s.Allow("gps_loss", "vehicle-1"))
	s.Clear("gps_loss", "vehicle-1")

	assert.True(t, s.Allow("gps_loss", "vehicle-1"))
}

func TestAllowFailsOpenWhenRedisDown(t *testing.T) {
	s, mr := newTestSuppressor(t, time.Minute)
	mr.Close()

	assert.True(t, s.Allow("gps_loss", "vehicle-1"), "suppressor must fail open")
}
