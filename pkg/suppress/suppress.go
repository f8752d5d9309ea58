package suppress

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "alert_suppress"

// Suppressor keeps a per-(type, entity) mute window in Redis so scan jobs
// do not re-raise the same condition on every cadence. It fails open: if
// Redis is unreachable the alert is raised rather than dropped.
type Suppressor struct {
	client *redis.Client
	window time.Duration
}

func New(addr, password string, window time.Duration) *Suppressor {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
	})
	return NewWithClient(client, window)
}

func NewWithClient(client *redis.Client, window time.Duration) *Suppressor {
	return &Suppressor{
		client: client,
		window: window,
	}
}

// Allow reports whether an alert for this (type, key) pair should be raised
// now. The first caller inside a window wins and opens it; later callers
// are suppressed until it lapses.
func (s *Suppressor) Allow(alertType, key string) bool {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	redisKey := fmt.Sprintf("%s:%s:%s", keyPrefix, alertType, key)
	ok, err := s.client.SetNX(ctx, redisKey, 1, s.window).Result()
	if err != nil {
		log.Printf("suppress: redis unavailable, allowing alert %s/%s: %v", alertType, key, err)
		return true
	}
	return ok
}

// Clear drops the window for a pair, so the next scan may raise again.
// Used when an alert is resolved before its window lapses.
func (s *Suppressor) Clear(alertType, key string) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	redisKey := fmt.Sprintf("%s:%s:%s", keyPrefix, alertType, key)
	if err := s.client.Del(ctx, redisKey).Err(); err != nil {
		log.Printf("suppress: failed to clear window %s/%s: %v", alertType, key, err)
	}
}

func (s *Suppressor) Close() error {
	return s.client.Close()
}
