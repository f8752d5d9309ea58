package cleanup

import (
	"log"
	"time"
)

// AlertRetentionStore is the slice of the alert repository the retention
// job needs.
type AlertRetentionStore interface {
	DeleteResolvedBefore(cutoff time.Time) (int64, error)
}

// RetentionService removes resolved alerts past their retention age. It
// runs as a named job under the scheduler.
type RetentionService struct {
	alerts AlertRetentionStore
	maxAge time.Duration
}

func NewRetentionService(alerts AlertRetentionStore, maxAge time.Duration) *RetentionService {
	return &RetentionService{
		alerts: alerts,
		maxAge: maxAge,
	}
}

// Run deletes resolved alerts older than the retention age.
func (s *RetentionService) Run() error {
	cutoff := time.Now().Add(-s.maxAge)

	count, err := s.alerts.DeleteResolvedBefore(cutoff)
	if err != nil {
		return err
	}

	if count > 0 {
		log.Printf("cleanup: removed %d resolved alerts older than %v", count, s.maxAge)
	}
	return nil
}
