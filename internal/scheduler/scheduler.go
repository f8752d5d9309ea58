package scheduler

import (
	"context"
	"log"
	"sync"
	"time"

	"transport-ops-backend/internal/health"

	"github.com/robfig/cron/v3"
)

// Job is one named scheduled task. Run must be safe to call repeatedly; the
// scheduler guarantees nothing about mutual exclusion between jobs.
type Job struct {
	Name    string
	Cadence string
	Run     func(ctx context.Context) error
	// Monitored jobs report their outcome to the health monitor.
	Monitored bool
}

// Scheduler owns a set of named cron timers. A panic or error inside one
// firing is caught and logged; it never deregisters the timer or touches
// sibling jobs. Stop and context cancellation are independent stop paths,
// both idempotent.
type Scheduler struct {
	cron    *cron.Cron
	monitor *health.Monitor
	ctx     context.Context
	cancel  context.CancelFunc
	entries map[string]cron.EntryID
	once    sync.Once
}

func New(monitor *health.Monitor) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron:    cron.New(),
		monitor: monitor,
		ctx:     ctx,
		cancel:  cancel,
		entries: make(map[string]cron.EntryID),
	}
}

// Register adds a named job at its cadence. Registration errors (bad cron
// expression) are returned; a registered job stays for the process lifetime.
func (s *Scheduler) Register(job Job) error {
	entryID, err := s.cron.AddFunc(job.Cadence, func() {
		s.execute(job)
	})
	if err != nil {
		return err
	}
	s.entries[job.Name] = entryID
	log.Printf("cron: registered %s with cadence %q", job.Name, job.Cadence)
	return nil
}

// Start begins firing timers. In-flight runs are never interrupted; both
// stop paths only prevent future firings.
func (s *Scheduler) Start() {
	s.cron.Start()
	log.Printf("cron: scheduler started with %d jobs", len(s.entries))
}

// Stop disables all future firings and waits for in-flight runs to finish.
// Safe to call more than once, and safe alongside Shutdown.
func (s *Scheduler) Stop() {
	s.once.Do(func() {
		s.cancel()
		ctx := s.cron.Stop()
		<-ctx.Done()
		log.Println("cron: scheduler stopped")
	})
}

// Shutdown is the context-driven stop path: it cancels the scheduler
// context so paused scans unblock, then stops the timers.
func (s *Scheduler) Shutdown(ctx context.Context) {
	done := make(chan struct{})
	go func() {
		s.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		log.Println("cron: shutdown deadline reached with runs still in flight")
	}
}

// execute wraps one firing with a panic boundary and health reporting.
func (s *Scheduler) execute(job Job) {
	if s.ctx.Err() != nil {
		return
	}

	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			log.Printf("cron: job %s panicked: %v", job.Name, r)
			if job.Monitored && s.monitor != nil {
				s.monitor.RecordMiss()
			}
		}
	}()

	if err := job.Run(s.ctx); err != nil {
		log.Printf("cron: job %s failed after %v: %v", job.Name, time.Since(start).Round(time.Millisecond), err)
		if job.Monitored && s.monitor != nil {
			s.monitor.RecordMiss()
		}
		return
	}
}
