package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/cleanco/platform/internal/metrics"
	"github.com/cleanco/platform/internal/store"
)

var heartbeats store.Heartbeats

// JobFunc is one iteration of a scheduled job. It receives a fresh
// deadline-bound context per call; a return error is recorded on the
// heartbeat as LastError but never stops the loop.
type JobFunc func(ctx context.Context, tx *gorm.DB) error

// Job is one registered entry: a name (matched against JobHeartbeat rows
// and strict-heartbeat readiness config), an interval between iterations,
// and a per-iteration timeout.
type Job struct {
	Name     string
	Interval time.Duration
	Timeout  time.Duration
	Run      JobFunc
}

// Supervisor runs every registered Job on its own goroutine and ticker,
// heartbeating after each iteration regardless of outcome.
type Supervisor struct {
	db   *gorm.DB
	log  *zap.Logger
	jobs []Job

	stopCh chan struct{}
	doneWG sync.WaitGroup
}

func NewSupervisor(db *gorm.DB, log *zap.Logger) *Supervisor {
	return &Supervisor{db: db, log: log, stopCh: make(chan struct{})}
}

func (s *Supervisor) Register(j Job) {
	s.jobs = append(s.jobs, j)
}

// Start launches one goroutine per registered job. Call Stop to request a
// graceful shutdown; Start returns immediately.
func (s *Supervisor) Start() {
	for _, job := range s.jobs {
		s.doneWG.Add(1)
		go s.runLoop(job)
	}
	s.doneWG.Add(1)
	go s.runHeartbeatGauge()
}

// runHeartbeatGauge refreshes JobHeartbeatAgeSeconds independently of each
// job's own tick, so the gauge reflects staleness even while a job is
// stuck mid-iteration rather than only updating the instant it heartbeats.
func (s *Supervisor) runHeartbeatGauge() {
	defer s.doneWG.Done()

	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.refreshHeartbeatGauge()
		case <-s.stopCh:
			return
		}
	}
}

func (s *Supervisor) refreshHeartbeatGauge() {
	all, err := heartbeats.All(s.db)
	if err != nil {
		return
	}
	now := time.Now()
	for _, hb := range all {
		metrics.JobHeartbeatAgeSeconds.WithLabelValues(hb.JobName).Set(now.Sub(hb.LastRunAt).Seconds())
	}
}

func (s *Supervisor) runLoop(job Job) {
	defer s.doneWG.Done()

	ticker := time.NewTicker(job.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.runOnce(job)
		case <-s.stopCh:
			return
		}
	}
}

func (s *Supervisor) runOnce(job Job) {
	ctx, cancel := context.WithTimeout(context.Background(), job.Timeout)
	defer cancel()

	err := s.db.Transaction(func(tx *gorm.DB) error {
		return job.Run(ctx, tx)
	})

	lastErr := ""
	ok := err == nil
	if err != nil {
		lastErr = err.Error()
		s.log.Error("scheduler: job iteration failed", zap.String("job", job.Name), zap.Error(err))
	}
	if hbErr := s.db.Transaction(func(tx *gorm.DB) error {
		return heartbeats.Upsert(tx, job.Name, ok, lastErr, time.Now())
	}); hbErr != nil {
		s.log.Error("scheduler: failed to record heartbeat", zap.String("job", job.Name), zap.Error(hbErr))
	}
	metrics.JobHeartbeatAgeSeconds.WithLabelValues(job.Name).Set(0)
}

// Stop signals every job loop to exit and waits up to drainBudget for
// their current iteration (if any) to finish.
func (s *Supervisor) Stop(drainBudget time.Duration) {
	close(s.stopCh)

	done := make(chan struct{})
	go func() {
		s.doneWG.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(drainBudget):
		s.log.Warn("scheduler: drain budget exceeded, exiting with jobs still in flight")
	}
}

// Ready reports whether every required job has heartbeated within ttl.
// Used by the readiness endpoint when strict-heartbeat mode is on.
func Ready(tx *gorm.DB, requiredJobs []string, ttl time.Duration) (bool, []string) {
	all, err := heartbeats.All(tx)
	if err != nil {
		return false, requiredJobs
	}
	seen := make(map[string]time.Time, len(all))
	for _, hb := range all {
		seen[hb.JobName] = hb.LastRunAt
	}

	now := time.Now()
	var stale []string
	for _, name := range requiredJobs {
		last, ok := seen[name]
		if !ok || now.Sub(last) > ttl {
			stale = append(stale, name)
		}
	}
	return len(stale) == 0, stale
}
