package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/kyvra-tech/iss-flyover-tracker/internal/models"
	"github.com/kyvra-tech/iss-flyover-tracker/pkg/metrics"
)

const flyoverJobName = "ISS Flyover Refresh"

// FlyoverRunner performs one orchestration run
type FlyoverRunner interface {
	NextISSTimesForMyLocation(ctx context.Context) (*models.FlyoverResult, error)
}

// Snapshot is the outcome of the most recent scheduled run
type Snapshot struct {
	Result    *models.FlyoverResult `json:"result,omitempty"`
	LastError string                `json:"last_error,omitempty"`
	LastRunAt time.Time             `json:"last_run_at"`
}

type CronScheduler struct {
	cron           *cron.Cron
	runner         FlyoverRunner
	schedule       string
	logger         *logrus.Logger
	metrics        *metrics.Metrics
	jobTimeout     time.Duration
	activeJobs     sync.WaitGroup
	shutdownCtx    context.Context
	shutdownCancel context.CancelFunc

	mu       sync.RWMutex
	snapshot *Snapshot
}

func NewCronScheduler(
	runner FlyoverRunner,
	schedule string,
	logger *logrus.Logger,
	m *metrics.Metrics,
) *CronScheduler {
	ctx, cancel := context.WithCancel(context.Background())

	return &CronScheduler{
		cron:           cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger))),
		runner:         runner,
		schedule:       schedule,
		logger:         logger,
		metrics:        m,
		jobTimeout:     2 * time.Minute,
		shutdownCtx:    ctx,
		shutdownCancel: cancel,
	}
}

func (s *CronScheduler) Start() error {
	_, err := s.cron.AddFunc(s.schedule, s.createJobWrapper(flyoverJobName, s.refresh))
	if err != nil {
		return fmt.Errorf("failed to schedule flyover refresh %q: %w", s.schedule, err)
	}

	s.cron.Start()
	s.logger.WithField("schedule", s.schedule).Info("Cron scheduler started successfully")
	return nil
}

// refresh runs the pipeline once and records the outcome
func (s *CronScheduler) refresh(ctx context.Context) error {
	result, err := s.runner.NextISSTimesForMyLocation(ctx)

	snap := &Snapshot{LastRunAt: time.Now().UTC()}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		// keep serving the last good prediction alongside the new error
		if s.snapshot != nil {
			snap.Result = s.snapshot.Result
		}
		snap.LastError = err.Error()
		s.snapshot = snap
		return err
	}

	snap.Result = result
	s.snapshot = snap
	return nil
}

// Latest returns the last recorded run, if any
func (s *CronScheduler) Latest() (Snapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.snapshot == nil {
		return Snapshot{}, false
	}
	return *s.snapshot, true
}

// createJobWrapper wraps a job with context, timeout, logging, and panic recovery
func (s *CronScheduler) createJobWrapper(jobName string, jobFunc func(context.Context) error) func() {
	return func() {
		s.activeJobs.Add(1)
		defer s.activeJobs.Done()

		ctx, cancel := context.WithTimeout(s.shutdownCtx, s.jobTimeout)
		defer cancel()

		startTime := time.Now()

		s.logger.WithFields(logrus.Fields{
			"job":       jobName,
			"timestamp": startTime.UTC(),
		}).Info("Starting scheduled job")

		defer func() {
			if r := recover(); r != nil {
				s.metrics.RecordSchedulerJob(jobName, false, time.Since(startTime))
				s.logger.WithFields(logrus.Fields{
					"job":   jobName,
					"panic": r,
				}).Error("Job panicked")
			}
		}()

		err := jobFunc(ctx)

		duration := time.Since(startTime)
		s.metrics.RecordSchedulerJob(jobName, err == nil, duration)

		if err != nil {
			s.logger.WithFields(logrus.Fields{
				"job":      jobName,
				"duration": duration.String(),
				"error":    err.Error(),
			}).Error("Job failed")
		} else {
			s.logger.WithFields(logrus.Fields{
				"job":      jobName,
				"duration": duration.String(),
			}).Info("Job completed successfully")
		}

		if ctx.Err() == context.DeadlineExceeded {
			s.logger.WithFields(logrus.Fields{
				"job":     jobName,
				"timeout": s.jobTimeout.String(),
			}).Warn("Job timed out")
		}
	}
}

func (s *CronScheduler) Stop() {
	s.logger.Info("Stopping cron scheduler...")

	ctx := s.cron.Stop()

	// running lookups see a cancelled context
	s.shutdownCancel()

	done := make(chan struct{})
	go func() {
		s.activeJobs.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("All jobs completed, cron scheduler stopped")
	case <-ctx.Done():
		s.logger.Info("Cron scheduler stopped")
	case <-time.After(1 * time.Minute):
		s.logger.Warn("Timeout waiting for jobs to complete, forcing shutdown")
	}
}

// GetSchedulerStatus returns the current status of the scheduler
func (s *CronScheduler) GetSchedulerStatus() map[string]interface{} {
	entries := s.cron.Entries()

	jobs := make([]map[string]interface{}, 0, len(entries))
	for _, entry := range entries {
		jobs = append(jobs, map[string]interface{}{
			"name":     flyoverJobName,
			"next_run": entry.Next,
			"prev_run": entry.Prev,
		})
	}

	status := map[string]interface{}{
		"running":   len(entries) > 0,
		"schedule":  s.schedule,
		"job_count": len(entries),
		"jobs":      jobs,
	}
	if snap, ok := s.Latest(); ok {
		status["last_run_at"] = snap.LastRunAt
		status["last_error"] = snap.LastError
	}
	return status
}
