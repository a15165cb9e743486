package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Job is a unit of periodic work. Errors are logged, not propagated.
type Job func(ctx context.Context) error

// Scheduler runs named jobs on fixed intervals
type Scheduler struct {
	logger   *logrus.Logger
	mu       sync.Mutex
	stopChan chan struct{}
	wg       sync.WaitGroup
	stopped  bool
}

func NewScheduler(logger *logrus.Logger) *Scheduler {
	return &Scheduler{
		logger:   logger,
		stopChan: make(chan struct{}),
	}
}

// AddJob registers a job and starts ticking it immediately.
func (s *Scheduler) AddJob(name string, interval time.Duration, job Job) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		s.logger.WithFields(logrus.Fields{
			"job":      name,
			"interval": interval.String(),
		}).Info("scheduler job registered")

		for {
			select {
			case <-s.stopChan:
				s.logger.WithField("job", name).Info("scheduler job stopped")
				return
			case <-ticker.C:
				ctx, cancel := context.WithTimeout(context.Background(), interval)
				if err := job(ctx); err != nil {
					s.logger.WithFields(logrus.Fields{
						"job":   name,
						"error": err.Error(),
					}).Error("scheduler job failed")
				}
				cancel()
			}
		}
	}()
}

// Stop signals all jobs to stop and waits for them to finish
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}
	s.stopped = true
	close(s.stopChan)
	s.wg.Wait()
}
