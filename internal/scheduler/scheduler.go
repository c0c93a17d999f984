package scheduler

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// JobType represents the different background jobs
type JobType int

const (
	JobTypeGeocode JobType = iota
	JobTypeStaleReport
)

// String returns the string representation of a JobType
func (j JobType) String() string {
	switch j {
	case JobTypeGeocode:
		return "geocode"
	case JobTypeStaleReport:
		return "stale_report"
	default:
		return "unknown"
	}
}

// JobFunc is the body of a scheduled job
type JobFunc func(ctx context.Context) error

type job struct {
	jobType  JobType
	interval time.Duration
	run      JobFunc
}

// Scheduler runs registered jobs on their own tickers, one job at a time
type Scheduler struct {
	logger   *logrus.Logger
	jobs     []job
	jobMutex sync.Mutex // Ensures sequential job execution
	wg       sync.WaitGroup
	cancel   context.CancelFunc
}

// NewScheduler creates a new scheduler
func NewScheduler(logger *logrus.Logger) *Scheduler {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
		logger.SetLevel(logrus.InfoLevel)
	}

	return &Scheduler{logger: logger}
}

// AddJob registers fn to run every interval. A non-positive interval
// disables the job. Jobs must be added before Start.
func (s *Scheduler) AddJob(jobType JobType, interval time.Duration, fn JobFunc) {
	if interval <= 0 {
		s.logger.WithField("job_type", jobType.String()).Info("Scheduled job disabled")
		return
	}
	s.jobs = append(s.jobs, job{jobType: jobType, interval: interval, run: fn})
}

// Start launches one ticker loop per job. The loops stop when ctx is done or
// Stop is called.
func (s *Scheduler) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)
	for _, j := range s.jobs {
		s.wg.Add(1)
		go s.runLoop(ctx, j)
	}
}

// Stop cancels the job loops and waits for a running job to return
func (s *Scheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
}

func (s *Scheduler) runLoop(ctx context.Context, j job) {
	defer s.wg.Done()

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.execute(ctx, j)
		}
	}
}

// RunNow executes the job of the given type immediately
func (s *Scheduler) RunNow(ctx context.Context, jobType JobType) error {
	for _, j := range s.jobs {
		if j.jobType == jobType {
			return s.execute(ctx, j)
		}
	}
	return fmt.Errorf("no job registered for type %s", jobType)
}

func (s *Scheduler) execute(ctx context.Context, j job) error {
	s.jobMutex.Lock()
	defer s.jobMutex.Unlock()

	logger := s.logger.WithField("job_type", j.jobType.String())
	logger.Info("Starting scheduled job")
	start := time.Now()

	if err := j.run(ctx); err != nil {
		logger.WithError(err).Error("Scheduled job failed")
		return err
	}

	logger.WithField("duration", time.Since(start).String()).Info("Completed scheduled job")
	return nil
}
