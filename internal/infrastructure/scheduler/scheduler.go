package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/storefront/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

const queueSize = 100

// JobExecutor runs the body of a job
type JobExecutor interface {
	Execute(ctx context.Context, job *Job) error
}

// JobRecorder persists job runs. Optional.
type JobRecorder interface {
	RecordJobStart(ctx context.Context, job *Job) error
	RecordJobComplete(ctx context.Context, job *Job) error
}

type SchedulerConfig struct {
	Enabled           bool
	MaxConcurrentJobs int
	JobTimeout        time.Duration
	RetryAttempts     int
	RetryDelay        time.Duration
	// DailyJobs are submitted by ScheduleDailyJobs
	DailyJobs []JobType
}

func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		Enabled:           true,
		MaxConcurrentJobs: 2,
		JobTimeout:        10 * time.Minute,
		RetryAttempts:     3,
		RetryDelay:        time.Minute,
		DailyJobs:         AllJobTypes(),
	}
}

// Scheduler runs jobs on a fixed pool of workers. A failed job with
// retries left is re-queued after RetryDelay without holding a worker.
type Scheduler struct {
	config   SchedulerConfig
	executor JobExecutor
	recorder JobRecorder
	logger   *zap.Logger

	queue chan *Job

	mu      sync.Mutex
	ctx     context.Context
	cancel  context.CancelFunc
	workers sync.WaitGroup
	timers  map[*time.Timer]struct{}
}

func NewScheduler(config SchedulerConfig, executor JobExecutor, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	config.MaxConcurrentJobs = max(config.MaxConcurrentJobs, 1)
	if config.JobTimeout <= 0 {
		config.JobTimeout = DefaultSchedulerConfig().JobTimeout
	}
	return &Scheduler{
		config:   config,
		executor: executor,
		logger:   logger.Named("scheduler"),
		queue:    make(chan *Job, queueSize),
		timers:   make(map[*time.Timer]struct{}),
	}
}

func (s *Scheduler) SetRecorder(recorder JobRecorder) {
	s.recorder = recorder
}

// Start launches the workers. Starting twice is a no-op.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return nil
	}
	s.ctx, s.cancel = context.WithCancel(ctx)
	for id := range s.config.MaxConcurrentJobs {
		s.workers.Add(1)
		go s.work(s.ctx, id)
	}
	s.logger.Info("Job scheduler started",
		zap.Int("workers", s.config.MaxConcurrentJobs),
		zap.Duration("job_timeout", s.config.JobTimeout))
	return nil
}

// Stop cancels running jobs, drops pending retries and waits for the
// workers until ctx expires.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if s.cancel == nil {
		s.mu.Unlock()
		return nil
	}
	s.cancel()
	s.cancel = nil
	for t := range s.timers {
		t.Stop()
	}
	clear(s.timers)
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.workers.Wait()
		close(done)
	}()
	select {
	case <-done:
		s.logger.Info("Job scheduler stopped")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Job scheduler stop timed out")
		return ctx.Err()
	}
}

func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancel != nil
}

// SubmitJob queues job without blocking.
func (s *Scheduler) SubmitJob(job *Job) error {
	if !job.Type.IsValid() {
		return ErrInvalidJobType
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel == nil {
		return ErrSchedulerNotRunning
	}
	return s.enqueueLocked(job)
}

func (s *Scheduler) enqueueLocked(job *Job) error {
	select {
	case s.queue <- job:
		s.logger.Debug("Job queued", job.logFields()...)
		return nil
	default:
		return ErrJobQueueFull
	}
}

// retryLater re-queues job once its retry delay has passed.
func (s *Scheduler) retryLater(job *Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel == nil {
		return
	}
	var t *time.Timer
	t = time.AfterFunc(s.config.RetryDelay, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if _, pending := s.timers[t]; !pending {
			return
		}
		delete(s.timers, t)
		if err := s.enqueueLocked(job); err != nil {
			s.logger.Warn("Dropped job retry", job.logFields(zap.Error(err))...)
		}
	})
	s.timers[t] = struct{}{}
}

func (s *Scheduler) work(ctx context.Context, id int) {
	defer s.workers.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case job := <-s.queue:
			s.run(ctx, job, id)
		}
	}
}

func (s *Scheduler) run(ctx context.Context, job *Job, worker int) {
	job.Start()
	s.logger.Info("Running job", job.logFields(zap.Int("worker", worker))...)
	s.record(ctx, job, s.recordStart)

	jobCtx, cancel := context.WithTimeout(ctx, s.config.JobTimeout)
	var err error
	telemetry.WithProfileLabels(jobCtx, func(ctx context.Context) {
		err = s.executor.Execute(ctx, job)
	}, "job_type", string(job.Type))
	cancel()

	if err == nil {
		job.Complete()
		s.record(ctx, job, s.recordComplete)
		s.logger.Info("Job completed", job.logFields(zap.Int("worker", worker))...)
		return
	}

	job.Fail(err.Error())
	s.record(ctx, job, s.recordComplete)
	s.logger.Error("Job failed", job.logFields(zap.Int("worker", worker), zap.Error(err))...)
	if job.ShouldRetry() {
		job.ScheduleRetry(s.config.RetryDelay)
		s.logger.Info("Job retry scheduled",
			job.logFields(zap.Int("attempt", job.RetryCount), zap.Int("max_retries", job.MaxRetries))...)
		s.retryLater(job)
	}
}

func (s *Scheduler) recordStart(ctx context.Context, job *Job) error {
	return s.recorder.RecordJobStart(ctx, job)
}

func (s *Scheduler) recordComplete(ctx context.Context, job *Job) error {
	return s.recorder.RecordJobComplete(ctx, job)
}

func (s *Scheduler) record(ctx context.Context, job *Job, fn func(context.Context, *Job) error) {
	if s.recorder == nil {
		return
	}
	if err := fn(ctx, job); err != nil {
		s.logger.Warn("Failed to record job run", job.logFields(zap.Error(err))...)
	}
}

// ScheduleDailyJobs submits every configured daily job covering the day before now.
func (s *Scheduler) ScheduleDailyJobs(now time.Time) error {
	start, end := PreviousDay(now)
	for _, jobType := range s.config.DailyJobs {
		if err := s.SubmitJob(NewJob(jobType, start, end, s.config.RetryAttempts)); err != nil {
			return err
		}
	}
	return nil
}

// ScheduleJob submits one job for the given period
func (s *Scheduler) ScheduleJob(jobType JobType, periodStart, periodEnd time.Time) (*Job, error) {
	job := NewJob(jobType, periodStart, periodEnd, s.config.RetryAttempts)
	if err := s.SubmitJob(job); err != nil {
		return nil, err
	}
	return job, nil
}
