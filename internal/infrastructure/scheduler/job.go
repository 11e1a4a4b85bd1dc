package scheduler

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrSchedulerNotRunning = errors.New("scheduler: not running")
	ErrJobQueueFull        = errors.New("scheduler: job queue full")
	ErrInvalidJobType      = errors.New("scheduler: unknown job type")
	ErrInvalidConfig       = errors.New("scheduler: bad configuration")
)

// JobStatus is the state of one job run
type JobStatus string

const (
	JobStatusPending JobStatus = "PENDING"
	JobStatusRunning JobStatus = "RUNNING"
	JobStatusSuccess JobStatus = "SUCCESS"
	JobStatusFailed  JobStatus = "FAILED"
)

// JobType identifies a background store job
type JobType string

const (
	// JobTypeCartCleanup deletes abandoned checkout orders
	JobTypeCartCleanup JobType = "CART_CLEANUP"
	// JobTypeReportArchive uploads the previous day's sales summary CSV
	JobTypeReportArchive JobType = "REPORT_ARCHIVE"
)

func AllJobTypes() []JobType {
	return []JobType{JobTypeCartCleanup, JobTypeReportArchive}
}

func (t JobType) IsValid() bool {
	return t == JobTypeCartCleanup || t == JobTypeReportArchive
}

// Job is one run of a store job over [PeriodStart, PeriodEnd].
type Job struct {
	ID          uuid.UUID
	Type        JobType
	PeriodStart time.Time
	PeriodEnd   time.Time
	Status      JobStatus
	Error       string
	StartedAt   *time.Time
	CompletedAt *time.Time
	RetryCount  int
	MaxRetries  int
	NextRetryAt *time.Time
}

func NewJob(jobType JobType, periodStart, periodEnd time.Time, maxRetries int) *Job {
	return &Job{
		ID:          uuid.New(),
		Type:        jobType,
		PeriodStart: periodStart,
		PeriodEnd:   periodEnd,
		Status:      JobStatusPending,
		MaxRetries:  maxRetries,
	}
}

func (j *Job) Start() {
	now := time.Now()
	j.Status, j.Error = JobStatusRunning, ""
	j.StartedAt = &now
}

func (j *Job) Complete() {
	j.finish(JobStatusSuccess, "")
}

func (j *Job) Fail(reason string) {
	j.finish(JobStatusFailed, reason)
}

func (j *Job) finish(status JobStatus, reason string) {
	now := time.Now()
	j.Status, j.Error = status, reason
	j.CompletedAt = &now
}

// ShouldRetry is true for a failed job with attempts left.
func (j *Job) ShouldRetry() bool {
	return j.Status == JobStatusFailed && j.RetryCount < j.MaxRetries
}

// ScheduleRetry returns the job to pending, due after delay.
func (j *Job) ScheduleRetry(delay time.Duration) {
	due := time.Now().Add(delay)
	j.RetryCount++
	j.Status, j.Error = JobStatusPending, ""
	j.NextRetryAt = &due
}

func (j *Job) logFields(extra ...zap.Field) []zap.Field {
	return append([]zap.Field{
		zap.Stringer("job_id", j.ID),
		zap.String("job_type", string(j.Type)),
	}, extra...)
}

// PreviousDay returns the full calendar day before now in now's location
func PreviousDay(now time.Time) (start, end time.Time) {
	y, m, d := now.AddDate(0, 0, -1).Date()
	start = time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	return start, start.AddDate(0, 0, 1).Add(-time.Nanosecond)
}
