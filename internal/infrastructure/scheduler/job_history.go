package scheduler

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SchedulerJobRecord represents a record of a scheduled job execution
type SchedulerJobRecord struct {
	ID          uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	JobType     string     `gorm:"column:job_type;size:50;not null;index"`
	Status      string     `gorm:"column:status;size:20"`
	Error       string     `gorm:"column:last_error;type:text"`
	RetryCount  int        `gorm:"column:retry_count;not null;default:0"`
	PeriodStart time.Time  `gorm:"column:period_start"`
	PeriodEnd   time.Time  `gorm:"column:period_end"`
	StartedAt   *time.Time `gorm:"column:started_at"`
	CompletedAt *time.Time `gorm:"column:completed_at"`
	CreatedAt   time.Time  `gorm:"column:created_at"`
	UpdatedAt   time.Time  `gorm:"column:updated_at"`
}

// TableName returns the table name for GORM
func (SchedulerJobRecord) TableName() string {
	return "scheduler_jobs"
}

// SchedulerJobRepository handles persistence of scheduler job records
type SchedulerJobRepository struct {
	db *gorm.DB
}

// NewSchedulerJobRepository creates a new SchedulerJobRepository
func NewSchedulerJobRepository(db *gorm.DB) *SchedulerJobRepository {
	return &SchedulerJobRepository{db: db}
}

// RecordJobStart records the start of a job execution. Retries update the
// existing record.
func (r *SchedulerJobRepository) RecordJobStart(ctx context.Context, job *Job) error {
	now := time.Now()
	record := &SchedulerJobRecord{
		ID:          job.ID,
		JobType:     string(job.Type),
		Status:      string(JobStatusRunning),
		RetryCount:  job.RetryCount,
		PeriodStart: job.PeriodStart,
		PeriodEnd:   job.PeriodEnd,
		StartedAt:   job.StartedAt,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	return r.db.WithContext(ctx).Save(record).Error
}

// RecordJobComplete records the outcome of a job
func (r *SchedulerJobRepository) RecordJobComplete(ctx context.Context, job *Job) error {
	return r.db.WithContext(ctx).
		Model(&SchedulerJobRecord{}).
		Where("id = ?", job.ID).
		Updates(map[string]any{
			"status":       string(job.Status),
			"last_error":   job.Error,
			"retry_count":  job.RetryCount,
			"completed_at": job.CompletedAt,
			"updated_at":   time.Now(),
		}).Error
}

// GetLastJobStatus gets the most recent run of a job type
func (r *SchedulerJobRepository) GetLastJobStatus(ctx context.Context, jobType JobType) (*SchedulerJobRecord, error) {
	var record SchedulerJobRecord
	err := r.db.WithContext(ctx).
		Where("job_type = ?", string(jobType)).
		Order("started_at DESC").
		First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// Ensure SchedulerJobRepository implements JobRecorder
var _ JobRecorder = (*SchedulerJobRepository)(nil)
