package shared

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// OutboxStatus tracks an entry from commit to broker acknowledgement
type OutboxStatus string

const (
	OutboxStatusPending    OutboxStatus = "PENDING"
	OutboxStatusProcessing OutboxStatus = "PROCESSING"
	OutboxStatusSent       OutboxStatus = "SENT"
	OutboxStatusFailed     OutboxStatus = "FAILED"
	OutboxStatusDead       OutboxStatus = "DEAD"
)

const (
	DefaultMaxRetries  = 5
	DefaultBaseBackoff = time.Second
	maxBackoff         = 10 * time.Minute
)

var (
	errOutboxNotClaimable = NewDomainError("INVALID_STATE", "Only pending or failed outbox entries can be claimed")
	errOutboxNotDead      = NewDomainError("INVALID_STATE", "Only dead outbox entries can be retried")
)

// OutboxEntry is a store event written in the same transaction as the
// change that raised it, waiting to be relayed to the broker.
type OutboxEntry struct {
	ID            uuid.UUID
	EventID       uuid.UUID
	EventType     string
	AggregateID   uuid.UUID
	AggregateType string
	Payload       []byte
	Status        OutboxStatus
	RetryCount    int
	MaxRetries    int
	LastError     string
	NextRetryAt   *time.Time
	ProcessedAt   *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func NewOutboxEntry(event DomainEvent, payload []byte) *OutboxEntry {
	now := time.Now()
	return &OutboxEntry{
		ID:            uuid.New(),
		EventID:       event.EventID(),
		EventType:     event.EventType(),
		AggregateID:   event.AggregateID(),
		AggregateType: event.AggregateType(),
		Payload:       payload,
		Status:        OutboxStatusPending,
		MaxRetries:    DefaultMaxRetries,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// RetryBackoff is the wait after the given failed attempt: one second
// doubled per attempt, capped at ten minutes.
func RetryBackoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	d := DefaultBaseBackoff
	for i := 1; i < attempt; i++ {
		d *= 2
		if d >= maxBackoff {
			return maxBackoff
		}
	}
	return d
}

func (e *OutboxEntry) CanRetry() bool {
	return e.Status == OutboxStatusFailed && e.RetryCount < e.MaxRetries
}

func (e *OutboxEntry) IsDead() bool { return e.Status == OutboxStatusDead }

// MarkProcessing claims the entry for one delivery attempt
func (e *OutboxEntry) MarkProcessing() error {
	switch e.Status {
	case OutboxStatusPending, OutboxStatusFailed:
	default:
		return errOutboxNotClaimable
	}
	e.touch(OutboxStatusProcessing)
	return nil
}

func (e *OutboxEntry) MarkSent() {
	e.touch(OutboxStatusSent)
	processed := e.UpdatedAt
	e.ProcessedAt = &processed
	e.NextRetryAt = nil
}

// MarkFailed records a failed attempt and schedules the next one, or parks
// the entry as dead once MaxRetries attempts have failed.
func (e *OutboxEntry) MarkFailed(reason string) {
	e.RetryCount++
	e.LastError = reason
	if e.RetryCount >= e.MaxRetries {
		e.touch(OutboxStatusDead)
		e.NextRetryAt = nil
		return
	}
	e.touch(OutboxStatusFailed)
	next := e.UpdatedAt.Add(RetryBackoff(e.RetryCount))
	e.NextRetryAt = &next
}

// ResetForRetry requeues a dead entry with a fresh retry budget
func (e *OutboxEntry) ResetForRetry() error {
	if !e.IsDead() {
		return errOutboxNotDead
	}
	e.RetryCount = 0
	e.LastError = ""
	e.NextRetryAt = nil
	e.touch(OutboxStatusPending)
	return nil
}

func (e *OutboxEntry) touch(status OutboxStatus) {
	e.Status = status
	e.UpdatedAt = time.Now()
}

// OutboxRepository persists outbox entries
type OutboxRepository interface {
	Save(ctx context.Context, entries ...*OutboxEntry) error
	FindPending(ctx context.Context, limit int) ([]*OutboxEntry, error)
	// FindRetryable returns failed entries due before the given time
	FindRetryable(ctx context.Context, before time.Time, limit int) ([]*OutboxEntry, error)
	FindDead(ctx context.Context, page, pageSize int) ([]*OutboxEntry, int64, error)
	FindByID(ctx context.Context, id uuid.UUID) (*OutboxEntry, error)
	// MarkProcessing claims entries and returns the ones this caller won
	MarkProcessing(ctx context.Context, ids []uuid.UUID) ([]*OutboxEntry, error)
	Update(ctx context.Context, entry *OutboxEntry) error
	// DeleteOlderThan purges sent entries processed before the cutoff
	DeleteOlderThan(ctx context.Context, before time.Time) (int64, error)
	CountByStatus(ctx context.Context) (map[OutboxStatus]int64, error)
}
