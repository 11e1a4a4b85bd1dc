package event

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/shared"
	"go.uber.org/zap"
)

const (
	defaultDeadPageSize = 20
	maxDeadPageSize     = 100
	requeueBatch        = 100
)

// OutboxService is the admin view of the event outbox: inspect what is
// stuck on its way to the broker and requeue dead entries.
type OutboxService struct {
	repo   shared.OutboxRepository
	logger *zap.Logger
}

func NewOutboxService(repo shared.OutboxRepository, logger *zap.Logger) *OutboxService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OutboxService{repo: repo, logger: logger.Named("outbox")}
}

// OutboxEntryView is an outbox entry as shown to administrators
type OutboxEntryView struct {
	ID            uuid.UUID       `json:"id"`
	EventID       uuid.UUID       `json:"event_id"`
	EventType     string          `json:"event_type"`
	AggregateID   uuid.UUID       `json:"aggregate_id"`
	AggregateType string          `json:"aggregate_type"`
	Status        string          `json:"status"`
	Attempts      int             `json:"attempts"`
	MaxAttempts   int             `json:"max_attempts"`
	LastError     string          `json:"last_error,omitempty"`
	Payload       json.RawMessage `json:"payload,omitempty"`
	NextRetryAt   *time.Time      `json:"next_retry_at,omitempty"`
	ProcessedAt   *time.Time      `json:"processed_at,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

func newOutboxEntryView(e *shared.OutboxEntry) OutboxEntryView {
	v := OutboxEntryView{
		ID:            e.ID,
		EventID:       e.EventID,
		EventType:     e.EventType,
		AggregateID:   e.AggregateID,
		AggregateType: e.AggregateType,
		Status:        string(e.Status),
		Attempts:      e.RetryCount,
		MaxAttempts:   e.MaxRetries,
		LastError:     e.LastError,
		NextRetryAt:   e.NextRetryAt,
		ProcessedAt:   e.ProcessedAt,
		CreatedAt:     e.CreatedAt,
		UpdatedAt:     e.UpdatedAt,
	}
	if json.Valid(e.Payload) {
		v.Payload = json.RawMessage(e.Payload)
	}
	return v
}

// DeadLetterQuery pages through dead entries
type DeadLetterQuery struct {
	Page     int `form:"page" binding:"omitempty,min=1"`
	PageSize int `form:"page_size" binding:"omitempty,min=1,max=100"`
}

func (q DeadLetterQuery) normalize() (page, size int) {
	page, size = max(q.Page, 1), q.PageSize
	switch {
	case size < 1:
		size = defaultDeadPageSize
	case size > maxDeadPageSize:
		size = maxDeadPageSize
	}
	return page, size
}

// DeadLetterPage is one page of dead entries
type DeadLetterPage struct {
	Entries    []OutboxEntryView `json:"entries"`
	Total      int64             `json:"total"`
	Page       int               `json:"page"`
	PageSize   int               `json:"page_size"`
	TotalPages int               `json:"total_pages"`
}

// OutboxStats counts entries per delivery status
type OutboxStats struct {
	Pending    int64 `json:"pending"`
	Processing int64 `json:"processing"`
	Sent       int64 `json:"sent"`
	Failed     int64 `json:"failed"`
	Dead       int64 `json:"dead"`
	Total      int64 `json:"total"`
}

// ListDead returns dead entries, most recently failed first
func (s *OutboxService) ListDead(ctx context.Context, q DeadLetterQuery) (*DeadLetterPage, error) {
	page, size := q.normalize()
	entries, total, err := s.repo.FindDead(ctx, page, size)
	if err != nil {
		s.logger.Error("List dead outbox entries", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Could not load dead outbox entries")
	}

	views := make([]OutboxEntryView, 0, len(entries))
	for _, e := range entries {
		views = append(views, newOutboxEntryView(e))
	}
	return &DeadLetterPage{
		Entries:    views,
		Total:      total,
		Page:       page,
		PageSize:   size,
		TotalPages: int((total + int64(size) - 1) / int64(size)),
	}, nil
}

func (s *OutboxService) Get(ctx context.Context, id uuid.UUID) (*OutboxEntryView, error) {
	entry, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	v := newOutboxEntryView(entry)
	return &v, nil
}

// Requeue gives a dead entry a fresh set of delivery attempts
func (s *OutboxService) Requeue(ctx context.Context, id uuid.UUID) (*OutboxEntryView, error) {
	entry, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := entry.ResetForRetry(); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, entry); err != nil {
		s.logger.Error("Requeue outbox entry", zap.Stringer("id", id), zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Could not requeue outbox entry")
	}

	s.logger.Info("Outbox entry requeued", zap.Stringer("id", id), zap.String("event_type", entry.EventType))
	v := newOutboxEntryView(entry)
	return &v, nil
}

// RequeueAllDead requeues every dead entry and returns how many moved.
// Requeued entries leave the dead set, so the first page is reread until
// nothing more can be moved.
func (s *OutboxService) RequeueAllDead(ctx context.Context) (int64, error) {
	var moved int64
	for {
		batch, _, err := s.repo.FindDead(ctx, 1, requeueBatch)
		if err != nil {
			s.logger.Error("List dead outbox entries", zap.Error(err))
			return moved, shared.NewDomainError("INTERNAL_ERROR", "Could not load dead outbox entries")
		}

		var n int64
		for _, e := range batch {
			if e.ResetForRetry() != nil {
				continue
			}
			if err := s.repo.Update(ctx, e); err != nil {
				s.logger.Error("Requeue outbox entry", zap.Stringer("id", e.ID), zap.Error(err))
				continue
			}
			n++
		}
		moved += n
		if n == 0 || len(batch) < requeueBatch {
			break
		}
	}

	s.logger.Info("Dead outbox entries requeued", zap.Int64("count", moved))
	return moved, nil
}

func (s *OutboxService) Stats(ctx context.Context) (*OutboxStats, error) {
	counts, err := s.repo.CountByStatus(ctx)
	if err != nil {
		s.logger.Error("Count outbox entries", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Could not count outbox entries")
	}

	stats := &OutboxStats{
		Pending:    counts[shared.OutboxStatusPending],
		Processing: counts[shared.OutboxStatusProcessing],
		Sent:       counts[shared.OutboxStatusSent],
		Failed:     counts[shared.OutboxStatusFailed],
		Dead:       counts[shared.OutboxStatusDead],
	}
	for _, n := range counts {
		stats.Total += n
	}
	return stats, nil
}

func (s *OutboxService) load(ctx context.Context, id uuid.UUID) (*shared.OutboxEntry, error) {
	entry, err := s.repo.FindByID(ctx, id)
	switch {
	case errors.Is(err, shared.ErrNotFound), err == nil && entry == nil:
		return nil, shared.NewDomainError("NOT_FOUND", "Outbox entry not found")
	case err != nil:
		s.logger.Error("Load outbox entry", zap.Stringer("id", id), zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Could not load outbox entry")
	}
	return entry, nil
}
