package memory

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/caseflow/caseflow-api/internal/model"
	"github.com/caseflow/caseflow-api/pkg/errors"
)

type OutboxRepository struct {
	store *Store
}

func NewOutboxRepository(store *Store) *OutboxRepository {
	return &OutboxRepository{store: store}
}

func (r *OutboxRepository) Create(ctx context.Context, event *model.OutboxEvent) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	s.outbox = append(s.outbox, cloneOutbox(event))
	s.observe("create_outbox_event", "success")
	return nil
}

func (r *OutboxRepository) GetPendingEvents(ctx context.Context, limit int) ([]*model.OutboxEvent, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*model.OutboxEvent, 0, limit)
	for _, ev := range s.outbox {
		if ev.Status != model.OutboxStatusPending {
			continue
		}
		out = append(out, cloneOutbox(ev))
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (r *OutboxRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.OutboxStatus, errMsg *string) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, ev := range s.outbox {
		if ev.ID == id {
			ev.Status = status
			ev.ErrorMessage = errMsg
			if status == model.OutboxStatusProcessed {
				now := time.Now().UTC()
				ev.ProcessedAt = &now
			}
			if status == model.OutboxStatusFailed {
				ev.RetryCount++
			}
			s.observe("update_outbox_event", "success")
			return nil
		}
	}
	s.observe("update_outbox_event", "error")
	return errors.NotFound("outbox event", nil)
}
