package event

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/caseflow/caseflow-api/internal/model"
	"github.com/caseflow/caseflow-api/internal/repository"
)

// New builds a pending outbox event with a serialized payload. Callers
// that mutate the store atomically pass the event into the mutation;
// everyone else uses Service.Emit.
func New(eventType string, payload interface{}) (*model.OutboxEvent, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s payload: %w", eventType, err)
	}
	return &model.OutboxEvent{
		ID:        uuid.New(),
		EventType: eventType,
		Payload:   data,
		Status:    model.OutboxStatusPending,
		CreatedAt: time.Now().UTC(),
	}, nil
}

type Service struct {
	repo repository.OutboxRepository
}

func NewService(repo repository.OutboxRepository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Emit(ctx context.Context, eventType string, payload interface{}) error {
	ev, err := New(eventType, payload)
	if err != nil {
		return err
	}
	return s.repo.Create(ctx, ev)
}
