package task

import (
	"context"

	"github.com/google/uuid"

	"github.com/caseflow/caseflow-api/internal/model"
	"github.com/caseflow/caseflow-api/internal/registry"
	"github.com/caseflow/caseflow-api/internal/repository"
)

// TaskView is a task joined with its display configuration.
type TaskView struct {
	*model.Task
	Label            string `json:"label"`
	RequiredLocation string `json:"required_location"`
}

type Service struct {
	tasks     repository.TaskRepository
	taskTypes *registry.TaskTypeRegistry
}

func NewService(tasks repository.TaskRepository, taskTypes *registry.TaskTypeRegistry) *Service {
	return &Service{tasks: tasks, taskTypes: taskTypes}
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*TaskView, error) {
	t, err := s.tasks.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.view(t)
}

// List returns tasks newest-first, optionally filtered by type/status.
func (s *Service) List(ctx context.Context, filters *model.TaskFilters) ([]*TaskView, error) {
	tasks, err := s.tasks.List(ctx, filters)
	if err != nil {
		return nil, err
	}
	out := make([]*TaskView, 0, len(tasks))
	for _, t := range tasks {
		v, err := s.view(t)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func (s *Service) view(t *model.Task) (*TaskView, error) {
	desc, err := s.taskTypes.Describe(t.Type)
	if err != nil {
		return nil, err
	}
	return &TaskView{
		Task:             t,
		Label:            desc.Label,
		RequiredLocation: desc.RequiredLocation,
	}, nil
}
