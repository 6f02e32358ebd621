package memory

import (
	"context"

	"github.com/caseflow/caseflow-api/internal/model"
	"github.com/caseflow/caseflow-api/pkg/errors"
)

type WorkflowRepository struct {
	store *Store
}

func NewWorkflowRepository(store *Store) *WorkflowRepository {
	return &WorkflowRepository{store: store}
}

// ApplyCompletion applies a verified task completion as one critical
// section: the completed task record, the patient status transition, the
// optional follow-on task, the activity entry and the outbox events all
// become visible together or not at all.
func (r *WorkflowRepository) ApplyCompletion(ctx context.Context, m *model.CompletionMutation) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	taskKey := m.Task.ID.String()
	current, ok := s.tasks[taskKey]
	if !ok {
		s.observe("apply_completion", "error")
		return errors.NotFound("task", nil)
	}
	if current.Status != model.TaskStatusPending {
		s.observe("apply_completion", "error")
		return errors.Conflict("task already completed", nil)
	}
	patient, ok := s.patients[m.Task.PatientID.String()]
	if !ok {
		s.observe("apply_completion", "error")
		return errors.NotFound("patient", nil)
	}

	s.tasks[taskKey] = cloneTask(m.Task)
	patient.Status = m.PatientStatus
	if m.Task.CompletedAt != nil {
		patient.UpdatedAt = *m.Task.CompletedAt
	}

	if m.FollowOn != nil {
		s.taskSeq++
		m.FollowOn.Seq = s.taskSeq
		s.tasks[m.FollowOn.ID.String()] = cloneTask(m.FollowOn)
	}
	if m.Activity != nil {
		s.appendActivityLocked(m.Activity)
	}
	for _, ev := range m.Events {
		s.outbox = append(s.outbox, cloneOutbox(ev))
	}

	s.observe("apply_completion", "success")
	return nil
}
