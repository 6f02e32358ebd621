package memory

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/caseflow/caseflow-api/internal/model"
	"github.com/caseflow/caseflow-api/pkg/errors"
)

type TaskRepository struct {
	store *Store
}

func NewTaskRepository(store *Store) *TaskRepository {
	return &TaskRepository{store: store}
}

// Create inserts the task and assigns its monotonic sequence number.
// The caller's struct is updated with the assigned Seq.
func (r *TaskRepository) Create(ctx context.Context, task *model.Task) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	key := task.ID.String()
	if _, exists := s.tasks[key]; exists {
		s.observe("create_task", "error")
		return errors.Conflict("task already exists", nil)
	}
	if _, ok := s.patients[task.PatientID.String()]; !ok {
		s.observe("create_task", "error")
		return errors.NotFound("patient", nil)
	}
	s.taskSeq++
	task.Seq = s.taskSeq
	s.tasks[key] = cloneTask(task)
	s.observe("create_task", "success")
	return nil
}

func (r *TaskRepository) Get(ctx context.Context, id uuid.UUID) (*model.Task, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tasks[id.String()]
	if !ok {
		s.observe("get_task", "error")
		return nil, errors.NotFound("task", nil)
	}
	s.observe("get_task", "success")
	return cloneTask(t), nil
}

// List returns tasks newest-first.
func (r *TaskRepository) List(ctx context.Context, filters *model.TaskFilters) ([]*model.Task, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*model.Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		if filters != nil {
			if filters.Type != nil && t.Type != *filters.Type {
				continue
			}
			if filters.Status != nil && t.Status != *filters.Status {
				continue
			}
			if filters.PatientID != nil && t.PatientID != *filters.PatientID {
				continue
			}
		}
		out = append(out, cloneTask(t))
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Seq > out[j].Seq
	})
	return out, nil
}

// ListByPatient returns the patient's tasks in creation order, the
// timeline shown in the patient history.
func (r *TaskRepository) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*model.Task, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*model.Task, 0)
	for _, t := range s.tasks {
		if t.PatientID == patientID {
			out = append(out, cloneTask(t))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Seq < out[j].Seq
	})
	return out, nil
}

func (r *TaskRepository) CountByStatus(ctx context.Context, status model.TaskStatus) (int, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, t := range s.tasks {
		if t.Status == status {
			n++
		}
	}
	return n, nil
}
