package memory

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/caseflow/caseflow-api/internal/model"
	"github.com/caseflow/caseflow-api/pkg/errors"
)

type PatientRepository struct {
	store *Store
}

func NewPatientRepository(store *Store) *PatientRepository {
	return &PatientRepository{store: store}
}

func (r *PatientRepository) Create(ctx context.Context, patient *model.Patient) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	key := patient.ID.String()
	if _, exists := s.patients[key]; exists {
		s.observe("create_patient", "error")
		return errors.Conflict("patient already exists", nil)
	}
	s.patients[key] = clonePatient(patient)
	s.observe("create_patient", "success")
	return nil
}

func (r *PatientRepository) Get(ctx context.Context, id uuid.UUID) (*model.Patient, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.patients[id.String()]
	if !ok {
		s.observe("get_patient", "error")
		return nil, errors.NotFound("patient", nil)
	}
	s.observe("get_patient", "success")
	return clonePatient(p), nil
}

func (r *PatientRepository) Update(ctx context.Context, patient *model.Patient) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	key := patient.ID.String()
	if _, ok := s.patients[key]; !ok {
		s.observe("update_patient", "error")
		return errors.NotFound("patient", nil)
	}
	s.patients[key] = clonePatient(patient)
	s.observe("update_patient", "success")
	return nil
}

// Delete removes the patient and cascades to its tasks in the same
// critical section, so no orphan task is ever observable.
func (r *PatientRepository) Delete(ctx context.Context, id uuid.UUID) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	key := id.String()
	if _, ok := s.patients[key]; !ok {
		s.observe("delete_patient", "error")
		return errors.NotFound("patient", nil)
	}
	delete(s.patients, key)
	for tk, t := range s.tasks {
		if t.PatientID == id {
			delete(s.tasks, tk)
		}
	}
	s.observe("delete_patient", "success")
	return nil
}

func (r *PatientRepository) List(ctx context.Context, filters *model.PatientFilters) ([]*model.Patient, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*model.Patient, 0, len(s.patients))
	for _, p := range s.patients {
		if filters != nil && filters.Status != nil && p.Status != *filters.Status {
			continue
		}
		out = append(out, clonePatient(p))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}

func (r *PatientRepository) Count(ctx context.Context) (int, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.patients), nil
}
