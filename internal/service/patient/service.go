package patient

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/caseflow/caseflow-api/internal/model"
	"github.com/caseflow/caseflow-api/internal/repository"
	"github.com/caseflow/caseflow-api/internal/service/activity"
	"github.com/caseflow/caseflow-api/internal/service/event"
	"github.com/caseflow/caseflow-api/internal/snapshot"
	"github.com/caseflow/caseflow-api/pkg/security"
)

const initialTaskDescription = "Awaiting prescription from doctor"

type PatientService interface {
	Register(ctx context.Context, req *model.RegisterPatientRequest) (*model.Patient, *model.Task, error)
	Get(ctx context.Context, id uuid.UUID) (*model.Patient, error)
	List(ctx context.Context, filters *model.PatientFilters) ([]*model.Patient, error)
	History(ctx context.Context, id uuid.UUID) (*model.PatientHistory, error)
	Update(ctx context.Context, id uuid.UUID, req *model.UpdatePatientRequest) (*model.Patient, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type Service struct {
	patients repository.PatientRepository
	tasks    repository.TaskRepository
	activity *activity.Service
	events   *event.Service
	persist  *snapshot.WriteThrough
}

func NewService(
	patients repository.PatientRepository,
	tasks repository.TaskRepository,
	activitySvc *activity.Service,
	events *event.Service,
	persist *snapshot.WriteThrough,
) *Service {
	return &Service{
		patients: patients,
		tasks:    tasks,
		activity: activitySvc,
		events:   events,
		persist:  persist,
	}
}

// Register creates the patient with a fresh visit code and exactly one
// initial Pending prescription task.
func (s *Service) Register(ctx context.Context, req *model.RegisterPatientRequest) (*model.Patient, *model.Task, error) {
	visitCode, err := security.GenerateVisitCode()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to register patient: %w", err)
	}

	now := time.Now().UTC()
	patient := &model.Patient{
		ID:        uuid.New(),
		Name:      req.Name,
		Age:       req.Age,
		VisitCode: visitCode,
		Status:    model.PatientStatusWaiting,
		CreatedAt: now,
		UpdatedAt: now,
	}
	task := &model.Task{
		ID:          uuid.New(),
		PatientID:   patient.ID,
		Type:        model.TaskTypePrescription,
		Description: initialTaskDescription,
		Status:      model.TaskStatusPending,
		CreatedAt:   now,
	}

	err = s.persist.Guard(ctx, func() error {
		if err := s.patients.Create(ctx, patient); err != nil {
			return err
		}
		if err := s.tasks.Create(ctx, task); err != nil {
			return err
		}
		if err := s.activity.Record(ctx, "Patient registered: %s (code: %s)", patient.Name, patient.VisitCode); err != nil {
			return err
		}
		if err := s.events.Emit(ctx, model.EventPatientRegistered, patient); err != nil {
			return err
		}
		return s.events.Emit(ctx, model.EventTaskCreated, task)
	})
	if err != nil {
		return nil, nil, err
	}
	return patient, task, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.Patient, error) {
	return s.patients.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, filters *model.PatientFilters) ([]*model.Patient, error) {
	return s.patients.List(ctx, filters)
}

// History returns the patient's task timeline in creation order.
func (s *Service) History(ctx context.Context, id uuid.UUID) (*model.PatientHistory, error) {
	patient, err := s.patients.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	tasks, err := s.tasks.ListByPatient(ctx, id)
	if err != nil {
		return nil, err
	}
	return &model.PatientHistory{Patient: patient, Tasks: tasks}, nil
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, req *model.UpdatePatientRequest) (*model.Patient, error) {
	patient, err := s.patients.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		patient.Name = *req.Name
	}
	if req.Age != nil {
		patient.Age = *req.Age
	}
	patient.UpdatedAt = time.Now().UTC()

	err = s.persist.Guard(ctx, func() error {
		if err := s.patients.Update(ctx, patient); err != nil {
			return err
		}
		if err := s.activity.Record(ctx, "Patient details updated: %s", patient.Name); err != nil {
			return err
		}
		return s.events.Emit(ctx, model.EventPatientUpdated, patient)
	})
	if err != nil {
		return nil, err
	}
	return patient, nil
}

// Delete removes the patient; the store cascades to its tasks.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.patients.Get(ctx, id); err != nil {
		return err
	}
	return s.persist.Guard(ctx, func() error {
		if err := s.patients.Delete(ctx, id); err != nil {
			return err
		}
		if err := s.activity.Record(ctx, "Patient deleted (id: %s)", id); err != nil {
			return err
		}
		return s.events.Emit(ctx, model.EventPatientDeleted, map[string]string{"id": id.String()})
	})
}
