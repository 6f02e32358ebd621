package verification

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/caseflow/caseflow-api/internal/model"
	"github.com/caseflow/caseflow-api/internal/registry"
	"github.com/caseflow/caseflow-api/internal/repository"
	"github.com/caseflow/caseflow-api/internal/service/event"
	"github.com/caseflow/caseflow-api/internal/snapshot"
	"github.com/caseflow/caseflow-api/pkg/errors"
	"github.com/caseflow/caseflow-api/pkg/logger"
	"github.com/caseflow/caseflow-api/pkg/metrics"
)

// patient status after a successful completion, by task type
var transitions = map[model.TaskType]model.PatientStatus{
	model.TaskTypePrescription: model.PatientStatusInTreatment,
	model.TaskTypeImaging:      model.PatientStatusFinished,
	model.TaskTypeTherapy:      model.PatientStatusFinished,
}

// system-authored descriptions for auto-dispatched follow-on tasks
var followOnDescriptions = map[model.TaskType]string{
	model.TaskTypeImaging: "Doctor's order: chest CT scan",
	model.TaskTypeTherapy: "Doctor's order: shoulder and neck rehabilitation",
}

// Service is the verification and transition engine. It validates the
// operator's claims against the directory and registries, and on success
// applies the workflow transition atomically.
type Service struct {
	tasks     repository.TaskRepository
	patients  repository.PatientRepository
	workflow  repository.WorkflowRepository
	taskTypes *registry.TaskTypeRegistry
	operators *registry.OperatorDirectory
	selector  FollowOnSelector
	persist   *snapshot.WriteThrough
	metrics   *metrics.Metrics
	logger    *logger.Logger
}

func NewService(
	tasks repository.TaskRepository,
	patients repository.PatientRepository,
	workflow repository.WorkflowRepository,
	taskTypes *registry.TaskTypeRegistry,
	operators *registry.OperatorDirectory,
	selector FollowOnSelector,
	persist *snapshot.WriteThrough,
	m *metrics.Metrics,
	log *logger.Logger,
) *Service {
	return &Service{
		tasks:     tasks,
		patients:  patients,
		workflow:  workflow,
		taskTypes: taskTypes,
		operators: operators,
		selector:  selector,
		persist:   persist,
		metrics:   m,
		logger:    log,
	}
}

// Complete processes a task-completion request. Validation failures come
// back as data inside the result, all of them at once, and leave the
// store untouched; referential errors (missing task, patient, operator
// or task type) abort the request with an error.
func (s *Service) Complete(ctx context.Context, req *model.CompletionRequest) (*model.CompletionResult, error) {
	task, err := s.tasks.Get(ctx, req.TaskID)
	if err != nil {
		return nil, err
	}
	if task.Status != model.TaskStatusPending {
		return nil, errors.Conflict("task already completed", nil)
	}
	patient, err := s.patients.Get(ctx, task.PatientID)
	if err != nil {
		// cascading delete makes this unreachable; a hit means the
		// referential invariant is broken
		return nil, err
	}
	operator, err := s.operators.Lookup(req.OperatorID)
	if err != nil {
		return nil, err
	}
	descriptor, err := s.taskTypes.Describe(task.Type)
	if err != nil {
		return nil, err
	}

	// All four checks run; every failure is collected so the operator
	// sees the complete picture in one round-trip.
	var failures []model.VerificationFailure
	if !s.operators.VerifyCredential(operator, req.CredentialSecret) {
		failures = append(failures, model.FailureInvalidCredential)
	}
	if req.VisitCode != patient.VisitCode {
		failures = append(failures, model.FailurePatientNotVerified)
	}
	if req.Location != descriptor.RequiredLocation {
		failures = append(failures, model.FailureWrongLocation)
	}
	if operator.HomeLocation != descriptor.RequiredLocation {
		failures = append(failures, model.FailureOperatorNotAuthorized)
	}

	if len(failures) > 0 {
		s.observeRejection(failures)
		s.logger.Info("task completion rejected",
			"task_id", task.ID.String(),
			"operator_id", req.OperatorID,
			"failures", failures)
		return &model.CompletionResult{Verified: false, Failures: failures}, nil
	}

	nextStatus, ok := transitions[task.Type]
	if !ok {
		return nil, errors.Internal(fmt.Errorf("no transition for task type %q", task.Type))
	}

	now := time.Now().UTC()
	completed := *task
	completed.Status = model.TaskStatusCompleted
	completed.Result = &req.Result
	completed.CompletedBy = &operator.Name
	completed.CompletedAt = &now

	mutation := &model.CompletionMutation{
		Task:          &completed,
		PatientStatus: nextStatus,
		Activity: &model.ActivityEntry{
			Time:    now,
			Message: fmt.Sprintf("Task completed: %s - %s", descriptor.Label, patient.Name),
		},
	}

	completedEvent, err := event.New(model.EventTaskCompleted, &completed)
	if err != nil {
		return nil, errors.Internal(err)
	}
	mutation.Events = append(mutation.Events, completedEvent)

	if task.Type == model.TaskTypePrescription {
		followOnType := s.selector.Next(task)
		followOn := &model.Task{
			ID:          uuid.New(),
			PatientID:   patient.ID,
			Type:        followOnType,
			Description: followOnDescriptions[followOnType],
			Status:      model.TaskStatusPending,
			CreatedAt:   now,
		}
		mutation.FollowOn = followOn

		createdEvent, err := event.New(model.EventTaskCreated, followOn)
		if err != nil {
			return nil, errors.Internal(err)
		}
		mutation.Events = append(mutation.Events, createdEvent)
	}

	err = s.persist.Guard(ctx, func() error {
		return s.workflow.ApplyCompletion(ctx, mutation)
	})
	if err != nil {
		s.observe("error")
		return nil, err
	}

	s.observe("success")
	if mutation.FollowOn != nil && s.metrics != nil {
		s.metrics.TasksCreated.WithLabelValues(string(mutation.FollowOn.Type)).Inc()
	}
	s.logger.Info("task completed",
		"task_id", task.ID.String(),
		"task_type", string(task.Type),
		"operator_id", req.OperatorID,
		"patient_status", string(nextStatus))

	result := &model.CompletionResult{
		Verified: true,
		Task:     &completed,
		FollowOn: mutation.FollowOn,
	}
	patient.Status = nextStatus
	patient.UpdatedAt = now
	result.Patient = patient
	return result, nil
}

func (s *Service) observe(outcome string) {
	if s.metrics != nil {
		s.metrics.VerificationAttempts.WithLabelValues(outcome).Inc()
	}
}

func (s *Service) observeRejection(failures []model.VerificationFailure) {
	if s.metrics == nil {
		return
	}
	s.metrics.VerificationAttempts.WithLabelValues("rejected").Inc()
	for _, f := range failures {
		s.metrics.VerificationFailures.WithLabelValues(string(f)).Inc()
	}
}
