package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/caseflow/caseflow-api/internal/model"
)

// All repository interfaces in one file
type (
	// PatientRepository handles patient entities
	PatientRepository interface {
		Create(ctx context.Context, patient *model.Patient) error
		Get(ctx context.Context, id uuid.UUID) (*model.Patient, error)
		Update(ctx context.Context, patient *model.Patient) error
		// Delete removes the patient and cascades to every task that
		// references it; no orphan task may remain.
		Delete(ctx context.Context, id uuid.UUID) error
		List(ctx context.Context, filters *model.PatientFilters) ([]*model.Patient, error)
		Count(ctx context.Context) (int, error)
	}

	TaskRepository interface {
		Create(ctx context.Context, task *model.Task) error
		Get(ctx context.Context, id uuid.UUID) (*model.Task, error)
		List(ctx context.Context, filters *model.TaskFilters) ([]*model.Task, error)
		ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*model.Task, error)
		CountByStatus(ctx context.Context, status model.TaskStatus) (int, error)
	}

	// WorkflowRepository applies the verification engine's success-path
	// mutation as one unit: partial application must never be observable.
	WorkflowRepository interface {
		ApplyCompletion(ctx context.Context, mutation *model.CompletionMutation) error
	}

	ActivityRepository interface {
		Append(ctx context.Context, entry *model.ActivityEntry) error
		Recent(ctx context.Context, n int) ([]*model.ActivityEntry, error)
	}

	OutboxRepository interface {
		Create(ctx context.Context, event *model.OutboxEvent) error
		GetPendingEvents(ctx context.Context, limit int) ([]*model.OutboxEvent, error)
		UpdateStatus(ctx context.Context, id uuid.UUID, status model.OutboxStatus, errMsg *string) error
	}

	// SnapshotRepository exposes the store's persisted form for the
	// write-through persistence collaborator.
	SnapshotRepository interface {
		Snapshot(ctx context.Context) (*model.Snapshot, error)
		Restore(ctx context.Context, snapshot *model.Snapshot) error
	}
)
