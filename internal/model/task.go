package model

import (
	"time"

	"github.com/google/uuid"
)

type TaskType string

const (
	TaskTypePrescription TaskType = "PRESCRIPTION"
	TaskTypeImaging      TaskType = "IMAGING"
	TaskTypeTherapy      TaskType = "THERAPY"
)

func (t TaskType) Valid() bool {
	switch t {
	case TaskTypePrescription, TaskTypeImaging, TaskTypeTherapy:
		return true
	}
	return false
}

type TaskStatus string

const (
	TaskStatusPending   TaskStatus = "PENDING"
	TaskStatusCompleted TaskStatus = "COMPLETED"
)

// Task transitions exactly once, Pending to Completed. Seq is assigned by
// the store on creation and is monotonic across the store's lifetime;
// listings order on it instead of on the identifier.
type Task struct {
	ID          uuid.UUID  `json:"id"`
	Seq         uint64     `json:"seq"`
	PatientID   uuid.UUID  `json:"patient_id"`
	Type        TaskType   `json:"type"`
	Description string     `json:"description"`
	Status      TaskStatus `json:"status"`
	Result      *string    `json:"result,omitempty"`
	CompletedBy *string    `json:"completed_by,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

type TaskFilters struct {
	Type      *TaskType
	Status    *TaskStatus
	PatientID *uuid.UUID
}

// TaskTypeDescriptor is static configuration: the display label and the
// physical location a task type mandates for execution.
type TaskTypeDescriptor struct {
	Label            string `json:"label"`
	RequiredLocation string `json:"required_location"`
}
