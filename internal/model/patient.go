package model

import (
	"time"

	"github.com/google/uuid"
)

type PatientStatus string

const (
	PatientStatusWaiting     PatientStatus = "WAITING"
	PatientStatusInTreatment PatientStatus = "IN_TREATMENT"
	PatientStatusFinished    PatientStatus = "FINISHED"
)

// Patient is the owning entity of the workflow. Status is derived solely
// from task completions; VisitCode is the presence-proof secret generated
// at registration and never changed afterwards.
type Patient struct {
	ID        uuid.UUID     `json:"id"`
	Name      string        `json:"name"`
	Age       int           `json:"age"`
	VisitCode string        `json:"visit_code"`
	Status    PatientStatus `json:"status"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

type RegisterPatientRequest struct {
	Name string `json:"name" binding:"required"`
	Age  int    `json:"age" binding:"required,gte=0,lte=150"`
}

type UpdatePatientRequest struct {
	Name *string `json:"name"`
	Age  *int    `json:"age" binding:"omitempty,gte=0,lte=150"`
}

type PatientFilters struct {
	Status *PatientStatus
}

// PatientHistory is the per-patient task timeline, ordered by creation.
type PatientHistory struct {
	Patient *Patient `json:"patient"`
	Tasks   []*Task  `json:"tasks"`
}
