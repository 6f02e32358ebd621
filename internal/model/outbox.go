package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type OutboxStatus string

const (
	OutboxStatusPending   OutboxStatus = "PENDING"
	OutboxStatusProcessed OutboxStatus = "PROCESSED"
	OutboxStatusFailed    OutboxStatus = "FAILED"
)

// Event types recorded on state-changing operations.
const (
	EventPatientRegistered = "PATIENT_REGISTERED"
	EventPatientUpdated    = "PATIENT_UPDATED"
	EventPatientDeleted    = "PATIENT_DELETED"
	EventTaskCreated       = "TASK_CREATED"
	EventTaskCompleted     = "TASK_COMPLETED"
)

type OutboxEvent struct {
	ID           uuid.UUID       `json:"id"`
	EventType    string          `json:"event_type"`
	Payload      json.RawMessage `json:"payload"`
	Status       OutboxStatus    `json:"status"`
	ErrorMessage *string         `json:"error_message,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	ProcessedAt  *time.Time      `json:"processed_at,omitempty"`
	RetryCount   int             `json:"retry_count"`
}
