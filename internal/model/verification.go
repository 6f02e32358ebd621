package model

import "github.com/google/uuid"

// VerificationFailure identifies one failed verification check. All four
// checks always run; failures are collected and reported together in this
// stable order: credential, presence, location, authorization.
type VerificationFailure string

const (
	FailureInvalidCredential     VerificationFailure = "INVALID_CREDENTIAL"
	FailurePatientNotVerified    VerificationFailure = "PATIENT_NOT_VERIFIED"
	FailureWrongLocation         VerificationFailure = "WRONG_LOCATION"
	FailureOperatorNotAuthorized VerificationFailure = "OPERATOR_NOT_AUTHORIZED"
)

// CompletionRequest carries the operator's claims for completing a task.
type CompletionRequest struct {
	TaskID           uuid.UUID `json:"-"`
	Result           string    `json:"result" binding:"required"`
	Location         string    `json:"location" binding:"required"`
	VisitCode        string    `json:"visit_code" binding:"required,visitcode"`
	OperatorID       string    `json:"operator_id" binding:"required"`
	CredentialSecret string    `json:"credential_secret" binding:"required"`
}

// CompletionResult is returned for every non-fatal completion attempt.
// Verified=false means the request was rejected as a whole: Failures holds
// every failing check and no state was mutated.
type CompletionResult struct {
	Verified bool                  `json:"verified"`
	Failures []VerificationFailure `json:"failures,omitempty"`
	Task     *Task                 `json:"task,omitempty"`
	Patient  *Patient              `json:"patient,omitempty"`
	FollowOn *Task                 `json:"follow_on,omitempty"`
}

// CompletionMutation is the success-path state change, applied by the
// store as a single critical section so partial application is never
// externally observable.
type CompletionMutation struct {
	Task          *Task
	PatientStatus PatientStatus
	FollowOn      *Task
	Activity      *ActivityEntry
	Events        []*OutboxEvent
}
