package verification

import (
	"context"
	stderrors "errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/caseflow/caseflow-api/internal/model"
	"github.com/caseflow/caseflow-api/internal/registry"
	"github.com/caseflow/caseflow-api/internal/repository/memory"
	"github.com/caseflow/caseflow-api/internal/snapshot"
	"github.com/caseflow/caseflow-api/pkg/errors"
	"github.com/caseflow/caseflow-api/pkg/logger"
	"github.com/caseflow/caseflow-api/pkg/security"
)

// fixedSelector always dispatches the same follow-on type, replacing the
// coin flip for deterministic assertions.
type fixedSelector model.TaskType

func (f fixedSelector) Next(*model.Task) model.TaskType { return model.TaskType(f) }

// stubSnapshotStore records saves in memory and can be told to fail.
type stubSnapshotStore struct {
	mu       sync.Mutex
	saved    *model.Snapshot
	failSave bool
	saves    int
}

func (s *stubSnapshotStore) Load(ctx context.Context) (*model.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saved, nil
}

func (s *stubSnapshotStore) Save(ctx context.Context, snap *model.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failSave {
		return stderrors.New("disk full")
	}
	s.saved = snap
	s.saves++
	return nil
}

type fixture struct {
	store    *memory.Store
	tasks    *memory.TaskRepository
	patients *memory.PatientRepository
	outbox   *memory.OutboxRepository
	activity *memory.ActivityRepository
	dest     *stubSnapshotStore
	service  *Service
}

func newFixture(t *testing.T, followOn model.TaskType) *fixture {
	t.Helper()

	store := memory.NewStore()
	hasher := security.NewBcryptHasher(bcrypt.MinCost)
	operators, err := registry.NewOperatorDirectory([]registry.OperatorSeed{
		{ID: "DOC_01", Name: "Dr. Zhang", Role: "doctor", HomeLocation: "DOC_OFFICE", Credential: "1234"},
		{ID: "IMG_01", Name: "Tech Li", Role: "imaging_tech", HomeLocation: "IMG_CENTER", Credential: "1234"},
		{ID: "PHY_01", Name: "Therapist Wang", Role: "therapist", HomeLocation: "PHYSIO_ROOM", Credential: "1234"},
	}, hasher)
	require.NoError(t, err)
	taskTypes, err := registry.NewTaskTypeRegistry(registry.DefaultTaskTypes())
	require.NoError(t, err)

	dest := &stubSnapshotStore{}
	persist := snapshot.NewWriteThrough(store, dest, nil)
	log := logger.NewLogger(&logger.Config{Level: logger.ErrorLevel, Output: io.Discard})

	f := &fixture{
		store:    store,
		tasks:    memory.NewTaskRepository(store),
		patients: memory.NewPatientRepository(store),
		outbox:   memory.NewOutboxRepository(store),
		activity: memory.NewActivityRepository(store),
		dest:     dest,
	}
	f.service = NewService(
		f.tasks,
		f.patients,
		memory.NewWorkflowRepository(store),
		taskTypes,
		operators,
		fixedSelector(followOn),
		persist,
		nil,
		log,
	)
	return f
}

// seed creates a waiting patient with one pending prescription task.
func (f *fixture) seed(t *testing.T) (*model.Patient, *model.Task) {
	t.Helper()
	ctx := context.Background()
	now := time.Now().UTC()
	patient := &model.Patient{
		ID:        uuid.New(),
		Name:      "Li Lei",
		Age:       34,
		VisitCode: "AB12CD",
		Status:    model.PatientStatusWaiting,
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, f.patients.Create(ctx, patient))
	task := &model.Task{
		ID:          uuid.New(),
		PatientID:   patient.ID,
		Type:        model.TaskTypePrescription,
		Description: "Awaiting prescription from doctor",
		Status:      model.TaskStatusPending,
		CreatedAt:   now,
	}
	require.NoError(t, f.tasks.Create(ctx, task))
	return patient, task
}

func validRequest(task *model.Task) *model.CompletionRequest {
	return &model.CompletionRequest{
		TaskID:           task.ID,
		Result:           "Prescribed rest and follow-up scan",
		Location:         "DOC_OFFICE",
		VisitCode:        "AB12CD",
		OperatorID:       "DOC_01",
		CredentialSecret: "1234",
	}
}

func TestCompletePrescriptionSuccess(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, model.TaskTypeImaging)
	patient, task := f.seed(t)

	result, err := f.service.Complete(ctx, validRequest(task))
	require.NoError(t, err)
	require.True(t, result.Verified)
	assert.Empty(t, result.Failures)

	require.NotNil(t, result.Task)
	assert.Equal(t, model.TaskStatusCompleted, result.Task.Status)
	require.NotNil(t, result.Task.Result)
	assert.Equal(t, "Prescribed rest and follow-up scan", *result.Task.Result)
	require.NotNil(t, result.Task.CompletedBy)
	assert.Equal(t, "Dr. Zhang", *result.Task.CompletedBy)
	require.NotNil(t, result.Task.CompletedAt)

	require.NotNil(t, result.Patient)
	assert.Equal(t, model.PatientStatusInTreatment, result.Patient.Status)

	require.NotNil(t, result.FollowOn)
	assert.Equal(t, model.TaskTypeImaging, result.FollowOn.Type)
	assert.Equal(t, model.TaskStatusPending, result.FollowOn.Status)
	assert.Equal(t, patient.ID, result.FollowOn.PatientID)
	assert.NotEmpty(t, result.FollowOn.Description)

	// the store reflects the same transition
	stored, err := f.tasks.Get(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, model.TaskStatusCompleted, stored.Status)

	storedPatient, err := f.patients.Get(ctx, patient.ID)
	require.NoError(t, err)
	assert.Equal(t, model.PatientStatusInTreatment, storedPatient.Status)

	timeline, err := f.tasks.ListByPatient(ctx, patient.ID)
	require.NoError(t, err)
	require.Len(t, timeline, 2)
	assert.Equal(t, model.TaskTypeImaging, timeline[1].Type)

	pending, err := f.outbox.GetPendingEvents(ctx, 10)
	require.NoError(t, err)
	types := make([]string, 0, len(pending))
	for _, ev := range pending {
		types = append(types, ev.EventType)
	}
	assert.Contains(t, types, model.EventTaskCompleted)
	assert.Contains(t, types, model.EventTaskCreated)

	entries, err := f.activity.Recent(ctx, 0)
	require.NoError(t, err)
	require.NotEmpty(t, entries)
	assert.Contains(t, entries[0].Message, "Task completed")
	assert.Contains(t, entries[0].Message, "Li Lei")

	assert.Equal(t, 1, f.dest.saves)
}

func TestCompleteFollowOnSelectorDecidesType(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, model.TaskTypeTherapy)
	_, task := f.seed(t)

	result, err := f.service.Complete(ctx, validRequest(task))
	require.NoError(t, err)
	require.NotNil(t, result.FollowOn)
	assert.Equal(t, model.TaskTypeTherapy, result.FollowOn.Type)
}

func TestCompleteImagingFinishesPatientWithoutFollowOn(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, model.TaskTypeImaging)
	patient, _ := f.seed(t)

	imaging := &model.Task{
		ID:          uuid.New(),
		PatientID:   patient.ID,
		Type:        model.TaskTypeImaging,
		Description: "Doctor's order: chest CT scan",
		Status:      model.TaskStatusPending,
		CreatedAt:   time.Now().UTC(),
	}
	require.NoError(t, f.tasks.Create(ctx, imaging))

	result, err := f.service.Complete(ctx, &model.CompletionRequest{
		TaskID:           imaging.ID,
		Result:           "No abnormality detected",
		Location:         "IMG_CENTER",
		VisitCode:        "AB12CD",
		OperatorID:       "IMG_01",
		CredentialSecret: "1234",
	})
	require.NoError(t, err)
	require.True(t, result.Verified)
	assert.Nil(t, result.FollowOn)
	assert.Equal(t, model.PatientStatusFinished, result.Patient.Status)

	storedPatient, err := f.patients.Get(ctx, patient.ID)
	require.NoError(t, err)
	assert.Equal(t, model.PatientStatusFinished, storedPatient.Status)
}

func TestCompleteRejectsWrongLocation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, model.TaskTypeImaging)
	_, task := f.seed(t)

	req := validRequest(task)
	req.Location = "IMG_CENTER"

	result, err := f.service.Complete(ctx, req)
	require.NoError(t, err)
	assert.False(t, result.Verified)
	assert.Equal(t, []model.VerificationFailure{model.FailureWrongLocation}, result.Failures)
}

func TestCompleteRejectsBadCredentialAndVisitCodeTogether(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, model.TaskTypeImaging)
	_, task := f.seed(t)

	req := validRequest(task)
	req.CredentialSecret = "0000"
	req.VisitCode = "ZZ99ZZ"

	result, err := f.service.Complete(ctx, req)
	require.NoError(t, err)
	assert.False(t, result.Verified)
	assert.Equal(t, []model.VerificationFailure{
		model.FailureInvalidCredential,
		model.FailurePatientNotVerified,
	}, result.Failures)
}

func TestCompleteCollectsAllFailuresInStableOrder(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, model.TaskTypeImaging)
	_, task := f.seed(t)

	// imaging tech at the imaging center, wrong secret, wrong visit code,
	// completing a prescription task: every check fails
	result, err := f.service.Complete(ctx, &model.CompletionRequest{
		TaskID:           task.ID,
		Result:           "done",
		Location:         "IMG_CENTER",
		VisitCode:        "ZZ99ZZ",
		OperatorID:       "IMG_01",
		CredentialSecret: "0000",
	})
	require.NoError(t, err)
	assert.False(t, result.Verified)
	assert.Equal(t, []model.VerificationFailure{
		model.FailureInvalidCredential,
		model.FailurePatientNotVerified,
		model.FailureWrongLocation,
		model.FailureOperatorNotAuthorized,
	}, result.Failures)
}

func TestCompleteRejectionLeavesStoreUntouched(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, model.TaskTypeImaging)
	_, task := f.seed(t)

	before, err := f.store.Snapshot(ctx)
	require.NoError(t, err)

	req := validRequest(task)
	req.CredentialSecret = "9999"
	result, err := f.service.Complete(ctx, req)
	require.NoError(t, err)
	require.False(t, result.Verified)

	after, err := f.store.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, before, after)
	assert.Zero(t, f.dest.saves)
}

func TestCompleteUnknownTask(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, model.TaskTypeImaging)
	f.seed(t)

	req := validRequest(&model.Task{ID: uuid.New()})
	_, err := f.service.Complete(ctx, req)
	require.Error(t, err)
	assert.Equal(t, errors.ErrNotFound, errors.CodeOf(err))
}

func TestCompleteUnknownOperator(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, model.TaskTypeImaging)
	_, task := f.seed(t)

	req := validRequest(task)
	req.OperatorID = "DOC_99"
	_, err := f.service.Complete(ctx, req)
	require.Error(t, err)
	assert.Equal(t, errors.ErrNotFound, errors.CodeOf(err))
}

func TestCompleteAlreadyCompletedTask(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, model.TaskTypeImaging)
	_, task := f.seed(t)

	_, err := f.service.Complete(ctx, validRequest(task))
	require.NoError(t, err)

	_, err = f.service.Complete(ctx, validRequest(task))
	require.Error(t, err)
	assert.Equal(t, errors.ErrConflict, errors.CodeOf(err))
}

func TestCompleteSnapshotFailureRollsBack(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, model.TaskTypeImaging)
	patient, task := f.seed(t)
	f.dest.failSave = true

	_, err := f.service.Complete(ctx, validRequest(task))
	require.Error(t, err)
	assert.Equal(t, errors.ErrStorageUnavailable, errors.CodeOf(err))

	// rolled back: still pending, still waiting, no follow-on
	stored, err := f.tasks.Get(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, model.TaskStatusPending, stored.Status)

	storedPatient, err := f.patients.Get(ctx, patient.ID)
	require.NoError(t, err)
	assert.Equal(t, model.PatientStatusWaiting, storedPatient.Status)

	timeline, err := f.tasks.ListByPatient(ctx, patient.ID)
	require.NoError(t, err)
	assert.Len(t, timeline, 1)

	// and the request is retryable once storage recovers
	f.dest.failSave = false
	result, err := f.service.Complete(ctx, validRequest(task))
	require.NoError(t, err)
	assert.True(t, result.Verified)
}
