package task

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/caseflow/caseflow-api/internal/model"
	"github.com/caseflow/caseflow-api/internal/registry"
	"github.com/caseflow/caseflow-api/internal/repository/memory"
	"github.com/caseflow/caseflow-api/internal/service/task"
	"github.com/caseflow/caseflow-api/internal/service/verification"
	"github.com/caseflow/caseflow-api/internal/snapshot"
	"github.com/caseflow/caseflow-api/pkg/logger"
	"github.com/caseflow/caseflow-api/pkg/security"
	"github.com/caseflow/caseflow-api/pkg/validator"
)

type nullSnapshotStore struct{}

func (nullSnapshotStore) Load(ctx context.Context) (*model.Snapshot, error) { return nil, nil }
func (nullSnapshotStore) Save(ctx context.Context, snap *model.Snapshot) error {
	return nil
}

type imagingSelector struct{}

func (imagingSelector) Next(*model.Task) model.TaskType { return model.TaskTypeImaging }

func setupRouter(t *testing.T) (*gin.Engine, *memory.Store) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	require.NoError(t, validator.RegisterCustom())

	store := memory.NewStore()
	taskTypes, err := registry.NewTaskTypeRegistry(registry.DefaultTaskTypes())
	require.NoError(t, err)
	operators, err := registry.NewOperatorDirectory([]registry.OperatorSeed{
		{ID: "DOC_01", Name: "Dr. Zhang", Role: "doctor", HomeLocation: "DOC_OFFICE", Credential: "1234"},
	}, security.NewBcryptHasher(bcrypt.MinCost))
	require.NoError(t, err)

	tasks := memory.NewTaskRepository(store)
	persist := snapshot.NewWriteThrough(store, nullSnapshotStore{}, nil)
	log := logger.NewLogger(&logger.Config{Level: logger.ErrorLevel, Output: io.Discard})

	verifier := verification.NewService(
		tasks,
		memory.NewPatientRepository(store),
		memory.NewWorkflowRepository(store),
		taskTypes,
		operators,
		imagingSelector{},
		persist,
		nil,
		log,
	)
	h := NewHandler(task.NewService(tasks, taskTypes), verifier)

	r := gin.New()
	api := r.Group("/api/v1")
	h.RegisterRoutes(api)
	return r, store
}

func seedPatientWithTask(t *testing.T, store *memory.Store) (*model.Patient, *model.Task) {
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
	require.NoError(t, memory.NewPatientRepository(store).Create(ctx, patient))
	pending := &model.Task{
		ID:          uuid.New(),
		PatientID:   patient.ID,
		Type:        model.TaskTypePrescription,
		Description: "Awaiting prescription from doctor",
		Status:      model.TaskStatusPending,
		CreatedAt:   now,
	}
	require.NoError(t, memory.NewTaskRepository(store).Create(ctx, pending))
	return patient, pending
}

func doJSON(r *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestListTasks(t *testing.T) {
	r, store := setupRouter(t)
	seedPatientWithTask(t, store)

	w := doJSON(r, http.MethodGet, "/api/v1/tasks", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Status string `json:"status"`
		Data   []struct {
			Type             model.TaskType `json:"type"`
			Label            string         `json:"label"`
			RequiredLocation string         `json:"required_location"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "success", resp.Status)
	require.Len(t, resp.Data, 1)
	assert.Equal(t, model.TaskTypePrescription, resp.Data[0].Type)
	assert.Equal(t, "Prescription", resp.Data[0].Label)
	assert.Equal(t, "DOC_OFFICE", resp.Data[0].RequiredLocation)
}

func TestListTasksRejectsUnknownType(t *testing.T) {
	r, _ := setupRouter(t)

	w := doJSON(r, http.MethodGet, "/api/v1/tasks?type=SURGERY", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetTaskNotFound(t *testing.T) {
	r, _ := setupRouter(t)

	w := doJSON(r, http.MethodGet, "/api/v1/tasks/"+uuid.NewString(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(r, http.MethodGet, "/api/v1/tasks/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCompleteTaskSuccess(t *testing.T) {
	r, store := setupRouter(t)
	_, pending := seedPatientWithTask(t, store)

	w := doJSON(r, http.MethodPost, fmt.Sprintf("/api/v1/tasks/%s/completion", pending.ID), map[string]string{
		"result":            "Prescribed rest",
		"location":          "DOC_OFFICE",
		"visit_code":        "AB12CD",
		"operator_id":       "DOC_01",
		"credential_secret": "1234",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Status string                  `json:"status"`
		Data   *model.CompletionResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "success", resp.Status)
	require.NotNil(t, resp.Data)
	assert.True(t, resp.Data.Verified)
	require.NotNil(t, resp.Data.FollowOn)
	assert.Equal(t, model.TaskTypeImaging, resp.Data.FollowOn.Type)
	assert.Equal(t, model.PatientStatusInTreatment, resp.Data.Patient.Status)
}

func TestCompleteTaskRejection(t *testing.T) {
	r, store := setupRouter(t)
	_, pending := seedPatientWithTask(t, store)

	w := doJSON(r, http.MethodPost, fmt.Sprintf("/api/v1/tasks/%s/completion", pending.ID), map[string]string{
		"result":            "Prescribed rest",
		"location":          "IMG_CENTER",
		"visit_code":        "ZZ99ZZ",
		"operator_id":       "DOC_01",
		"credential_secret": "1234",
	})
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)

	var resp struct {
		Status string                  `json:"status"`
		Data   *model.CompletionResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "rejected", resp.Status)
	require.NotNil(t, resp.Data)
	assert.False(t, resp.Data.Verified)
	assert.Equal(t, []model.VerificationFailure{
		model.FailurePatientNotVerified,
		model.FailureWrongLocation,
	}, resp.Data.Failures)
}

func TestCompleteTaskValidatesBody(t *testing.T) {
	r, store := setupRouter(t)
	_, pending := seedPatientWithTask(t, store)

	// malformed visit code fails request binding before the engine runs
	w := doJSON(r, http.MethodPost, fmt.Sprintf("/api/v1/tasks/%s/completion", pending.ID), map[string]string{
		"result":            "Prescribed rest",
		"location":          "DOC_OFFICE",
		"visit_code":        "ab12cd",
		"operator_id":       "DOC_01",
		"credential_secret": "1234",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(r, http.MethodPost, fmt.Sprintf("/api/v1/tasks/%s/completion", pending.ID), map[string]string{
		"result": "Prescribed rest",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCompleteTaskConflictWhenAlreadyCompleted(t *testing.T) {
	r, store := setupRouter(t)
	_, pending := seedPatientWithTask(t, store)

	body := map[string]string{
		"result":            "Prescribed rest",
		"location":          "DOC_OFFICE",
		"visit_code":        "AB12CD",
		"operator_id":       "DOC_01",
		"credential_secret": "1234",
	}
	w := doJSON(r, http.MethodPost, fmt.Sprintf("/api/v1/tasks/%s/completion", pending.ID), body)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(r, http.MethodPost, fmt.Sprintf("/api/v1/tasks/%s/completion", pending.ID), body)
	assert.Equal(t, http.StatusConflict, w.Code)
}
