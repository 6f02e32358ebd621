package memory

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caseflow/caseflow-api/internal/model"
)

func newTestPatient(name string) *model.Patient {
	now := time.Now().UTC()
	return &model.Patient{
		ID:        uuid.New(),
		Name:      name,
		Age:       40,
		VisitCode: "AB12CD",
		Status:    model.PatientStatusWaiting,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func newTestTask(patientID uuid.UUID, taskType model.TaskType) *model.Task {
	return &model.Task{
		ID:          uuid.New(),
		PatientID:   patientID,
		Type:        taskType,
		Description: "test task",
		Status:      model.TaskStatusPending,
		CreatedAt:   time.Now().UTC(),
	}
}

func TestTaskSequenceIsMonotonic(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	patients := NewPatientRepository(store)
	tasks := NewTaskRepository(store)

	p := newTestPatient("Seq Patient")
	require.NoError(t, patients.Create(ctx, p))

	var lastSeq uint64
	for i := 0; i < 5; i++ {
		task := newTestTask(p.ID, model.TaskTypePrescription)
		require.NoError(t, tasks.Create(ctx, task))
		assert.Greater(t, task.Seq, lastSeq)
		lastSeq = task.Seq
	}
}

func TestTaskCreateRequiresPatient(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	tasks := NewTaskRepository(store)

	err := tasks.Create(ctx, newTestTask(uuid.New(), model.TaskTypeImaging))
	assert.Error(t, err)
}

func TestDeletePatientCascadesToTasks(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	patients := NewPatientRepository(store)
	tasks := NewTaskRepository(store)

	p := newTestPatient("Cascade Patient")
	other := newTestPatient("Other Patient")
	require.NoError(t, patients.Create(ctx, p))
	require.NoError(t, patients.Create(ctx, other))

	for i := 0; i < 3; i++ {
		require.NoError(t, tasks.Create(ctx, newTestTask(p.ID, model.TaskTypePrescription)))
	}
	kept := newTestTask(other.ID, model.TaskTypeImaging)
	require.NoError(t, tasks.Create(ctx, kept))

	require.NoError(t, patients.Delete(ctx, p.ID))

	_, err := patients.Get(ctx, p.ID)
	assert.Error(t, err)

	orphans, err := tasks.ListByPatient(ctx, p.ID)
	require.NoError(t, err)
	assert.Empty(t, orphans)

	remaining, err := tasks.ListByPatient(ctx, other.ID)
	require.NoError(t, err)
	assert.Len(t, remaining, 1)
}

func TestListTasksNewestFirst(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	patients := NewPatientRepository(store)
	tasks := NewTaskRepository(store)

	p := newTestPatient("Order Patient")
	require.NoError(t, patients.Create(ctx, p))

	first := newTestTask(p.ID, model.TaskTypePrescription)
	second := newTestTask(p.ID, model.TaskTypeImaging)
	require.NoError(t, tasks.Create(ctx, first))
	require.NoError(t, tasks.Create(ctx, second))

	listed, err := tasks.List(ctx, nil)
	require.NoError(t, err)
	require.Len(t, listed, 2)
	assert.Equal(t, second.ID, listed[0].ID)
	assert.Equal(t, first.ID, listed[1].ID)

	timeline, err := tasks.ListByPatient(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, timeline, 2)
	assert.Equal(t, first.ID, timeline[0].ID)
}

func TestGetReturnsCopy(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	patients := NewPatientRepository(store)

	p := newTestPatient("Copy Patient")
	require.NoError(t, patients.Create(ctx, p))

	got, err := patients.Get(ctx, p.ID)
	require.NoError(t, err)
	got.Name = "Mutated"

	again, err := patients.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Copy Patient", again.Name)
}

func TestActivityCapEvictsOldest(t *testing.T) {
	ctx := context.Background()
	store := NewStore(WithActivityMax(3))
	activity := NewActivityRepository(store)

	for i := 0; i < 5; i++ {
		require.NoError(t, activity.Append(ctx, &model.ActivityEntry{
			Time:    time.Now().UTC(),
			Message: fmt.Sprintf("entry %d", i),
		}))
	}

	entries, err := activity.Recent(ctx, 0)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "entry 4", entries[0].Message)
	assert.Equal(t, "entry 2", entries[2].Message)
}

func TestSnapshotRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	patients := NewPatientRepository(store)
	tasks := NewTaskRepository(store)
	activity := NewActivityRepository(store)

	p := newTestPatient("Snapshot Patient")
	require.NoError(t, patients.Create(ctx, p))
	task := newTestTask(p.ID, model.TaskTypePrescription)
	require.NoError(t, tasks.Create(ctx, task))
	require.NoError(t, activity.Append(ctx, &model.ActivityEntry{
		Time:    time.Now().UTC(),
		Message: "registered",
	}))

	snap, err := store.Snapshot(ctx)
	require.NoError(t, err)

	restored := NewStore()
	require.NoError(t, restored.Restore(ctx, snap))

	snap2, err := restored.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, snap, snap2)

	// sequence counter carries over, so new tasks keep a higher Seq
	newTask := newTestTask(p.ID, model.TaskTypeImaging)
	require.NoError(t, NewTaskRepository(restored).Create(ctx, newTask))
	assert.Greater(t, newTask.Seq, task.Seq)
}
