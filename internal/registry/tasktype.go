package registry

import (
	"fmt"
	"sort"

	"github.com/caseflow/caseflow-api/internal/model"
	"github.com/caseflow/caseflow-api/pkg/errors"
)

// TaskTypeRegistry maps task kinds to their display label and required
// physical location. It is loaded once at process start and never
// mutated; lookups of unknown types fail explicitly because the
// verification engine assumes every descriptor it reads is meaningful.
type TaskTypeRegistry struct {
	types map[model.TaskType]model.TaskTypeDescriptor
}

func NewTaskTypeRegistry(types map[model.TaskType]model.TaskTypeDescriptor) (*TaskTypeRegistry, error) {
	if len(types) == 0 {
		return nil, fmt.Errorf("no task types configured")
	}
	for t, desc := range types {
		if !t.Valid() {
			return nil, fmt.Errorf("unknown task type %q", t)
		}
		if desc.Label == "" {
			return nil, fmt.Errorf("task type %q has no label", t)
		}
		if desc.RequiredLocation == "" {
			return nil, fmt.Errorf("task type %q has no required location", t)
		}
	}
	copied := make(map[model.TaskType]model.TaskTypeDescriptor, len(types))
	for t, desc := range types {
		copied[t] = desc
	}
	return &TaskTypeRegistry{types: copied}, nil
}

// DefaultTaskTypes is the built-in clinic layout.
func DefaultTaskTypes() map[model.TaskType]model.TaskTypeDescriptor {
	return map[model.TaskType]model.TaskTypeDescriptor{
		model.TaskTypePrescription: {Label: "Prescription", RequiredLocation: "DOC_OFFICE"},
		model.TaskTypeImaging:      {Label: "Imaging", RequiredLocation: "IMG_CENTER"},
		model.TaskTypeTherapy:      {Label: "Therapy", RequiredLocation: "PHYSIO_ROOM"},
	}
}

func (r *TaskTypeRegistry) Describe(t model.TaskType) (model.TaskTypeDescriptor, error) {
	desc, ok := r.types[t]
	if !ok {
		return model.TaskTypeDescriptor{}, errors.NotFound("task type", fmt.Errorf("unknown task type %q", t))
	}
	return desc, nil
}

func (r *TaskTypeRegistry) Types() []model.TaskType {
	out := make([]model.TaskType, 0, len(r.types))
	for t := range r.types {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
