package verification

import (
	"math/rand"
	"sync"
	"time"

	"github.com/caseflow/caseflow-api/internal/model"
)

// FollowOnSelector decides which task follows a completed prescription.
// The uniform coin flip is the current product behavior; the interface
// keeps it replaceable by a clinical-decision rule without touching the
// engine.
type FollowOnSelector interface {
	Next(completed *model.Task) model.TaskType
}

type randomSelector struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandomSelector picks Imaging or Therapy with equal probability.
func NewRandomSelector() FollowOnSelector {
	return &randomSelector{rng: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

func (s *randomSelector) Next(*model.Task) model.TaskType {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.rng.Intn(2) == 0 {
		return model.TaskTypeImaging
	}
	return model.TaskTypeTherapy
}
