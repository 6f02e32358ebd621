package memory

import (
	"context"

	"github.com/caseflow/caseflow-api/internal/model"
)

type ActivityRepository struct {
	store *Store
}

func NewActivityRepository(store *Store) *ActivityRepository {
	return &ActivityRepository{store: store}
}

func (r *ActivityRepository) Append(ctx context.Context, entry *model.ActivityEntry) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	s.appendActivityLocked(entry)
	s.observe("append_activity", "success")
	return nil
}

// Recent returns the n newest entries, newest first.
func (r *ActivityRepository) Recent(ctx context.Context, n int) ([]*model.ActivityEntry, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	if n <= 0 || n > len(s.activity) {
		n = len(s.activity)
	}
	out := make([]*model.ActivityEntry, 0, n)
	for _, e := range s.activity[:n] {
		out = append(out, cloneActivity(e))
	}
	return out, nil
}
