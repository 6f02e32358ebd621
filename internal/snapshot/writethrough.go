package snapshot

import (
	"context"
	"time"

	"github.com/caseflow/caseflow-api/internal/repository"
	"github.com/caseflow/caseflow-api/pkg/errors"
	"github.com/caseflow/caseflow-api/pkg/metrics"
)

// WriteThrough persists the entity store after every mutation. A failed
// save rejects the whole request: the pre-mutation snapshot is restored
// so the store never diverges from what the caller was told.
type WriteThrough struct {
	source  repository.SnapshotRepository
	dest    Store
	metrics *metrics.Metrics
}

func NewWriteThrough(source repository.SnapshotRepository, dest Store, m *metrics.Metrics) *WriteThrough {
	return &WriteThrough{source: source, dest: dest, metrics: m}
}

// Guard runs mutate, then saves the resulting snapshot. If the save
// fails, the store is rolled back to its pre-mutation state and
// StorageUnavailable is returned.
func (w *WriteThrough) Guard(ctx context.Context, mutate func() error) error {
	pre, err := w.source.Snapshot(ctx)
	if err != nil {
		return errors.Internal(err)
	}

	if err := mutate(); err != nil {
		return err
	}

	post, err := w.source.Snapshot(ctx)
	if err != nil {
		return errors.Internal(err)
	}

	start := time.Now()
	if err := w.dest.Save(ctx, post); err != nil {
		w.observe("failure", start)
		if restoreErr := w.source.Restore(ctx, pre); restoreErr != nil {
			return errors.Internal(restoreErr)
		}
		return errors.StorageUnavailable(err)
	}
	w.observe("success", start)
	return nil
}

func (w *WriteThrough) observe(status string, start time.Time) {
	if w.metrics == nil {
		return
	}
	w.metrics.SnapshotSaves.WithLabelValues(status).Inc()
	if status == "success" {
		w.metrics.SnapshotLatency.Observe(time.Since(start).Seconds())
	}
}
