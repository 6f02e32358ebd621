package snapshot

import (
	"context"

	"github.com/caseflow/caseflow-api/internal/model"
)

// Store is the persistence collaborator: an opaque snapshot of the entity
// store, written through after every mutation. Both operations are
// fallible; a failed Save is surfaced to the caller as a rejected
// request, never assumed to have succeeded.
type Store interface {
	// Load returns the last saved snapshot, or (nil, nil) when no
	// snapshot exists yet.
	Load(ctx context.Context) (*model.Snapshot, error)
	Save(ctx context.Context, snap *model.Snapshot) error
}
