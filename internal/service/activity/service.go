package activity

import (
	"context"
	"fmt"
	"time"

	"github.com/caseflow/caseflow-api/internal/model"
	"github.com/caseflow/caseflow-api/internal/repository"
)

// Service appends human-readable audit lines on state-changing
// operations and serves the recent slice for display.
type Service struct {
	repo repository.ActivityRepository
}

func NewService(repo repository.ActivityRepository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Record(ctx context.Context, format string, args ...interface{}) error {
	entry := &model.ActivityEntry{
		Time:    time.Now().UTC(),
		Message: fmt.Sprintf(format, args...),
	}
	return s.repo.Append(ctx, entry)
}

// Recent returns the n newest entries; n is a presentation concern, not
// a storage limit.
func (s *Service) Recent(ctx context.Context, n int) ([]*model.ActivityEntry, error) {
	return s.repo.Recent(ctx, n)
}
