package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/noah-isme/conduct-api/internal/models"
	appErrors "github.com/noah-isme/conduct-api/pkg/errors"
)

type rosterRepository interface {
	List(ctx context.Context, filter models.RosterFilter) ([]models.Student, error)
}

// RosterService serves class rosters. Roster mutation is handled by the
// admin surfaces, not here.
type RosterService struct {
	repo   rosterRepository
	logger *zap.Logger
}

// NewRosterService constructs the service.
func NewRosterService(repo rosterRepository, logger *zap.Logger) *RosterService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RosterService{repo: repo, logger: logger}
}

// List returns the students of a class, optionally one group.
func (s *RosterService) List(ctx context.Context, classID string, group *int) ([]models.Student, error) {
	if classID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "class_id required")
	}
	students, err := s.repo.List(ctx, models.RosterFilter{ClassID: classID, GroupNumber: group})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list roster")
	}
	return students, nil
}
