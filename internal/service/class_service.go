package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/conduct-api/internal/models"
	"github.com/noah-isme/conduct-api/internal/schoolweek"
	appErrors "github.com/noah-isme/conduct-api/pkg/errors"
)

type classRepository interface {
	GetByID(ctx context.Context, id string) (*models.Class, error)
	UpdateSchedule(ctx context.Context, id string, schedule json.RawMessage) error
}

// ClassService serves class metadata and the curated week schedule.
type ClassService struct {
	repo      classRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewClassService constructs the service.
func NewClassService(repo classRepository, validate *validator.Validate, logger *zap.Logger) *ClassService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ClassService{repo: repo, validator: validate, logger: logger}
}

// UpdateScheduleRequest replaces the week schedule of a class.
type UpdateScheduleRequest struct {
	Blocks []schoolweek.Block `json:"blocks" validate:"required,min=1,dive"`
}

// Get returns a class by id.
func (s *ClassService) Get(ctx context.Context, id string) (*models.Class, error) {
	class, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to get class")
	}
	return class, nil
}

// UpdateSchedule validates and persists a curated week schedule. Block start
// dates must parse and be Mondays so the resolver's 7-day blocks line up.
func (s *ClassService) UpdateSchedule(ctx context.Context, id string, req UpdateScheduleRequest) (*models.Class, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid schedule payload")
	}
	for _, block := range req.Blocks {
		d, err := schoolweek.ParseDate(block.StartDate)
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "schedule start dates must be YYYY-MM-DD")
		}
		if d != schoolweek.MondayOf(d) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "schedule start dates must fall on a Monday")
		}
	}

	raw, err := json.Marshal(req.Blocks)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode schedule")
	}
	if err := s.repo.UpdateSchedule(ctx, id, raw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update schedule")
	}
	return s.Get(ctx, id)
}
