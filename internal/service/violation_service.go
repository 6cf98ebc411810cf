package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/conduct-api/internal/models"
	appErrors "github.com/noah-isme/conduct-api/pkg/errors"
)

const catalogCacheKey = "catalog:violations"

type violationRepository interface {
	List(ctx context.Context) ([]models.ViolationType, error)
}

type catalogCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// ViolationService serves the immutable violation/commendation catalog with
// a cache-aside layer, since every tracking session loads it.
type ViolationService struct {
	repo     violationRepository
	cache    catalogCache
	cacheTTL time.Duration
	logger   *zap.Logger
}

// NewViolationService constructs the service.
func NewViolationService(repo violationRepository, cache catalogCache, cacheTTL time.Duration, logger *zap.Logger) *ViolationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ViolationService{repo: repo, cache: cache, cacheTTL: cacheTTL, logger: logger}
}

// List returns the full catalog.
func (s *ViolationService) List(ctx context.Context) ([]models.ViolationType, error) {
	if s.cache != nil {
		var cached []models.ViolationType
		if err := s.cache.Get(ctx, catalogCacheKey, &cached); err == nil {
			return cached, nil
		}
	}

	types, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list violation types")
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, catalogCacheKey, types, s.cacheTTL); err != nil {
			s.logger.Warn("failed to cache violation catalog", zap.Error(err))
		}
	}
	return types, nil
}
