package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/hridoy-islam/watenycollage-sub000/internal/dto"
	"github.com/hridoy-islam/watenycollage-sub000/internal/models"
	"github.com/hridoy-islam/watenycollage-sub000/internal/repository"
)

// ErrMaterialNotFound indicates a course material definition does not exist.
var ErrMaterialNotFound = errors.New("course material assignment not found")

// MaterialService exposes course material assignment definitions. Lookups are
// read-through cached: definitions change rarely but are read on every
// assignment page load.
type MaterialService interface {
	Lookup(ctx context.Context, id uint) (models.CourseMaterialAssignment, error)
	List(ctx context.Context, unitID *uint) ([]dto.MaterialResponse, error)
	Get(ctx context.Context, id uint) (dto.MaterialResponse, error)
	Create(ctx context.Context, payload dto.MaterialCreateRequest) (dto.MaterialResponse, error)
	Update(ctx context.Context, id uint, payload dto.MaterialUpdateRequest) (dto.MaterialResponse, error)
}

type materialService struct {
	repo      repository.MaterialRepository
	cache     *redis.Client
	cacheTTL  time.Duration
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewMaterialService constructs a MaterialService instance.
func NewMaterialService(repo repository.MaterialRepository, cache *redis.Client, ttl time.Duration, validate *validator.Validate, logger zerolog.Logger) MaterialService {
	return &materialService{
		repo:      repo,
		cache:     cache,
		cacheTTL:  ttl,
		validator: validate,
		logger:    logger.With().Str("component", "material_service").Logger(),
	}
}

func (s *materialService) cacheKey(id uint) string {
	return fmt.Sprintf("material:assignment:%d", id)
}

func (s *materialService) Lookup(ctx context.Context, id uint) (models.CourseMaterialAssignment, error) {
	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, s.cacheKey(id)).Result(); err == nil {
			var material models.CourseMaterialAssignment
			if unmarshalErr := json.Unmarshal([]byte(cached), &material); unmarshalErr == nil {
				s.logger.Debug().Uint("material_id", id).Msg("material cache hit")
				return material, nil
			}
		} else if err != redis.Nil {
			s.logger.Warn().Err(err).Msg("failed to read material cache")
		}
	}

	material, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.CourseMaterialAssignment{}, ErrMaterialNotFound
		}
		return models.CourseMaterialAssignment{}, err
	}

	if s.cache != nil {
		if payload, err := json.Marshal(material); err == nil {
			if err := s.cache.Set(ctx, s.cacheKey(id), payload, s.cacheTTL).Err(); err != nil {
				s.logger.Warn().Err(err).Msg("failed to store material cache")
			}
		}
	}

	return material, nil
}

func (s *materialService) List(ctx context.Context, unitID *uint) ([]dto.MaterialResponse, error) {
	materials, err := s.repo.List(ctx, unitID)
	if err != nil {
		return nil, err
	}

	return dto.NewMaterialResponseSlice(materials), nil
}

func (s *materialService) Get(ctx context.Context, id uint) (dto.MaterialResponse, error) {
	material, err := s.Lookup(ctx, id)
	if err != nil {
		return dto.MaterialResponse{}, err
	}

	return dto.NewMaterialResponse(material), nil
}

func (s *materialService) Create(ctx context.Context, payload dto.MaterialCreateRequest) (dto.MaterialResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.MaterialResponse{}, err
	}

	material := models.CourseMaterialAssignment{
		UnitID:   payload.UnitID,
		Title:    payload.Title,
		Content:  payload.Content,
		Deadline: payload.Deadline,
	}

	if err := s.repo.Create(ctx, &material); err != nil {
		return dto.MaterialResponse{}, err
	}

	s.logger.Info().Uint("material_id", material.ID).Msg("course material created")

	return dto.NewMaterialResponse(material), nil
}

func (s *materialService) Update(ctx context.Context, id uint, payload dto.MaterialUpdateRequest) (dto.MaterialResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.MaterialResponse{}, err
	}

	material, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.MaterialResponse{}, ErrMaterialNotFound
		}
		return dto.MaterialResponse{}, err
	}

	if payload.Title != nil {
		material.Title = *payload.Title
	}
	if payload.Content != nil {
		material.Content = *payload.Content
	}
	if payload.Deadline != nil {
		material.Deadline = payload.Deadline
	}

	if err := s.repo.Update(ctx, &material); err != nil {
		return dto.MaterialResponse{}, err
	}

	if s.cache != nil {
		if err := s.cache.Del(ctx, s.cacheKey(id)).Err(); err != nil {
			s.logger.Warn().Err(err).Msg("failed to invalidate material cache")
		}
	}

	return dto.NewMaterialResponse(material), nil
}
