package service

import (
	"context"
	"time"

	"styledecor/internal/domain"
	"styledecor/internal/models"
	"styledecor/internal/validation"

	"github.com/rs/zerolog"
)

type CatalogService struct {
	repo      domain.CatalogRepository
	validator *validation.Validator
	logger    *zerolog.Logger
	now       func() time.Time
}

func NewCatalogService(repo domain.CatalogRepository, logger *zerolog.Logger) *CatalogService {
	return &CatalogService{repo: repo, validator: validation.New(), logger: logger, now: time.Now}
}

// Create stores a catalog entry on behalf of createdBy.
func (s *CatalogService) Create(ctx context.Context, svc *models.Service, createdBy string) (*models.Service, error) {
	if err := s.validator.Struct(svc); err != nil {
		return nil, err
	}
	svc.ID = ""
	svc.CreatedBy = createdBy
	svc.CreatedAt = s.now().UTC()

	if err := s.repo.CreateService(ctx, svc); err != nil {
		return nil, err
	}
	s.logger.Info().Str("service_id", svc.ID).Str("title", svc.Title).Msg("service created")
	return svc, nil
}

func (s *CatalogService) Get(ctx context.Context, id string) (*models.Service, error) {
	return s.repo.GetService(ctx, id)
}

func (s *CatalogService) List(ctx context.Context) ([]*models.Service, error) {
	return s.repo.ListServices(ctx)
}
