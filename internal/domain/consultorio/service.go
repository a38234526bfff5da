package consultorio

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/alignwork/agenda/internal/platform/querycache"
)

type Service struct {
	repo   Repository
	cache  *querycache.Cache
	logger zerolog.Logger
}

func NewService(repo Repository, cache *querycache.Cache, logger zerolog.Logger) *Service {
	return &Service{
		repo:   repo,
		cache:  cache,
		logger: logger.With().Str("component", "consultorio").Logger(),
	}
}

func listKey(tenant string) string { return querycache.Key("consultorios", tenant) }

func (s *Service) List(ctx context.Context, tenant string) ([]*Consultorio, error) {
	return querycache.Fetch(ctx, s.cache, listKey(tenant), 0, func(ctx context.Context) ([]*Consultorio, error) {
		return s.repo.List(ctx, tenant)
	})
}

func (s *Service) Get(ctx context.Context, tenant, id string) (*Consultorio, error) {
	return s.repo.Get(ctx, tenant, id)
}

func (s *Service) Create(ctx context.Context, tenant string, in Input) (*Consultorio, error) {
	c, err := in.Validate()
	if err != nil {
		return nil, err
	}
	c.TenantID = tenant
	out, err := s.repo.Create(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("creating consultorio: %w", err)
	}
	s.cache.Invalidate(listKey(tenant))
	s.logger.Info().Str("tenant", tenant).Str("consultorio_id", out.ID).Msg("consultorio created")
	return out, nil
}

func (s *Service) Update(ctx context.Context, tenant, id string, in Input) (*Consultorio, error) {
	c, err := in.Validate()
	if err != nil {
		return nil, err
	}
	c.TenantID = tenant
	c.ID = id
	out, err := s.repo.Update(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("updating consultorio %s: %w", id, err)
	}
	s.cache.Invalidate(listKey(tenant))
	return out, nil
}

func (s *Service) Delete(ctx context.Context, tenant, id string) error {
	if err := s.repo.Delete(ctx, tenant, id); err != nil {
		return fmt.Errorf("deleting consultorio %s: %w", id, err)
	}
	s.cache.Invalidate(listKey(tenant))
	s.logger.Info().Str("tenant", tenant).Str("consultorio_id", id).Msg("consultorio deleted")
	return nil
}
