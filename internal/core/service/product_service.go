package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/innoshop/platform/internal/core/domain"
	"github.com/innoshop/platform/internal/core/ports"
)

type ProductService struct {
	repo   ports.ProductRepository
	guard  *OwnershipGuard
	clock  ports.Clock
	logger zerolog.Logger
}

func NewProductService(repo ports.ProductRepository, guard *OwnershipGuard, clock ports.Clock, logger zerolog.Logger) *ProductService {
	if guard == nil {
		guard = NewOwnershipGuard()
	}
	if clock == nil {
		clock = ports.SystemClock{}
	}
	return &ProductService{repo: repo, guard: guard, clock: clock, logger: logger}
}

func (s *ProductService) List(ctx context.Context, filter ports.ProductFilter) ([]*domain.Product, error) {
	return s.repo.List(ctx, filter)
}

func (s *ProductService) Get(ctx context.Context, id string) (*domain.Product, error) {
	return s.repo.FindByID(ctx, id)
}

// Create stores a new product owned by caller.
func (s *ProductService) Create(ctx context.Context, caller domain.Principal, in ports.ProductInput) (*domain.Product, error) {
	p := &domain.Product{
		ID:          uuid.NewString(),
		Name:        in.Name,
		Description: in.Description,
		Price:       in.Price,
		IsAvailable: in.IsAvailable,
		CreatorID:   caller.ID,
		CreatedAt:   s.clock.Now(),
	}
	if err := s.repo.Create(ctx, p); err != nil {
		s.logger.Error().Err(err).Msg("failed to create product")
		return nil, err
	}

	s.logger.Info().Str("product_id", p.ID).Str("creator_id", caller.ID).Msg("product created")
	return p, nil
}

// Update replaces the editable fields of a product the caller may mutate.
// The creator never changes.
func (s *ProductService) Update(ctx context.Context, caller domain.Principal, id string, in ports.ProductInput) (*domain.Product, error) {
	p, err := s.authorized(ctx, caller, id, domain.OpUpdate)
	if err != nil {
		return nil, err
	}

	p.Name = in.Name
	p.Description = in.Description
	p.Price = in.Price
	p.IsAvailable = in.IsAvailable
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}

	s.logger.Info().Str("product_id", p.ID).Str("caller_id", caller.ID).Msg("product updated")
	return p, nil
}

// Delete removes a product the caller may mutate.
func (s *ProductService) Delete(ctx context.Context, caller domain.Principal, id string) error {
	if _, err := s.authorized(ctx, caller, id, domain.OpDelete); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info().Str("product_id", id).Str("caller_id", caller.ID).Msg("product deleted")
	return nil
}

func (s *ProductService) authorized(ctx context.Context, caller domain.Principal, id string, op domain.Operation) (*domain.Product, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.guard.AuthorizePrincipal(caller, p, op) == Denied {
		s.logger.Warn().Str("product_id", id).Str("caller_id", caller.ID).Str("op", string(op)).Msg("ownership check denied")
		return nil, domain.ErrDenied
	}
	return p, nil
}

var _ ports.ProductService = (*ProductService)(nil)
