package ports

import (
	"context"

	"github.com/innoshop/platform/internal/core/domain"
)

// ProductFilter narrows a product listing. Zero values mean no filter.
type ProductFilter struct {
	Search   string   // case-insensitive substring of name or description
	MinPrice *float64 // inclusive
	MaxPrice *float64 // inclusive
}

// ProductRepository persists products. Missing records are reported as
// domain.ErrResourceNotFound.
type ProductRepository interface {
	Create(ctx context.Context, p *domain.Product) error
	FindByID(ctx context.Context, id string) (*domain.Product, error)
	List(ctx context.Context, filter ProductFilter) ([]*domain.Product, error)
	Update(ctx context.Context, p *domain.Product) error
	Delete(ctx context.Context, id string) error
}
