package ports

import (
	"context"

	"github.com/innoshop/platform/internal/core/domain"
)

// ProductInput holds the caller-editable product fields.
type ProductInput struct {
	Name        string
	Description string
	Price       *float64
	IsAvailable bool
}

// ProductService is the product use-case layer. Mutations take the
// authenticated caller and are subject to the ownership guard.
type ProductService interface {
	List(ctx context.Context, filter ProductFilter) ([]*domain.Product, error)
	Get(ctx context.Context, id string) (*domain.Product, error)
	Create(ctx context.Context, caller domain.Principal, in ProductInput) (*domain.Product, error)
	Update(ctx context.Context, caller domain.Principal, id string, in ProductInput) (*domain.Product, error)
	Delete(ctx context.Context, caller domain.Principal, id string) error
}
