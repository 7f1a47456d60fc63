package handler

import "github.com/innoshop/platform/internal/core/ports"

type productRequest struct {
	Name        string   `json:"name" validate:"required,max=100"`
	Description string   `json:"description" validate:"required"`
	Price       *float64 `json:"price" validate:"omitempty,gte=0"`
	IsAvailable *bool    `json:"isAvailable" validate:"required"`
}

func (r productRequest) toInput() ports.ProductInput {
	return ports.ProductInput{
		Name:        r.Name,
		Description: r.Description,
		Price:       r.Price,
		IsAvailable: *r.IsAvailable,
	}
}
