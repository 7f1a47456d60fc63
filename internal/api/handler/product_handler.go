package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/innoshop/platform/internal/api/metrics"
	"github.com/innoshop/platform/internal/core/domain"
	"github.com/innoshop/platform/internal/core/ports"
)

type ProductHandler struct {
	products ports.ProductService
}

func NewProductHandler(products ports.ProductService) *ProductHandler {
	return &ProductHandler{products: products}
}

// List returns products, optionally filtered.
//
// @Summary      List products
// @Tags         products
// @Produce      json
// @Param        search    query     string  false  "Case-insensitive match on name or description"
// @Param        minPrice  query     number  false  "Inclusive lower price bound"
// @Param        maxPrice  query     number  false  "Inclusive upper price bound"
// @Success      200       {array}   domain.Product
// @Failure      400       {object}  map[string]string
// @Router       /products [get]
func (h *ProductHandler) List(c echo.Context) error {
	filter := ports.ProductFilter{Search: c.QueryParam("search")}

	var err error
	if filter.MinPrice, err = priceParam(c, "minPrice"); err != nil {
		return err
	}
	if filter.MaxPrice, err = priceParam(c, "maxPrice"); err != nil {
		return err
	}

	products, err := h.products.List(c.Request().Context(), filter)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, products)
}

func priceParam(c echo.Context, name string) (*float64, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, name+" must be a number")
	}
	return &v, nil
}

// Get returns one product.
//
// @Summary      Get a product
// @Tags         products
// @Produce      json
// @Param        id   path      string  true  "Product id"
// @Success      200  {object}  domain.Product
// @Failure      404  {object}  map[string]string
// @Router       /products/{id} [get]
func (h *ProductHandler) Get(c echo.Context) error {
	p, err := h.products.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}

// Create adds a product owned by the caller.
//
// @Summary      Create a product
// @Tags         products
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      productRequest  true  "Product"
// @Success      201   {object}  domain.Product
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Router       /products [post]
func (h *ProductHandler) Create(c echo.Context) error {
	who, err := caller(c)
	if err != nil {
		return err
	}

	var req productRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	p, err := h.products.Create(c.Request().Context(), who, req.toInput())
	if err != nil {
		return err
	}
	metrics.ProductsCreatedTotal.Inc()

	c.Response().Header().Set(echo.HeaderLocation, c.Echo().Reverse("products.get", p.ID))
	return c.JSON(http.StatusCreated, p)
}

// Update replaces the editable fields of a product the caller owns.
//
// @Summary      Update a product
// @Tags         products
// @Accept       json
// @Security     BearerAuth
// @Param        id    path  string          true  "Product id"
// @Param        body  body  productRequest  true  "Product"
// @Success      204
// @Failure      400  {object}  map[string]string
// @Failure      401  {object}  map[string]string
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /products/{id} [put]
func (h *ProductHandler) Update(c echo.Context) error {
	who, err := caller(c)
	if err != nil {
		return err
	}

	var req productRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	if _, err := h.products.Update(c.Request().Context(), who, c.Param("id"), req.toInput()); err != nil {
		return countDenied(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Delete removes a product the caller owns.
//
// @Summary      Delete a product
// @Tags         products
// @Security     BearerAuth
// @Param        id   path  string  true  "Product id"
// @Success      204
// @Failure      401  {object}  map[string]string
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /products/{id} [delete]
func (h *ProductHandler) Delete(c echo.Context) error {
	who, err := caller(c)
	if err != nil {
		return err
	}

	if err := h.products.Delete(c.Request().Context(), who, c.Param("id")); err != nil {
		return countDenied(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func countDenied(err error) error {
	if errors.Is(err, domain.ErrDenied) {
		metrics.AccessDeniedTotal.WithLabelValues("ownership").Inc()
	}
	return err
}
