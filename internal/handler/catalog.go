package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/hojimahmudov/orderbot/internal/dto"
	"github.com/hojimahmudov/orderbot/internal/repository"
)

type CatalogHandler struct {
	catalogRepo repository.CatalogRepository
	branchRepo  repository.BranchRepository
}

func NewCatalogHandler(catalogRepo repository.CatalogRepository, branchRepo repository.BranchRepository) *CatalogHandler {
	return &CatalogHandler{catalogRepo: catalogRepo, branchRepo: branchRepo}
}

func (h *CatalogHandler) ListCategories(c echo.Context) error {
	locale := requestLocale(c)
	categories, err := h.catalogRepo.ListCategories(c.Request().Context())
	if err != nil {
		return errorJSON(c, err)
	}

	results := make([]dto.CategoryResponse, 0, len(categories))
	for _, category := range categories {
		results = append(results, dto.CategoryResponse{
			ID:       category.ID,
			Name:     category.Name(locale),
			ImageURL: category.ImageURL,
		})
	}
	return c.JSON(http.StatusOK, dto.Page{Count: int64(len(results)), Results: results})
}

func (h *CatalogHandler) ListProducts(c echo.Context) error {
	locale := requestLocale(c)
	page, offset, limit := pageParams(c)

	var categoryID *int64
	if raw := c.QueryParam("category_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "ValidationError", Detail: "category_id must be an integer"})
		}
		categoryID = &id
	}

	products, total, err := h.catalogRepo.ListProducts(c.Request().Context(), categoryID, c.QueryParam("search"), offset, limit)
	if err != nil {
		return errorJSON(c, err)
	}

	results := make([]dto.ProductResponse, 0, len(products))
	for _, product := range products {
		description := product.DescriptionUZ
		if locale == "ru" {
			description = product.DescriptionRU
		}
		results = append(results, dto.ProductResponse{
			ID:          product.ID,
			CategoryID:  product.CategoryID,
			Name:        product.Name(locale),
			Description: description,
			Price:       product.Price,
			ImageURL:    product.ImageURL,
		})
	}
	return c.JSON(http.StatusOK, paginate(c, page, total, results))
}

func (h *CatalogHandler) ListBranches(c echo.Context) error {
	locale := requestLocale(c)
	branches, err := h.branchRepo.List(c.Request().Context())
	if err != nil {
		return errorJSON(c, err)
	}

	now := time.Now()
	results := make([]dto.BranchResponse, 0, len(branches))
	for _, branch := range branches {
		results = append(results, dto.BranchResponse{
			ID:        branch.ID,
			Name:      branch.Name(locale),
			Address:   branch.Address,
			Latitude:  branch.Latitude,
			Longitude: branch.Longitude,
			IsOpen:    branch.IsOpenAt(now),
		})
	}
	return c.JSON(http.StatusOK, dto.Page{Count: int64(len(results)), Results: results})
}
