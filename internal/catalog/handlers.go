package catalog

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ateliedalu/backend-atacado/internal/common"
)

// ListProductsHandler handles GET /api/v1/products.
func (s *Service) ListProductsHandler(w http.ResponseWriter, r *http.Request) {
	page, perPage := common.ParsePagination(r, s.DefaultLimit)
	f := ListFilter{
		Category: r.URL.Query().Get("category"),
		Search:   r.URL.Query().Get("q"),
		Limit:    perPage,
		Offset:   (page - 1) * perPage,
	}
	result, err := s.ListProducts(r.Context(), f)
	if err != nil {
		s.Log.Error().Err(err).Msg("list products")
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "could not list products", nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{
		"products": result.Products,
		"pagination": common.Pagination{
			Page:       page,
			PerPage:    f.Limit,
			TotalItems: result.Total,
		},
	})
}

// GetProductHandler handles GET /api/v1/products/{slug}.
func (s *Service) GetProductHandler(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	product, err := s.GetProduct(r.Context(), slug)
	if errors.Is(err, ErrProductNotFound) {
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "product not found", nil)
		return
	}
	if err != nil {
		s.Log.Error().Err(err).Str("slug", slug).Msg("get product")
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "could not load product", nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"product": product})
}

// ListCategoriesHandler handles GET /api/v1/categories.
func (s *Service) ListCategoriesHandler(w http.ResponseWriter, r *http.Request) {
	categories, err := s.Categories(r.Context())
	if err != nil {
		s.Log.Error().Err(err).Msg("list categories")
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "could not list categories", nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"categories": categories})
}

// ListKitsHandler handles GET /api/v1/kits.
func (s *Service) ListKitsHandler(w http.ResponseWriter, r *http.Request) {
	kits, err := s.Kits(r.Context())
	if err != nil {
		s.Log.Error().Err(err).Msg("list kits")
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "could not list kits", nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"kits": kits})
}
