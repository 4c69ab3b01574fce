package cart

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	validator "github.com/go-playground/validator/v10"

	"github.com/ateliedalu/backend-atacado/internal/common"
)

// Handler exposes the cart HTTP surface. All routes resolve the session from
// the request context, the session middleware guarantees one is present.
type Handler struct {
	Svc      *Service
	Validate *validator.Validate
}

type addItemRequest struct {
	ProductID string `json:"product_id" validate:"required"`
	Qty       int    `json:"qty" validate:"required,gt=0"`
}

type updateItemRequest struct {
	Qty int `json:"qty" validate:"gte=0"`
}

// Get handles GET /api/v1/cart.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := h.session(w, r)
	if !ok {
		return
	}
	view, err := h.Svc.Get(r.Context(), sessionID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, view)
}

// AddItem handles POST /api/v1/cart/items.
func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := h.session(w, r)
	if !ok {
		return
	}
	var req addItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "INVALID_BODY", "invalid JSON body", nil)
		return
	}
	if err := h.validate(req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "VALIDATION_FAILED", "invalid cart item payload", err.Error())
		return
	}
	view, err := h.Svc.AddItem(r.Context(), sessionID, req.ProductID, req.Qty)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, view)
}

// UpdateItem handles PATCH /api/v1/cart/items/{productID}. A quantity of zero
// removes the line.
func (h *Handler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := h.session(w, r)
	if !ok {
		return
	}
	productID := chi.URLParam(r, "productID")
	var req updateItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "INVALID_BODY", "invalid JSON body", nil)
		return
	}
	if err := h.validate(req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "VALIDATION_FAILED", "invalid quantity payload", err.Error())
		return
	}
	view, err := h.Svc.UpdateQuantity(r.Context(), sessionID, productID, req.Qty)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, view)
}

// RemoveItem handles DELETE /api/v1/cart/items/{productID}.
func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := h.session(w, r)
	if !ok {
		return
	}
	view, err := h.Svc.RemoveItem(r.Context(), sessionID, chi.URLParam(r, "productID"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, view)
}

// Clear handles DELETE /api/v1/cart.
func (h *Handler) Clear(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := h.session(w, r)
	if !ok {
		return
	}
	view, err := h.Svc.Clear(r.Context(), sessionID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, view)
}

func (h *Handler) session(w http.ResponseWriter, r *http.Request) (string, bool) {
	sessionID, ok := common.SessionID(r.Context())
	if !ok || sessionID == "" {
		common.JSONError(w, http.StatusBadRequest, "MISSING_SESSION", "cart session not resolved", nil)
		return "", false
	}
	return sessionID, true
}

func (h *Handler) validate(v any) error {
	if h.Validate == nil {
		return nil
	}
	return h.Validate.Struct(v)
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidQuantity):
		common.JSONError(w, http.StatusBadRequest, "INVALID_QUANTITY", "quantity must be positive", nil)
	case errors.Is(err, ErrProductNotFound):
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "product not found", nil)
	case errors.Is(err, ErrInvalidSnapshot):
		common.JSONError(w, http.StatusUnprocessableEntity, "INVALID_PRODUCT", "product is not available for sale", nil)
	default:
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "cart operation failed", nil)
	}
}
