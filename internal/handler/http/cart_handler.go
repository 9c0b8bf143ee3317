package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/vasiliy-maslov/storefront/internal/cart"
)

type AddCartItemRequest struct {
	ProductID int64 `json:"product_id" validate:"required,gt=0"`
	Quantity  int   `json:"quantity" validate:"lte=2147483647"`
}

// QuantityRequest carries a new quantity or a delta. Non-positive values are
// passed through and rejected by the cart itself.
type QuantityRequest struct {
	Quantity int `json:"quantity" validate:"lte=2147483647"`
}

type CartHandler struct {
	service  cart.Service
	validate *validator.Validate
}

func NewCartHandler(service cart.Service) *CartHandler {
	return &CartHandler{service: service, validate: newValidator()}
}

func (h *CartHandler) RegisterRoutes(router chi.Router) {
	router.Route("/customers/{customerID}/cart", func(r chi.Router) {
		r.Get("/", h.handleGetCart)
		r.Delete("/", h.handleClearCart)
		r.Post("/items", h.handleAddItem)
		r.Put("/items/{productID}", h.handleUpdateItem)
		r.Delete("/items/{productID}", h.handleRemoveItem)
		r.Post("/items/{productID}/increase", h.handleIncreaseItem)
		r.Post("/items/{productID}/decrease", h.handleDecreaseItem)
	})
}

func (h *CartHandler) handleGetCart(w http.ResponseWriter, r *http.Request) {
	customerID, ok := parseIDParam(w, r, "customerID")
	if !ok {
		return
	}

	c, err := h.service.GetCart(r.Context(), customerID)
	if err != nil {
		respondWithServiceError(w, err, "Failed to get cart")
		return
	}
	respondWithJSON(w, http.StatusOK, newCartResponse(c))
}

func (h *CartHandler) handleClearCart(w http.ResponseWriter, r *http.Request) {
	customerID, ok := parseIDParam(w, r, "customerID")
	if !ok {
		return
	}

	if err := h.service.ClearCart(r.Context(), customerID); err != nil {
		respondWithServiceError(w, err, "Failed to clear cart")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *CartHandler) handleAddItem(w http.ResponseWriter, r *http.Request) {
	customerID, ok := parseIDParam(w, r, "customerID")
	if !ok {
		return
	}

	var requestPayload AddCartItemRequest
	if !decodeAndValidate(w, r, h.validate, &requestPayload) {
		return
	}

	c, err := h.service.AddItem(r.Context(), customerID, requestPayload.ProductID, requestPayload.Quantity)
	if err != nil {
		respondWithServiceError(w, err, "Failed to add item to cart")
		return
	}
	respondWithJSON(w, http.StatusOK, newCartResponse(c))
}

type quantityFunc func(svc cart.Service, r *http.Request, customerID, productID int64, quantity int) (*cart.Cart, error)

// handleQuantity parses the path ids and a QuantityRequest body and applies fn.
func (h *CartHandler) handleQuantity(w http.ResponseWriter, r *http.Request, fn quantityFunc, failure string) {
	customerID, ok := parseIDParam(w, r, "customerID")
	if !ok {
		return
	}
	productID, ok := parseIDParam(w, r, "productID")
	if !ok {
		return
	}

	var requestPayload QuantityRequest
	if !decodeAndValidate(w, r, h.validate, &requestPayload) {
		return
	}

	c, err := fn(h.service, r, customerID, productID, requestPayload.Quantity)
	if err != nil {
		respondWithServiceError(w, err, failure)
		return
	}
	respondWithJSON(w, http.StatusOK, newCartResponse(c))
}

func (h *CartHandler) handleUpdateItem(w http.ResponseWriter, r *http.Request) {
	h.handleQuantity(w, r, func(svc cart.Service, r *http.Request, customerID, productID int64, quantity int) (*cart.Cart, error) {
		return svc.UpdateItem(r.Context(), customerID, productID, quantity)
	}, "Failed to update cart item")
}

func (h *CartHandler) handleIncreaseItem(w http.ResponseWriter, r *http.Request) {
	h.handleQuantity(w, r, func(svc cart.Service, r *http.Request, customerID, productID int64, delta int) (*cart.Cart, error) {
		return svc.IncreaseItem(r.Context(), customerID, productID, delta)
	}, "Failed to increase cart item")
}

func (h *CartHandler) handleDecreaseItem(w http.ResponseWriter, r *http.Request) {
	h.handleQuantity(w, r, func(svc cart.Service, r *http.Request, customerID, productID int64, delta int) (*cart.Cart, error) {
		return svc.DecreaseItem(r.Context(), customerID, productID, delta)
	}, "Failed to decrease cart item")
}

func (h *CartHandler) handleRemoveItem(w http.ResponseWriter, r *http.Request) {
	customerID, ok := parseIDParam(w, r, "customerID")
	if !ok {
		return
	}
	productID, ok := parseIDParam(w, r, "productID")
	if !ok {
		return
	}

	c, err := h.service.RemoveItem(r.Context(), customerID, productID)
	if err != nil {
		respondWithServiceError(w, err, "Failed to remove cart item")
		return
	}
	respondWithJSON(w, http.StatusOK, newCartResponse(c))
}
