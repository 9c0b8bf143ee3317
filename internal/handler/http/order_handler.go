package http

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/storefront/internal/checkout"
	"github.com/vasiliy-maslov/storefront/internal/order"
)

const IdempotencyKeyHeader = "Idempotency-Key"

type CheckoutRequest struct {
	PaymentMethod   string `json:"payment_method" validate:"required,oneof=CASH CREDIT_CARD TRANSFER ONLINE"`
	ShippingAddress string `json:"shipping_address" validate:"omitempty,max=255"`
	Notes           string `json:"notes"`
}

type OrderHandler struct {
	orders   order.Service
	checkout checkout.Service
	validate *validator.Validate
}

func NewOrderHandler(orders order.Service, checkoutSvc checkout.Service) *OrderHandler {
	return &OrderHandler{orders: orders, checkout: checkoutSvc, validate: newValidator()}
}

func (h *OrderHandler) RegisterRoutes(router chi.Router) {
	router.Post("/customers/{customerID}/checkout", h.handleCheckout)
	router.Get("/orders", h.handleListOrders)
	router.Get("/orders/{id}", h.handleGetOrder)
	router.Get("/orders/number/{orderNo}", h.handleGetOrderByNo)
	router.Post("/orders/{id}/cancel", h.handleTransition(order.Service.CancelOrder, "Failed to cancel order"))
	router.Post("/orders/{id}/pay", h.handleTransition(order.Service.CompletePayment, "Failed to complete payment"))
	router.Post("/orders/{id}/ship", h.handleTransition(order.Service.ShipOrder, "Failed to ship order"))
	router.Post("/orders/{id}/deliver", h.handleTransition(order.Service.DeliverOrder, "Failed to deliver order"))
	router.Post("/orders/{id}/refund", h.handleTransition(order.Service.RefundOrder, "Failed to refund order"))
}

func (h *OrderHandler) handleCheckout(w http.ResponseWriter, r *http.Request) {
	customerID, ok := parseIDParam(w, r, "customerID")
	if !ok {
		return
	}

	var requestPayload CheckoutRequest
	if !decodeAndValidate(w, r, h.validate, &requestPayload) {
		return
	}

	o, err := h.checkout.Checkout(r.Context(), checkout.Request{
		CustomerID:      customerID,
		PaymentMethod:   order.PaymentMethod(requestPayload.PaymentMethod),
		ShippingAddress: requestPayload.ShippingAddress,
		Notes:           requestPayload.Notes,
		IdempotencyKey:  r.Header.Get(IdempotencyKeyHeader),
	})
	if err != nil {
		respondWithServiceError(w, err, "Failed to place order")
		return
	}
	respondWithJSON(w, http.StatusCreated, newOrderResponse(o))
}

func (h *OrderHandler) handleListOrders(w http.ResponseWriter, r *http.Request) {
	var (
		orders []*order.Order
		err    error
	)
	if raw := r.URL.Query().Get("customer_id"); raw != "" {
		customerID, parseErr := strconv.ParseInt(raw, 10, 64)
		if parseErr != nil || customerID <= 0 {
			log.Warn().Str("customer_id", raw).Msg("Failed to parse customer_id query parameter")
			respondWithError(w, http.StatusBadRequest, "Invalid customer_id parameter")
			return
		}
		orders, err = h.orders.ListCustomerOrders(r.Context(), customerID)
	} else {
		orders, err = h.orders.ListOrders(r.Context())
	}
	if err != nil {
		respondWithServiceError(w, err, "Failed to list orders")
		return
	}

	resp := make([]OrderResponse, 0, len(orders))
	for _, o := range orders {
		resp = append(resp, newOrderResponse(o))
	}
	respondWithJSON(w, http.StatusOK, resp)
}

func (h *OrderHandler) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}

	o, err := h.orders.GetOrderByID(r.Context(), id)
	if err != nil {
		respondWithServiceError(w, err, "Failed to get order")
		return
	}
	respondWithJSON(w, http.StatusOK, newOrderResponse(o))
}

func (h *OrderHandler) handleGetOrderByNo(w http.ResponseWriter, r *http.Request) {
	orderNo := chi.URLParam(r, "orderNo")
	if orderNo == "" {
		respondWithError(w, http.StatusBadRequest, "Order number cannot be empty")
		return
	}

	o, err := h.orders.GetOrderByNo(r.Context(), orderNo)
	if err != nil {
		respondWithServiceError(w, err, "Failed to get order")
		return
	}
	respondWithJSON(w, http.StatusOK, newOrderResponse(o))
}

type transitionFunc func(svc order.Service, ctx context.Context, id int64) (*order.Order, error)

func (h *OrderHandler) handleTransition(fn transitionFunc, failure string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseIDParam(w, r, "id")
		if !ok {
			return
		}

		o, err := fn(h.orders, r.Context(), id)
		if err != nil {
			respondWithServiceError(w, err, failure)
			return
		}
		respondWithJSON(w, http.StatusOK, newOrderResponse(o))
	}
}
