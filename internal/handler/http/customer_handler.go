package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/vasiliy-maslov/storefront/internal/customer"
)

type CustomerRequest struct {
	Name       string `json:"name" validate:"required,max=100"`
	Phone      string `json:"phone" validate:"omitempty,max=20"`
	Address    string `json:"address" validate:"omitempty,max=255"`
	City       string `json:"city" validate:"omitempty,max=100"`
	PostalCode string `json:"postal_code" validate:"omitempty,max=20"`
	Country    string `json:"country" validate:"omitempty,max=100"`
	Birthday   string `json:"birthday" validate:"omitempty,datetime=2006-01-02"`
	Gender     string `json:"gender" validate:"omitempty,oneof=M F"`
}

type CreateCustomerRequest struct {
	UserID int64 `json:"user_id" validate:"required,gt=0"`
	CustomerRequest
}

type CustomerHandler struct {
	service  customer.Service
	validate *validator.Validate
}

func NewCustomerHandler(service customer.Service) *CustomerHandler {
	return &CustomerHandler{service: service, validate: newValidator()}
}

func (h *CustomerHandler) RegisterRoutes(router chi.Router) {
	router.Post("/customers", h.handleCreateCustomer)
	router.Get("/customers", h.handleListCustomers)
	router.Get("/customers/{id}", h.handleGetCustomerByID)
	router.Get("/customers/user/{userID}", h.handleGetCustomerByUserID)
	router.Put("/customers/{id}", h.handleUpdateCustomer)
	router.Delete("/customers/{id}", h.handleDeleteCustomer)
}

// apply copies the profile fields onto c. The birthday was validated already.
func (req CustomerRequest) apply(c *customer.Customer) {
	c.Name = req.Name
	c.Phone = req.Phone
	c.Address = req.Address
	c.City = req.City
	c.PostalCode = req.PostalCode
	c.Country = req.Country
	c.Gender = req.Gender
	c.Birthday = nil
	if req.Birthday != "" {
		if b, err := time.Parse(time.DateOnly, req.Birthday); err == nil {
			c.Birthday = &b
		}
	}
}

func (h *CustomerHandler) handleCreateCustomer(w http.ResponseWriter, r *http.Request) {
	var requestPayload CreateCustomerRequest
	if !decodeAndValidate(w, r, h.validate, &requestPayload) {
		return
	}

	c := customer.Customer{UserID: requestPayload.UserID}
	requestPayload.apply(&c)

	created, err := h.service.CreateCustomer(r.Context(), &c)
	if err != nil {
		respondWithServiceError(w, err, "Failed to create customer")
		return
	}

	respondWithJSON(w, http.StatusCreated, newCustomerResponse(created))
}

func (h *CustomerHandler) handleListCustomers(w http.ResponseWriter, r *http.Request) {
	customers, err := h.service.ListCustomers(r.Context())
	if err != nil {
		respondWithServiceError(w, err, "Failed to list customers")
		return
	}

	resp := make([]CustomerResponse, 0, len(customers))
	for i := range customers {
		resp = append(resp, newCustomerResponse(&customers[i]))
	}
	respondWithJSON(w, http.StatusOK, resp)
}

func (h *CustomerHandler) handleGetCustomerByID(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}

	c, err := h.service.GetCustomerByID(r.Context(), id)
	if err != nil {
		respondWithServiceError(w, err, "Failed to get customer")
		return
	}
	respondWithJSON(w, http.StatusOK, newCustomerResponse(c))
}

func (h *CustomerHandler) handleGetCustomerByUserID(w http.ResponseWriter, r *http.Request) {
	userID, ok := parseIDParam(w, r, "userID")
	if !ok {
		return
	}

	c, err := h.service.GetCustomerByUserID(r.Context(), userID)
	if err != nil {
		respondWithServiceError(w, err, "Failed to get customer")
		return
	}
	respondWithJSON(w, http.StatusOK, newCustomerResponse(c))
}

func (h *CustomerHandler) handleUpdateCustomer(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}

	var requestPayload CustomerRequest
	if !decodeAndValidate(w, r, h.validate, &requestPayload) {
		return
	}

	c := customer.Customer{ID: id}
	requestPayload.apply(&c)

	updated, err := h.service.UpdateCustomer(r.Context(), &c)
	if err != nil {
		respondWithServiceError(w, err, "Failed to update customer")
		return
	}
	respondWithJSON(w, http.StatusOK, newCustomerResponse(updated))
}

func (h *CustomerHandler) handleDeleteCustomer(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}

	if err := h.service.DeleteCustomer(r.Context(), id); err != nil {
		respondWithServiceError(w, err, "Failed to delete customer")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
