package http

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/vasiliy-maslov/storefront/internal/cart"
	"github.com/vasiliy-maslov/storefront/internal/customer"
	"github.com/vasiliy-maslov/storefront/internal/order"
	"github.com/vasiliy-maslov/storefront/internal/product"
	"github.com/vasiliy-maslov/storefront/internal/user"
)

type UserResponse struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Enabled   bool      `json:"enabled"`
	Role      string    `json:"role"`
	RoleLabel string    `json:"role_label"`
	IsAdmin   bool      `json:"is_admin"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func newUserResponse(u *user.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		Enabled:   u.Enabled,
		Role:      u.Role.String(),
		RoleLabel: u.Role.Label(),
		IsAdmin:   u.IsAdmin(),
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

type CustomerResponse struct {
	ID          int64      `json:"id"`
	UserID      int64      `json:"user_id"`
	Username    string     `json:"username,omitempty"`
	Name        string     `json:"name"`
	Phone       string     `json:"phone"`
	Address     string     `json:"address"`
	City        string     `json:"city"`
	PostalCode  string     `json:"postal_code"`
	Country     string     `json:"country"`
	FullAddress string     `json:"full_address"`
	Birthday    *time.Time `json:"birthday,omitempty"`
	Gender      string     `json:"gender"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func newCustomerResponse(c *customer.Customer) CustomerResponse {
	return CustomerResponse{
		ID:          c.ID,
		UserID:      c.UserID,
		Username:    c.Username(),
		Name:        c.Name,
		Phone:       c.Phone,
		Address:     c.Address,
		City:        c.City,
		PostalCode:  c.PostalCode,
		Country:     c.Country,
		FullAddress: c.FullAddress(),
		Birthday:    c.Birthday,
		Gender:      c.Gender,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}

type ProductResponse struct {
	ID                int64           `json:"id"`
	Name              string          `json:"name"`
	Type              string          `json:"type"`
	Price             decimal.Decimal `json:"price"`
	Description       string          `json:"description"`
	ImageURL          string          `json:"image_url"`
	Status            string          `json:"status"`
	StatusDescription string          `json:"status_description"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

func newProductResponse(p *product.Product) ProductResponse {
	return ProductResponse{
		ID:                p.ID,
		Name:              p.Name,
		Type:              p.Type,
		Price:             p.Price,
		Description:       p.Description,
		ImageURL:          p.ImageURL,
		Status:            p.Status.String(),
		StatusDescription: p.Status.Description(),
		CreatedAt:         p.CreatedAt,
		UpdatedAt:         p.UpdatedAt,
	}
}

type CartItemResponse struct {
	ID             int64            `json:"id"`
	ProductID      int64            `json:"product_id"`
	ProductName    string           `json:"product_name,omitempty"`
	Quantity       int              `json:"quantity"`
	UnitPrice      *decimal.Decimal `json:"unit_price"`
	Subtotal       decimal.Decimal  `json:"subtotal"`
	IsProductValid bool             `json:"is_product_valid"`
}

type CartResponse struct {
	ID         int64              `json:"id"`
	CustomerID int64              `json:"customer_id"`
	OwnerName  string             `json:"owner_name"`
	Items      []CartItemResponse `json:"items"`
	ItemCount  int                `json:"item_count"`
	Total      decimal.Decimal    `json:"total"`
}

func newCartResponse(c *cart.Cart) CartResponse {
	items := c.Items()
	resp := CartResponse{
		ID:         c.ID,
		CustomerID: c.CustomerID,
		OwnerName:  c.OwnerName(),
		Items:      make([]CartItemResponse, 0, len(items)),
		ItemCount:  c.ItemCount(),
		Total:      c.Total(),
	}
	for _, it := range items {
		item := CartItemResponse{
			ID:             it.ID,
			ProductID:      it.ProductID(),
			Quantity:       it.Quantity(),
			Subtotal:       it.Subtotal(),
			IsProductValid: it.IsProductValid(),
		}
		if price, ok := it.UnitPrice(); ok {
			item.UnitPrice = &price
		}
		if it.Product != nil {
			item.ProductName = it.Product.Name
		}
		resp.Items = append(resp.Items, item)
	}
	return resp
}

type OrderItemResponse struct {
	ID          int64           `json:"id"`
	ProductID   int64           `json:"product_id"`
	ProductName string          `json:"product_name,omitempty"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Subtotal    decimal.Decimal `json:"subtotal"`
}

type OrderResponse struct {
	ID                       int64               `json:"id"`
	OrderNo                  string              `json:"order_no"`
	CustomerID               int64               `json:"customer_id"`
	CustomerName             string              `json:"customer_name,omitempty"`
	TotalAmount              decimal.Decimal     `json:"total_amount"`
	Status                   string              `json:"status"`
	StatusDescription        string              `json:"status_description"`
	PaymentMethod            string              `json:"payment_method"`
	PaymentMethodDescription string              `json:"payment_method_description"`
	PaymentStatus            string              `json:"payment_status"`
	PaymentStatusDescription string              `json:"payment_status_description"`
	ShippingAddress          string              `json:"shipping_address"`
	Notes                    string              `json:"notes"`
	CanCancel                bool                `json:"can_cancel"`
	CanRefund                bool                `json:"can_refund"`
	Items                    []OrderItemResponse `json:"items"`
	CreatedAt                time.Time           `json:"created_at"`
	UpdatedAt                time.Time           `json:"updated_at"`
}

func newOrderResponse(o *order.Order) OrderResponse {
	items := o.Items()
	resp := OrderResponse{
		ID:                       o.ID,
		OrderNo:                  o.OrderNo(),
		CustomerID:               o.CustomerID,
		TotalAmount:              o.TotalAmount,
		Status:                   o.Status.String(),
		StatusDescription:        o.Status.Description(),
		PaymentMethod:            o.PaymentMethod.String(),
		PaymentMethodDescription: o.PaymentMethod.Description(),
		PaymentStatus:            o.PaymentStatus.String(),
		PaymentStatusDescription: o.PaymentStatus.Description(),
		ShippingAddress:          o.ShippingAddress,
		Notes:                    o.Notes,
		CanCancel:                o.CanCancel(),
		CanRefund:                o.CanRefund(),
		Items:                    make([]OrderItemResponse, 0, len(items)),
		CreatedAt:                o.CreatedAt,
		UpdatedAt:                o.UpdatedAt,
	}
	if o.Customer != nil {
		resp.CustomerName = o.Customer.Name
	}
	for _, it := range items {
		item := OrderItemResponse{
			ID:        it.ID,
			ProductID: it.ProductID(),
			Quantity:  it.Quantity(),
			UnitPrice: it.UnitPrice(),
			Subtotal:  it.Subtotal(),
		}
		if it.Product != nil {
			item.ProductName = it.Product.Name
		}
		resp.Items = append(resp.Items, item)
	}
	return resp
}
