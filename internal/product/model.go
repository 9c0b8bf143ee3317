package product

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/vasiliy-maslov/storefront/internal/money"
)

type Status string

const (
	StatusActive     Status = "ACTIVE"
	StatusInactive   Status = "INACTIVE"
	StatusOutOfStock Status = "OUT_OF_STOCK"
)

func (s Status) String() string {
	return string(s)
}

func (s Status) Description() string {
	switch s {
	case StatusActive:
		return "On sale"
	case StatusInactive:
		return "Off the shelf"
	case StatusOutOfStock:
		return "Out of stock"
	default:
		return "Unknown"
	}
}

func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusInactive, StatusOutOfStock:
		return true
	}
	return false
}

var (
	ErrNameRequired = errors.New("product name is required")
	ErrTypeRequired = errors.New("product type is required")
	ErrInvalidPrice = errors.New("invalid product price")
)

type Product struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Type        string          `json:"type"`
	Price       decimal.Decimal `json:"price"`
	Description string          `json:"description,omitempty"`
	ImageURL    string          `json:"image_url,omitempty"`
	Status      Status          `json:"status"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// New returns an active product.
func New(name, productType string, price decimal.Decimal) *Product {
	return &Product{
		Name:   name,
		Type:   productType,
		Price:  price,
		Status: StatusActive,
	}
}

func (p *Product) Activate() {
	p.Status = StatusActive
}

func (p *Product) Deactivate() {
	p.Status = StatusInactive
}

func (p *Product) MarkAsOutOfStock() {
	p.Status = StatusOutOfStock
}

func (p *Product) IsActive() bool {
	return p.Status == StatusActive
}

func (p *Product) IsOutOfStock() bool {
	return p.Status == StatusOutOfStock
}

func (p *Product) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return ErrNameRequired
	}
	if strings.TrimSpace(p.Type) == "" {
		return ErrTypeRequired
	}
	if err := money.Validate(p.Price); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidPrice, err)
	}
	return nil
}
