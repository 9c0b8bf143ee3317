package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/storefront/internal/customer"
	"github.com/vasiliy-maslov/storefront/internal/lineitem"
	"github.com/vasiliy-maslov/storefront/internal/product"
)

var ErrProductUnavailable = errors.New("product is not available for purchase")

type ProductGetter interface {
	GetProductByID(ctx context.Context, id int64) (*product.Product, error)
}

type CustomerGetter interface {
	GetCustomerByID(ctx context.Context, id int64) (*customer.Customer, error)
}

type Service interface {
	// GetCart returns the customer's cart, or an unsaved empty cart if there is none yet.
	GetCart(ctx context.Context, customerID int64) (*Cart, error)
	AddItem(ctx context.Context, customerID, productID int64, quantity int) (*Cart, error)
	UpdateItem(ctx context.Context, customerID, productID int64, quantity int) (*Cart, error)
	IncreaseItem(ctx context.Context, customerID, productID int64, delta int) (*Cart, error)
	DecreaseItem(ctx context.Context, customerID, productID int64, delta int) (*Cart, error)
	RemoveItem(ctx context.Context, customerID, productID int64) (*Cart, error)
	ClearCart(ctx context.Context, customerID int64) error
}

type service struct {
	repo      Repository
	products  ProductGetter
	customers CustomerGetter
}

func NewService(repo Repository, products ProductGetter, customers CustomerGetter) Service {
	return &service{repo: repo, products: products, customers: customers}
}

func (s *service) GetCart(ctx context.Context, customerID int64) (*Cart, error) {
	cust, err := s.customers.GetCustomerByID(ctx, customerID)
	if err != nil {
		return nil, err
	}

	c, err := s.load(ctx, customerID)
	if err != nil {
		return nil, err
	}
	c.Customer = cust

	if c.ID != 0 && c.RefreshPrices() > 0 {
		if err := s.save(ctx, c); err != nil {
			return nil, err
		}
		log.Info().Int64("cart_id", c.ID).Msg("service: cart prices refreshed")
	}
	return c, nil
}

func (s *service) AddItem(ctx context.Context, customerID, productID int64, quantity int) (*Cart, error) {
	p, err := s.products.GetProductByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if !p.IsActive() || p.IsOutOfStock() {
		return nil, ErrProductUnavailable
	}

	return s.mutate(ctx, customerID, func(c *Cart) lineitem.Result {
		return c.AddItem(p, quantity)
	})
}

func (s *service) UpdateItem(ctx context.Context, customerID, productID int64, quantity int) (*Cart, error) {
	return s.mutate(ctx, customerID, func(c *Cart) lineitem.Result {
		return c.UpdateItem(productID, quantity)
	})
}

func (s *service) IncreaseItem(ctx context.Context, customerID, productID int64, delta int) (*Cart, error) {
	return s.mutate(ctx, customerID, func(c *Cart) lineitem.Result {
		return c.IncreaseItem(productID, delta)
	})
}

func (s *service) DecreaseItem(ctx context.Context, customerID, productID int64, delta int) (*Cart, error) {
	return s.mutate(ctx, customerID, func(c *Cart) lineitem.Result {
		return c.DecreaseItem(productID, delta)
	})
}

func (s *service) RemoveItem(ctx context.Context, customerID, productID int64) (*Cart, error) {
	return s.mutate(ctx, customerID, func(c *Cart) lineitem.Result {
		return c.RemoveItem(productID)
	})
}

// ClearCart destroys the customer's cart. Clearing a customer without a cart is a no-op.
func (s *service) ClearCart(ctx context.Context, customerID int64) error {
	c, err := s.repo.FindByCustomerID(ctx, customerID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		return fmt.Errorf("service: failed to load cart: %w", err)
	}

	if err := s.repo.Delete(ctx, c.ID); err != nil {
		log.Error().Err(err).Int64("cart_id", c.ID).Msg("service: failed to delete cart")
		return fmt.Errorf("service: failed to clear cart: %w", err)
	}
	log.Info().Int64("cart_id", c.ID).Int64("customer_id", customerID).Msg("service: cart cleared")
	return nil
}

// mutate loads (or starts) the customer's cart, applies fn and saves the result.
// A concurrent first insert for the same customer is retried once against the stored cart.
func (s *service) mutate(ctx context.Context, customerID int64, fn func(c *Cart) lineitem.Result) (*Cart, error) {
	cust, err := s.customers.GetCustomerByID(ctx, customerID)
	if err != nil {
		return nil, err
	}

	for attempt := 0; ; attempt++ {
		c, err := s.load(ctx, customerID)
		if err != nil {
			return nil, err
		}
		c.Customer = cust

		if res := fn(c); !res.Applied() {
			log.Debug().Err(res.Reason()).Int64("customer_id", customerID).Msg("service: cart change rejected")
			return nil, res.Err()
		}

		err = s.save(ctx, c)
		if errors.Is(err, ErrExists) && attempt == 0 {
			log.Warn().Int64("customer_id", customerID).Msg("service: cart created concurrently, retrying")
			continue
		}
		if err != nil {
			return nil, err
		}
		return c, nil
	}
}

func (s *service) load(ctx context.Context, customerID int64) (*Cart, error) {
	c, err := s.repo.FindByCustomerID(ctx, customerID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return New(customerID), nil
		}
		log.Error().Err(err).Int64("customer_id", customerID).Msg("service: failed to load cart")
		return nil, fmt.Errorf("service: failed to load cart: %w", err)
	}
	return c, nil
}

func (s *service) save(ctx context.Context, c *Cart) error {
	if err := s.repo.Save(ctx, c); err != nil {
		if errors.Is(err, ErrExists) {
			return ErrExists
		}
		log.Error().Err(err).Int64("cart_id", c.ID).Int64("customer_id", c.CustomerID).Msg("service: failed to save cart")
		return fmt.Errorf("service: failed to save cart: %w", err)
	}
	return nil
}
