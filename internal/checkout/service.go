// Package checkout turns a customer's cart into an order.
package checkout

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/storefront/internal/cart"
	"github.com/vasiliy-maslov/storefront/internal/customer"
	"github.com/vasiliy-maslov/storefront/internal/events"
	"github.com/vasiliy-maslov/storefront/internal/order"
)

var (
	ErrEmptyCart            = errors.New("cart is empty")
	ErrDuplicateCheckout    = errors.New("checkout with this idempotency key was already submitted")
	ErrInvalidPaymentMethod = errors.New("invalid payment method")
)

type Request struct {
	CustomerID      int64
	PaymentMethod   order.PaymentMethod
	ShippingAddress string
	Notes           string
	IdempotencyKey  string
}

type CustomerGetter interface {
	GetCustomerByID(ctx context.Context, id int64) (*customer.Customer, error)
}

type Service interface {
	Checkout(ctx context.Context, req Request) (*order.Order, error)
}

type service struct {
	uow       UnitOfWork
	customers CustomerGetter
	numbers   order.NumberGenerator
	keys      KeyStore
	publisher events.Publisher
	topic     string
}

type Option func(*service)

func WithKeyStore(keys KeyStore) Option {
	return func(s *service) { s.keys = keys }
}

func WithPublisher(p events.Publisher, topic string) Option {
	return func(s *service) {
		s.publisher = p
		s.topic = topic
	}
}

func WithNumberGenerator(g order.NumberGenerator) Option {
	return func(s *service) { s.numbers = g }
}

func NewService(uow UnitOfWork, customers CustomerGetter, opts ...Option) Service {
	s := &service{
		uow:       uow,
		customers: customers,
		numbers:   order.NewNumberGenerator(),
		keys:      NewNoopKeyStore(),
		publisher: events.NewNoopPublisher(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *service) Checkout(ctx context.Context, req Request) (o *order.Order, err error) {
	if !req.PaymentMethod.Valid() {
		return nil, ErrInvalidPaymentMethod
	}

	cust, err := s.customers.GetCustomerByID(ctx, req.CustomerID)
	if err != nil {
		return nil, err
	}

	if req.IdempotencyKey != "" {
		reserved, resErr := s.keys.Reserve(ctx, req.CustomerID, req.IdempotencyKey)
		if resErr != nil {
			log.Error().Err(resErr).Int64("customer_id", req.CustomerID).Msg("service: failed to reserve idempotency key")
			return nil, fmt.Errorf("service: checkout failed: %w", resErr)
		}
		if !reserved {
			log.Warn().Int64("customer_id", req.CustomerID).Str("idempotency_key", req.IdempotencyKey).Msg("service: duplicate checkout")
			return nil, ErrDuplicateCheckout
		}
		// A failed attempt gives the key back so the client can retry.
		defer func() {
			if err == nil {
				return
			}
			if relErr := s.keys.Release(context.WithoutCancel(ctx), req.CustomerID, req.IdempotencyKey); relErr != nil {
				log.Error().Err(relErr).Str("idempotency_key", req.IdempotencyKey).Msg("service: failed to release idempotency key")
			}
		}()
	}

	orderNo, err := s.numbers.Next()
	if err != nil {
		return nil, fmt.Errorf("service: checkout failed: %w", err)
	}

	err = s.uow.Do(ctx, func(repos Repositories) error {
		var txErr error
		o, txErr = placeOrder(ctx, repos, cust, orderNo, req)
		return txErr
	})
	if err != nil {
		if isCheckoutRejection(err) {
			log.Info().Err(err).Int64("customer_id", req.CustomerID).Msg("service: checkout rejected")
			return nil, err
		}
		log.Error().Err(err).Int64("customer_id", req.CustomerID).Msg("service: checkout failed")
		return nil, fmt.Errorf("service: checkout failed: %w", err)
	}

	log.Info().Int64("order_id", o.ID).Str("order_no", o.OrderNo()).Int64("customer_id", o.CustomerID).
		Str("total", o.TotalAmount.StringFixed(2)).Msg("service: order placed")

	e := order.NewEvent(order.EventPlaced, o)
	if pubErr := s.publisher.Publish(ctx, s.topic, e.Key(), e); pubErr != nil {
		log.Error().Err(pubErr).Int64("order_id", o.ID).Msg("service: failed to publish order placed event")
	}
	return o, nil
}

// placeOrder runs inside the unit of work. Prices are taken from the products
// as they are now, not from the cart lines.
func placeOrder(ctx context.Context, repos Repositories, cust *customer.Customer, orderNo string, req Request) (*order.Order, error) {
	c, err := repos.Carts.FindByCustomerID(ctx, cust.ID)
	if err != nil {
		if errors.Is(err, cart.ErrNotFound) {
			return nil, ErrEmptyCart
		}
		return nil, err
	}
	if c.IsEmpty() {
		return nil, ErrEmptyCart
	}

	items := c.Items()
	ids := make([]int64, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.ProductID())
	}
	products, err := repos.Products.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	o := order.New(orderNo, cust.ID, req.PaymentMethod)
	o.Customer = cust
	o.Notes = req.Notes
	o.ShippingAddress = req.ShippingAddress
	if o.ShippingAddress == "" {
		o.ShippingAddress = cust.FullAddress()
	}

	for _, it := range items {
		p, ok := products[it.ProductID()]
		if !ok || !p.IsActive() || p.IsOutOfStock() {
			return nil, fmt.Errorf("%w: product %d", cart.ErrProductUnavailable, it.ProductID())
		}
		if res := o.AddItem(p, it.Quantity()); !res.Applied() {
			return nil, res.Err()
		}
	}

	if err := repos.Orders.Save(ctx, o); err != nil {
		return nil, err
	}
	if err := repos.Carts.Delete(ctx, c.ID); err != nil {
		return nil, err
	}
	return o, nil
}

func isCheckoutRejection(err error) bool {
	return errors.Is(err, ErrEmptyCart) ||
		errors.Is(err, cart.ErrProductUnavailable) ||
		errors.Is(err, order.ErrDuplicateOrderNo)
}
