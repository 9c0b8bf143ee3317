package order

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/storefront/internal/customer"
	"github.com/vasiliy-maslov/storefront/internal/events"
)

var (
	ErrCannotCancel = errors.New("order can no longer be cancelled")
	ErrCannotRefund = errors.New("order has no payment to refund")
)

type CustomerGetter interface {
	GetCustomerByID(ctx context.Context, id int64) (*customer.Customer, error)
}

type Service interface {
	GetOrderByID(ctx context.Context, id int64) (*Order, error)
	GetOrderByNo(ctx context.Context, orderNo string) (*Order, error)
	ListOrders(ctx context.Context) ([]*Order, error)
	ListCustomerOrders(ctx context.Context, customerID int64) ([]*Order, error)
	CancelOrder(ctx context.Context, id int64) (*Order, error)
	CompletePayment(ctx context.Context, id int64) (*Order, error)
	ShipOrder(ctx context.Context, id int64) (*Order, error)
	DeliverOrder(ctx context.Context, id int64) (*Order, error)
	RefundOrder(ctx context.Context, id int64) (*Order, error)
}

type service struct {
	repo      Repository
	customers CustomerGetter
	publisher events.Publisher
	topic     string
}

// NewService builds the order service. A nil publisher drops events.
func NewService(repo Repository, customers CustomerGetter, publisher events.Publisher, topic string) Service {
	if publisher == nil {
		publisher = events.NewNoopPublisher()
	}
	return &service{repo: repo, customers: customers, publisher: publisher, topic: topic}
}

func (s *service) GetOrderByID(ctx context.Context, id int64) (*Order, error) {
	o, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.wrapFind(err, id)
	}
	s.attachCustomer(ctx, o)
	return o, nil
}

func (s *service) GetOrderByNo(ctx context.Context, orderNo string) (*Order, error) {
	o, err := s.repo.FindByOrderNo(ctx, orderNo)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		log.Error().Err(err).Str("order_no", orderNo).Msg("service: failed to get order by number")
		return nil, fmt.Errorf("service: failed to get order by number: %w", err)
	}
	s.attachCustomer(ctx, o)
	return o, nil
}

func (s *service) ListOrders(ctx context.Context) ([]*Order, error) {
	orders, err := s.repo.FindAll(ctx)
	if err != nil {
		log.Error().Err(err).Msg("service: failed to list orders")
		return nil, fmt.Errorf("service: failed to list orders: %w", err)
	}
	return orders, nil
}

func (s *service) ListCustomerOrders(ctx context.Context, customerID int64) ([]*Order, error) {
	orders, err := s.repo.FindByCustomerID(ctx, customerID)
	if err != nil {
		log.Error().Err(err).Int64("customer_id", customerID).Msg("service: failed to list customer orders")
		return nil, fmt.Errorf("service: failed to list customer orders: %w", err)
	}
	return orders, nil
}

func (s *service) CancelOrder(ctx context.Context, id int64) (*Order, error) {
	return s.transition(ctx, id, EventCancelled, func(o *Order) (bool, error) {
		if o.Status == StatusCancelled {
			return false, nil
		}
		if !o.CanCancel() {
			return false, ErrCannotCancel
		}
		o.Cancel()
		return true, nil
	})
}

func (s *service) CompletePayment(ctx context.Context, id int64) (*Order, error) {
	return s.transition(ctx, id, EventPaid, func(o *Order) (bool, error) {
		if o.PaymentStatus == PaymentPaid {
			return false, nil
		}
		o.CompletePayment()
		return true, nil
	})
}

func (s *service) ShipOrder(ctx context.Context, id int64) (*Order, error) {
	return s.transition(ctx, id, EventShipped, func(o *Order) (bool, error) {
		if o.Status == StatusShipped {
			return false, nil
		}
		o.MarkAsShipped()
		return true, nil
	})
}

func (s *service) DeliverOrder(ctx context.Context, id int64) (*Order, error) {
	return s.transition(ctx, id, EventDelivered, func(o *Order) (bool, error) {
		if o.Status == StatusDelivered {
			return false, nil
		}
		o.MarkAsDelivered()
		return true, nil
	})
}

// RefundOrder returns the payment and moves the order to REFUNDED.
func (s *service) RefundOrder(ctx context.Context, id int64) (*Order, error) {
	return s.transition(ctx, id, EventRefunded, func(o *Order) (bool, error) {
		if !o.CanRefund() {
			return false, ErrCannotRefund
		}
		o.RefundPayment()
		o.MarkAsRefunded()
		return true, nil
	})
}

// transition loads the order, applies fn and saves it when fn reports a change.
// An unchanged order is returned as is, without an event.
func (s *service) transition(ctx context.Context, id int64, event EventType, fn func(o *Order) (bool, error)) (*Order, error) {
	o, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.wrapFind(err, id)
	}

	changed, err := fn(o)
	if err != nil {
		log.Warn().Err(err).Int64("order_id", id).Str("status", o.Status.String()).Msg("service: order transition refused")
		return nil, err
	}
	if !changed {
		log.Info().Int64("order_id", id).Str("event", string(event)).Msg("service: order already in requested state")
		return o, nil
	}

	if err := s.repo.Save(ctx, o); err != nil {
		log.Error().Err(err).Int64("order_id", id).Msg("service: failed to save order")
		return nil, fmt.Errorf("service: failed to save order: %w", err)
	}
	log.Info().Int64("order_id", o.ID).Str("order_no", o.OrderNo()).
		Str("status", o.Status.String()).Str("payment_status", o.PaymentStatus.String()).
		Msg("service: order updated")

	s.publish(ctx, NewEvent(event, o))
	return o, nil
}

func (s *service) publish(ctx context.Context, e Event) {
	if err := s.publisher.Publish(ctx, s.topic, e.Key(), e); err != nil {
		log.Error().Err(err).Int64("order_id", e.OrderID).Str("event", string(e.Type)).Msg("service: failed to publish order event")
	}
}

func (s *service) attachCustomer(ctx context.Context, o *Order) {
	if s.customers == nil {
		return
	}
	c, err := s.customers.GetCustomerByID(ctx, o.CustomerID)
	if err != nil {
		log.Warn().Err(err).Int64("order_id", o.ID).Int64("customer_id", o.CustomerID).Msg("service: order customer not loaded")
		return
	}
	o.Customer = c
}

func (s *service) wrapFind(err error, id int64) error {
	if errors.Is(err, ErrNotFound) {
		return ErrNotFound
	}
	log.Error().Err(err).Int64("order_id", id).Msg("service: failed to get order")
	return fmt.Errorf("service: failed to get order: %w", err)
}
