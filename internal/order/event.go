package order

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type EventType string

const (
	EventPlaced    EventType = "order.placed"
	EventCancelled EventType = "order.cancelled"
	EventPaid      EventType = "order.paid"
	EventShipped   EventType = "order.shipped"
	EventDelivered EventType = "order.delivered"
	EventRefunded  EventType = "order.refunded"
)

// Event is the payload published for every order lifecycle change.
type Event struct {
	Type          EventType       `json:"type"`
	OrderID       int64           `json:"order_id"`
	OrderNo       string          `json:"order_no"`
	CustomerID    int64           `json:"customer_id"`
	Status        Status          `json:"status"`
	PaymentStatus PaymentStatus   `json:"payment_status"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	OccurredAt    time.Time       `json:"occurred_at"`
}

func NewEvent(t EventType, o *Order) Event {
	return Event{
		Type:          t,
		OrderID:       o.ID,
		OrderNo:       o.orderNo,
		CustomerID:    o.CustomerID,
		Status:        o.Status,
		PaymentStatus: o.PaymentStatus,
		TotalAmount:   o.TotalAmount,
		OccurredAt:    time.Now().UTC(),
	}
}

// Key partitions events so that one order's events stay in order.
func (e Event) Key() string {
	return fmt.Sprintf("order-%d", e.OrderID)
}
