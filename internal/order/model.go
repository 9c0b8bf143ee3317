package order

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/vasiliy-maslov/storefront/internal/customer"
	"github.com/vasiliy-maslov/storefront/internal/lineitem"
	"github.com/vasiliy-maslov/storefront/internal/money"
	"github.com/vasiliy-maslov/storefront/internal/product"
)

type Status string

const (
	StatusPending    Status = "PENDING"
	StatusProcessing Status = "PROCESSING"
	StatusShipped    Status = "SHIPPED"
	StatusDelivered  Status = "DELIVERED"
	StatusCancelled  Status = "CANCELLED"
	StatusRefunded   Status = "REFUNDED"
)

func (s Status) String() string {
	return string(s)
}

func (s Status) Description() string {
	switch s {
	case StatusPending:
		return "Awaiting processing"
	case StatusProcessing:
		return "Processing"
	case StatusShipped:
		return "Shipped"
	case StatusDelivered:
		return "Delivered"
	case StatusCancelled:
		return "Cancelled"
	case StatusRefunded:
		return "Refunded"
	default:
		return "Unknown"
	}
}

type PaymentMethod string

const (
	PaymentCash       PaymentMethod = "CASH"
	PaymentCreditCard PaymentMethod = "CREDIT_CARD"
	PaymentTransfer   PaymentMethod = "TRANSFER"
	PaymentOnline     PaymentMethod = "ONLINE"
)

func (m PaymentMethod) String() string {
	return string(m)
}

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentCash, PaymentCreditCard, PaymentTransfer, PaymentOnline:
		return true
	}
	return false
}

func (m PaymentMethod) Description() string {
	switch m {
	case PaymentCash:
		return "Cash on delivery"
	case PaymentCreditCard:
		return "Credit card"
	case PaymentTransfer:
		return "Bank transfer"
	case PaymentOnline:
		return "Online payment"
	default:
		return "Unknown"
	}
}

type PaymentStatus string

const (
	PaymentUnpaid   PaymentStatus = "UNPAID"
	PaymentPaid     PaymentStatus = "PAID"
	PaymentRefunded PaymentStatus = "REFUNDED"
)

func (s PaymentStatus) String() string {
	return string(s)
}

func (s PaymentStatus) Description() string {
	switch s {
	case PaymentUnpaid:
		return "Unpaid"
	case PaymentPaid:
		return "Paid"
	case PaymentRefunded:
		return "Refunded"
	default:
		return "Unknown"
	}
}

// Item is an order line. Its unit price is captured when the order is placed
// and has no setter.
type Item struct {
	ID        int64
	line      lineitem.Line
	Product   *product.Product
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewItem snapshots p's current price.
func NewItem(orderID int64, p *product.Product, quantity int) (*Item, error) {
	if p == nil {
		return nil, lineitem.ErrProductRequired
	}
	return &Item{
		line:    lineitem.New(owner(orderID), p.ID, quantity, p.Price, lineitem.SnapshotPrice),
		Product: p,
	}, nil
}

func owner(orderID int64) lineitem.Owner {
	return lineitem.Owner{Kind: lineitem.OwnerOrder, ID: orderID}
}

func (i *Item) OrderID() int64 {
	return i.line.Owner().ID
}

func (i *Item) ProductID() int64 {
	return i.line.ProductID()
}

func (i *Item) Quantity() int {
	return i.line.Quantity()
}

func (i *Item) UnitPrice() decimal.Decimal {
	price, _ := i.line.UnitPrice()
	return price
}

func (i *Item) Subtotal() decimal.Decimal {
	return i.line.Subtotal()
}

func (i *Item) SetQuantity(q int) {
	i.line.SetQuantity(q)
}

func (i *Item) IncreaseQuantity(delta int) lineitem.Result {
	return i.line.IncreaseQuantity(delta)
}

func (i *Item) DecreaseQuantity(delta int) lineitem.Result {
	return i.line.DecreaseQuantity(delta)
}

func (i *Item) CalculateSubtotal() lineitem.Result {
	return i.line.CalculateSubtotal()
}

// Order keeps fulfilment status and payment status independently. The
// setters below are unconditional; callers check CanCancel and CanRefund.
type Order struct {
	ID              int64
	orderNo         string
	CustomerID      int64
	Customer        *customer.Customer
	TotalAmount     decimal.Decimal
	Status          Status
	PaymentMethod   PaymentMethod
	PaymentStatus   PaymentStatus
	ShippingAddress string
	Notes           string
	items           []*Item
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func New(orderNo string, customerID int64, method PaymentMethod) *Order {
	return &Order{
		orderNo:       orderNo,
		CustomerID:    customerID,
		TotalAmount:   decimal.Zero,
		Status:        StatusPending,
		PaymentMethod: method,
		PaymentStatus: PaymentUnpaid,
	}
}

// OrderNo is assigned at creation and never changes.
func (o *Order) OrderNo() string {
	return o.orderNo
}

// SetID assigns the persisted id and re-points every item at it.
func (o *Order) SetID(id int64) {
	o.ID = id
	for _, it := range o.items {
		it.line.SetOwner(owner(id))
	}
}

func (o *Order) Items() []*Item {
	out := make([]*Item, len(o.items))
	copy(out, o.items)
	return out
}

// AddItem appends a line priced at p's current price and updates the total.
func (o *Order) AddItem(p *product.Product, quantity int) lineitem.Result {
	if quantity <= 0 {
		return lineitem.Reject(lineitem.ErrNonPositiveQuantity)
	}
	if quantity > lineitem.MaxQuantity {
		return lineitem.Reject(lineitem.ErrQuantityOverflow)
	}
	it, err := NewItem(o.ID, p, quantity)
	if err != nil {
		return lineitem.Reject(err)
	}
	o.items = append(o.items, it)
	o.RecalculateTotal()
	return lineitem.Accept()
}

// RecalculateTotal sets TotalAmount to the sum of the item subtotals.
func (o *Order) RecalculateTotal() {
	subtotals := make([]decimal.Decimal, 0, len(o.items))
	for _, it := range o.items {
		subtotals = append(subtotals, it.Subtotal())
	}
	o.TotalAmount = money.Sum(subtotals...)
}

func (o *Order) CanCancel() bool {
	return o.Status == StatusPending || o.Status == StatusProcessing
}

func (o *Order) Cancel() {
	o.Status = StatusCancelled
}

func (o *Order) StartProcessing() {
	o.Status = StatusProcessing
}

func (o *Order) CompletePayment() {
	o.PaymentStatus = PaymentPaid
}

func (o *Order) MarkAsShipped() {
	o.Status = StatusShipped
}

func (o *Order) MarkAsDelivered() {
	o.Status = StatusDelivered
}

func (o *Order) CanRefund() bool {
	return o.PaymentStatus == PaymentPaid
}

func (o *Order) RefundPayment() {
	o.PaymentStatus = PaymentRefunded
}

func (o *Order) MarkAsRefunded() {
	o.Status = StatusRefunded
}
