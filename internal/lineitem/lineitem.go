// Package lineitem keeps a line's subtotal equal to unit price times quantity.
// The same Line backs cart items, which follow the product's live price, and
// order items, which keep the price captured when they were created.
package lineitem

import (
	"math"

	"github.com/shopspring/decimal"
	"github.com/vasiliy-maslov/storefront/internal/money"
)

// MaxQuantity is the largest quantity a line may hold. It matches the
// INTEGER quantity columns.
const MaxQuantity = math.MaxInt32

type PricePolicy int

const (
	// LivePrice lines accept price updates after creation.
	LivePrice PricePolicy = iota
	// SnapshotPrice lines keep the first price they were given.
	SnapshotPrice
)

func (p PricePolicy) String() string {
	switch p {
	case LivePrice:
		return "live"
	case SnapshotPrice:
		return "snapshot"
	default:
		return "unknown"
	}
}

type OwnerKind string

const (
	OwnerCart  OwnerKind = "cart"
	OwnerOrder OwnerKind = "order"
)

// Owner is a non-owning reference from a line back to its parent aggregate.
type Owner struct {
	Kind OwnerKind
	ID   int64
}

type Line struct {
	owner       Owner
	productID   int64
	policy      PricePolicy
	quantity    int
	hasQuantity bool
	unitPrice   decimal.NullDecimal
	subtotal    decimal.Decimal
}

// New builds a line with both quantity and price set and its subtotal computed.
func New(owner Owner, productID int64, quantity int, unitPrice decimal.Decimal, policy PricePolicy) Line {
	l := Line{
		owner:       owner,
		productID:   productID,
		policy:      policy,
		quantity:    quantity,
		hasQuantity: true,
		unitPrice:   decimal.NullDecimal{Decimal: unitPrice, Valid: true},
	}
	l.recompute()
	return l
}

// Restore rebuilds a persisted line. The stored subtotal is trusted as is.
func Restore(owner Owner, productID int64, quantity int, unitPrice decimal.NullDecimal, subtotal decimal.Decimal, policy PricePolicy) Line {
	return Line{
		owner:       owner,
		productID:   productID,
		policy:      policy,
		quantity:    quantity,
		hasQuantity: true,
		unitPrice:   unitPrice,
		subtotal:    subtotal,
	}
}

func (l *Line) Owner() Owner {
	return l.owner
}

// SetOwner attaches the line to its parent once the parent has an id.
func (l *Line) SetOwner(owner Owner) {
	l.owner = owner
}

func (l *Line) ProductID() int64 {
	return l.productID
}

func (l *Line) Policy() PricePolicy {
	return l.policy
}

func (l *Line) Quantity() int {
	return l.quantity
}

// UnitPrice returns the price and whether one has been set.
func (l *Line) UnitPrice() (decimal.Decimal, bool) {
	return l.unitPrice.Decimal, l.unitPrice.Valid
}

func (l *Line) Subtotal() decimal.Decimal {
	return l.subtotal
}

// SetQuantity stores q without validation and recomputes the subtotal when a
// price is known.
func (l *Line) SetQuantity(q int) {
	l.quantity = q
	l.hasQuantity = true
	if l.unitPrice.Valid {
		l.subtotal = money.Subtotal(l.unitPrice.Decimal, q)
	}
}

// SetUnitPrice replaces the price. Snapshot lines only accept a first price.
func (l *Line) SetUnitPrice(p decimal.Decimal) Result {
	if l.policy == SnapshotPrice && l.unitPrice.Valid {
		return Reject(ErrPriceLocked)
	}
	l.unitPrice = decimal.NullDecimal{Decimal: p, Valid: true}
	if l.hasQuantity {
		l.subtotal = money.Subtotal(p, l.quantity)
	}
	return Accept()
}

// CalculateSubtotal is idempotent. It leaves the line alone when the quantity
// or price is missing, or the quantity is not positive.
func (l *Line) CalculateSubtotal() Result {
	if !l.hasQuantity || !l.unitPrice.Valid || l.quantity <= 0 {
		return Reject(ErrIncomplete)
	}
	l.recompute()
	return Accept()
}

func (l *Line) IncreaseQuantity(delta int) Result {
	if delta <= 0 {
		return Reject(ErrNonPositiveDelta)
	}
	if delta > MaxQuantity-l.quantity {
		return Reject(ErrQuantityOverflow)
	}
	l.quantity += delta
	l.hasQuantity = true
	l.recompute()
	return Accept()
}

// DecreaseQuantity never takes a line to zero; use removal for that.
func (l *Line) DecreaseQuantity(delta int) Result {
	if delta <= 0 {
		return Reject(ErrNonPositiveDelta)
	}
	if l.quantity <= delta {
		return Reject(ErrInsufficientQuantity)
	}
	l.quantity -= delta
	l.recompute()
	return Accept()
}

// UpdatePrice moves a live line to a new non-negative price. The subtotal
// follows only while the quantity is positive.
func (l *Line) UpdatePrice(p decimal.Decimal) Result {
	if l.policy != LivePrice {
		return Reject(ErrUnsupportedPricePolicy)
	}
	if p.IsNegative() {
		return Reject(ErrNegativePrice)
	}
	l.unitPrice = decimal.NullDecimal{Decimal: p, Valid: true}
	l.CalculateSubtotal()
	return Accept()
}

func (l *Line) recompute() {
	if l.hasQuantity && l.unitPrice.Valid {
		l.subtotal = money.Subtotal(l.unitPrice.Decimal, l.quantity)
	}
}
