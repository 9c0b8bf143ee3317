package cart

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"github.com/vasiliy-maslov/storefront/internal/customer"
	"github.com/vasiliy-maslov/storefront/internal/lineitem"
	"github.com/vasiliy-maslov/storefront/internal/money"
	"github.com/vasiliy-maslov/storefront/internal/product"
)

var ErrItemNotFound = errors.New("cart has no line for this product")

// Item is a cart line. Its price follows the product's current price.
type Item struct {
	ID int64
	lineitem.Line
	// Product is the loaded product relation, if any.
	Product   *product.Product
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewItem prices a new line at the product's current price.
func NewItem(cartID int64, p *product.Product, quantity int) (*Item, error) {
	if p == nil {
		return nil, lineitem.ErrProductRequired
	}
	return &Item{
		Line:    lineitem.New(owner(cartID), p.ID, quantity, p.Price, lineitem.LivePrice),
		Product: p,
	}, nil
}

func (i *Item) CartID() int64 {
	return i.Owner().ID
}

// IsProductValid reports whether the line's product can be bought right now.
func (i *Item) IsProductValid() bool {
	if i.Product == nil {
		return false
	}
	return i.Product.IsActive() && !i.Product.IsOutOfStock()
}

func owner(cartID int64) lineitem.Owner {
	return lineitem.Owner{Kind: lineitem.OwnerCart, ID: cartID}
}

// Cart belongs to exactly one customer. Its total is always derived from the items.
type Cart struct {
	ID         int64
	CustomerID int64
	// Customer is the loaded customer relation, if any.
	Customer  *customer.Customer
	items     []*Item
	CreatedAt time.Time
	UpdatedAt time.Time
}

func New(customerID int64) *Cart {
	return &Cart{CustomerID: customerID}
}

// SetID assigns the persisted id and re-points every item at it.
func (c *Cart) SetID(id int64) {
	c.ID = id
	for _, it := range c.items {
		it.SetOwner(owner(id))
	}
}

// Items returns the lines in insertion order. The slice is a copy; the items are shared.
func (c *Cart) Items() []*Item {
	out := make([]*Item, len(c.items))
	copy(out, c.items)
	return out
}

func (c *Cart) Item(productID int64) (*Item, bool) {
	for _, it := range c.items {
		if it.ProductID() == productID {
			return it, true
		}
	}
	return nil, false
}

// AddItem adds quantity of p, growing the existing line for p if there is one.
func (c *Cart) AddItem(p *product.Product, quantity int) lineitem.Result {
	if p == nil {
		return lineitem.Reject(lineitem.ErrProductRequired)
	}
	if quantity <= 0 {
		return lineitem.Reject(lineitem.ErrNonPositiveQuantity)
	}
	if quantity > lineitem.MaxQuantity {
		return lineitem.Reject(lineitem.ErrQuantityOverflow)
	}

	if it, ok := c.Item(p.ID); ok {
		it.Product = p
		return it.IncreaseQuantity(quantity)
	}

	it, err := NewItem(c.ID, p, quantity)
	if err != nil {
		return lineitem.Reject(err)
	}
	c.items = append(c.items, it)
	return lineitem.Accept()
}

// UpdateItem sets a line's quantity. Zero or less is rejected; use RemoveItem.
func (c *Cart) UpdateItem(productID int64, quantity int) lineitem.Result {
	if quantity <= 0 {
		return lineitem.Reject(lineitem.ErrNonPositiveQuantity)
	}
	if quantity > lineitem.MaxQuantity {
		return lineitem.Reject(lineitem.ErrQuantityOverflow)
	}
	it, ok := c.Item(productID)
	if !ok {
		return lineitem.Reject(ErrItemNotFound)
	}
	it.SetQuantity(quantity)
	return lineitem.Accept()
}

func (c *Cart) IncreaseItem(productID int64, delta int) lineitem.Result {
	it, ok := c.Item(productID)
	if !ok {
		return lineitem.Reject(ErrItemNotFound)
	}
	return it.IncreaseQuantity(delta)
}

func (c *Cart) DecreaseItem(productID int64, delta int) lineitem.Result {
	it, ok := c.Item(productID)
	if !ok {
		return lineitem.Reject(ErrItemNotFound)
	}
	return it.DecreaseQuantity(delta)
}

func (c *Cart) RemoveItem(productID int64) lineitem.Result {
	for i, it := range c.items {
		if it.ProductID() == productID {
			c.items = append(c.items[:i], c.items[i+1:]...)
			return lineitem.Accept()
		}
	}
	return lineitem.Reject(ErrItemNotFound)
}

func (c *Cart) Clear() {
	c.items = nil
}

// Total is recomputed from the lines on every call.
func (c *Cart) Total() decimal.Decimal {
	subtotals := make([]decimal.Decimal, 0, len(c.items))
	for _, it := range c.items {
		subtotals = append(subtotals, it.Subtotal())
	}
	return money.Sum(subtotals...)
}

// ItemCount is the number of units across all lines.
func (c *Cart) ItemCount() int {
	n := 0
	for _, it := range c.items {
		n += it.Quantity()
	}
	return n
}

func (c *Cart) IsEmpty() bool {
	return len(c.items) == 0
}

// OwnerName is the customer's username, or "" when the customer or its user is not loaded.
func (c *Cart) OwnerName() string {
	if c.Customer == nil || c.Customer.User == nil {
		return ""
	}
	return c.Customer.User.Username
}

// RefreshPrices moves every line to its loaded product's current price and
// returns how many lines changed.
func (c *Cart) RefreshPrices() int {
	changed := 0
	for _, it := range c.items {
		if it.Product == nil {
			continue
		}
		current, ok := it.UnitPrice()
		if ok && current.Equal(it.Product.Price) {
			continue
		}
		if it.UpdatePrice(it.Product.Price).Applied() {
			changed++
		}
	}
	return changed
}

// InvalidItems lists lines whose product cannot currently be bought.
func (c *Cart) InvalidItems() []*Item {
	var invalid []*Item
	for _, it := range c.items {
		if !it.IsProductValid() {
			invalid = append(invalid, it)
		}
	}
	return invalid
}
