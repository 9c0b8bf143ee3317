package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"github.com/vasiliy-maslov/storefront/internal/db"
	"github.com/vasiliy-maslov/storefront/internal/lineitem"
	"github.com/vasiliy-maslov/storefront/internal/product"
)

var (
	ErrNotFound         = errors.New("order not found")
	ErrDuplicateOrderNo = errors.New("order with this number already exists")
	ErrCustomerNotFound = errors.New("order customer does not exist")
)

type Repository interface {
	FindByID(ctx context.Context, id int64) (*Order, error)
	FindByOrderNo(ctx context.Context, orderNo string) (*Order, error)
	FindByCustomerID(ctx context.Context, customerID int64) ([]*Order, error)
	FindAll(ctx context.Context) ([]*Order, error)
	Save(ctx context.Context, o *Order) error
	Delete(ctx context.Context, id int64) error
}

type postgresRepository struct {
	db db.DBTX
}

func NewRepository(conn db.DBTX) Repository {
	return &postgresRepository{db: conn}
}

const selectOrders = `
	SELECT id, order_no, customer_id, total_amount, status, payment_method, payment_status,
		shipping_address, notes, created_at, updated_at
	FROM orders`

func scanOrder(row pgx.Row) (*Order, error) {
	var o Order
	err := row.Scan(
		&o.ID, &o.orderNo, &o.CustomerID, &o.TotalAmount, &o.Status, &o.PaymentMethod, &o.PaymentStatus,
		&o.ShippingAddress, &o.Notes, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *postgresRepository) FindByID(ctx context.Context, id int64) (*Order, error) {
	return r.findOne(ctx, selectOrders+` WHERE id = $1`, id)
}

func (r *postgresRepository) FindByOrderNo(ctx context.Context, orderNo string) (*Order, error) {
	return r.findOne(ctx, selectOrders+` WHERE order_no = $1`, orderNo)
}

func (r *postgresRepository) findOne(ctx context.Context, query string, arg any) (*Order, error) {
	o, err := scanOrder(r.db.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("repository: failed to select order: %w", err)
	}

	if err := r.loadItems(ctx, map[int64]*Order{o.ID: o}); err != nil {
		return nil, err
	}
	return o, nil
}

func (r *postgresRepository) FindByCustomerID(ctx context.Context, customerID int64) ([]*Order, error) {
	return r.findMany(ctx, selectOrders+` WHERE customer_id = $1 ORDER BY id`, customerID)
}

func (r *postgresRepository) FindAll(ctx context.Context) ([]*Order, error) {
	return r.findMany(ctx, selectOrders+` ORDER BY id`)
}

func (r *postgresRepository) findMany(ctx context.Context, query string, args ...any) ([]*Order, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query orders: %w", err)
	}
	defer rows.Close()

	orders := make([]*Order, 0)
	byID := make(map[int64]*Order)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to scan order: %w", err)
		}
		orders = append(orders, o)
		byID[o.ID] = o
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: failed iterating orders: %w", err)
	}

	if err := r.loadItems(ctx, byID); err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *postgresRepository) loadItems(ctx context.Context, orders map[int64]*Order) error {
	if len(orders) == 0 {
		return nil
	}
	ids := make([]int64, 0, len(orders))
	for id := range orders {
		ids = append(ids, id)
	}

	query := `
		SELECT oi.id, oi.order_id, oi.quantity, oi.unit_price, oi.subtotal, oi.created_at, oi.updated_at,
			p.id, p.name, p.type, p.price, p.description, p.image_url, p.status, p.created_at, p.updated_at
		FROM order_items oi
		JOIN products p ON p.id = oi.product_id
		WHERE oi.order_id = ANY($1)
		ORDER BY oi.id
	`
	rows, err := r.db.Query(ctx, query, ids)
	if err != nil {
		return fmt.Errorf("repository: failed to query order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			item      Item
			p         product.Product
			orderID   int64
			quantity  int
			unitPrice decimal.Decimal
			subtotal  decimal.Decimal
		)
		err := rows.Scan(
			&item.ID, &orderID, &quantity, &unitPrice, &subtotal, &item.CreatedAt, &item.UpdatedAt,
			&p.ID, &p.Name, &p.Type, &p.Price, &p.Description, &p.ImageURL, &p.Status, &p.CreatedAt, &p.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("repository: failed to scan order item: %w", err)
		}
		item.line = lineitem.Restore(owner(orderID), p.ID, quantity,
			decimal.NullDecimal{Decimal: unitPrice, Valid: true}, subtotal, lineitem.SnapshotPrice)
		item.Product = &p

		if o, ok := orders[orderID]; ok {
			o.items = append(o.items, &item)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("repository: failed iterating order items: %w", err)
	}
	return nil
}

// Save inserts a new order with its items, or updates the header of an
// existing one. Stored items are never rewritten. A new order whose insert
// does not commit keeps no ids.
func (r *postgresRepository) Save(ctx context.Context, o *Order) (err error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("repository: failed to begin transaction: %w", err)
	}

	isNew := o.ID == 0
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(ctx)
			panic(p)
		} else if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				log.Error().Err(rbErr).Str("order_no", o.orderNo).Msg("repository: failed to rollback order save")
			}
		} else if commitErr := tx.Commit(ctx); commitErr != nil {
			err = fmt.Errorf("repository: failed to commit order save: %w", commitErr)
		}

		if err != nil && isNew {
			o.SetID(0)
			for _, it := range o.items {
				it.ID = 0
			}
		}
	}()

	now := time.Now().UTC()

	if o.ID != 0 {
		cmdTag, execErr := tx.Exec(ctx, `
			UPDATE orders
			SET total_amount = $1, status = $2, payment_method = $3, payment_status = $4,
				shipping_address = $5, notes = $6, updated_at = $7
			WHERE id = $8`,
			o.TotalAmount, o.Status, o.PaymentMethod, o.PaymentStatus, o.ShippingAddress, o.Notes, now, o.ID,
		)
		if execErr != nil {
			err = fmt.Errorf("repository: failed to update order %d: %w", o.ID, execErr)
			return err
		}
		if cmdTag.RowsAffected() == 0 {
			err = ErrNotFound
			return err
		}
		o.UpdatedAt = now
		return nil
	}

	var id int64
	err = tx.QueryRow(ctx, `
		INSERT INTO orders (order_no, customer_id, total_amount, status, payment_method, payment_status,
			shipping_address, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)
		RETURNING id`,
		o.orderNo, o.CustomerID, o.TotalAmount, o.Status, o.PaymentMethod, o.PaymentStatus,
		o.ShippingAddress, o.Notes, now,
	).Scan(&id)
	if err != nil {
		if db.IsUniqueViolation(err, "orders_order_no_key") {
			return ErrDuplicateOrderNo
		}
		if db.IsForeignKeyViolation(err) {
			return ErrCustomerNotFound
		}
		return fmt.Errorf("repository: failed to insert order: %w", err)
	}
	o.SetID(id)
	o.CreatedAt = now
	o.UpdatedAt = now

	for _, it := range o.items {
		err = tx.QueryRow(ctx, `
			INSERT INTO order_items (order_id, product_id, quantity, unit_price, subtotal, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $6)
			RETURNING id`,
			o.ID, it.ProductID(), it.Quantity(), it.UnitPrice(), it.Subtotal(), now,
		).Scan(&it.ID)
		if err != nil {
			return fmt.Errorf("repository: failed to insert order item for product %d: %w", it.ProductID(), err)
		}
		it.CreatedAt = now
		it.UpdatedAt = now
	}

	return nil
}

// Delete removes an order and its items. A missing order is not an error.
func (r *postgresRepository) Delete(ctx context.Context, id int64) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM orders WHERE id = $1`, id); err != nil {
		return fmt.Errorf("repository: failed to delete order %d: %w", id, err)
	}
	return nil
}
