package cart

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
	ErrNotFound = errors.New("cart not found")
	ErrExists   = errors.New("customer already has a cart")
)

type Repository interface {
	FindByID(ctx context.Context, id int64) (*Cart, error)
	FindByCustomerID(ctx context.Context, customerID int64) (*Cart, error)
	FindAll(ctx context.Context) ([]*Cart, error)
	Save(ctx context.Context, c *Cart) error
	Delete(ctx context.Context, id int64) error
}

type postgresRepository struct {
	db db.DBTX
}

func NewRepository(conn db.DBTX) Repository {
	return &postgresRepository{db: conn}
}

const selectCarts = `SELECT id, customer_id, created_at, updated_at FROM carts`

func (r *postgresRepository) FindByID(ctx context.Context, id int64) (*Cart, error) {
	return r.findOne(ctx, selectCarts+` WHERE id = $1`, id)
}

func (r *postgresRepository) FindByCustomerID(ctx context.Context, customerID int64) (*Cart, error) {
	return r.findOne(ctx, selectCarts+` WHERE customer_id = $1`, customerID)
}

func (r *postgresRepository) findOne(ctx context.Context, query string, arg int64) (*Cart, error) {
	var c Cart
	err := r.db.QueryRow(ctx, query, arg).Scan(&c.ID, &c.CustomerID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("repository: failed to select cart: %w", err)
	}

	if err := r.loadItems(ctx, map[int64]*Cart{c.ID: &c}); err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *postgresRepository) FindAll(ctx context.Context) ([]*Cart, error) {
	rows, err := r.db.Query(ctx, selectCarts+` ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query carts: %w", err)
	}
	defer rows.Close()

	carts := make([]*Cart, 0)
	byID := make(map[int64]*Cart)
	for rows.Next() {
		var c Cart
		if err := rows.Scan(&c.ID, &c.CustomerID, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("repository: failed to scan cart: %w", err)
		}
		carts = append(carts, &c)
		byID[c.ID] = &c
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: failed iterating carts: %w", err)
	}

	if err := r.loadItems(ctx, byID); err != nil {
		return nil, err
	}
	return carts, nil
}

// loadItems attaches items, with their products, to the given carts.
func (r *postgresRepository) loadItems(ctx context.Context, carts map[int64]*Cart) error {
	if len(carts) == 0 {
		return nil
	}
	ids := make([]int64, 0, len(carts))
	for id := range carts {
		ids = append(ids, id)
	}

	query := `
		SELECT ci.id, ci.cart_id, ci.quantity, ci.unit_price, ci.subtotal, ci.created_at, ci.updated_at,
			p.id, p.name, p.type, p.price, p.description, p.image_url, p.status, p.created_at, p.updated_at
		FROM cart_items ci
		JOIN products p ON p.id = ci.product_id
		WHERE ci.cart_id = ANY($1)
		ORDER BY ci.id
	`
	rows, err := r.db.Query(ctx, query, ids)
	if err != nil {
		return fmt.Errorf("repository: failed to query cart items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			item      Item
			p         product.Product
			cartID    int64
			quantity  int
			unitPrice decimal.NullDecimal
			subtotal  decimal.Decimal
		)
		err := rows.Scan(
			&item.ID, &cartID, &quantity, &unitPrice, &subtotal, &item.CreatedAt, &item.UpdatedAt,
			&p.ID, &p.Name, &p.Type, &p.Price, &p.Description, &p.ImageURL, &p.Status, &p.CreatedAt, &p.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("repository: failed to scan cart item: %w", err)
		}
		item.Line = lineitem.Restore(owner(cartID), p.ID, quantity, unitPrice, subtotal, lineitem.LivePrice)
		item.Product = &p

		if c, ok := carts[cartID]; ok {
			c.items = append(c.items, &item)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("repository: failed iterating cart items: %w", err)
	}
	return nil
}

// Save writes the cart and makes the stored items match c's items. When the
// save does not commit, ids assigned during it are cleared again.
func (r *postgresRepository) Save(ctx context.Context, c *Cart) (err error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("repository: failed to begin transaction: %w", err)
	}

	isNew := c.ID == 0
	var inserted []*Item
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(ctx)
			panic(p)
		} else if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				log.Error().Err(rbErr).Int64("cart_id", c.ID).Msg("repository: failed to rollback cart save")
			}
		} else if commitErr := tx.Commit(ctx); commitErr != nil {
			err = fmt.Errorf("repository: failed to commit cart save: %w", commitErr)
		}

		if err != nil {
			if isNew {
				c.SetID(0)
			}
			for _, it := range inserted {
				it.ID = 0
			}
		}
	}()

	now := time.Now().UTC()

	if c.ID == 0 {
		var id int64
		err = tx.QueryRow(ctx,
			`INSERT INTO carts (customer_id, created_at, updated_at) VALUES ($1, $2, $2) RETURNING id`,
			c.CustomerID, now,
		).Scan(&id)
		if err != nil {
			if db.IsUniqueViolation(err, "carts_customer_id_key") {
				return ErrExists
			}
			return fmt.Errorf("repository: failed to insert cart: %w", err)
		}
		c.SetID(id)
		c.CreatedAt = now
	} else {
		cmdTag, execErr := tx.Exec(ctx, `UPDATE carts SET updated_at = $1 WHERE id = $2`, now, c.ID)
		if execErr != nil {
			err = fmt.Errorf("repository: failed to update cart %d: %w", c.ID, execErr)
			return err
		}
		if cmdTag.RowsAffected() == 0 {
			err = ErrNotFound
			return err
		}
	}
	c.UpdatedAt = now

	keep := make([]int64, 0, len(c.items))
	for _, it := range c.items {
		if it.ID != 0 {
			keep = append(keep, it.ID)
		}
	}
	if _, err = tx.Exec(ctx, `DELETE FROM cart_items WHERE cart_id = $1 AND NOT (id = ANY($2))`, c.ID, keep); err != nil {
		return fmt.Errorf("repository: failed to delete removed cart items: %w", err)
	}

	for _, it := range c.items {
		unitPrice, hasPrice := it.UnitPrice()
		price := decimal.NullDecimal{Decimal: unitPrice, Valid: hasPrice}

		if it.ID == 0 {
			err = tx.QueryRow(ctx, `
				INSERT INTO cart_items (cart_id, product_id, quantity, unit_price, subtotal, created_at, updated_at)
				VALUES ($1, $2, $3, $4, $5, $6, $6)
				RETURNING id`,
				c.ID, it.ProductID(), it.Quantity(), price, it.Subtotal(), now,
			).Scan(&it.ID)
			if err != nil {
				return fmt.Errorf("repository: failed to insert cart item for product %d: %w", it.ProductID(), err)
			}
			inserted = append(inserted, it)
			it.CreatedAt = now
		} else {
			_, err = tx.Exec(ctx, `
				UPDATE cart_items SET quantity = $1, unit_price = $2, subtotal = $3, updated_at = $4
				WHERE id = $5 AND cart_id = $6`,
				it.Quantity(), price, it.Subtotal(), now, it.ID, c.ID,
			)
			if err != nil {
				return fmt.Errorf("repository: failed to update cart item %d: %w", it.ID, err)
			}
		}
		it.UpdatedAt = now
	}

	return nil
}

// Delete removes a cart and its items. A missing cart is not an error.
func (r *postgresRepository) Delete(ctx context.Context, id int64) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM carts WHERE id = $1`, id); err != nil {
		return fmt.Errorf("repository: failed to delete cart %d: %w", id, err)
	}
	return nil
}
