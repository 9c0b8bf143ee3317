package product

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/storefront/internal/db"
)

var (
	ErrNotFound = errors.New("product not found")
	ErrInUse    = errors.New("product is referenced by carts or orders")
)

type Repository interface {
	FindByID(ctx context.Context, id int64) (*Product, error)
	FindByIDs(ctx context.Context, ids []int64) (map[int64]*Product, error)
	FindAll(ctx context.Context) ([]Product, error)
	Save(ctx context.Context, p *Product) error
	Delete(ctx context.Context, id int64) error
}

type postgresRepository struct {
	db db.DBTX
}

func NewRepository(conn db.DBTX) Repository {
	return &postgresRepository{db: conn}
}

const selectProducts = `
	SELECT id, name, type, price, description, image_url, status, created_at, updated_at
	FROM products
`

func scanProduct(row pgx.Row) (*Product, error) {
	var p Product
	err := row.Scan(
		&p.ID,
		&p.Name,
		&p.Type,
		&p.Price,
		&p.Description,
		&p.ImageURL,
		&p.Status,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *postgresRepository) FindByID(ctx context.Context, id int64) (*Product, error) {
	p, err := scanProduct(r.db.QueryRow(ctx, selectProducts+` WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("repository: failed to select product by id %d: %w", id, err)
	}
	return p, nil
}

func (r *postgresRepository) FindByIDs(ctx context.Context, ids []int64) (map[int64]*Product, error) {
	result := make(map[int64]*Product, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	rows, err := r.db.Query(ctx, selectProducts+` WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query products by ids: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to scan product: %w", err)
		}
		result[p.ID] = p
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: failed iterating products: %w", err)
	}
	return result, nil
}

func (r *postgresRepository) FindAll(ctx context.Context) ([]Product, error) {
	rows, err := r.db.Query(ctx, selectProducts+` ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query products: %w", err)
	}
	defer rows.Close()

	products := make([]Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to scan product: %w", err)
		}
		products = append(products, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: failed iterating products: %w", err)
	}
	return products, nil
}

// Save inserts a product without an id and updates it otherwise.
func (r *postgresRepository) Save(ctx context.Context, p *Product) error {
	now := time.Now().UTC()

	if p.ID == 0 {
		query := `
			INSERT INTO products (name, type, price, description, image_url, status, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
			RETURNING id
		`
		err := r.db.QueryRow(ctx, query,
			p.Name,
			p.Type,
			p.Price,
			p.Description,
			p.ImageURL,
			string(p.Status),
			now,
		).Scan(&p.ID)
		if err != nil {
			return fmt.Errorf("repository: failed to insert product: %w", err)
		}
		p.CreatedAt = now
		p.UpdatedAt = now
		return nil
	}

	query := `
		UPDATE products
		SET name = $1, type = $2, price = $3, description = $4, image_url = $5, status = $6, updated_at = $7
		WHERE id = $8
	`
	cmdTag, err := r.db.Exec(ctx, query,
		p.Name,
		p.Type,
		p.Price,
		p.Description,
		p.ImageURL,
		string(p.Status),
		now,
		p.ID,
	)
	if err != nil {
		return fmt.Errorf("repository: failed to update product %d: %w", p.ID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		log.Warn().Int64("product_id", p.ID).Msg("repository: product not found for update")
		return ErrNotFound
	}
	p.UpdatedAt = now
	return nil
}

// Delete removes a product. Deleting a missing product is not an error.
func (r *postgresRepository) Delete(ctx context.Context, id int64) error {
	_, err := r.db.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		if db.IsForeignKeyViolation(err) {
			return ErrInUse
		}
		return fmt.Errorf("repository: failed to delete product %d: %w", id, err)
	}
	return nil
}
