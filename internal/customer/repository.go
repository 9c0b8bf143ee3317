package customer

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/vasiliy-maslov/storefront/internal/db"
)

var (
	ErrNotFound     = errors.New("customer not found")
	ErrExists       = errors.New("customer already exists for this user")
	ErrUserNotFound = errors.New("user for customer not found")
	ErrHasOrders    = errors.New("customer has orders and cannot be deleted")
)

type Repository interface {
	FindByID(ctx context.Context, id int64) (*Customer, error)
	FindByUserID(ctx context.Context, userID int64) (*Customer, error)
	FindAll(ctx context.Context) ([]Customer, error)
	Save(ctx context.Context, c *Customer) error
	Delete(ctx context.Context, id int64) error
}

type postgresRepository struct {
	db *sqlx.DB
}

func NewRepository(conn *sqlx.DB) Repository {
	return &postgresRepository{db: conn}
}

const selectCustomers = `
	SELECT id, user_id, name, phone, address, city, postal_code, country, birthday, gender, created_at, updated_at
	FROM customers
`

func (r *postgresRepository) FindByID(ctx context.Context, id int64) (*Customer, error) {
	var c Customer
	if err := r.db.GetContext(ctx, &c, selectCustomers+` WHERE id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("repository: failed to select customer by id %d: %w", id, err)
	}
	return &c, nil
}

func (r *postgresRepository) FindByUserID(ctx context.Context, userID int64) (*Customer, error) {
	var c Customer
	if err := r.db.GetContext(ctx, &c, selectCustomers+` WHERE user_id = $1`, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("repository: failed to select customer by user id %d: %w", userID, err)
	}
	return &c, nil
}

func (r *postgresRepository) FindAll(ctx context.Context) ([]Customer, error) {
	customers := make([]Customer, 0)
	if err := r.db.SelectContext(ctx, &customers, selectCustomers+` ORDER BY id`); err != nil {
		return nil, fmt.Errorf("repository: failed to select customers: %w", err)
	}
	return customers, nil
}

func (r *postgresRepository) Save(ctx context.Context, c *Customer) error {
	now := time.Now().UTC()
	c.UpdatedAt = now

	if c.ID == 0 {
		c.CreatedAt = now
		query := `
			INSERT INTO customers (user_id, name, phone, address, city, postal_code, country, birthday, gender, created_at, updated_at)
			VALUES (:user_id, :name, :phone, :address, :city, :postal_code, :country, :birthday, :gender, :created_at, :updated_at)
			RETURNING id
		`
		rows, err := r.db.NamedQueryContext(ctx, query, c)
		if err != nil {
			return mapWriteError(err)
		}
		defer rows.Close()
		if rows.Next() {
			if err := rows.Scan(&c.ID); err != nil {
				return fmt.Errorf("repository: failed to scan new customer id: %w", err)
			}
		}
		if err := rows.Err(); err != nil {
			return mapWriteError(err)
		}
		return nil
	}

	query := `
		UPDATE customers
		SET name = :name, phone = :phone, address = :address, city = :city, postal_code = :postal_code,
			country = :country, birthday = :birthday, gender = :gender, updated_at = :updated_at
		WHERE id = :id
	`
	res, err := r.db.NamedExecContext(ctx, query, c)
	if err != nil {
		return mapWriteError(err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("repository: failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *postgresRepository) Delete(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM customers WHERE id = $1`, id); err != nil {
		if db.IsForeignKeyViolation(err) {
			return ErrHasOrders
		}
		return fmt.Errorf("repository: failed to delete customer %d: %w", id, err)
	}
	return nil
}

func mapWriteError(err error) error {
	switch {
	case db.IsUniqueViolation(err, "customers_user_id_key"):
		return ErrExists
	case db.IsForeignKeyViolation(err):
		return ErrUserNotFound
	}
	return fmt.Errorf("repository: failed to save customer: %w", err)
}
