package user

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
	ErrNotFound       = errors.New("user not found")
	ErrUsernameExists = errors.New("username already exists")
	ErrHasOrders      = errors.New("user has orders and cannot be deleted")
)

type Repository interface {
	FindByID(ctx context.Context, id int64) (*User, error)
	FindByUsername(ctx context.Context, username string) (*User, error)
	FindAll(ctx context.Context) ([]User, error)
	Save(ctx context.Context, u *User) error
	Delete(ctx context.Context, id int64) error
}

type postgresRepository struct {
	db *sqlx.DB
}

func NewRepository(conn *sqlx.DB) Repository {
	return &postgresRepository{db: conn}
}

const selectUsers = `SELECT id, username, email, password_hash, enabled, role, created_at, updated_at FROM users`

func (r *postgresRepository) FindByID(ctx context.Context, id int64) (*User, error) {
	var u User
	if err := r.db.GetContext(ctx, &u, selectUsers+` WHERE id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("repository: failed to select user by id %d: %w", id, err)
	}
	return &u, nil
}

func (r *postgresRepository) FindByUsername(ctx context.Context, username string) (*User, error) {
	var u User
	if err := r.db.GetContext(ctx, &u, selectUsers+` WHERE username = $1`, username); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("repository: failed to select user by username: %w", err)
	}
	return &u, nil
}

func (r *postgresRepository) FindAll(ctx context.Context) ([]User, error) {
	users := make([]User, 0)
	if err := r.db.SelectContext(ctx, &users, selectUsers+` ORDER BY id`); err != nil {
		return nil, fmt.Errorf("repository: failed to select users: %w", err)
	}
	return users, nil
}

func (r *postgresRepository) Save(ctx context.Context, u *User) error {
	now := time.Now().UTC()
	u.UpdatedAt = now

	if u.ID == 0 {
		u.CreatedAt = now
		query := `
			INSERT INTO users (username, email, password_hash, enabled, role, created_at, updated_at)
			VALUES (:username, :email, :password_hash, :enabled, :role, :created_at, :updated_at)
			RETURNING id
		`
		rows, err := r.db.NamedQueryContext(ctx, query, u)
		if err != nil {
			return mapWriteError(err)
		}
		defer rows.Close()
		if rows.Next() {
			if err := rows.Scan(&u.ID); err != nil {
				return fmt.Errorf("repository: failed to scan new user id: %w", err)
			}
		}
		if err := rows.Err(); err != nil {
			return mapWriteError(err)
		}
		return nil
	}

	query := `
		UPDATE users
		SET username = :username, email = :email, password_hash = :password_hash,
			enabled = :enabled, role = :role, updated_at = :updated_at
		WHERE id = :id
	`
	res, err := r.db.NamedExecContext(ctx, query, u)
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

// Delete removes the user and, through cascades, its customer and cart.
func (r *postgresRepository) Delete(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id); err != nil {
		if db.IsForeignKeyViolation(err) {
			return ErrHasOrders
		}
		return fmt.Errorf("repository: failed to delete user %d: %w", id, err)
	}
	return nil
}

func mapWriteError(err error) error {
	if db.IsUniqueViolation(err, "users_username_key") {
		return ErrUsernameExists
	}
	return fmt.Errorf("repository: failed to save user: %w", err)
}
