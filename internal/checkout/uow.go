package checkout

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/storefront/internal/cart"
	"github.com/vasiliy-maslov/storefront/internal/db"
	"github.com/vasiliy-maslov/storefront/internal/order"
	"github.com/vasiliy-maslov/storefront/internal/product"
)

// Repositories share one transaction for the lifetime of a UnitOfWork call.
type Repositories struct {
	Carts    cart.Repository
	Orders   order.Repository
	Products product.Repository
}

type UnitOfWork interface {
	// Do runs fn in a transaction. It commits when fn returns nil and rolls
	// back otherwise.
	Do(ctx context.Context, fn func(repos Repositories) error) error
}

type pgxUnitOfWork struct {
	db db.DBTX
}

func NewUnitOfWork(conn db.DBTX) UnitOfWork {
	return &pgxUnitOfWork{db: conn}
}

func (u *pgxUnitOfWork) Do(ctx context.Context, fn func(repos Repositories) error) (err error) {
	tx, err := u.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("checkout: failed to begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(ctx)
			panic(p)
		} else if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				log.Error().Err(rbErr).Msg("checkout: failed to rollback transaction")
			}
		} else if commitErr := tx.Commit(ctx); commitErr != nil {
			err = fmt.Errorf("checkout: failed to commit transaction: %w", commitErr)
		}
	}()

	err = fn(Repositories{
		Carts:    cart.NewRepository(tx),
		Orders:   order.NewRepository(tx),
		Products: product.NewRepository(tx),
	})
	return err
}
