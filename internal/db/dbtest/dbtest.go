// Package dbtest connects integration tests to a real Postgres. Tests are
// skipped unless DB_HOST_TEST is set.
package dbtest

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/vasiliy-maslov/storefront/internal/config"
	"github.com/vasiliy-maslov/storefront/internal/db"
)

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// Connect migrates schema and returns a connection that is closed when the test ends.
// Each package passes its own schema so packages can run in parallel.
func Connect(tb testing.TB, schema string) *db.Postgres {
	tb.Helper()

	host := os.Getenv("DB_HOST_TEST")
	if host == "" {
		tb.Skip("DB_HOST_TEST is not set, skipping postgres integration test")
	}

	cfg := config.PostgresConfig{
		Host:            host,
		Port:            envOr("DB_PORT_TEST", "5432"),
		User:            envOr("DB_USER_TEST", "postgres"),
		Password:        envOr("DB_PASSWORD_TEST", "123456"),
		DBName:          envOr("DB_NAME_TEST", "ecommerce_db"),
		SSLMode:         envOr("DB_SSLMODE_TEST", "disable"),
		Schema:          schema,
		MaxConns:        5,
		MaxConnLifetime: time.Minute,
		AutoMigrate:     true,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pg, err := db.New(ctx, cfg)
	require.NoError(tb, err, "failed to connect to test database")
	tb.Cleanup(pg.Close)

	Truncate(tb, pg)
	return pg
}

func Truncate(tb testing.TB, pg *db.Postgres) {
	tb.Helper()

	_, err := pg.Pool.Exec(context.Background(),
		`TRUNCATE order_items, orders, cart_items, carts, products, customers, users CASCADE`)
	require.NoError(tb, err, "failed to truncate tables")
}
