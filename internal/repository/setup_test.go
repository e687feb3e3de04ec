package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/RogerDevCode/ecommerce-floresya-sub002/internal/database"
	"github.com/RogerDevCode/ecommerce-floresya-sub002/internal/model"
)

// setupTestDB creates a PostgreSQL testcontainer, applies the schema
// migrations and returns a connection pool.
func setupTestDB(t *testing.T) (*pgxpool.Pool, func()) {
	ctx := context.Background()

	// Start PostgreSQL container
	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("postgres"),
		postgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err)

	// Get connection string
	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	// Create connection pool with the decimal codec registered
	pool, err := database.NewPoolFromConnString(ctx, connStr)
	require.NoError(t, err)

	// Apply migrations
	require.NoError(t, database.Migrate(ctx, pool, zerolog.Nop()))

	// Cleanup function
	cleanup := func() {
		pool.Close()
		_ = pgContainer.Terminate(ctx)
	}

	return pool, cleanup
}

// newTestProduct builds a product row with sane defaults.
func newTestProduct(name string, priceUSD string) model.Product {
	now := time.Now()
	return model.Product{
		ID:        uuid.New(),
		Name:      name,
		PriceUSD:  decimal.RequireFromString(priceUSD),
		PriceVES:  decimal.RequireFromString(priceUSD).Mul(decimal.NewFromInt(40)),
		Stock:     10,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// seedProducts inserts test products into the database.
func seedProducts(t *testing.T, pool *pgxpool.Pool, products []model.Product) {
	ctx := context.Background()

	query := `
		INSERT INTO products (
			id, name, summary, description, price_usd, price_ves,
			stock, active, featured, carousel_order, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	for _, p := range products {
		_, err := pool.Exec(ctx, query,
			p.ID, p.Name, p.Summary, p.Description, p.PriceUSD, p.PriceVES,
			p.Stock, p.Active, p.Featured, p.CarouselOrder, p.CreatedAt, p.UpdatedAt,
		)
		require.NoError(t, err)
	}
}

// seedOrder inserts one order row and returns it.
func seedOrder(t *testing.T, pool *pgxpool.Pool, status model.OrderStatus) *model.Order {
	ctx := context.Background()
	now := time.Now()

	order := &model.Order{
		ID:              uuid.New(),
		CustomerName:    "Maria Perez",
		CustomerEmail:   "maria@example.com",
		DeliveryAddress: "Av. Libertador, Caracas",
		Status:          status,
		TotalUSD:        decimal.RequireFromString("25.50"),
		TotalVES:        decimal.RequireFromString("1020.00"),
		ExchangeRate:    decimal.RequireFromString("40.00"),
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	query := `
		INSERT INTO orders (
			id, customer_name, customer_email, customer_phone, delivery_address,
			delivery_date, status, total_usd, total_ves, exchange_rate,
			created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err := pool.Exec(ctx, query,
		order.ID, order.CustomerName, order.CustomerEmail, order.CustomerPhone,
		order.DeliveryAddress, order.DeliveryDate, order.Status,
		order.TotalUSD, order.TotalVES, order.ExchangeRate,
		order.CreatedAt, order.UpdatedAt,
	)
	require.NoError(t, err)

	return order
}
