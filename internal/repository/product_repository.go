package repository

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/RogerDevCode/ecommerce-floresya-sub002/internal/model"
)

const productColumns = `id, name, summary, description, price_usd, price_ves,
	       stock, active, featured, carousel_order, created_at, updated_at`

// productRepository implements the ProductRepository interface using PostgreSQL.
type productRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewProductRepository creates a new PostgreSQL-backed product repository.
func NewProductRepository(pool *pgxpool.Pool, logger zerolog.Logger) ProductRepository {
	return &productRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "product").Logger(),
	}
}

// BeginTx starts a new database transaction.
func (r *productRepository) BeginTx(ctx context.Context) (pgx.Tx, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to begin transaction")
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return tx, nil
}

// Create inserts a new product and links it to the given occasions.
func (r *productRepository) Create(ctx context.Context, product *model.Product, occasionIDs []uuid.UUID) error {
	query := `
		INSERT INTO products (
			id, name, summary, description, price_usd, price_ves,
			stock, active, featured, carousel_order, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err := r.pool.Exec(ctx, query,
		product.ID,
		product.Name,
		product.Summary,
		product.Description,
		product.PriceUSD,
		product.PriceVES,
		product.Stock,
		product.Active,
		product.Featured,
		product.CarouselOrder,
		product.CreatedAt,
		product.UpdatedAt,
	)
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("product_id", product.ID.String()).
			Msg("failed to create product")
		return fmt.Errorf("failed to create product: %w", err)
	}

	if len(occasionIDs) > 0 {
		linkQuery := `
			INSERT INTO product_occasions (product_id, occasion_id)
			VALUES ($1, $2)
		`

		batch := &pgx.Batch{}
		for _, occasionID := range occasionIDs {
			batch.Queue(linkQuery, product.ID, occasionID)
		}

		results := r.pool.SendBatch(ctx, batch)
		defer results.Close()

		for i := 0; i < len(occasionIDs); i++ {
			if _, err := results.Exec(); err != nil {
				r.logger.Error().
					Err(err).
					Str("product_id", product.ID.String()).
					Str("occasion_id", occasionIDs[i].String()).
					Msg("failed to link product to occasion")
				return fmt.Errorf("failed to link product to occasion: %w", err)
			}
		}
	}

	r.logger.Debug().
		Str("product_id", product.ID.String()).
		Msg("product created successfully")

	return nil
}

// GetAll retrieves all products with pagination support.
func (r *productRepository) GetAll(ctx context.Context, limit, offset int) ([]model.Product, error) {
	query := `
		SELECT ` + productColumns + `
		FROM products
		ORDER BY name
		LIMIT $1 OFFSET $2
	`

	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		r.logger.Error().Err(err).
			Int("limit", limit).
			Int("offset", offset).
			Msg("failed to query products")
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	return scanProducts(rows, r.logger)
}

// GetByID retrieves a single product by its ID.
func (r *productRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	query := `
		SELECT ` + productColumns + `
		FROM products
		WHERE id = $1
	`

	var p model.Product
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&p.ID, &p.Name, &p.Summary, &p.Description, &p.PriceUSD, &p.PriceVES,
		&p.Stock, &p.Active, &p.Featured, &p.CarouselOrder, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			r.logger.Debug().Str("product_id", id.String()).Msg("product not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Str("product_id", id.String()).Msg("failed to query product")
		return nil, fmt.Errorf("failed to query product: %w", err)
	}

	return &p, nil
}

// GetByIDs retrieves multiple products by their IDs.
func (r *productRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Product, error) {
	if len(ids) == 0 {
		return []model.Product{}, nil
	}

	query := `
		SELECT ` + productColumns + `
		FROM products
		WHERE id = ANY($1)
		ORDER BY name
	`

	rows, err := r.pool.Query(ctx, query, ids)
	if err != nil {
		r.logger.Error().Err(err).Int("count", len(ids)).Msg("failed to query products by IDs")
		return nil, fmt.Errorf("failed to query products by IDs: %w", err)
	}
	defer rows.Close()

	return scanProducts(rows, r.logger)
}

// LockProduct locks the product row within the provided transaction and
// reports whether it exists.
func (r *productRepository) LockProduct(ctx context.Context, tx pgx.Tx, id uuid.UUID) (bool, error) {
	query := `
		SELECT id
		FROM products
		WHERE id = $1
		FOR UPDATE
	`

	var lockedID uuid.UUID
	err := tx.QueryRow(ctx, query, id).Scan(&lockedID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return false, nil
		}
		r.logger.Error().Err(err).Str("product_id", id.String()).Msg("failed to lock product row")
		return false, fmt.Errorf("failed to lock product row: %w", err)
	}

	return true, nil
}

// LockCarouselProducts locks the target product row plus every product
// currently holding a carousel slot. Rows are locked in id order so two
// concurrent assignments never deadlock.
func (r *productRepository) LockCarouselProducts(ctx context.Context, tx pgx.Tx, targetID uuid.UUID) (*model.Product, []model.CarouselSlot, error) {
	query := `
		SELECT id, carousel_order
		FROM products
		WHERE id = $1 OR carousel_order IS NOT NULL
		ORDER BY id
		FOR UPDATE
	`

	rows, err := tx.Query(ctx, query, targetID)
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("product_id", targetID.String()).
			Msg("failed to lock carousel rows")
		return nil, nil, fmt.Errorf("failed to lock carousel rows: %w", err)
	}
	defer rows.Close()

	var target *model.Product
	var slots []model.CarouselSlot
	for rows.Next() {
		var id uuid.UUID
		var position *int
		if err := rows.Scan(&id, &position); err != nil {
			r.logger.Error().Err(err).Msg("failed to scan carousel row")
			return nil, nil, fmt.Errorf("failed to scan carousel row: %w", err)
		}

		if id == targetID {
			target = &model.Product{ID: id, CarouselOrder: position}
		}
		if position != nil {
			slots = append(slots, model.CarouselSlot{ProductID: id, Position: *position})
		}
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating carousel rows")
		return nil, nil, fmt.Errorf("error iterating carousel rows: %w", err)
	}

	sort.Slice(slots, func(i, j int) bool { return slots[i].Position < slots[j].Position })

	return target, slots, nil
}

// SetCarouselOrder writes one product's carousel position within the
// provided transaction. A nil position clears the slot.
func (r *productRepository) SetCarouselOrder(ctx context.Context, tx pgx.Tx, id uuid.UUID, position *int) error {
	query := `
		UPDATE products
		SET carousel_order = $2, updated_at = CURRENT_TIMESTAMP
		WHERE id = $1
	`

	_, err := tx.Exec(ctx, query, id, position)
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("product_id", id.String()).
			Msg("failed to set carousel order")
		return fmt.Errorf("failed to set carousel order: %w", err)
	}

	return nil
}

// ShiftCarouselOrders rewrites several products' carousel positions within
// the provided transaction.
func (r *productRepository) ShiftCarouselOrders(ctx context.Context, tx pgx.Tx, slots []model.CarouselSlot) error {
	if len(slots) == 0 {
		return nil
	}

	query := `
		UPDATE products
		SET carousel_order = $2, updated_at = CURRENT_TIMESTAMP
		WHERE id = $1
	`

	batch := &pgx.Batch{}
	for _, slot := range slots {
		batch.Queue(query, slot.ProductID, slot.Position)
	}

	results := tx.SendBatch(ctx, batch)
	defer results.Close()

	for i := 0; i < len(slots); i++ {
		if _, err := results.Exec(); err != nil {
			r.logger.Error().
				Err(err).
				Str("product_id", slots[i].ProductID.String()).
				Int("position", slots[i].Position).
				Msg("failed to shift carousel order")
			return fmt.Errorf("failed to shift carousel order: %w", err)
		}
	}

	r.logger.Debug().
		Int("count", len(slots)).
		Msg("carousel orders shifted")

	return nil
}

// GetCarousel returns the occupied carousel slots ordered by position.
func (r *productRepository) GetCarousel(ctx context.Context) ([]model.CarouselSlot, error) {
	query := `
		SELECT id, carousel_order
		FROM products
		WHERE carousel_order IS NOT NULL
		ORDER BY carousel_order
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query carousel")
		return nil, fmt.Errorf("failed to query carousel: %w", err)
	}
	defer rows.Close()

	var slots []model.CarouselSlot
	for rows.Next() {
		var slot model.CarouselSlot
		if err := rows.Scan(&slot.ProductID, &slot.Position); err != nil {
			r.logger.Error().Err(err).Msg("failed to scan carousel slot")
			return nil, fmt.Errorf("failed to scan carousel slot: %w", err)
		}
		slots = append(slots, slot)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating carousel slots")
		return nil, fmt.Errorf("error iterating carousel slots: %w", err)
	}

	return slots, nil
}

// CreateOccasion inserts a new occasion.
func (r *productRepository) CreateOccasion(ctx context.Context, occasion *model.Occasion) error {
	query := `
		INSERT INTO occasions (id, name, slug, active, display_order, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.pool.Exec(ctx, query,
		occasion.ID,
		occasion.Name,
		occasion.Slug,
		occasion.Active,
		occasion.DisplayOrder,
		occasion.CreatedAt,
	)
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("slug", occasion.Slug).
			Msg("failed to create occasion")
		return fmt.Errorf("failed to create occasion: %w", err)
	}

	return nil
}

// GetOccasions retrieves all active occasions ordered for display.
func (r *productRepository) GetOccasions(ctx context.Context) ([]model.Occasion, error) {
	query := `
		SELECT id, name, slug, active, display_order, created_at
		FROM occasions
		WHERE active
		ORDER BY display_order, name
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query occasions")
		return nil, fmt.Errorf("failed to query occasions: %w", err)
	}
	defer rows.Close()

	var occasions []model.Occasion
	for rows.Next() {
		var o model.Occasion
		err := rows.Scan(&o.ID, &o.Name, &o.Slug, &o.Active, &o.DisplayOrder, &o.CreatedAt)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan occasion row")
			return nil, fmt.Errorf("failed to scan occasion: %w", err)
		}
		occasions = append(occasions, o)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating occasion rows")
		return nil, fmt.Errorf("error iterating occasions: %w", err)
	}

	return occasions, nil
}

// scanProducts collects full product rows from a result set.
func scanProducts(rows pgx.Rows, logger zerolog.Logger) ([]model.Product, error) {
	var products []model.Product
	for rows.Next() {
		var p model.Product
		err := rows.Scan(
			&p.ID, &p.Name, &p.Summary, &p.Description, &p.PriceUSD, &p.PriceVES,
			&p.Stock, &p.Active, &p.Featured, &p.CarouselOrder, &p.CreatedAt, &p.UpdatedAt,
		)
		if err != nil {
			logger.Error().Err(err).Msg("failed to scan product row")
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, p)
	}

	if err := rows.Err(); err != nil {
		logger.Error().Err(err).Msg("error iterating product rows")
		return nil, fmt.Errorf("error iterating products: %w", err)
	}

	return products, nil
}
