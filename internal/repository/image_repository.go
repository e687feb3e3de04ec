package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/RogerDevCode/ecommerce-floresya-sub002/internal/model"
)

const imageColumns = `id, product_id, image_index, size, url, file_hash,
	       mime_type, is_primary, created_at`

// imageRepository implements the ImageRepository interface using PostgreSQL.
type imageRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewImageRepository creates a new PostgreSQL-backed image repository.
func NewImageRepository(pool *pgxpool.Pool, logger zerolog.Logger) ImageRepository {
	return &imageRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "image").Logger(),
	}
}

// BeginTx starts a new database transaction.
func (r *imageRepository) BeginTx(ctx context.Context) (pgx.Tx, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to begin transaction")
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return tx, nil
}

// CreateImages inserts a batch of renditions within the provided transaction.
func (r *imageRepository) CreateImages(ctx context.Context, tx pgx.Tx, images []model.ProductImage) error {
	if len(images) == 0 {
		return nil
	}

	query := `
		INSERT INTO product_images (
			id, product_id, image_index, size, url, file_hash,
			mime_type, is_primary, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	batch := &pgx.Batch{}
	for _, img := range images {
		batch.Queue(query,
			img.ID,
			img.ProductID,
			img.ImageIndex,
			img.Size,
			img.URL,
			img.FileHash,
			img.MimeType,
			img.IsPrimary,
			img.CreatedAt,
		)
	}

	results := tx.SendBatch(ctx, batch)
	defer results.Close()

	for i := 0; i < len(images); i++ {
		if _, err := results.Exec(); err != nil {
			r.logger.Error().
				Err(err).
				Str("product_id", images[i].ProductID.String()).
				Str("size", string(images[i].Size)).
				Int("image_index", images[i].ImageIndex).
				Msg("failed to create product image")
			return fmt.Errorf("failed to create product image: %w", err)
		}
	}

	r.logger.Debug().
		Int("count", len(images)).
		Msg("product images created successfully")

	return nil
}

// ClearPrimary drops the primary flag from every image of the product
// within the provided transaction.
func (r *imageRepository) ClearPrimary(ctx context.Context, tx pgx.Tx, productID uuid.UUID) error {
	query := `
		UPDATE product_images
		SET is_primary = FALSE
		WHERE product_id = $1 AND is_primary
	`

	_, err := tx.Exec(ctx, query, productID)
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("product_id", productID.String()).
			Msg("failed to clear primary flag")
		return fmt.Errorf("failed to clear primary flag: %w", err)
	}

	return nil
}

// SetPrimary raises the primary flag on one rendition within the provided
// transaction.
func (r *imageRepository) SetPrimary(ctx context.Context, tx pgx.Tx, imageID uuid.UUID) error {
	query := `
		UPDATE product_images
		SET is_primary = TRUE
		WHERE id = $1
	`

	_, err := tx.Exec(ctx, query, imageID)
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("image_id", imageID.String()).
			Msg("failed to set primary flag")
		return fmt.Errorf("failed to set primary flag: %w", err)
	}

	return nil
}

// DeleteByProduct removes every rendition of the product within the
// provided transaction and returns the removed rows, so the caller can
// clean up the blobs they pointed at once the transaction commits.
func (r *imageRepository) DeleteByProduct(ctx context.Context, tx pgx.Tx, productID uuid.UUID) ([]model.ProductImage, error) {
	query := `
		DELETE FROM product_images
		WHERE product_id = $1
		RETURNING ` + imageColumns

	rows, err := tx.Query(ctx, query, productID)
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("product_id", productID.String()).
			Msg("failed to delete product images")
		return nil, fmt.Errorf("failed to delete product images: %w", err)
	}
	defer rows.Close()

	deleted, err := scanImages(rows, r.logger)
	if err != nil {
		return nil, err
	}

	r.logger.Debug().
		Str("product_id", productID.String()).
		Int("deleted", len(deleted)).
		Msg("product images deleted")

	return deleted, nil
}

// NextImageIndex returns the next free photo index for the product within
// the provided transaction.
func (r *imageRepository) NextImageIndex(ctx context.Context, tx pgx.Tx, productID uuid.UUID) (int, error) {
	query := `
		SELECT COALESCE(MAX(image_index) + 1, 0)
		FROM product_images
		WHERE product_id = $1
	`

	var next int
	if err := tx.QueryRow(ctx, query, productID).Scan(&next); err != nil {
		r.logger.Error().
			Err(err).
			Str("product_id", productID.String()).
			Msg("failed to compute next image index")
		return 0, fmt.Errorf("failed to compute next image index: %w", err)
	}

	return next, nil
}

// FindByHash retrieves the renditions of the product's photo with the given
// content hash within the provided transaction.
func (r *imageRepository) FindByHash(ctx context.Context, tx pgx.Tx, productID uuid.UUID, fileHash string) ([]model.ProductImage, error) {
	query := `
		SELECT ` + imageColumns + `
		FROM product_images
		WHERE product_id = $1 AND file_hash = $2
		ORDER BY image_index, size
	`

	rows, err := tx.Query(ctx, query, productID, fileHash)
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("product_id", productID.String()).
			Msg("failed to query images by hash")
		return nil, fmt.Errorf("failed to query images by hash: %w", err)
	}
	defer rows.Close()

	return scanImages(rows, r.logger)
}

// GetByProduct retrieves all renditions for a product ordered by photo
// index and size.
func (r *imageRepository) GetByProduct(ctx context.Context, productID uuid.UUID) ([]model.ProductImage, error) {
	query := `
		SELECT ` + imageColumns + `
		FROM product_images
		WHERE product_id = $1
		ORDER BY image_index, size
	`

	rows, err := r.pool.Query(ctx, query, productID)
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("product_id", productID.String()).
			Msg("failed to query product images")
		return nil, fmt.Errorf("failed to query product images: %w", err)
	}
	defer rows.Close()

	return scanImages(rows, r.logger)
}

// scanImages collects image rows from a result set.
func scanImages(rows pgx.Rows, logger zerolog.Logger) ([]model.ProductImage, error) {
	var images []model.ProductImage
	for rows.Next() {
		var img model.ProductImage
		err := rows.Scan(
			&img.ID,
			&img.ProductID,
			&img.ImageIndex,
			&img.Size,
			&img.URL,
			&img.FileHash,
			&img.MimeType,
			&img.IsPrimary,
			&img.CreatedAt,
		)
		if err != nil {
			logger.Error().Err(err).Msg("failed to scan image row")
			return nil, fmt.Errorf("failed to scan image: %w", err)
		}
		images = append(images, img)
	}

	if err := rows.Err(); err != nil {
		logger.Error().Err(err).Msg("error iterating image rows")
		return nil, fmt.Errorf("error iterating images: %w", err)
	}

	return images, nil
}
